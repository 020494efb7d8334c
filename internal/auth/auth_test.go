package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestParseJWT(t *testing.T) {
	tok, err := SignJWT([]byte(secret), "u1", "Landlord", "", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(tok, []byte(secret))
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, RoleLandlord, claims.Role)

	_, err = ParseJWT(tok, []byte("other"))
	assert.Error(t, err)
}

func TestParseJWT_Rejects(t *testing.T) {
	cases := map[string]func() string{
		"expired": func() string {
			c := Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			}}
			tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
			return tok
		},
		"unknown role": func() string {
			tok, _ := SignJWT([]byte(secret), "u1", "janitor", "", time.Hour)
			return tok
		},
		"boarder without room": func() string {
			tok, _ := SignJWT([]byte(secret), "u1", RoleBoarder, "", time.Hour)
			return tok
		},
		"missing subject": func() string {
			tok, _ := SignJWT([]byte(secret), "", RoleAdmin, "", time.Hour)
			return tok
		},
		"empty": func() string { return "" },
	}
	for name, mk := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJWT(mk(), []byte(secret))
			assert.Error(t, err)
		})
	}
}

func TestEnforce(t *testing.T) {
	svc, err := NewService(secret)
	require.NoError(t, err)

	cases := []struct {
		role, obj, act string
		want           bool
	}{
		{RoleAdmin, ObjRooms, ActWrite, true},
		{RoleLandlord, ObjBills, ActWrite, true},
		{RoleLandlord, ObjRooms, ActRead, true},
		{RoleLandlord, ObjRooms, ActWrite, false},
		{RoleBoarder, ObjBills, ActRead, true},
		{RoleBoarder, ObjBills, ActWrite, false},
		{RoleBoarder, ObjTariff, ActRead, true},
		{RoleBoarder, ObjRooms, ActRead, false},
		{RoleBoarder, ObjReports, ActCreate, true},
		{RoleBoarder, ObjReports, ActRead, true},
		{RoleBoarder, ObjReports, ActWrite, false},
		{RoleLandlord, ObjReports, ActWrite, true},
		{RoleAdmin, ObjReports, ActWrite, true},
	}
	for _, tc := range cases {
		got, err := svc.Enforce(tc.role, tc.obj, tc.act)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s %s %s", tc.role, tc.obj, tc.act)
	}
}

func TestNewService_RequiresSecret(t *testing.T) {
	_, err := NewService("")
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	svc, err := NewService(secret)
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !CanAccessRoom(r.Context(), "101") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	h := svc.Middleware(svc.RequirePermission(ObjBills, ActRead, ok))

	do := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms/101/bills", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	landlord, _ := SignJWT([]byte(secret), "l1", RoleLandlord, "", time.Hour)
	own, _ := SignJWT([]byte(secret), "b1", RoleBoarder, "101", time.Hour)
	other, _ := SignJWT([]byte(secret), "b2", RoleBoarder, "202", time.Hour)

	assert.Equal(t, http.StatusUnauthorized, do(""))
	assert.Equal(t, http.StatusUnauthorized, do("Token abc"))
	assert.Equal(t, http.StatusUnauthorized, do("Bearer garbage"))
	assert.Equal(t, http.StatusOK, do("Bearer "+landlord))
	assert.Equal(t, http.StatusOK, do("Bearer "+own))
	assert.Equal(t, http.StatusForbidden, do("Bearer "+other))

	write := svc.Middleware(svc.RequirePermission(ObjBills, ActWrite, ok))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills", nil)
	req.Header.Set("Authorization", "Bearer "+own)
	rec := httptest.NewRecorder()
	write.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
