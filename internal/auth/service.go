package auth

import (
	"errors"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Objects and actions guarded by the enforcer.
const (
	ObjBills   = "bills"
	ObjRooms   = "rooms"
	ObjTariff  = "tariff"
	ObjReports = "reports"

	ActRead   = "read"
	ActWrite  = "write"
	ActCreate = "create"
)

type Service struct {
	secret   []byte
	enforcer *casbin.Enforcer
}

func NewService(secret string) (*Service, error) {
	if secret == "" {
		return nil, errors.New("auth: empty secret")
	}

	m, err := model.NewModelFromString(`
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (r.obj == p.obj || p.obj == "*") && (r.act == p.act || p.act == "*")
`)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	policies := [][]string{
		{RoleAdmin, "*", "*"},
		{RoleLandlord, ObjBills, ActRead},
		{RoleLandlord, ObjBills, ActWrite},
		{RoleLandlord, ObjRooms, ActRead},
		{RoleLandlord, ObjTariff, ActRead},
		{RoleLandlord, ObjReports, ActRead},
		{RoleLandlord, ObjReports, ActWrite},
		{RoleLandlord, ObjReports, ActCreate},
		// Boarders are further limited to their own room by the handlers.
		{RoleBoarder, ObjBills, ActRead},
		{RoleBoarder, ObjTariff, ActRead},
		{RoleBoarder, ObjReports, ActRead},
		{RoleBoarder, ObjReports, ActCreate},
	}
	if _, err := e.AddPolicies(policies); err != nil {
		return nil, err
	}

	return &Service{secret: []byte(secret), enforcer: e}, nil
}

// Verify parses a bearer token.
func (s *Service) Verify(raw string) (*Claims, error) {
	return ParseJWT(raw, s.secret)
}

func (s *Service) Enforce(role, obj, act string) (bool, error) {
	return s.enforcer.Enforce(role, obj, act)
}
