package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bher20/dormbill/internal/billing"
	"github.com/bher20/dormbill/internal/metrics"
	"github.com/bher20/dormbill/internal/storage"
)

var clock = time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T) *Service {
	t.Helper()
	st := storage.NewMemoryWithRooms([]storage.Room{{ID: "101"}, {ID: "202"}})
	svc := New(st, nil)
	svc.now = func() time.Time { return clock }
	return svc
}

func TestSubmit_DefaultsToPendingToday(t *testing.T) {
	svc := newService(t)
	submitted := testutil.ToFloat64(metrics.ReportsTotal.WithLabelValues("submitted"))

	r, err := svc.Submit(context.Background(), Submission{RoomID: " 101 ", Boarder: "Ana", Description: "no hot water"})
	require.NoError(t, err)
	assert.Equal(t, submitted+1, testutil.ToFloat64(metrics.ReportsTotal.WithLabelValues("submitted")))
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "101", r.RoomID)
	assert.Equal(t, "2024-05-03", r.Date)
	assert.Equal(t, storage.ReportPending, r.Status)

	got, err := svc.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, "no hot water", got.Description)
}

func TestSubmit_Rejects(t *testing.T) {
	svc := newService(t)
	cases := []struct {
		name  string
		sub   Submission
		field string
	}{
		{"missing room", Submission{Description: "x"}, "room_id"},
		{"blank description", Submission{RoomID: "101", Description: "  "}, "description"},
		{"bad date", Submission{RoomID: "101", Description: "x", Date: "05/04/2024"}, "date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tc.sub)
			var ve *billing.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	_, err := svc.Submit(context.Background(), Submission{RoomID: "999", Description: "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDecideAndDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	a, err := svc.Submit(ctx, Submission{RoomID: "101", Description: "door lock", Date: "2024-05-06"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, Submission{RoomID: "202", Description: "light bulb"})
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	mine, err := svc.List(ctx, "101")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	r, err := svc.Decide(ctx, a.ID, "Approved")
	require.NoError(t, err)
	assert.Equal(t, storage.ReportApproved, r.Status)

	r, err = svc.Decide(ctx, a.ID, storage.ReportDeclined)
	require.NoError(t, err)
	assert.Equal(t, storage.ReportDeclined, r.Status)

	_, err = svc.Decide(ctx, a.ID, storage.ReportPending)
	assert.ErrorIs(t, err, billing.ErrValidation)
	_, err = svc.Decide(ctx, "missing", storage.ReportApproved)
	assert.ErrorIs(t, err, ErrReportNotFound)

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, a.ID), ErrReportNotFound)
	_, err = svc.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrReportNotFound)
}
