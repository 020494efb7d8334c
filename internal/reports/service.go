// Package reports handles maintenance requests boarders file against their
// room and the landlord's approve/decline decision on them.
package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bher20/dormbill/internal/billing"
	"github.com/bher20/dormbill/internal/metrics"
	"github.com/bher20/dormbill/internal/storage"
)

// ErrReportNotFound is returned when a report id does not exist.
var ErrReportNotFound = errors.New("report not found")

// Submission is a new maintenance request. An empty Date means today.
type Submission struct {
	RoomID      string `json:"room_id"`
	Boarder     string `json:"boarder"`
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
}

type Service struct {
	st  storage.Storage
	log *zap.Logger
	now func() time.Time
}

func New(st storage.Storage, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{st: st, log: log, now: time.Now}
}

func invalid(field, reason string) error {
	return &billing.ValidationError{Field: field, Reason: reason}
}

// Submit files a pending report against an existing room.
func (s *Service) Submit(ctx context.Context, sub Submission) (*storage.Report, error) {
	roomID := strings.TrimSpace(sub.RoomID)
	if roomID == "" {
		return nil, invalid("room_id", "is required")
	}
	desc := strings.TrimSpace(sub.Description)
	if desc == "" {
		return nil, invalid("description", "is required")
	}
	now := s.now()
	date := strings.TrimSpace(sub.Date)
	if date == "" {
		date = now.Format(billing.DueDateLayout)
	} else if _, err := time.Parse(billing.DueDateLayout, date); err != nil {
		return nil, invalid("date", fmt.Sprintf("%q is not a YYYY-MM-DD date", sub.Date))
	}

	room, err := s.st.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("room %s: %w", roomID, storage.ErrNotFound)
	}

	r := storage.Report{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		Boarder:     strings.TrimSpace(sub.Boarder),
		Description: desc,
		Date:        date,
		Status:      storage.ReportPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.st.SaveReport(ctx, r); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	metrics.ReportsTotal.WithLabelValues("submitted").Inc()
	s.log.Info("report submitted", zap.String("report_id", r.ID), zap.String("room_id", r.RoomID), zap.String("date", r.Date))
	return &r, nil
}

func (s *Service) Get(ctx context.Context, id string) (*storage.Report, error) {
	r, err := s.st.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrReportNotFound
	}
	return r, nil
}

// List returns reports newest first, limited to roomID when it is set.
func (s *Service) List(ctx context.Context, roomID string) ([]storage.Report, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return s.st.ListReports(ctx)
	}
	return s.st.ListReportsByRoom(ctx, roomID)
}

// Decide approves or declines a report. A decision may be revised later.
func (s *Service) Decide(ctx context.Context, id, status string) (*storage.Report, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != storage.ReportApproved && status != storage.ReportDeclined {
		return nil, invalid("status", fmt.Sprintf("must be %q or %q", storage.ReportApproved, storage.ReportDeclined))
	}
	err := s.st.UpdateReportStatus(ctx, id, status, s.now())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	metrics.ReportsTotal.WithLabelValues(status).Inc()
	s.log.Info("report decided", zap.String("report_id", id), zap.String("status", status))
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.st.DeleteReport(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrReportNotFound
	}
	if err != nil {
		return err
	}
	metrics.ReportsTotal.WithLabelValues("deleted").Inc()
	s.log.Info("report deleted", zap.String("report_id", id))
	return nil
}
