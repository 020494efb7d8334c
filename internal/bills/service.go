package bills

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bher20/dormbill/internal/billing"
	"github.com/bher20/dormbill/internal/config"
	"github.com/bher20/dormbill/internal/metrics"
	"github.com/bher20/dormbill/internal/storage"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ElectricInput carries the electricity readings. A nil Rate uses the tariff.
type ElectricInput struct {
	Reading billing.MeterReading `json:"reading"`
	Rate    *float64             `json:"rate,omitempty"`
}

// WaterInput carries the water readings. Empty Tiers and a nil VATRate use
// the tariff.
type WaterInput struct {
	Reading billing.MeterReading `json:"reading"`
	Tiers   billing.TierSchedule `json:"tiers,omitempty"`
	VATRate *float64             `json:"vat_rate,omitempty"`
}

// Request asks for a bill for one room. When Occupants is empty the room's
// boarders are billed using their recorded days.
type Request struct {
	RoomID    string             `json:"room_id"`
	DueDate   string             `json:"due_date,omitempty"`
	Split     string             `json:"split,omitempty"`
	Occupants []billing.Occupant `json:"occupants,omitempty"`
	Electric  ElectricInput      `json:"electric"`
	Water     WaterInput         `json:"water"`
}

type Service struct {
	st     storage.Storage
	tariff config.Tariff
	due    cron.Schedule
	log    *zap.Logger
	now    func() time.Time
}

// New builds a Service. dueSchedule is a standard 5-field cron expression
// whose next activation becomes the due date of bills that omit one.
func New(st storage.Storage, tariff config.Tariff, dueSchedule string, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	sched, err := cron.ParseStandard(dueSchedule)
	if err != nil {
		return nil, fmt.Errorf("due schedule %q: %w", dueSchedule, err)
	}
	return &Service{
		st:     st,
		tariff: tariff,
		due:    sched,
		log:    log,
		now:    time.Now,
	}, nil
}

// Tariff returns the pricing applied when a request omits rates.
func (s *Service) Tariff() config.Tariff {
	return s.tariff
}

// NextDueDate returns the first scheduled due date after from.
func (s *Service) NextDueDate(from time.Time) string {
	return s.due.Next(from).Format(billing.DueDateLayout)
}

// Preview computes a bill without persisting it.
func (s *Service) Preview(ctx context.Context, req Request) (billing.BillRecord, error) {
	rec, err := s.compose(ctx, req)
	metrics.ObserveCalculation("preview", err)
	return rec, err
}

// Issue computes and persists a bill for an existing room, then flags the
// room's boarders as billed.
func (s *Service) Issue(ctx context.Context, req Request) (*storage.Bill, error) {
	rec, err := s.issue(ctx, req)
	metrics.ObserveCalculation("issue", err)
	return rec, err
}

func (s *Service) issue(ctx context.Context, req Request) (*storage.Bill, error) {
	if strings.TrimSpace(req.RoomID) != "" {
		if _, err := s.room(ctx, req.RoomID); err != nil {
			return nil, err
		}
	}
	rec, err := s.compose(ctx, req)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode bill: %w", err)
	}
	bill := storage.Bill{
		ID:        uuid.NewString(),
		RoomID:    rec.RoomID,
		DueDate:   rec.DueDate,
		Status:    storage.BillIssued,
		Total:     rec.Total(),
		Payload:   payload,
		CreatedAt: rec.CreatedAt,
	}
	if err := s.st.SaveBill(ctx, bill); err != nil {
		return nil, fmt.Errorf("save bill: %w", err)
	}
	if err := s.st.MarkBillSent(ctx, rec.RoomID); err != nil {
		s.log.Warn("mark bill sent failed", zap.String("room_id", rec.RoomID), zap.Error(err))
	}

	metrics.BillsIssuedTotal.Inc()
	s.log.Info("bill issued",
		zap.String("bill_id", bill.ID),
		zap.String("room_id", bill.RoomID),
		zap.String("due_date", bill.DueDate),
		zap.String("total", bill.Total),
	)
	return &bill, nil
}

func (s *Service) compose(ctx context.Context, req Request) (billing.BillRecord, error) {
	start := time.Now()
	defer func() { metrics.CalculationDurationSeconds.Observe(time.Since(start).Seconds()) }()

	occupants := req.Occupants
	if len(occupants) == 0 {
		var err error
		occupants, err = s.occupants(ctx, req.RoomID)
		if err != nil {
			return billing.BillRecord{}, err
		}
	}

	now := s.now()
	due := strings.TrimSpace(req.DueDate)
	if due == "" {
		due = s.NextDueDate(now)
	}
	split := req.Split
	if split == "" {
		split = s.tariff.Split
	}
	rate := s.tariff.ElectricRate
	if req.Electric.Rate != nil {
		rate = *req.Electric.Rate
	}
	tiers := req.Water.Tiers
	if len(tiers) == 0 {
		tiers = s.tariff.WaterTiers
	}
	vat := s.tariff.VATRate
	if req.Water.VATRate != nil {
		vat = *req.Water.VATRate
	}

	return billing.Compose(billing.BillRequest{
		RoomID:    req.RoomID,
		DueDate:   due,
		Split:     split,
		Occupants: occupants,
		Electric:  billing.ElectricInput{Reading: req.Electric.Reading, Rate: rate},
		Water:     billing.WaterInput{Reading: req.Water.Reading, Tiers: tiers, VATRate: vat},
	}, now)
}

func (s *Service) room(ctx context.Context, id string) (*storage.Room, error) {
	room, err := s.st.GetRoom(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// occupants lists the room's boarders in id order.
func (s *Service) occupants(ctx context.Context, roomID string) ([]billing.Occupant, error) {
	if strings.TrimSpace(roomID) == "" {
		// Compose reports the missing room id.
		return nil, nil
	}
	if _, err := s.room(ctx, roomID); err != nil {
		return nil, err
	}
	boarders, err := s.st.ListBoardersByRoom(ctx, strings.TrimSpace(roomID))
	if err != nil {
		return nil, err
	}
	if len(boarders) == 0 {
		return nil, ErrNoBoarders
	}
	out := make([]billing.Occupant, 0, len(boarders))
	for _, b := range boarders {
		out = append(out, billing.Occupant{Name: b.Name, Days: b.DaysOccupied})
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*storage.Bill, error) {
	b, err := s.st.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBillNotFound
	}
	return b, nil
}

// Record decodes the computed bill stored with b.
func Record(b *storage.Bill) (billing.BillRecord, error) {
	var rec billing.BillRecord
	if err := json.Unmarshal(b.Payload, &rec); err != nil {
		return billing.BillRecord{}, fmt.Errorf("decode bill %s: %w", b.ID, err)
	}
	return rec, nil
}

// ListForRoom returns the room's bills, newest first.
func (s *Service) ListForRoom(ctx context.Context, roomID string) ([]storage.Bill, error) {
	if _, err := s.room(ctx, roomID); err != nil {
		return nil, err
	}
	return s.st.ListBillsByRoom(ctx, strings.TrimSpace(roomID))
}

// MarkPaid settles a bill. Paying an already paid bill is a no-op.
func (s *Service) MarkPaid(ctx context.Context, id string) (*storage.Bill, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == storage.BillPaid {
		return b, nil
	}
	if err := s.st.UpdateBillStatus(ctx, id, storage.BillPaid, s.now()); err != nil {
		return nil, err
	}
	s.log.Info("bill paid", zap.String("bill_id", id), zap.String("room_id", b.RoomID))
	return s.Get(ctx, id)
}

// SweepOverdue moves issued bills whose due date has passed to overdue and
// returns how many were moved.
func (s *Service) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.st.ListBillsDueBefore(ctx, storage.BillIssued, now.Format(billing.DueDateLayout))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, b := range due {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := s.st.UpdateBillStatus(ctx, b.ID, storage.BillOverdue, now); err != nil {
			return n, fmt.Errorf("mark %s overdue: %w", b.ID, err)
		}
		n++
	}
	if n > 0 {
		metrics.BillsOverdueTotal.Add(float64(n))
		s.log.Info("bills marked overdue", zap.Int("count", n))
	}
	return n, nil
}
