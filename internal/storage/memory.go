package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage implementation, useful for tests and
// simple single-process deployments.
type MemoryStorage struct {
	mu       sync.RWMutex
	rooms    map[string]Room
	boarders map[string]Boarder
	bills    map[string]Bill
	reports  map[string]Report
	settings map[string]string
	jobs     map[string]ScheduledJob
}

// NewMemory returns an empty MemoryStorage.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		rooms:    make(map[string]Room),
		boarders: make(map[string]Boarder),
		bills:    make(map[string]Bill),
		reports:  make(map[string]Report),
		settings: make(map[string]string),
		jobs:     make(map[string]ScheduledJob),
	}
}

// NewMemoryWithRooms returns a MemoryStorage preloaded with rooms.
func NewMemoryWithRooms(list []Room) *MemoryStorage {
	m := NewMemory()
	for _, r := range list {
		m.rooms[r.ID] = r
	}
	return m
}

func (m *MemoryStorage) Close() error { return nil }

func (m *MemoryStorage) Ping(ctx context.Context) error { return nil }

// Rooms

func (m *MemoryStorage) ListRooms(ctx context.Context) ([]Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStorage) GetRoom(ctx context.Context, id string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MemoryStorage) UpsertRoom(ctx context.Context, r Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	m.rooms[r.ID] = r
	return nil
}

func (m *MemoryStorage) DeleteRoom(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return ErrNotFound
	}
	delete(m.rooms, id)
	return nil
}

// Boarders

func (m *MemoryStorage) ListBoarders(ctx context.Context) ([]Boarder, error) {
	return m.filterBoarders(func(Boarder) bool { return true }), nil
}

func (m *MemoryStorage) ListBoardersByRoom(ctx context.Context, roomID string) ([]Boarder, error) {
	return m.filterBoarders(func(b Boarder) bool { return b.RoomID == roomID }), nil
}

func (m *MemoryStorage) filterBoarders(keep func(Boarder) bool) []Boarder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Boarder
	for _, b := range m.boarders {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryStorage) GetBoarder(ctx context.Context, id string) (*Boarder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.boarders[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *MemoryStorage) UpsertBoarder(ctx context.Context, b Boarder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.UpdatedAt = time.Now()
	m.boarders[b.ID] = b
	return nil
}

func (m *MemoryStorage) AssignRoom(ctx context.Context, boarderID, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boarders[boarderID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m.rooms[roomID]; !ok {
		return ErrNotFound
	}
	b.RoomID = roomID
	b.UpdatedAt = time.Now()
	m.boarders[boarderID] = b
	return nil
}

func (m *MemoryStorage) MarkBillSent(ctx context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, b := range m.boarders {
		if b.RoomID == roomID {
			b.BillSent = true
			m.boarders[id] = b
		}
	}
	return nil
}

// Bills

func (m *MemoryStorage) SaveBill(ctx context.Context, b Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	m.bills[b.ID] = b
	return nil
}

func (m *MemoryStorage) GetBill(ctx context.Context, id string) (*Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bills[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *MemoryStorage) ListBillsByRoom(ctx context.Context, roomID string) ([]Bill, error) {
	return m.filterBills(func(b Bill) bool { return b.RoomID == roomID }), nil
}

func (m *MemoryStorage) ListBillsDueBefore(ctx context.Context, status, date string) ([]Bill, error) {
	return m.filterBills(func(b Bill) bool { return b.Status == status && b.DueDate < date }), nil
}

// filterBills returns matching bills newest first.
func (m *MemoryStorage) filterBills(keep func(Bill) bool) []Bill {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Bill
	for _, b := range m.bills {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MemoryStorage) UpdateBillStatus(ctx context.Context, id, status string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok {
		return ErrNotFound
	}
	b.Status = status
	if status == BillPaid {
		paid := at
		b.PaidAt = &paid
	}
	m.bills[id] = b
	return nil
}

// Maintenance reports

func (m *MemoryStorage) SaveReport(ctx context.Context, r Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	m.reports[r.ID] = r
	return nil
}

func (m *MemoryStorage) GetReport(ctx context.Context, id string) (*Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MemoryStorage) ListReports(ctx context.Context) ([]Report, error) {
	return m.filterReports(func(Report) bool { return true }), nil
}

func (m *MemoryStorage) ListReportsByRoom(ctx context.Context, roomID string) ([]Report, error) {
	return m.filterReports(func(r Report) bool { return r.RoomID == roomID }), nil
}

// filterReports returns matching reports newest first.
func (m *MemoryStorage) filterReports(keep func(Report) bool) []Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Report
	for _, r := range m.reports {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *MemoryStorage) UpdateReportStatus(ctx context.Context, id, status string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = at
	m.reports[id] = r
	return nil
}

func (m *MemoryStorage) DeleteReport(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[id]; !ok {
		return ErrNotFound
	}
	delete(m.reports, id)
	return nil
}

// Settings

func (m *MemoryStorage) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[key], nil
}

func (m *MemoryStorage) SetSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

// Scheduled jobs

func (m *MemoryStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	// In-memory single instance always acquires lock
	return true, nil
}

func (m *MemoryStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	return true, nil
}

func (m *MemoryStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := 0
	if success {
		status = 1
	}
	m.jobs[name] = ScheduledJob{
		Name:           name,
		LastRunAt:      started,
		LastDurationMs: dur.Milliseconds(),
		LastSuccess:    status,
		LastError:      errMsg,
	}
	return nil
}

// ScheduledJob returns the last recorded run of a job, if any.
func (m *MemoryStorage) ScheduledJob(name string) (ScheduledJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[name]
	return j, ok
}
