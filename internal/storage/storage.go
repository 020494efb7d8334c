package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by mutating calls that target a missing row.
// Lookups return (nil, nil) instead.
var ErrNotFound = errors.New("storage: not found")

// Storage abstracts persistence for the room directory and issued bills.
type Storage interface {
	// Rooms
	ListRooms(ctx context.Context) ([]Room, error)
	GetRoom(ctx context.Context, id string) (*Room, error)
	UpsertRoom(ctx context.Context, r Room) error
	DeleteRoom(ctx context.Context, id string) error

	// Boarders
	ListBoarders(ctx context.Context) ([]Boarder, error)
	ListBoardersByRoom(ctx context.Context, roomID string) ([]Boarder, error)
	GetBoarder(ctx context.Context, id string) (*Boarder, error)
	UpsertBoarder(ctx context.Context, b Boarder) error
	AssignRoom(ctx context.Context, boarderID, roomID string) error
	MarkBillSent(ctx context.Context, roomID string) error

	// Bills
	SaveBill(ctx context.Context, b Bill) error
	GetBill(ctx context.Context, id string) (*Bill, error)
	ListBillsByRoom(ctx context.Context, roomID string) ([]Bill, error)
	// ListBillsDueBefore returns bills with the given status whose due date
	// (YYYY-MM-DD) sorts strictly before date.
	ListBillsDueBefore(ctx context.Context, status, date string) ([]Bill, error)
	UpdateBillStatus(ctx context.Context, id, status string, at time.Time) error

	// Maintenance reports
	SaveReport(ctx context.Context, r Report) error
	GetReport(ctx context.Context, id string) (*Report, error)
	ListReports(ctx context.Context) ([]Report, error)
	ListReportsByRoom(ctx context.Context, roomID string) ([]Report, error)
	UpdateReportStatus(ctx context.Context, id, status string, at time.Time) error
	DeleteReport(ctx context.Context, id string) error

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Scheduled jobs
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error)
	UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error

	Ping(ctx context.Context) error
	// Close releases any resources (no-op for in-memory).
	Close() error
}

var (
	_ Storage = (*MemoryStorage)(nil)
	_ Storage = (*GormStorage)(nil)
	_ Storage = (*PostgresPoolStorage)(nil)
)
