package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type GormStorage struct {
	db    *gorm.DB
	locks heldLocks[*sql.Conn]
}

func NewGormStorage(driver, dsn string) (*GormStorage, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	return &GormStorage{db: db}, nil
}

func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&Room{},
		&Boarder{},
		&Bill{},
		&Report{},
		&Setting{},
		&ScheduledJob{},
	)
}

// first loads a single row; a missing row yields (nil, nil).
func first[T any](ctx context.Context, db *gorm.DB, query string, args ...any) (*T, error) {
	var out T
	if err := db.WithContext(ctx).Where(query, args...).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// Rooms

func (s *GormStorage) ListRooms(ctx context.Context) ([]Room, error) {
	var rooms []Room
	result := s.db.WithContext(ctx).Order("id").Find(&rooms)
	return rooms, result.Error
}

func (s *GormStorage) GetRoom(ctx context.Context, id string) (*Room, error) {
	return first[Room](ctx, s.db, "id = ?", id)
}

func (s *GormStorage) UpsertRoom(ctx context.Context, r Room) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "capacity", "notes"}),
	}).Create(&r).Error
}

func (s *GormStorage) DeleteRoom(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&Room{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Boarders

func (s *GormStorage) ListBoarders(ctx context.Context) ([]Boarder, error) {
	var boarders []Boarder
	result := s.db.WithContext(ctx).Order("id").Find(&boarders)
	return boarders, result.Error
}

func (s *GormStorage) ListBoardersByRoom(ctx context.Context, roomID string) ([]Boarder, error) {
	var boarders []Boarder
	result := s.db.WithContext(ctx).Where("room_id = ?", roomID).Order("id").Find(&boarders)
	return boarders, result.Error
}

func (s *GormStorage) GetBoarder(ctx context.Context, id string) (*Boarder, error) {
	return first[Boarder](ctx, s.db, "id = ?", id)
}

func (s *GormStorage) UpsertBoarder(ctx context.Context, b Boarder) error {
	b.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&b).Error
}

func (s *GormStorage) AssignRoom(ctx context.Context, boarderID, roomID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Room{}).Where("id = ?", roomID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		res := tx.Model(&Boarder{}).Where("id = ?", boarderID).
			Updates(map[string]any{"room_id": roomID, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *GormStorage) MarkBillSent(ctx context.Context, roomID string) error {
	return s.db.WithContext(ctx).Model(&Boarder{}).Where("room_id = ?", roomID).Update("bill_sent", true).Error
}

// Bills

func (s *GormStorage) SaveBill(ctx context.Context, b Bill) error {
	return s.db.WithContext(ctx).Create(&b).Error
}

func (s *GormStorage) GetBill(ctx context.Context, id string) (*Bill, error) {
	return first[Bill](ctx, s.db, "id = ?", id)
}

func (s *GormStorage) ListBillsByRoom(ctx context.Context, roomID string) ([]Bill, error) {
	var bills []Bill
	result := s.db.WithContext(ctx).Where("room_id = ?", roomID).Order("created_at desc").Find(&bills)
	return bills, result.Error
}

func (s *GormStorage) ListBillsDueBefore(ctx context.Context, status, date string) ([]Bill, error) {
	var bills []Bill
	result := s.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", status, date).
		Order("created_at desc").
		Find(&bills)
	return bills, result.Error
}

func (s *GormStorage) UpdateBillStatus(ctx context.Context, id, status string, at time.Time) error {
	updates := map[string]any{"status": status}
	if status == BillPaid {
		updates["paid_at"] = at
	}
	res := s.db.WithContext(ctx).Model(&Bill{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Maintenance reports

func (s *GormStorage) SaveReport(ctx context.Context, r Report) error {
	return s.db.WithContext(ctx).Create(&r).Error
}

func (s *GormStorage) GetReport(ctx context.Context, id string) (*Report, error) {
	return first[Report](ctx, s.db, "id = ?", id)
}

func (s *GormStorage) ListReports(ctx context.Context) ([]Report, error) {
	var reports []Report
	result := s.db.WithContext(ctx).Order("created_at desc, id desc").Find(&reports)
	return reports, result.Error
}

func (s *GormStorage) ListReportsByRoom(ctx context.Context, roomID string) ([]Report, error) {
	var reports []Report
	result := s.db.WithContext(ctx).Where("room_id = ?", roomID).Order("created_at desc, id desc").Find(&reports)
	return reports, result.Error
}

func (s *GormStorage) UpdateReportStatus(ctx context.Context, id, status string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&Report{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStorage) DeleteReport(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&Report{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Settings

func (s *GormStorage) GetSetting(ctx context.Context, key string) (string, error) {
	setting, err := first[Setting](ctx, s.db, "key = ?", key)
	if err != nil || setting == nil {
		return "", err
	}
	return setting.Value, nil
}

func (s *GormStorage) SetSetting(ctx context.Context, key, value string) error {
	setting := Setting{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&setting).Error
}

// Close & Ping

func (s *GormStorage) Close() error {
	s.locks.drain(func(c *sql.Conn) { _ = c.Close() })
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Scheduled Jobs & Locking

// AcquireAdvisoryLock pins a *sql.Conn for the lifetime of a Postgres
// advisory lock. SQLite deployments are single instance and always succeed.
func (s *GormStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	if s.db.Dialector.Name() != "postgres" {
		return true, nil
	}
	if s.locks.held(key) {
		return false, nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return false, err
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok); err != nil {
		_ = conn.Close()
		return false, err
	}
	if !ok {
		_ = conn.Close()
		return false, nil
	}
	if !s.locks.put(key, conn) {
		_, _ = conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", key)
		_ = conn.Close()
		return false, nil
	}
	return true, nil
}

func (s *GormStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	if s.db.Dialector.Name() != "postgres" {
		return true, nil
	}
	conn, ok := s.locks.take(key)
	if !ok {
		return false, nil
	}
	defer conn.Close()
	var released bool
	err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&released)
	return released, err
}

func (s *GormStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	status := 0
	if success {
		status = 1
	}
	job := ScheduledJob{
		Name:           name,
		LastRunAt:      started,
		LastDurationMs: dur.Milliseconds(),
		LastSuccess:    status,
		LastError:      errMsg,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		UpdateAll: true,
	}).Create(&job).Error
}
