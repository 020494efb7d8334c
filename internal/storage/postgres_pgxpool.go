package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresPoolStorage struct {
	pool  *pgxpool.Pool
	locks heldLocks[*pgxpool.Conn]
}

func OpenPostgresPool(ctx context.Context, dsn string) (*PostgresPoolStorage, error) {
	if dsn == "" {
		dsn = "postgres://localhost:5432/dormbill?sslmode=disable"
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &PostgresPoolStorage{pool: pool}, nil
}

func (s *PostgresPoolStorage) Close() error {
	// pool.Close waits for acquired connections, including lock holders.
	s.locks.drain(func(c *pgxpool.Conn) { c.Release() })
	s.pool.Close()
	return nil
}

func (s *PostgresPoolStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Stats exposes pool counters for metrics.
func (s *PostgresPoolStorage) Stats() *pgxpool.Stat {
	return s.pool.Stat()
}

func (s *PostgresPoolStorage) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rooms (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL DEFAULT '',
            capacity INTEGER NOT NULL DEFAULT 0,
            notes TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,
		`CREATE TABLE IF NOT EXISTS boarders (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            room_id TEXT NOT NULL DEFAULT '',
            days_occupied INTEGER NOT NULL DEFAULT 0,
            bill_sent BOOLEAN NOT NULL DEFAULT FALSE,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_boarders_room_id ON boarders (room_id);`,
		`CREATE TABLE IF NOT EXISTS bills (
            id TEXT PRIMARY KEY,
            room_id TEXT NOT NULL,
            due_date TEXT NOT NULL,
            status TEXT NOT NULL,
            total TEXT NOT NULL DEFAULT '0',
            payload BYTEA NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            paid_at TIMESTAMPTZ
        );`,
		`CREATE INDEX IF NOT EXISTS idx_bills_room_id ON bills (room_id);`,
		`CREATE INDEX IF NOT EXISTS idx_bills_due_date ON bills (due_date);`,
		`CREATE TABLE IF NOT EXISTS reports (
            id TEXT PRIMARY KEY,
            room_id TEXT NOT NULL,
            boarder TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL,
            reported_on TEXT NOT NULL,
            status TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_reports_room_id ON reports (room_id);`,
		`CREATE INDEX IF NOT EXISTS idx_reports_status ON reports (status);`,
		`CREATE TABLE IF NOT EXISTS settings (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS scheduled_jobs (
            name TEXT PRIMARY KEY,
            last_run_at TIMESTAMPTZ NOT NULL,
            last_duration_ms BIGINT NOT NULL,
            last_success INTEGER NOT NULL,
            last_error TEXT NOT NULL DEFAULT ''
        );`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Rooms

func (s *PostgresPoolStorage) ListRooms(ctx context.Context) ([]Room, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, capacity, notes, created_at FROM rooms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Room, error) {
		var r Room
		err := row.Scan(&r.ID, &r.Name, &r.Capacity, &r.Notes, &r.CreatedAt)
		return r, err
	})
}

func (s *PostgresPoolStorage) GetRoom(ctx context.Context, id string) (*Room, error) {
	var r Room
	err := s.pool.QueryRow(ctx, `SELECT id, name, capacity, notes, created_at FROM rooms WHERE id=$1`, id).
		Scan(&r.ID, &r.Name, &r.Capacity, &r.Notes, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresPoolStorage) UpsertRoom(ctx context.Context, r Room) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
        INSERT INTO rooms (id, name, capacity, notes, created_at)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (id) DO UPDATE SET
            name=EXCLUDED.name,
            capacity=EXCLUDED.capacity,
            notes=EXCLUDED.notes
    `, r.ID, r.Name, r.Capacity, r.Notes, r.CreatedAt)
	return err
}

func (s *PostgresPoolStorage) DeleteRoom(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Boarders

const boarderColumns = `id, name, email, room_id, days_occupied, bill_sent, updated_at`

func scanBoarder(row pgx.CollectableRow) (Boarder, error) {
	var b Boarder
	err := row.Scan(&b.ID, &b.Name, &b.Email, &b.RoomID, &b.DaysOccupied, &b.BillSent, &b.UpdatedAt)
	return b, err
}

func (s *PostgresPoolStorage) ListBoarders(ctx context.Context) ([]Boarder, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+boarderColumns+` FROM boarders ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanBoarder)
}

func (s *PostgresPoolStorage) ListBoardersByRoom(ctx context.Context, roomID string) ([]Boarder, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+boarderColumns+` FROM boarders WHERE room_id=$1 ORDER BY id`, roomID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanBoarder)
}

func (s *PostgresPoolStorage) GetBoarder(ctx context.Context, id string) (*Boarder, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+boarderColumns+` FROM boarders WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	b, err := pgx.CollectOneRow(rows, scanBoarder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PostgresPoolStorage) UpsertBoarder(ctx context.Context, b Boarder) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO boarders (id, name, email, room_id, days_occupied, bill_sent, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,now())
        ON CONFLICT (id) DO UPDATE SET
            name=EXCLUDED.name,
            email=EXCLUDED.email,
            room_id=EXCLUDED.room_id,
            days_occupied=EXCLUDED.days_occupied,
            bill_sent=EXCLUDED.bill_sent,
            updated_at=EXCLUDED.updated_at
    `, b.ID, b.Name, b.Email, b.RoomID, b.DaysOccupied, b.BillSent)
	return err
}

func (s *PostgresPoolStorage) AssignRoom(ctx context.Context, boarderID, roomID string) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE boarders SET room_id=$2, updated_at=now()
        WHERE id=$1 AND EXISTS (SELECT 1 FROM rooms WHERE id=$2)
    `, boarderID, roomID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresPoolStorage) MarkBillSent(ctx context.Context, roomID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE boarders SET bill_sent=TRUE WHERE room_id=$1`, roomID)
	return err
}

// Bills

const billColumns = `id, room_id, due_date, status, total, payload, created_at, paid_at`

func scanBill(row pgx.CollectableRow) (Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.RoomID, &b.DueDate, &b.Status, &b.Total, &b.Payload, &b.CreatedAt, &b.PaidAt)
	return b, err
}

func (s *PostgresPoolStorage) SaveBill(ctx context.Context, b Bill) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
        INSERT INTO bills (id, room_id, due_date, status, total, payload, created_at, paid_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `, b.ID, b.RoomID, b.DueDate, b.Status, b.Total, b.Payload, b.CreatedAt, b.PaidAt)
	return err
}

func (s *PostgresPoolStorage) GetBill(ctx context.Context, id string) (*Bill, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+billColumns+` FROM bills WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	b, err := pgx.CollectOneRow(rows, scanBill)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PostgresPoolStorage) ListBillsByRoom(ctx context.Context, roomID string) ([]Bill, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+billColumns+` FROM bills WHERE room_id=$1 ORDER BY created_at DESC`, roomID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanBill)
}

func (s *PostgresPoolStorage) ListBillsDueBefore(ctx context.Context, status, date string) ([]Bill, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT `+billColumns+` FROM bills
        WHERE status=$1 AND due_date < $2
        ORDER BY created_at DESC
    `, status, date)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanBill)
}

func (s *PostgresPoolStorage) UpdateBillStatus(ctx context.Context, id, status string, at time.Time) error {
	var paidAt *time.Time
	if status == BillPaid {
		paidAt = &at
	}
	tag, err := s.pool.Exec(ctx, `
        UPDATE bills SET status=$2, paid_at=COALESCE($3, paid_at) WHERE id=$1
    `, id, status, paidAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Maintenance reports

const reportColumns = `id, room_id, boarder, description, reported_on, status, created_at, updated_at`

func scanReport(row pgx.CollectableRow) (Report, error) {
	var r Report
	err := row.Scan(&r.ID, &r.RoomID, &r.Boarder, &r.Description, &r.Date, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *PostgresPoolStorage) SaveReport(ctx context.Context, r Report) error {
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	_, err := s.pool.Exec(ctx, `
        INSERT INTO reports (`+reportColumns+`)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `, r.ID, r.RoomID, r.Boarder, r.Description, r.Date, r.Status, r.CreatedAt, r.UpdatedAt)
	return err
}

func (s *PostgresPoolStorage) GetReport(ctx context.Context, id string) (*Report, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+reportColumns+` FROM reports WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	r, err := pgx.CollectOneRow(rows, scanReport)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresPoolStorage) ListReports(ctx context.Context) ([]Report, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+reportColumns+` FROM reports ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanReport)
}

func (s *PostgresPoolStorage) ListReportsByRoom(ctx context.Context, roomID string) ([]Report, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+reportColumns+` FROM reports WHERE room_id=$1 ORDER BY created_at DESC, id DESC`, roomID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanReport)
}

func (s *PostgresPoolStorage) UpdateReportStatus(ctx context.Context, id, status string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE reports SET status=$2, updated_at=$3 WHERE id=$1`, id, status, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresPoolStorage) DeleteReport(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reports WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Settings

func (s *PostgresPoolStorage) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key=$1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func (s *PostgresPoolStorage) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO settings (key, value, updated_at) VALUES ($1,$2,now())
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at
    `, key, value)
	return err
}

// Scheduled jobs & advisory locks

// AcquireAdvisoryLock takes a session-level lock on a dedicated connection
// that stays checked out of the pool until ReleaseAdvisoryLock.
func (s *PostgresPoolStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	if s.locks.held(key) {
		return false, nil
	}
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&ok); err != nil {
		conn.Release()
		return false, err
	}
	if !ok {
		conn.Release()
		return false, nil
	}
	if !s.locks.put(key, conn) {
		_, _ = conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, key)
		conn.Release()
		return false, nil
	}
	return true, nil
}

func (s *PostgresPoolStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	conn, ok := s.locks.take(key)
	if !ok {
		return false, nil
	}
	defer conn.Release()
	var released bool
	err := conn.QueryRow(ctx, `SELECT pg_advisory_unlock($1)`, key).Scan(&released)
	return released, err
}

func (s *PostgresPoolStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	status := 0
	if success {
		status = 1
	}
	_, err := s.pool.Exec(ctx, `
        INSERT INTO scheduled_jobs (name, last_run_at, last_duration_ms, last_success, last_error)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (name) DO UPDATE SET
            last_run_at=EXCLUDED.last_run_at,
            last_duration_ms=EXCLUDED.last_duration_ms,
            last_success=EXCLUDED.last_success,
            last_error=EXCLUDED.last_error
    `, name, started, dur.Milliseconds(), status, errMsg)
	return err
}
