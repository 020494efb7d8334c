package storage

import "time"

// Bill statuses.
const (
	BillIssued  = "issued"
	BillPaid    = "paid"
	BillOverdue = "overdue"
)

// Maintenance report statuses.
const (
	ReportPending  = "pending"
	ReportApproved = "approved"
	ReportDeclined = "declined"
)

// Room is a rentable dormitory room.
type Room struct {
	ID        string    `json:"id" gorm:"primaryKey;column:id"`
	Name      string    `json:"name" gorm:"column:name"`
	Capacity  int       `json:"capacity" gorm:"column:capacity"`
	Notes     string    `json:"notes,omitempty" gorm:"column:notes"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

// Boarder is a tenant. DaysOccupied is the day count for the current
// billing period and feeds the days-weighted split.
type Boarder struct {
	ID           string    `json:"id" gorm:"primaryKey;column:id"`
	Name         string    `json:"name" gorm:"column:name"`
	Email        string    `json:"email,omitempty" gorm:"column:email"`
	RoomID       string    `json:"room_id" gorm:"index;column:room_id"`
	DaysOccupied int       `json:"days_occupied" gorm:"column:days_occupied"`
	BillSent     bool      `json:"bill_sent" gorm:"column:bill_sent"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// Bill is a persisted bill. Payload holds the JSON-encoded computed record.
type Bill struct {
	ID        string     `json:"id" gorm:"primaryKey;column:id"`
	RoomID    string     `json:"room_id" gorm:"index;column:room_id"`
	DueDate   string     `json:"due_date" gorm:"index;column:due_date"`
	Status    string     `json:"status" gorm:"column:status"`
	Total     string     `json:"total" gorm:"column:total"`
	Payload   []byte     `json:"-" gorm:"column:payload"`
	CreatedAt time.Time  `json:"created_at" gorm:"column:created_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty" gorm:"column:paid_at"`
}

// Report is a maintenance request a boarder files against a room. Date is
// the YYYY-MM-DD day the boarder asks for the visit.
type Report struct {
	ID          string    `json:"id" gorm:"primaryKey;column:id"`
	RoomID      string    `json:"room_id" gorm:"index;column:room_id"`
	Boarder     string    `json:"boarder" gorm:"column:boarder"`
	Description string    `json:"description" gorm:"column:description"`
	Date        string    `json:"date" gorm:"column:reported_on"`
	Status      string    `json:"status" gorm:"index;column:status"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// Setting is a key/value row for runtime-tunable options.
type Setting struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// ScheduledJob records the last run of a background job.
type ScheduledJob struct {
	Name           string    `gorm:"primaryKey;column:name"`
	LastRunAt      time.Time `gorm:"column:last_run_at"`
	LastDurationMs int64     `gorm:"column:last_duration_ms"`
	LastSuccess    int       `gorm:"column:last_success"`
	LastError      string    `gorm:"column:last_error"`
}
