package models

import (
	"time"
)

// DateLayout is the calendar-date format used for the per-day attendance key
// and for period filtering.
const DateLayout = "2006-01-02"

// Validation statuses shared by revenue, expense, leave, compensation and
// procedure entries.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Device binding statuses. Blocked is set by an external admin action only.
const (
	DevicePending  = "pending"
	DeviceApproved = "approved"
	DeviceBlocked  = "blocked"
)

// Attendance statuses. The status is fixed at check-in; check-out never
// changes it.
const (
	AttendancePresent    = "present"
	AttendanceLate       = "late"
	AttendanceAbsent     = "absent"
	AttendanceSick       = "sick"
	AttendancePermission = "permission"
)

// ValidationDecision is embedded in every entry that goes through the
// pending/approved/rejected workflow. A decision is terminal: the only legal
// transitions are pending -> approved and pending -> rejected.
type ValidationDecision struct {
	Status         string     `gorm:"not null;default:'pending';index" json:"status"`
	ValidatedBy    *string    `gorm:"type:uuid" json:"validated_by,omitempty"`
	ValidatedAt    *time.Time `json:"validated_at,omitempty"`
	ValidationNote string     `json:"validation_note,omitempty"`
}

type User struct {
	ID           string    `gorm:"type:uuid;primary_key" json:"id"`
	FullName     string    `gorm:"not null" json:"full_name"`
	Role         string    `gorm:"not null" json:"role"` // doctor, nurse, midwife, admin, validator
	PasswordHash string    `json:"-"`
	Status       string    `gorm:"not null;default:'active'" json:"status"` // active, inactive
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// AttendanceRecord is the per-user-per-day capture row. The unique index on
// (user_id, date) is what makes concurrent double check-in impossible: the
// losing writer sees a duplicate-key error.
type AttendanceRecord struct {
	ID     string `gorm:"type:uuid;primary_key" json:"id"`
	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_user_date" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`
	Date   string `gorm:"type:date;not null;uniqueIndex:idx_attendance_user_date" json:"date"`

	CheckInTime       time.Time `gorm:"not null" json:"check_in_time"`
	CheckInLat        float64   `json:"check_in_lat"`
	CheckInLng        float64   `json:"check_in_lng"`
	CheckInAccuracy   float64   `json:"check_in_accuracy"`
	CheckInPhoto      string    `json:"check_in_photo,omitempty"`
	DeviceFingerprint string    `json:"device_fingerprint,omitempty"`
	Notes             string    `json:"notes,omitempty"`

	// Status is classified once at check-in against the late cutoff.
	Status string `gorm:"not null" json:"status"`

	CheckOutTime     *time.Time `json:"check_out_time,omitempty"`
	CheckOutLat      *float64   `json:"check_out_lat,omitempty"`
	CheckOutLng      *float64   `json:"check_out_lng,omitempty"`
	CheckOutAccuracy *float64   `json:"check_out_accuracy,omitempty"`
	CheckOutPhoto    string     `json:"check_out_photo,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// WorkDuration returns the worked time as hours and minutes. ok is false
// until the record has a check-out.
func (a *AttendanceRecord) WorkDuration() (hours, minutes int, ok bool) {
	if a.CheckOutTime == nil {
		return 0, 0, false
	}
	d := a.CheckOutTime.Sub(a.CheckInTime)
	return int(d.Hours()), int(d.Minutes()) % 60, true
}

// DeviceBinding associates a device fingerprint with a user for audit
// purposes. It is advisory: a pending or blocked binding never prevents a
// capture. The (user_id, fingerprint) index makes re-sighting idempotent.
type DeviceBinding struct {
	ID          string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID      string    `gorm:"type:uuid;not null;uniqueIndex:idx_device_user_fp" json:"user_id"`
	Fingerprint string    `gorm:"not null;uniqueIndex:idx_device_user_fp" json:"fingerprint"`
	Label       string    `json:"label"`
	Status      string    `gorm:"not null;default:'pending'" json:"status"`
	FirstSeenAt time.Time `gorm:"not null" json:"first_seen_at"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// ProcedureType carries the service-fee percentage for a billable clinical
// action. A zero percentage means the performer's role-level fallback rate
// applies.
type ProcedureType struct {
	ID         string  `gorm:"type:uuid;primary_key" json:"id"`
	Name       string  `gorm:"not null" json:"name"`
	FeePercent float64 `json:"fee_percent"`
}

// ProcedureRecord is a billable clinical action entered by clinical staff.
// Only approved records feed compensation derivation.
type ProcedureRecord struct {
	ID              string        `gorm:"type:uuid;primary_key" json:"id"`
	PerformerID     string        `gorm:"type:uuid;not null;index" json:"performer_id"`
	Performer       User          `gorm:"foreignKey:PerformerID" json:"-"`
	ProcedureTypeID string        `gorm:"type:uuid;not null" json:"procedure_type_id"`
	ProcedureType   ProcedureType `gorm:"foreignKey:ProcedureTypeID" json:"procedure_type"`
	Tariff          float64       `gorm:"not null" json:"tariff"`
	Date            string        `gorm:"type:date;not null;index" json:"date"`

	ValidationDecision `gorm:"embedded"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// CompensationEntry is a service-fee ledger row derived from an approved
// procedure.
type CompensationEntry struct {
	ID          string  `gorm:"type:uuid;primary_key" json:"id"`
	UserID      string  `gorm:"type:uuid;not null;index" json:"user_id"`
	User        User    `gorm:"foreignKey:UserID" json:"-"`
	ProcedureID *string `gorm:"type:uuid" json:"procedure_id,omitempty"`
	Amount      float64 `gorm:"not null" json:"amount"`
	Date        string  `gorm:"type:date;not null;index" json:"date"`

	ValidationDecision `gorm:"embedded"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

type RevenueEntry struct {
	ID       string  `gorm:"type:uuid;primary_key" json:"id"`
	Category string  `gorm:"not null" json:"category"`
	Amount   float64 `gorm:"not null" json:"amount"`
	Date     string  `gorm:"type:date;not null;index" json:"date"`

	ValidationDecision `gorm:"embedded"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

type ExpenseEntry struct {
	ID       string  `gorm:"type:uuid;primary_key" json:"id"`
	Category string  `gorm:"not null" json:"category"`
	Amount   float64 `gorm:"not null" json:"amount"`
	Date     string  `gorm:"type:date;not null;index" json:"date"`

	ValidationDecision `gorm:"embedded"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

type LeaveRequest struct {
	ID        string `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User   `gorm:"foreignKey:UserID" json:"-"`
	StartDate string `gorm:"type:date;not null" json:"start_date"`
	EndDate   string `gorm:"type:date;not null" json:"end_date"`
	Type      string `json:"type"` // vacation, sick, permission
	Reason    string `json:"reason"`

	ValidationDecision `gorm:"embedded"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
