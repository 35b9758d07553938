package model

import (
	"database/sql"
	"time"

	"pgnest/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID             = "id"
	FieldRoomID         = "room_id"
	FieldUserID         = "user_id"
	FieldAdminID        = "admin_id"
	FieldStartDate      = "start_date"
	FieldDurationDays   = "duration_days"
	FieldRemarks        = "remarks"
	FieldAcceptedAt     = "accepted_at"
	FieldAcceptedBy     = "accepted_by"
	FieldDeclinedAt     = "declined_at"
	FieldDeclinedBy     = "declined_by"
	FieldCanceledAt     = "canceled_at"
	FieldCanceledBy     = "canceled_by"
	FieldCanceledReason = "canceled_reason"
	FieldRevokedAt      = "revoked_at"
	FieldRevokedBy      = "revoked_by"
	FieldRevokedReason  = "revoked_reason"
	FieldPaymentAt      = "payment_at"
)

// Derived booking statuses, in reporting precedence order.
const (
	StatusCanceled = "canceled"
	StatusRevoked  = "revoked"
	StatusDeclined = "declined"
	StatusAccepted = "accepted"
	StatusPending  = "pending"

	StatusAll = "all"
)

// Statuses lists every derived status a booking can report.
var Statuses = []string{StatusCanceled, StatusRevoked, StatusDeclined, StatusAccepted, StatusPending}

// Room availability labels written alongside accept/confirm transitions.
const (
	RoomStatusPaymentPending = "Room Booked: Payment Pending"
	RoomStatusPaid           = "Room Booked: Paid"
	RoomStatusAvailable      = ""
)

type Booking struct {
	ID             string         `db:"id"`
	RoomID         string         `db:"room_id"`
	UserID         string         `db:"user_id"`
	AdminID        string         `db:"admin_id"`
	StartDate      time.Time      `db:"start_date"`
	DurationDays   int            `db:"duration_days"`
	Remarks        string         `db:"remarks"`
	AcceptedAt     sql.NullTime   `db:"accepted_at"`
	AcceptedBy     sql.NullString `db:"accepted_by"`
	DeclinedAt     sql.NullTime   `db:"declined_at"`
	DeclinedBy     sql.NullString `db:"declined_by"`
	CanceledAt     sql.NullTime   `db:"canceled_at"`
	CanceledBy     sql.NullString `db:"canceled_by"`
	CanceledReason sql.NullString `db:"canceled_reason"`
	RevokedAt      sql.NullTime   `db:"revoked_at"`
	RevokedBy      sql.NullString `db:"revoked_by"`
	RevokedReason  sql.NullString `db:"revoked_reason"`
	PaymentAt      sql.NullTime   `db:"payment_at"`
	model.Metadata
}

// Status derives the reported status from the transition timestamps.
// The precedence order is fixed: a row that somehow carries several
// timestamps still reports the highest-priority one, so inconsistent
// data never surfaces as an ambiguous status.
func (b *Booking) Status() string {
	switch {
	case b.CanceledAt.Valid:
		return StatusCanceled
	case b.RevokedAt.Valid:
		return StatusRevoked
	case b.DeclinedAt.Valid:
		return StatusDeclined
	case b.AcceptedAt.Valid:
		return StatusAccepted
	default:
		return StatusPending
	}
}

// StatusTimestamp returns the timestamp belonging to the derived status.
// Pending bookings report their creation time.
func (b *Booking) StatusTimestamp() time.Time {
	switch {
	case b.CanceledAt.Valid:
		return b.CanceledAt.Time
	case b.RevokedAt.Valid:
		return b.RevokedAt.Time
	case b.DeclinedAt.Valid:
		return b.DeclinedAt.Time
	case b.AcceptedAt.Valid:
		return b.AcceptedAt.Time
	default:
		return b.CreatedAt
	}
}

// Finalized reports whether any terminal-ish transition has been applied.
// Transition guards check the "by" fields, not the timestamps.
func (b *Booking) Finalized() bool {
	return b.AcceptedBy.Valid || b.DeclinedBy.Valid || b.CanceledBy.Valid || b.RevokedBy.Valid
}
