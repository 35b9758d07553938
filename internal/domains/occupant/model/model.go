package model

import (
	"pgnest/shared/model"
)

const (
	TableName  = "occupants"
	EntityName = "occupant"

	FieldID        = "id"
	FieldBookingID = "booking_id"
	FieldFullName  = "full_name"
	FieldIsPrimary = "is_primary"
)

// Occupant is one habitant attached to a booking. Rows exist only as
// part of a booking and are written inside the booking's create
// transaction.
type Occupant struct {
	ID        string `db:"id"`
	BookingID string `db:"booking_id"`
	FullName  string `db:"full_name"`
	Gender    string `db:"gender"`
	Age       int    `db:"age"`
	Phone     string `db:"phone"`
	IDNumber  string `db:"id_number"`
	IsPrimary bool   `db:"is_primary"`
	model.Metadata
}
