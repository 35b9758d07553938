package model

import (
	"database/sql"

	"pgnest/shared/model"
)

const (
	TableName  = "rooms"
	EntityName = "room"

	FieldID            = "id"
	FieldPropertyID    = "property_id"
	FieldName          = "name"
	FieldRent          = "rent"
	FieldBookedBy      = "booked_by"
	FieldBookingStatus = "booking_status"
)

// Room carries the availability pair (booked_by, booking_status) the
// booking state machine owns. An empty booking_status with a null
// booked_by means the room is available; both fields are mutated only
// through the accept/revoke transitions.
type Room struct {
	ID            string         `db:"id"`
	PropertyID    string         `db:"property_id"`
	Name          string         `db:"name"`
	Rent          int            `db:"rent"`
	BookedBy      sql.NullString `db:"booked_by"`
	BookingStatus string         `db:"booking_status"`
	model.Metadata
}

// Available reports whether the room can be handed to an accept
// transition.
func (r *Room) Available() bool {
	return !r.BookedBy.Valid && r.BookingStatus == ""
}
