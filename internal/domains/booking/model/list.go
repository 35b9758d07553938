package model

// ListRow is the read-model projection for booking listings: the ledger
// row joined with room, property and requester metadata plus the
// occupant count. Populated by the repository's listing query only.
type ListRow struct {
	Booking
	RoomName      string `db:"room_name"`
	PropertyName  string `db:"property_name"`
	UserName      string `db:"user_name"`
	UserAddress   string `db:"user_address"`
	OccupantCount int    `db:"occupant_count"`
}
