package model

// KeyPrefix is the payment-session key prefix in the session store.
// One key per room, so a room can carry at most one live session.
const KeyPrefix = "payment-"

// Session holds pending payment terms for an accepted booking. The
// record lives in the session store under the room's key and expires
// on its own after the dunning period.
type Session struct {
	RoomID         string  `json:"room_id"`
	Amount         float64 `json:"amount"`
	PaymentDunning int     `json:"payment_dunning"`
	Message        string  `json:"message"`
}

// Key returns the store key for the session's room.
func Key(roomID string) string {
	return KeyPrefix + roomID
}
