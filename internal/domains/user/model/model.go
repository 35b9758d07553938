package model

import (
	"pgnest/shared/model"
)

const (
	TableName  = "users"
	EntityName = "user"

	FieldID      = "id"
	FieldName    = "name"
	FieldAddress = "address"
	FieldRole    = "role"
)

// User mirrors the identity provider's account record. Only the fields
// the booking read model joins against are kept here.
type User struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	Address string `db:"address"`
	Phone   string `db:"phone"`
	Role    string `db:"role"`
	model.Metadata
}
