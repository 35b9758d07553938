package model

import (
	"pgnest/shared/model"
)

const (
	TableName  = "properties"
	EntityName = "property"

	FieldID      = "id"
	FieldAdminID = "admin_id"
	FieldName    = "name"
	FieldAddress = "address"
)

type Property struct {
	ID      string `db:"id"`
	AdminID string `db:"admin_id"`
	Name    string `db:"name"`
	Address string `db:"address"`
	model.Metadata
}
