package model

import (
	"pgnest/shared/dto"
)

// StatusFilter translates a derived status into the ledger conditions
// that select it, honoring the precedence order: a row only matches a
// lower-priority status when every higher-priority timestamp is unset.
// The second return value is false when the status selects everything.
func StatusFilter(status string) (dto.FilterGroup, bool) {
	isSet := func(field string) dto.Filter {
		return dto.Filter{Field: field, Table: TableName, Operator: dto.FilterIsNotNull}
	}
	isUnset := func(field string) dto.Filter {
		return dto.Filter{Field: field, Table: TableName, Operator: dto.FilterIsNull}
	}

	group := dto.FilterGroup{Operator: dto.FilterGroupOperatorAnd}

	switch status {
	case StatusCanceled:
		group.Filters = []any{isSet(FieldCanceledAt)}
	case StatusRevoked:
		group.Filters = []any{isSet(FieldRevokedAt), isUnset(FieldCanceledAt)}
	case StatusDeclined:
		group.Filters = []any{isSet(FieldDeclinedAt), isUnset(FieldCanceledAt), isUnset(FieldRevokedAt)}
	case StatusAccepted:
		group.Filters = []any{isSet(FieldAcceptedAt), isUnset(FieldCanceledAt), isUnset(FieldRevokedAt), isUnset(FieldDeclinedAt)}
	case StatusPending:
		group.Filters = []any{isUnset(FieldAcceptedAt), isUnset(FieldCanceledAt), isUnset(FieldRevokedAt), isUnset(FieldDeclinedAt)}
	default:
		return group, false
	}

	return group, true
}

// ActiveFilter selects bookings still holding a claim on the room for
// the given requester: pending or accepted, with no terminal transition.
func ActiveFilter(roomID, userID string) dto.FilterGroup {
	return dto.FilterGroup{
		Operator: dto.FilterGroupOperatorAnd,
		Filters: []any{
			dto.Filter{Field: FieldRoomID, Table: TableName, Operator: dto.FilterOperatorEq, Value: roomID},
			dto.Filter{Field: FieldUserID, Table: TableName, Operator: dto.FilterOperatorEq, Value: userID},
			dto.Filter{Field: FieldDeclinedAt, Table: TableName, Operator: dto.FilterIsNull},
			dto.Filter{Field: FieldCanceledAt, Table: TableName, Operator: dto.FilterIsNull},
			dto.Filter{Field: FieldRevokedAt, Table: TableName, Operator: dto.FilterIsNull},
		},
	}
}
