package model_test

import (
	"database/sql"
	"testing"
	"time"

	"pgnest/internal/domains/booking/model"
	gModel "pgnest/shared/model"

	"github.com/stretchr/testify/assert"
)

func validTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}

func validString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestBooking_Status(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		booking model.Booking
		want    string
	}{
		{
			name:    "no transitions reports pending",
			booking: model.Booking{},
			want:    model.StatusPending,
		},
		{
			name:    "accepted only",
			booking: model.Booking{AcceptedAt: validTime(now)},
			want:    model.StatusAccepted,
		},
		{
			name:    "declined only",
			booking: model.Booking{DeclinedAt: validTime(now)},
			want:    model.StatusDeclined,
		},
		{
			name:    "revoked only",
			booking: model.Booking{RevokedAt: validTime(now)},
			want:    model.StatusRevoked,
		},
		{
			name:    "canceled only",
			booking: model.Booking{CanceledAt: validTime(now)},
			want:    model.StatusCanceled,
		},
		{
			name: "canceled wins over accepted",
			booking: model.Booking{
				AcceptedAt: validTime(now),
				CanceledAt: validTime(now.Add(time.Hour)),
			},
			want: model.StatusCanceled,
		},
		{
			name: "canceled wins over every other transition",
			booking: model.Booking{
				AcceptedAt: validTime(now),
				DeclinedAt: validTime(now),
				RevokedAt:  validTime(now),
				CanceledAt: validTime(now),
			},
			want: model.StatusCanceled,
		},
		{
			name: "revoked wins over declined and accepted",
			booking: model.Booking{
				AcceptedAt: validTime(now),
				DeclinedAt: validTime(now),
				RevokedAt:  validTime(now),
			},
			want: model.StatusRevoked,
		},
		{
			name: "declined wins over accepted",
			booking: model.Booking{
				AcceptedAt: validTime(now),
				DeclinedAt: validTime(now),
			},
			want: model.StatusDeclined,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.booking.Status())
		})
	}
}

func TestBooking_StatusTimestamp(t *testing.T) {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	accepted := created.Add(time.Hour)
	canceled := created.Add(2 * time.Hour)

	booking := model.Booking{
		Metadata: gModel.Metadata{CreatedAt: created},
	}
	assert.Equal(t, created, booking.StatusTimestamp(), "pending booking reports creation time")

	booking.AcceptedAt = validTime(accepted)
	assert.Equal(t, accepted, booking.StatusTimestamp())

	booking.CanceledAt = validTime(canceled)
	assert.Equal(t, canceled, booking.StatusTimestamp(), "timestamp follows the winning status")
}

func TestBooking_Finalized(t *testing.T) {
	assert.False(t, (&model.Booking{}).Finalized())

	assert.True(t, (&model.Booking{AcceptedBy: validString("admin-1")}).Finalized())
	assert.True(t, (&model.Booking{DeclinedBy: validString("admin-1")}).Finalized())
	assert.True(t, (&model.Booking{CanceledBy: validString("user-1")}).Finalized())
	assert.True(t, (&model.Booking{RevokedBy: validString("admin-1")}).Finalized())

	// Guards go by the "by" fields, a stray timestamp alone is not final.
	assert.False(t, (&model.Booking{AcceptedAt: validTime(time.Now())}).Finalized())
}

func TestStatusFilter(t *testing.T) {
	for _, status := range model.Statuses {
		filter, ok := model.StatusFilter(status)
		assert.True(t, ok, status)
		assert.NotEmpty(t, filter.Filters, status)
	}

	_, ok := model.StatusFilter(model.StatusAll)
	assert.False(t, ok)

	_, ok = model.StatusFilter("")
	assert.False(t, ok)
}
