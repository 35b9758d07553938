package dto

import (
	"time"

	"pgnest/internal/domains/booking/model"
	occupantModel "pgnest/internal/domains/occupant/model"
	"pgnest/shared/constant"
	gDto "pgnest/shared/dto"
	gModel "pgnest/shared/model"
	"pgnest/shared/timezone"

	"github.com/google/uuid"
)

type OccupantRequest struct {
	FullName  string `json:"full_name" validate:"required,max=100"`
	Gender    string `json:"gender"    validate:"required,oneof=male female"`
	Age       int    `json:"age"       validate:"required,gt=0"`
	Phone     string `json:"phone"     validate:"omitempty,max=20"`
	IDNumber  string `json:"id_number" validate:"omitempty,max=50"`
	IsPrimary bool   `json:"is_primary"`
}

type CreateBookingRequest struct {
	RoomID       string            `json:"room_id"       validate:"required,uuid"`
	StartDate    string            `json:"start_date"    validate:"required"`
	DurationDays int               `json:"duration_days" validate:"required,gt=0"`
	Remarks      string            `json:"remarks"       validate:"omitempty,max=500"`
	Occupants    []OccupantRequest `json:"occupants"     validate:"required,min=1,dive"`
}

func (c *CreateBookingRequest) ToModel(userID, adminID string) (model.Booking, []occupantModel.Occupant, error) {
	startDate, err := time.Parse(constant.DateOnlyFormat, c.StartDate)
	if err != nil {
		return model.Booking{}, nil, err
	}

	booking := model.Booking{
		ID:           uuid.NewString(),
		RoomID:       c.RoomID,
		UserID:       userID,
		AdminID:      adminID,
		StartDate:    startDate,
		DurationDays: c.DurationDays,
		Remarks:      c.Remarks,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  userID,
			ModifiedBy: userID,
		},
	}

	occupants := make([]occupantModel.Occupant, len(c.Occupants))
	for i, occ := range c.Occupants {
		occupants[i] = occupantModel.Occupant{
			ID:        uuid.NewString(),
			BookingID: booking.ID,
			FullName:  occ.FullName,
			Gender:    occ.Gender,
			Age:       occ.Age,
			Phone:     occ.Phone,
			IDNumber:  occ.IDNumber,
			IsPrimary: occ.IsPrimary,
			Metadata: gModel.Metadata{
				CreatedAt:  timezone.Now(),
				ModifiedAt: timezone.Now(),
				CreatedBy:  userID,
				ModifiedBy: userID,
			},
		}
	}

	return booking, occupants, nil
}

// SetStatusRequest drives the admin transitions. Amount, dunning days
// and message only apply to accept; reason only to revoke or decline.
type SetStatusRequest struct {
	Status      string  `json:"status"       validate:"required,oneof=accepted declined revoked"`
	Amount      float64 `json:"amount"       validate:"omitempty"`
	DunningDays int     `json:"dunning_days" validate:"omitempty"`
	Message     string  `json:"message"      validate:"omitempty,max=500"`
	Reason      string  `json:"reason"       validate:"omitempty,max=500"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type BookingResponse struct {
	ID              string  `json:"id"`
	RoomID          string  `json:"room_id"`
	UserID          string  `json:"user_id"`
	AdminID         string  `json:"admin_id"`
	StartDate       string  `json:"start_date"`
	DurationDays    int     `json:"duration_days"`
	Remarks         string  `json:"remarks,omitempty"`
	Status          string  `json:"status"`
	StatusTimestamp string  `json:"status_timestamp"`
	CanceledReason  string  `json:"canceled_reason,omitempty"`
	RevokedReason   string  `json:"revoked_reason,omitempty"`
	PaymentAt       *string `json:"payment_at,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(mod model.Booking) {
	r.ID = mod.ID
	r.RoomID = mod.RoomID
	r.UserID = mod.UserID
	r.AdminID = mod.AdminID
	r.StartDate = mod.StartDate.Format(constant.DateOnlyFormat)
	r.DurationDays = mod.DurationDays
	r.Remarks = mod.Remarks
	r.Status = mod.Status()
	r.StatusTimestamp = timezone.Format(mod.StatusTimestamp(), constant.DateFormat)
	r.CanceledReason = mod.CanceledReason.String
	r.RevokedReason = mod.RevokedReason.String

	if mod.PaymentAt.Valid {
		paymentAt := timezone.Format(mod.PaymentAt.Time, constant.DateFormat)
		r.PaymentAt = &paymentAt
	}

	r.Metadata.FromModel(mod.Metadata)
}

type ListItemResponse struct {
	BookingResponse
	RoomName      string `json:"room_name"`
	PropertyName  string `json:"property_name"`
	UserName      string `json:"user_name"`
	UserAddress   string `json:"user_address"`
	OccupantCount int    `json:"occupant_count"`
	PaymentTTL    *int64 `json:"payment_ttl,omitempty"`
}

func (r *ListItemResponse) FromModel(row model.ListRow) {
	r.BookingResponse.FromModel(row.Booking)
	r.RoomName = row.RoomName
	r.PropertyName = row.PropertyName
	r.UserName = row.UserName
	r.UserAddress = row.UserAddress
	r.OccupantCount = row.OccupantCount
}

type ListBookingsResponse struct {
	Items    []ListItemResponse `json:"items"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

func (r *ListBookingsResponse) FromModels(rows []model.ListRow, total, page, pageSize int) {
	r.Total = total
	r.Page = page
	r.PageSize = pageSize

	r.Items = make([]ListItemResponse, len(rows))
	for i, row := range rows {
		r.Items[i].FromModel(row)
	}
}
