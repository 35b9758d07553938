package dto

import (
	"time"

	"pgnest/internal/domains/payment/model"
)

type CreatePaymentRequest struct {
	Amount      float64 `json:"amount"       validate:"required,gt=0"`
	DunningDays int     `json:"dunning_days" validate:"required,gt=0"`
	Message     string  `json:"message"      validate:"omitempty,max=500"`
}

type PaymentSessionResponse struct {
	Amount      float64 `json:"amount"`
	DunningDays int     `json:"dunning_days"`
	Message     string  `json:"message,omitempty"`
	TTLSeconds  int64   `json:"ttl_seconds"`
}

func (r *PaymentSessionResponse) FromSession(session model.Session, ttl time.Duration) {
	r.Amount = session.Amount
	r.DunningDays = session.PaymentDunning
	r.Message = session.Message
	r.TTLSeconds = int64(ttl.Seconds())
}
