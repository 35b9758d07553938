package events

//go:generate go run go.uber.org/mock/mockgen -source=./events.go -destination=./mocks/events_mock.go -package=mocks

import (
	"context"

	"pgnest/config"
	"pgnest/infras/kafka"
	"pgnest/shared/constant"
	"pgnest/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	TypeBookingCreated       = "booking.created"
	TypeBookingStatusChanged = "booking.status_changed"
)

// BookingEvent is the payload published for every booking mutation.
type BookingEvent struct {
	Type      string `json:"type"`
	BookingID string `json:"booking_id"`
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	Status    string `json:"status"`
	ActorID   string `json:"actor_id"`
	EmittedAt string `json:"emitted_at"`
}

// Emitter publishes booking events. Emission is strictly
// fire-and-forget: a broker failure is logged and swallowed, never
// propagated into the mutation that triggered it.
type Emitter interface {
	Emit(ctx context.Context, event BookingEvent)
}

type kafkaEmitter struct {
	config *config.Config
	client kafka.Client
}

func NewEmitter(config *config.Config, client kafka.Client) Emitter {
	return &kafkaEmitter{config: config, client: client}
}

func (e *kafkaEmitter) Emit(ctx context.Context, event BookingEvent) {
	if !e.config.Kafka.Enable {
		return
	}

	event.EmittedAt = timezone.Format(timezone.Now(), constant.DateFormat)

	err := e.client.SendMessages(ctx, e.config.Kafka.BookingTopic, kafka.Message{
		Key:   event.BookingID,
		Value: event,
	})
	if err != nil {
		log.Error().Err(err).
			Str("type", event.Type).
			Str("booking_id", event.BookingID).
			Msg("Failed to emit booking event")
	}
}
