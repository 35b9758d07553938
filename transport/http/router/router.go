package router

import (
	"pgnest/internal/handlers/booking"
	"pgnest/internal/handlers/payment"
	"pgnest/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Booking booking.Handler
	Payment payment.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	Middleware     middleware.App
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		routerGroup.Use(r.Middleware.RateLimit())
		routerGroup.Use(r.Middleware.Auth)

		routerGroup.Route("/bookings", func(bookingGroup chi.Router) {
			r.DomainHandlers.Booking.Router(bookingGroup, r.Middleware)

			bookingGroup.Route("/{id}/payment", func(paymentGroup chi.Router) {
				r.DomainHandlers.Payment.Router(paymentGroup, r.Middleware)
			})
		})
	})
}

func New(domainHandlers DomainHandlers, middleware middleware.App) Router {
	return Router{
		DomainHandlers: domainHandlers,
		Middleware:     middleware,
	}
}
