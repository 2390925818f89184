// Package apiv1 is the JSON API and the gated agent console.
package apiv1

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"workforce-billing/internal/domain/ports/adapter"
	"workforce-billing/internal/infra/logging"
	"workforce-billing/internal/usecase"
)

// Deps are the use cases and adapters the API is served from.
type Deps struct {
	Workforce     usecase.WorkforceUseCase
	Subscriptions usecase.SubscriptionUseCase
	Access        usecase.AccessUseCase
	Orders        usecase.OrderUseCase
	Payments      usecase.PaymentUseCase
	Webhooks      usecase.WebhookUseCase
	Sweeper       usecase.SweeperUseCase

	Auth    adapter.Authenticator
	Limiter adapter.RateLimiter // nil disables rate limiting

	CronSecret  string
	OrderLimit  int           // create-order calls per user per window
	OrderWindow time.Duration // defaults to one minute
}

type Server struct {
	d   Deps
	log *zerolog.Logger
}

func NewServer(d Deps, logger *zerolog.Logger) *Server {
	if d.OrderLimit <= 0 {
		d.OrderLimit = 10
	}
	if d.OrderWindow <= 0 {
		d.OrderWindow = time.Minute
	}
	l := logger.With().Str("component", "apiv1").Logger()
	return &Server{d: d, log: &l}
}

func (s *Server) logger(r *http.Request) *zerolog.Logger {
	return logging.With(r.Context(), s.log)
}

// RegisterAPIV1 mounts every route on r.
func RegisterAPIV1(r chi.Router, s *Server) {
	// gateway and scheduler callers authenticate themselves
	r.Post("/api/razorpay/webhook", s.handleWebhook)
	r.With(s.cronAuth).Get("/api/cron/check-pending-payments", s.handleSweep)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Group(func(r chi.Router) {
			r.Use(requireViewer)

			r.Get("/api/organizations", s.handleMyOrganization)
			r.Post("/api/organizations", s.handleCreateOrganization)
			r.Get("/api/organizations/{orgID}/agents", s.handleWorkforce)
			r.Post("/api/organizations/{orgID}/agents", s.handleCreateAgent)

			r.Post("/api/subscription/activate-trial", s.handleActivateTrial)
			r.Get("/api/agents/{agentID}/subscription", s.handleCurrentSubscription)
			r.Get("/api/agents/{agentID}/payments", s.handlePaymentHistory)

			r.With(s.rateLimit("create_order")).Post("/api/razorpay/create-order", s.handleCreateOrder)
			r.Post("/api/razorpay/verify-payment", s.handleVerifyPayment)
			r.Post("/api/razorpay/check-payment-status", s.handlePaymentStatus)
		})

		r.With(s.gate).Get("/organizations/{orgID}/agents/{agentID}", s.handleConsole)
		r.With(s.gate).Get("/organizations/{orgID}/agents/{agentID}/*", s.handleConsole)
	})
}
