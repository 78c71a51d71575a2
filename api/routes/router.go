package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/equiptrade/fulfillment-backend/api/controllers"
	complaintcontrollers "github.com/equiptrade/fulfillment-backend/api/controllers/complaints"
	ordercontrollers "github.com/equiptrade/fulfillment-backend/api/controllers/orders"
	paymentcontrollers "github.com/equiptrade/fulfillment-backend/api/controllers/payments"
	refundcontrollers "github.com/equiptrade/fulfillment-backend/api/controllers/refunds"
	reportcontrollers "github.com/equiptrade/fulfillment-backend/api/controllers/reports"
	"github.com/equiptrade/fulfillment-backend/api/middleware"
	"github.com/equiptrade/fulfillment-backend/internal/fulfillment"
	"github.com/equiptrade/fulfillment-backend/pkg/config"
	"github.com/equiptrade/fulfillment-backend/pkg/db"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
	"github.com/equiptrade/fulfillment-backend/pkg/redis"
)

func passthrough(next http.Handler) http.Handler { return next }

// NewRouter mounts the health, metrics and versioned API routes. A nil
// redisClient disables rate limiting and idempotency replay.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	comps *fulfillment.Components,
) http.Handler {
	if comps == nil {
		comps = &fulfillment.Components{}
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Site.BaseURL),
	)

	apiPolicy := middleware.NewRateLimitPolicy(
		"api",
		cfg.RateLimit.Window,
		cfg.RateLimit.IPLimit,
		cfg.RateLimit.UserLimit,
	)
	rateLimit := passthrough
	idempotency := passthrough
	var redisPinger redis.Pinger
	if redisClient != nil {
		rateLimit = middleware.RateLimit(apiPolicy, redisClient, logg)
		idempotency = middleware.Idempotency(redisClient, logg)
		redisPinger = redisClient
	}

	var invoiceReader paymentcontrollers.InvoiceReader
	if comps.Invoices != nil {
		invoiceReader = comps.Invoices
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisPinger, logg))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(rateLimit)
		r.Use(idempotency)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(comps.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(comps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(comps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(comps.Notifications, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleCustomer))

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", ordercontrollers.Submit(comps.Orders, logg))
				r.Get("/", ordercontrollers.ListMine(comps.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.DetailMine(comps.Orders, logg))
				r.Post("/{orderId}/complaints", complaintcontrollers.File(comps.Complaints, logg))
			})
			r.Route("/invoices/{invoiceId}", func(r chi.Router) {
				r.Get("/", paymentcontrollers.InvoiceDetail(invoiceReader, comps.Payments, logg))
				r.Post("/payment-proofs", paymentcontrollers.SubmitProof(comps.Payments, logg))
			})
			r.Route("/complaints", func(r chi.Router) {
				r.Get("/", complaintcontrollers.ListMine(comps.Complaints, logg))
				r.Get("/{complaintId}", complaintcontrollers.DetailMine(comps.Complaints, logg))
			})
			r.Get("/complaint-reasons", complaintcontrollers.ListReasons(comps.Complaints, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleOperator))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.AdminList(comps.Orders, logg))
				r.Route("/{orderId}", func(r chi.Router) {
					r.Get("/", ordercontrollers.AdminDetail(comps.Orders, logg))
					r.Post("/confirm", ordercontrollers.Confirm(comps.Orders, logg))
					r.Post("/reject", ordercontrollers.Reject(comps.Orders, logg))
					r.Post("/processing", ordercontrollers.MarkProcessing(comps.Orders, logg))
					r.Post("/shipped", ordercontrollers.MarkShipped(comps.Orders, logg))
					r.Post("/delivered", ordercontrollers.MarkDelivered(comps.Orders, logg))
					r.Post("/cancel", ordercontrollers.Cancel(comps.Orders, logg))
					r.Post("/note", ordercontrollers.Annotate(comps.Orders, logg))
					r.Get("/refunds", refundcontrollers.ListForOrder(comps.Refunds, logg))
					r.Post("/refunds", refundcontrollers.Initiate(comps.Refunds, logg))
				})
			})

			r.Route("/payment-proofs", func(r chi.Router) {
				r.Get("/pending", paymentcontrollers.ListPending(comps.Payments, logg))
				r.Post("/{proofId}/verify", paymentcontrollers.Verify(comps.Payments, logg))
			})

			r.Route("/refunds", func(r chi.Router) {
				r.Get("/", refundcontrollers.List(comps.Refunds, logg))
				r.Get("/{refundId}", refundcontrollers.Detail(comps.Refunds, logg))
				r.Post("/{refundId}/proof", refundcontrollers.UploadProof(comps.Refunds, logg))
			})

			r.Route("/complaints", func(r chi.Router) {
				r.Get("/", complaintcontrollers.AdminList(comps.Complaints, logg))
				r.Get("/{complaintId}", complaintcontrollers.AdminDetail(comps.Complaints, logg))
				r.Patch("/{complaintId}/status", complaintcontrollers.UpdateStatus(comps.Complaints, logg))
			})

			r.Route("/complaint-reasons", func(r chi.Router) {
				r.Get("/", complaintcontrollers.AdminListReasons(comps.Complaints, logg))
				r.Post("/", complaintcontrollers.CreateReason(comps.Complaints, logg))
				r.Patch("/{reasonId}", complaintcontrollers.UpdateReason(comps.Complaints, logg))
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/orders", reportcontrollers.Orders(comps.Reports, logg))
				r.Get("/payments", reportcontrollers.Payments(comps.Reports, logg))
				r.Get("/complaints", reportcontrollers.Complaints(comps.Reports, logg))
				r.Get("/refunds", reportcontrollers.Refunds(comps.Reports, logg))
			})
		})
	})

	return r
}
