// Package fulfillment assembles the order fulfillment components over a single
// database client so the HTTP API, the cron worker and the scenario tests
// share one wiring.
package fulfillment

import (
	"fmt"

	"github.com/equiptrade/fulfillment-backend/internal/catalog"
	"github.com/equiptrade/fulfillment-backend/internal/complaints"
	"github.com/equiptrade/fulfillment-backend/internal/invoices"
	"github.com/equiptrade/fulfillment-backend/internal/notifications"
	"github.com/equiptrade/fulfillment-backend/internal/orders"
	"github.com/equiptrade/fulfillment-backend/internal/payments"
	"github.com/equiptrade/fulfillment-backend/internal/refunds"
	"github.com/equiptrade/fulfillment-backend/internal/reports"
	"github.com/equiptrade/fulfillment-backend/internal/users"
	"github.com/equiptrade/fulfillment-backend/pkg/config"
	"github.com/equiptrade/fulfillment-backend/pkg/db"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
	"github.com/equiptrade/fulfillment-backend/pkg/outbox"
)

// Params carries what the components need from the process.
type Params struct {
	DB      *db.Client
	Billing config.BillingConfig
	Site    config.SiteConfig
	Logger  *logger.Logger
}

// Components is the assembled fulfillment domain.
type Components struct {
	Catalog       *catalog.Catalog
	Users         *users.Repository
	Outbox        *outbox.Service
	Dispatcher    *notifications.Dispatcher
	Notifications notifications.Service
	Orders        orders.Service
	Invoices      *invoices.Ledger
	Payments      payments.Service
	Refunds       refunds.Service
	Complaints    complaints.Service
	Reports       reports.Service

	NotificationRepo notifications.Repository
	OutboxRepo       *outbox.Repository
}

// New wires every component. Notifications are recorded through the
// dispatcher inside each workflow transaction and e-mail copies leave via the
// outbox.
func New(params Params) (*Components, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	conn := params.DB.DB()

	outboxRepo := outbox.NewRepository(conn)
	outboxSvc := outbox.NewService(outboxRepo, params.Logger)

	userRepo := users.NewRepository(conn)
	directory := users.NewDirectory(userRepo)

	notificationRepo := notifications.NewRepository(conn)
	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Repository: notificationRepo,
		Roster:     directory,
		Directory:  directory,
		Outbox:     outboxSvc,
		Site:       params.Site,
		Logger:     params.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("notification dispatcher: %w", err)
	}
	notificationSvc, err := notifications.NewService(notificationRepo)
	if err != nil {
		return nil, fmt.Errorf("notification service: %w", err)
	}

	ledger, err := invoices.NewLedger(invoices.NewRepository(conn), params.Billing)
	if err != nil {
		return nil, fmt.Errorf("invoice ledger: %w", err)
	}

	stock := catalog.New(conn)
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repository: orders.NewRepository(conn),
		Tx:         params.DB,
		Catalog:    stock,
		Invoices:   ledger,
		Notifier:   dispatcher,
		Outbox:     outboxSvc,
		Billing:    params.Billing,
	})
	if err != nil {
		return nil, fmt.Errorf("order lifecycle: %w", err)
	}

	paymentSvc, err := payments.NewService(payments.ServiceParams{
		Repository: payments.NewRepository(conn),
		Tx:         params.DB,
		Orders:     orderSvc,
		Invoices:   ledger,
		Notifier:   dispatcher,
	})
	if err != nil {
		return nil, fmt.Errorf("payment verification: %w", err)
	}

	refundSvc, err := refunds.NewService(refunds.ServiceParams{
		Repository: refunds.NewRepository(conn),
		Tx:         params.DB,
		Orders:     orderSvc,
		Invoices:   ledger,
		Notifier:   dispatcher,
		Billing:    params.Billing,
	})
	if err != nil {
		return nil, fmt.Errorf("refund workflow: %w", err)
	}

	complaintSvc, err := complaints.NewService(complaints.ServiceParams{
		Repository: complaints.NewRepository(conn),
		Tx:         params.DB,
		Orders:     orderSvc,
		Invoices:   ledger,
		Notifier:   dispatcher,
	})
	if err != nil {
		return nil, fmt.Errorf("complaint workflow: %w", err)
	}

	reportSvc, err := reports.NewService(conn)
	if err != nil {
		return nil, fmt.Errorf("reports: %w", err)
	}

	return &Components{
		Catalog:          stock,
		Users:            userRepo,
		Outbox:           outboxSvc,
		Dispatcher:       dispatcher,
		Notifications:    notificationSvc,
		Orders:           orderSvc,
		Invoices:         ledger,
		Payments:         paymentSvc,
		Refunds:          refundSvc,
		Complaints:       complaintSvc,
		Reports:          reportSvc,
		NotificationRepo: notificationRepo,
		OutboxRepo:       outboxRepo,
	}, nil
}
