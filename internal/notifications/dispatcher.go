package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/pkg/config"
	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
	"github.com/equiptrade/fulfillment-backend/pkg/outbox"
	"github.com/equiptrade/fulfillment-backend/pkg/outbox/payloads"
)

// OperatorRoster resolves the operators to broadcast to. It is consulted on
// every broadcast.
type OperatorRoster interface {
	Operators(ctx context.Context, tx *gorm.DB) ([]Recipient, error)
}

// RecipientDirectory resolves contact details for a single user.
type RecipientDirectory interface {
	Recipient(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Recipient, error)
}

// DispatcherParams wires the dispatcher.
type DispatcherParams struct {
	Repository Repository
	Roster     OperatorRoster
	Directory  RecipientDirectory
	Outbox     outbox.Emitter
	Site       config.SiteConfig
	Logger     *logger.Logger
}

// Dispatcher records notifications inside the caller's transaction and queues
// an e-mail copy on the outbox. Delivery happens after commit.
type Dispatcher struct {
	repo      Repository
	roster    OperatorRoster
	directory RecipientDirectory
	outbox    outbox.Emitter
	site      config.SiteConfig
	logg      *logger.Logger
}

// NewDispatcher validates and builds a Dispatcher. Directory and Outbox are
// optional; without them no e-mail copies are queued.
func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Roster == nil {
		return nil, fmt.Errorf("operator roster required")
	}
	return &Dispatcher{
		repo:      params.Repository,
		roster:    params.Roster,
		directory: params.Directory,
		outbox:    params.Outbox,
		site:      params.Site,
		logg:      params.Logger,
	}, nil
}

// Notify persists one notification for recipientID.
func (d *Dispatcher) Notify(ctx context.Context, tx *gorm.DB, recipientID uuid.UUID, notice Notice) (*models.Notification, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notify requires a transaction")
	}
	if recipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if !notice.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid notification kind %q", notice.Kind))
	}

	row := &models.Notification{
		RecipientID: recipientID,
		Kind:        notice.Kind,
		Title:       strings.TrimSpace(notice.Title),
		Message:     strings.TrimSpace(notice.Message),
		OrderID:     notice.Refs.OrderID,
		InvoiceID:   notice.Refs.InvoiceID,
		ComplaintID: notice.Refs.ComplaintID,
		RefundID:    notice.Refs.RefundID,
	}
	if err := d.repo.WithTx(tx).Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}

	if err := d.queueEmail(ctx, tx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// NotifyAllOperators resolves the roster and notifies each operator.
func (d *Dispatcher) NotifyAllOperators(ctx context.Context, tx *gorm.DB, notice Notice) ([]models.Notification, error) {
	operators, err := d.roster.Operators(ctx, tx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve operator roster")
	}
	out := make([]models.Notification, 0, len(operators))
	for _, op := range operators {
		row, err := d.Notify(ctx, tx, op.ID, notice)
		if err != nil {
			return nil, err
		}
		out = append(out, *row)
	}
	return out, nil
}

// Apply records each event in order.
func (d *Dispatcher) Apply(ctx context.Context, tx *gorm.DB, events []Event) error {
	for _, evt := range events {
		if evt.Operators {
			if _, err := d.NotifyAllOperators(ctx, tx, evt.Notice); err != nil {
				return err
			}
			continue
		}
		if _, err := d.Notify(ctx, tx, evt.RecipientID, evt.Notice); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) queueEmail(ctx context.Context, tx *gorm.DB, row *models.Notification) error {
	if d.directory == nil || d.outbox == nil {
		return nil
	}
	recipient, err := d.directory.Recipient(ctx, tx, row.RecipientID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve notification recipient")
	}
	if recipient == nil || strings.TrimSpace(recipient.Email) == "" {
		if d.logg != nil {
			d.logg.Debug(d.logg.WithField(ctx, "recipient_id", row.RecipientID.String()), "recipient has no e-mail; skipping copy")
		}
		return nil
	}

	subject, body := d.render(recipient, row)
	event := outbox.DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateNotification,
		AggregateID:   row.ID,
		Data: payloads.NotificationRequestedEvent{
			NotificationID: row.ID,
			RecipientID:    row.RecipientID,
			Kind:           row.Kind,
			Email:          recipient.Email,
			RecipientName:  recipient.Name,
			From:           d.site.FromEmail,
			Subject:        subject,
			Body:           body,
		},
	}
	if err := d.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue notification e-mail")
	}
	return nil
}

func (d *Dispatcher) render(recipient *Recipient, row *models.Notification) (string, string) {
	subject := row.Title
	if name := strings.TrimSpace(d.site.Name); name != "" {
		subject = fmt.Sprintf("[%s] %s", name, row.Title)
	}

	var b strings.Builder
	if recipient.Name != "" {
		fmt.Fprintf(&b, "Hello %s,\n\n", recipient.Name)
	} else {
		b.WriteString("Hello,\n\n")
	}
	b.WriteString(row.Message)
	b.WriteString("\n")
	if link := d.link(row); link != "" {
		fmt.Fprintf(&b, "\nDetails: %s\n", link)
	}
	if d.site.SupportEmail != "" {
		fmt.Fprintf(&b, "\nQuestions? Contact us at %s.\n", d.site.SupportEmail)
	}
	if d.site.Name != "" {
		fmt.Fprintf(&b, "\nThe %s team\n", d.site.Name)
	}
	return subject, b.String()
}

func (d *Dispatcher) link(row *models.Notification) string {
	base := strings.TrimRight(strings.TrimSpace(d.site.BaseURL), "/")
	if base == "" {
		return ""
	}
	switch {
	case row.ComplaintID != nil:
		return fmt.Sprintf("%s/complaints/%s", base, row.ComplaintID)
	case row.InvoiceID != nil:
		return fmt.Sprintf("%s/invoices/%s", base, row.InvoiceID)
	case row.OrderID != nil:
		return fmt.Sprintf("%s/orders/%s", base, row.OrderID)
	default:
		return ""
	}
}
