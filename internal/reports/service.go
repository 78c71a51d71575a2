// Package reports serves operator dashboards from the transactional tables.
package reports

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
)

const topReasonsLimit = 5

// revenueStatuses are the order states whose payment has been verified and
// not returned.
var revenueStatuses = []enums.OrderStatus{
	enums.OrderStatusPaid,
	enums.OrderStatusProcessing,
	enums.OrderStatusShipped,
	enums.OrderStatusDelivered,
	enums.OrderStatusRefundPending,
}

// Service computes operator statistics.
type Service interface {
	Orders(ctx context.Context, window Window) (*OrderStats, error)
	Payments(ctx context.Context, window Window) (*PaymentStats, error)
	Complaints(ctx context.Context, window Window) (*ComplaintStats, error)
	Refunds(ctx context.Context, window Window) (*RefundStats, error)
}

type service struct {
	db *gorm.DB
}

// NewService builds a report service reading from db.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &service{db: db}, nil
}

func (s *service) Orders(ctx context.Context, window Window) (*OrderStats, error) {
	if err := validateWindow(window); err != nil {
		return nil, err
	}
	byStatus, total, err := s.countByStatus(ctx, "orders", window)
	if err != nil {
		return nil, err
	}

	var revenue struct {
		Sum   int64
		Count int64
	}
	err = s.scoped(ctx, "orders", window).
		Select("COALESCE(SUM(total_cents), 0) AS sum, COUNT(*) AS count").
		Where("status IN ?", revenueStatuses).
		Scan(&revenue).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order revenue")
	}

	stats := &OrderStats{Total: total, ByStatus: byStatus, RevenueCents: revenue.Sum}
	if revenue.Count > 0 {
		stats.AverageOrderCents = revenue.Sum / revenue.Count
	}
	return stats, nil
}

func (s *service) Payments(ctx context.Context, window Window) (*PaymentStats, error) {
	if err := validateWindow(window); err != nil {
		return nil, err
	}
	var proofs struct {
		Pending  int64
		Approved int64
		Rejected int64
	}
	err := s.scoped(ctx, "payment_proofs", window).
		Select(`COALESCE(SUM(CASE WHEN reviewed_at IS NULL THEN 1 ELSE 0 END), 0) AS pending,
COALESCE(SUM(CASE WHEN reviewed_at IS NOT NULL AND verified THEN 1 ELSE 0 END), 0) AS approved,
COALESCE(SUM(CASE WHEN reviewed_at IS NOT NULL AND NOT verified THEN 1 ELSE 0 END), 0) AS rejected`).
		Scan(&proofs).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment proof counts")
	}

	var receipts struct {
		Count int64
		Sum   int64
	}
	err = s.scoped(ctx, "payment_receipts", window).
		Select("COUNT(*) AS count, COALESCE(SUM(amount_cents), 0) AS sum").
		Scan(&receipts).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment receipt totals")
	}

	return &PaymentStats{
		PendingProofs:  proofs.Pending,
		ApprovedProofs: proofs.Approved,
		RejectedProofs: proofs.Rejected,
		ReceiptsIssued: receipts.Count,
		CollectedCents: receipts.Sum,
	}, nil
}

func (s *service) Complaints(ctx context.Context, window Window) (*ComplaintStats, error) {
	if err := validateWindow(window); err != nil {
		return nil, err
	}
	byStatus, total, err := s.countByStatus(ctx, "complaints", window)
	if err != nil {
		return nil, err
	}

	var reasons []LabelValue
	query := s.db.WithContext(ctx).
		Table("complaints").
		Select("COALESCE(complaint_reasons.name, complaints.custom_reason) AS label, COUNT(*) AS value").
		Joins("LEFT JOIN complaint_reasons ON complaint_reasons.id = complaints.reason_id")
	query = applyWindow(query, "complaints.created_at", window)
	err = query.
		Group("COALESCE(complaint_reasons.name, complaints.custom_reason)").
		Order("value DESC, label ASC").
		Limit(topReasonsLimit).
		Scan(&reasons).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complaint reasons")
	}

	return &ComplaintStats{Total: total, ByStatus: byStatus, TopReasons: reasons}, nil
}

func (s *service) Refunds(ctx context.Context, window Window) (*RefundStats, error) {
	if err := validateWindow(window); err != nil {
		return nil, err
	}
	byStatus, total, err := s.countByStatus(ctx, "refunds", window)
	if err != nil {
		return nil, err
	}

	var amounts struct {
		Refunded    int64
		Outstanding int64
	}
	err = s.scoped(ctx, "refunds", window).
		Select(fmt.Sprintf(`COALESCE(SUM(CASE WHEN status = '%s' THEN amount_cents ELSE 0 END), 0) AS refunded,
COALESCE(SUM(CASE WHEN status IN ('%s', '%s', '%s') THEN amount_cents ELSE 0 END), 0) AS outstanding`,
			enums.RefundStatusCompleted,
			enums.RefundStatusPending, enums.RefundStatusApproved, enums.RefundStatusProcessing)).
		Scan(&amounts).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund amounts")
	}

	return &RefundStats{
		Total:            total,
		ByStatus:         byStatus,
		RefundedCents:    amounts.Refunded,
		OutstandingCents: amounts.Outstanding,
	}, nil
}

func (s *service) countByStatus(ctx context.Context, table string, window Window) ([]LabelValue, int64, error) {
	var rows []LabelValue
	err := s.scoped(ctx, table, window).
		Select("status AS label, COUNT(*) AS value").
		Group("status").
		Order("label ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s by status", table))
	}
	var total int64
	for _, row := range rows {
		total += row.Value
	}
	return rows, total, nil
}

func (s *service) scoped(ctx context.Context, table string, window Window) *gorm.DB {
	return applyWindow(s.db.WithContext(ctx).Table(table), "created_at", window)
}

func applyWindow(query *gorm.DB, column string, window Window) *gorm.DB {
	if !window.Start.IsZero() {
		query = query.Where(column+" >= ?", window.Start.UTC())
	}
	if !window.End.IsZero() {
		query = query.Where(column+" <= ?", window.End.UTC())
	}
	return query
}

func validateWindow(window Window) error {
	if !window.Start.IsZero() && !window.End.IsZero() && window.End.Before(window.Start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	return nil
}
