package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"transit-ticketing/internal/models"
	"transit-ticketing/internal/payment"
)

type DB struct {
	Bun *bun.DB
}

// CreatePayment inserts the payment if and only if no payment exists for the
// booking yet. The conditional insert rides on the unique booking_id index,
// so two racing ProcessPayment calls cannot both create a row; the loser
// gets created=false and must re-read.
func (d *DB) CreatePayment(ctx context.Context, p *models.Payment) (bool, error) {
	res, err := d.Bun.NewInsert().
		Model(p).
		On("CONFLICT (booking_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to insert payment: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (d *DB) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	var p models.Payment
	err := d.Bun.NewSelect().
		Model(&p).
		Where("payment_id = ?", paymentID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", payment.ErrPaymentNotFound, paymentID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPaymentByBookingID returns (nil, nil) when the booking has no payment
// yet; callers branch on existence rather than on an error.
func (d *DB) GetPaymentByBookingID(ctx context.Context, bookingID string) (*models.Payment, error) {
	var p models.Payment
	err := d.Bun.NewSelect().
		Model(&p).
		Where("booking_id = ?", bookingID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DB) UpdatePayment(ctx context.Context, p *models.Payment) error {
	p.UpdatedAt = time.Now()
	_, err := d.Bun.NewUpdate().
		Model(p).
		Column("payment_method", "payment_status", "transaction_id", "payment_gateway",
			"refund_amount", "refund_reason", "updated_at").
		Where("payment_id = ?", p.PaymentID).
		Exec(ctx)
	return err
}

// MarkRefunded flips a completed payment to refunded in one conditional
// write; a concurrent refund loses the race and sees zero rows.
func (d *DB) MarkRefunded(ctx context.Context, paymentID, reason string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Payment)(nil)).
		Set("payment_status = ?", models.PaymentRefunded).
		Set("refund_amount = amount").
		Set("refund_reason = ?", reason).
		Set("updated_at = ?", time.Now()).
		Where("payment_id = ?", paymentID).
		Where("payment_status = ?", models.PaymentCompleted).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return payment.ErrRefundNotAllowed
	}
	return nil
}

func (d *DB) AppendHistory(ctx context.Context, entry models.PaymentHistory) error {
	_, err := d.Bun.NewInsert().Model(&entry).Exec(ctx)
	return err
}

// ListHistory returns the audit trail for one payment, oldest first.
func (d *DB) ListHistory(ctx context.Context, paymentID string) ([]models.PaymentHistory, error) {
	var history []models.PaymentHistory
	err := d.Bun.NewSelect().
		Model(&history).
		Where("payment_id = ?", paymentID).
		Order("id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return history, nil
}
