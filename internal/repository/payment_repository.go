package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/classbridge/classbridge-api/internal/models"
)

// PaymentRepository reads the append-only tutor payment ledger. No write
// operations are exposed here; payments are recorded by the payment gateway
// integration, which lives outside this service.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = "id, payer_id, tutor_id, lesson_id, amount, paid_at, created_at"

// ListByTutor returns every payment received by a tutor, newest first.
func (r *PaymentRepository) ListByTutor(ctx context.Context, tutorID string) ([]models.TutorPayment, error) {
	query := fmt.Sprintf("SELECT %s FROM tutor_payments WHERE tutor_id = $1 ORDER BY paid_at DESC", paymentColumns)
	var payments []models.TutorPayment
	if err := r.db.SelectContext(ctx, &payments, query, tutorID); err != nil {
		return nil, fmt.Errorf("list payments by tutor: %w", err)
	}
	return payments, nil
}

// ListByTutorBetween returns payments received by a tutor whose paid_at falls
// in [from, to), newest first.
func (r *PaymentRepository) ListByTutorBetween(ctx context.Context, tutorID string, from, to time.Time) ([]models.TutorPayment, error) {
	query := fmt.Sprintf("SELECT %s FROM tutor_payments WHERE tutor_id = $1 AND paid_at >= $2 AND paid_at < $3 ORDER BY paid_at DESC", paymentColumns)
	var payments []models.TutorPayment
	if err := r.db.SelectContext(ctx, &payments, query, tutorID, from, to); err != nil {
		return nil, fmt.Errorf("list payments by tutor and period: %w", err)
	}
	return payments, nil
}
