package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/classbridge/classbridge-api/internal/models"
	appErrors "github.com/classbridge/classbridge-api/pkg/errors"
	"github.com/classbridge/classbridge-api/pkg/export"
)

// periodLayout is the wire format for calendar-month filters.
const periodLayout = "2006-01"

type paymentRepository interface {
	ListByTutor(ctx context.Context, tutorID string) ([]models.TutorPayment, error)
	ListByTutorBetween(ctx context.Context, tutorID string, from, to time.Time) ([]models.TutorPayment, error)
}

type paymentUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type statementRenderer interface {
	Render(st export.Statement) ([]byte, error)
}

// StatementFormat selects a payment statement rendering.
type StatementFormat string

const (
	StatementCSV StatementFormat = "csv"
	StatementPDF StatementFormat = "pdf"
)

// Statement is a rendered payment statement ready to be served.
type Statement struct {
	Filename    string
	ContentType string
	Content     []byte
}

// PaymentService is a read-only projection over the tutor payment ledger:
// per-tutor listings, calendar-month filtering, and statement export. It never
// mutates the ledger.
type PaymentService struct {
	payments paymentRepository
	users    paymentUserRepository
	csv      statementRenderer
	pdf      statementRenderer
	logger   *zap.Logger
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(payments paymentRepository, users paymentUserRepository, csv, pdf statementRenderer, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{payments: payments, users: users, csv: csv, pdf: pdf, logger: logger}
}

// ListForCaller returns every payment received by the calling tutor, newest
// first. An empty result is valid.
func (s *PaymentService) ListForCaller(ctx context.Context, callerEmail string) ([]models.TutorPayment, error) {
	tutor, err := s.resolveTutor(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByTutor(ctx, tutor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// ListForCallerByPeriod restricts the listing to payments whose timestamp
// falls inside the given calendar month ("2006-01"). Day-of-month is ignored.
func (s *PaymentService) ListForCallerByPeriod(ctx context.Context, callerEmail, period string) ([]models.TutorPayment, error) {
	from, to, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}
	tutor, err := s.resolveTutor(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByTutorBetween(ctx, tutor.ID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// ExportStatement renders the caller's payments, optionally filtered to a
// calendar month, as a downloadable CSV or PDF statement.
func (s *PaymentService) ExportStatement(ctx context.Context, callerEmail, period string, format StatementFormat) (*Statement, error) {
	var (
		payments []models.TutorPayment
		err      error
	)
	if period != "" {
		payments, err = s.ListForCallerByPeriod(ctx, callerEmail, period)
	} else {
		payments, err = s.ListForCaller(ctx, callerEmail)
	}
	if err != nil {
		return nil, err
	}

	st := buildStatement(payments, period)

	var renderer statementRenderer
	var contentType, ext string
	switch format {
	case StatementCSV:
		renderer, contentType, ext = s.csv, "text/csv", "csv"
	case StatementPDF:
		renderer, contentType, ext = s.pdf, "application/pdf", "pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported statement format")
	}

	content, err := renderer.Render(st)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statement")
	}

	name := "payments"
	if period != "" {
		name = "payments-" + period
	}
	return &Statement{
		Filename:    fmt.Sprintf("%s.%s", name, ext),
		ContentType: contentType,
		Content:     content,
	}, nil
}

func buildStatement(payments []models.TutorPayment, period string) export.Statement {
	title := "Payment statement"
	if period != "" {
		title = "Payment statement " + period
	}

	rows := make([][]string, 0, len(payments))
	var total int64
	for _, p := range payments {
		rows = append(rows, []string{
			p.ID,
			p.PaidAt.Format("2006-01-02 15:04"),
			p.PayerID,
			fmt.Sprintf("%d", p.Amount),
		})
		total += p.Amount
	}

	return export.Statement{
		Title:   title,
		Headers: []string{"Payment ID", "Paid At", "Payer", "Amount"},
		Rows:    rows,
		Footer:  []string{"Total", "", "", fmt.Sprintf("%d", total)},
	}
}

// parsePeriod expands "2006-01" into the [firstOfMonth, firstOfNextMonth)
// interval.
func parsePeriod(period string) (time.Time, time.Time, error) {
	t, err := time.Parse(periodLayout, period)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period, expected YYYY-MM")
	}
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0), nil
}

func (s *PaymentService) resolveTutor(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}
	return user, nil
}
