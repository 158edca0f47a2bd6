package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classbridge/classbridge-api/internal/models"
)

// FAQRepository manages persistence for class FAQs.
type FAQRepository struct {
	db *sqlx.DB
}

// NewFAQRepository constructs a FAQRepository.
func NewFAQRepository(db *sqlx.DB) *FAQRepository {
	return &FAQRepository{db: db}
}

const faqColumns = "id, class_id, title, content, created_at, updated_at"

// FindByID fetches a FAQ by ID.
func (r *FAQRepository) FindByID(ctx context.Context, id string) (*models.ClassFAQ, error) {
	query := fmt.Sprintf("SELECT %s FROM class_faqs WHERE id = $1", faqColumns)
	var faq models.ClassFAQ
	if err := r.db.GetContext(ctx, &faq, query, id); err != nil {
		return nil, err
	}
	return &faq, nil
}

// ListByClass returns all FAQs of a class, oldest first.
func (r *FAQRepository) ListByClass(ctx context.Context, classID string) ([]models.ClassFAQ, error) {
	query := fmt.Sprintf("SELECT %s FROM class_faqs WHERE class_id = $1 ORDER BY created_at", faqColumns)
	var faqs []models.ClassFAQ
	if err := r.db.SelectContext(ctx, &faqs, query, classID); err != nil {
		return nil, fmt.Errorf("list faqs by class: %w", err)
	}
	return faqs, nil
}

// Create inserts a new FAQ record.
func (r *FAQRepository) Create(ctx context.Context, faq *models.ClassFAQ) error {
	if faq.ID == "" {
		faq.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if faq.CreatedAt.IsZero() {
		faq.CreatedAt = now
	}
	faq.UpdatedAt = now

	const query = `INSERT INTO class_faqs (id, class_id, title, content, created_at, updated_at)
		VALUES (:id, :class_id, :title, :content, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, faq); err != nil {
		return fmt.Errorf("create faq: %w", err)
	}
	return nil
}

// Update modifies an existing FAQ record.
func (r *FAQRepository) Update(ctx context.Context, faq *models.ClassFAQ) error {
	faq.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_faqs SET title = :title, content = :content, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, faq); err != nil {
		return fmt.Errorf("update faq: %w", err)
	}
	return nil
}

// Delete removes a FAQ record.
func (r *FAQRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM class_faqs WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete faq: %w", err)
	}
	return nil
}
