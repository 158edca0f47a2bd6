package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classbridge/classbridge-api/internal/models"
)

// ClassRepository manages persistence for one-day classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = "id, tutor_id, name, duration, personal, price, created_at, updated_at"

// FindByID fetches a class by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.OneDayClass, error) {
	query := fmt.Sprintf("SELECT %s FROM one_day_classes WHERE id = $1", classColumns)
	var class models.OneDayClass
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListByTutor returns every class owned by a tutor, newest first.
func (r *ClassRepository) ListByTutor(ctx context.Context, tutorID string) ([]models.OneDayClass, error) {
	query := fmt.Sprintf("SELECT %s FROM one_day_classes WHERE tutor_id = $1 ORDER BY created_at DESC", classColumns)
	var classes []models.OneDayClass
	if err := r.db.SelectContext(ctx, &classes, query, tutorID); err != nil {
		return nil, fmt.Errorf("list classes by tutor: %w", err)
	}
	return classes, nil
}

// Create inserts a new class record.
func (r *ClassRepository) Create(ctx context.Context, class *models.OneDayClass) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	const query = `INSERT INTO one_day_classes (id, tutor_id, name, duration, personal, price, created_at, updated_at)
		VALUES (:id, :tutor_id, :name, :duration, :personal, :price, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update modifies an existing class record.
func (r *ClassRepository) Update(ctx context.Context, class *models.OneDayClass) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE one_day_classes SET name = :name, duration = :duration, personal = :personal, price = :price, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// Delete removes a class record.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM one_day_classes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}
