package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classbridge/classbridge-api/internal/models"
)

// TagRepository manages persistence for class tags.
type TagRepository struct {
	db *sqlx.DB
}

// NewTagRepository constructs a TagRepository.
func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{db: db}
}

const tagColumns = "id, class_id, name, created_at, updated_at"

// FindByID fetches a tag by ID.
func (r *TagRepository) FindByID(ctx context.Context, id string) (*models.ClassTag, error) {
	query := fmt.Sprintf("SELECT %s FROM class_tags WHERE id = $1", tagColumns)
	var tag models.ClassTag
	if err := r.db.GetContext(ctx, &tag, query, id); err != nil {
		return nil, err
	}
	return &tag, nil
}

// ListByClass returns all tags of a class, oldest first.
func (r *TagRepository) ListByClass(ctx context.Context, classID string) ([]models.ClassTag, error) {
	query := fmt.Sprintf("SELECT %s FROM class_tags WHERE class_id = $1 ORDER BY created_at", tagColumns)
	var tags []models.ClassTag
	if err := r.db.SelectContext(ctx, &tags, query, classID); err != nil {
		return nil, fmt.Errorf("list tags by class: %w", err)
	}
	return tags, nil
}

// CountByClass returns how many tags a class currently holds.
func (r *TagRepository) CountByClass(ctx context.Context, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM class_tags WHERE class_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID); err != nil {
		return 0, fmt.Errorf("count tags by class: %w", err)
	}
	return count, nil
}

// Create inserts a new tag record.
func (r *TagRepository) Create(ctx context.Context, tag *models.ClassTag) error {
	if tag.ID == "" {
		tag.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = now
	}
	tag.UpdatedAt = now

	const query = `INSERT INTO class_tags (id, class_id, name, created_at, updated_at)
		VALUES (:id, :class_id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tag); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// Update renames an existing tag.
func (r *TagRepository) Update(ctx context.Context, tag *models.ClassTag) error {
	tag.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_tags SET name = :name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, tag); err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	return nil
}

// Delete removes a tag record.
func (r *TagRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM class_tags WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}
