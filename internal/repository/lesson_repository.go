package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classbridge/classbridge-api/internal/models"
)

// LessonRepository manages persistence for dated lesson instances.
//
// The lessons table carries a unique index on (class_id, lesson_date,
// start_time) so the duplicate-slot invariant holds even when two requests for
// the same class race past the service-level check.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

const lessonColumns = "id, class_id, lesson_date, start_time, end_time, participant_number, created_at, updated_at"

// FindByID fetches a lesson by ID.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE id = $1", lessonColumns)
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// ListByClass returns all lessons of a class ordered by date and start time.
func (r *LessonRepository) ListByClass(ctx context.Context, classID string) ([]models.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE class_id = $1 ORDER BY lesson_date, start_time", lessonColumns)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, classID); err != nil {
		return nil, fmt.Errorf("list lessons by class: %w", err)
	}
	return lessons, nil
}

// ExistsSlot reports whether another lesson of the class occupies the given
// date and start time. excludeID skips the lesson being updated.
func (r *LessonRepository) ExistsSlot(ctx context.Context, classID string, date time.Time, startTime string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM lessons WHERE class_id = $1 AND lesson_date = $2 AND start_time = $3"
	args := []interface{}{classID, date, startTime}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check lesson slot: %w", err)
	}
	return true, nil
}

// Create inserts a new lesson record.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now

	const query = `INSERT INTO lessons (id, class_id, lesson_date, start_time, end_time, participant_number, created_at, updated_at)
		VALUES (:id, :class_id, :lesson_date, :start_time, :end_time, :participant_number, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// Update rewrites a lesson's timing in place, identity preserved.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	lesson.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lessons SET lesson_date = :lesson_date, start_time = :start_time, end_time = :end_time, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	return nil
}

// Delete removes a lesson record.
func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM lessons WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return nil
}

// DeleteFutureByClass removes every lesson of the class dated strictly after
// the given date. Past and same-day lessons are retained for reporting.
func (r *LessonRepository) DeleteFutureByClass(ctx context.Context, classID string, after time.Time) (int64, error) {
	const query = `DELETE FROM lessons WHERE class_id = $1 AND lesson_date > $2`
	res, err := r.db.ExecContext(ctx, query, classID, after)
	if err != nil {
		return 0, fmt.Errorf("delete future lessons: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}
