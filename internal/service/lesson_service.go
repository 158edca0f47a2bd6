package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classbridge/classbridge-api/internal/models"
	appErrors "github.com/classbridge/classbridge-api/pkg/errors"
	"github.com/classbridge/classbridge-api/pkg/lock"
)

// lessonDateLayout is the wire format for lesson dates.
const lessonDateLayout = "2006-01-02"

type lessonRepository interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	ListByClass(ctx context.Context, classID string) ([]models.Lesson, error)
	ExistsSlot(ctx context.Context, classID string, date time.Time, startTime string, excludeID string) (bool, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id string) error
}

type lessonClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.OneDayClass, error)
}

type lessonUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// LessonRequest carries the date and start time for registering or moving a
// lesson. EndTime is never accepted from callers; it is derived from the class
// duration.
type LessonRequest struct {
	LessonDate string `json:"lesson_date" validate:"required,datetime=2006-01-02"`
	StartTime  string `json:"start_time" validate:"required,datetime=15:04"`
}

// LessonService schedules dated lesson instances under a class, enforcing
// temporal validity, slot uniqueness, and the reserved-participant guard.
type LessonService struct {
	lessons   lessonRepository
	classes   lessonClassRepository
	users     lessonUserRepository
	locks     *lock.Keyed
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonService constructs a LessonService.
func NewLessonService(lessons lessonRepository, classes lessonClassRepository, users lessonUserRepository, locks *lock.Keyed, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = lock.NewKeyed()
	}
	return &LessonService{lessons: lessons, classes: classes, users: users, locks: locks, validator: validate, logger: logger}
}

// Register creates a new lesson slot for the class. The slot date must be
// strictly after today and must not collide with another lesson of the class.
func (s *LessonService) Register(ctx context.Context, callerEmail, classID string, req LessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	date, err := parseLessonDate(req.LessonDate)
	if err != nil {
		return nil, err
	}

	tutor, err := s.resolveTutor(ctx, callerEmail)
	if err != nil {
		return nil, err
	}

	class, err := s.ownedClass(ctx, tutor, classID)
	if err != nil {
		return nil, err
	}

	endTime, err := addMinutes(req.StartTime, class.Duration)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}

	s.locks.Lock(classID)
	defer s.locks.Unlock(classID)

	taken, err := s.lessons.ExistsSlot(ctx, classID, date, req.StartTime, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lesson slot")
	}
	if taken {
		return nil, appErrors.ErrDuplicateLesson
	}

	lesson := &models.Lesson{
		ClassID:           classID,
		LessonDate:        date,
		StartTime:         req.StartTime,
		EndTime:           endTime,
		ParticipantNumber: 0,
	}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}

	s.logger.Info("lesson registered",
		zap.String("class_id", classID),
		zap.String("lesson_id", lesson.ID),
		zap.String("lesson_date", req.LessonDate),
		zap.String("start_time", req.StartTime))
	return lesson, nil
}

// Update moves an existing lesson to a new date or start time. A lesson with
// at least one reserved participant is immutable in its timing.
func (s *LessonService) Update(ctx context.Context, callerEmail, classID, lessonID string, req LessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	date, err := parseLessonDate(req.LessonDate)
	if err != nil {
		return nil, err
	}

	tutor, err := s.resolveTutor(ctx, callerEmail)
	if err != nil {
		return nil, err
	}

	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if lesson.ClassID != classID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}

	class, err := s.ownedClass(ctx, tutor, classID)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(classID)
	defer s.locks.Unlock(classID)

	slotChanged := !lesson.LessonDate.Equal(date) || lesson.StartTime != req.StartTime
	if slotChanged {
		taken, err := s.lessons.ExistsSlot(ctx, classID, date, req.StartTime, lesson.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lesson slot")
		}
		if taken {
			return nil, appErrors.ErrDuplicateLesson
		}
	}

	if lesson.ParticipantNumber > 0 {
		return nil, appErrors.ErrReservedLesson
	}

	endTime, err := addMinutes(req.StartTime, class.Duration)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}

	lesson.LessonDate = date
	lesson.StartTime = req.StartTime
	lesson.EndTime = endTime
	if err := s.lessons.Update(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}

	s.logger.Info("lesson rescheduled",
		zap.String("class_id", classID),
		zap.String("lesson_id", lesson.ID),
		zap.String("lesson_date", req.LessonDate),
		zap.String("start_time", req.StartTime))
	return lesson, nil
}

// Delete removes a lesson slot. Deletion is a tutor-initiated cancellation and
// is allowed even when participants are booked; the boundary layer is expected
// to notify them.
func (s *LessonService) Delete(ctx context.Context, callerEmail, classID, lessonID string) error {
	tutor, err := s.resolveTutor(ctx, callerEmail)
	if err != nil {
		return err
	}

	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if lesson.ClassID != classID {
		return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}

	if _, err := s.ownedClass(ctx, tutor, classID); err != nil {
		return err
	}

	if err := s.lessons.Delete(ctx, lesson.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}

	if lesson.ParticipantNumber > 0 {
		s.logger.Warn("deleted lesson with reserved participants",
			zap.String("class_id", classID),
			zap.String("lesson_id", lesson.ID),
			zap.Int("participants", lesson.ParticipantNumber))
	}
	return nil
}

// List returns the lessons of a class, ordered by date and start time.
func (s *LessonService) List(ctx context.Context, classID string) ([]models.Lesson, error) {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	lessons, err := s.lessons.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	return lessons, nil
}

func (s *LessonService) resolveTutor(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}
	return user, nil
}

func (s *LessonService) ownedClass(ctx context.Context, tutor *models.User, classID string) (*models.OneDayClass, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.TutorID != tutor.ID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "caller does not own this class")
	}
	return class, nil
}

// parseLessonDate parses and validates a lesson date, rejecting anything not
// strictly after the current server-local date.
func parseLessonDate(raw string) (time.Time, error) {
	date, err := time.Parse(lessonDateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson date")
	}
	if !date.After(today()) {
		return time.Time{}, appErrors.ErrInvalidLessonDate
	}
	return date, nil
}

// today returns the current server-local date at UTC midnight so it compares
// cleanly against parsed lesson dates.
func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// addMinutes shifts a clock time in models.TimeOfDayLayout forward by the
// given number of minutes, wrapping past midnight.
func addMinutes(startTime string, minutes int) (string, error) {
	t, err := time.Parse(models.TimeOfDayLayout, startTime)
	if err != nil {
		return "", err
	}
	return t.Add(time.Duration(minutes) * time.Minute).Format(models.TimeOfDayLayout), nil
}
