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
)

type classRepository interface {
	FindByID(ctx context.Context, id string) (*models.OneDayClass, error)
	ListByTutor(ctx context.Context, tutorID string) ([]models.OneDayClass, error)
	Create(ctx context.Context, class *models.OneDayClass) error
	Update(ctx context.Context, class *models.OneDayClass) error
	Delete(ctx context.Context, id string) error
}

type classLessonRepository interface {
	DeleteFutureByClass(ctx context.Context, classID string, after time.Time) (int64, error)
}

type classUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type classDocumentRepository interface {
	Find(ctx context.Context, classID string) (*models.ClassDocument, bool, error)
	Save(ctx context.Context, doc *models.ClassDocument) error
}

// ClassRequest carries the mutable fields of a one-day class.
type ClassRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Duration int    `json:"duration" validate:"required,min=1,max=1440"`
	Personal int    `json:"personal" validate:"required,min=1,max=100"`
	Price    int64  `json:"price" validate:"min=0"`
}

// ClassService manages one-day class definitions. Changing a class's duration
// or capacity invalidates its future schedule: every lesson dated after today
// is deleted in bulk, while past lessons stay for reporting.
type ClassService struct {
	classes   classRepository
	lessons   classLessonRepository
	users     classUserRepository
	documents classDocumentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(classes classRepository, lessons classLessonRepository, users classUserRepository, documents classDocumentRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{classes: classes, lessons: lessons, users: users, documents: documents, validator: validate, logger: logger}
}

// Get returns a class by ID.
func (s *ClassService) Get(ctx context.Context, classID string) (*models.OneDayClass, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// ListForCaller returns the caller's own classes.
func (s *ClassService) ListForCaller(ctx context.Context, callerEmail string) ([]models.OneDayClass, error) {
	tutor, err := s.resolveTutor(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	classes, err := s.classes.ListByTutor(ctx, tutor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Create registers a new class owned by the caller and seeds its search
// document.
func (s *ClassService) Create(ctx context.Context, callerEmail string, req ClassRequest) (*models.OneDayClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	tutor, err := s.resolveTutor(ctx, callerEmail)
	if err != nil {
		return nil, err
	}

	class := &models.OneDayClass{
		TutorID:  tutor.ID,
		Name:     req.Name,
		Duration: req.Duration,
		Personal: req.Personal,
		Price:    req.Price,
	}
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}

	doc := &models.ClassDocument{
		ClassID:  class.ID,
		Name:     class.Name,
		TutorID:  class.TutorID,
		Duration: class.Duration,
		Price:    class.Price,
		TagList:  []string{},
	}
	if err := s.documents.Save(ctx, doc); err != nil {
		s.logger.Warn("failed to seed class document", zap.String("class_id", class.ID), zap.Error(err))
	}
	return class, nil
}

// Update modifies a class. When the duration or capacity changes, all future
// lessons are deleted: their derived end times or capacity assumptions no
// longer hold.
func (s *ClassService) Update(ctx context.Context, callerEmail, classID string, req ClassRequest) (*models.OneDayClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	tutor, err := s.resolveTutor(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	class, err := s.ownedClass(ctx, tutor, classID)
	if err != nil {
		return nil, err
	}

	scheduleInvalidated := class.Duration != req.Duration || class.Personal != req.Personal

	class.Name = req.Name
	class.Duration = req.Duration
	class.Personal = req.Personal
	class.Price = req.Price
	if err := s.classes.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}

	if scheduleInvalidated {
		deleted, err := s.lessons.DeleteFutureByClass(ctx, classID, today())
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate future lessons")
		}
		s.logger.Info("future lessons invalidated",
			zap.String("class_id", classID),
			zap.Int64("deleted", deleted))
	}

	s.mirrorClass(ctx, class)
	return class, nil
}

// Delete removes a class and its future lessons. Past lessons and the search
// document stay behind; stale documents are tolerated drift.
func (s *ClassService) Delete(ctx context.Context, callerEmail, classID string) error {
	tutor, err := s.resolveTutor(ctx, callerEmail)
	if err != nil {
		return err
	}
	if _, err := s.ownedClass(ctx, tutor, classID); err != nil {
		return err
	}

	deleted, err := s.lessons.DeleteFutureByClass(ctx, classID, today())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate future lessons")
	}

	if err := s.classes.Delete(ctx, classID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}

	s.logger.Info("class deleted",
		zap.String("class_id", classID),
		zap.Int64("future_lessons_deleted", deleted))
	return nil
}

// mirrorClass refreshes the document's display metadata after a class change.
// The tag list is left untouched; tags own their own sync.
func (s *ClassService) mirrorClass(ctx context.Context, class *models.OneDayClass) {
	doc, found, err := s.documents.Find(ctx, class.ID)
	if err != nil {
		s.logger.Warn("failed to load class document", zap.String("class_id", class.ID), zap.Error(err))
		return
	}
	if !found {
		s.logger.Warn("class document missing, skipping index sync", zap.String("class_id", class.ID))
		return
	}
	doc.Name = class.Name
	doc.Duration = class.Duration
	doc.Price = class.Price
	if err := s.documents.Save(ctx, doc); err != nil {
		s.logger.Warn("failed to save class document", zap.String("class_id", class.ID), zap.Error(err))
	}
}

func (s *ClassService) resolveTutor(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}
	return user, nil
}

func (s *ClassService) ownedClass(ctx context.Context, tutor *models.User, classID string) (*models.OneDayClass, error) {
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
