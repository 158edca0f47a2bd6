package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classbridge/classbridge-api/internal/models"
	appErrors "github.com/classbridge/classbridge-api/pkg/errors"
)

type faqRepository interface {
	FindByID(ctx context.Context, id string) (*models.ClassFAQ, error)
	ListByClass(ctx context.Context, classID string) ([]models.ClassFAQ, error)
	Create(ctx context.Context, faq *models.ClassFAQ) error
	Update(ctx context.Context, faq *models.ClassFAQ) error
	Delete(ctx context.Context, id string) error
}

type faqClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.OneDayClass, error)
}

type faqUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// FAQRequest carries a FAQ title and content.
type FAQRequest struct {
	Title   string `json:"title" validate:"required,max=100"`
	Content string `json:"content" validate:"required,max=1000"`
}

// FAQService manages class FAQs. No cardinality limit and no index sync; only
// the ownership contract applies.
type FAQService struct {
	faqs      faqRepository
	classes   faqClassRepository
	users     faqUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFAQService constructs a FAQService.
func NewFAQService(faqs faqRepository, classes faqClassRepository, users faqUserRepository, validate *validator.Validate, logger *zap.Logger) *FAQService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FAQService{faqs: faqs, classes: classes, users: users, validator: validate, logger: logger}
}

// Register attaches a new FAQ entry to the class.
func (s *FAQService) Register(ctx context.Context, callerEmail, classID string, req FAQRequest) (*models.ClassFAQ, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faq payload")
	}

	if err := s.checkOwnership(ctx, callerEmail, classID); err != nil {
		return nil, err
	}

	faq := &models.ClassFAQ{ClassID: classID, Title: req.Title, Content: req.Content}
	if err := s.faqs.Create(ctx, faq); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faq")
	}
	return faq, nil
}

// Update modifies an existing FAQ entry.
func (s *FAQService) Update(ctx context.Context, callerEmail, classID, faqID string, req FAQRequest) (*models.ClassFAQ, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faq payload")
	}

	if err := s.checkOwnership(ctx, callerEmail, classID); err != nil {
		return nil, err
	}

	faq, err := s.classFAQ(ctx, classID, faqID)
	if err != nil {
		return nil, err
	}

	faq.Title = req.Title
	faq.Content = req.Content
	if err := s.faqs.Update(ctx, faq); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update faq")
	}
	return faq, nil
}

// Delete removes a FAQ entry.
func (s *FAQService) Delete(ctx context.Context, callerEmail, classID, faqID string) error {
	if err := s.checkOwnership(ctx, callerEmail, classID); err != nil {
		return err
	}

	faq, err := s.classFAQ(ctx, classID, faqID)
	if err != nil {
		return err
	}

	if err := s.faqs.Delete(ctx, faq.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete faq")
	}
	return nil
}

// List returns the FAQs of a class.
func (s *FAQService) List(ctx context.Context, classID string) ([]models.ClassFAQ, error) {
	faqs, err := s.faqs.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faqs")
	}
	return faqs, nil
}

func (s *FAQService) checkOwnership(ctx context.Context, callerEmail, classID string) error {
	user, err := s.users.FindByEmail(ctx, callerEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.TutorID != user.ID {
		return appErrors.Clone(appErrors.ErrUnauthorized, "caller does not own this class")
	}
	return nil
}

func (s *FAQService) classFAQ(ctx context.Context, classID, faqID string) (*models.ClassFAQ, error) {
	faq, err := s.faqs.FindByID(ctx, faqID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faq not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faq")
	}
	if faq.ClassID != classID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "faq not found")
	}
	return faq, nil
}
