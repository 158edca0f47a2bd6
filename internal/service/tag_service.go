package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classbridge/classbridge-api/internal/models"
	appErrors "github.com/classbridge/classbridge-api/pkg/errors"
	"github.com/classbridge/classbridge-api/pkg/lock"
)

type tagRepository interface {
	FindByID(ctx context.Context, id string) (*models.ClassTag, error)
	ListByClass(ctx context.Context, classID string) ([]models.ClassTag, error)
	CountByClass(ctx context.Context, classID string) (int, error)
	Create(ctx context.Context, tag *models.ClassTag) error
	Update(ctx context.Context, tag *models.ClassTag) error
	Delete(ctx context.Context, id string) error
}

type tagClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.OneDayClass, error)
}

type tagUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type tagDocumentRepository interface {
	Find(ctx context.Context, classID string) (*models.ClassDocument, bool, error)
	Save(ctx context.Context, doc *models.ClassDocument) error
}

// driftRecorder surfaces skipped index syncs to observability.
type driftRecorder interface {
	IndexDrift(reason string)
}

// TagRequest carries a tag name.
type TagRequest struct {
	Name string `json:"name" validate:"required,max=20"`
}

// TagService manages class tags and keeps the search-index document's tag list
// synchronized with the relational rows. The relational catalog is
// authoritative; the document patch is best-effort and never fails the
// operation.
type TagService struct {
	tags      tagRepository
	classes   tagClassRepository
	users     tagUserRepository
	documents tagDocumentRepository
	locks     *lock.Keyed
	drift     driftRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTagService constructs a TagService. drift may be nil.
func NewTagService(tags tagRepository, classes tagClassRepository, users tagUserRepository, documents tagDocumentRepository, locks *lock.Keyed, drift driftRecorder, validate *validator.Validate, logger *zap.Logger) *TagService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = lock.NewKeyed()
	}
	return &TagService{tags: tags, classes: classes, users: users, documents: documents, locks: locks, drift: drift, validator: validate, logger: logger}
}

// Register attaches a new tag to the class, capped at
// models.MaxTagsPerClass tags, and appends the name to the class document's
// tag list when a document exists.
func (s *TagService) Register(ctx context.Context, callerEmail, classID string, req TagRequest) (*models.ClassTag, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tag payload")
	}

	tutor, err := s.resolveTutor(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedClass(ctx, tutor, classID); err != nil {
		return nil, err
	}

	s.locks.Lock(classID)
	defer s.locks.Unlock(classID)

	count, err := s.tags.CountByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count tags")
	}
	if count >= models.MaxTagsPerClass {
		return nil, appErrors.ErrMaxTagLimit
	}

	tag := &models.ClassTag{ClassID: classID, Name: req.Name}
	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tag")
	}

	s.patchDocument(ctx, classID, func(doc *models.ClassDocument) bool {
		doc.TagList = append(doc.TagList, tag.Name)
		return true
	})
	return tag, nil
}

// Rename changes a tag's display name and replaces the old name in the class
// document's tag list when present.
func (s *TagService) Rename(ctx context.Context, callerEmail, classID, tagID string, req TagRequest) (*models.ClassTag, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tag payload")
	}

	tutor, err := s.resolveTutor(ctx, callerEmail)
	if err != nil {
		return nil, err
	}

	tag, err := s.ownedTag(ctx, tutor, classID, tagID)
	if err != nil {
		return nil, err
	}

	oldName := tag.Name
	tag.Name = req.Name
	if err := s.tags.Update(ctx, tag); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update tag")
	}

	s.patchDocument(ctx, classID, func(doc *models.ClassDocument) bool {
		for i, name := range doc.TagList {
			if name == oldName {
				doc.TagList[i] = tag.Name
				return true
			}
		}
		s.logger.Warn("tag missing from class document",
			zap.String("class_id", classID),
			zap.String("tag", oldName))
		s.recordDrift("entry_missing")
		return false
	})
	return tag, nil
}

// Delete removes a tag and drops the matching entry from the class document's
// tag list when present.
func (s *TagService) Delete(ctx context.Context, callerEmail, classID, tagID string) error {
	tutor, err := s.resolveTutor(ctx, callerEmail)
	if err != nil {
		return err
	}

	tag, err := s.ownedTag(ctx, tutor, classID, tagID)
	if err != nil {
		return err
	}

	if err := s.tags.Delete(ctx, tag.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete tag")
	}

	s.patchDocument(ctx, classID, func(doc *models.ClassDocument) bool {
		for i, name := range doc.TagList {
			if name == tag.Name {
				doc.TagList = append(doc.TagList[:i], doc.TagList[i+1:]...)
				return true
			}
		}
		s.logger.Warn("tag missing from class document",
			zap.String("class_id", classID),
			zap.String("tag", tag.Name))
		s.recordDrift("entry_missing")
		return false
	})
	return nil
}

// List returns the tags of a class.
func (s *TagService) List(ctx context.Context, classID string) ([]models.ClassTag, error) {
	tags, err := s.tags.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tags")
	}
	return tags, nil
}

// patchDocument applies a mutation to the class document when one exists and
// persists it if the mutation reports a change. Index-sync failures are logged
// and swallowed: the relational write already succeeded and must not be rolled
// back by a cache-sync failure.
func (s *TagService) patchDocument(ctx context.Context, classID string, mutate func(*models.ClassDocument) bool) {
	doc, found, err := s.documents.Find(ctx, classID)
	if err != nil {
		s.logger.Warn("failed to load class document", zap.String("class_id", classID), zap.Error(err))
		s.recordDrift("lookup_failed")
		return
	}
	if !found {
		s.logger.Warn("class document missing, skipping index sync", zap.String("class_id", classID))
		s.recordDrift("document_missing")
		return
	}
	if !mutate(doc) {
		return
	}
	if err := s.documents.Save(ctx, doc); err != nil {
		s.logger.Warn("failed to save class document", zap.String("class_id", classID), zap.Error(err))
		s.recordDrift("save_failed")
	}
}

func (s *TagService) recordDrift(reason string) {
	if s.drift != nil {
		s.drift.IndexDrift(reason)
	}
}

func (s *TagService) resolveTutor(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}
	return user, nil
}

func (s *TagService) ownedClass(ctx context.Context, tutor *models.User, classID string) (*models.OneDayClass, error) {
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

func (s *TagService) ownedTag(ctx context.Context, tutor *models.User, classID, tagID string) (*models.ClassTag, error) {
	tag, err := s.tags.FindByID(ctx, tagID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tag not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tag")
	}
	if tag.ClassID != classID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "tag not found")
	}
	if _, err := s.ownedClass(ctx, tutor, classID); err != nil {
		return nil, err
	}
	return tag, nil
}
