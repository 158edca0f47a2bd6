package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classbridge/classbridge-api/internal/models"
	appErrors "github.com/classbridge/classbridge-api/pkg/errors"
	"github.com/classbridge/classbridge-api/pkg/lock"
)

type mockTagRepo struct {
	items   map[string]*models.ClassTag
	deleted []string
}

func (m *mockTagRepo) FindByID(ctx context.Context, id string) (*models.ClassTag, error) {
	if tag, ok := m.items[id]; ok {
		cp := *tag
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTagRepo) ListByClass(ctx context.Context, classID string) ([]models.ClassTag, error) {
	var out []models.ClassTag
	for _, tag := range m.items {
		if tag.ClassID == classID {
			out = append(out, *tag)
		}
	}
	return out, nil
}

func (m *mockTagRepo) CountByClass(ctx context.Context, classID string) (int, error) {
	count := 0
	for _, tag := range m.items {
		if tag.ClassID == classID {
			count++
		}
	}
	return count, nil
}

func (m *mockTagRepo) Create(ctx context.Context, tag *models.ClassTag) error {
	if m.items == nil {
		m.items = make(map[string]*models.ClassTag)
	}
	if tag.ID == "" {
		tag.ID = "generated"
	}
	cp := *tag
	m.items[tag.ID] = &cp
	return nil
}

func (m *mockTagRepo) Update(ctx context.Context, tag *models.ClassTag) error {
	cp := *tag
	m.items[tag.ID] = &cp
	return nil
}

func (m *mockTagRepo) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockDocumentRepo struct {
	docs    map[string]*models.ClassDocument
	findErr error
	saveErr error
	saved   int
}

func (m *mockDocumentRepo) Find(ctx context.Context, classID string) (*models.ClassDocument, bool, error) {
	if m.findErr != nil {
		return nil, false, m.findErr
	}
	if doc, ok := m.docs[classID]; ok {
		cp := *doc
		cp.TagList = append([]string(nil), doc.TagList...)
		return &cp, true, nil
	}
	return nil, false, nil
}

func (m *mockDocumentRepo) Save(ctx context.Context, doc *models.ClassDocument) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.docs == nil {
		m.docs = make(map[string]*models.ClassDocument)
	}
	cp := *doc
	m.docs[doc.ClassID] = &cp
	m.saved++
	return nil
}

type mockDrift struct {
	reasons []string
}

func (m *mockDrift) IndexDrift(reason string) {
	m.reasons = append(m.reasons, reason)
}

func newTagFixture() (*TagService, *mockTagRepo, *mockDocumentRepo, *mockDrift) {
	tags := &mockTagRepo{items: map[string]*models.ClassTag{}}
	classes := &mockClassRepo{items: map[string]*models.OneDayClass{
		"class-1": {ID: "class-1", TutorID: "tutor-1", Name: "Pottery", Duration: 90},
	}}
	users := &mockUserRepo{byEmail: map[string]*models.User{
		"tutor@example.com": {ID: "tutor-1", Email: "tutor@example.com", Role: models.RoleTutor, Active: true},
		"other@example.com": {ID: "tutor-2", Email: "other@example.com", Role: models.RoleTutor, Active: true},
	}}
	docs := &mockDocumentRepo{docs: map[string]*models.ClassDocument{
		"class-1": {ClassID: "class-1", Name: "Pottery", TutorID: "tutor-1", Duration: 90, TagList: []string{}},
	}}
	drift := &mockDrift{}
	svc := NewTagService(tags, classes, users, docs, lock.NewKeyed(), drift, validator.New(), zap.NewNop())
	return svc, tags, docs, drift
}

func TestTagServiceRegister(t *testing.T) {
	svc, tags, docs, _ := newTagFixture()

	tag, err := svc.Register(context.Background(), "tutor@example.com", "class-1", TagRequest{Name: "craft"})
	require.NoError(t, err)
	assert.Equal(t, "craft", tag.Name)
	assert.Len(t, tags.items, 1)
	assert.Equal(t, []string{"craft"}, docs.docs["class-1"].TagList)
}

func TestTagServiceRegisterMaxLimit(t *testing.T) {
	svc, tags, _, _ := newTagFixture()
	for i := 0; i < models.MaxTagsPerClass; i++ {
		id := string(rune('a' + i))
		tags.items[id] = &models.ClassTag{ID: id, ClassID: "class-1", Name: "tag-" + id}
	}

	_, err := svc.Register(context.Background(), "tutor@example.com", "class-1", TagRequest{Name: "one-more"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMaxTagLimit.Code, appErrors.FromError(err).Code)
}

func TestTagServiceRegisterNameTooLong(t *testing.T) {
	svc, _, _, _ := newTagFixture()

	_, err := svc.Register(context.Background(), "tutor@example.com", "class-1", TagRequest{Name: "a-tag-name-well-beyond-twenty-characters"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTagServiceRegisterUnownedClass(t *testing.T) {
	svc, _, _, _ := newTagFixture()

	_, err := svc.Register(context.Background(), "other@example.com", "class-1", TagRequest{Name: "craft"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestTagServiceRegisterDocumentMissing(t *testing.T) {
	svc, tags, docs, drift := newTagFixture()
	delete(docs.docs, "class-1")

	// Index sync is best-effort: the tag row is still created.
	tag, err := svc.Register(context.Background(), "tutor@example.com", "class-1", TagRequest{Name: "craft"})
	require.NoError(t, err)
	assert.NotEmpty(t, tag.ID)
	assert.Len(t, tags.items, 1)
	assert.Equal(t, []string{"document_missing"}, drift.reasons)
}

func TestTagServiceRegisterDocumentSaveFails(t *testing.T) {
	svc, tags, docs, drift := newTagFixture()
	docs.saveErr = errors.New("redis down")

	_, err := svc.Register(context.Background(), "tutor@example.com", "class-1", TagRequest{Name: "craft"})
	require.NoError(t, err)
	assert.Len(t, tags.items, 1)
	assert.Equal(t, []string{"save_failed"}, drift.reasons)
}

func TestTagServiceRegisterDocumentLookupFails(t *testing.T) {
	svc, _, docs, drift := newTagFixture()
	docs.findErr = errors.New("redis down")

	_, err := svc.Register(context.Background(), "tutor@example.com", "class-1", TagRequest{Name: "craft"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lookup_failed"}, drift.reasons)
}

func TestTagServiceRename(t *testing.T) {
	svc, tags, docs, _ := newTagFixture()
	tags.items["tag-1"] = &models.ClassTag{ID: "tag-1", ClassID: "class-1", Name: "craft"}
	docs.docs["class-1"].TagList = []string{"craft", "beginner"}

	tag, err := svc.Rename(context.Background(), "tutor@example.com", "class-1", "tag-1", TagRequest{Name: "ceramics"})
	require.NoError(t, err)
	assert.Equal(t, "ceramics", tag.Name)
	assert.Equal(t, []string{"ceramics", "beginner"}, docs.docs["class-1"].TagList)
}

func TestTagServiceRenameEntryMissingFromDocument(t *testing.T) {
	svc, tags, docs, drift := newTagFixture()
	tags.items["tag-1"] = &models.ClassTag{ID: "tag-1", ClassID: "class-1", Name: "craft"}
	docs.docs["class-1"].TagList = []string{"beginner"}

	tag, err := svc.Rename(context.Background(), "tutor@example.com", "class-1", "tag-1", TagRequest{Name: "ceramics"})
	require.NoError(t, err)
	assert.Equal(t, "ceramics", tag.Name)
	assert.Equal(t, []string{"beginner"}, docs.docs["class-1"].TagList)
	assert.Equal(t, []string{"entry_missing"}, drift.reasons)
	assert.Zero(t, docs.saved)
}

func TestTagServiceRenameWrongClass(t *testing.T) {
	svc, tags, _, _ := newTagFixture()
	tags.items["tag-1"] = &models.ClassTag{ID: "tag-1", ClassID: "class-other", Name: "craft"}

	_, err := svc.Rename(context.Background(), "tutor@example.com", "class-1", "tag-1", TagRequest{Name: "ceramics"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTagServiceDelete(t *testing.T) {
	svc, tags, docs, _ := newTagFixture()
	tags.items["tag-1"] = &models.ClassTag{ID: "tag-1", ClassID: "class-1", Name: "craft"}
	docs.docs["class-1"].TagList = []string{"craft", "beginner"}

	err := svc.Delete(context.Background(), "tutor@example.com", "class-1", "tag-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tag-1"}, tags.deleted)
	assert.Equal(t, []string{"beginner"}, docs.docs["class-1"].TagList)
}

func TestTagServiceDeleteEntryMissingFromDocument(t *testing.T) {
	svc, tags, docs, drift := newTagFixture()
	tags.items["tag-1"] = &models.ClassTag{ID: "tag-1", ClassID: "class-1", Name: "craft"}
	docs.docs["class-1"].TagList = []string{"beginner"}

	err := svc.Delete(context.Background(), "tutor@example.com", "class-1", "tag-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tag-1"}, tags.deleted)
	assert.Equal(t, []string{"entry_missing"}, drift.reasons)
}

func TestTagServiceRoundTripKeepsDocumentInSync(t *testing.T) {
	svc, _, docs, drift := newTagFixture()

	tag, err := svc.Register(context.Background(), "tutor@example.com", "class-1", TagRequest{Name: "craft"})
	require.NoError(t, err)

	_, err = svc.Rename(context.Background(), "tutor@example.com", "class-1", tag.ID, TagRequest{Name: "ceramics"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ceramics"}, docs.docs["class-1"].TagList)

	require.NoError(t, svc.Delete(context.Background(), "tutor@example.com", "class-1", tag.ID))
	assert.Empty(t, docs.docs["class-1"].TagList)
	assert.Empty(t, drift.reasons)
}
