package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classbridge/classbridge-api/internal/models"
	appErrors "github.com/classbridge/classbridge-api/pkg/errors"
)

type mockFAQRepo struct {
	items   map[string]*models.ClassFAQ
	deleted []string
}

func (m *mockFAQRepo) FindByID(ctx context.Context, id string) (*models.ClassFAQ, error) {
	if faq, ok := m.items[id]; ok {
		cp := *faq
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFAQRepo) ListByClass(ctx context.Context, classID string) ([]models.ClassFAQ, error) {
	var out []models.ClassFAQ
	for _, faq := range m.items {
		if faq.ClassID == classID {
			out = append(out, *faq)
		}
	}
	return out, nil
}

func (m *mockFAQRepo) Create(ctx context.Context, faq *models.ClassFAQ) error {
	if m.items == nil {
		m.items = make(map[string]*models.ClassFAQ)
	}
	if faq.ID == "" {
		faq.ID = "generated"
	}
	cp := *faq
	m.items[faq.ID] = &cp
	return nil
}

func (m *mockFAQRepo) Update(ctx context.Context, faq *models.ClassFAQ) error {
	cp := *faq
	m.items[faq.ID] = &cp
	return nil
}

func (m *mockFAQRepo) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func newFAQFixture() (*FAQService, *mockFAQRepo) {
	faqs := &mockFAQRepo{items: map[string]*models.ClassFAQ{}}
	classes := &mockClassRepo{items: map[string]*models.OneDayClass{
		"class-1": {ID: "class-1", TutorID: "tutor-1", Name: "Pottery"},
	}}
	users := &mockUserRepo{byEmail: map[string]*models.User{
		"tutor@example.com": {ID: "tutor-1", Email: "tutor@example.com", Role: models.RoleTutor, Active: true},
		"other@example.com": {ID: "tutor-2", Email: "other@example.com", Role: models.RoleTutor, Active: true},
	}}
	svc := NewFAQService(faqs, classes, users, validator.New(), zap.NewNop())
	return svc, faqs
}

func TestFAQServiceRegister(t *testing.T) {
	svc, faqs := newFAQFixture()

	faq, err := svc.Register(context.Background(), "tutor@example.com", "class-1", FAQRequest{
		Title:   "What should I bring?",
		Content: "Just yourself, materials are provided.",
	})
	require.NoError(t, err)
	assert.Equal(t, "class-1", faq.ClassID)
	assert.Len(t, faqs.items, 1)
}

func TestFAQServiceRegisterUnowned(t *testing.T) {
	svc, _ := newFAQFixture()

	_, err := svc.Register(context.Background(), "other@example.com", "class-1", FAQRequest{
		Title:   "Question",
		Content: "Answer",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestFAQServiceRegisterMissingContent(t *testing.T) {
	svc, _ := newFAQFixture()

	_, err := svc.Register(context.Background(), "tutor@example.com", "class-1", FAQRequest{Title: "Question"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFAQServiceUpdate(t *testing.T) {
	svc, faqs := newFAQFixture()
	faqs.items["faq-1"] = &models.ClassFAQ{ID: "faq-1", ClassID: "class-1", Title: "Old", Content: "Old answer"}

	faq, err := svc.Update(context.Background(), "tutor@example.com", "class-1", "faq-1", FAQRequest{
		Title:   "New",
		Content: "New answer",
	})
	require.NoError(t, err)
	assert.Equal(t, "New", faq.Title)
	assert.Equal(t, "New answer", faqs.items["faq-1"].Content)
}

func TestFAQServiceUpdateWrongClass(t *testing.T) {
	svc, faqs := newFAQFixture()
	faqs.items["faq-1"] = &models.ClassFAQ{ID: "faq-1", ClassID: "class-other", Title: "Old", Content: "Old answer"}

	_, err := svc.Update(context.Background(), "tutor@example.com", "class-1", "faq-1", FAQRequest{
		Title:   "New",
		Content: "New answer",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFAQServiceDelete(t *testing.T) {
	svc, faqs := newFAQFixture()
	faqs.items["faq-1"] = &models.ClassFAQ{ID: "faq-1", ClassID: "class-1", Title: "Q", Content: "A"}

	err := svc.Delete(context.Background(), "tutor@example.com", "class-1", "faq-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"faq-1"}, faqs.deleted)
}

func TestFAQServiceList(t *testing.T) {
	svc, faqs := newFAQFixture()
	faqs.items["faq-1"] = &models.ClassFAQ{ID: "faq-1", ClassID: "class-1", Title: "Q", Content: "A"}
	faqs.items["faq-2"] = &models.ClassFAQ{ID: "faq-2", ClassID: "class-other", Title: "Q2", Content: "A2"}

	out, err := svc.List(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
