package handler

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	internalmiddleware "github.com/classbridge/classbridge-api/internal/middleware"
	"github.com/classbridge/classbridge-api/internal/models"
	"github.com/classbridge/classbridge-api/internal/service"
	"github.com/classbridge/classbridge-api/pkg/lock"
)

func TestClassRoutesIntegration(t *testing.T) {
	router := buildClassRouter()
	date := time.Now().AddDate(0, 0, 7).Format("2006-01-02")

	t.Run("lessons unauthorized without claims", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/classes/class-1/lessons", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("lesson register forbidden for students", func(t *testing.T) {
		payload := fmt.Sprintf(`{"lesson_date":%q,"start_time":"10:30"}`, date)
		req, _ := http.NewRequest(http.MethodPost, "/classes/class-1/lessons", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleStudent))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("lesson register success", func(t *testing.T) {
		payload := fmt.Sprintf(`{"lesson_date":%q,"start_time":"10:30"}`, date)
		req, _ := http.NewRequest(http.MethodPost, "/classes/class-1/lessons", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleTutor))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusCreated, resp.Code)
		require.Contains(t, resp.Body.String(), `"end_time":"12:00"`)
	})

	t.Run("lesson register duplicate slot conflict", func(t *testing.T) {
		payload := fmt.Sprintf(`{"lesson_date":%q,"start_time":"10:30"}`, date)
		req, _ := http.NewRequest(http.MethodPost, "/classes/class-1/lessons", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleTutor))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusConflict, resp.Code)
		require.Contains(t, resp.Body.String(), "DUPLICATE_LESSON")
	})

	t.Run("lesson register past date rejected", func(t *testing.T) {
		past := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
		payload := fmt.Sprintf(`{"lesson_date":%q,"start_time":"09:00"}`, past)
		req, _ := http.NewRequest(http.MethodPost, "/classes/class-1/lessons", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleTutor))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
		require.Contains(t, resp.Body.String(), "INVALID_LESSON_DATE")
	})

	t.Run("lessons list success", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/classes/class-1/lessons", nil)
		req.Header.Set("X-Test-Role", string(models.RoleTutor))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"start_time":"10:30"`)
	})

	t.Run("tag register success", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/classes/class-1/tags", bytes.NewBufferString(`{"name":"craft"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleTutor))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusCreated, resp.Code)
	})

	t.Run("class get success", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/classes/class-1", nil)
		req.Header.Set("X-Test-Role", string(models.RoleTutor))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"name":"Pottery"`)
	})
}

func buildClassRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{
				UserID: "tutor-1",
				Role:   models.UserRole(role),
				Email:  "tutor@example.com",
			})
		}
		c.Next()
	})

	classes := &integrationClassRepo{items: map[string]*models.OneDayClass{
		"class-1": {ID: "class-1", TutorID: "tutor-1", Name: "Pottery", Duration: 90, Personal: 6, Price: 50000},
	}}
	lessons := &integrationLessonRepo{items: map[string]*models.Lesson{}}
	tags := &integrationTagRepo{items: map[string]*models.ClassTag{}}
	users := &integrationUserRepo{byEmail: map[string]*models.User{
		"tutor@example.com": {ID: "tutor-1", Email: "tutor@example.com", Role: models.RoleTutor, Active: true},
	}}
	docs := &integrationDocumentRepo{}

	locks := lock.NewKeyed()
	validate := validator.New()
	logger := zap.NewNop()

	lessonSvc := service.NewLessonService(lessons, classes, users, locks, validate, logger)
	tagSvc := service.NewTagService(tags, classes, users, docs, locks, nil, validate, logger)
	classSvc := service.NewClassService(classes, lessons, users, docs, validate, logger)

	lessonHandler := NewLessonHandler(lessonSvc)
	tagHandler := NewTagHandler(tagSvc)
	classHandler := NewClassHandler(classSvc)

	requireClaims := func(c *gin.Context) {
		if claimsFromContext(c) == nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
	tutorOnly := internalmiddleware.RequireRoles(models.RoleTutor, models.RoleAdmin)

	secured := router.Group("")
	secured.Use(requireClaims)
	secured.GET("/classes/:classId", classHandler.Get)
	secured.GET("/classes/:classId/lessons", lessonHandler.List)
	secured.POST("/classes/:classId/lessons", tutorOnly, lessonHandler.Register)
	secured.POST("/classes/:classId/tags", tutorOnly, tagHandler.Register)

	return router
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type integrationClassRepo struct {
	items map[string]*models.OneDayClass
}

func (m *integrationClassRepo) FindByID(ctx context.Context, id string) (*models.OneDayClass, error) {
	if class, ok := m.items[id]; ok {
		cp := *class
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *integrationClassRepo) ListByTutor(ctx context.Context, tutorID string) ([]models.OneDayClass, error) {
	var out []models.OneDayClass
	for _, class := range m.items {
		if class.TutorID == tutorID {
			out = append(out, *class)
		}
	}
	return out, nil
}

func (m *integrationClassRepo) Create(ctx context.Context, class *models.OneDayClass) error {
	if class.ID == "" {
		class.ID = "generated"
	}
	cp := *class
	m.items[class.ID] = &cp
	return nil
}

func (m *integrationClassRepo) Update(ctx context.Context, class *models.OneDayClass) error {
	cp := *class
	m.items[class.ID] = &cp
	return nil
}

func (m *integrationClassRepo) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

type integrationLessonRepo struct {
	items map[string]*models.Lesson
	seq   int
}

func (m *integrationLessonRepo) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	if lesson, ok := m.items[id]; ok {
		cp := *lesson
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *integrationLessonRepo) ListByClass(ctx context.Context, classID string) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, lesson := range m.items {
		if lesson.ClassID == classID {
			out = append(out, *lesson)
		}
	}
	return out, nil
}

func (m *integrationLessonRepo) ExistsSlot(ctx context.Context, classID string, date time.Time, startTime string, excludeID string) (bool, error) {
	for _, lesson := range m.items {
		if lesson.ID == excludeID {
			continue
		}
		if lesson.ClassID == classID && lesson.LessonDate.Equal(date) && lesson.StartTime == startTime {
			return true, nil
		}
	}
	return false, nil
}

func (m *integrationLessonRepo) Create(ctx context.Context, lesson *models.Lesson) error {
	m.seq++
	if lesson.ID == "" {
		lesson.ID = fmt.Sprintf("lesson-%d", m.seq)
	}
	cp := *lesson
	m.items[lesson.ID] = &cp
	return nil
}

func (m *integrationLessonRepo) Update(ctx context.Context, lesson *models.Lesson) error {
	cp := *lesson
	m.items[lesson.ID] = &cp
	return nil
}

func (m *integrationLessonRepo) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

func (m *integrationLessonRepo) DeleteFutureByClass(ctx context.Context, classID string, after time.Time) (int64, error) {
	var deleted int64
	for id, lesson := range m.items {
		if lesson.ClassID == classID && lesson.LessonDate.After(after) {
			delete(m.items, id)
			deleted++
		}
	}
	return deleted, nil
}

type integrationTagRepo struct {
	items map[string]*models.ClassTag
	seq   int
}

func (m *integrationTagRepo) FindByID(ctx context.Context, id string) (*models.ClassTag, error) {
	if tag, ok := m.items[id]; ok {
		cp := *tag
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *integrationTagRepo) ListByClass(ctx context.Context, classID string) ([]models.ClassTag, error) {
	var out []models.ClassTag
	for _, tag := range m.items {
		if tag.ClassID == classID {
			out = append(out, *tag)
		}
	}
	return out, nil
}

func (m *integrationTagRepo) CountByClass(ctx context.Context, classID string) (int, error) {
	count := 0
	for _, tag := range m.items {
		if tag.ClassID == classID {
			count++
		}
	}
	return count, nil
}

func (m *integrationTagRepo) Create(ctx context.Context, tag *models.ClassTag) error {
	m.seq++
	if tag.ID == "" {
		tag.ID = fmt.Sprintf("tag-%d", m.seq)
	}
	cp := *tag
	m.items[tag.ID] = &cp
	return nil
}

func (m *integrationTagRepo) Update(ctx context.Context, tag *models.ClassTag) error {
	cp := *tag
	m.items[tag.ID] = &cp
	return nil
}

func (m *integrationTagRepo) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

type integrationUserRepo struct {
	byEmail map[string]*models.User
}

func (m *integrationUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.byEmail[email]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type integrationDocumentRepo struct{}

func (m *integrationDocumentRepo) Find(ctx context.Context, classID string) (*models.ClassDocument, bool, error) {
	return nil, false, nil
}

func (m *integrationDocumentRepo) Save(ctx context.Context, doc *models.ClassDocument) error {
	return nil
}
