package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/classbridge/classbridge-api/api/swagger"
	"github.com/classbridge/classbridge-api/internal/handler"
	internalmiddleware "github.com/classbridge/classbridge-api/internal/middleware"
	"github.com/classbridge/classbridge-api/internal/models"
	"github.com/classbridge/classbridge-api/internal/repository"
	"github.com/classbridge/classbridge-api/internal/service"
	"github.com/classbridge/classbridge-api/pkg/cache"
	"github.com/classbridge/classbridge-api/pkg/config"
	"github.com/classbridge/classbridge-api/pkg/database"
	"github.com/classbridge/classbridge-api/pkg/export"
	"github.com/classbridge/classbridge-api/pkg/lock"
	"github.com/classbridge/classbridge-api/pkg/logger"
	corsmiddleware "github.com/classbridge/classbridge-api/pkg/middleware/cors"
	reqidmiddleware "github.com/classbridge/classbridge-api/pkg/middleware/requestid"
)

// @title ClassBridge API
// @version 1.0.0
// @description Class booking marketplace backend
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, search index sync disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	locks := lock.NewKeyed()

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	tagRepo := repository.NewTagRepository(db)
	faqRepo := repository.NewFAQRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	documentRepo := repository.NewDocumentRepository(redisClient, cfg.Search.KeyPrefix)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	classSvc := service.NewClassService(classRepo, lessonRepo, userRepo, documentRepo, validate, logr)
	lessonSvc := service.NewLessonService(lessonRepo, classRepo, userRepo, locks, validate, logr)
	tagSvc := service.NewTagService(tagRepo, classRepo, userRepo, documentRepo, locks, metricsSvc, validate, logr)
	faqSvc := service.NewFAQService(faqRepo, classRepo, userRepo, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, userRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	authHandler := handler.NewAuthHandler(authSvc)
	classHandler := handler.NewClassHandler(classSvc)
	lessonHandler := handler.NewLessonHandler(lessonSvc)
	tagHandler := handler.NewTagHandler(tagSvc)
	faqHandler := handler.NewFAQHandler(faqSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", authHandler.Login)

	secured := v1.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))
	secured.GET("/auth/me", authHandler.Me)

	tutorOnly := internalmiddleware.RequireRoles(models.RoleTutor, models.RoleAdmin)

	secured.GET("/classes", tutorOnly, classHandler.List)
	secured.POST("/classes", tutorOnly, classHandler.Create)
	secured.GET("/classes/:classId", classHandler.Get)
	secured.PUT("/classes/:classId", tutorOnly, classHandler.Update)
	secured.DELETE("/classes/:classId", tutorOnly, classHandler.Delete)

	secured.GET("/classes/:classId/lessons", lessonHandler.List)
	secured.POST("/classes/:classId/lessons", tutorOnly, lessonHandler.Register)
	secured.PUT("/classes/:classId/lessons/:lessonId", tutorOnly, lessonHandler.Update)
	secured.DELETE("/classes/:classId/lessons/:lessonId", tutorOnly, lessonHandler.Delete)

	secured.GET("/classes/:classId/tags", tagHandler.List)
	secured.POST("/classes/:classId/tags", tutorOnly, tagHandler.Register)
	secured.PUT("/classes/:classId/tags/:tagId", tutorOnly, tagHandler.Rename)
	secured.DELETE("/classes/:classId/tags/:tagId", tutorOnly, tagHandler.Delete)

	secured.GET("/classes/:classId/faqs", faqHandler.List)
	secured.POST("/classes/:classId/faqs", tutorOnly, faqHandler.Register)
	secured.PUT("/classes/:classId/faqs/:faqId", tutorOnly, faqHandler.Update)
	secured.DELETE("/classes/:classId/faqs/:faqId", tutorOnly, faqHandler.Delete)

	secured.GET("/payments", tutorOnly, paymentHandler.List)
	secured.GET("/payments/statement", tutorOnly, paymentHandler.Export)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
