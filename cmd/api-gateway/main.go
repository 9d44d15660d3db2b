package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-admin-api/api/swagger"
	"github.com/noah-isme/school-admin-api/internal/handler"
	internalmiddleware "github.com/noah-isme/school-admin-api/internal/middleware"
	"github.com/noah-isme/school-admin-api/internal/repository"
	"github.com/noah-isme/school-admin-api/internal/service"
	"github.com/noah-isme/school-admin-api/pkg/cache"
	"github.com/noah-isme/school-admin-api/pkg/config"
	"github.com/noah-isme/school-admin-api/pkg/database"
	"github.com/noah-isme/school-admin-api/pkg/jobs"
	"github.com/noah-isme/school-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-admin-api/pkg/middleware/requestid"
	timeoutmiddleware "github.com/noah-isme/school-admin-api/pkg/middleware/timeout"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

// @title School Admin API
// @version 1.0.0
// @description Multi-tenant school administration: staff and student authentication, classes, students and schools.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	if err := metrics.RegisterDBStats(db.DB, cfg.Database.Name); err != nil {
		logr.Warn("db stats collector not registered", zap.Error(err))
	}

	checks := map[string]handler.Pinger{"postgres": db}

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, read cache disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(client, "school-admin", logr)
			defer cacheRepo.Close()
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Cache.SchoolsTTL, logr, true)
			checks["redis"] = handler.PingerFunc(cacheRepo.Ping)
		}
	}

	acquire := cfg.Database.AcquireTimeout
	staffRepo := repository.NewStaffRepository(db)
	loginRepo := repository.NewStudentLoginRepository(db)
	classRepo := repository.NewClassRepository(db, acquire)
	studentRepo := repository.NewStudentRepository(db, acquire)
	schoolRepo := repository.NewSchoolRepository(db)
	auditWriter := service.NewAuditWriter(repository.NewAuditRepository(db), jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: 2,
		Logger:     logr,
	})
	auditWriter.Start(context.Background())
	defer auditWriter.Stop()

	validate := validation.New()
	hasher := service.NewPasswordHasher(cfg.Password.BcryptCost)
	tokens := service.NewTokenService(service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})

	authSvc := service.NewAuthService(staffRepo, loginRepo, auditWriter, hasher, tokens, metrics, validate, logr)
	classSvc := service.NewClassService(classRepo, schoolRepo, studentRepo, auditWriter, metrics, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, classRepo, loginRepo, auditWriter, hasher, metrics, validate, logr,
		service.StudentServiceConfig{DefaultPassword: cfg.Password.DefaultStudentPassword})
	schoolSvc := service.NewSchoolService(schoolRepo, cacheSvc, cfg.Cache.SchoolsTTL, auditWriter, validate, logr)
	teacherSvc := service.NewTeacherService(staffRepo, classRepo, studentRepo, validate, logr)
	exportSvc := service.NewExportService(classRepo, studentRepo, service.ExportConfig{
		CSVWithBOM:  cfg.Export.CSVWithBOM,
		PDFFontPath: cfg.Export.PDFFontPath,
	}, logr, nil, nil)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(timeoutmiddleware.New(cfg.RequestTimeout))

	handler.Register(r, cfg.APIPrefix, handler.Routes{
		Auth:     handler.NewAuthHandler(authSvc),
		Classes:  handler.NewClassHandler(classSvc, exportSvc),
		Students: handler.NewStudentHandler(studentSvc),
		Schools:  handler.NewSchoolHandler(schoolSvc),
		Teachers: handler.NewTeacherHandler(teacherSvc),
		Metrics:  handler.NewMetricsHandler(metrics, checks, logr),
		Tokens:   tokens,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
