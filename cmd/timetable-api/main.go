package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/arkan-dev/timetable-api/api/swagger"
	"github.com/arkan-dev/timetable-api/internal/handler"
	"github.com/arkan-dev/timetable-api/internal/middleware"
	"github.com/arkan-dev/timetable-api/internal/models"
	"github.com/arkan-dev/timetable-api/internal/repository"
	"github.com/arkan-dev/timetable-api/internal/service"
	"github.com/arkan-dev/timetable-api/internal/solver"
	"github.com/arkan-dev/timetable-api/pkg/cache"
	"github.com/arkan-dev/timetable-api/pkg/config"
	"github.com/arkan-dev/timetable-api/pkg/database"
	"github.com/arkan-dev/timetable-api/pkg/jobs"
	"github.com/arkan-dev/timetable-api/pkg/logger"
	corsmiddleware "github.com/arkan-dev/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/arkan-dev/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 1.0.0
// @description Weekly timetable generation and management service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	constraintRepo := repository.NewConstraintRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)

	var exact solver.ExactSolver
	if cfg.Solver.ExactEnabled {
		exact = solver.NewSATSolver(logr)
	}
	engine := solver.NewEngine(exact, logr)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "timetable-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	constraintSvc := service.NewConstraintService(constraintRepo, validate, logr)
	timetableSvc := service.NewTimetableService(
		courseRepo,
		constraintRepo,
		timetableRepo,
		cacheRepo,
		engine,
		metricsSvc,
		validate,
		logr,
		service.TimetableConfig{
			DefaultPeriods:    cfg.Solver.DefaultPeriods,
			DefaultLunch:      cfg.Solver.DefaultLunch,
			TimeLimit:         cfg.Solver.TimeLimit,
			ImproveIterations: cfg.Solver.ImproveIterations,
			ProposalTTL:       cfg.Solver.ProposalTTL,
		},
	)
	generationSvc := service.NewGenerationService(timetableSvc, logr, jobs.QueueConfig{
		Workers:    cfg.Generator.Workers,
		BufferSize: cfg.Generator.BufferSize,
		Logger:     logr,
	})
	generationSvc.Start(context.Background())
	defer generationSvc.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	constraintHandler := handler.NewConstraintHandler(constraintSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, generationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/summary", metricsHandler.Summary)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		authed := auth.Group("")
		authed.Use(middleware.JWT(authSvc))
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", authHandler.ChangePassword)
		authed.GET("/me", authHandler.Me)
	}

	users := api.Group("/users")
	users.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)
		users.GET("/:id", userHandler.Get)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete)
	}

	courses := api.Group("/courses")
	courses.Use(middleware.JWT(authSvc))
	{
		courses.GET("", courseHandler.List)
		courses.GET("/:id", courseHandler.Get)

		adminOnly := courses.Group("")
		adminOnly.Use(middleware.RequireRoles(models.RoleAdmin))
		adminOnly.POST("", courseHandler.Create)
		adminOnly.PUT("/:id", courseHandler.Update)
		adminOnly.DELETE("/:id", courseHandler.Delete)
	}

	constraints := api.Group("/constraints")
	constraints.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher))
	{
		constraints.GET("", constraintHandler.List)
		constraints.POST("", constraintHandler.Create)
		constraints.GET("/:id", constraintHandler.Get)
		constraints.PUT("/:id", constraintHandler.Update)
		constraints.DELETE("/:id", constraintHandler.Delete)
	}

	timetables := api.Group("/timetables")
	timetables.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher))
	{
		timetables.POST("/generate", timetableHandler.Generate)
		timetables.POST("/generate/async", timetableHandler.GenerateAsync)
		timetables.GET("/jobs/:id", timetableHandler.JobStatus)
		timetables.DELETE("/jobs/:id", timetableHandler.CancelJob)
		timetables.POST("/validate", timetableHandler.Validate)
		timetables.POST("", timetableHandler.Save)
		timetables.GET("", timetableHandler.List)
		timetables.GET("/:id", timetableHandler.Get)
		timetables.DELETE("/:id", timetableHandler.Delete)
		timetables.GET("/:id/export", timetableHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
