package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskmaster/internal/auth"
	"taskmaster/internal/config"
	"taskmaster/internal/database"
	"taskmaster/internal/handler"
	"taskmaster/internal/issuetracker"
	"taskmaster/internal/middleware"
	"taskmaster/internal/repository"
	"taskmaster/internal/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
	Logger *slog.Logger
}

// routes bundles what the router needs, so it can be built without a
// database in tests.
type routes struct {
	users    *handler.UserHandler
	tasks    *handler.TaskHandler
	links    *handler.IssueLinkHandler
	verifier middleware.TokenVerifier
	ping     func(ctx context.Context) error
	logger   *slog.Logger
}

func Init(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(cfg.GinMode)

	if err := database.Migrate(cfg.MigrationURL(), logger); err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, err
	}
	log.Println("✅ Connected to database")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	linkRepo := repository.NewIssueLinkRepository(db)

	// Initialize services
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	tracker := issuetracker.NewClient(issuetracker.Config{
		Timeout: cfg.IssueFetchTimeout,
		Token:   cfg.IssueTrackerToken,
		BaseURL: cfg.IssueTrackerBaseURL,
		Logger:  logger,
	})
	userService := service.NewUserService(userRepo, tokens, logger)
	taskService := service.NewTaskService(taskRepo, userRepo, logger)
	linkService := service.NewIssueLinkService(taskRepo, linkRepo, tracker, logger)

	if cfg.AdminPassword != "" {
		if err := userService.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
			return nil, err
		}
	}

	r := newEngine(routes{
		users:    handler.NewUserHandler(userService),
		tasks:    handler.NewTaskHandler(taskService),
		links:    handler.NewIssueLinkHandler(linkService),
		verifier: tokens,
		ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		logger: logger,
	})

	return &Server{
		Engine: r,
		DB:     db,
		Config: cfg,
		Logger: logger,
	}, nil
}

func newEngine(rt routes) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.ErrorHandler(rt.logger))

	// Public routes
	r.POST("/register", rt.users.Register)
	r.POST("/login", rt.users.Login)
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := rt.ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(rt.verifier))
	{
		// User routes
		authorized.GET("/users", rt.users.GetAll)
		authorized.GET("/users/:id", rt.users.GetByID)
		authorized.PUT("/users/:id", rt.users.Update)
		authorized.DELETE("/users/:id", rt.users.Delete)

		// Task routes
		authorized.POST("/tasks", rt.tasks.Create)
		authorized.GET("/tasks", rt.tasks.GetAll)
		authorized.GET("/tasks/:id", rt.tasks.GetByID)
		authorized.PUT("/tasks/:id", rt.tasks.Update)
		authorized.DELETE("/tasks/:id", rt.tasks.Delete)
		authorized.POST("/tasks/:id/assign", rt.tasks.AssignUser)

		// Issue link routes
		authorized.POST("/tasks/:id/issue", rt.links.Link)
		authorized.GET("/tasks/:id/issue", rt.links.Get)
	}
	return r
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("✅ Server exited properly")
}
