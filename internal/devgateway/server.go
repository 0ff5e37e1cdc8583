// Package devgateway is a local stand-in for the CourseHub backend services,
// mounted behind one gateway the same way production routes them.
package devgateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/coursehub-dev/coursehub/internal/config"
)

// Server represents the gateway HTTP server
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	config    config.DevGatewayConfig
	logger    zerolog.Logger
	validator *validator.Validate
	tokens    *Tokens
	hub       *Hub
	version   string
}

// New creates a new gateway instance with a migrated and seeded database
func New(cfg config.DevGatewayConfig, zlog zerolog.Logger, version string) (*Server, error) {
	db, err := initDatabase(cfg.DatabaseURL, zlog)
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := Seed(db); err != nil {
		return nil, err
	}

	tokens, err := NewTokens(cfg.JWTSecret, cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		zlog.Info().Msg("DEVGATEWAY_JWT_SECRET not set, using a random secret (tokens do not survive restarts)")
	}

	server := &Server{
		db:        db,
		config:    cfg,
		logger:    zlog,
		validator: validator.New(),
		tokens:    tokens,
		version:   version,
	}
	server.hub = NewHub(db, zlog)

	server.setupRouter()

	return server, nil
}

// initDatabase opens the SQLite database
func initDatabase(url string, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 300 // 5 minutes
		busyTimeout     = 5000
	)

	db, err := gorm.Open(sqlite.Open(url), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Shared-cache in-memory databases lock per table; one connection avoids SQLITE_LOCKED
	if strings.Contains(url, "memory") {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
	}
	if !strings.Contains(url, "memory") {
		pragmas = append([]string{"PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL"}, pragmas...)
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with one group per backend service
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(loggingMiddleware(s.logger))

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", userIDHeader, requestHeader},
		ExposeHeaders:    []string{"Content-Length", requestHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})

	s.router.GET("/health", s.healthCheck)

	requireAuth := JWTAuthMiddleware(s.db, s.tokens, s.logger, false)

	// auth-service
	authPublic := s.router.Group("/auth-service/auth")
	{
		authPublic.POST("/login", s.login)
		authPublic.POST("/refresh", s.refresh)
		authPublic.POST("/logout", s.logout)
		authPublic.GET("/me", requireAuth, s.getCurrentUser)
	}

	// course-service: browsing is public, everything else needs a session
	courses := s.router.Group("/course-service")
	{
		courses.GET("/courses", s.listCourses)
		courses.GET("/courses/:id", s.getCourse)
		courses.GET("/courses/:id/ratings", s.listRatings)

		authed := courses.Group("", requireAuth)
		authed.GET("/courses/:id/classes", s.listClasses)
		authed.GET("/courses/:id/syllabus", s.listSyllabus)
		authed.GET("/courses/:id/syllabus/:itemId", s.getSyllabusItem)
		authed.POST("/courses/:id/syllabus/:itemId/complete", s.completeSyllabusItem)
		authed.POST("/courses/:id/ratings", s.rateCourse)

		instructor := authed.Group("", InstructorOnlyMiddleware(s.logger))
		instructor.POST("/courses", s.createCourse)
		instructor.PATCH("/courses/:id", s.updateCourse)
		instructor.DELETE("/courses/:id", s.deleteCourse)
	}

	enrollment := s.router.Group("/enrollment-service", requireAuth)
	{
		enrollment.POST("/enrollments", s.enroll)
		enrollment.GET("/enrollments/me", s.listEnrollments)
		enrollment.POST("/enrollments/:id/cancel", s.cancelEnrollment)
	}

	payment := s.router.Group("/payment-service", requireAuth)
	{
		payment.POST("/payments", s.createPayment)
		payment.GET("/payments", s.listPayments)
		payment.GET("/payments/:id", s.getPayment)
	}

	assessment := s.router.Group("/assessment-service", requireAuth)
	{
		assessment.GET("/tests/:id", s.getTest)
		assessment.POST("/tests/:id/submissions", s.submitTest)
		assessment.GET("/tests/:id/result", s.getTestResult)
	}

	attendance := s.router.Group("/attendance-service", requireAuth)
	{
		attendance.POST("/classes/:id/check-in", s.checkIn)
		attendance.GET("/classes/:id/attendance", s.listAttendance)
	}

	discussion := s.router.Group("/discussion-service")
	{
		discussion.GET("/ws/class-chat", JWTAuthMiddleware(s.db, s.tokens, s.logger, true), s.hub.Serve)

		authed := discussion.Group("", requireAuth)
		authed.GET("/classes/:id/messages", s.listMessages)
		authed.POST("/classes/:id/messages", s.postMessage)
		authed.POST("/messages/:id/reports", s.reportMessage)
	}

	notification := s.router.Group("/notification-service", requireAuth)
	{
		notification.GET("/notifications", s.listNotifications)
		notification.PATCH("/notifications/read-all", s.markAllNotificationsRead)
		notification.PATCH("/notifications/:id/read", s.markNotificationRead)
	}

	storage := s.router.Group("/storage-service", requireAuth)
	{
		storage.POST("/files", s.uploadFile)
		storage.GET("/files/:id", s.downloadFile)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "coursehub-devgateway",
		"version":   s.version,
	})
}

// Handler returns the gateway's HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// DB returns the database connection
func (s *Server) DB() *gorm.DB {
	return s.db
}

// Tokens returns the access token issuer
func (s *Server) Tokens() *Tokens {
	return s.tokens
}

// Close closes the hub and the database
func (s *Server) Close() error {
	s.hub.Close()
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Start serves until SIGINT/SIGTERM, then shuts down gracefully
func (s *Server) Start() error {
	addr := s.config.Addr
	if addr == "" {
		addr = ":8080"
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting dev gateway")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("dev gateway failed: %w", err)
	case <-sigChan:
	}
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	if err := s.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing database")
	}

	s.logger.Info().Msg("Dev gateway shutdown complete")
	return nil
}
