// Package server exposes the approval workflow over an authenticated JSON
// API.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/approval"
	"github.com/Chatblanccc/PersonnelManagement/internal/metrics"
	"github.com/Chatblanccc/PersonnelManagement/internal/reminder"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB             *gorm.DB
	Port           int
	Secret         []byte
	ReviewPath     string
	DefaultSLADays int
	Log            *zap.Logger
	Out            io.Writer
}

// api carries the dependencies shared by every handler.
type api struct {
	db     *gorm.DB
	log    *zap.Logger
	remind reminder.Options
	gen    approval.GenerateOpts
	now    func() time.Time
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("server: db is required")
	}
	if len(opts.Secret) == 0 {
		return nil, fmt.Errorf("server: jwt secret is required")
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery(), metrics.GinMiddleware(), requestLogger(opts.Log))

	a := &api{
		db:     opts.DB,
		log:    opts.Log,
		remind: reminder.Options{ReviewPath: opts.ReviewPath},
		gen:    approval.GenerateOpts{DefaultSLADays: opts.DefaultSLADays},
		now:    time.Now,
	}
	registerRoutes(router, a, opts.Secret)
	return router, nil
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "API listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// requestLogger logs one line per request at debug level, and at warn for
// server errors.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Warn("request failed", fields...)
			return
		}
		log.Debug("request", fields...)
	}
}
