// Package server is the web front-end: a fiber app rendering the manifest,
// accepting form or JSON posts for every operation, streaming drift over a
// websocket and receiving tus uploads into the project tree.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"asset-manifest/config"
	"asset-manifest/workspace"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	app  *fiber.App
	svc  *workspace.Service
	cfg  *config.Config
	log  *zap.Logger
	tmpl *template.Template

	// mu serializes every Service call. Requests, websocket reads and the
	// upload completion goroutine all go through it.
	mu sync.Mutex
	// inProgress tracks mutating requests so shutdown can wait for them.
	inProgress sync.WaitGroup
}

// New builds the app and registers every route. A nil gatherer disables
// /metrics.
func New(svc *workspace.Service, cfg *config.Config, logger *zap.Logger, g prometheus.Gatherer) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	s := &Server{
		svc:  svc,
		cfg:  cfg,
		log:  logger.Named("server"),
		tmpl: tmpl,
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(cors.New())

	s.app.Get("/", s.handleIndex)
	s.app.Get("/file", s.handleFileStream)
	s.app.Get("/export", s.handleExport)

	api := s.app.Group("/api")
	api.Get("/analyze", s.handleAnalyze)
	api.Get("/tree", s.handleTree)
	api.Get("/history", s.handleHistory)

	s.app.Post("/add", s.requireWrite, s.handleAdd)
	s.app.Post("/delete", s.requireWrite, s.handleDelete)
	s.app.Post("/move", s.requireWrite, s.handleMove)
	s.app.Post("/copy", s.requireWrite, s.handleCopy)
	s.app.Post("/rename", s.requireWrite, s.handleRename)
	s.app.Post("/add_folder", s.requireWrite, s.handleAddFolder)
	s.app.Post("/edit_folder", s.requireWrite, s.handleEditFolder)
	s.app.Post("/cleanup", s.requireWrite, s.handleCleanup)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws", websocket.New(s.handleWebSocket))

	if g != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
	}

	if cfg.Server.Write {
		if err := s.setupTusUpload(); err != nil {
			return nil, err
		}
	} else {
		s.log.Info("upload disabled: not in write mode")
	}
	return s, nil
}

// App exposes the fiber app, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on the configured port until ctx is cancelled, then waits for
// in-flight operations and shuts down.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort("", strconv.Itoa(s.cfg.Server.Port))
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting",
			zap.String("addr", addr),
			zap.String("root", s.svc.Root()),
			zap.Bool("write", s.cfg.Server.Write))
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("received shutdown signal, waiting for in-progress operations")
	s.inProgress.Wait()
	s.log.Info("all file operations completed")
	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(code).JSON(fiber.Map{
		"status": "error",
		"error":  err.Error(),
	})
}

// requireWrite rejects mutating requests unless write mode is on.
func (s *Server) requireWrite(c *fiber.Ctx) error {
	if !s.cfg.Server.Write {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status": "error",
			"error":  "File operations are disabled. Use --write flag to enable write mode",
		})
	}
	return c.Next()
}
