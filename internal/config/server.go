package config

import (
	detectionHandler "YoloDetectionService/internal/api/detection/handler"
	detectionService "YoloDetectionService/internal/api/detection/service"
	"YoloDetectionService/internal/middleware"
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine     *fiber.App
	log        *logrus.Logger
	middleware middleware.Middleware
	validator  *validator.Validate
	state      *detectionService.State
	handlers   []handler
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.state == nil {
		return nil, fmt.Errorf("detection state is required")
	}
	if server.validator == nil {
		server.validator = validator.New()
	}
	if server.middleware == nil {
		server.middleware = middleware.New(server.log, 0)
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDetectionState(state *detectionService.State) ServerOption {
	return func(s *Server) error {
		s.state = state
		return nil
	}
}

// WithMiddleware installs request id, access log and the per-IP rate limiter.
// A rateLimitRPS of 0 turns the limiter off.
func WithMiddleware(rateLimitRPS float64) ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, rateLimitRPS)
		return nil
	}
}

func (s *Server) RegisterHandler() {
	detectionServices := detectionService.NewDetectionService(s.state, s.log)
	detectionHandlers := detectionHandler.New(s.log, s.validator, s.middleware, detectionServices)

	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())
	s.engine.Use(recover.New(recover.Config{EnableStackTrace: s.log.IsLevelEnabled(logrus.DebugLevel)}))

	s.handlers = append(s.handlers, detectionHandlers)
	for _, h := range s.handlers {
		h.Start(s.engine)
	}
}

// App exposes the fiber app, mostly for in-process tests.
func (s *Server) App() *fiber.App {
	return s.engine
}

func (s *Server) Run(addr string) error {
	s.log.Infof("Starting YOLO Detection Service on %s", addr)
	return s.engine.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.engine.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := s.state.Close(); err != nil {
		errs = append(errs, fmt.Errorf("release model: %w", err))
	}
	return errors.Join(errs...)
}
