package detectionHandler

import (
	detectionService "YoloDetectionService/internal/api/detection/service"
	"YoloDetectionService/internal/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type DetectionHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	detectionService detectionService.IDetectionService
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ds detectionService.IDetectionService,
) *DetectionHandler {
	return &DetectionHandler{
		detectionService: ds,
		log:              log,
		validator:        validator,
		middleware:       middleware,
	}
}

func (h *DetectionHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	srv.Get("/health", h.Health)
	srv.Get("/model/info", h.ModelInfo)

	srv.Post("/detect", h.middleware.NewRateLimiter, h.Detect)
	srv.Use("/detect/ws", wsMiddleware)
	srv.Get("/detect/ws", websocket.New(h.handleDetectWebSocket))
}
