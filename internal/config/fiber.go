package config

import (
	"YoloDetectionService/internal/api/detection"
	"YoloDetectionService/internal/middleware"
	"YoloDetectionService/pkg/log"
	"errors"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

func NewFiber(logger *logrus.Logger, debug bool) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:               "YOLO Detection Service",
			BodyLimit:             1 * 1024 * 1024,
			DisableKeepalive:      false,
			StrictRouting:         true,
			CaseSensitive:         true,
			EnablePrintRoutes:     debug,
			DisableStartupMessage: !debug,
			JSONEncoder:           jsoniter.Marshal,
			JSONDecoder:           jsoniter.Unmarshal,
			ErrorHandler:          newErrorHandler(logger),
		})

	return app
}

// newErrorHandler keeps fiber's own status errors (404, 405, 426) and turns
// anything else that escaped a handler into a generic 500.
func newErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(detection.ErrorResponse{
				Success: false,
				Error:   fiberErr.Message,
			})
		}

		requestID, _ := c.Locals(middleware.RequestIDKey).(string)
		log.ErrorWithTraceID(logger, log.Fields{
			log.RequestIDKey: requestID,
			"path":           c.Path(),
			"error":          err.Error(),
		}, "Unhandled error while processing request")

		return c.Status(fiber.StatusInternalServerError).JSON(detection.ErrorResponse{
			Success: false,
			Error:   detection.ErrInternalServerError.Error(),
		})
	}
}
