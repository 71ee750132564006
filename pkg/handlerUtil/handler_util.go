package handlerUtil

import (
	"YoloDetectionService/internal/api/detection"
	"YoloDetectionService/pkg/log"
	"YoloDetectionService/pkg/response"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// ErrorBody maps err to the status and body the detection routes reply with.
// Unknown errors collapse to a generic 500.
func ErrorBody(err error) (int, detection.ErrorResponse) {
	switch {
	case errors.Is(err, detection.ErrMissingImagePath):
		return fiber.StatusBadRequest, failure(detection.ErrMissingImagePath.Error())
	case errors.Is(err, detection.ErrDetectorNotInitialized):
		return fiber.StatusInternalServerError, failure(detection.ErrDetectorNotInitialized.Error())
	case errors.Is(err, detection.ErrRequestProcessing):
		return fiber.StatusInternalServerError, failure(err.Error())
	case errors.Is(err, detection.ErrModelLoad):
		return fiber.StatusInternalServerError, failure(detection.ErrRequestProcessing.Error() + ": " + err.Error())
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		return respErr.Code, failure(err.Error())
	}

	return fiber.StatusInternalServerError, failure(detection.ErrInternalServerError.Error())
}

func failure(msg string) detection.ErrorResponse {
	return detection.ErrorResponse{Success: false, Error: msg}
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	code, body := ErrorBody(err)

	fields := log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"code":       code,
		"path":       path,
		"operation":  operation,
	}

	switch {
	case code < fiber.StatusInternalServerError:
		h.logger.WithFields(fields).Warn("Operation failed with error response")
	case body.Error == detection.ErrInternalServerError.Error():
		log.ErrorWithTraceID(h.logger, fields, "Unexpected error")
	default:
		h.logger.WithFields(fields).Error("Operation failed")
	}

	return c.Status(code).JSON(body)
}

// HandleNotReady answers /model/info when no detector is available.
func (h *ErrorHandler) HandleNotReady(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Error("Detector not available")

	return c.Status(fiber.StatusInternalServerError).JSON(detection.PlainErrorResponse{
		Error: detection.ErrDetectorNotInitialized.Error(),
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
