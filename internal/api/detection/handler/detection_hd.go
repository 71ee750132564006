package detectionHandler

import (
	"YoloDetectionService/internal/api/detection"
	contextPkg "YoloDetectionService/pkg/context"
	"YoloDetectionService/pkg/handlerUtil"
	"YoloDetectionService/pkg/log"
	"YoloDetectionService/pkg/response"
	"bytes"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
)

func (h *DetectionHandler) Health(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(h.detectionService.Health())
}

func (h *DetectionHandler) Detect(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c := contextPkg.FromFiberCtx(ctx)

	errHandler := handlerUtil.New(h.log)

	if err := h.detectionService.Ready(); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "detector_ready")
	}

	req, err := h.parseDetectRequest(ctx.Body())
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"image_path": req.ImagePath,
	}).Debug("Processing detection request")

	result, err := h.detectionService.Detect(c, req.ImagePath)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "detect")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
}

func (h *DetectionHandler) ModelInfo(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c := contextPkg.FromFiberCtx(ctx)

	errHandler := handlerUtil.New(h.log)

	info, err := h.detectionService.ModelInfo(c)
	if err != nil {
		return errHandler.HandleNotReady(ctx, requestID, err, ctx.Path())
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, info)
}

// parseDetectRequest accepts any JSON object with a non-empty string
// image_path. Syntactically broken JSON is a processing failure. Any other
// well-formed value, arrays and scalars included, is a missing path.
func (h *DetectionHandler) parseDetectRequest(body []byte) (detection.DetectRequest, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return detection.DetectRequest{}, detection.ErrMissingImagePath
	}

	var raw interface{}
	if err := jsoniter.Unmarshal(body, &raw); err != nil {
		return detection.DetectRequest{}, response.Wrapf(detection.ErrRequestProcessing, "Request processing failed: %w", err)
	}

	obj, _ := raw.(map[string]interface{})
	imagePath, _ := obj["image_path"].(string)
	req := detection.DetectRequest{ImagePath: imagePath}

	if err := h.validator.Struct(req); err != nil {
		return detection.DetectRequest{}, response.Wrapf(detection.ErrMissingImagePath, "%s: %w", detection.ErrMissingImagePath.Error(), err)
	}

	return req, nil
}
