package detectionService

import (
	"YoloDetectionService/internal/api/detection"
	"YoloDetectionService/internal/entity"
	"YoloDetectionService/pkg/log"
	"YoloDetectionService/pkg/response"
	"YoloDetectionService/pkg/utils"
	"YoloDetectionService/pkg/yolo"
	"context"
	"fmt"
	"image/color"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	// extra decoders for image.Decode
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const warmUpSize = 640

// Detector runs one loaded model against images on the local filesystem.
// It is read-only after construction.
type Detector struct {
	model     yolo.Model
	modelPath string
	threshold float64
	labels    []string
	log       *logrus.Logger
}

// NewDetector loads the model and runs one warm-up inference. Any failure is
// returned as ErrModelLoad and no detector is built.
func NewDetector(
	ctx context.Context,
	opts yolo.Options,
	threshold float64,
	loader yolo.Loader,
	logger *logrus.Logger,
) (*Detector, error) {
	logger.WithFields(log.Fields{
		"model_path": opts.ModelPath,
		"backend":    opts.Backend,
	}).Info("Loading YOLO model")

	model, err := loader(opts)
	if err != nil {
		logger.WithFields(log.Fields{
			"model_path": opts.ModelPath,
			"error":      err.Error(),
		}).Error("Failed to load YOLO model")
		return nil, response.Wrapf(detection.ErrModelLoad, "failed to load model %s: %w", opts.ModelPath, err)
	}

	if err := warmUp(ctx, model); err != nil {
		if closeErr := model.Close(); closeErr != nil {
			logger.Warnf("Failed to release model after warm-up error: %v", closeErr)
		}
		logger.WithFields(log.Fields{
			"model_path": opts.ModelPath,
			"error":      err.Error(),
		}).Error("Model warm-up failed")
		return nil, response.Wrapf(detection.ErrModelLoad, "warm-up of %s failed: %w", opts.ModelPath, err)
	}

	labels := append([]string(nil), model.Labels()...)

	logger.WithFields(log.Fields{
		"model_path": opts.ModelPath,
		"classes":    len(labels),
		"threshold":  threshold,
	}).Info("Model warmed up and ready")

	return &Detector{
		model:     model,
		modelPath: opts.ModelPath,
		threshold: threshold,
		labels:    labels,
		log:       logger,
	}, nil
}

func warmUp(ctx context.Context, model yolo.Model) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during warm-up: %v", r)
		}
	}()

	blank := imaging.New(warmUpSize, warmUpSize, color.Black)
	_, err = model.Infer(ctx, blank)
	return err
}

// Detect never returns an error: a missing image or a failed inference is
// reported inside the result.
func (d *Detector) Detect(ctx context.Context, imagePath string) entity.DetectionResult {
	entry := log.WithRequestID(ctx, d.log).WithField("image", filepath.Base(imagePath))
	entry.Info("Processing detection request")

	if err := utils.ValidateImagePath(imagePath); err != nil {
		entry.WithField("error", err.Error()).Warn("Image not found")
		return entity.NewFailureResult(imagePath,
			response.Wrapf(detection.ErrImageNotFound, "Image not found: %s", imagePath))
	}

	start := time.Now()

	detections, err := d.run(ctx, imagePath)
	if err != nil {
		entry.WithField("error", err.Error()).Error("Detection failed")
		return entity.NewFailureResult(imagePath, response.Wrapf(detection.ErrInference, "%w", err))
	}

	result := entity.NewSuccessResult(imagePath, detections, time.Since(start), d.threshold)

	entry.WithFields(log.Fields{
		"total_objects":      result.TotalObjects,
		"processing_time_ms": result.ProcessingTimeMs,
	}).Info("Detection completed")

	return result
}

func (d *Detector) run(ctx context.Context, imagePath string) (detections []entity.Detection, err error) {
	defer func() {
		if r := recover(); r != nil {
			detections = nil
			err = fmt.Errorf("%v", r)
		}
	}()

	img, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	candidates, err := d.model.Infer(ctx, img)
	if err != nil {
		return nil, err
	}

	detections = make([]entity.Detection, 0, len(candidates))
	for _, c := range candidates {
		if c.Confidence < d.threshold {
			continue
		}
		detections = append(detections, entity.Detection{
			ClassName:  d.className(c.ClassID),
			ClassID:    c.ClassID,
			Confidence: c.Confidence,
			BBox:       c.Box,
		})
	}

	return detections, nil
}

func (d *Detector) className(classID int) string {
	if classID >= 0 && classID < len(d.labels) {
		return d.labels[classID]
	}
	return yolo.FallbackLabel(classID)
}

func (d *Detector) Labels() []string {
	return yolo.UniqueLabels(d.labels)
}

func (d *Detector) ConfidenceThreshold() float64 {
	return d.threshold
}

func (d *Detector) ModelPath() string {
	return d.modelPath
}

func (d *Detector) Close() error {
	return d.model.Close()
}
