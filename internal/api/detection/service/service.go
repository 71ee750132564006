package detectionService

import (
	"YoloDetectionService/internal/api/detection"
	"YoloDetectionService/internal/entity"
	"YoloDetectionService/pkg/response"
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

type IDetectionService interface {
	Detect(ctx context.Context, imagePath string) (entity.DetectionResult, error)
	ModelInfo(ctx context.Context) (*detection.ModelInfoResponse, error)
	Health() detection.HealthResponse
	Ready() error
}

type detectionService struct {
	state *State
	log   *logrus.Logger
}

func NewDetectionService(state *State, logger *logrus.Logger) IDetectionService {
	return &detectionService{
		state: state,
		log:   logger,
	}
}

// Detect returns an error only when no detector is available. Image and
// inference problems come back inside the result.
func (s *detectionService) Detect(ctx context.Context, imagePath string) (entity.DetectionResult, error) {
	d, err := s.detector(ctx)
	if err != nil {
		return entity.DetectionResult{}, err
	}
	return d.Detect(ctx, imagePath), nil
}

func (s *detectionService) ModelInfo(ctx context.Context) (*detection.ModelInfoResponse, error) {
	d, err := s.detector(ctx)
	if err != nil {
		return nil, err
	}

	return &detection.ModelInfoResponse{
		ModelLoaded:         true,
		ConfidenceThreshold: d.ConfidenceThreshold(),
		AvailableClasses:    d.Labels(),
	}, nil
}

func (s *detectionService) Health() detection.HealthResponse {
	return detection.HealthResponse{
		Status:      "healthy",
		Service:     detection.ServiceName,
		ModelLoaded: s.state.Current() != nil,
	}
}

// Ready is checked before the request body is looked at, so an eager
// service without a detector fails the same way for every body.
func (s *detectionService) Ready() error {
	return s.state.Ready()
}

func (s *detectionService) detector(ctx context.Context) (*Detector, error) {
	d, err := s.state.Get(ctx)
	if err == nil {
		return d, nil
	}
	if errors.Is(err, detection.ErrDetectorNotInitialized) {
		return nil, err
	}
	return nil, response.Wrapf(detection.ErrRequestProcessing, "Request processing failed: %w", err)
}
