package entity

import (
	"encoding/json"
	"math"
	"time"
)

type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Candidate is a raw box produced by a model backend, before threshold filtering.
type Candidate struct {
	Box        BoundingBox
	Confidence float64
	ClassID    int
}

type Detection struct {
	ClassName  string      `json:"class"`
	ClassID    int         `json:"class_id"`
	Confidence float64     `json:"confidence"`
	BBox       BoundingBox `json:"bbox"`
}

// DetectionResult is either a success carrying detections or a failure carrying
// an error message. Build it with NewSuccessResult or NewFailureResult.
type DetectionResult struct {
	Success             bool
	ImagePath           string
	Detections          []Detection
	TotalObjects        int
	ProcessingTimeMs    float64
	ConfidenceThreshold float64
	Error               string

	err error
}

type successPayload struct {
	Success             bool        `json:"success"`
	ImagePath           string      `json:"image_path"`
	Detections          []Detection `json:"detections"`
	TotalObjects        int         `json:"total_objects"`
	ProcessingTimeMs    float64     `json:"processing_time_ms"`
	ConfidenceThreshold float64     `json:"model_confidence_threshold"`
}

type failurePayload struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ImagePath string `json:"image_path"`
}

func NewSuccessResult(imagePath string, detections []Detection, elapsed time.Duration, threshold float64) DetectionResult {
	if detections == nil {
		detections = []Detection{}
	}
	return DetectionResult{
		Success:             true,
		ImagePath:           imagePath,
		Detections:          detections,
		TotalObjects:        len(detections),
		ProcessingTimeMs:    RoundMillis(elapsed),
		ConfidenceThreshold: threshold,
	}
}

func NewFailureResult(imagePath string, err error) DetectionResult {
	return DetectionResult{
		Success:   false,
		ImagePath: imagePath,
		Error:     err.Error(),
		err:       err,
	}
}

// Err returns the error behind a failure result, nil on success.
func (r DetectionResult) Err() error {
	return r.err
}

func (r DetectionResult) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(failurePayload{
			Success:   false,
			Error:     r.Error,
			ImagePath: r.ImagePath,
		})
	}

	detections := r.Detections
	if detections == nil {
		detections = []Detection{}
	}
	return json.Marshal(successPayload{
		Success:             true,
		ImagePath:           r.ImagePath,
		Detections:          detections,
		TotalObjects:        len(detections),
		ProcessingTimeMs:    r.ProcessingTimeMs,
		ConfidenceThreshold: r.ConfidenceThreshold,
	})
}

func (r *DetectionResult) UnmarshalJSON(data []byte) error {
	var payload struct {
		successPayload
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}

	*r = DetectionResult{
		Success:             payload.Success,
		ImagePath:           payload.ImagePath,
		Detections:          payload.Detections,
		TotalObjects:        payload.TotalObjects,
		ProcessingTimeMs:    payload.ProcessingTimeMs,
		ConfidenceThreshold: payload.ConfidenceThreshold,
		Error:               payload.Error,
	}
	return nil
}

// RoundMillis converts d to milliseconds rounded to two decimals.
func RoundMillis(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}
