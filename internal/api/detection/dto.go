package detection

const ServiceName = "yolo-detection-service"

type DetectRequest struct {
	ImagePath string `json:"image_path" validate:"required"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	ModelLoaded bool   `json:"model_loaded"`
}

type ModelInfoResponse struct {
	ModelLoaded         bool     `json:"model_loaded"`
	ConfidenceThreshold float64  `json:"confidence_threshold"`
	AvailableClasses    []string `json:"available_classes"`
}

// ErrorResponse is the body of every non-200 /detect reply.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type PlainErrorResponse struct {
	Error string `json:"error"`
}
