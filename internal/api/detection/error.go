package detection

import (
	"YoloDetectionService/pkg/response"
	"net/http"
)

var (
	ErrModelLoad              = response.NewError(http.StatusInternalServerError, "failed to load model")
	ErrImageNotFound          = response.NewError(http.StatusNotFound, "image not found")
	ErrInference              = response.NewError(http.StatusInternalServerError, "inference failed")
	ErrMissingImagePath       = response.NewError(http.StatusBadRequest, "Missing image_path in request")
	ErrDetectorNotInitialized = response.NewError(http.StatusInternalServerError, "Detector not initialized")
	ErrRequestProcessing      = response.NewError(http.StatusInternalServerError, "Request processing failed")
	ErrInternalServerError    = response.NewError(http.StatusInternalServerError, "Internal server error")
)
