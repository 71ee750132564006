package config

import (
	detectionService "YoloDetectionService/internal/api/detection/service"
	"YoloDetectionService/pkg/log"
	"YoloDetectionService/pkg/yolo"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	defaultModelPath  = "yolov8n.pt"
	defaultConfidence = 0.5
	defaultHost       = "0.0.0.0"
	defaultPort       = 5000
)

type DetectorConfig struct {
	ModelPath           string        `validate:"required"`
	ConfidenceThreshold float64       `validate:"gte=0,lte=1"`
	InitMode            string        `validate:"oneof=eager lazy"`
	Backend             string        `validate:"oneof=onnx remote gocv"`
	LabelsPath          string        `validate:"omitempty,file"`
	RuntimeLibPath      string
	InferenceURL        string        `validate:"required_if=Backend remote"`
	InferenceTimeout    time.Duration `validate:"gte=0"`
}

type ServerConfig struct {
	Host         string  `validate:"required"`
	Port         int     `validate:"gte=1,lte=65535"`
	Debug        bool
	RateLimitRPS float64 `validate:"gte=0"`
}

// LoadEnv reads .env into the process environment. A missing file is reported
// but callers usually ignore it.
func LoadEnv(files ...string) error {
	return godotenv.Load(files...)
}

func LoadDetectorConfig(v *validator.Validate) (DetectorConfig, error) {
	cfg := DetectorConfig{
		ModelPath:      envString("YOLO_MODEL_PATH", defaultModelPath),
		InitMode:       strings.ToLower(envString("DETECTOR_INIT_MODE", string(detectionService.InitEager))),
		Backend:        strings.ToLower(envString("INFERENCE_BACKEND", string(yolo.BackendONNX))),
		LabelsPath:     os.Getenv("MODEL_LABELS_PATH"),
		RuntimeLibPath: os.Getenv("ONNXRUNTIME_LIB_PATH"),
		InferenceURL:   os.Getenv("INFERENCE_URL"),
	}

	var err error
	if cfg.ConfidenceThreshold, err = envFloat("CONFIDENCE_THRESHOLD", defaultConfidence); err != nil {
		return DetectorConfig{}, err
	}

	timeout, err := envFloat("INFERENCE_TIMEOUT", 0)
	if err != nil {
		return DetectorConfig{}, err
	}
	cfg.InferenceTimeout = time.Duration(timeout * float64(time.Second))

	if err := v.Struct(cfg); err != nil {
		return DetectorConfig{}, fmt.Errorf("invalid detector configuration: %w", err)
	}
	if cfg.InferenceURL != "" {
		if err := v.Var(cfg.InferenceURL, "url"); err != nil {
			return DetectorConfig{}, fmt.Errorf("invalid INFERENCE_URL %q: %w", cfg.InferenceURL, err)
		}
	}

	return cfg, nil
}

func (c DetectorConfig) ModelOptions() yolo.Options {
	return yolo.Options{
		ModelPath:        c.ModelPath,
		Backend:          yolo.Backend(c.Backend),
		LabelsPath:       c.LabelsPath,
		RuntimeLibPath:   c.RuntimeLibPath,
		InferenceURL:     c.InferenceURL,
		InferenceTimeout: c.InferenceTimeout,
	}
}

func (c DetectorConfig) Mode() detectionService.InitMode {
	return detectionService.InitMode(c.InitMode)
}

func LoadServerConfig(v *validator.Validate) (ServerConfig, error) {
	cfg := ServerConfig{
		Host:  envString("HOST", defaultHost),
		Debug: log.DebugEnabled(),
	}

	var err error
	if cfg.Port, err = envInt("PORT", defaultPort); err != nil {
		return ServerConfig{}, err
	}
	if cfg.RateLimitRPS, err = envFloat("RATE_LIMIT_RPS", 0); err != nil {
		return ServerConfig{}, err
	}

	if err := v.Struct(cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid server configuration: %w", err)
	}

	return cfg, nil
}

func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
