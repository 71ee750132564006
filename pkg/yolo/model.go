package yolo

import (
	"YoloDetectionService/internal/entity"
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"
)

type Backend string

const (
	BackendONNX   Backend = "onnx"
	BackendRemote Backend = "remote"
	BackendGoCV   Backend = "gocv"
)

// Model is an opaque pretrained detector.
type Model interface {
	// Infer runs the detector once on the whole image and returns candidates in
	// the order the backend produced them.
	Infer(ctx context.Context, img image.Image) ([]entity.Candidate, error)

	// Labels returns the label table, indexed by class id.
	Labels() []string

	Close() error
}

type Options struct {
	ModelPath        string
	Backend          Backend
	LabelsPath       string
	RuntimeLibPath   string
	InferenceURL     string
	InferenceTimeout time.Duration
}

type Loader func(opts Options) (Model, error)

// Open loads the model for the configured backend.
func Open(opts Options) (Model, error) {
	switch opts.Backend {
	case BackendONNX, "":
		m, err := NewONNXModel(opts)
		if err != nil {
			return nil, err
		}
		return m, nil
	case BackendRemote:
		m, err := NewRemoteModel(opts)
		if err != nil {
			return nil, err
		}
		return m, nil
	case BackendGoCV:
		m, err := NewGoCVModel(opts)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown inference backend %q", opts.Backend)
	}
}

// ResolveModelPath maps PyTorch weights to their ONNX export next to them, which
// is where `yolo export format=onnx` writes it.
func ResolveModelPath(modelPath string) string {
	if strings.EqualFold(filepath.Ext(modelPath), ".pt") {
		return strings.TrimSuffix(modelPath, filepath.Ext(modelPath)) + ".onnx"
	}
	return modelPath
}
