//go:build gocv
// +build gocv

package yolo

import (
	"YoloDetectionService/internal/entity"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// GoCVModel runs an exported YOLOv8 ONNX graph through the OpenCV DNN module.
type GoCVModel struct {
	mu        sync.Mutex
	net       *gocv.Net
	inputSize int
	labels    []string
}

func NewGoCVModel(opts Options) (*GoCVModel, error) {
	path := ResolveModelPath(opts.ModelPath)
	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return nil, fmt.Errorf("failed to read model %s", path)
	}

	labels, err := resolveLabels(opts.LabelsPath, nil, 0)
	if err != nil {
		net.Close()
		return nil, err
	}

	return &GoCVModel{
		net:       &net,
		inputSize: InputSize,
		labels:    labels,
	}, nil
}

func (m *GoCVModel) Infer(ctx context.Context, img image.Image) ([]entity.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	boxed, lb, err := LetterboxImage(img, m.inputSize)
	if err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(boxed)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(m.inputSize, m.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.net == nil {
		return nil, errors.New("model is closed")
	}

	m.net.SetInput(blob, "")
	out := m.net.Forward("")
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, fmt.Errorf("unexpected output shape %v, want [1, 4+classes, anchors]", dims)
	}
	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	if numClasses := dims[1] - 4; len(m.labels) != numClasses {
		return nil, fmt.Errorf("label table has %d entries, model outputs %d classes", len(m.labels), numClasses)
	}

	return DecodeOutput(data, dims[1], dims[2], lb, ScoreFloor), nil
}

func (m *GoCVModel) Labels() []string {
	return m.labels
}

func (m *GoCVModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.net == nil {
		return nil
	}
	err := m.net.Close()
	m.net = nil
	return err
}

var _ Model = (*GoCVModel)(nil)
