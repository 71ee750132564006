// Package yolotest provides an in-memory yolo.Model for tests.
package yolotest

import (
	"YoloDetectionService/internal/entity"
	"YoloDetectionService/pkg/yolo"
	"context"
	"image"
	"sync"
	"sync/atomic"
)

type Model struct {
	LabelTable []string
	Candidates []entity.Candidate

	// InferErr is returned from every Infer call after warm-up.
	InferErr error
	// WarmUpErr is returned from the first Infer call only.
	WarmUpErr error
	// PanicWith makes Infer panic with this value after warm-up.
	PanicWith interface{}

	mu     sync.Mutex
	sizes  []image.Point
	calls  atomic.Int64
	closed atomic.Bool
}

func (m *Model) Infer(ctx context.Context, img image.Image) ([]entity.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := m.calls.Add(1)

	m.mu.Lock()
	m.sizes = append(m.sizes, img.Bounds().Size())
	m.mu.Unlock()

	if n == 1 && m.WarmUpErr != nil {
		return nil, m.WarmUpErr
	}
	if n > 1 && m.PanicWith != nil {
		panic(m.PanicWith)
	}
	if n > 1 && m.InferErr != nil {
		return nil, m.InferErr
	}

	out := make([]entity.Candidate, len(m.Candidates))
	copy(out, m.Candidates)
	return out, nil
}

func (m *Model) Labels() []string {
	return m.LabelTable
}

func (m *Model) Close() error {
	m.closed.Store(true)
	return nil
}

// Calls counts Infer invocations, warm-up included.
func (m *Model) Calls() int {
	return int(m.calls.Load())
}

// Sizes lists the image size of every Infer call in order.
func (m *Model) Sizes() []image.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]image.Point(nil), m.sizes...)
}

func (m *Model) Closed() bool {
	return m.closed.Load()
}

// Loader returns a yolo.Loader that hands out m and counts how often it ran.
func Loader(m *Model, loads *atomic.Int64) yolo.Loader {
	return func(opts yolo.Options) (yolo.Model, error) {
		if loads != nil {
			loads.Add(1)
		}
		return m, nil
	}
}

var _ yolo.Model = (*Model)(nil)
