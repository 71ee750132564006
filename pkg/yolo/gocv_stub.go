//go:build !gocv
// +build !gocv

package yolo

import (
	"YoloDetectionService/internal/entity"
	"context"
	"errors"
	"image"
)

var errGoCVDisabled = errors.New("gocv build tag is not enabled")

// GoCVModel is a placeholder used when the binary is built without OpenCV.
type GoCVModel struct{}

// NewGoCVModel always fails without the gocv build tag.
func NewGoCVModel(opts Options) (*GoCVModel, error) {
	_ = opts
	return nil, errGoCVDisabled
}

func (m *GoCVModel) Infer(ctx context.Context, img image.Image) ([]entity.Candidate, error) {
	_ = ctx
	_ = img
	return nil, errGoCVDisabled
}

func (m *GoCVModel) Labels() []string {
	return nil
}

func (m *GoCVModel) Close() error {
	return nil
}
