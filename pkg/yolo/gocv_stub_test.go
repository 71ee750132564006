//go:build !gocv
// +build !gocv

package yolo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen_GoCVWithoutBuildTag(t *testing.T) {
	_, err := Open(Options{Backend: BackendGoCV, ModelPath: "yolov8n.onnx"})
	require.ErrorIs(t, err, errGoCVDisabled)
}
