package yolo

import (
	"YoloDetectionService/internal/entity"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnchorCount(t *testing.T) {
	require.Equal(t, 8400, AnchorCount(640))
	require.Equal(t, 2100, AnchorCount(320))
}

func TestLetterboxImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1280, 640))
	boxed, lb, err := LetterboxImage(src, 640)
	require.NoError(t, err)
	require.Equal(t, 640, boxed.Rect.Dx())
	require.Equal(t, 640, boxed.Rect.Dy())
	require.Equal(t, 0.5, lb.Scale)
	require.Equal(t, 0.0, lb.PadX)
	require.Equal(t, 160.0, lb.PadY)

	// padding rows keep the gray fill
	require.Equal(t, color.NRGBA{R: 114, G: 114, B: 114, A: 255}, boxed.NRGBAAt(0, 0))
	require.Equal(t, color.NRGBA{A: 0}, boxed.NRGBAAt(320, 320))
}

func TestLetterboxImage_Empty(t *testing.T) {
	_, _, err := LetterboxImage(image.NewRGBA(image.Rect(0, 0, 0, 0)), 640)
	require.Error(t, err)
}

func TestFillCHW(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 0, B: 51, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 0, G: 255, B: 0, A: 255})

	dst := make([]float32, 6)
	FillCHW(dst, img)
	require.InDeltaSlice(t, []float32{1, 0, 0, 1, 0.2, 0}, dst, 1e-6)
}

// headOutput builds a [1, 4+classes, anchors] tensor from per-anchor rows.
func headOutput(classes int, rows [][]float32) []float32 {
	features := 4 + classes
	anchors := len(rows)
	out := make([]float32, features*anchors)
	for i, row := range rows {
		for f := 0; f < features; f++ {
			out[f*anchors+i] = row[f]
		}
	}
	return out
}

func TestDecodeOutput(t *testing.T) {
	lb := Letterbox{Scale: 0.5, PadX: 0, PadY: 160, SrcW: 1280, SrcH: 640}
	out := headOutput(2, [][]float32{
		{100, 260, 40, 40, 0.9, 0.1},  // class 0
		{102, 262, 40, 40, 0.8, 0.05}, // overlaps the first, suppressed
		{102, 262, 40, 40, 0.1, 0.6},  // same place, other class, kept
		{300, 300, 10, 10, 0.1, 0.2},  // below floor
	})

	cands := DecodeOutput(out, 6, 4, lb, ScoreFloor)
	require.Len(t, cands, 2)

	require.Equal(t, 0, cands[0].ClassID)
	require.InDelta(t, 0.9, cands[0].Confidence, 1e-6)
	require.InDelta(t, 160, cands[0].Box.X1, 1e-6)
	require.InDelta(t, 160, cands[0].Box.Y1, 1e-6)
	require.InDelta(t, 240, cands[0].Box.X2, 1e-6)
	require.InDelta(t, 240, cands[0].Box.Y2, 1e-6)

	require.Equal(t, 1, cands[1].ClassID)
	require.InDelta(t, 0.6, cands[1].Confidence, 1e-6)
}

func TestDecodeOutput_ClampsToImage(t *testing.T) {
	lb := Letterbox{Scale: 1, SrcW: 640, SrcH: 640}
	out := headOutput(1, [][]float32{{5, 635, 40, 40, 0.95}})

	cands := DecodeOutput(out, 5, 1, lb, ScoreFloor)
	require.Len(t, cands, 1)
	require.Equal(t, 0.0, cands[0].Box.X1)
	require.Equal(t, 640.0, cands[0].Box.Y2)
}

func TestDecodeOutput_BadShape(t *testing.T) {
	require.Nil(t, DecodeOutput([]float32{1, 2, 3}, 4, 1, Letterbox{Scale: 1}, ScoreFloor))
	require.Nil(t, DecodeOutput([]float32{1, 2}, 6, 4, Letterbox{Scale: 1}, ScoreFloor))
}

func TestNonMaxSuppression_Limit(t *testing.T) {
	cands := []entity.Candidate{
		{Box: entity.BoundingBox{X1: 0, Y1: 0, X2: 1, Y2: 1}, Confidence: 0.3, ClassID: 0},
		{Box: entity.BoundingBox{X1: 5, Y1: 5, X2: 6, Y2: 6}, Confidence: 0.9, ClassID: 0},
		{Box: entity.BoundingBox{X1: 9, Y1: 9, X2: 10, Y2: 10}, Confidence: 0.5, ClassID: 0},
	}
	kept := NonMaxSuppression(cands, IoUThreshold, 2)
	require.Len(t, kept, 2)
	require.Equal(t, 0.9, kept[0].Confidence)
	require.Equal(t, 0.5, kept[1].Confidence)
}

func TestIoU(t *testing.T) {
	a := entity.BoundingBox{X1: 0, Y1: 0, X2: 2, Y2: 2}
	b := entity.BoundingBox{X1: 1, Y1: 1, X2: 3, Y2: 3}
	require.InDelta(t, 1.0/7.0, IoU(a, b), 1e-9)
	require.Equal(t, 1.0, IoU(a, a))
	require.Equal(t, 0.0, IoU(a, entity.BoundingBox{X1: 5, Y1: 5, X2: 6, Y2: 6}))
}
