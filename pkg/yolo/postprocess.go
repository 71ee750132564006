package yolo

import (
	"YoloDetectionService/internal/entity"
	"errors"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"
)

const (
	InputSize = 640

	// ScoreFloor matches the default `conf` of an ultralytics predict call.
	ScoreFloor    = 0.25
	IoUThreshold  = 0.7
	MaxDetections = 300
)

var padColor = color.NRGBA{R: 114, G: 114, B: 114, A: 255}

// Letterbox records how a source image was fitted into the square model input.
type Letterbox struct {
	Scale float64
	PadX  float64
	PadY  float64
	SrcW  int
	SrcH  int
}

// LetterboxImage resizes img to fit a size x size canvas, keeping the aspect
// ratio and centering it on gray padding.
func LetterboxImage(img image.Image, size int) (*image.NRGBA, Letterbox, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, Letterbox{}, errors.New("image has no pixels")
	}

	scale := math.Min(float64(size)/float64(w), float64(size)/float64(h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))
	padX := (size - nw) / 2
	padY := (size - nh) / 2

	resized := imaging.Resize(img, nw, nh, imaging.Linear)
	canvas := imaging.Paste(imaging.New(size, size, padColor), resized, image.Pt(padX, padY))

	return canvas, Letterbox{
		Scale: scale,
		PadX:  float64(padX),
		PadY:  float64(padY),
		SrcW:  w,
		SrcH:  h,
	}, nil
}

// FillCHW writes img into dst as planar RGB scaled to [0,1].
func FillCHW(dst []float32, img *image.NRGBA) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	plane := w * h
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			i := y*w + x
			p := row[x*4 : x*4+3]
			dst[i] = float32(p[0]) / 255.0
			dst[plane+i] = float32(p[1]) / 255.0
			dst[2*plane+i] = float32(p[2]) / 255.0
		}
	}
}

// AnchorCount is the number of predictions a YOLOv8 head emits for a square input.
func AnchorCount(size int) int {
	total := 0
	for _, stride := range []int{8, 16, 32} {
		n := size / stride
		total += n * n
	}
	return total
}

func (l Letterbox) toSource(x1, y1, x2, y2 float64) entity.BoundingBox {
	return entity.BoundingBox{
		X1: clamp((x1-l.PadX)/l.Scale, 0, float64(l.SrcW)),
		Y1: clamp((y1-l.PadY)/l.Scale, 0, float64(l.SrcH)),
		X2: clamp((x2-l.PadX)/l.Scale, 0, float64(l.SrcW)),
		Y2: clamp((y2-l.PadY)/l.Scale, 0, float64(l.SrcH)),
	}
}

// DecodeOutput turns a [1, 4+C, N] YOLOv8 head into candidates in source-image
// pixels, sorted by confidence after class-wise non-maximum suppression.
func DecodeOutput(output []float32, numFeatures, numAnchors int, lb Letterbox, floor float64) []entity.Candidate {
	numClasses := numFeatures - 4
	if numClasses <= 0 || len(output) < numFeatures*numAnchors {
		return nil
	}

	candidates := make([]entity.Candidate, 0, 64)
	for i := 0; i < numAnchors; i++ {
		best, bestScore := -1, float32(0)
		for c := 0; c < numClasses; c++ {
			if s := output[(4+c)*numAnchors+i]; s > bestScore {
				best, bestScore = c, s
			}
		}
		if best < 0 || float64(bestScore) < floor {
			continue
		}

		cx := float64(output[i])
		cy := float64(output[numAnchors+i])
		w := float64(output[2*numAnchors+i])
		h := float64(output[3*numAnchors+i])

		candidates = append(candidates, entity.Candidate{
			Box:        lb.toSource(cx-w/2, cy-h/2, cx+w/2, cy+h/2),
			Confidence: float64(bestScore),
			ClassID:    best,
		})
	}

	return NonMaxSuppression(candidates, IoUThreshold, MaxDetections)
}

// NonMaxSuppression keeps the highest-confidence box of every overlapping
// same-class group.
func NonMaxSuppression(candidates []entity.Candidate, iouThreshold float64, limit int) []entity.Candidate {
	sorted := append([]entity.Candidate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]entity.Candidate, 0, len(sorted))
	for _, c := range sorted {
		if limit > 0 && len(kept) >= limit {
			break
		}
		suppressed := false
		for _, k := range kept {
			if k.ClassID == c.ClassID && IoU(k.Box, c.Box) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, c)
		}
	}
	return kept
}

func IoU(a, b entity.BoundingBox) float64 {
	ix := math.Min(a.X2, b.X2) - math.Max(a.X1, b.X1)
	iy := math.Min(a.Y2, b.Y2) - math.Max(a.Y1, b.Y1)
	if ix <= 0 || iy <= 0 {
		return 0
	}
	inter := ix * iy
	union := area(a) + area(b) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func area(b entity.BoundingBox) float64 {
	return (b.X2 - b.X1) * (b.Y2 - b.Y1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
