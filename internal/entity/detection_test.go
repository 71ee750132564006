package entity

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRoundMillis(t *testing.T) {
	require.Equal(t, 12.35, RoundMillis(12345678*time.Nanosecond))
	require.Equal(t, 0.0, RoundMillis(0))
	require.Equal(t, 1500.0, RoundMillis(1500*time.Millisecond))
}

func TestNewSuccessResult_EmptyDetectionsSerializeAsArray(t *testing.T) {
	res := NewSuccessResult("/tmp/a.jpg", nil, 5*time.Millisecond, 0.5)
	require.True(t, res.Success)
	require.Equal(t, 0, res.TotalObjects)
	require.NoError(t, res.Err())

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"success": true,
		"image_path": "/tmp/a.jpg",
		"detections": [],
		"total_objects": 0,
		"processing_time_ms": 5,
		"model_confidence_threshold": 0.5
	}`, string(raw))
}

func TestNewSuccessResult_TotalMatchesDetections(t *testing.T) {
	dets := []Detection{
		{ClassName: "person", ClassID: 0, Confidence: 0.9, BBox: BoundingBox{X1: 1, Y1: 2, X2: 3, Y2: 4}},
		{ClassName: "dog", ClassID: 16, Confidence: 0.7},
	}
	res := NewSuccessResult("img.png", dets, time.Millisecond, 0.6)
	require.Equal(t, len(dets), res.TotalObjects)

	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, float64(2), decoded["total_objects"])
	first := decoded["detections"].([]interface{})[0].(map[string]interface{})
	require.Equal(t, "person", first["class"])
	require.Equal(t, map[string]interface{}{"x1": 1.0, "y1": 2.0, "x2": 3.0, "y2": 4.0}, first["bbox"])
}

func TestNewFailureResult(t *testing.T) {
	cause := errors.New("cannot identify image file")
	res := NewFailureResult("/tmp/bad.jpg", cause)
	require.False(t, res.Success)
	require.ErrorIs(t, res.Err(), cause)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	require.JSONEq(t, `{"success":false,"error":"cannot identify image file","image_path":"/tmp/bad.jpg"}`, string(raw))
}

func TestDetectionResult_UnmarshalRoundTrip(t *testing.T) {
	res := NewSuccessResult("x.jpg", []Detection{{ClassName: "cat", ClassID: 15, Confidence: 0.8}}, 0, 0.5)
	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded DetectionResult
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.True(t, decoded.Success)
	require.Equal(t, 1, decoded.TotalObjects)
	require.Equal(t, "cat", decoded.Detections[0].ClassName)
}
