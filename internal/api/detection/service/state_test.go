package detectionService

import (
	"YoloDetectionService/internal/api/detection"
	"YoloDetectionService/pkg/yolo"
	"YoloDetectionService/pkg/yolo/yolotest"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factoryFor(model *yolotest.Model, loads *atomic.Int64) DetectorFactory {
	return func(ctx context.Context) (*Detector, error) {
		return NewDetector(ctx, yolo.Options{ModelPath: "yolov8n.pt"}, 0.5, yolotest.Loader(model, loads), testLogger())
	}
}

func TestState_EagerNotReady(t *testing.T) {
	var loads atomic.Int64
	s := NewState(InitEager, factoryFor(&yolotest.Model{}, &loads))

	assert.Equal(t, StatusUninitialized, s.Status())
	assert.Nil(t, s.Current())

	_, err := s.Get(context.Background())
	assert.ErrorIs(t, err, detection.ErrDetectorNotInitialized)
	assert.Zero(t, loads.Load(), "eager mode never builds on demand")
}

func TestState_EagerInit(t *testing.T) {
	var loads atomic.Int64
	s := NewState(InitEager, factoryFor(&yolotest.Model{}, &loads))

	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, StatusReady, s.Status())
	require.NotNil(t, s.Current())

	d, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, s.Current(), d)

	require.NoError(t, s.Init(context.Background()))
	assert.EqualValues(t, 1, loads.Load())
}

func TestState_LazyBuildsOnceUnderConcurrency(t *testing.T) {
	var loads atomic.Int64
	model := &yolotest.Model{}
	slow := func(ctx context.Context) (*Detector, error) {
		time.Sleep(20 * time.Millisecond)
		return factoryFor(model, &loads)(ctx)
	}
	s := NewState(InitLazy, slow)
	assert.Nil(t, s.Current())

	const callers = 16
	got := make([]*Detector, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := s.Get(context.Background())
			assert.NoError(t, err)
			got[i] = d
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, loads.Load())
	for _, d := range got {
		assert.Same(t, got[0], d)
	}
	assert.Equal(t, StatusReady, s.Status())
}

func TestState_LazyRetriesAfterFailure(t *testing.T) {
	var attempts atomic.Int64
	model := &yolotest.Model{}
	factory := func(ctx context.Context) (*Detector, error) {
		if attempts.Add(1) == 1 {
			loader := func(yolo.Options) (yolo.Model, error) { return nil, errors.New("weights not downloaded yet") }
			return NewDetector(ctx, yolo.Options{}, 0.5, loader, testLogger())
		}
		return factoryFor(model, nil)(ctx)
	}
	s := NewState(InitLazy, factory)

	_, err := s.Get(context.Background())
	require.ErrorIs(t, err, detection.ErrModelLoad)
	assert.Equal(t, StatusUninitialized, s.Status())

	d, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, d)
	assert.EqualValues(t, 2, attempts.Load())
}

func TestState_StatusWhileInitializing(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	model := &yolotest.Model{}
	factory := func(ctx context.Context) (*Detector, error) {
		close(started)
		<-release
		return factoryFor(model, nil)(ctx)
	}
	s := NewState(InitLazy, factory)

	done := make(chan error, 1)
	go func() {
		_, err := s.Get(context.Background())
		done <- err
	}()

	<-started
	assert.Equal(t, StatusInitializing, s.Status())
	assert.Nil(t, s.Current())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StatusReady, s.Status())
}

func TestState_Close(t *testing.T) {
	model := &yolotest.Model{}
	s := NewState(InitEager, factoryFor(model, nil))
	require.NoError(t, s.Close())

	require.NoError(t, s.Init(context.Background()))
	require.NoError(t, s.Close())
	assert.True(t, model.Closed())
	assert.Nil(t, s.Current())
}

func TestNewState_DefaultsToEager(t *testing.T) {
	assert.Equal(t, InitEager, NewState("", nil).Mode())
	assert.Equal(t, InitLazy, NewState(InitLazy, nil).Mode())
}

func TestState_Ready(t *testing.T) {
	eager := NewState(InitEager, factoryFor(&yolotest.Model{}, nil))
	assert.ErrorIs(t, eager.Ready(), detection.ErrDetectorNotInitialized)
	require.NoError(t, eager.Init(context.Background()))
	assert.NoError(t, eager.Ready())

	lazy := NewState(InitLazy, factoryFor(&yolotest.Model{}, nil))
	assert.NoError(t, lazy.Ready())
	assert.Equal(t, StatusUninitialized, lazy.Status())
}
