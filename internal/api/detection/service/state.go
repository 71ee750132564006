package detectionService

import (
	"YoloDetectionService/internal/api/detection"
	"context"
	"sync"
	"sync/atomic"
)

type InitMode string

const (
	InitEager InitMode = "eager"
	InitLazy  InitMode = "lazy"
)

type StateStatus string

const (
	StatusUninitialized StateStatus = "uninitialized"
	StatusInitializing  StateStatus = "initializing"
	StatusReady         StateStatus = "ready"
)

type DetectorFactory func(ctx context.Context) (*Detector, error)

// State holds the process-wide Detector. Construction is serialized by mu;
// readers only touch the atomic pointer.
type State struct {
	mode    InitMode
	factory DetectorFactory

	mu           sync.Mutex
	detector     atomic.Pointer[Detector]
	initializing atomic.Bool
}

func NewState(mode InitMode, factory DetectorFactory) *State {
	if mode != InitLazy {
		mode = InitEager
	}
	return &State{
		mode:    mode,
		factory: factory,
	}
}

func (s *State) Mode() InitMode {
	return s.mode
}

// Current returns the detector if it is ready, nil otherwise. It never builds one.
func (s *State) Current() *Detector {
	return s.detector.Load()
}

// Get returns the ready detector. In lazy mode the first caller builds it and
// concurrent callers wait for that attempt. A failed attempt leaves the state
// uninitialized so the next call tries again.
func (s *State) Get(ctx context.Context) (*Detector, error) {
	if d := s.detector.Load(); d != nil {
		return d, nil
	}
	if s.mode != InitLazy {
		return nil, detection.ErrDetectorNotInitialized
	}
	return s.construct(ctx)
}

// Ready reports ErrDetectorNotInitialized when an eager state has no
// detector. A lazy state is always ready to try.
func (s *State) Ready() error {
	if s.mode != InitLazy && s.detector.Load() == nil {
		return detection.ErrDetectorNotInitialized
	}
	return nil
}

// Init builds the detector up front.
func (s *State) Init(ctx context.Context) error {
	_, err := s.construct(ctx)
	return err
}

func (s *State) construct(ctx context.Context) (*Detector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d := s.detector.Load(); d != nil {
		return d, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.initializing.Store(true)
	defer s.initializing.Store(false)

	d, err := s.factory(ctx)
	if err != nil {
		return nil, err
	}

	s.detector.Store(d)
	return d, nil
}

func (s *State) Status() StateStatus {
	if s.detector.Load() != nil {
		return StatusReady
	}
	if s.initializing.Load() {
		return StatusInitializing
	}
	return StatusUninitialized
}

// Close releases the model. It is meant for shutdown only.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.detector.Swap(nil)
	if d == nil {
		return nil
	}
	return d.Close()
}
