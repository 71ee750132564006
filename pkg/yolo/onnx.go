package yolo

import (
	"YoloDetectionService/internal/entity"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
)

var envMu sync.Mutex

func initEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

// Shutdown tears down the onnxruntime environment if one was created.
func Shutdown() error {
	envMu.Lock()
	defer envMu.Unlock()

	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// ONNXModel runs an exported YOLOv8 graph through onnxruntime. The session is
// bound to fixed tensors, so Infer calls are serialized.
type ONNXModel struct {
	mu          sync.Mutex
	session     *ort.AdvancedSession
	input       *ort.Tensor[float32]
	output      *ort.Tensor[float32]
	inputSize   int
	numFeatures int
	numAnchors  int
	labels      []string
}

func NewONNXModel(opts Options) (*ONNXModel, error) {
	path := ResolveModelPath(opts.ModelPath)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model file %s: %w", path, err)
	}

	if err := initEnvironment(opts.RuntimeLibPath); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("read model io info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) == 0 {
		return nil, fmt.Errorf("unexpected model signature: %d inputs, %d outputs", len(inputs), len(outputs))
	}

	inputSize := InputSize
	if dims := inputs[0].Dimensions; len(dims) == 4 && dims[2] > 0 {
		inputSize = int(dims[2])
	}

	outDims := outputs[0].Dimensions
	if len(outDims) != 3 || outDims[1] <= 4 {
		return nil, fmt.Errorf("unexpected output shape %v, want [1, 4+classes, anchors]", outDims)
	}
	numFeatures := int(outDims[1])
	numAnchors := int(outDims[2])
	if numAnchors <= 0 {
		numAnchors = AnchorCount(inputSize)
	}

	names, err := readModelNames(path)
	if err != nil {
		logrus.Warnf("model %s has no readable class names, falling back: %v", path, err)
	}
	labels, err := resolveLabels(opts.LabelsPath, names, numFeatures-4)
	if err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(inputSize), int64(inputSize)))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(numFeatures), int64(numAnchors)))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer options.Destroy()
	options.SetIntraOpNumThreads(runtime.NumCPU())

	session, err := ort.NewAdvancedSession(
		path,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create session: %w", err)
	}

	logrus.Infof("Loaded ONNX model %s (input %dx%d, %d classes)", path, inputSize, inputSize, numFeatures-4)

	return &ONNXModel{
		session:     session,
		input:       inputTensor,
		output:      outputTensor,
		inputSize:   inputSize,
		numFeatures: numFeatures,
		numAnchors:  numAnchors,
		labels:      labels,
	}, nil
}

func readModelNames(path string) ([]string, error) {
	meta, err := ort.GetModelMetadata(path)
	if err != nil {
		return nil, err
	}
	defer meta.Destroy()

	raw, ok, err := meta.LookupCustomMetadataMap("names")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("no names metadata")
	}
	return ParseNames(raw)
}

func (m *ONNXModel) Infer(ctx context.Context, img image.Image) ([]entity.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	boxed, lb, err := LetterboxImage(img, m.inputSize)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil, errors.New("model is closed")
	}

	FillCHW(m.input.GetData(), boxed)
	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("model inference: %w", err)
	}

	return DecodeOutput(m.output.GetData(), m.numFeatures, m.numAnchors, lb, ScoreFloor), nil
}

func (m *ONNXModel) Labels() []string {
	return m.labels
}

func (m *ONNXModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.session != nil {
		errs = append(errs, m.session.Destroy())
		m.session = nil
	}
	if m.input != nil {
		errs = append(errs, m.input.Destroy())
		m.input = nil
	}
	if m.output != nil {
		errs = append(errs, m.output.Destroy())
		m.output = nil
	}
	return errors.Join(errs...)
}

var _ Model = (*ONNXModel)(nil)
