package yolo

import (
	"YoloDetectionService/internal/entity"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// RemoteModel delegates inference to an HTTP model server that exposes
// GET /model/info and POST /predict.
type RemoteModel struct {
	baseURL   string
	modelPath string
	timeout   time.Duration
	client    *fiber.Client
	labels    []string
}

type remotePredictRequest struct {
	Image     string `json:"image"`
	ModelPath string `json:"model_path,omitempty"`
}

type remoteCandidate struct {
	BBox       [4]float64 `json:"bbox"`
	Confidence float64    `json:"confidence"`
	ClassID    int        `json:"class_id"`
}

type remotePredictResponse struct {
	Detections []remoteCandidate `json:"detections"`
	Error      string            `json:"error,omitempty"`
}

type remoteInfoResponse struct {
	AvailableClasses []string `json:"available_classes"`
}

func NewRemoteModel(opts Options) (*RemoteModel, error) {
	if opts.InferenceURL == "" {
		return nil, errors.New("remote backend requires an inference URL")
	}

	m := &RemoteModel{
		baseURL:   strings.TrimRight(opts.InferenceURL, "/"),
		modelPath: opts.ModelPath,
		timeout:   opts.InferenceTimeout,
		client: &fiber.Client{
			JSONEncoder: jsoniter.Marshal,
			JSONDecoder: jsoniter.Unmarshal,
		},
	}

	var fromServer []string
	if opts.LabelsPath == "" {
		classes, err := m.fetchLabels()
		if err != nil {
			return nil, fmt.Errorf("fetch labels from %s: %w", m.baseURL, err)
		}
		fromServer = classes
	}

	labels, err := resolveLabels(opts.LabelsPath, fromServer, 0)
	if err != nil {
		return nil, err
	}
	m.labels = labels

	logrus.Infof("Using remote inference server %s (%d classes)", m.baseURL, len(labels))
	return m, nil
}

func (m *RemoteModel) agent(a *fiber.Agent) *fiber.Agent {
	if m.timeout > 0 {
		a.Timeout(m.timeout)
	}
	return a
}

func (m *RemoteModel) fetchLabels() ([]string, error) {
	var info remoteInfoResponse
	code, body, errs := m.agent(m.client.Get(m.baseURL + "/model/info")).Struct(&info)
	if code != 0 && code != fiber.StatusOK {
		return nil, fmt.Errorf("model info failed with status %d: %s", code, body)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(info.AvailableClasses) == 0 {
		return nil, errors.New("server reported no classes")
	}
	return info.AvailableClasses, nil
}

func (m *RemoteModel) Infer(ctx context.Context, img image.Image) ([]entity.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	req := remotePredictRequest{
		Image:     base64.StdEncoding.EncodeToString(buf.Bytes()),
		ModelPath: m.modelPath,
	}

	var resp remotePredictResponse
	code, body, errs := m.agent(m.client.Post(m.baseURL + "/predict")).JSON(req).Struct(&resp)
	if code != 0 && code != fiber.StatusOK {
		return nil, fmt.Errorf("inference failed with status %d: %s", code, body)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("send request: %w", errors.Join(errs...))
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}

	candidates := make([]entity.Candidate, 0, len(resp.Detections))
	for _, d := range resp.Detections {
		candidates = append(candidates, entity.Candidate{
			Box: entity.BoundingBox{
				X1: d.BBox[0],
				Y1: d.BBox[1],
				X2: d.BBox[2],
				Y2: d.BBox[3],
			},
			Confidence: d.Confidence,
			ClassID:    d.ClassID,
		})
	}
	return candidates, nil
}

func (m *RemoteModel) Labels() []string {
	return m.labels
}

func (m *RemoteModel) Close() error {
	return nil
}

var _ Model = (*RemoteModel)(nil)
