package yolo

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// COCOLabels is the 80-class table of the stock YOLOv8 checkpoints.
var COCOLabels = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog",
	"horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack", "umbrella",
	"handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite",
	"baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket", "bottle",
	"wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple", "sandwich", "orange",
	"broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair", "couch", "potted plant",
	"bed", "dining table", "toilet", "tv", "laptop", "mouse", "remote", "keyboard", "cell phone",
	"microwave", "oven", "toaster", "sink", "refrigerator", "book", "clock", "vase", "scissors",
	"teddy bear", "hair drier", "toothbrush",
}

var namesEntry = regexp.MustCompile(`(\d+)\s*:\s*(?:'((?:[^'\\]|\\.)*)'|"((?:[^"\\]|\\.)*)")`)

// ParseNames parses the `names` metadata ultralytics embeds in exported models,
// e.g. "{0: 'person', 1: 'bicycle'}". Missing indices become class_<id>.
func ParseNames(raw string) ([]string, error) {
	matches := namesEntry.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no class names found in %q", raw)
	}

	byIndex := make(map[int]string, len(matches))
	maxIndex := -1
	for _, m := range matches {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("invalid class index %q: %w", m[1], err)
		}
		name := m[2]
		if name == "" {
			name = m[3]
		}
		byIndex[idx] = strings.ReplaceAll(strings.ReplaceAll(name, `\'`, `'`), `\"`, `"`)
		if idx > maxIndex {
			maxIndex = idx
		}
	}

	labels := make([]string, maxIndex+1)
	for i := range labels {
		if name, ok := byIndex[i]; ok {
			labels[i] = name
		} else {
			labels[i] = FallbackLabel(i)
		}
	}
	return labels, nil
}

// ReadLabelsFile reads one label per line, skipping blank lines.
func ReadLabelsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels file: %w", err)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read labels file: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file %s is empty", path)
	}
	return labels, nil
}

func FallbackLabel(classID int) string {
	return "class_" + strconv.Itoa(classID)
}

// resolveLabels picks the label table for a model with numClasses outputs
// (0 when unknown): an explicit file, then the model's own names, then COCO.
func resolveLabels(labelsPath string, fromModel []string, numClasses int) ([]string, error) {
	var labels []string
	switch {
	case labelsPath != "":
		fromFile, err := ReadLabelsFile(labelsPath)
		if err != nil {
			return nil, err
		}
		labels = fromFile
	case len(fromModel) > 0:
		labels = fromModel
	case numClasses == 0 || numClasses == len(COCOLabels):
		labels = append([]string(nil), COCOLabels...)
	default:
		labels = make([]string, numClasses)
		for i := range labels {
			labels[i] = FallbackLabel(i)
		}
	}

	if numClasses > 0 && len(labels) != numClasses {
		return nil, fmt.Errorf("label table has %d entries, model outputs %d classes", len(labels), numClasses)
	}
	return labels, nil
}

// UniqueLabels returns a copy of labels where a repeated name is suffixed with
// its class id. Detections keep the model's own names; only listings of the
// class table use this.
func UniqueLabels(labels []string) []string {
	seen := make(map[string]int, len(labels))
	out := make([]string, len(labels))
	for i, l := range labels {
		seen[l]++
		if seen[l] > 1 {
			out[i] = fmt.Sprintf("%s_%d", l, i)
			continue
		}
		out[i] = l
	}
	return out
}
