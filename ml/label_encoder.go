package ml

import (
	"errors"
	"fmt"
	"sort"
)

// UnseenLabelError reports a Transform call with a label outside the
// fitted class set. Callers filter with Contains before transforming
// ground-truth columns; this error never reaches an API response.
type UnseenLabelError struct {
	Label string
}

func (e *UnseenLabelError) Error() string {
	return fmt.Sprintf("label %q was not seen during fit", e.Label)
}

// LabelEncoder maps target-class labels to codes 0..C-1 in sorted label
// order. That order fixes the class axis everywhere: probability columns,
// per-class metrics and confusion matrix axes.
type LabelEncoder struct {
	classes []string
	codes   map[string]int
}

func (e *LabelEncoder) Fit(labels []string) error {
	if len(labels) == 0 {
		return errors.New("no labels to fit")
	}
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		seen[label] = struct{}{}
	}
	e.classes = make([]string, 0, len(seen))
	for label := range seen {
		e.classes = append(e.classes, label)
	}
	sort.Strings(e.classes)
	e.codes = make(map[string]int, len(e.classes))
	for code, label := range e.classes {
		e.codes[label] = code
	}
	return nil
}

func (e *LabelEncoder) Transform(labels []string) ([]int, error) {
	codes := make([]int, len(labels))
	for i, label := range labels {
		code, ok := e.codes[label]
		if !ok {
			return nil, &UnseenLabelError{Label: label}
		}
		codes[i] = code
	}
	return codes, nil
}

func (e *LabelEncoder) Contains(label string) bool {
	_, ok := e.codes[label]
	return ok
}

func (e *LabelEncoder) InverseTransform(codes []int) ([]string, error) {
	labels := make([]string, len(codes))
	for i, code := range codes {
		if code < 0 || code >= len(e.classes) {
			return nil, fmt.Errorf("label code %d out of range [0,%d)", code, len(e.classes))
		}
		labels[i] = e.classes[code]
	}
	return labels, nil
}

func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

func (e *LabelEncoder) NumClasses() int {
	return len(e.classes)
}

func (e *LabelEncoder) MarshalBlob() (string, error) {
	return marshalBlob("label_encoder", e.classes)
}

func (e *LabelEncoder) UnmarshalBlob(blob string) error {
	var classes []string
	if err := unmarshalBlob(blob, "label_encoder", &classes); err != nil {
		return err
	}
	e.classes = classes
	e.codes = make(map[string]int, len(classes))
	for code, label := range classes {
		e.codes[label] = code
	}
	return nil
}
