// Package ml implements the categorical Naive Bayes classifier and the
// feature/label encoders it is trained on.
package ml

import (
	"errors"
	"sort"
)

// CategoryEncoder maps one feature column's raw values to integer codes.
// Codes are assigned in sorted order of the distinct values seen at fit
// time; values never seen at fit time map to the reserved code equal to
// the number of known categories, so codes are never negative.
type CategoryEncoder struct {
	categories []string
	codes      map[string]int
}

func (e *CategoryEncoder) Fit(values []string) error {
	if len(values) == 0 {
		return errors.New("no values to fit")
	}
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		seen[value] = struct{}{}
	}
	e.categories = make([]string, 0, len(seen))
	for value := range seen {
		e.categories = append(e.categories, value)
	}
	sort.Strings(e.categories)
	e.codes = make(map[string]int, len(e.categories))
	for code, value := range e.categories {
		e.codes[value] = code
	}
	return nil
}

// Transform maps each value to its fitted code, or to UnknownCode for
// values outside the fitted set.
func (e *CategoryEncoder) Transform(values []string) []int {
	codes := make([]int, len(values))
	for i, value := range values {
		if code, ok := e.codes[value]; ok {
			codes[i] = code
		} else {
			codes[i] = e.UnknownCode()
		}
	}
	return codes
}

func (e *CategoryEncoder) Known(value string) bool {
	_, ok := e.codes[value]
	return ok
}

// UnknownCode is strictly greater than every known code.
func (e *CategoryEncoder) UnknownCode() int {
	return len(e.categories)
}

// Cardinality is the number of distinct categories seen at fit time.
func (e *CategoryEncoder) Cardinality() int {
	return len(e.categories)
}

func (e *CategoryEncoder) Categories() []string {
	return append([]string(nil), e.categories...)
}

// EncodeFeatureEncoders serializes the per-column encoder set to a blob.
func EncodeFeatureEncoders(encoders map[string]*CategoryEncoder) (string, error) {
	payload := make(map[string][]string, len(encoders))
	for column, encoder := range encoders {
		payload[column] = encoder.categories
	}
	return marshalBlob("category_encoders", payload)
}

func DecodeFeatureEncoders(blob string) (map[string]*CategoryEncoder, error) {
	var payload map[string][]string
	if err := unmarshalBlob(blob, "category_encoders", &payload); err != nil {
		return nil, err
	}
	encoders := make(map[string]*CategoryEncoder, len(payload))
	for column, categories := range payload {
		encoder := &CategoryEncoder{
			categories: categories,
			codes:      make(map[string]int, len(categories)),
		}
		for code, value := range categories {
			encoder.codes[value] = code
		}
		encoders[column] = encoder
	}
	return encoders, nil
}
