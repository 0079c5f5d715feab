package pipeline

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns missing from a dataset or an
// otherwise unusable column selection.
type SchemaError struct {
	Message  string   `json:"message"`
	Missing  []string `json:"missing_columns,omitempty"`
	Required []string `json:"required_columns,omitempty"`
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Missing, ", "))
	}
	return e.Message
}

// InsufficientDataError reports an empty dataset or a class with fewer
// rows than training requires.
type InsufficientDataError struct {
	Message string `json:"message"`
}

func (e *InsufficientDataError) Error() string {
	return e.Message
}

type ModelNotFoundError struct {
	Name      string   `json:"model_name"`
	Available []string `json:"available_models"`
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model %q not found, available models: [%s]", e.Name, strings.Join(e.Available, ", "))
}

// UnknownCategories is the per-column diagnostic attached to a
// classification when inference data carries values absent from training.
// It is reported, never raised.
type UnknownCategories struct {
	Column        string   `json:"column"`
	UnknownValues []string `json:"unknown_values"`
	KnownValues   []string `json:"known_values"`
}

// EncodingError reports a transform step failing outright. It carries the
// unknown-category diagnostics collected up to the failure.
type EncodingError struct {
	Column            string              `json:"column"`
	Message           string              `json:"message"`
	UnknownCategories []UnknownCategories `json:"unknown_categories,omitempty"`
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("error encoding column %q: %s", e.Column, e.Message)
}
