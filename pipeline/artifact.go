package pipeline

import (
	"fmt"
	"time"

	"github.com/hauntmuskie/naivebayes-nggo/metrics"
	"github.com/hauntmuskie/naivebayes-nggo/ml"
)

// Artifact is the durable output of one training run: the fitted model,
// its encoders and the latest training metrics, keyed by model name.
// FeatureColumns keeps the order features were encoded and fed to the
// model.
type Artifact struct {
	Name             string          `json:"modelName"`
	TargetColumn     string          `json:"targetColumn"`
	FeatureColumns   []string        `json:"featureColumns"`
	Classes          []string        `json:"classes"`
	Accuracy         float64         `json:"accuracy"`
	ModelData        string          `json:"modelData"`
	EncodersData     string          `json:"encodersData"`
	LabelEncoderData string          `json:"labelEncoderData"`
	Metrics          *metrics.Report `json:"metrics,omitempty"`
	CreatedAt        time.Time       `json:"createdAt,omitempty"`
}

// Summary is the artifact without its serialized blobs, for listings.
type Summary struct {
	Name           string          `json:"modelName"`
	TargetColumn   string          `json:"targetColumn"`
	FeatureColumns []string        `json:"featureColumns"`
	Classes        []string        `json:"classes"`
	Accuracy       float64         `json:"accuracy"`
	Metrics        *metrics.Report `json:"metrics,omitempty"`
	CreatedAt      time.Time       `json:"createdAt,omitempty"`
}

func (a *Artifact) Summary() Summary {
	return Summary{
		Name:           a.Name,
		TargetColumn:   a.TargetColumn,
		FeatureColumns: a.FeatureColumns,
		Classes:        a.Classes,
		Accuracy:       a.Accuracy,
		Metrics:        a.Metrics,
		CreatedAt:      a.CreatedAt,
	}
}

// components rebuilds the fitted model, feature encoders and label
// encoder from the artifact blobs.
func (a *Artifact) components() (*ml.CategoricalNB, map[string]*ml.CategoryEncoder, *ml.LabelEncoder, error) {
	model := ml.NewCategoricalNB()
	if err := model.UnmarshalBlob(a.ModelData); err != nil {
		return nil, nil, nil, fmt.Errorf("model %q: %w", a.Name, err)
	}
	encoders, err := ml.DecodeFeatureEncoders(a.EncodersData)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("model %q: %w", a.Name, err)
	}
	labelEncoder := &ml.LabelEncoder{}
	if err := labelEncoder.UnmarshalBlob(a.LabelEncoderData); err != nil {
		return nil, nil, nil, fmt.Errorf("model %q: %w", a.Name, err)
	}
	return model, encoders, labelEncoder, nil
}
