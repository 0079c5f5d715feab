package pipeline

import (
	"encoding/json"
	"sort"

	"go.uber.org/zap"

	"github.com/hauntmuskie/naivebayes-nggo/dataset"
	"github.com/hauntmuskie/naivebayes-nggo/metrics"
)

type ClassifyRequest struct {
	ModelName string
	IDColumn  string
	// ActualColumn names the ground-truth column. Empty means the
	// artifact's target column is used when the dataset carries it.
	ActualColumn string
	Data         *dataset.Dataset
}

// RowResult is one classified row. Data carries the original row as a
// JSON object string.
type RowResult struct {
	ID             string  `json:"id"`
	ActualClass    string  `json:"actualClass,omitempty"`
	PredictedClass string  `json:"predictedClass"`
	Confidence     float64 `json:"confidence"`
	Data           string  `json:"data,omitempty"`
}

type ClassifyResult struct {
	ModelName         string              `json:"modelName"`
	Results           []RowResult         `json:"results"`
	Metrics           *metrics.Report     `json:"metrics,omitempty"`
	UnknownCategories []UnknownCategories `json:"unknownCategories,omitempty"`
}

// InferencePipeline applies a stored artifact to new data.
type InferencePipeline struct {
	registry *Registry
	logger   *zap.Logger
}

func NewInferencePipeline(registry *Registry, logger *zap.Logger) *InferencePipeline {
	return &InferencePipeline{registry: registry, logger: logger}
}

func (p *InferencePipeline) Classify(req ClassifyRequest) (*ClassifyResult, error) {
	artifact, err := p.registry.Get(req.ModelName)
	if err != nil {
		return nil, err
	}
	model, encoders, labelEncoder, err := artifact.components()
	if err != nil {
		return nil, err
	}

	data := req.Data
	if data == nil || data.Len() == 0 {
		return nil, &InsufficientDataError{Message: "dataset is empty"}
	}

	var missing []string
	for _, column := range artifact.FeatureColumns {
		if !data.HasColumn(column) {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{
			Message:  "missing required feature columns in the dataset",
			Missing:  missing,
			Required: artifact.FeatureColumns,
		}
	}

	var unknownDiagnostics []UnknownCategories
	encoded := make([][]int, len(artifact.FeatureColumns))
	for i, column := range artifact.FeatureColumns {
		encoder, ok := encoders[column]
		if !ok {
			return nil, &EncodingError{
				Column:            column,
				Message:           "no fitted encoder for column",
				UnknownCategories: unknownDiagnostics,
			}
		}
		values := data.Column(column)

		unknownSet := make(map[string]struct{})
		for _, value := range values {
			if !encoder.Known(value) {
				unknownSet[value] = struct{}{}
			}
		}
		if len(unknownSet) > 0 {
			unknownValues := make([]string, 0, len(unknownSet))
			for value := range unknownSet {
				unknownValues = append(unknownValues, value)
			}
			sort.Strings(unknownValues)
			unknownDiagnostics = append(unknownDiagnostics, UnknownCategories{
				Column:        column,
				UnknownValues: unknownValues,
				KnownValues:   encoder.Categories(),
			})
		}

		encoded[i] = encoder.Transform(values)
	}
	X := make([][]int, data.Len())
	for row := 0; row < data.Len(); row++ {
		X[row] = make([]int, len(artifact.FeatureColumns))
		for col := range artifact.FeatureColumns {
			X[row][col] = encoded[col][row]
		}
	}

	probas, err := model.PredictProba(X)
	if err != nil {
		return nil, err
	}
	predictions, err := model.Predict(X)
	if err != nil {
		return nil, err
	}
	predictedLabels, err := labelEncoder.InverseTransform(predictions)
	if err != nil {
		return nil, err
	}

	actualColumn := req.ActualColumn
	if actualColumn == "" && data.HasColumn(artifact.TargetColumn) {
		actualColumn = artifact.TargetColumn
	}
	if actualColumn != "" && !data.HasColumn(actualColumn) {
		actualColumn = ""
	}
	idColumn := data.DetectIDColumn(req.IDColumn)

	results := make([]RowResult, data.Len())
	for i := 0; i < data.Len(); i++ {
		confidence := 0.0
		for _, proba := range probas[i] {
			if proba > confidence {
				confidence = proba
			}
		}
		rowData, _ := json.Marshal(data.Rows[i])

		result := RowResult{
			ID:             data.RowID(i, idColumn),
			PredictedClass: predictedLabels[i],
			Confidence:     confidence,
			Data:           string(rowData),
		}
		if actualColumn != "" {
			result.ActualClass = data.Rows[i][actualColumn]
		}
		results[i] = result
	}

	out := &ClassifyResult{
		ModelName:         artifact.Name,
		Results:           results,
		UnknownCategories: unknownDiagnostics,
	}

	// Ground-truth rows with labels outside the fitted set are excluded
	// from metrics, never from predictions.
	if actualColumn != "" {
		actuals := data.Column(actualColumn)
		var validTrue []string
		var validPred []int
		for i, actual := range actuals {
			if labelEncoder.Contains(actual) {
				validTrue = append(validTrue, actual)
				validPred = append(validPred, predictions[i])
			}
		}
		if len(validTrue) > 0 {
			yTrue, err := labelEncoder.Transform(validTrue)
			if err != nil {
				return nil, err
			}
			report, err := metrics.ComputePresent(yTrue, validPred, labelEncoder.Classes())
			if err != nil {
				return nil, err
			}
			out.Metrics = report
		}
	}

	if p.logger != nil {
		p.logger.Info("classification completed",
			zap.String("model", artifact.Name),
			zap.Int("rows", data.Len()),
			zap.Int("unknown_category_columns", len(unknownDiagnostics)),
			zap.Bool("evaluated", out.Metrics != nil),
		)
	}
	return out, nil
}
