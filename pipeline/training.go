package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hauntmuskie/naivebayes-nggo/dataset"
	"github.com/hauntmuskie/naivebayes-nggo/metrics"
	"github.com/hauntmuskie/naivebayes-nggo/ml"
)

// Every class in the target column needs at least this many rows.
const minClassCount = 1

type TrainRequest struct {
	ModelName    string
	TargetColumn string
	IDColumn     string
	// FeatureColumns is the explicit feature selection. Empty means every
	// column except the target and ID columns.
	FeatureColumns []string
	Data           *dataset.Dataset
}

// TrainingPipeline fits a model on a labeled dataset, evaluates it on the
// same data and packages the result into the registry.
type TrainingPipeline struct {
	registry *Registry
	logger   *zap.Logger
}

func NewTrainingPipeline(registry *Registry, logger *zap.Logger) *TrainingPipeline {
	return &TrainingPipeline{registry: registry, logger: logger}
}

func (p *TrainingPipeline) Train(req TrainRequest) (*Artifact, error) {
	data := req.Data
	if data == nil || data.Len() == 0 {
		return nil, &InsufficientDataError{Message: "dataset is empty"}
	}
	if !data.HasColumn(req.TargetColumn) {
		return nil, &SchemaError{
			Message: fmt.Sprintf("target column %q not found in the dataset", req.TargetColumn),
			Missing: []string{req.TargetColumn},
		}
	}

	featureColumns, err := resolveFeatureColumns(req, data)
	if err != nil {
		return nil, err
	}

	targetValues := data.Column(req.TargetColumn)
	classCounts := make(map[string]int)
	for _, value := range targetValues {
		classCounts[value]++
	}
	for class, count := range classCounts {
		if count < minClassCount {
			return nil, &InsufficientDataError{
				Message: fmt.Sprintf("not enough samples for training: class %q has %d rows, need at least %d per class", class, count, minClassCount),
			}
		}
	}

	encoders := make(map[string]*ml.CategoryEncoder, len(featureColumns))
	encoded := make([][]int, len(featureColumns))
	for i, column := range featureColumns {
		encoder := &ml.CategoryEncoder{}
		values := data.Column(column)
		if err := encoder.Fit(values); err != nil {
			return nil, fmt.Errorf("fit encoder for column %q: %w", column, err)
		}
		encoders[column] = encoder
		encoded[i] = encoder.Transform(values)
	}
	X := make([][]int, data.Len())
	for row := 0; row < data.Len(); row++ {
		X[row] = make([]int, len(featureColumns))
		for col := range featureColumns {
			X[row][col] = encoded[col][row]
		}
	}

	labelEncoder := &ml.LabelEncoder{}
	if err := labelEncoder.Fit(targetValues); err != nil {
		return nil, err
	}
	y, err := labelEncoder.Transform(targetValues)
	if err != nil {
		return nil, err
	}

	model := ml.NewCategoricalNB()
	if err := model.Fit(X, y, labelEncoder.NumClasses()); err != nil {
		return nil, err
	}

	// Self-evaluation on the training set, over the full fitted class
	// set. The reported accuracy measures training-set fit.
	predictions, err := model.Predict(X)
	if err != nil {
		return nil, err
	}
	report, err := metrics.Compute(y, predictions, labelEncoder.Classes())
	if err != nil {
		return nil, err
	}

	modelData, err := model.MarshalBlob()
	if err != nil {
		return nil, err
	}
	encodersData, err := ml.EncodeFeatureEncoders(encoders)
	if err != nil {
		return nil, err
	}
	labelEncoderData, err := labelEncoder.MarshalBlob()
	if err != nil {
		return nil, err
	}

	artifact := &Artifact{
		Name:             req.ModelName,
		TargetColumn:     req.TargetColumn,
		FeatureColumns:   featureColumns,
		Classes:          labelEncoder.Classes(),
		Accuracy:         report.Accuracy,
		ModelData:        modelData,
		EncodersData:     encodersData,
		LabelEncoderData: labelEncoderData,
		Metrics:          report,
		CreatedAt:        time.Now().UTC(),
	}
	if err := p.registry.Put(artifact); err != nil {
		return nil, err
	}

	if p.logger != nil {
		p.logger.Info("model trained",
			zap.String("model", req.ModelName),
			zap.Int("rows", data.Len()),
			zap.Int("features", len(featureColumns)),
			zap.Int("classes", labelEncoder.NumClasses()),
			zap.Float64("accuracy", report.Accuracy),
		)
	}
	return artifact, nil
}

func resolveFeatureColumns(req TrainRequest, data *dataset.Dataset) ([]string, error) {
	if len(req.FeatureColumns) > 0 {
		var missing []string
		for _, column := range req.FeatureColumns {
			if !data.HasColumn(column) {
				missing = append(missing, column)
			}
		}
		if len(missing) > 0 {
			return nil, &SchemaError{
				Message:  "feature columns not found in the dataset",
				Missing:  missing,
				Required: req.FeatureColumns,
			}
		}
		return req.FeatureColumns, nil
	}

	var columns []string
	for _, column := range data.Columns {
		if column == req.TargetColumn || (req.IDColumn != "" && column == req.IDColumn) {
			continue
		}
		columns = append(columns, column)
	}
	if len(columns) == 0 {
		return nil, &SchemaError{Message: "no feature columns found"}
	}
	return columns, nil
}
