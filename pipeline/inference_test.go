package pipeline

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/hauntmuskie/naivebayes-nggo/dataset"
)

func trainWeatherModel(t *testing.T) (*TrainingPipeline, *InferencePipeline) {
	t.Helper()
	training, inference, _ := newTestPipelines(t)
	_, err := training.Train(TrainRequest{
		ModelName:    "weather",
		TargetColumn: "play",
		IDColumn:     "id",
		Data:         weatherDataset(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return training, inference
}

func TestClassifyReturnsOrderedResults(t *testing.T) {
	_, inference := trainWeatherModel(t)

	ds := &dataset.Dataset{
		Columns: []string{"id", "outlook", "wind"},
		Rows: []dataset.Row{
			{"id": "r1", "outlook": "overcast", "wind": "weak"},
			{"id": "r2", "outlook": "sunny", "wind": "strong"},
		},
	}
	result, err := inference.Classify(ClassifyRequest{ModelName: "weather", Data: ds})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(result.Results))
	}
	if result.Results[0].ID != "r1" || result.Results[1].ID != "r2" {
		t.Fatalf("results out of order: %+v", result.Results)
	}
	if result.Results[0].PredictedClass != "yes" {
		t.Fatalf("expected yes for overcast/weak, got %q", result.Results[0].PredictedClass)
	}
	if result.Results[1].PredictedClass != "no" {
		t.Fatalf("expected no for sunny/strong, got %q", result.Results[1].PredictedClass)
	}
	for _, row := range result.Results {
		if row.Confidence <= 0 || row.Confidence > 1 {
			t.Fatalf("confidence out of range: %f", row.Confidence)
		}
		var decoded map[string]string
		if err := json.Unmarshal([]byte(row.Data), &decoded); err != nil {
			t.Fatalf("row data is not a JSON object: %v", err)
		}
	}
	if result.Metrics != nil {
		t.Fatal("no ground truth, expected no metrics")
	}
	if len(result.UnknownCategories) != 0 {
		t.Fatalf("unexpected unknown category diagnostics: %+v", result.UnknownCategories)
	}
}

func TestClassifyModelNotFound(t *testing.T) {
	_, inference, _ := newTestPipelines(t)

	_, err := inference.Classify(ClassifyRequest{
		ModelName: "ghost",
		Data:      &dataset.Dataset{Columns: []string{"a"}, Rows: []dataset.Row{{"a": "1"}}},
	})
	var notFound *ModelNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ModelNotFoundError, got %v", err)
	}
}

func TestClassifyMissingFeatureColumn(t *testing.T) {
	_, inference := trainWeatherModel(t)

	ds := &dataset.Dataset{
		Columns: []string{"outlook"},
		Rows:    []dataset.Row{{"outlook": "sunny"}},
	}
	_, err := inference.Classify(ClassifyRequest{ModelName: "weather", Data: ds})
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != "wind" {
		t.Fatalf("expected missing [wind], got %v", schemaErr.Missing)
	}
}

func TestClassifyEmptyDataset(t *testing.T) {
	_, inference := trainWeatherModel(t)

	_, err := inference.Classify(ClassifyRequest{
		ModelName: "weather",
		Data:      &dataset.Dataset{Columns: []string{"outlook", "wind"}},
	})
	var dataErr *InsufficientDataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
}

func TestClassifyUnknownCategoriesReported(t *testing.T) {
	_, inference := trainWeatherModel(t)

	ds := &dataset.Dataset{
		Columns: []string{"outlook", "wind"},
		Rows: []dataset.Row{
			{"outlook": "foggy", "wind": "weak"},
			{"outlook": "sunny", "wind": "hurricane"},
		},
	}
	result, err := inference.Classify(ClassifyRequest{ModelName: "weather", Data: ds})
	if err != nil {
		t.Fatalf("classification must survive unknown categories: %v", err)
	}

	if len(result.Results) != 2 {
		t.Fatalf("expected predictions for every row, got %d", len(result.Results))
	}
	if len(result.UnknownCategories) != 2 {
		t.Fatalf("expected diagnostics for both columns, got %+v", result.UnknownCategories)
	}
	outlook := result.UnknownCategories[0]
	if outlook.Column != "outlook" {
		t.Fatalf("expected outlook diagnostic first, got %q", outlook.Column)
	}
	if len(outlook.UnknownValues) != 1 || outlook.UnknownValues[0] != "foggy" {
		t.Fatalf("expected unknown [foggy], got %v", outlook.UnknownValues)
	}
	if len(outlook.KnownValues) != 3 {
		t.Fatalf("expected 3 known outlook values, got %v", outlook.KnownValues)
	}
}

func TestClassifyWithGroundTruth(t *testing.T) {
	_, inference := trainWeatherModel(t)

	ds := &dataset.Dataset{
		Columns: []string{"outlook", "wind", "play"},
		Rows: []dataset.Row{
			{"outlook": "overcast", "wind": "weak", "play": "yes"},
			{"outlook": "sunny", "wind": "strong", "play": "no"},
		},
	}
	result, err := inference.Classify(ClassifyRequest{ModelName: "weather", Data: ds})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Metrics == nil {
		t.Fatal("target column present, expected metrics")
	}
	if result.Metrics.Accuracy != 1.0 {
		t.Fatalf("expected accuracy 1.0, got %f", result.Metrics.Accuracy)
	}
	if result.Results[0].ActualClass != "yes" {
		t.Fatalf("expected actual class yes, got %q", result.Results[0].ActualClass)
	}
}

func TestClassifyUnseenGroundTruthExcludedFromMetrics(t *testing.T) {
	_, inference := trainWeatherModel(t)

	// "maybe" was never a fitted class; its row is predicted but left
	// out of the evaluation.
	ds := &dataset.Dataset{
		Columns: []string{"outlook", "wind", "play"},
		Rows: []dataset.Row{
			{"outlook": "overcast", "wind": "weak", "play": "yes"},
			{"outlook": "sunny", "wind": "strong", "play": "maybe"},
		},
	}
	result, err := inference.Classify(ClassifyRequest{ModelName: "weather", Data: ds})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Results) != 2 {
		t.Fatalf("expected predictions for every row, got %d", len(result.Results))
	}
	if result.Results[1].ActualClass != "maybe" {
		t.Fatalf("raw actual value must be reported, got %q", result.Results[1].ActualClass)
	}
	if result.Metrics == nil {
		t.Fatal("expected metrics over the valid row")
	}
	support := 0
	for _, class := range result.Metrics.ClassMetrics {
		support += class.Support
	}
	if support != 1 {
		t.Fatalf("expected a single evaluated row, got support %d", support)
	}
}

func TestClassifyExplicitActualColumn(t *testing.T) {
	_, inference := trainWeatherModel(t)

	ds := &dataset.Dataset{
		Columns: []string{"outlook", "wind", "truth"},
		Rows: []dataset.Row{
			{"outlook": "overcast", "wind": "weak", "truth": "yes"},
		},
	}
	result, err := inference.Classify(ClassifyRequest{
		ModelName:    "weather",
		ActualColumn: "truth",
		Data:         ds,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Results[0].ActualClass != "yes" {
		t.Fatalf("expected actual from truth column, got %q", result.Results[0].ActualClass)
	}
	if result.Metrics == nil {
		t.Fatal("expected metrics from explicit actual column")
	}
}

func TestClassifyRowIDFallback(t *testing.T) {
	_, inference := trainWeatherModel(t)

	ds := &dataset.Dataset{
		Columns: []string{"outlook", "wind"},
		Rows: []dataset.Row{
			{"outlook": "sunny", "wind": "weak"},
			{"outlook": "rain", "wind": "weak"},
		},
	}
	result, err := inference.Classify(ClassifyRequest{ModelName: "weather", Data: ds})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Results[0].ID != "1" || result.Results[1].ID != "2" {
		t.Fatalf("expected positional IDs [1 2], got %q %q", result.Results[0].ID, result.Results[1].ID)
	}
}
