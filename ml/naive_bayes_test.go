package ml

import (
	"math"
	"testing"
)

func trainedSeparableModel(t *testing.T) *CategoricalNB {
	t.Helper()
	// Feature 0 separates the classes perfectly, feature 1 is uniform.
	X := [][]int{
		{0, 0},
		{0, 1},
		{0, 0},
		{1, 1},
		{1, 0},
		{1, 1},
	}
	y := []int{0, 0, 0, 1, 1, 1}
	model := NewCategoricalNB()
	if err := model.Fit(X, y, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return model
}

func TestCategoricalNBPredict(t *testing.T) {
	model := trainedSeparableModel(t)

	predictions, err := model.Predict([][]int{{0, 1}, {1, 0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if predictions[0] != 0 {
		t.Fatalf("expected class 0, got %d", predictions[0])
	}
	if predictions[1] != 1 {
		t.Fatalf("expected class 1, got %d", predictions[1])
	}
}

func TestCategoricalNBProbaSumsToOne(t *testing.T) {
	model := trainedSeparableModel(t)

	probas, err := model.PredictProba([][]int{{0, 0}, {1, 1}, {0, 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, row := range probas {
		sum := 0.0
		for _, p := range row {
			if p < 0 || p > 1 {
				t.Fatalf("row %d has probability outside [0,1]: %v", i, row)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("row %d probabilities sum to %f", i, sum)
		}
	}
}

func TestCategoricalNBSmoothedLikelihood(t *testing.T) {
	// One feature with codes {0,1}, fully correlated with the class.
	X := [][]int{{0}, {0}, {1}}
	y := []int{0, 0, 1}
	model := NewCategoricalNB()
	if err := model.Fit(X, y, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	probas, err := model.PredictProba([][]int{{0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// P(x=0|c=0) = (2+1)/(2+2) = 3/4, prior 2/3 -> joint 1/2
	// P(x=0|c=1) = (0+1)/(1+2) = 1/3, prior 1/3 -> joint 1/9
	want := (1.0 / 2.0) / (1.0/2.0 + 1.0/9.0)
	if math.Abs(probas[0][0]-want) > 1e-9 {
		t.Fatalf("expected P(c=0)=%f, got %f", want, probas[0][0])
	}
}

func TestCategoricalNBOutOfRangeCodeIsZeroCount(t *testing.T) {
	X := [][]int{{0}, {0}, {1}}
	y := []int{0, 0, 1}
	model := NewCategoricalNB()
	if err := model.Fit(X, y, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Code 5 was never observed; it must classify without error, with
	// the smoothed zero-count likelihood for every class.
	probas, err := model.PredictProba([][]int{{5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Likelihood is alpha/(classCount+alpha*2) for both classes, so the
	// posterior follows prior * likelihood:
	// c=0: 2/3 * 1/4 = 1/6, c=1: 1/3 * 1/3 = 1/9
	want := (1.0 / 6.0) / (1.0/6.0 + 1.0/9.0)
	if math.Abs(probas[0][0]-want) > 1e-9 {
		t.Fatalf("expected P(c=0)=%f, got %f", want, probas[0][0])
	}
}

func TestCategoricalNBTieBreaksToLowestClass(t *testing.T) {
	// Two classes, symmetric data: every posterior is a tie.
	X := [][]int{{0}, {1}}
	y := []int{0, 1}
	model := NewCategoricalNB()
	if err := model.Fit(X, y, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	predictions, err := model.Predict([][]int{{5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if predictions[0] != 0 {
		t.Fatalf("expected tie to resolve to class 0, got %d", predictions[0])
	}
}

func TestCategoricalNBFitValidation(t *testing.T) {
	model := NewCategoricalNB()
	if err := model.Fit(nil, nil, 2); err == nil {
		t.Fatal("expected error for empty input")
	}
	if err := model.Fit([][]int{{0}}, []int{0, 1}, 2); err == nil {
		t.Fatal("expected error for size mismatch")
	}
	if err := model.Fit([][]int{{0}}, []int{2}, 2); err == nil {
		t.Fatal("expected error for out of range label")
	}
	if err := model.Fit([][]int{{-1}}, []int{0}, 1); err == nil {
		t.Fatal("expected error for negative feature code")
	}
}

func TestCategoricalNBBlobRoundTrip(t *testing.T) {
	model := trainedSeparableModel(t)
	blob, err := model.MarshalBlob()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restored := NewCategoricalNB()
	if err := restored.UnmarshalBlob(blob); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := [][]int{{0, 0}, {1, 1}, {0, 1}, {1, 0}}
	original, err := model.PredictProba(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	roundTripped, err := restored.PredictProba(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range original {
		for c := range original[i] {
			if math.Abs(original[i][c]-roundTripped[i][c]) > 1e-12 {
				t.Fatalf("posterior drift after round trip at row %d", i)
			}
		}
	}
}
