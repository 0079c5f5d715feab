package metrics

import (
	"math"
	"testing"
)

func TestComputeAllCorrect(t *testing.T) {
	yTrue := []int{0, 1, 0, 1, 1}
	report, err := Compute(yTrue, yTrue, []string{"no", "yes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Accuracy != 1.0 {
		t.Fatalf("expected accuracy 1.0, got %f", report.Accuracy)
	}
	if report.Precision != 1.0 || report.Recall != 1.0 || report.F1Score != 1.0 {
		t.Fatalf("expected perfect aggregates, got %+v", report)
	}
	for name, class := range report.ClassMetrics {
		if class.Precision != 1.0 || class.Recall != 1.0 || class.F1Score != 1.0 {
			t.Fatalf("class %s not perfect: %+v", name, class)
		}
	}
	if report.ClassMetrics["no"].Support != 2 || report.ClassMetrics["yes"].Support != 3 {
		t.Fatalf("wrong supports: %+v", report.ClassMetrics)
	}
}

func TestComputeAllWrong(t *testing.T) {
	yTrue := []int{0, 0, 1, 1}
	yPred := []int{1, 1, 0, 0}
	report, err := Compute(yTrue, yPred, []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Accuracy != 0.0 {
		t.Fatalf("expected accuracy 0.0, got %f", report.Accuracy)
	}
	// Every precision and recall is a zero division or a zero count, so
	// the aggregates collapse to zero rather than erroring.
	if report.Precision != 0.0 || report.Recall != 0.0 || report.F1Score != 0.0 {
		t.Fatalf("expected zero aggregates, got %+v", report)
	}
}

func TestComputeConfusionMatrix(t *testing.T) {
	yTrue := []int{0, 0, 1, 1, 2}
	yPred := []int{0, 1, 1, 1, 0}
	report, err := Compute(yTrue, yPred, []string{"x", "y", "z"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][]int{
		{1, 1, 0},
		{0, 2, 0},
		{1, 0, 0},
	}
	for i := range want {
		for j := range want[i] {
			if report.ConfusionMatrix[i][j] != want[i][j] {
				t.Fatalf("confusion[%d][%d] = %d, want %d", i, j, report.ConfusionMatrix[i][j], want[i][j])
			}
		}
	}

	// Row sums equal per-class support.
	for i, name := range report.Classes {
		rowSum := 0
		for _, v := range report.ConfusionMatrix[i] {
			rowSum += v
		}
		if rowSum != report.ClassMetrics[name].Support {
			t.Fatalf("row sum %d != support %d for class %s", rowSum, report.ClassMetrics[name].Support, name)
		}
	}
}

func TestComputeWeightedAverages(t *testing.T) {
	// class 0: support 3, P=1, R=2/3; class 1: support 1, P=1/2, R=1.
	yTrue := []int{0, 0, 0, 1}
	yPred := []int{0, 0, 1, 1}
	report, err := Compute(yTrue, yPred, []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantPrecision := (1.0*3 + 0.5*1) / 4
	wantRecall := (2.0/3.0*3 + 1.0*1) / 4
	if math.Abs(report.Precision-wantPrecision) > 1e-9 {
		t.Fatalf("expected precision %f, got %f", wantPrecision, report.Precision)
	}
	if math.Abs(report.Recall-wantRecall) > 1e-9 {
		t.Fatalf("expected recall %f, got %f", wantRecall, report.Recall)
	}
}

func TestComputePresentRestrictsUniverse(t *testing.T) {
	// Fitted classes are three, but only codes 0 and 2 appear.
	yTrue := []int{0, 2, 2}
	yPred := []int{0, 2, 0}
	report, err := ComputePresent(yTrue, yPred, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Classes) != 2 {
		t.Fatalf("expected 2 present classes, got %v", report.Classes)
	}
	if report.Classes[0] != "a" || report.Classes[1] != "c" {
		t.Fatalf("expected classes [a c], got %v", report.Classes)
	}
	if len(report.ConfusionMatrix) != 2 || len(report.ConfusionMatrix[0]) != 2 {
		t.Fatalf("expected 2x2 confusion matrix")
	}
	if _, ok := report.ClassMetrics["b"]; ok {
		t.Fatal("absent class should not appear in class metrics")
	}
}

func TestComputeEmptyInput(t *testing.T) {
	if _, err := Compute(nil, nil, []string{"a"}); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := Compute([]int{0}, []int{0, 1}, []string{"a", "b"}); err == nil {
		t.Fatal("expected error for length mismatch")
	}
}
