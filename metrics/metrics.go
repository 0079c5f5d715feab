// Package metrics computes classification quality reports from integer
// true/predicted label vectors.
package metrics

import (
	"errors"
	"fmt"
	"sort"
)

type ClassReport struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1Score"`
	Support   int     `json:"support"`
}

// Report is one metrics snapshot. Classes fixes the axis order of
// ConfusionMatrix (rows = true class, columns = predicted class) and of
// the probability-style aggregates.
type Report struct {
	Accuracy        float64                `json:"accuracy"`
	Precision       float64                `json:"precision"`
	Recall          float64                `json:"recall"`
	F1Score         float64                `json:"f1Score"`
	Classes         []string               `json:"classes"`
	ClassMetrics    map[string]ClassReport `json:"classMetrics"`
	ConfusionMatrix [][]int                `json:"confusionMatrix"`
}

// Compute reports over the full fitted class set, codes 0..len(classNames)-1.
// Used at training time, where the data contains every class by construction.
func Compute(yTrue, yPred []int, classNames []string) (*Report, error) {
	codes := make([]int, len(classNames))
	for i := range codes {
		codes[i] = i
	}
	return compute(yTrue, yPred, codes, classNames)
}

// ComputePresent restricts the class universe to the classes present in
// the union of yTrue and yPred. Used at inference time, where ground
// truth may cover only part of the fitted set.
func ComputePresent(yTrue, yPred []int, classNames []string) (*Report, error) {
	present := make(map[int]struct{})
	for _, code := range yTrue {
		present[code] = struct{}{}
	}
	for _, code := range yPred {
		present[code] = struct{}{}
	}
	codes := make([]int, 0, len(present))
	for code := range present {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return compute(yTrue, yPred, codes, classNames)
}

func compute(yTrue, yPred []int, classCodes []int, classNames []string) (*Report, error) {
	if len(yTrue) == 0 {
		return nil, errors.New("no samples")
	}
	if len(yTrue) != len(yPred) {
		return nil, errors.New("true/predicted length mismatch")
	}

	position := make(map[int]int, len(classCodes))
	names := make([]string, len(classCodes))
	for i, code := range classCodes {
		if code < 0 || code >= len(classNames) {
			return nil, fmt.Errorf("class code %d out of range [0,%d)", code, len(classNames))
		}
		position[code] = i
		names[i] = classNames[code]
	}

	n := len(classCodes)
	confusion := make([][]int, n)
	for i := range confusion {
		confusion[i] = make([]int, n)
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
		ti, okTrue := position[yTrue[i]]
		pi, okPred := position[yPred[i]]
		if !okTrue || !okPred {
			return nil, fmt.Errorf("label %d/%d outside class universe", yTrue[i], yPred[i])
		}
		confusion[ti][pi]++
	}

	report := &Report{
		Accuracy:        float64(correct) / float64(len(yTrue)),
		Classes:         names,
		ClassMetrics:    make(map[string]ClassReport, n),
		ConfusionMatrix: confusion,
	}

	totalSupport := 0
	for i := 0; i < n; i++ {
		tp := confusion[i][i]
		support := 0
		predicted := 0
		for j := 0; j < n; j++ {
			support += confusion[i][j]
			predicted += confusion[j][i]
		}

		// zero_division -> 0 policy throughout.
		var precision, recall, f1 float64
		if predicted > 0 {
			precision = float64(tp) / float64(predicted)
		}
		if support > 0 {
			recall = float64(tp) / float64(support)
		}
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}

		report.ClassMetrics[names[i]] = ClassReport{
			Precision: precision,
			Recall:    recall,
			F1Score:   f1,
			Support:   support,
		}

		totalSupport += support
		report.Precision += precision * float64(support)
		report.Recall += recall * float64(support)
		report.F1Score += f1 * float64(support)
	}

	if totalSupport > 0 {
		report.Precision /= float64(totalSupport)
		report.Recall /= float64(totalSupport)
		report.F1Score /= float64(totalSupport)
	}
	return report, nil
}
