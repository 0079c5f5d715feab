package ml

import (
	"errors"
	"fmt"
	"math"
)

const defaultAlpha = 1.0

// CategoricalNB is a Naive Bayes classifier over integer-coded categorical
// features. Likelihoods are per-feature category frequencies with additive
// smoothing; posteriors are computed in log space to avoid underflow.
type CategoricalNB struct {
	alpha      float64
	nFeatures  int
	nClasses   int
	total      int
	classCount []int
	// catCount[f] is the category cardinality of feature f observed at
	// fit time. Codes at or beyond it (the encoder's unknown code
	// included) contribute a zero count under the same smoothing.
	catCount []int
	// counts[f][c][v] is the number of training rows of class c with
	// feature f coded as v.
	counts   [][][]int
	logPrior []float64
}

func NewCategoricalNB() *CategoricalNB {
	return &CategoricalNB{alpha: defaultAlpha}
}

func (nb *CategoricalNB) Fit(X [][]int, y []int, nClasses int) error {
	if len(X) == 0 || len(y) == 0 {
		return errors.New("features or labels empty")
	}
	if len(X) != len(y) {
		return errors.New("features and labels size mismatch")
	}
	if nClasses <= 0 {
		return errors.New("nClasses must be positive")
	}

	nFeatures := len(X[0])
	if nFeatures == 0 {
		return errors.New("no feature columns")
	}

	classCount := make([]int, nClasses)
	catCount := make([]int, nFeatures)
	for i, row := range X {
		if len(row) != nFeatures {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), nFeatures)
		}
		if y[i] < 0 || y[i] >= nClasses {
			return fmt.Errorf("label %d out of range [0,%d)", y[i], nClasses)
		}
		classCount[y[i]]++
		for f, code := range row {
			if code < 0 {
				return fmt.Errorf("negative feature code %d in row %d", code, i)
			}
			if code+1 > catCount[f] {
				catCount[f] = code + 1
			}
		}
	}

	counts := make([][][]int, nFeatures)
	for f := 0; f < nFeatures; f++ {
		counts[f] = make([][]int, nClasses)
		for c := 0; c < nClasses; c++ {
			counts[f][c] = make([]int, catCount[f])
		}
	}
	for i, row := range X {
		for f, code := range row {
			counts[f][y[i]][code]++
		}
	}

	logPrior := make([]float64, nClasses)
	for c := 0; c < nClasses; c++ {
		if classCount[c] == 0 {
			// Smoothed floor keeps the log finite for a declared
			// class with no samples.
			logPrior[c] = math.Log(nb.alpha / (float64(len(y)) + nb.alpha*float64(nClasses)))
			continue
		}
		logPrior[c] = math.Log(float64(classCount[c]) / float64(len(y)))
	}

	nb.nFeatures = nFeatures
	nb.nClasses = nClasses
	nb.total = len(y)
	nb.classCount = classCount
	nb.catCount = catCount
	nb.counts = counts
	nb.logPrior = logPrior
	return nil
}

func (nb *CategoricalNB) logJoint(row []int) ([]float64, error) {
	if nb.nClasses == 0 {
		return nil, errors.New("model not trained")
	}
	if len(row) != nb.nFeatures {
		return nil, fmt.Errorf("row has %d features, want %d", len(row), nb.nFeatures)
	}
	joint := make([]float64, nb.nClasses)
	for c := 0; c < nb.nClasses; c++ {
		score := nb.logPrior[c]
		for f, code := range row {
			if code < 0 {
				return nil, fmt.Errorf("negative feature code %d", code)
			}
			count := 0
			if code < nb.catCount[f] {
				count = nb.counts[f][c][code]
			}
			numer := float64(count) + nb.alpha
			denom := float64(nb.classCount[c]) + nb.alpha*float64(nb.catCount[f])
			score += math.Log(numer / denom)
		}
		joint[c] = score
	}
	return joint, nil
}

// PredictProba returns, per row, the posterior distribution over the
// classes. Each row sums to 1.
func (nb *CategoricalNB) PredictProba(X [][]int) ([][]float64, error) {
	probas := make([][]float64, len(X))
	for i, row := range X {
		joint, err := nb.logJoint(row)
		if err != nil {
			return nil, err
		}
		probas[i] = softmax(joint)
	}
	return probas, nil
}

// Predict returns, per row, the class code with the maximum posterior.
// Ties resolve to the lowest class code.
func (nb *CategoricalNB) Predict(X [][]int) ([]int, error) {
	predictions := make([]int, len(X))
	for i, row := range X {
		joint, err := nb.logJoint(row)
		if err != nil {
			return nil, err
		}
		best := 0
		for c := 1; c < len(joint); c++ {
			if joint[c] > joint[best] {
				best = c
			}
		}
		predictions[i] = best
	}
	return predictions, nil
}

func softmax(scores []float64) []float64 {
	scale := scores[0]
	for _, score := range scores[1:] {
		if score > scale {
			scale = score
		}
	}
	probas := make([]float64, len(scores))
	var norm float64
	for i, score := range scores {
		probas[i] = math.Exp(score - scale)
		norm += probas[i]
	}
	for i := range probas {
		probas[i] /= norm
	}
	return probas
}

type nbState struct {
	Alpha      float64   `json:"alpha"`
	NFeatures  int       `json:"n_features"`
	NClasses   int       `json:"n_classes"`
	Total      int       `json:"total"`
	ClassCount []int     `json:"class_count"`
	CatCount   []int     `json:"cat_count"`
	Counts     [][][]int `json:"counts"`
	LogPrior   []float64 `json:"log_prior"`
}

func (nb *CategoricalNB) MarshalBlob() (string, error) {
	if nb.nClasses == 0 {
		return "", errors.New("model not trained")
	}
	return marshalBlob("categorical_nb", nbState{
		Alpha:      nb.alpha,
		NFeatures:  nb.nFeatures,
		NClasses:   nb.nClasses,
		Total:      nb.total,
		ClassCount: nb.classCount,
		CatCount:   nb.catCount,
		Counts:     nb.counts,
		LogPrior:   nb.logPrior,
	})
}

func (nb *CategoricalNB) UnmarshalBlob(blob string) error {
	var state nbState
	if err := unmarshalBlob(blob, "categorical_nb", &state); err != nil {
		return err
	}
	nb.alpha = state.Alpha
	nb.nFeatures = state.NFeatures
	nb.nClasses = state.NClasses
	nb.total = state.Total
	nb.classCount = state.ClassCount
	nb.catCount = state.CatCount
	nb.counts = state.Counts
	nb.logPrior = state.LogPrior
	return nil
}
