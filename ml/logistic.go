package ml

import (
	"errors"
	"fmt"
	"math"
)

// LogisticRegression is a fitted linear classifier. A single coefficient
// row is a binary model; otherwise MultiClass selects softmax
// ("multinomial", the default) or normalized one-vs-rest sigmoids ("ovr").
type LogisticRegression struct {
	Coef       [][]float64 `json:"coef"`
	Intercept  []float64   `json:"intercept"`
	MultiClass string      `json:"multi_class,omitempty"`
}

func (lr *LogisticRegression) validate() error {
	if len(lr.Coef) == 0 {
		return errors.New("logistic regression has no coefficients")
	}
	if len(lr.Intercept) != len(lr.Coef) {
		return fmt.Errorf("%w: %d intercepts for %d coefficient rows", ErrDimension, len(lr.Intercept), len(lr.Coef))
	}
	width := len(lr.Coef[0])
	for i, row := range lr.Coef {
		if len(row) != width {
			return fmt.Errorf("%w: coefficient row %d has %d values, expected %d", ErrDimension, i, len(row), width)
		}
	}
	switch lr.MultiClass {
	case "", "auto", "multinomial", "ovr":
	default:
		return fmt.Errorf("unsupported multi_class %q", lr.MultiClass)
	}
	return nil
}

func (lr *LogisticRegression) NumFeatures() int {
	if len(lr.Coef) == 0 {
		return 0
	}
	return len(lr.Coef[0])
}

func (lr *LogisticRegression) NumClasses() int {
	if len(lr.Coef) == 1 {
		return 2
	}
	return len(lr.Coef)
}

func (lr *LogisticRegression) PredictProba(features SparseRow) ([]float64, error) {
	if len(lr.Coef) == 0 {
		return nil, errors.New("model not loaded")
	}
	scores := make([]float64, len(lr.Coef))
	for k, row := range lr.Coef {
		dot, err := features.Dot(row)
		if err != nil {
			return nil, err
		}
		scores[k] = dot + lr.Intercept[k]
	}

	if len(scores) == 1 {
		p := sigmoid(scores[0])
		return []float64{1 - p, p}, nil
	}
	if lr.MultiClass == "ovr" {
		total := 0.0
		for k, s := range scores {
			scores[k] = sigmoid(s)
			total += scores[k]
		}
		for k := range scores {
			scores[k] /= total
		}
		return scores, nil
	}
	return softmax(scores), nil
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func softmax(scores []float64) []float64 {
	maxScore := math.Inf(-1)
	for _, s := range scores {
		maxScore = math.Max(maxScore, s)
	}
	total := 0.0
	probs := make([]float64, len(scores))
	for k, s := range scores {
		probs[k] = math.Exp(s - maxScore)
		total += probs[k]
	}
	for k := range probs {
		probs[k] /= total
	}
	return probs
}
