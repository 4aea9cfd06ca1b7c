package ml

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"edu2job/profile"
)

// DefaultTopK is the number of roles reported per profile.
const DefaultTopK = 3

// Confidence is a percentage rounded to two decimals. It marshals with a
// mandatory fraction digit, so 100 is written as 100.0.
type Confidence float64

func (c Confidence) MarshalJSON() ([]byte, error) {
	f := float64(c)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("invalid confidence %v", f)
	}
	return []byte(profile.FloatRepr(f)), nil
}

func (c *Confidence) UnmarshalJSON(data []byte) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return err
	}
	*c = Confidence(f)
	return nil
}

type Prediction struct {
	Role       string     `json:"role"`
	Confidence Confidence `json:"confidence"`
}

type Predictor struct {
	bundle *Bundle
	topK   int
}

func NewPredictor(b *Bundle, topK int) (*Predictor, error) {
	if b == nil {
		return nil, errors.New("predictor requires an artifact bundle")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Predictor{bundle: b, topK: topK}, nil
}

// Predict returns the most likely roles for rec, most confident first.
func (p *Predictor) Predict(rec profile.Record) ([]Prediction, error) {
	features := BuildFeatures(rec)
	row, err := Combine(p.bundle, features)
	if err != nil {
		return nil, err
	}
	probs, err := p.bundle.classifier.PredictProba(row)
	if err != nil {
		return nil, fmt.Errorf("predict probabilities: %w", err)
	}
	if len(probs) == 0 {
		return nil, errors.New("classifier returned no probabilities")
	}

	predictions := make([]Prediction, 0, p.topK)
	for _, idx := range TopIndices(probs, p.topK) {
		role, err := p.bundle.labels.Decode(idx)
		if err != nil {
			return nil, fmt.Errorf("decode label: %w", err)
		}
		predictions = append(predictions, Prediction{
			Role:       role,
			Confidence: Confidence(RoundPercent(probs[idx])),
		})
	}
	return predictions, nil
}

// TopIndices returns the indices of the k largest values in descending
// order. Equal values keep their original index order.
func TopIndices(values []float64, k int) []int {
	indices := make([]int, len(values))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return values[indices[a]] > values[indices[b]]
	})
	if k < len(indices) {
		indices = indices[:k]
	}
	return indices
}

// RoundPercent converts a probability to a percentage rounded half to
// even at two decimals.
func RoundPercent(p float64) float64 {
	return math.RoundToEven(p*100*100) / 100
}
