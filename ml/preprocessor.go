package ml

import (
	"errors"
	"fmt"
)

// tinySpan is ten float64 machine epsilons; narrower fitted ranges are
// treated as constant.
const tinySpan = 10 * 2.220446049250313e-16

// StandardScaler centers and scales each column with fitted statistics.
type StandardScaler struct {
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
	WithMean *bool     `json:"with_mean,omitempty"`
	WithStd  *bool     `json:"with_std,omitempty"`
}

func (s *StandardScaler) validate() error {
	n := s.NumFeatures()
	if n == 0 {
		return errors.New("standard scaler has no statistics")
	}
	if s.withMean() && len(s.Mean) != n {
		return fmt.Errorf("%w: %d means for %d features", ErrDimension, len(s.Mean), n)
	}
	if s.withStd() && len(s.Scale) != n {
		return fmt.Errorf("%w: %d scales for %d features", ErrDimension, len(s.Scale), n)
	}
	return nil
}

func (s *StandardScaler) NumFeatures() int {
	if s.withStd() {
		return len(s.Scale)
	}
	return len(s.Mean)
}

func (s *StandardScaler) Transform(values []float64) ([]float64, error) {
	if len(values) != s.NumFeatures() {
		return nil, fmt.Errorf("%w: got %d values, scaler fitted on %d", ErrDimension, len(values), s.NumFeatures())
	}
	result := make([]float64, len(values))
	for i, v := range values {
		if s.withMean() {
			v -= s.Mean[i]
		}
		if s.withStd() {
			v /= s.Scale[i]
		}
		result[i] = v
	}
	return result, nil
}

func (s *StandardScaler) withMean() bool { return s.WithMean == nil || *s.WithMean }
func (s *StandardScaler) withStd() bool  { return s.WithStd == nil || *s.WithStd }

// MinMaxScaler applies x*Scale + Min per column. Scale and Min are the
// fitted scale_ and min_ attributes; when only DataMin and DataMax are
// exported they are derived the same way fitting does, with constant
// columns using a unit range.
type MinMaxScaler struct {
	DataMin      []float64  `json:"data_min"`
	DataMax      []float64  `json:"data_max"`
	Scale        []float64  `json:"scale,omitempty"`
	Min          []float64  `json:"min,omitempty"`
	FeatureRange [2]float64 `json:"feature_range"`
	Clip         bool       `json:"clip,omitempty"`
}

func (s *MinMaxScaler) validate() error {
	if s.FeatureRange == [2]float64{} {
		s.FeatureRange = [2]float64{0, 1}
	}
	if s.FeatureRange[0] >= s.FeatureRange[1] {
		return fmt.Errorf("invalid feature range %v", s.FeatureRange)
	}
	if len(s.Scale) == 0 && len(s.Min) == 0 {
		if len(s.DataMin) == 0 {
			return errors.New("minmax scaler has no statistics")
		}
		if len(s.DataMin) != len(s.DataMax) {
			return fmt.Errorf("%w: %d minimums, %d maximums", ErrDimension, len(s.DataMin), len(s.DataMax))
		}
		lo, hi := s.FeatureRange[0], s.FeatureRange[1]
		s.Scale = make([]float64, len(s.DataMin))
		s.Min = make([]float64, len(s.DataMin))
		for i := range s.DataMin {
			span := s.DataMax[i] - s.DataMin[i]
			if span < tinySpan {
				span = 1
			}
			s.Scale[i] = (hi - lo) / span
			s.Min[i] = lo - float64(s.DataMin[i]*s.Scale[i])
		}
		return nil
	}
	if len(s.Scale) != len(s.Min) {
		return fmt.Errorf("%w: %d scales, %d offsets", ErrDimension, len(s.Scale), len(s.Min))
	}
	return nil
}

func (s *MinMaxScaler) NumFeatures() int { return len(s.Scale) }

func (s *MinMaxScaler) Transform(values []float64) ([]float64, error) {
	if len(values) != len(s.Scale) {
		return nil, fmt.Errorf("%w: got %d values, scaler fitted on %d", ErrDimension, len(values), len(s.Scale))
	}
	lo, hi := s.FeatureRange[0], s.FeatureRange[1]
	result := make([]float64, len(values))
	for i, v := range values {
		// the conversion keeps the product rounded, as numpy does
		v = float64(v*s.Scale[i]) + s.Min[i]
		if s.Clip {
			v = min(max(v, lo), hi)
		}
		result[i] = v
	}
	return result, nil
}
