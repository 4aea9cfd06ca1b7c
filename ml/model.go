package ml

import (
	"errors"
	"fmt"
)

var (
	ErrDimension  = errors.New("feature dimension mismatch")
	ErrLabelRange = errors.New("label index out of range")
)

// Vectorizer maps profile text to a fixed-vocabulary row. It never refits.
type Vectorizer interface {
	Transform(text string) (SparseRow, error)
}

// Scaler rescales the numeric feature vector with fitted statistics.
type Scaler interface {
	Transform(values []float64) ([]float64, error)
}

// Classifier returns one probability per known label, in label order.
type Classifier interface {
	PredictProba(features SparseRow) ([]float64, error)
}

// LabelDecoder maps a label index back to a role name.
type LabelDecoder interface {
	Decode(idx int) (string, error)
}

// The optional interfaces below let NewBundle cross-check artifacts
// that were exported together.
type vocabularySizer interface {
	VocabularySize() int
}

type featureCounter interface {
	NumFeatures() int
}

type classCounter interface {
	NumClasses() int
}

// Bundle is the immutable set of fitted artifacts used for inference.
type Bundle struct {
	vectorizer Vectorizer
	scaler     Scaler
	classifier Classifier
	labels     LabelDecoder
}

func NewBundle(v Vectorizer, s Scaler, c Classifier, l LabelDecoder) (*Bundle, error) {
	if v == nil || s == nil || c == nil || l == nil {
		return nil, errors.New("bundle requires vectorizer, scaler, classifier and label decoder")
	}
	if fc, ok := s.(featureCounter); ok && fc.NumFeatures() != NumNumericFeatures {
		return nil, fmt.Errorf("%w: scaler fitted on %d features, expected %d", ErrDimension, fc.NumFeatures(), NumNumericFeatures)
	}
	vs, vok := v.(vocabularySizer)
	fc, cok := c.(featureCounter)
	if vok && cok && fc.NumFeatures() != vs.VocabularySize()+NumNumericFeatures {
		return nil, fmt.Errorf("%w: classifier expects %d features, vocabulary gives %d", ErrDimension,
			fc.NumFeatures(), vs.VocabularySize()+NumNumericFeatures)
	}
	cc, cok := c.(classCounter)
	lc, lok := l.(classCounter)
	if cok && lok && cc.NumClasses() != lc.NumClasses() {
		return nil, fmt.Errorf("classifier has %d classes, label encoder has %d", cc.NumClasses(), lc.NumClasses())
	}
	return &Bundle{vectorizer: v, scaler: s, classifier: c, labels: l}, nil
}
