package ml

import (
	"encoding/json"
	"fmt"
)

type artifactKind struct {
	Kind string `json:"kind"`
}

func readKind(data []byte) (string, error) {
	var k artifactKind
	if err := json.Unmarshal(data, &k); err != nil {
		return "", err
	}
	return k.Kind, nil
}

func LoadVectorizer(data []byte) (*TfidfVectorizer, error) {
	v := &TfidfVectorizer{}
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("decode vectorizer: %w", err)
	}
	if err := v.init(); err != nil {
		return nil, err
	}
	return v, nil
}

func LoadScaler(data []byte) (Scaler, error) {
	kind, err := readKind(data)
	if err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}
	switch kind {
	case "", "standard":
		s := &StandardScaler{}
		if err := json.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("decode scaler: %w", err)
		}
		if err := s.validate(); err != nil {
			return nil, err
		}
		return s, nil
	case "minmax":
		s := &MinMaxScaler{}
		if err := json.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("decode scaler: %w", err)
		}
		if err := s.validate(); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported scaler kind %q", kind)
	}
}

func LoadClassifier(data []byte) (Classifier, error) {
	kind, err := readKind(data)
	if err != nil {
		return nil, fmt.Errorf("decode classifier: %w", err)
	}
	var model interface {
		Classifier
		validate() error
	}
	switch kind {
	case "logistic_regression":
		model = &LogisticRegression{}
	case "decision_tree":
		model = &DecisionTree{}
	case "random_forest":
		model = &RandomForest{}
	default:
		return nil, fmt.Errorf("unsupported model type %q", kind)
	}
	if err := json.Unmarshal(data, model); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	if err := model.validate(); err != nil {
		return nil, err
	}
	return model, nil
}

func LoadLabelEncoder(data []byte) (*LabelEncoder, error) {
	le := &LabelEncoder{}
	if err := json.Unmarshal(data, le); err != nil {
		return nil, fmt.Errorf("decode label encoder: %w", err)
	}
	if err := le.validate(); err != nil {
		return nil, err
	}
	return le, nil
}
