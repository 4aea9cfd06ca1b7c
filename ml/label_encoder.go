package ml

import (
	"errors"
	"fmt"
)

// LabelEncoder holds the training-time classes in label index order.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

func (le *LabelEncoder) validate() error {
	if len(le.Classes) == 0 {
		return errors.New("label encoder has no classes")
	}
	return nil
}

func (le *LabelEncoder) NumClasses() int { return len(le.Classes) }

func (le *LabelEncoder) Decode(idx int) (string, error) {
	if idx < 0 || idx >= len(le.Classes) {
		return "", fmt.Errorf("%w: %d not in [0, %d)", ErrLabelRange, idx, len(le.Classes))
	}
	return le.Classes[idx], nil
}
