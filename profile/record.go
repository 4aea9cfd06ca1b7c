package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

var (
	ErrMalformedInput = errors.New("malformed input")
	ErrMissingField   = errors.New("missing field")
	ErrFieldType      = errors.New("invalid field type")
)

// Field keys in the order they are checked.
const (
	FieldCGPA           = "CGPA"
	FieldDegree         = "Degree"
	FieldMajor          = "Major"
	FieldSkills         = "Skills"
	FieldCertifications = "Certifications"
	FieldExperience     = "Experience"
)

var requiredFields = []string{
	FieldCGPA,
	FieldDegree,
	FieldMajor,
	FieldSkills,
	FieldCertifications,
	FieldExperience,
}

// Record is one candidate profile. Text fields hold the string form of
// whatever JSON value was supplied, before any normalization.
type Record struct {
	CGPA           float64
	Degree         string
	Major          string
	Skills         string
	Certifications string
	Experience     float64

	Raw json.RawMessage
}

// DefaultFields returns a fresh copy of the demo record used when no
// input is supplied.
func DefaultFields() map[string]interface{} {
	return map[string]interface{}{
		FieldCGPA:           8.5,
		FieldDegree:         "B.Tech",
		FieldMajor:          "Computer Science",
		FieldSkills:         "Python, SQL, Machine Learning",
		FieldCertifications: "AWS, Azure",
		FieldExperience:     2,
	}
}

// Default is DefaultFields parsed into a Record.
func Default() Record {
	data, err := json.Marshal(DefaultFields())
	if err != nil {
		panic(err)
	}
	rec, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return rec
}

func Parse(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if fields == nil {
		return Record{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedInput)
	}
	if dec.More() {
		return Record{}, fmt.Errorf("%w: trailing data after object", ErrMalformedInput)
	}

	for _, key := range requiredFields {
		if _, ok := fields[key]; !ok {
			return Record{}, fmt.Errorf("%w: %s", ErrMissingField, key)
		}
	}

	var (
		rec Record
		err error
	)
	if rec.CGPA, err = numberField(fields, FieldCGPA); err != nil {
		return Record{}, err
	}
	if rec.Experience, err = numberField(fields, FieldExperience); err != nil {
		return Record{}, err
	}
	if rec.Degree, err = textField(fields, FieldDegree); err != nil {
		return Record{}, err
	}
	if rec.Major, err = textField(fields, FieldMajor); err != nil {
		return Record{}, err
	}
	if rec.Skills, err = textField(fields, FieldSkills); err != nil {
		return Record{}, err
	}
	if rec.Certifications, err = textField(fields, FieldCertifications); err != nil {
		return Record{}, err
	}
	rec.Raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	return rec, nil
}

func numberField(fields map[string]interface{}, key string) (float64, error) {
	num, ok := fields[key].(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number, got %s", ErrFieldType, key, describe(fields[key]))
	}
	value, err := strconv.ParseFloat(num.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrFieldType, key, err)
	}
	return value, nil
}

func textField(fields map[string]interface{}, key string) (string, error) {
	switch v := fields[key].(type) {
	case string:
		return v, nil
	case nil:
		return "None", nil
	case bool:
		if v {
			return "True", nil
		}
		return "False", nil
	case json.Number:
		return numberText(v)
	default:
		return "", fmt.Errorf("%w: %s must be a string, got %s", ErrFieldType, key, describe(v))
	}
}

// numberText renders a JSON number the way the training pipeline's
// string cast did: integers verbatim, floats in shortest repr form.
func numberText(num json.Number) (string, error) {
	literal := num.String()
	if !strings.ContainsAny(literal, ".eE") {
		n, ok := new(big.Int).SetString(literal, 10)
		if !ok {
			return "", fmt.Errorf("%w: bad integer %q", ErrFieldType, literal)
		}
		return n.String(), nil
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return "", fmt.Errorf("%w: bad number %q: %v", ErrFieldType, literal, err)
	}
	return FloatRepr(f), nil
}

// FloatRepr formats f as the shortest string that round-trips, with
// fixed notation for exponents in [-4, 16) and a mandatory fraction.
func FloatRepr(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	fixed := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(fixed, ".") {
		fixed += ".0"
	}
	return fixed
}

func describe(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case []interface{}:
		return "array"
	default:
		return "object"
	}
}
