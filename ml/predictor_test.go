package ml

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"edu2job/profile"
)

type fakeClassifier struct {
	probs []float64
	err   error
	seen  SparseRow
}

func (f *fakeClassifier) PredictProba(features SparseRow) ([]float64, error) {
	f.seen = features
	return f.probs, f.err
}

type identityScaler struct{}

func (identityScaler) Transform(values []float64) ([]float64, error) {
	return append([]float64(nil), values...), nil
}

func testBundle(t *testing.T, classifier Classifier, roles ...string) *Bundle {
	t.Helper()
	vectorizer := loadTestVectorizer(t, `{"kind": "count", "vocabulary": {"python": 0, "sql": 1, "aws": 2, "finance": 3}}`)
	bundle, err := NewBundle(vectorizer, identityScaler{}, classifier, &LabelEncoder{Classes: roles})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return bundle
}

func sampleRecord() profile.Record {
	return profile.Record{
		CGPA:           8.5,
		Degree:         "B.Tech",
		Major:          "Computer Science",
		Skills:         "Python, SQL, Machine Learning",
		Certifications: "AWS, Azure",
		Experience:     2,
	}
}

func TestPredictorTopThree(t *testing.T) {
	classifier := &fakeClassifier{probs: []float64{0.1, 0.45, 0.05, 0.3333333, 0.0666667}}
	bundle := testBundle(t, classifier, "Analyst", "Data Scientist", "Designer", "ML Engineer", "Tester")
	predictor, err := NewPredictor(bundle, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	predictions, err := predictor.Predict(sampleRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Prediction{
		{Role: "Data Scientist", Confidence: 45},
		{Role: "ML Engineer", Confidence: 33.33},
		{Role: "Analyst", Confidence: 10},
	}
	if len(predictions) != len(want) {
		t.Fatalf("expected %d predictions, got %d", len(want), len(predictions))
	}
	for i := range want {
		if predictions[i] != want[i] {
			t.Fatalf("prediction %d: expected %+v, got %+v", i, want[i], predictions[i])
		}
	}

	row := classifier.seen
	if row.Dim != 4+NumNumericFeatures {
		t.Fatalf("expected combined width %d, got %d", 4+NumNumericFeatures, row.Dim)
	}
	expected := []float64{1, 1, 1, 0, 8.5, 2, 3, 2, 17, 6}
	for i, v := range row.Dense() {
		if v != expected[i] {
			t.Fatalf("combined column %d = %v, expected %v", i, v, expected[i])
		}
	}
}

func TestPredictorFewerLabelsThanTopK(t *testing.T) {
	bundle := testBundle(t, &fakeClassifier{probs: []float64{0.2, 0.8}}, "A", "B")
	predictor, err := NewPredictor(bundle, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	predictions, err := predictor.Predict(sampleRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(predictions) != 2 || predictions[0].Role != "B" || predictions[1].Role != "A" {
		t.Fatalf("unexpected predictions %+v", predictions)
	}
}

func TestPredictorPropagatesErrors(t *testing.T) {
	failure := errors.New("boom")
	bundle := testBundle(t, &fakeClassifier{err: failure}, "A")
	predictor, _ := NewPredictor(bundle, 3)
	if _, err := predictor.Predict(sampleRecord()); !errors.Is(err, failure) {
		t.Fatalf("expected classifier error, got %v", err)
	}

	bundle = testBundle(t, &fakeClassifier{probs: []float64{0.5, 0.5}}, "only")
	predictor, _ = NewPredictor(bundle, 3)
	if _, err := predictor.Predict(sampleRecord()); !errors.Is(err, ErrLabelRange) {
		t.Fatalf("expected ErrLabelRange, got %v", err)
	}
}

func TestPredictorWithFittedArtifacts(t *testing.T) {
	vectorizer := loadTestVectorizer(t, `{"vocabulary": {"python": 0, "finance": 1}, "idf": [1, 1]}`)
	scaler, err := LoadScaler([]byte(`{"mean": [7, 3, 2, 1, 20, 2], "scale": [1, 2, 1, 1, 10, 2]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	classifier, err := LoadClassifier([]byte(`{"kind": "logistic_regression",
		"coef": [[2, -1, 0.1, 0, 0.3, 0, 0, 0], [-1, 2, 0, 0.2, 0, 0.1, 0, 0], [0, 0, 0, 0, 0, 0, 0.5, 0.5]],
		"intercept": [0.1, 0.2, -0.3]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	labels, err := LoadLabelEncoder([]byte(`{"classes": ["Data Scientist", "Financial Analyst", "Cloud Engineer"]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bundle, err := NewBundle(vectorizer, scaler, classifier, labels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	predictor, _ := NewPredictor(bundle, 3)
	predictions, err := predictor.Predict(sampleRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(predictions) != 3 {
		t.Fatalf("expected 3 predictions, got %d", len(predictions))
	}
	if predictions[0].Role != "Data Scientist" {
		t.Fatalf("expected Data Scientist first, got %+v", predictions)
	}
	total := 0.0
	for i, p := range predictions {
		if i > 0 && p.Confidence > predictions[i-1].Confidence {
			t.Fatalf("predictions not sorted: %+v", predictions)
		}
		if scaled := float64(p.Confidence) * 100; math.Abs(scaled-math.Round(scaled)) > 1e-6 {
			t.Fatalf("confidence %v not rounded to 2 decimals", p.Confidence)
		}
		total += float64(p.Confidence)
	}
	if total > 100.01 {
		t.Fatalf("confidences sum above 100: %v", total)
	}
}

func TestNewBundleChecksWidths(t *testing.T) {
	vectorizer := loadTestVectorizer(t, `{"vocabulary": {"python": 0}, "idf": [1]}`)
	scaler := &StandardScaler{Mean: make([]float64, 6), Scale: []float64{1, 1, 1, 1, 1, 1}}
	labels := &LabelEncoder{Classes: []string{"A", "B"}}

	narrow := &LogisticRegression{Coef: [][]float64{make([]float64, 6)}, Intercept: []float64{0}}
	if _, err := NewBundle(vectorizer, scaler, narrow, labels); !errors.Is(err, ErrDimension) {
		t.Fatalf("expected ErrDimension, got %v", err)
	}

	badScaler := &StandardScaler{Mean: []float64{0}, Scale: []float64{1}}
	fits := &LogisticRegression{Coef: [][]float64{make([]float64, 7)}, Intercept: []float64{0}}
	if _, err := NewBundle(vectorizer, badScaler, fits, labels); !errors.Is(err, ErrDimension) {
		t.Fatalf("expected ErrDimension, got %v", err)
	}

	three := &LabelEncoder{Classes: []string{"A", "B", "C"}}
	if _, err := NewBundle(vectorizer, scaler, fits, three); err == nil {
		t.Fatal("expected class count mismatch")
	}
	if _, err := NewBundle(vectorizer, scaler, fits, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewBundle(nil, scaler, fits, labels); err == nil {
		t.Fatal("expected error for missing vectorizer")
	}
}

func TestTopIndicesStableTies(t *testing.T) {
	indices := TopIndices([]float64{0.2, 0.3, 0.3, 0.2}, 3)
	want := []int{1, 2, 0}
	for i := range want {
		if indices[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, indices)
		}
	}
}

func TestRoundPercent(t *testing.T) {
	cases := map[float64]float64{
		0.45:      45,
		0.333333:  33.33,
		0.0066666: 0.67,
		1:         100,
		0:         0,
	}
	for p, expected := range cases {
		if got := RoundPercent(p); got != expected {
			t.Fatalf("RoundPercent(%v) = %v, expected %v", p, got, expected)
		}
	}
}

func TestPredictionJSON(t *testing.T) {
	payload, err := json.Marshal([]Prediction{{Role: "Data Scientist", Confidence: 100}, {Role: "Analyst", Confidence: 12.5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := `[{"role":"Data Scientist","confidence":100.0},{"role":"Analyst","confidence":12.5}]`
	if string(payload) != expected {
		t.Fatalf("unexpected JSON %s", payload)
	}
	var decoded []Prediction
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded[0].Confidence != 100 {
		t.Fatalf("unexpected decoded value %+v", decoded)
	}
}
