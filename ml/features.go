package ml

import (
	"fmt"
	"strings"

	"edu2job/profile"
)

// NumNumericFeatures is the width of the numeric block appended after
// the text columns.
const NumNumericFeatures = 6

// Features is the derived, pre-vectorization view of one profile.
type Features struct {
	Degree         string
	Major          string
	Skills         string
	Certifications string

	CGPA         float64
	Experience   float64
	NumSkills    int
	NumCerts     int
	CGPAxExp     float64
	SkillsxCerts int

	ProfileText string
}

func BuildFeatures(rec profile.Record) Features {
	f := Features{
		Degree:         NormalizeText(rec.Degree),
		Major:          NormalizeText(rec.Major),
		Skills:         NormalizeText(rec.Skills),
		Certifications: NormalizeText(rec.Certifications),
		CGPA:           rec.CGPA,
		Experience:     rec.Experience,
	}
	f.NumSkills = CountTokens(f.Skills)
	f.NumCerts = CountTokens(f.Certifications)
	f.CGPAxExp = f.CGPA * f.Experience
	f.SkillsxCerts = f.NumSkills * f.NumCerts
	f.ProfileText = strings.Join([]string{f.Degree, f.Major, f.Skills, f.Certifications}, " ")
	return f
}

// NumericVector returns the numeric columns in training order.
func (f Features) NumericVector() []float64 {
	return []float64{
		f.CGPA,
		f.Experience,
		float64(f.NumSkills),
		float64(f.NumCerts),
		f.CGPAxExp,
		float64(f.SkillsxCerts),
	}
}

func NumericFeatureNames() []string {
	return []string{
		"CGPA",
		"Experience",
		"num_skills",
		"num_certs",
		"cgpa_x_exp",
		"skills_x_certs",
	}
}

// Combine vectorizes the profile text, scales the numeric block and
// stacks them: text columns first, then the six numeric columns.
func Combine(b *Bundle, f Features) (SparseRow, error) {
	text, err := b.vectorizer.Transform(f.ProfileText)
	if err != nil {
		return SparseRow{}, fmt.Errorf("vectorize profile text: %w", err)
	}
	scaled, err := b.scaler.Transform(f.NumericVector())
	if err != nil {
		return SparseRow{}, fmt.Errorf("scale numeric features: %w", err)
	}
	if len(scaled) != NumNumericFeatures {
		return SparseRow{}, fmt.Errorf("%w: scaler returned %d values", ErrDimension, len(scaled))
	}
	return HStack(text, DenseRow(scaled)), nil
}
