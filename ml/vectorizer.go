package ml

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// defaultTokenPattern is the word pattern most text vectorizers are fitted
// with. It is matched natively because RE2 word boundaries are ASCII only.
const defaultTokenPattern = `(?u)\b\w\w+\b`

// TfidfVectorizer applies a fitted bag-of-words vocabulary with optional
// idf weighting. Kind "count" yields raw term counts.
type TfidfVectorizer struct {
	Kind         string         `json:"kind"`
	Vocabulary   map[string]int `json:"vocabulary"`
	IDF          []float64      `json:"idf,omitempty"`
	Lowercase    *bool          `json:"lowercase,omitempty"`
	StripAccents string         `json:"strip_accents,omitempty"`
	TokenPattern string         `json:"token_pattern,omitempty"`
	StopWords    []string       `json:"stop_words,omitempty"`
	NgramRange   [2]int         `json:"ngram_range"`
	Binary       bool           `json:"binary,omitempty"`
	SublinearTF  bool           `json:"sublinear_tf,omitempty"`
	UseIDF       *bool          `json:"use_idf,omitempty"`
	Norm         *string        `json:"norm,omitempty"`

	pattern   *regexp.Regexp
	stopWords map[string]struct{}
	ready     bool
}

// init validates the exported fields and prepares lookup state.
func (v *TfidfVectorizer) init() error {
	if len(v.Vocabulary) == 0 {
		return errors.New("vectorizer vocabulary is empty")
	}
	size := len(v.Vocabulary)
	seen := make([]bool, size)
	for term, idx := range v.Vocabulary {
		if idx < 0 || idx >= size || seen[idx] {
			return fmt.Errorf("vectorizer vocabulary has invalid index %d for %q", idx, term)
		}
		seen[idx] = true
	}
	if v.Kind == "" {
		v.Kind = "tfidf"
	}
	switch v.Kind {
	case "tfidf":
		if v.useIDF() && len(v.IDF) != size {
			return fmt.Errorf("%w: %d idf weights for %d terms", ErrDimension, len(v.IDF), size)
		}
	case "count":
	default:
		return fmt.Errorf("unsupported vectorizer kind %q", v.Kind)
	}
	if v.NgramRange == [2]int{} {
		v.NgramRange = [2]int{1, 1}
	}
	if v.NgramRange[0] < 1 || v.NgramRange[1] < v.NgramRange[0] {
		return fmt.Errorf("invalid ngram range %v", v.NgramRange)
	}
	switch v.StripAccents {
	case "", "unicode", "ascii":
	default:
		return fmt.Errorf("unsupported strip_accents %q", v.StripAccents)
	}
	switch v.norm() {
	case "", "l1", "l2":
	default:
		return fmt.Errorf("unsupported norm %q", v.norm())
	}
	if v.TokenPattern != "" && v.TokenPattern != defaultTokenPattern {
		re, err := regexp.Compile(v.TokenPattern)
		if err != nil {
			return fmt.Errorf("compile token pattern: %w", err)
		}
		if re.NumSubexp() > 1 {
			return errors.New("token pattern has more than one capture group")
		}
		v.pattern = re
	}
	if len(v.StopWords) > 0 {
		v.stopWords = make(map[string]struct{}, len(v.StopWords))
		for _, w := range v.StopWords {
			v.stopWords[w] = struct{}{}
		}
	}
	v.ready = true
	return nil
}

func (v *TfidfVectorizer) VocabularySize() int { return len(v.Vocabulary) }

// Transform maps text to a weighted term row. Weights are applied and
// normalized in ascending column order.
func (v *TfidfVectorizer) Transform(text string) (SparseRow, error) {
	if !v.ready {
		return SparseRow{}, errors.New("vectorizer was not loaded")
	}
	counts := make(map[int]float64)
	for _, term := range v.analyze(text) {
		if idx, ok := v.Vocabulary[term]; ok {
			counts[idx]++
		}
	}
	row, err := NewSparseRow(len(v.Vocabulary), counts)
	if err != nil {
		return SparseRow{}, err
	}
	if v.Kind != "tfidf" {
		if v.Binary {
			for i := range row.Values {
				row.Values[i] = 1
			}
		}
		return row, nil
	}

	for i, idx := range row.Indices {
		tf := row.Values[i]
		if v.Binary {
			tf = 1
		}
		if v.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		if v.useIDF() {
			tf *= v.IDF[idx]
		}
		row.Values[i] = tf
	}
	normalize(row.Values, v.norm())
	return row, nil
}

func (v *TfidfVectorizer) analyze(text string) []string {
	if v.Lowercase == nil || *v.Lowercase {
		text = cases.Lower(language.Und).String(text)
	}
	switch v.StripAccents {
	case "unicode":
		text = stripAccentsUnicode(text)
	case "ascii":
		text = stripAccentsASCII(text)
	}

	var tokens []string
	if v.pattern != nil {
		tokens = regexpTokens(v.pattern, text)
	} else {
		tokens = wordTokens(text)
	}
	if v.stopWords != nil {
		kept := tokens[:0]
		for _, tok := range tokens {
			if _, stop := v.stopWords[tok]; !stop {
				kept = append(kept, tok)
			}
		}
		tokens = kept
	}
	return ngrams(tokens, v.NgramRange[0], v.NgramRange[1])
}

func (v *TfidfVectorizer) useIDF() bool {
	return v.UseIDF == nil || *v.UseIDF
}

func (v *TfidfVectorizer) norm() string {
	switch {
	case v.Norm == nil:
		return "l2"
	case *v.Norm == "none":
		return ""
	}
	return *v.Norm
}

// wordTokens returns every maximal run of two or more word characters.
func wordTokens(text string) []string {
	var tokens []string
	start := -1
	runes := 0
	flush := func(end int) {
		if start >= 0 && runes >= 2 {
			tokens = append(tokens, text[start:end])
		}
		start, runes = -1, 0
	}
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			runes++
			continue
		}
		flush(i)
	}
	flush(len(text))
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func regexpTokens(re *regexp.Regexp, text string) []string {
	if re.NumSubexp() == 0 {
		return re.FindAllString(text, -1)
	}
	matches := re.FindAllStringSubmatch(text, -1)
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, m[1])
	}
	return tokens
}

func ngrams(tokens []string, minN, maxN int) []string {
	if maxN == 1 {
		return tokens
	}
	var out []string
	if minN == 1 {
		out = append(out, tokens...)
		minN = 2
	}
	for n := minN; n <= maxN && n <= len(tokens); n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

func normalize(values []float64, kind string) {
	total := 0.0
	switch kind {
	case "l2":
		for _, v := range values {
			total += v * v
		}
		total = math.Sqrt(total)
	case "l1":
		for _, v := range values {
			total += math.Abs(v)
		}
	default:
		return
	}
	if total == 0 {
		return
	}
	for i, v := range values {
		values[i] = v / total
	}
}

func stripAccentsUnicode(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if norm.NFKD.PropertiesString(string(r)).CCC() != 0 {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func stripAccentsASCII(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}
