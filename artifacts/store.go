package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"edu2job/config"
	"edu2job/ml"
)

var ErrArtifact = errors.New("artifact load failed")

// Source yields the raw bytes of a named artifact.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	String() string
}

// DirSource reads artifacts from a local directory.
type DirSource struct {
	Dir string
}

func (s DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.Dir, name))
}

func (s DirSource) String() string { return s.Dir }

// NewSource picks an S3 source for s3://bucket/prefix locations and a
// local directory otherwise.
func NewSource(ctx context.Context, cfg *config.Config) (Source, error) {
	if strings.HasPrefix(cfg.ArtifactsDir, "s3://") {
		bucket, prefix, err := ParseS3URL(cfg.ArtifactsDir)
		if err != nil {
			return nil, err
		}
		src, err := NewS3Source(ctx, cfg.S3, bucket, prefix)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	return DirSource{Dir: cfg.ArtifactsDir}, nil
}

// Load reads and validates all four artifacts. It fails before any
// inference can happen when one is missing or inconsistent.
func Load(ctx context.Context, src Source, files config.Artifacts) (*ml.Bundle, error) {
	vectorizerData, err := read(ctx, src, files.Vectorizer)
	if err != nil {
		return nil, err
	}
	vectorizer, err := ml.LoadVectorizer(vectorizerData)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifact, files.Vectorizer, err)
	}

	scalerData, err := read(ctx, src, files.Scaler)
	if err != nil {
		return nil, err
	}
	scaler, err := ml.LoadScaler(scalerData)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifact, files.Scaler, err)
	}

	modelData, err := read(ctx, src, files.Model)
	if err != nil {
		return nil, err
	}
	model, err := ml.LoadClassifier(modelData)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifact, files.Model, err)
	}

	labelData, err := read(ctx, src, files.LabelEncoder)
	if err != nil {
		return nil, err
	}
	labels, err := ml.LoadLabelEncoder(labelData)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifact, files.LabelEncoder, err)
	}

	bundle, err := ml.NewBundle(vectorizer, scaler, model, labels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifact, err)
	}
	return bundle, nil
}

func read(ctx context.Context, src Source, name string) ([]byte, error) {
	r, err := src.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s from %s: %v", ErrArtifact, name, src, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s from %s: %v", ErrArtifact, name, src, err)
	}
	return data, nil
}
