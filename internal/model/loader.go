package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Artifact is the serialized form of a trained model
type Artifact struct {
	Kind         string    `json:"kind"`
	Features     int       `json:"features"`
	Intercept    float64   `json:"intercept,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty"`
	Trees        []Tree    `json:"trees,omitempty"`
}

// Build turns a decoded artifact into a Predictor
func (a *Artifact) Build() (Predictor, error) {
	switch a.Kind {
	case KindLinear:
		if a.Features != 0 && a.Features != len(a.Coefficients) {
			return nil, fmt.Errorf("%w: %d features but %d coefficients",
				ErrInvalidArtifact, a.Features, len(a.Coefficients))
		}
		return NewLinear(a.Intercept, a.Coefficients)
	case KindForest:
		return NewForest(a.Features, a.Trees)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidArtifact, a.Kind)
	}
}

// Decode reads a JSON artifact and builds its Predictor
func Decode(r io.Reader) (Predictor, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	return a.Build()
}

// LoadFile loads an artifact from disk. Files ending in .gz or .zst are
// decompressed first.
func LoadFile(path string) (Predictor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, path, err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, path, err)
		}
		defer zr.Close()
		r = zr
	}

	p, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Loader resolves model files relative to a directory
type Loader struct {
	Dir string
}

// NewLoader creates a loader rooted at dir
func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// Load loads the named artifact
func (l *Loader) Load(file string) (Predictor, error) {
	if filepath.IsAbs(file) {
		return LoadFile(file)
	}
	return LoadFile(filepath.Join(l.Dir, file))
}
