package forecast

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandcast/backend-go/internal/metrics"
)

// ArtifactPaths locates the serialized model weights and scaler parameters.
type ArtifactPaths struct {
	ModelPath  string
	ScalerPath string
}

// Loader reads both artifacts from storage.
type Loader func(paths ArtifactPaths) (*LSTM, Scaler, error)

// LoadFromDisk is the default Loader.
func LoadFromDisk(paths ArtifactPaths) (*LSTM, Scaler, error) {
	scaler, err := LoadScaler(paths.ScalerPath)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("path", paths.ScalerPath).Msg("scaler loaded")

	model, err := LoadLSTM(paths.ModelPath)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("path", paths.ModelPath).Msg("lstm model loaded")

	return model, scaler, nil
}

// Artifacts owns the process-wide model and scaler. They are loaded on first
// use behind a mutex and shared read-only afterwards. A failed load is not
// cached, so a later call retries once the files are in place.
type Artifacts struct {
	paths ArtifactPaths
	load  Loader

	mu     sync.Mutex
	model  *LSTM
	scaler Scaler
}

// NewArtifacts returns a lazy holder. A nil loader defaults to LoadFromDisk.
func NewArtifacts(paths ArtifactPaths, load Loader) *Artifacts {
	if load == nil {
		load = LoadFromDisk
	}
	return &Artifacts{paths: paths, load: load}
}

// NewStaticArtifacts wraps already-loaded artifacts.
func NewStaticArtifacts(model *LSTM, scaler Scaler) *Artifacts {
	return &Artifacts{model: model, scaler: scaler}
}

// Get returns the loaded artifacts, loading them if needed.
func (a *Artifacts) Get(ctx context.Context) (*LSTM, Scaler, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.model != nil && a.scaler != nil {
		return a.model, a.scaler, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	model, scaler, err := a.load(a.paths)
	if err != nil {
		metrics.ArtifactLoads.WithLabelValues("error").Inc()
		return nil, nil, err
	}
	metrics.ArtifactLoads.WithLabelValues("ok").Inc()
	log.Info().Dur("elapsed", time.Since(start)).Msg("forecast artifacts ready")

	a.model, a.scaler = model, scaler
	return model, scaler, nil
}

// Loaded reports whether the artifacts are already in memory.
func (a *Artifacts) Loaded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model != nil && a.scaler != nil
}

// ScalerAdapter exposes the loaded scaler. Only artifact loading can fail.
type ScalerAdapter struct {
	artifacts *Artifacts
}

func NewScalerAdapter(artifacts *Artifacts) *ScalerAdapter {
	return &ScalerAdapter{artifacts: artifacts}
}

func (s *ScalerAdapter) Transform(ctx context.Context, w Window) (Window, error) {
	_, scaler, err := s.artifacts.Get(ctx)
	if err != nil {
		return Window{}, err
	}
	return scaler.Transform(w), nil
}

func (s *ScalerAdapter) InverseTransform(ctx context.Context, scaled float64) (float64, error) {
	_, scaler, err := s.artifacts.Get(ctx)
	if err != nil {
		return 0, err
	}
	return InverseTransformSales(scaler, scaled), nil
}

var gzipMagic = []byte{0x1f, 0x8b}

func maybeGunzip(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		return nil, err
	}
	if !bytes.Equal(head, gzipMagic) {
		return io.ReadAll(br)
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
