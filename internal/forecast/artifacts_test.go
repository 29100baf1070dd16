package forecast

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

func TestArtifactsLoadOnceUnderConcurrency(t *testing.T) {
	var calls atomic.Int32
	model := &LSTM{}
	a := NewArtifacts(ArtifactPaths{}, func(ArtifactPaths) (*LSTM, Scaler, error) {
		calls.Add(1)
		return model, IdentityScaler{}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _, err := a.Get(context.Background())
			assert.NoError(t, err)
			assert.Same(t, model, got)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	assert.True(t, a.Loaded())
}

func TestArtifactsRetryAfterFailure(t *testing.T) {
	var calls int
	a := NewArtifacts(ArtifactPaths{}, func(ArtifactPaths) (*LSTM, Scaler, error) {
		calls++
		if calls == 1 {
			return nil, nil, fmt.Errorf("%w: not yet", domain.ErrArtifactMissing)
		}
		return &LSTM{}, IdentityScaler{}, nil
	})

	_, _, err := a.Get(context.Background())
	assert.ErrorIs(t, err, domain.ErrArtifactMissing)
	assert.False(t, a.Loaded())

	_, _, err = a.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestArtifactsCancelledContext(t *testing.T) {
	a := NewArtifacts(ArtifactPaths{}, func(ArtifactPaths) (*LSTM, Scaler, error) {
		t.Fatal("loader must not run")
		return nil, nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := a.Get(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	scalerPath := filepath.Join(dir, "scaler.json")

	body, err := json.Marshal(stateDoc([4]float64{}, 0, 0.5))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(modelPath, body, 0o644))
	require.NoError(t, os.WriteFile(scalerPath,
		[]byte(`{"kind":"minmax","min_":[0,0,0,0,0],"scale_":[1,1,1,1,1]}`), 0o644))

	a := NewArtifacts(ArtifactPaths{ModelPath: modelPath, ScalerPath: scalerPath}, nil)
	adapter := NewScalerAdapter(a)

	w, err := adapter.Transform(context.Background(), sampleWindow())
	require.NoError(t, err)
	assert.Equal(t, sampleWindow(), w)

	v, err := adapter.InverseTransform(context.Background(), 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
}

func TestScalerAdapterMissingArtifacts(t *testing.T) {
	a := NewArtifacts(ArtifactPaths{ModelPath: "/nope/m.json", ScalerPath: "/nope/s.json"}, nil)
	adapter := NewScalerAdapter(a)

	_, err := adapter.Transform(context.Background(), Window{})
	assert.ErrorIs(t, err, domain.ErrArtifactMissing)

	_, err = adapter.InverseTransform(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrArtifactMissing)
}
