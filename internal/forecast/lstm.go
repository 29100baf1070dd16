package forecast

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/goccy/go-json"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

// Architecture constants. They must match the exported training weights.
const (
	InputSize  = FeatureCount
	HiddenSize = 64
	NumLayers  = 2
	OutputSize = 1
)

// lstmLayer holds one recurrent layer. Gate blocks are stacked i, f, g, o.
type lstmLayer struct {
	weightIH [][]float64 // 4H x in
	weightHH [][]float64 // 4H x H
	bias     []float64   // bias_ih + bias_hh, 4H
}

// LSTM is an immutable stacked LSTM with a linear head on the last step.
type LSTM struct {
	hidden int
	layers []lstmLayer
	fcW    []float64 // H
	fcB    float64
}

// Forward runs the network over w and returns the single output unit.
// It reads the weights only, so concurrent calls are safe.
func (m *LSTM) Forward(w Window) float64 {
	seq := make([][]float64, len(w))
	for t, row := range w {
		seq[t] = append([]float64(nil), row[:]...)
	}

	for _, layer := range m.layers {
		seq = layer.run(seq, m.hidden)
	}

	last := seq[len(seq)-1]
	out := m.fcB
	for j, v := range last {
		out += m.fcW[j] * v
	}
	return out
}

func (l *lstmLayer) run(seq [][]float64, hidden int) [][]float64 {
	h := make([]float64, hidden)
	c := make([]float64, hidden)
	gates := make([]float64, 4*hidden)
	out := make([][]float64, len(seq))

	for t, x := range seq {
		for g := range gates {
			sum := l.bias[g]
			for k, v := range x {
				sum += l.weightIH[g][k] * v
			}
			for k, v := range h {
				sum += l.weightHH[g][k] * v
			}
			gates[g] = sum
		}

		next := make([]float64, hidden)
		for j := 0; j < hidden; j++ {
			i := sigmoid(gates[j])
			f := sigmoid(gates[hidden+j])
			g := math.Tanh(gates[2*hidden+j])
			o := sigmoid(gates[3*hidden+j])
			c[j] = f*c[j] + i*g
			next[j] = o * math.Tanh(c[j])
		}
		h = next
		out[t] = next
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// LoadLSTM reads a weights artifact: a JSON object of state-dict keys
// (lstm.weight_ih_l0, ..., fc.weight, fc.bias) to nested arrays, optionally gzip-compressed.
func LoadLSTM(path string) (*LSTM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open model %s: %v", domain.ErrArtifactMissing, path, err)
	}
	defer f.Close()

	return DecodeLSTM(f)
}

// DecodeLSTM parses and shape-checks a weights document.
func DecodeLSTM(r io.Reader) (*LSTM, error) {
	body, err := maybeGunzip(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read model: %v", domain.ErrArtifactMissing, err)
	}

	var state map[string]json.RawMessage
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("%w: decode model: %v", domain.ErrArtifactMissing, err)
	}

	sd := stateDict(state)
	m := &LSTM{hidden: HiddenSize, layers: make([]lstmLayer, NumLayers)}

	for k := 0; k < NumLayers; k++ {
		in := InputSize
		if k > 0 {
			in = HiddenSize
		}

		wih, err := sd.matrix(fmt.Sprintf("lstm.weight_ih_l%d", k), 4*HiddenSize, in)
		if err != nil {
			return nil, err
		}
		whh, err := sd.matrix(fmt.Sprintf("lstm.weight_hh_l%d", k), 4*HiddenSize, HiddenSize)
		if err != nil {
			return nil, err
		}
		bih, err := sd.vector(fmt.Sprintf("lstm.bias_ih_l%d", k), 4*HiddenSize)
		if err != nil {
			return nil, err
		}
		bhh, err := sd.vector(fmt.Sprintf("lstm.bias_hh_l%d", k), 4*HiddenSize)
		if err != nil {
			return nil, err
		}

		bias := make([]float64, 4*HiddenSize)
		for i := range bias {
			bias[i] = bih[i] + bhh[i]
		}
		m.layers[k] = lstmLayer{weightIH: wih, weightHH: whh, bias: bias}
	}

	fcW, err := sd.matrix("fc.weight", OutputSize, HiddenSize)
	if err != nil {
		return nil, err
	}
	fcB, err := sd.vector("fc.bias", OutputSize)
	if err != nil {
		return nil, err
	}
	m.fcW = fcW[0]
	m.fcB = fcB[0]

	return m, nil
}

type stateDict map[string]json.RawMessage

func (sd stateDict) matrix(key string, rows, cols int) ([][]float64, error) {
	raw, ok := sd[key]
	if !ok {
		return nil, fmt.Errorf("%w: model is missing %s", domain.ErrArtifactMissing, key)
	}
	var m [][]float64
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrArtifactMissing, key, err)
	}
	if len(m) != rows {
		return nil, fmt.Errorf("%w: %s has %d rows, want %d", domain.ErrArtifactMissing, key, len(m), rows)
	}
	for i, row := range m {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: %s row %d has %d columns, want %d",
				domain.ErrArtifactMissing, key, i, len(row), cols)
		}
	}
	return m, nil
}

func (sd stateDict) vector(key string, size int) ([]float64, error) {
	raw, ok := sd[key]
	if !ok {
		return nil, fmt.Errorf("%w: model is missing %s", domain.ErrArtifactMissing, key)
	}
	var v []float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrArtifactMissing, key, err)
	}
	if len(v) != size {
		return nil, fmt.Errorf("%w: %s has %d values, want %d", domain.ErrArtifactMissing, key, len(v), size)
	}
	return v, nil
}
