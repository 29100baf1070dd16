package forecast

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

// Scaler applies pre-fitted per-feature normalization. Implementations are
// immutable; nothing in this package ever fits parameters.
type Scaler interface {
	Transform(w Window) Window
	InverseTransformRow(r Row) Row
}

// InverseTransformSales inverts a scaled sales value. The model emits the sales
// column only, so a full row is synthesized with zeros in the other slots and
// only the inverted sales column is kept.
func InverseTransformSales(s Scaler, scaled float64) float64 {
	var row Row
	row[FeatureSales] = scaled
	return s.InverseTransformRow(row)[FeatureSales]
}

// MinMaxScaler maps x to x*scale + min.
type MinMaxScaler struct {
	Min   Row
	Scale Row
}

func (s *MinMaxScaler) Transform(w Window) Window {
	var out Window
	for i, row := range w {
		for j, v := range row {
			out[i][j] = v*s.Scale[j] + s.Min[j]
		}
	}
	return out
}

func (s *MinMaxScaler) InverseTransformRow(r Row) Row {
	var out Row
	for j, v := range r {
		out[j] = (v - s.Min[j]) / nonZero(s.Scale[j])
	}
	return out
}

// StandardScaler maps x to (x - mean) / scale.
type StandardScaler struct {
	Mean  Row
	Scale Row
}

func (s *StandardScaler) Transform(w Window) Window {
	var out Window
	for i, row := range w {
		for j, v := range row {
			out[i][j] = (v - s.Mean[j]) / nonZero(s.Scale[j])
		}
	}
	return out
}

func (s *StandardScaler) InverseTransformRow(r Row) Row {
	var out Row
	for j, v := range r {
		out[j] = v*nonZero(s.Scale[j]) + s.Mean[j]
	}
	return out
}

// IdentityScaler leaves values untouched.
type IdentityScaler struct{}

func (IdentityScaler) Transform(w Window) Window    { return w }
func (IdentityScaler) InverseTransformRow(r Row) Row { return r }

// A zero range or variance is stored as scale 0 and treated as 1.
func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

type scalerDocument struct {
	Kind  string    `json:"kind"`
	Min   []float64 `json:"min_"`
	Mean  []float64 `json:"mean_"`
	Scale []float64 `json:"scale_"`
}

// LoadScaler reads a scaler artifact. The file is JSON, optionally gzip-compressed.
func LoadScaler(path string) (Scaler, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open scaler %s: %v", domain.ErrArtifactMissing, path, err)
	}
	defer f.Close()

	return DecodeScaler(f)
}

// DecodeScaler parses a scaler document from r.
func DecodeScaler(r io.Reader) (Scaler, error) {
	body, err := maybeGunzip(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read scaler: %v", domain.ErrArtifactMissing, err)
	}

	var doc scalerDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode scaler: %v", domain.ErrArtifactMissing, err)
	}

	scale, err := toRow("scale_", doc.Scale)
	if err != nil {
		return nil, err
	}

	switch doc.Kind {
	case "minmax", "":
		min, err := toRow("min_", doc.Min)
		if err != nil {
			return nil, err
		}
		return &MinMaxScaler{Min: min, Scale: scale}, nil
	case "standard":
		mean, err := toRow("mean_", doc.Mean)
		if err != nil {
			return nil, err
		}
		return &StandardScaler{Mean: mean, Scale: scale}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported scaler kind %q", domain.ErrArtifactMissing, doc.Kind)
	}
}

func toRow(name string, values []float64) (Row, error) {
	var row Row
	if len(values) != FeatureCount {
		return row, fmt.Errorf("%w: scaler %s has %d values, want %d",
			domain.ErrArtifactMissing, name, len(values), FeatureCount)
	}
	copy(row[:], values)
	return row, nil
}
