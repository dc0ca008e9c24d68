package dataset

import (
	"fmt"

	"github.com/ltss/ltss-api/schema"
)

const (
	// ModelInputSize is the 8x8 grid the point predictor consumes
	ModelInputSize = 64
	// VectorScale multiplies model inputs
	VectorScale = 25
)

// FlattenVector orders the vector by selector, filling -1 for missing values
func FlattenVector(v schema.Vector, selectors []string) []float64 {
	values := make([]float64, len(selectors))
	for i, s := range selectors {
		if value, ok := v[s]; ok {
			values[i] = value
		} else {
			values[i] = schema.MissingValue
		}
	}
	return values
}

// ReshapeVector prepares a vector as point predictor input: flattened,
// zero padded to ModelInputSize and scaled by VectorScale
func ReshapeVector(v schema.Vector, selectors []string) ([]float64, error) {
	if len(selectors) > ModelInputSize {
		return nil, fmt.Errorf("%d selectors do not fit a model input of %d", len(selectors), ModelInputSize)
	}

	input := make([]float64, ModelInputSize)
	for i, value := range FlattenVector(v, selectors) {
		input[i] = value * VectorScale
	}
	return input, nil
}

// VectorToMap reverses ReshapeVector or FlattenVector. Padding past the
// selectors is dropped.
func VectorToMap(values []float64, selectors []string, scale float64) schema.Vector {
	if scale == 0 {
		scale = 1
	}

	v := make(schema.Vector, len(selectors))
	for i, s := range selectors {
		if i >= len(values) {
			break
		}
		v[s] = values[i] / scale
	}
	return v
}
