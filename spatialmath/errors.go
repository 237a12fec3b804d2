package spatialmath

import "github.com/pkg/errors"

func newBadBoxDimensionsError(dims interface{}) error {
	return errors.Errorf("box dimensions can not be negative, got %v", dims)
}

func newRotationMatrixInputError(m []float64) error {
	return errors.Errorf("input slice has %d elements, need exactly 9", len(m))
}
