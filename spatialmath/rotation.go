package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a 3x3 matrix in row major order.
// m[3*r + c] is the element in the r'th row and c'th column.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates the rotation matrix from a slice of floats.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, newRotationMatrixInputError(m)
	}
	mat := [9]float64{m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8]}
	return &RotationMatrix{mat}, nil
}

// RotationMatrixFromQuaternion converts a unit quaternion to a rotation matrix.
func RotationMatrixFromQuaternion(q quat.Number) *RotationMatrix {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return &RotationMatrix{[9]float64{
		1 - 2*y*y - 2*z*z, 2*x*y - 2*z*w, 2*x*z + 2*y*w,
		2*x*y + 2*z*w, 1 - 2*x*x - 2*z*z, 2*y*z - 2*x*w,
		2*x*z - 2*y*w, 2*y*z + 2*x*w, 1 - 2*x*x - 2*y*y,
	}}
}

// At returns the float corresponding to the element at the specified location.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[3*row+col]
}

// Row returns the a vector containing the row values corresponding to the
// given index.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[3*row], Y: rm.mat[3*row+1], Z: rm.mat[3*row+2]}
}

// Col returns the a vector containing the column values corresponding to the
// given index.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.mat[col], Y: rm.mat[3+col], Z: rm.mat[6+col]}
}

// Mul returns the product of the rotation matrix with an r3 vector.
func (rm *RotationMatrix) Mul(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: rm.mat[0]*v.X + rm.mat[1]*v.Y + rm.mat[2]*v.Z,
		Y: rm.mat[3]*v.X + rm.mat[4]*v.Y + rm.mat[5]*v.Z,
		Z: rm.mat[6]*v.X + rm.mat[7]*v.Y + rm.mat[8]*v.Z,
	}
}

// Quaternion converts the rotation matrix to a unit quaternion using
// Shepperd's method.
func (rm *RotationMatrix) Quaternion() quat.Number {
	m := rm.mat
	tr := m[0] + m[4] + m[8]
	var w, x, y, z float64
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1.0) * 2
		w = 0.25 * s
		x = (m[7] - m[5]) / s
		y = (m[2] - m[6]) / s
		z = (m[3] - m[1]) / s
	case m[0] > m[4] && m[0] > m[8]:
		s := math.Sqrt(1.0+m[0]-m[4]-m[8]) * 2
		w = (m[7] - m[5]) / s
		x = 0.25 * s
		y = (m[1] + m[3]) / s
		z = (m[2] + m[6]) / s
	case m[4] > m[8]:
		s := math.Sqrt(1.0+m[4]-m[0]-m[8]) * 2
		w = (m[2] - m[6]) / s
		x = (m[1] + m[3]) / s
		y = 0.25 * s
		z = (m[5] + m[7]) / s
	default:
		s := math.Sqrt(1.0+m[8]-m[0]-m[4]) * 2
		w = (m[3] - m[1]) / s
		x = (m[2] + m[6]) / s
		y = (m[5] + m[7]) / s
		z = 0.25 * s
	}
	return quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}
}
