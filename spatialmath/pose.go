// Package spatialmath defines the poses and geometries used to locate point
// cloud features in 3D space.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/plyproc/plyproc/utils"
)

// Pose represents a position and orientation in 3D space.
type Pose interface {
	// Point returns the position of the pose.
	Point() r3.Vector
	// Orientation returns the orientation of the pose as a unit quaternion.
	Orientation() quat.Number
}

type basicPose struct {
	point       r3.Vector
	orientation quat.Number
}

// NewZeroPose returns a pose at the origin with no rotation.
func NewZeroPose() Pose {
	return &basicPose{orientation: quat.Number{Real: 1}}
}

// NewPose creates a pose from a point and an orientation quaternion.
func NewPose(point r3.Vector, orientation quat.Number) Pose {
	return &basicPose{point: point, orientation: orientation}
}

// NewPoseFromPoint creates a pose with the given point and no rotation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &basicPose{point: point, orientation: quat.Number{Real: 1}}
}

// NewPoseFromRotationMatrix creates a pose with the given point and the
// orientation of the given rotation matrix.
func NewPoseFromRotationMatrix(point r3.Vector, rm *RotationMatrix) Pose {
	return &basicPose{point: point, orientation: rm.Quaternion()}
}

func (p *basicPose) Point() r3.Vector {
	return p.point
}

func (p *basicPose) Orientation() quat.Number {
	return p.orientation
}

// Compose treats Poses as functions A(x) and B(x), and produces a new
// function C(x) = A(B(x)).
func Compose(a, b Pose) Pose {
	return &basicPose{
		point:       a.Point().Add(QuatRotate(a.Orientation(), b.Point())),
		orientation: quat.Mul(a.Orientation(), b.Orientation()),
	}
}

// QuatRotate rotates a vector by a unit quaternion.
func QuatRotate(q quat.Number, v r3.Vector) r3.Vector {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vector{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// PoseAlmostEqual checks if two poses are equal within 1e-8.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-8)
}

// PoseAlmostEqualEps checks if two poses are equal within epsilon. q and -q
// represent the same orientation and compare equal.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	if !utils.Float64AlmostEqual(a.Point().X, b.Point().X, epsilon) ||
		!utils.Float64AlmostEqual(a.Point().Y, b.Point().Y, epsilon) ||
		!utils.Float64AlmostEqual(a.Point().Z, b.Point().Z, epsilon) {
		return false
	}
	return QuatAlmostEqual(a.Orientation(), b.Orientation(), epsilon)
}

// QuatAlmostEqual checks if two unit quaternions represent orientations that
// are equal within epsilon.
func QuatAlmostEqual(q1, q2 quat.Number, epsilon float64) bool {
	dot := q1.Real*q2.Real + q1.Imag*q2.Imag + q1.Jmag*q2.Jmag + q1.Kmag*q2.Kmag
	return math.Abs(dot) > 1-epsilon
}
