package spatialmath

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

// 45 degree rotation about the z axis.
var quatZ45 = quat.Number{Real: math.Cos(math.Pi / 8), Kmag: math.Sin(math.Pi / 8)}

func TestNewBox(t *testing.T) {
	_, err := NewBox(NewZeroPose(), r3.Vector{X: -1, Y: 1, Z: 1}, "")
	test.That(t, err, test.ShouldNotBeNil)

	box, err := NewBox(NewPoseFromPoint(r3.Vector{X: 1, Y: 2, Z: 3}), r3.Vector{X: 2, Y: 4, Z: 6}, "mybox")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, box.Dims(), test.ShouldResemble, r3.Vector{X: 2, Y: 4, Z: 6})
	test.That(t, box.Volume(), test.ShouldEqual, 48.0)
	test.That(t, box.Pose().Point(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, box.Label(), test.ShouldEqual, "mybox")
	box.SetLabel("other")
	test.That(t, box.Label(), test.ShouldEqual, "other")
	test.That(t, box.String(), test.ShouldContainSubstring, "Box")

	// zero dims are allowed for degenerate boxes
	_, err = NewBox(NewZeroPose(), r3.Vector{}, "")
	test.That(t, err, test.ShouldBeNil)
}

func TestBoxVertices(t *testing.T) {
	box, err := NewBox(NewZeroPose(), r3.Vector{X: 2, Y: 2, Z: 2}, "")
	test.That(t, err, test.ShouldBeNil)
	verts := box.Vertices()
	test.That(t, len(verts), test.ShouldEqual, 8)
	test.That(t, verts[0], test.ShouldResemble, r3.Vector{X: 1, Y: 1, Z: 1})
	test.That(t, verts[7], test.ShouldResemble, r3.Vector{X: -1, Y: -1, Z: -1})

	// every edge of a cube has the same length
	for _, edge := range BoxEdgeIndices {
		length := verts[edge[0]].Sub(verts[edge[1]]).Norm()
		test.That(t, length, test.ShouldAlmostEqual, 2.0)
	}

	// rotating the box moves its corners
	box, err = NewBox(NewPose(r3.Vector{}, quatZ45), r3.Vector{X: 2, Y: 2, Z: 2}, "")
	test.That(t, err, test.ShouldBeNil)
	verts = box.Vertices()
	test.That(t, verts[0].X, test.ShouldAlmostEqual, 0)
	test.That(t, verts[0].Y, test.ShouldAlmostEqual, math.Sqrt2)
	test.That(t, verts[0].Z, test.ShouldAlmostEqual, 1)
}

func TestBoxAxisAligned(t *testing.T) {
	box, err := NewBox(NewZeroPose(), r3.Vector{X: 1, Y: 2, Z: 3}, "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, box.AxisAligned(), test.ShouldBeTrue)

	// quarter turns keep the axes on the world axes
	box, err = NewBox(NewPose(r3.Vector{}, quat.Number{Real: math.Sqrt2 / 2, Kmag: math.Sqrt2 / 2}), r3.Vector{X: 1, Y: 2, Z: 3}, "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, box.AxisAligned(), test.ShouldBeTrue)

	box, err = NewBox(NewPose(r3.Vector{}, quatZ45), r3.Vector{X: 1, Y: 2, Z: 3}, "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, box.AxisAligned(), test.ShouldBeFalse)
}

func TestBoxContains(t *testing.T) {
	box, err := NewBox(NewPoseFromPoint(r3.Vector{X: 1, Y: 1, Z: 1}), r3.Vector{X: 2, Y: 2, Z: 2}, "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, box.Contains(r3.Vector{X: 1, Y: 1, Z: 1}), test.ShouldBeTrue)
	test.That(t, box.Contains(r3.Vector{X: 1.5, Y: 1.5, Z: 1.5}), test.ShouldBeTrue)
	test.That(t, box.Contains(r3.Vector{X: 2, Y: 1, Z: 1}), test.ShouldBeTrue) // on the face
	test.That(t, box.Contains(r3.Vector{X: 2.1, Y: 1, Z: 1}), test.ShouldBeFalse)

	// a corner of the axis aligned box is outside the rotated box
	rotated, err := NewBox(NewPose(r3.Vector{}, quatZ45), r3.Vector{X: 2, Y: 2, Z: 2}, "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rotated.Contains(r3.Vector{X: 0.9, Y: 0.9, Z: 0}), test.ShouldBeFalse)
	test.That(t, rotated.Contains(r3.Vector{X: 1.3, Y: 0, Z: 0}), test.ShouldBeTrue)
}

func TestBoxClosestPoint(t *testing.T) {
	box, err := NewBox(NewZeroPose(), r3.Vector{X: 2, Y: 2, Z: 2}, "")
	test.That(t, err, test.ShouldBeNil)

	// a point inside the box is its own closest point
	inside := r3.Vector{X: 0.5, Y: -0.25, Z: 0}
	got := box.ClosestPoint(inside)
	test.That(t, got.X, test.ShouldAlmostEqual, inside.X)
	test.That(t, got.Y, test.ShouldAlmostEqual, inside.Y)
	test.That(t, got.Z, test.ShouldAlmostEqual, inside.Z)

	got = box.ClosestPoint(r3.Vector{X: 5, Y: 0.5, Z: 0})
	test.That(t, got.X, test.ShouldAlmostEqual, 1)
	test.That(t, got.Y, test.ShouldAlmostEqual, 0.5)
	test.That(t, got.Z, test.ShouldAlmostEqual, 0)

	got = box.ClosestPoint(r3.Vector{X: 5, Y: 5, Z: 5})
	test.That(t, got.X, test.ShouldAlmostEqual, 1)
	test.That(t, got.Y, test.ShouldAlmostEqual, 1)
	test.That(t, got.Z, test.ShouldAlmostEqual, 1)
}

func TestBoxAlmostEqual(t *testing.T) {
	original, err := NewBox(NewZeroPose(), r3.Vector{X: 1, Y: 1, Z: 1}, "")
	test.That(t, err, test.ShouldBeNil)
	good, err := NewBox(NewZeroPose(), r3.Vector{X: 1, Y: 1, Z: 1}, "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, original.AlmostEqual(good), test.ShouldBeTrue)

	// opposite quaternions represent the same orientation
	negated, err := NewBox(NewPose(r3.Vector{}, quat.Number{Real: -1}), r3.Vector{X: 1, Y: 1, Z: 1}, "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, original.AlmostEqual(negated), test.ShouldBeTrue)

	bad, err := NewBox(NewZeroPose(), r3.Vector{X: 1, Y: 1, Z: 2}, "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, original.AlmostEqual(bad), test.ShouldBeFalse)
}

func TestBoxTransform(t *testing.T) {
	box, err := NewBox(NewPoseFromPoint(r3.Vector{X: 1, Y: 0, Z: 0}), r3.Vector{X: 2, Y: 2, Z: 2}, "labeled")
	test.That(t, err, test.ShouldBeNil)

	moved := box.Transform(NewPoseFromPoint(r3.Vector{X: 0, Y: 5, Z: 0}))
	test.That(t, moved.Pose().Point(), test.ShouldResemble, r3.Vector{X: 1, Y: 5, Z: 0})
	test.That(t, moved.Dims(), test.ShouldResemble, r3.Vector{X: 2, Y: 2, Z: 2})
	test.That(t, moved.Label(), test.ShouldEqual, "labeled")

	// rotating about the origin moves the box center
	moved = box.Transform(NewPose(r3.Vector{}, quat.Number{Real: math.Sqrt2 / 2, Kmag: math.Sqrt2 / 2}))
	test.That(t, moved.Pose().Point().X, test.ShouldAlmostEqual, 0)
	test.That(t, moved.Pose().Point().Y, test.ShouldAlmostEqual, 1)
}

func TestBoxMarshalJSON(t *testing.T) {
	box, err := NewBox(NewPoseFromPoint(r3.Vector{X: 1, Y: 2, Z: 3}), r3.Vector{X: 4, Y: 5, Z: 6}, "mybox")
	test.That(t, err, test.ShouldBeNil)

	data, err := json.Marshal(box)
	test.That(t, err, test.ShouldBeNil)

	var conf boxConfig
	test.That(t, json.Unmarshal(data, &conf), test.ShouldBeNil)
	test.That(t, conf.Center, test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, conf.Orientation, test.ShouldResemble, [4]float64{1, 0, 0, 0})
	test.That(t, conf.DimsMM, test.ShouldResemble, r3.Vector{X: 4, Y: 5, Z: 6})
	test.That(t, conf.Label, test.ShouldEqual, "mybox")
}
