package spatialmath

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"github.com/plyproc/plyproc/utils"
)

// Ordered list of box vertices in the box frame, as half size multipliers.
var boxVertices = [8]r3.Vector{
	{X: 1, Y: 1, Z: 1},
	{X: 1, Y: 1, Z: -1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: -1},
	{X: -1, Y: 1, Z: 1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: -1, Y: -1, Z: -1},
}

// BoxEdgeIndices are the 12 edges of a box, as pairs of indices into the
// vertex list returned by Vertices (vertices differing in exactly one
// coordinate).
var BoxEdgeIndices = [12][2]int{
	{0, 1}, {0, 2}, {0, 4},
	{1, 3}, {1, 5},
	{2, 3}, {2, 6},
	{3, 7},
	{4, 5}, {4, 6},
	{5, 7},
	{6, 7},
}

// Box is a geometry that represents a 3D rectangular prism. It has a pose
// and half size that fully define it.
type Box struct {
	pose            Pose
	halfSize        [3]float64
	boundingSphereR float64
	label           string
	rotMatrix       *RotationMatrix
}

// NewBox instantiates a new box Geometry.
func NewBox(pose Pose, dims r3.Vector, label string) (*Box, error) {
	// Negative dimensions not allowed. Zero dimensions are allowed for
	// degenerate bounding boxes.
	if dims.X < 0 || dims.Y < 0 || dims.Z < 0 {
		return nil, newBadBoxDimensionsError(dims)
	}
	halfSize := dims.Mul(0.5)
	return &Box{
		pose:            pose,
		halfSize:        [3]float64{halfSize.X, halfSize.Y, halfSize.Z},
		boundingSphereR: halfSize.Norm(),
		label:           label,
	}, nil
}

// String returns a human readable string that represents the box.
func (b *Box) String() string {
	p := b.pose.Point()
	return fmt.Sprintf("Type: Box | Position: X:%.1f, Y:%.1f, Z:%.1f | Dims: X:%.1f, Y:%.1f, Z:%.1f",
		p.X, p.Y, p.Z, 2*b.halfSize[0], 2*b.halfSize[1], 2*b.halfSize[2])
}

// Label returns the label of this box.
func (b *Box) Label() string {
	return b.label
}

// SetLabel sets the label of this box.
func (b *Box) SetLabel(label string) {
	b.label = label
}

// Pose returns the pose of the box.
func (b *Box) Pose() Pose {
	return b.pose
}

// Dims returns the dimensions of the box along its own axes.
func (b *Box) Dims() r3.Vector {
	return r3.Vector{X: 2 * b.halfSize[0], Y: 2 * b.halfSize[1], Z: 2 * b.halfSize[2]}
}

// Volume returns the volume of the box.
func (b *Box) Volume() float64 {
	return 8 * b.halfSize[0] * b.halfSize[1] * b.halfSize[2]
}

// rotationMatrix returns the cached rotation matrix of the box pose.
func (b *Box) rotationMatrix() *RotationMatrix {
	if b.rotMatrix == nil {
		b.rotMatrix = RotationMatrixFromQuaternion(b.pose.Orientation())
	}
	return b.rotMatrix
}

// Vertices returns the 8 corners of the box in world coordinates.
// BoxEdgeIndices pairs indices into the returned list.
func (b *Box) Vertices() []r3.Vector {
	verts := make([]r3.Vector, 8)
	rm := b.rotationMatrix()
	center := b.pose.Point()
	for i, v := range boxVertices {
		offset := r3.Vector{X: v.X * b.halfSize[0], Y: v.Y * b.halfSize[1], Z: v.Z * b.halfSize[2]}
		verts[i] = center.Add(rm.Mul(offset))
	}
	return verts
}

// AxisAligned returns whether the box axes are aligned with the world axes.
func (b *Box) AxisAligned() bool {
	rm := b.rotationMatrix()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			v := math.Abs(rm.At(r, c))
			if !utils.Float64AlmostEqual(v, 0, 1e-8) && !utils.Float64AlmostEqual(v, 1, 1e-8) {
				return false
			}
		}
	}
	return true
}

// Contains returns whether the given point lies inside or on the box.
func (b *Box) Contains(pt r3.Vector) bool {
	direction := pt.Sub(b.pose.Point())
	rm := b.rotationMatrix()
	for i := 0; i < 3; i++ {
		axis := rm.Col(i)
		if math.Abs(direction.Dot(axis)) > b.halfSize[i]+1e-8 {
			return false
		}
	}
	return true
}

// ClosestPoint returns the closest point on the box to the given point.
func (b *Box) ClosestPoint(pt r3.Vector) r3.Vector {
	result := b.pose.Point()
	direction := pt.Sub(result)
	rm := b.rotationMatrix()
	for i := 0; i < 3; i++ {
		axis := rm.Col(i)
		distance := direction.Dot(axis)
		if distance > b.halfSize[i] {
			distance = b.halfSize[i]
		} else if distance < -b.halfSize[i] {
			distance = -b.halfSize[i]
		}
		result = result.Add(axis.Mul(distance))
	}
	return result
}

// AlmostEqual compares the box with another box and checks if they are equivalent.
func (b *Box) AlmostEqual(other *Box) bool {
	for i := 0; i < 3; i++ {
		if !utils.Float64AlmostEqual(b.halfSize[i], other.halfSize[i], 1e-8) {
			return false
		}
	}
	return PoseAlmostEqualEps(b.pose, other.pose, 1e-6)
}

// Transform premultiplies the box pose with a transform, allowing the box to
// be moved in space.
func (b *Box) Transform(toPremultiply Pose) *Box {
	return &Box{
		pose:            Compose(toPremultiply, b.pose),
		halfSize:        b.halfSize,
		boundingSphereR: b.boundingSphereR,
		label:           b.label,
	}
}

// boxConfig is the JSON representation of a box.
type boxConfig struct {
	Center      r3.Vector  `json:"center"`
	Orientation [4]float64 `json:"orientation"` // w, x, y, z
	DimsMM      r3.Vector  `json:"dims_mm"`
	Label       string     `json:"label,omitempty"`
}

// MarshalJSON serializes the center, orientation, dimensions and label of the box.
func (b *Box) MarshalJSON() ([]byte, error) {
	o := b.pose.Orientation()
	return json.Marshal(boxConfig{
		Center:      b.pose.Point(),
		Orientation: [4]float64{o.Real, o.Imag, o.Jmag, o.Kmag},
		DimsMM:      b.Dims(),
		Label:       b.label,
	})
}
