package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// Plane defines a planar object in a 3D space.
type Plane interface {
	// Equation returns the plane equation [0]x + [1]y + [2]z + [3] = 0.
	Equation() [4]float64
	// Normal returns the normal vector of the plane.
	Normal() r3.Vector
	// Center returns the vector of the center point of the plane's inliers.
	Center() r3.Vector
	// Offset returns the offset of the plane from the origin.
	Offset() float64
	// PointCloud returns the underlying point cloud of inliers that make up the plane.
	PointCloud() (PointCloud, error)
	// Distance returns the distance of a given point to the plane.
	Distance(p r3.Vector) float64
	// Intersect returns the intersection point of the plane with the line
	// defined by p0 and p1, or nil if the line is parallel to the plane.
	Intersect(p0, p1 r3.Vector) *r3.Vector
}

type pointcloudPlane struct {
	pointcloud PointCloud
	equation   [4]float64
	center     r3.Vector
}

// NewEmptyPlane initializes an empty plane object.
func NewEmptyPlane() Plane {
	return &pointcloudPlane{New(), [4]float64{}, r3.Vector{}}
}

// NewPlane creates a new plane object from a point cloud of inliers.
func NewPlane(cloud PointCloud, equation [4]float64) Plane {
	var center r3.Vector
	if cloud != nil {
		center = CloudCentroid(cloud)
	}
	return NewPlaneWithCenter(cloud, equation, center)
}

// NewPlaneWithCenter creates a new plane object with its center already known.
func NewPlaneWithCenter(cloud PointCloud, equation [4]float64, center r3.Vector) Plane {
	return &pointcloudPlane{cloud, equation, center}
}

func (p *pointcloudPlane) PointCloud() (PointCloud, error) {
	return p.pointcloud, nil
}

func (p *pointcloudPlane) Normal() r3.Vector {
	return r3.Vector{X: p.equation[0], Y: p.equation[1], Z: p.equation[2]}
}

func (p *pointcloudPlane) Center() r3.Vector {
	return p.center
}

func (p *pointcloudPlane) Offset() float64 {
	return p.equation[3]
}

func (p *pointcloudPlane) Equation() [4]float64 {
	return p.equation
}

// Distance calculates the signed distance from the plane to the input point,
// normalized by the norm of the plane's normal.
func (p *pointcloudPlane) Distance(pt r3.Vector) float64 {
	norm := p.Normal().Norm()
	if norm == 0 {
		return 0
	}
	return (p.equation[0]*pt.X + p.equation[1]*pt.Y + p.equation[2]*pt.Z + p.equation[3]) / norm
}

// Intersect calculates the intersection point of the plane with the line
// through p0 and p1. Returns nil if the line and plane do not intersect.
func (p *pointcloudPlane) Intersect(p0, p1 r3.Vector) *r3.Vector {
	line := p1.Sub(p0)
	parallel := p.Normal().Dot(line)
	if math.Abs(parallel) < 1e-10 {
		return nil
	}
	fraction := -(p.Normal().Dot(p0) + p.equation[3]) / parallel
	result := p0.Add(line.Mul(fraction))
	return &result
}
