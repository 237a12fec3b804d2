package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// voxelPlane is a Plane fit on voxel grid data during region growing.
type voxelPlane struct {
	normal    r3.Vector
	center    r3.Vector
	offset    float64
	points    []PointAndData
	voxelKeys []VoxelCoords
}

func (p *voxelPlane) Normal() r3.Vector {
	return p.normal
}

func (p *voxelPlane) Center() r3.Vector {
	return p.center
}

func (p *voxelPlane) Offset() float64 {
	return p.offset
}

// Equation returns the plane equation [0]x + [1]y + [2]z + [3] = 0.
func (p *voxelPlane) Equation() [4]float64 {
	return [4]float64{p.normal.X, p.normal.Y, p.normal.Z, p.offset}
}

// PointCloud builds and returns the point cloud of the plane's inliers.
func (p *voxelPlane) PointCloud() (PointCloud, error) {
	cloud := NewWithPrealloc(len(p.points))
	for _, pd := range p.points {
		if err := cloud.Set(pd.P, pd.D); err != nil {
			return nil, err
		}
	}
	return cloud, nil
}

// Distance computes the distance of a point to the plane.
func (p *voxelPlane) Distance(pt r3.Vector) float64 {
	norm := p.normal.Norm()
	if norm == 0 {
		return 0
	}
	return (p.normal.Dot(pt) + p.offset) / norm
}

// Intersect returns the intersection of the plane with the line through p0
// and p1, or nil if the line is parallel to the plane.
func (p *voxelPlane) Intersect(p0, p1 r3.Vector) *r3.Vector {
	line := p1.Sub(p0)
	parallel := p.normal.Dot(line)
	if math.Abs(parallel) < 1e-10 {
		return nil
	}
	fraction := -(p.normal.Dot(p0) + p.offset) / parallel
	result := p0.Add(line.Mul(fraction))
	return &result
}
