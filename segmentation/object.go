package segmentation

import (
	pc "github.com/plyproc/plyproc/pointcloud"
	"github.com/plyproc/plyproc/spatialmath"
)

// Object extends PointCloud with a bounding box of the points.
type Object struct {
	pc.PointCloud
	Geometry *spatialmath.Box
}

// NewObject creates a new object from a point cloud with an oriented
// bounding box fit around it.
func NewObject(cloud pc.PointCloud) (*Object, error) {
	if cloud == nil {
		cloud = pc.New()
	}
	if cloud.Size() == 0 {
		return &Object{PointCloud: cloud}, nil
	}
	box, err := OrientedBoundingBox(cloud)
	if err != nil {
		return nil, err
	}
	return &Object{PointCloud: cloud, Geometry: box}, nil
}
