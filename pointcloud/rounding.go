package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// roundingPointCloud is a PointCloud implementation that rounds all points to
// the closest integer before it sets or gets the point. Bare floats measured
// from sensors are not stored because even if two points are only
// 0.00000000002 apart, they would be considered different locations.
type roundingPointCloud struct {
	points storage
	meta   MetaData
}

// NewRoundingPointCloud returns a PointCloud that rounds all coordinates to
// the nearest integer.
func NewRoundingPointCloud() PointCloud {
	return &roundingPointCloud{
		points: &matrixStorage{points: []PointAndData{}, indexMap: map[r3.Vector]uint{}},
		meta:   NewMetaData(),
	}
}

func (cloud *roundingPointCloud) Size() int {
	return cloud.points.Size()
}

func (cloud *roundingPointCloud) MetaData() MetaData {
	return cloud.meta
}

func (cloud *roundingPointCloud) At(x, y, z float64) (Data, bool) {
	return cloud.points.At(math.Round(x), math.Round(y), math.Round(z))
}

// Set validates that the point can be precisely stored before setting it in the cloud.
func (cloud *roundingPointCloud) Set(p r3.Vector, d Data) error {
	p = r3.Vector{X: math.Round(p.X), Y: math.Round(p.Y), Z: math.Round(p.Z)}
	_, pointExists := cloud.At(p.X, p.Y, p.Z)
	if err := cloud.points.Set(p, d); err != nil {
		return err
	}
	if !pointExists {
		cloud.meta.Merge(p, d)
	}
	return nil
}

func (cloud *roundingPointCloud) Unset(x, y, z float64) {
	x, y, z = math.Round(x), math.Round(y), math.Round(z)
	if _, removed := cloud.points.Unset(x, y, z); removed {
		cloud.meta.totalX -= x
		cloud.meta.totalY -= y
		cloud.meta.totalZ -= z
	}
}

func (cloud *roundingPointCloud) Iterate(numBatches, myBatch int, fn func(p r3.Vector, d Data) bool) {
	cloud.points.Iterate(numBatches, myBatch, fn)
}
