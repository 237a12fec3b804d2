package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/stat"
)

// VoxelDownsample returns a cloud with one point per occupied voxel of the
// given size, positioned at the barycenter of the points that fell in the
// voxel. The data of the first point seen in the voxel is carried over.
func VoxelDownsample(cloud PointCloud, voxelSize float64) (PointCloud, error) {
	if voxelSize <= 0 {
		return nil, errors.Errorf("voxelSize must be positive, got %f", voxelSize)
	}
	if cloud.Size() == 0 {
		return New(), nil
	}
	meta := cloud.MetaData()
	ptMin := r3.Vector{X: meta.MinX, Y: meta.MinY, Z: meta.MinZ}

	type accum struct {
		sum r3.Vector
		n   int
		d   Data
	}
	cells := make(map[VoxelCoords]*accum)
	cloud.Iterate(0, 0, func(pt r3.Vector, d Data) bool {
		coords := GetVoxelCoordinates(pt, ptMin, voxelSize)
		cell, ok := cells[coords]
		if !ok {
			cells[coords] = &accum{sum: pt, n: 1, d: d}
			return true
		}
		cell.sum = cell.sum.Add(pt)
		cell.n++
		return true
	})

	downsampled := NewWithPrealloc(len(cells))
	for _, cell := range cells {
		if err := downsampled.Set(cell.sum.Mul(1./float64(cell.n)), cell.d); err != nil {
			return nil, err
		}
	}
	return downsampled, nil
}

// RemoveStatisticalOutliers removes points whose mean distance to their k
// nearest neighbors exceeds the global mean by more than stddevRatio
// standard deviations. Clouds with no more than k points are returned
// unchanged.
func RemoveStatisticalOutliers(cloud PointCloud, k int, stddevRatio float64) (PointCloud, error) {
	if k < 1 {
		return nil, errors.Errorf("need at least one neighbor, got %d", k)
	}
	if stddevRatio <= 0 {
		return nil, errors.Errorf("stddevRatio must be positive, got %f", stddevRatio)
	}
	if cloud.Size() <= k {
		return cloud, nil
	}

	points := make([]PointAndData, 0, cloud.Size())
	data := make(kdtree.Points, 0, cloud.Size())
	cloud.Iterate(0, 0, func(pt r3.Vector, d Data) bool {
		points = append(points, PointAndData{P: pt, D: d})
		data = append(data, kdtree.Point{pt.X, pt.Y, pt.Z})
		return true
	})
	tree := kdtree.New(data, false)

	// mean distance of every point to its k nearest neighbors
	meanDists := make([]float64, len(points))
	for i, pd := range points {
		keep := kdtree.NewNKeeper(k + 1) // the nearest neighbor of a point is itself
		tree.NearestSet(keep, kdtree.Point{pd.P.X, pd.P.Y, pd.P.Z})
		sum := 0.
		n := 0
		for _, c := range keep.Heap {
			if c.Comparable == nil || c.Dist == 0 {
				continue
			}
			sum += math.Sqrt(c.Dist)
			n++
		}
		if n > 0 {
			meanDists[i] = sum / float64(n)
		}
	}

	mean, stddev := stat.MeanStdDev(meanDists, nil)
	threshold := mean + stddevRatio*stddev

	filtered := NewWithPrealloc(len(points))
	for i, pd := range points {
		if meanDists[i] > threshold {
			continue
		}
		if err := filtered.Set(pd.P, pd.D); err != nil {
			return nil, err
		}
	}
	return filtered, nil
}
