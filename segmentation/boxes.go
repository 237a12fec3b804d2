package segmentation

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	pc "github.com/plyproc/plyproc/pointcloud"
	"github.com/plyproc/plyproc/spatialmath"
)

// AxisAlignedBoundingBox returns the smallest box aligned with the world axes
// that encloses all points in the cloud.
func AxisAlignedBoundingBox(cloud pc.PointCloud) (*spatialmath.Box, error) {
	if cloud.Size() == 0 {
		return nil, errors.New("cannot create a bounding box for an empty point cloud")
	}
	meta := cloud.MetaData()
	center := r3.Vector{
		X: (meta.MinX + meta.MaxX) / 2,
		Y: (meta.MinY + meta.MaxY) / 2,
		Z: (meta.MinZ + meta.MaxZ) / 2,
	}
	dims := r3.Vector{
		X: meta.MaxX - meta.MinX,
		Y: meta.MaxY - meta.MinY,
		Z: meta.MaxZ - meta.MinZ,
	}
	return spatialmath.NewBox(spatialmath.NewPoseFromPoint(center), dims, "")
}

// OrientedBoundingBox fits a box to the cloud oriented along the principal
// components of the point distribution. The box axes are the eigenvectors of
// the covariance matrix of the points, and the extents are taken from the
// projections of the points onto those axes.
func OrientedBoundingBox(cloud pc.PointCloud) (*spatialmath.Box, error) {
	if cloud.Size() == 0 {
		return nil, errors.New("cannot create a bounding box for an empty point cloud")
	}
	centroid := pc.CloudCentroid(cloud)

	cov := mat.NewSymDense(3, nil)
	cloud.Iterate(0, 0, func(p r3.Vector, d pc.Data) bool {
		dx, dy, dz := p.X-centroid.X, p.Y-centroid.Y, p.Z-centroid.Z
		cov.SetSym(0, 0, cov.At(0, 0)+dx*dx)
		cov.SetSym(0, 1, cov.At(0, 1)+dx*dy)
		cov.SetSym(0, 2, cov.At(0, 2)+dx*dz)
		cov.SetSym(1, 1, cov.At(1, 1)+dy*dy)
		cov.SetSym(1, 2, cov.At(1, 2)+dy*dz)
		cov.SetSym(2, 2, cov.At(2, 2)+dz*dz)
		return true
	})

	var eigen mat.EigenSym
	if ok := eigen.Factorize(cov, true); !ok {
		return nil, errors.New("could not factorize covariance matrix of the point cloud")
	}
	var vectors mat.Dense
	eigen.VectorsTo(&vectors)

	// eigenvalues are ascending; order the axes from largest variance to
	// smallest and force the frame to be right handed
	axes := [3]r3.Vector{
		{X: vectors.At(0, 2), Y: vectors.At(1, 2), Z: vectors.At(2, 2)},
		{X: vectors.At(0, 1), Y: vectors.At(1, 1), Z: vectors.At(2, 1)},
	}
	axes[2] = axes[0].Cross(axes[1])

	// project all points onto the axes to get the extents
	minProj := r3.Vector{X: 1e308, Y: 1e308, Z: 1e308}
	maxProj := r3.Vector{X: -1e308, Y: -1e308, Z: -1e308}
	cloud.Iterate(0, 0, func(p r3.Vector, d pc.Data) bool {
		rel := p.Sub(centroid)
		proj := r3.Vector{X: rel.Dot(axes[0]), Y: rel.Dot(axes[1]), Z: rel.Dot(axes[2])}
		if proj.X < minProj.X {
			minProj.X = proj.X
		}
		if proj.Y < minProj.Y {
			minProj.Y = proj.Y
		}
		if proj.Z < minProj.Z {
			minProj.Z = proj.Z
		}
		if proj.X > maxProj.X {
			maxProj.X = proj.X
		}
		if proj.Y > maxProj.Y {
			maxProj.Y = proj.Y
		}
		if proj.Z > maxProj.Z {
			maxProj.Z = proj.Z
		}
		return true
	})

	mid := minProj.Add(maxProj).Mul(0.5)
	center := centroid.
		Add(axes[0].Mul(mid.X)).
		Add(axes[1].Mul(mid.Y)).
		Add(axes[2].Mul(mid.Z))
	dims := maxProj.Sub(minProj)

	// rotation matrix with the box axes as columns
	rm, err := spatialmath.NewRotationMatrix([]float64{
		axes[0].X, axes[1].X, axes[2].X,
		axes[0].Y, axes[1].Y, axes[2].Y,
		axes[0].Z, axes[1].Z, axes[2].Z,
	})
	if err != nil {
		return nil, err
	}
	return spatialmath.NewBox(spatialmath.NewPoseFromRotationMatrix(center, rm), dims, "")
}
