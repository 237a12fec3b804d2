package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/plyproc/plyproc/utils"
)

// A Voxel represents a value on a regular grid in three-dimensional space.
// As with pixels in a 2D bitmap, voxels themselves do not typically have
// their position explicitly encoded with their values.

// VoxelCoords stores Voxel coordinates in VoxelGrid axes.
type VoxelCoords struct {
	I, J, K int64
}

// IsEqual tests if two VoxelCoords are the same.
func (c VoxelCoords) IsEqual(c2 VoxelCoords) bool {
	return c.I == c2.I && c.J == c2.J && c.K == c2.K
}

// Voxel is the structure to store data relevant to Voxel operations in point
// clouds. Points keeps insertion order so PointLabels stays index-aligned
// with it.
type Voxel struct {
	Key             VoxelCoords
	Label           int
	Points          []PointAndData
	Center          r3.Vector
	Normal          r3.Vector
	Offset          float64
	Residual        float64
	Weight          float64
	SortedWeightIdx int
	PointLabels     []int
}

// NewVoxel creates a pointer to a Voxel struct.
func NewVoxel(coords VoxelCoords) *Voxel {
	return &Voxel{
		Key:      coords,
		Points:   make([]PointAndData, 0),
		Residual: 100000,
	}
}

// NewVoxelFromPoint creates a new voxel from a point.
func NewVoxelFromPoint(pt, ptMin r3.Vector, voxelSize float64) *Voxel {
	coords := GetVoxelCoordinates(pt, ptMin, voxelSize)
	return &Voxel{
		Key:    coords,
		Points: []PointAndData{{P: pt, D: NewBasicData()}},
	}
}

// Positions returns the positions of the points in the voxel.
func (v1 *Voxel) Positions() []r3.Vector {
	positions := make([]r3.Vector, 0, len(v1.Points))
	for _, pd := range v1.Points {
		positions = append(positions, pd.P)
	}
	return positions
}

// SetLabel sets the label of a voxel.
func (v1 *Voxel) SetLabel(label int) {
	v1.Label = label
}

// IsSmooth returns true if two voxels respect the smoothness constraint.
// angleTh is expressed in degrees.
func (v1 *Voxel) IsSmooth(v2 *Voxel, angleTh float64) bool {
	angle := math.Abs(v1.Normal.Dot(v2.Normal))
	angle = math.Abs(math.Acos(angle))

	return utils.RadToDeg(angle) < angleTh
}

// IsContinuous returns true if two voxels respect the continuity constraint.
// cosTh is in [0,1].
func (v1 *Voxel) IsContinuous(v2 *Voxel, cosTh float64) bool {
	v := v2.Center.Sub(v1.Center).Normalize()
	phi := math.Abs(v.Dot(v1.Normal))
	return phi < cosTh
}

// CanMerge returns true if two voxels can be added to the same connected component.
func (v1 *Voxel) CanMerge(v2 *Voxel, angleTh, cosTh float64) bool {
	return v1.IsSmooth(v2, angleTh) && v1.IsContinuous(v2, cosTh)
}

// GetPlane returns a Plane fit on the voxel data.
func (v1 *Voxel) GetPlane() Plane {
	keys := make([]VoxelCoords, len(v1.Points))
	for i := range keys {
		keys[i] = v1.Key
	}
	return &voxelPlane{
		normal:    v1.Normal,
		center:    v1.Center,
		offset:    v1.Offset,
		points:    v1.Points,
		voxelKeys: keys,
	}
}

// VoxelSlice is a slice that contains Voxels.
type VoxelSlice []*Voxel

// Swap for VoxelSlice sorting interface.
func (d VoxelSlice) Swap(i, j int) {
	d[i], d[j] = d[j], d[i]
}

// Len for VoxelSlice sorting interface.
func (d VoxelSlice) Len() int {
	return len(d)
}

// Less for VoxelSlice sorting interface.
func (d VoxelSlice) Less(i, j int) bool {
	return d[i].Weight < d[j].Weight
}

// ReverseVoxelSlice reverses a slice of voxels.
func ReverseVoxelSlice(s VoxelSlice) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// VoxelGrid contains the sparse grid of Voxels of a point cloud.
type VoxelGrid struct {
	Voxels    map[VoxelCoords]*Voxel
	maxLabel  int
	voxelSize float64
	lambda    float64
}

// NewVoxelGrid returns a pointer to a VoxelGrid with a (0,0,0) Voxel.
func NewVoxelGrid(voxelSize, lambda float64) *VoxelGrid {
	voxelMap := make(map[VoxelCoords]*Voxel)
	coords := VoxelCoords{}
	voxelMap[coords] = NewVoxel(coords)

	return &VoxelGrid{
		Voxels:    voxelMap,
		voxelSize: voxelSize,
		lambda:    lambda,
	}
}

// VoxelSize returns the side length of the voxels in the grid.
func (vg *VoxelGrid) VoxelSize() float64 {
	return vg.voxelSize
}

// GetVoxelFromKey returns a pointer to a voxel from a VoxelCoords key.
func (vg *VoxelGrid) GetVoxelFromKey(coords VoxelCoords) *Voxel {
	return vg.Voxels[coords]
}

// GetAdjacentVoxels gets adjacent voxels in the grid in 26-connectivity.
func (vg *VoxelGrid) GetAdjacentVoxels(v *Voxel) []VoxelCoords {
	I, J, K := v.Key.I, v.Key.J, v.Key.K
	is := []int64{I - 1, I, I + 1}
	js := []int64{J - 1, J, J + 1}
	ks := []int64{K - 1, K, K + 1}
	neighborKeys := make([]VoxelCoords, 0)
	for _, i := range is {
		for _, j := range js {
			for _, k := range ks {
				vox := VoxelCoords{i, j, k}
				_, ok := vg.Voxels[vox]
				// neighboring voxel should be in the grid and not be the current voxel
				if ok && !v.Key.IsEqual(vox) {
					neighborKeys = append(neighborKeys, vox)
				}
			}
		}
	}
	return neighborKeys
}

// ConvertToPointCloudWithValue converts the voxel grid to a point cloud
// whose values contain the voxel labels.
func (vg *VoxelGrid) ConvertToPointCloudWithValue() (PointCloud, error) {
	pc := New()
	for _, vox := range vg.Voxels {
		for i, pd := range vox.Points {
			label := vox.Label
			if len(vox.PointLabels) == len(vox.Points) {
				label = vox.PointLabels[i]
			}
			if err := pc.Set(pd.P, NewValueData(label)); err != nil {
				return nil, err
			}
		}
	}
	return pc, nil
}

// GetVoxelCoordinates computes the voxel coordinates of a point, given the
// minimum point of the grid and the voxel size.
func GetVoxelCoordinates(pt, ptMin r3.Vector, voxelSize float64) VoxelCoords {
	ptVoxel := pt.Sub(ptMin)
	return VoxelCoords{
		I: int64(math.Floor(ptVoxel.X / voxelSize)),
		J: int64(math.Floor(ptVoxel.Y / voxelSize)),
		K: int64(math.Floor(ptVoxel.Z / voxelSize)),
	}
}

// GetVoxelCenter computes the barycenter of the points in the slice.
func GetVoxelCenter(points []r3.Vector) r3.Vector {
	center := r3.Vector{}
	for _, pt := range points {
		center = center.Add(pt)
	}
	return center.Mul(1. / float64(len(points)))
}

// GetOffset computes the offset of the plane with given normal vector and a
// point in it.
func GetOffset(center, normal r3.Vector) float64 {
	return -normal.Dot(center)
}

// GetResidual computes the mean fitting error of points to a given plane.
func GetResidual(points []r3.Vector, plane Plane) float64 {
	dist := 0.
	for _, pt := range points {
		d := plane.Distance(pt)
		dist += d * d
	}
	dist /= float64(len(points))
	return math.Sqrt(dist)
}

// GetWeight computes a weight for the planarity of the voxel. Close to 1 for
// planar voxels with many points, close to 0 for sparse or noisy ones.
func GetWeight(points []r3.Vector, lam, residual float64) float64 {
	nPoints := len(points)
	dR := math.Exp(-residual * residual / (2 * lam * lam))
	w := float64(nPoints-1) / float64(nPoints) * dR
	return w
}

// estimatePlaneNormalFromPoints estimates the normal vector of the plane
// fitting the input points best in a least-squares sense. It is the
// eigenvector associated with the smallest eigenvalue of the covariance
// matrix of the points.
func estimatePlaneNormalFromPoints(points []r3.Vector) r3.Vector {
	if len(points) < 3 {
		return r3.Vector{}
	}
	center := GetVoxelCenter(points)
	cov := mat.NewSymDense(3, nil)
	for _, pt := range points {
		dx := pt.X - center.X
		dy := pt.Y - center.Y
		dz := pt.Z - center.Z
		cov.SetSym(0, 0, cov.At(0, 0)+dx*dx)
		cov.SetSym(0, 1, cov.At(0, 1)+dx*dy)
		cov.SetSym(0, 2, cov.At(0, 2)+dx*dz)
		cov.SetSym(1, 1, cov.At(1, 1)+dy*dy)
		cov.SetSym(1, 2, cov.At(1, 2)+dy*dz)
		cov.SetSym(2, 2, cov.At(2, 2)+dz*dz)
	}

	var eigen mat.EigenSym
	if ok := eigen.Factorize(cov, true); !ok {
		return r3.Vector{}
	}
	var vectors mat.Dense
	eigen.VectorsTo(&vectors)
	// eigenvalues are in ascending order; the first eigenvector spans the
	// direction of least variance
	normal := r3.Vector{X: vectors.At(0, 0), Y: vectors.At(1, 0), Z: vectors.At(2, 0)}
	return normal.Normalize()
}

// NewVoxelGridFromPointCloud creates and fills a VoxelGrid from a point cloud.
// voxelSize is the side length of the voxels; lam is the smoothing parameter
// of the planarity weights.
func NewVoxelGridFromPointCloud(pc PointCloud, voxelSize, lam float64) *VoxelGrid {
	voxelMap := &VoxelGrid{
		Voxels:    make(map[VoxelCoords]*Voxel),
		voxelSize: voxelSize,
		lambda:    lam,
	}
	meta := pc.MetaData()
	ptMin := r3.Vector{X: meta.MinX, Y: meta.MinY, Z: meta.MinZ}

	defaultResidual := 1.0

	pc.Iterate(0, 0, func(pt r3.Vector, d Data) bool {
		coords := GetVoxelCoordinates(pt, ptMin, voxelSize)
		vox, ok := voxelMap.Voxels[coords]
		if !ok {
			vox = NewVoxel(coords)
			vox.Residual = defaultResidual
			voxelMap.Voxels[coords] = vox
		}
		vox.Points = append(vox.Points, PointAndData{P: pt, D: d})
		return true
	})

	// All points are now assigned to a voxel in the voxel grid.
	// Compute voxel attributes.
	for k, vox := range voxelMap.Voxels {
		vox.Key = k
		positions := vox.Positions()
		vox.Center = GetVoxelCenter(positions)

		// below 5 points, normal and center estimation are not relevant
		if len(vox.Points) > 5 {
			vox.Normal = estimatePlaneNormalFromPoints(positions)
			vox.Offset = GetOffset(vox.Center, vox.Normal)
			vox.Residual = GetResidual(positions, vox.GetPlane())
			vox.Weight = GetWeight(positions, lam, vox.Residual)
		}
	}
	return voxelMap
}
