package pointcloud

import (
	"container/list"
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

// LabelVoxels performs voxel plane labeling.
// If a voxel contains points from one plane, voxel propagation is done to the
// neighboring voxels that are also planar and share the same plane equation.
func (vg *VoxelGrid) LabelVoxels(sortedKeys []VoxelCoords, wTh, thetaTh, phiTh float64) {
	currentLabel := 1
	visited := make(map[VoxelCoords]bool)
	for _, k := range sortedKeys {
		// If current voxel has a weight above threshold (plane data is relevant)
		// and has not been visited yet
		if vg.Voxels[k].Weight > wTh && !visited[k] && vg.Voxels[k].Label == 0 {
			vg.labelComponentBFS(vg.Voxels[k], currentLabel, wTh, thetaTh, phiTh, visited)
			vg.maxLabel = currentLabel
			currentLabel++
		}
	}
}

// labelComponentBFS is a helper function to perform BFS per connected component.
func (vg *VoxelGrid) labelComponentBFS(vox *Voxel, label int, wTh, thetaTh, phiTh float64, visited map[VoxelCoords]bool) {
	queue := list.New()
	queue.PushBack(vox.Key)
	visited[vox.Key] = true
	for queue.Len() > 0 {
		e := queue.Front()
		coords, ok := e.Value.(VoxelCoords)
		if !ok {
			queue.Remove(e)
			continue
		}
		vg.Voxels[coords].SetLabel(label)
		neighbors := vg.GetAdjacentVoxels(vg.Voxels[coords])
		for _, c := range neighbors {
			// a neighbor is added if the pair satisfies the smoothness and
			// continuity constraints, its plane data is relevant enough, and
			// it has not been visited yet
			if vg.Voxels[coords].CanMerge(vg.Voxels[c], thetaTh, phiTh) && vg.Voxels[c].Weight > wTh && !visited[c] {
				queue.PushBack(c)
				visited[c] = true
			}
		}
		queue.Remove(e)
	}
}

// GetUnlabeledVoxels gathers in a slice all voxels whose label is 0.
func (vg *VoxelGrid) GetUnlabeledVoxels() []VoxelCoords {
	unlabeled := make([]VoxelCoords, 0)
	for _, vox := range vg.Voxels {
		if vox.Label == 0 {
			unlabeled = append(unlabeled, vox.Key)
		}
	}
	return unlabeled
}

// GetPlanesFromLabels returns a slice containing all the planes in the point
// cloud, and a point cloud of the points that belong to no plane.
func (vg *VoxelGrid) GetPlanesFromLabels() ([]Plane, PointCloud, error) {
	pointsByLabel := make(map[int][]PointAndData)
	keysByLabel := make(map[int][]VoxelCoords)
	seen := make(map[r3.Vector]bool)
	for _, vox := range vg.Voxels {
		if vox.Label > 0 {
			// voxel is entirely included in a plane, add all the points
			keysByLabel[vox.Label] = append(keysByLabel[vox.Label], vox.Key)
			for _, pd := range vox.Points {
				if seen[pd.P] { // already assigned point to another label
					continue
				}
				seen[pd.P] = true
				pointsByLabel[vox.Label] = append(pointsByLabel[vox.Label], pd)
			}
		} else if len(vox.Points) == len(vox.PointLabels) {
			// voxel has points for either no plane or at least two planes,
			// add point by point
			for i, pd := range vox.Points {
				if seen[pd.P] {
					continue
				}
				seen[pd.P] = true
				pointsByLabel[vox.PointLabels[i]] = append(pointsByLabel[vox.PointLabels[i]], pd)
			}
		}
	}

	planes := make([]Plane, 0)
	nonPlane := New()
	for label, pts := range pointsByLabel {
		if label == 0 {
			// non-planar points
			for _, pd := range pts {
				if err := nonPlane.Set(pd.P, pd.D); err != nil {
					return nil, nil, err
				}
			}
			continue
		}
		positions := make([]r3.Vector, 0, len(pts))
		for _, pd := range pts {
			positions = append(positions, pd.P)
		}
		normalVector := estimatePlaneNormalFromPoints(positions)
		center := GetVoxelCenter(positions)
		offset := GetOffset(center, normalVector)
		planes = append(planes, &voxelPlane{
			normal:    normalVector,
			center:    center,
			offset:    offset,
			points:    pts,
			voxelKeys: keysByLabel[label],
		})
	}
	return planes, nonPlane, nil
}

// LabelNonPlanarVoxels labels potential planar parts in voxels that contain
// more than one plane. If a voxel contains no plane, the minimum distance of
// a point to one of the surrounding planes should be above the threshold dTh.
func (vg *VoxelGrid) LabelNonPlanarVoxels(unlabeledVoxels []VoxelCoords, dTh float64) {
	for _, k := range unlabeledVoxels {
		vox := vg.Voxels[k]
		vox.PointLabels = make([]int, len(vox.Points))
		nbPlanes := make([]Plane, 0)
		nbLabels := make([]int, 0)
		for _, nb := range vg.GetAdjacentVoxels(vox) {
			voxNb := vg.Voxels[nb]
			if voxNb.Label > 0 {
				nbPlanes = append(nbPlanes, voxNb.GetPlane())
				nbLabels = append(nbLabels, voxNb.Label)
			}
		}
		for i, pd := range vox.Points {
			dMin := math.Inf(1)
			outLabel := 0
			for j, nbPlane := range nbPlanes {
				d := math.Abs(nbPlane.Distance(pd.P))
				if d < dMin {
					dMin = d
					outLabel = nbLabels[j]
				}
			}
			if dMin < dTh {
				vox.PointLabels[i] = outLabel
			}
		}
	}
}

// GetKeysByDecreasingOrderWeights gets the voxel keys in decreasing weight order.
func (vg *VoxelGrid) GetKeysByDecreasingOrderWeights() []VoxelCoords {
	s := make(VoxelSlice, 0, len(vg.Voxels))
	for _, vox := range vg.Voxels {
		s = append(s, vox)
	}
	sort.Sort(s)
	ReverseVoxelSlice(s)
	decreasingKeys := make([]VoxelCoords, 0, len(s))
	for _, vox := range s {
		decreasingKeys = append(decreasingKeys, vox.Key)
	}
	return decreasingKeys
}

// SegmentPlanesRegionGrowing segments planes in the points in the VoxelGrid.
// This segmentation only takes into account the coordinates of the points.
func (vg *VoxelGrid) SegmentPlanesRegionGrowing(wTh, thetaTh, phiTh, dTh float64) {
	// Sort voxels by decreasing order of relevance weights
	decreasingKeys := vg.GetKeysByDecreasingOrderWeights()
	// Planar voxels labeling by region growing
	vg.LabelVoxels(decreasingKeys, wTh, thetaTh, phiTh)
	// For remaining voxels, label points that are likely to belong to a plane
	unlabeledVoxels := vg.GetUnlabeledVoxels()
	vg.LabelNonPlanarVoxels(unlabeledVoxels, dTh)
}
