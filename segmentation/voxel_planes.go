package segmentation

import (
	"github.com/pkg/errors"

	pc "github.com/plyproc/plyproc/pointcloud"
)

// VoxelGridPlaneConfig contains the parameters of finding planes in a voxel grid.
type VoxelGridPlaneConfig struct {
	// WeightThresh above which a voxel is considered reliably planar.
	WeightThresh float64
	// AngleThresh is the maximum angle in degrees between the normals of two
	// mergeable voxels.
	AngleThresh float64
	// CosineThresh is the maximum cosine of the angle between a voxel normal
	// and the direction to a neighboring voxel center for them to be
	// considered part of the same continuous surface.
	CosineThresh float64
	// DistanceThresh is the maximum distance of a point in an ambiguous voxel
	// to an adjacent plane for the point to join it.
	DistanceThresh float64
}

// CheckValid checks that the config values are sane.
func (vgpc *VoxelGridPlaneConfig) CheckValid() error {
	if vgpc.WeightThresh < 0 {
		return errors.Errorf("weight_threshold cannot be less than 0, got %v", vgpc.WeightThresh)
	}
	if vgpc.AngleThresh < -360 || vgpc.AngleThresh > 360 {
		return errors.Errorf("angle_threshold must be in [-360, 360], got %v", vgpc.AngleThresh)
	}
	if vgpc.CosineThresh < -1 || vgpc.CosineThresh > 1 {
		return errors.Errorf("cosine_threshold must be in [-1, 1], got %v", vgpc.CosineThresh)
	}
	if vgpc.DistanceThresh < 0 {
		return errors.Errorf("distance_threshold cannot be less than 0, got %v", vgpc.DistanceThresh)
	}
	return nil
}

// FindPlanesVoxel finds planes in a point cloud by growing regions of planar
// voxels, rather than sampling the raw points. voxelSize is the side length
// of the voxels; lambda the smoothing parameter of the planarity weights.
func FindPlanesVoxel(cloud pc.PointCloud, voxelSize, lambda float64, config VoxelGridPlaneConfig) ([]pc.Plane, pc.PointCloud, error) {
	if err := config.CheckValid(); err != nil {
		return nil, nil, err
	}
	vg := pc.NewVoxelGridFromPointCloud(cloud, voxelSize, lambda)
	vg.SegmentPlanesRegionGrowing(config.WeightThresh, config.AngleThresh, config.CosineThresh, config.DistanceThresh)
	return vg.GetPlanesFromLabels()
}
