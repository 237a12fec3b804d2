package segmentation

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	pc "github.com/plyproc/plyproc/pointcloud"
)

func TestVoxelGridPlaneConfigCheckValid(t *testing.T) {
	conf := VoxelGridPlaneConfig{WeightThresh: 0.9, AngleThresh: 30, CosineThresh: 0.1, DistanceThresh: 0.1}
	test.That(t, conf.CheckValid(), test.ShouldBeNil)

	conf.WeightThresh = -1
	test.That(t, conf.CheckValid(), test.ShouldNotBeNil)
	conf.WeightThresh = 0.9

	conf.AngleThresh = 400
	test.That(t, conf.CheckValid(), test.ShouldNotBeNil)
	conf.AngleThresh = 30

	conf.CosineThresh = 2
	test.That(t, conf.CheckValid(), test.ShouldNotBeNil)
	conf.CosineThresh = 0.1

	conf.DistanceThresh = -0.5
	test.That(t, conf.CheckValid(), test.ShouldNotBeNil)
}

func TestFindPlanesVoxel(t *testing.T) {
	_, _, err := FindPlanesVoxel(pc.New(), 1.0, 1.0, VoxelGridPlaneConfig{WeightThresh: -1})
	test.That(t, err, test.ShouldNotBeNil)

	// a rippled but planar surface comes back as a single plane
	cloud := pc.New()
	for x := 0.; x < 10; x++ {
		for y := 0.; y < 10; y++ {
			z := 0.01 * math.Sin(0.7*x+1.3*y)
			test.That(t, cloud.Set(r3.Vector{X: x, Y: y, Z: z}, nil), test.ShouldBeNil)
		}
	}

	conf := VoxelGridPlaneConfig{WeightThresh: 0.7, AngleThresh: 30, CosineThresh: 0.1, DistanceThresh: 0.1}
	planes, nonPlane, err := FindPlanesVoxel(cloud, 5.0, 1.0, conf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(planes), test.ShouldEqual, 1)
	test.That(t, nonPlane.Size(), test.ShouldEqual, 0)

	planeCloud, err := planes[0].PointCloud()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, planeCloud.Size(), test.ShouldEqual, cloud.Size())
	test.That(t, math.Abs(planes[0].Normal().Z), test.ShouldAlmostEqual, 1.0, 1e-3)
}
