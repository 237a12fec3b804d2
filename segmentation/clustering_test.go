package segmentation

import (
	"fmt"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	pc "github.com/plyproc/plyproc/pointcloud"
)

func TestClusterConfigCheckValid(t *testing.T) {
	conf := ClusterConfig{Radius: 1.0, MinPoints: 1}
	test.That(t, conf.CheckValid(), test.ShouldBeNil)

	conf = ClusterConfig{Radius: 0, MinPoints: 1}
	test.That(t, conf.CheckValid(), test.ShouldNotBeNil)

	conf = ClusterConfig{Radius: 1.0, MinPoints: 0}
	test.That(t, conf.CheckValid(), test.ShouldNotBeNil)
}

// cubeBlob adds the 8 corners of a half unit cube at the given origin.
func cubeBlob(t *testing.T, cloud pc.PointCloud, origin r3.Vector) {
	t.Helper()
	for _, dx := range []float64{0, 0.5} {
		for _, dy := range []float64{0, 0.5} {
			for _, dz := range []float64{0, 0.5} {
				p := origin.Add(r3.Vector{X: dx, Y: dy, Z: dz})
				test.That(t, cloud.Set(p, nil), test.ShouldBeNil)
			}
		}
	}
}

func TestClusterByRadius(t *testing.T) {
	cloud := pc.New()
	_, err := ClusterByRadius(cloud, ClusterConfig{Radius: 0, MinPoints: 1})
	test.That(t, err, test.ShouldNotBeNil)

	// two blobs far apart and one lone point
	cubeBlob(t, cloud, r3.Vector{X: 0, Y: 0, Z: 0})
	cubeBlob(t, cloud, r3.Vector{X: 100, Y: 0, Z: 0})
	test.That(t, cloud.Set(r3.Vector{X: 50, Y: 50, Z: 50}, nil), test.ShouldBeNil)

	objects, err := ClusterByRadius(cloud, ClusterConfig{Radius: 1.0, MinPoints: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(objects), test.ShouldEqual, 2)
	for i, obj := range objects {
		test.That(t, obj.Size(), test.ShouldEqual, 8)
		test.That(t, obj.Geometry, test.ShouldNotBeNil)
		test.That(t, obj.Geometry.Label(), test.ShouldEqual, fmt.Sprintf("object_%d", i))
	}

	// with MinPoints 1 the lone point becomes an object too
	objects, err = ClusterByRadius(cloud, ClusterConfig{Radius: 1.0, MinPoints: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(objects), test.ShouldEqual, 3)

	// a radius big enough to bridge everything gives one cluster
	objects, err = ClusterByRadius(cloud, ClusterConfig{Radius: 150, MinPoints: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(objects), test.ShouldEqual, 1)
	test.That(t, objects[0].Size(), test.ShouldEqual, cloud.Size())
}
