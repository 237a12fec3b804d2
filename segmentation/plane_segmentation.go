// Package segmentation implements plane fitting and object segmentation for
// point clouds.
package segmentation

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	pc "github.com/plyproc/plyproc/pointcloud"
	"github.com/plyproc/plyproc/utils"
)

var sortPositions bool

// GetPointCloudPositions extracts the positions of the points from the
// pointcloud into a Vec3 slice.
func GetPointCloudPositions(cloud pc.PointCloud) ([]r3.Vector, []pc.Data) {
	positions := make([]r3.Vector, 0, cloud.Size())
	data := make([]pc.Data, 0, cloud.Size())
	cloud.Iterate(0, 0, func(p r3.Vector, d pc.Data) bool {
		positions = append(positions, p)
		data = append(data, d)
		return true
	})
	if sortPositions {
		sort.Sort(pc.Vectors(positions))
	}
	return positions, data
}

func distance(equation [4]float64, pt r3.Vector) float64 {
	norm := math.Sqrt(equation[0]*equation[0] + equation[1]*equation[1] + equation[2]*equation[2])
	if norm == 0 {
		return 0
	}
	return (equation[0]*pt.X + equation[1]*pt.Y + equation[2]*pt.Z + equation[3]) / norm
}

// pointCloudSplit returns two point clouds, one with points found in a map of
// point positions, and the other with those not in the map.
func pointCloudSplit(cloud pc.PointCloud, inMap map[r3.Vector]bool) (pc.PointCloud, pc.PointCloud, error) {
	mapCloud := pc.New()
	nonMapCloud := pc.New()
	var err error
	seen := make(map[r3.Vector]bool)
	cloud.Iterate(0, 0, func(p r3.Vector, d pc.Data) bool {
		if _, ok := inMap[p]; ok {
			seen[p] = true
			err = mapCloud.Set(p, d)
		} else {
			err = nonMapCloud.Set(p, d)
		}
		if err != nil {
			err = errors.Wrapf(err, "error setting point (%v, %v, %v) in point cloud", p.X, p.Y, p.Z)
			return false
		}
		return true
	})
	if err != nil {
		return nil, nil, err
	}
	if len(seen) != len(inMap) {
		return nil, nil, errors.New("map of points contains invalid points not found in the point cloud")
	}
	return mapCloud, nonMapCloud, nil
}

// SegmentPlane segments the biggest plane in the 3D pointcloud.
// nIterations is the number of iterations for ransac.
// nIter to choose? nIter = log(1-p)/log(1-(1-e)^s), where p is prob of success,
// e is outlier ratio, s is subset size (3 for a plane).
// threshold is the maximum allowed distance to the found plane for a point to
// belong to it.
// This function returns a Plane struct, as well as the remaining points in a
// pointcloud. It also returns the equation of the found plane:
// [0]x + [1]y + [2]z + [3] = 0.
func SegmentPlane(ctx context.Context, cloud pc.PointCloud, nIterations int, threshold float64) (pc.Plane, pc.PointCloud, error) {
	// if the point cloud does not have even 3 points, return the original cloud with no planes
	if cloud.Size() <= 3 {
		return pc.NewEmptyPlane(), cloud, nil
	}
	//nolint:gosec
	r := rand.New(rand.NewSource(1))
	pts, _ := GetPointCloudPositions(cloud)
	nPoints := cloud.Size()

	var bestEquation [4]float64
	bestInliers := 0

	for i := 0; i < nIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		// sample 3 points from the slice of 3D points
		n1, n2, n3 := utils.SampleRandomIntRange(1, nPoints-1, r),
			utils.SampleRandomIntRange(1, nPoints-1, r),
			utils.SampleRandomIntRange(1, nPoints-1, r)
		p1, p2, p3 := pts[n1], pts[n2], pts[n3]

		// get 2 vectors that are going to define the plane
		v1 := p2.Sub(p1)
		v2 := p3.Sub(p1)
		// cross product to get the normal unit vector to the plane (v1, v2)
		cross := v1.Cross(v2)
		if cross.Norm2() == 0 {
			// degenerate sample, duplicate or collinear points
			continue
		}
		vec := cross.Normalize()
		// find current plane equation denoted as:
		// vec.X*x + vec.Y*y + vec.Z*z + d = 0
		// to find d, we just need to pick a point and deduce d from the plane
		// equation (vec orthogonal to p1, p2, p3)
		d := -vec.Dot(p2)
		currentEquation := [4]float64{vec.X, vec.Y, vec.Z, d}

		// count the number of points that are below a certain distance to the plane
		currentInliers := 0
		for _, pt := range pts {
			dist := distance(currentEquation, pt)
			if math.Abs(dist) < threshold {
				currentInliers++
			}
		}
		// if the current plane contains more points than the previously stored
		// one, save this one as the biggest plane
		if currentInliers > bestInliers {
			bestEquation = currentEquation
			bestInliers = currentInliers
		}
	}

	if bestInliers == 0 {
		// every sampled triple was degenerate, no plane was fit
		return pc.NewEmptyPlane(), cloud, nil
	}

	bestInliersMap := make(map[r3.Vector]bool)
	for _, pt := range pts {
		dist := distance(bestEquation, pt)
		if math.Abs(dist) < threshold {
			bestInliersMap[pt] = true
		}
	}

	planeCloud, nonPlaneCloud, err := pointCloudSplit(cloud, bestInliersMap)
	if err != nil {
		return nil, nil, err
	}
	return pc.NewPlane(planeCloud, bestEquation), nonPlaneCloud, nil
}

// FindPlanes takes in a point cloud and outputs an array of the planes and a
// point cloud of the leftover points.
// threshold is the maximum allowed distance to the found plane for a point to
// belong to it.
// minPoints is the minimum number of points necessary to be considered a plane.
func FindPlanes(ctx context.Context, cloud pc.PointCloud, threshold float64, minPoints int) ([]pc.Plane, pc.PointCloud, error) {
	planes := make([]pc.Plane, 0)
	plane, nonPlaneCloud, err := SegmentPlane(ctx, cloud, 2000, threshold)
	if err != nil {
		return nil, nil, err
	}
	planeCloud, err := plane.PointCloud()
	if err != nil {
		return nil, nil, err
	}
	if planeCloud.Size() <= minPoints {
		return planes, cloud, nil
	}
	planes = append(planes, plane)
	for {
		plane, nonPlaneCloud, err = SegmentPlane(ctx, nonPlaneCloud, 2000, threshold)
		if err != nil {
			return nil, nil, err
		}
		planeCloud, err = plane.PointCloud()
		if err != nil {
			return nil, nil, err
		}
		if planeCloud.Size() <= minPoints {
			// add the failed planeCloud back into the nonPlaneCloud
			var setErr error
			planeCloud.Iterate(0, 0, func(p r3.Vector, d pc.Data) bool {
				setErr = nonPlaneCloud.Set(p, d)
				return setErr == nil
			})
			if setErr != nil {
				return nil, nil, setErr
			}
			break
		}
		planes = append(planes, plane)
	}
	return planes, nonPlaneCloud, nil
}

// SplitPointCloudByPlane divides the point cloud in two point clouds, given
// the equation of a plane. One point cloud will have all the points above the
// plane and the other with all the points below the plane. Points exactly on
// the plane are not included.
func SplitPointCloudByPlane(cloud pc.PointCloud, plane pc.Plane) (pc.PointCloud, pc.PointCloud, error) {
	aboveCloud, belowCloud := pc.New(), pc.New()
	var err error
	cloud.Iterate(0, 0, func(p r3.Vector, d pc.Data) bool {
		dist := plane.Distance(p)
		if plane.Equation()[2] > 0.0 {
			dist = -dist
		}
		if dist > 0.0 {
			err = aboveCloud.Set(p, d)
		} else if dist < 0.0 {
			err = belowCloud.Set(p, d)
		}
		return err == nil
	})
	if err != nil {
		return nil, nil, err
	}
	return aboveCloud, belowCloud, nil
}

// ThresholdPointCloudByPlane returns a pointcloud with the points less than
// or equal to a given distance from a given plane.
func ThresholdPointCloudByPlane(cloud pc.PointCloud, plane pc.Plane, threshold float64) (pc.PointCloud, error) {
	thresholdCloud := pc.New()
	var err error
	cloud.Iterate(0, 0, func(p r3.Vector, d pc.Data) bool {
		dist := plane.Distance(p)
		if math.Abs(dist) <= threshold {
			err = thresholdCloud.Set(p, d)
		}
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return thresholdCloud, nil
}
