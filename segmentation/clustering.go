package segmentation

import (
	"container/list"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	pc "github.com/plyproc/plyproc/pointcloud"
)

// ClusterConfig holds the parameters of radius-based clustering.
type ClusterConfig struct {
	// Radius is the maximum distance between a point and a cluster for the
	// point to join it.
	Radius float64
	// MinPoints is the smallest cluster that is reported as an object.
	MinPoints int
}

// CheckValid checks that the config values are sane.
func (conf *ClusterConfig) CheckValid() error {
	if conf.Radius <= 0 {
		return errors.Errorf("radius must be positive, got %f", conf.Radius)
	}
	if conf.MinPoints < 1 {
		return errors.Errorf("min_points must be at least 1, got %d", conf.MinPoints)
	}
	return nil
}

// ClusterByRadius breaks a point cloud into connected components: two points
// belong to the same cluster when they are within the config radius of each
// other, directly or through a chain of other points. Clusters smaller than
// MinPoints are discarded. Each cluster becomes an Object with an oriented
// bounding box.
func ClusterByRadius(cloud pc.PointCloud, conf ClusterConfig) ([]*Object, error) {
	if err := conf.CheckValid(); err != nil {
		return nil, err
	}

	// hash points into grid cells of side radius so neighbor lookups only
	// inspect the 27 surrounding cells
	type cell struct{ i, j, k int64 }
	cellOf := func(p r3.Vector) cell {
		return cell{
			i: int64(math.Floor(p.X / conf.Radius)),
			j: int64(math.Floor(p.Y / conf.Radius)),
			k: int64(math.Floor(p.Z / conf.Radius)),
		}
	}
	grid := make(map[cell][]r3.Vector)
	data := make(map[r3.Vector]pc.Data, cloud.Size())
	cloud.Iterate(0, 0, func(p r3.Vector, d pc.Data) bool {
		c := cellOf(p)
		grid[c] = append(grid[c], p)
		data[p] = d
		return true
	})

	visited := make(map[r3.Vector]bool, cloud.Size())
	var objects []*Object
	clusterIdx := 0
	var iterErr error
	cloud.Iterate(0, 0, func(seed r3.Vector, _ pc.Data) bool {
		if visited[seed] {
			return true
		}
		members := pc.New()
		queue := list.New()
		queue.PushBack(seed)
		visited[seed] = true
		for queue.Len() > 0 {
			e := queue.Front()
			queue.Remove(e)
			p, ok := e.Value.(r3.Vector)
			if !ok {
				continue
			}
			if iterErr = members.Set(p, data[p]); iterErr != nil {
				return false
			}
			c := cellOf(p)
			for di := int64(-1); di <= 1; di++ {
				for dj := int64(-1); dj <= 1; dj++ {
					for dk := int64(-1); dk <= 1; dk++ {
						for _, q := range grid[cell{c.i + di, c.j + dj, c.k + dk}] {
							if !visited[q] && q.Sub(p).Norm() <= conf.Radius {
								visited[q] = true
								queue.PushBack(q)
							}
						}
					}
				}
			}
		}
		if members.Size() >= conf.MinPoints {
			obj, err := NewObject(members)
			if err != nil {
				iterErr = err
				return false
			}
			if obj.Geometry != nil {
				obj.Geometry.SetLabel(fmt.Sprintf("object_%d", clusterIdx))
			}
			objects = append(objects, obj)
			clusterIdx++
		}
		return true
	})
	if iterErr != nil {
		return nil, iterErr
	}
	return objects, nil
}
