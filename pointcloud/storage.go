package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/plyproc/plyproc/utils"
)

// Point clouds are read from and written to disk using float32s, and
// coordinates further than 2^24 from the origin cannot round-trip a float32
// without loss. Stick to the float64 integer-precise range for validation so
// integer-valued coordinates are always stored exactly.
const (
	maxPreciseFloat64 = float64(1 << 52)
	minPreciseFloat64 = -float64(1 << 52)
)

// PointAndData is a tuple of a point and its data.
type PointAndData struct {
	P r3.Vector
	D Data
}

// storage is the backing store of a point cloud. Implementations key
// data by exact position.
type storage interface {
	Size() int
	Set(p r3.Vector, d Data) error
	Unset(x, y, z float64) (Data, bool)
	At(x, y, z float64) (Data, bool)
	Iterate(numBatches, myBatch int, fn func(p r3.Vector, d Data) bool)
	EditSupported() bool
}

func newOutOfRangeErr(axis string, val float64) error {
	return errors.Errorf("%s component (%v) is out of range [%v,%v]", axis, val, minPreciseFloat64, maxPreciseFloat64)
}

// matrixStorage stores points in insertion order in a slice, with a map from
// position to slice index for lookups.
type matrixStorage struct {
	points   []PointAndData
	indexMap map[r3.Vector]uint
}

func (ms *matrixStorage) Size() int {
	return len(ms.points)
}

// Set validates that the point can be precisely stored before setting it.
func (ms *matrixStorage) Set(p r3.Vector, d Data) error {
	if p.X > maxPreciseFloat64 || p.X < minPreciseFloat64 {
		return newOutOfRangeErr("x", p.X)
	}
	if p.Y > maxPreciseFloat64 || p.Y < minPreciseFloat64 {
		return newOutOfRangeErr("y", p.Y)
	}
	if p.Z > maxPreciseFloat64 || p.Z < minPreciseFloat64 {
		return newOutOfRangeErr("z", p.Z)
	}
	if i, found := ms.indexMap[p]; found {
		ms.points[i].D = d
		return nil
	}
	ms.points = append(ms.points, PointAndData{P: p, D: d})
	ms.indexMap[p] = uint(len(ms.points) - 1)
	return nil
}

// Unset removes the point at the given position. The slot is swapped with
// the final element so removal stays O(1).
func (ms *matrixStorage) Unset(x, y, z float64) (Data, bool) {
	p := r3.Vector{X: x, Y: y, Z: z}
	i, found := ms.indexMap[p]
	if !found {
		return nil, false
	}
	d := ms.points[i].D
	last := uint(len(ms.points) - 1)
	if i != last {
		ms.points[i] = ms.points[last]
		ms.indexMap[ms.points[i].P] = i
	}
	ms.points = ms.points[:last]
	delete(ms.indexMap, p)
	return d, true
}

func (ms *matrixStorage) At(x, y, z float64) (Data, bool) {
	i, found := ms.indexMap[r3.Vector{X: x, Y: y, Z: z}]
	if !found {
		return nil, false
	}
	return ms.points[i].D, true
}

func (ms *matrixStorage) Iterate(numBatches, myBatch int, fn func(p r3.Vector, d Data) bool) {
	if numBatches > 0 && myBatch >= numBatches {
		return
	}

	lowerBound := 0
	upperBound := ms.Size()

	if numBatches > 0 {
		batchSize := int(math.Ceil(float64(ms.Size()) / float64(numBatches)))
		lowerBound = myBatch * batchSize
		upperBound = (myBatch + 1) * batchSize
	}

	upperBound = utils.MinInt(upperBound, ms.Size())

	for i := lowerBound; i < upperBound; i++ {
		if cont := fn(ms.points[i].P, ms.points[i].D); !cont {
			return
		}
	}
}

func (ms *matrixStorage) EditSupported() bool {
	return true
}
