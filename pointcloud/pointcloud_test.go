package pointcloud

import (
	"image/color"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestPointCloudBasic(t *testing.T) {
	pc := New()

	p0 := NewVector(0, 0, 0)
	d0 := NewValueData(5)

	test.That(t, pc.Set(p0, d0), test.ShouldBeNil)
	d, got := pc.At(0, 0, 0)
	test.That(t, got, test.ShouldBeTrue)
	test.That(t, d, test.ShouldResemble, d0)

	_, got = pc.At(1, 0, 1)
	test.That(t, got, test.ShouldBeFalse)

	p1 := NewVector(1, 0, 1)
	d1 := NewValueData(17)
	test.That(t, pc.Set(p1, d1), test.ShouldBeNil)

	d, got = pc.At(1, 0, 1)
	test.That(t, got, test.ShouldBeTrue)
	test.That(t, d, test.ShouldResemble, d1)
	test.That(t, d, test.ShouldNotResemble, d0)

	p2 := NewVector(-1, -2, 1)
	d2 := NewValueData(81)
	test.That(t, pc.Set(p2, d2), test.ShouldBeNil)
	d, got = pc.At(-1, -2, 1)
	test.That(t, got, test.ShouldBeTrue)
	test.That(t, d, test.ShouldResemble, d2)

	count := 0
	pc.Iterate(0, 0, func(p r3.Vector, d Data) bool {
		switch p.X {
		case 0:
			test.That(t, p, test.ShouldResemble, p0)
		case 1:
			test.That(t, p, test.ShouldResemble, p1)
		case -1:
			test.That(t, p, test.ShouldResemble, p2)
		}
		count++
		return true
	})
	test.That(t, count, test.ShouldEqual, 3)

	test.That(t, CloudContains(pc, 1, 1, 1), test.ShouldBeFalse)
	test.That(t, CloudContains(pc, 1, 0, 1), test.ShouldBeTrue)

	pMax := NewVector(minPreciseFloat64, maxPreciseFloat64, minPreciseFloat64)
	test.That(t, pc.Set(pMax, nil), test.ShouldBeNil)

	pBad := NewVector(minPreciseFloat64-1, maxPreciseFloat64, minPreciseFloat64)
	err := pc.Set(pBad, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "x component")

	pBad = NewVector(minPreciseFloat64, maxPreciseFloat64+1, minPreciseFloat64)
	err = pc.Set(pBad, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "y component")

	pBad = NewVector(minPreciseFloat64, maxPreciseFloat64, minPreciseFloat64-1)
	err = pc.Set(pBad, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "z component")
}

func TestPointCloudUnset(t *testing.T) {
	pc := New()
	test.That(t, pc.Set(NewVector(1, 2, 3), nil), test.ShouldBeNil)
	test.That(t, pc.Set(NewVector(4, 5, 6), nil), test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 2)

	pc.Unset(1, 2, 3)
	test.That(t, pc.Size(), test.ShouldEqual, 1)
	test.That(t, CloudContains(pc, 1, 2, 3), test.ShouldBeFalse)
	test.That(t, CloudContains(pc, 4, 5, 6), test.ShouldBeTrue)
	test.That(t, CloudCentroid(pc), test.ShouldResemble, r3.Vector{X: 4, Y: 5, Z: 6})

	// removing a missing point does nothing
	pc.Unset(1, 2, 3)
	test.That(t, pc.Size(), test.ShouldEqual, 1)
}

func TestPointCloudOverwrite(t *testing.T) {
	pc := New()
	p := NewVector(1, 1, 1)
	test.That(t, pc.Set(p, NewValueData(1)), test.ShouldBeNil)
	test.That(t, pc.Set(p, NewValueData(2)), test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 1)
	d, got := pc.At(1, 1, 1)
	test.That(t, got, test.ShouldBeTrue)
	test.That(t, d.Value(), test.ShouldEqual, 2)
}

func TestPointCloudCentroid(t *testing.T) {
	var point r3.Vector
	var data Data
	pc := New()

	test.That(t, pc.Size(), test.ShouldResemble, 0)
	test.That(t, CloudCentroid(pc), test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 0})

	point = NewVector(10, 100, 1000)
	data = NewValueData(1)
	test.That(t, pc.Set(point, data), test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldResemble, 1)
	test.That(t, CloudCentroid(pc), test.ShouldResemble, point)

	point = NewVector(20, 200, 2000)
	data = NewValueData(2)
	test.That(t, pc.Set(point, data), test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldResemble, 2)
	test.That(t, CloudCentroid(pc), test.ShouldResemble, r3.Vector{X: 15, Y: 150, Z: 1500})

	point = NewVector(30, 300, 3000)
	data = NewValueData(3)
	test.That(t, pc.Set(point, data), test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldResemble, 3)
	test.That(t, CloudCentroid(pc), test.ShouldResemble, r3.Vector{X: 20, Y: 200, Z: 2000})

	// setting the same point again changes nothing
	point = NewVector(30, 300, 3000)
	data = NewValueData(3)
	test.That(t, pc.Set(point, data), test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldResemble, 3)
	test.That(t, CloudCentroid(pc), test.ShouldResemble, r3.Vector{X: 20, Y: 200, Z: 2000})
}

func TestPointCloudMatrix(t *testing.T) {
	pc := New()

	// Empty Cloud
	m, h := CloudMatrix(pc)
	test.That(t, h, test.ShouldBeNil)
	test.That(t, m, test.ShouldBeNil)

	// Bare Points
	p := NewVector(1, 2, 3)
	test.That(t, pc.Set(p, nil), test.ShouldBeNil)
	m, h = CloudMatrix(pc)
	test.That(t, h, test.ShouldResemble, []CloudMatrixCol{CloudMatrixColX, CloudMatrixColY, CloudMatrixColZ})
	test.That(t, m, test.ShouldResemble, mat.NewDense(1, 3, []float64{1, 2, 3}))

	// Points with Value (Multiple Points)
	pc = New()
	test.That(t, pc.Set(NewVector(1, 2, 3), NewValueData(4)), test.ShouldBeNil)
	test.That(t, pc.Set(NewVector(0, 0, 0), NewValueData(5)), test.ShouldBeNil)

	m, h = CloudMatrix(pc)
	test.That(t, h, test.ShouldResemble, []CloudMatrixCol{CloudMatrixColX, CloudMatrixColY, CloudMatrixColZ, CloudMatrixColV})
	test.That(t, m, test.ShouldResemble, mat.NewDense(2, 4, []float64{1, 2, 3, 4, 0, 0, 0, 5}))

	// Test with Color
	pc = New()
	test.That(t, pc.Set(NewVector(1, 2, 3), NewColoredData(color.NRGBA{123, 45, 67, 255})), test.ShouldBeNil)

	mc, hc := CloudMatrix(pc)
	test.That(t, hc, test.ShouldResemble, []CloudMatrixCol{
		CloudMatrixColX, CloudMatrixColY,
		CloudMatrixColZ, CloudMatrixColR, CloudMatrixColG, CloudMatrixColB,
	})
	test.That(t, mc, test.ShouldResemble, mat.NewDense(1, 6, []float64{1, 2, 3, 123, 45, 67}))

	// Test with Color and Value
	pc = New()
	d := NewColoredData(color.NRGBA{123, 45, 67, 255})
	d.SetValue(5)
	test.That(t, pc.Set(NewVector(1, 2, 3), d), test.ShouldBeNil)

	mcv, hcv := CloudMatrix(pc)
	test.That(t, hcv, test.ShouldResemble, []CloudMatrixCol{
		CloudMatrixColX, CloudMatrixColY,
		CloudMatrixColZ, CloudMatrixColR, CloudMatrixColG, CloudMatrixColB, CloudMatrixColV,
	})
	test.That(t, mcv, test.ShouldResemble, mat.NewDense(1, 7, []float64{1, 2, 3, 123, 45, 67, 5}))
}

func TestRoundingPointCloud(t *testing.T) {
	pc := NewRoundingPointCloud()
	test.That(t, pc.Set(NewVector(1.2, 2.4, 3.1), nil), test.ShouldBeNil)
	test.That(t, pc.Set(NewVector(0.9, 2.1, 2.9), nil), test.ShouldBeNil)
	// both rounded to (1, 2, 3)
	test.That(t, pc.Size(), test.ShouldEqual, 1)
	test.That(t, CloudContains(pc, 1, 2, 3), test.ShouldBeTrue)
	_, got := pc.At(1.4, 2.3, 3.4)
	test.That(t, got, test.ShouldBeTrue)

	pc.Unset(1.1, 1.9, 3.2)
	test.That(t, pc.Size(), test.ShouldEqual, 0)
}
