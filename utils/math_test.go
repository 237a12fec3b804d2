package utils

import (
	"math"
	"math/rand"
	"testing"

	"go.viam.com/test"
)

func TestDegRadConversions(t *testing.T) {
	test.That(t, DegToRad(0), test.ShouldEqual, 0)
	test.That(t, DegToRad(180), test.ShouldAlmostEqual, math.Pi)
	test.That(t, DegToRad(-90), test.ShouldAlmostEqual, -math.Pi/2)
	test.That(t, RadToDeg(math.Pi), test.ShouldAlmostEqual, 180)
	test.That(t, RadToDeg(DegToRad(37.5)), test.ShouldAlmostEqual, 37.5)
}

func TestFloat64AlmostEqual(t *testing.T) {
	test.That(t, Float64AlmostEqual(1.0, 1.0+1e-9, 1e-8), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1.0, 1.1, 1e-8), test.ShouldBeFalse)
	test.That(t, Float64AlmostEqual(-1.0, -1.0, 0), test.ShouldBeTrue)
}

func TestSampleRandomIntRange(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		n := SampleRandomIntRange(3, 7, r)
		test.That(t, n, test.ShouldBeGreaterThanOrEqualTo, 3)
		test.That(t, n, test.ShouldBeLessThanOrEqualTo, 7)
	}
}

func TestMinMaxInt(t *testing.T) {
	test.That(t, MinInt(3, 7), test.ShouldEqual, 3)
	test.That(t, MinInt(7, 3), test.ShouldEqual, 3)
	test.That(t, MaxInt(3, 7), test.ShouldEqual, 7)
	test.That(t, MaxInt(-1, -5), test.ShouldEqual, -1)
}
