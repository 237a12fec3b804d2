package pointcloud

import (
	"bytes"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestPCDHeader(t *testing.T) {
	cloud := makeColoredCloud(t)
	var buf bytes.Buffer
	test.That(t, ToPCD(cloud, &buf, PCDAscii), test.ShouldBeNil)

	out := buf.String()
	test.That(t, out, test.ShouldStartWith, "VERSION .7\n")
	test.That(t, out, test.ShouldContainSubstring, "FIELDS x y z rgb\n")
	test.That(t, out, test.ShouldContainSubstring, "SIZE 4 4 4 4\n")
	test.That(t, out, test.ShouldContainSubstring, "TYPE F F F I\n")
	test.That(t, out, test.ShouldContainSubstring, "WIDTH 4\n")
	test.That(t, out, test.ShouldContainSubstring, "HEIGHT 1\n")
	test.That(t, out, test.ShouldContainSubstring, "POINTS 4\n")
	test.That(t, out, test.ShouldContainSubstring, "DATA ascii\n")

	cloud = New()
	test.That(t, cloud.Set(NewVector(1, 2, 3), nil), test.ShouldBeNil)
	buf.Reset()
	test.That(t, ToPCD(cloud, &buf, PCDBinary), test.ShouldBeNil)
	out = buf.String()
	test.That(t, out, test.ShouldContainSubstring, "FIELDS x y z\n")
	test.That(t, out, test.ShouldContainSubstring, "TYPE F F F\n")
	test.That(t, out, test.ShouldContainSubstring, "DATA binary\n")
}

func testPCDRoundTrip(t *testing.T, pcdtype PCDType) {
	t.Helper()
	cloud := makeColoredCloud(t)
	var buf bytes.Buffer
	test.That(t, ToPCD(cloud, &buf, pcdtype), test.ShouldBeNil)

	cloud2, err := ReadPCD(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cloud2.Size(), test.ShouldEqual, cloud.Size())
	test.That(t, cloud2.MetaData().HasColor, test.ShouldBeTrue)

	// clouds hold millimeters, the file holds meters
	d, got := cloud2.At(-2, 3, 5)
	test.That(t, got, test.ShouldBeTrue)
	test.That(t, d.HasColor(), test.ShouldBeTrue)
	r, g, b := d.RGB255()
	test.That(t, r, test.ShouldEqual, 12)
	test.That(t, g, test.ShouldEqual, 34)
	test.That(t, b, test.ShouldEqual, 56)
}

func TestPCDRoundTripAscii(t *testing.T) {
	testPCDRoundTrip(t, PCDAscii)
}

func TestPCDRoundTripBinary(t *testing.T) {
	testPCDRoundTrip(t, PCDBinary)
}

func TestPCDNoColor(t *testing.T) {
	cloud := New()
	test.That(t, cloud.Set(NewVector(100, 200, 300), nil), test.ShouldBeNil)
	test.That(t, cloud.Set(NewVector(-400, 500, -600), nil), test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, ToPCD(cloud, &buf, PCDBinary), test.ShouldBeNil)
	cloud2, err := ReadPCD(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cloud2.Size(), test.ShouldEqual, 2)
	test.That(t, CloudContains(cloud2, 100, 200, 300), test.ShouldBeTrue)
	test.That(t, CloudContains(cloud2, -400, 500, -600), test.ShouldBeTrue)
	test.That(t, cloud2.MetaData().HasColor, test.ShouldBeFalse)
}

func TestPCDBadSize(t *testing.T) {
	// a field narrower than 4 bytes is rejected at the header, before any
	// data is decoded
	header := "VERSION .7\n" +
		"FIELDS x y z\n" +
		"SIZE 4 4 2\n" +
		"TYPE F F F\n" +
		"COUNT 1 1 1\n" +
		"WIDTH 1\nHEIGHT 1\nVIEWPOINT 0 0 0 1 0 0 0\nPOINTS 1\nDATA binary\n"
	_, err := ReadPCD(strings.NewReader(header))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "only 4 byte fields")
}

func TestPCDCompressedUnsupported(t *testing.T) {
	cloud := New()
	test.That(t, cloud.Set(NewVector(1, 2, 3), nil), test.ShouldBeNil)
	var buf bytes.Buffer
	err := ToPCD(cloud, &buf, PCDCompressed)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "compressed")
}

func TestPCDFile(t *testing.T) {
	cloud := New()
	test.That(t, cloud.Set(NewVector(10, 20, 30), NewColoredData(color.NRGBA{1, 2, 3, 255})), test.ShouldBeNil)

	fn := filepath.Join(t.TempDir(), "cloud.pcd")
	test.That(t, WritePCDFile(fn, cloud, PCDAscii), test.ShouldBeNil)

	cloud2, err := ReadPCDFile(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cloud2.Size(), test.ShouldEqual, 1)
	test.That(t, CloudContains(cloud2, 10, 20, 30), test.ShouldBeTrue)
}
