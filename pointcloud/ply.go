package pointcloud

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
)

// PLYFormat is the on-disk encoding of a ply file.
type PLYFormat int

const (
	// PLYAscii is the ascii format for ply.
	PLYAscii PLYFormat = 0
	// PLYBinary is the binary_little_endian format for ply.
	PLYBinary PLYFormat = 1
)

type plyProperty struct {
	name   string
	dtype  string
	isList bool
}

type plyElement struct {
	name       string
	count      int
	properties []plyProperty
}

type plyHeader struct {
	format   string
	elements []plyElement
	raw      []byte
}

var plyScalarSizes = map[string]int{
	"char": 1, "int8": 1, "uchar": 1, "uint8": 1,
	"short": 2, "int16": 2, "ushort": 2, "uint16": 2,
	"int": 4, "int32": 4, "uint": 4, "uint32": 4,
	"float": 4, "float32": 4, "double": 8, "float64": 8,
}

func parsePLYHeader(in *bufio.Reader) (*plyHeader, error) {
	header := &plyHeader{}
	line, err := in.ReadString('\n')
	if err != nil {
		return nil, errors.Wrap(err, "invalid ply header")
	}
	header.raw = append(header.raw, line...)
	if strings.TrimSpace(line) != "ply" {
		return nil, errors.New("not a ply file, missing magic line")
	}
	for {
		line, err = in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(err, "unterminated ply header")
		}
		header.raw = append(header.raw, line...)
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		switch tokens[0] {
		case "comment", "obj_info":
		case "format":
			if len(tokens) < 2 {
				return nil, errors.New("invalid ply format line")
			}
			header.format = tokens[1]
		case "element":
			if len(tokens) != 3 {
				return nil, errors.Errorf("invalid ply element line %q", strings.TrimSpace(line))
			}
			count, err := strconv.Atoi(tokens[2])
			if err != nil || count < 0 {
				return nil, errors.Errorf("invalid ply element count %q", tokens[2])
			}
			header.elements = append(header.elements, plyElement{name: tokens[1], count: count})
		case "property":
			if len(header.elements) == 0 {
				return nil, errors.New("ply property declared outside of an element")
			}
			el := &header.elements[len(header.elements)-1]
			switch {
			case len(tokens) == 3:
				el.properties = append(el.properties, plyProperty{name: tokens[2], dtype: tokens[1]})
			case len(tokens) == 5 && tokens[1] == "list":
				el.properties = append(el.properties, plyProperty{name: tokens[4], isList: true})
			default:
				return nil, errors.Errorf("invalid ply property line %q", strings.TrimSpace(line))
			}
		case "end_header":
			return header, nil
		default:
			return nil, errors.Errorf("unsupported ply header line %q", strings.TrimSpace(line))
		}
	}
}

// ReadPLY reads a point cloud from a ply reader. Both ascii and
// binary_little_endian encodings are supported. The x, y and z vertex
// properties are required; red, green, blue and value are optional.
func ReadPLY(r io.Reader) (PointCloud, error) {
	in := bufio.NewReader(r)
	header, err := parsePLYHeader(in)
	if err != nil {
		return nil, err
	}
	switch header.format {
	case "ascii":
		// goply re-reads the header from the replayed bytes
		vertices, err := plyVertices(io.MultiReader(bytes.NewReader(header.raw), in))
		if err != nil {
			return nil, err
		}
		pc := NewWithPrealloc(len(vertices))
		for i, v := range vertices {
			if err := setPLYVertex(pc, i, v); err != nil {
				return nil, err
			}
		}
		return pc, nil
	case "binary_little_endian":
		return readPLYBinary(in, header)
	default:
		return nil, errors.Errorf("unsupported ply format %q", header.format)
	}
}

// plyVertices extracts the vertex element via goply. goply panics on
// malformed input, so turn panics into errors here.
func plyVertices(r io.Reader) (vertices []map[string]interface{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("invalid ply: %v", p)
		}
	}()
	ply := goply.New(r)
	for _, e := range ply.Elements("vertex") {
		vertices = append(vertices, e)
	}
	return vertices, nil
}

func readPLYBinary(in *bufio.Reader, header *plyHeader) (PointCloud, error) {
	for _, el := range header.elements {
		if el.name == "vertex" {
			return readPLYBinaryVertices(in, el)
		}
		// skip elements preceding the vertex data; list properties have no
		// fixed row size, so they cannot be skipped
		rowSize := 0
		for _, prop := range el.properties {
			if prop.isList {
				return nil, errors.Errorf("cannot skip ply element %q with list properties before vertex data", el.name)
			}
			size, ok := plyScalarSizes[prop.dtype]
			if !ok {
				return nil, errors.Errorf("unsupported ply property type %q", prop.dtype)
			}
			rowSize += size
		}
		if _, err := io.CopyN(io.Discard, in, int64(rowSize*el.count)); err != nil {
			return nil, errors.Wrapf(err, "short ply element %q", el.name)
		}
	}
	return nil, errors.New("ply file has no vertex element")
}

func readPLYBinaryVertices(in *bufio.Reader, el plyElement) (PointCloud, error) {
	rowSize := 0
	offsets := make([]int, len(el.properties))
	for i, prop := range el.properties {
		if prop.isList {
			return nil, errors.Errorf("unsupported list property %q in vertex element", prop.name)
		}
		size, ok := plyScalarSizes[prop.dtype]
		if !ok {
			return nil, errors.Errorf("unsupported ply property type %q", prop.dtype)
		}
		offsets[i] = rowSize
		rowSize += size
	}

	pc := NewWithPrealloc(el.count)
	row := make([]byte, rowSize)
	vertex := make(map[string]interface{}, len(el.properties))
	for i := 0; i < el.count; i++ {
		if _, err := io.ReadFull(in, row); err != nil {
			return nil, errors.Wrapf(err, "short read on ply vertex %d", i)
		}
		for j, prop := range el.properties {
			vertex[prop.name] = decodePLYScalar(prop.dtype, row[offsets[j]:])
		}
		if err := setPLYVertex(pc, i, vertex); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

func decodePLYScalar(dtype string, b []byte) interface{} {
	switch dtype {
	case "char", "int8":
		return int8(b[0])
	case "uchar", "uint8":
		return b[0]
	case "short", "int16":
		return int16(binary.LittleEndian.Uint16(b))
	case "ushort", "uint16":
		return binary.LittleEndian.Uint16(b)
	case "int", "int32":
		return int32(binary.LittleEndian.Uint32(b))
	case "uint", "uint32":
		return binary.LittleEndian.Uint32(b)
	case "float", "float32":
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case "double", "float64":
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	default:
		return nil
	}
}

func setPLYVertex(pc PointCloud, i int, v map[string]interface{}) error {
	x, ok := plyFloat(v["x"])
	if !ok {
		return errors.Errorf("vertex %d is missing an x property", i)
	}
	y, ok := plyFloat(v["y"])
	if !ok {
		return errors.Errorf("vertex %d is missing a y property", i)
	}
	z, ok := plyFloat(v["z"])
	if !ok {
		return errors.Errorf("vertex %d is missing a z property", i)
	}

	var d Data
	red, hasRed := plyFloat(v["red"])
	green, hasGreen := plyFloat(v["green"])
	blue, hasBlue := plyFloat(v["blue"])
	if hasRed && hasGreen && hasBlue {
		d = NewColoredData(color.NRGBA{uint8(red), uint8(green), uint8(blue), 255})
	}
	if value, hasValue := plyFloat(v["value"]); hasValue {
		if d == nil {
			d = NewBasicData()
		}
		d.SetValue(int(value))
	}

	return pc.Set(r3.Vector{X: x, Y: y, Z: z}, d)
}

// ReadPLYFile reads a point cloud from a ply file.
func ReadPLYFile(fn string) (PointCloud, error) {
	f, err := os.Open(fn) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	return ReadPLY(bufio.NewReader(f))
}

// plyFloat widens whatever scalar type goply decoded a property into.
func plyFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}

// WritePLY writes the point cloud out as a ply to the given writer. The
// color and value properties are emitted only if the cloud's metadata has
// them; points lacking a color are written white, points lacking a value
// are written zero.
func WritePLY(cloud PointCloud, out io.Writer, format PLYFormat) error {
	meta := cloud.MetaData()

	var err error
	switch format {
	case PLYAscii:
		_, err = fmt.Fprintf(out, "ply\nformat ascii 1.0\n")
	case PLYBinary:
		_, err = fmt.Fprintf(out, "ply\nformat binary_little_endian 1.0\n")
	default:
		return errors.Errorf("unsupported ply format %d", format)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "element vertex %d\n"+
		"property float x\n"+
		"property float y\n"+
		"property float z\n", cloud.Size())
	if err != nil {
		return err
	}
	if meta.HasColor {
		if _, err = fmt.Fprintf(out, "property uchar red\nproperty uchar green\nproperty uchar blue\n"); err != nil {
			return err
		}
	}
	if meta.HasValue {
		if _, err = fmt.Fprintf(out, "property int value\n"); err != nil {
			return err
		}
	}
	if _, err = fmt.Fprintf(out, "end_header\n"); err != nil {
		return err
	}

	return writePLYData(cloud, out, format)
}

func writePLYData(cloud PointCloud, out io.Writer, format PLYFormat) error {
	meta := cloud.MetaData()
	var err error
	cloud.Iterate(0, 0, func(pos r3.Vector, d Data) bool {
		red, green, blue := 255, 255, 255
		if meta.HasColor && d != nil && d.HasColor() {
			r, g, b := d.RGB255()
			red, green, blue = int(r), int(g), int(b)
		}
		value := 0
		if meta.HasValue && d != nil && d.HasValue() {
			value = d.Value()
		}

		switch format {
		case PLYBinary:
			buf := make([]byte, 0, 19)
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(pos.X)))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(pos.Y)))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(pos.Z)))
			if meta.HasColor {
				buf = append(buf, byte(red), byte(green), byte(blue))
			}
			if meta.HasValue {
				buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(value)))
			}
			_, err = out.Write(buf)
		case PLYAscii:
			_, err = fmt.Fprintf(out, "%f %f %f", pos.X, pos.Y, pos.Z)
			if err == nil && meta.HasColor {
				_, err = fmt.Fprintf(out, " %d %d %d", red, green, blue)
			}
			if err == nil && meta.HasValue {
				_, err = fmt.Fprintf(out, " %d", value)
			}
			if err == nil {
				_, err = fmt.Fprintf(out, "\n")
			}
		}
		return err == nil
	})
	return err
}

// WritePLYFile writes the point cloud out to a ply file.
func WritePLYFile(fn string, cloud PointCloud, format PLYFormat) (err error) {
	f, err := os.Create(fn) //nolint:gosec
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	w := bufio.NewWriter(f)
	if err = WritePLY(cloud, w, format); err != nil {
		return err
	}
	return w.Flush()
}
