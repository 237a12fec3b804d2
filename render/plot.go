// Package render draws 2D orthographic projections of point clouds,
// segmented planes and bounding boxes to image files.
package render

import (
	"image/color"
	"os"
	"path/filepath"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	pc "github.com/plyproc/plyproc/pointcloud"
	"github.com/plyproc/plyproc/spatialmath"
)

// Projection selects the pair of axes a scene is projected onto.
type Projection int

const (
	// ProjectionXY projects along the Z axis.
	ProjectionXY Projection = iota
	// ProjectionXZ projects along the Y axis.
	ProjectionXZ
	// ProjectionYZ projects along the X axis.
	ProjectionYZ
)

// String returns the name of the axis pair.
func (p Projection) String() string {
	switch p {
	case ProjectionXY:
		return "xy"
	case ProjectionXZ:
		return "xz"
	case ProjectionYZ:
		return "yz"
	default:
		return "unknown"
	}
}

func (p Projection) project(v r3.Vector) (x, y float64) {
	switch p {
	case ProjectionXY:
		return v.X, v.Y
	case ProjectionXZ:
		return v.X, v.Z
	case ProjectionYZ:
		return v.Y, v.Z
	default:
		return v.X, v.Y
	}
}

func (p Projection) labels() (x, y string) {
	switch p {
	case ProjectionXY:
		return "x", "y"
	case ProjectionXZ:
		return "x", "z"
	case ProjectionYZ:
		return "y", "z"
	default:
		return "x", "y"
	}
}

// Scene is a cloud of leftover points plus segmented planes and boxes to draw.
type Scene struct {
	Cloud  pc.PointCloud
	Planes []pc.Plane
	Boxes  []*spatialmath.Box
}

func cloudXYs(cloud pc.PointCloud, proj Projection) plotter.XYs {
	if cloud == nil {
		return nil
	}
	xys := make(plotter.XYs, 0, cloud.Size())
	cloud.Iterate(0, 0, func(pt r3.Vector, d pc.Data) bool {
		x, y := proj.project(pt)
		xys = append(xys, plotter.XY{X: x, Y: y})
		return true
	})
	return xys
}

// PlotProjection renders one orthographic projection of the scene to the
// given file. The image format follows the file extension (png, svg, pdf).
func PlotProjection(scene *Scene, proj Projection, fn string) error {
	p := plot.New()
	p.Title.Text = "point cloud " + proj.String() + " projection"
	xLabel, yLabel := proj.labels()
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	if scene.Cloud != nil && scene.Cloud.Size() > 0 {
		scatter, err := plotter.NewScatter(cloudXYs(scene.Cloud, proj))
		if err != nil {
			return errors.Wrap(err, "cannot plot point cloud")
		}
		scatter.GlyphStyle.Radius = vg.Points(1)
		scatter.GlyphStyle.Color = color.Gray{128}
		p.Add(scatter)
	}

	for i, plane := range scene.Planes {
		inliers, err := plane.PointCloud()
		if err != nil {
			return err
		}
		if inliers == nil || inliers.Size() == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(cloudXYs(inliers, proj))
		if err != nil {
			return errors.Wrapf(err, "cannot plot plane %d", i)
		}
		scatter.GlyphStyle.Radius = vg.Points(1)
		scatter.GlyphStyle.Color = plotutil.Color(i)
		p.Add(scatter)
	}

	for i, box := range scene.Boxes {
		verts := box.Vertices()
		for _, edge := range spatialmath.BoxEdgeIndices {
			x0, y0 := proj.project(verts[edge[0]])
			x1, y1 := proj.project(verts[edge[1]])
			line, err := plotter.NewLine(plotter.XYs{{X: x0, Y: y0}, {X: x1, Y: y1}})
			if err != nil {
				return errors.Wrapf(err, "cannot plot box %d", i)
			}
			line.Width = vg.Points(1)
			line.Color = color.NRGBA{R: 220, A: 255}
			p.Add(line)
		}
	}

	return p.Save(8*vg.Inch, 8*vg.Inch, fn)
}

// SaveAll writes the xy, xz and yz projections of the scene as pngs in the
// given directory.
func SaveAll(scene *Scene, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create output dir")
	}
	for _, proj := range []Projection{ProjectionXY, ProjectionXZ, ProjectionYZ} {
		fn := filepath.Join(dir, "projection_"+proj.String()+".png")
		if err := PlotProjection(scene, proj, fn); err != nil {
			return err
		}
	}
	return nil
}
