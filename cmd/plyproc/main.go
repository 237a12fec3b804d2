// Package main is the plyproc CLI command itself.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/plyproc/plyproc/pointcloud"
	"github.com/plyproc/plyproc/render"
	"github.com/plyproc/plyproc/segmentation"
	"github.com/plyproc/plyproc/spatialmath"
)

const (
	flagFormat         = "format"
	flagVoxelSize      = "voxel-size"
	flagNeighbors      = "neighbors"
	flagStddevRatio    = "stddev-ratio"
	flagThreshold      = "threshold"
	flagMinPoints      = "min-points"
	flagRemainder      = "remainder"
	flagClusterRadius  = "cluster-radius"
	flagClusterMinimum = "cluster-min-points"
	flagJSON           = "json"
)

func main() {
	var logger golog.Logger

	app := &cli.App{
		Name:  "plyproc",
		Usage: "process point clouds with plane fitting and bounding boxes",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				logger = golog.NewDebugLogger("plyproc")
			} else {
				logger = zap.NewNop().Sugar()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "print the size and bounds of a point cloud",
				ArgsUsage: "FILE",
				Action: func(c *cli.Context) error {
					cloud, err := readCloudArg(c, 0, logger)
					if err != nil {
						return err
					}
					meta := cloud.MetaData()
					fmt.Fprintf(c.App.Writer, "points: %d\n", cloud.Size())
					fmt.Fprintf(c.App.Writer, "bounds: x [%f, %f] y [%f, %f] z [%f, %f]\n",
						meta.MinX, meta.MaxX, meta.MinY, meta.MaxY, meta.MinZ, meta.MaxZ)
					fmt.Fprintf(c.App.Writer, "has color: %t\nhas value: %t\n", meta.HasColor, meta.HasValue)
					centroid := pointcloud.CloudCentroid(cloud)
					fmt.Fprintf(c.App.Writer, "centroid: (%f, %f, %f)\n", centroid.X, centroid.Y, centroid.Z)
					return nil
				},
			},
			{
				Name:      "convert",
				Usage:     "convert between ply and pcd files, by extension",
				ArgsUsage: "IN OUT",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagFormat,
						Value: "binary",
						Usage: "output encoding (ascii or binary)",
					},
				},
				Action: func(c *cli.Context) error {
					cloud, err := readCloudArg(c, 0, logger)
					if err != nil {
						return err
					}
					out := c.Args().Get(1)
					if out == "" {
						return errors.New("missing output file argument")
					}
					return writeCloud(cloud, out, c.String(flagFormat))
				},
			},
			{
				Name:      "downsample",
				Usage:     "voxel-downsample a point cloud",
				ArgsUsage: "IN OUT",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:  flagVoxelSize,
						Value: 10,
						Usage: "side length of the downsampling voxels",
					},
				},
				Action: func(c *cli.Context) error {
					cloud, err := readCloudArg(c, 0, logger)
					if err != nil {
						return err
					}
					out := c.Args().Get(1)
					if out == "" {
						return errors.New("missing output file argument")
					}
					downsampled, err := pointcloud.VoxelDownsample(cloud, c.Float64(flagVoxelSize))
					if err != nil {
						return err
					}
					logger.Infow("downsampled", "before", cloud.Size(), "after", downsampled.Size())
					return pointcloud.WriteToFile(downsampled, out)
				},
			},
			{
				Name:      "outliers",
				Usage:     "remove statistical outliers from a point cloud",
				ArgsUsage: "IN OUT",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagNeighbors,
						Value: 20,
						Usage: "number of nearest neighbors to average",
					},
					&cli.Float64Flag{
						Name:  flagStddevRatio,
						Value: 2.0,
						Usage: "standard deviation multiplier above which points are dropped",
					},
				},
				Action: func(c *cli.Context) error {
					cloud, err := readCloudArg(c, 0, logger)
					if err != nil {
						return err
					}
					out := c.Args().Get(1)
					if out == "" {
						return errors.New("missing output file argument")
					}
					filtered, err := pointcloud.RemoveStatisticalOutliers(cloud, c.Int(flagNeighbors), c.Float64(flagStddevRatio))
					if err != nil {
						return err
					}
					logger.Infow("removed outliers", "before", cloud.Size(), "after", filtered.Size())
					return pointcloud.WriteToFile(filtered, out)
				},
			},
			{
				Name:      "planes",
				Usage:     "segment the dominant planes of a point cloud",
				ArgsUsage: "IN",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:  flagThreshold,
						Value: 10,
						Usage: "maximum distance to a plane for a point to be an inlier",
					},
					&cli.IntFlag{
						Name:  flagMinPoints,
						Value: 100,
						Usage: "minimum number of inliers for a plane to be kept",
					},
					&cli.StringFlag{
						Name:  flagRemainder,
						Usage: "write the leftover points to `FILE`",
					},
					&cli.BoolFlag{
						Name:  flagJSON,
						Usage: "print planes as json",
					},
				},
				Action: func(c *cli.Context) error {
					cloud, err := readCloudArg(c, 0, logger)
					if err != nil {
						return err
					}
					planes, rest, err := segmentation.FindPlanes(c.Context, cloud, c.Float64(flagThreshold), c.Int(flagMinPoints))
					if err != nil {
						return err
					}
					if fn := c.String(flagRemainder); fn != "" {
						if err := pointcloud.WriteToFile(rest, fn); err != nil {
							return err
						}
					}
					return printPlanes(c, planes, rest)
				},
			},
			{
				Name:      "boxes",
				Usage:     "fit oriented bounding boxes around the objects left after removing planes",
				ArgsUsage: "IN",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:  flagThreshold,
						Value: 10,
						Usage: "maximum distance to a plane for a point to be an inlier",
					},
					&cli.IntFlag{
						Name:  flagMinPoints,
						Value: 100,
						Usage: "minimum number of inliers for a plane to be kept",
					},
					&cli.Float64Flag{
						Name:  flagClusterRadius,
						Value: 20,
						Usage: "maximum distance between points of the same object",
					},
					&cli.IntFlag{
						Name:  flagClusterMinimum,
						Value: 10,
						Usage: "minimum number of points of a reported object",
					},
					&cli.BoolFlag{
						Name:  flagJSON,
						Usage: "print boxes as json",
					},
				},
				Action: func(c *cli.Context) error {
					cloud, err := readCloudArg(c, 0, logger)
					if err != nil {
						return err
					}
					_, rest, err := segmentation.FindPlanes(c.Context, cloud, c.Float64(flagThreshold), c.Int(flagMinPoints))
					if err != nil {
						return err
					}
					objects, err := segmentation.ClusterByRadius(rest, segmentation.ClusterConfig{
						Radius:    c.Float64(flagClusterRadius),
						MinPoints: c.Int(flagClusterMinimum),
					})
					if err != nil {
						return err
					}
					return printBoxes(c, objects)
				},
			},
			{
				Name:      "render",
				Usage:     "render xy/xz/yz projection plots of a segmented point cloud",
				ArgsUsage: "IN OUT_DIR",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:  flagThreshold,
						Value: 10,
						Usage: "maximum distance to a plane for a point to be an inlier",
					},
					&cli.IntFlag{
						Name:  flagMinPoints,
						Value: 100,
						Usage: "minimum number of inliers for a plane to be kept",
					},
					&cli.Float64Flag{
						Name:  flagClusterRadius,
						Value: 20,
						Usage: "maximum distance between points of the same object",
					},
					&cli.IntFlag{
						Name:  flagClusterMinimum,
						Value: 10,
						Usage: "minimum number of points of a reported object",
					},
				},
				Action: func(c *cli.Context) error {
					cloud, err := readCloudArg(c, 0, logger)
					if err != nil {
						return err
					}
					outDir := c.Args().Get(1)
					if outDir == "" {
						return errors.New("missing output directory argument")
					}
					planes, rest, err := segmentation.FindPlanes(c.Context, cloud, c.Float64(flagThreshold), c.Int(flagMinPoints))
					if err != nil {
						return err
					}
					objects, err := segmentation.ClusterByRadius(rest, segmentation.ClusterConfig{
						Radius:    c.Float64(flagClusterRadius),
						MinPoints: c.Int(flagClusterMinimum),
					})
					if err != nil {
						return err
					}
					boxes := make([]*spatialmath.Box, 0, len(objects))
					for _, obj := range objects {
						if obj.Geometry != nil {
							boxes = append(boxes, obj.Geometry)
						}
					}
					scene := &render.Scene{Cloud: rest, Planes: planes, Boxes: boxes}
					if err := render.SaveAll(scene, outDir); err != nil {
						return err
					}
					logger.Infow("wrote projections", "dir", outDir, "planes", len(planes), "boxes", len(boxes))
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func readCloudArg(c *cli.Context, idx int, logger golog.Logger) (pointcloud.PointCloud, error) {
	fn := c.Args().Get(idx)
	if fn == "" {
		return nil, errors.New("missing input file argument")
	}
	return pointcloud.NewFromFile(fn, logger)
}

func writeCloud(cloud pointcloud.PointCloud, fn, format string) error {
	switch format {
	case "binary":
		return pointcloud.WriteToFile(cloud, fn)
	case "ascii":
		switch filepath.Ext(fn) {
		case ".ply":
			return pointcloud.WritePLYFile(fn, cloud, pointcloud.PLYAscii)
		case ".pcd":
			return pointcloud.WritePCDFile(fn, cloud, pointcloud.PCDAscii)
		default:
			return errors.Errorf("do not know how to write file %q", fn)
		}
	default:
		return errors.Errorf("unsupported format %q", format)
	}
}

type planeOutput struct {
	Equation [4]float64 `json:"equation"`
	Center   [3]float64 `json:"center"`
	Inliers  int        `json:"inliers"`
}

func printPlanes(c *cli.Context, planes []pointcloud.Plane, rest pointcloud.PointCloud) error {
	outputs := make([]planeOutput, 0, len(planes))
	for _, plane := range planes {
		cloud, err := plane.PointCloud()
		if err != nil {
			return err
		}
		eq := plane.Equation()
		center := plane.Center()
		outputs = append(outputs, planeOutput{
			Equation: eq,
			Center:   [3]float64{center.X, center.Y, center.Z},
			Inliers:  cloud.Size(),
		})
	}
	if c.Bool(flagJSON) {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(outputs)
	}
	for i, out := range outputs {
		fmt.Fprintf(c.App.Writer, "plane %d: %fx + %fy + %fz + %f = 0 (%d inliers)\n",
			i, out.Equation[0], out.Equation[1], out.Equation[2], out.Equation[3], out.Inliers)
	}
	fmt.Fprintf(c.App.Writer, "leftover points: %d\n", rest.Size())
	return nil
}

func printBoxes(c *cli.Context, objects []*segmentation.Object) error {
	if c.Bool(flagJSON) {
		boxes := make([]*spatialmath.Box, 0, len(objects))
		for _, obj := range objects {
			if obj.Geometry != nil {
				boxes = append(boxes, obj.Geometry)
			}
		}
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(boxes)
	}
	for i, obj := range objects {
		if obj.Geometry == nil {
			continue
		}
		fmt.Fprintf(c.App.Writer, "object %d (%d points): %s\n", i, obj.Size(), obj.Geometry.String())
	}
	return nil
}
