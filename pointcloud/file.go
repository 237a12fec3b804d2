package pointcloud

import (
	"path/filepath"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

// NewFromFile returns a pointcloud read in from the given file.
func NewFromFile(fn string, logger golog.Logger) (PointCloud, error) {
	switch filepath.Ext(fn) {
	case ".ply":
		logger.Debugw("reading ply file", "file", fn)
		return ReadPLYFile(fn)
	case ".pcd":
		logger.Debugw("reading pcd file", "file", fn)
		return ReadPCDFile(fn)
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
}

// WriteToFile writes the given point cloud to a file, dispatching on the
// file extension. PLY files are written binary_little_endian, PCD binary.
func WriteToFile(cloud PointCloud, fn string) error {
	switch filepath.Ext(fn) {
	case ".ply":
		return WritePLYFile(fn, cloud, PLYBinary)
	case ".pcd":
		return WritePCDFile(fn, cloud, PCDBinary)
	default:
		return errors.Errorf("do not know how to write file %q", fn)
	}
}
