package pointcloud

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// CloudMatrixCol is a type that represents the columns of a CloudMatrix.
type CloudMatrixCol int

const (
	// CloudMatrixColX is the x column in the cloud matrix.
	CloudMatrixColX CloudMatrixCol = 0
	// CloudMatrixColY is the y column in the cloud matrix.
	CloudMatrixColY CloudMatrixCol = 1
	// CloudMatrixColZ is the z column in the cloud matrix.
	CloudMatrixColZ CloudMatrixCol = 2
	// CloudMatrixColR is the r column in the cloud matrix.
	CloudMatrixColR CloudMatrixCol = 3
	// CloudMatrixColG is the g column in the cloud matrix.
	CloudMatrixColG CloudMatrixCol = 4
	// CloudMatrixColB is the b column in the cloud matrix.
	CloudMatrixColB CloudMatrixCol = 5
	// CloudMatrixColV is the value column in the cloud matrix.
	CloudMatrixColV CloudMatrixCol = 6
)

// CloudMatrix Returns a Matrix representation of a Cloud along with a header
// list. The header list is to maintain knowledge of what data is in each
// column. Rows are in the cloud's iteration order.
func CloudMatrix(pc PointCloud) (*mat.Dense, []CloudMatrixCol) {
	if pc.Size() == 0 {
		return nil, nil
	}
	header := []CloudMatrixCol{CloudMatrixColX, CloudMatrixColY, CloudMatrixColZ}
	pointSize := 3
	meta := pc.MetaData()
	if meta.HasColor {
		header = append(header, CloudMatrixColR, CloudMatrixColG, CloudMatrixColB)
		pointSize += 3
	}
	if meta.HasValue {
		header = append(header, CloudMatrixColV)
		pointSize++
	}

	matData := make([]float64, 0, pc.Size()*pointSize)
	pc.Iterate(0, 0, func(p r3.Vector, d Data) bool {
		matData = append(matData, p.X, p.Y, p.Z)
		if meta.HasColor {
			r, g, b := uint8(255), uint8(255), uint8(255)
			if d != nil && d.HasColor() {
				r, g, b = d.RGB255()
			}
			matData = append(matData, float64(r), float64(g), float64(b))
		}
		if meta.HasValue {
			v := 0
			if d != nil && d.HasValue() {
				v = d.Value()
			}
			matData = append(matData, float64(v))
		}
		return true
	})
	return mat.NewDense(pc.Size(), pointSize, matData), header
}
