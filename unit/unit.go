// Package unit converts physical measurements to PDF points, the native
// unit of the renderer.
package unit

// PointsPerInch is fixed by the PDF coordinate system.
const PointsPerInch = 72.0

// CmPerInch is exact by definition.
const CmPerInch = 2.54

// CmToPt converts centimeters to points.
func CmToPt(cm float64) float64 {
	return cm * PointsPerInch / CmPerInch
}

// PtToCm converts points to centimeters.
func PtToCm(pt float64) float64 {
	return pt * CmPerInch / PointsPerInch
}

// InchToPt converts inches to points.
func InchToPt(in float64) float64 {
	return in * PointsPerInch
}

// MmToPt converts millimeters to points.
func MmToPt(mm float64) float64 {
	return CmToPt(mm / 10)
}
