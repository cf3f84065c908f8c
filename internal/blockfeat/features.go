package blockfeat

import (
	"math"
	"strconv"
)

// PixelStats are whole-block sample statistics.
type PixelStats struct {
	Mean     float64
	Variance float64 // population variance
	StdDev   float64
	Sum      float64
}

// DirectionalStats describe how much samples vary along each axis.
// H values are computed within each row (horizontal direction) and V values
// within each column, then averaged over rows or columns respectively.
type DirectionalStats struct {
	VarH float64 // mean of per-row variances
	VarV float64 // mean of per-column variances
	StdH float64 // mean of per-row standard deviations
	StdV float64 // mean of per-column standard deviations
}

// GradientFeatures summarise one 3×3 gradient operator over the block.
type GradientFeatures struct {
	Gv    float64 // mean |vertical gradient|
	Gh    float64 // mean |horizontal gradient|
	Mag   float64 // mean Euclidean magnitude
	Dir   float64 // mean direction in degrees, [0, 360)
	Ratio float64 // Gh / (Gv + ε)
}

// ContrastFeatures are the raw sample extrema.
type ContrastFeatures struct {
	Min   float64
	Max   float64
	Range float64
}

// HadamardFeatures describe the unnormalised 2-D Walsh–Hadamard spectrum.
type HadamardFeatures struct {
	DC          float64
	EnergyTotal float64
	EnergyAC    float64 // EnergyTotal - DC²
	MaxCoef     float64
	MinCoef     float64
	TopLeft     float64
	TopRight    float64
	BottomLeft  float64
	BottomRight float64
}

// ResidualFeatures describe the prediction residual. The bottom-left
// corner is not part of the descriptor set.
type ResidualFeatures struct {
	SAD         float64
	LastRowSum  float64
	LastColSum  float64
	TopLeft     float64
	TopRight    float64
	BottomRight float64
}

// FeatureVector is the full descriptor record for one block.
type FeatureVector struct {
	Pixel        PixelStats
	Directional  DirectionalStats
	Sobel        GradientFeatures
	Prewitt      GradientFeatures
	Contrast     ContrastFeatures
	LaplacianVar float64
	Entropy      float64 // bits
	Hadamard     HadamardFeatures
	Residual     ResidualFeatures
}

// columns lists the exported column names in Values order.
var columns = []string{
	"Mean", "Var", "StdDev", "Sum",
	"VarH", "VarV", "StdH", "StdV",
	"SobelGV", "SobelGH", "SobelMag", "SobelDir", "SobelRatio",
	"PrewittGV", "PrewittGH", "PrewittMag", "PrewittDir", "PrewittRatio",
	"Min", "Max", "Range", "LaplacianVar", "Entropy",
	"H_DC", "H_EnergyTotal", "H_EnergyAC", "H_Max", "H_Min",
	"H_TL", "H_TR", "H_BL", "H_BR",
	"Resi_SAD", "Resi_LastRow", "Resi_LastCol", "Resi_TL", "Resi_TR", "Resi_BR",
}

// Columns returns the CSV column names of the feature vector.
func Columns() []string {
	return append([]string(nil), columns...)
}

// Values flattens the vector in Columns order.
func (f *FeatureVector) Values() []float64 {
	return []float64{
		f.Pixel.Mean, f.Pixel.Variance, f.Pixel.StdDev, f.Pixel.Sum,
		f.Directional.VarH, f.Directional.VarV, f.Directional.StdH, f.Directional.StdV,
		f.Sobel.Gv, f.Sobel.Gh, f.Sobel.Mag, f.Sobel.Dir, f.Sobel.Ratio,
		f.Prewitt.Gv, f.Prewitt.Gh, f.Prewitt.Mag, f.Prewitt.Dir, f.Prewitt.Ratio,
		f.Contrast.Min, f.Contrast.Max, f.Contrast.Range, f.LaplacianVar, f.Entropy,
		f.Hadamard.DC, f.Hadamard.EnergyTotal, f.Hadamard.EnergyAC, f.Hadamard.MaxCoef, f.Hadamard.MinCoef,
		f.Hadamard.TopLeft, f.Hadamard.TopRight, f.Hadamard.BottomLeft, f.Hadamard.BottomRight,
		f.Residual.SAD, f.Residual.LastRowSum, f.Residual.LastColSum,
		f.Residual.TopLeft, f.Residual.TopRight, f.Residual.BottomRight,
	}
}

// FormatValue renders v with '.' as the decimal point, no exponent and no
// grouping, using the shortest digits that round-trip.
func FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	if v == 0 {
		// avoid "-0"
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// finite replaces NaN and ±Inf with 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (f *FeatureVector) sanitize() {
	for _, p := range []*float64{
		&f.Pixel.Mean, &f.Pixel.Variance, &f.Pixel.StdDev, &f.Pixel.Sum,
		&f.Directional.VarH, &f.Directional.VarV, &f.Directional.StdH, &f.Directional.StdV,
		&f.Sobel.Gv, &f.Sobel.Gh, &f.Sobel.Mag, &f.Sobel.Dir, &f.Sobel.Ratio,
		&f.Prewitt.Gv, &f.Prewitt.Gh, &f.Prewitt.Mag, &f.Prewitt.Dir, &f.Prewitt.Ratio,
		&f.Contrast.Min, &f.Contrast.Max, &f.Contrast.Range, &f.LaplacianVar, &f.Entropy,
		&f.Hadamard.DC, &f.Hadamard.EnergyTotal, &f.Hadamard.EnergyAC, &f.Hadamard.MaxCoef, &f.Hadamard.MinCoef,
		&f.Hadamard.TopLeft, &f.Hadamard.TopRight, &f.Hadamard.BottomLeft, &f.Hadamard.BottomRight,
		&f.Residual.SAD, &f.Residual.LastRowSum, &f.Residual.LastColSum,
		&f.Residual.TopLeft, &f.Residual.TopRight, &f.Residual.BottomRight,
	} {
		*p = finite(*p)
	}
}
