package blockfeat

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// gradientEpsilon keeps the gradient ratio finite for blocks without
// vertical detail.
const gradientEpsilon = 1e-6

// DefaultEntropyMaxValue is the upper bound of the entropy histogram,
// sized for 10-bit video.
const DefaultEntropyMaxValue = 1024

// EntropyBins is the number of histogram bins used by Entropy.
const EntropyBins = 256

var (
	sobelX = kernel3{
		-1, 0, 1,
		-2, 0, 2,
		-1, 0, 1,
	}
	sobelY = kernel3{
		-1, -2, -1,
		0, 0, 0,
		1, 2, 1,
	}
	prewittX = kernel3{
		-1, 0, 1,
		-1, 0, 1,
		-1, 0, 1,
	}
	prewittY = kernel3{
		-1, -1, -1,
		0, 0, 0,
		1, 1, 1,
	}
	laplacian = kernel3{
		0, 1, 0,
		1, -4, 1,
		0, 1, 0,
	}
)

// Options tune the extractors. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// EntropyMaxValue is the exclusive upper bound of the histogram range.
	EntropyMaxValue float64
}

// DefaultOptions returns the options used for 10-bit content.
func DefaultOptions() Options {
	return Options{EntropyMaxValue: DefaultEntropyMaxValue}
}

// Extract computes every descriptor of blk and of its residual resi using
// DefaultOptions.
func Extract(blk, resi Block) FeatureVector {
	return DefaultOptions().Extract(blk, resi)
}

// Extract computes every descriptor of blk and of its residual resi.
// Empty blocks contribute zero descriptors.
func (o Options) Extract(blk, resi Block) FeatureVector {
	var f FeatureVector
	if !blk.Empty() {
		f.Pixel = BasicStats(blk)
		f.Directional = Directional(blk)
		f.Sobel = Sobel(blk)
		f.Prewitt = Prewitt(blk)
		f.Contrast = Contrast(blk)
		f.LaplacianVar = LaplacianVariance(blk)
		f.Entropy = Entropy(blk, o.EntropyMaxValue)
		f.Hadamard = Hadamard(blk)
	}
	if !resi.Empty() {
		f.Residual = Residual(resi)
	}
	f.sanitize()
	return f
}

// BasicStats returns the mean, population variance, standard deviation and
// sum of all samples.
func BasicStats(b Block) PixelStats {
	x := b.Float64s()
	mean, variance := stat.PopMeanVariance(x, nil)
	return PixelStats{
		Mean:     mean,
		Variance: variance,
		StdDev:   math.Sqrt(variance),
		Sum:      floats.Sum(x),
	}
}

// Directional centres every row on its own mean to get the horizontal
// statistics, and every column on its own mean for the vertical ones.
func Directional(b Block) DirectionalStats {
	p := newPlane(b)
	var ds DirectionalStats

	for y := 0; y < p.h; y++ {
		_, v := stat.PopMeanVariance(p.px[y*p.w:(y+1)*p.w], nil)
		ds.VarH += v
		ds.StdH += math.Sqrt(v)
	}
	ds.VarH /= float64(p.h)
	ds.StdH /= float64(p.h)

	col := make([]float64, p.h)
	for x := 0; x < p.w; x++ {
		for y := 0; y < p.h; y++ {
			col[y] = p.at(x, y)
		}
		_, v := stat.PopMeanVariance(col, nil)
		ds.VarV += v
		ds.StdV += math.Sqrt(v)
	}
	ds.VarV /= float64(p.w)
	ds.StdV /= float64(p.w)

	return ds
}

// Sobel summarises the 3×3 Sobel derivatives with replicated borders.
func Sobel(b Block) GradientFeatures {
	return gradients(newPlane(b), sobelX, sobelY)
}

// Prewitt summarises the 3×3 Prewitt derivatives with replicated borders.
func Prewitt(b Block) GradientFeatures {
	return gradients(newPlane(b), prewittX, prewittY)
}

func gradients(p plane, kx, ky kernel3) GradientFeatures {
	gh := p.correlate(kx, replicate)
	gv := p.correlate(ky, replicate)

	var g GradientFeatures
	for i := range gh {
		g.Gh += math.Abs(gh[i])
		g.Gv += math.Abs(gv[i])
		g.Mag += math.Hypot(gv[i], gh[i])
		g.Dir += phaseDegrees(gh[i], gv[i])
	}
	n := float64(len(gh))
	g.Gh /= n
	g.Gv /= n
	g.Mag /= n
	g.Dir /= n
	g.Ratio = g.Gh / (g.Gv + gradientEpsilon)
	return g
}

// phaseDegrees is atan2(y, x) in degrees, folded into [0, 360).
func phaseDegrees(x, y float64) float64 {
	if x == 0 && y == 0 {
		return 0
	}
	a := math.Atan2(y, x) * 180 / math.Pi
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a -= 360
	}
	return a
}

// Contrast returns the extrema of the raw samples.
func Contrast(b Block) ContrastFeatures {
	if b.Empty() {
		return ContrastFeatures{}
	}
	x := b.Float64s()
	lo, hi := floats.Min(x), floats.Max(x)
	return ContrastFeatures{
		Min:   lo,
		Max:   hi,
		Range: hi - lo,
	}
}

// LaplacianVariance is the population variance of the unit-aperture
// Laplacian response, with mirrored (reflect-101) borders.
func LaplacianVariance(b Block) float64 {
	lap := newPlane(b).correlate(laplacian, reflect101)
	_, v := stat.PopMeanVariance(lap, nil)
	return v
}

// Entropy is the Shannon entropy in bits of a EntropyBins-bin histogram
// spanning [0, maxValue). Samples outside the range are not counted.
func Entropy(b Block, maxValue float64) float64 {
	if maxValue <= 0 {
		maxValue = DefaultEntropyMaxValue
	}
	var hist [EntropyBins]float64
	var total float64
	scale := EntropyBins / maxValue
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			v := float64(b.At(x, y))
			if v < 0 || v >= maxValue {
				continue
			}
			bin := int(v * scale)
			if bin >= EntropyBins {
				bin = EntropyBins - 1
			}
			hist[bin]++
			total++
		}
	}
	if total == 0 {
		return 0
	}

	var h float64
	for _, c := range hist {
		if c == 0 {
			continue
		}
		p := c / total
		h -= p * math.Log2(p)
	}
	if h == 0 {
		// -0 for a single occupied bin
		return 0
	}
	return h
}

// Hadamard describes the 2-D Walsh–Hadamard spectrum of b. Blocks whose
// sides are not powers of two have no spectrum and yield zeros.
func Hadamard(b Block) HadamardFeatures {
	if b.Empty() || !IsPow2(b.Width) || !IsPow2(b.Height) {
		return HadamardFeatures{}
	}
	w, h := b.Width, b.Height
	coef := Hadamard2D(b)

	var f HadamardFeatures
	f.DC = float64(coef[0])
	f.MaxCoef = f.DC
	f.MinCoef = f.DC
	for _, c := range coef {
		v := float64(c)
		f.EnergyTotal += v * v
		if v > f.MaxCoef {
			f.MaxCoef = v
		}
		if v < f.MinCoef {
			f.MinCoef = v
		}
	}
	f.EnergyAC = f.EnergyTotal - f.DC*f.DC
	f.TopLeft = f.DC
	f.TopRight = float64(coef[w-1])
	f.BottomLeft = float64(coef[(h-1)*w])
	f.BottomRight = float64(coef[(h-1)*w+w-1])
	return f
}

// Residual summarises a prediction-residual block.
func Residual(r Block) ResidualFeatures {
	var f ResidualFeatures
	last := r.Height - 1
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			v := float64(r.At(x, y))
			f.SAD += math.Abs(v)
			if y == last {
				f.LastRowSum += v
			}
			if x == r.Width-1 {
				f.LastColSum += v
			}
		}
	}
	f.TopLeft = float64(r.At(0, 0))
	f.TopRight = float64(r.At(r.Width-1, 0))
	f.BottomRight = float64(r.At(r.Width-1, last))
	return f
}
