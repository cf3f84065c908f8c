// Package blockfeat computes the per-block descriptor vector recorded in the
// transform-decision training datasets.
//
// Every extractor works on a float copy of the samples, so the encoder's
// buffers are never written. Extractors are independent of one another and
// can run in any order.
package blockfeat

// Block is a read-only view over a rectangular region of 16-bit samples.
// Row y starts at Samples[y*Stride]. The same type carries residual blocks,
// whose values are signed and may exceed the pixel range.
type Block struct {
	Width   int
	Height  int
	Stride  int
	Samples []int16
}

// NewBlock wraps a tightly packed w×h sample slice.
func NewBlock(w, h int, samples []int16) Block {
	return Block{Width: w, Height: h, Stride: w, Samples: samples}
}

// At returns the sample at column x, row y.
func (b Block) At(x, y int) int16 {
	return b.Samples[y*b.Stride+x]
}

// Empty reports whether the block has no samples to describe.
func (b Block) Empty() bool {
	return b.Width <= 0 || b.Height <= 0 || len(b.Samples) < (b.Height-1)*b.Stride+b.Width
}

// Len is the number of samples covered by the view.
func (b Block) Len() int {
	return b.Width * b.Height
}

// Float64s returns a packed row-major float64 copy of the block.
func (b Block) Float64s() []float64 {
	out := make([]float64, 0, b.Len())
	for y := 0; y < b.Height; y++ {
		row := b.Samples[y*b.Stride : y*b.Stride+b.Width]
		for _, v := range row {
			out = append(out, float64(v))
		}
	}
	return out
}

// Float32s returns a packed row-major float32 copy of the block.
func (b Block) Float32s() []float32 {
	out := make([]float32, 0, b.Len())
	for y := 0; y < b.Height; y++ {
		row := b.Samples[y*b.Stride : y*b.Stride+b.Width]
		for _, v := range row {
			out = append(out, float32(v))
		}
	}
	return out
}

// plane is a packed float64 image used by the neighbourhood filters.
type plane struct {
	w, h int
	px   []float64
}

func newPlane(b Block) plane {
	return plane{w: b.Width, h: b.Height, px: b.Float64s()}
}

func (p plane) at(x, y int) float64 {
	return p.px[y*p.w+x]
}

// replicate clamps an out-of-range coordinate to the nearest edge.
func replicate(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// reflect101 mirrors an out-of-range coordinate without repeating the edge
// sample (…2 1 | 0 1 2 … n-2 n-1 | n-2 n-3…).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// kernel3 is a 3×3 correlation kernel, row-major.
type kernel3 [9]float64

// correlate applies k at every sample using border to resolve coordinates
// outside the plane.
func (p plane) correlate(k kernel3, border func(i, n int) int) []float64 {
	out := make([]float64, len(p.px))
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			var acc float64
			for ky := -1; ky <= 1; ky++ {
				sy := border(y+ky, p.h)
				for kx := -1; kx <= 1; kx++ {
					c := k[(ky+1)*3+kx+1]
					if c == 0 {
						continue
					}
					acc += c * p.at(border(x+kx, p.w), sy)
				}
			}
			out[y*p.w+x] = acc
		}
	}
	return out
}
