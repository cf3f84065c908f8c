package blockfeat

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// FWHT applies the unnormalised fast Walsh–Hadamard butterfly to v in place.
// len(v) must be a power of two.
func FWHT(v []float32) {
	n := len(v)
	for h := 1; h < n; h <<= 1 {
		for i := 0; i < n; i += h << 1 {
			for j := i; j < i+h; j++ {
				a, b := v[j], v[j+h]
				v[j] = a + b
				v[j+h] = a - b
			}
		}
	}
}

// Hadamard2D returns the separable 2-D transform of b: every row is
// transformed, then every column. Both sides of b must be powers of two.
// The result is row-major with b.Width columns.
func Hadamard2D(b Block) []float32 {
	w, h := b.Width, b.Height
	coef := b.Float32s()

	for r := 0; r < h; r++ {
		FWHT(coef[r*w : (r+1)*w])
	}

	col := make([]float32, h)
	for c := 0; c < w; c++ {
		for r := 0; r < h; r++ {
			col[r] = coef[r*w+c]
		}
		FWHT(col)
		for r := 0; r < h; r++ {
			coef[r*w+c] = col[r]
		}
	}
	return coef
}
