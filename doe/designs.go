// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package doe

// Sign-matrix designs over n continuous dimensions. Rows hold scaled values
// in [-1,1]; 0 is the base value.

// tornadoRows builds the one-at-a-time design: the base case first, then
// per dimension its low and high excursions. 2n+1 rows
func tornadoRows(n int) (rows [][]float64) {
	rows = append(rows, make([]float64, n))
	for i := 0; i < n; i++ {
		lo := make([]float64, n)
		hi := make([]float64, n)
		lo[i] = -1
		hi[i] = +1
		rows = append(rows, lo, hi)
	}
	return
}

// boxBehnkenRows builds the pairwise design: the centre first, then for
// each dimension pair the four sign combinations with all other dimensions
// at the centre. Hypercube corners are never visited for n > 2
func boxBehnkenRows(n int) (rows [][]float64) {
	rows = append(rows, make([]float64, n))
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for _, sij := range [][2]float64{{+1, +1}, {-1, +1}, {+1, -1}, {-1, -1}} {
				r := make([]float64, n)
				r[i] = sij[0]
				r[j] = sij[1]
				rows = append(rows, r)
			}
		}
	}
	if n == 1 {
		rows = append(rows, []float64{-1}, []float64{+1})
	}
	return
}

// fullFactorialRows builds the exhaustive corner design: the base case
// first, then all 2^n corners with the first dimension varying fastest and
// the low excursion first
func fullFactorialRows(n int) (rows [][]float64) {
	rows = append(rows, make([]float64, n))
	total := 1 << uint(n)
	for k := 0; k < total; k++ {
		r := make([]float64, n)
		for i := 0; i < n; i++ {
			if k>>uint(i)&1 == 1 {
				r[i] = +1
			} else {
				r[i] = -1
			}
		}
		rows = append(rows, r)
	}
	return
}

// plackettBurmanRows builds the screening design: rows of a Hadamard matrix
// with the identity column dropped, truncated to the first n columns. The
// run count is the smallest multiple of four admitting n factors. mirror
// appends the negated rows
func plackettBurmanRows(n int, mirror bool) (rows [][]float64) {
	runs := 4 * ((n + 4) / 4)
	if runs-1 < n {
		runs += 4
	}
	h := hadamard(runs)
	for _, hr := range h {
		r := make([]float64, n)
		copy(r, hr[1:1+n])
		rows = append(rows, r)
	}
	if mirror {
		for _, hr := range h {
			r := make([]float64, n)
			for i := 0; i < n; i++ {
				r[i] = -hr[1+i]
			}
			rows = append(rows, r)
		}
	}
	return
}

// pbGenerators holds the cyclic first rows of the Plackett-Burman
// construction for run counts that are not powers of two
var pbGenerators = map[int][]float64{
	12: {+1, +1, -1, +1, +1, +1, -1, -1, -1, +1, -1},
	20: {+1, +1, -1, -1, +1, +1, +1, +1, -1, +1, -1, +1, -1, -1, -1, -1, +1, +1, -1},
	24: {+1, +1, +1, +1, +1, -1, +1, -1, +1, +1, -1, -1, +1, +1, -1, -1, +1, -1, +1, -1, -1, -1, -1},
}

// hadamard builds an order-m Hadamard-like matrix with an all-plus first
// column. Powers of two use the Sylvester construction; 12, 20 and 24 use
// the cyclic Plackett-Burman generators; any other m is rounded up to the
// next power of two
func hadamard(m int) [][]float64 {
	if g, ok := pbGenerators[m]; ok {
		h := make([][]float64, m)
		for i := 0; i < m-1; i++ {
			row := make([]float64, m)
			row[0] = +1
			for j := 0; j < m-1; j++ {
				row[1+j] = g[((j-i)%(m-1)+(m-1))%(m-1)]
			}
			h[i] = row
		}
		last := make([]float64, m)
		last[0] = +1
		for j := 1; j < m; j++ {
			last[j] = -1
		}
		h[m-1] = last
		return h
	}
	p := 1
	for p < m {
		p <<= 1
	}
	h := [][]float64{{+1}}
	for len(h) < p {
		k := len(h)
		nh := make([][]float64, 2*k)
		for i := 0; i < k; i++ {
			top := make([]float64, 2*k)
			bot := make([]float64, 2*k)
			for j := 0; j < k; j++ {
				top[j] = h[i][j]
				top[k+j] = h[i][j]
				bot[j] = h[i][j]
				bot[k+j] = -h[i][j]
			}
			nh[i] = top
			nh[k+i] = bot
		}
		h = nh
	}
	return h
}
