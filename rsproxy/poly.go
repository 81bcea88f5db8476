// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsproxy

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/casa/status"
)

// monomials enumerates the multi-indices of total degree <= order over ndim
// dimensions, graded by degree and lexicographic within one degree. The
// constant term comes first
func monomials(ndim, order int) (terms [][]int) {
	for deg := 0; deg <= order; deg++ {
		terms = append(terms, monomialsOfDegree(ndim, deg)...)
	}
	return
}

func monomialsOfDegree(ndim, deg int) (terms [][]int) {
	if ndim == 1 {
		return [][]int{{deg}}
	}
	for d := deg; d >= 0; d-- {
		for _, rest := range monomialsOfDegree(ndim-1, deg-d) {
			t := append([]int{d}, rest...)
			terms = append(terms, t)
		}
	}
	return
}

// evalPoly evaluates the polynomial with the given terms and coefficients
// at a scaled point
func evalPoly(terms [][]int, coef, x []float64) float64 {
	y := 0.0
	for it, t := range terms {
		v := coef[it]
		for i, p := range t {
			for k := 0; k < p; k++ {
				v *= x[i]
			}
		}
		y += v
	}
	return y
}

// designMatrix builds the regression matrix over the scaled points
func designMatrix(x [][]float64, terms [][]int) *mat.Dense {
	n, m := len(x), len(terms)
	a := mat.NewDense(n, m, nil)
	for i, xi := range x {
		for j, t := range terms {
			v := 1.0
			for d, p := range t {
				for k := 0; k < p; k++ {
					v *= xi[d]
				}
			}
			a.Set(i, j, v)
		}
	}
	return a
}

// fitLeastSquares solves the stable least-squares problem per observable
// component. A singular design matrix surfaces as an RSProxyError
func fitLeastSquares(x, y [][]float64, terms [][]int) (coef [][]float64, err error) {
	n, m := len(x), len(terms)
	ncomp := len(y[0])
	if m > n {
		return nil, status.Err(status.RSProxyError, "underdetermined fit: %d terms over %d training points", m, n)
	}
	a := designMatrix(x, terms)
	b := mat.NewDense(n, ncomp, nil)
	for i := range y {
		for ic := 0; ic < ncomp; ic++ {
			b.Set(i, ic, y[i][ic])
		}
	}
	var qr mat.QR
	qr.Factorize(a)
	var sol mat.Dense
	if err = qr.SolveTo(&sol, false, b); err != nil {
		return nil, status.Err(status.RSProxyError, "singular design matrix: %v", err)
	}
	coef = make([][]float64, ncomp)
	for ic := 0; ic < ncomp; ic++ {
		coef[ic] = make([]float64, m)
		for j := 0; j < m; j++ {
			coef[ic][j] = sol.At(j, ic)
		}
	}
	return coef, nil
}

// autoOrder selects the polynomial order by repeated 75%/25%
// training/blind splits. The splits rotate deterministically over the
// points; the model maximising the mean blind adjusted R-squared wins. A
// positive target clips the search at the first order reaching it
func autoOrder(x, y [][]float64, targetR2 float64) int {
	n := len(x)
	best, bestScore := 0, -1e300
	for order := 0; order <= 3; order++ {
		terms := monomials(len(x[0]), order)
		ntrain := n - n/4
		if len(terms) > ntrain {
			break
		}
		score := splitScore(x, y, terms)
		if targetR2 > 0 && score >= targetR2 {
			return order
		}
		if score > bestScore {
			best, bestScore = order, score
		}
	}
	return best
}

// splitScore computes the mean blind adjusted R-squared over 10 rotating
// 75/25 splits, averaged over all observable components
func splitScore(x, y [][]float64, terms [][]int) float64 {
	const reps = 10
	n := len(x)
	ncomp := len(y[0])
	total, cnt := 0.0, 0
	for rep := 0; rep < reps; rep++ {
		var xt, yt, xb, yb [][]float64
		for i := 0; i < n; i++ {
			if (i+rep)%4 == 0 {
				xb = append(xb, x[i])
				yb = append(yb, y[i])
			} else {
				xt = append(xt, x[i])
				yt = append(yt, y[i])
			}
		}
		if len(xt) < len(terms) || len(xb) == 0 {
			continue
		}
		coef, err := fitLeastSquares(xt, yt, terms)
		if err != nil {
			continue
		}
		for ic := 0; ic < ncomp; ic++ {
			yobs := make([]float64, len(xb))
			yhat := make([]float64, len(xb))
			for i, xi := range xb {
				yobs[i] = yb[i][ic]
				yhat[i] = evalPoly(terms, coef[ic], xi)
			}
			total += AdjR2(R2(yobs, yhat), len(xb), len(terms))
			cnt++
		}
	}
	if cnt == 0 {
		return -1e300
	}
	return total / float64(cnt)
}
