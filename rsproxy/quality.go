// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsproxy

import (
	"github.com/cpmech/casa/rcs"
	"github.com/cpmech/casa/status"
)

// R2 computes the coefficient of determination
//
//	R2 = 1 - Σ(y-ŷ)² / Σ(y-ȳ)²
//
// A constant y with a perfect fit yields 1
func R2(y, yhat []float64) float64 {
	n := len(y)
	if n == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)
	ssRes, ssTot := 0.0, 0.0
	for i, v := range y {
		d := v - yhat[i]
		ssRes += d * d
		t := v - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1.0 - ssRes/ssTot
}

// AdjR2 adjusts R2 for the coefficient count k over n points
//
//	R²adj = 1 - (1-R²)(n-1)/(n-k)
func AdjR2(r2 float64, n, k int) float64 {
	if n <= k {
		return r2
	}
	return 1.0 - (1.0-r2)*float64(n-1)/float64(n-k)
}

// CalcR2 computes R2 and adjusted R2 of the calculated proxy per observable
// component over the given cases
func (o *Proxy) CalcR2(cases []*rcs.RunCase) (r2, adjR2 []float64, err error) {
	if len(o.coef) == 0 {
		return nil, nil, o.ReportError(status.RSProxyError, "proxy has not been calculated yet")
	}
	x, y, err := o.trainingMatrix(cases)
	if err != nil {
		return nil, nil, o.ReportErr(err)
	}
	ncomp := len(y[0])
	r2 = make([]float64, ncomp)
	adjR2 = make([]float64, ncomp)
	for ic := 0; ic < ncomp; ic++ {
		yobs := make([]float64, len(x))
		yhat := make([]float64, len(x))
		for i, xi := range x {
			yobs[i] = y[i][ic]
			yhat[i] = o.EvalScaled(xi)[ic]
		}
		r2[ic] = R2(yobs, yhat)
		adjR2[ic] = AdjR2(r2[ic], len(x), len(o.terms))
	}
	o.ClearError()
	return r2, adjR2, nil
}

// CalcQ2 computes the leave-one-out analogue of R2 per observable
// component: every training case is predicted by a proxy rebuilt without
// it. The polynomial order stays fixed at the resolved outer order. The
// repeated rebuilds dominate the cost
func (o *Proxy) CalcQ2(cases []*rcs.RunCase) (q2 []float64, err error) {
	if len(o.coef) == 0 {
		return nil, o.ReportError(status.RSProxyError, "proxy has not been calculated yet")
	}
	var training []*rcs.RunCase
	for _, c := range cases {
		if c.State() == rcs.Completed && c.ObsVals != nil {
			training = append(training, c)
		}
	}
	n := len(training)
	if n < 3 {
		return nil, o.ReportError(status.RSProxyError, "leave-one-out needs at least 3 training cases, got %d", n)
	}
	ncomp := len(o.coef)
	yobs := make([][]float64, n)
	yloo := make([][]float64, n)
	for i := 0; i < n; i++ {
		subset := make([]*rcs.RunCase, 0, n-1)
		subset = append(subset, training[:i]...)
		subset = append(subset, training[i+1:]...)
		loo, err := NewProxy(Config{Order: o.order, Kriging: o.Cfg.Kriging}, o.vs, o.os)
		if err != nil {
			return nil, o.ReportErr(err)
		}
		if err = loo.CalculateRSProxy(subset); err != nil {
			return nil, o.ReportErr(err)
		}
		yloo[i] = loo.EvalScaled(o.scalePoint(training[i]))
		yobs[i], _ = training[i].FlattenObs()
	}
	q2 = make([]float64, ncomp)
	for ic := 0; ic < ncomp; ic++ {
		yo := make([]float64, n)
		yh := make([]float64, n)
		for i := 0; i < n; i++ {
			yo[i] = yobs[i][ic]
			yh[i] = yloo[i][ic]
		}
		q2[ic] = R2(yo, yh)
	}
	o.ClearError()
	return q2, nil
}
