// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcsolver

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/cpmech/casa/obs"
	"github.com/cpmech/casa/prm"
	"github.com/cpmech/casa/rcs"
	"github.com/cpmech/casa/status"
)

// CDF holds the P10..P90 posterior percentiles per observable component.
// Each component is sorted independently across the sampling points
type CDF struct {
	Percentiles []int       // 10, 20, ..., 90
	Values      [][]float64 // [ncomp][len(Percentiles)]
}

// CollectMCResults materialises the current sampling points into run cases:
// parameters set by the sampler, observables evaluated through the proxy.
// Results are sorted by ascending RMSE against the reference measurements.
// Partial collection before the last iteration is legal
func (o *Solver) CollectMCResults() (cases []*rcs.RunCase, cdf *CDF, err error) {
	if !o.prepared {
		return nil, nil, o.ReportError(status.MonteCarloSolverError, "solver is not prepared")
	}
	for i, x := range o.pts {
		c, err := o.caseFromPoint(i, x)
		if err != nil {
			return nil, nil, o.ReportErr(err)
		}
		cases = append(cases, c)
	}
	sort.SliceStable(cases, func(i, j int) bool { return cases[i].RMSE() < cases[j].RMSE() })

	// per-component CDF over the sample
	ncomp := o.os.Dimension()
	n := len(cases)
	cdf = &CDF{}
	for p := 10; p <= 90; p += 10 {
		cdf.Percentiles = append(cdf.Percentiles, p)
	}
	cdf.Values = make([][]float64, ncomp)
	comps := make([][]float64, ncomp)
	for ic := range comps {
		comps[ic] = make([]float64, n)
	}
	for i, c := range cases {
		vals, _ := c.FlattenObs()
		for ic := 0; ic < ncomp; ic++ {
			comps[ic][i] = vals[ic]
		}
	}
	for ic := 0; ic < ncomp; ic++ {
		sort.Float64s(comps[ic])
		cdf.Values[ic] = make([]float64, len(cdf.Percentiles))
		for k, p := range cdf.Percentiles {
			cdf.Values[ic][k] = stat.Quantile(float64(p)/100.0, stat.Empirical, comps[ic], nil)
		}
	}
	o.ClearError()
	return cases, cdf, nil
}

// caseFromPoint binds one scaled sampling point as a run case and writes
// the proxy-evaluated observables into it. Categorical parameters take
// their base values
func (o *Solver) caseFromPoint(id int, x []float64) (*rcs.RunCase, error) {
	c := rcs.NewRunCase(id)
	ic := 0
	for _, p := range o.vs.All() {
		if p.IsCategorical() {
			c.AddParameter(p.BaseParameter())
			continue
		}
		dim := p.Dimension()
		min, base, max := p.MinAsArray(), p.BaseAsArray(), p.MaxAsArray()
		vals := make([]float64, dim)
		for k := 0; k < dim; k++ {
			vals[k] = prm.MapScaled(x[ic+k], min[k], base[k], max[k])
		}
		ic += dim
		v, err := p.NewFromArray(vals)
		if err != nil {
			return nil, err
		}
		c.AddParameter(v)
	}
	// observables through the proxy, honouring the effective kriging mode
	y := o.evalCollect(x)
	pos := 0
	var obsVals []*obs.ObsValue
	for _, ob := range o.os.All() {
		dim := ob.Dimension()
		ov, err := obs.NewObsValue(ob, y[pos:pos+dim], nil)
		if err != nil {
			return nil, err
		}
		obsVals = append(obsVals, ov)
		pos += dim
	}
	if err := c.SetObsValues(obsVals); err != nil {
		return nil, err
	}
	return c, nil
}

// bestReducedChi2 returns the smallest reduced chi-squared over the current
// sampling points; nact is zero when no reference measurements are active
func (o *Solver) bestReducedChi2() (red float64, nact int) {
	best := -1.0
	for _, x := range o.pts {
		chi2, n := o.chiSquared(o.evalCollect(x))
		if n == 0 {
			return 0, 0
		}
		nact = n
		r := chi2 / float64(n)
		if best < 0 || r < best {
			best = r
		}
	}
	return best, nact
}

// GOF reports the 0-100% goodness-of-fit derived from the reduced
// chi-squared of the best sampling point. A reduced chi-squared of one or
// below reads as a perfect fit
func (o *Solver) GOF() float64 {
	if !o.prepared {
		return 0
	}
	red, nact := o.bestReducedChi2()
	if nact == 0 {
		return 100
	}
	if red <= 1 {
		return 100
	}
	return 100 * math.Exp(-0.5*(red-1))
}

// ProposedStdDevFactor suggests a standard-deviation scaling when the fit
// is poor: the square root of the best reduced chi-squared. Callers may
// apply it and re-run when GOF is below 50
func (o *Solver) ProposedStdDevFactor() float64 {
	if !o.prepared {
		return 1
	}
	red, nact := o.bestReducedChi2()
	if nact == 0 || red <= 0 {
		return 1
	}
	return math.Sqrt(red)
}
