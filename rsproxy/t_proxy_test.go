// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsproxy

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/casa/doe"
	"github.com/cpmech/casa/obs"
	"github.com/cpmech/casa/prm"
	"github.com/cpmech/casa/rcs"
	"github.com/cpmech/casa/status"
)

// twoPrmSpace builds A in [10,40] base 25 and B in [0.1,4.0] base 2.05
func twoPrmSpace(tst *testing.T) *prm.VarSpace {
	vs := prm.NewVarSpace()
	a, err := prm.NewScalarPrm("A", "TblA", "ColA", 25, 10, 40, prm.Block)
	if err != nil {
		tst.Fatalf("cannot build parameter A: %v", err)
	}
	b, err := prm.NewScalarPrm("B", "TblB", "ColB", 2.05, 0.1, 4.0, prm.Block)
	if err != nil {
		tst.Fatalf("cannot build parameter B: %v", err)
	}
	vs.AddParameter(a)
	vs.AddParameter(b)
	return vs
}

func oneObsSpace() *obs.ObsSpace {
	osp := obs.NewObsSpace()
	osp.AddObservable(obs.NewPropertyXYZ("T", "Temperature", 0, 0, 4500, 0))
	return osp
}

// completeCases simulates the given cases with fn over the flattened
// parameter vector
func completeCases(tst *testing.T, osp *obs.ObsSpace, cases []*rcs.RunCase, fn func(v []float64) float64) {
	for _, c := range cases {
		c.SetState(rcs.Scheduled)
		c.SetState(rcs.Running)
		c.SetState(rcs.Completed)
		ov, err := obs.NewObsValue(osp.Observable(0), []float64{fn(c.FlattenPrms())}, nil)
		if err != nil {
			tst.Fatalf("cannot build observable value: %v", err)
		}
		if err = c.SetObsValues([]*obs.ObsValue{ov}); err != nil {
			tst.Fatalf("cannot populate case: %v", err)
		}
	}
}

// tornadoCases generates and completes the two-parameter Tornado set
func tornadoCases(tst *testing.T, vs *prm.VarSpace, osp *obs.ObsSpace, fn func(v []float64) float64) []*rcs.RunCase {
	set := rcs.NewRunCaseSet()
	g, _ := doe.NewGenerator(doe.Tornado, 0)
	if err := g.Generate(vs, set, 0, ""); err != nil {
		tst.Fatalf("cannot generate tornado: %v", err)
	}
	cases := set.Filtered("Tornado")
	completeCases(tst, osp, cases, fn)
	return cases
}

func Test_proxy01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("proxy01. first-order fit reproduces a linear response")

	vs := twoPrmSpace(tst)
	osp := oneObsSpace()
	linear := func(v []float64) float64 { return 5 + 2*v[0] + 3*v[1] }
	cases := tornadoCases(tst, vs, osp, linear)

	p, err := NewProxy(Config{Order: 1, Kriging: NoKriging}, vs, osp)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if err = p.CalculateRSProxy(cases); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.IntAssert(p.Order(), 1)
	chk.IntAssert(p.NumCoefficients(), 3)

	// evaluate off the training points
	probe := rcs.NewRunCase(100)
	pa, _ := vs.Parameter(0).NewFromArray([]float64{30})
	pb, _ := vs.Parameter(1).NewFromArray([]float64{1.0})
	probe.AddParameter(pa)
	probe.AddParameter(pb)
	if err = p.EvaluateRSProxy(probe); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.Float64(tst, "linear response", 1e-8, probe.ObsVals[0].Vals[0], linear([]float64{30, 1.0}))
}

func Test_proxy02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("proxy02. global kriging interpolates at training points")

	vs := twoPrmSpace(tst)
	osp := oneObsSpace()
	// nonlinear response: a first-order polynomial alone cannot reproduce it
	bumpy := func(v []float64) float64 { return 5 + 2*v[0] + 3*v[1] + 0.5*v[0]*v[1] }
	cases := tornadoCases(tst, vs, osp, bumpy)

	p, err := NewProxy(Config{Order: 1, Kriging: GlobalKriging}, vs, osp)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if err = p.CalculateRSProxy(cases); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}

	// the proxy must reproduce every training point, the base case included
	for i, c := range cases {
		probe := rcs.NewRunCase(100 + i)
		for k := 0; k < vs.Size(); k++ {
			pv, err := vs.Parameter(k).NewFromArray(c.Parameter(k).AsArray())
			if err != nil {
				tst.Errorf("test failed:\n%v", err)
				return
			}
			probe.AddParameter(pv)
		}
		if err = p.EvaluateRSProxy(probe); err != nil {
			tst.Errorf("test failed:\n%v", err)
			return
		}
		chk.Float64(tst, "training point", 1e-6, probe.ObsVals[0].Vals[0], c.ObsVals[0].Vals[0])
	}
}

func Test_proxy03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("proxy03. quality calculators")

	// R2 formula on a hand-checkable sample
	y := []float64{1, 2, 3, 4}
	yhat := []float64{1, 2, 3, 4}
	chk.Float64(tst, "perfect R2", 1e-15, R2(y, yhat), 1)
	chk.Float64(tst, "perfect adjR2", 1e-15, AdjR2(R2(y, yhat), 4, 2), 1)

	yhat2 := []float64{1.5, 2.5, 2.5, 3.5}
	// ssRes = 4*0.25 = 1; ssTot = 5  =>  R2 = 0.8
	chk.Float64(tst, "R2", 1e-15, R2(y, yhat2), 0.8)
	// adjR2 = 1 - 0.2*3/2 = 0.7
	chk.Float64(tst, "adjR2", 1e-15, AdjR2(0.8, 4, 2), 0.7)

	// a linear response fitted by a first-order proxy is perfect: R2 = Q2 = 1
	vs := twoPrmSpace(tst)
	osp := oneObsSpace()
	linear := func(v []float64) float64 { return 5 + 2*v[0] + 3*v[1] }
	cases := tornadoCases(tst, vs, osp, linear)
	p, _ := NewProxy(Config{Order: 1, Kriging: NoKriging}, vs, osp)
	if err := p.CalculateRSProxy(cases); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	r2, adj, err := p.CalcR2(cases)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.Float64(tst, "training R2", 1e-9, r2[0], 1)
	chk.Float64(tst, "training adjR2", 1e-9, adj[0], 1)
	q2, err := p.CalcQ2(cases)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.Float64(tst, "Q2", 1e-9, q2[0], 1)
}

func Test_proxy04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("proxy04. automatic order selection and error handling")

	vs := twoPrmSpace(tst)
	osp := oneObsSpace()
	linear := func(v []float64) float64 { return 5 + 2*v[0] + 3*v[1] }

	// many training points from a latin hypercube plus tornado
	set := rcs.NewRunCaseSet()
	g, _ := doe.NewGenerator(doe.Tornado, 0)
	g.Generate(vs, set, 0, "Tornado")
	g2, _ := doe.NewGenerator(doe.LatinHypercube, 17)
	g2.Generate(vs, set, 20, "LHC")
	completeCases(tst, osp, set.All(), linear)

	p, err := NewProxy(Config{Order: -1, Kriging: NoKriging}, vs, osp)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if err = p.CalculateRSProxy(set.All()); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if p.Order() < 1 {
		tst.Errorf("automatic search must pick at least first order for a linear response, got %d", p.Order())
		return
	}

	// no training cases surfaces as RSProxyError and leaves the proxy usable
	prev := p.NumCoefficients()
	err = p.CalculateRSProxy(nil)
	if status.KindOf(err) != status.RSProxyError {
		tst.Errorf("empty training set must report RSProxyError, got %v", err)
		return
	}
	chk.IntAssert(p.NumCoefficients(), prev)

	// invalid order is rejected at construction
	if _, err = NewProxy(Config{Order: 4}, vs, osp); err == nil {
		tst.Errorf("order above 3 must be rejected")
	}
}
