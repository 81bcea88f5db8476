// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sens

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/casa/doe"
	"github.com/cpmech/casa/obs"
	"github.com/cpmech/casa/prm"
	"github.com/cpmech/casa/rcs"
)

// tornadoSet completes a two-parameter tornado design with
// y = 5 + 2A + 3B: parameter A swings the response by 2*30 = 60, parameter
// B by 3*3.9 = 11.7
func tornadoSet(tst *testing.T) (*prm.VarSpace, *obs.ObsSpace, []*rcs.RunCase) {
	vs := prm.NewVarSpace()
	a, _ := prm.NewScalarPrm("A", "TblA", "ColA", 25, 10, 40, prm.Block)
	b, _ := prm.NewScalarPrm("B", "TblB", "ColB", 2.05, 0.1, 4.0, prm.Block)
	vs.AddParameter(a)
	vs.AddParameter(b)

	osp := obs.NewObsSpace()
	osp.AddObservable(obs.NewPropertyXYZ("T", "Temperature", 0, 0, 4500, 0))

	set := rcs.NewRunCaseSet()
	g, _ := doe.NewGenerator(doe.Tornado, 0)
	if err := g.Generate(vs, set, 0, ""); err != nil {
		tst.Fatalf("cannot generate tornado: %v", err)
	}
	for _, c := range set.All() {
		c.SetState(rcs.Scheduled)
		c.SetState(rcs.Running)
		c.SetState(rcs.Completed)
		v := c.FlattenPrms()
		ov, _ := obs.NewObsValue(osp.Observable(0), []float64{5 + 2*v[0] + 3*v[1]}, nil)
		if err := c.SetObsValues([]*obs.ObsValue{ov}); err != nil {
			tst.Fatalf("cannot populate case: %v", err)
		}
	}
	return vs, osp, set.All()
}

func Test_sens01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sens01. tornado diagram over a linear response")

	vs, osp, cases := tornadoSet(tst)
	diagrams, err := CalcTornado(vs, osp, cases)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.IntAssert(len(diagrams), 1)
	d := diagrams[0]
	chk.String(tst, d.ObsName, "T")
	chk.Float64(tst, "base response", 1e-6, d.Base, 5+2*25+3*2.05)
	chk.IntAssert(len(d.Entries), 2)

	// A: y(10)=31.15 .. y(40)=91.15; B: y(0.1)=55.3 .. y(4.0)=67.0
	chk.Float64(tst, "A low", 1e-6, d.Entries[0].Low, 5+2*10+3*2.05)
	chk.Float64(tst, "A high", 1e-6, d.Entries[0].High, 5+2*40+3*2.05)
	chk.Float64(tst, "B low", 1e-6, d.Entries[1].Low, 5+2*25+3*0.1)
	chk.Float64(tst, "B high", 1e-6, d.Entries[1].High, 5+2*25+3*4.0)

	// relative shares sum to 100
	chk.Float64(tst, "share sum", 1e-9, d.Entries[0].Rel+d.Entries[1].Rel, 100)
	if d.Entries[0].Rel < d.Entries[1].Rel {
		tst.Errorf("parameter A must dominate the response")
	}
}

func Test_sens02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sens02. pareto diagram sorts by cumulative influence")

	vs, osp, cases := tornadoSet(tst)
	diagrams, err := CalcTornado(vs, osp, cases)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	pareto := CalcPareto(osp, diagrams)
	chk.IntAssert(len(pareto), 2)
	chk.String(tst, pareto[0].PrmName, "A")
	chk.String(tst, pareto[1].PrmName, "B")
	chk.Float64(tst, "A cumulative", 1e-6, pareto[0].Weight, 60)
	chk.Float64(tst, "B cumulative", 1e-6, pareto[1].Weight, 3*3.9)
}
