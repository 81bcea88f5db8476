// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mutate

import (
	"os"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/casa/prm"
	"github.com/cpmech/casa/project"
	"github.com/cpmech/casa/rcs"
)

func Test_mutate01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("mutate01. deck generation schedules the case")

	base := project.New("base")
	base.SetFloat("BasementIoTbl", 0, "TopCrustHeatProd", 2.5)

	vs := prm.NewVarSpace()
	if err := prm.VariateTopCrustHeatProduction(vs, 2.5, 0.1, 4.9, prm.Block); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	p, _ := vs.Parameter(0).NewFromArray([]float64{4.0})

	c := rcs.NewRunCase(0)
	c.AddParameter(p)

	eng := NewEngine(tst.TempDir())
	if err := eng.MutateCase(c, base); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if c.State() != rcs.Scheduled {
		tst.Errorf("mutated case must be Scheduled, got %s", c.State())
		return
	}
	if c.ProjectPath == "" {
		tst.Errorf("mutated case must record its deck path")
		return
	}

	// the deck on disk carries the mutated value; the base is untouched
	m, err := project.Load(c.ProjectPath)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	v, _ := m.GetFloat("BasementIoTbl", 0, "TopCrustHeatProd")
	chk.Float64(tst, "mutated deck", 1e-15, v, 4.0)
	v, _ = base.GetFloat("BasementIoTbl", 0, "TopCrustHeatProd")
	chk.Float64(tst, "base deck", 1e-15, v, 2.5)
}

func Test_mutate02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("mutate02. per-case failures do not stop the batch")

	base := project.New("base")
	base.Maps["Min"] = "missing-min.gmap"
	base.Maps["Max"] = "missing-max.gmap"

	vs := prm.NewVarSpace()
	prm.VariateTopCrustHeatProduction(vs, 2.5, 0.1, 4.9, prm.Block)
	mp := prm.NewMapPrm("Grid", "BasementIoTbl", "HeatProdGrid", "Base", "Min", "Max", prm.Block)
	vs.AddParameter(mp)

	good := rcs.NewRunCase(0)
	g0, _ := vs.Parameter(0).NewFromArray([]float64{1.0})
	g1, _ := vs.Parameter(1).NewFromArray([]float64{0}) // v=0 keeps the base map
	good.AddParameter(g0)
	good.AddParameter(g1)

	bad := rcs.NewRunCase(1)
	b0, _ := vs.Parameter(0).NewFromArray([]float64{1.0})
	b1, _ := vs.Parameter(1).NewFromArray([]float64{0.5}) // blending needs the missing map files
	bad.AddParameter(b0)
	bad.AddParameter(b1)

	eng := NewEngine(tst.TempDir())
	nFailed := eng.MutateAll([]*rcs.RunCase{good, bad}, base)
	chk.IntAssert(nFailed, 1)
	if good.State() != rcs.Scheduled {
		tst.Errorf("good case must be Scheduled, got %s", good.State())
		return
	}
	if bad.State() != rcs.Failed {
		tst.Errorf("bad case must be Failed, got %s", bad.State())
		return
	}
	if bad.Diag == "" {
		tst.Errorf("failed case must carry a diagnostic")
		return
	}

	// the failed case must not leave a deck behind
	if _, err := os.Stat(eng.CaseDir(bad) + "/" + DeckFileName); err == nil {
		tst.Errorf("failed case must not write its deck")
	}
}
