// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package casa

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/casa/doe"
	"github.com/cpmech/casa/mcsolver"
	"github.com/cpmech/casa/obs"
	"github.com/cpmech/casa/prm"
	"github.com/cpmech/casa/project"
	"github.com/cpmech/casa/rcs"
	"github.com/cpmech/casa/rsproxy"
)

// newBaseDeck writes a minimal base-case project to disk
func newBaseDeck(tst *testing.T, dir string) string {
	m := project.New("demo basin")
	m.SetString("SourceRockLithoIoTbl", 0, "LayerName", "Layer1")
	m.SetFloat("SourceRockLithoIoTbl", 0, "TocIni", 25)
	m.SetFloat("BasementIoTbl", 0, "TopCrustHeatProd", 2.05)
	path := filepath.Join(dir, "Project.casa")
	if err := m.SaveAs(path); err != nil {
		tst.Fatalf("cannot write base deck: %v", err)
	}
	return path
}

// buildScenario assembles the two-parameter demo scenario
func buildScenario(tst *testing.T, root string) *Scenario {
	sc := NewScenario("demo", root)
	if err := sc.DefineBaseCase(newBaseDeck(tst, root)); err != nil {
		tst.Fatalf("cannot define base case: %v", err)
	}
	if err := prm.VariateSourceRockTOC(sc.VarSpace, "Layer1", 25, 10, 40, prm.Block); err != nil {
		tst.Fatalf("cannot add TOC parameter: %v", err)
	}
	if err := prm.VariateTopCrustHeatProduction(sc.VarSpace, 2.05, 0.1, 4.0, prm.Block); err != nil {
		tst.Fatalf("cannot add heat production parameter: %v", err)
	}
	target := obs.NewPropertyXYZ("T@4500", "Temperature", 1000, 2000, 4500, 0)
	if err := target.SetRefValue([]float64{107}, []float64{2}); err != nil {
		tst.Fatalf("cannot set reference: %v", err)
	}
	if err := sc.ObsSpace.AddObservable(target); err != nil {
		tst.Fatalf("cannot add observable: %v", err)
	}
	return sc
}

// fakeSimulate answers the mining requests of every scheduled deck with
// T = 50 + 1.2*TOC + 10*HeatProd and completes the cases
func fakeSimulate(tst *testing.T, cases []*rcs.RunCase) {
	for _, c := range cases {
		m, err := project.Load(c.ProjectPath)
		if err != nil {
			tst.Fatalf("cannot load deck: %v", err)
		}
		toc, err := m.GetFloat("SourceRockLithoIoTbl", 0, "TocIni")
		if err != nil {
			tst.Fatalf("cannot read TOC: %v", err)
		}
		hp, err := m.GetFloat("BasementIoTbl", 0, "TopCrustHeatProd")
		if err != nil {
			tst.Fatalf("cannot read heat production: %v", err)
		}
		n := m.NumRows(project.DataMiningTable)
		for row := 0; row < n; row++ {
			m.SetFloat(project.DataMiningTable, row, "Value", 50+1.2*toc+10*hp)
		}
		if err = m.SaveAs(c.ProjectPath); err != nil {
			tst.Fatalf("cannot write deck: %v", err)
		}
		c.SetState(rcs.Running)
		c.SetState(rcs.Completed)
	}
}

func Test_scenario01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("scenario01. tornado workflow end to end")

	root := tst.TempDir()
	sc := buildScenario(tst, root)
	if err := sc.SetDoEAlgorithm(doe.Tornado, 0); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if err := sc.GenerateDoE(0, ""); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	cases := sc.DoECases.Filtered("Tornado")
	chk.IntAssert(len(cases), 5)

	// invariant: every case carries one bound value per definition
	for _, c := range cases {
		chk.IntAssert(len(c.Prms), sc.VarSpace.Size())
	}

	nFailed, err := sc.ApplyMutations("Tornado")
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.IntAssert(nFailed, 0)
	for _, c := range cases {
		if c.State() != rcs.Scheduled {
			tst.Errorf("mutated case must be Scheduled, got %s", c.State())
			return
		}
		if err = sc.ValidateCase(c); err != nil {
			tst.Errorf("validation failed:\n%v", err)
			return
		}
	}

	if err = sc.DataDigger().RequestObservables(cases, sc.ObsSpace); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	fakeSimulate(tst, cases)
	nWarn, err := sc.DataDigger().CollectRunResults(cases, sc.ObsSpace)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.IntAssert(nWarn, 0)

	// invariant: completed cases carry one value per observable
	for _, c := range cases {
		chk.IntAssert(len(c.ObsVals), sc.ObsSpace.Size())
		chk.IntAssert(len(c.ObsVals[0].Vals), sc.ObsSpace.Observable(0).Dimension())
	}

	// proxy over the tornado set interpolates the base case
	if err = sc.SetRSAlgorithm("default", rsproxy.Config{Order: 1, Kriging: rsproxy.GlobalKriging}); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if err = sc.CalculateProxy("default"); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	probe := rcs.NewRunCase(1000)
	for i := 0; i < sc.VarSpace.Size(); i++ {
		probe.AddParameter(sc.VarSpace.Parameter(i).BaseParameter())
	}
	if err = sc.Proxy("default").EvaluateRSProxy(probe); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.Float64(tst, "base interpolation", 1e-6, probe.ObsVals[0].Vals[0], cases[0].ObsVals[0].Vals[0])

	// sampling over the proxy
	if err = sc.SetMCAlgorithm(mcsolver.Config{Algo: mcsolver.MCMC, Meas: mcsolver.NormalMeasDist,
		Prior: mcsolver.MarginalPrior, NumSamples: 50, MaxSteps: 50, Seed: 11}); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	cdf, err := sc.RunMC("default", "MC")
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.IntAssert(sc.MCCases.Size(), 50)
	chk.IntAssert(len(cdf.Values), 1)
	chk.IntAssert(len(cdf.Values[0]), 9)
}

func Test_scenario02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("scenario02. persistence round trip in both formats")

	root := tst.TempDir()
	sc := buildScenario(tst, root)
	sc.SetDoEAlgorithm(doe.Tornado, 0)
	sc.GenerateDoE(0, "")
	cases := sc.DoECases.Filtered("Tornado")
	sc.ApplyMutations("Tornado")
	sc.DataDigger().RequestObservables(cases, sc.ObsSpace)
	fakeSimulate(tst, cases)
	sc.DataDigger().CollectRunResults(cases, sc.ObsSpace)
	sc.SetRSAlgorithm("default", rsproxy.Config{Order: 1, Kriging: rsproxy.GlobalKriging})
	if err := sc.CalculateProxy("default"); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}

	for _, binary := range []bool{false, true} {
		path := filepath.Join(root, "scenario.casa")
		if binary {
			path = filepath.Join(root, "scenario.casab")
		}
		if err := sc.SaveScenario(path, binary); err != nil {
			tst.Errorf("test failed:\n%v", err)
			return
		}
		sc2, err := LoadScenario(path)
		if err != nil {
			tst.Errorf("test failed:\n%v", err)
			return
		}

		// structural equality: definitions, case states, observable
		// values and proxy coefficients survive
		chk.String(tst, sc2.Name, sc.Name)
		chk.IntAssert(sc2.VarSpace.Size(), sc.VarSpace.Size())
		for i := 0; i < sc.VarSpace.Size(); i++ {
			chk.String(tst, sc2.VarSpace.Parameter(i).Name(), sc.VarSpace.Parameter(i).Name())
		}
		chk.IntAssert(sc2.ObsSpace.Size(), sc.ObsSpace.Size())
		chk.IntAssert(sc2.DoECases.Size(), sc.DoECases.Size())
		chk.Strings(tst, "experiments", sc2.DoECases.ExperimentNames(), sc.DoECases.ExperimentNames())
		for i := 0; i < sc.DoECases.Size(); i++ {
			a, b := sc.DoECases.Case(i), sc2.DoECases.Case(i)
			if a.State() != b.State() {
				tst.Errorf("case %d state lost in round trip: %s vs %s", i, a.State(), b.State())
				return
			}
			chk.Array(tst, "case parameters", 1e-15, b.FlattenPrms(), a.FlattenPrms())
			av, _ := a.FlattenObs()
			bv, _ := b.FlattenObs()
			chk.Array(tst, "case observables", 1e-15, bv, av)
		}
		p1, p2 := sc.Proxy("default"), sc2.Proxy("default")
		chk.IntAssert(p2.NumCoefficients(), p1.NumCoefficients())
		chk.Array(tst, "proxy coefficients", 1e-15, p2.Coefficients(0), p1.Coefficients(0))

		// saving the reconstruction is byte stable
		path2 := path + ".again"
		if err = sc2.SaveScenario(path2, binary); err != nil {
			tst.Errorf("test failed:\n%v", err)
			return
		}
		b1, _ := os.ReadFile(path)
		b2, _ := os.ReadFile(path2)
		if binary {
			// gzip headers may embed modification times; compare sizes only
			chk.IntAssert(len(b2), len(b1))
			continue
		}
		if string(b1) != string(b2) {
			tst.Errorf("text persistence must be byte stable")
			return
		}
	}
}

func Test_scenario03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("scenario03. loading a corrupt file fails cleanly")

	root := tst.TempDir()
	path := filepath.Join(root, "broken.casa")
	if err := os.WriteFile(path, []byte("NotASerializer 1\n"), 0666); err != nil {
		tst.Fatalf("cannot write file: %v", err)
	}
	if _, err := LoadScenario(path); err == nil {
		tst.Errorf("loading a corrupt scenario must fail")
	}
}
