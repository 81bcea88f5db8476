// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package digger

import (
	"path/filepath"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/casa/obs"
	"github.com/cpmech/casa/project"
	"github.com/cpmech/casa/rcs"
)

// fakeSimulate answers the mining requests of a deck: Temperature requests
// get 100+z/100, everything else stays undefined
func fakeSimulate(tst *testing.T, deckPath string) {
	m, err := project.Load(deckPath)
	if err != nil {
		tst.Fatalf("cannot load deck: %v", err)
	}
	n := m.NumRows(project.DataMiningTable)
	for row := 0; row < n; row++ {
		prop, err := m.GetString(project.DataMiningTable, row, "PropertyName")
		if err != nil {
			tst.Fatalf("cannot read request: %v", err)
		}
		if prop != "Temperature" {
			continue
		}
		z, _ := m.GetFloat(project.DataMiningTable, row, "ZCoord")
		m.SetFloat(project.DataMiningTable, row, "Value", 100+z/100)
	}
	if err = m.SaveAs(deckPath); err != nil {
		tst.Fatalf("cannot write deck: %v", err)
	}
}

func twoObsSpace(tst *testing.T) *obs.ObsSpace {
	osp := obs.NewObsSpace()
	osp.AddObservable(obs.NewPropertyXYZ("T@1000", "Temperature", 0, 0, 1000, 0))
	w, err := obs.NewPropertyWell("T@Well", "Temperature", "Well1",
		[]float64{0, 0}, []float64{0, 0}, []float64{2000, 3000}, 0)
	if err != nil {
		tst.Fatalf("cannot build well observable: %v", err)
	}
	osp.AddObservable(w)
	return osp
}

func deckCase(tst *testing.T, dir string, id int) *rcs.RunCase {
	c := rcs.NewRunCase(id)
	m := project.New("deck")
	path := filepath.Join(dir, io.Sf("Case_%d", id), "project.casa")
	if err := m.SaveAs(path); err != nil {
		tst.Fatalf("cannot write deck: %v", err)
	}
	c.ProjectPath = path
	c.SetState(rcs.Scheduled)
	return c
}

func Test_digger01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("digger01. request then collect")

	dir := tst.TempDir()
	osp := twoObsSpace(tst)
	c := deckCase(tst, dir, 0)

	dig := New()
	if err := dig.RequestObservables([]*rcs.RunCase{c}, osp); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}

	// the request table enumerates one row per observable component
	m, _ := project.Load(c.ProjectPath)
	chk.IntAssert(m.NumRows(project.DataMiningTable), 3)

	// run the fake simulator and complete the case
	fakeSimulate(tst, c.ProjectPath)
	c.SetState(rcs.Running)
	c.SetState(rcs.Completed)

	nWarn, err := dig.CollectRunResults([]*rcs.RunCase{c}, osp)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.IntAssert(nWarn, 0)
	chk.IntAssert(len(c.ObsVals), 2)
	chk.Array(tst, "point value", 1e-14, c.ObsVals[0].Vals, []float64{110})
	chk.Array(tst, "well profile", 1e-14, c.ObsVals[1].Vals, []float64{120, 130})
	if !c.ObsVals[0].IsDefined() || !c.ObsVals[1].IsDefined() {
		tst.Errorf("answered values must be defined")
	}
}

func Test_digger02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("digger02. missing answers are undefined with warnings")

	dir := tst.TempDir()
	osp := obs.NewObsSpace()
	osp.AddObservable(obs.NewPropertyXYZ("T@1000", "Temperature", 0, 0, 1000, 0))
	osp.AddObservable(obs.NewPropertyXYZ("Vr@1000", "Vr", 0, 0, 1000, 0))
	c := deckCase(tst, dir, 0)

	dig := New()
	if err := dig.RequestObservables([]*rcs.RunCase{c}, osp); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	fakeSimulate(tst, c.ProjectPath) // only answers Temperature
	c.SetState(rcs.Running)
	c.SetState(rcs.Completed)

	nWarn, err := dig.CollectRunResults([]*rcs.RunCase{c}, osp)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.IntAssert(nWarn, 1)
	if !c.ObsVals[0].IsDefined() {
		tst.Errorf("answered observable must be defined")
		return
	}
	if c.ObsVals[1].IsDefined() {
		tst.Errorf("unanswered observable must be undefined")
		return
	}

	// undefined components are excluded from RMSE
	osp.Observable(0).SetRefValue([]float64{110}, []float64{1})
	osp.Observable(1).SetRefValue([]float64{0.8}, []float64{0.1})
	chk.Float64(tst, "rmse excludes undefined", 1e-14, c.RMSE(), 0)
}
