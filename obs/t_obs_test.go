// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package obs

import (
	"path/filepath"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/casa/ser"
	"github.com/cpmech/casa/status"
)

func Test_obs01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("obs01. locator dimensions and mining requests")

	xyz := NewPropertyXYZ("T@4500", "Temperature", 1000, 2000, 4500, 0)
	chk.IntAssert(xyz.Dimension(), 1)
	reqs := xyz.MiningRequests()
	chk.IntAssert(len(reqs), 1)
	if !reqs[0].ByXYZ {
		tst.Errorf("XYZ observable must produce an XYZ request")
		return
	}
	chk.Float64(tst, "z", 1e-15, reqs[0].Z, 4500)
	chk.String(tst, reqs[0].Prop, "Temperature")

	ijk := NewPropertyIJK("Vr@L1", "Vr", "Layer1", 3, 4, 0, 10)
	chk.IntAssert(ijk.Dimension(), 1)
	r := ijk.MiningRequests()[0]
	if r.ByXYZ {
		tst.Errorf("IJK observable must produce a lattice request")
		return
	}
	chk.String(tst, r.Layer, "Layer1")

	well, err := NewPropertyWell("P@Well1", "Pressure", "Well1",
		[]float64{1000, 1000, 1000}, []float64{2000, 2000, 2000}, []float64{1000, 2000, 3000}, 0)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.IntAssert(well.Dimension(), 3)
	chk.IntAssert(len(well.MiningRequests()), 3)
}

func Test_obs02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("obs02. reference values and realised values")

	ob := NewPropertyXYZ("T", "Temperature", 0, 0, 4500, 0)
	if err := ob.SetRefValue([]float64{107}, []float64{2}); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if !ob.HasRefValue() {
		tst.Errorf("reference must be attached")
		return
	}
	chk.Array(tst, "ref", 1e-15, ob.RefValue(), []float64{107})

	// wrong reference dimension is rejected
	if err := ob.SetRefValue([]float64{1, 2}, nil); err == nil {
		tst.Errorf("wrong reference dimension must be rejected")
		return
	}

	ov, err := NewObsValue(ob, []float64{105.5}, nil)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if !ov.IsDefined() {
		tst.Errorf("fully defined value must report defined")
		return
	}
	ov2, _ := NewObsValue(ob, []float64{99999}, []bool{false})
	if ov2.IsDefined() {
		tst.Errorf("undefined component must report undefined")
		return
	}

	// dimension mismatch is rejected
	if _, err = NewObsValue(ob, []float64{1, 2}, nil); err == nil {
		tst.Errorf("wrong value dimension must be rejected")
	}
}

func Test_obsspace01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("obsspace01. ordering, duplicates and serialization")

	osp := NewObsSpace()
	t1 := NewPropertyXYZ("T@4500", "Temperature", 1000, 2000, 4500, 0)
	t1.SetRefValue([]float64{107}, []float64{2})
	osp.AddObservable(t1)
	osp.AddObservable(NewPropertyIJK("Vr@L1", "Vr", "Layer1", 3, 4, 0, 10))
	w, _ := NewPropertyWell("P@W1", "Pressure", "Well1",
		[]float64{0, 0}, []float64{0, 0}, []float64{1000, 2000}, 0)
	osp.AddObservable(w)

	chk.IntAssert(osp.Size(), 3)
	chk.IntAssert(osp.Dimension(), 4)
	chk.IntAssert(osp.NumWithRef(), 1)

	err := osp.AddObservable(NewPropertyXYZ("T@4500", "Temperature", 0, 0, 0, 0))
	if status.KindOf(err) != status.AlreadyDefined {
		tst.Errorf("duplicate observable must report AlreadyDefined, got %v", err)
		return
	}

	for _, binary := range []bool{false, true} {
		path := filepath.Join(tst.TempDir(), "os.casa")
		wr, err := ser.NewWriter(path, binary)
		if err != nil {
			tst.Errorf("test failed:\n%v", err)
			return
		}
		if err = osp.Save(wr); err != nil {
			tst.Errorf("test failed:\n%v", err)
			return
		}
		wr.Close()
		r, err := ser.NewReader(path)
		if err != nil {
			tst.Errorf("test failed:\n%v", err)
			return
		}
		osp2, err := LoadObsSpace(r, StdFactory())
		r.Close()
		if err != nil {
			tst.Errorf("test failed:\n%v", err)
			return
		}
		chk.IntAssert(osp2.Size(), 3)
		chk.IntAssert(osp2.Dimension(), 4)
		back := osp2.ByName("T@4500")
		if back == nil || !back.HasRefValue() {
			tst.Errorf("reference value lost in round trip")
			return
		}
		chk.Array(tst, "ref", 1e-15, back.RefValue(), []float64{107})
		chk.Array(tst, "std", 1e-15, back.StdDev(), []float64{2})
	}
}
