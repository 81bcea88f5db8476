// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package doe

import (
	"testing"

	"github.com/cpmech/gosl/chk"

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

func checkCases(tst *testing.T, msg string, cases []*rcs.RunCase, expected [][]float64) {
	chk.IntAssert(len(cases), len(expected))
	for i, c := range cases {
		chk.Array(tst, msg, 1e-5, c.FlattenPrms(), expected[i])
	}
}

func Test_doe01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("doe01. tornado with two parameters")

	vs := twoPrmSpace(tst)
	set := rcs.NewRunCaseSet()
	g, _ := NewGenerator(Tornado, 0)
	if err := g.Generate(vs, set, 0, ""); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	checkCases(tst, "tornado", set.Filtered("Tornado"), [][]float64{
		{25, 2.05},
		{10, 2.05},
		{40, 2.05},
		{25, 0.1},
		{25, 4.0},
	})

	// the base case is the first; odd pairs differ from the base in one
	// parameter only
	base := set.Case(0).FlattenPrms()
	for i := 1; i < set.Size(); i++ {
		v := set.Case(i).FlattenPrms()
		ndiff := 0
		for k := range v {
			if v[k] != base[k] {
				ndiff++
			}
		}
		chk.IntAssert(ndiff, 1)
	}
}

func Test_doe02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("doe02. box-behnken with two parameters")

	vs := twoPrmSpace(tst)
	set := rcs.NewRunCaseSet()
	g, _ := NewGenerator(BoxBehnken, 0)
	if err := g.Generate(vs, set, 0, ""); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	checkCases(tst, "boxbehnken", set.Filtered("BoxBehnken"), [][]float64{
		{25, 2.05},
		{40, 4.0},
		{10, 4.0},
		{40, 0.1},
		{10, 0.1},
	})
}

func Test_doe03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("doe03. full factorial with two parameters")

	vs := twoPrmSpace(tst)
	set := rcs.NewRunCaseSet()
	g, _ := NewGenerator(FullFactorial, 0)
	if err := g.Generate(vs, set, 0, ""); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	checkCases(tst, "fullfactorial", set.Filtered("FullFactorial"), [][]float64{
		{25, 2.05},
		{10, 0.1},
		{40, 0.1},
		{10, 4.0},
		{40, 4.0},
	})
}

func Test_doe04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("doe04. plackett-burman with two parameters")

	vs := twoPrmSpace(tst)
	set := rcs.NewRunCaseSet()
	g, _ := NewGenerator(PlackettBurman, 0)
	if err := g.Generate(vs, set, 0, ""); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	// corner cases only; no base-centre case
	checkCases(tst, "plackettburman", set.Filtered("PlackettBurman"), [][]float64{
		{40, 4.0},
		{10, 4.0},
		{40, 0.1},
		{10, 0.1},
	})

	// mirrored variant doubles the rows
	set2 := rcs.NewRunCaseSet()
	g2, _ := NewGenerator(PlackettBurmanMirror, 0)
	if err := g2.Generate(vs, set2, 0, ""); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.IntAssert(set2.Size(), 8)
}

func Test_doe05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("doe05. latin hypercube stays within ranges")

	vs := twoPrmSpace(tst)
	set := rcs.NewRunCaseSet()
	g, _ := NewGenerator(LatinHypercube, 123)
	if err := g.Generate(vs, set, 20, "LHC_pass1"); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	cases := set.Filtered("LHC_pass1")
	chk.IntAssert(len(cases), 20)
	for _, c := range cases {
		v := c.FlattenPrms()
		if v[0] < 10 || v[0] > 40 || v[1] < 0.1 || v[1] > 4.0 {
			tst.Errorf("generated value outside declared range: %v", v)
			return
		}
	}

	// below the algorithm-specific minimum
	g2, _ := NewGenerator(LatinHypercube, 123)
	err := g2.Generate(vs, rcs.NewRunCaseSet(), 1, "tiny")
	if status.KindOf(err) != status.OutOfRangeValue {
		tst.Errorf("runsHint below the minimum must report OutOfRangeValue, got %v", err)
	}
}

func Test_doe06(tst *testing.T) {

	//verbose()
	chk.PrintTitle("doe06. space filling augments an existing experiment")

	vs := twoPrmSpace(tst)
	set := rcs.NewRunCaseSet()
	g, _ := NewGenerator(SpaceFilling, 7)
	if err := g.Generate(vs, set, 5, "SF"); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.IntAssert(len(set.Filtered("SF")), 5)

	// augmenting respects the existing points: same tag grows, the new
	// points keep away from the old ones
	if err := g.Generate(vs, set, 5, "SF"); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	cases := set.Filtered("SF")
	chk.IntAssert(len(cases), 10)
	for _, c := range cases {
		v := c.FlattenPrms()
		if v[0] < 10 || v[0] > 40 || v[1] < 0.1 || v[1] > 4.0 {
			tst.Errorf("generated value outside declared range: %v", v)
			return
		}
	}
	for i := 5; i < 10; i++ {
		for j := 0; j < 5; j++ {
			a := cases[i].FlattenPrms()
			b := cases[j].FlattenPrms()
			if a[0] == b[0] && a[1] == b[1] {
				tst.Errorf("augmented point %d duplicates existing point %d", i, j)
				return
			}
		}
	}
}

func Test_doe07(tst *testing.T) {

	//verbose()
	chk.PrintTitle("doe07. categorical replication and error cases")

	vs := twoPrmSpace(tst)
	cat, _ := prm.NewCategoricalPrm("Kind", "T", "C", []uint{0, 1}, 0)
	vs.AddParameter(cat)

	set := rcs.NewRunCaseSet()
	g, _ := NewGenerator(Tornado, 0)
	if err := g.Generate(vs, set, 0, ""); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	// (2n+1) continuous rows replicated per categorical value
	chk.IntAssert(set.Size(), 10)
	chk.Array(tst, "first replica", 1e-15, set.Case(0).FlattenPrms(), []float64{25, 2.05, 0})
	chk.Array(tst, "second replica", 1e-15, set.Case(5).FlattenPrms(), []float64{25, 2.05, 1})

	// empty parameter space is rejected
	g2, _ := NewGenerator(Tornado, 0)
	err := g2.Generate(prm.NewVarSpace(), rcs.NewRunCaseSet(), 0, "")
	if status.KindOf(err) != status.OutOfRangeValue {
		tst.Errorf("empty parameter space must report OutOfRangeValue, got %v", err)
		return
	}

	// unknown algorithm is rejected at construction
	if _, err = NewGenerator(Algorithm(99), 0); err == nil {
		tst.Errorf("unknown algorithm must be rejected")
	}
}
