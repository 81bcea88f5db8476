// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package doe implements the design-of-experiments generator. Each
// algorithm is a pure function of the variable parameter space and a fixed
// seed, producing a deterministic ordered list of run cases whose flattened
// parameter vectors form the regression matrix of the proxy
package doe

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/casa/prm"
	"github.com/cpmech/casa/rcs"
	"github.com/cpmech/casa/status"
)

// Algorithm selects the design construction scheme
type Algorithm int

// design construction schemes
const (
	Tornado Algorithm = iota
	BoxBehnken
	PlackettBurman
	PlackettBurmanMirror
	FullFactorial
	LatinHypercube
	SpaceFilling
)

var algonames = []string{"Tornado", "BoxBehnken", "PlackettBurman", "PlackettBurmanMirror",
	"FullFactorial", "LatinHypercube", "SpaceFilling"}

// String returns the algorithm name, used as the default experiment tag
func (o Algorithm) String() string {
	if o < Tornado || o > SpaceFilling {
		return "Unknown"
	}
	return algonames[o]
}

// AlgoFromString parses an algorithm name
func AlgoFromString(s string) (Algorithm, error) {
	for i, n := range algonames {
		if n == s {
			return Algorithm(i), nil
		}
	}
	return Tornado, chk.Err("unknown DoE algorithm %q", s)
}

// Generator produces run cases for one design scheme
type Generator struct {
	status.Status

	Algo Algorithm // design construction scheme
	Seed int       // seed for the randomised schemes; fixed per scenario
}

// NewGenerator creates a generator with the given scheme
func NewGenerator(algo Algorithm, seed int) (*Generator, error) {
	if algo < Tornado || algo > SpaceFilling {
		return nil, status.Err(status.OutOfRangeValue, "unknown DoE algorithm type %d", algo)
	}
	return &Generator{Algo: algo, Seed: seed}, nil
}

// Generate produces the design cases and appends them to the output set
// under the experiment tag. runsHint is honoured by the randomised schemes
// only. When the scheme is SpaceFilling and the tag already exists in the
// set, the new cases are chosen maximally far from the existing ones in
// scaled parameter space
func (o *Generator) Generate(vs *prm.VarSpace, out *rcs.RunCaseSet, runsHint int, expLabel string) error {
	if vs == nil || vs.Size() == 0 {
		return o.ReportError(status.OutOfRangeValue, "cannot generate DoE over an empty parameter space")
	}
	if expLabel == "" {
		expLabel = o.Algo.String()
	}
	var err error
	switch o.Algo {
	case Tornado, BoxBehnken, PlackettBurman, PlackettBurmanMirror, FullFactorial:
		err = o.generateReplicated(vs, out, expLabel)
	case LatinHypercube:
		err = o.generateLatinHypercube(vs, out, runsHint, expLabel)
	case SpaceFilling:
		err = o.generateSpaceFilling(vs, out, runsHint, expLabel)
	default:
		err = status.Err(status.UndefinedValue, "unknown DoE algorithm: %d", o.Algo)
	}
	return o.ReportErr(err)
}

// generateReplicated builds one of the sign-matrix designs over the
// continuous dimensions and replicates it for each combination of
// categorical values
func (o *Generator) generateReplicated(vs *prm.VarSpace, out *rcs.RunCaseSet, expLabel string) error {
	ncont := flatContDim(vs)
	if ncont == 0 {
		return status.Err(status.OutOfRangeValue, "design %q needs at least one continuous parameter", o.Algo)
	}
	var rows [][]float64
	switch o.Algo {
	case Tornado:
		rows = tornadoRows(ncont)
	case BoxBehnken:
		rows = boxBehnkenRows(ncont)
	case PlackettBurman:
		rows = plackettBurmanRows(ncont, false)
	case PlackettBurmanMirror:
		rows = plackettBurmanRows(ncont, true)
	case FullFactorial:
		rows = fullFactorialRows(ncont)
	}
	combos := catCombos(vs)
	var cases []*rcs.RunCase
	id := out.Size()
	for _, combo := range combos {
		for _, row := range rows {
			c, err := buildCase(vs, id, row, combo)
			if err != nil {
				return err
			}
			cases = append(cases, c)
			id++
		}
	}
	return out.AddNewCases(cases, expLabel)
}

// flatContDim returns the flattened dimension over the continuous parameters
func flatContDim(vs *prm.VarSpace) (n int) {
	for _, p := range vs.All() {
		if !p.IsCategorical() {
			n += p.Dimension()
		}
	}
	return
}

// catCombos enumerates the cartesian product of categorical value sets. A
// space without categorical parameters yields one empty combination
func catCombos(vs *prm.VarSpace) [][]uint {
	cats := vs.CategoricalPrms()
	combos := [][]uint{{}}
	for _, c := range cats {
		var next [][]uint
		for _, head := range combos {
			for _, v := range c.Values() {
				combo := append(append([]uint{}, head...), v)
				next = append(next, combo)
			}
		}
		combos = next
	}
	return combos
}

// buildCase binds a run case from one scaled design row. Continuous
// parameters consume their dimensions from row (scaled values in [-1,1],
// with 0 at the base); categorical parameters consume from combo
func buildCase(vs *prm.VarSpace, id int, row []float64, combo []uint) (*rcs.RunCase, error) {
	c := rcs.NewRunCase(id)
	ic, icat := 0, 0
	for _, p := range vs.All() {
		if p.IsCategorical() {
			cat := p.(prm.Categorical)
			if icat >= len(combo) {
				return nil, status.Err(status.UndefinedValue, "categorical combination is shorter than the parameter space")
			}
			v, err := cat.(*prm.CategoricalPrm).NewFromUint(combo[icat])
			if err != nil {
				return nil, err
			}
			c.AddParameter(v)
			icat++
			continue
		}
		dim := p.Dimension()
		if ic+dim > len(row) {
			return nil, status.Err(status.UndefinedValue, "design row is shorter than the parameter space")
		}
		min, base, max := p.MinAsArray(), p.BaseAsArray(), p.MaxAsArray()
		vals := make([]float64, dim)
		for k := 0; k < dim; k++ {
			vals[k] = prm.MapScaled(row[ic+k], min[k], base[k], max[k])
		}
		ic += dim
		v, err := p.NewFromArray(vals)
		if err != nil {
			return nil, err
		}
		c.AddParameter(v)
	}
	return c, nil
}
