// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rcs

import (
	"github.com/cpmech/casa/obs"
	"github.com/cpmech/casa/prm"
	"github.com/cpmech/casa/ser"
	"github.com/cpmech/casa/status"
)

const (
	runCaseSetTypeName = "RunCaseSet"
	runCaseSetVersion  = 1
)

// RunCaseSet is an ordered collection of run cases tagged by experiment
// name. Cases are stored flat; experiments keep index lists so that subset
// access never copies
type RunCaseSet struct {
	cases    []*RunCase
	expOrder []string         // experiment names in insertion order
	expIdx   map[string][]int // experiment name => indices into cases
}

// NewRunCaseSet creates an empty set
func NewRunCaseSet() *RunCaseSet {
	return &RunCaseSet{expIdx: make(map[string][]int)}
}

// Size returns the total number of cases
func (o *RunCaseSet) Size() int { return len(o.cases) }

// Case returns the i-th case over the flat storage; nil if out of range
func (o *RunCaseSet) Case(i int) *RunCase {
	if i < 0 || i >= len(o.cases) {
		return nil
	}
	return o.cases[i]
}

// All returns the flat case list
func (o *RunCaseSet) All() []*RunCase { return o.cases }

// AddNewCases appends cases under an experiment tag. Each case belongs to
// exactly one experiment; reusing a tag is rejected
func (o *RunCaseSet) AddNewCases(newCases []*RunCase, expLabel string) error {
	if _, ok := o.expIdx[expLabel]; ok {
		return status.Err(status.AlreadyDefined, "experiment %q already exists in the case set", expLabel)
	}
	idx := make([]int, len(newCases))
	pos := len(o.cases)
	for i := range newCases {
		idx[i] = pos + i
	}
	o.cases = append(o.cases, newCases...)
	o.expIdx[expLabel] = idx
	o.expOrder = append(o.expOrder, expLabel)
	return nil
}

// AppendToExperiment extends an existing experiment with more cases; used by
// augmentable space-filling designs. Creates the experiment when absent
func (o *RunCaseSet) AppendToExperiment(newCases []*RunCase, expLabel string) {
	idx, ok := o.expIdx[expLabel]
	if !ok {
		o.expOrder = append(o.expOrder, expLabel)
	}
	pos := len(o.cases)
	for i := range newCases {
		idx = append(idx, pos+i)
	}
	o.cases = append(o.cases, newCases...)
	o.expIdx[expLabel] = idx
}

// ExperimentNames returns the experiment tags in insertion order
func (o *RunCaseSet) ExperimentNames() []string {
	return append([]string{}, o.expOrder...)
}

// Filtered returns the cases of one experiment without copying them
func (o *RunCaseSet) Filtered(expLabel string) (res []*RunCase) {
	idx, ok := o.expIdx[expLabel]
	if !ok {
		return nil
	}
	res = make([]*RunCase, len(idx))
	for i, j := range idx {
		res[i] = o.cases[j]
	}
	return
}

// ByState returns the cases currently in the given state
func (o *RunCaseSet) ByState(s State) (res []*RunCase) {
	for _, c := range o.cases {
		if c.State() == s {
			res = append(res, c)
		}
	}
	return
}

// Save writes the whole set with its experiment structure
func (o *RunCaseSet) Save(w *ser.Writer) (err error) {
	if err = w.Obj(runCaseSetTypeName, "caseSet", runCaseSetVersion); err != nil {
		return err
	}
	if err = w.Int("NumCases", len(o.cases)); err != nil {
		return err
	}
	for _, c := range o.cases {
		if err = c.Save(w); err != nil {
			return err
		}
	}
	if err = w.Strings("Experiments", o.expOrder); err != nil {
		return err
	}
	for _, name := range o.expOrder {
		if err = w.Ints("ExpIdx", o.expIdx[name]); err != nil {
			return err
		}
	}
	return nil
}

// LoadRunCaseSet reads a set, resolving definitions through the spaces
func LoadRunCaseSet(r *ser.Reader, vs *prm.VarSpace, os *obs.ObsSpace) (o *RunCaseSet, err error) {
	if _, _, err = r.Obj(runCaseSetTypeName, runCaseSetVersion); err != nil {
		return nil, err
	}
	n, err := r.Int("NumCases")
	if err != nil {
		return nil, err
	}
	o = NewRunCaseSet()
	for i := 0; i < n; i++ {
		c, err := LoadRunCase(r, vs, os)
		if err != nil {
			return nil, err
		}
		o.cases = append(o.cases, c)
	}
	if o.expOrder, err = r.Strings("Experiments"); err != nil {
		return nil, err
	}
	for _, name := range o.expOrder {
		idx, err := r.Ints("ExpIdx")
		if err != nil {
			return nil, err
		}
		for _, j := range idx {
			if j < 0 || j >= len(o.cases) {
				return nil, status.Err(status.DeserializationError, "experiment %q references case index %d outside stored set", name, j)
			}
		}
		o.expIdx[name] = idx
	}
	return o, nil
}
