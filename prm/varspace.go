// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prm

import (
	"github.com/cpmech/casa/ser"
	"github.com/cpmech/casa/status"
)

const (
	varSpaceTypeName = "VarSpace"
	varSpaceVersion  = 1
)

// VarSpace is the ordered, append-only collection of variable parameters.
// Identity and order of members are stable for the lifetime of a scenario;
// they establish the index convention used by DoE matrices, proxy
// coefficients and serialized run cases
type VarSpace struct {
	prms  []VarParameter
	names map[string]int // name => index, duplicate guard
}

// NewVarSpace creates an empty variable parameter space
func NewVarSpace() *VarSpace {
	return &VarSpace{names: make(map[string]int)}
}

// AddParameter appends a parameter definition. Duplicate names are rejected
func (o *VarSpace) AddParameter(p VarParameter) error {
	if p == nil {
		return status.Err(status.UndefinedValue, "cannot add nil parameter to variable space")
	}
	if _, ok := o.names[p.Name()]; ok {
		return status.Err(status.AlreadyDefined, "parameter %q is already defined in variable space", p.Name())
	}
	o.names[p.Name()] = len(o.prms)
	o.prms = append(o.prms, p)
	return nil
}

// Size returns the number of parameter definitions
func (o *VarSpace) Size() int { return len(o.prms) }

// Parameter returns the i-th definition; nil if out of range
func (o *VarSpace) Parameter(i int) VarParameter {
	if i < 0 || i >= len(o.prms) {
		return nil
	}
	return o.prms[i]
}

// ByName returns the definition with the given name; nil if absent
func (o *VarSpace) ByName(name string) VarParameter {
	if i, ok := o.names[name]; ok {
		return o.prms[i]
	}
	return nil
}

// Dimension returns the total number of doubles across all definitions
func (o *VarSpace) Dimension() (n int) {
	for _, p := range o.prms {
		n += p.Dimension()
	}
	return
}

// NumContinuous returns the number of continuous definitions
func (o *VarSpace) NumContinuous() (n int) {
	for _, p := range o.prms {
		if !p.IsCategorical() {
			n++
		}
	}
	return
}

// NumCategorical returns the number of categorical definitions
func (o *VarSpace) NumCategorical() (n int) {
	for _, p := range o.prms {
		if p.IsCategorical() {
			n++
		}
	}
	return
}

// Continuous returns the continuous definitions in declaration order
func (o *VarSpace) Continuous() (res []VarParameter) {
	for _, p := range o.prms {
		if !p.IsCategorical() {
			res = append(res, p)
		}
	}
	return
}

// CategoricalPrms returns the categorical definitions in declaration order
func (o *VarSpace) CategoricalPrms() (res []Categorical) {
	for _, p := range o.prms {
		if c, ok := p.(Categorical); ok && p.IsCategorical() {
			res = append(res, c)
		}
	}
	return
}

// All returns all definitions in declaration order
func (o *VarSpace) All() []VarParameter { return o.prms }

// FlattenBounds collects the flattened min, base and max vectors over the
// continuous definitions, in declaration order
func (o *VarSpace) FlattenBounds() (min, base, max []float64) {
	for _, p := range o.prms {
		if p.IsCategorical() {
			continue
		}
		min = append(min, p.MinAsArray()...)
		base = append(base, p.BaseAsArray()...)
		max = append(max, p.MaxAsArray()...)
	}
	return
}

// Save writes the whole variable space
func (o *VarSpace) Save(w *ser.Writer) (err error) {
	if err = w.Obj(varSpaceTypeName, "varSpace", varSpaceVersion); err != nil {
		return err
	}
	if err = w.Int("NumPrms", len(o.prms)); err != nil {
		return err
	}
	for _, p := range o.prms {
		if err = p.Save(w); err != nil {
			return err
		}
	}
	return nil
}

// LoadVarSpace reads a variable space using an explicit factory table
func LoadVarSpace(r *ser.Reader, f Factory) (*VarSpace, error) {
	_, _, err := r.Obj(varSpaceTypeName, varSpaceVersion)
	if err != nil {
		return nil, err
	}
	n, err := r.Int("NumPrms")
	if err != nil {
		return nil, err
	}
	o := NewVarSpace()
	for i := 0; i < n; i++ {
		p, err := LoadVarParameter(r, f)
		if err != nil {
			return nil, err
		}
		if err = o.AddParameter(p); err != nil {
			return nil, err
		}
	}
	return o, nil
}
