// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prm

import (
	"math"

	"github.com/cpmech/casa/project"
	"github.com/cpmech/casa/ser"
	"github.com/cpmech/casa/status"
)

const (
	categoricalTypeName = "PrmCategorical"
	categoricalVersion  = 1
)

// CategoricalPrm is a knob drawn from an ordered finite set of unsigned
// values, e.g. a source-rock type index
type CategoricalPrm struct {
	PrmName      string // user-facing name
	Table        string // deck table
	Col          string // deck column
	RowSearchCol string // row selector column; empty selects row 0
	RowSearchVal string // row selector value
	Vals         []uint // ordered allowed values
	BaseIdx      int    // index of the base-case value in Vals
}

// NewCategoricalPrm creates a categorical variable parameter
func NewCategoricalPrm(name, table, col string, vals []uint, baseIdx int) (*CategoricalPrm, error) {
	if len(vals) == 0 {
		return nil, status.Err(status.OutOfRangeValue, "parameter %q: empty value set", name)
	}
	if baseIdx < 0 || baseIdx >= len(vals) {
		return nil, status.Err(status.OutOfRangeValue, "parameter %q: base index %d outside value set of size %d", name, baseIdx, len(vals))
	}
	return &CategoricalPrm{PrmName: name, Table: table, Col: col, Vals: vals, BaseIdx: baseIdx}, nil
}

// SelectRow restricts the deck row to the first one whose col equals val
func (o *CategoricalPrm) SelectRow(col, val string) *CategoricalPrm {
	o.RowSearchCol = col
	o.RowSearchVal = val
	return o
}

// Name returns the parameter name
func (o *CategoricalPrm) Name() string { return o.PrmName }

// Key returns the semantic deck key
func (o *CategoricalPrm) Key() string { return o.Table + ":" + o.Col }

// Dimension returns 1
func (o *CategoricalPrm) Dimension() int { return 1 }

// PdfType returns Block: categorical values are equally likely
func (o *CategoricalPrm) PdfType() PDF { return Block }

// BaseAsArray returns the base value, flattened
func (o *CategoricalPrm) BaseAsArray() []float64 { return []float64{float64(o.Vals[o.BaseIdx])} }

// MinAsArray returns the smallest allowed value
func (o *CategoricalPrm) MinAsArray() []float64 { return []float64{float64(o.Vals[0])} }

// MaxAsArray returns the largest allowed value
func (o *CategoricalPrm) MaxAsArray() []float64 { return []float64{float64(o.Vals[len(o.Vals)-1])} }

// BaseParameter returns the bound base-case value
func (o *CategoricalPrm) BaseParameter() Parameter {
	return &CategoricalVal{prm: o, V: o.Vals[o.BaseIdx]}
}

// Values returns the ordered allowed values
func (o *CategoricalPrm) Values() []uint { return append([]uint{}, o.Vals...) }

// NewFromArray binds a value from its canonical flattening, snapping to the
// nearest allowed value. DoE algorithms without categorical support generate
// continuous values here
func (o *CategoricalPrm) NewFromArray(v []float64) (Parameter, error) {
	if len(v) != 1 {
		return nil, status.Err(status.OutOfRangeValue, "parameter %q: expected 1 value, got %d", o.PrmName, len(v))
	}
	lo := float64(o.Vals[0])
	hi := float64(o.Vals[len(o.Vals)-1])
	if v[0] < lo-valTol || v[0] > hi+valTol {
		return nil, status.Err(status.OutOfRangeValue, "parameter %q: value %v outside value set range [%v,%v]", o.PrmName, v[0], lo, hi)
	}
	best := o.Vals[0]
	dmin := math.Abs(v[0] - float64(o.Vals[0]))
	for _, u := range o.Vals[1:] {
		if d := math.Abs(v[0] - float64(u)); d < dmin {
			dmin, best = d, u
		}
	}
	return &CategoricalVal{prm: o, V: best}, nil
}

// NewFromUint binds one of the allowed values directly
func (o *CategoricalPrm) NewFromUint(v uint) (Parameter, error) {
	for _, u := range o.Vals {
		if u == v {
			return &CategoricalVal{prm: o, V: v}, nil
		}
	}
	return nil, status.Err(status.OutOfRangeValue, "parameter %q: value %d not in allowed set", o.PrmName, v)
}

// IsCategorical returns true
func (o *CategoricalPrm) IsCategorical() bool { return true }

// TypeName returns the registry key
func (o *CategoricalPrm) TypeName() string { return categoricalTypeName }

// Save writes the definition
func (o *CategoricalPrm) Save(w *ser.Writer) (err error) {
	if err = w.Obj(categoricalTypeName, o.PrmName, categoricalVersion); err != nil {
		return err
	}
	for _, s := range []struct{ n, v string }{
		{"Table", o.Table}, {"Col", o.Col}, {"RowSearchCol", o.RowSearchCol}, {"RowSearchVal", o.RowSearchVal},
	} {
		if err = w.String(s.n, s.v); err != nil {
			return err
		}
	}
	vals := make([]int, len(o.Vals))
	for i, u := range o.Vals {
		vals[i] = int(u)
	}
	if err = w.Ints("Vals", vals); err != nil {
		return err
	}
	return w.Int("BaseIdx", o.BaseIdx)
}

func loadCategoricalPrm(r *ser.Reader, objName string, ver int) (VarParameter, error) {
	if ver > categoricalVersion {
		return nil, status.Err(status.DeserializationError, "stored %s version %d is newer than known version %d", categoricalTypeName, ver, categoricalVersion)
	}
	o := &CategoricalPrm{PrmName: objName}
	var err error
	if o.Table, err = r.String("Table"); err != nil {
		return nil, err
	}
	if o.Col, err = r.String("Col"); err != nil {
		return nil, err
	}
	if o.RowSearchCol, err = r.String("RowSearchCol"); err != nil {
		return nil, err
	}
	if o.RowSearchVal, err = r.String("RowSearchVal"); err != nil {
		return nil, err
	}
	vals, err := r.Ints("Vals")
	if err != nil {
		return nil, err
	}
	o.Vals = make([]uint, len(vals))
	for i, v := range vals {
		o.Vals[i] = uint(v)
	}
	if o.BaseIdx, err = r.Int("BaseIdx"); err != nil {
		return nil, err
	}
	if o.BaseIdx < 0 || o.BaseIdx >= len(o.Vals) {
		return nil, status.Err(status.DeserializationError, "stored %s has base index %d outside value set", categoricalTypeName, o.BaseIdx)
	}
	return o, nil
}

func (o *CategoricalPrm) row(m *project.Model, create bool) (int, error) {
	if o.RowSearchCol == "" {
		return 0, nil
	}
	row := m.FindRow(o.Table, o.RowSearchCol, o.RowSearchVal)
	if row < 0 {
		if !create {
			return -1, status.Err(status.ValidationError, "parameter %q: row with %s=%q not found in table %q", o.PrmName, o.RowSearchCol, o.RowSearchVal, o.Table)
		}
		row = m.AddRow(o.Table, project.Record{o.RowSearchCol: o.RowSearchVal})
	}
	return row, nil
}

// CategoricalVal is a bound categorical value
type CategoricalVal struct {
	prm *CategoricalPrm
	V   uint // the bound value; always a member of the allowed set
}

// Parent returns the definition
func (o *CategoricalVal) Parent() VarParameter { return o.prm }

// AsArray returns the canonical flattening
func (o *CategoricalVal) AsArray() []float64 { return []float64{float64(o.V)} }

// SetInModel writes the value into the deck
func (o *CategoricalVal) SetInModel(m *project.Model, caseID string) error {
	row, err := o.prm.row(m, true)
	if err != nil {
		return status.Err(status.MutationError, "%v", err)
	}
	return m.SetFloat(o.prm.Table, row, o.prm.Col, float64(o.V))
}

// Validate checks that the deck contains the value
func (o *CategoricalVal) Validate(m *project.Model) error {
	row, err := o.prm.row(m, false)
	if err != nil {
		return err
	}
	v, err := m.GetFloat(o.prm.Table, row, o.prm.Col)
	if err != nil {
		return status.Err(status.ValidationError, "parameter %q: %v", o.prm.PrmName, err)
	}
	if uint(v) != o.V {
		return status.Err(status.ValidationError, "parameter %q: deck value %v differs from %d", o.prm.PrmName, v, o.V)
	}
	return nil
}
