// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prm

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/casa/project"
	"github.com/cpmech/casa/ser"
	"github.com/cpmech/casa/status"
)

const (
	scalarTypeName = "PrmScalar"
	scalarVersion  = 1

	// tolerance used when validating a just-written deck
	valTol = 1e-6
)

// ScalarPrm is a continuous scalar knob over a simple (min,max) range
type ScalarPrm struct {
	PrmName      string  // user-facing name
	Table        string  // deck table
	Col          string  // deck column
	RowSearchCol string  // row selector column; empty selects row 0
	RowSearchVal string  // row selector value
	MinV         float64 // lower range bound
	BaseV        float64 // base-case value
	MaxV         float64 // upper range bound
	Pdf          PDF     // PDF shape over the range
}

// NewScalarPrm creates a scalar variable parameter. The base value must lie
// within the range
func NewScalarPrm(name, table, col string, base, min, max float64, pdf PDF) (*ScalarPrm, error) {
	if min > max {
		return nil, status.Err(status.OutOfRangeValue, "parameter %q: min %v exceeds max %v", name, min, max)
	}
	if base < min || base > max {
		return nil, status.Err(status.OutOfRangeValue, "parameter %q: base value %v outside range [%v,%v]", name, base, min, max)
	}
	return &ScalarPrm{PrmName: name, Table: table, Col: col, MinV: min, BaseV: base, MaxV: max, Pdf: pdf}, nil
}

// SelectRow restricts the deck row to the first one whose col equals val
func (o *ScalarPrm) SelectRow(col, val string) *ScalarPrm {
	o.RowSearchCol = col
	o.RowSearchVal = val
	return o
}

// Name returns the parameter name
func (o *ScalarPrm) Name() string { return o.PrmName }

// Key returns the semantic deck key
func (o *ScalarPrm) Key() string { return o.Table + ":" + o.Col }

// Dimension returns 1
func (o *ScalarPrm) Dimension() int { return 1 }

// PdfType returns the PDF shape
func (o *ScalarPrm) PdfType() PDF { return o.Pdf }

// BaseAsArray returns the base value, flattened
func (o *ScalarPrm) BaseAsArray() []float64 { return []float64{o.BaseV} }

// MinAsArray returns the lower bound, flattened
func (o *ScalarPrm) MinAsArray() []float64 { return []float64{o.MinV} }

// MaxAsArray returns the upper bound, flattened
func (o *ScalarPrm) MaxAsArray() []float64 { return []float64{o.MaxV} }

// BaseParameter returns the bound base-case value
func (o *ScalarPrm) BaseParameter() Parameter { return &ScalarVal{prm: o, V: o.BaseV} }

// NewFromArray binds a value from its canonical flattening
func (o *ScalarPrm) NewFromArray(v []float64) (Parameter, error) {
	if len(v) != 1 {
		return nil, status.Err(status.OutOfRangeValue, "parameter %q: expected 1 value, got %d", o.PrmName, len(v))
	}
	if v[0] < o.MinV-valTol || v[0] > o.MaxV+valTol {
		return nil, status.Err(status.OutOfRangeValue, "parameter %q: value %v outside range [%v,%v]", o.PrmName, v[0], o.MinV, o.MaxV)
	}
	return &ScalarVal{prm: o, V: v[0]}, nil
}

// IsCategorical returns false
func (o *ScalarPrm) IsCategorical() bool { return false }

// TypeName returns the registry key
func (o *ScalarPrm) TypeName() string { return scalarTypeName }

// Save writes the definition
func (o *ScalarPrm) Save(w *ser.Writer) (err error) {
	if err = w.Obj(scalarTypeName, o.PrmName, scalarVersion); err != nil {
		return err
	}
	for _, s := range []struct{ n, v string }{
		{"Table", o.Table}, {"Col", o.Col}, {"RowSearchCol", o.RowSearchCol}, {"RowSearchVal", o.RowSearchVal},
	} {
		if err = w.String(s.n, s.v); err != nil {
			return err
		}
	}
	if err = w.Floats("Range", []float64{o.MinV, o.BaseV, o.MaxV}); err != nil {
		return err
	}
	return w.String("Pdf", o.Pdf.String())
}

func loadScalarPrm(r *ser.Reader, objName string, ver int) (VarParameter, error) {
	if ver > scalarVersion {
		return nil, status.Err(status.DeserializationError, "stored %s version %d is newer than known version %d", scalarTypeName, ver, scalarVersion)
	}
	o := &ScalarPrm{PrmName: objName}
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
	rng, err := r.Floats("Range")
	if err != nil {
		return nil, err
	}
	if len(rng) != 3 {
		return nil, status.Err(status.DeserializationError, "stored %s range must have 3 values, got %d", scalarTypeName, len(rng))
	}
	o.MinV, o.BaseV, o.MaxV = rng[0], rng[1], rng[2]
	pdf, err := r.String("Pdf")
	if err != nil {
		return nil, err
	}
	if o.Pdf, err = PdfFromString(pdf); err != nil {
		return nil, err
	}
	return o, nil
}

// row locates (or creates) the target deck row
func (o *ScalarPrm) row(m *project.Model, create bool) (int, error) {
	if o.RowSearchCol == "" {
		return 0, nil
	}
	row := m.FindRow(o.Table, o.RowSearchCol, o.RowSearchVal)
	if row < 0 {
		if !create {
			return -1, chk.Err("row with %s=%q not found in table %q", o.RowSearchCol, o.RowSearchVal, o.Table)
		}
		row = m.AddRow(o.Table, project.Record{o.RowSearchCol: o.RowSearchVal})
	}
	return row, nil
}

// ScalarVal is a bound scalar parameter value
type ScalarVal struct {
	prm *ScalarPrm
	V   float64 // the bound value
}

// Parent returns the definition
func (o *ScalarVal) Parent() VarParameter { return o.prm }

// AsArray returns the canonical flattening
func (o *ScalarVal) AsArray() []float64 { return []float64{o.V} }

// SetInModel writes the value into the deck
func (o *ScalarVal) SetInModel(m *project.Model, caseID string) error {
	row, err := o.prm.row(m, true)
	if err != nil {
		return status.Err(status.MutationError, "parameter %q: %v", o.prm.PrmName, err)
	}
	return m.SetFloat(o.prm.Table, row, o.prm.Col, o.V)
}

// Validate checks that the deck contains the value
func (o *ScalarVal) Validate(m *project.Model) error {
	row, err := o.prm.row(m, false)
	if err != nil {
		return status.Err(status.ValidationError, "parameter %q: %v", o.prm.PrmName, err)
	}
	v, err := m.GetFloat(o.prm.Table, row, o.prm.Col)
	if err != nil {
		return status.Err(status.ValidationError, "parameter %q: %v", o.prm.PrmName, err)
	}
	if math.Abs(v-o.V) > valTol {
		return status.Err(status.ValidationError, "parameter %q: deck value %v differs from %v", o.prm.PrmName, v, o.V)
	}
	return nil
}

// String returns a short description for diagnostics
func (o *ScalarVal) String() string {
	return io.Sf("%s=%g", o.prm.PrmName, o.V)
}
