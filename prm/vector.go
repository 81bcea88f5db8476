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
	vectorTypeName = "PrmVector"
	vectorVersion  = 1
)

// VectorPrm is a continuous vector knob: one deck column across a set of
// selected rows, each component with its own (min,max) range. Typical use is
// a thickness profile over several layers
type VectorPrm struct {
	PrmName      string    // user-facing name
	Table        string    // deck table
	Col          string    // deck column
	RowSearchCol string    // row selector column
	RowSearchVal []string  // one selector value per component
	MinV         []float64 // lower bounds
	BaseV        []float64 // base-case values
	MaxV         []float64 // upper bounds
	Pdf          PDF       // PDF shape over the range
}

// NewVectorPrm creates a vector variable parameter. Every base component
// must lie within its range
func NewVectorPrm(name, table, col, rowSearchCol string, rowSearchVal []string, base, min, max []float64, pdf PDF) (*VectorPrm, error) {
	n := len(base)
	if n == 0 || len(min) != n || len(max) != n || len(rowSearchVal) != n {
		return nil, status.Err(status.OutOfRangeValue, "parameter %q: inconsistent component counts", name)
	}
	for i := 0; i < n; i++ {
		if min[i] > max[i] || base[i] < min[i] || base[i] > max[i] {
			return nil, status.Err(status.OutOfRangeValue, "parameter %q component %d: base %v outside range [%v,%v]", name, i, base[i], min[i], max[i])
		}
	}
	return &VectorPrm{PrmName: name, Table: table, Col: col, RowSearchCol: rowSearchCol,
		RowSearchVal: rowSearchVal, MinV: min, BaseV: base, MaxV: max, Pdf: pdf}, nil
}

// Name returns the parameter name
func (o *VectorPrm) Name() string { return o.PrmName }

// Key returns the semantic deck key
func (o *VectorPrm) Key() string { return o.Table + ":" + o.Col }

// Dimension returns the number of components
func (o *VectorPrm) Dimension() int { return len(o.BaseV) }

// PdfType returns the PDF shape
func (o *VectorPrm) PdfType() PDF { return o.Pdf }

// BaseAsArray returns the base values
func (o *VectorPrm) BaseAsArray() []float64 { return append([]float64{}, o.BaseV...) }

// MinAsArray returns the lower bounds
func (o *VectorPrm) MinAsArray() []float64 { return append([]float64{}, o.MinV...) }

// MaxAsArray returns the upper bounds
func (o *VectorPrm) MaxAsArray() []float64 { return append([]float64{}, o.MaxV...) }

// BaseParameter returns the bound base-case value
func (o *VectorPrm) BaseParameter() Parameter {
	return &VectorVal{prm: o, V: o.BaseAsArray()}
}

// NewFromArray binds a value from its canonical flattening
func (o *VectorPrm) NewFromArray(v []float64) (Parameter, error) {
	if len(v) != len(o.BaseV) {
		return nil, status.Err(status.OutOfRangeValue, "parameter %q: expected %d values, got %d", o.PrmName, len(o.BaseV), len(v))
	}
	for i, x := range v {
		if x < o.MinV[i]-valTol || x > o.MaxV[i]+valTol {
			return nil, status.Err(status.OutOfRangeValue, "parameter %q component %d: value %v outside range [%v,%v]", o.PrmName, i, x, o.MinV[i], o.MaxV[i])
		}
	}
	return &VectorVal{prm: o, V: append([]float64{}, v...)}, nil
}

// IsCategorical returns false
func (o *VectorPrm) IsCategorical() bool { return false }

// TypeName returns the registry key
func (o *VectorPrm) TypeName() string { return vectorTypeName }

// Save writes the definition
func (o *VectorPrm) Save(w *ser.Writer) (err error) {
	if err = w.Obj(vectorTypeName, o.PrmName, vectorVersion); err != nil {
		return err
	}
	if err = w.String("Table", o.Table); err != nil {
		return err
	}
	if err = w.String("Col", o.Col); err != nil {
		return err
	}
	if err = w.String("RowSearchCol", o.RowSearchCol); err != nil {
		return err
	}
	if err = w.Strings("RowSearchVal", o.RowSearchVal); err != nil {
		return err
	}
	if err = w.Floats("Min", o.MinV); err != nil {
		return err
	}
	if err = w.Floats("Base", o.BaseV); err != nil {
		return err
	}
	if err = w.Floats("Max", o.MaxV); err != nil {
		return err
	}
	return w.String("Pdf", o.Pdf.String())
}

func loadVectorPrm(r *ser.Reader, objName string, ver int) (VarParameter, error) {
	if ver > vectorVersion {
		return nil, status.Err(status.DeserializationError, "stored %s version %d is newer than known version %d", vectorTypeName, ver, vectorVersion)
	}
	o := &VectorPrm{PrmName: objName}
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
	if o.RowSearchVal, err = r.Strings("RowSearchVal"); err != nil {
		return nil, err
	}
	if o.MinV, err = r.Floats("Min"); err != nil {
		return nil, err
	}
	if o.BaseV, err = r.Floats("Base"); err != nil {
		return nil, err
	}
	if o.MaxV, err = r.Floats("Max"); err != nil {
		return nil, err
	}
	pdf, err := r.String("Pdf")
	if err != nil {
		return nil, err
	}
	if o.Pdf, err = PdfFromString(pdf); err != nil {
		return nil, err
	}
	return o, nil
}

// VectorVal is a bound vector parameter value
type VectorVal struct {
	prm *VectorPrm
	V   []float64 // the bound components
}

// Parent returns the definition
func (o *VectorVal) Parent() VarParameter { return o.prm }

// AsArray returns the canonical flattening
func (o *VectorVal) AsArray() []float64 { return append([]float64{}, o.V...) }

// SetInModel writes every component into its deck row
func (o *VectorVal) SetInModel(m *project.Model, caseID string) error {
	for i, x := range o.V {
		row := m.FindRow(o.prm.Table, o.prm.RowSearchCol, o.prm.RowSearchVal[i])
		if row < 0 {
			row = m.AddRow(o.prm.Table, project.Record{o.prm.RowSearchCol: o.prm.RowSearchVal[i]})
		}
		if err := m.SetFloat(o.prm.Table, row, o.prm.Col, x); err != nil {
			return status.Err(status.MutationError, "parameter %q component %d: %v", o.prm.PrmName, i, err)
		}
	}
	return nil
}

// Validate checks that the deck contains every component
func (o *VectorVal) Validate(m *project.Model) error {
	for i, x := range o.V {
		row := m.FindRow(o.prm.Table, o.prm.RowSearchCol, o.prm.RowSearchVal[i])
		if row < 0 {
			return status.Err(status.ValidationError, "parameter %q component %d: row %q not found", o.prm.PrmName, i, o.prm.RowSearchVal[i])
		}
		v, err := m.GetFloat(o.prm.Table, row, o.prm.Col)
		if err != nil {
			return status.Err(status.ValidationError, "parameter %q component %d: %v", o.prm.PrmName, i, err)
		}
		if math.Abs(v-x) > valTol {
			return status.Err(status.ValidationError, "parameter %q component %d: deck value %v differs from %v", o.prm.PrmName, i, v, x)
		}
	}
	return nil
}
