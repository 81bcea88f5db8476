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
	curveTypeName = "PrmCurve"
	curveVersion  = 1
)

// CurvePrm is a continuous knob over a curve range: two 1-D profiles
// interpolated on [-1,1]. The interpolated profile is written back into a
// deck column across the first len(profile) rows
type CurvePrm struct {
	PrmName string    // user-facing name
	Table   string    // deck table carrying the profile
	Col     string    // deck column carrying the profile
	MinProf []float64 // lower bound profile
	BaseProf []float64 // base-case profile
	MaxProf []float64 // upper bound profile
	Pdf     PDF       // PDF shape over [-1,1]
}

// NewCurvePrm creates a curve-range variable parameter. All three profiles
// must have the same length
func NewCurvePrm(name, table, col string, base, min, max []float64, pdf PDF) (*CurvePrm, error) {
	if len(base) == 0 || len(min) != len(base) || len(max) != len(base) {
		return nil, status.Err(status.OutOfRangeValue, "parameter %q: profiles must have equal nonzero length", name)
	}
	return &CurvePrm{PrmName: name, Table: table, Col: col, MinProf: min, BaseProf: base, MaxProf: max, Pdf: pdf}, nil
}

// Name returns the parameter name
func (o *CurvePrm) Name() string { return o.PrmName }

// Key returns the semantic deck key
func (o *CurvePrm) Key() string { return o.Table + ":" + o.Col }

// Dimension returns 1
func (o *CurvePrm) Dimension() int { return 1 }

// PdfType returns the PDF shape
func (o *CurvePrm) PdfType() PDF { return o.Pdf }

// BaseAsArray returns {0}: the interpolation centre
func (o *CurvePrm) BaseAsArray() []float64 { return []float64{0} }

// MinAsArray returns {-1}
func (o *CurvePrm) MinAsArray() []float64 { return []float64{-1} }

// MaxAsArray returns {+1}
func (o *CurvePrm) MaxAsArray() []float64 { return []float64{1} }

// BaseParameter returns the bound base-case value
func (o *CurvePrm) BaseParameter() Parameter { return &CurveVal{prm: o, V: 0} }

// NewFromArray binds a value from its canonical flattening
func (o *CurvePrm) NewFromArray(v []float64) (Parameter, error) {
	if len(v) != 1 {
		return nil, status.Err(status.OutOfRangeValue, "parameter %q: expected 1 value, got %d", o.PrmName, len(v))
	}
	if v[0] < -1-valTol || v[0] > 1+valTol {
		return nil, status.Err(status.OutOfRangeValue, "parameter %q: interpolation value %v outside [-1,1]", o.PrmName, v[0])
	}
	return &CurveVal{prm: o, V: v[0]}, nil
}

// IsCategorical returns false
func (o *CurvePrm) IsCategorical() bool { return false }

// TypeName returns the registry key
func (o *CurvePrm) TypeName() string { return curveTypeName }

// Save writes the definition
func (o *CurvePrm) Save(w *ser.Writer) (err error) {
	if err = w.Obj(curveTypeName, o.PrmName, curveVersion); err != nil {
		return err
	}
	if err = w.String("Table", o.Table); err != nil {
		return err
	}
	if err = w.String("Col", o.Col); err != nil {
		return err
	}
	if err = w.Floats("MinProf", o.MinProf); err != nil {
		return err
	}
	if err = w.Floats("BaseProf", o.BaseProf); err != nil {
		return err
	}
	if err = w.Floats("MaxProf", o.MaxProf); err != nil {
		return err
	}
	return w.String("Pdf", o.Pdf.String())
}

func loadCurvePrm(r *ser.Reader, objName string, ver int) (VarParameter, error) {
	if ver > curveVersion {
		return nil, status.Err(status.DeserializationError, "stored %s version %d is newer than known version %d", curveTypeName, ver, curveVersion)
	}
	o := &CurvePrm{PrmName: objName}
	var err error
	if o.Table, err = r.String("Table"); err != nil {
		return nil, err
	}
	if o.Col, err = r.String("Col"); err != nil {
		return nil, err
	}
	if o.MinProf, err = r.Floats("MinProf"); err != nil {
		return nil, err
	}
	if o.BaseProf, err = r.Floats("BaseProf"); err != nil {
		return nil, err
	}
	if o.MaxProf, err = r.Floats("MaxProf"); err != nil {
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

// profile computes the interpolated profile for value v
func (o *CurvePrm) profile(v float64) []float64 {
	if v == 0 {
		return append([]float64{}, o.BaseProf...)
	}
	alpha := (v + 1.0) / 2.0
	p := make([]float64, len(o.MinProf))
	for i := range p {
		p[i] = (1.0-alpha)*o.MinProf[i] + alpha*o.MaxProf[i]
	}
	return p
}

// CurveVal is a bound curve interpolation value
type CurveVal struct {
	prm *CurvePrm
	V   float64 // interpolation value in [-1,1]
}

// Parent returns the definition
func (o *CurveVal) Parent() VarParameter { return o.prm }

// AsArray returns the canonical flattening
func (o *CurveVal) AsArray() []float64 { return []float64{o.V} }

// SetInModel writes the interpolated profile into the deck
func (o *CurveVal) SetInModel(m *project.Model, caseID string) error {
	for i, x := range o.prm.profile(o.V) {
		if err := m.SetFloat(o.prm.Table, i, o.prm.Col, x); err != nil {
			return status.Err(status.MutationError, "parameter %q row %d: %v", o.prm.PrmName, i, err)
		}
	}
	return nil
}

// Validate checks that the deck contains the interpolated profile
func (o *CurveVal) Validate(m *project.Model) error {
	for i, x := range o.prm.profile(o.V) {
		v, err := m.GetFloat(o.prm.Table, i, o.prm.Col)
		if err != nil {
			return status.Err(status.ValidationError, "parameter %q row %d: %v", o.prm.PrmName, i, err)
		}
		if math.Abs(v-x) > valTol {
			return status.Err(status.ValidationError, "parameter %q row %d: deck value %v differs from %v", o.prm.PrmName, i, v, x)
		}
	}
	return nil
}
