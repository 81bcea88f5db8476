// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package prm implements the parameter model: definitions of variable
// simulator knobs (influential parameters) with ranges and PDF shapes, and
// bound parameter values which know how to inject themselves into a project
// deck and round-trip as fixed-size double vectors
package prm

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/casa/project"
	"github.com/cpmech/casa/ser"
)

// PDF is the probability density shape of a variable parameter
type PDF int

// PDF shapes
const (
	Block    PDF = iota // uniform over the range
	Triangle            // peak at the base value
	Normal              // mean at the base value
)

var pdfnames = []string{"Block", "Triangle", "Normal"}

// String returns the PDF shape name
func (o PDF) String() string {
	if o < Block || o > Normal {
		return "Block"
	}
	return pdfnames[o]
}

// PdfFromString parses a PDF shape name
func PdfFromString(s string) (PDF, error) {
	for i, n := range pdfnames {
		if n == s {
			return PDF(i), nil
		}
	}
	return Block, chk.Err("unknown PDF shape %q", s)
}

// Parameter is one bound assignment of a value to a simulator knob
type Parameter interface {

	// Parent returns the definition this value was drawn from
	Parent() VarParameter

	// AsArray is the canonical flattening used by the DoE generator and proxy
	AsArray() []float64

	// SetInModel injects the value into a project deck. caseID names
	// per-case artefacts such as blended grid maps
	SetInModel(m *project.Model, caseID string) error

	// Validate checks that a just-written deck contains the value
	Validate(m *project.Model) error
}

// VarParameter is the definition of a variable simulator knob
type VarParameter interface {

	// Name returns the user-facing parameter name
	Name() string

	// Key returns the semantic deck key, e.g. "BasementIoTbl:TopCrustHeatProd"
	Key() string

	// Dimension is the number of doubles the parameter occupies in
	// flattened vectors
	Dimension() int

	// PdfType returns the PDF shape over the range
	PdfType() PDF

	// BaseAsArray returns the experiment centre, flattened
	BaseAsArray() []float64

	// MinAsArray returns the lower range bound, flattened
	MinAsArray() []float64

	// MaxAsArray returns the upper range bound, flattened
	MaxAsArray() []float64

	// BaseParameter returns the bound base-case value
	BaseParameter() Parameter

	// NewFromArray binds a value from its canonical flattening. An
	// OutOfRangeValue error results if the value lies outside the range
	NewFromArray(v []float64) (Parameter, error)

	// IsCategorical reports whether the parameter is drawn from an
	// ordered finite set
	IsCategorical() bool

	// TypeName is the registry key used for deserialization dispatch
	TypeName() string

	// Save writes the definition
	Save(w *ser.Writer) error
}

// Categorical is the interface of categorical variable parameters
type Categorical interface {
	VarParameter

	// Values returns the ordered finite set of allowed values
	Values() []uint
}

// MapScaled maps s in [-1,1] to [min,max] so that -1 => min, 0 => base and
// +1 => max, piecewise linearly
func MapScaled(s, min, base, max float64) float64 {
	if s >= 0 {
		return base + s*(max-base)
	}
	return base + s*(base-min)
}

// InvScaled is the inverse of MapScaled
func InvScaled(v, min, base, max float64) float64 {
	if v >= base {
		if max == base {
			return 0
		}
		return (v - base) / (max - base)
	}
	if base == min {
		return 0
	}
	return (v - base) / (base - min)
}

// Factory is an explicit table mapping type names to variable parameter
// readers. It is passed to the scenario deserializer
type Factory map[string]func(r *ser.Reader, objName string, ver int) (VarParameter, error)

// StdFactory returns the factory covering all built-in parameter types
func StdFactory() Factory {
	return Factory{
		scalarTypeName:      loadScalarPrm,
		vectorTypeName:      loadVectorPrm,
		mapTypeName:         loadMapPrm,
		curveTypeName:       loadCurvePrm,
		categoricalTypeName: loadCategoricalPrm,
	}
}

// LoadVarParameter reads the next variable parameter using an explicit factory
func LoadVarParameter(r *ser.Reader, f Factory) (VarParameter, error) {
	typeName, objName, ver, err := r.PeekObjType()
	if err != nil {
		return nil, err
	}
	alloc, ok := f[typeName]
	if !ok {
		return nil, chk.Err("unknown variable parameter type %q in stored scenario", typeName)
	}
	return alloc(r, objName, ver)
}
