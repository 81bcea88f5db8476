// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prm

import (
	"math"

	"github.com/cpmech/gosl/io"

	"github.com/cpmech/casa/project"
	"github.com/cpmech/casa/ser"
	"github.com/cpmech/casa/status"
)

const (
	mapTypeName = "PrmMap"
	mapVersion  = 1
)

// MapPrm is a continuous knob over a map range: two 2-D grid maps
// interpolated on [-1,1]. The scalar value v maps to the pointwise blend
// (1-α)·minMap + α·maxMap with α = (v+1)/2; v = 0 selects the base map.
// Blended maps are persisted under a deterministic name derived from the
// case identifier and referenced from the deck by that name
type MapPrm struct {
	PrmName      string // user-facing name
	Table        string // deck table carrying the map reference
	Col          string // deck column carrying the map reference
	RowSearchCol string // row selector column; empty selects row 0
	RowSearchVal string // row selector value
	BaseMap      string // base-case map name (registered in the base deck)
	MinMap       string // lower bound map name
	MaxMap       string // upper bound map name
	Pdf          PDF    // PDF shape over [-1,1]

	store project.MapStore // map file backend; not serialized
}

// NewMapPrm creates a map-range variable parameter
func NewMapPrm(name, table, col, baseMap, minMap, maxMap string, pdf PDF) *MapPrm {
	return &MapPrm{PrmName: name, Table: table, Col: col,
		BaseMap: baseMap, MinMap: minMap, MaxMap: maxMap, Pdf: pdf, store: project.GobMapStore{}}
}

// SelectRow restricts the deck row to the first one whose col equals val
func (o *MapPrm) SelectRow(col, val string) *MapPrm {
	o.RowSearchCol = col
	o.RowSearchVal = val
	return o
}

// SetStore replaces the map file backend
func (o *MapPrm) SetStore(s project.MapStore) { o.store = s }

// Name returns the parameter name
func (o *MapPrm) Name() string { return o.PrmName }

// Key returns the semantic deck key
func (o *MapPrm) Key() string { return o.Table + ":" + o.Col }

// Dimension returns 1
func (o *MapPrm) Dimension() int { return 1 }

// PdfType returns the PDF shape
func (o *MapPrm) PdfType() PDF { return o.Pdf }

// BaseAsArray returns {0}: the interpolation centre
func (o *MapPrm) BaseAsArray() []float64 { return []float64{0} }

// MinAsArray returns {-1}
func (o *MapPrm) MinAsArray() []float64 { return []float64{-1} }

// MaxAsArray returns {+1}
func (o *MapPrm) MaxAsArray() []float64 { return []float64{1} }

// BaseParameter returns the bound base-case value
func (o *MapPrm) BaseParameter() Parameter { return &MapVal{prm: o, V: 0} }

// NewFromArray binds a value from its canonical flattening
func (o *MapPrm) NewFromArray(v []float64) (Parameter, error) {
	if len(v) != 1 {
		return nil, status.Err(status.OutOfRangeValue, "parameter %q: expected 1 value, got %d", o.PrmName, len(v))
	}
	if v[0] < -1-valTol || v[0] > 1+valTol {
		return nil, status.Err(status.OutOfRangeValue, "parameter %q: interpolation value %v outside [-1,1]", o.PrmName, v[0])
	}
	return &MapVal{prm: o, V: v[0]}, nil
}

// IsCategorical returns false
func (o *MapPrm) IsCategorical() bool { return false }

// TypeName returns the registry key
func (o *MapPrm) TypeName() string { return mapTypeName }

// Save writes the definition
func (o *MapPrm) Save(w *ser.Writer) (err error) {
	if err = w.Obj(mapTypeName, o.PrmName, mapVersion); err != nil {
		return err
	}
	for _, s := range []struct{ n, v string }{
		{"Table", o.Table}, {"Col", o.Col}, {"RowSearchCol", o.RowSearchCol}, {"RowSearchVal", o.RowSearchVal},
		{"BaseMap", o.BaseMap}, {"MinMap", o.MinMap}, {"MaxMap", o.MaxMap},
	} {
		if err = w.String(s.n, s.v); err != nil {
			return err
		}
	}
	return w.String("Pdf", o.Pdf.String())
}

func loadMapPrm(r *ser.Reader, objName string, ver int) (VarParameter, error) {
	if ver > mapVersion {
		return nil, status.Err(status.DeserializationError, "stored %s version %d is newer than known version %d", mapTypeName, ver, mapVersion)
	}
	o := &MapPrm{PrmName: objName, store: project.GobMapStore{}}
	fields := []*string{&o.Table, &o.Col, &o.RowSearchCol, &o.RowSearchVal, &o.BaseMap, &o.MinMap, &o.MaxMap}
	names := []string{"Table", "Col", "RowSearchCol", "RowSearchVal", "BaseMap", "MinMap", "MaxMap"}
	for i, f := range fields {
		v, err := r.String(names[i])
		if err != nil {
			return nil, err
		}
		*f = v
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

func (o *MapPrm) row(m *project.Model, create bool) (int, error) {
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

// blendedName is the deterministic name of the per-case blended map
func (o *MapPrm) blendedName(caseID string) string {
	return io.Sf("%s_%s", caseID, o.PrmName)
}

// MapVal is a bound map interpolation value
type MapVal struct {
	prm *MapPrm
	V   float64 // interpolation value in [-1,1]
}

// Parent returns the definition
func (o *MapVal) Parent() VarParameter { return o.prm }

// AsArray returns the canonical flattening
func (o *MapVal) AsArray() []float64 { return []float64{o.V} }

// SetInModel blends the bound maps, persists the result next to the deck
// under the deterministic per-case name and rewires the deck reference.
// v = 0 keeps the base map and writes no file
func (o *MapVal) SetInModel(m *project.Model, caseID string) error {
	row, err := o.prm.row(m, true)
	if err != nil {
		return status.Err(status.MutationError, "%v", err)
	}
	if o.V == 0 {
		return m.SetString(o.prm.Table, row, o.prm.Col, o.prm.BaseMap)
	}
	minFile, err := m.MapFile(o.prm.MinMap)
	if err != nil {
		return status.Err(status.MutationError, "parameter %q: %v", o.prm.PrmName, err)
	}
	maxFile, err := m.MapFile(o.prm.MaxMap)
	if err != nil {
		return status.Err(status.MutationError, "parameter %q: %v", o.prm.PrmName, err)
	}
	lo, err := o.prm.store.ReadMap(m.Dir(), minFile)
	if err != nil {
		return status.Err(status.MutationError, "parameter %q: %v", o.prm.PrmName, err)
	}
	hi, err := o.prm.store.ReadMap(m.Dir(), maxFile)
	if err != nil {
		return status.Err(status.MutationError, "parameter %q: %v", o.prm.PrmName, err)
	}
	alpha := (o.V + 1.0) / 2.0
	blended, err := project.Blend(lo, hi, alpha)
	if err != nil {
		return status.Err(status.MutationError, "parameter %q: %v", o.prm.PrmName, err)
	}
	name := o.prm.blendedName(caseID)
	file := name + ".gmap"
	if err = o.prm.store.WriteMap(m.Dir(), file, blended); err != nil {
		return status.Err(status.MutationError, "parameter %q: %v", o.prm.PrmName, err)
	}
	return m.SetMapRef(o.prm.Table, row, o.prm.Col, name, file)
}

// Validate checks that the deck references the expected map
func (o *MapVal) Validate(m *project.Model) error {
	row, err := o.prm.row(m, false)
	if err != nil {
		return err
	}
	ref, err := m.GetString(o.prm.Table, row, o.prm.Col)
	if err != nil {
		return status.Err(status.ValidationError, "parameter %q: %v", o.prm.PrmName, err)
	}
	if o.V == 0 {
		if ref != o.prm.BaseMap {
			return status.Err(status.ValidationError, "parameter %q: deck references map %q instead of base map %q", o.prm.PrmName, ref, o.prm.BaseMap)
		}
		return nil
	}
	if math.IsNaN(o.V) {
		return status.Err(status.ValidationError, "parameter %q: undefined interpolation value", o.prm.PrmName)
	}
	if ref == o.prm.BaseMap {
		return status.Err(status.ValidationError, "parameter %q: deck still references base map %q", o.prm.PrmName, ref)
	}
	if _, err = m.MapFile(ref); err != nil {
		return status.Err(status.ValidationError, "parameter %q: %v", o.prm.PrmName, err)
	}
	return nil
}
