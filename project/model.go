// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package project implements the abstract handle on a basin-simulation
// project deck. A deck is a set of named tables with typed columns, plus a
// registry of grid-map references. The mutation engine touches only
// explicitly identified tables and map references; unknown fields pass
// through untouched.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cpmech/gosl/chk"
)

// UndefinedDouble marks a value the simulator could not compute
const UndefinedDouble = 99999.0

// DataMiningTable is the table enumerating per-observable data requests.
// The simulator fills the "Value" column on completion
const DataMiningTable = "DataMiningIoTbl"

// Record is one row of a deck table. Values are float64 or string
type Record map[string]interface{}

// Table holds the rows of one named deck table
type Table struct {
	Rows []Record `json:"rows"`
}

// Model is an in-memory project deck
type Model struct {
	Desc   string            `json:"desc"`   // free description of the project
	Tables map[string]*Table `json:"tables"` // all deck tables by name
	Maps   map[string]string `json:"maps"`   // grid-map name => file name relative to the deck

	path string // deck location on disk; empty for in-memory decks
}

// New creates an empty in-memory deck
func New(desc string) *Model {
	return &Model{Desc: desc, Tables: make(map[string]*Table), Maps: make(map[string]string)}
}

// Load reads a project deck from a JSON file
func Load(path string) (o *Model, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, chk.Err("cannot read project deck %q: %v", path, err)
	}
	o = new(Model)
	if err = json.Unmarshal(b, o); err != nil {
		return nil, chk.Err("cannot decode project deck %q: %v", path, err)
	}
	if o.Tables == nil {
		o.Tables = make(map[string]*Table)
	}
	if o.Maps == nil {
		o.Maps = make(map[string]string)
	}
	o.path = path
	return o, nil
}

// SaveAs writes the deck to path, creating parent directories, and records
// path as the deck's new location
func (o *Model) SaveAs(path string) (err error) {
	b, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return chk.Err("cannot encode project deck: %v", err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return chk.Err("cannot create directory for %q: %v", path, err)
	}
	if err = os.WriteFile(path, b, 0666); err != nil {
		return chk.Err("cannot write project deck %q: %v", path, err)
	}
	o.path = path
	return nil
}

// Path returns the deck location on disk; empty for in-memory decks
func (o *Model) Path() string { return o.path }

// SetPath records the deck's target location without writing it. Used by
// the mutation engine so that per-case artefacts land next to the deck
// before the deck itself is written
func (o *Model) SetPath(path string) { o.path = path }

// Dir returns the directory holding the deck
func (o *Model) Dir() string { return filepath.Dir(o.path) }

// DeepCopy clones the whole deck. The clone has no disk location
func (o *Model) DeepCopy() (clone *Model, err error) {
	b, err := json.Marshal(o)
	if err != nil {
		return nil, chk.Err("cannot encode project deck for copying: %v", err)
	}
	clone = new(Model)
	if err = json.Unmarshal(b, clone); err != nil {
		return nil, chk.Err("cannot decode project deck copy: %v", err)
	}
	if clone.Tables == nil {
		clone.Tables = make(map[string]*Table)
	}
	if clone.Maps == nil {
		clone.Maps = make(map[string]string)
	}
	return clone, nil
}

// table returns the named table, creating it if create is true
func (o *Model) table(name string, create bool) *Table {
	if t, ok := o.Tables[name]; ok {
		return t
	}
	if !create {
		return nil
	}
	t := new(Table)
	o.Tables[name] = t
	return t
}

// NumRows returns the number of rows of a table; 0 if the table is absent
func (o *Model) NumRows(table string) int {
	if t := o.table(table, false); t != nil {
		return len(t.Rows)
	}
	return 0
}

// AddRow appends a row to a table, creating the table on demand, and
// returns the new row index
func (o *Model) AddRow(table string, rec Record) int {
	t := o.table(table, true)
	t.Rows = append(t.Rows, rec)
	return len(t.Rows) - 1
}

// ClearTable removes all rows of a table
func (o *Model) ClearTable(table string) {
	if t := o.table(table, false); t != nil {
		t.Rows = nil
	}
}

func (o *Model) cell(table string, row int, col string) (interface{}, error) {
	t := o.table(table, false)
	if t == nil {
		return nil, chk.Err("table %q does not exist in deck", table)
	}
	if row < 0 || row >= len(t.Rows) {
		return nil, chk.Err("row %d out of range in table %q (nrows=%d)", row, table, len(t.Rows))
	}
	v, ok := t.Rows[row][col]
	if !ok {
		return nil, chk.Err("column %q does not exist in table %q row %d", col, table, row)
	}
	return v, nil
}

// GetFloat reads a numeric cell
func (o *Model) GetFloat(table string, row int, col string) (float64, error) {
	v, err := o.cell(table, row, col)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, chk.Err("cell %s[%d]%q is not numeric", table, row, col)
	}
	return f, nil
}

// SetFloat writes a numeric cell, creating table and row on demand
func (o *Model) SetFloat(table string, row int, col string, v float64) error {
	t := o.table(table, true)
	for len(t.Rows) <= row {
		t.Rows = append(t.Rows, Record{})
	}
	t.Rows[row][col] = v
	return nil
}

// GetString reads a string cell
func (o *Model) GetString(table string, row int, col string) (string, error) {
	v, err := o.cell(table, row, col)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", chk.Err("cell %s[%d]%q is not a string", table, row, col)
	}
	return s, nil
}

// SetString writes a string cell, creating table and row on demand
func (o *Model) SetString(table string, row int, col string, v string) error {
	t := o.table(table, true)
	for len(t.Rows) <= row {
		t.Rows = append(t.Rows, Record{})
	}
	t.Rows[row][col] = v
	return nil
}

// FindRow returns the index of the first row whose col equals val; -1 if absent
func (o *Model) FindRow(table, col, val string) int {
	t := o.table(table, false)
	if t == nil {
		return -1
	}
	for i, r := range t.Rows {
		if s, ok := r[col].(string); ok && s == val {
			return i
		}
	}
	return -1
}

// SetMapRef registers map name => file name and writes the reference into a
// table cell. Later stages treat the referenced file as read only
func (o *Model) SetMapRef(table string, row int, col, mapName, fileName string) error {
	o.Maps[mapName] = fileName
	return o.SetString(table, row, col, mapName)
}

// MapFile returns the file name registered for a map reference
func (o *Model) MapFile(mapName string) (string, error) {
	f, ok := o.Maps[mapName]
	if !ok {
		return "", chk.Err("map %q is not registered in deck", mapName)
	}
	return f, nil
}

// MiningRequest is one (time, location, property) triple of the data-mining
// request table
type MiningRequest struct {
	Time  float64 // simulation time
	ByXYZ bool    // XYZ locator instead of layer IJK
	X     float64 // x coordinate
	Y     float64 // y coordinate
	Z     float64 // depth
	Layer string  // layer name for IJK locator
	I     int     // lattice I
	J     int     // lattice J
	K     int     // lattice K in layer
	Prop  string  // property name
}

// AddMiningRequest appends a request row with an undefined value and returns
// the row index. The simulator overwrites "Value" on completion
func (o *Model) AddMiningRequest(req MiningRequest) int {
	rec := Record{
		"Time":         req.Time,
		"PropertyName": req.Prop,
		"Value":        UndefinedDouble,
	}
	if req.ByXYZ {
		rec["XCoord"] = req.X
		rec["YCoord"] = req.Y
		rec["ZCoord"] = req.Z
	} else {
		rec["LayerName"] = req.Layer
		rec["ICoord"] = float64(req.I)
		rec["JCoord"] = float64(req.J)
		rec["KCoord"] = float64(req.K)
	}
	return o.AddRow(DataMiningTable, rec)
}

// MiningResult reads the simulator answer of request row. ok is false when
// the simulator could not compute the value
func (o *Model) MiningResult(row int) (val float64, ok bool, err error) {
	val, err = o.GetFloat(DataMiningTable, row, "Value")
	if err != nil {
		return 0, false, err
	}
	if val == UndefinedDouble {
		return 0, false, nil
	}
	return val, true, nil
}
