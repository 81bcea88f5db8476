// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package digger implements the data digger. Before submission it injects a
// data-mining request table into each generated deck, enumerating every
// observable's (time, location, property) triple; the simulator writes the
// answers back into its output. After completion the digger reads the
// answers and populates the realised observable values
package digger

import (
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/casa/obs"
	"github.com/cpmech/casa/project"
	"github.com/cpmech/casa/rcs"
	"github.com/cpmech/casa/status"
)

// Verbose switches warning output on
var Verbose = false

// DataDigger populates observable values from simulation results
type DataDigger struct {
	status.Status
}

// New creates a data digger
func New() *DataDigger {
	return new(DataDigger)
}

// RequestObservables rewrites the data-mining request table of every
// scheduled case deck. Requests appear in observable-space order, so
// collection can rely on row positions
func (o *DataDigger) RequestObservables(cases []*rcs.RunCase, os *obs.ObsSpace) error {
	for _, c := range cases {
		if c.State() != rcs.Scheduled || c.ProjectPath == "" {
			continue
		}
		m, err := project.Load(c.ProjectPath)
		if err != nil {
			return o.ReportError(status.IoError, "case %d: %v", c.ID, err)
		}
		m.ClearTable(project.DataMiningTable)
		for _, ob := range os.All() {
			for _, req := range ob.MiningRequests() {
				m.AddMiningRequest(req)
			}
		}
		if err = m.SaveAs(c.ProjectPath); err != nil {
			return o.ReportError(status.IoError, "case %d: %v", c.ID, err)
		}
	}
	o.ClearError()
	return nil
}

// CollectRunResults reads the simulator answers of every completed case and
// constructs one observable value per definition. Values the simulator
// could not compute are marked undefined and reported as warnings; they are
// excluded from downstream RMSE computations
func (o *DataDigger) CollectRunResults(cases []*rcs.RunCase, os *obs.ObsSpace) (nWarnings int, err error) {
	for _, c := range cases {
		if c.State() != rcs.Completed || c.ObsVals != nil {
			continue
		}
		m, err := project.Load(c.ProjectPath)
		if err != nil {
			return nWarnings, o.ReportError(status.IoError, "case %d: %v", c.ID, err)
		}
		row := 0
		var vals []*obs.ObsValue
		for _, ob := range os.All() {
			dim := ob.Dimension()
			comps := make([]float64, dim)
			defined := make([]bool, dim)
			for k := 0; k < dim; k++ {
				v, ok, err := m.MiningResult(row)
				if err != nil {
					return nWarnings, o.ReportError(status.UndefinedValue, "case %d observable %q: %v", c.ID, ob.Name(), err)
				}
				if !ok {
					nWarnings++
					if Verbose {
						io.Pfyel("case %d: observable %q component %d is undefined\n", c.ID, ob.Name(), k)
					}
					v = project.UndefinedDouble
				}
				comps[k] = v
				defined[k] = ok
				row++
			}
			ov, err := obs.NewObsValue(ob, comps, defined)
			if err != nil {
				return nWarnings, o.ReportError(status.UndefinedValue, "case %d: %v", c.ID, err)
			}
			vals = append(vals, ov)
		}
		if err = c.SetObsValues(vals); err != nil {
			return nWarnings, o.ReportErr(err)
		}
	}
	o.ClearError()
	return nWarnings, nil
}
