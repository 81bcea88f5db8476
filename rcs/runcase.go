// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package rcs implements run cases: single points of the experiment pairing
// a parameter vector with a mutated project deck and, after completion, the
// realised observable values. Run cases are collected into experiment-tagged
// sets
package rcs

import (
	"math"

	"github.com/cpmech/gosl/io"

	"github.com/cpmech/casa/obs"
	"github.com/cpmech/casa/prm"
	"github.com/cpmech/casa/ser"
	"github.com/cpmech/casa/status"
)

// State is the lifecycle state of a run case
type State int

// run case states; transitions are monotonic except for an explicit retry reset
const (
	NotSubmitted State = iota
	Scheduled
	Running
	Completed
	Failed
)

var statenames = []string{"NotSubmitted", "Scheduled", "Running", "Completed", "Failed"}

// String returns the state name
func (o State) String() string {
	if o < NotSubmitted || o > Failed {
		return "Unknown"
	}
	return statenames[o]
}

const (
	runCaseTypeName = "RunCase"
	runCaseVersion  = 1
)

// RunCase is one point in the experiment
type RunCase struct {
	ID          int             // stable identifier within the scenario
	Prms        []prm.Parameter // bound values, in variable-space order
	ObsVals     []*obs.ObsValue // realised observables, in observable-space order; nil until completed
	ProjectPath string          // generated project deck location; empty until mutated
	Diag        string          // accumulated mutation/validation diagnostics

	state State
}

// NewRunCase creates an empty case in NotSubmitted state
func NewRunCase(id int) *RunCase {
	return &RunCase{ID: id}
}

// CaseID returns the deterministic identifier used to name per-case
// artefacts such as blended grid maps
func (o *RunCase) CaseID() string { return io.Sf("Case_%d", o.ID) }

// AddParameter appends a bound value in variable-space order
func (o *RunCase) AddParameter(p prm.Parameter) {
	o.Prms = append(o.Prms, p)
}

// Parameter returns the i-th bound value; nil if out of range
func (o *RunCase) Parameter(i int) prm.Parameter {
	if i < 0 || i >= len(o.Prms) {
		return nil
	}
	return o.Prms[i]
}

// State returns the lifecycle state
func (o *RunCase) State() State { return o.state }

// SetState applies a monotonic state transition. Forward transitions only;
// Failed may be entered from any live state
func (o *RunCase) SetState(s State) error {
	switch {
	case s == o.state:
		return nil
	case s == Failed:
	case s == Scheduled && o.state == NotSubmitted:
	case s == Running && o.state == Scheduled:
	case s == Completed && o.state == Running:
	default:
		return status.Err(status.RunManagerError, "case %d: invalid state transition %s -> %s", o.ID, o.state, s)
	}
	o.state = s
	return nil
}

// ResetForRetry is the only non-monotonic transition: it clears the run
// results and returns the case to NotSubmitted, keeping the parameters and
// the generated deck path
func (o *RunCase) ResetForRetry() {
	o.state = NotSubmitted
	o.ObsVals = nil
	o.Diag = ""
}

// SetObsValues records the realised observables. Legal exactly once: after
// completion for simulated cases, or on never-submitted cases whose
// observables come from a proxy evaluation
func (o *RunCase) SetObsValues(vals []*obs.ObsValue) error {
	if o.state != Completed && o.state != NotSubmitted {
		return status.Err(status.UndefinedValue, "case %d: observables can be set on completed or proxy-evaluated cases only (state is %s)", o.ID, o.state)
	}
	if o.ObsVals != nil {
		return status.Err(status.AlreadyDefined, "case %d: observables already populated", o.ID)
	}
	o.ObsVals = vals
	return nil
}

// FlattenPrms returns the concatenated canonical flattening of all bound values
func (o *RunCase) FlattenPrms() (v []float64) {
	for _, p := range o.Prms {
		v = append(v, p.AsArray()...)
	}
	return
}

// FlattenObs returns the concatenated observable components and their
// availability flags; nil before completion
func (o *RunCase) FlattenObs() (vals []float64, defined []bool) {
	for _, ov := range o.ObsVals {
		vals = append(vals, ov.Vals...)
		defined = append(defined, ov.Defined...)
	}
	return
}

// RMSE computes the root-mean-square error of the realised observables
// against their reference measurements, weighted by the inverse standard
// deviations. Undefined components and observables without references are
// excluded
func (o *RunCase) RMSE() float64 {
	sum, n := 0.0, 0
	for _, ov := range o.ObsVals {
		if ov == nil || !ov.Parent.HasRefValue() {
			continue
		}
		ref := ov.Parent.RefValue()
		std := ov.Parent.StdDev()
		for i, v := range ov.Vals {
			if !ov.Defined[i] {
				continue
			}
			d := v - ref[i]
			if std[i] > 0 {
				d /= std[i]
			}
			sum += d * d
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

// Save writes the case. Bound parameters persist as (definition name,
// canonical flattening) pairs and are reconstructed through the definition's
// round-trip law
func (o *RunCase) Save(w *ser.Writer) (err error) {
	if err = w.Obj(runCaseTypeName, o.CaseID(), runCaseVersion); err != nil {
		return err
	}
	if err = w.Int("ID", o.ID); err != nil {
		return err
	}
	if err = w.Int("State", int(o.state)); err != nil {
		return err
	}
	if err = w.String("ProjectPath", o.ProjectPath); err != nil {
		return err
	}
	if err = w.String("Diag", o.Diag); err != nil {
		return err
	}
	if err = w.Int("NumPrms", len(o.Prms)); err != nil {
		return err
	}
	for _, p := range o.Prms {
		if err = w.String("PrmName", p.Parent().Name()); err != nil {
			return err
		}
		if err = w.Floats("PrmVals", p.AsArray()); err != nil {
			return err
		}
	}
	if err = w.Int("NumObs", len(o.ObsVals)); err != nil {
		return err
	}
	for _, ov := range o.ObsVals {
		if err = w.String("ObsName", ov.Parent.Name()); err != nil {
			return err
		}
		if err = w.Floats("ObsVals", ov.Vals); err != nil {
			return err
		}
		def := make([]int, len(ov.Defined))
		for i, d := range ov.Defined {
			if d {
				def[i] = 1
			}
		}
		if err = w.Ints("ObsDef", def); err != nil {
			return err
		}
	}
	return nil
}

// LoadRunCase reads a case, resolving definitions through the spaces
func LoadRunCase(r *ser.Reader, vs *prm.VarSpace, os *obs.ObsSpace) (o *RunCase, err error) {
	if _, _, err = r.Obj(runCaseTypeName, runCaseVersion); err != nil {
		return nil, err
	}
	o = new(RunCase)
	if o.ID, err = r.Int("ID"); err != nil {
		return nil, err
	}
	st, err := r.Int("State")
	if err != nil {
		return nil, err
	}
	if st < int(NotSubmitted) || st > int(Failed) {
		return nil, status.Err(status.DeserializationError, "stored case %d has unknown state %d", o.ID, st)
	}
	o.state = State(st)
	if o.ProjectPath, err = r.String("ProjectPath"); err != nil {
		return nil, err
	}
	if o.Diag, err = r.String("Diag"); err != nil {
		return nil, err
	}
	nprms, err := r.Int("NumPrms")
	if err != nil {
		return nil, err
	}
	for i := 0; i < nprms; i++ {
		name, err := r.String("PrmName")
		if err != nil {
			return nil, err
		}
		vals, err := r.Floats("PrmVals")
		if err != nil {
			return nil, err
		}
		def := vs.ByName(name)
		if def == nil {
			return nil, status.Err(status.DeserializationError, "stored case %d references unknown parameter %q", o.ID, name)
		}
		p, err := def.NewFromArray(vals)
		if err != nil {
			return nil, status.Err(status.DeserializationError, "stored case %d parameter %q: %v", o.ID, name, err)
		}
		o.Prms = append(o.Prms, p)
	}
	nobs, err := r.Int("NumObs")
	if err != nil {
		return nil, err
	}
	for i := 0; i < nobs; i++ {
		name, err := r.String("ObsName")
		if err != nil {
			return nil, err
		}
		vals, err := r.Floats("ObsVals")
		if err != nil {
			return nil, err
		}
		def, err := r.Ints("ObsDef")
		if err != nil {
			return nil, err
		}
		parent := os.ByName(name)
		if parent == nil {
			return nil, status.Err(status.DeserializationError, "stored case %d references unknown observable %q", o.ID, name)
		}
		flags := make([]bool, len(def))
		for j, d := range def {
			flags[j] = d != 0
		}
		ov, err := obs.NewObsValue(parent, vals, flags)
		if err != nil {
			return nil, status.Err(status.DeserializationError, "stored case %d observable %q: %v", o.ID, name, err)
		}
		o.ObsVals = append(o.ObsVals, ov)
	}
	return o, nil
}
