// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package obs implements the observable model: definitions of simulator
// outputs to extract (with spatial locators, simulation times and optional
// reference measurements) and realised observable values per run
package obs

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/casa/project"
	"github.com/cpmech/casa/ser"
	"github.com/cpmech/casa/status"
)

// Observable is the definition of one simulator output to extract
type Observable interface {

	// Name returns the user-facing observable name
	Name() string

	// PropName returns the simulator property to extract
	PropName() string

	// SimTime returns the simulation time of extraction
	SimTime() float64

	// Dimension is the fixed number of components of the realised value
	Dimension() int

	// MiningRequests enumerates the (time, location, property) triples to
	// inject into the data-mining request table; one per component
	MiningRequests() []project.MiningRequest

	// HasRefValue reports whether a reference measurement is attached
	HasRefValue() bool

	// RefValue returns the reference measurement; nil without one
	RefValue() []float64

	// StdDev returns the per-component standard deviations of the
	// reference measurement
	StdDev() []float64

	// SAWeight returns the sensitivity-analysis weight
	SAWeight() float64

	// UAWeight returns the uncertainty-analysis weight
	UAWeight() float64

	// SetRefValue attaches a reference measurement with deviations
	SetRefValue(ref, std []float64) error

	// SetWeights sets the SA/UA weights
	SetWeights(sa, ua float64)

	// TypeName is the registry key used for deserialization dispatch
	TypeName() string

	// Save writes the definition
	Save(w *ser.Writer) error
}

// obsBase carries the fields shared by all observable kinds
type obsBase struct {
	ObsName string    // user-facing name
	Prop    string    // simulator property name
	Time    float64   // simulation time
	Ref     []float64 // reference measurement; nil without one
	Std     []float64 // per-component standard deviations
	SaW     float64   // sensitivity-analysis weight
	UaW     float64   // uncertainty-analysis weight
}

func (o *obsBase) Name() string      { return o.ObsName }
func (o *obsBase) PropName() string  { return o.Prop }
func (o *obsBase) SimTime() float64  { return o.Time }
func (o *obsBase) HasRefValue() bool { return o.Ref != nil }
func (o *obsBase) RefValue() []float64 {
	if o.Ref == nil {
		return nil
	}
	return append([]float64{}, o.Ref...)
}
func (o *obsBase) StdDev() []float64 { return append([]float64{}, o.Std...) }
func (o *obsBase) SAWeight() float64 { return o.SaW }
func (o *obsBase) UAWeight() float64 { return o.UaW }
func (o *obsBase) SetWeights(sa, ua float64) {
	o.SaW, o.UaW = sa, ua
}

func (o *obsBase) setRef(dim int, ref, std []float64) error {
	if len(ref) != dim {
		return status.Err(status.OutOfRangeValue, "observable %q: reference value must have %d components, got %d", o.ObsName, dim, len(ref))
	}
	if std != nil && len(std) != dim {
		return status.Err(status.OutOfRangeValue, "observable %q: standard deviations must have %d components, got %d", o.ObsName, dim, len(std))
	}
	o.Ref = append([]float64{}, ref...)
	if std == nil {
		std = make([]float64, dim)
	}
	o.Std = append([]float64{}, std...)
	return nil
}

// saveCommon writes the shared fields after the object header
func (o *obsBase) saveCommon(w *ser.Writer) (err error) {
	if err = w.String("Prop", o.Prop); err != nil {
		return err
	}
	if err = w.Float("Time", o.Time); err != nil {
		return err
	}
	if err = w.Bool("HasRef", o.Ref != nil); err != nil {
		return err
	}
	if o.Ref != nil {
		if err = w.Floats("Ref", o.Ref); err != nil {
			return err
		}
		if err = w.Floats("Std", o.Std); err != nil {
			return err
		}
	}
	if err = w.Float("SaW", o.SaW); err != nil {
		return err
	}
	return w.Float("UaW", o.UaW)
}

func (o *obsBase) loadCommon(r *ser.Reader) (err error) {
	if o.Prop, err = r.String("Prop"); err != nil {
		return err
	}
	if o.Time, err = r.Float("Time"); err != nil {
		return err
	}
	hasRef, err := r.Bool("HasRef")
	if err != nil {
		return err
	}
	if hasRef {
		if o.Ref, err = r.Floats("Ref"); err != nil {
			return err
		}
		if o.Std, err = r.Floats("Std"); err != nil {
			return err
		}
	}
	if o.SaW, err = r.Float("SaW"); err != nil {
		return err
	}
	o.UaW, err = r.Float("UaW")
	return err
}

// ObsValue is a realised observable for one run
type ObsValue struct {
	Parent  Observable // the definition this value realises
	Vals    []float64  // components; len == Parent.Dimension()
	Defined []bool     // per-component availability
}

// NewObsValue creates a realised value. undefined components must carry
// project.UndefinedDouble in vals
func NewObsValue(parent Observable, vals []float64, defined []bool) (*ObsValue, error) {
	if len(vals) != parent.Dimension() {
		return nil, chk.Err("observable %q: value must have %d components, got %d", parent.Name(), parent.Dimension(), len(vals))
	}
	if defined == nil {
		defined = make([]bool, len(vals))
		for i := range defined {
			defined[i] = true
		}
	}
	return &ObsValue{Parent: parent, Vals: append([]float64{}, vals...), Defined: append([]bool{}, defined...)}, nil
}

// IsDefined reports whether every component is available
func (o *ObsValue) IsDefined() bool {
	for _, d := range o.Defined {
		if !d {
			return false
		}
	}
	return true
}

// Factory maps observable type names to readers for deserialization dispatch
type Factory map[string]func(r *ser.Reader, objName string, ver int) (Observable, error)

// StdFactory returns the factory covering all built-in observable types
func StdFactory() Factory {
	return Factory{
		xyzTypeName:  loadPropertyXYZ,
		ijkTypeName:  loadPropertyIJK,
		wellTypeName: loadPropertyWell,
	}
}

// LoadObservable reads the next observable using an explicit factory
func LoadObservable(r *ser.Reader, f Factory) (Observable, error) {
	typeName, objName, ver, err := r.PeekObjType()
	if err != nil {
		return nil, err
	}
	alloc, ok := f[typeName]
	if !ok {
		return nil, chk.Err("unknown observable type %q in stored scenario", typeName)
	}
	return alloc(r, objName, ver)
}
