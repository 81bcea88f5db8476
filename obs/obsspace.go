// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package obs

import (
	"github.com/cpmech/casa/ser"
	"github.com/cpmech/casa/status"
)

const (
	obsSpaceTypeName = "ObsSpace"
	obsSpaceVersion  = 1
)

// ObsSpace is the ordered, append-only collection of observable
// definitions. Identity and order of members are stable for the lifetime of
// a scenario
type ObsSpace struct {
	obs   []Observable
	names map[string]int
}

// NewObsSpace creates an empty observable space
func NewObsSpace() *ObsSpace {
	return &ObsSpace{names: make(map[string]int)}
}

// AddObservable appends a definition. Duplicate names are rejected
func (o *ObsSpace) AddObservable(ob Observable) error {
	if ob == nil {
		return status.Err(status.UndefinedValue, "cannot add nil observable to observable space")
	}
	if _, ok := o.names[ob.Name()]; ok {
		return status.Err(status.AlreadyDefined, "observable %q is already defined in observable space", ob.Name())
	}
	o.names[ob.Name()] = len(o.obs)
	o.obs = append(o.obs, ob)
	return nil
}

// Size returns the number of definitions
func (o *ObsSpace) Size() int { return len(o.obs) }

// Observable returns the i-th definition; nil if out of range
func (o *ObsSpace) Observable(i int) Observable {
	if i < 0 || i >= len(o.obs) {
		return nil
	}
	return o.obs[i]
}

// ByName returns the definition with the given name; nil if absent
func (o *ObsSpace) ByName(name string) Observable {
	if i, ok := o.names[name]; ok {
		return o.obs[i]
	}
	return nil
}

// All returns all definitions in declaration order
func (o *ObsSpace) All() []Observable { return o.obs }

// Dimension returns the total number of components across all definitions
func (o *ObsSpace) Dimension() (n int) {
	for _, ob := range o.obs {
		n += ob.Dimension()
	}
	return
}

// NumWithRef returns how many definitions carry a reference measurement
func (o *ObsSpace) NumWithRef() (n int) {
	for _, ob := range o.obs {
		if ob.HasRefValue() {
			n++
		}
	}
	return
}

// Save writes the whole observable space
func (o *ObsSpace) Save(w *ser.Writer) (err error) {
	if err = w.Obj(obsSpaceTypeName, "obsSpace", obsSpaceVersion); err != nil {
		return err
	}
	if err = w.Int("NumObs", len(o.obs)); err != nil {
		return err
	}
	for _, ob := range o.obs {
		if err = ob.Save(w); err != nil {
			return err
		}
	}
	return nil
}

// LoadObsSpace reads an observable space using an explicit factory table
func LoadObsSpace(r *ser.Reader, f Factory) (*ObsSpace, error) {
	_, _, err := r.Obj(obsSpaceTypeName, obsSpaceVersion)
	if err != nil {
		return nil, err
	}
	n, err := r.Int("NumObs")
	if err != nil {
		return nil, err
	}
	o := NewObsSpace()
	for i := 0; i < n; i++ {
		ob, err := LoadObservable(r, f)
		if err != nil {
			return nil, err
		}
		if err = o.AddObservable(ob); err != nil {
			return nil, err
		}
	}
	return o, nil
}
