// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package obs

import (
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/casa/project"
	"github.com/cpmech/casa/ser"
	"github.com/cpmech/casa/status"
)

const (
	xyzTypeName  = "ObsPropertyXYZ"
	ijkTypeName  = "ObsPropertyIJK"
	wellTypeName = "ObsPropertyWell"

	locatorVersion = 1
)

// PropertyXYZ extracts one property value at an X/Y/depth point
type PropertyXYZ struct {
	obsBase
	X, Y, Z float64 // point coordinates; Z is depth
}

// NewPropertyXYZ creates an XYZ point observable
func NewPropertyXYZ(name, propName string, x, y, z, simTime float64) *PropertyXYZ {
	return &PropertyXYZ{obsBase: obsBase{ObsName: name, Prop: propName, Time: simTime, SaW: 1, UaW: 1}, X: x, Y: y, Z: z}
}

// Dimension returns 1
func (o *PropertyXYZ) Dimension() int { return 1 }

// MiningRequests returns the single request triple
func (o *PropertyXYZ) MiningRequests() []project.MiningRequest {
	return []project.MiningRequest{{Time: o.Time, ByXYZ: true, X: o.X, Y: o.Y, Z: o.Z, Prop: o.Prop}}
}

// SetRefValue attaches a reference measurement with deviations
func (o *PropertyXYZ) SetRefValue(ref, std []float64) error { return o.setRef(1, ref, std) }

// TypeName returns the registry key
func (o *PropertyXYZ) TypeName() string { return xyzTypeName }

// Save writes the definition
func (o *PropertyXYZ) Save(w *ser.Writer) (err error) {
	if err = w.Obj(xyzTypeName, o.ObsName, locatorVersion); err != nil {
		return err
	}
	if err = w.Floats("Coords", []float64{o.X, o.Y, o.Z}); err != nil {
		return err
	}
	return o.saveCommon(w)
}

func loadPropertyXYZ(r *ser.Reader, objName string, ver int) (Observable, error) {
	if ver > locatorVersion {
		return nil, status.Err(status.DeserializationError, "stored %s version %d is newer than known version %d", xyzTypeName, ver, locatorVersion)
	}
	o := &PropertyXYZ{obsBase: obsBase{ObsName: objName}}
	c, err := r.Floats("Coords")
	if err != nil {
		return nil, err
	}
	if len(c) != 3 {
		return nil, status.Err(status.DeserializationError, "stored %s coordinates must have 3 values", xyzTypeName)
	}
	o.X, o.Y, o.Z = c[0], c[1], c[2]
	if err = o.loadCommon(r); err != nil {
		return nil, err
	}
	return o, nil
}

// PropertyIJK extracts one property value at an IJK lattice point of a layer
type PropertyIJK struct {
	obsBase
	Layer   string // layer name
	I, J, K int    // lattice coordinates; K within the layer
}

// NewPropertyIJK creates an IJK lattice observable
func NewPropertyIJK(name, propName, layer string, i, j, k int, simTime float64) *PropertyIJK {
	return &PropertyIJK{obsBase: obsBase{ObsName: name, Prop: propName, Time: simTime, SaW: 1, UaW: 1}, Layer: layer, I: i, J: j, K: k}
}

// Dimension returns 1
func (o *PropertyIJK) Dimension() int { return 1 }

// MiningRequests returns the single request triple
func (o *PropertyIJK) MiningRequests() []project.MiningRequest {
	return []project.MiningRequest{{Time: o.Time, Layer: o.Layer, I: o.I, J: o.J, K: o.K, Prop: o.Prop}}
}

// SetRefValue attaches a reference measurement with deviations
func (o *PropertyIJK) SetRefValue(ref, std []float64) error { return o.setRef(1, ref, std) }

// TypeName returns the registry key
func (o *PropertyIJK) TypeName() string { return ijkTypeName }

// Save writes the definition
func (o *PropertyIJK) Save(w *ser.Writer) (err error) {
	if err = w.Obj(ijkTypeName, o.ObsName, locatorVersion); err != nil {
		return err
	}
	if err = w.String("Layer", o.Layer); err != nil {
		return err
	}
	if err = w.Ints("IJK", []int{o.I, o.J, o.K}); err != nil {
		return err
	}
	return o.saveCommon(w)
}

func loadPropertyIJK(r *ser.Reader, objName string, ver int) (Observable, error) {
	if ver > locatorVersion {
		return nil, status.Err(status.DeserializationError, "stored %s version %d is newer than known version %d", ijkTypeName, ver, locatorVersion)
	}
	o := &PropertyIJK{obsBase: obsBase{ObsName: objName}}
	var err error
	if o.Layer, err = r.String("Layer"); err != nil {
		return nil, err
	}
	ijk, err := r.Ints("IJK")
	if err != nil {
		return nil, err
	}
	if len(ijk) != 3 {
		return nil, status.Err(status.DeserializationError, "stored %s lattice point must have 3 values", ijkTypeName)
	}
	o.I, o.J, o.K = ijk[0], ijk[1], ijk[2]
	if err = o.loadCommon(r); err != nil {
		return nil, err
	}
	return o, nil
}

// PropertyWell samples one property along a well trajectory: a vector
// observable with one component per sampling point
type PropertyWell struct {
	obsBase
	Well       string    // well name
	Xs, Ys, Zs []float64 // sampling points along the trajectory
}

// NewPropertyWell creates a well-profile observable
func NewPropertyWell(name, propName, well string, xs, ys, zs []float64, simTime float64) (*PropertyWell, error) {
	if len(xs) == 0 || len(ys) != len(xs) || len(zs) != len(xs) {
		return nil, status.Err(status.OutOfRangeValue, "observable %q: sampling points must have equal nonzero lengths", name)
	}
	return &PropertyWell{obsBase: obsBase{ObsName: name, Prop: propName, Time: simTime, SaW: 1, UaW: 1},
		Well: well, Xs: xs, Ys: ys, Zs: zs}, nil
}

// Dimension returns the number of sampling points
func (o *PropertyWell) Dimension() int { return len(o.Xs) }

// MiningRequests returns one request triple per sampling point
func (o *PropertyWell) MiningRequests() (reqs []project.MiningRequest) {
	reqs = make([]project.MiningRequest, len(o.Xs))
	for i := range o.Xs {
		reqs[i] = project.MiningRequest{Time: o.Time, ByXYZ: true, X: o.Xs[i], Y: o.Ys[i], Z: o.Zs[i], Prop: o.Prop}
	}
	return
}

// SetRefValue attaches a reference measurement with deviations
func (o *PropertyWell) SetRefValue(ref, std []float64) error { return o.setRef(len(o.Xs), ref, std) }

// TypeName returns the registry key
func (o *PropertyWell) TypeName() string { return wellTypeName }

// Save writes the definition
func (o *PropertyWell) Save(w *ser.Writer) (err error) {
	if err = w.Obj(wellTypeName, o.ObsName, locatorVersion); err != nil {
		return err
	}
	if err = w.String("Well", o.Well); err != nil {
		return err
	}
	if err = w.Floats("Xs", o.Xs); err != nil {
		return err
	}
	if err = w.Floats("Ys", o.Ys); err != nil {
		return err
	}
	if err = w.Floats("Zs", o.Zs); err != nil {
		return err
	}
	return o.saveCommon(w)
}

func loadPropertyWell(r *ser.Reader, objName string, ver int) (Observable, error) {
	if ver > locatorVersion {
		return nil, status.Err(status.DeserializationError, "stored %s version %d is newer than known version %d", wellTypeName, ver, locatorVersion)
	}
	o := &PropertyWell{obsBase: obsBase{ObsName: objName}}
	var err error
	if o.Well, err = r.String("Well"); err != nil {
		return nil, err
	}
	if o.Xs, err = r.Floats("Xs"); err != nil {
		return nil, err
	}
	if o.Ys, err = r.Floats("Ys"); err != nil {
		return nil, err
	}
	if o.Zs, err = r.Floats("Zs"); err != nil {
		return nil, err
	}
	if len(o.Ys) != len(o.Xs) || len(o.Zs) != len(o.Xs) {
		return nil, status.Err(status.DeserializationError, "stored %s sampling points are inconsistent", wellTypeName)
	}
	if err = o.loadCommon(r); err != nil {
		return nil, err
	}
	return o, nil
}

// String returns a short description for diagnostics
func (o *PropertyWell) String() string {
	return io.Sf("%s(%s@%s,n=%d)", o.ObsName, o.Prop, o.Well, len(o.Xs))
}
