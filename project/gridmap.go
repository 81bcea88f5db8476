// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package project

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/cpmech/gosl/chk"
)

// GridMap is a 2-D grid of values referenced by a deck. The native grid-map
// container (HDF5) is external; this structure is what the core exchanges
// with the map store
type GridMap struct {
	Nx, Ny int       // grid dimensions
	Data   []float64 // row-major values; len == Nx*Ny
}

// NewGridMap allocates a map filled with zeros
func NewGridMap(nx, ny int) *GridMap {
	return &GridMap{Nx: nx, Ny: ny, Data: make([]float64, nx*ny)}
}

// At returns the value at (i,j)
func (o *GridMap) At(i, j int) float64 { return o.Data[i*o.Ny+j] }

// Set writes the value at (i,j)
func (o *GridMap) Set(i, j int, v float64) { o.Data[i*o.Ny+j] = v }

// Blend computes the pointwise linear blend (1-α)·a + α·b
func Blend(a, b *GridMap, alpha float64) (*GridMap, error) {
	if a.Nx != b.Nx || a.Ny != b.Ny {
		return nil, chk.Err("cannot blend maps with different dimensions: %dx%d vs %dx%d", a.Nx, a.Ny, b.Nx, b.Ny)
	}
	c := NewGridMap(a.Nx, a.Ny)
	for i, v := range a.Data {
		c.Data[i] = (1.0-alpha)*v + alpha*b.Data[i]
	}
	return c, nil
}

// MapStore reads and writes grid-map files for a deck. The production
// backend wraps the native HDF5 container; the default store keeps gob files
type MapStore interface {
	ReadMap(dir, fileName string) (*GridMap, error)
	WriteMap(dir, fileName string, g *GridMap) error
}

// GobMapStore is the default file-backed map store
type GobMapStore struct{}

// ReadMap reads one grid-map file
func (o GobMapStore) ReadMap(dir, fileName string) (g *GridMap, err error) {
	f, err := os.Open(filepath.Join(dir, fileName))
	if err != nil {
		return nil, chk.Err("cannot open grid-map %q: %v", fileName, err)
	}
	defer f.Close()
	g = new(GridMap)
	if err = gob.NewDecoder(f).Decode(g); err != nil {
		return nil, chk.Err("cannot decode grid-map %q: %v", fileName, err)
	}
	return g, nil
}

// WriteMap writes one grid-map file, creating the directory on demand.
// Writing the same map twice is idempotent
func (o GobMapStore) WriteMap(dir, fileName string, g *GridMap) (err error) {
	if err = os.MkdirAll(dir, 0777); err != nil {
		return chk.Err("cannot create grid-map directory %q: %v", dir, err)
	}
	f, err := os.Create(filepath.Join(dir, fileName))
	if err != nil {
		return chk.Err("cannot create grid-map %q: %v", fileName, err)
	}
	defer f.Close()
	if err = gob.NewEncoder(f).Encode(g); err != nil {
		return chk.Err("cannot encode grid-map %q: %v", fileName, err)
	}
	return nil
}
