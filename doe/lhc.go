// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package doe

import (
	"math"

	"github.com/cpmech/gosl/rnd"

	"github.com/cpmech/casa/prm"
	"github.com/cpmech/casa/rcs"
	"github.com/cpmech/casa/status"
)

// The randomised space-filling schemes sample all parameters, treating
// categorical dimensions as continuous and snapping to the nearest allowed
// value. No replication takes place.

// totalDims returns the flattened dimension over all parameters
func totalDims(vs *prm.VarSpace) (n int) {
	for _, p := range vs.All() {
		n += p.Dimension()
	}
	return
}

// buildCaseMixed binds a run case from one scaled row covering every
// parameter in declaration order
func buildCaseMixed(vs *prm.VarSpace, id int, row []float64) (*rcs.RunCase, error) {
	c := rcs.NewRunCase(id)
	ic := 0
	for _, p := range vs.All() {
		dim := p.Dimension()
		min, base, max := p.MinAsArray(), p.BaseAsArray(), p.MaxAsArray()
		vals := make([]float64, dim)
		for k := 0; k < dim; k++ {
			s := row[ic+k]
			if p.IsCategorical() {
				// linear map over the value range; NewFromArray snaps
				vals[k] = min[k] + (s+1.0)/2.0*(max[k]-min[k])
			} else {
				vals[k] = prm.MapScaled(s, min[k], base[k], max[k])
			}
		}
		ic += dim
		v, err := p.NewFromArray(vals)
		if err != nil {
			return nil, err
		}
		c.AddParameter(v)
	}
	return c, nil
}

// generateLatinHypercube builds an optimised latin hypercube sample of
// runsHint points
func (o *Generator) generateLatinHypercube(vs *prm.VarSpace, out *rcs.RunCaseSet, runsHint int, expLabel string) error {
	if runsHint < 2 {
		return status.Err(status.OutOfRangeValue, "LatinHypercube needs at least 2 runs, got %d", runsHint)
	}
	ndim := totalDims(vs)
	rnd.Init(o.Seed)
	grid := rnd.LatinIHS(ndim, runsHint, 5) // [ndim][runsHint] levels in 1..runsHint
	var cases []*rcs.RunCase
	id := out.Size()
	for k := 0; k < runsHint; k++ {
		row := make([]float64, ndim)
		for i := 0; i < ndim; i++ {
			row[i] = 2.0*(float64(grid[i][k])-0.5)/float64(runsHint) - 1.0
		}
		c, err := buildCaseMixed(vs, id, row)
		if err != nil {
			return err
		}
		cases = append(cases, c)
		id++
	}
	return out.AddNewCases(cases, expLabel)
}

// generateSpaceFilling draws runsHint new quasi-random points. When the
// experiment tag already holds cases, the new points are chosen maximally
// far from the existing ones in scaled parameter space (greedy maximin over
// a candidate pool)
func (o *Generator) generateSpaceFilling(vs *prm.VarSpace, out *rcs.RunCaseSet, runsHint int, expLabel string) error {
	if runsHint < 1 {
		return status.Err(status.OutOfRangeValue, "SpaceFilling needs at least 1 run, got %d", runsHint)
	}
	ndim := totalDims(vs)
	rnd.Init(o.Seed)

	// scaled coordinates of the existing points of this experiment
	var existing [][]float64
	for _, c := range out.Filtered(expLabel) {
		existing = append(existing, scaleCase(vs, c))
	}

	// candidate pool
	npool := 50 * runsHint
	if npool < 200 {
		npool = 200
	}
	pool := make([][]float64, npool)
	for k := 0; k < npool; k++ {
		row := make([]float64, ndim)
		for i := 0; i < ndim; i++ {
			row[i] = rnd.Float64(-1, 1)
		}
		pool[k] = row
	}

	// greedy maximin selection
	chosen := make([][]float64, 0, runsHint)
	used := make([]bool, npool)
	for len(chosen) < runsHint {
		best, bestDist := -1, -1.0
		for k, cand := range pool {
			if used[k] {
				continue
			}
			d := minDist(cand, existing, chosen)
			if d > bestDist {
				best, bestDist = k, d
			}
		}
		used[best] = true
		chosen = append(chosen, pool[best])
	}

	var cases []*rcs.RunCase
	id := out.Size()
	for _, row := range chosen {
		c, err := buildCaseMixed(vs, id, row)
		if err != nil {
			return err
		}
		cases = append(cases, c)
		id++
	}
	if len(existing) > 0 {
		out.AppendToExperiment(cases, expLabel)
		return nil
	}
	return out.AddNewCases(cases, expLabel)
}

// scaleCase maps a bound case back to scaled coordinates
func scaleCase(vs *prm.VarSpace, c *rcs.RunCase) []float64 {
	var row []float64
	for i, p := range vs.All() {
		vals := c.Parameter(i).AsArray()
		min, base, max := p.MinAsArray(), p.BaseAsArray(), p.MaxAsArray()
		for k, v := range vals {
			if p.IsCategorical() {
				if max[k] == min[k] {
					row = append(row, 0)
				} else {
					row = append(row, 2.0*(v-min[k])/(max[k]-min[k])-1.0)
				}
			} else {
				row = append(row, prm.InvScaled(v, min[k], base[k], max[k]))
			}
		}
	}
	return row
}

// minDist returns the distance from x to the nearest point of the two sets
func minDist(x []float64, a, b [][]float64) float64 {
	best := math.MaxFloat64
	for _, sets := range [][][]float64{a, b} {
		for _, p := range sets {
			d := 0.0
			for i := range x {
				dx := x[i] - p[i]
				d += dx * dx
			}
			if d < best {
				best = d
			}
		}
	}
	if best == math.MaxFloat64 {
		return math.MaxFloat64
	}
	return math.Sqrt(best)
}
