// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package sens implements the sensitivity calculator: Tornado diagrams per
// observable and Pareto diagrams of cumulative parameter influence. Both
// return plain data structures; plotting is out of scope
package sens

import (
	"math"
	"sort"

	"github.com/cpmech/casa/obs"
	"github.com/cpmech/casa/prm"
	"github.com/cpmech/casa/rcs"
	"github.com/cpmech/casa/rsproxy"
	"github.com/cpmech/casa/status"
)

// TornadoEntry is the influence of one parameter on one observable component
type TornadoEntry struct {
	PrmName string  // parameter name
	Low     float64 // response at the parameter minimum, others at base
	High    float64 // response at the parameter maximum, others at base
	Rel     float64 // share of the total absolute swing, in percent
}

// TornadoDiagram is the per-parameter min/max response of one observable
// component
type TornadoDiagram struct {
	ObsName string // observable name
	Comp    int    // component within the observable
	Base    float64 // response at the base case
	Entries []TornadoEntry
}

// ParetoEntry is the cumulative influence of one parameter across all
// observables
type ParetoEntry struct {
	PrmName string
	Weight  float64 // cumulative absolute sensitivity, SA-weighted
}

// CalcTornado builds the Tornado diagrams from the given training cases
// (typically the Tornado DoE) through a first-order global-kriging proxy
func CalcTornado(vs *prm.VarSpace, osp *obs.ObsSpace, cases []*rcs.RunCase) ([]*TornadoDiagram, error) {
	proxy, err := rsproxy.NewProxy(rsproxy.Config{Order: 1, Kriging: rsproxy.GlobalKriging}, vs, osp)
	if err != nil {
		return nil, err
	}
	if err = proxy.CalculateRSProxy(cases); err != nil {
		return nil, status.Err(status.RSProxyError, "cannot build sensitivity proxy: %v", err)
	}

	cont := vs.Continuous()
	ndim := 0
	for _, p := range cont {
		ndim += p.Dimension()
	}
	zero := make([]float64, ndim)
	yBase := proxy.EvalScaled(zero)

	var diagrams []*TornadoDiagram
	pos := 0
	for _, ob := range osp.All() {
		for comp := 0; comp < ob.Dimension(); comp++ {
			d := &TornadoDiagram{ObsName: ob.Name(), Comp: comp, Base: yBase[pos]}
			total := 0.0
			dim := 0
			for _, p := range cont {
				lo := make([]float64, ndim)
				hi := make([]float64, ndim)
				for k := 0; k < p.Dimension(); k++ {
					lo[dim+k] = -1
					hi[dim+k] = +1
				}
				dim += p.Dimension()
				yLo := proxy.EvalScaled(lo)[pos]
				yHi := proxy.EvalScaled(hi)[pos]
				d.Entries = append(d.Entries, TornadoEntry{PrmName: p.Name(), Low: yLo, High: yHi})
				total += math.Abs(yHi - yLo)
			}
			for i := range d.Entries {
				if total > 0 {
					d.Entries[i].Rel = 100 * math.Abs(d.Entries[i].High-d.Entries[i].Low) / total
				}
			}
			diagrams = append(diagrams, d)
			pos++
		}
	}
	return diagrams, nil
}

// CalcPareto folds the Tornado diagrams into the cumulative absolute
// sensitivity per parameter across all observables, sorted descending.
// Observable SA weights scale the contributions
func CalcPareto(osp *obs.ObsSpace, diagrams []*TornadoDiagram) []ParetoEntry {
	acc := make(map[string]float64)
	var order []string
	for _, d := range diagrams {
		w := 1.0
		if ob := osp.ByName(d.ObsName); ob != nil {
			w = ob.SAWeight()
		}
		for _, e := range d.Entries {
			if _, ok := acc[e.PrmName]; !ok {
				order = append(order, e.PrmName)
			}
			acc[e.PrmName] += w * math.Abs(e.High-e.Low)
		}
	}
	res := make([]ParetoEntry, 0, len(order))
	for _, name := range order {
		res = append(res, ParetoEntry{PrmName: name, Weight: acc[name]})
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Weight > res[j].Weight })
	return res
}
