// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package casa implements computer-aided scenario analysis: given a
// baseline basin-simulation project it explores a multi-dimensional
// parameter space, drives a batch of full-physics simulations, builds a
// polynomial+kriging surrogate of the simulator's observables and samples
// the surrogate to obtain posterior statistics, calibration and sensitivity
// results
package casa

import (
	"github.com/cpmech/casa/digger"
	"github.com/cpmech/casa/doe"
	"github.com/cpmech/casa/mcsolver"
	"github.com/cpmech/casa/mutate"
	"github.com/cpmech/casa/obs"
	"github.com/cpmech/casa/prm"
	"github.com/cpmech/casa/project"
	"github.com/cpmech/casa/rcs"
	"github.com/cpmech/casa/rsproxy"
	"github.com/cpmech/casa/runmgr"
	"github.com/cpmech/casa/sens"
	"github.com/cpmech/casa/status"
)

// Scenario is the top-level owner of one analysis: the base-case project
// handle, the parameter and observable spaces, the generated run cases, the
// DoE generator, run manager, data digger, proxies and the sampler. The
// scenario directory on disk is owned exclusively by one Scenario instance
type Scenario struct {
	status.Status

	Name string // scenario name; used in the persistence header
	Root string // scenario root directory

	BaseCase *project.Model // immutable after DefineBaseCase
	VarSpace *prm.VarSpace
	ObsSpace *obs.ObsSpace
	DoECases *rcs.RunCaseSet // cases generated by DoE
	MCCases  *rcs.RunCaseSet // cases generated by MC/MCMC

	doeGen  *doe.Generator
	mutator *mutate.Engine
	mgr     *runmgr.RunManager
	dig     *digger.DataDigger
	solver  *mcsolver.Solver

	proxies    map[string]*rsproxy.Proxy
	proxyOrder []string
}

// NewScenario creates an empty scenario rooted at dir
func NewScenario(name, root string) *Scenario {
	return &Scenario{
		Name:     name,
		Root:     root,
		VarSpace: prm.NewVarSpace(),
		ObsSpace: obs.NewObsSpace(),
		DoECases: rcs.NewRunCaseSet(),
		MCCases:  rcs.NewRunCaseSet(),
		mutator:  mutate.NewEngine(root),
		dig:      digger.New(),
		proxies:  make(map[string]*rsproxy.Proxy),
	}
}

// DefineBaseCase loads the base-case project deck from disk. The in-memory
// model is treated as immutable afterwards; the mutation engine works on a
// deep copy per case
func (o *Scenario) DefineBaseCase(projectPath string) error {
	m, err := project.Load(projectPath)
	if err != nil {
		return o.ReportError(status.IoError, "cannot define base case: %v", err)
	}
	o.BaseCase = m
	o.ClearError()
	return nil
}

// DefineBaseCaseModel adopts an in-memory model as the base case
func (o *Scenario) DefineBaseCaseModel(m *project.Model) error {
	if m == nil {
		return o.ReportError(status.UndefinedValue, "base case model is nil")
	}
	o.BaseCase = m
	o.ClearError()
	return nil
}

// SetDoEAlgorithm selects the design scheme. Without a call, the Tornado
// scheme is used
func (o *Scenario) SetDoEAlgorithm(algo doe.Algorithm, seed int) error {
	g, err := doe.NewGenerator(algo, seed)
	if err != nil {
		return o.ReportErr(err)
	}
	o.doeGen = g
	o.ClearError()
	return nil
}

// DoeGenerator returns the generator, defaulting to Tornado
func (o *Scenario) DoeGenerator() *doe.Generator {
	if o.doeGen == nil {
		o.doeGen, _ = doe.NewGenerator(doe.Tornado, 0)
	}
	return o.doeGen
}

// GenerateDoE produces the design cases under the experiment tag (the
// algorithm name when empty)
func (o *Scenario) GenerateDoE(runsHint int, expLabel string) error {
	return o.ReportErr(o.DoeGenerator().Generate(o.VarSpace, o.DoECases, runsHint, expLabel))
}

// Mutator returns the mutation engine
func (o *Scenario) Mutator() *mutate.Engine { return o.mutator }

// ApplyMutations writes the project decks of every NotSubmitted case of the
// experiment. Per-case failures are recorded on the cases; the number of
// failed cases is returned
func (o *Scenario) ApplyMutations(expLabel string) (nFailed int, err error) {
	if o.BaseCase == nil {
		return 0, o.ReportError(status.UndefinedValue, "base case is not defined")
	}
	nFailed = o.mutator.MutateAll(o.DoECases.Filtered(expLabel), o.BaseCase)
	o.ClearError()
	return nFailed, nil
}

// ValidateCase re-validates a mutated case against its generated deck
func (o *Scenario) ValidateCase(c *rcs.RunCase) error {
	if c.ProjectPath == "" {
		return o.ReportError(status.WrongPath, "case %d has no generated project deck", c.ID)
	}
	m, err := project.Load(c.ProjectPath)
	if err != nil {
		return o.ReportError(status.IoError, "case %d: %v", c.ID, err)
	}
	for _, p := range c.Prms {
		if err = p.Validate(m); err != nil {
			return o.ReportErr(err)
		}
	}
	o.ClearError()
	return nil
}

// RunManager returns the run manager, created lazily over the local cluster
func (o *Scenario) RunManager() *runmgr.RunManager {
	if o.mgr == nil {
		o.mgr = runmgr.New(runmgr.NewLocalCluster())
	}
	return o.mgr
}

// SetCluster replaces the cluster back-end of a fresh run manager
func (o *Scenario) SetCluster(c runmgr.Cluster) {
	o.mgr = runmgr.New(c)
}

// DataDigger returns the data digger
func (o *Scenario) DataDigger() *digger.DataDigger { return o.dig }

// SetRSAlgorithm (re)creates the named response surface proxy
func (o *Scenario) SetRSAlgorithm(name string, cfg rsproxy.Config) error {
	p, err := rsproxy.NewProxy(cfg, o.VarSpace, o.ObsSpace)
	if err != nil {
		return o.ReportErr(err)
	}
	if _, ok := o.proxies[name]; !ok {
		o.proxyOrder = append(o.proxyOrder, name)
	}
	o.proxies[name] = p
	o.ClearError()
	return nil
}

// Proxy returns the named proxy; nil when absent
func (o *Scenario) Proxy(name string) *rsproxy.Proxy { return o.proxies[name] }

// ProxyNames returns the proxy names in creation order
func (o *Scenario) ProxyNames() []string { return append([]string{}, o.proxyOrder...) }

// CalculateProxy trains the named proxy over the completed cases of its
// DoE subset (all experiments when the subset is empty). Proxies are
// rebuilt, not mutated, when the completed-run set changes
func (o *Scenario) CalculateProxy(name string) error {
	p, ok := o.proxies[name]
	if !ok {
		return o.ReportError(status.NonexistingID, "proxy %q is not defined", name)
	}
	var cases []*rcs.RunCase
	if len(p.Cfg.DoESubset) == 0 {
		cases = o.DoECases.All()
	} else {
		for _, label := range p.Cfg.DoESubset {
			cases = append(cases, o.DoECases.Filtered(label)...)
		}
	}
	return o.ReportErr(p.CalculateRSProxy(cases))
}

// SetMCAlgorithm configures the sampler
func (o *Scenario) SetMCAlgorithm(cfg mcsolver.Config) error {
	s, err := mcsolver.NewSolver(cfg)
	if err != nil {
		return o.ReportErr(err)
	}
	o.solver = s
	o.ClearError()
	return nil
}

// MCSolver returns the sampler; nil before SetMCAlgorithm
func (o *Scenario) MCSolver() *mcsolver.Solver { return o.solver }

// CalcTornado computes the Tornado sensitivity diagrams from the completed
// cases of one experiment (typically the Tornado DoE)
func (o *Scenario) CalcTornado(expLabel string) ([]*sens.TornadoDiagram, error) {
	diagrams, err := sens.CalcTornado(o.VarSpace, o.ObsSpace, o.DoECases.Filtered(expLabel))
	if err != nil {
		return nil, o.ReportErr(err)
	}
	o.ClearError()
	return diagrams, nil
}

// CalcPareto folds Tornado diagrams into the cumulative parameter influence
func (o *Scenario) CalcPareto(diagrams []*sens.TornadoDiagram) []sens.ParetoEntry {
	return sens.CalcPareto(o.ObsSpace, diagrams)
}

// RunMC drives the sampler to completion over the named proxy and collects
// the results under the experiment tag
func (o *Scenario) RunMC(proxyName, expLabel string) (cdf *mcsolver.CDF, err error) {
	if o.solver == nil {
		return nil, o.ReportError(status.MonteCarloSolverError, "MC algorithm is not defined")
	}
	p, ok := o.proxies[proxyName]
	if !ok {
		return nil, o.ReportError(status.NonexistingID, "proxy %q is not defined", proxyName)
	}
	if err = o.solver.PrepareSimulation(p, o.VarSpace, o.ObsSpace); err != nil {
		return nil, o.ReportErr(err)
	}
	for {
		remaining, err := o.solver.IterateOnce()
		if err != nil {
			return nil, o.ReportErr(err)
		}
		if remaining == 0 {
			break
		}
	}
	cases, cdf, err := o.solver.CollectMCResults()
	if err != nil {
		return nil, o.ReportErr(err)
	}
	if err = o.MCCases.AddNewCases(cases, expLabel); err != nil {
		return nil, o.ReportErr(err)
	}
	o.ClearError()
	return cdf, nil
}
