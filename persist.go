// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package casa

import (
	"encoding/json"

	"github.com/cpmech/casa/doe"
	"github.com/cpmech/casa/mcsolver"
	"github.com/cpmech/casa/obs"
	"github.com/cpmech/casa/prm"
	"github.com/cpmech/casa/project"
	"github.com/cpmech/casa/rcs"
	"github.com/cpmech/casa/rsproxy"
	"github.com/cpmech/casa/runmgr"
	"github.com/cpmech/casa/ser"
	"github.com/cpmech/casa/status"
)

const (
	scenarioTypeName = "Scenario"
	scenarioVersion  = 1
)

// SaveScenario writes the whole scenario graph to path. binary selects the
// gzip compressed format
func (o *Scenario) SaveScenario(path string, binary bool) error {
	w, err := ser.NewWriter(path, binary)
	if err != nil {
		return o.ReportErr(err)
	}
	if err = o.save(w); err != nil {
		w.Close()
		return o.ReportErr(err)
	}
	return o.ReportErr(w.Close())
}

func (o *Scenario) save(w *ser.Writer) (err error) {
	if err = w.Obj(scenarioTypeName, o.Name, scenarioVersion); err != nil {
		return err
	}
	if err = w.String("Root", o.Root); err != nil {
		return err
	}

	// base case deck as its own JSON encoding
	hasBase := o.BaseCase != nil
	if err = w.Bool("HasBase", hasBase); err != nil {
		return err
	}
	if hasBase {
		b, err := json.Marshal(o.BaseCase)
		if err != nil {
			return status.Err(status.SerializationError, "cannot encode base case: %v", err)
		}
		if err = w.String("BaseCase", string(b)); err != nil {
			return err
		}
		if err = w.String("BasePath", o.BaseCase.Path()); err != nil {
			return err
		}
	}

	if err = o.VarSpace.Save(w); err != nil {
		return err
	}
	if err = o.ObsSpace.Save(w); err != nil {
		return err
	}
	if err = o.DoECases.Save(w); err != nil {
		return err
	}
	if err = o.MCCases.Save(w); err != nil {
		return err
	}

	// generator and mutation engine settings
	g := o.DoeGenerator()
	if err = w.Int("DoEAlgo", int(g.Algo)); err != nil {
		return err
	}
	if err = w.Int("DoESeed", g.Seed); err != nil {
		return err
	}
	if err = w.Int("Iteration", o.mutator.Iteration); err != nil {
		return err
	}

	// run manager pipeline; job state is discarded by design
	apps := o.RunManager().Pipeline()
	if err = w.Int("NumApps", len(apps)); err != nil {
		return err
	}
	for _, a := range apps {
		if err = w.Int("AppType", int(a.Type)); err != nil {
			return err
		}
		if err = w.Int("AppCPUs", a.CPUs); err != nil {
			return err
		}
		if err = w.Strings("AppOptions", a.Options); err != nil {
			return err
		}
		if err = w.String("AppCmdLine", a.CmdLine); err != nil {
			return err
		}
	}

	// sampler configuration; chain state is rebuilt on demand
	hasMC := o.solver != nil
	if err = w.Bool("HasMC", hasMC); err != nil {
		return err
	}
	if hasMC {
		cfg := o.solver.Cfg
		if err = w.Ints("MCConfig", []int{int(cfg.Algo), int(cfg.Kriging), int(cfg.Prior), int(cfg.Meas),
			cfg.NumSamples, cfg.MaxSteps, cfg.Seed}); err != nil {
			return err
		}
		if err = w.Float("MCStdDevFactor", cfg.StdDevFactor); err != nil {
			return err
		}
	}

	// calculated proxies
	if err = w.Int("NumProxies", len(o.proxyOrder)); err != nil {
		return err
	}
	for _, name := range o.proxyOrder {
		if err = w.String("ProxyName", name); err != nil {
			return err
		}
		if err = o.proxies[name].Save(w); err != nil {
			return err
		}
	}
	return nil
}

// LoadScenario reconstructs a scenario from a stored file of either
// persistence format. Deserialization errors are unrecoverable: a partially
// loaded scenario is discarded
func LoadScenario(path string) (o *Scenario, err error) {
	r, err := ser.NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	name, _, err := r.Obj(scenarioTypeName, scenarioVersion)
	if err != nil {
		return nil, err
	}
	root, err := r.String("Root")
	if err != nil {
		return nil, err
	}
	o = NewScenario(name, root)

	hasBase, err := r.Bool("HasBase")
	if err != nil {
		return nil, err
	}
	if hasBase {
		enc, err := r.String("BaseCase")
		if err != nil {
			return nil, err
		}
		m := new(project.Model)
		if err = json.Unmarshal([]byte(enc), m); err != nil {
			return nil, status.Err(status.DeserializationError, "cannot decode base case: %v", err)
		}
		basePath, err := r.String("BasePath")
		if err != nil {
			return nil, err
		}
		m.SetPath(basePath)
		o.BaseCase = m
	}

	if o.VarSpace, err = prm.LoadVarSpace(r, prm.StdFactory()); err != nil {
		return nil, err
	}
	if o.ObsSpace, err = obs.LoadObsSpace(r, obs.StdFactory()); err != nil {
		return nil, err
	}
	if o.DoECases, err = rcs.LoadRunCaseSet(r, o.VarSpace, o.ObsSpace); err != nil {
		return nil, err
	}
	if o.MCCases, err = rcs.LoadRunCaseSet(r, o.VarSpace, o.ObsSpace); err != nil {
		return nil, err
	}

	algo, err := r.Int("DoEAlgo")
	if err != nil {
		return nil, err
	}
	seed, err := r.Int("DoESeed")
	if err != nil {
		return nil, err
	}
	if err = o.SetDoEAlgorithm(doe.Algorithm(algo), seed); err != nil {
		return nil, err
	}
	if o.mutator.Iteration, err = r.Int("Iteration"); err != nil {
		return nil, err
	}

	napps, err := r.Int("NumApps")
	if err != nil {
		return nil, err
	}
	for i := 0; i < napps; i++ {
		t, err := r.Int("AppType")
		if err != nil {
			return nil, err
		}
		cpus, err := r.Int("AppCPUs")
		if err != nil {
			return nil, err
		}
		opts, err := r.Strings("AppOptions")
		if err != nil {
			return nil, err
		}
		cmdLine, err := r.String("AppCmdLine")
		if err != nil {
			return nil, err
		}
		app := runmgr.CreateApp(runmgr.AppType(t), cpus, cmdLine)
		app.Options = opts
		if err = o.RunManager().AddApplication(app); err != nil {
			return nil, err
		}
	}

	hasMC, err := r.Bool("HasMC")
	if err != nil {
		return nil, err
	}
	if hasMC {
		ints, err := r.Ints("MCConfig")
		if err != nil {
			return nil, err
		}
		if len(ints) != 7 {
			return nil, status.Err(status.DeserializationError, "stored MC configuration must have 7 values, got %d", len(ints))
		}
		f, err := r.Float("MCStdDevFactor")
		if err != nil {
			return nil, err
		}
		cfg := mcsolver.Config{
			Algo: mcsolver.Algorithm(ints[0]), Kriging: mcsolver.KrigingUse(ints[1]),
			Prior: mcsolver.PriorDist(ints[2]), Meas: mcsolver.MeasDist(ints[3]),
			NumSamples: ints[4], MaxSteps: ints[5], Seed: ints[6], StdDevFactor: f,
		}
		if err = o.SetMCAlgorithm(cfg); err != nil {
			return nil, err
		}
	}

	nprox, err := r.Int("NumProxies")
	if err != nil {
		return nil, err
	}
	for i := 0; i < nprox; i++ {
		pname, err := r.String("ProxyName")
		if err != nil {
			return nil, err
		}
		p, err := rsproxy.LoadProxy(r, o.VarSpace, o.ObsSpace)
		if err != nil {
			return nil, err
		}
		o.proxies[pname] = p
		o.proxyOrder = append(o.proxyOrder, pname)
	}
	return o, nil
}
