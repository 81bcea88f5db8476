// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/cpmech/gosl/chk"
	"gopkg.in/yaml.v3"

	"github.com/cpmech/casa"
	"github.com/cpmech/casa/doe"
	"github.com/cpmech/casa/mcsolver"
	"github.com/cpmech/casa/obs"
	"github.com/cpmech/casa/prm"
	"github.com/cpmech/casa/rsproxy"
	"github.com/cpmech/casa/runmgr"
)

// ScenarioFile is the YAML description of one scenario analysis
type ScenarioFile struct {
	Name     string `yaml:"name"`
	Root     string `yaml:"root"`
	BaseCase string `yaml:"basecase"`
	Cluster  string `yaml:"cluster"`

	Parameters []ParamSpec `yaml:"parameters"`
	Targets    []ObsSpec   `yaml:"observables"`

	DoE struct {
		Algorithm string `yaml:"algorithm"`
		Runs      int    `yaml:"runs"`
		Label     string `yaml:"label"`
		Seed      int    `yaml:"seed"`
	} `yaml:"doe"`

	Pipeline []AppSpec `yaml:"pipeline"`

	Proxy struct {
		Order    int     `yaml:"order"`
		Kriging  string  `yaml:"kriging"`
		TargetR2 float64 `yaml:"targetr2"`
	} `yaml:"proxy"`

	MC struct {
		Algorithm    string  `yaml:"algorithm"`
		Kriging      string  `yaml:"kriging"`
		Prior        string  `yaml:"prior"`
		Measurement  string  `yaml:"measurement"`
		Samples      int     `yaml:"samples"`
		Steps        int     `yaml:"steps"`
		StdDevFactor float64 `yaml:"stddevfactor"`
		Seed         int     `yaml:"seed"`
	} `yaml:"mc"`
}

// ParamSpec describes one variable parameter
type ParamSpec struct {
	Name    string    `yaml:"name"`
	Type    string    `yaml:"type"` // scalar, map, curve, categorical
	Table   string    `yaml:"table"`
	Col     string    `yaml:"col"`
	RowCol  string    `yaml:"rowcol"`
	RowVal  string    `yaml:"rowval"`
	Base    float64   `yaml:"base"`
	Min     float64   `yaml:"min"`
	Max     float64   `yaml:"max"`
	Pdf     string    `yaml:"pdf"`
	BaseMap string    `yaml:"basemap"`
	MinMap  string    `yaml:"minmap"`
	MaxMap  string    `yaml:"maxmap"`
	MinProf []float64 `yaml:"minprofile"`
	BasePrf []float64 `yaml:"baseprofile"`
	MaxProf []float64 `yaml:"maxprofile"`
	Values  []uint    `yaml:"values"`
	BaseIdx int       `yaml:"baseidx"`
}

// ObsSpec describes one observable target
type ObsSpec struct {
	Name  string    `yaml:"name"`
	Type  string    `yaml:"type"` // xyz, ijk, well
	Prop  string    `yaml:"prop"`
	Time  float64   `yaml:"time"`
	X     float64   `yaml:"x"`
	Y     float64   `yaml:"y"`
	Z     float64   `yaml:"z"`
	Layer string    `yaml:"layer"`
	I     int       `yaml:"i"`
	J     int       `yaml:"j"`
	K     int       `yaml:"k"`
	Well  string    `yaml:"well"`
	Xs    []float64 `yaml:"xs"`
	Ys    []float64 `yaml:"ys"`
	Zs    []float64 `yaml:"zs"`
	Ref   []float64 `yaml:"ref"`
	Std   []float64 `yaml:"std"`
	SaW   float64   `yaml:"saweight"`
	UaW   float64   `yaml:"uaweight"`
}

// AppSpec describes one pipeline stage
type AppSpec struct {
	App  string `yaml:"app"`
	CPUs int    `yaml:"cpus"`
	Cmd  string `yaml:"cmd"`
}

// ReadScenarioFile parses the YAML scenario description
func ReadScenarioFile(path string) (*ScenarioFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, chk.Err("cannot read scenario file %q: %v", path, err)
	}
	sf := new(ScenarioFile)
	if err = yaml.Unmarshal(b, sf); err != nil {
		return nil, chk.Err("cannot parse scenario file %q: %v", path, err)
	}
	return sf, nil
}

// BuildScenario assembles a Scenario from the parsed description
func BuildScenario(sf *ScenarioFile) (*casa.Scenario, error) {
	sc := casa.NewScenario(sf.Name, sf.Root)
	if sf.BaseCase != "" {
		if err := sc.DefineBaseCase(sf.BaseCase); err != nil {
			return nil, err
		}
	}
	for _, ps := range sf.Parameters {
		if err := addParameter(sc, ps); err != nil {
			return nil, err
		}
	}
	for _, osp := range sf.Targets {
		if err := addObservable(sc, osp); err != nil {
			return nil, err
		}
	}
	if sf.DoE.Algorithm != "" {
		algo, err := doe.AlgoFromString(sf.DoE.Algorithm)
		if err != nil {
			return nil, err
		}
		if err = sc.SetDoEAlgorithm(algo, sf.DoE.Seed); err != nil {
			return nil, err
		}
	}
	if len(sf.Pipeline) > 0 {
		cluster, err := runmgr.ClusterByName(sf.Cluster)
		if err != nil {
			return nil, err
		}
		sc.SetCluster(cluster)
		for _, as := range sf.Pipeline {
			t, err := appTypeFromString(as.App)
			if err != nil {
				return nil, err
			}
			cpus := as.CPUs
			if cpus == 0 {
				cpus = 1
			}
			if err = sc.RunManager().AddApplication(runmgr.CreateApp(t, cpus, as.Cmd)); err != nil {
				return nil, err
			}
		}
	}
	if sf.Proxy.Order != 0 || sf.Proxy.Kriging != "" {
		kt := rsproxy.NoKriging
		if sf.Proxy.Kriging != "" {
			var err error
			if kt, err = rsproxy.KrigingFromString(sf.Proxy.Kriging); err != nil {
				return nil, err
			}
		}
		cfg := rsproxy.Config{Order: sf.Proxy.Order, Kriging: kt, TargetR2: sf.Proxy.TargetR2}
		if err := sc.SetRSAlgorithm("default", cfg); err != nil {
			return nil, err
		}
	}
	if sf.MC.Algorithm != "" {
		cfg, err := mcConfig(sf)
		if err != nil {
			return nil, err
		}
		if err = sc.SetMCAlgorithm(cfg); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

func addParameter(sc *casa.Scenario, ps ParamSpec) error {
	pdf := prm.Block
	if ps.Pdf != "" {
		var err error
		if pdf, err = prm.PdfFromString(ps.Pdf); err != nil {
			return err
		}
	}
	switch ps.Type {
	case "scalar", "":
		p, err := prm.NewScalarPrm(ps.Name, ps.Table, ps.Col, ps.Base, ps.Min, ps.Max, pdf)
		if err != nil {
			return err
		}
		if ps.RowCol != "" {
			p.SelectRow(ps.RowCol, ps.RowVal)
		}
		return sc.VarSpace.AddParameter(p)
	case "map":
		p := prm.NewMapPrm(ps.Name, ps.Table, ps.Col, ps.BaseMap, ps.MinMap, ps.MaxMap, pdf)
		if ps.RowCol != "" {
			p.SelectRow(ps.RowCol, ps.RowVal)
		}
		return sc.VarSpace.AddParameter(p)
	case "curve":
		p, err := prm.NewCurvePrm(ps.Name, ps.Table, ps.Col, ps.BasePrf, ps.MinProf, ps.MaxProf, pdf)
		if err != nil {
			return err
		}
		return sc.VarSpace.AddParameter(p)
	case "categorical":
		p, err := prm.NewCategoricalPrm(ps.Name, ps.Table, ps.Col, ps.Values, ps.BaseIdx)
		if err != nil {
			return err
		}
		if ps.RowCol != "" {
			p.SelectRow(ps.RowCol, ps.RowVal)
		}
		return sc.VarSpace.AddParameter(p)
	}
	return chk.Err("unknown parameter type %q", ps.Type)
}

func addObservable(sc *casa.Scenario, osp ObsSpec) error {
	var ob obs.Observable
	switch osp.Type {
	case "xyz", "":
		ob = obs.NewPropertyXYZ(osp.Name, osp.Prop, osp.X, osp.Y, osp.Z, osp.Time)
	case "ijk":
		ob = obs.NewPropertyIJK(osp.Name, osp.Prop, osp.Layer, osp.I, osp.J, osp.K, osp.Time)
	case "well":
		w, err := obs.NewPropertyWell(osp.Name, osp.Prop, osp.Well, osp.Xs, osp.Ys, osp.Zs, osp.Time)
		if err != nil {
			return err
		}
		ob = w
	default:
		return chk.Err("unknown observable type %q", osp.Type)
	}
	if osp.Ref != nil {
		if err := ob.SetRefValue(osp.Ref, osp.Std); err != nil {
			return err
		}
	}
	if osp.SaW != 0 || osp.UaW != 0 {
		ob.SetWeights(osp.SaW, osp.UaW)
	}
	return sc.ObsSpace.AddObservable(ob)
}

func appTypeFromString(s string) (runmgr.AppType, error) {
	for t := runmgr.FastCauldron; t <= runmgr.Generic; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return runmgr.Generic, chk.Err("unknown application %q", s)
}

func mcConfig(sf *ScenarioFile) (cfg mcsolver.Config, err error) {
	if cfg.Algo, err = mcsolver.AlgoFromString(sf.MC.Algorithm); err != nil {
		return cfg, err
	}
	switch sf.MC.Kriging {
	case "", "None":
		cfg.Kriging = mcsolver.NoMCKriging
	case "Smart":
		cfg.Kriging = mcsolver.SmartKriging
	case "Global":
		cfg.Kriging = mcsolver.GlobalKrigingU
	default:
		return cfg, chk.Err("unknown MC kriging mode %q", sf.MC.Kriging)
	}
	switch sf.MC.Prior {
	case "", "None":
		cfg.Prior = mcsolver.NoPrior
	case "Marginal":
		cfg.Prior = mcsolver.MarginalPrior
	case "Multivariate":
		cfg.Prior = mcsolver.MultivariatePrior
	default:
		return cfg, chk.Err("unknown prior mode %q", sf.MC.Prior)
	}
	switch sf.MC.Measurement {
	case "", "None":
		cfg.Meas = mcsolver.NoMeasDist
	case "Normal":
		cfg.Meas = mcsolver.NormalMeasDist
	case "Robust":
		cfg.Meas = mcsolver.RobustMeasDist
	case "Mixed":
		cfg.Meas = mcsolver.MixedMeasDist
	default:
		return cfg, chk.Err("unknown measurement distribution %q", sf.MC.Measurement)
	}
	cfg.NumSamples = sf.MC.Samples
	cfg.MaxSteps = sf.MC.Steps
	cfg.StdDevFactor = sf.MC.StdDevFactor
	cfg.Seed = sf.MC.Seed
	return cfg, nil
}
