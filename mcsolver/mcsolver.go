// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package mcsolver implements the Monte-Carlo / Markov-Chain Monte-Carlo
// sampler over a response surface proxy. The sampler scales the parameter
// PDFs to [-1,1], wraps reference-valued observables as constrained proxy
// targets and advances a set of chains one epoch per call, so that a caller
// may stop at any iteration without corrupting state
package mcsolver

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/rnd"

	"github.com/cpmech/casa/obs"
	"github.com/cpmech/casa/prm"
	"github.com/cpmech/casa/rsproxy"
	"github.com/cpmech/casa/status"
)

// Algorithm selects the sampling method
type Algorithm int

// sampling methods
const (
	MonteCarlo  Algorithm = iota // independent prior-weighted draws
	MCMC                         // posterior sampling conditioned on reference observables
	MCLocSolver                  // deterministic survival-of-the-fittest local optimiser
)

var mcalgonames = []string{"MonteCarlo", "MCMC", "MCLocSolver"}

// String returns the algorithm name
func (o Algorithm) String() string {
	if o < MonteCarlo || o > MCLocSolver {
		return "MonteCarlo"
	}
	return mcalgonames[o]
}

// AlgoFromString parses an algorithm name
func AlgoFromString(s string) (Algorithm, error) {
	for i, n := range mcalgonames {
		if n == s {
			return Algorithm(i), nil
		}
	}
	return MonteCarlo, chk.Err("unknown MC algorithm %q", s)
}

// KrigingUse selects the sampler-side kriging interoperation with the proxy
type KrigingUse int

// kriging interoperation modes
const (
	NoMCKriging    KrigingUse = iota // polynomial part only
	SmartKriging                     // polynomial during stepping, kriging on collection
	GlobalKrigingU                   // kriging everywhere
)

// PriorDist selects the prior over the scaled parameter space
type PriorDist int

// prior modes
const (
	NoPrior           PriorDist = iota // uniform over the ranges
	MarginalPrior                      // product of the per-parameter PDFs
	MultivariatePrior                  // product of the marginals (no cross-correlation data is carried)
)

// MeasDist selects the measurement error distribution
type MeasDist int

// measurement error distributions
const (
	NoMeasDist     MeasDist = iota // likelihood switched off
	NormalMeasDist                 // gaussian residuals
	RobustMeasDist                 // absolute residuals
	MixedMeasDist                  // gaussian core with absolute tails
)

// Config is the sampler configuration surface
type Config struct {
	Algo         Algorithm  // sampling method
	Kriging      KrigingUse // kriging interoperation with the proxy
	Prior        PriorDist  // prior mode
	Meas         MeasDist   // measurement error distribution
	NumSamples   int        // number of sampling points
	MaxSteps     int        // maximum number of epochs
	StdDevFactor float64    // scaling of the measurement standard deviations
	Seed         int        // random seed; fixed per scenario
}

// proposal step size in scaled coordinates
const stepSize = 0.2

// Solver is the Monte-Carlo machinery over one proxy
type Solver struct {
	status.Status

	Cfg Config

	proxy *rsproxy.Proxy
	vs    *prm.VarSpace
	os    *obs.ObsSpace

	useKriging bool // effective kriging flag after coercion against the proxy

	ndim      int
	pdfs      []prm.PDF   // per scaled dimension
	pts       [][]float64 // chain positions, scaled
	logLh     []float64   // likelihood per chain
	stepsDone int
	prepared  bool
}

// NewSolver creates a sampler with the given configuration
func NewSolver(cfg Config) (*Solver, error) {
	if cfg.NumSamples <= 0 {
		return nil, status.Err(status.OutOfRangeValue, "number of samples must be positive, got %d", cfg.NumSamples)
	}
	if cfg.MaxSteps <= 0 {
		return nil, status.Err(status.OutOfRangeValue, "maximum number of steps must be positive, got %d", cfg.MaxSteps)
	}
	if cfg.StdDevFactor <= 0 {
		cfg.StdDevFactor = 1
	}
	return &Solver{Cfg: cfg}, nil
}

// PrepareSimulation builds the internal solver over the proxy and the
// sampling parameter space. A kriging-enabled sampler over a NoKriging
// proxy is a contradiction and is silently coerced to the weaker of the two
func (o *Solver) PrepareSimulation(proxy *rsproxy.Proxy, vs *prm.VarSpace, osp *obs.ObsSpace) error {
	if proxy == nil {
		return o.ReportError(status.MonteCarloSolverError, "proxy is not defined")
	}
	if o.Cfg.Algo != MonteCarlo && osp.NumWithRef() == 0 {
		return o.ReportError(status.MonteCarloSolverError, "%s needs at least one observable with a reference value", o.Cfg.Algo)
	}
	o.proxy = proxy
	o.vs = vs
	o.os = osp
	o.useKriging = o.Cfg.Kriging != NoMCKriging && proxy.HasKriging()

	// scaled PDF per continuous dimension
	o.pdfs = nil
	for _, p := range vs.All() {
		if p.IsCategorical() {
			continue
		}
		for k := 0; k < p.Dimension(); k++ {
			o.pdfs = append(o.pdfs, p.PdfType())
		}
	}
	o.ndim = len(o.pdfs)
	if o.ndim == 0 {
		return o.ReportError(status.MonteCarloSolverError, "sampling parameter space has no continuous dimensions")
	}

	// initial chain positions drawn from the prior
	rnd.Init(o.Cfg.Seed)
	o.pts = make([][]float64, o.Cfg.NumSamples)
	o.logLh = make([]float64, o.Cfg.NumSamples)
	for i := range o.pts {
		o.pts[i] = o.drawPrior()
		o.logLh[i] = o.logLikelihood(o.pts[i])
	}
	o.stepsDone = 0
	o.prepared = true
	o.ClearError()
	return nil
}

// drawPrior samples one scaled point from the prior
func (o *Solver) drawPrior() []float64 {
	x := make([]float64, o.ndim)
	for i := range x {
		x[i] = o.drawPrior1(i)
	}
	return x
}

func (o *Solver) drawPrior1(dim int) float64 {
	if o.Cfg.Prior == NoPrior {
		return rnd.Float64(-1, 1)
	}
	switch o.pdfs[dim] {
	case prm.Triangle:
		// peak at the base value (0 in scaled coordinates)
		u := rnd.Float64(0, 1)
		if u < 0.5 {
			return -1 + math.Sqrt(2*u)
		}
		return 1 - math.Sqrt(2*(1-u))
	case prm.Normal:
		// the range covers three standard deviations
		for {
			v := normal01() / 3.0
			if v >= -1 && v <= 1 {
				return v
			}
		}
	}
	return rnd.Float64(-1, 1)
}

// logPrior evaluates the log prior density at a scaled point
func (o *Solver) logPrior(x []float64) float64 {
	if o.Cfg.Prior == NoPrior {
		return 0
	}
	lp := 0.0
	for i, v := range x {
		switch o.pdfs[i] {
		case prm.Triangle:
			d := 1.0 - math.Abs(v)
			if d <= 0 {
				return math.Inf(-1)
			}
			lp += math.Log(d)
		case prm.Normal:
			lp += -0.5 * (3 * v) * (3 * v)
		}
	}
	return lp
}

// chiSquared computes the residual chi-squared of the proxy response
// against the reference observables, with standard deviations scaled by
// StdDevFactor. The count of active measurement components is also returned
func (o *Solver) chiSquared(y []float64) (chi2 float64, nact int) {
	pos := 0
	for _, ob := range o.os.All() {
		dim := ob.Dimension()
		if !ob.HasRefValue() {
			pos += dim
			continue
		}
		ref := ob.RefValue()
		std := ob.StdDev()
		w := ob.UAWeight()
		if w <= 0 {
			w = 1
		}
		for k := 0; k < dim; k++ {
			d := y[pos+k] - ref[k]
			s := std[k] * o.Cfg.StdDevFactor
			if s > 0 {
				d /= s
			}
			chi2 += w * d * d
			nact++
		}
		pos += dim
	}
	return
}

// logLikelihood evaluates the measurement likelihood at a scaled point
// through the proxy. Smart kriging uses the polynomial part during stepping
func (o *Solver) logLikelihood(x []float64) float64 {
	if o.Cfg.Algo == MonteCarlo || o.Cfg.Meas == NoMeasDist {
		return 0
	}
	y := o.evalStep(x)
	pos := 0
	ll := 0.0
	for _, ob := range o.os.All() {
		dim := ob.Dimension()
		if !ob.HasRefValue() {
			pos += dim
			continue
		}
		ref := ob.RefValue()
		std := ob.StdDev()
		for k := 0; k < dim; k++ {
			d := y[pos+k] - ref[k]
			s := std[k] * o.Cfg.StdDevFactor
			if s > 0 {
				d /= s
			}
			switch o.Cfg.Meas {
			case RobustMeasDist:
				ll -= math.Abs(d)
			case MixedMeasDist:
				if a := math.Abs(d); a > 1 {
					ll -= a - 0.5
				} else {
					ll -= 0.5 * d * d
				}
			default:
				ll -= 0.5 * d * d
			}
		}
		pos += dim
	}
	return ll
}

// evalStep evaluates the proxy the way the stepping phase requires
func (o *Solver) evalStep(x []float64) []float64 {
	if o.useKriging && o.Cfg.Kriging == GlobalKrigingU {
		return o.proxy.EvalScaled(x)
	}
	return o.proxy.EvalScaledPoly(x)
}

// evalCollect evaluates the proxy the way the collection phase requires
func (o *Solver) evalCollect(x []float64) []float64 {
	if o.useKriging {
		return o.proxy.EvalScaled(x)
	}
	return o.proxy.EvalScaledPoly(x)
}

// IterateOnce advances every chain by one epoch and returns the
// monotonically decreasing count of remaining epochs. The call returns
// promptly; stopping between iterations is legal
func (o *Solver) IterateOnce() (remaining int, err error) {
	if !o.prepared {
		return 0, o.ReportError(status.MonteCarloSolverError, "solver is not prepared")
	}
	if o.stepsDone >= o.Cfg.MaxSteps {
		return 0, nil
	}
	switch o.Cfg.Algo {
	case MCLocSolver:
		o.survivalStep()
	default:
		o.metropolisStep()
	}
	o.stepsDone++
	o.ClearError()
	return o.Cfg.MaxSteps - o.stepsDone, nil
}

// metropolisStep advances every chain. Plain Monte Carlo redraws the points
// independently from the prior; MCMC applies one Metropolis-Hastings
// proposal per chain
func (o *Solver) metropolisStep() {
	if o.Cfg.Algo == MonteCarlo {
		for i := range o.pts {
			o.pts[i] = o.drawPrior()
			o.logLh[i] = 0
		}
		return
	}
	for i, x := range o.pts {
		prop := make([]float64, o.ndim)
		for d := range prop {
			prop[d] = x[d] + stepSize*normal01()
			if prop[d] < -1 {
				prop[d] = -1
			}
			if prop[d] > 1 {
				prop[d] = 1
			}
		}
		llNew := o.logLikelihood(prop)
		logRatio := (llNew + o.logPrior(prop)) - (o.logLh[i] + o.logPrior(x))
		if logRatio >= 0 || rnd.Float64(0, 1) < math.Exp(logRatio) {
			o.pts[i] = prop
			o.logLh[i] = llNew
		}
	}
}

// survivalStep keeps the fitter half of the points and resamples the rest
// around the kept points, taken in rank order, with a shrinking step
func (o *Solver) survivalStep() {
	n := len(o.pts)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	// rank by likelihood, best first
	for i := 0; i < n; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if o.logLh[order[j]] > o.logLh[order[best]] {
				best = j
			}
		}
		order[i], order[best] = order[best], order[i]
	}
	shrink := stepSize * math.Pow(0.9, float64(o.stepsDone))
	half := n / 2
	if half == 0 {
		half = 1
	}
	newPts := make([][]float64, n)
	newLh := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < half {
			newPts[i] = o.pts[order[i]]
			newLh[i] = o.logLh[order[i]]
			continue
		}
		src := o.pts[order[i%half]]
		cand := make([]float64, o.ndim)
		for d := range cand {
			cand[d] = src[d] + shrink*normal01()
			if cand[d] < -1 {
				cand[d] = -1
			}
			if cand[d] > 1 {
				cand[d] = 1
			}
		}
		newPts[i] = cand
		newLh[i] = o.logLikelihood(cand)
	}
	o.pts = newPts
	o.logLh = newLh
}

// StepsDone returns the number of completed epochs
func (o *Solver) StepsDone() int { return o.stepsDone }

// normal01 draws one standard normal variate (Box-Muller over the gosl
// uniform generator)
func normal01() float64 {
	u1 := rnd.Float64(0, 1)
	for u1 <= 1e-300 {
		u1 = rnd.Float64(0, 1)
	}
	u2 := rnd.Float64(0, 1)
	return math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
}
