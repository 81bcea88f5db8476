// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package rsproxy implements the response surface proxy: a multivariate
// polynomial fit of each observable component over the scaled parameter
// space, optionally corrected by kriging over the regression residuals at
// the training points
package rsproxy

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/casa/obs"
	"github.com/cpmech/casa/prm"
	"github.com/cpmech/casa/rcs"
	"github.com/cpmech/casa/ser"
	"github.com/cpmech/casa/status"
)

// KrigingType selects the residual correction mode
type KrigingType int

// kriging modes
const (
	NoKriging     KrigingType = iota // pure polynomial
	LocalKriging                     // kernel truncated to the nearest training points
	GlobalKriging                    // full kernel; interpolates exactly at training points
)

var krignames = []string{"NoKriging", "LocalKriging", "GlobalKriging"}

// String returns the kriging mode name
func (o KrigingType) String() string {
	if o < NoKriging || o > GlobalKriging {
		return "NoKriging"
	}
	return krignames[o]
}

// KrigingFromString parses a kriging mode name
func KrigingFromString(s string) (KrigingType, error) {
	for i, n := range krignames {
		if n == s {
			return KrigingType(i), nil
		}
	}
	return NoKriging, chk.Err("unknown kriging type %q", s)
}

// Config is the proxy configuration surface
type Config struct {
	Order     int         // polynomial order 0..3; -1 selects automatically
	Kriging   KrigingType // residual correction mode
	TargetR2  float64     // adjusted-R2 clip for the automatic order search; 0 disables
	DoESubset []string    // experiment tags feeding the training set; empty takes all
}

const (
	proxyTypeName = "RSProxy"
	proxyVersion  = 1

	// small nugget keeping the kriging kernel factorizable
	nugget = 1e-12

	// nearest training points used by local kriging
	localNeighbours = 8
)

// Proxy approximates each observable component as polynomial + kriging
type Proxy struct {
	status.Status

	Cfg Config // configuration; Order -1 resolves during calculation

	vs *prm.VarSpace
	os *obs.ObsSpace

	order  int         // resolved polynomial order
	terms  [][]int     // multi-indices of the polynomial terms
	coef   [][]float64 // [ncomp][nterm] fitted coefficients
	xTrain [][]float64 // scaled training points
	resid  [][]float64 // [ncomp][ntrain] residuals at training points
	krigW  [][]float64 // [ncomp][ntrain] global kriging weights
	theta  float64     // kernel width
}

// NewProxy creates an unbuilt proxy over the given spaces
func NewProxy(cfg Config, vs *prm.VarSpace, os *obs.ObsSpace) (*Proxy, error) {
	if cfg.Order < -1 || cfg.Order > 3 {
		return nil, status.Err(status.OutOfRangeValue, "polynomial order must be in {-1,0,1,2,3}, got %d", cfg.Order)
	}
	return &Proxy{Cfg: cfg, vs: vs, os: os, order: cfg.Order}, nil
}

// Order returns the resolved polynomial order; -1 before calculation when
// automatic selection is requested
func (o *Proxy) Order() int { return o.order }

// NumCoefficients returns the number of polynomial terms per component
func (o *Proxy) NumCoefficients() int { return len(o.terms) }

// Coefficients returns the fitted coefficients of one observable component
func (o *Proxy) Coefficients(comp int) []float64 {
	if comp < 0 || comp >= len(o.coef) {
		return nil
	}
	return o.coef[comp]
}

// scalePoint maps a case's continuous parameter values to [-1,1]. Categorical
// parameters do not participate in the proxy input
func (o *Proxy) scalePoint(c *rcs.RunCase) []float64 {
	var x []float64
	for i, p := range o.vs.All() {
		if p.IsCategorical() {
			continue
		}
		vals := c.Parameter(i).AsArray()
		min, base, max := p.MinAsArray(), p.BaseAsArray(), p.MaxAsArray()
		for k, v := range vals {
			x = append(x, prm.InvScaled(v, min[k], base[k], max[k]))
		}
	}
	return x
}

// trainingMatrix collects scaled points and flattened observables of the
// training cases. Cases with undefined components are skipped
func (o *Proxy) trainingMatrix(cases []*rcs.RunCase) (x [][]float64, y [][]float64, err error) {
	for _, c := range cases {
		if c.State() != rcs.Completed || c.ObsVals == nil {
			continue
		}
		vals, defined := c.FlattenObs()
		ok := true
		for _, d := range defined {
			if !d {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		x = append(x, o.scalePoint(c))
		y = append(y, vals)
	}
	if len(x) == 0 {
		return nil, nil, status.Err(status.RSProxyError, "no completed cases with defined observables to train on")
	}
	return x, y, nil
}

// CalculateRSProxy fits the polynomial (resolving the order when automatic
// selection is requested) and, if kriging is enabled, stores the kernel over
// the training residuals. A build failure leaves any previously calculated
// proxy intact
func (o *Proxy) CalculateRSProxy(cases []*rcs.RunCase) error {
	x, y, err := o.trainingMatrix(cases)
	if err != nil {
		return o.ReportErr(err)
	}
	ndim := len(x[0])
	ncomp := len(y[0])

	order := o.Cfg.Order
	if order == -1 {
		order = autoOrder(x, y, o.Cfg.TargetR2)
	}
	for order > 0 && len(monomials(ndim, order)) > len(x) {
		order--
	}
	terms := monomials(ndim, order)

	coef, err := fitLeastSquares(x, y, terms)
	if err != nil {
		return o.ReportErr(err)
	}

	// residuals and kernel, still without touching the previous proxy
	var resid, krigW [][]float64
	theta := 0.0
	if o.Cfg.Kriging != NoKriging {
		resid = make([][]float64, ncomp)
		for ic := 0; ic < ncomp; ic++ {
			resid[ic] = make([]float64, len(x))
			for i, xi := range x {
				resid[ic][i] = y[i][ic] - evalPoly(terms, coef[ic], xi)
			}
		}
		theta = kernelWidth(x)
		if o.Cfg.Kriging == GlobalKriging {
			if krigW, err = solveKrigingWeights(x, resid, theta); err != nil {
				return o.ReportErr(err)
			}
		}
	}

	// commit; a failure above leaves any previously calculated proxy intact
	o.order = order
	o.terms = terms
	o.coef = coef
	o.xTrain = x
	o.resid = resid
	o.krigW = krigW
	o.theta = theta
	o.ClearError()
	return nil
}

// EvalScaled evaluates polynomial + kriging at a scaled point. Deterministic
// and side-effect free
func (o *Proxy) EvalScaled(x []float64) []float64 {
	ncomp := len(o.coef)
	y := make([]float64, ncomp)
	for ic := 0; ic < ncomp; ic++ {
		y[ic] = evalPoly(o.terms, o.coef[ic], x)
	}
	switch o.Cfg.Kriging {
	case GlobalKriging:
		for ic := 0; ic < ncomp; ic++ {
			y[ic] += evalKrigingGlobal(o.xTrain, o.krigW[ic], o.theta, x)
		}
	case LocalKriging:
		for ic := 0; ic < ncomp; ic++ {
			y[ic] += evalKrigingLocal(o.xTrain, o.resid[ic], o.theta, x, localNeighbours)
		}
	}
	return y
}

// EvalScaledPoly evaluates the polynomial part only, skipping any kriging
// correction. Used by samplers running in a weaker kriging mode than the
// proxy was built with
func (o *Proxy) EvalScaledPoly(x []float64) []float64 {
	ncomp := len(o.coef)
	y := make([]float64, ncomp)
	for ic := 0; ic < ncomp; ic++ {
		y[ic] = evalPoly(o.terms, o.coef[ic], x)
	}
	return y
}

// HasKriging reports whether the proxy carries a kriging correction
func (o *Proxy) HasKriging() bool { return o.Cfg.Kriging != NoKriging && o.resid != nil }

// EvaluateRSProxy writes proxy-evaluated observable values into the case
func (o *Proxy) EvaluateRSProxy(c *rcs.RunCase) error {
	if len(o.coef) == 0 {
		return o.ReportError(status.RSProxyError, "proxy has not been calculated yet")
	}
	y := o.EvalScaled(o.scalePoint(c))
	var vals []*obs.ObsValue
	pos := 0
	for _, ob := range o.os.All() {
		dim := ob.Dimension()
		ov, err := obs.NewObsValue(ob, y[pos:pos+dim], nil)
		if err != nil {
			return o.ReportErr(err)
		}
		vals = append(vals, ov)
		pos += dim
	}
	return o.ReportErr(c.SetObsValues(vals))
}

// Save writes the calculated proxy
func (o *Proxy) Save(w *ser.Writer) (err error) {
	if err = w.Obj(proxyTypeName, "proxy", proxyVersion); err != nil {
		return err
	}
	if err = w.Int("Order", o.order); err != nil {
		return err
	}
	if err = w.String("Kriging", o.Cfg.Kriging.String()); err != nil {
		return err
	}
	if err = w.Float("TargetR2", o.Cfg.TargetR2); err != nil {
		return err
	}
	if err = w.Strings("DoESubset", o.Cfg.DoESubset); err != nil {
		return err
	}
	if err = w.Int("NumTerms", len(o.terms)); err != nil {
		return err
	}
	for _, t := range o.terms {
		if err = w.Ints("Term", t); err != nil {
			return err
		}
	}
	if err = w.Int("NumComp", len(o.coef)); err != nil {
		return err
	}
	for _, c := range o.coef {
		if err = w.Floats("Coef", c); err != nil {
			return err
		}
	}
	if err = w.Int("NumTrain", len(o.xTrain)); err != nil {
		return err
	}
	for _, x := range o.xTrain {
		if err = w.Floats("XTrain", x); err != nil {
			return err
		}
	}
	hasResid := o.resid != nil
	if err = w.Bool("HasResid", hasResid); err != nil {
		return err
	}
	if hasResid {
		for _, r := range o.resid {
			if err = w.Floats("Resid", r); err != nil {
				return err
			}
		}
	}
	hasW := o.krigW != nil
	if err = w.Bool("HasKrigW", hasW); err != nil {
		return err
	}
	if hasW {
		for _, kw := range o.krigW {
			if err = w.Floats("KrigW", kw); err != nil {
				return err
			}
		}
	}
	return w.Float("Theta", o.theta)
}

// LoadProxy reads a calculated proxy bound to the given spaces
func LoadProxy(r *ser.Reader, vs *prm.VarSpace, osp *obs.ObsSpace) (o *Proxy, err error) {
	if _, _, err = r.Obj(proxyTypeName, proxyVersion); err != nil {
		return nil, err
	}
	o = &Proxy{vs: vs, os: osp}
	if o.order, err = r.Int("Order"); err != nil {
		return nil, err
	}
	o.Cfg.Order = o.order
	kt, err := r.String("Kriging")
	if err != nil {
		return nil, err
	}
	if o.Cfg.Kriging, err = KrigingFromString(kt); err != nil {
		return nil, status.Err(status.DeserializationError, "%v", err)
	}
	if o.Cfg.TargetR2, err = r.Float("TargetR2"); err != nil {
		return nil, err
	}
	if o.Cfg.DoESubset, err = r.Strings("DoESubset"); err != nil {
		return nil, err
	}
	nterms, err := r.Int("NumTerms")
	if err != nil {
		return nil, err
	}
	for i := 0; i < nterms; i++ {
		t, err := r.Ints("Term")
		if err != nil {
			return nil, err
		}
		o.terms = append(o.terms, t)
	}
	ncomp, err := r.Int("NumComp")
	if err != nil {
		return nil, err
	}
	for i := 0; i < ncomp; i++ {
		c, err := r.Floats("Coef")
		if err != nil {
			return nil, err
		}
		o.coef = append(o.coef, c)
	}
	ntrain, err := r.Int("NumTrain")
	if err != nil {
		return nil, err
	}
	for i := 0; i < ntrain; i++ {
		x, err := r.Floats("XTrain")
		if err != nil {
			return nil, err
		}
		o.xTrain = append(o.xTrain, x)
	}
	hasResid, err := r.Bool("HasResid")
	if err != nil {
		return nil, err
	}
	if hasResid {
		for i := 0; i < ncomp; i++ {
			res, err := r.Floats("Resid")
			if err != nil {
				return nil, err
			}
			o.resid = append(o.resid, res)
		}
	}
	hasW, err := r.Bool("HasKrigW")
	if err != nil {
		return nil, err
	}
	if hasW {
		for i := 0; i < ncomp; i++ {
			kw, err := r.Floats("KrigW")
			if err != nil {
				return nil, err
			}
			o.krigW = append(o.krigW, kw)
		}
	}
	o.theta, err = r.Float("Theta")
	return o, err
}

// kernelWidth picks the Gaussian kernel width from the spread of the
// training points
func kernelWidth(x [][]float64) float64 {
	dmax := 0.0
	for i := range x {
		for j := i + 1; j < len(x); j++ {
			if d := dist(x[i], x[j]); d > dmax {
				dmax = d
			}
		}
	}
	if dmax == 0 {
		return 1
	}
	return dmax / 2.0
}

func dist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}

func kernel(r, theta float64) float64 {
	q := r / theta
	return math.Exp(-q * q)
}

// solveKrigingWeights solves K w = resid per component over the full kernel
func solveKrigingWeights(x [][]float64, resid [][]float64, theta float64) ([][]float64, error) {
	n := len(x)
	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := kernel(dist(x[i], x[j]), theta)
			if i == j {
				v += nugget
			}
			k.SetSym(i, j, v)
		}
	}
	var chol mat.Cholesky
	if !chol.Factorize(k) {
		return nil, status.Err(status.RSProxyError, "kriging kernel is not positive definite")
	}
	w := make([][]float64, len(resid))
	for ic, r := range resid {
		var sol mat.VecDense
		if err := chol.SolveVecTo(&sol, mat.NewVecDense(n, append([]float64{}, r...))); err != nil {
			return nil, status.Err(status.RSProxyError, "cannot solve kriging system: %v", err)
		}
		w[ic] = make([]float64, n)
		for i := 0; i < n; i++ {
			w[ic][i] = sol.AtVec(i)
		}
	}
	return w, nil
}

// evalKrigingGlobal evaluates the precomputed full-kernel correction
func evalKrigingGlobal(xTrain [][]float64, w []float64, theta float64, x []float64) float64 {
	s := 0.0
	for i, xi := range xTrain {
		s += w[i] * kernel(dist(x, xi), theta)
	}
	return s
}

// evalKrigingLocal solves a small system over the m nearest training points
// at every evaluation
func evalKrigingLocal(xTrain [][]float64, resid []float64, theta float64, x []float64, m int) float64 {
	n := len(xTrain)
	if m > n {
		m = n
	}
	// nearest m training points
	idx := make([]int, n)
	dd := make([]float64, n)
	for i := range xTrain {
		idx[i] = i
		dd[i] = dist(x, xTrain[i])
	}
	for i := 0; i < m; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if dd[idx[j]] < dd[idx[best]] {
				best = j
			}
		}
		idx[i], idx[best] = idx[best], idx[i]
	}
	sel := idx[:m]
	k := mat.NewSymDense(m, nil)
	for a := 0; a < m; a++ {
		for b := a; b < m; b++ {
			v := kernel(dist(xTrain[sel[a]], xTrain[sel[b]]), theta)
			if a == b {
				v += nugget
			}
			k.SetSym(a, b, v)
		}
	}
	rhs := make([]float64, m)
	for a := 0; a < m; a++ {
		rhs[a] = resid[sel[a]]
	}
	var chol mat.Cholesky
	if !chol.Factorize(k) {
		return 0
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, mat.NewVecDense(m, rhs)); err != nil {
		return 0
	}
	s := 0.0
	for a := 0; a < m; a++ {
		s += sol.AtVec(a) * kernel(dd[sel[a]], theta)
	}
	return s
}
