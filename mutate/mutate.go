// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package mutate implements the per-case deck generation engine: it
// materialises a run case as a disk-resident mutated copy of the base-case
// project deck
package mutate

import (
	"strings"

	"github.com/cpmech/gosl/io"

	"github.com/cpmech/casa/project"
	"github.com/cpmech/casa/rcs"
	"github.com/cpmech/casa/status"
)

// DeckFileName is the file name of generated project decks
const DeckFileName = "project.casa"

// Engine writes mutated project decks under the scenario root
type Engine struct {
	status.Status

	Root      string // scenario root directory; owned exclusively by one scenario
	Iteration int    // iteration counter; part of the generated case paths
}

// NewEngine creates a mutation engine rooted at dir
func NewEngine(root string) *Engine {
	return &Engine{Root: root}
}

// CaseDir returns the directory of one case:
// <root>/Iteration_<k>/Case_<i>/
func (o *Engine) CaseDir(c *rcs.RunCase) string {
	return io.Sf("%s/Iteration_%d/%s", o.Root, o.Iteration, c.CaseID())
}

// MutateCase produces the disk-resident mutated deck of one case:
//  1. deep-copy the base-case model
//  2. apply each bound parameter in declaration order
//  3. validate every parameter against the mutated model
//  4. serialize the model to the case path
//  5. record the path and schedule the case
//
// Any mutation or validation error leaves the case Failed with a diagnostic
// and does not write the deck
func (o *Engine) MutateCase(c *rcs.RunCase, base *project.Model) error {
	if base == nil {
		return o.ReportError(status.UndefinedValue, "base case model is not defined")
	}
	path := o.CaseDir(c) + "/" + DeckFileName

	model, err := base.DeepCopy()
	if err != nil {
		return o.failCase(c, status.Err(status.MutationError, "case %d: %v", c.ID, err))
	}
	model.SetPath(path)

	for i, p := range c.Prms {
		if err = p.SetInModel(model, c.CaseID()); err != nil {
			return o.failCase(c, status.Err(status.MutationError, "case %d parameter %d: %v", c.ID, i, err))
		}
	}

	var diags []string
	for i, p := range c.Prms {
		if err = p.Validate(model); err != nil {
			diags = append(diags, io.Sf("parameter %d: %v", i, err))
		}
	}
	if len(diags) > 0 {
		return o.failCase(c, status.Err(status.ValidationError, "case %d: %s", c.ID, strings.Join(diags, "; ")))
	}

	if err = model.SaveAs(path); err != nil {
		return o.failCase(c, status.Err(status.MutationError, "case %d: %v", c.ID, err))
	}
	c.ProjectPath = path
	return o.ReportErr(c.SetState(rcs.Scheduled))
}

// failCase records the diagnostic on the case, marks it Failed and returns
// the error
func (o *Engine) failCase(c *rcs.RunCase, err error) error {
	c.Diag = err.Error()
	c.SetState(rcs.Failed)
	return o.ReportErr(err)
}

// MutateAll mutates every NotSubmitted case of the list. Per-case errors
// are recorded on the cases and do not stop the batch; the number of failed
// cases is returned
func (o *Engine) MutateAll(cases []*rcs.RunCase, base *project.Model) (nFailed int) {
	for _, c := range cases {
		if c.State() != rcs.NotSubmitted {
			continue
		}
		if err := o.MutateCase(c, base); err != nil {
			nFailed++
		}
	}
	o.ClearError()
	return
}
