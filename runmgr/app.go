// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package runmgr implements the run manager: it drives a user-defined
// pipeline of simulator applications over every scheduled run case through
// an abstract cluster scheduler, polling at a bounded rate and never
// blocking on a single job
package runmgr

import (
	"strings"

	"github.com/cpmech/gosl/io"
)

// AppType enumerates the simulator applications known to the pipeline
type AppType int

// simulator applications
const (
	FastCauldron AppType = iota // pressure/temperature simulator
	FastCtc                     // crust thickness history
	FastGenex                   // hydrocarbon generation and expulsion
	FastMig                     // hydrocarbon migration
	Track1D                     // vertical well data extraction
	Generic                     // any other application; the command line is given verbatim
)

var appnames = []string{"fastcauldron", "fastctc", "fastgenex6", "fastmig", "track1d", "generic"}

// String returns the application binary name
func (o AppType) String() string {
	if o < FastCauldron || o > Generic {
		return "generic"
	}
	return appnames[o]
}

// App is one named stage of the calculation pipeline
type App struct {
	Type    AppType  // which simulator application
	CPUs    int      // number of cpus; > 1 implies the MPI launcher
	MPI     bool     // spawn through the MPI launcher
	Options []string // extra command line options
	CmdLine string   // verbatim script body for Generic applications
}

// CreateApp builds an application stage. cpus > 1 switches the MPI launcher
// on
func CreateApp(t AppType, cpus int, cmdLine string) *App {
	return &App{Type: t, CPUs: cpus, MPI: cpus > 1, CmdLine: cmdLine}
}

// AddOption appends one command line option
func (o *App) AddOption(opt string) *App {
	o.Options = append(o.Options, opt)
	return o
}

// scriptBody renders the per-case shell script for this stage. env holds
// the resolved run-manager environment
func (o *App) scriptBody(env *Env, caseDir, deckFile string) string {
	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	if env.LicenseFile != "" {
		sb.WriteString(io.Sf("export SIEPRTS_LICENSE_FILE=%q\n", env.LicenseFile))
	}
	if env.IBSRoot != "" {
		sb.WriteString(io.Sf("export IBS_ROOT=%q\n", env.IBSRoot))
	}
	if env.Version != "" {
		sb.WriteString(io.Sf("export CAULDRON_VERSION=%q\n", env.Version))
	}
	sb.WriteString(io.Sf("cd %q\n", caseDir))
	if o.Type == Generic {
		body := strings.ReplaceAll(o.CmdLine, "${PROJECT}", deckFile)
		sb.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			sb.WriteString("\n")
		}
		return sb.String()
	}
	var cmd strings.Builder
	if o.MPI && env.MPIRunCmd != "" {
		cmd.WriteString(io.Sf("%s -np %d ", env.MPIRunCmd, o.CPUs))
	}
	cmd.WriteString(env.binaryPath(o.Type))
	cmd.WriteString(io.Sf(" -project %q", deckFile))
	for _, opt := range o.Options {
		cmd.WriteString(" " + opt)
	}
	sb.WriteString(cmd.String() + "\n")
	return sb.String()
}

// Env is the resolved run-manager environment. Values come from the
// process environment; programmatic setters override
type Env struct {
	Version     string // simulator version selecting the binary path (CAULDRON_VERSION)
	IBSRoot     string // install prefix of the simulator family (IBS_ROOT)
	MPIRunCmd   string // MPI launcher command line (CAULDRON_MPIRUN_CMD)
	LicenseFile string // license server (SIEPRTS_LICENSE_FILE)
}

// binaryPath resolves the application binary under the install prefix
func (o *Env) binaryPath(t AppType) string {
	if o.IBSRoot == "" {
		return t.String()
	}
	v := o.Version
	if v == "" {
		v = "default"
	}
	return io.Sf("%s/%s/bin/%s", o.IBSRoot, v, t.String())
}
