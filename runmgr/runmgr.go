// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runmgr

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cpmech/gosl/io"
	"github.com/rs/zerolog"

	"github.com/cpmech/casa/rcs"
	"github.com/cpmech/casa/status"
)

// defaultPollInterval bounds the scheduler polling rate
const defaultPollInterval = 500 * time.Millisecond

// jobEntry tracks one case through the pipeline
type jobEntry struct {
	c     *rcs.RunCase
	stage int    // current pipeline stage
	jobID string // scheduler id of the running stage; empty between stages
	done  bool   // terminal (Completed or Failed)
}

// RunManager drives the application pipeline over scheduled cases. The
// manager itself is single-threaded cooperative: parallelism comes entirely
// from the external jobs it spawns
type RunManager struct {
	status.Status

	Env Env // resolved environment; programmatic setters override

	cluster      Cluster
	pipeline     []*App
	jobs         []*jobEntry
	pollInterval time.Duration
	lastPoll     time.Time
	aborted      bool
	log          zerolog.Logger
}

// New creates a run manager over the given cluster back-end, resolving the
// environment variables the manager honours
func New(cluster Cluster) *RunManager {
	return &RunManager{
		cluster: cluster,
		Env: Env{
			Version:     os.Getenv("CAULDRON_VERSION"),
			IBSRoot:     os.Getenv("IBS_ROOT"),
			MPIRunCmd:   os.Getenv("CAULDRON_MPIRUN_CMD"),
			LicenseFile: os.Getenv("SIEPRTS_LICENSE_FILE"),
		},
		pollInterval: defaultPollInterval,
		log:          zerolog.New(os.Stderr).With().Timestamp().Str("component", "runmgr").Logger().Level(zerolog.WarnLevel),
	}
}

// SetLogger replaces the job-event logger
func (o *RunManager) SetLogger(l zerolog.Logger) { o.log = l }

// SetPollInterval bounds the scheduler polling rate
func (o *RunManager) SetPollInterval(d time.Duration) { o.pollInterval = d }

// SetCauldronVersion overrides CAULDRON_VERSION
func (o *RunManager) SetCauldronVersion(v string) { o.Env.Version = v }

// SetIBSRoot overrides IBS_ROOT
func (o *RunManager) SetIBSRoot(p string) { o.Env.IBSRoot = p }

// SetMPIRunCmd overrides CAULDRON_MPIRUN_CMD
func (o *RunManager) SetMPIRunCmd(c string) { o.Env.MPIRunCmd = c }

// SetLicenseFile overrides SIEPRTS_LICENSE_FILE
func (o *RunManager) SetLicenseFile(f string) { o.Env.LicenseFile = f }

// ClusterName returns the name of the cluster back-end
func (o *RunManager) ClusterName() string { return o.cluster.Name() }

// AddApplication appends a stage to the calculation pipeline. Stages run
// strictly serially within one case
func (o *RunManager) AddApplication(app *App) error {
	if app == nil {
		return o.ReportError(status.UndefinedValue, "cannot add nil application to pipeline")
	}
	if app.Type != Generic && o.Env.IBSRoot != "" {
		bin := o.Env.binaryPath(app.Type)
		if _, err := os.Stat(bin); err != nil {
			return o.ReportError(status.RunManagerError, "application binary %q for version %q not found", bin, o.Env.Version)
		}
	}
	o.pipeline = append(o.pipeline, app)
	o.ClearError()
	return nil
}

// Pipeline returns the configured stages
func (o *RunManager) Pipeline() []*App { return o.pipeline }

// ScheduleCase adds a mutated case to the job table
func (o *RunManager) ScheduleCase(c *rcs.RunCase) error {
	if c.State() != rcs.Scheduled {
		return o.ReportError(status.RunManagerError, "case %d is not scheduled (state is %s)", c.ID, c.State())
	}
	if c.ProjectPath == "" {
		return o.ReportError(status.WrongPath, "case %d has no generated project deck", c.ID)
	}
	o.jobs = append(o.jobs, &jobEntry{c: c})
	o.ClearError()
	return nil
}

// RunScheduledCases submits the first stage of every tabled case. With
// async the call returns right after submission and the caller drives
// completion through Update; otherwise the call blocks polling until all
// cases reach a terminal state
func (o *RunManager) RunScheduledCases(async bool) error {
	if len(o.pipeline) == 0 {
		return o.ReportError(status.RunManagerError, "calculation pipeline is empty")
	}
	o.aborted = false
	for _, j := range o.jobs {
		if j.done || j.jobID != "" {
			continue
		}
		if err := o.submitStage(j); err != nil {
			return o.ReportErr(err)
		}
	}
	if async {
		o.ClearError()
		return nil
	}
	for {
		pending, err := o.Update()
		if err != nil {
			return err
		}
		if pending == 0 {
			break
		}
		time.Sleep(o.pollInterval)
	}
	o.ClearError()
	return nil
}

// submitStage writes the per-case script for the current stage and submits it
func (o *RunManager) submitStage(j *jobEntry) error {
	app := o.pipeline[j.stage]
	caseDir := filepath.Dir(j.c.ProjectPath)
	deckFile := filepath.Base(j.c.ProjectPath)
	script := filepath.Join(caseDir, io.Sf("stage_%d_%s.sh", j.stage, app.Type))
	if err := os.WriteFile(script, []byte(app.scriptBody(&o.Env, caseDir, deckFile)), 0755); err != nil {
		return status.Err(status.IoError, "case %d: cannot write job script: %v", j.c.ID, err)
	}
	id, err := o.cluster.Submit(JobSpec{CaseDir: caseDir, ScriptPath: script, CPUs: app.CPUs})
	if err != nil {
		return status.Err(status.RunManagerError, "case %d: scheduler unreachable: %v", j.c.ID, err)
	}
	j.jobID = id
	if j.c.State() == rcs.Scheduled {
		if err = j.c.SetState(rcs.Running); err != nil {
			return err
		}
	}
	o.log.Info().Int("case", j.c.ID).Int("stage", j.stage).Str("job", id).Msg("job submitted")
	return nil
}

// Update polls the scheduler once (rate-bounded) and advances the job
// table: finished stages trigger the next stage submission; the last stage
// completes the case; any failure fails it. The number of non-terminal
// cases is returned
func (o *RunManager) Update() (pending int, err error) {
	if elapsed := time.Since(o.lastPoll); elapsed < o.pollInterval {
		time.Sleep(o.pollInterval - elapsed)
	}
	o.lastPoll = time.Now()
	for _, j := range o.jobs {
		if j.done {
			continue
		}
		if j.jobID == "" {
			pending++
			continue
		}
		st, serr := o.cluster.Status(j.jobID)
		if serr != nil {
			return pending, o.ReportError(status.RunManagerError, "case %d: scheduler unreachable: %v", j.c.ID, serr)
		}
		switch st {
		case JobPending, JobRunning:
			pending++
		case JobFailed:
			j.done = true
			j.c.Diag = io.Sf("stage %d (%s) failed", j.stage, o.pipeline[j.stage].Type)
			j.c.SetState(rcs.Failed)
			o.log.Warn().Int("case", j.c.ID).Int("stage", j.stage).Msg("job failed")
		case JobFinished:
			o.log.Info().Int("case", j.c.ID).Int("stage", j.stage).Msg("job finished")
			j.jobID = ""
			j.stage++
			if j.stage == len(o.pipeline) {
				j.done = true
				if err = j.c.SetState(rcs.Completed); err != nil {
					return pending, o.ReportErr(err)
				}
				continue
			}
			if err = o.submitStage(j); err != nil {
				j.done = true
				j.c.Diag = err.Error()
				j.c.SetState(rcs.Failed)
				continue
			}
			pending++
		}
	}
	return pending, nil
}

// Abort cancels the batch: unstarted cases are failed immediately, running
// jobs receive a kill, and the manager waits at most grace for them to
// disappear from the scheduler
func (o *RunManager) Abort(grace time.Duration) error {
	o.aborted = true
	deadline := time.Now().Add(grace)
	for _, j := range o.jobs {
		if j.done {
			continue
		}
		if j.jobID == "" {
			j.done = true
			j.c.Diag = "aborted before submission"
			j.c.SetState(rcs.Failed)
			continue
		}
		if err := o.cluster.Kill(j.jobID); err != nil {
			o.log.Warn().Int("case", j.c.ID).Str("job", j.jobID).Msg("kill request failed")
		}
	}
	for time.Now().Before(deadline) {
		alive := false
		for _, j := range o.jobs {
			if j.done || j.jobID == "" {
				continue
			}
			st, err := o.cluster.Status(j.jobID)
			if err != nil || st == JobFinished || st == JobFailed {
				j.done = true
				j.c.Diag = "aborted"
				j.c.SetState(rcs.Failed)
				continue
			}
			alive = true
		}
		if !alive {
			break
		}
		time.Sleep(o.pollInterval)
	}
	for _, j := range o.jobs {
		if !j.done {
			j.done = true
			j.c.Diag = "aborted; job may still be running"
			j.c.SetState(rcs.Failed)
		}
	}
	return o.ReportError(status.RunManagerAborted, "run manager aborted by caller")
}

// Reset discards the job table. keepApps preserves the pipeline definition,
// enabling resumption of a saved scenario
func (o *RunManager) Reset(keepApps bool) {
	o.jobs = nil
	o.aborted = false
	if !keepApps {
		o.pipeline = nil
	}
	o.ClearError()
}

// NumJobs returns the size of the job table
func (o *RunManager) NumJobs() int { return len(o.jobs) }
