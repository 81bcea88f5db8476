// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runmgr

import (
	"os/exec"
	"sync"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// JobState is the scheduler-side state of one submitted job
type JobState int

// scheduler job states
const (
	JobPending JobState = iota
	JobRunning
	JobFinished
	JobFailed
)

// JobSpec describes one job submission
type JobSpec struct {
	CaseDir    string // working directory of the job
	ScriptPath string // shell script to execute
	CPUs       int    // requested cpu count
}

// Cluster is the abstract batch scheduler. Concrete mappings (e.g. LSF)
// are pluggable back-ends and not part of the core
type Cluster interface {

	// Name returns the cluster name
	Name() string

	// Submit enqueues a job and returns its scheduler id
	Submit(j JobSpec) (jobID string, err error)

	// Status polls one job
	Status(jobID string) (JobState, error)

	// Kill requests job termination (best effort)
	Kill(jobID string) error
}

// ClusterByName resolves a cluster back-end by name
func ClusterByName(name string) (Cluster, error) {
	switch name {
	case "local", "":
		return NewLocalCluster(), nil
	}
	return nil, chk.Err("unknown cluster name %q", name)
}

// LocalCluster executes jobs as child processes of this machine. Jobs run
// concurrently; state queries never block
type LocalCluster struct {
	mu    sync.Mutex
	next  int
	procs map[string]*localJob
}

type localJob struct {
	cmd  *exec.Cmd
	done chan struct{}
	fail bool
}

// NewLocalCluster creates an empty local back-end
func NewLocalCluster() *LocalCluster {
	return &LocalCluster{procs: make(map[string]*localJob)}
}

// Name returns "local"
func (o *LocalCluster) Name() string { return "local" }

// Submit starts the job script as a child process
func (o *LocalCluster) Submit(j JobSpec) (string, error) {
	cmd := exec.Command("/bin/sh", j.ScriptPath)
	cmd.Dir = j.CaseDir
	if err := cmd.Start(); err != nil {
		return "", chk.Err("cannot start job script %q: %v", j.ScriptPath, err)
	}
	lj := &localJob{cmd: cmd, done: make(chan struct{})}
	go func() {
		lj.fail = cmd.Wait() != nil
		close(lj.done)
	}()
	o.mu.Lock()
	o.next++
	id := io.Sf("local-%d", o.next)
	o.procs[id] = lj
	o.mu.Unlock()
	return id, nil
}

// Status reports the job state without blocking
func (o *LocalCluster) Status(jobID string) (JobState, error) {
	o.mu.Lock()
	lj, ok := o.procs[jobID]
	o.mu.Unlock()
	if !ok {
		return JobFailed, chk.Err("unknown job id %q", jobID)
	}
	select {
	case <-lj.done:
		if lj.fail {
			return JobFailed, nil
		}
		return JobFinished, nil
	default:
		return JobRunning, nil
	}
}

// Kill terminates the job process (best effort)
func (o *LocalCluster) Kill(jobID string) error {
	o.mu.Lock()
	lj, ok := o.procs[jobID]
	o.mu.Unlock()
	if !ok {
		return chk.Err("unknown job id %q", jobID)
	}
	select {
	case <-lj.done:
		return nil
	default:
	}
	if lj.cmd.Process != nil {
		return lj.cmd.Process.Kill()
	}
	return nil
}
