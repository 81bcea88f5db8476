// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runmgr

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/casa/project"
	"github.com/cpmech/casa/rcs"
	"github.com/cpmech/casa/status"
)

// stubCluster is a fully controllable in-memory scheduler
type stubCluster struct {
	next      int
	states    map[string]JobState
	submitted []string
	killed    []string
	fail      bool // next submission fails
}

func newStubCluster() *stubCluster {
	return &stubCluster{states: make(map[string]JobState)}
}

func (o *stubCluster) Name() string { return "stub" }

func (o *stubCluster) Submit(j JobSpec) (string, error) {
	if o.fail {
		return "", chk.Err("stub scheduler is down")
	}
	o.next++
	id := io.Sf("stub-%d", o.next)
	o.states[id] = JobRunning
	o.submitted = append(o.submitted, id)
	return id, nil
}

func (o *stubCluster) Status(jobID string) (JobState, error) {
	st, ok := o.states[jobID]
	if !ok {
		return JobFailed, chk.Err("unknown job id %q", jobID)
	}
	return st, nil
}

func (o *stubCluster) Kill(jobID string) error {
	o.killed = append(o.killed, jobID)
	o.states[jobID] = JobFailed
	return nil
}

func (o *stubCluster) finish(jobID string, ok bool) {
	if ok {
		o.states[jobID] = JobFinished
	} else {
		o.states[jobID] = JobFailed
	}
}

// scheduledCase builds a case in Scheduled state with a deck on disk
func scheduledCase(tst *testing.T, dir string, id int) *rcs.RunCase {
	c := rcs.NewRunCase(id)
	m := project.New("deck")
	path := filepath.Join(dir, io.Sf("Case_%d", id), "project.casa")
	if err := m.SaveAs(path); err != nil {
		tst.Fatalf("cannot write deck: %v", err)
	}
	c.ProjectPath = path
	c.SetState(rcs.Scheduled)
	return c
}

func fastManager(cluster Cluster) *RunManager {
	mgr := New(cluster)
	mgr.SetPollInterval(time.Millisecond)
	return mgr
}

func Test_runmgr01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("runmgr01. two-stage pipeline completes a case")

	cluster := newStubCluster()
	mgr := fastManager(cluster)
	mgr.AddApplication(CreateApp(FastCauldron, 1, ""))
	mgr.AddApplication(CreateApp(FastGenex, 1, ""))

	dir := tst.TempDir()
	c := scheduledCase(tst, dir, 0)
	if err := mgr.ScheduleCase(c); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if err := mgr.RunScheduledCases(true); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if c.State() != rcs.Running {
		tst.Errorf("submitted case must be Running, got %s", c.State())
		return
	}
	chk.IntAssert(len(cluster.submitted), 1)

	// stage 0 finishes, stage 1 must be submitted on the next poll
	cluster.finish(cluster.submitted[0], true)
	pending, err := mgr.Update()
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.IntAssert(pending, 1)
	chk.IntAssert(len(cluster.submitted), 2)

	// stage 1 finishes: the case completes
	cluster.finish(cluster.submitted[1], true)
	pending, err = mgr.Update()
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.IntAssert(pending, 0)
	if c.State() != rcs.Completed {
		tst.Errorf("case must be Completed, got %s", c.State())
	}
}

func Test_runmgr02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("runmgr02. a failing stage fails the case only")

	cluster := newStubCluster()
	mgr := fastManager(cluster)
	mgr.AddApplication(CreateApp(FastCauldron, 1, ""))

	dir := tst.TempDir()
	c0 := scheduledCase(tst, dir, 0)
	c1 := scheduledCase(tst, dir, 1)
	mgr.ScheduleCase(c0)
	mgr.ScheduleCase(c1)
	if err := mgr.RunScheduledCases(true); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}

	cluster.finish(cluster.submitted[0], false)
	cluster.finish(cluster.submitted[1], true)
	pending, err := mgr.Update()
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.IntAssert(pending, 0)
	if c0.State() != rcs.Failed {
		tst.Errorf("failed job must fail its case, got %s", c0.State())
		return
	}
	if c0.Diag == "" {
		tst.Errorf("failed case must carry a diagnostic")
		return
	}
	if c1.State() != rcs.Completed {
		tst.Errorf("the scenario must continue with the remaining cases, got %s", c1.State())
	}
}

func Test_runmgr03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("runmgr03. abort kills running jobs within the grace period")

	cluster := newStubCluster()
	mgr := fastManager(cluster)
	mgr.AddApplication(CreateApp(FastCauldron, 1, ""))

	dir := tst.TempDir()
	c0 := scheduledCase(tst, dir, 0)
	mgr.ScheduleCase(c0)
	if err := mgr.RunScheduledCases(true); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}

	err := mgr.Abort(50 * time.Millisecond)
	if status.KindOf(err) != status.RunManagerAborted {
		tst.Errorf("abort must report RunManagerAborted, got %v", err)
		return
	}
	chk.IntAssert(len(cluster.killed), 1)
	if c0.State() != rcs.Failed {
		tst.Errorf("aborted case must be Failed, got %s", c0.State())
	}
}

func Test_runmgr04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("runmgr04. reset keeps the pipeline, errors surface")

	cluster := newStubCluster()
	mgr := fastManager(cluster)

	// empty pipeline is rejected
	dir := tst.TempDir()
	c := scheduledCase(tst, dir, 0)
	mgr.ScheduleCase(c)
	err := mgr.RunScheduledCases(true)
	if status.KindOf(err) != status.RunManagerError {
		tst.Errorf("empty pipeline must report RunManagerError, got %v", err)
		return
	}

	mgr.AddApplication(CreateApp(FastCauldron, 1, ""))
	mgr.Reset(true)
	chk.IntAssert(mgr.NumJobs(), 0)
	chk.IntAssert(len(mgr.Pipeline()), 1)
	mgr.Reset(false)
	chk.IntAssert(len(mgr.Pipeline()), 0)

	// unreachable scheduler surfaces as RunManagerError
	cluster.fail = true
	mgr.AddApplication(CreateApp(FastCauldron, 1, ""))
	c2 := scheduledCase(tst, dir, 1)
	mgr.ScheduleCase(c2)
	err = mgr.RunScheduledCases(true)
	if status.KindOf(err) != status.RunManagerError {
		tst.Errorf("unreachable scheduler must report RunManagerError, got %v", err)
		return
	}

	// unknown cluster name
	if _, err = ClusterByName("lsf-nonexistent"); err == nil {
		tst.Errorf("unknown cluster name must be rejected")
	}
}

func Test_runmgr05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("runmgr05. environment resolution and script bodies")

	env := &Env{Version: "v2014.0703", IBSRoot: "/apps/sssdev/ibs", MPIRunCmd: "mpirun", LicenseFile: "3000@server"}
	chk.String(tst, env.binaryPath(FastCauldron), "/apps/sssdev/ibs/v2014.0703/bin/fastcauldron")

	app := CreateApp(FastCauldron, 4, "")
	if !app.MPI {
		tst.Errorf("multi-cpu application must use the MPI launcher")
		return
	}
	body := app.scriptBody(env, "/tmp/case", "project.casa")
	for _, want := range []string{"SIEPRTS_LICENSE_FILE", "mpirun -np 4", "fastcauldron", "project.casa"} {
		if !containsStr(body, want) {
			tst.Errorf("script body must contain %q:\n%s", want, body)
			return
		}
	}

	gen := CreateApp(Generic, 1, "mysim ${PROJECT} --fast")
	body = gen.scriptBody(env, "/tmp/case", "project.casa")
	if !containsStr(body, "mysim \"project.casa\"") && !containsStr(body, "mysim project.casa --fast") {
		tst.Errorf("generic script must substitute the project deck:\n%s", body)
	}
}

func containsStr(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
