// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/casa/status"
)

func writeAll(w *Writer) (err error) {
	if err = w.Obj("Thing", "thing1", 3); err != nil {
		return
	}
	if err = w.Bool("Flag", true); err != nil {
		return
	}
	if err = w.Int("Count", -42); err != nil {
		return
	}
	if err = w.Float("Value", 2.0500000000000001); err != nil {
		return
	}
	if err = w.String("Label", "top crust \"heat\" prod"); err != nil {
		return
	}
	if err = w.Ints("Idx", []int{3, 1, 2}); err != nil {
		return
	}
	if err = w.Floats("Vals", []float64{0.1, 4.0, 2.05}); err != nil {
		return
	}
	return w.Strings("Names", []string{"a b", "c"})
}

func readAll(tst *testing.T, r *Reader) {
	name, ver, err := r.Obj("Thing", 3)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.String(tst, name, "thing1")
	chk.IntAssert(ver, 3)
	b, err := r.Bool("Flag")
	if err != nil || !b {
		tst.Errorf("bool round trip failed: %v %v", b, err)
		return
	}
	i, err := r.Int("Count")
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.IntAssert(i, -42)
	f, err := r.Float("Value")
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.Float64(tst, "float", 1e-17, f, 2.0500000000000001)
	s, err := r.String("Label")
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.String(tst, s, "top crust \"heat\" prod")
	iv, err := r.Ints("Idx")
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.Ints(tst, "ints", iv, []int{3, 1, 2})
	fv, err := r.Floats("Vals")
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.Array(tst, "floats", 1e-17, fv, []float64{0.1, 4.0, 2.05})
	sv, err := r.Strings("Names")
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	chk.Strings(tst, "strings", sv, []string{"a b", "c"})
}

func Test_ser01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ser01. text format round trip")

	dir := tst.TempDir()
	path := filepath.Join(dir, "thing.casa")
	w, err := NewWriter(path, false)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if err = writeAll(w); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if err = w.Close(); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}

	b, _ := os.ReadFile(path)
	if len(b) == 0 || string(b[:13]) != TxtMagic {
		tst.Errorf("text file must start with magic header, got %q", string(b[:13]))
		return
	}

	r, err := NewReader(path)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	defer r.Close()
	readAll(tst, r)
}

func Test_ser02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ser02. binary format round trip")

	dir := tst.TempDir()
	path := filepath.Join(dir, "thing.casab")
	w, err := NewWriter(path, true)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if err = writeAll(w); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if err = w.Close(); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}

	// gzip magic
	b, _ := os.ReadFile(path)
	if len(b) < 2 || b[0] != 0x1f || b[1] != 0x8b {
		tst.Errorf("binary file must be gzip compressed")
		return
	}

	r, err := NewReader(path)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	defer r.Close()
	readAll(tst, r)
}

func Test_ser03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ser03. forward compatibility is rejected")

	dir := tst.TempDir()
	path := filepath.Join(dir, "future.casa")
	w, err := NewWriter(path, false)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	if err = w.Obj("Thing", "thing1", 99); err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	w.Close()

	r, err := NewReader(path)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	defer r.Close()
	_, _, err = r.Obj("Thing", 3)
	if err == nil {
		tst.Errorf("reading an object with a newer version must fail")
		return
	}
	if status.KindOf(err) != status.DeserializationError {
		tst.Errorf("expected DeserializationError, got %v", status.KindOf(err))
	}
}

func Test_ser04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ser04. field name mismatch is detected")

	dir := tst.TempDir()
	path := filepath.Join(dir, "bad.casa")
	w, _ := NewWriter(path, false)
	w.Float("Value", 1.5)
	w.Close()

	r, err := NewReader(path)
	if err != nil {
		tst.Errorf("test failed:\n%v", err)
		return
	}
	defer r.Close()
	if _, err = r.Float("Other"); err == nil {
		tst.Errorf("reading a mismatched field name must fail")
	}
}
