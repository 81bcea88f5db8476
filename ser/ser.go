// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package ser implements the versioned scenario persistence formats. Two
// byte-exact formats are supported: a human readable whitespace separated
// text format ("TxtSerializer") and a gzip compressed binary format
// ("BinSerializer"). Every primitive record carries its type tag and field
// name; objects are introduced by a <type> <name> <version> record.
package ser

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cpmech/gosl/io"

	"github.com/cpmech/casa/status"
)

// format magic headers
const (
	TxtMagic = "TxtSerializer"
	BinMagic = "BinSerializer"
)

// FormatVersion is the version of the container format itself
const FormatVersion = 1

// compact type ids used by the binary format
const (
	tagObj byte = iota
	tagBool
	tagInt
	tagFloat
	tagString
	tagInts
	tagFloats
	tagStrings
)

var tagnames = []string{"obj", "bool", "int", "float", "string", "ints", "floats", "strings"}

// Writer writes tagged records to one of the two persistence formats
type Writer struct {
	bin  bool
	txt  *bufio.Writer
	gz   *gzip.Writer
	base *os.File
}

// NewWriter creates a file-backed writer. binary selects the gzip compressed
// format; otherwise the text format is used
func NewWriter(path string, binary bool) (o *Writer, err error) {
	if err = os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return nil, status.Err(status.IoError, "cannot create directory for %q: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, status.Err(status.IoError, "cannot create %q: %v", path, err)
	}
	o = &Writer{bin: binary, base: f}
	if binary {
		o.gz = gzip.NewWriter(f)
		if err = o.writeBinString(BinMagic); err != nil {
			return nil, err
		}
		if err = o.writeBinInt(FormatVersion); err != nil {
			return nil, err
		}
		return o, nil
	}
	o.txt = bufio.NewWriter(f)
	_, err = o.txt.WriteString(io.Sf("%s %d\n", TxtMagic, FormatVersion))
	return o, err
}

// Close flushes and closes the underlying file
func (o *Writer) Close() (err error) {
	if o.bin {
		if err = o.gz.Close(); err != nil {
			return status.Err(status.IoError, "cannot close gzip stream: %v", err)
		}
	} else {
		if err = o.txt.Flush(); err != nil {
			return status.Err(status.IoError, "cannot flush text stream: %v", err)
		}
	}
	return o.base.Close()
}

// low level binary writes

func (o *Writer) writeBinString(s string) error {
	b := []byte(s)
	if err := o.writeBinInt(len(b)); err != nil {
		return err
	}
	if _, err := o.gz.Write(b); err != nil {
		return status.Err(status.SerializationError, "cannot write string: %v", err)
	}
	return nil
}

func (o *Writer) writeBinInt(v int) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutVarint(buf[:], int64(v))
	if _, err := o.gz.Write(buf[:n]); err != nil {
		return status.Err(status.SerializationError, "cannot write int: %v", err)
	}
	return nil
}

func (o *Writer) writeBinFloat(v float64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	if _, err := o.gz.Write(buf[:]); err != nil {
		return status.Err(status.SerializationError, "cannot write float: %v", err)
	}
	return nil
}

func (o *Writer) record(tag byte, name string) error {
	if o.bin {
		if _, err := o.gz.Write([]byte{tag}); err != nil {
			return status.Err(status.SerializationError, "cannot write tag: %v", err)
		}
		return o.writeBinString(name)
	}
	_, err := o.txt.WriteString(io.Sf("%s %s", tagnames[tag], name))
	return err
}

// Obj writes an object header record: <type> <name> <version>
func (o *Writer) Obj(typeName, objName string, version int) error {
	if err := o.record(tagObj, typeName); err != nil {
		return err
	}
	if o.bin {
		if err := o.writeBinString(objName); err != nil {
			return err
		}
		return o.writeBinInt(version)
	}
	_, err := o.txt.WriteString(io.Sf(" %s %d\n", objName, version))
	return err
}

// Bool writes a named boolean
func (o *Writer) Bool(name string, v bool) error {
	if err := o.record(tagBool, name); err != nil {
		return err
	}
	if o.bin {
		i := 0
		if v {
			i = 1
		}
		return o.writeBinInt(i)
	}
	_, err := o.txt.WriteString(io.Sf(" %v\n", v))
	return err
}

// Int writes a named integer
func (o *Writer) Int(name string, v int) error {
	if err := o.record(tagInt, name); err != nil {
		return err
	}
	if o.bin {
		return o.writeBinInt(v)
	}
	_, err := o.txt.WriteString(io.Sf(" %d\n", v))
	return err
}

// Float writes a named float
func (o *Writer) Float(name string, v float64) error {
	if err := o.record(tagFloat, name); err != nil {
		return err
	}
	if o.bin {
		return o.writeBinFloat(v)
	}
	_, err := o.txt.WriteString(io.Sf(" %s\n", strconv.FormatFloat(v, 'g', 17, 64)))
	return err
}

// String writes a named string
func (o *Writer) String(name string, v string) error {
	if err := o.record(tagString, name); err != nil {
		return err
	}
	if o.bin {
		return o.writeBinString(v)
	}
	_, err := o.txt.WriteString(io.Sf(" %q\n", v))
	return err
}

// Ints writes a named integer vector: length then elements
func (o *Writer) Ints(name string, v []int) error {
	if err := o.record(tagInts, name); err != nil {
		return err
	}
	if o.bin {
		if err := o.writeBinInt(len(v)); err != nil {
			return err
		}
		for _, x := range v {
			if err := o.writeBinInt(x); err != nil {
				return err
			}
		}
		return nil
	}
	o.txt.WriteString(io.Sf(" %d", len(v)))
	for _, x := range v {
		o.txt.WriteString(io.Sf(" %d", x))
	}
	_, err := o.txt.WriteString("\n")
	return err
}

// Floats writes a named float vector: length then elements
func (o *Writer) Floats(name string, v []float64) error {
	if err := o.record(tagFloats, name); err != nil {
		return err
	}
	if o.bin {
		if err := o.writeBinInt(len(v)); err != nil {
			return err
		}
		for _, x := range v {
			if err := o.writeBinFloat(x); err != nil {
				return err
			}
		}
		return nil
	}
	o.txt.WriteString(io.Sf(" %d", len(v)))
	for _, x := range v {
		o.txt.WriteString(io.Sf(" %s", strconv.FormatFloat(x, 'g', 17, 64)))
	}
	_, err := o.txt.WriteString("\n")
	return err
}

// Strings writes a named string vector: length then elements
func (o *Writer) Strings(name string, v []string) error {
	if err := o.record(tagStrings, name); err != nil {
		return err
	}
	if o.bin {
		if err := o.writeBinInt(len(v)); err != nil {
			return err
		}
		for _, x := range v {
			if err := o.writeBinString(x); err != nil {
				return err
			}
		}
		return nil
	}
	o.txt.WriteString(io.Sf(" %d", len(v)))
	for _, x := range v {
		o.txt.WriteString(io.Sf(" %q", x))
	}
	_, err := o.txt.WriteString("\n")
	return err
}

// Reader reads tagged records back. The format is detected from the first
// bytes of the file: a gzip stream means the binary format
type Reader struct {
	bin  bool
	txt  *tokenReader
	gz   *gzip.Reader
	base *os.File
}

// NewReader opens path and detects the persistence format
func NewReader(path string) (o *Reader, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, status.Err(status.IoError, "cannot open %q: %v", path, err)
	}
	o = &Reader{base: f}
	var sniff [2]byte
	if _, err = f.Read(sniff[:]); err != nil {
		f.Close()
		return nil, status.Err(status.DeserializationError, "cannot read header of %q: %v", path, err)
	}
	if _, err = f.Seek(0, 0); err != nil {
		f.Close()
		return nil, status.Err(status.IoError, "cannot rewind %q: %v", path, err)
	}
	if sniff[0] == 0x1f && sniff[1] == 0x8b {
		o.bin = true
		if o.gz, err = gzip.NewReader(f); err != nil {
			f.Close()
			return nil, status.Err(status.DeserializationError, "cannot open gzip stream of %q: %v", path, err)
		}
		magic, err := o.readBinString()
		if err != nil {
			return nil, err
		}
		if magic != BinMagic {
			return nil, status.Err(status.DeserializationError, "wrong magic header %q", magic)
		}
		fver, err := o.readBinInt()
		if err != nil {
			return nil, err
		}
		if fver > FormatVersion {
			return nil, status.Err(status.DeserializationError, "file format version %d is newer than known version %d", fver, FormatVersion)
		}
		return o, nil
	}
	o.txt = newTokenReader(bufio.NewReader(f))
	magic, err := o.txt.token()
	if err != nil {
		return nil, status.Err(status.DeserializationError, "cannot read magic header: %v", err)
	}
	if magic != TxtMagic {
		return nil, status.Err(status.DeserializationError, "wrong magic header %q", magic)
	}
	fver, err := o.txt.intval()
	if err != nil {
		return nil, err
	}
	if fver > FormatVersion {
		return nil, status.Err(status.DeserializationError, "file format version %d is newer than known version %d", fver, FormatVersion)
	}
	return o, nil
}

// Close closes the underlying file
func (o *Reader) Close() error {
	if o.bin {
		o.gz.Close()
	}
	return o.base.Close()
}

// low level binary reads

func (o *Reader) readBinByte() (byte, error) {
	var b [1]byte
	if _, err := goioReadFull(o.gz, b[:]); err != nil {
		return 0, status.Err(status.DeserializationError, "unexpected end of binary stream: %v", err)
	}
	return b[0], nil
}

func (o *Reader) readBinInt() (int, error) {
	v, err := binary.ReadVarint(byteReaderFn(o.readBinByte))
	if err != nil {
		return 0, status.Err(status.DeserializationError, "cannot read int: %v", err)
	}
	return int(v), nil
}

func (o *Reader) readBinFloat() (float64, error) {
	var b [8]byte
	if _, err := goioReadFull(o.gz, b[:]); err != nil {
		return 0, status.Err(status.DeserializationError, "cannot read float: %v", err)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b[:])), nil
}

func (o *Reader) readBinString() (string, error) {
	n, err := o.readBinInt()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", status.Err(status.DeserializationError, "negative string length %d", n)
	}
	b := make([]byte, n)
	if _, err := goioReadFull(o.gz, b); err != nil {
		return "", status.Err(status.DeserializationError, "cannot read string: %v", err)
	}
	return string(b), nil
}

// expect reads the next record header and checks tag and field name
func (o *Reader) expect(tag byte, name string) error {
	if o.bin {
		t, err := o.readBinByte()
		if err != nil {
			return err
		}
		if t != tag {
			return status.Err(status.DeserializationError, "expected %s record, got %s", tagnames[tag], tagnames[t])
		}
		n, err := o.readBinString()
		if err != nil {
			return err
		}
		if n != name {
			return status.Err(status.DeserializationError, "expected field %q, got %q", name, n)
		}
		return nil
	}
	t, err := o.txt.token()
	if err != nil {
		return status.Err(status.DeserializationError, "unexpected end of stream reading %q: %v", name, err)
	}
	if t != tagnames[tag] {
		return status.Err(status.DeserializationError, "expected %s record, got %q", tagnames[tag], t)
	}
	n, err := o.txt.token()
	if err != nil {
		return err
	}
	if n != name {
		return status.Err(status.DeserializationError, "expected field %q, got %q", name, n)
	}
	return nil
}

// Obj reads an object header and verifies the type name. The stored version
// must not exceed knownVer; forward compatibility is rejected
func (o *Reader) Obj(typeName string, knownVer int) (objName string, version int, err error) {
	if o.bin {
		t, err := o.readBinByte()
		if err != nil {
			return "", 0, err
		}
		if t != tagObj {
			return "", 0, status.Err(status.DeserializationError, "expected obj record, got %s", tagnames[t])
		}
		tn, err := o.readBinString()
		if err != nil {
			return "", 0, err
		}
		if tn != typeName {
			return "", 0, status.Err(status.DeserializationError, "expected object type %q, got %q", typeName, tn)
		}
		if objName, err = o.readBinString(); err != nil {
			return "", 0, err
		}
		if version, err = o.readBinInt(); err != nil {
			return "", 0, err
		}
	} else {
		t, err := o.txt.token()
		if err != nil {
			return "", 0, status.Err(status.DeserializationError, "unexpected end of stream reading object %q: %v", typeName, err)
		}
		if t != "obj" {
			return "", 0, status.Err(status.DeserializationError, "expected obj record, got %q", t)
		}
		tn, err := o.txt.token()
		if err != nil {
			return "", 0, err
		}
		if tn != typeName {
			return "", 0, status.Err(status.DeserializationError, "expected object type %q, got %q", typeName, tn)
		}
		if objName, err = o.txt.token(); err != nil {
			return "", 0, err
		}
		if version, err = o.txt.intval(); err != nil {
			return "", 0, err
		}
	}
	if version > knownVer {
		return "", 0, status.Err(status.DeserializationError, "object %q version %d is newer than known version %d", typeName, version, knownVer)
	}
	return objName, version, nil
}

// PeekObjType reads the next object header without checking the type name.
// Used by factory-table based deserialization
func (o *Reader) PeekObjType() (typeName, objName string, version int, err error) {
	if o.bin {
		t, err := o.readBinByte()
		if err != nil {
			return "", "", 0, err
		}
		if t != tagObj {
			return "", "", 0, status.Err(status.DeserializationError, "expected obj record, got %s", tagnames[t])
		}
		if typeName, err = o.readBinString(); err != nil {
			return "", "", 0, err
		}
		if objName, err = o.readBinString(); err != nil {
			return "", "", 0, err
		}
		if version, err = o.readBinInt(); err != nil {
			return "", "", 0, err
		}
		return typeName, objName, version, nil
	}
	t, err := o.txt.token()
	if err != nil {
		return "", "", 0, status.Err(status.DeserializationError, "unexpected end of stream reading object header: %v", err)
	}
	if t != "obj" {
		return "", "", 0, status.Err(status.DeserializationError, "expected obj record, got %q", t)
	}
	if typeName, err = o.txt.token(); err != nil {
		return "", "", 0, err
	}
	if objName, err = o.txt.token(); err != nil {
		return "", "", 0, err
	}
	if version, err = o.txt.intval(); err != nil {
		return "", "", 0, err
	}
	return typeName, objName, version, nil
}

// Bool reads a named boolean
func (o *Reader) Bool(name string) (bool, error) {
	if err := o.expect(tagBool, name); err != nil {
		return false, err
	}
	if o.bin {
		v, err := o.readBinInt()
		return v != 0, err
	}
	t, err := o.txt.token()
	if err != nil {
		return false, err
	}
	return t == "true", nil
}

// Int reads a named integer
func (o *Reader) Int(name string) (int, error) {
	if err := o.expect(tagInt, name); err != nil {
		return 0, err
	}
	if o.bin {
		return o.readBinInt()
	}
	return o.txt.intval()
}

// Float reads a named float
func (o *Reader) Float(name string) (float64, error) {
	if err := o.expect(tagFloat, name); err != nil {
		return 0, err
	}
	if o.bin {
		return o.readBinFloat()
	}
	return o.txt.floatval()
}

// String reads a named string
func (o *Reader) String(name string) (string, error) {
	if err := o.expect(tagString, name); err != nil {
		return "", err
	}
	if o.bin {
		return o.readBinString()
	}
	return o.txt.quoted()
}

// Ints reads a named integer vector
func (o *Reader) Ints(name string) ([]int, error) {
	if err := o.expect(tagInts, name); err != nil {
		return nil, err
	}
	var n int
	var err error
	if o.bin {
		n, err = o.readBinInt()
	} else {
		n, err = o.txt.intval()
	}
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, status.Err(status.DeserializationError, "negative vector length %d", n)
	}
	v := make([]int, n)
	for i := 0; i < n; i++ {
		if o.bin {
			v[i], err = o.readBinInt()
		} else {
			v[i], err = o.txt.intval()
		}
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Floats reads a named float vector
func (o *Reader) Floats(name string) ([]float64, error) {
	if err := o.expect(tagFloats, name); err != nil {
		return nil, err
	}
	var n int
	var err error
	if o.bin {
		n, err = o.readBinInt()
	} else {
		n, err = o.txt.intval()
	}
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, status.Err(status.DeserializationError, "negative vector length %d", n)
	}
	v := make([]float64, n)
	for i := 0; i < n; i++ {
		if o.bin {
			v[i], err = o.readBinFloat()
		} else {
			v[i], err = o.txt.floatval()
		}
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Strings reads a named string vector
func (o *Reader) Strings(name string) ([]string, error) {
	if err := o.expect(tagStrings, name); err != nil {
		return nil, err
	}
	var n int
	var err error
	if o.bin {
		n, err = o.readBinInt()
	} else {
		n, err = o.txt.intval()
	}
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, status.Err(status.DeserializationError, "negative vector length %d", n)
	}
	v := make([]string, n)
	for i := 0; i < n; i++ {
		if o.bin {
			v[i], err = o.readBinString()
		} else {
			v[i], err = o.txt.quoted()
		}
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// tokenReader splits the text format into whitespace separated tokens,
// honouring quoted strings
type tokenReader struct {
	r *bufio.Reader
}

func newTokenReader(r *bufio.Reader) *tokenReader {
	return &tokenReader{r: r}
}

func (o *tokenReader) skipSpace() (byte, error) {
	for {
		b, err := o.r.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != ' ' && b != '\n' && b != '\r' && b != '\t' {
			return b, nil
		}
	}
}

func (o *tokenReader) token() (string, error) {
	b, err := o.skipSpace()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteByte(b)
	for {
		b, err = o.r.ReadByte()
		if err != nil {
			break
		}
		if b == ' ' || b == '\n' || b == '\r' || b == '\t' {
			break
		}
		sb.WriteByte(b)
	}
	return sb.String(), nil
}

// quoted reads a token written with %q
func (o *tokenReader) quoted() (string, error) {
	b, err := o.skipSpace()
	if err != nil {
		return "", status.Err(status.DeserializationError, "unexpected end of stream reading string: %v", err)
	}
	if b != '"' {
		return "", status.Err(status.DeserializationError, "expected quoted string, got %q", string(b))
	}
	var sb strings.Builder
	sb.WriteByte(b)
	escaped := false
	for {
		b, err = o.r.ReadByte()
		if err != nil {
			return "", status.Err(status.DeserializationError, "unterminated string: %v", err)
		}
		sb.WriteByte(b)
		if escaped {
			escaped = false
			continue
		}
		if b == '\\' {
			escaped = true
			continue
		}
		if b == '"' {
			break
		}
	}
	return strconv.Unquote(sb.String())
}

func (o *tokenReader) intval() (int, error) {
	t, err := o.token()
	if err != nil {
		return 0, status.Err(status.DeserializationError, "unexpected end of stream reading int: %v", err)
	}
	v, err := strconv.Atoi(t)
	if err != nil {
		return 0, status.Err(status.DeserializationError, "invalid int %q", t)
	}
	return v, nil
}

func (o *tokenReader) floatval() (float64, error) {
	t, err := o.token()
	if err != nil {
		return 0, status.Err(status.DeserializationError, "unexpected end of stream reading float: %v", err)
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, status.Err(status.DeserializationError, "invalid float %q", t)
	}
	return v, nil
}
