// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package status implements the two-part error state carried by all core objects
package status

import "github.com/cpmech/gosl/io"

// Code is the kind of an error
type Code int

// error kinds
const (
	NoError Code = iota
	IoError
	MemAllocError
	NonexistingID
	UndefinedValue
	OutOfRangeValue
	NotImplementedAPI
	AlreadyDefined
	MutationError
	ValidationError
	MonteCarloSolverError
	RSProxyError
	SUMLibException
	RunManagerError
	RunManagerAborted
	WrongPath
	SerializationError
	DeserializationError
	UnknownError
)

var codenames = map[Code]string{
	NoError:               "NoError",
	IoError:               "IoError",
	MemAllocError:         "MemAllocError",
	NonexistingID:         "NonexistingID",
	UndefinedValue:        "UndefinedValue",
	OutOfRangeValue:       "OutOfRangeValue",
	NotImplementedAPI:     "NotImplementedAPI",
	AlreadyDefined:        "AlreadyDefined",
	MutationError:         "MutationError",
	ValidationError:       "ValidationError",
	MonteCarloSolverError: "MonteCarloSolverError",
	RSProxyError:          "RSProxyError",
	SUMLibException:       "SUMLibException",
	RunManagerError:       "RunManagerError",
	RunManagerAborted:     "RunManagerAborted",
	WrongPath:             "WrongPath",
	SerializationError:    "SerializationError",
	DeserializationError:  "DeserializationError",
	UnknownError:          "UnknownError",
}

// String returns the name of this error kind
func (o Code) String() string {
	if s, ok := codenames[o]; ok {
		return s
	}
	return "UnknownError"
}

// Error holds an error kind and a human readable message
type Error struct {
	Kind Code   // kind of error from the closed set
	Msg  string // human readable message
}

// Error implements the error interface
func (o *Error) Error() string {
	return io.Sf("%s: %s", o.Kind.String(), o.Msg)
}

// Err creates a new error with kind and formatted message
func Err(kind Code, msg string, prm ...interface{}) *Error {
	return &Error{Kind: kind, Msg: io.Sf(msg, prm...)}
}

// KindOf extracts the error kind from err. nil maps to NoError and
// foreign errors map to UnknownError
func KindOf(err error) Code {
	if err == nil {
		return NoError
	}
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return UnknownError
}

// Status is the error state embedded in all core objects. The zero value
// means "no error"
type Status struct {
	kind Code
	msg  string
}

// ReportError records the error state and returns it as an error
func (o *Status) ReportError(kind Code, msg string, prm ...interface{}) error {
	o.kind = kind
	o.msg = io.Sf(msg, prm...)
	return &Error{Kind: o.kind, Msg: o.msg}
}

// ReportErr records err on the object and passes it through. Successful
// operations (err == nil) clear the state
func (o *Status) ReportErr(err error) error {
	if err == nil {
		o.ClearError()
		return nil
	}
	o.kind = KindOf(err)
	o.msg = err.Error()
	return err
}

// ClearError resets the state to NoError
func (o *Status) ClearError() {
	o.kind = NoError
	o.msg = ""
}

// ErrorCode returns the recorded error kind
func (o *Status) ErrorCode() Code { return o.kind }

// ErrorMessage returns the recorded human readable message
func (o *Status) ErrorMessage() string { return o.msg }
