// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"metaview/internal/geo"
)

// Result is the outcome of extracting metadata from one file: either a
// record (with optional location) or a classified error, never both.
type Result struct {
	Filename string
	Format   string
	Record   *Record
	Location *geo.Coordinates
	Err      *ExtractionError
}

// Success builds a successful result
func Success(filename, format string, record *Record, location *geo.Coordinates) Result {
	if record == nil {
		record = NewRecord()
	}
	return Result{
		Filename: filename,
		Format:   format,
		Record:   record,
		Location: location,
	}
}

// Failure builds a failed result
func Failure(filename, format string, err *ExtractionError) Result {
	if err == nil {
		err = NewExtractionError(filename, format, ErrorKindInternal, "unknown error", nil)
	}
	return Result{
		Filename: filename,
		Format:   format,
		Err:      err,
	}
}

// FromError classifies err and builds a failed result
func FromError(filename, format string, err error) Result {
	return Failure(filename, format, Wrap(filename, format, err))
}

// IsError reports whether the extraction failed
func (r Result) IsError() bool {
	return r.Err != nil
}

// Kind returns the error kind, or the empty kind on success
func (r Result) Kind() ErrorKind {
	if r.Err == nil {
		return ""
	}
	return r.Err.Kind
}

// Message returns the display message for a failed result
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Message
}

// HasLocation reports whether GPS coordinates were derived
func (r Result) HasLocation() bool {
	return r.Err == nil && r.Location != nil
}

// Sentinel flattens the result into a single record. Failures become a
// record holding only the "Error" key.
func (r Result) Sentinel() *Record {
	if r.Err != nil {
		return ErrorRecord(r.Err.Message)
	}
	if r.Record == nil {
		return NewRecord()
	}
	return r.Record
}
