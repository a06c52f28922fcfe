package eos

import (
	"errors"
	"fmt"
)

// ErrMalformedExport matches every *MalformedExportError.
var ErrMalformedExport = errors.New("malformed Eos export")

// MalformedExportError reports an export that lacks the target markers or
// has a row that cannot be decoded. Row is the one-based data row after the
// header, zero when the problem is not tied to a row.
type MalformedExportError struct {
	Row    int
	Reason string
	Err    error
}

func (e *MalformedExportError) Error() string {
	msg := "malformed Eos export: " + e.Reason
	if e.Row > 0 {
		msg = fmt.Sprintf("malformed Eos export at row %d: %s", e.Row, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg + " - is this an Eos CSV export that includes targets?"
}

func (e *MalformedExportError) Is(target error) bool {
	return target == ErrMalformedExport
}

func (e *MalformedExportError) Unwrap() error {
	return e.Err
}
