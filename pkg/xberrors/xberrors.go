// Package xberrors defines the error taxonomy shared by every xbiostool
// component. Components never return bare errors for expected failure
// modes; they wrap them in an *Error so callers can switch on Kind instead
// of matching message text.
package xberrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. Nothing is retried at the core; the caller is
// expected to rerun an operation with different parameters.
type Kind int

const (
	// Other is used for failures that don't fit a named kind below.
	Other Kind = iota
	// InvalidArgs means the caller supplied an incoherent combination of
	// parameters (e.g. a key was supplied for the wrong MCPX revision).
	InvalidArgs
	// InvalidImage means the file size is not a legal ROM size, or a
	// size field exceeds the buffer it is supposed to describe.
	InvalidImage
	// InvalidBldr means the 2BL boot-params signature or sizes failed
	// validation after every available decryption attempt.
	InvalidBldr
	// InvalidMcpx means a 512-byte MCPX dump matched none of the known
	// SHA-1 digests.
	InvalidMcpx
	// DecompressFailed / InvalidData means the LZX bitstream is malformed.
	DecompressFailed
	// InvalidData is a finer-grained alias of DecompressFailed used by
	// the LZX decoder for malformed bitstream structure specifically.
	InvalidData
	// BufferOverflow means a decoder's output exceeds its allocated
	// scratch space, or a formatted string exceeds its line buffer.
	BufferOverflow
	// OutOfMemory means an allocation was refused.
	OutOfMemory
	// IoError means a file was not readable or writable. The only library
	// function that reads a file is xcode.LoadSettingsINI; the CLI does
	// the rest of the file I/O.
	IoError
)

func (k Kind) String() string {
	switch k {
	case InvalidArgs:
		return "InvalidArgs"
	case InvalidImage:
		return "InvalidImage"
	case InvalidBldr:
		return "InvalidBldr"
	case InvalidMcpx:
		return "InvalidMcpx"
	case DecompressFailed:
		return "DecompressFailed"
	case InvalidData:
		return "InvalidData"
	case BufferOverflow:
		return "BufferOverflow"
	case OutOfMemory:
		return "OutOfMemory"
	case IoError:
		return "IoError"
	default:
		return "Other"
	}
}

// Error pairs a Kind with the operation that produced it and, optionally,
// an underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(op string, kind Kind, format string, args ...interface{}) *Error {
	var err error
	if format != "" {
		err = fmt.Errorf(format, args...)
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrap attaches op/kind context to an existing error.
func Wrap(op string, kind Kind, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind of err if it (or something it wraps) is an
// *Error; otherwise it returns Other.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}
