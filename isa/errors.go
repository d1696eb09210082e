package isa

import "errors"

// Sentinel errors shared by the assembler, the loader, and both
// execution engines. Every CLI layer reduces one of these (possibly
// wrapped with context) to a single "ERROR: <message>" line and exit
// code 1.
var (
	ErrInputMissing       = errors.New("input file argument missing")
	ErrIoFailure          = errors.New("could not read input file")
	ErrInvalidFile        = errors.New("input file malformed")
	ErrIllegalToken       = errors.New("illegal token")
	ErrMissingLabel       = errors.New("missing labels")
	ErrProgramTooLarge    = errors.New("program too large")
	ErrUnexpectedEOF      = errors.New("unexpected end of input")
	ErrInvalidInstruction = errors.New("invalid instruction")
)
