package processor

import (
	"errors"
	"fmt"
)

var (
	// ErrInputRead means the input file could not be opened or decoded.
	ErrInputRead = errors.New("input read failed")
	// ErrDimensionMismatch is reported when an embedding differs in length from
	// the first embedding of the run.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// InputReadError aborts a run before any record is processed.
type InputReadError struct {
	Path string
	Err  error
}

func (e *InputReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *InputReadError) Unwrap() error {
	return e.Err
}

func (e *InputReadError) Is(target error) bool {
	return target == ErrInputRead
}

// Stage is the processing step a record failed at.
type Stage string

const (
	StagePreprocess Stage = "preprocess"
	StageTokenize   Stage = "tokenize"
	StageChunk      Stage = "chunk"
	StageDetokenize Stage = "detokenize"
	StageEmbed      Stage = "embed"
)

// RecordFailure describes a record dropped from the output.
type RecordFailure struct {
	// Index of the record in the input
	Index int
	Stage Stage
	Err   error
}

func (f RecordFailure) Error() string {
	return fmt.Sprintf("record %d: %s: %v", f.Index, f.Stage, f.Err)
}

func (f RecordFailure) Unwrap() error {
	return f.Err
}
