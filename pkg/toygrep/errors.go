package toygrep

import (
	"errors"
	"fmt"
	"os"
)

// Sentinel errors for common error conditions
var (
	// Configuration errors
	ErrInvalidConfig = errors.New("invalid config")
	ErrEmptyKeyword  = errors.New("empty keyword")

	// Input/output errors
	ErrOpenInput        = errors.New("open input failed")
	ErrStatInput        = errors.New("stat input failed")
	ErrMapInput         = errors.New("map input failed")
	ErrRangeOutOfBounds = errors.New("chunk range out of bounds")
	ErrOpenOutput       = errors.New("open output failed")
	ErrWriteOutput      = errors.New("write output failed")

	// Resource errors
	ErrStreamClosed   = errors.New("output stream closed")
	ErrExtractorPanic = errors.New("extractor panicked")

	// Collaborator errors
	ErrSortFailed  = errors.New("sort failed")
	ErrCountFailed = errors.New("count failed")

	// State machine errors
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Kind groups errors by the part of the run that produced them.
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindConfig       Kind = "config_error"
	KindIO           Kind = "io_error"
	KindResource     Kind = "resource_error"
	KindCollaborator Kind = "collaborator_error"
)

// StageError names the pipeline stage an error surfaced in.
type StageError struct {
	Stage string
	Kind  Kind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage string, err error) error {
	if err == nil {
		return nil
	}

	return &StageError{Stage: stage, Kind: KindOf(err), Err: err}
}

// KindOf classifies err using sentinel errors and standard library error types.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var se *StageError
	if errors.As(err, &se) && se.Kind != "" && se.Kind != KindUnknown {
		return se.Kind
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrEmptyKeyword):
		return KindConfig
	case errors.Is(err, ErrSortFailed), errors.Is(err, ErrCountFailed):
		return KindCollaborator
	case errors.Is(err, ErrStreamClosed), errors.Is(err, ErrExtractorPanic):
		return KindResource
	case errors.Is(err, ErrOpenInput), errors.Is(err, ErrStatInput),
		errors.Is(err, ErrMapInput), errors.Is(err, ErrRangeOutOfBounds),
		errors.Is(err, ErrOpenOutput), errors.Is(err, ErrWriteOutput):
		return KindIO
	}

	var perr *os.PathError
	if errors.As(err, &perr) {
		return KindIO
	}

	return KindUnknown
}
