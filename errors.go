package qrcodec

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no usable symbol can be located in the
	// image: no contrast, no consistent finder patterns, or a missing
	// alignment pattern.
	ErrNotFound = errors.New("symbol not found")

	// ErrFormat is returned when the format or version information cannot
	// be corrected, or the sampled matrix does not have the expected shape.
	ErrFormat = errors.New("format error")

	// ErrUncorrectable is returned when a Reed-Solomon block holds more
	// errors than its error correction codewords can fix.
	ErrUncorrectable = errors.New("uncorrectable error")

	// ErrData is returned when the corrected bitstream contains an unknown
	// mode indicator or a segment that runs past the available bits.
	ErrData = errors.New("data error")

	// ErrChecksum is returned when a version number or error correction
	// level outside the legal range is passed to a constructor.
	ErrChecksum = errors.New("checksum error")

	// ErrWriter is returned when content cannot be encoded.
	ErrWriter = errors.New("writer error")
)

// Stage names the pipeline step that produced an error.
type Stage string

const (
	StageBinarizer   Stage = "binarizer"
	StageFinder      Stage = "finder"
	StageSampler     Stage = "sampler"
	StageFormat      Stage = "format"
	StageVersion     Stage = "version"
	StageCodewords   Stage = "codewords"
	StageReedSolomon Stage = "reedsolomon"
	StageBitstream   Stage = "bitstream"
	StageConstruct   Stage = "construct"
	StageEncoder     Stage = "encoder"
)

// StageError is a decode failure tagged with the stage that produced it
// and the value that stage rejected. It unwraps to one of the Err*
// sentinels above.
type StageError struct {
	Stage Stage
	Kind  error
	Value any
	Msg   string
}

// NewStageError returns a *StageError of the given kind. Value may be nil.
func NewStageError(stage Stage, kind error, value any, format string, args ...any) error {
	return &StageError{
		Stage: stage,
		Kind:  kind,
		Value: value,
		Msg:   fmt.Sprintf(format, args...),
	}
}

func (e *StageError) Error() string {
	s := fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Value != nil {
		s += fmt.Sprintf(" (value %v)", e.Value)
	}
	return s
}

func (e *StageError) Unwrap() error {
	return e.Kind
}

// StageOf returns the stage recorded in err, or "" when err carries none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
