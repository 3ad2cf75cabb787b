package link

import (
	"errors"
	"fmt"

	"chiaotu/internal/domain"
)

var (
	// ErrUnrecognized is returned when no decoder accepts a line.
	ErrUnrecognized = errors.New("unrecognized share link")

	errSchemeMismatch = errors.New("scheme mismatch")
)

// DecodeError describes why a decoder rejected a line.
type DecodeError struct {
	Protocol domain.ProtocolTag
	Stage    string // The decoding step that failed
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Protocol, e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(protocol domain.ProtocolTag, stage string, err error) error {
	return &DecodeError{
		Protocol: protocol,
		Stage:    stage,
		Err:      err,
	}
}
