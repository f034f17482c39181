package session

import (
	"errors"
	"fmt"

	"github.com/oshokin/alarm-gateway/internal/transport/wsconn"
)

var (
	// ErrUnexpectedFrame is a frame kind that is not allowed in the current phase.
	ErrUnexpectedFrame = errors.New("unexpected frame")
	// ErrFragmentedUpdate is a steady-state binary frame without the final flag.
	ErrFragmentedUpdate = errors.New("fragmented update")
)

// Phase is the protocol phase an error happened in.
type Phase uint8

// Protocol phases.
const (
	PhaseSetup Phase = iota + 1
	PhaseSteady
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseSteady:
		return "steady"
	default:
		return "unknown"
	}
}

// ViolationError is a fatal protocol error caused by frame content rather
// than by the transport.
type ViolationError struct {
	Phase Phase
	Err   error
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s phase: %v", e.Phase, e.Err)
}

func (e *ViolationError) Unwrap() error {
	return e.Err
}

func violation(phase Phase, err error) *ViolationError {
	return &ViolationError{Phase: phase, Err: err}
}

func unexpectedFrame(phase Phase, kind wsconn.FrameKind) *ViolationError {
	return violation(phase, fmt.Errorf("%w: %s", ErrUnexpectedFrame, kind))
}

// class is the outcome of classifying a transport read failure.
type class uint8

const (
	classFatal class = iota + 1
	classBenignClose
)

// classify maps every transport error kind to fatal or benign close.
func classify(kind wsconn.ErrorKind) class {
	switch kind {
	case wsconn.KindEndOfStream,
		wsconn.KindUnexpectedEOF,
		wsconn.KindIO:
		return classBenignClose
	case wsconn.KindMalformedFrame,
		wsconn.KindInvalidEncoding,
		wsconn.KindInvalidControlFrame,
		wsconn.KindProtocolViolation,
		wsconn.KindFrameTooLarge:
		return classFatal
	}

	panic(fmt.Sprintf("session: unclassified transport error kind %s", kind))
}
