package wsconn

import (
	"errors"
	"fmt"
	"io"

	"github.com/gobwas/ws"
)

// ErrorKind classifies a frame read failure.
type ErrorKind uint8

// Read failure kinds. Adding a kind requires a decision in every switch over
// ErrorKind, notably the session classifier.
const (
	// KindEndOfStream is a clean EOF between frames.
	KindEndOfStream ErrorKind = iota + 1
	// KindUnexpectedEOF is an EOF inside a frame.
	KindUnexpectedEOF
	// KindIO is any other failure of the underlying connection.
	KindIO
	// KindMalformedFrame is an undecodable frame header.
	KindMalformedFrame
	// KindInvalidEncoding is invalid UTF-8 in a text frame or close reason.
	KindInvalidEncoding
	// KindInvalidControlFrame is a control frame with an illegal shape or close code.
	KindInvalidControlFrame
	// KindProtocolViolation covers reserved opcodes and bits, masking and fragmentation order.
	KindProtocolViolation
	// KindFrameTooLarge is a data frame above the configured payload limit.
	KindFrameTooLarge
)

// ErrorKinds lists every ErrorKind.
func ErrorKinds() []ErrorKind {
	return []ErrorKind{
		KindEndOfStream,
		KindUnexpectedEOF,
		KindIO,
		KindMalformedFrame,
		KindInvalidEncoding,
		KindInvalidControlFrame,
		KindProtocolViolation,
		KindFrameTooLarge,
	}
}

func (k ErrorKind) String() string {
	switch k {
	case KindEndOfStream:
		return "end_of_stream"
	case KindUnexpectedEOF:
		return "unexpected_eof"
	case KindIO:
		return "io"
	case KindMalformedFrame:
		return "malformed_frame"
	case KindInvalidEncoding:
		return "invalid_encoding"
	case KindInvalidControlFrame:
		return "invalid_control_frame"
	case KindProtocolViolation:
		return "protocol_violation"
	case KindFrameTooLarge:
		return "frame_too_large"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var (
	// ErrFrameTooLarge is wrapped by KindFrameTooLarge errors.
	ErrFrameTooLarge = errors.New("frame payload exceeds limit")
	// ErrCloseTruncated is a close payload of exactly one byte.
	ErrCloseTruncated = errors.New("close frame payload truncated")
)

// ReadError is returned by ReadFrame.
type ReadError struct {
	Kind ErrorKind
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read frame (%s): %v", e.Kind, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err. Errors that are not a *ReadError are
// classified by their cause; anything unrecognised is KindIO.
func KindOf(err error) ErrorKind {
	var re *ReadError
	if errors.As(err, &re) {
		return re.Kind
	}

	var pe ws.ProtocolError

	switch {
	case errors.Is(err, io.EOF):
		return KindEndOfStream
	case errors.Is(err, io.ErrUnexpectedEOF):
		return KindUnexpectedEOF
	case errors.Is(err, ws.ErrHeaderLengthMSB), errors.Is(err, ws.ErrHeaderLengthUnexpected):
		return KindMalformedFrame
	case errors.Is(err, ErrFrameTooLarge):
		return KindFrameTooLarge
	case errors.Is(err, ErrCloseTruncated):
		return KindInvalidControlFrame
	case errors.As(err, &pe):
		return protocolErrorKind(pe)
	default:
		return KindIO
	}
}

func protocolErrorKind(pe ws.ProtocolError) ErrorKind {
	switch pe {
	case ws.ErrProtocolInvalidUTF8:
		return KindInvalidEncoding
	case ws.ErrProtocolControlPayloadOverflow,
		ws.ErrProtocolControlNotFinal,
		ws.ErrProtocolStatusCodeUnknown,
		ws.ErrProtocolStatusCodeNotInUse,
		ws.ErrProtocolStatusCodeApplicationLevel,
		ws.ErrProtocolStatusCodeNoMeaning:
		return KindInvalidControlFrame
	default:
		return KindProtocolViolation
	}
}

// wrap turns a low-level error into a *ReadError.
func wrap(err error) *ReadError {
	var re *ReadError
	if errors.As(err, &re) {
		return re
	}

	return &ReadError{Kind: KindOf(err), Err: err}
}

// CloseCodeFor returns the close code the gateway answers a read failure with.
func CloseCodeFor(kind ErrorKind) CloseCode {
	switch kind {
	case KindInvalidEncoding:
		return CloseInvalidPayload
	case KindFrameTooLarge:
		return CloseMessageTooBig
	case KindEndOfStream, KindUnexpectedEOF, KindIO:
		return CloseNormal
	case KindMalformedFrame, KindInvalidControlFrame, KindProtocolViolation:
		return CloseProtocolError
	default:
		return CloseProtocolError
	}
}
