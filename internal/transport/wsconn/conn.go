package wsconn

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gobwas/ws"
)

// DefaultMaxPayload bounds a single frame's payload.
const DefaultMaxPayload = 1 << 20

// Conn is the server side of an upgraded WebSocket connection.
// ReadFrame must not be called concurrently with itself; Close and
// CloseWith may be called from any goroutine.
type Conn struct {
	conn       net.Conn
	r          io.Reader
	maxPayload int64

	// fragmented is set between a non-final data frame and its final continuation.
	fragmented bool

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Conn.
type Option func(*Conn)

// WithMaxPayload overrides DefaultMaxPayload.
func WithMaxPayload(n int64) Option {
	return func(c *Conn) {
		if n > 0 {
			c.maxPayload = n
		}
	}
}

// Upgrade performs the server handshake on an HTTP request and hijacks its
// connection.
func Upgrade(w http.ResponseWriter, r *http.Request, timeout time.Duration, opts ...Option) (*Conn, error) {
	upgrader := ws.HTTPUpgrader{Timeout: timeout}

	conn, rw, _, err := upgrader.Upgrade(r, w)
	if err != nil {
		return nil, fmt.Errorf("upgrade: %w", err)
	}

	var reader io.Reader = conn
	if rw != nil && rw.Reader != nil {
		reader = rw.Reader
	}

	return NewConn(conn, reader, opts...), nil
}

// NewConn wraps an already upgraded connection. Reads go through r, which
// may hold bytes buffered during the handshake; nil means read from conn.
func NewConn(conn net.Conn, r io.Reader, opts ...Option) *Conn {
	if r == nil {
		r = bufio.NewReader(conn)
	}

	c := &Conn{
		conn:       conn,
		r:          r,
		maxPayload: DefaultMaxPayload,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ReadFrame reads, validates and unmasks the next frame.
func (c *Conn) ReadFrame() (Frame, error) {
	h, err := ws.ReadHeader(c.r)
	if err != nil {
		return Frame{}, wrap(err)
	}

	state := ws.StateServerSide
	if c.fragmented {
		state = state.Set(ws.StateFragmented)
	}

	if err = ws.CheckHeader(h, state); err != nil {
		return Frame{}, wrap(err)
	}

	if h.Length > c.maxPayload {
		return Frame{}, &ReadError{
			Kind: KindFrameTooLarge,
			Err:  fmt.Errorf("%w: %d > %d bytes", ErrFrameTooLarge, h.Length, c.maxPayload),
		}
	}

	payload := make([]byte, h.Length)
	if _, err = io.ReadFull(c.r, payload); err != nil {
		if err == io.EOF { //nolint:errorlint // ReadFull returns io.EOF unwrapped.
			err = io.ErrUnexpectedEOF
		}

		return Frame{}, wrap(err)
	}

	if h.Masked {
		ws.Cipher(payload, h.Mask, 0)
	}

	if err = checkPayload(h, payload); err != nil {
		return Frame{}, wrap(err)
	}

	if !h.OpCode.IsControl() {
		c.fragmented = !h.Fin
	}

	return Frame{
		Kind:    frameKind(h.OpCode),
		Final:   h.Fin,
		Payload: payload,
	}, nil
}

// checkPayload validates what CheckHeader cannot see.
func checkPayload(h ws.Header, payload []byte) error {
	switch h.OpCode {
	case ws.OpClose:
		if len(payload) == 1 {
			return ErrCloseTruncated
		}

		if len(payload) == 0 {
			return nil
		}

		code, reason := ws.ParseCloseFrameData(payload)

		return ws.CheckCloseFrameData(code, reason)
	case ws.OpText:
		if h.Fin && !utf8.Valid(payload) {
			return ws.ErrProtocolInvalidUTF8
		}
	}

	return nil
}

// CloseWith sends a close frame and closes the connection. Only the first
// call has an effect.
func (c *Conn) CloseWith(code CloseCode, reason string) error {
	c.closeOnce.Do(func() {
		body := ws.NewCloseFrameBody(ws.StatusCode(code), reason)
		writeErr := ws.WriteFrame(c.conn, ws.NewCloseFrame(body))

		c.closeErr = c.conn.Close()
		if writeErr != nil {
			c.closeErr = fmt.Errorf("write close frame: %w", writeErr)
		}
	})

	return c.closeErr
}

// Close closes the connection without a close frame.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})

	return c.closeErr
}
