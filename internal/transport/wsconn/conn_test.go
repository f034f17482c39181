package wsconn

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/gobwas/ws"
	"github.com/stretchr/testify/require"
)

// clientFrames encodes frames the way a browser sends them: masked.
func clientFrames(t *testing.T, frames ...ws.Frame) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	for _, f := range frames {
		require.NoError(t, ws.WriteFrame(&buf, ws.MaskFrameInPlace(f)))
	}

	return &buf
}

// newTestConn returns a Conn reading from r; the pipe is only used for writes.
func newTestConn(t *testing.T, r io.Reader, opts ...Option) (*Conn, net.Conn) {
	t.Helper()

	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})

	return NewConn(server, r, opts...), client
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()

	var re *ReadError
	require.ErrorAs(t, err, &re)
	require.Equal(t, kind, re.Kind, "error: %v", err)
	require.Equal(t, kind, KindOf(err))
}

// TestReadFrame_DataAndControl reads a fragmented binary message and control frames.
func TestReadFrame_DataAndControl(t *testing.T) {
	t.Parallel()

	r := clientFrames(t,
		ws.NewFrame(ws.OpBinary, false, []byte{1, 2}),
		ws.NewPingFrame([]byte("hi")),
		ws.NewFrame(ws.OpContinuation, true, []byte{3}),
		ws.NewTextFrame([]byte("héllo")),
		ws.NewCloseFrame(ws.NewCloseFrameBody(ws.StatusNormalClosure, "bye")),
	)
	c, _ := newTestConn(t, r)

	want := []Frame{
		{Kind: FrameBinary, Final: false, Payload: []byte{1, 2}},
		{Kind: FramePing, Final: true, Payload: []byte("hi")},
		{Kind: FrameContinuation, Final: true, Payload: []byte{3}},
		{Kind: FrameText, Final: true, Payload: []byte("héllo")},
		{Kind: FrameClose, Final: true, Payload: ws.NewCloseFrameBody(ws.StatusNormalClosure, "bye")},
	}

	for _, w := range want {
		got, err := c.ReadFrame()
		require.NoError(t, err)
		require.Equal(t, w, got)
	}

	_, err := c.ReadFrame()
	requireKind(t, err, KindEndOfStream)
}

// TestReadFrame_Violations maps malformed input onto error kinds.
func TestReadFrame_Violations(t *testing.T) {
	t.Parallel()

	var unmasked bytes.Buffer
	require.NoError(t, ws.WriteFrame(&unmasked, ws.NewBinaryFrame([]byte{1})))

	// 0x82: FIN+binary, 0xFF: masked with 64-bit length whose MSB is set.
	msb := []byte{0x82, 0xFF, 0x80, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0}

	cases := map[string]struct {
		input io.Reader
		kind  ErrorKind
	}{
		"unmasked client frame": {&unmasked, KindProtocolViolation},
		"length msb":            {bytes.NewReader(msb), KindMalformedFrame},
		"reserved opcode": {
			clientFrames(t, ws.NewFrame(ws.OpCode(0x3), true, nil)),
			KindProtocolViolation,
		},
		"continuation without start": {
			clientFrames(t, ws.NewFrame(ws.OpContinuation, true, []byte{1})),
			KindProtocolViolation,
		},
		"fragmented control": {
			clientFrames(t, ws.NewFrame(ws.OpPing, false, nil)),
			KindInvalidControlFrame,
		},
		"oversized control": {
			clientFrames(t, ws.NewPingFrame(make([]byte, 126))),
			KindInvalidControlFrame,
		},
		"truncated close": {
			clientFrames(t, ws.NewCloseFrame([]byte{0x03})),
			KindInvalidControlFrame,
		},
		"bad close code": {
			clientFrames(t, ws.NewCloseFrame(ws.NewCloseFrameBody(ws.StatusCode(999), ""))),
			KindInvalidControlFrame,
		},
		"bad close reason": {
			clientFrames(t, ws.NewCloseFrame(ws.NewCloseFrameBody(ws.StatusNormalClosure, "\xff\xfe"))),
			KindInvalidEncoding,
		},
		"bad text": {
			clientFrames(t, ws.NewTextFrame([]byte{0xff, 0xfe})),
			KindInvalidEncoding,
		},
		"partial header": {bytes.NewReader([]byte{0x82}), KindUnexpectedEOF},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, _ := newTestConn(t, tc.input)

			_, err := c.ReadFrame()
			requireKind(t, err, tc.kind)
		})
	}
}

// TestReadFrame_DataWhileFragmented rejects a new data frame inside a fragmented message.
func TestReadFrame_DataWhileFragmented(t *testing.T) {
	t.Parallel()

	r := clientFrames(t,
		ws.NewFrame(ws.OpBinary, false, []byte{1}),
		ws.NewBinaryFrame([]byte{2}),
	)
	c, _ := newTestConn(t, r)

	_, err := c.ReadFrame()
	require.NoError(t, err)

	_, err = c.ReadFrame()
	requireKind(t, err, KindProtocolViolation)
}

// TestReadFrame_PayloadLimit rejects frames above the configured limit.
func TestReadFrame_PayloadLimit(t *testing.T) {
	t.Parallel()

	r := clientFrames(t,
		ws.NewBinaryFrame([]byte{1, 2, 3, 4}),
		ws.NewBinaryFrame([]byte{1, 2, 3, 4, 5}),
	)
	c, _ := newTestConn(t, r, WithMaxPayload(4))

	_, err := c.ReadFrame()
	require.NoError(t, err)

	_, err = c.ReadFrame()
	requireKind(t, err, KindFrameTooLarge)
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

// TestReadFrame_TruncatedPayload reports EOF inside a payload as unexpected.
func TestReadFrame_TruncatedPayload(t *testing.T) {
	t.Parallel()

	full := clientFrames(t, ws.NewBinaryFrame(make([]byte, 17))).Bytes()
	c, _ := newTestConn(t, bytes.NewReader(full[:len(full)-3]))

	_, err := c.ReadFrame()
	requireKind(t, err, KindUnexpectedEOF)
}

// TestKindOf classifies foreign errors.
func TestKindOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, KindEndOfStream, KindOf(io.EOF))
	require.Equal(t, KindUnexpectedEOF, KindOf(io.ErrUnexpectedEOF))
	require.Equal(t, KindIO, KindOf(net.ErrClosed))
	require.Equal(t, KindIO, KindOf(errors.New("connection reset by peer")))
	require.Equal(t, KindMalformedFrame, KindOf(ws.ErrHeaderLengthUnexpected))
	require.Equal(t, KindProtocolViolation, KindOf(ws.ErrProtocolMaskRequired))
	require.Equal(t, KindInvalidEncoding, KindOf(ws.ErrProtocolInvalidUTF8))

	wrapped := &ReadError{Kind: KindFrameTooLarge, Err: io.EOF}
	require.Equal(t, KindFrameTooLarge, KindOf(wrapped))
}

// TestErrorKinds checks that every kind has a name and a close code.
func TestErrorKinds(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)

	for _, kind := range ErrorKinds() {
		name := kind.String()
		require.NotContains(t, name, "kind(")
		require.False(t, seen[name])

		seen[name] = true

		require.NotZero(t, CloseCodeFor(kind))
	}

	require.Equal(t, CloseInvalidPayload, CloseCodeFor(KindInvalidEncoding))
	require.Equal(t, CloseMessageTooBig, CloseCodeFor(KindFrameTooLarge))
	require.Equal(t, CloseProtocolError, CloseCodeFor(KindMalformedFrame))
}

// TestCloseWith sends a close frame the peer can parse, once.
func TestCloseWith(t *testing.T) {
	t.Parallel()

	c, client := newTestConn(t, bytes.NewReader(nil))

	type result struct {
		frame ws.Frame
		err   error
	}

	done := make(chan result, 1)

	go func() {
		f, err := ws.ReadFrame(client)
		done <- result{f, err}
	}()

	require.NoError(t, c.CloseWith(CloseNormal, "safe"))

	res := <-done
	require.NoError(t, res.err)
	require.Equal(t, ws.OpClose, res.frame.Header.OpCode)

	code, reason := ws.ParseCloseFrameData(res.frame.Payload)
	require.Equal(t, ws.StatusNormalClosure, code)
	require.Equal(t, "safe", reason)

	// Second call is a no-op.
	require.NoError(t, c.CloseWith(CloseProtocolError, "ignored"))
	require.NoError(t, c.Close())
}
