package wsconn

import (
	"fmt"

	"github.com/gobwas/ws"
)

// FrameKind is the opcode of a frame.
type FrameKind uint8

// Frame kinds.
const (
	FrameContinuation FrameKind = iota + 1
	FrameText
	FrameBinary
	FrameClose
	FramePing
	FramePong
)

func (k FrameKind) String() string {
	switch k {
	case FrameContinuation:
		return "continuation"
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FrameClose:
		return "close"
	case FramePing:
		return "ping"
	case FramePong:
		return "pong"
	default:
		return fmt.Sprintf("frame(%d)", uint8(k))
	}
}

// frameKind maps an opcode that already passed ws.CheckHeader.
func frameKind(op ws.OpCode) FrameKind {
	switch op {
	case ws.OpContinuation:
		return FrameContinuation
	case ws.OpText:
		return FrameText
	case ws.OpBinary:
		return FrameBinary
	case ws.OpClose:
		return FrameClose
	case ws.OpPing:
		return FramePing
	case ws.OpPong:
		return FramePong
	default:
		return 0
	}
}

// Frame is one unmasked frame as delivered by the peer.
type Frame struct {
	Kind    FrameKind
	Final   bool
	Payload []byte
}

// CloseCode is a WebSocket close status code.
type CloseCode uint16

// Close codes sent by the gateway.
const (
	CloseNormal          CloseCode = CloseCode(ws.StatusNormalClosure)
	CloseGoingAway       CloseCode = CloseCode(ws.StatusGoingAway)
	CloseProtocolError   CloseCode = CloseCode(ws.StatusProtocolError)
	CloseUnsupportedData CloseCode = CloseCode(ws.StatusUnsupportedData)
	CloseInvalidPayload  CloseCode = CloseCode(ws.StatusInvalidFramePayloadData)
	CloseMessageTooBig   CloseCode = CloseCode(ws.StatusMessageTooBig)
)
