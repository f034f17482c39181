package alarm

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// UpdateSize is the exact width of a steady-state binary message.
const UpdateSize = 17

// sentinelByte fills the last update until a valid one arrives.
const sentinelByte = 0xFF

var (
	// ErrUpdateSize is returned for binary payloads that are not UpdateSize long.
	ErrUpdateSize = errors.New("update has wrong size")
	// ErrUnknownCommand is returned for a command byte outside 0..3.
	ErrUnknownCommand = errors.New("unknown command code")
)

// Command is the first byte of an Update.
type Command byte

// Command codes understood by the gateway.
const (
	// CommandDisarm clears the defuse deadline.
	CommandDisarm Command = 0
	// CommandArm starts the defuse window unless already armed.
	CommandArm Command = 1
	// CommandAlert ends the session with an alert.
	CommandAlert Command = 2
	// CommandSafe ends the session without an alert.
	CommandSafe Command = 3
)

func (c Command) String() string {
	switch c {
	case CommandDisarm:
		return "disarm"
	case CommandArm:
		return "arm"
	case CommandAlert:
		return "alert"
	case CommandSafe:
		return "safe"
	default:
		return fmt.Sprintf("command(%d)", byte(c))
	}
}

// Update is one steady-state message, kept verbatim.
type Update [UpdateSize]byte

// SentinelUpdate returns the all-0xFF value used before any update arrived.
func SentinelUpdate() Update {
	var u Update
	for i := range u {
		u[i] = sentinelByte
	}

	return u
}

// ParseUpdate copies p into an Update. It fails only on size; the command
// byte is checked by Machine.Apply.
func ParseUpdate(p []byte) (Update, error) {
	var u Update
	if len(p) != UpdateSize {
		return u, fmt.Errorf("%w: got %d bytes, want %d", ErrUpdateSize, len(p), UpdateSize)
	}

	copy(u[:], p)

	return u, nil
}

// Command returns the command byte.
func (u Update) Command() Command {
	return Command(u[0])
}

// Payload returns the 16 opaque bytes after the command.
func (u Update) Payload() []byte {
	return u[1:]
}

// IsSentinel reports whether u is still the initial all-0xFF value.
func (u Update) IsSentinel() bool {
	return u == SentinelUpdate()
}

func (u Update) String() string {
	return hex.EncodeToString(u[:])
}
