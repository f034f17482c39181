package alarm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSentinelUpdate verifies the initial last-update value.
func TestSentinelUpdate(t *testing.T) {
	t.Parallel()

	u := SentinelUpdate()
	require.Equal(t, bytes.Repeat([]byte{0xFF}, UpdateSize), u[:])
	require.True(t, u.IsSentinel())
	require.Equal(t, "ffffffffffffffffffffffffffffffffff", u.String())
}

// TestParseUpdate checks size validation and that the payload is copied.
func TestParseUpdate(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, 1, UpdateSize - 1, UpdateSize + 1, 64} {
		_, err := ParseUpdate(make([]byte, size))
		require.ErrorIs(t, err, ErrUpdateSize, "size %d", size)
	}

	raw := make([]byte, UpdateSize)
	raw[0] = byte(CommandArm)
	raw[16] = 0x42

	u, err := ParseUpdate(raw)
	require.NoError(t, err)
	require.Equal(t, CommandArm, u.Command())
	require.Len(t, u.Payload(), UpdateSize-1)
	require.Equal(t, byte(0x42), u.Payload()[15])

	// Mutating the source must not leak into the update.
	raw[16] = 0
	require.Equal(t, byte(0x42), u[16])
	require.False(t, u.IsSentinel())
}

// TestCommand_String names known and unknown codes.
func TestCommand_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "arm", CommandArm.String())
	require.Equal(t, "command(9)", Command(9).String())
}
