package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func update(cmd Command, fill byte) Update {
	var u Update

	u[0] = byte(cmd)
	for i := 1; i < UpdateSize; i++ {
		u[i] = fill
	}

	return u
}

// TestMachine_Initial verifies a fresh machine is idle with the sentinel update.
func TestMachine_Initial(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	require.IsType(t, Idle{}, m.State())
	require.False(t, m.Armed())
	require.True(t, m.LastUpdate().IsSentinel())

	_, ok := m.DefuseDeadline()
	require.False(t, ok)
}

// TestMachine_ArmIsIdempotent ensures re-arming keeps the first deadline.
func TestMachine_ArmIsIdempotent(t *testing.T) {
	t.Parallel()

	start := time.Unix(1_700_000_000, 0)
	m := NewMachine()

	v, err := m.Apply(update(CommandArm, 1), start)
	require.NoError(t, err)
	require.False(t, v.Done)

	deadline, ok := m.DefuseDeadline()
	require.True(t, ok)
	require.Equal(t, start.Add(DefuseTimeout), deadline)

	_, err = m.Apply(update(CommandArm, 2), start.Add(3*time.Second))
	require.NoError(t, err)

	again, ok := m.DefuseDeadline()
	require.True(t, ok)
	require.Equal(t, deadline, again)
	require.Equal(t, update(CommandArm, 2), m.LastUpdate())
}

// TestMachine_Disarm clears the deadline and allows a fresh arm later.
func TestMachine_Disarm(t *testing.T) {
	t.Parallel()

	start := time.Unix(1_700_000_000, 0)
	m := NewMachine()

	_, err := m.Apply(update(CommandArm, 0), start)
	require.NoError(t, err)

	_, err = m.Apply(update(CommandDisarm, 0), start.Add(time.Second))
	require.NoError(t, err)
	require.False(t, m.Armed())
	require.Equal(t, Idle{}, m.State())

	_, err = m.Apply(update(CommandArm, 0), start.Add(5*time.Second))
	require.NoError(t, err)

	deadline, ok := m.DefuseDeadline()
	require.True(t, ok)
	require.Equal(t, start.Add(5*time.Second+DefuseTimeout), deadline)
}

// TestMachine_TerminalCommands covers alert and safe regardless of armed state.
func TestMachine_TerminalCommands(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)

	for _, armed := range []bool{false, true} {
		m := NewMachine()
		if armed {
			_, err := m.Apply(update(CommandArm, 0), now)
			require.NoError(t, err)
		}

		v, err := m.Apply(update(CommandAlert, 7), now)
		require.NoError(t, err)
		require.True(t, v.Done)
		require.True(t, v.Outcome.Alert)
		require.Equal(t, ReasonManualAlert, v.Outcome.Reason)
		require.Equal(t, armed, v.Outcome.WasArmed)
		require.Equal(t, update(CommandAlert, 7), v.Outcome.LastUpdate)

		v, err = m.Apply(update(CommandSafe, 8), now)
		require.NoError(t, err)
		require.True(t, v.Done)
		require.False(t, v.Outcome.Alert)
		require.Equal(t, ReasonManualSafe, v.Outcome.Reason)
	}
}

// TestMachine_UnknownCommand rejects codes outside 0..3.
func TestMachine_UnknownCommand(t *testing.T) {
	t.Parallel()

	m := NewMachine()

	v, err := m.Apply(update(Command(4), 0), time.Now())
	require.ErrorIs(t, err, ErrUnknownCommand)
	require.False(t, v.Done)
}

// TestMachine_Finish always alerts and reports the last update.
func TestMachine_Finish(t *testing.T) {
	t.Parallel()

	m := NewMachine()

	v := m.Finish(ReasonConnectionTimeout)
	require.True(t, v.Done)
	require.True(t, v.Outcome.Alert)
	require.True(t, v.Outcome.LastUpdate.IsSentinel())
	require.Equal(t, "connection_timeout", v.Outcome.Reason.String())
}
