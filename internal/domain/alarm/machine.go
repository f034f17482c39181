package alarm

import (
	"fmt"
	"time"
)

// DefuseTimeout is how long an armed device may stay undefused.
const DefuseTimeout = 10 * time.Second

// State is either Idle or Armed.
type State interface {
	isState()
}

// Idle is the unarmed state.
type Idle struct{}

// Armed holds the instant after which an undefused device escalates.
type Armed struct {
	Deadline time.Time
}

func (Idle) isState()  {}
func (Armed) isState() {}

// Verdict tells the caller what to do after an update was applied.
type Verdict struct {
	// Done is true when the session must end.
	Done bool
	// Outcome is meaningful only when Done is set.
	Outcome Outcome
}

// Machine applies updates to the Idle/Armed state. The zero value is not
// usable; call NewMachine.
type Machine struct {
	state State
	last  Update
}

// NewMachine returns an Idle machine whose last update is the sentinel.
func NewMachine() *Machine {
	return &Machine{
		state: Idle{},
		last:  SentinelUpdate(),
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Armed reports whether a defuse deadline is pending.
func (m *Machine) Armed() bool {
	_, ok := m.state.(Armed)

	return ok
}

// DefuseDeadline returns the pending defuse deadline, if armed.
func (m *Machine) DefuseDeadline() (time.Time, bool) {
	armed, ok := m.state.(Armed)

	return armed.Deadline, ok
}

// LastUpdate returns the most recently accepted update.
func (m *Machine) LastUpdate() Update {
	return m.last
}

// Apply records u as the last update and runs its command at instant now.
// An unknown command returns ErrUnknownCommand.
func (m *Machine) Apply(u Update, now time.Time) (Verdict, error) {
	m.last = u

	switch cmd := u.Command(); cmd {
	case CommandDisarm:
		m.state = Idle{}
	case CommandArm:
		// Re-arming keeps the original deadline.
		if !m.Armed() {
			m.state = Armed{Deadline: now.Add(DefuseTimeout)}
		}
	case CommandAlert:
		return m.finish(true, ReasonManualAlert), nil
	case CommandSafe:
		return m.finish(false, ReasonManualSafe), nil
	default:
		return Verdict{}, fmt.Errorf("%w: %d", ErrUnknownCommand, byte(cmd))
	}

	return Verdict{}, nil
}

// Finish builds the terminal verdict for a reason decided outside Apply,
// such as a timeout or a peer close. Those always raise an alert.
func (m *Machine) Finish(reason Reason) Verdict {
	return m.finish(true, reason)
}

func (m *Machine) finish(alert bool, reason Reason) Verdict {
	return Verdict{
		Done: true,
		Outcome: Outcome{
			Alert:      alert,
			Reason:     reason,
			LastUpdate: m.last,
			WasArmed:   m.Armed(),
		},
	}
}
