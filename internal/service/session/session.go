package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/alarm-gateway/internal/domain/alarm"
	"github.com/oshokin/alarm-gateway/internal/logger"
	"github.com/oshokin/alarm-gateway/internal/transport/wsconn"
)

// ConnectionTimeout is the inactivity window, restarted by every valid update.
const ConnectionTimeout = 10 * time.Second

// Stream is the framed connection a session consumes. The session owns it
// and closes it before Run returns.
type Stream interface {
	ReadFrame() (wsconn.Frame, error)
	CloseWith(code wsconn.CloseCode, reason string) error
}

// Result is what a successful session produced.
type Result struct {
	// Initial is the concatenated setup payload. It has no protocol meaning.
	Initial []byte
	// Outcome is the final alarm decision.
	Outcome alarm.Outcome
}

// delivery is one ReadFrame result stamped with its completion time.
type delivery struct {
	frame wsconn.Frame
	err   error
	at    time.Time
}

type session struct {
	stream     Stream
	machine    *alarm.Machine
	deliveries chan delivery
	done       chan struct{}
	readerDone chan struct{}
}

// Run drives stream until an outcome is reached or a fatal error occurs.
// The context only carries the logger; interrupting a session is done by
// closing the transport underneath stream.
func Run(ctx context.Context, stream Stream) (Result, error) {
	s := &session{
		stream:     stream,
		machine:    alarm.NewMachine(),
		deliveries: make(chan delivery),
		done:       make(chan struct{}),
		readerDone: make(chan struct{}),
	}

	go s.read()

	res, err := s.run(ctx)

	code, reason := closeStatus(res, err)
	if closeErr := s.stream.CloseWith(code, reason); closeErr != nil {
		logger.DebugKV(ctx, "Close handshake not delivered", "error", closeErr)
	}

	close(s.done)
	<-s.readerDone

	if err != nil {
		return Result{}, err
	}

	return res, nil
}

// read pumps frames into s.deliveries until a read fails or the session ends.
func (s *session) read() {
	defer close(s.readerDone)

	for {
		frame, err := s.stream.ReadFrame()

		d := delivery{frame: frame, err: err, at: time.Now()}

		select {
		case s.deliveries <- d:
		case <-s.done:
			return
		}

		if err != nil {
			return
		}
	}
}

func (s *session) run(ctx context.Context) (Result, error) {
	initial, err := s.readSetup()
	if err != nil {
		return Result{}, err
	}

	logger.DebugKV(ctx, "Setup complete", "initial_bytes", len(initial))

	outcome, err := s.loop(ctx)
	if err != nil {
		return Result{}, err
	}

	return Result{Initial: initial, Outcome: outcome}, nil
}

// readSetup concatenates binary and continuation frames up to a final one.
// Any read failure here is fatal: there is no outcome before setup completes.
func (s *session) readSetup() ([]byte, error) {
	var payload []byte

	for d := range s.deliveries {
		if d.err != nil {
			return nil, fmt.Errorf("%s phase: %w", PhaseSetup, d.err)
		}

		switch d.frame.Kind {
		case wsconn.FrameBinary, wsconn.FrameContinuation:
			payload = append(payload, d.frame.Payload...)
		default:
			return nil, unexpectedFrame(PhaseSetup, d.frame.Kind)
		}

		if d.frame.Final {
			return payload, nil
		}
	}

	// Unreachable: the reader never closes s.deliveries.
	return nil, errors.New("setup: delivery channel closed")
}

// loop races deliveries against the earliest deadline until a verdict.
func (s *session) loop(ctx context.Context) (alarm.Outcome, error) {
	connectionDeadline := time.Now().Add(ConnectionTimeout)

	for {
		deadline, reason := connectionDeadline, alarm.ReasonConnectionTimeout
		if defuse, armed := s.machine.DefuseDeadline(); armed && !defuse.After(deadline) {
			deadline, reason = defuse, alarm.ReasonDefuseTimeout
		}

		d, ok := s.next(deadline)
		if !ok {
			logger.DebugKV(ctx, "Deadline elapsed", "reason", reason)

			return s.machine.Finish(reason).Outcome, nil
		}

		verdict, err := s.handle(ctx, d)
		if err != nil {
			return alarm.Outcome{}, err
		}

		if verdict.Done {
			return verdict.Outcome, nil
		}

		if d.err == nil && d.frame.Kind == wsconn.FrameBinary {
			connectionDeadline = d.at.Add(ConnectionTimeout)
		}
	}
}

// next waits for a delivery completed strictly before deadline. It reports
// false when the deadline wins.
func (s *session) next(deadline time.Time) (delivery, bool) {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case d := <-s.deliveries:
		return d, d.at.Before(deadline)
	case <-timer.C:
	}

	// A frame read before the deadline may still be waiting to be handed over.
	select {
	case d := <-s.deliveries:
		return d, d.at.Before(deadline)
	default:
		return delivery{}, false
	}
}

// handle applies one steady-state delivery.
func (s *session) handle(ctx context.Context, d delivery) (alarm.Verdict, error) {
	if d.err != nil {
		if classify(wsconn.KindOf(d.err)) == classBenignClose {
			logger.DebugKV(ctx, "Transport closed", "error", d.err)

			return s.machine.Finish(alarm.ReasonTransportClosed), nil
		}

		return alarm.Verdict{}, fmt.Errorf("%s phase: %w", PhaseSteady, d.err)
	}

	switch d.frame.Kind {
	case wsconn.FrameClose:
		return s.machine.Finish(alarm.ReasonPeerClosed), nil
	case wsconn.FrameBinary:
	default:
		return alarm.Verdict{}, unexpectedFrame(PhaseSteady, d.frame.Kind)
	}

	if !d.frame.Final {
		return alarm.Verdict{}, violation(PhaseSteady, ErrFragmentedUpdate)
	}

	update, err := alarm.ParseUpdate(d.frame.Payload)
	if err != nil {
		return alarm.Verdict{}, violation(PhaseSteady, err)
	}

	wasArmed := s.machine.Armed()

	verdict, err := s.machine.Apply(update, d.at)
	if err != nil {
		return alarm.Verdict{}, violation(PhaseSteady, err)
	}

	if armed := s.machine.Armed(); armed != wasArmed {
		logger.DebugKV(ctx, "Arm state changed", "armed", armed, "command", update.Command())
	}

	return verdict, nil
}

// closeStatus picks the close frame sent when the session ends.
func closeStatus(res Result, err error) (wsconn.CloseCode, string) {
	if err == nil {
		if res.Outcome.Alert {
			return wsconn.CloseNormal, "alert"
		}

		return wsconn.CloseNormal, "safe"
	}

	var re *wsconn.ReadError
	if errors.As(err, &re) {
		return wsconn.CloseCodeFor(re.Kind), re.Kind.String()
	}

	switch {
	case errors.Is(err, ErrUnexpectedFrame):
		return wsconn.CloseUnsupportedData, "unexpected frame"
	case errors.Is(err, alarm.ErrUpdateSize), errors.Is(err, ErrFragmentedUpdate):
		return wsconn.CloseUnsupportedData, "bad update size"
	case errors.Is(err, alarm.ErrUnknownCommand):
		return wsconn.CloseUnsupportedData, "unknown command"
	default:
		return wsconn.CloseProtocolError, "protocol error"
	}
}
