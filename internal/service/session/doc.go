// Package session runs the alarm protocol over one upgraded connection.
//
// A session has two phases. During setup, binary and continuation frames are
// concatenated into an opaque initial payload until a final frame arrives.
// In steady state every frame is raced against the earliest pending deadline
// (the connection deadline and, while armed, the defuse deadline) and fed to
// the alarm.Machine. The session ends with an alarm.Outcome or a fatal error,
// never both.
//
// Read failures reported by the transport are split by classify into fatal
// errors, which abort the session, and benign closes, which end it like a
// close frame from the peer.
package session
