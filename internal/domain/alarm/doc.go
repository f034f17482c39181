// Package alarm contains the device-alarm protocol rules, free of any I/O.
//
// An Update is the fixed 17-byte steady-state message: byte 0 is a Command,
// the remaining 16 bytes are opaque. Machine tracks whether the device is
// Idle or Armed (with a defuse deadline) and decides when a command ends the
// session. The Outcome type records how and why a session ended.
package alarm
