// Package logger wraps zap for the gateway binaries.
//
// A global sugared logger is created at init with a console encoder. Services
// never use it directly: they pull the logger out of a context.Context, so a
// connection handler can attach its connection id once (WithKV) and every log
// line emitted below it carries that id.
package logger
