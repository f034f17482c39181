// Package wsconn turns an upgraded HTTP connection into a stream of raw
// WebSocket frames.
//
// Unlike message-level libraries, ReadFrame hands every frame to the caller,
// continuation and control frames included, so the caller decides how to
// reassemble fragments and which frame kinds are legal at which point.
//
// Every error returned by ReadFrame is a *ReadError carrying an ErrorKind.
// The set of kinds is closed; KindOf maps any error onto it.
package wsconn
