// Package server runs the alarm gateway: a TLS listener whose HTTP requests
// are either upgraded to WebSocket sessions or served from a static web root,
// plus an optional gRPC health endpoint.
//
// Each upgraded connection runs its own session on the HTTP handler's
// goroutine. Sessions share nothing; cancelling the Run context closes every
// open connection, which the sessions observe as a benign close.
package server
