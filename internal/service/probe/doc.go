// Package probe queries the gateway's gRPC health endpoint.
package probe
