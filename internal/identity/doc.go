// Package identity loads the gateway's TLS identity from PEM files: a
// certificate chain and exactly one PKCS8 private key.
package identity
