// Package config defines the gateway settings and helpers to load, validate
// and save them in YAML format.
//
// Protocol timings are not configurable here; they are constants of the
// session package.
package config
