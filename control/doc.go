// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, runtime metrics, hot-reload hooks and debug introspection
// for the relay.
//
// Provides:
//   - Config loading: defaults, then TOML file, then MAVRELAY_* environment
//   - Prometheus collectors implementing the relay observer contract
//   - Debug probe registration and state export
//   - A small HTTP surface for /metrics, /debug/state and /healthz
package control
