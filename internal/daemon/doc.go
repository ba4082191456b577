// Package daemon coordinates the long-running arheritage process.
//
// It wires configuration, the SQLite-backed record store, the AI gateway, the
// camera with its hotplug monitor, speech playback and the HTTP API into a
// single lifecycle with flock-based locking to prevent multiple instances.
// Status reports dependency health and camera state for operators.
//
// Keep orchestration logic here: flow behaviour lives in scan, discovery,
// contributions and app while the daemon focuses on startup, shutdown and
// high level coordination.
package daemon
