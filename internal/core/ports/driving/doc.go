// Package driving provides interfaces for application entry points (primary/inbound ports).
//
// The CLI and any future hosting service consume the retrieval core
// exclusively through these contracts.
package driving
