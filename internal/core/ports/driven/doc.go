// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
//
// The retrieval core talks to the outside world only through these
// contracts: chunk storage, vector indexing, embedding generation,
// ticket persistence and configuration.
package driven
