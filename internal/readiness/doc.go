// Package readiness implements the adapter lifecycle state machine:
// Initializing, Ready, Degraded, Failed. A StateManager broadcasts the
// first operational transition to every waiter at once and re-arms when
// a recovery cycle returns the adapter to Initializing.
package readiness
