// Package adapter defines what it means to be an adapter in this
// system: the readiness capability contract, the embeddable Base that
// satisfies it, and the WithReadiness gate that applies the configured
// policy (immediate, hold, degrade) around each operation.
package adapter
