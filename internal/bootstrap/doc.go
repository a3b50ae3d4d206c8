// Package bootstrap runs adapter initializers in dependency waves:
// waves execute sequentially, members of a wave concurrently, each with
// retry and a global per-adapter timeout. One adapter failing never
// blocks the rest of the startup.
package bootstrap
