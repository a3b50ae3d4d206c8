// Package orchestration decides how each service dependency is
// satisfied: bind to a host-level instance discovered on the machine,
// or provision a container. Evaluation runs per-service in parallel;
// provisioning runs sequentially in priority order.
package orchestration
