package orchestration

import "fmt"

// ConfigError reports a configuration contradiction the orchestrator
// cannot work around, such as Never mode with no reachable host
// service. It is fatal to startup.
type ConfigError struct {
	Service string
	Reason  string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error for service %s: %s: %v", e.Service, e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration error for service %s: %s", e.Service, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ProvisionError reports a container that was started but never became
// healthy, or could not be started at all. It is fatal to startup.
type ProvisionError struct {
	Dependency string
	Err        error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("failed to provision dependency %s: %v", e.Dependency, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }
