package orchestration

import (
	"context"
	"time"
)

// ServiceDiscovery locates service instances already running on the
// host. Implementations return (nil, nil) when nothing was found; an
// error means discovery itself broke.
type ServiceDiscovery interface {
	Discover(ctx context.Context, service string, timeout time.Duration) (*HostService, error)
}

// Credential is one entry in a service's credential chain: a label for
// logs and a connection URI that may embed secrets. Only the label is
// ever logged.
type Credential struct {
	Label string
	URI   string
}

// CredentialChainFunc builds the ordered credential chain for a
// discovered host. Deriving the chain from the host keeps default and
// unauthenticated candidates pointed at the instance discovery found.
type CredentialChainFunc func(host *HostService) []Credential

// StaticCredentials adapts a fixed credential list into a chain func,
// for services whose candidates do not depend on the discovered host.
func StaticCredentials(creds ...Credential) CredentialChainFunc {
	return func(*HostService) []Credential { return creds }
}

// AccessValidator verifies that a discovered host service is actually
// usable with a given credential. It returns the connection details to
// hand to the consuming adapter on success. Implementations must never
// log the raw URI.
type AccessValidator interface {
	Validate(ctx context.Context, host *HostService, cred Credential) (string, error)
}

// ContainerManager provisions dependency containers.
type ContainerManager interface {
	// StartContainer launches the dependency and returns the container
	// name. The session ID scopes names so concurrent runs do not collide.
	StartContainer(ctx context.Context, d *DependencyDescriptor, sessionID string) (string, error)

	// WaitHealthy blocks until the container passes its health command or
	// the descriptor's health timeout elapses.
	WaitHealthy(ctx context.Context, containerName string, d *DependencyDescriptor) error
}

// Evaluator produces the decision for one service dependency.
type Evaluator interface {
	ServiceName() string
	Evaluate(ctx context.Context) (Decision, error)
}
