package orchestration

import (
	"context"
	"fmt"
	"time"

	"depctl/pkg/logging"
)

// credentialValidationTimeout bounds each single credential attempt so a
// hung server cannot stall the whole evaluation.
const credentialValidationTimeout = 3 * time.Second

// DefaultDetectionTimeout bounds host service discovery per service.
const DefaultDetectionTimeout = 4 * time.Second

// ServiceEvaluator decides how one service dependency is satisfied:
// bind to a host-level instance or provision a container, driven by the
// configured ProvisioningMode.
type ServiceEvaluator struct {
	Service          string
	Mode             ProvisioningMode
	DetectionTimeout time.Duration

	// Discovery locates host instances. Required for Auto and Never.
	Discovery ServiceDiscovery

	// Validator checks discovered instances against the credential
	// chain. When nil, discovery success alone selects the host service.
	Validator AccessValidator

	// Credentials builds the chain for the host discovery actually
	// found, so default and unauthenticated candidates target the
	// discovered address rather than a configured guess. Tried in order;
	// the first success wins.
	Credentials CredentialChainFunc

	// Descriptor is the container to provision when no host service is
	// usable. Required for Always; optional for Auto.
	Descriptor *DependencyDescriptor
}

func (e *ServiceEvaluator) ServiceName() string { return e.Service }

// Evaluate runs the mode state machine and returns the decision. The
// returned error is fatal to startup; recoverable outcomes are encoded
// in the decision instead.
func (e *ServiceEvaluator) Evaluate(ctx context.Context) (Decision, error) {
	switch e.Mode {
	case ModeDisabled:
		return newDecision(e.Service, ActionNone, "provisioning disabled by configuration"), nil

	case ModeAlways:
		// Discovery is deliberately skipped: the operator asked for an
		// owned container regardless of what the host runs.
		if e.Descriptor == nil {
			return Decision{}, &ConfigError{
				Service: e.Service,
				Reason:  "mode is always but no container descriptor is configured",
			}
		}
		d := newDecision(e.Service, ActionProvisionContainer, "mode always: provisioning container without discovery")
		d.Descriptor = e.Descriptor
		return d, nil

	case ModeNever:
		host, details, reason, err := e.findUsableHost(ctx)
		if err != nil {
			return Decision{}, &ConfigError{
				Service: e.Service,
				Reason:  "mode is never but host discovery failed",
				Err:     err,
			}
		}
		if host == nil {
			return Decision{}, &ConfigError{
				Service: e.Service,
				Reason:  fmt.Sprintf("mode is never but no usable host service was found (%s)", reason),
			}
		}
		d := newDecision(e.Service, ActionUseHostService, reason)
		d.Host = host
		d.ConnectionDetails = details
		return d, nil

	case ModeAuto, "":
		host, details, reason, err := e.findUsableHost(ctx)
		if err != nil {
			logging.Warn("Orchestration", "Discovery failed for %s, falling back to container: %v", e.Service, err)
		}
		if err == nil && host != nil {
			d := newDecision(e.Service, ActionUseHostService, reason)
			d.Host = host
			d.ConnectionDetails = details
			return d, nil
		}
		if e.Descriptor == nil {
			return Decision{}, &ConfigError{
				Service: e.Service,
				Reason:  fmt.Sprintf("no usable host service (%s) and no container descriptor to fall back to", reason),
			}
		}
		d := newDecision(e.Service, ActionProvisionContainer, fmt.Sprintf("falling back to container: %s", reason))
		d.Descriptor = e.Descriptor
		return d, nil
	}

	return Decision{}, &ConfigError{
		Service: e.Service,
		Reason:  fmt.Sprintf("unknown provisioning mode %q", e.Mode),
	}
}

// findUsableHost runs discovery and, when a validator is configured,
// walks the credential chain. It returns the host and connection
// details on success, or (nil, "", reason, nil) when no usable host
// exists. A non-nil error means discovery itself broke.
func (e *ServiceEvaluator) findUsableHost(ctx context.Context) (*HostService, string, string, error) {
	if e.Discovery == nil {
		return nil, "", "no discovery configured", nil
	}

	timeout := e.DetectionTimeout
	if timeout <= 0 {
		timeout = DefaultDetectionTimeout
	}

	host, err := e.Discovery.Discover(ctx, e.Service, timeout)
	if err != nil {
		return nil, "", "", err
	}
	if host == nil {
		return nil, "", "no host service detected", nil
	}

	if e.Validator == nil {
		return host, "", fmt.Sprintf("host service detected at %s:%d", host.Address, host.Port), nil
	}

	var creds []Credential
	if e.Credentials != nil {
		creds = e.Credentials(host)
	}
	for _, cred := range creds {
		attemptCtx, cancel := context.WithTimeout(ctx, credentialValidationTimeout)
		details, err := e.Validator.Validate(attemptCtx, host, cred)
		cancel()
		if err == nil {
			// First success short-circuits the chain. Only the label is
			// surfaced; the URI stays out of logs and reasons.
			logging.Debug("Orchestration", "Credential %q accepted for %s", cred.Label, e.Service)
			return host, details, fmt.Sprintf("host service at %s:%d accessible with %s credentials", host.Address, host.Port, cred.Label), nil
		}
		logging.Debug("Orchestration", "Credential %q rejected for %s: %v", cred.Label, e.Service, err)
		if ctx.Err() != nil {
			return nil, "", "", ctx.Err()
		}
	}

	return nil, "", fmt.Sprintf("host service at %s:%d rejected all %d credential(s)", host.Address, host.Port, len(creds)), nil
}
