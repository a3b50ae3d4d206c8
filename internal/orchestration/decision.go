package orchestration

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProvisioningMode controls how a service dependency is satisfied.
type ProvisioningMode string

const (
	// ModeAuto discovers a host-level service first and falls back to
	// provisioning a container when none is usable. This is the default.
	ModeAuto ProvisioningMode = "auto"

	// ModeAlways provisions a container without attempting discovery.
	ModeAlways ProvisioningMode = "always"

	// ModeNever requires a usable host-level service; its absence is a
	// fatal configuration error.
	ModeNever ProvisioningMode = "never"

	// ModeDisabled skips the service entirely.
	ModeDisabled ProvisioningMode = "disabled"
)

// ParseMode converts a configuration string to a ProvisioningMode. An
// empty string resolves to ModeAuto.
func ParseMode(s string) (ProvisioningMode, error) {
	switch ProvisioningMode(strings.ToLower(s)) {
	case ModeAuto, "":
		return ModeAuto, nil
	case ModeAlways:
		return ModeAlways, nil
	case ModeNever:
		return ModeNever, nil
	case ModeDisabled:
		return ModeDisabled, nil
	}
	return "", fmt.Errorf("unknown provisioning mode %q", s)
}

// Action is the outcome of evaluating one service dependency.
type Action string

const (
	ActionNone               Action = "no-action"
	ActionUseHostService     Action = "use-host-service"
	ActionProvisionContainer Action = "provision-container"
)

// HostService describes a service discovered on the host.
type HostService struct {
	Name    string
	Address string
	Port    int
}

// Decision records what the orchestrator will do for one service and
// why. ConnectionDetails may carry credentials and must never be logged
// or exposed; every external surface uses Reason, which is always
// redacted.
type Decision struct {
	ID                string
	Service           string
	Action            Action
	Reason            string
	Descriptor        *DependencyDescriptor
	Host              *HostService
	ConnectionDetails string
	EvaluatedAt       time.Time
}

func newDecision(service string, action Action, reason string) Decision {
	return Decision{
		ID:          uuid.NewString(),
		Service:     service,
		Action:      action,
		Reason:      reason,
		EvaluatedAt: time.Now(),
	}
}
