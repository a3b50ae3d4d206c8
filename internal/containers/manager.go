package containers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"depctl/internal/orchestration"
	"depctl/pkg/logging"
)

// DefaultHealthTimeout bounds health polling when the descriptor does
// not set its own.
const DefaultHealthTimeout = 60 * time.Second

// Manager provisions dependency containers through a docker-compatible
// CLI runtime (docker or podman).
type Manager struct {
	runtime string
	runner  Runner

	mu      sync.Mutex
	started []string
}

// NewManager builds a manager for the given runtime binary. An empty
// runtime defaults to docker.
func NewManager(runtime string, runner Runner) *Manager {
	if runtime == "" {
		runtime = "docker"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Manager{runtime: runtime, runner: runner}
}

// containerName scopes the dependency name with a session prefix so
// concurrent runs never collide.
func containerName(depName, sessionID string) string {
	suffix := sessionID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("depctl-%s-%s", depName, suffix)
}

// StartContainer launches the dependency in detached mode and returns
// the container name.
func (m *Manager) StartContainer(ctx context.Context, d *orchestration.DependencyDescriptor, sessionID string) (string, error) {
	name := containerName(d.Name, sessionID)

	args := []string{"run", "-d", "--name", name,
		"-p", fmt.Sprintf("%d:%d", d.Port, d.Port)}

	// Deterministic env ordering keeps command logs diffable.
	envKeys := make([]string, 0, len(d.Env))
	for k := range d.Env {
		envKeys = append(envKeys, k)
	}
	sort.Strings(envKeys)
	for _, k := range envKeys {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, d.Env[k]))
	}
	for _, v := range d.Volumes {
		args = append(args, "-v", v)
	}
	args = append(args, d.Image)

	logging.Info("Containers", "Starting %s via %s", name, m.runtime)
	_, stderr, exitCode, err := m.runner.Run(ctx, m.runtime, args...)
	if err != nil {
		return "", fmt.Errorf("running %s: %w", m.runtime, err)
	}
	if exitCode != 0 {
		return "", fmt.Errorf("%s run exited with code %d: %s", m.runtime, exitCode, strings.TrimSpace(stderr))
	}

	m.mu.Lock()
	m.started = append(m.started, name)
	m.mu.Unlock()
	return name, nil
}

// WaitHealthy polls the descriptor's health command (or the container
// running state when none is configured) until it succeeds or the
// health timeout elapses.
func (m *Manager) WaitHealthy(ctx context.Context, name string, d *orchestration.DependencyDescriptor) error {
	timeout := d.HealthTimeout
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 250 * time.Millisecond
	eb.MaxInterval = 5 * time.Second
	eb.MaxElapsedTime = timeout

	probe := func() error {
		if len(d.HealthCmd) > 0 {
			args := append([]string{"exec", name}, d.HealthCmd...)
			_, stderr, exitCode, err := m.runner.Run(ctx, m.runtime, args...)
			if err != nil {
				return backoff.Permanent(err)
			}
			if exitCode != 0 {
				return fmt.Errorf("health command exited with code %d: %s", exitCode, strings.TrimSpace(stderr))
			}
			return nil
		}

		stdout, _, exitCode, err := m.runner.Run(ctx, m.runtime, "inspect", "--format", "{{.State.Running}}", name)
		if err != nil {
			return backoff.Permanent(err)
		}
		if exitCode != 0 || strings.TrimSpace(stdout) != "true" {
			return fmt.Errorf("container %s is not running", name)
		}
		return nil
	}

	if err := backoff.Retry(probe, backoff.WithContext(eb, ctx)); err != nil {
		return fmt.Errorf("container %s did not become healthy within %s: %w", name, timeout, err)
	}
	logging.Debug("Containers", "Container %s passed its health check", name)
	return nil
}

// Teardown force-removes every container this manager started, best
// effort, in reverse start order.
func (m *Manager) Teardown(ctx context.Context) {
	m.mu.Lock()
	started := make([]string, len(m.started))
	copy(started, m.started)
	m.started = nil
	m.mu.Unlock()

	for i := len(started) - 1; i >= 0; i-- {
		name := started[i]
		_, stderr, exitCode, err := m.runner.Run(ctx, m.runtime, "rm", "-f", name)
		if err != nil || exitCode != 0 {
			logging.Warn("Containers", "Failed to remove %s: %v %s", name, err, strings.TrimSpace(stderr))
			continue
		}
		logging.Debug("Containers", "Removed container %s", name)
	}
}
