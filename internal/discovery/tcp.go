// Package discovery locates service dependencies already running on
// the host, so orchestration can prefer binding to them over
// provisioning containers.
package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"depctl/internal/orchestration"
	"depctl/pkg/logging"
)

// Endpoint is one address a service is expected to listen on.
type Endpoint struct {
	Address string
	Port    int
}

// TCPProber discovers host services by attempting TCP connections to
// their well-known endpoints. The first endpoint that accepts a
// connection wins.
type TCPProber struct {
	mu        sync.RWMutex
	endpoints map[string][]Endpoint
}

// NewTCPProber builds a prober with no registered services.
func NewTCPProber() *TCPProber {
	return &TCPProber{endpoints: make(map[string][]Endpoint)}
}

// RegisterService sets the candidate endpoints probed for a service.
func (p *TCPProber) RegisterService(service string, endpoints ...Endpoint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endpoints[service] = endpoints
}

// Discover probes the service's endpoints in order within the timeout.
// It returns (nil, nil) when no endpoint accepts a connection.
func (p *TCPProber) Discover(ctx context.Context, service string, timeout time.Duration) (*orchestration.HostService, error) {
	p.mu.RLock()
	endpoints := p.endpoints[service]
	p.mu.RUnlock()

	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints registered for service %s", service)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Each endpoint gets an equal slice of the overall timeout.
	perEndpoint := timeout / time.Duration(len(endpoints))
	dialer := &net.Dialer{Timeout: perEndpoint}

	for _, ep := range endpoints {
		addr := net.JoinHostPort(ep.Address, fmt.Sprintf("%d", ep.Port))
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			logging.Debug("Discovery", "No %s listener at %s: %v", service, addr, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		conn.Close()
		logging.Debug("Discovery", "Found %s listening at %s", service, addr)
		return &orchestration.HostService{Name: service, Address: ep.Address, Port: ep.Port}, nil
	}
	return nil, nil
}
