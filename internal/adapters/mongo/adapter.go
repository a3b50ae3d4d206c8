// Package mongo is the MongoDB connection adapter: it establishes the
// client during coordinated startup, reports readiness, and gates its
// operations on the configured readiness policy.
package mongo

import (
	"context"
	"fmt"
	"sync"
	"time"

	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"depctl/internal/adapter"
	"depctl/internal/readiness"
	"depctl/pkg/logging"
)

// AdapterName is the name this adapter registers under.
const AdapterName = "mongodb"

const defaultReadinessTimeout = 30 * time.Second

// connector abstracts driver connection setup for tests.
type connector func(ctx context.Context, opts *options.ClientOptions) (*driver.Client, error)

// Adapter owns the MongoDB client for the process. It is safe for
// concurrent use; InitializeAdapter may be re-invoked by retry and
// recovery cycles.
type Adapter struct {
	*adapter.Base

	mu       sync.Mutex
	uri      string
	database string
	client   *driver.Client

	cache    *HealthCache
	configFn func() adapter.Config
	connect  connector
}

// NewAdapter builds an adapter that will connect to uri and use the
// named database. configFn supplies the live readiness configuration;
// nil means defaults.
func NewAdapter(uri, database string, configFn func() adapter.Config) *Adapter {
	if configFn == nil {
		cfg := adapter.DefaultConfig()
		configFn = func() adapter.Config { return cfg }
	}
	return &Adapter{
		Base:     adapter.NewBase(AdapterName, defaultReadinessTimeout),
		uri:      uri,
		database: database,
		cache:    NewHealthCache(30 * time.Second),
		configFn: configFn,
		connect: func(ctx context.Context, opts *options.ClientOptions) (*driver.Client, error) {
			return driver.Connect(ctx, opts)
		},
	}
}

// ReadinessConfig is re-read by the gate on every operation, so
// configuration changes apply without restarting the adapter.
func (a *Adapter) ReadinessConfig() adapter.Config {
	return a.configFn()
}

// SetConnectionURI replaces the connection target for the next
// initialization cycle, e.g. after orchestration decides on a
// provisioned container instead of a host service.
func (a *Adapter) SetConnectionURI(uri string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.uri = uri
}

// InitializeAdapter establishes the client and verifies connectivity.
// Re-invocation tears down any previous client first and announces a
// fresh Initializing cycle so waiters re-arm.
func (a *Adapter) InitializeAdapter(ctx context.Context) error {
	a.mu.Lock()
	old := a.client
	a.client = nil
	uri := a.uri
	a.mu.Unlock()

	a.StateManager().TransitionTo(readiness.StateInitializing)
	a.cache.InvalidateAll()

	if old != nil {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := old.Disconnect(disconnectCtx); err != nil {
			logging.Warn("Mongo", "Disconnecting stale client failed: %v", err)
		}
		cancel()
	}

	if uri == "" {
		a.StateManager().TransitionTo(readiness.StateFailed)
		return fmt.Errorf("no connection details configured for %s", AdapterName)
	}

	logging.Debug("Mongo", "Connecting to %s", Redact(uri))
	client, err := a.connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		a.StateManager().TransitionTo(readiness.StateFailed)
		return fmt.Errorf("connecting to %s: %w", Redact(uri), err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		a.StateManager().TransitionTo(readiness.StateFailed)
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = client.Disconnect(disconnectCtx)
		cancel()
		return fmt.Errorf("ping to %s failed: %w", Redact(uri), err)
	}

	a.mu.Lock()
	a.client = client
	a.mu.Unlock()

	a.StateManager().TransitionTo(readiness.StateReady)
	logging.Info("Mongo", "Connected to %s", Redact(uri))
	return nil
}

// Close disconnects the client and marks the adapter failed.
func (a *Adapter) Close(ctx context.Context) error {
	a.mu.Lock()
	client := a.client
	a.client = nil
	a.mu.Unlock()

	a.cache.InvalidateAll()
	a.StateManager().TransitionTo(readiness.StateFailed)

	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// Database returns a handle to the configured database, gated on
// readiness policy.
func (a *Adapter) Database(ctx context.Context) (*driver.Database, error) {
	return adapter.WithReadinessResult(ctx, a, func(ctx context.Context) (*driver.Database, error) {
		a.mu.Lock()
		client := a.client
		a.mu.Unlock()
		if client == nil {
			return nil, fmt.Errorf("no active client for %s", AdapterName)
		}
		return client.Database(a.database), nil
	})
}

// PingCollection verifies a collection is reachable, consulting the
// health cache first. The check runs under the readiness gate.
func (a *Adapter) PingCollection(ctx context.Context, collection string) error {
	if a.cache.IsFresh(collection) {
		return nil
	}
	return adapter.WithReadiness(ctx, a, func(ctx context.Context) error {
		a.mu.Lock()
		client := a.client
		a.mu.Unlock()
		if client == nil {
			return fmt.Errorf("no active client for %s", AdapterName)
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			a.cache.Invalidate(collection)
			return fmt.Errorf("collection %s unreachable: %w", collection, err)
		}
		a.cache.MarkHealthy(collection)
		return nil
	})
}
