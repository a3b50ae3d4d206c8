// Package app is the composition root: it builds the orchestrator,
// adapters, initialization service, and health surface from
// configuration and runs the coordinated startup.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"depctl/internal/adapter"
	"depctl/internal/adapters/mongo"
	"depctl/internal/bootstrap"
	"depctl/internal/config"
	"depctl/internal/containers"
	"depctl/internal/discovery"
	"depctl/internal/health"
	"depctl/internal/orchestration"
	"depctl/pkg/logging"
)

// App owns the wired component graph for one run.
type App struct {
	store        *config.Store
	orchestrator *orchestration.Orchestrator
	initService  *bootstrap.InitializationService
	containerMgr *containers.Manager
	registry     *health.Registry
	healthServer *health.Server
	mongoAdapter *mongo.Adapter
	watchPath    string
}

// New wires the application from configuration.
func New(cfg config.Config) (*App, error) {
	store := config.NewStore(cfg)

	metrics := health.NewMetrics()
	registry := health.NewRegistry(metrics)

	containerMgr := containers.NewManager(cfg.Runtime.Binary, nil)
	orch := orchestration.NewOrchestrator(containerMgr)

	prober := discovery.NewTCPProber()
	for name, svc := range cfg.Orchestration.Services {
		endpoints := make([]discovery.Endpoint, 0, len(svc.Endpoints))
		for _, ep := range svc.Endpoints {
			endpoints = append(endpoints, discovery.Endpoint(ep))
		}
		prober.RegisterService(name, endpoints...)
	}

	for name, svc := range cfg.Orchestration.Services {
		modeStr := svc.Mode
		if modeStr == "" {
			modeStr = cfg.Orchestration.Provisioning
		}
		mode, err := orchestration.ParseMode(modeStr)
		if err != nil {
			return nil, &orchestration.ConfigError{Service: name, Reason: err.Error()}
		}

		evaluator := &orchestration.ServiceEvaluator{
			Service:          name,
			Mode:             mode,
			DetectionTimeout: cfg.Orchestration.DetectionTimeout,
			Discovery:        prober,
			Descriptor:       toDescriptor(name, svc.Container),
		}
		if name == mongo.AdapterName {
			evaluator.Validator = mongo.NewValidator()
			configuredURI := svc.URI
			evaluator.Credentials = func(host *orchestration.HostService) []orchestration.Credential {
				return mongo.CredentialChain(configuredURI, host.Address, host.Port)
			}
		}
		orch.Register(evaluator)
	}

	mongoCfg := cfg.Adapters[mongo.AdapterName]
	mongoAdapter := mongo.NewAdapter(
		cfg.Orchestration.Services[mongo.AdapterName].URI,
		mongoCfg.Database,
		func() adapter.Config { return store.ReadinessFor(mongo.AdapterName) },
	)

	initService := bootstrap.NewInitializationService(
		bootstrap.WithGlobalTimeout(cfg.Initialization.GlobalTimeout),
		bootstrap.WithRetryProvider(bootstrap.NewRetryRegistry(bootstrap.RetryConfig{
			InitialInterval: cfg.Initialization.Retry.InitialInterval,
			MaxInterval:     cfg.Initialization.Retry.MaxInterval,
			Multiplier:      cfg.Initialization.Retry.Multiplier,
			MaxRetries:      cfg.Initialization.Retry.MaxRetries,
		})),
	)
	initService.Register(mongoAdapter, mongoAdapter.StateManager())
	registry.Register(mongo.AdapterName, mongoAdapter.StateManager())

	var healthServer *health.Server
	if cfg.Health.Enabled {
		healthServer = health.NewServer(cfg.Health.Port, registry, metrics)
	}

	watchPath := ""
	if p, ok := config.ProjectConfigPath(); ok {
		watchPath = p
	}

	return &App{
		store:        store,
		orchestrator: orch,
		initService:  initService,
		containerMgr: containerMgr,
		registry:     registry,
		healthServer: healthServer,
		mongoAdapter: mongoAdapter,
		watchPath:    watchPath,
	}, nil
}

func toDescriptor(name string, c *config.ContainerDescriptor) *orchestration.DependencyDescriptor {
	if c == nil {
		return nil
	}
	return &orchestration.DependencyDescriptor{
		Name:          name,
		Image:         c.Image,
		Port:          c.Port,
		Priority:      c.Priority,
		HealthCmd:     c.HealthCmd,
		HealthTimeout: c.HealthTimeout,
		Env:           c.Env,
		Volumes:       c.Volumes,
	}
}

// Run executes the full startup sequence and blocks until ctx is
// cancelled. Configuration contradictions and provisioning failures are
// fatal; individual adapter failures are not.
func (a *App) Run(ctx context.Context) error {
	logging.Info("App", "Evaluating service dependencies")
	decisions, err := a.orchestrator.Run(ctx)
	if err != nil {
		return err
	}
	a.registry.SetDecisions(decisions)
	a.applyDecisions(decisions)

	logging.Info("App", "Initializing adapters")
	if err := a.initService.Run(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if a.healthServer != nil {
		g.Go(func() error { return a.healthServer.Run(gctx) })
	}
	if a.watchPath != "" {
		watcher := config.NewWatcher(a.store, a.watchPath)
		g.Go(func() error {
			err := watcher.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return gctx.Err()
	})

	err = g.Wait()

	teardownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	a.containerMgr.Teardown(teardownCtx)
	_ = a.mongoAdapter.Close(teardownCtx)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// EvaluateOnly runs dependency evaluation without provisioning or
// initialization, for dry-run inspection.
func (a *App) EvaluateOnly(ctx context.Context) ([]orchestration.Decision, error) {
	decisions, err := a.orchestrator.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	a.registry.SetDecisions(decisions)
	return decisions, nil
}

// applyDecisions routes each decision's connection details to the
// consuming adapter. The details may carry credentials; they go
// straight to the adapter and nowhere else.
func (a *App) applyDecisions(decisions []orchestration.Decision) {
	for _, d := range decisions {
		if d.Service != mongo.AdapterName {
			continue
		}
		switch d.Action {
		case orchestration.ActionUseHostService:
			if d.ConnectionDetails != "" {
				a.mongoAdapter.SetConnectionURI(d.ConnectionDetails)
			} else if d.Host != nil {
				a.mongoAdapter.SetConnectionURI(fmt.Sprintf("mongodb://%s:%d", d.Host.Address, d.Host.Port))
			}
		case orchestration.ActionProvisionContainer:
			if d.Descriptor != nil {
				uri := fmt.Sprintf("mongodb://127.0.0.1:%d", d.Descriptor.Port)
				if user, okU := d.Descriptor.Env["MONGO_INITDB_ROOT_USERNAME"]; okU {
					if pass, okP := d.Descriptor.Env["MONGO_INITDB_ROOT_PASSWORD"]; okP {
						uri = fmt.Sprintf("mongodb://%s:%s@127.0.0.1:%d", user, pass, d.Descriptor.Port)
					}
				}
				a.mongoAdapter.SetConnectionURI(uri)
			}
		}
	}
}

// Registry exposes the health registry for inspection commands.
func (a *App) Registry() *health.Registry { return a.registry }
