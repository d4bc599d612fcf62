// Package app assembles the policy engine, capability registry, audit trail
// and orchestrator from configuration. Both binaries build through it so the
// server and the CLI cannot drift apart.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"certgate/internal/audit"
	auditmetrics "certgate/internal/audit/metrics"
	"certgate/internal/audit/store/file"
	"certgate/internal/audit/store/jsonl"
	"certgate/internal/audit/store/memory"
	"certgate/internal/audit/store/postgres"
	auditredis "certgate/internal/audit/store/redis"
	"certgate/internal/capability"
	capmetrics "certgate/internal/capability/metrics"
	"certgate/internal/capability/native"
	"certgate/internal/capability/openssl"
	"certgate/internal/issuance"
	issuancemetrics "certgate/internal/issuance/metrics"
	"certgate/internal/platform/config"
	pgplatform "certgate/internal/platform/postgres"
	redisplatform "certgate/internal/platform/redis"
	"certgate/internal/policy"
)

// App holds the wired components. Close releases backend connections.
type App struct {
	Config   config.Config
	Rules    *policy.RuleSet
	Policy   *policy.Engine
	Registry *capability.Registry
	Trail    *audit.Trail
	Service  *issuance.Service

	logger  *slog.Logger
	closers []func() error
}

// Option configures New.
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
	store      audit.Store
}

// WithRegisterer registers module metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithAuditStore bypasses the configured audit backend.
func WithAuditStore(store audit.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// New builds an App from cfg. Policy configuration errors are fatal here,
// before any request is accepted.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{Config: cfg, logger: logger}

	rules, err := LoadRules(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	a.Rules = rules
	a.Policy, err = policy.NewEngine(rules)
	if err != nil {
		return nil, err
	}

	a.Registry = capability.NewRegistry(
		capability.WithLogger(logger),
		capability.WithMetrics(capmetrics.New(o.registerer)),
	)
	if err := registerProviders(a.Registry, cfg, logger); err != nil {
		return nil, err
	}

	store := o.store
	if store == nil {
		store, err = a.openStore(ctx, cfg)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	}
	a.Trail = audit.NewTrail(store,
		audit.WithLogger(logger),
		audit.WithMetrics(auditmetrics.New(o.registerer)),
	)

	a.Service, err = issuance.New(a.Policy, a.Registry, a.Trail,
		issuance.WithLogger(logger),
		issuance.WithMetrics(issuancemetrics.New(o.registerer)),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	logger.InfoContext(ctx, "certgate initialized",
		"provider_backend", cfg.ProviderBackend,
		"audit_backend", cfg.Audit.Backend,
		"operations", a.Registry.Operations(),
	)
	return a, nil
}

// LoadRules reads the policy at path, seeding it from the built-in defaults
// when the file does not exist yet. An empty path uses the defaults directly.
func LoadRules(path string) (*policy.RuleSet, error) {
	if path == "" {
		return policy.DefaultRuleSet()
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := policy.WriteDefaultPolicy(path, false); err != nil {
			return nil, err
		}
	}
	return policy.LoadRuleSetFromFile(path)
}

func registerProviders(reg *capability.Registry, cfg config.Config, logger *slog.Logger) error {
	store, err := capability.NewArtifactStore(cfg.OutputDir)
	if err != nil {
		return err
	}
	switch cfg.ProviderBackend {
	case config.ProviderOpenSSL:
		runner := openssl.NewRunner(openssl.WithBinary(cfg.OpenSSLBinary), openssl.WithLogger(logger))
		if !runner.Available() {
			return fmt.Errorf("openssl backend selected but %q is not executable", cfg.OpenSSLBinary)
		}
		return openssl.Register(reg, store, runner)
	default:
		return native.Register(reg, store, native.WithLogger(logger))
	}
}

func (a *App) openStore(ctx context.Context, cfg config.Config) (audit.Store, error) {
	switch cfg.Audit.Backend {
	case config.AuditMemory:
		return memory.New(), nil
	case config.AuditJSONL:
		s, err := jsonl.New(cfg.Audit.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	case config.AuditPostgres:
		db, err := pgplatform.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		s, err := postgres.New(db)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case config.AuditRedis:
		client, err := redisplatform.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return auditredis.New(client.Client, cfg.Audit.Stream)
	default:
		return file.New(cfg.Audit.Path)
	}
}

// Close releases backend connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
