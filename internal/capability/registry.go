package capability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"certgate/internal/capability/metrics"
	"certgate/pkg/platform/sentinel"
)

const outcomeNotFound = "not_found"

// Registry holds providers in registration order. Resolution is first match;
// duplicate operation claims are rejected at Register so dispatch is never
// ambiguous.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	owners    map[string]string // operation -> provider name
	ops       []string

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithMetrics enables invocation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		owners: make(map[string]string),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends p to the resolution order. It fails if p declares no
// operations or claims an operation another provider already owns; in that
// case nothing is registered.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return errors.New("provider is required")
	}
	ops := p.Operations()
	if len(ops) == 0 {
		return fmt.Errorf("provider %s declares no operations", p.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(ops))
	for _, op := range ops {
		if owner, claimed := r.owners[op]; claimed {
			return fmt.Errorf("operation %s already handled by provider %s: %w", op, owner, sentinel.ErrConflict)
		}
		if _, dup := seen[op]; dup {
			return fmt.Errorf("provider %s declares operation %s twice: %w", p.Name(), op, sentinel.ErrConflict)
		}
		seen[op] = struct{}{}
	}
	for _, op := range ops {
		r.owners[op] = p.Name()
		r.ops = append(r.ops, op)
	}
	r.providers = append(r.providers, p)
	r.logger.Debug("capability provider registered", "provider", p.Name(), "operations", ops)
	return nil
}

// Resolve returns the first registered provider that can handle op.
func (r *Registry) Resolve(op string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.providers {
		if p.CanHandle(op) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no provider for operation %s: %w", op, sentinel.ErrNotFound)
}

// Invoke resolves op and executes it. Errors other than resolution failures
// are always *ProviderError.
func (r *Registry) Invoke(ctx context.Context, op string, params Params) (Result, error) {
	p, err := r.Resolve(op)
	if err != nil {
		r.metrics.IncrementInvocation(op, outcomeNotFound)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		r.metrics.IncrementInvocation(op, string(ErrorExecutionFailure))
		return nil, NewExecutionError(p.Name(), op, "invocation cancelled", err)
	}

	start := time.Now()
	result, err := p.Execute(ctx, op, params)
	r.metrics.ObserveDuration(op, time.Since(start))

	if err != nil {
		var pe *ProviderError
		if !errors.As(err, &pe) {
			pe = NewExecutionError(p.Name(), op, "operation failed", err)
		}
		r.metrics.IncrementInvocation(op, string(pe.Category))
		r.logger.Debug("capability invocation failed",
			"provider", p.Name(), "operation", op, "category", pe.Category)
		return nil, pe
	}

	r.metrics.IncrementInvocation(op, "success")
	if result == nil {
		result = Result{}
	}
	return result, nil
}

// Operations lists registered operation names in registration order.
func (r *Registry) Operations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.ops...)
}

// Providers lists registered providers in registration order.
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Provider{}, r.providers...)
}
