// Package issuance drives requests through the policy gate and the fixed
// capability pipeline for their operation kind, then records exactly one
// audit entry per request.
package issuance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"certgate/internal/audit"
	"certgate/internal/capability"
	"certgate/internal/issuance/metrics"
	"certgate/internal/issuance/ports"
	"certgate/pkg/domain"
	"certgate/pkg/requestcontext"
)

const (
	tracerName   = "certgate/internal/issuance"
	defaultActor = "system"
)

// Namespacer derives the artifact name prefix for a request.
type Namespacer func(req domain.OperationRequest) string

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// DefaultNamespacer returns "<subject, unsafe chars as '_'>_<8 hex>", so replays of
// the same subject never share artifacts.
func DefaultNamespacer(req domain.OperationRequest) string {
	base := unsafeNameChars.ReplaceAllString(req.SubjectName, "_")
	return base + "_" + uuid.NewString()[:8]
}

// Service is the orchestrator.
type Service struct {
	policy  ports.PolicyEvaluator
	invoker ports.CapabilityInvoker
	trail   ports.AuditTrail

	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	namespacer Namespacer
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics enables issuance metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithNamespacer overrides DefaultNamespacer.
func WithNamespacer(n Namespacer) Option {
	return func(s *Service) {
		s.namespacer = n
	}
}

// WithClock replaces time.Now for step timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates the orchestrator.
func New(policy ports.PolicyEvaluator, invoker ports.CapabilityInvoker, trail ports.AuditTrail, opts ...Option) (*Service, error) {
	if policy == nil {
		return nil, errors.New("policy evaluator is required")
	}
	if invoker == nil {
		return nil, errors.New("capability invoker is required")
	}
	if trail == nil {
		return nil, errors.New("audit trail is required")
	}
	s := &Service{
		policy:     policy,
		invoker:    invoker,
		trail:      trail,
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
		namespacer: DefaultNamespacer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Process runs req to a terminal state and appends its audit record. The
// returned error is reserved for caller misuse; denials and pipeline failures
// are reported on the Outcome.
func (s *Service) Process(ctx context.Context, req domain.OperationRequest) (*Outcome, error) {
	if ctx == nil {
		return nil, ErrContextRequired
	}
	start := time.Now()

	requestID := requestcontext.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		actor = defaultActor
	}

	ctx, span := s.tracer.Start(ctx, "issuance.Process", trace.WithAttributes(
		attribute.String("certgate.request_id", requestID),
		attribute.String("certgate.kind", req.Kind.String()),
		attribute.String("certgate.algorithm", req.Algorithm.String()),
		attribute.Int("certgate.key_size", req.KeySizeBits),
	))
	defer span.End()

	out := &Outcome{
		RequestID: requestID,
		Request:   req,
		State:     StateReceived,
		Steps:     []StepRecord{},
	}
	m := newMachine()

	verdict := s.policy.Validate(req).Clone()
	out.Verdict = &verdict
	m.mustAdvance(StatePolicyChecked)

	switch {
	case !verdict.Approved:
		m.mustAdvance(StateDenied)
		s.logger.InfoContext(ctx, "issuance request denied by policy",
			"request_id", requestID, "subject", req.SubjectName, "violations", verdict.Violations)
	default:
		s.execute(ctx, m, out)
	}
	out.State = m.state

	span.SetAttributes(attribute.String("certgate.state", out.State.String()))
	if out.State == StateFailed {
		span.SetStatus(codes.Error, out.Error)
	}

	s.appendAudit(ctx, out, actor)

	s.metrics.IncrementOutcome(req.Kind.String(), out.State.String())
	s.metrics.ObserveDuration(time.Since(start))
	return out, nil
}

// execute runs the pipeline for out.Request. It stops at the first failing
// step and leaves earlier artifacts in place.
func (s *Service) execute(ctx context.Context, m *machine, out *Outcome) {
	req := out.Request
	steps, ok := pipelines[req.Kind]
	if !ok {
		m.mustAdvance(StateFailed)
		out.Error = fmt.Errorf("%w %q", ErrUnsupportedKind, req.Kind).Error()
		s.logger.WarnContext(ctx, "issuance request has no pipeline",
			"request_id", out.RequestID, "kind", req.Kind)
		return
	}

	ns := s.namespacer(req)
	out.Namespace = ns
	wc := workingContext{}

	for _, st := range steps {
		m.mustAdvance(StateExecuting)
		op := st.operation(req)
		params := st.params(req, ns, wc)
		rec := StepRecord{Operation: op, Params: params, StartedAt: s.now().UTC()}

		stepCtx, stepSpan := s.tracer.Start(ctx, "issuance.step", trace.WithAttributes(
			attribute.String("certgate.operation", op),
			attribute.Int("certgate.step", m.step),
		))
		result, err := s.invoker.Invoke(stepCtx, op, params)
		rec.FinishedAt = s.now().UTC()

		if err != nil {
			stepSpan.RecordError(err)
			stepSpan.SetStatus(codes.Error, "step failed")
			stepSpan.End()

			rec.Error = err.Error()
			out.Steps = append(out.Steps, rec)
			out.Error = err.Error()
			out.FailedStep = op
			out.Artifacts = collectArtifacts(wc)
			m.mustAdvance(StateFailed)
			s.logger.WarnContext(ctx, "issuance step failed",
				"request_id", out.RequestID, "operation", op,
				"category", capability.GetCategory(err), "error", err)
			return
		}
		stepSpan.End()

		rec.Result = result
		out.Steps = append(out.Steps, rec)
		wc.merge(result)
		s.logger.DebugContext(ctx, "issuance step completed", "request_id", out.RequestID, "operation", op)
	}

	m.mustAdvance(StateSucceeded)
	out.Artifacts = collectArtifacts(wc)
	if req.Kind == domain.KindCertificateIssuance {
		out.Artifacts["common_name"] = req.SubjectName
	}
	s.logger.InfoContext(ctx, "issuance request succeeded",
		"request_id", out.RequestID, "subject", req.SubjectName, "kind", req.Kind,
		"certificate_path", out.Artifacts["certificate_path"])
}

// appendAudit writes the single audit record for out. The record is written
// even if the caller's context was cancelled mid-pipeline.
func (s *Service) appendAudit(ctx context.Context, out *Outcome, actor string) {
	rec := audit.Record{
		RequestID: out.RequestID,
		Actor:     actor,
		Operation: audit.OperationFor(out.Request.Kind),
		Request:   out.Request,
		Steps:     make([]audit.StepSummary, 0, len(out.Steps)),
	}
	if out.Verdict != nil {
		v := out.Verdict.Clone()
		rec.PolicyCheck = &v
	}
	for _, st := range out.Steps {
		status := "ok"
		if !st.Succeeded() {
			status = "failed"
		}
		rec.Steps = append(rec.Steps, audit.StepSummary{Operation: st.Operation, Status: status})
	}
	switch out.State {
	case StateDenied:
		rec.Result = audit.DeniedResult(out.Verdict.Violations)
	case StateSucceeded:
		rec.Result = audit.SuccessResult(out.Artifacts)
	default:
		rec.Result = audit.ErrorResult(out.Error, out.FailedStep, out.Artifacts)
	}

	if err := s.trail.Append(context.WithoutCancel(ctx), rec); err != nil {
		out.AuditError = err
		s.logger.ErrorContext(ctx, "CRITICAL: audit append failed",
			"request_id", out.RequestID, "state", out.State, "error", err)
	}
}
