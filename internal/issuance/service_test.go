package issuance

//go:generate mockgen -source=ports/ports.go -destination=mocks/mocks.go -package=mocks PolicyEvaluator,CapabilityInvoker,AuditTrail

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"certgate/internal/audit"
	"certgate/internal/capability"
	"certgate/internal/issuance/mocks"
	"certgate/pkg/domain"
	"certgate/pkg/platform/sentinel"
	"certgate/pkg/requestcontext"
)

// =============================================================================
// Orchestrator Test Suite
// =============================================================================
// The orchestrator owns the request lifecycle. Tests pin the policy gate, the
// step wiring, abort-on-first-failure and the one-record-per-request audit
// guarantee using mocked collaborators.

type ServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	policy  *mocks.MockPolicyEvaluator
	invoker *mocks.MockCapabilityInvoker
	trail   *mocks.MockAuditTrail
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.policy = mocks.NewMockPolicyEvaluator(s.ctrl)
	s.invoker = mocks.NewMockCapabilityInvoker(s.ctrl)
	s.trail = mocks.NewMockAuditTrail(s.ctrl)

	svc, err := New(s.policy, s.invoker, s.trail,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithNamespacer(func(domain.OperationRequest) string { return "api_example_com_deadbeef" }),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func issuanceRequest() domain.OperationRequest {
	return domain.NewOperationRequest(domain.KindCertificateIssuance, "api.example.com", "rsa", 2048, 365)
}

func approved() domain.Verdict {
	return domain.NewVerdict(nil, []string{"Using minimum key size 2048. Consider larger for better security."})
}

// expectPipeline wires the three happy-path invocations and returns the
// params each step received.
func (s *ServiceSuite) expectPipeline() map[string]capability.Params {
	seen := map[string]capability.Params{}
	gomock.InOrder(
		s.invoker.EXPECT().Invoke(gomock.Any(), capability.OpGenerateKeyRSA, gomock.Any()).
			DoAndReturn(func(_ context.Context, op string, p capability.Params) (capability.Result, error) {
				seen[op] = p
				return capability.Result{
					capability.ParamPrivateKeyPath: "out/keys/ns_private.pem",
					capability.ParamPublicKeyPath:  "out/keys/ns_public.pem",
					capability.ParamKeySize:        2048,
					capability.ParamAlgorithm:      "RSA",
				}, nil
			}),
		s.invoker.EXPECT().Invoke(gomock.Any(), capability.OpCreateCSR, gomock.Any()).
			DoAndReturn(func(_ context.Context, op string, p capability.Params) (capability.Result, error) {
				seen[op] = p
				return capability.Result{
					capability.ParamCSRPath:    "out/csrs/ns.csr",
					capability.ParamSubject:    "/C=US/ST=State/L=City/O=Organization/CN=api.example.com",
					capability.ParamCommonName: "api.example.com",
				}, nil
			}),
		s.invoker.EXPECT().Invoke(gomock.Any(), capability.OpSelfSignCert, gomock.Any()).
			DoAndReturn(func(_ context.Context, op string, p capability.Params) (capability.Result, error) {
				seen[op] = p
				return capability.Result{
					capability.ParamCertPath:     "out/certs/ns.crt",
					capability.ParamValidityDays: 365,
					capability.ParamSerialNumber: "1f",
					capability.ParamNotAfter:     "2027-01-01T00:00:00Z",
				}, nil
			}),
	)
	return seen
}

// captureAudit expects exactly one append and stores the record.
func (s *ServiceSuite) captureAudit(err error) *audit.Record {
	var rec audit.Record
	s.trail.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r audit.Record) error {
			rec = r
			return err
		}).Times(1)
	return &rec
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *ServiceSuite) TestNew() {
	s.Run("nil policy", func() {
		_, err := New(nil, s.invoker, s.trail)
		s.ErrorContains(err, "policy evaluator is required")
	})
	s.Run("nil invoker", func() {
		_, err := New(s.policy, nil, s.trail)
		s.ErrorContains(err, "capability invoker is required")
	})
	s.Run("nil audit trail", func() {
		_, err := New(s.policy, s.invoker, nil)
		s.ErrorContains(err, "audit trail is required")
	})
}

// =============================================================================
// Policy Gate
// =============================================================================

func (s *ServiceSuite) TestDeniedRequestInvokesNothing() {
	req := domain.NewOperationRequest(domain.KindCertificateIssuance, "api.example.com", "rsa", 1024, 365)
	verdict := domain.NewVerdict([]string{"RSA key size must be ≥2048 bits, got 1024"}, nil)
	s.policy.EXPECT().Validate(req).Return(verdict).Times(1)
	rec := s.captureAudit(nil)
	// No invoker expectations: any Invoke call fails the test.

	out, err := s.service.Process(context.Background(), req)
	s.Require().NoError(err)

	s.Equal(StateDenied, out.State)
	s.Empty(out.Steps)
	s.Equal(verdict.Violations, out.Verdict.Violations)
	s.Equal(audit.StatusDenied, rec.Result.Status)
	s.Equal(verdict.Violations, rec.Result.Violations)
	s.Equal(audit.OperationCertificateGeneration, rec.Operation)
	s.Require().NotNil(rec.PolicyCheck)
	s.False(rec.PolicyCheck.Approved)
	s.Empty(rec.Steps)
}

// =============================================================================
// Pipeline Execution
// =============================================================================

func (s *ServiceSuite) TestSucceededWiresStepOutputs() {
	req := issuanceRequest()
	s.policy.EXPECT().Validate(req).Return(approved())
	seen := s.expectPipeline()
	rec := s.captureAudit(nil)

	out, err := s.service.Process(context.Background(), req)
	s.Require().NoError(err)

	s.Equal(StateSucceeded, out.State)
	s.Equal("api_example_com_deadbeef", out.Namespace)
	s.Require().Len(out.Steps, 3)

	s.Equal(capability.Params{
		capability.ParamKeySize:    2048,
		capability.ParamOutputName: "api_example_com_deadbeef",
	}, seen[capability.OpGenerateKeyRSA])
	s.Equal(capability.Params{
		capability.ParamPrivateKeyPath: "out/keys/ns_private.pem",
		capability.ParamCommonName:     "api.example.com",
		capability.ParamOutputName:     "api_example_com_deadbeef",
	}, seen[capability.OpCreateCSR])
	s.Equal(capability.Params{
		capability.ParamCSRPath:        "out/csrs/ns.csr",
		capability.ParamPrivateKeyPath: "out/keys/ns_private.pem",
		capability.ParamOutputName:     "api_example_com_deadbeef",
		capability.ParamValidityDays:   365,
	}, seen[capability.OpSelfSignCert])

	s.Equal("out/certs/ns.crt", out.Artifacts["certificate_path"])
	s.Equal("out/keys/ns_private.pem", out.Artifacts["private_key_path"])
	s.Equal("out/keys/ns_public.pem", out.Artifacts["public_key_path"])
	s.Equal("out/csrs/ns.csr", out.Artifacts["csr_path"])
	s.Equal("api.example.com", out.Artifacts["common_name"])
	s.Equal("365", out.Artifacts["validity_days"])

	s.Equal(audit.StatusSuccess, rec.Result.Status)
	s.Equal(out.Artifacts, rec.Result.Artifacts)
	s.Equal([]audit.StepSummary{
		{Operation: capability.OpGenerateKeyRSA, Status: "ok"},
		{Operation: capability.OpCreateCSR, Status: "ok"},
		{Operation: capability.OpSelfSignCert, Status: "ok"},
	}, rec.Steps)
	s.Len(rec.PolicyCheck.Warnings, 1)
}

func (s *ServiceSuite) TestStepFailureAbortsAndKeepsEarlierArtifacts() {
	req := issuanceRequest()
	s.policy.EXPECT().Validate(req).Return(approved())
	gomock.InOrder(
		s.invoker.EXPECT().Invoke(gomock.Any(), capability.OpGenerateKeyRSA, gomock.Any()).
			Return(capability.Result{capability.ParamPrivateKeyPath: "out/keys/ns_private.pem"}, nil),
		s.invoker.EXPECT().Invoke(gomock.Any(), capability.OpCreateCSR, gomock.Any()).
			Return(nil, capability.NewExecutionError("native-csr", capability.OpCreateCSR, "failed to create certificate request", errors.New("bad key"))),
	)
	// self_sign_cert is never expected.
	rec := s.captureAudit(nil)

	out, err := s.service.Process(context.Background(), req)
	s.Require().NoError(err)

	s.Equal(StateFailed, out.State)
	s.Equal(capability.OpCreateCSR, out.FailedStep)
	s.Contains(out.Error, "bad key")
	s.Require().Len(out.Steps, 2)
	s.True(out.Steps[0].Succeeded())
	s.False(out.Steps[1].Succeeded())
	s.Equal("out/keys/ns_private.pem", out.Artifacts["private_key_path"])

	s.Equal(audit.StatusError, rec.Result.Status)
	s.Equal(capability.OpCreateCSR, rec.Result.FailedStep)
	s.Equal("out/keys/ns_private.pem", rec.Result.Artifacts["private_key_path"])
	s.Equal([]audit.StepSummary{
		{Operation: capability.OpGenerateKeyRSA, Status: "ok"},
		{Operation: capability.OpCreateCSR, Status: "failed"},
	}, rec.Steps)
}

func (s *ServiceSuite) TestKeyGenerationPipeline() {
	req := domain.NewOperationRequest(domain.KindKeyGeneration, "svc.internal", "ecdsa", 256, 0)
	s.policy.EXPECT().Validate(req).Return(domain.NewVerdict(nil, nil))
	s.invoker.EXPECT().Invoke(gomock.Any(), capability.OpGenerateKeyECDSA, gomock.Any()).
		Return(capability.Result{
			capability.ParamPrivateKeyPath: "k.pem",
			capability.ParamPublicKeyPath:  "k.pub",
			capability.ParamAlgorithm:      "ECDSA",
		}, nil)
	rec := s.captureAudit(nil)

	out, err := s.service.Process(context.Background(), req)
	s.Require().NoError(err)
	s.Equal(StateSucceeded, out.State)
	s.Equal("k.pem", out.Artifacts["private_key_path"])
	s.NotContains(out.Artifacts, "common_name")
	s.Equal(audit.OperationKeyGeneration, rec.Operation)
}

func (s *ServiceSuite) TestUnsupportedKindFailsAndIsAudited() {
	req := domain.OperationRequest{Kind: "revocation", SubjectName: "a.example.com", Algorithm: "rsa", KeySizeBits: 2048, ValidityDays: 30}
	s.policy.EXPECT().Validate(req).Return(domain.NewVerdict(nil, nil))
	rec := s.captureAudit(nil)

	out, err := s.service.Process(context.Background(), req)
	s.Require().NoError(err)
	s.Equal(StateFailed, out.State)
	s.Contains(out.Error, "unsupported operation kind")
	s.Equal(audit.StatusError, rec.Result.Status)
}

// =============================================================================
// Audit Guarantees
// =============================================================================

func (s *ServiceSuite) TestAuditFailureDoesNotChangeOutcome() {
	req := issuanceRequest()
	s.policy.EXPECT().Validate(req).Return(approved())
	s.expectPipeline()
	storageErr := &audit.StorageError{Op: "append", Err: errors.New("disk full")}
	s.captureAudit(storageErr)

	out, err := s.service.Process(context.Background(), req)
	s.Require().NoError(err)
	s.Equal(StateSucceeded, out.State)
	s.Require().Error(out.AuditError)
	s.True(audit.IsStorageError(out.AuditError))
}

func (s *ServiceSuite) TestRequestIdentityReachesAudit() {
	req := issuanceRequest()
	s.policy.EXPECT().Validate(req).Return(domain.NewVerdict([]string{"no"}, nil))
	rec := s.captureAudit(nil)

	ctx := requestcontext.WithRequestID(context.Background(), "req-123")
	ctx = requestcontext.WithActor(ctx, "operator@example.com")
	out, err := s.service.Process(ctx, req)
	s.Require().NoError(err)

	s.Equal("req-123", out.RequestID)
	s.Equal("req-123", rec.RequestID)
	s.Equal("operator@example.com", rec.Actor)
}

func (s *ServiceSuite) TestDefaultsIdentityWhenContextHasNone() {
	req := issuanceRequest()
	s.policy.EXPECT().Validate(req).Return(domain.NewVerdict([]string{"no"}, nil))
	rec := s.captureAudit(nil)

	out, err := s.service.Process(context.Background(), req)
	s.Require().NoError(err)
	s.NotEmpty(out.RequestID)
	s.Equal(out.RequestID, rec.RequestID)
	s.Equal("system", rec.Actor)
}

func (s *ServiceSuite) TestCancelledRequestIsStillAudited() {
	req := issuanceRequest()
	ctx, cancel := context.WithCancel(context.Background())
	s.policy.EXPECT().Validate(req).Return(approved())
	s.invoker.EXPECT().Invoke(gomock.Any(), capability.OpGenerateKeyRSA, gomock.Any()).
		DoAndReturn(func(context.Context, string, capability.Params) (capability.Result, error) {
			cancel()
			return nil, capability.NewExecutionError("native-keygen", capability.OpGenerateKeyRSA, "cancelled", context.Canceled)
		})
	s.trail.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(actx context.Context, rec audit.Record) error {
			s.NoError(actx.Err(), "audit context must outlive the request")
			s.Equal(audit.StatusError, rec.Result.Status)
			return nil
		})

	out, err := s.service.Process(ctx, req)
	s.Require().NoError(err)
	s.Equal(StateFailed, out.State)
}

func (s *ServiceSuite) TestNilContextIsMisuse() {
	//nolint:staticcheck // exercising the guard
	_, err := s.service.Process(nil, issuanceRequest())
	s.ErrorIs(err, ErrContextRequired)
}

// =============================================================================
// State Machine
// =============================================================================

func TestMachineRejectsIllegalTransitions(t *testing.T) {
	m := newMachine()
	require.ErrorIs(t, m.advance(StateExecuting), sentinel.ErrInvalidState)

	for _, to := range []State{StatePolicyChecked, StateExecuting, StateExecuting, StateSucceeded} {
		require.NoError(t, m.advance(to), to)
	}
	assert.Equal(t, 1, m.step)
	assert.True(t, m.state.Terminal())
	assert.ErrorIs(t, m.advance(StateFailed), sentinel.ErrInvalidState)
}

func TestDefaultNamespacer(t *testing.T) {
	req := issuanceRequest()

	first, second := DefaultNamespacer(req), DefaultNamespacer(req)
	assert.Regexp(t, `^api_example_com_[0-9a-f]{8}$`, first)
	assert.NotEqual(t, first, second, "replays must not share a namespace")

	odd := domain.NewOperationRequest(domain.KindCertificateIssuance, "../etc/pass wd", "rsa", 2048, 1)
	assert.Regexp(t, `^___etc_pass_wd_[0-9a-f]{8}$`, DefaultNamespacer(odd))
}
