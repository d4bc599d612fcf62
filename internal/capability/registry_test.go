package capability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certgate/internal/capability/metrics"
	"certgate/pkg/platform/sentinel"
)

type stubProvider struct {
	name   string
	ops    []string
	calls  []string
	result Result
	err    error
}

func (s *stubProvider) Name() string         { return s.name }
func (s *stubProvider) Operations() []string { return s.ops }

func (s *stubProvider) CanHandle(op string) bool {
	for _, o := range s.ops {
		if o == op {
			return true
		}
	}
	return false
}

func (s *stubProvider) Execute(_ context.Context, op string, _ Params) (Result, error) {
	s.calls = append(s.calls, op)
	return s.result, s.err
}

func newTestRegistry() *Registry {
	return NewRegistry(
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(metrics.New(nil)),
	)
}

func TestRegistry_Register(t *testing.T) {
	t.Run("keeps registration order", func(t *testing.T) {
		reg := newTestRegistry()
		require.NoError(t, reg.Register(&stubProvider{name: "keys", ops: []string{OpGenerateKeyRSA, OpGenerateKeyECDSA}}))
		require.NoError(t, reg.Register(&stubProvider{name: "csr", ops: []string{OpCreateCSR}}))

		assert.Equal(t, []string{OpGenerateKeyRSA, OpGenerateKeyECDSA, OpCreateCSR}, reg.Operations())
		require.Len(t, reg.Providers(), 2)
		assert.Equal(t, "keys", reg.Providers()[0].Name())
	})

	t.Run("duplicate operation is a conflict", func(t *testing.T) {
		reg := newTestRegistry()
		require.NoError(t, reg.Register(&stubProvider{name: "first", ops: []string{OpCreateCSR}}))

		err := reg.Register(&stubProvider{name: "second", ops: []string{OpSelfSignCert, OpCreateCSR}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrConflict))
		assert.Contains(t, err.Error(), "first")

		// Rejected provider leaves no partial claims behind.
		assert.Equal(t, []string{OpCreateCSR}, reg.Operations())
		_, err = reg.Resolve(OpSelfSignCert)
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})

	t.Run("operation declared twice by one provider", func(t *testing.T) {
		reg := newTestRegistry()
		err := reg.Register(&stubProvider{name: "dup", ops: []string{OpCreateCSR, OpCreateCSR}})
		assert.True(t, errors.Is(err, sentinel.ErrConflict))
	})

	t.Run("provider without operations", func(t *testing.T) {
		reg := newTestRegistry()
		assert.Error(t, reg.Register(&stubProvider{name: "empty"}))
		assert.Error(t, reg.Register(nil))
	})
}

func TestRegistry_Resolve(t *testing.T) {
	reg := newTestRegistry()
	keys := &stubProvider{name: "keys", ops: []string{OpGenerateKeyRSA}}
	csr := &stubProvider{name: "csr", ops: []string{OpCreateCSR}}
	require.NoError(t, reg.Register(keys))
	require.NoError(t, reg.Register(csr))

	p, err := reg.Resolve(OpCreateCSR)
	require.NoError(t, err)
	assert.Same(t, csr, p)

	_, err = reg.Resolve("generate_key_dsa")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestRegistry_Invoke(t *testing.T) {
	ctx := context.Background()

	t.Run("returns provider result", func(t *testing.T) {
		reg := newTestRegistry()
		p := &stubProvider{name: "csr", ops: []string{OpCreateCSR}, result: Result{ParamCSRPath: "/tmp/x.csr"}}
		require.NoError(t, reg.Register(p))

		res, err := reg.Invoke(ctx, OpCreateCSR, Params{})
		require.NoError(t, err)
		assert.Equal(t, "/tmp/x.csr", res[ParamCSRPath])
		assert.Equal(t, []string{OpCreateCSR}, p.calls)
	})

	t.Run("nil result becomes empty", func(t *testing.T) {
		reg := newTestRegistry()
		require.NoError(t, reg.Register(&stubProvider{name: "csr", ops: []string{OpCreateCSR}}))

		res, err := reg.Invoke(ctx, OpCreateCSR, nil)
		require.NoError(t, err)
		assert.NotNil(t, res)
	})

	t.Run("plain errors are normalized", func(t *testing.T) {
		reg := newTestRegistry()
		boom := errors.New("disk full")
		require.NoError(t, reg.Register(&stubProvider{name: "csr", ops: []string{OpCreateCSR}, err: boom}))

		_, err := reg.Invoke(ctx, OpCreateCSR, Params{})
		var pe *ProviderError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, ErrorExecutionFailure, pe.Category)
		assert.Equal(t, "csr", pe.Provider)
		assert.True(t, errors.Is(err, boom))
	})

	t.Run("provider errors pass through", func(t *testing.T) {
		reg := newTestRegistry()
		missing := NewMissingParameterError("csr", OpCreateCSR, []string{ParamCommonName})
		require.NoError(t, reg.Register(&stubProvider{name: "csr", ops: []string{OpCreateCSR}, err: missing}))

		_, err := reg.Invoke(ctx, OpCreateCSR, Params{})
		assert.Equal(t, ErrorMissingParameter, GetCategory(err))
	})

	t.Run("unknown operation", func(t *testing.T) {
		reg := newTestRegistry()
		_, err := reg.Invoke(ctx, "generate_key_dsa", Params{})
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})

	t.Run("cancelled context skips execution", func(t *testing.T) {
		reg := newTestRegistry()
		p := &stubProvider{name: "csr", ops: []string{OpCreateCSR}}
		require.NoError(t, reg.Register(p))

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := reg.Invoke(cctx, OpCreateCSR, Params{})
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Empty(t, p.calls)
	})
}

func TestRequireParams(t *testing.T) {
	err := RequireParams("native", OpCreateCSR, Params{
		ParamPrivateKeyPath: "/k.pem",
		ParamCommonName:     "",
	}, ParamPrivateKeyPath, ParamCommonName, ParamOutputName)

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ErrorMissingParameter, pe.Category)
	assert.Equal(t, []string{ParamCommonName, ParamOutputName}, pe.Missing)
	assert.Contains(t, err.Error(), "common_name, output_name")

	assert.NoError(t, RequireParams("native", OpCreateCSR, Params{ParamCommonName: "a"}, ParamCommonName))
}

func TestParams_Int(t *testing.T) {
	p := Params{"a": 2048, "b": int64(256), "c": float64(365), "d": 1.5, "e": "384"}

	for key, want := range map[string]int{"a": 2048, "b": 256, "c": 365} {
		got, err := p.Int(key)
		require.NoError(t, err, key)
		assert.Equal(t, want, got, key)
	}
	for _, key := range []string{"d", "e", "missing"} {
		_, err := p.Int(key)
		assert.Error(t, err, key)
	}
}

func TestGenerateKeyOperation(t *testing.T) {
	assert.Equal(t, OpGenerateKeyRSA, GenerateKeyOperation("rsa"))
	assert.Equal(t, OpGenerateKeyECDSA, GenerateKeyOperation("ecdsa"))
}
