package openssl

import (
	"context"
	"crypto/x509"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certgate/internal/capability"
	"certgate/internal/capability/contract"
)

func newRunner(t *testing.T, opts ...Option) *Runner {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	r := NewRunner(opts...)
	return r
}

func requireOpenSSL(t *testing.T) *Runner {
	t.Helper()
	r := newRunner(t)
	if !r.Available() {
		t.Skip("openssl not found on PATH")
	}
	return r
}

func newStore(t *testing.T) *capability.ArtifactStore {
	t.Helper()
	store, err := capability.NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestRunner_CapturesStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}
	script := filepath.Join(t.TempDir(), "fake-openssl")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'unable to load key' >&2\nexit 3\n"), 0o755))

	err := newRunner(t, WithBinary(script)).Run(context.Background(), "req", "-new")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openssl req: unable to load key")

	var exitErr interface{ ExitCode() int }
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestRunner_MissingBinary(t *testing.T) {
	r := newRunner(t, WithBinary(filepath.Join(t.TempDir(), "nope")))
	assert.False(t, r.Available())
	assert.Error(t, r.Run(context.Background(), "version"))
}

func TestProviders_Contract(t *testing.T) {
	runner := requireOpenSSL(t)
	store := newStore(t)

	(&contract.Suite{
		Provider: NewKeyGenerator(store, runner),
		Cases: []contract.Case{{
			Name:      "ecdsa",
			Operation: capability.OpGenerateKeyECDSA,
			Params: func(*testing.T) capability.Params {
				return capability.Params{capability.ParamKeySize: 256, capability.ParamOutputName: "contract_ec"}
			},
			ExpectedKeys: []string{capability.ParamPrivateKeyPath, capability.ParamPublicKeyPath, capability.ParamAlgorithm},
		}},
	}).Run(t)
	(&contract.Suite{Provider: NewCSRCreator(store, runner)}).Run(t)
	(&contract.Suite{Provider: NewCertificateIssuer(store, runner)}).Run(t)
}

func TestPipeline_IssuesCertificate(t *testing.T) {
	runner := requireOpenSSL(t)
	ctx := context.Background()
	store := newStore(t)
	reg := capability.NewRegistry(capability.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, Register(reg, store, runner))

	keys, err := reg.Invoke(ctx, capability.OpGenerateKeyRSA, capability.Params{
		capability.ParamKeySize:    2048,
		capability.ParamOutputName: "api_example_com",
	})
	require.NoError(t, err)
	info, err := os.Stat(keys[capability.ParamPrivateKeyPath].(string))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	csr, err := reg.Invoke(ctx, capability.OpCreateCSR, capability.Params{
		capability.ParamPrivateKeyPath: keys[capability.ParamPrivateKeyPath],
		capability.ParamCommonName:     "api.example.com",
		capability.ParamOutputName:     "api_example_com",
	})
	require.NoError(t, err)

	res, err := reg.Invoke(ctx, capability.OpSelfSignCert, capability.Params{
		capability.ParamCSRPath:        csr[capability.ParamCSRPath],
		capability.ParamPrivateKeyPath: keys[capability.ParamPrivateKeyPath],
		capability.ParamOutputName:     "api_example_com",
		capability.ParamValidityDays:   90,
	})
	require.NoError(t, err)

	cert, err := readCertificate(res[capability.ParamCertPath].(string))
	require.NoError(t, err)
	assert.Equal(t, "api.example.com", cert.Subject.CommonName)
	assert.Equal(t, x509.SHA256WithRSA, cert.SignatureAlgorithm)
	assert.Equal(t, cert.SerialNumber.Text(16), res[capability.ParamSerialNumber])
}

func TestCSRCreator_RejectsConfigSyntaxInCommonName(t *testing.T) {
	store := newStore(t)
	creator := NewCSRCreator(store, newRunner(t))

	for _, cn := range []string{
		"evil\n[req]",
		"a.com,DNS:evil.com",
		"${ENV::HOME}.example.com",
		"a.example.com # comment",
		`a\.example.com`,
		`"quoted".example.com`,
	} {
		t.Run(cn, func(t *testing.T) {
			_, err := creator.Execute(context.Background(), capability.OpCreateCSR, capability.Params{
				capability.ParamPrivateKeyPath: "/k.pem",
				capability.ParamCommonName:     cn,
				capability.ParamOutputName:     "x",
			})
			assert.Equal(t, capability.ErrorExecutionFailure, capability.GetCategory(err))
		})
	}
}

func TestReqConfig_SubjectAltName(t *testing.T) {
	conf := reqConfig("api.example.com")
	assert.Contains(t, conf, "req_extensions = v3_req\n")
	assert.Contains(t, conf, "subjectAltName = DNS:api.example.com\n")

	conf = reqConfig("café.example")
	assert.Contains(t, conf, "CN = café.example\n")
	assert.NotContains(t, conf, "subjectAltName")
	assert.NotContains(t, conf, "req_extensions")
}

func TestKeyGenerator_UnsupportedCurve(t *testing.T) {
	store := newStore(t)
	_, err := NewKeyGenerator(store, newRunner(t)).Execute(context.Background(), capability.OpGenerateKeyECDSA, capability.Params{
		capability.ParamKeySize:    1024,
		capability.ParamOutputName: "x",
	})
	var pe *capability.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, capability.ErrorExecutionFailure, pe.Category)
}
