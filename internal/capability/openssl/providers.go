package openssl

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"certgate/internal/capability"
)

// Provider names.
const (
	KeyGeneratorName      = "openssl-keygen"
	CSRCreatorName        = "openssl-csr"
	CertificateIssuerName = "openssl-selfsign"
)

var curveNames = map[int]string{
	256: "prime256v1",
	384: "secp384r1",
	521: "secp521r1",
}

// KeyGenerator runs openssl genrsa / ecparam.
type KeyGenerator struct {
	store  *capability.ArtifactStore
	runner *Runner
}

// NewKeyGenerator writes keys under store's keys/ directory.
func NewKeyGenerator(store *capability.ArtifactStore, runner *Runner) *KeyGenerator {
	return &KeyGenerator{store: store, runner: runner}
}

func (g *KeyGenerator) Name() string { return KeyGeneratorName }

func (g *KeyGenerator) Operations() []string {
	return []string{capability.OpGenerateKeyRSA, capability.OpGenerateKeyECDSA}
}

func (g *KeyGenerator) CanHandle(op string) bool {
	return slices.Contains(g.Operations(), op)
}

func (g *KeyGenerator) Execute(ctx context.Context, op string, params capability.Params) (capability.Result, error) {
	if !g.CanHandle(op) {
		return nil, capability.NewExecutionError(g.Name(), op, "unsupported operation", nil)
	}
	if err := capability.RequireParams(g.Name(), op, params, capability.ParamKeySize, capability.ParamOutputName); err != nil {
		return nil, err
	}
	bits, err := params.Int(capability.ParamKeySize)
	if err != nil {
		return nil, capability.NewExecutionError(g.Name(), op, "invalid parameter", err)
	}
	name, err := params.String(capability.ParamOutputName)
	if err != nil {
		return nil, capability.NewExecutionError(g.Name(), op, "invalid parameter", err)
	}
	privPath, pubPath, err := g.store.KeyPaths(name)
	if err != nil {
		return nil, capability.NewExecutionError(g.Name(), op, "invalid parameter", err)
	}

	var algorithm string
	switch op {
	case capability.OpGenerateKeyRSA:
		algorithm = "RSA"
		if bits <= 0 {
			return nil, capability.NewExecutionError(g.Name(), op, "invalid parameter", fmt.Errorf("key_size must be positive, got %d", bits))
		}
		if err := g.runner.Run(ctx, "genrsa", "-out", privPath, strconv.Itoa(bits)); err != nil {
			return nil, capability.NewExecutionError(g.Name(), op, "key generation failed", err)
		}
		if err := g.runner.Run(ctx, "rsa", "-in", privPath, "-pubout", "-out", pubPath); err != nil {
			return nil, capability.NewExecutionError(g.Name(), op, "public key extraction failed", err)
		}
	case capability.OpGenerateKeyECDSA:
		algorithm = "ECDSA"
		curve, ok := curveNames[bits]
		if !ok {
			return nil, capability.NewExecutionError(g.Name(), op, "invalid parameter",
				fmt.Errorf("unsupported ECDSA key size %d (want 256, 384 or 521)", bits))
		}
		if err := g.runner.Run(ctx, "ecparam", "-name", curve, "-genkey", "-noout", "-out", privPath); err != nil {
			return nil, capability.NewExecutionError(g.Name(), op, "key generation failed", err)
		}
		if err := g.runner.Run(ctx, "ec", "-in", privPath, "-pubout", "-out", pubPath); err != nil {
			return nil, capability.NewExecutionError(g.Name(), op, "public key extraction failed", err)
		}
	}
	if err := os.Chmod(privPath, 0o600); err != nil {
		return nil, capability.NewExecutionError(g.Name(), op, "failed to restrict private key permissions", err)
	}

	return capability.Result{
		capability.ParamPrivateKeyPath: privPath,
		capability.ParamPublicKeyPath:  pubPath,
		capability.ParamKeySize:        bits,
		capability.ParamAlgorithm:      algorithm,
	}, nil
}

// CSRCreator runs openssl req with a generated config file.
type CSRCreator struct {
	store  *capability.ArtifactStore
	runner *Runner
}

// NewCSRCreator writes requests under store's csrs/ directory.
func NewCSRCreator(store *capability.ArtifactStore, runner *Runner) *CSRCreator {
	return &CSRCreator{store: store, runner: runner}
}

func (c *CSRCreator) Name() string { return CSRCreatorName }

func (c *CSRCreator) Operations() []string { return []string{capability.OpCreateCSR} }

func (c *CSRCreator) CanHandle(op string) bool { return op == capability.OpCreateCSR }

func (c *CSRCreator) Execute(ctx context.Context, op string, params capability.Params) (capability.Result, error) {
	if !c.CanHandle(op) {
		return nil, capability.NewExecutionError(c.Name(), op, "unsupported operation", nil)
	}
	if err := capability.RequireParams(c.Name(), op, params,
		capability.ParamPrivateKeyPath, capability.ParamCommonName, capability.ParamOutputName); err != nil {
		return nil, err
	}
	keyPath, err := params.String(capability.ParamPrivateKeyPath)
	if err != nil {
		return nil, capability.NewExecutionError(c.Name(), op, "invalid parameter", err)
	}
	cn, err := params.String(capability.ParamCommonName)
	if err != nil {
		return nil, capability.NewExecutionError(c.Name(), op, "invalid parameter", err)
	}
	if err := checkConfigValue(cn); err != nil {
		return nil, capability.NewExecutionError(c.Name(), op, "invalid parameter", err)
	}
	name, err := params.String(capability.ParamOutputName)
	if err != nil {
		return nil, capability.NewExecutionError(c.Name(), op, "invalid parameter", err)
	}
	csrPath, err := c.store.CSRPath(name)
	if err != nil {
		return nil, capability.NewExecutionError(c.Name(), op, "invalid parameter", err)
	}

	conf, err := os.CreateTemp("", "certgate-req-*.conf")
	if err != nil {
		return nil, capability.NewExecutionError(c.Name(), op, "failed to create openssl config", err)
	}
	defer os.Remove(conf.Name())
	_, err = conf.WriteString(reqConfig(cn))
	if cerr := conf.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, capability.NewExecutionError(c.Name(), op, "failed to write openssl config", err)
	}

	if err := c.runner.Run(ctx, "req", "-new", "-key", keyPath, "-out", csrPath, "-config", conf.Name()); err != nil {
		return nil, capability.NewExecutionError(c.Name(), op, "failed to create certificate request", err)
	}

	return capability.Result{
		capability.ParamCSRPath:    csrPath,
		capability.ParamSubject:    fmt.Sprintf("/C=US/ST=State/L=City/O=Organization/CN=%s", cn),
		capability.ParamCommonName: cn,
	}, nil
}

// checkConfigValue rejects common names that openssl's config parser would
// read as something other than a literal. A ',' would also split the
// subjectAltName list.
func checkConfigValue(cn string) error {
	if strings.ContainsFunc(cn, unicode.IsControl) {
		return errors.New("common_name contains control characters")
	}
	if i := strings.IndexAny(cn, ",$#\\\""); i >= 0 {
		return fmt.Errorf("common_name contains reserved character %q", cn[i])
	}
	return nil
}

// reqConfig renders the openssl req configuration for cn. The DNS
// subjectAltName is only requested when cn is a plain hostname.
func reqConfig(cn string) string {
	var b strings.Builder
	b.WriteString("[req]\ndistinguished_name = req_distinguished_name\nprompt = no\nutf8 = yes\nstring_mask = utf8only\n")
	if capability.IsDNSName(cn) {
		b.WriteString("req_extensions = v3_req\n")
	}
	fmt.Fprintf(&b, "\n[req_distinguished_name]\nC = US\nST = State\nL = City\nO = Organization\nCN = %s\n", cn)
	if capability.IsDNSName(cn) {
		fmt.Fprintf(&b, "\n[v3_req]\nsubjectAltName = DNS:%s\n", cn)
	}
	return b.String()
}

// CertificateIssuer runs openssl x509 -req -signkey.
type CertificateIssuer struct {
	store  *capability.ArtifactStore
	runner *Runner
}

// NewCertificateIssuer writes certificates under store's certs/ directory.
func NewCertificateIssuer(store *capability.ArtifactStore, runner *Runner) *CertificateIssuer {
	return &CertificateIssuer{store: store, runner: runner}
}

func (i *CertificateIssuer) Name() string { return CertificateIssuerName }

func (i *CertificateIssuer) Operations() []string { return []string{capability.OpSelfSignCert} }

func (i *CertificateIssuer) CanHandle(op string) bool { return op == capability.OpSelfSignCert }

func (i *CertificateIssuer) Execute(ctx context.Context, op string, params capability.Params) (capability.Result, error) {
	if !i.CanHandle(op) {
		return nil, capability.NewExecutionError(i.Name(), op, "unsupported operation", nil)
	}
	if err := capability.RequireParams(i.Name(), op, params,
		capability.ParamCSRPath, capability.ParamPrivateKeyPath, capability.ParamOutputName, capability.ParamValidityDays); err != nil {
		return nil, err
	}
	csrPath, err := params.String(capability.ParamCSRPath)
	if err != nil {
		return nil, capability.NewExecutionError(i.Name(), op, "invalid parameter", err)
	}
	keyPath, err := params.String(capability.ParamPrivateKeyPath)
	if err != nil {
		return nil, capability.NewExecutionError(i.Name(), op, "invalid parameter", err)
	}
	name, err := params.String(capability.ParamOutputName)
	if err != nil {
		return nil, capability.NewExecutionError(i.Name(), op, "invalid parameter", err)
	}
	days, err := params.Int(capability.ParamValidityDays)
	if err != nil {
		return nil, capability.NewExecutionError(i.Name(), op, "invalid parameter", err)
	}
	if days <= 0 {
		return nil, capability.NewExecutionError(i.Name(), op, "invalid parameter", errors.New("validity_days must be positive"))
	}
	certPath, err := i.store.CertPath(name)
	if err != nil {
		return nil, capability.NewExecutionError(i.Name(), op, "invalid parameter", err)
	}

	if err := i.runner.Run(ctx, "x509", "-req", "-in", csrPath, "-signkey", keyPath,
		"-out", certPath, "-days", strconv.Itoa(days)); err != nil {
		return nil, capability.NewExecutionError(i.Name(), op, "failed to sign certificate", err)
	}

	cert, err := readCertificate(certPath)
	if err != nil {
		return nil, capability.NewExecutionError(i.Name(), op, "failed to read issued certificate", err)
	}

	return capability.Result{
		capability.ParamCertPath:     certPath,
		capability.ParamValidityDays: days,
		capability.ParamSerialNumber: cert.SerialNumber.Text(16),
		capability.ParamNotAfter:     cert.NotAfter.UTC().Format(time.RFC3339),
	}, nil
}

func readCertificate(path string) (*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("no certificate PEM block in %s", path)
	}
	return x509.ParseCertificate(block.Bytes)
}

// Register adds the three openssl providers to reg in pipeline order.
func Register(reg *capability.Registry, store *capability.ArtifactStore, runner *Runner) error {
	for _, p := range []capability.Provider{
		NewKeyGenerator(store, runner),
		NewCSRCreator(store, runner),
		NewCertificateIssuer(store, runner),
	} {
		if err := reg.Register(p); err != nil {
			return err
		}
	}
	return nil
}
