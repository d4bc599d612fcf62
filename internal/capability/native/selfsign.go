package native

import (
	"context"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"math/big"
	"time"

	"certgate/internal/capability"
)

// CertificateIssuer self-signs a CSR with the key that produced it.
type CertificateIssuer struct {
	store *capability.ArtifactStore
	now   func() time.Time
	options
}

// NewCertificateIssuer writes certificates under store's certs/ directory.
func NewCertificateIssuer(store *capability.ArtifactStore, opts ...Option) *CertificateIssuer {
	return &CertificateIssuer{store: store, now: time.Now, options: newOptions(opts)}
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

	csr, err := readCSR(csrPath)
	if err != nil {
		return nil, capability.NewExecutionError(i.Name(), op, "failed to load certificate request", err)
	}
	key, err := readPrivateKey(keyPath)
	if err != nil {
		return nil, capability.NewExecutionError(i.Name(), op, "failed to load private key", err)
	}
	if !publicKeysMatch(key.Public(), csr.PublicKey) {
		return nil, capability.NewExecutionError(i.Name(), op, "private key does not match certificate request", nil)
	}
	usage, err := keyUsageFor(csr.PublicKey)
	if err != nil {
		return nil, capability.NewExecutionError(i.Name(), op, "invalid certificate request", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, capability.NewExecutionError(i.Name(), op, "failed to generate serial number", err)
	}
	notBefore := i.now().UTC()
	notAfter := notBefore.Add(time.Duration(days) * 24 * time.Hour)
	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               csr.Subject,
		DNSNames:              csr.DNSNames,
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              usage,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, csr.PublicKey, key)
	if err != nil {
		return nil, capability.NewExecutionError(i.Name(), op, "failed to sign certificate", err)
	}
	if err := i.store.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o644); err != nil {
		return nil, capability.NewExecutionError(i.Name(), op, "failed to write certificate", err)
	}

	i.logger.InfoContext(ctx, "self-signed certificate issued",
		"common_name", csr.Subject.CommonName, "cert_path", certPath, "validity_days", days)

	return capability.Result{
		capability.ParamCertPath:     certPath,
		capability.ParamValidityDays: days,
		capability.ParamSerialNumber: serial.Text(16),
		capability.ParamNotAfter:     notAfter.Format(time.RFC3339),
	}, nil
}
