package native

import (
	"context"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"

	"certgate/internal/capability"
)

// Fixed subject attributes; only the common name varies per request.
var subjectTemplate = pkix.Name{
	Country:      []string{"US"},
	Province:     []string{"State"},
	Locality:     []string{"City"},
	Organization: []string{"Organization"},
}

// SubjectString renders the subject the way openssl -subj expects it.
func SubjectString(commonName string) string {
	return fmt.Sprintf("/C=US/ST=State/L=City/O=Organization/CN=%s", commonName)
}

// CSRCreator builds PKCS#10 signing requests from an existing private key.
type CSRCreator struct {
	store *capability.ArtifactStore
	options
}

// NewCSRCreator writes requests under store's csrs/ directory.
func NewCSRCreator(store *capability.ArtifactStore, opts ...Option) *CSRCreator {
	return &CSRCreator{store: store, options: newOptions(opts)}
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
	name, err := params.String(capability.ParamOutputName)
	if err != nil {
		return nil, capability.NewExecutionError(c.Name(), op, "invalid parameter", err)
	}
	csrPath, err := c.store.CSRPath(name)
	if err != nil {
		return nil, capability.NewExecutionError(c.Name(), op, "invalid parameter", err)
	}

	key, err := readPrivateKey(keyPath)
	if err != nil {
		return nil, capability.NewExecutionError(c.Name(), op, "failed to load private key", err)
	}

	subject := subjectTemplate
	subject.CommonName = cn
	tmpl := &x509.CertificateRequest{Subject: subject}
	if capability.IsDNSName(cn) {
		tmpl.DNSNames = []string{cn}
	}
	der, err := x509.CreateCertificateRequest(rand.Reader, tmpl, key)
	if err != nil {
		return nil, capability.NewExecutionError(c.Name(), op, "failed to create certificate request", err)
	}
	if err := c.store.WriteFile(csrPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: der}), 0o644); err != nil {
		return nil, capability.NewExecutionError(c.Name(), op, "failed to write certificate request", err)
	}

	c.logger.InfoContext(ctx, "certificate request created", "common_name", cn, "csr_path", csrPath)

	return capability.Result{
		capability.ParamCSRPath:    csrPath,
		capability.ParamSubject:    SubjectString(cn),
		capability.ParamCommonName: cn,
	}, nil
}
