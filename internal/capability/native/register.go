package native

import "certgate/internal/capability"

// Register adds the key generator, CSR creator and certificate issuer to reg
// in pipeline order.
func Register(reg *capability.Registry, store *capability.ArtifactStore, opts ...Option) error {
	for _, p := range []capability.Provider{
		NewKeyGenerator(store, opts...),
		NewCSRCreator(store, opts...),
		NewCertificateIssuer(store, opts...),
	} {
		if err := reg.Register(p); err != nil {
			return err
		}
	}
	return nil
}
