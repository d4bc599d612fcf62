package native

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"slices"

	"certgate/internal/capability"
)

// KeyGenerator produces RSA and ECDSA key pairs.
type KeyGenerator struct {
	store *capability.ArtifactStore
	options
}

// NewKeyGenerator writes keys under store's keys/ directory.
func NewKeyGenerator(store *capability.ArtifactStore, opts ...Option) *KeyGenerator {
	return &KeyGenerator{store: store, options: newOptions(opts)}
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

	var (
		key       crypto.Signer
		algorithm string
	)
	switch op {
	case capability.OpGenerateKeyRSA:
		algorithm = "RSA"
		if bits < minRSABits {
			return nil, capability.NewExecutionError(g.Name(), op,
				fmt.Sprintf("RSA key size %d is below the supported minimum %d", bits, minRSABits), nil)
		}
		key, err = rsa.GenerateKey(rand.Reader, bits)
	case capability.OpGenerateKeyECDSA:
		algorithm = "ECDSA"
		curve, cerr := curveForSize(bits)
		if cerr != nil {
			return nil, capability.NewExecutionError(g.Name(), op, "invalid parameter", cerr)
		}
		key, err = ecdsa.GenerateKey(curve, rand.Reader)
	}
	if err != nil {
		return nil, capability.NewExecutionError(g.Name(), op, "key generation failed", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, capability.NewExecutionError(g.Name(), op, "cancelled", err)
	}

	privPEM, pubPEM, err := encodePrivateKey(key)
	if err != nil {
		return nil, capability.NewExecutionError(g.Name(), op, "key encoding failed", err)
	}
	if err := g.store.WriteFile(privPath, privPEM, 0o600); err != nil {
		return nil, capability.NewExecutionError(g.Name(), op, "failed to write private key", err)
	}
	if err := g.store.WriteFile(pubPath, pubPEM, 0o644); err != nil {
		return nil, capability.NewExecutionError(g.Name(), op, "failed to write public key", err)
	}

	g.logger.InfoContext(ctx, "key pair generated",
		"algorithm", algorithm, "key_size", bits, "private_key_path", privPath, "public_key_path", pubPath)

	return capability.Result{
		capability.ParamPrivateKeyPath: privPath,
		capability.ParamPublicKeyPath:  pubPath,
		capability.ParamKeySize:        bits,
		capability.ParamAlgorithm:      algorithm,
	}, nil
}
