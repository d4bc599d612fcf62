package capability

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Artifact subdirectories under the output root.
const (
	keysDir  = "keys"
	csrsDir  = "csrs"
	certsDir = "certs"
)

// ArtifactStore lays out generated files under a single output root. It only
// creates files; it never reads back, renames or deletes them, so providers
// sharing a store stay stateless.
type ArtifactStore struct {
	root string
}

// NewArtifactStore creates root and its keys/, csrs/ and certs/ directories.
func NewArtifactStore(root string) (*ArtifactStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("artifact root is required")
	}
	for _, dir := range []string{keysDir, csrsDir, certsDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
		}
	}
	return &ArtifactStore{root: root}, nil
}

// Root returns the output root.
func (s *ArtifactStore) Root() string {
	return s.root
}

// KeyPaths returns the private and public key paths for name.
func (s *ArtifactStore) KeyPaths(name string) (private, public string, err error) {
	if err := checkName(name); err != nil {
		return "", "", err
	}
	return filepath.Join(s.root, keysDir, name+"_private.pem"),
		filepath.Join(s.root, keysDir, name+"_public.pem"), nil
}

// CSRPath returns the signing-request path for name.
func (s *ArtifactStore) CSRPath(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.root, csrsDir, name+".csr"), nil
}

// CertPath returns the certificate path for name.
func (s *ArtifactStore) CertPath(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.root, certsDir, name+".crt"), nil
}

// WriteFile writes data to path with perm. Private keys use 0600.
func (s *ArtifactStore) WriteFile(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	// OpenFile leaves the mode of an existing file alone.
	return os.Chmod(path, perm)
}

// output names become file names, so they must not escape the root.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid output name %q", name)
	}
	return nil
}
