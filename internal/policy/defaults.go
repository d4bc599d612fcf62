package policy

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed defaults/crypto_policies.yaml
var defaultsFS embed.FS

const defaultPolicyFile = "defaults/crypto_policies.yaml"

// DefaultRuleSet returns the policy compiled into the binary.
func DefaultRuleSet() (*RuleSet, error) {
	data, err := defaultsFS.ReadFile(defaultPolicyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded policy: %w", err)
	}
	return LoadRuleSetFromBytes(data, "embedded")
}

// WriteDefaultPolicy copies the embedded policy to path so operators have a
// starting point to edit. An existing file is left untouched unless overwrite
// is set.
func WriteDefaultPolicy(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
	}
	data, err := defaultsFS.ReadFile(defaultPolicyFile)
	if err != nil {
		return fmt.Errorf("failed to read embedded policy: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create policy directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write policy file: %w", err)
	}
	return nil
}
