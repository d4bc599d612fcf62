package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"certgate/internal/app"
	"certgate/internal/platform/config"
	"certgate/internal/platform/logger"
	"certgate/pkg/requestcontext"
)

const cliActor = "cli"

// exitError ends the process with code after the command already reported
// the outcome, so main prints nothing more.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

type rootOptions struct {
	policyFile string
	outputDir  string
	provider   string
	auditKind  string
	auditPath  string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "certgate",
		Short: "Policy-gated key and certificate issuance",
		Long: `Issue keys and self-signed certificates through a declarative policy gate.

Every request is checked against the policy file, executed step by step by the
configured provider backend, and recorded in the audit log whether it was
approved, denied, or failed.

Flags override the CERTGATE_* environment variables.

Examples:
  # Issue a certificate
  certgate issue --subject api.example.com --algorithm rsa --key-size 2048 --validity-days 365

  # Show the last 5 audit records
  certgate audit --limit 5

  # Validate the policy and evaluate a request without executing it
  certgate policy check --subject api.example.com --algorithm dsa --key-size 1024`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.policyFile, "policy", "", "policy file (default $CERTGATE_POLICY_FILE or config/crypto_policies.yaml)")
	f.StringVar(&opts.outputDir, "output-dir", "", "artifact directory (default $CERTGATE_OUTPUT_DIR or output)")
	f.StringVar(&opts.provider, "provider", "", "provider backend: native or openssl")
	f.StringVar(&opts.auditKind, "audit-backend", "", "audit backend: file, jsonl, memory, postgres or redis")
	f.StringVar(&opts.auditPath, "audit-path", "", "audit log path for the file and jsonl backends")
	f.StringVar(&opts.logLevel, "log-level", "", "operational log level (default warn)")

	root.AddCommand(newIssueCmd(opts), newAuditCmd(opts), newPolicyCmd(opts))
	return root
}

// config merges flags over the environment.
func (o *rootOptions) config() (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, err
	}
	if cfg.PolicyFile == "" {
		cfg.PolicyFile = "config/crypto_policies.yaml"
	}
	if os.Getenv("CERTGATE_LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.PolicyFile, o.policyFile)
	override(&cfg.OutputDir, o.outputDir)
	override(&cfg.ProviderBackend, o.provider)
	override(&cfg.Audit.Backend, o.auditKind)
	override(&cfg.Audit.Path, o.auditPath)
	override(&cfg.LogLevel, o.logLevel)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// build wires the application with logs on errOut so stdout carries only
// command output.
func (o *rootOptions) build(ctx context.Context, errOut io.Writer) (*app.App, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, logger.NewWithWriter(errOut, cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("initialize certgate: %w", err)
	}
	return a, nil
}

func cliContext(cmd *cobra.Command) context.Context {
	return requestcontext.WithActor(cmd.Context(), cliActor)
}
