package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"certgate/internal/app"
	"certgate/internal/policy"
	"certgate/pkg/domain"
)

func newPolicyCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the issuance policy",
	}
	cmd.AddCommand(newPolicyCheckCmd(root), newPolicyInitCmd(root))
	return cmd
}

func newPolicyCheckCmd(root *rootOptions) *cobra.Command {
	var (
		kind         string
		subject      string
		algorithm    string
		keySize      int
		validityDays int
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the policy file and optionally evaluate a request",
		Long: `Load and validate the policy file, print its rules, and, when --algorithm is
given, evaluate that request without executing or auditing it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}
			rules, err := app.LoadRules(cfg.PolicyFile)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Policy %s is valid.\n", cfg.PolicyFile)
			printRules(w, rules)

			if algorithm == "" {
				return nil
			}
			k, err := domain.ParseOperationKind(kind)
			if err != nil {
				return err
			}
			engine, err := policy.NewEngine(rules)
			if err != nil {
				return err
			}
			req := domain.NewOperationRequest(k, subject, algorithm, keySize, validityDays)
			verdict := engine.Validate(req)
			fmt.Fprintln(w)
			printVerdict(w, verdict)
			if !verdict.Approved {
				return &exitError{code: exitDenied, msg: "request would be denied"}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&kind, "kind", string(domain.KindCertificateIssuance), "certificate_issuance or key_generation")
	f.StringVar(&subject, "subject", "example.com", "subject common name")
	f.StringVar(&algorithm, "algorithm", "", "algorithm to evaluate")
	f.IntVar(&keySize, "key-size", 2048, "key size in bits")
	f.IntVar(&validityDays, "validity-days", 365, "validity in days")
	return cmd
}

func newPolicyInitCmd(root *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in default policy to the policy file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}
			if err := policy.WriteDefaultPolicy(cfg.PolicyFile, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Policy written to %s\n", cfg.PolicyFile)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing policy file")
	return cmd
}

func printRules(w io.Writer, rules *policy.RuleSet) {
	fmt.Fprintf(w, "  allowed:   %s\n", strings.Join(rules.AllowedAlgorithms(), ", "))
	fmt.Fprintf(w, "  forbidden: %s\n", strings.Join(rules.ForbiddenAlgorithms(), ", "))
	for _, alg := range rules.AllowedAlgorithms() {
		if n, ok := rules.MinimumKeySize(alg); ok {
			fmt.Fprintf(w, "  minimum %s key size: %d\n", alg, n)
		}
	}
	fmt.Fprintf(w, "  maximum validity: %d days\n", rules.MaximumValidityDays())
}
