package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"certgate/internal/issuance"
	"certgate/pkg/domain"
)

// Exit codes for issue.
const (
	exitFailed = 1
	exitDenied = 2
)

type issueOptions struct {
	kind         string
	subject      string
	algorithm    string
	keySize      int
	validityDays int
	jsonOutput   bool
}

func newIssueCmd(root *rootOptions) *cobra.Command {
	opts := &issueOptions{}
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Generate a key pair and, by default, a self-signed certificate",
		Long: `Run one request through the policy gate and the issuance pipeline.

Kinds:
  certificate_issuance  key pair, signing request, self-signed certificate
  key_generation        key pair only

Exit status is 0 on success, 2 when the policy denies the request and 1 when a
pipeline step fails. The audit log records all three.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := domain.ParseOperationKind(opts.kind)
			if err != nil {
				return err
			}
			req := domain.NewOperationRequest(kind, opts.subject, opts.algorithm, opts.keySize, opts.validityDays)
			if req.SubjectName == "" {
				return fmt.Errorf("--subject must not be blank")
			}

			ctx := cliContext(cmd)
			a, err := root.build(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.Service.Process(ctx, req)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(out); err != nil {
					return err
				}
			} else {
				printOutcome(w, out)
			}

			switch out.State {
			case issuance.StateDenied:
				return &exitError{code: exitDenied, msg: "request denied by policy"}
			case issuance.StateFailed:
				return &exitError{code: exitFailed, msg: "issuance failed"}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.kind, "kind", string(domain.KindCertificateIssuance), "certificate_issuance or key_generation")
	f.StringVar(&opts.subject, "subject", "", "subject common name (required)")
	f.StringVar(&opts.algorithm, "algorithm", string(domain.AlgorithmRSA), "key algorithm")
	f.IntVar(&opts.keySize, "key-size", 2048, "key size in bits (ECDSA: 256, 384 or 521)")
	f.IntVar(&opts.validityDays, "validity-days", 365, "certificate validity in days")
	f.BoolVar(&opts.jsonOutput, "json", false, "print the outcome as JSON")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
