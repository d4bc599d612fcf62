package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newAuditCmd(root *rootOptions) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the most recent audit records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			ctx := cliContext(cmd)
			a, err := root.build(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.Trail.Recent(ctx, limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			if len(records) == 0 {
				fmt.Fprintln(w, "No audit records.")
				return nil
			}
			for _, rec := range records {
				printRecord(w, rec)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of records to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print records as JSON")
	return cmd
}
