package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"

	"certgate/internal/audit"
	"certgate/internal/issuance"
	"certgate/pkg/domain"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.FgCyan)
)

func printVerdict(w io.Writer, v domain.Verdict) {
	if v.Approved {
		okColor.Fprintln(w, "✓ Policy check passed")
	} else {
		failColor.Fprintln(w, "✗ Policy check failed")
	}
	for _, msg := range v.Violations {
		failColor.Fprintf(w, "  - %s\n", msg)
	}
	for _, msg := range v.Warnings {
		warnColor.Fprintf(w, "  ! %s\n", msg)
	}
}

func printOutcome(w io.Writer, out *issuance.Outcome) {
	dimColor.Fprintf(w, "Request %s (%s for %s)\n", out.RequestID, out.Request.Kind, out.Request.SubjectName)
	if out.Verdict != nil {
		printVerdict(w, *out.Verdict)
	}
	for _, st := range out.Steps {
		if st.Succeeded() {
			okColor.Fprintf(w, "  ✓ %s\n", st.Operation)
		} else {
			failColor.Fprintf(w, "  ✗ %s: %s\n", st.Operation, st.Error)
		}
	}

	switch out.State {
	case issuance.StateSucceeded:
		okColor.Fprintln(w, "✓ Issued")
		printArtifacts(w, out.Artifacts)
	case issuance.StateDenied:
		failColor.Fprintln(w, "✗ Denied by policy")
	case issuance.StateFailed:
		if out.FailedStep != "" {
			failColor.Fprintf(w, "✗ Failed at %s: %s\n", out.FailedStep, out.Error)
		} else {
			failColor.Fprintf(w, "✗ Failed: %s\n", out.Error)
		}
		printArtifacts(w, out.Artifacts)
	}
	if out.AuditError != nil {
		failColor.Fprintf(w, "! audit record was not written: %v\n", out.AuditError)
	}
}

func printArtifacts(w io.Writer, artifacts map[string]string) {
	keys := make([]string, 0, len(artifacts))
	for k := range artifacts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, artifacts[k])
	}
}

func printRecord(w io.Writer, rec audit.Record) {
	var status string
	switch rec.Result.Status {
	case audit.StatusSuccess:
		status = okColor.Sprint(rec.Result.Status)
	case audit.StatusDenied:
		status = warnColor.Sprint(rec.Result.Status)
	default:
		status = failColor.Sprint(rec.Result.Status)
	}
	fmt.Fprintf(w, "%s  %-7s  %-22s  %s  %s/%d  by %s\n",
		rec.Timestamp.Format(time.RFC3339), status, rec.Operation,
		rec.Request.SubjectName, rec.Request.Algorithm, rec.Request.KeySizeBits, rec.Actor)
	for _, v := range rec.Result.Violations {
		fmt.Fprintf(w, "      - %s\n", v)
	}
	if rec.Result.Error != "" {
		fmt.Fprintf(w, "      error at %s: %s\n", rec.Result.FailedStep, rec.Result.Error)
	}
}
