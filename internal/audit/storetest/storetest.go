// Package storetest is the behavior every audit.Store backend must share.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certgate/internal/audit"
	"certgate/pkg/domain"
)

// Record builds a fully populated record for subject i.
func Record(i int, ts time.Time) audit.Record {
	verdict := domain.NewVerdict(nil, []string{"Using minimum key size 2048. Consider larger for better security."})
	return audit.Record{
		Timestamp: ts.UTC().Truncate(time.Microsecond),
		RequestID: fmt.Sprintf("req-%03d", i),
		Actor:     "cli",
		Operation: audit.OperationCertificateGeneration,
		Request: domain.NewOperationRequest(domain.KindCertificateIssuance,
			fmt.Sprintf("host%d.example.com", i), "rsa", 2048, 365),
		PolicyCheck: &verdict,
		Result: audit.SuccessResult(map[string]string{
			"certificate_path": fmt.Sprintf("output/certs/host%d.crt", i),
		}),
		Steps: []audit.StepSummary{
			{Operation: "generate_key_rsa", Status: "ok"},
			{Operation: "create_csr", Status: "ok"},
			{Operation: "self_sign_cert", Status: "ok"},
		},
	}
}

// Run exercises append ordering and Recent windows against a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) audit.Store) {
	t.Run("empty store", func(t *testing.T) {
		recs, err := newStore(t).Recent(context.Background(), 10)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("appends are returned in order", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		base := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

		var want []audit.Record
		for i := 0; i < 5; i++ {
			rec := Record(i, base.Add(time.Duration(i)*time.Second))
			want = append(want, rec)
			require.NoError(t, store.Append(ctx, rec))
		}

		got, err := store.Recent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, got, 5)
		for i := range want {
			assert.Equal(t, want[i].RequestID, got[i].RequestID)
			assert.True(t, want[i].Timestamp.Equal(got[i].Timestamp), "timestamp %d", i)
			assert.Equal(t, want[i].Request, got[i].Request)
			assert.Equal(t, want[i].Result, got[i].Result)
			assert.Equal(t, want[i].Steps, got[i].Steps)
			require.NotNil(t, got[i].PolicyCheck)
			assert.Equal(t, *want[i].PolicyCheck, *got[i].PolicyCheck)
		}

		last2, err := store.Recent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, last2, 2)
		assert.Equal(t, "req-003", last2[0].RequestID)
		assert.Equal(t, "req-004", last2[1].RequestID, "newest last")
	})

	t.Run("denied record without artifacts", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		rec := Record(1, time.Now())
		rec.Result = audit.DeniedResult([]string{"Algorithm 'dsa' is explicitly forbidden"})
		rec.Steps = []audit.StepSummary{}
		require.NoError(t, store.Append(ctx, rec))

		got, err := store.Recent(ctx, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, audit.StatusDenied, got[0].Result.Status)
		assert.Equal(t, rec.Result.Violations, got[0].Result.Violations)
		assert.Empty(t, got[0].Steps)
	})

	t.Run("non-positive limit", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		require.NoError(t, store.Append(ctx, Record(1, time.Now())))
		recs, err := store.Recent(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})
}
