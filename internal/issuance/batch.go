package issuance

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"certgate/pkg/domain"
	"certgate/pkg/requestcontext"
)

// DefaultBatchConcurrency bounds ProcessBatch when no limit is given.
const DefaultBatchConcurrency = 4

// ProcessBatch processes independent requests concurrently, at most
// concurrency at a time. Each request still yields exactly one audit record.
// Outcomes are returned in input order.
func (s *Service) ProcessBatch(ctx context.Context, reqs []domain.OperationRequest, concurrency int) ([]*Outcome, error) {
	if ctx == nil {
		return nil, ErrContextRequired
	}
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	outcomes := make([]*Outcome, len(reqs))
	parentID := requestcontext.RequestID(ctx)

	// A plain Group: one request's failure must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, req := range reqs {
		itemCtx := ctx
		if parentID != "" {
			// Items get distinct IDs that still correlate with the batch.
			itemCtx = requestcontext.WithRequestID(ctx, fmt.Sprintf("%s.%d", parentID, i))
		}
		g.Go(func() error {
			out, err := s.Process(itemCtx, req)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
