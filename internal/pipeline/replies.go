package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// defaultReplyConcurrency bounds parallel reply lookups so a large report
// batch does not burst the search API.
const defaultReplyConcurrency = 4

// ReplyResolver answers, for a batch of report IDs, which conversations
// already contain a resolution reply from the source account.
type ReplyResolver struct {
	searcher ReplySearcher
	limit    int
}

// NewReplyResolver creates a resolver with the given lookup concurrency.
// A limit below one falls back to the default.
func NewReplyResolver(searcher ReplySearcher, limit int) *ReplyResolver {
	if limit < 1 {
		limit = defaultReplyConcurrency
	}
	return &ReplyResolver{searcher: searcher, limit: limit}
}

// Resolved returns one flag per input ID, index for index: true when the
// conversation rooted at that ID contains at least one resolution reply.
// Any lookup failure fails the whole batch and cancels the in-flight
// siblings; the caller retries on its next run.
func (r *ReplyResolver) Resolved(ctx context.Context, externalIDs []string) ([]bool, error) {
	resolved := make([]bool, len(externalIDs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)
	for i, id := range externalIDs {
		g.Go(func() error {
			replies, err := r.searcher.SearchResolutionReplies(ctx, id)
			if err != nil {
				return fmt.Errorf("resolve replies for %s: %w", id, err)
			}
			resolved[i] = len(replies) > 0
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}
