package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"booktracker/pkg/domain"
)

// Statistics counts the caller's read and unread library books, rankings
// and reviews. The three queries run concurrently.
func (a *App) Statistics(ctx context.Context, identity domain.Identity) (domain.Statistics, error) {
	userID, err := requireUser(identity)
	if err != nil {
		return domain.Statistics{}, err
	}
	var stats domain.Statistics
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		qctx, cancel := a.query(gctx)
		defer cancel()
		read, unread, err := a.store.CountLibraryByReadState(qctx, userID)
		if err != nil {
			return fmt.Errorf("count library: %w", err)
		}
		stats.ReadBooksCount, stats.UnreadBooksCount = read, unread
		return nil
	})
	g.Go(func() error {
		qctx, cancel := a.query(gctx)
		defer cancel()
		n, err := a.store.CountRankings(qctx, userID)
		if err != nil {
			return fmt.Errorf("count rankings: %w", err)
		}
		stats.RankingsCount = n
		return nil
	})
	g.Go(func() error {
		qctx, cancel := a.query(gctx)
		defer cancel()
		n, err := a.store.CountReviews(qctx, userID)
		if err != nil {
			return fmt.Errorf("count reviews: %w", err)
		}
		stats.ReviewsCount = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Statistics{}, err
	}
	return stats, nil
}
