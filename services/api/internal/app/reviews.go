package app

import (
	"context"
	"fmt"

	"booktracker/pkg/domain"
	"booktracker/pkg/store"
	"booktracker/pkg/validation"
)

// ListMyReviews returns the reviews written by the caller.
func (a *App) ListMyReviews(ctx context.Context, identity domain.Identity) ([]domain.ReviewItem, error) {
	userID, err := requireUser(identity)
	if err != nil {
		return nil, err
	}
	qctx, cancel := a.query(ctx)
	defer cancel()
	reviews, err := a.store.ListReviewsByUser(qctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// ListBookReviews returns every review of a book. It needs no session.
func (a *App) ListBookReviews(ctx context.Context, bookID int64) ([]domain.ReviewItem, error) {
	qctx, cancel := a.query(ctx)
	defer cancel()
	reviews, err := a.store.ListReviewsByBook(qctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("list book reviews: %w", err)
	}
	return reviews, nil
}

// CreateReview records the caller's single review of a book.
func (a *App) CreateReview(ctx context.Context, identity domain.Identity, body validation.Body) (int64, error) {
	userID, err := requireUser(identity)
	if err != nil {
		return 0, err
	}
	if err := validate(body, reviewFields()...); err != nil {
		return 0, err
	}
	review := domain.Review{
		UserID: userID,
		BookID: body.Int64("bookId"),
		Rating: int(body.Int64("rating")),
		Text:   rawOptional(body, "text"),
	}
	var id int64
	err = a.store.Tx(ctx, func(tx store.Store) error {
		if err := a.checkBookExists(ctx, tx, review.BookID); err != nil {
			return err
		}
		qctx, cancel := a.query(ctx)
		defer cancel()
		exists, err := tx.ReviewExists(qctx, userID, review.BookID)
		if err != nil {
			return fmt.Errorf("check review: %w", err)
		}
		if exists {
			return violation("bookId", "Book already reviewed")
		}
		id, err = tx.CreateReview(qctx, review)
		if err != nil {
			return fmt.Errorf("create review: %w", err)
		}
		return nil
	})
	return id, err
}

// rawOptional returns a present field untrimmed, or nil when it is blank.
func rawOptional(body validation.Body, name string) *string {
	if !body.Has(name) {
		return nil
	}
	s := rawString(body, name)
	return &s
}
