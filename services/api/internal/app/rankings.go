package app

import (
	"context"
	"errors"
	"fmt"

	"booktracker/pkg/domain"
	"booktracker/pkg/ranking"
	"booktracker/pkg/store"
	"booktracker/pkg/validation"
)

// ListRankings returns the caller's rankings with their books in position order.
// Rankings without records are included with an empty book list.
func (a *App) ListRankings(ctx context.Context, identity domain.Identity) ([]domain.Ranking, error) {
	userID, err := requireUser(identity)
	if err != nil {
		return nil, err
	}
	qctx, cancel := a.query(ctx)
	defer cancel()
	rows, err := a.store.ListRankingRows(qctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list rankings: %w", err)
	}
	return ranking.Group(rows), nil
}

// GetRanking returns one of the caller's rankings. ok is false when the
// caller owns no ranking with that id.
func (a *App) GetRanking(ctx context.Context, identity domain.Identity, rankingID int64) (domain.Ranking, bool, error) {
	userID, err := requireUser(identity)
	if err != nil {
		return domain.Ranking{}, false, err
	}
	qctx, cancel := a.query(ctx)
	defer cancel()
	rows, err := a.store.GetRankingRows(qctx, userID, rankingID)
	if err != nil {
		return domain.Ranking{}, false, fmt.Errorf("get ranking: %w", err)
	}
	r, ok := ranking.Single(rows)
	return r, ok, nil
}

type rankingEntry struct {
	bookID   int64
	position int64
}

// CreateRanking creates a ranking, plus the optional initial books, in one
// transaction and returns the ranking id.
func (a *App) CreateRanking(ctx context.Context, identity domain.Identity, body validation.Body) (int64, error) {
	userID, err := requireUser(identity)
	if err != nil {
		return 0, err
	}
	fieldErrs := validation.Validate(body, rankingFields()...)
	entries, entryErrs := rankingEntries(body)
	if fieldErrs = append(fieldErrs, entryErrs...); len(fieldErrs) > 0 {
		return 0, &ValidationError{Fields: fieldErrs}
	}
	title := body.String("title")
	numeration := domain.NumerationType(body.String("numerationType"))

	var id int64
	err = a.store.Tx(ctx, func(tx store.Store) error {
		seen := make(map[int64]bool, len(entries))
		for i, e := range entries {
			field := fmt.Sprintf("books[%d].bookId", i)
			if seen[e.bookID] {
				return violation(field, "Book already in ranking")
			}
			seen[e.bookID] = true
			if err := a.checkBookExists(ctx, tx, e.bookID); err != nil {
				var rv *RuleViolation
				if errors.As(err, &rv) {
					rv.Field = field
				}
				return err
			}
		}
		qctx, cancel := a.query(ctx)
		defer cancel()
		var err error
		id, err = tx.CreateRanking(qctx, userID, title, numeration)
		if err != nil {
			return fmt.Errorf("create ranking: %w", err)
		}
		for _, e := range entries {
			rec := domain.RankingRecord{RankingID: id, BookID: e.bookID, UserID: userID, RecordPosition: e.position}
			if err := tx.CreateRankingRecord(qctx, rec); err != nil {
				return fmt.Errorf("create ranking record: %w", err)
			}
		}
		return nil
	})
	return id, err
}

// rankingEntries validates the optional "books" array of a new ranking.
func rankingEntries(body validation.Body) ([]rankingEntry, []validation.FieldError) {
	if !body.Has("books") {
		return nil, nil
	}
	raw := body.List("books")
	if raw == nil {
		return nil, []validation.FieldError{{Field: "books", Message: "Books must be an array"}}
	}
	entries := make([]rankingEntry, 0, len(raw))
	var errs []validation.FieldError
	for i, item := range raw {
		obj, ok := validation.AsBody(item)
		if !ok {
			errs = append(errs, validation.FieldError{Field: fmt.Sprintf("books[%d]", i), Message: "Each book must be an object"})
			continue
		}
		itemErrs := validation.Validate(obj, rankingRecordFields()...)
		for _, fe := range itemErrs {
			fe.Field = fmt.Sprintf("books[%d].%s", i, fe.Field)
			errs = append(errs, fe)
		}
		if len(itemErrs) == 0 {
			entries = append(entries, rankingEntry{bookID: obj.Int64("bookId"), position: obj.Int64("recordPosition")})
		}
	}
	return entries, errs
}

// UpdateRanking renames a ranking or changes its numeration.
func (a *App) UpdateRanking(ctx context.Context, identity domain.Identity, rankingID int64, body validation.Body) error {
	userID, err := requireUser(identity)
	if err != nil {
		return err
	}
	if err := validate(body, rankingFields()...); err != nil {
		return err
	}
	qctx, cancel := a.query(ctx)
	defer cancel()
	err = a.store.UpdateRanking(qctx, userID, rankingID, body.String("title"), domain.NumerationType(body.String("numerationType")))
	if err != nil {
		return fmt.Errorf("update ranking: %w", err)
	}
	return nil
}

// DeleteRanking removes a ranking and its records.
func (a *App) DeleteRanking(ctx context.Context, identity domain.Identity, rankingID int64) error {
	userID, err := requireUser(identity)
	if err != nil {
		return err
	}
	qctx, cancel := a.query(ctx)
	defer cancel()
	if err := a.store.DeleteRanking(qctx, userID, rankingID); err != nil {
		return fmt.Errorf("delete ranking: %w", err)
	}
	return nil
}

// AddRankingRecord places a book at a position in one of the caller's rankings.
func (a *App) AddRankingRecord(ctx context.Context, identity domain.Identity, rankingID int64, body validation.Body) error {
	userID, err := requireUser(identity)
	if err != nil {
		return err
	}
	if err := validate(body, rankingRecordFields()...); err != nil {
		return err
	}
	rec := domain.RankingRecord{
		RankingID:      rankingID,
		BookID:         body.Int64("bookId"),
		UserID:         userID,
		RecordPosition: body.Int64("recordPosition"),
	}
	return a.store.Tx(ctx, func(tx store.Store) error {
		if err := a.checkRankingOwned(ctx, tx, userID, rankingID); err != nil {
			return err
		}
		if err := a.checkBookExists(ctx, tx, rec.BookID); err != nil {
			return err
		}
		qctx, cancel := a.query(ctx)
		defer cancel()
		exists, err := tx.RankingRecordExists(qctx, rankingID, rec.BookID)
		if err != nil {
			return fmt.Errorf("check ranking record: %w", err)
		}
		if exists {
			return violation("bookId", "Book already in ranking")
		}
		if err := tx.CreateRankingRecord(qctx, rec); err != nil {
			return fmt.Errorf("create ranking record: %w", err)
		}
		return nil
	})
}

// UpdateRankingRecord moves a book to a new position.
func (a *App) UpdateRankingRecord(ctx context.Context, identity domain.Identity, rankingID int64, body validation.Body) error {
	userID, err := requireUser(identity)
	if err != nil {
		return err
	}
	if err := validate(body, rankingRecordFields()...); err != nil {
		return err
	}
	rec := domain.RankingRecord{
		RankingID:      rankingID,
		BookID:         body.Int64("bookId"),
		UserID:         userID,
		RecordPosition: body.Int64("recordPosition"),
	}
	return a.store.Tx(ctx, func(tx store.Store) error {
		if err := a.checkRankingOwned(ctx, tx, userID, rankingID); err != nil {
			return err
		}
		qctx, cancel := a.query(ctx)
		defer cancel()
		if err := tx.UpdateRankingRecord(qctx, rec); err != nil {
			return fmt.Errorf("update ranking record: %w", err)
		}
		return nil
	})
}

// DeleteRankingRecord removes a book from one of the caller's rankings.
func (a *App) DeleteRankingRecord(ctx context.Context, identity domain.Identity, rankingID int64, body validation.Body) error {
	userID, err := requireUser(identity)
	if err != nil {
		return err
	}
	if err := validate(body, bookIDField()); err != nil {
		return err
	}
	bookID := body.Int64("bookId")
	return a.store.Tx(ctx, func(tx store.Store) error {
		if err := a.checkRankingOwned(ctx, tx, userID, rankingID); err != nil {
			return err
		}
		qctx, cancel := a.query(ctx)
		defer cancel()
		if err := tx.DeleteRankingRecord(qctx, userID, rankingID, bookID); err != nil {
			return fmt.Errorf("delete ranking record: %w", err)
		}
		return nil
	})
}

func (a *App) checkRankingOwned(ctx context.Context, tx store.Store, userID, rankingID int64) error {
	qctx, cancel := a.query(ctx)
	defer cancel()
	owned, err := tx.RankingOwned(qctx, userID, rankingID)
	if err != nil {
		return fmt.Errorf("check ranking: %w", err)
	}
	if !owned {
		return violation("rankingId", "Ranking does not exist")
	}
	return nil
}
