package app

import (
	"context"
	"fmt"

	"booktracker/pkg/domain"
	"booktracker/pkg/store"
	"booktracker/pkg/validation"
)

// ListLibrary returns the caller's library joined with book details.
func (a *App) ListLibrary(ctx context.Context, identity domain.Identity) ([]domain.LibraryItem, error) {
	userID, err := requireUser(identity)
	if err != nil {
		return nil, err
	}
	qctx, cancel := a.query(ctx)
	defer cancel()
	items, err := a.store.ListLibrary(qctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}
	return items, nil
}

// AddToLibrary puts a book into the caller's library and returns the entry id.
func (a *App) AddToLibrary(ctx context.Context, identity domain.Identity, body validation.Body) (int64, error) {
	userID, err := requireUser(identity)
	if err != nil {
		return 0, err
	}
	if err := validate(body, libraryFields()...); err != nil {
		return 0, err
	}
	entry := domain.LibraryEntry{
		UserID:  userID,
		BookID:  body.Int64("bookId"),
		WasRead: body.Bool("wasRead"),
	}
	var id int64
	err = a.store.Tx(ctx, func(tx store.Store) error {
		if err := a.checkBookExists(ctx, tx, entry.BookID); err != nil {
			return err
		}
		qctx, cancel := a.query(ctx)
		defer cancel()
		exists, err := tx.LibraryEntryExists(qctx, userID, entry.BookID)
		if err != nil {
			return fmt.Errorf("check library: %w", err)
		}
		if exists {
			return violation("bookId", "Book already in library")
		}
		id, err = tx.CreateLibraryEntry(qctx, entry)
		if err != nil {
			return fmt.Errorf("create library entry: %w", err)
		}
		return nil
	})
	return id, err
}

// UpdateLibraryEntry sets the read flag of a book in the caller's library.
func (a *App) UpdateLibraryEntry(ctx context.Context, identity domain.Identity, bookID int64, body validation.Body) error {
	userID, err := requireUser(identity)
	if err != nil {
		return err
	}
	if err := validate(body, wasReadField()); err != nil {
		return err
	}
	qctx, cancel := a.query(ctx)
	defer cancel()
	err = a.store.UpdateLibraryEntry(qctx, domain.LibraryEntry{UserID: userID, BookID: bookID, WasRead: body.Bool("wasRead")})
	if err != nil {
		return fmt.Errorf("update library entry: %w", err)
	}
	return nil
}

// RemoveFromLibrary deletes a book from the caller's library.
func (a *App) RemoveFromLibrary(ctx context.Context, identity domain.Identity, bookID int64) error {
	userID, err := requireUser(identity)
	if err != nil {
		return err
	}
	qctx, cancel := a.query(ctx)
	defer cancel()
	if err := a.store.DeleteLibraryEntry(qctx, userID, bookID); err != nil {
		return fmt.Errorf("delete library entry: %w", err)
	}
	return nil
}
