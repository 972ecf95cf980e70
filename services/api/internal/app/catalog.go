package app

import (
	"context"
	"fmt"

	"booktracker/pkg/domain"
	"booktracker/pkg/store"
	"booktracker/pkg/validation"
)

// ListAuthors returns every author.
func (a *App) ListAuthors(ctx context.Context) ([]domain.Author, error) {
	qctx, cancel := a.query(ctx)
	defer cancel()
	authors, err := a.store.ListAuthors(qctx)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	return authors, nil
}

// CreateAuthor adds an author and returns its id.
func (a *App) CreateAuthor(ctx context.Context, body validation.Body) (int64, error) {
	if err := validate(body, authorFields()...); err != nil {
		return 0, err
	}
	qctx, cancel := a.query(ctx)
	defer cancel()
	id, err := a.store.CreateAuthor(qctx, domain.Author{
		Name:      body.String("name"),
		Birthdate: body.OptionalString("birthdate"),
	})
	if err != nil {
		return 0, fmt.Errorf("create author: %w", err)
	}
	return id, nil
}

// ListGenres returns every genre.
func (a *App) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	qctx, cancel := a.query(ctx)
	defer cancel()
	genres, err := a.store.ListGenres(qctx)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return genres, nil
}

// CreateGenre adds a genre with a unique name and returns its id.
func (a *App) CreateGenre(ctx context.Context, body validation.Body) (int64, error) {
	if err := validate(body, genreFields()...); err != nil {
		return 0, err
	}
	name := body.String("name")
	var id int64
	err := a.store.Tx(ctx, func(tx store.Store) error {
		qctx, cancel := a.query(ctx)
		defer cancel()
		taken, err := tx.GenreNameTaken(qctx, name)
		if err != nil {
			return fmt.Errorf("check genre: %w", err)
		}
		if taken {
			return violation("name", "Genre already exists")
		}
		id, err = tx.CreateGenre(qctx, domain.Genre{Name: name})
		if err != nil {
			return fmt.Errorf("create genre: %w", err)
		}
		return nil
	})
	return id, err
}

// ListBooks returns the whole catalog.
func (a *App) ListBooks(ctx context.Context) ([]domain.Book, error) {
	qctx, cancel := a.query(ctx)
	defer cancel()
	books, err := a.store.ListBooks(qctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// GetBook returns one book, or store.ErrNotFound.
func (a *App) GetBook(ctx context.Context, id int64) (domain.Book, error) {
	qctx, cancel := a.query(ctx)
	defer cancel()
	book, ok, err := a.store.GetBook(qctx, id)
	if err != nil {
		return domain.Book{}, fmt.Errorf("get book: %w", err)
	}
	if !ok {
		return domain.Book{}, store.ErrNotFound
	}
	return book, nil
}

// CreateBook adds a book and returns its id.
func (a *App) CreateBook(ctx context.Context, body validation.Body) (int64, error) {
	if err := validate(body, bookFields()...); err != nil {
		return 0, err
	}
	book := bookFromBody(body)
	var id int64
	err := a.store.Tx(ctx, func(tx store.Store) error {
		if err := a.checkBookRefs(ctx, tx, book); err != nil {
			return err
		}
		qctx, cancel := a.query(ctx)
		defer cancel()
		var err error
		id, err = tx.CreateBook(qctx, book)
		if err != nil {
			return fmt.Errorf("create book: %w", err)
		}
		return nil
	})
	return id, err
}

// UpdateBook replaces every field of an existing book.
func (a *App) UpdateBook(ctx context.Context, id int64, body validation.Body) error {
	if err := validate(body, bookFields()...); err != nil {
		return err
	}
	book := bookFromBody(body)
	book.ID = id
	return a.store.Tx(ctx, func(tx store.Store) error {
		if err := a.checkBookRefs(ctx, tx, book); err != nil {
			return err
		}
		qctx, cancel := a.query(ctx)
		defer cancel()
		if err := tx.UpdateBook(qctx, book); err != nil {
			return fmt.Errorf("update book: %w", err)
		}
		return nil
	})
}

// DeleteBook removes a book that nothing references.
func (a *App) DeleteBook(ctx context.Context, id int64) error {
	qctx, cancel := a.query(ctx)
	defer cancel()
	if err := a.store.DeleteBook(qctx, id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

func (a *App) checkBookRefs(ctx context.Context, tx store.Store, book domain.Book) error {
	qctx, cancel := a.query(ctx)
	defer cancel()
	ok, err := tx.AuthorExists(qctx, book.AuthorID)
	if err != nil {
		return fmt.Errorf("check author: %w", err)
	}
	if !ok {
		return violation("authorId", "Author does not exist")
	}
	ok, err = tx.GenreExists(qctx, book.GenreID)
	if err != nil {
		return fmt.Errorf("check genre: %w", err)
	}
	if !ok {
		return violation("genreId", "Genre does not exist")
	}
	return nil
}

func bookFromBody(body validation.Body) domain.Book {
	return domain.Book{
		AuthorID:        body.Int64("authorId"),
		Title:           body.String("title"),
		Format:          domain.BookFormat(body.String("format")),
		PageCount:       body.OptionalInt64("pageCount"),
		ListeningLength: body.OptionalInt64("listeningLength"),
		Narrator:        body.OptionalString("narrator"),
		GenreID:         body.Int64("genreId"),
	}
}

// checkBookExists is shared by the library, review and ranking rules.
func (a *App) checkBookExists(ctx context.Context, tx store.Store, bookID int64) error {
	qctx, cancel := a.query(ctx)
	defer cancel()
	ok, err := tx.BookExists(qctx, bookID)
	if err != nil {
		return fmt.Errorf("check book: %w", err)
	}
	if !ok {
		return violation("bookId", "Book does not exist")
	}
	return nil
}
