package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booktracker/pkg/domain"
)

type seeded struct {
	user, author, genre, book int64
}

func seedMemoryStore(t *testing.T, m *MemoryStore) seeded {
	t.Helper()
	ctx := context.Background()
	user, err := m.CreateUser(ctx, domain.User{Username: "reader", Email: "reader@example.com", Birthdate: "1990-01-01"})
	require.NoError(t, err)
	author, err := m.CreateAuthor(ctx, domain.Author{Name: "Ursula K. Le Guin"})
	require.NoError(t, err)
	genre, err := m.CreateGenre(ctx, domain.Genre{Name: "Fantasy"})
	require.NoError(t, err)
	pages := int64(250)
	book, err := m.CreateBook(ctx, domain.Book{AuthorID: author, Title: "A Wizard of Earthsea", Format: domain.FormatPaper, PageCount: &pages, GenreID: genre})
	require.NoError(t, err)
	return seeded{user: user, author: author, genre: genre, book: book}
}

func TestMemoryStoreUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	s := seedMemoryStore(t, m)

	_, err := m.CreateUser(ctx, domain.User{Username: "reader", Email: "other@example.com"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = m.CreateGenre(ctx, domain.Genre{Name: "Fantasy"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = m.CreateLibraryEntry(ctx, domain.LibraryEntry{UserID: s.user, BookID: s.book})
	require.NoError(t, err)
	_, err = m.CreateLibraryEntry(ctx, domain.LibraryEntry{UserID: s.user, BookID: s.book})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, m.LibraryCount(s.user, s.book))
}

func TestMemoryStoreForeignKeys(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	s := seedMemoryStore(t, m)

	_, err := m.CreateBook(ctx, domain.Book{AuthorID: 999, Title: "Orphan", Format: domain.FormatEbook, GenreID: s.genre})
	assert.ErrorIs(t, err, ErrReferenced)

	_, err = m.CreateLibraryEntry(ctx, domain.LibraryEntry{UserID: s.user, BookID: s.book})
	require.NoError(t, err)
	assert.ErrorIs(t, m.DeleteBook(ctx, s.book), ErrReferenced)
	assert.ErrorIs(t, m.DeleteBook(ctx, 999), ErrNotFound)
}

func TestMemoryStoreDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	s := seedMemoryStore(t, m)

	_, err := m.CreateLibraryEntry(ctx, domain.LibraryEntry{UserID: s.user, BookID: s.book, WasRead: true})
	require.NoError(t, err)
	_, err = m.CreateReview(ctx, domain.Review{UserID: s.user, BookID: s.book, Rating: 5})
	require.NoError(t, err)
	rankingID, err := m.CreateRanking(ctx, s.user, "Favourites", domain.NumerationDecimal)
	require.NoError(t, err)
	require.NoError(t, m.CreateRankingRecord(ctx, domain.RankingRecord{RankingID: rankingID, BookID: s.book, UserID: s.user, RecordPosition: 1}))

	require.NoError(t, m.DeleteUser(ctx, s.user))

	read, unread, err := m.CountLibraryByReadState(ctx, s.user)
	require.NoError(t, err)
	assert.Zero(t, read+unread)
	reviews, err := m.CountReviews(ctx, s.user)
	require.NoError(t, err)
	assert.Zero(t, reviews)
	exists, err := m.RankingRecordExists(ctx, rankingID, s.book)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, m.DeleteBook(ctx, s.book))
}

func TestMemoryStoreRankingRowsOuterJoin(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	s := seedMemoryStore(t, m)

	empty, err := m.CreateRanking(ctx, s.user, "Empty", domain.NumerationRoman)
	require.NoError(t, err)
	full, err := m.CreateRanking(ctx, s.user, "Full", domain.NumerationDecimal)
	require.NoError(t, err)
	require.NoError(t, m.CreateRankingRecord(ctx, domain.RankingRecord{RankingID: full, BookID: s.book, UserID: s.user, RecordPosition: 2}))

	rows, err := m.ListRankingRows(ctx, s.user)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, empty, rows[0].RankingID)
	assert.Nil(t, rows[0].BookID)
	assert.Equal(t, full, rows[1].RankingID)
	require.NotNil(t, rows[1].RecordPosition)
	assert.Equal(t, int64(2), *rows[1].RecordPosition)
	assert.Equal(t, "Fantasy", *rows[1].Genre)

	rows, err = m.GetRankingRows(ctx, s.user+100, full)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMemoryStoreUpdateMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	s := seedMemoryStore(t, m)

	assert.ErrorIs(t, m.UpdateLibraryEntry(ctx, domain.LibraryEntry{UserID: s.user, BookID: s.book}), ErrNotFound)
	assert.ErrorIs(t, m.UpdateRanking(ctx, s.user, 999, "x", domain.NumerationDecimal), ErrNotFound)
	assert.ErrorIs(t, m.DeleteRankingRecord(ctx, s.user, 999, s.book), ErrNotFound)
}
