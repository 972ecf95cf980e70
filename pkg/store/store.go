package store

import (
	"context"

	"booktracker/pkg/domain"
)

// Store defines persistence operations for the catalog and per-user data.
// Update and delete methods return ErrNotFound when no row matched.
type Store interface {
	// Tx runs fn against a Store bound to a single transaction.
	Tx(ctx context.Context, fn func(Store) error) error

	// users
	CreateUser(ctx context.Context, u domain.User) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, bool, error)
	GetProfile(ctx context.Context, userID int64) (domain.Profile, bool, error)
	UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	UpdateUser(ctx context.Context, u domain.User) error
	DeleteUser(ctx context.Context, userID int64) error

	// authors
	ListAuthors(ctx context.Context) ([]domain.Author, error)
	CreateAuthor(ctx context.Context, a domain.Author) (int64, error)
	AuthorExists(ctx context.Context, id int64) (bool, error)

	// genres
	ListGenres(ctx context.Context) ([]domain.Genre, error)
	CreateGenre(ctx context.Context, g domain.Genre) (int64, error)
	GenreExists(ctx context.Context, id int64) (bool, error)
	GenreNameTaken(ctx context.Context, name string) (bool, error)

	// books
	ListBooks(ctx context.Context) ([]domain.Book, error)
	GetBook(ctx context.Context, id int64) (domain.Book, bool, error)
	CreateBook(ctx context.Context, b domain.Book) (int64, error)
	UpdateBook(ctx context.Context, b domain.Book) error
	DeleteBook(ctx context.Context, id int64) error
	BookExists(ctx context.Context, id int64) (bool, error)

	// libraries
	ListLibrary(ctx context.Context, userID int64) ([]domain.LibraryItem, error)
	CreateLibraryEntry(ctx context.Context, e domain.LibraryEntry) (int64, error)
	LibraryEntryExists(ctx context.Context, userID, bookID int64) (bool, error)
	UpdateLibraryEntry(ctx context.Context, e domain.LibraryEntry) error
	DeleteLibraryEntry(ctx context.Context, userID, bookID int64) error

	// reviews
	ListReviewsByUser(ctx context.Context, userID int64) ([]domain.ReviewItem, error)
	ListReviewsByBook(ctx context.Context, bookID int64) ([]domain.ReviewItem, error)
	CreateReview(ctx context.Context, r domain.Review) (int64, error)
	ReviewExists(ctx context.Context, userID, bookID int64) (bool, error)

	// rankings
	ListRankingRows(ctx context.Context, userID int64) ([]domain.RankingRow, error)
	GetRankingRows(ctx context.Context, userID, rankingID int64) ([]domain.RankingRow, error)
	CreateRanking(ctx context.Context, userID int64, title string, numeration domain.NumerationType) (int64, error)
	UpdateRanking(ctx context.Context, userID, rankingID int64, title string, numeration domain.NumerationType) error
	DeleteRanking(ctx context.Context, userID, rankingID int64) error
	RankingOwned(ctx context.Context, userID, rankingID int64) (bool, error)

	// ranking records
	CreateRankingRecord(ctx context.Context, rec domain.RankingRecord) error
	RankingRecordExists(ctx context.Context, rankingID, bookID int64) (bool, error)
	UpdateRankingRecord(ctx context.Context, rec domain.RankingRecord) error
	DeleteRankingRecord(ctx context.Context, userID, rankingID, bookID int64) error

	// statistics
	CountLibraryByReadState(ctx context.Context, userID int64) (read, unread int64, err error)
	CountRankings(ctx context.Context, userID int64) (int64, error)
	CountReviews(ctx context.Context, userID int64) (int64, error)
}

// SessionStore persists session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
	// DeleteUserSessions ends every session issued to userID.
	DeleteUserSessions(userID string) error
}
