package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"booktracker/pkg/domain"
)

type GormStoreOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SkipMigrations  bool
}

type GormStoreOption func(*GormStoreOptions)

// WithPool sizes the underlying connection pool.
func WithPool(maxOpen, maxIdle int, lifetime time.Duration) GormStoreOption {
	return func(opts *GormStoreOptions) {
		opts.MaxOpenConns = maxOpen
		opts.MaxIdleConns = maxIdle
		opts.ConnMaxLifetime = lifetime
	}
}

// WithoutMigrations skips schema migration on open.
func WithoutMigrations() GormStoreOption {
	return func(opts *GormStoreOptions) {
		opts.SkipMigrations = true
	}
}

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB, sizes the pool and applies migrations.
func NewGormStore(dsn string, options ...GormStoreOption) (*GormStore, error) {
	opts := GormStoreOptions{
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
	for _, option := range options {
		if option != nil {
			option(&opts)
		}
	}

	db, err := gorm.Open(postgres.Open(dsn), newGormConfig())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if !opts.SkipMigrations {
		if err := withMigrationLock(db, Migrate); err != nil {
			return nil, err
		}
	}
	return &GormStore{db: db}, nil
}

// NewGormStoreFromDB wraps an already opened gorm handle.
func NewGormStoreFromDB(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func newGormConfig() *gorm.Config {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	return &gorm.Config{
		Logger:                 gormLog,
		SkipDefaultTransaction: true,
	}
}

// Close releases the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Tx runs fn inside a database transaction.
func (s *GormStore) Tx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

func (s *GormStore) exists(ctx context.Context, model any, query string, args ...any) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}

func (s *GormStore) count(ctx context.Context, model any, query string, args ...any) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateUser inserts a user and returns its id.
func (s *GormStore) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	model, err := userToModel(u)
	if err != nil {
		return 0, fmt.Errorf("parse birthdate: %w", err)
	}
	model.ID = 0
	model.CreatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, mapError(err)
	}
	return model.ID, nil
}

// GetUserByUsername looks up a user by username.
func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, mapError(err)
	}
	return userFromModel(model), true, nil
}

// GetProfile returns the public profile fields of a user.
func (s *GormStore) GetProfile(ctx context.Context, userID int64) (domain.Profile, bool, error) {
	var model UserModel
	err := s.db.WithContext(ctx).
		Select("username", "full_name", "email", "birthdate").
		First(&model, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Profile{}, false, nil
		}
		return domain.Profile{}, false, mapError(err)
	}
	u := userFromModel(model)
	return domain.Profile{
		Username:  u.Username,
		FullName:  u.FullName,
		Email:     u.Email,
		Birthdate: u.Birthdate,
	}, true, nil
}

// UsernameTaken reports whether another user already holds username.
func (s *GormStore) UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error) {
	return s.exists(ctx, &UserModel{}, "username = ? AND id <> ?", username, exceptID)
}

// EmailTaken reports whether another user already holds email.
func (s *GormStore) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	return s.exists(ctx, &UserModel{}, "email = ? AND id <> ?", email, exceptID)
}

// UpdateUser rewrites the profile fields, and the password when a new hash is set.
func (s *GormStore) UpdateUser(ctx context.Context, u domain.User) error {
	birthdate, err := parseDate(u.Birthdate)
	if err != nil {
		return fmt.Errorf("parse birthdate: %w", err)
	}
	updates := map[string]any{
		"username":  u.Username,
		"full_name": u.FullName,
		"email":     u.Email,
		"birthdate": birthdate,
	}
	if u.PasswordHash != "" {
		updates["password_hash"] = u.PasswordHash
	}
	return affected(s.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", u.ID).Updates(updates))
}

// DeleteUser removes a user; owned rows cascade.
func (s *GormStore) DeleteUser(ctx context.Context, userID int64) error {
	return affected(s.db.WithContext(ctx).Where("id = ?", userID).Delete(&UserModel{}))
}

// ListAuthors returns all authors ordered by id.
func (s *GormStore) ListAuthors(ctx context.Context) ([]domain.Author, error) {
	var models []AuthorModel
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, mapError(err)
	}
	res := make([]domain.Author, 0, len(models))
	for _, m := range models {
		res = append(res, authorFromModel(m))
	}
	return res, nil
}

// CreateAuthor inserts an author.
func (s *GormStore) CreateAuthor(ctx context.Context, a domain.Author) (int64, error) {
	model := AuthorModel{Name: a.Name}
	if a.Birthdate != nil {
		d, err := parseDate(*a.Birthdate)
		if err != nil {
			return 0, fmt.Errorf("parse birthdate: %w", err)
		}
		model.Birthdate = &d
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, mapError(err)
	}
	return model.ID, nil
}

func (s *GormStore) AuthorExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, &AuthorModel{}, "id = ?", id)
}

// ListGenres returns all genres ordered by id.
func (s *GormStore) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	var models []GenreModel
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, mapError(err)
	}
	res := make([]domain.Genre, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Genre{ID: m.ID, Name: m.Name})
	}
	return res, nil
}

// CreateGenre inserts a genre.
func (s *GormStore) CreateGenre(ctx context.Context, g domain.Genre) (int64, error) {
	model := GenreModel{Name: g.Name}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, mapError(err)
	}
	return model.ID, nil
}

func (s *GormStore) GenreExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, &GenreModel{}, "id = ?", id)
}

func (s *GormStore) GenreNameTaken(ctx context.Context, name string) (bool, error) {
	return s.exists(ctx, &GenreModel{}, "name = ?", name)
}

// ListBooks returns the catalog ordered by id.
func (s *GormStore) ListBooks(ctx context.Context) ([]domain.Book, error) {
	var models []BookModel
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, mapError(err)
	}
	res := make([]domain.Book, 0, len(models))
	for _, m := range models {
		res = append(res, bookFromModel(m))
	}
	return res, nil
}

// GetBook retrieves a book.
func (s *GormStore) GetBook(ctx context.Context, id int64) (domain.Book, bool, error) {
	var model BookModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Book{}, false, nil
		}
		return domain.Book{}, false, mapError(err)
	}
	return bookFromModel(model), true, nil
}

// CreateBook inserts a book.
func (s *GormStore) CreateBook(ctx context.Context, b domain.Book) (int64, error) {
	model := bookToModel(b)
	model.ID = 0
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, mapError(err)
	}
	return model.ID, nil
}

// UpdateBook rewrites every column of the book, nulls included.
func (s *GormStore) UpdateBook(ctx context.Context, b domain.Book) error {
	res := s.db.WithContext(ctx).Model(&BookModel{}).Where("id = ?", b.ID).Updates(map[string]any{
		"author_id":        b.AuthorID,
		"title":            b.Title,
		"format":           string(b.Format),
		"page_count":       b.PageCount,
		"listening_length": b.ListeningLength,
		"narrator":         b.Narrator,
		"genre_id":         b.GenreID,
	})
	return affected(res)
}

// DeleteBook removes a book. Books still referenced yield ErrReferenced.
func (s *GormStore) DeleteBook(ctx context.Context, id int64) error {
	return affected(s.db.WithContext(ctx).Where("id = ?", id).Delete(&BookModel{}))
}

func (s *GormStore) BookExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, &BookModel{}, "id = ?", id)
}

const libraryQuery = `
SELECT b.id AS book_id, b.title, b.format, b.page_count, b.listening_length, b.narrator,
       g.name AS genre, a.name AS author, l.was_read
FROM libraries l
JOIN books b ON b.id = l.book_id
JOIN genres g ON g.id = b.genre_id
JOIN authors a ON a.id = b.author_id
WHERE l.user_id = ?
ORDER BY l.id`

// ListLibrary returns the user's library joined with book details.
func (s *GormStore) ListLibrary(ctx context.Context, userID int64) ([]domain.LibraryItem, error) {
	var rows []libraryRow
	if err := s.db.WithContext(ctx).Raw(libraryQuery, userID).Scan(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	res := make([]domain.LibraryItem, 0, len(rows))
	for _, r := range rows {
		res = append(res, domain.LibraryItem{
			BookID:          r.BookID,
			Title:           r.Title,
			Format:          domain.BookFormat(r.Format),
			PageCount:       r.PageCount,
			ListeningLength: r.ListeningLength,
			Narrator:        r.Narrator,
			Genre:           r.Genre,
			Author:          r.Author,
			WasRead:         r.WasRead,
		})
	}
	return res, nil
}

// CreateLibraryEntry inserts a (user, book) library entry.
func (s *GormStore) CreateLibraryEntry(ctx context.Context, e domain.LibraryEntry) (int64, error) {
	model := LibraryModel{UserID: e.UserID, BookID: e.BookID, WasRead: e.WasRead}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, mapError(err)
	}
	return model.ID, nil
}

func (s *GormStore) LibraryEntryExists(ctx context.Context, userID, bookID int64) (bool, error) {
	return s.exists(ctx, &LibraryModel{}, "user_id = ? AND book_id = ?", userID, bookID)
}

// UpdateLibraryEntry sets the read flag of an entry.
func (s *GormStore) UpdateLibraryEntry(ctx context.Context, e domain.LibraryEntry) error {
	res := s.db.WithContext(ctx).Model(&LibraryModel{}).
		Where("user_id = ? AND book_id = ?", e.UserID, e.BookID).
		Update("was_read", e.WasRead)
	return affected(res)
}

func (s *GormStore) DeleteLibraryEntry(ctx context.Context, userID, bookID int64) error {
	return affected(s.db.WithContext(ctx).Where("user_id = ? AND book_id = ?", userID, bookID).Delete(&LibraryModel{}))
}

const reviewQuery = `
SELECT u.username, b.id AS book_id, b.title, b.format, br.rating, br.text
FROM book_reviews br
JOIN users u ON u.id = br.user_id
JOIN books b ON b.id = br.book_id
WHERE %s = ?
ORDER BY br.id`

func (s *GormStore) listReviews(ctx context.Context, column string, id int64) ([]domain.ReviewItem, error) {
	var rows []reviewRow
	if err := s.db.WithContext(ctx).Raw(fmt.Sprintf(reviewQuery, column), id).Scan(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	res := make([]domain.ReviewItem, 0, len(rows))
	for _, r := range rows {
		res = append(res, domain.ReviewItem{
			Username: r.Username,
			BookID:   r.BookID,
			Title:    r.Title,
			Format:   domain.BookFormat(r.Format),
			Rating:   r.Rating,
			Text:     r.Text,
		})
	}
	return res, nil
}

// ListReviewsByUser returns the reviews written by a user.
func (s *GormStore) ListReviewsByUser(ctx context.Context, userID int64) ([]domain.ReviewItem, error) {
	return s.listReviews(ctx, "br.user_id", userID)
}

// ListReviewsByBook returns every review of a book.
func (s *GormStore) ListReviewsByBook(ctx context.Context, bookID int64) ([]domain.ReviewItem, error) {
	return s.listReviews(ctx, "br.book_id", bookID)
}

func (s *GormStore) CreateReview(ctx context.Context, r domain.Review) (int64, error) {
	model := ReviewModel{UserID: r.UserID, BookID: r.BookID, Rating: r.Rating, Text: r.Text, CreatedAt: time.Now().UTC()}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, mapError(err)
	}
	return model.ID, nil
}

func (s *GormStore) ReviewExists(ctx context.Context, userID, bookID int64) (bool, error) {
	return s.exists(ctx, &ReviewModel{}, "user_id = ? AND book_id = ?", userID, bookID)
}

const rankingQuery = `
SELECT r.id AS ranking_id, r.title, r.numeration_type,
       rec.record_position, b.id AS book_id, b.title AS book_title, b.format,
       a.name AS author, g.name AS genre
FROM rankings r
LEFT JOIN ranking_records rec ON rec.ranking_id = r.id
LEFT JOIN books b ON b.id = rec.book_id
LEFT JOIN authors a ON a.id = b.author_id
LEFT JOIN genres g ON g.id = b.genre_id
WHERE %s
ORDER BY r.id, rec.record_position, rec.book_id`

func (s *GormStore) rankingRows(ctx context.Context, where string, args ...any) ([]domain.RankingRow, error) {
	var rows []rankingRow
	if err := s.db.WithContext(ctx).Raw(fmt.Sprintf(rankingQuery, where), args...).Scan(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	res := make([]domain.RankingRow, 0, len(rows))
	for _, r := range rows {
		res = append(res, rankingRowToDomain(r))
	}
	return res, nil
}

// ListRankingRows returns all of a user's rankings outer-joined with their
// records, sorted by ranking id then position.
func (s *GormStore) ListRankingRows(ctx context.Context, userID int64) ([]domain.RankingRow, error) {
	return s.rankingRows(ctx, "r.user_id = ?", userID)
}

// GetRankingRows is ListRankingRows narrowed to one ranking.
func (s *GormStore) GetRankingRows(ctx context.Context, userID, rankingID int64) ([]domain.RankingRow, error) {
	return s.rankingRows(ctx, "r.user_id = ? AND r.id = ?", userID, rankingID)
}

func (s *GormStore) CreateRanking(ctx context.Context, userID int64, title string, numeration domain.NumerationType) (int64, error) {
	model := RankingModel{UserID: userID, Title: title, NumerationType: string(numeration)}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, mapError(err)
	}
	return model.ID, nil
}

func (s *GormStore) UpdateRanking(ctx context.Context, userID, rankingID int64, title string, numeration domain.NumerationType) error {
	res := s.db.WithContext(ctx).Model(&RankingModel{}).
		Where("id = ? AND user_id = ?", rankingID, userID).
		Updates(map[string]any{"title": title, "numeration_type": string(numeration)})
	return affected(res)
}

// DeleteRanking removes a ranking; its records cascade.
func (s *GormStore) DeleteRanking(ctx context.Context, userID, rankingID int64) error {
	return affected(s.db.WithContext(ctx).Where("id = ? AND user_id = ?", rankingID, userID).Delete(&RankingModel{}))
}

func (s *GormStore) RankingOwned(ctx context.Context, userID, rankingID int64) (bool, error) {
	return s.exists(ctx, &RankingModel{}, "id = ? AND user_id = ?", rankingID, userID)
}

func (s *GormStore) CreateRankingRecord(ctx context.Context, rec domain.RankingRecord) error {
	model := RankingRecordModel{
		RankingID:      rec.RankingID,
		BookID:         rec.BookID,
		UserID:         rec.UserID,
		RecordPosition: rec.RecordPosition,
	}
	return mapError(s.db.WithContext(ctx).Create(&model).Error)
}

func (s *GormStore) RankingRecordExists(ctx context.Context, rankingID, bookID int64) (bool, error) {
	return s.exists(ctx, &RankingRecordModel{}, "ranking_id = ? AND book_id = ?", rankingID, bookID)
}

// UpdateRankingRecord moves a book to a new position within a ranking.
func (s *GormStore) UpdateRankingRecord(ctx context.Context, rec domain.RankingRecord) error {
	res := s.db.WithContext(ctx).Model(&RankingRecordModel{}).
		Where("ranking_id = ? AND book_id = ? AND user_id = ?", rec.RankingID, rec.BookID, rec.UserID).
		Update("record_position", rec.RecordPosition)
	return affected(res)
}

func (s *GormStore) DeleteRankingRecord(ctx context.Context, userID, rankingID, bookID int64) error {
	res := s.db.WithContext(ctx).
		Where("ranking_id = ? AND book_id = ? AND user_id = ?", rankingID, bookID, userID).
		Delete(&RankingRecordModel{})
	return affected(res)
}

// CountLibraryByReadState counts the user's library entries per read flag.
func (s *GormStore) CountLibraryByReadState(ctx context.Context, userID int64) (int64, int64, error) {
	var rows []struct {
		WasRead bool
		Count   int64
	}
	err := s.db.WithContext(ctx).
		Raw("SELECT was_read, COUNT(*) AS count FROM libraries WHERE user_id = ? GROUP BY was_read", userID).
		Scan(&rows).Error
	if err != nil {
		return 0, 0, mapError(err)
	}
	var read, unread int64
	for _, r := range rows {
		if r.WasRead {
			read = r.Count
		} else {
			unread = r.Count
		}
	}
	return read, unread, nil
}

func (s *GormStore) CountRankings(ctx context.Context, userID int64) (int64, error) {
	return s.count(ctx, &RankingModel{}, "user_id = ?", userID)
}

func (s *GormStore) CountReviews(ctx context.Context, userID int64) (int64, error) {
	return s.count(ctx, &ReviewModel{}, "user_id = ?", userID)
}

var _ Store = (*GormStore)(nil)
