package store

import (
	"time"

	"gorm.io/datatypes"

	"booktracker/pkg/domain"
)

// GORM models used for persistence. The schema itself is owned by the
// migrations in migrations/.
type UserModel struct {
	ID           int64  `gorm:"primaryKey"`
	Username     string `gorm:"not null"`
	FullName     string `gorm:"not null"`
	Email        string `gorm:"not null"`
	PasswordHash string `gorm:"not null"`
	Birthdate    datatypes.Date
	IsAdmin      bool
	CreatedAt    time.Time
}

func (UserModel) TableName() string { return "users" }

type AuthorModel struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Birthdate *datatypes.Date
}

func (AuthorModel) TableName() string { return "authors" }

type GenreModel struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"not null"`
}

func (GenreModel) TableName() string { return "genres" }

type BookModel struct {
	ID              int64  `gorm:"primaryKey"`
	AuthorID        int64  `gorm:"not null"`
	Title           string `gorm:"not null"`
	Format          string `gorm:"not null"`
	PageCount       *int64
	ListeningLength *int64
	Narrator        *string
	GenreID         int64 `gorm:"not null"`
}

func (BookModel) TableName() string { return "books" }

type LibraryModel struct {
	ID      int64 `gorm:"primaryKey"`
	UserID  int64 `gorm:"not null"`
	BookID  int64 `gorm:"not null"`
	WasRead bool  `gorm:"not null"`
}

func (LibraryModel) TableName() string { return "libraries" }

type ReviewModel struct {
	ID        int64 `gorm:"primaryKey"`
	UserID    int64 `gorm:"not null"`
	BookID    int64 `gorm:"not null"`
	Rating    int   `gorm:"not null"`
	Text      *string
	CreatedAt time.Time
}

func (ReviewModel) TableName() string { return "book_reviews" }

type RankingModel struct {
	ID             int64  `gorm:"primaryKey"`
	UserID         int64  `gorm:"not null"`
	Title          string `gorm:"not null"`
	NumerationType string `gorm:"not null"`
}

func (RankingModel) TableName() string { return "rankings" }

type RankingRecordModel struct {
	ID             int64 `gorm:"primaryKey"`
	RankingID      int64 `gorm:"not null"`
	BookID         int64 `gorm:"not null"`
	UserID         int64 `gorm:"not null"`
	RecordPosition int64 `gorm:"not null"`
}

func (RankingRecordModel) TableName() string { return "ranking_records" }

// row shapes for joined reads
type libraryRow struct {
	BookID          int64
	Title           string
	Format          string
	PageCount       *int64
	ListeningLength *int64
	Narrator        *string
	Genre           string
	Author          string
	WasRead         bool
}

type reviewRow struct {
	Username string
	BookID   int64
	Title    string
	Format   string
	Rating   int
	Text     *string
}

type rankingRow struct {
	RankingID      int64
	Title          string
	NumerationType string
	RecordPosition *int64
	BookID         *int64
	BookTitle      *string
	Format         *string
	Author         *string
	Genre          *string
}

func parseDate(s string) (datatypes.Date, error) {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}

func formatDate(d datatypes.Date) string {
	t := time.Time(d)
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}

func userToModel(u domain.User) (UserModel, error) {
	birthdate, err := parseDate(u.Birthdate)
	if err != nil {
		return UserModel{}, err
	}
	return UserModel{
		ID:           u.ID,
		Username:     u.Username,
		FullName:     u.FullName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Birthdate:    birthdate,
		IsAdmin:      u.IsAdmin,
	}, nil
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		FullName:     m.FullName,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Birthdate:    formatDate(m.Birthdate),
		IsAdmin:      m.IsAdmin,
	}
}

func authorFromModel(m AuthorModel) domain.Author {
	a := domain.Author{ID: m.ID, Name: m.Name}
	if m.Birthdate != nil {
		s := formatDate(*m.Birthdate)
		a.Birthdate = &s
	}
	return a
}

func bookToModel(b domain.Book) BookModel {
	return BookModel{
		ID:              b.ID,
		AuthorID:        b.AuthorID,
		Title:           b.Title,
		Format:          string(b.Format),
		PageCount:       b.PageCount,
		ListeningLength: b.ListeningLength,
		Narrator:        b.Narrator,
		GenreID:         b.GenreID,
	}
}

func bookFromModel(m BookModel) domain.Book {
	return domain.Book{
		ID:              m.ID,
		AuthorID:        m.AuthorID,
		Title:           m.Title,
		Format:          domain.BookFormat(m.Format),
		PageCount:       m.PageCount,
		ListeningLength: m.ListeningLength,
		Narrator:        m.Narrator,
		GenreID:         m.GenreID,
	}
}

func rankingRowToDomain(r rankingRow) domain.RankingRow {
	return domain.RankingRow{
		RankingID:      r.RankingID,
		Title:          r.Title,
		NumerationType: domain.NumerationType(r.NumerationType),
		RecordPosition: r.RecordPosition,
		BookID:         r.BookID,
		BookTitle:      r.BookTitle,
		Format:         r.Format,
		Author:         r.Author,
		Genre:          r.Genre,
	}
}
