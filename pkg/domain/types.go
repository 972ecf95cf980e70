package domain

// DateLayout is the textual date shape used on the wire and in storage.
const DateLayout = "2006-01-02"

type BookFormat string

const (
	FormatPaper     BookFormat = "paper"
	FormatEbook     BookFormat = "ebook"
	FormatAudiobook BookFormat = "audiobook"
)

type NumerationType string

const (
	NumerationDecimal NumerationType = "decimal"
	NumerationRoman   NumerationType = "roman"
)

// Identity is the caller's resolved session identity. The zero value is anonymous.
type Identity struct {
	UserID  int64
	Present bool
}

// Anonymous returns an identity with no user bound.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated returns an identity bound to userID.
func Authenticated(userID int64) Identity {
	return Identity{UserID: userID, Present: userID > 0}
}

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Birthdate    string `json:"birthdate"`
	IsAdmin      bool   `json:"-"`
}

// Profile is the self-service view of a user.
type Profile struct {
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Birthdate string `json:"birthdate"`
}

type Author struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Birthdate *string `json:"birthdate"`
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Book struct {
	ID              int64      `json:"id"`
	AuthorID        int64      `json:"authorId"`
	Title           string     `json:"title"`
	Format          BookFormat `json:"format"`
	PageCount       *int64     `json:"pageCount"`
	ListeningLength *int64     `json:"listeningLength"`
	Narrator        *string    `json:"narrator"`
	GenreID         int64      `json:"genreId"`
}

type LibraryEntry struct {
	ID      int64 `json:"id"`
	UserID  int64 `json:"userId"`
	BookID  int64 `json:"bookId"`
	WasRead bool  `json:"wasRead"`
}

// LibraryItem is a library entry joined with its book, author and genre.
type LibraryItem struct {
	BookID          int64      `json:"bookId"`
	Title           string     `json:"title"`
	Format          BookFormat `json:"format"`
	PageCount       *int64     `json:"pageCount"`
	ListeningLength *int64     `json:"listeningLength"`
	Narrator        *string    `json:"narrator"`
	Genre           string     `json:"genre"`
	Author          string     `json:"author"`
	WasRead         bool       `json:"wasRead"`
}

type Review struct {
	ID     int64   `json:"id"`
	UserID int64   `json:"userId"`
	BookID int64   `json:"bookId"`
	Rating int     `json:"rating"`
	Text   *string `json:"text"`
}

// ReviewItem is a review joined with its author's username and the book.
type ReviewItem struct {
	Username string     `json:"username"`
	BookID   int64      `json:"bookId"`
	Title    string     `json:"title"`
	Format   BookFormat `json:"format"`
	Rating   int        `json:"rating"`
	Text     *string    `json:"text"`
}

type RankingRecord struct {
	RankingID      int64 `json:"rankingId"`
	BookID         int64 `json:"bookId"`
	UserID         int64 `json:"userId"`
	RecordPosition int64 `json:"recordPosition"`
}

// RankingRow is one flat row of rankings outer-joined with their records.
// Record fields are nil when the ranking has no records.
type RankingRow struct {
	RankingID      int64
	Title          string
	NumerationType NumerationType
	RecordPosition *int64
	BookID         *int64
	BookTitle      *string
	Format         *string
	Author         *string
	Genre          *string
}

// Ranking is a ranking with its books ordered by position.
type Ranking struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	NumerationType NumerationType `json:"numerationType"`
	Books          []RankedBook   `json:"books"`
}

type RankedBook struct {
	RecordPosition int64  `json:"recordPosition"`
	BookID         int64  `json:"bookId"`
	BookTitle      string `json:"bookTitle"`
	Format         string `json:"format"`
	Author         string `json:"author"`
	Genre          string `json:"genre"`
}

type Statistics struct {
	ReadBooksCount   int64 `json:"readBooksCount"`
	UnreadBooksCount int64 `json:"unreadBooksCount"`
	RankingsCount    int64 `json:"rankingsCount"`
	ReviewsCount     int64 `json:"reviewsCount"`
}
