package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"booktracker/pkg/domain"
)

// MemoryStore keeps all records in-process. It enforces the same unique
// and foreign-key constraints as the SQL schema and is meant for tests and
// local development.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	seq      int64
	users    map[int64]domain.User
	authors  map[int64]domain.Author
	genres   map[int64]domain.Genre
	books    map[int64]domain.Book
	library  map[int64]domain.LibraryEntry
	reviews  map[int64]domain.Review
	rankings map[int64]memRanking
	records  map[int64]domain.RankingRecord
}

type memRanking struct {
	id         int64
	userID     int64
	title      string
	numeration domain.NumerationType
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]domain.User),
		authors:  make(map[int64]domain.Author),
		genres:   make(map[int64]domain.Genre),
		books:    make(map[int64]domain.Book),
		library:  make(map[int64]domain.LibraryEntry),
		reviews:  make(map[int64]domain.Review),
		rankings: make(map[int64]memRanking),
		records:  make(map[int64]domain.RankingRecord),
	}
}

// Tx serializes fn against other transactions. Writes are not rolled back.
func (m *MemoryStore) Tx(ctx context.Context, fn func(Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(m)
}

func (m *MemoryStore) nextID() int64 {
	m.seq++
	return m.seq
}

func sortedKeys[V any](items map[int64]V) []int64 {
	keys := make([]int64, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func conflict(name string) error {
	return fmt.Errorf("%w: %s", ErrConflict, name)
}

func referenced(name string) error {
	return fmt.Errorf("%w: %s", ErrReferenced, name)
}

func (m *MemoryStore) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return 0, conflict("users_username_key")
		}
		if existing.Email == u.Email {
			return 0, conflict("users_email_key")
		}
	}
	u.ID = m.nextID()
	m.users[u.ID] = u
	return u.ID, nil
}

func (m *MemoryStore) GetUserByUsername(ctx context.Context, username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (m *MemoryStore) GetProfile(ctx context.Context, userID int64) (domain.Profile, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return domain.Profile{}, false, nil
	}
	return domain.Profile{Username: u.Username, FullName: u.FullName, Email: u.Email, Birthdate: u.Birthdate}, true, nil
}

func (m *MemoryStore) UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, u := range m.users {
		if id != exceptID && u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, u := range m.users {
		if id != exceptID && u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) UpdateUser(ctx context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range m.users {
		if id == u.ID {
			continue
		}
		if other.Username == u.Username {
			return conflict("users_username_key")
		}
		if other.Email == u.Email {
			return conflict("users_email_key")
		}
	}
	current.Username = u.Username
	current.FullName = u.FullName
	current.Email = u.Email
	current.Birthdate = u.Birthdate
	if u.PasswordHash != "" {
		current.PasswordHash = u.PasswordHash
	}
	m.users[u.ID] = current
	return nil
}

// DeleteUser removes the user and cascades to owned rows.
func (m *MemoryStore) DeleteUser(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return ErrNotFound
	}
	delete(m.users, userID)
	for id, e := range m.library {
		if e.UserID == userID {
			delete(m.library, id)
		}
	}
	for id, r := range m.reviews {
		if r.UserID == userID {
			delete(m.reviews, id)
		}
	}
	for id, r := range m.rankings {
		if r.userID == userID {
			m.deleteRankingLocked(id)
		}
	}
	return nil
}

func (m *MemoryStore) ListAuthors(ctx context.Context) ([]domain.Author, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Author, 0, len(m.authors))
	for _, id := range sortedKeys(m.authors) {
		res = append(res, m.authors[id])
	}
	return res, nil
}

func (m *MemoryStore) CreateAuthor(ctx context.Context, a domain.Author) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextID()
	m.authors[a.ID] = a
	return a.ID, nil
}

func (m *MemoryStore) AuthorExists(ctx context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.authors[id]
	return ok, nil
}

func (m *MemoryStore) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Genre, 0, len(m.genres))
	for _, id := range sortedKeys(m.genres) {
		res = append(res, m.genres[id])
	}
	return res, nil
}

func (m *MemoryStore) CreateGenre(ctx context.Context, g domain.Genre) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.genres {
		if existing.Name == g.Name {
			return 0, conflict("genres_name_key")
		}
	}
	g.ID = m.nextID()
	m.genres[g.ID] = g
	return g.ID, nil
}

func (m *MemoryStore) GenreExists(ctx context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.genres[id]
	return ok, nil
}

func (m *MemoryStore) GenreNameTaken(ctx context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.genres {
		if g.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) ListBooks(ctx context.Context) ([]domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Book, 0, len(m.books))
	for _, id := range sortedKeys(m.books) {
		res = append(res, m.books[id])
	}
	return res, nil
}

func (m *MemoryStore) GetBook(ctx context.Context, id int64) (domain.Book, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	return b, ok, nil
}

func (m *MemoryStore) checkBookRefsLocked(b domain.Book) error {
	if _, ok := m.authors[b.AuthorID]; !ok {
		return referenced("books_author_id_fkey")
	}
	if _, ok := m.genres[b.GenreID]; !ok {
		return referenced("books_genre_id_fkey")
	}
	return nil
}

func (m *MemoryStore) CreateBook(ctx context.Context, b domain.Book) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkBookRefsLocked(b); err != nil {
		return 0, err
	}
	b.ID = m.nextID()
	m.books[b.ID] = b
	return b.ID, nil
}

func (m *MemoryStore) UpdateBook(ctx context.Context, b domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[b.ID]; !ok {
		return ErrNotFound
	}
	if err := m.checkBookRefsLocked(b); err != nil {
		return err
	}
	m.books[b.ID] = b
	return nil
}

func (m *MemoryStore) DeleteBook(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return ErrNotFound
	}
	for _, e := range m.library {
		if e.BookID == id {
			return referenced("libraries_book_id_fkey")
		}
	}
	for _, r := range m.reviews {
		if r.BookID == id {
			return referenced("book_reviews_book_id_fkey")
		}
	}
	for _, r := range m.records {
		if r.BookID == id {
			return referenced("ranking_records_book_id_fkey")
		}
	}
	delete(m.books, id)
	return nil
}

func (m *MemoryStore) BookExists(ctx context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.books[id]
	return ok, nil
}

func (m *MemoryStore) ListLibrary(ctx context.Context, userID int64) ([]domain.LibraryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.LibraryItem, 0)
	for _, id := range sortedKeys(m.library) {
		e := m.library[id]
		if e.UserID != userID {
			continue
		}
		b := m.books[e.BookID]
		res = append(res, domain.LibraryItem{
			BookID:          b.ID,
			Title:           b.Title,
			Format:          b.Format,
			PageCount:       b.PageCount,
			ListeningLength: b.ListeningLength,
			Narrator:        b.Narrator,
			Genre:           m.genres[b.GenreID].Name,
			Author:          m.authors[b.AuthorID].Name,
			WasRead:         e.WasRead,
		})
	}
	return res, nil
}

func (m *MemoryStore) CreateLibraryEntry(ctx context.Context, e domain.LibraryEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[e.BookID]; !ok {
		return 0, referenced("libraries_book_id_fkey")
	}
	for _, existing := range m.library {
		if existing.UserID == e.UserID && existing.BookID == e.BookID {
			return 0, conflict("libraries_user_book_key")
		}
	}
	e.ID = m.nextID()
	m.library[e.ID] = e
	return e.ID, nil
}

func (m *MemoryStore) LibraryEntryExists(ctx context.Context, userID, bookID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.library {
		if e.UserID == userID && e.BookID == bookID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) UpdateLibraryEntry(ctx context.Context, e domain.LibraryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.library {
		if existing.UserID == e.UserID && existing.BookID == e.BookID {
			existing.WasRead = e.WasRead
			m.library[id] = existing
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) DeleteLibraryEntry(ctx context.Context, userID, bookID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.library {
		if existing.UserID == userID && existing.BookID == bookID {
			delete(m.library, id)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) listReviews(match func(domain.Review) bool) []domain.ReviewItem {
	res := make([]domain.ReviewItem, 0)
	for _, id := range sortedKeys(m.reviews) {
		r := m.reviews[id]
		if !match(r) {
			continue
		}
		b := m.books[r.BookID]
		res = append(res, domain.ReviewItem{
			Username: m.users[r.UserID].Username,
			BookID:   b.ID,
			Title:    b.Title,
			Format:   b.Format,
			Rating:   r.Rating,
			Text:     r.Text,
		})
	}
	return res
}

func (m *MemoryStore) ListReviewsByUser(ctx context.Context, userID int64) ([]domain.ReviewItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listReviews(func(r domain.Review) bool { return r.UserID == userID }), nil
}

func (m *MemoryStore) ListReviewsByBook(ctx context.Context, bookID int64) ([]domain.ReviewItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listReviews(func(r domain.Review) bool { return r.BookID == bookID }), nil
}

func (m *MemoryStore) CreateReview(ctx context.Context, r domain.Review) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[r.BookID]; !ok {
		return 0, referenced("book_reviews_book_id_fkey")
	}
	for _, existing := range m.reviews {
		if existing.UserID == r.UserID && existing.BookID == r.BookID {
			return 0, conflict("book_reviews_user_book_key")
		}
	}
	r.ID = m.nextID()
	m.reviews[r.ID] = r
	return r.ID, nil
}

func (m *MemoryStore) ReviewExists(ctx context.Context, userID, bookID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.reviews {
		if r.UserID == userID && r.BookID == bookID {
			return true, nil
		}
	}
	return false, nil
}

// rankingRowsLocked emulates the outer join used by the SQL store.
func (m *MemoryStore) rankingRowsLocked(match func(memRanking) bool) []domain.RankingRow {
	rows := make([]domain.RankingRow, 0)
	for _, id := range sortedKeys(m.rankings) {
		r := m.rankings[id]
		if !match(r) {
			continue
		}
		var recs []domain.RankingRecord
		for _, rec := range m.records {
			if rec.RankingID == r.id {
				recs = append(recs, rec)
			}
		}
		if len(recs) == 0 {
			rows = append(rows, domain.RankingRow{RankingID: r.id, Title: r.title, NumerationType: r.numeration})
			continue
		}
		sort.Slice(recs, func(i, j int) bool {
			if recs[i].RecordPosition != recs[j].RecordPosition {
				return recs[i].RecordPosition < recs[j].RecordPosition
			}
			return recs[i].BookID < recs[j].BookID
		})
		for _, rec := range recs {
			b := m.books[rec.BookID]
			pos, bookID := rec.RecordPosition, b.ID
			title, format := b.Title, string(b.Format)
			author, genre := m.authors[b.AuthorID].Name, m.genres[b.GenreID].Name
			rows = append(rows, domain.RankingRow{
				RankingID:      r.id,
				Title:          r.title,
				NumerationType: r.numeration,
				RecordPosition: &pos,
				BookID:         &bookID,
				BookTitle:      &title,
				Format:         &format,
				Author:         &author,
				Genre:          &genre,
			})
		}
	}
	return rows
}

func (m *MemoryStore) ListRankingRows(ctx context.Context, userID int64) ([]domain.RankingRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rankingRowsLocked(func(r memRanking) bool { return r.userID == userID }), nil
}

func (m *MemoryStore) GetRankingRows(ctx context.Context, userID, rankingID int64) ([]domain.RankingRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rankingRowsLocked(func(r memRanking) bool { return r.userID == userID && r.id == rankingID }), nil
}

func (m *MemoryStore) CreateRanking(ctx context.Context, userID int64, title string, numeration domain.NumerationType) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return 0, referenced("rankings_user_id_fkey")
	}
	id := m.nextID()
	m.rankings[id] = memRanking{id: id, userID: userID, title: title, numeration: numeration}
	return id, nil
}

func (m *MemoryStore) UpdateRanking(ctx context.Context, userID, rankingID int64, title string, numeration domain.NumerationType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rankings[rankingID]
	if !ok || r.userID != userID {
		return ErrNotFound
	}
	r.title = title
	r.numeration = numeration
	m.rankings[rankingID] = r
	return nil
}

func (m *MemoryStore) DeleteRanking(ctx context.Context, userID, rankingID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rankings[rankingID]
	if !ok || r.userID != userID {
		return ErrNotFound
	}
	m.deleteRankingLocked(rankingID)
	return nil
}

func (m *MemoryStore) deleteRankingLocked(rankingID int64) {
	delete(m.rankings, rankingID)
	for id, rec := range m.records {
		if rec.RankingID == rankingID {
			delete(m.records, id)
		}
	}
}

func (m *MemoryStore) RankingOwned(ctx context.Context, userID, rankingID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rankings[rankingID]
	return ok && r.userID == userID, nil
}

func (m *MemoryStore) CreateRankingRecord(ctx context.Context, rec domain.RankingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rankings[rec.RankingID]; !ok {
		return referenced("ranking_records_ranking_id_fkey")
	}
	if _, ok := m.books[rec.BookID]; !ok {
		return referenced("ranking_records_book_id_fkey")
	}
	for _, existing := range m.records {
		if existing.RankingID == rec.RankingID && existing.BookID == rec.BookID {
			return conflict("ranking_records_ranking_book_key")
		}
	}
	m.records[m.nextID()] = rec
	return nil
}

func (m *MemoryStore) RankingRecordExists(ctx context.Context, rankingID, bookID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.RankingID == rankingID && rec.BookID == bookID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) UpdateRankingRecord(ctx context.Context, rec domain.RankingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.records {
		if existing.RankingID == rec.RankingID && existing.BookID == rec.BookID && existing.UserID == rec.UserID {
			existing.RecordPosition = rec.RecordPosition
			m.records[id] = existing
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) DeleteRankingRecord(ctx context.Context, userID, rankingID, bookID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.records {
		if existing.RankingID == rankingID && existing.BookID == bookID && existing.UserID == userID {
			delete(m.records, id)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) CountLibraryByReadState(ctx context.Context, userID int64) (int64, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var read, unread int64
	for _, e := range m.library {
		if e.UserID != userID {
			continue
		}
		if e.WasRead {
			read++
		} else {
			unread++
		}
	}
	return read, unread, nil
}

func (m *MemoryStore) CountRankings(ctx context.Context, userID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, r := range m.rankings {
		if r.userID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CountReviews(ctx context.Context, userID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, r := range m.reviews {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

// LibraryCount returns the number of entries a user holds for bookID.
func (m *MemoryStore) LibraryCount(userID, bookID int64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.library {
		if e.UserID == userID && e.BookID == bookID {
			n++
		}
	}
	return n
}

var _ Store = (*MemoryStore)(nil)
