package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"booktracker/pkg/store"
	"booktracker/pkg/validation"
	"booktracker/services/api/internal/app"
)

type testAPI struct {
	handler http.Handler
	cookie  *http.Cookie
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	a, err := app.New(app.Config{
		Store:    store.NewMemoryStore(),
		Sessions: store.NewMemorySessionStore(time.Hour),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return &testAPI{handler: New(Config{App: a, SessionTTL: time.Hour}).Router()}
}

func (api *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if api.cookie != nil {
		req.AddCookie(api.cookie)
	}
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	return rec
}

func (api *testAPI) login(t *testing.T, username string) {
	t.Helper()
	rec := api.do(t, http.MethodPost, "/users", `{"username":"`+username+`","fullName":"Test Reader","email":"`+username+`@example.com","password":"secret-pass","birthdate":"1990-05-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = api.do(t, http.MethodPost, "/login", `{"username":"`+username+`","password":"secret-pass"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != defaultCookieName {
		t.Fatalf("login: expected session cookie, got %+v", cookies)
	}
	if !cookies[0].HttpOnly || cookies[0].SameSite != http.SameSiteLaxMode {
		t.Fatalf("login: cookie attributes wrong: %+v", cookies[0])
	}
	api.cookie = cookies[0]
}

// seedBook creates an author, a genre and a book and returns the book id.
func (api *testAPI) seedBook(t *testing.T) int64 {
	t.Helper()
	var author struct{ AuthorID int64 }
	decodeStatus(t, api.do(t, http.MethodPost, "/authors", `{"name":"Ursula K. Le Guin"}`), http.StatusCreated, &author)
	var genre struct{ GenreID int64 }
	decodeStatus(t, api.do(t, http.MethodPost, "/genres", `{"name":"Fantasy"}`), http.StatusCreated, &genre)
	var book struct{ BookID int64 }
	body, _ := json.Marshal(map[string]any{
		"authorId": author.AuthorID, "title": "A Wizard of Earthsea", "format": "paper",
		"pageCount": 183, "genreId": genre.GenreID,
	})
	decodeStatus(t, api.do(t, http.MethodPost, "/books", string(body)), http.StatusCreated, &book)
	return book.BookID
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder, want int, out any) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
	if out == nil {
		return
	}
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/healthz", "")
	var out map[string]string
	decodeStatus(t, rec, http.StatusOK, &out)
	if out["status"] != "ok" {
		t.Fatalf("unexpected body: %v", out)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestGenreCreateThenList(t *testing.T) {
	api := newTestAPI(t)
	var created struct {
		GenreID int64 `json:"genreId"`
	}
	decodeStatus(t, api.do(t, http.MethodPost, "/genres", `{"name":"Mystery"}`), http.StatusCreated, &created)
	if created.GenreID <= 0 {
		t.Fatalf("expected genre id, got %d", created.GenreID)
	}

	var genres []map[string]any
	decodeStatus(t, api.do(t, http.MethodGet, "/genres", ""), http.StatusOK, &genres)
	if len(genres) != 1 || genres[0]["name"] != "Mystery" {
		t.Fatalf("unexpected genres: %v", genres)
	}

	var errs []validation.FieldError
	decodeStatus(t, api.do(t, http.MethodPost, "/genres", `{"name":"Mystery"}`), http.StatusBadRequest, &errs)
	if len(errs) != 1 || errs[0].Field != "name" || errs[0].Message != "Genre already exists" {
		t.Fatalf("unexpected errors: %+v", errs)
	}
}

func TestUnauthenticatedLibraryIsEmpty401(t *testing.T) {
	api := newTestAPI(t)
	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/libraries", ""},
		{http.MethodPost, "/libraries", `{}`},
		{http.MethodPost, "/rankings", `not json`},
		{http.MethodGet, "/statistics", ""},
	} {
		rec := api.do(t, tc.method, tc.path, tc.body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Fatalf("%s %s: expected empty body, got %q", tc.method, tc.path, rec.Body.String())
		}
	}
}

func TestBookValidationNamesField(t *testing.T) {
	api := newTestAPI(t)
	var errs []validation.FieldError
	rec := api.do(t, http.MethodPost, "/books", `{"authorId":1,"title":"Dune","format":"paper","pageCount":-5,"genreId":1}`)
	decodeStatus(t, rec, http.StatusBadRequest, &errs)
	if len(errs) != 1 || errs[0].Field != "pageCount" || errs[0].Message != "Page count must be a positive integer" {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	var raw []map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil || raw[0]["message"] == "" {
		t.Fatalf("expected a bare {field, message} list, got %s", rec.Body.String())
	}
}

func TestBookPageCountBeyondColumnRange(t *testing.T) {
	api := newTestAPI(t)
	api.seedBook(t)
	var errs []validation.FieldError
	rec := api.do(t, http.MethodPost, "/books", `{"authorId":1,"title":"Dune","format":"paper","pageCount":3000000000,"genreId":1}`)
	decodeStatus(t, rec, http.StatusBadRequest, &errs)
	if len(errs) != 1 || errs[0].Field != "pageCount" {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	var books []map[string]any
	decodeStatus(t, api.do(t, http.MethodGet, "/books", ""), http.StatusOK, &books)
	if len(books) != 1 {
		t.Fatalf("out-of-range book must not be stored, got %d books", len(books))
	}
}

func TestTrailingContentAfterBodyRejected(t *testing.T) {
	api := newTestAPI(t)
	var problem errorResponse
	decodeStatus(t, api.do(t, http.MethodPost, "/genres", `{"name":"Fantasy"} garbage`), http.StatusBadRequest, &problem)
	if problem.Code != "invalid_json" {
		t.Fatalf("unexpected problem: %+v", problem)
	}
	var genres []map[string]any
	decodeStatus(t, api.do(t, http.MethodGet, "/genres", ""), http.StatusOK, &genres)
	if len(genres) != 0 {
		t.Fatalf("expected no genres, got %v", genres)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	api := newTestAPI(t)
	var problem errorResponse
	decodeStatus(t, api.do(t, http.MethodPost, "/authors", `["not","an","object"]`), http.StatusBadRequest, &problem)
	if problem.Error != "invalid JSON body" {
		t.Fatalf("unexpected problem: %+v", problem)
	}
}

func TestBookByIDErrors(t *testing.T) {
	api := newTestAPI(t)
	var problem errorResponse
	decodeStatus(t, api.do(t, http.MethodGet, "/books/abc", ""), http.StatusBadRequest, &problem)
	if problem.Code != "invalid_id" || problem.Error != "Book ID should be an integer" {
		t.Fatalf("unexpected problem: %+v", problem)
	}
	decodeStatus(t, api.do(t, http.MethodGet, "/books/42", ""), http.StatusNotFound, nil)
	decodeStatus(t, api.do(t, http.MethodDelete, "/books/42", ""), http.StatusNotFound, nil)
}

func TestDeleteReferencedBookConflicts(t *testing.T) {
	api := newTestAPI(t)
	bookID := api.seedBook(t)
	api.login(t, "reader")
	body, _ := json.Marshal(map[string]any{"bookId": bookID, "wasRead": true})
	decodeStatus(t, api.do(t, http.MethodPost, "/libraries", string(body)), http.StatusCreated, nil)

	var problem errorResponse
	decodeStatus(t, api.do(t, http.MethodDelete, "/books/"+itoa(bookID), ""), http.StatusConflict, &problem)
	if problem.Code != "conflict" {
		t.Fatalf("unexpected problem: %+v", problem)
	}
}

func TestLibraryFlow(t *testing.T) {
	api := newTestAPI(t)
	bookID := api.seedBook(t)
	api.login(t, "reader")
	body, _ := json.Marshal(map[string]any{"bookId": bookID, "wasRead": false})

	var created struct {
		LibraryID int64 `json:"libraryId"`
	}
	decodeStatus(t, api.do(t, http.MethodPost, "/libraries", string(body)), http.StatusCreated, &created)
	var errs []validation.FieldError
	decodeStatus(t, api.do(t, http.MethodPost, "/libraries", string(body)), http.StatusBadRequest, &errs)
	if len(errs) != 1 || errs[0].Field != "bookId" || errs[0].Message != "Book already in library" {
		t.Fatalf("unexpected errors: %+v", errs)
	}

	path := "/libraries/" + itoa(bookID)
	decodeStatus(t, api.do(t, http.MethodPut, path, `{"wasRead":true}`), http.StatusOK, nil)
	decodeStatus(t, api.do(t, http.MethodPut, path, `{"wasRead":true}`), http.StatusOK, nil)

	var items []map[string]any
	decodeStatus(t, api.do(t, http.MethodGet, "/libraries", ""), http.StatusOK, &items)
	if len(items) != 1 || items[0]["wasRead"] != true || items[0]["author"] != "Ursula K. Le Guin" {
		t.Fatalf("unexpected library: %v", items)
	}

	decodeStatus(t, api.do(t, http.MethodDelete, path, ""), http.StatusOK, nil)
	decodeStatus(t, api.do(t, http.MethodDelete, path, ""), http.StatusNotFound, nil)
}

func TestLoginFailureAndLogout(t *testing.T) {
	api := newTestAPI(t)
	var problem errorResponse
	decodeStatus(t, api.do(t, http.MethodPost, "/login", `{"username":"ghost","password":"nope-nope"}`), http.StatusUnauthorized, &problem)
	if problem.Error != "Username or password incorrect." {
		t.Fatalf("unexpected problem: %+v", problem)
	}

	decodeStatus(t, api.do(t, http.MethodPost, "/logout", ""), http.StatusBadRequest, nil)

	api.login(t, "reader")
	decodeStatus(t, api.do(t, http.MethodGet, "/users", ""), http.StatusOK, nil)

	rec := api.do(t, http.MethodPost, "/logout", "")
	decodeStatus(t, rec, http.StatusOK, nil)
	cleared := rec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Fatalf("expected cleared cookie, got %+v", cleared)
	}
	decodeStatus(t, api.do(t, http.MethodGet, "/users", ""), http.StatusUnauthorized, nil)
}

func TestDeleteAccountEndsSession(t *testing.T) {
	api := newTestAPI(t)
	api.login(t, "reader")
	decodeStatus(t, api.do(t, http.MethodDelete, "/users", ""), http.StatusOK, nil)
	decodeStatus(t, api.do(t, http.MethodGet, "/users", ""), http.StatusUnauthorized, nil)
}

func TestRankings(t *testing.T) {
	api := newTestAPI(t)
	bookID := api.seedBook(t)
	api.login(t, "reader")

	rec := api.do(t, http.MethodGet, "/rankings/999", "")
	decodeStatus(t, rec, http.StatusOK, nil)
	if strings.TrimSpace(rec.Body.String()) != "{}" {
		t.Fatalf("expected empty object, got %q", rec.Body.String())
	}
	decodeStatus(t, api.do(t, http.MethodGet, "/rankings/abc", ""), http.StatusBadRequest, nil)

	var created struct {
		ID int64 `json:"id"`
	}
	decodeStatus(t, api.do(t, http.MethodPost, "/rankings", `{"title":"Favourites","numerationType":"roman"}`), http.StatusCreated, &created)

	var ranking struct {
		Title string           `json:"title"`
		Books []map[string]any `json:"books"`
	}
	decodeStatus(t, api.do(t, http.MethodGet, "/rankings/"+itoa(created.ID), ""), http.StatusOK, &ranking)
	if ranking.Title != "Favourites" || ranking.Books == nil || len(ranking.Books) != 0 {
		t.Fatalf("unexpected ranking: %+v", ranking)
	}

	record, _ := json.Marshal(map[string]any{"bookId": bookID, "recordPosition": 1})
	recordsPath := "/rankings/records/" + itoa(created.ID)
	decodeStatus(t, api.do(t, http.MethodPost, recordsPath, string(record)), http.StatusCreated, nil)
	decodeStatus(t, api.do(t, http.MethodPost, recordsPath, string(record)), http.StatusBadRequest, nil)

	var all []struct {
		Books []struct {
			BookTitle string `json:"bookTitle"`
		} `json:"books"`
	}
	decodeStatus(t, api.do(t, http.MethodGet, "/rankings", ""), http.StatusOK, &all)
	if len(all) != 1 || len(all[0].Books) != 1 || all[0].Books[0].BookTitle != "A Wizard of Earthsea" {
		t.Fatalf("unexpected rankings: %+v", all)
	}

	remove, _ := json.Marshal(map[string]any{"bookId": bookID})
	decodeStatus(t, api.do(t, http.MethodDelete, recordsPath, string(remove)), http.StatusOK, nil)
	decodeStatus(t, api.do(t, http.MethodDelete, "/rankings/"+itoa(created.ID), ""), http.StatusOK, nil)
	decodeStatus(t, api.do(t, http.MethodDelete, "/rankings/"+itoa(created.ID), ""), http.StatusNotFound, nil)
}

func TestStatistics(t *testing.T) {
	api := newTestAPI(t)
	bookID := api.seedBook(t)
	api.login(t, "reader")
	review, _ := json.Marshal(map[string]any{"bookId": bookID, "rating": 5, "text": "Timeless."})
	decodeStatus(t, api.do(t, http.MethodPost, "/book-reviews", string(review)), http.StatusCreated, nil)

	var stats map[string]int64
	decodeStatus(t, api.do(t, http.MethodGet, "/statistics", ""), http.StatusOK, &stats)
	if stats["reviewsCount"] != 1 || stats["readBooksCount"] != 0 || stats["rankingsCount"] != 0 {
		t.Fatalf("unexpected statistics: %v", stats)
	}

	var reviews []map[string]any
	decodeStatus(t, api.do(t, http.MethodGet, "/book-reviews/"+itoa(bookID), ""), http.StatusOK, &reviews)
	if len(reviews) != 1 || reviews[0]["username"] != "reader" {
		t.Fatalf("unexpected reviews: %v", reviews)
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	api := newTestAPI(t)
	var out map[string]string
	decodeStatus(t, api.do(t, http.MethodGet, "/nowhere", ""), http.StatusNotFound, &out)
	if out["error"] != "not found" {
		t.Fatalf("unexpected body: %v", out)
	}
	decodeStatus(t, api.do(t, http.MethodPatch, "/genres", ""), http.StatusMethodNotAllowed, &out)
	if out["error"] != "method not allowed" {
		t.Fatalf("unexpected body: %v", out)
	}
}

func TestRoutesWithoutApp(t *testing.T) {
	routes, err := New(Config{}).Routes()
	if err != nil {
		t.Fatalf("routes: %v", err)
	}
	found := false
	for _, r := range routes {
		if r.Method == http.MethodDelete && r.Path == "/rankings/records/{rankingId}" {
			found = true
		}
	}
	if !found {
		t.Fatalf("ranking record delete route missing from %v", routes)
	}
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
