package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"booktracker/services/api/internal/app"
)

const (
	msgBookID    = "Book ID should be an integer"
	msgRankingID = "Ranking ID should be an integer"
)

func (s *Server) handleListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := s.app.ListAuthors(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authors)
}

func (s *Server) handleCreateAuthor(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	id, err := s.app.CreateAuthor(r.Context(), body)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"authorId": id})
}

func (s *Server) handleListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.app.ListGenres(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

func (s *Server) handleCreateGenre(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	id, err := s.app.CreateGenre(r.Context(), body)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"genreId": id})
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.app.ListBooks(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := app.ParseID(chi.URLParam(r, "id"), msgBookID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	book, err := s.app.GetBook(r.Context(), id)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	id, err := s.app.CreateBook(r.Context(), body)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"bookId": id})
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := app.ParseID(chi.URLParam(r, "id"), msgBookID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := s.app.UpdateBook(r.Context(), id, body); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := app.ParseID(chi.URLParam(r, "id"), msgBookID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if err := s.app.DeleteBook(r.Context(), id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
