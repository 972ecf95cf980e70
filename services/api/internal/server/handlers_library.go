package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"booktracker/pkg/domain"
	"booktracker/services/api/internal/app"
)

func (s *Server) handleListLibrary(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	items, err := s.app.ListLibrary(r.Context(), identity)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleAddToLibrary(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	id, err := s.app.AddToLibrary(r.Context(), identity, body)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"libraryId": id})
}

func (s *Server) handleUpdateLibraryEntry(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	bookID, err := app.ParseID(chi.URLParam(r, "bookId"), msgBookID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := s.app.UpdateLibraryEntry(r.Context(), identity, bookID, body); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRemoveFromLibrary(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	bookID, err := app.ParseID(chi.URLParam(r, "bookId"), msgBookID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if err := s.app.RemoveFromLibrary(r.Context(), identity, bookID); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleListMyReviews(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	reviews, err := s.app.ListMyReviews(r.Context(), identity)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (s *Server) handleListBookReviews(w http.ResponseWriter, r *http.Request) {
	bookID, err := app.ParseID(chi.URLParam(r, "bookId"), msgBookID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	reviews, err := s.app.ListBookReviews(r.Context(), bookID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	id, err := s.app.CreateReview(r.Context(), identity, body)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"reviewId": id})
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	stats, err := s.app.Statistics(r.Context(), identity)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
