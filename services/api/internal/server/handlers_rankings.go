package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"booktracker/pkg/domain"
	"booktracker/services/api/internal/app"
)

func rankingID(r *http.Request) (int64, error) {
	return app.ParseID(chi.URLParam(r, "rankingId"), msgRankingID)
}

func (s *Server) handleListRankings(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	rankings, err := s.app.ListRankings(r.Context(), identity)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rankings)
}

func (s *Server) handleGetRanking(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	id, err := rankingID(r)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	ranking, ok, err := s.app.GetRanking(r.Context(), identity, id)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}

func (s *Server) handleCreateRanking(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	id, err := s.app.CreateRanking(r.Context(), identity, body)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleUpdateRanking(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	id, err := rankingID(r)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := s.app.UpdateRanking(r.Context(), identity, id, body); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDeleteRanking(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	id, err := rankingID(r)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if err := s.app.DeleteRanking(r.Context(), identity, id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleAddRankingRecord(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	id, err := rankingID(r)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := s.app.AddRankingRecord(r.Context(), identity, id, body); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleUpdateRankingRecord(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	id, err := rankingID(r)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := s.app.UpdateRankingRecord(r.Context(), identity, id, body); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDeleteRankingRecord(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	id, err := rankingID(r)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := s.app.DeleteRankingRecord(r.Context(), identity, id, body); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
