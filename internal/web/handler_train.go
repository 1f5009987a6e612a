package web

import (
	"net/http"
)

type registerTrainRequest struct {
	ID string `json:"id"`
}

type seedTrainsRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleListTrains(w http.ResponseWriter, r *http.Request) {
	trains, err := s.svc.Trains.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(trains))
}

func (s *Server) handleRegisterTrain(w http.ResponseWriter, r *http.Request) {
	var req registerTrainRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	train, err := s.svc.Trains.Register(r.Context(), req.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, train)
}

func (s *Server) handleSeedTrains(w http.ResponseWriter, r *http.Request) {
	var req seedTrainsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	added, err := s.svc.Trains.Seed(r.Context(), req.IDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

func (s *Server) handleDeleteTrain(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Trains.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
