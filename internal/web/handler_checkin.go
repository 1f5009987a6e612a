package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vbonduro/traincheck/internal/domain"
	"github.com/vbonduro/traincheck/internal/query"
	"github.com/vbonduro/traincheck/internal/service"
)

type updateCheckinRequest struct {
	TrainID  string `json:"trainId"`
	Platform int    `json:"platform"`
	Date     string `json:"date"`
	Notes    string `json:"notes"`
}

type submitCheckinRequest struct {
	updateCheckinRequest
	TaskID string `json:"taskId"`
}

// submitResponse carries a warning when the check-in was stored but some of
// its photos were not.
type submitResponse struct {
	Checkin *domain.Checkin `json:"checkin"`
	Warning string          `json:"warning,omitempty"`
}

// listOptions reads the train, task, sort and order query parameters.
func listOptions(r *http.Request) (query.Options, error) {
	q := r.URL.Query()
	mode, err := query.ParseSortMode(q.Get("sort"))
	if err != nil {
		return query.Options{}, err
	}
	return query.Options{
		TrainID:   q.Get("train"),
		TaskID:    q.Get("task"),
		Mode:      mode,
		Ascending: strings.EqualFold(q.Get("order"), "asc"),
	}, nil
}

func (s *Server) handleListCheckins(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	checkins, err := s.svc.Checkins.List(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(checkins))
}

func (s *Server) handleTodayCheckins(w http.ResponseWriter, r *http.Request) {
	checkins, err := s.svc.Checkins.Today(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(checkins))
}

// handleSubmitCheckin accepts either a JSON body without photos or a
// multipart form with the same fields and up to ten "photos" files.
func (s *Server) handleSubmitCheckin(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var ok bool
		if req, ok = s.readSubmitForm(w, r); !ok {
			return
		}
	} else {
		var body submitCheckinRequest
		if err := decodeJSON(r, &body); err != nil {
			s.badRequest(w, "invalid request body")
			return
		}
		req = service.SubmitRequest{
			TrainID:  body.TrainID,
			Platform: domain.Platform(body.Platform),
			Date:     body.Date,
			Notes:    body.Notes,
			TaskID:   body.TaskID,
		}
	}

	checkin, err := s.svc.Checkins.Submit(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrPartialWrite) && checkin != nil {
			s.logger.Warn("checkin stored with missing photos", "checkin_id", checkin.ID, "error", err)
			s.writeJSON(w, http.StatusCreated, submitResponse{Checkin: checkin, Warning: err.Error()})
			return
		}
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, submitResponse{Checkin: checkin})
}

func (s *Server) handleGetCheckin(w http.ResponseWriter, r *http.Request) {
	checkin, err := s.svc.Checkins.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, checkin)
}

func (s *Server) handleUpdateCheckin(w http.ResponseWriter, r *http.Request) {
	var body updateCheckinRequest
	if err := decodeJSON(r, &body); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	checkin, err := s.svc.Checkins.Update(r.Context(), r.PathValue("id"), service.UpdateRequest{
		TrainID:  body.TrainID,
		Platform: domain.Platform(body.Platform),
		Date:     body.Date,
		Notes:    body.Notes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, checkin)
}

func (s *Server) handleDeleteCheckin(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Checkins.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCheckinPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := s.svc.Checkins.Photos(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(photos))
}
