package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vbonduro/traincheck/internal/exchange"
)

const maxImportSize = 32 << 20

type usageResponse struct {
	Total       int64  `json:"total"`
	Photos      int64  `json:"photos"`
	Data        int64  `json:"data"`
	TotalHuman  string `json:"totalHuman"`
	PhotosHuman string `json:"photosHuman"`
	DataHuman   string `json:"dataHuman"`
}

type purgeRequest struct {
	Days int `json:"days"`
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	now := s.svc.Now()
	year, month := now.Year(), int(now.Month())

	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			s.badRequest(w, "invalid year")
			return
		}
		year = y
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			s.badRequest(w, "invalid month")
			return
		}
		month = m
	}

	opts, err := listOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cal, err := s.svc.Checkins.Calendar(r.Context(), year, time.Month(month), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newCalendarView(cal))
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := s.svc.Storage.ComputeUsage(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, usageResponse{
		Total:       usage.Total,
		Photos:      usage.Photos,
		Data:        usage.Data,
		TotalHuman:  humanize.Bytes(uint64(usage.Total)),
		PhotosHuman: humanize.Bytes(uint64(usage.Photos)),
		DataHuman:   humanize.Bytes(uint64(usage.Data)),
	})
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	var req purgeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	deleted, err := s.svc.Storage.PurgeOlderThan(r.Context(), req.Days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// handleExport serves the export document as a download, or the readable
// report with format=report.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "report" {
		report, err := s.svc.Transfer.Report(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := io.WriteString(w, report); err != nil {
			s.logger.Error("write report failed", "error", err)
		}
		return
	}

	data, err := s.svc.Transfer.Export(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exchange.DefaultFilename(s.svc.Now())))
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write export failed", "error", err)
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		s.badRequest(w, "failed to read body")
		return
	}

	result, err := s.svc.Transfer.Import(r.Context(), string(body))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
