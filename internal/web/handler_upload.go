package web

import (
	"io"
	"net/http"
	"strconv"

	"github.com/vbonduro/traincheck/internal/domain"
	"github.com/vbonduro/traincheck/internal/imaging"
	"github.com/vbonduro/traincheck/internal/service"
)

const (
	maxPhotoSize  = 50 * 1024 * 1024 // 50 MB
	maxUploadSize = domain.MaxPhotosPerCheckin * maxPhotoSize
	maxFormMemory = 32 << 20
)

// readSubmitForm parses a multipart check-in submission. It writes the error
// response itself and reports false when the form is unusable.
func (s *Server) readSubmitForm(w http.ResponseWriter, r *http.Request) (service.SubmitRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		s.badRequest(w, "failed to parse form")
		return service.SubmitRequest{}, false
	}

	platform, err := strconv.Atoi(r.FormValue("platform"))
	if err != nil {
		s.badRequest(w, "platform must be 1 or 10")
		return service.SubmitRequest{}, false
	}

	req := service.SubmitRequest{
		TrainID:  r.FormValue("trainId"),
		Platform: domain.Platform(platform),
		Date:     r.FormValue("date"),
		Notes:    r.FormValue("notes"),
		TaskID:   r.FormValue("taskId"),
	}

	files := r.MultipartForm.File["photos"]
	if len(files) > domain.MaxPhotosPerCheckin {
		s.badRequest(w, "too many photos")
		return service.SubmitRequest{}, false
	}
	for _, fh := range files {
		if fh.Size > maxPhotoSize {
			s.badRequest(w, "photo too large")
			return service.SubmitRequest{}, false
		}
		f, err := fh.Open()
		if err != nil {
			s.badRequest(w, "failed to read photo")
			return service.SubmitRequest{}, false
		}
		data, err := io.ReadAll(f)
		closeWithLog(f, "upload file", s.logger)
		if err != nil {
			s.badRequest(w, "failed to read photo")
			return service.SubmitRequest{}, false
		}
		if _, ok := imaging.DetectMIME(data); !ok {
			s.badRequest(w, "unsupported image format")
			return service.SubmitRequest{}, false
		}
		req.Photos = append(req.Photos, data)
	}
	return req, true
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	photo, reader, err := s.svc.Checkins.Photo(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", photo.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(photo.SizeBytes, 10))
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "photo_id", photo.ID, "error", err)
	}
}
