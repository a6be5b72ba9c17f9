// handlers/submissions.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"fitcomp/evidence"
	"fitcomp/models"
	"fitcomp/scoring"
	"fitcomp/services"
)

// SubmissionRequest is the body of submit and preview calls. Date accepts
// RFC 3339 or a plain YYYY-MM-DD read in the server time zone; empty means
// now.
type SubmissionRequest struct {
	ActivityType string   `json:"activity_type"`
	Quantity     float64  `json:"quantity"`
	Pace         *float64 `json:"pace,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	Date         string   `json:"date,omitempty"`
}

type SubmissionResponse struct {
	Submission *models.Submission `json:"submission"`
	Score      scoring.Result     `json:"score"`
}

func (req SubmissionRequest) entry(loc *time.Location) (models.ActivityEntry, error) {
	e := models.ActivityEntry{
		ActivityType: req.ActivityType,
		Quantity:     req.Quantity,
		Pace:         req.Pace,
		Notes:        req.Notes,
	}
	date := strings.TrimSpace(req.Date)
	if date == "" {
		return e, nil
	}
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		e.Date = t
		return e, nil
	}
	t, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return e, errors.New("date must be RFC 3339 or YYYY-MM-DD")
	}
	e.Date = t
	return e, nil
}

func decodeEntry(w http.ResponseWriter, r *http.Request, loc *time.Location) (models.ActivityEntry, bool) {
	var req SubmissionRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return models.ActivityEntry{}, false
	}
	e, err := req.entry(loc)
	if err != nil {
		badRequest(w, err.Error())
		return models.ActivityEntry{}, false
	}
	return e, true
}

func CreateSubmission(subs services.SubmissionService, loc *time.Location, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := decodeEntry(w, r, loc)
		if !ok {
			return
		}
		sub, res, err := subs.Submit(r.Context(), r.Header.Get("X-User-ID"), mux.Vars(r)["id"], e)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		msg := "submission recorded"
		if res.Capped() {
			msg = "submission recorded with reduced points"
		}
		created(w, SubmissionResponse{Submission: sub, Score: res}, msg)
	}
}

func PreviewScore(subs services.SubmissionService, loc *time.Location, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := decodeEntry(w, r, loc)
		if !ok {
			return
		}
		res, err := subs.Preview(r.Context(), r.Header.Get("X-User-ID"), mux.Vars(r)["id"], e)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		success(w, res)
	}
}

func ListSubmissions(subs services.SubmissionService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feed, err := subs.Feed(r.Context(), r.Header.Get("X-User-ID"), mux.Vars(r)["id"])
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if feed == nil {
			feed = []models.Submission{}
		}
		success(w, feed)
	}
}

func DeleteSubmission(subs services.SubmissionService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := subs.Delete(r.Context(), r.Header.Get("X-User-ID"), mux.Vars(r)["id"]); err != nil {
			writeError(w, logger, err)
			return
		}
		message(w, "submission deleted")
	}
}

// UploadEvidence accepts a multipart form with an "image" file.
func UploadEvidence(subs services.SubmissionService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, evidence.MaxImageBytes+1<<20)
		if err := r.ParseMultipartForm(evidence.MaxImageBytes); err != nil {
			badRequest(w, "image must be a multipart upload under 8 MB")
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			badRequest(w, "image file is required")
			return
		}
		defer file.Close()

		body, _, err := evidence.SniffImage(file)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		sub, err := subs.AttachEvidence(r.Context(), r.Header.Get("X-User-ID"), mux.Vars(r)["id"], body, header.Filename)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		success(w, sub)
	}
}
