// handlers/competitions.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"fitcomp/models"
	"fitcomp/services"
)

type JoinRequest struct {
	InviteCode string `json:"invite_code"`
}

func ListCompetitions(comps services.CompetitionService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := comps.ListForUser(r.Context(), r.Header.Get("X-User-ID"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		success(w, list)
	}
}

func CreateCompetition(comps services.CompetitionService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft models.Competition
		if err := decode(r, &draft); err != nil {
			badRequest(w, "invalid request body")
			return
		}
		c, err := comps.Create(r.Context(), r.Header.Get("X-User-ID"), draft)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		created(w, c, "competition created")
	}
}

func GetCompetition(comps services.CompetitionService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := comps.Get(r.Context(), r.Header.Get("X-User-ID"), mux.Vars(r)["id"])
		if err != nil {
			writeError(w, logger, err)
			return
		}
		success(w, c)
	}
}

func JoinCompetition(comps services.CompetitionService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRequest
		if err := decode(r, &req); err != nil || req.InviteCode == "" {
			badRequest(w, "invite_code is required")
			return
		}
		c, err := comps.Join(r.Context(), r.Header.Get("X-User-ID"), req.InviteCode)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		success(w, c)
	}
}

func GetVisibility(comps services.CompetitionService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := comps.Visibility(r.Context(), r.Header.Get("X-User-ID"), mux.Vars(r)["id"])
		if err != nil {
			writeError(w, logger, err)
			return
		}
		success(w, st)
	}
}
