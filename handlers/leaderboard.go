// handlers/leaderboard.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"fitcomp/services"
)

func GetLeaderboard(boards services.LeaderboardService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		board, err := boards.Leaderboard(r.Context(), r.Header.Get("X-User-ID"), mux.Vars(r)["id"])
		if err != nil {
			writeError(w, logger, err)
			return
		}
		success(w, board)
	}
}
