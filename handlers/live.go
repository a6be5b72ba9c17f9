// handlers/live.go
package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"fitcomp/live"
	"fitcomp/services"
)

// newUpgrader accepts same-origin requests and the configured browser
// origins.
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowed[origin] {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		},
	}
}

// LiveLeaderboard upgrades to a websocket that streams the caller's view of
// the leaderboard. Membership is checked before the upgrade so refusals are
// plain JSON errors.
func LiveLeaderboard(boards services.LeaderboardService, hub *live.Hub, allowedOrigins []string, logger *slog.Logger) http.HandlerFunc {
	upgrader := newUpgrader(allowedOrigins)
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		competitionID := mux.Vars(r)["id"]

		if _, err := boards.Leaderboard(r.Context(), userID, competitionID); err != nil {
			writeError(w, logger, err)
			return
		}

		// WebSocket bağlantısını yükselt
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "competition_id", competitionID, "error", err)
			return
		}
		hub.Attach(r.Context(), conn, userID, competitionID)
	}
}
