// handlers/router.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"fitcomp/live"
	"fitcomp/logging"
	"fitcomp/metrics"
	"fitcomp/middleware"
	"fitcomp/services"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	Competitions   services.CompetitionService
	Submissions    services.SubmissionService
	Leaderboards   services.LeaderboardService
	Users          services.UserStore
	Avatars        AvatarUploader
	Sessions       sessions.Store
	Auth           AuthSettings
	Hub            *live.Hub
	Location       *time.Location
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	DB             Pinger
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
}

func NewRouter(d Deps) *mux.Router {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	log := d.Logger

	r := mux.NewRouter()
	r.Use(middleware.Logger(log, d.Metrics))

	r.HandleFunc("/health", Health(d.DB)).Methods("GET")
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler()).Methods("GET")
	}

	// API Router
	api := r.PathPrefix("/api").Subrouter()
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.Middleware)
	}

	// Public API endpoints
	api.HandleFunc("/auth/register", Register(d.Users, log)).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", Login(d.Users, d.Sessions, d.Auth, log)).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/logout", Logout(d.Sessions)).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/refresh", RefreshToken(d.Auth, log)).Methods("POST", "OPTIONS")

	// Protected API endpoints
	protected := api.PathPrefix("/").Subrouter()
	protected.Use(middleware.Auth(d.Sessions, d.Auth.Secret))

	protected.HandleFunc("/user/profile", GetMyProfile(d.Users, log)).Methods("GET")
	protected.HandleFunc("/user/profile", UpdateProfile(d.Users, log)).Methods("PUT")
	protected.HandleFunc("/user/security", UpdateSecurity(d.Users, log)).Methods("PUT")
	protected.HandleFunc("/user/avatar", UploadAvatar(d.Users, d.Avatars, log)).Methods("POST")

	protected.HandleFunc("/competitions", ListCompetitions(d.Competitions, log)).Methods("GET")
	protected.HandleFunc("/competitions", CreateCompetition(d.Competitions, log)).Methods("POST")
	protected.HandleFunc("/competitions/join", JoinCompetition(d.Competitions, log)).Methods("POST")
	protected.HandleFunc("/competitions/{id}", GetCompetition(d.Competitions, log)).Methods("GET")
	protected.HandleFunc("/competitions/{id}/visibility", GetVisibility(d.Competitions, log)).Methods("GET")
	protected.HandleFunc("/competitions/{id}/leaderboard", GetLeaderboard(d.Leaderboards, log)).Methods("GET")
	protected.HandleFunc("/competitions/{id}/submissions", ListSubmissions(d.Submissions, log)).Methods("GET")
	protected.HandleFunc("/competitions/{id}/submissions", CreateSubmission(d.Submissions, d.Location, log)).Methods("POST")
	protected.HandleFunc("/competitions/{id}/score-preview", PreviewScore(d.Submissions, d.Location, log)).Methods("POST")
	protected.HandleFunc("/submissions/{id}", DeleteSubmission(d.Submissions, log)).Methods("DELETE")
	protected.HandleFunc("/submissions/{id}/evidence", UploadEvidence(d.Submissions, log)).Methods("POST")

	// WebSocket for live leaderboard
	if d.Hub != nil {
		protected.HandleFunc("/competitions/{id}/live", LiveLeaderboard(d.Leaderboards, d.Hub, d.AllowedOrigins, log)).Methods("GET")
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusNotFound, "not_found", "route not found")
	})
	return r
}
