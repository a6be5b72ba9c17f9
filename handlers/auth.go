// handlers/auth.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"fitcomp/middleware"
	"fitcomp/models"
	"fitcomp/services"
)

// AuthSettings configures token issuing.
type AuthSettings struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func (a AuthSettings) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullname"`
}

func Login(users services.UserStore, store sessions.Store, auth AuthSettings, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid request body")
			return
		}

		user, err := users.GetUserByLogin(r.Context(), strings.TrimSpace(req.Username))
		if err != nil && !errors.Is(err, services.ErrUserNotFound) {
			writeError(w, logger, err)
			return
		}
		// Şifre kontrolü
		if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
			return
		}

		now := auth.now()
		token, err := middleware.IssueToken(auth.Secret, user.ID, user.Username, auth.TTL, now)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		// Session oluştur
		session, _ := store.Get(r, middleware.SessionName)
		session.Values["authenticated"] = true
		session.Values["user_id"] = user.ID
		session.Values["username"] = user.Username
		session.Options.HttpOnly = true
		session.Options.SameSite = http.SameSiteLaxMode
		if req.Remember {
			session.Options.MaxAge = 86400 * 30
		} else {
			session.Options.MaxAge = 86400
		}
		if err := session.Save(r, w); err != nil {
			writeError(w, logger, err)
			return
		}

		if err := users.TouchLastLogin(r.Context(), user.ID, now); err != nil {
			logger.Warn("last login update failed", "user_id", user.ID, "error", err)
		}
		user.LastLogin = &now

		success(w, LoginResponse{Token: token, User: user})
	}
}

func Register(users services.UserStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid request body")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(req.Email)

		// Validasyonlar
		if len(req.Username) < 3 || len(req.Username) > 20 {
			fail(w, http.StatusUnprocessableEntity, "invalid_username", "username must be 3-20 characters")
			return
		}
		if len(req.Password) < 8 {
			fail(w, http.StatusUnprocessableEntity, "invalid_password", "password must be at least 8 characters")
			return
		}
		if _, err := mail.ParseAddress(req.Email); err != nil {
			fail(w, http.StatusUnprocessableEntity, "invalid_email", "a valid email address is required")
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		user := &models.User{
			ID:           uuid.NewString(),
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: string(hashed),
			FullName:     strings.TrimSpace(req.FullName),
		}
		if err := users.CreateUser(r.Context(), user); err != nil {
			writeError(w, logger, err)
			return
		}

		logger.Info("user registered", "user_id", user.ID)
		created(w, user, "registered")
	}
}

func Logout(store sessions.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := store.Get(r, middleware.SessionName)
		session.Values["authenticated"] = false
		session.Options.MaxAge = -1
		session.Save(r, w)

		message(w, "logged out")
	}
}

// RefreshToken exchanges a still valid bearer token for a fresh one.
func RefreshToken(auth AuthSettings, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token string `json:"token"`
		}
		if err := decode(r, &req); err != nil || req.Token == "" {
			badRequest(w, "token is required")
			return
		}

		claims, err := middleware.ParseToken(auth.Secret, req.Token)
		if err != nil {
			fail(w, http.StatusUnauthorized, "invalid_token", "invalid token")
			return
		}

		token, err := middleware.IssueToken(auth.Secret, claims.UserID, claims.Username, auth.TTL, auth.now())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		success(w, map[string]string{"token": token})
	}
}
