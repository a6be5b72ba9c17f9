// handlers/profile.go
package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"fitcomp/evidence"
	"fitcomp/services"
)

// AvatarUploader stores a profile picture and returns its URL.
type AvatarUploader interface {
	UploadAvatar(ctx context.Context, file io.Reader, userID string) (string, error)
}

type UpdateProfileRequest struct {
	FullName string `json:"fullname"`
}

type UpdateSecurityRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func GetMyProfile(users services.UserStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := users.GetUserByID(r.Context(), r.Header.Get("X-User-ID"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		success(w, user)
	}
}

func UpdateProfile(users services.UserStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateProfileRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid request body")
			return
		}
		name := strings.TrimSpace(req.FullName)
		if len(name) > 100 {
			fail(w, http.StatusUnprocessableEntity, "invalid_fullname", "full name must be at most 100 characters")
			return
		}
		if err := users.UpdateProfile(r.Context(), r.Header.Get("X-User-ID"), name); err != nil {
			writeError(w, logger, err)
			return
		}
		message(w, "profile updated")
	}
}

func UpdateSecurity(users services.UserStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateSecurityRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid request body")
			return
		}
		if len(req.NewPassword) < 8 {
			fail(w, http.StatusUnprocessableEntity, "invalid_password", "password must be at least 8 characters")
			return
		}

		user, err := users.GetUserByID(r.Context(), r.Header.Get("X-User-ID"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		// Mevcut şifreyi kontrol et
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
			fail(w, http.StatusUnauthorized, "invalid_credentials", "current password is incorrect")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if err := users.UpdatePassword(r.Context(), user.ID, string(hash)); err != nil {
			writeError(w, logger, err)
			return
		}
		logger.Info("password changed", "user_id", user.ID)
		message(w, "password updated")
	}
}

// UploadAvatar accepts a multipart form with an "avatar" file.
func UploadAvatar(users services.UserStore, avatars AvatarUploader, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if avatars == nil {
			writeError(w, logger, services.ErrEvidenceDisabled)
			return
		}
		userID := r.Header.Get("X-User-ID")

		r.Body = http.MaxBytesReader(w, r.Body, evidence.MaxImageBytes+1<<20)
		if err := r.ParseMultipartForm(evidence.MaxImageBytes); err != nil {
			badRequest(w, "avatar must be a multipart upload under 8 MB")
			return
		}
		file, _, err := r.FormFile("avatar")
		if err != nil {
			badRequest(w, "avatar file is required")
			return
		}
		defer file.Close()

		body, _, err := evidence.SniffImage(file)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		url, err := avatars.UploadAvatar(r.Context(), body, userID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if err := users.SetAvatar(r.Context(), userID, url); err != nil {
			writeError(w, logger, err)
			return
		}
		success(w, map[string]string{"avatar": url})
	}
}
