package services

import (
	"context"
	"io"
	"time"

	"fitcomp/models"
	"fitcomp/scoring"
)

// CompetitionStore persists competitions and their participants. Get
// methods return ErrCompetitionNotFound for unknown ids or codes.
type CompetitionStore interface {
	CreateCompetition(ctx context.Context, c *models.Competition) error
	GetCompetition(ctx context.Context, id string) (*models.Competition, error)
	GetCompetitionByInviteCode(ctx context.Context, code string) (*models.Competition, error)
	ListCompetitionsForUser(ctx context.Context, userID string) ([]models.Competition, error)
	AddParticipant(ctx context.Context, competitionID, userID string) error
	IsParticipant(ctx context.Context, competitionID, userID string) (bool, error)
	ListParticipants(ctx context.Context, competitionID string) ([]models.Participant, error)
}

// SubmissionStore persists submissions. CreateSubmission assigns CreatedAt.
type SubmissionStore interface {
	// SubmissionHistory aggregates the user's submissions inside w. Day
	// points span all activities; week points and the day count only
	// activityType. excludeID is skipped when non-empty.
	SubmissionHistory(ctx context.Context, competitionID, userID, activityType string, w scoring.Window, excludeID string) (scoring.History, error)
	CreateSubmission(ctx context.Context, s *models.Submission) error
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
	DeleteSubmission(ctx context.Context, id string) error
	ListSubmissions(ctx context.Context, competitionID string) ([]models.Submission, error)
	SetEvidenceURL(ctx context.Context, id, url string) error
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	UpdateProfile(ctx context.Context, id, fullName string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetAvatar(ctx context.Context, id, url string) error
}

// Notifier is told when a competition's submissions change.
type Notifier interface {
	CompetitionChanged(competitionID string)
}

// Uploader stores an evidence image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, name string) (string, error)
}
