package services

import (
	"context"
	"fmt"
	"time"

	"fitcomp/models"
	"fitcomp/visibility"
)

// Board is the leaderboard as one observer sees it at a point in time.
type Board struct {
	CompetitionID string                    `json:"competition_id"`
	Status        visibility.Status         `json:"status"`
	Entries       []models.LeaderboardEntry `json:"entries"`
	GeneratedAt   time.Time                 `json:"generated_at"`
}

type LeaderboardService interface {
	Leaderboard(ctx context.Context, userID, competitionID string) (*Board, error)
}

type leaderboardService struct {
	competitions CompetitionStore
	submissions  SubmissionStore
	deps         Deps
}

func NewLeaderboardService(competitions CompetitionStore, submissions SubmissionStore, deps Deps) LeaderboardService {
	return &leaderboardService{
		competitions: competitions,
		submissions:  submissions,
		deps:         deps.withDefaults(),
	}
}

// Leaderboard ranks every participant by the points userID may see now.
func (s *leaderboardService) Leaderboard(ctx context.Context, userID, competitionID string) (*Board, error) {
	c, err := loadForParticipant(ctx, s.competitions, userID, competitionID)
	if err != nil {
		return nil, err
	}
	participants, err := s.competitions.ListParticipants(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	subs, err := s.submissions.ListSubmissions(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	now := s.deps.Clock()
	return &Board{
		CompetitionID: competitionID,
		Status:        visibility.Compute(c, now),
		Entries:       visibility.Leaderboard(participants, subs, c, userID, now),
		GeneratedAt:   now,
	}, nil
}
