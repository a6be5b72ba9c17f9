package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"fitcomp/models"
	"fitcomp/visibility"
)

type CompetitionService interface {
	Create(ctx context.Context, ownerID string, draft models.Competition) (*models.Competition, error)
	Join(ctx context.Context, userID, inviteCode string) (*models.Competition, error)
	ListForUser(ctx context.Context, userID string) ([]models.Competition, error)
	Get(ctx context.Context, userID, competitionID string) (*models.Competition, error)
	Visibility(ctx context.Context, userID, competitionID string) (visibility.Status, error)
}

type competitionService struct {
	competitions CompetitionStore
	deps         Deps
}

func NewCompetitionService(competitions CompetitionStore, deps Deps) CompetitionService {
	return &competitionService{
		competitions: competitions,
		deps:         deps.withDefaults(),
	}
}

func (s *competitionService) Create(ctx context.Context, ownerID string, draft models.Competition) (*models.Competition, error) {
	c := draft
	c.ID = uuid.NewString()
	c.OwnerID = ownerID
	c.InviteCode = newInviteCode()
	c.Name = strings.TrimSpace(c.Name)
	for i := range c.Rules {
		if c.Rules[i].IsCustom {
			c.Rules[i].ActivityType = strings.TrimSpace(c.Rules[i].ActivityType)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.competitions.CreateCompetition(ctx, &c); err != nil {
		return nil, fmt.Errorf("create competition: %w", err)
	}
	if err := s.competitions.AddParticipant(ctx, c.ID, ownerID); err != nil {
		return nil, fmt.Errorf("join owner: %w", err)
	}

	s.deps.Logger.Info("competition created",
		"competition_id", c.ID,
		"owner_id", ownerID,
		"rules", len(c.Rules),
		"leaderboard_update_days", c.LeaderboardUpdateDays,
	)
	return &c, nil
}

// Join enrolls userID via invite code. Joining twice is a no-op.
func (s *competitionService) Join(ctx context.Context, userID, inviteCode string) (*models.Competition, error) {
	code := strings.ToUpper(strings.TrimSpace(inviteCode))
	if code == "" {
		return nil, ErrCompetitionNotFound
	}
	c, err := s.competitions.GetCompetitionByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.competitions.AddParticipant(ctx, c.ID, userID); err != nil {
		return nil, fmt.Errorf("add participant: %w", err)
	}
	s.deps.Logger.Info("competition joined", "competition_id", c.ID, "user_id", userID)
	s.deps.notify(c.ID)
	return c, nil
}

func (s *competitionService) ListForUser(ctx context.Context, userID string) ([]models.Competition, error) {
	list, err := s.competitions.ListCompetitionsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	if list == nil {
		list = []models.Competition{}
	}
	return list, nil
}

func (s *competitionService) Get(ctx context.Context, userID, competitionID string) (*models.Competition, error) {
	return loadForParticipant(ctx, s.competitions, userID, competitionID)
}

func (s *competitionService) Visibility(ctx context.Context, userID, competitionID string) (visibility.Status, error) {
	c, err := loadForParticipant(ctx, s.competitions, userID, competitionID)
	if err != nil {
		return visibility.Status{}, err
	}
	return visibility.Compute(c, s.deps.Clock()), nil
}

// loadForParticipant fetches the competition and checks that userID has
// joined it.
func loadForParticipant(ctx context.Context, store CompetitionStore, userID, competitionID string) (*models.Competition, error) {
	c, err := store.GetCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	ok, err := store.IsParticipant(ctx, competitionID, userID)
	if err != nil {
		return nil, fmt.Errorf("check participant: %w", err)
	}
	if !ok {
		return nil, ErrNotParticipant
	}
	return c, nil
}

func newInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
