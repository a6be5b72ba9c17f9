package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"fitcomp/models"
	"fitcomp/scoring"
	"fitcomp/visibility"
)

type SubmissionService interface {
	Preview(ctx context.Context, userID, competitionID string, entry models.ActivityEntry) (scoring.Result, error)
	Submit(ctx context.Context, userID, competitionID string, entry models.ActivityEntry) (*models.Submission, scoring.Result, error)
	Delete(ctx context.Context, userID, submissionID string) error
	AttachEvidence(ctx context.Context, userID, submissionID string, image io.Reader, filename string) (*models.Submission, error)
	Feed(ctx context.Context, userID, competitionID string) ([]models.Submission, error)
}

type submissionService struct {
	competitions CompetitionStore
	submissions  SubmissionStore
	deps         Deps

	mu    sync.Mutex
	locks map[string]*userLock
}

// userLock is dropped from the map once nobody holds or waits for it.
type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewSubmissionService(competitions CompetitionStore, submissions SubmissionStore, deps Deps) SubmissionService {
	return &submissionService{
		competitions: competitions,
		submissions:  submissions,
		deps:         deps.withDefaults(),
		locks:        make(map[string]*userLock),
	}
}

// scored is a candidate that passed every gate.
type scored struct {
	competition *models.Competition
	rule        models.CompetitionRule
	entry       models.ActivityEntry
	result      scoring.Result
}

func (s *submissionService) Preview(ctx context.Context, userID, competitionID string, entry models.ActivityEntry) (scoring.Result, error) {
	sc, err := s.score(ctx, userID, competitionID, entry)
	if err != nil {
		return scoring.Result{}, err
	}
	return sc.result, nil
}

func (s *submissionService) Submit(ctx context.Context, userID, competitionID string, entry models.ActivityEntry) (*models.Submission, scoring.Result, error) {
	// History read and insert must not interleave for the same user.
	unlock := s.lock(competitionID + "/" + userID)
	defer unlock()

	sc, err := s.score(ctx, userID, competitionID, entry)
	if err != nil {
		s.reject(err, userID, competitionID, entry.ActivityType)
		return nil, scoring.Result{}, err
	}

	sub := &models.Submission{
		ID:            uuid.NewString(),
		CompetitionID: competitionID,
		UserID:        userID,
		ActivityType:  sc.rule.ActivityType,
		Unit:          sc.rule.UnitLabel(),
		Quantity:      sc.entry.Quantity,
		Pace:          sc.entry.Pace,
		Points:        sc.result.Points,
		Notes:         strings.TrimSpace(sc.entry.Notes),
		Date:          sc.entry.Date,
	}
	if err := s.submissions.CreateSubmission(ctx, sub); err != nil {
		s.deps.Logger.Error("submission insert failed",
			"competition_id", competitionID,
			"user_id", userID,
			"activity_type", entry.ActivityType,
			"error", err,
		)
		return nil, scoring.Result{}, fmt.Errorf("create submission: %w", err)
	}

	caps := make([]string, 0, len(sc.result.CappedBy))
	for _, c := range sc.result.CappedBy {
		caps = append(caps, string(c))
	}
	s.deps.Metrics.ObserveSubmission(sub.ActivityType, sub.Points, caps)
	s.deps.Logger.Info("submission scored",
		"submission_id", sub.ID,
		"competition_id", competitionID,
		"user_id", userID,
		"activity_type", sub.ActivityType,
		"raw_points", sc.result.RawPoints,
		"points", sub.Points,
		"capped_by", caps,
	)
	s.deps.notify(competitionID)
	return sub, sc.result, nil
}

func (s *submissionService) score(ctx context.Context, userID, competitionID string, entry models.ActivityEntry) (scored, error) {
	c, err := loadForParticipant(ctx, s.competitions, userID, competitionID)
	if err != nil {
		return scored{}, err
	}

	if math.IsNaN(entry.Quantity) || math.IsInf(entry.Quantity, 0) || entry.Quantity <= 0 {
		return scored{}, ErrInvalidQuantity
	}
	if entry.Date.IsZero() {
		entry.Date = s.deps.Clock()
	}

	// Date is the calendar day the activity happened, so compare whole days.
	window := scoring.WindowFor(entry.Date, s.deps.Location)
	if !window.DayEnd.After(c.StartDate) || window.DayStart.After(c.EndDate) {
		loc := s.deps.Location
		return scored{}, fmt.Errorf("%w: %s not in [%s, %s]", ErrDateOutsideWindow,
			window.DayStart.Format("2006-01-02"),
			c.StartDate.In(loc).Format("2006-01-02"),
			c.EndDate.In(loc).Format("2006-01-02"))
	}

	hist, err := s.submissions.SubmissionHistory(ctx, competitionID, userID, entry.ActivityType, window, "")
	if err != nil {
		return scored{}, fmt.Errorf("load history: %w", err)
	}

	res, err := scoring.ScoreActivity(c, entry.ActivityType, entry.Quantity, hist, entry.Pace)
	if err != nil {
		return scored{}, err
	}
	rule, _ := c.Rule(entry.ActivityType)
	return scored{competition: c, rule: rule, entry: entry, result: res}, nil
}

func (s *submissionService) Delete(ctx context.Context, userID, submissionID string) error {
	sub, err := s.owned(ctx, userID, submissionID)
	if err != nil {
		return err
	}
	if err := s.submissions.DeleteSubmission(ctx, submissionID); err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	s.deps.Logger.Info("submission deleted",
		"submission_id", submissionID,
		"competition_id", sub.CompetitionID,
		"user_id", userID,
	)
	s.deps.notify(sub.CompetitionID)
	return nil
}

func (s *submissionService) AttachEvidence(ctx context.Context, userID, submissionID string, image io.Reader, filename string) (*models.Submission, error) {
	if s.deps.Uploader == nil {
		return nil, ErrEvidenceDisabled
	}
	sub, err := s.owned(ctx, userID, submissionID)
	if err != nil {
		return nil, err
	}
	url, err := s.deps.Uploader.Upload(ctx, image, sub.ID)
	if err != nil {
		s.deps.Logger.Error("evidence upload failed", "submission_id", sub.ID, "file", filename, "error", err)
		return nil, fmt.Errorf("upload evidence: %w", err)
	}
	if err := s.submissions.SetEvidenceURL(ctx, sub.ID, url); err != nil {
		return nil, fmt.Errorf("store evidence url: %w", err)
	}
	sub.EvidenceURL = url
	return sub, nil
}

// Feed returns the submissions userID may currently see, newest first.
func (s *submissionService) Feed(ctx context.Context, userID, competitionID string) ([]models.Submission, error) {
	c, err := loadForParticipant(ctx, s.competitions, userID, competitionID)
	if err != nil {
		return nil, err
	}
	all, err := s.submissions.ListSubmissions(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	visible := visibility.FilterVisible(all, c, userID, s.deps.Clock())
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].CreatedAt.After(visible[j].CreatedAt)
	})
	return visible, nil
}

func (s *submissionService) owned(ctx context.Context, userID, submissionID string) (*models.Submission, error) {
	sub, err := s.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, ErrForbidden
	}
	return sub, nil
}

func (s *submissionService) lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &userLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

func (s *submissionService) reject(err error, userID, competitionID, activityType string) {
	reason := RejectionReason(err)
	if reason == "" {
		s.deps.Logger.Error("submission failed",
			"competition_id", competitionID,
			"user_id", userID,
			"activity_type", activityType,
			"error", err,
		)
		return
	}
	s.deps.Metrics.ObserveRejection(reason)
	s.deps.Logger.Info("submission rejected",
		"competition_id", competitionID,
		"user_id", userID,
		"activity_type", activityType,
		"reason", reason,
	)
}

// RejectionReason names the gate or validation that refused a submission,
// or returns "" for infrastructure failures.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, scoring.ErrLimitReached):
		return "limit_reached"
	case errors.Is(err, scoring.ErrPaceNotMet):
		return "pace_not_met"
	case errors.Is(err, scoring.ErrRuleNotFound):
		return "rule_not_found"
	case errors.Is(err, scoring.ErrInvalidRule):
		return "invalid_rule"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrDateOutsideWindow):
		return "date_outside_window"
	case errors.Is(err, ErrNotParticipant):
		return "not_participant"
	case errors.Is(err, ErrCompetitionNotFound):
		return "competition_not_found"
	}
	return ""
}
