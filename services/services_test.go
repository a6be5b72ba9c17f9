package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitcomp/metrics"
	"fitcomp/models"
	"fitcomp/scoring"
)

// 2024-05-05 is a Sunday.
var start = time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	store    *memStore
	clock    *clock
	notifier *recordingNotifier
	comps    CompetitionService
	subs     SubmissionService
	boards   LeaderboardService
	comp     *models.Competition
}

func draft() models.Competition {
	return models.Competition{
		Name:      "May Move",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 28),
		DailyCap:  ptr(20.0),
		Rules: []models.CompetitionRule{
			{ActivityType: "Running", Unit: models.UnitKilometre, PointsPerUnit: 1, UnitsPerPoint: 1},
			{ActivityType: "Yoga", Unit: models.UnitMinute, PointsPerUnit: 1, UnitsPerPoint: 10,
				PerSubmissionCap: ptr(5.0), MaxSubmissionsPerDay: ptr(1)},
			{ActivityType: "Cycling", Unit: models.UnitKilometre, PointsPerUnit: 1, UnitsPerPoint: 5,
				MinPace: ptr(20.0), PaceUnit: "km/h"},
		},
	}
}

func newFixture(t *testing.T, mutate func(c *models.Competition)) *fixture {
	t.Helper()
	clk := &clock{t: start.Add(34 * time.Hour)}
	store := newMemStore(clk.Now)
	notifier := &recordingNotifier{}
	deps := Deps{
		Clock:    clk.Now,
		Metrics:  metrics.New(),
		Notifier: notifier,
		Uploader: fakeUploader{url: "https://cdn.example/"},
	}
	f := &fixture{
		store:    store,
		clock:    clk,
		notifier: notifier,
		comps:    NewCompetitionService(store, deps),
		subs:     NewSubmissionService(store, store, deps),
		boards:   NewLeaderboardService(store, store, deps),
	}
	d := draft()
	if mutate != nil {
		mutate(&d)
	}
	c, err := f.comps.Create(context.Background(), "alice", d)
	require.NoError(t, err)
	_, err = f.comps.Join(context.Background(), "bob", c.InviteCode)
	require.NoError(t, err)
	f.comp = c
	return f
}

func (f *fixture) entry(activity string, qty float64) models.ActivityEntry {
	return models.ActivityEntry{ActivityType: activity, Quantity: qty, Date: start.Add(32 * time.Hour)}
}

func TestCreateCompetitionAssignsIdentityAndJoinsOwner(t *testing.T) {
	f := newFixture(t, nil)
	assert.NotEmpty(t, f.comp.ID)
	assert.Len(t, f.comp.InviteCode, 8)
	assert.Equal(t, strings.ToUpper(f.comp.InviteCode), f.comp.InviteCode)
	assert.Equal(t, "alice", f.comp.OwnerID)

	ok, err := f.store.IsParticipant(context.Background(), f.comp.ID, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateCompetitionRejectsInvalidRules(t *testing.T) {
	f := newFixture(t, nil)
	d := draft()
	d.Rules[0].UnitsPerPoint = 0
	_, err := f.comps.Create(context.Background(), "alice", d)
	assert.ErrorIs(t, err, models.ErrInvalidCompetition)
}

func TestJoinIsIdempotentAndCaseInsensitive(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.comps.Join(ctx, "bob", strings.ToLower(f.comp.InviteCode))
	require.NoError(t, err)
	participants, err := f.store.ListParticipants(ctx, f.comp.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 2)

	_, err = f.comps.Join(ctx, "bob", "NOPE1234")
	assert.ErrorIs(t, err, ErrCompetitionNotFound)
	_, err = f.comps.Join(ctx, "bob", "  ")
	assert.ErrorIs(t, err, ErrCompetitionNotFound)
}

func TestGetAndListRequireMembership(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.comps.Get(ctx, "mallory", f.comp.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
	_, err = f.comps.Get(ctx, "bob", "missing")
	assert.ErrorIs(t, err, ErrCompetitionNotFound)

	list, err := f.comps.ListForUser(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.comp.ID, list[0].ID)

	list, err = f.comps.ListForUser(ctx, "mallory")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestVisibilityUsesClock(t *testing.T) {
	f := newFixture(t, func(c *models.Competition) { c.LeaderboardUpdateDays = 3 })
	st, err := f.comps.Visibility(context.Background(), "bob", f.comp.ID)
	require.NoError(t, err)
	assert.False(t, st.ShouldShowScores)
	assert.Equal(t, 0, st.CurrentCycle)
}

func TestSubmitAppliesDailyCapFromHistory(t *testing.T) {
	f := newFixture(t, nil)
	f.store.seed(models.Submission{
		ID: "earlier", CompetitionID: f.comp.ID, UserID: "alice", ActivityType: "Running",
		Points: 18, Date: start.Add(31 * time.Hour), CreatedAt: start.Add(31 * time.Hour),
	})

	sub, res, err := f.subs.Submit(context.Background(), "alice", f.comp.ID, f.entry("Running", 5))
	require.NoError(t, err)
	assert.Equal(t, 5.0, res.RawPoints)
	assert.Equal(t, 2.0, sub.Points)
	assert.Equal(t, []scoring.Cap{scoring.CapDaily}, res.CappedBy)
	assert.Equal(t, "Kilometre", sub.Unit)
	assert.Equal(t, f.clock.Now(), sub.CreatedAt)
	assert.Equal(t, []string{f.comp.ID, f.comp.ID}, f.notifier.changed)
}

func TestSubmitPerSubmissionCapAndDailyLimit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	sub, res, err := f.subs.Submit(ctx, "bob", f.comp.ID, f.entry("Yoga", 100))
	require.NoError(t, err)
	assert.Equal(t, 5.0, sub.Points)
	assert.Equal(t, []scoring.Cap{scoring.CapPerSubmission}, res.CappedBy)

	_, _, err = f.subs.Submit(ctx, "bob", f.comp.ID, f.entry("Yoga", 30))
	assert.ErrorIs(t, err, scoring.ErrLimitReached)

	all, err := f.store.ListSubmissions(ctx, f.comp.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSubmitPaceGate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	e := f.entry("Cycling", 40)
	_, _, err := f.subs.Submit(ctx, "bob", f.comp.ID, e)
	assert.ErrorIs(t, err, scoring.ErrPaceNotMet)

	e.Pace = ptr(18.0)
	_, _, err = f.subs.Submit(ctx, "bob", f.comp.ID, e)
	assert.ErrorIs(t, err, scoring.ErrPaceNotMet)

	e.Pace = ptr(25.0)
	sub, _, err := f.subs.Submit(ctx, "bob", f.comp.ID, e)
	require.NoError(t, err)
	assert.Equal(t, 8.0, sub.Points)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, _, err := f.subs.Submit(ctx, "bob", f.comp.ID, f.entry("Swimming", 1))
	assert.ErrorIs(t, err, scoring.ErrRuleNotFound)

	_, _, err = f.subs.Submit(ctx, "bob", f.comp.ID, f.entry("Running", 0))
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	e := f.entry("Running", 3)
	e.Date = start.AddDate(0, 0, -1)
	_, _, err = f.subs.Submit(ctx, "bob", f.comp.ID, e)
	assert.ErrorIs(t, err, ErrDateOutsideWindow)

	_, _, err = f.subs.Submit(ctx, "mallory", f.comp.ID, f.entry("Running", 3))
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestSubmitDefaultsDateToNow(t *testing.T) {
	f := newFixture(t, nil)
	e := f.entry("Running", 3)
	e.Date = time.Time{}
	sub, _, err := f.subs.Submit(context.Background(), "bob", f.comp.ID, e)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now(), sub.Date)
}

func TestPreviewDoesNotPersist(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res, err := f.subs.Preview(ctx, "bob", f.comp.ID, f.entry("Yoga", 100))
	require.NoError(t, err)
	assert.Equal(t, 5.0, res.Points)
	assert.True(t, res.Capped())

	all, err := f.store.ListSubmissions(ctx, f.comp.ID)
	require.NoError(t, err)
	assert.Empty(t, all)

	// still allowed since the preview stored nothing
	_, _, err = f.subs.Submit(ctx, "bob", f.comp.ID, f.entry("Yoga", 100))
	require.NoError(t, err)
}

func TestConcurrentSubmitsHonourDailyLimit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := f.subs.Submit(ctx, "bob", f.comp.ID, f.entry("Yoga", 20)); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, accepted)

	svc := f.subs.(*submissionService)
	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.locks)
}

func TestSubmitAcceptsWholeFirstAndLastDay(t *testing.T) {
	f := newFixture(t, func(c *models.Competition) {
		c.StartDate = start.Add(9 * time.Hour)
		c.EndDate = start.AddDate(0, 0, 28).Add(9 * time.Hour)
	})
	ctx := context.Background()

	for _, date := range []time.Time{start, start.AddDate(0, 0, 28).Add(20 * time.Hour)} {
		e := f.entry("Running", 3)
		e.Date = date
		_, _, err := f.subs.Submit(ctx, "bob", f.comp.ID, e)
		require.NoError(t, err, date)
	}

	for _, date := range []time.Time{start.Add(-time.Minute), start.AddDate(0, 0, 29)} {
		e := f.entry("Running", 3)
		e.Date = date
		_, _, err := f.subs.Submit(ctx, "bob", f.comp.ID, e)
		assert.ErrorIs(t, err, ErrDateOutsideWindow, date)
	}
}

func TestDeleteOwnerOnly(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sub, _, err := f.subs.Submit(ctx, "bob", f.comp.ID, f.entry("Running", 3))
	require.NoError(t, err)

	assert.ErrorIs(t, f.subs.Delete(ctx, "alice", sub.ID), ErrForbidden)
	require.NoError(t, f.subs.Delete(ctx, "bob", sub.ID))
	assert.ErrorIs(t, f.subs.Delete(ctx, "bob", sub.ID), ErrSubmissionNotFound)
}

func TestAttachEvidence(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sub, _, err := f.subs.Submit(ctx, "bob", f.comp.ID, f.entry("Running", 3))
	require.NoError(t, err)

	_, err = f.subs.AttachEvidence(ctx, "alice", sub.ID, strings.NewReader("img"), "run.jpg")
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := f.subs.AttachEvidence(ctx, "bob", sub.ID, strings.NewReader("img"), "run.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/"+sub.ID, updated.EvidenceURL)

	stored, err := f.store.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.EvidenceURL, stored.EvidenceURL)
}

func TestAttachEvidenceFailures(t *testing.T) {
	store := newMemStore(time.Now)
	svc := NewSubmissionService(store, store, Deps{})
	_, err := svc.AttachEvidence(context.Background(), "bob", "x", strings.NewReader("img"), "a.jpg")
	assert.ErrorIs(t, err, ErrEvidenceDisabled)

	store.seed(models.Submission{ID: "s1", UserID: "bob"})
	svc = NewSubmissionService(store, store, Deps{Uploader: fakeUploader{err: errUpload}})
	_, err = svc.AttachEvidence(context.Background(), "bob", "s1", strings.NewReader("img"), "a.jpg")
	assert.ErrorIs(t, err, errUpload)
}

func TestFeedHidesOthersUntilReveal(t *testing.T) {
	f := newFixture(t, func(c *models.Competition) { c.LeaderboardUpdateDays = 3 })
	ctx := context.Background()

	f.clock.Set(start.Add(24 * time.Hour))
	bobSub, _, err := f.subs.Submit(ctx, "bob", f.comp.ID, f.entry("Running", 4))
	require.NoError(t, err)
	f.clock.Set(start.Add(36 * time.Hour))
	aliceSub, _, err := f.subs.Submit(ctx, "alice", f.comp.ID, f.entry("Running", 2))
	require.NoError(t, err)

	feed, err := f.subs.Feed(ctx, "alice", f.comp.ID)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, aliceSub.ID, feed[0].ID)

	f.clock.Set(start.Add(72 * time.Hour))
	feed, err = f.subs.Feed(ctx, "alice", f.comp.ID)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, aliceSub.ID, feed[0].ID)
	assert.Equal(t, bobSub.ID, feed[1].ID)
}

func TestLeaderboardRanksAllParticipants(t *testing.T) {
	f := newFixture(t, func(c *models.Competition) { c.LeaderboardUpdateDays = 3 })
	ctx := context.Background()
	_, err := f.comps.Join(ctx, "carol", f.comp.InviteCode)
	require.NoError(t, err)

	f.clock.Set(start.Add(24 * time.Hour))
	_, _, err = f.subs.Submit(ctx, "bob", f.comp.ID, f.entry("Running", 6))
	require.NoError(t, err)
	_, _, err = f.subs.Submit(ctx, "alice", f.comp.ID, f.entry("Running", 2))
	require.NoError(t, err)

	board, err := f.boards.Leaderboard(ctx, "alice", f.comp.ID)
	require.NoError(t, err)
	require.Len(t, board.Entries, 3)
	assert.False(t, board.Status.ShouldShowScores)
	assert.Equal(t, "alice", board.Entries[0].UserID)
	assert.Equal(t, 2.0, board.Entries[0].Points)
	assert.True(t, board.Entries[0].IsSelf)
	assert.Equal(t, 0.0, board.Entries[1].Points)
	assert.Equal(t, 2, board.Entries[1].Rank)
	assert.Equal(t, 2, board.Entries[2].Rank)

	f.clock.Set(start.Add(72 * time.Hour))
	board, err = f.boards.Leaderboard(ctx, "alice", f.comp.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", board.Entries[0].UserID)
	assert.Equal(t, 6.0, board.Entries[0].Points)
	assert.Equal(t, "carol", board.Entries[2].UserID)
	assert.Equal(t, 3, board.Entries[2].Rank)

	_, err = f.boards.Leaderboard(ctx, "mallory", f.comp.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestRejectionReason(t *testing.T) {
	assert.Equal(t, "limit_reached", RejectionReason(scoring.ErrLimitReached))
	assert.Equal(t, "pace_not_met", RejectionReason(scoring.ErrPaceNotMet))
	assert.Equal(t, "date_outside_window", RejectionReason(ErrDateOutsideWindow))
	assert.Equal(t, "", RejectionReason(errUpload))
}
