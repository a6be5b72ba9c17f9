// Package visibility decides when competition scores are revealed.
//
// A competition with a positive LeaderboardUpdateDays reveals scores in
// arrears: what is logged during cycle k becomes visible to other
// participants once cycle k+1 begins. Every function takes the current time
// explicitly and keeps no state.
package visibility

import (
	"math"
	"time"

	"fitcomp/models"
)

const day = 24 * time.Hour

type State string

const (
	StateLive         State = "live"
	StateNotStarted   State = "not_started"
	StateEnded        State = "ended"
	StateCycleHidden  State = "cycle_hidden"
	StateCycleVisible State = "cycle_visible"
)

// Status is the reveal state of a competition at a given instant.
type Status struct {
	State            State      `json:"state"`
	ShouldShowScores bool       `json:"should_show_scores"`
	IsInHiddenPeriod bool       `json:"is_in_hidden_period"`
	CurrentCycle     int        `json:"current_cycle"`
	NextRevealDate   *time.Time `json:"next_reveal_date,omitempty"`
	DaysUntilReveal  int        `json:"days_until_reveal"`
}

// cycleStart returns the start of cycle k, or EndDate when that lies
// beyond the competition. Arithmetic stays in whole days so large cadences
// cannot overflow a Duration.
func cycleStart(c *models.Competition, k int) time.Time {
	if k <= 0 {
		return c.StartDate
	}
	totalDays := int64(c.EndDate.Sub(c.StartDate) / day)
	n := int64(c.LeaderboardUpdateDays)
	if int64(k) > totalDays/n {
		return c.EndDate
	}
	return clampToEnd(c, c.StartDate.Add(time.Duration(int64(k)*n)*day))
}

// Compute derives the reveal state of c at now.
func Compute(c *models.Competition, now time.Time) Status {
	if c.LeaderboardUpdateDays <= 0 {
		return Status{State: StateLive, ShouldShowScores: true}
	}
	if now.Before(c.StartDate) {
		next := cycleStart(c, 1)
		return Status{
			State:           StateNotStarted,
			NextRevealDate:  &next,
			DaysUntilReveal: daysUntil(now, next),
		}
	}
	if !now.Before(c.EndDate) {
		return Status{State: StateEnded, ShouldShowScores: true}
	}

	cycle := currentCycle(c, now)
	next := cycleStart(c, cycle+1)
	st := Status{
		CurrentCycle:     cycle,
		IsInHiddenPeriod: true,
		NextRevealDate:   &next,
		DaysUntilReveal:  daysUntil(now, next),
	}
	if cycle == 0 {
		st.State = StateCycleHidden
	} else {
		st.State = StateCycleVisible
		st.ShouldShowScores = true
	}
	return st
}

// CutoffDate returns the instant up to which (inclusive) other users'
// submissions count toward visible totals. Nil means nothing is withheld.
func CutoffDate(c *models.Competition, now time.Time) *time.Time {
	st := Compute(c, now)
	var cutoff time.Time
	switch st.State {
	case StateLive:
		return nil
	case StateEnded:
		cutoff = c.EndDate
	case StateNotStarted:
		cutoff = c.StartDate
	default:
		cutoff = cycleStart(c, st.CurrentCycle)
	}
	return &cutoff
}

// FilterVisible returns the submissions observer may see at now. Own
// submissions are always included; others only when created at or before
// the cutoff. After the competition ends nothing is withheld.
func FilterVisible(subs []models.Submission, c *models.Competition, observerID string, now time.Time) []models.Submission {
	out := make([]models.Submission, 0, len(subs))
	st := Compute(c, now)
	if st.State == StateLive || st.State == StateEnded {
		return append(out, subs...)
	}
	cutoff := CutoffDate(c, now)
	for _, s := range subs {
		if s.UserID == observerID || cutoff == nil || !s.CreatedAt.After(*cutoff) {
			out = append(out, s)
		}
	}
	return out
}

func currentCycle(c *models.Competition, now time.Time) int {
	elapsed := now.Sub(c.StartDate)
	if elapsed < 0 {
		return 0
	}
	return int(int64(elapsed/day) / int64(c.LeaderboardUpdateDays))
}

func clampToEnd(c *models.Competition, t time.Time) time.Time {
	if t.After(c.EndDate) {
		return c.EndDate
	}
	return t
}

func daysUntil(now, t time.Time) int {
	d := t.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}
