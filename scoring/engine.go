package scoring

import (
	"fmt"
	"math"

	"fitcomp/models"
)

// Cap identifies a scoring stage that reduced the awarded points.
type Cap string

const (
	CapPerSubmission Cap = "perSubmissionCap"
	CapWeekly        Cap = "weeklyCap"
	CapDaily         Cap = "dailyCap"
)

// ratioEpsilon absorbs float error in quantity/unitsPerPoint so that e.g.
// 0.3/0.1 floors to 3 and not 2.
const ratioEpsilon = 1e-9

// History holds aggregates over the user's other submissions in the same
// competition, taken for the candidate's calendar day and week.
type History struct {
	PointsToday      float64 `json:"points_today"`
	PointsThisWeek   float64 `json:"points_this_week"`
	SubmissionsToday int     `json:"submissions_today"`
}

// Result is the outcome of a successful scoring run.
type Result struct {
	RawPoints float64 `json:"raw_points"`
	Points    float64 `json:"points"`
	CappedBy  []Cap   `json:"capped_by"`
}

// Capped reports whether any cap reduced the award.
func (r Result) Capped() bool {
	return len(r.CappedBy) > 0
}

// Score computes the points for quantity under rule. Gates run first and
// reject the entry outright; caps afterwards only ever lower the value.
// dailyCap and pace may be nil.
func Score(rule models.CompetitionRule, quantity float64, hist History, dailyCap, pace *float64) (Result, error) {
	if rule.UnitsPerPoint <= 0 || math.IsNaN(rule.UnitsPerPoint) {
		return Result{}, fmt.Errorf("%w: %s: units per point must be positive", ErrInvalidRule, rule.ActivityType)
	}
	if rule.PointsPerUnit < 0 || math.IsNaN(rule.PointsPerUnit) {
		return Result{}, fmt.Errorf("%w: %s: points per unit must not be negative", ErrInvalidRule, rule.ActivityType)
	}

	if rule.MaxSubmissionsPerDay != nil && hist.SubmissionsToday >= *rule.MaxSubmissionsPerDay {
		return Result{}, fmt.Errorf("%w: %s allows %d per day", ErrLimitReached, rule.ActivityType, *rule.MaxSubmissionsPerDay)
	}

	if err := checkPace(rule, pace); err != nil {
		return Result{}, err
	}

	raw := RawPoints(rule, quantity)
	res := Result{RawPoints: raw, Points: raw, CappedBy: []Cap{}}

	if rule.PerSubmissionCap != nil {
		res.clamp(*rule.PerSubmissionCap, CapPerSubmission)
	}
	if rule.MaxPointsPerWeek != nil {
		res.clamp(remaining(*rule.MaxPointsPerWeek, hist.PointsThisWeek), CapWeekly)
	}
	if dailyCap != nil {
		res.clamp(remaining(*dailyCap, hist.PointsToday), CapDaily)
	}
	if res.Points < 0 {
		res.Points = 0
	}
	return res, nil
}

// ScoreActivity looks up the rule for activityType in c and scores it.
func ScoreActivity(c *models.Competition, activityType string, quantity float64, hist History, pace *float64) (Result, error) {
	rule, ok := c.Rule(activityType)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrRuleNotFound, activityType)
	}
	return Score(rule, quantity, hist, c.DailyCap, pace)
}

// RawPoints is floor(quantity / unitsPerPoint) * pointsPerUnit. Negative,
// NaN and infinite quantities count as zero.
func RawPoints(rule models.CompetitionRule, quantity float64) float64 {
	q := sanitize(quantity)
	if rule.UnitsPerPoint <= 0 {
		return 0
	}
	increments := math.Floor(q/rule.UnitsPerPoint + ratioEpsilon)
	return increments * rule.PointsPerUnit
}

func checkPace(rule models.CompetitionRule, pace *float64) error {
	if rule.MinPace == nil {
		return nil
	}
	if pace == nil || math.IsNaN(*pace) {
		return fmt.Errorf("%w: pace in %s is required", ErrPaceNotMet, rule.PaceUnit)
	}
	if models.IsSpeedPaceUnit(rule.PaceUnit) {
		if *pace < *rule.MinPace {
			return fmt.Errorf("%w: %.2f %s is below %.2f", ErrPaceNotMet, *pace, rule.PaceUnit, *rule.MinPace)
		}
		return nil
	}
	if *pace > *rule.MinPace {
		return fmt.Errorf("%w: %.2f %s is above %.2f", ErrPaceNotMet, *pace, rule.PaceUnit, *rule.MinPace)
	}
	return nil
}

func (r *Result) clamp(limit float64, c Cap) {
	if r.Points > limit {
		r.Points = limit
		r.CappedBy = append(r.CappedBy, c)
	}
}

func remaining(limit, used float64) float64 {
	return math.Max(0, limit-used)
}

func sanitize(q float64) float64 {
	if math.IsNaN(q) || math.IsInf(q, 0) || q < 0 {
		return 0
	}
	return q
}
