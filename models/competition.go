// models/competition.go

package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidCompetition = errors.New("models: invalid competition")

// CompetitionRule defines how one activity type is scored inside a competition.
type CompetitionRule struct {
	ActivityType         string   `json:"activity_type"`
	IsCustom             bool     `json:"is_custom"`
	Unit                 Unit     `json:"unit"`
	CustomUnit           string   `json:"custom_unit,omitempty"`
	PointsPerUnit        float64  `json:"points_per_unit"`
	UnitsPerPoint        float64  `json:"units_per_point"`
	MaxSubmissionsPerDay *int     `json:"max_submissions_per_day,omitempty"`
	MaxPointsPerWeek     *float64 `json:"max_points_per_week,omitempty"`
	PerSubmissionCap     *float64 `json:"per_submission_cap,omitempty"`
	MinPace              *float64 `json:"min_pace,omitempty"`
	PaceUnit             string   `json:"pace_unit,omitempty"`
}

// UnitLabel returns the custom unit name for Custom rules and the unit otherwise.
func (r CompetitionRule) UnitLabel() string {
	if r.Unit == UnitCustom && r.CustomUnit != "" {
		return r.CustomUnit
	}
	return string(r.Unit)
}

type Competition struct {
	ID                    string            `json:"id"`
	Name                  string            `json:"name"`
	Description           string            `json:"description"`
	OwnerID               string            `json:"owner_id"`
	InviteCode            string            `json:"invite_code,omitempty"`
	StartDate             time.Time         `json:"start_date"`
	EndDate               time.Time         `json:"end_date"`
	DailyCap              *float64          `json:"daily_cap,omitempty"`
	LeaderboardUpdateDays int               `json:"leaderboard_update_days"`
	Rules                 []CompetitionRule `json:"rules"`
	CreatedAt             time.Time         `json:"created_at"`
}

// Rule looks up the rule for activityType. Matching is case-sensitive.
func (c *Competition) Rule(activityType string) (CompetitionRule, bool) {
	for _, r := range c.Rules {
		if r.ActivityType == activityType {
			return r, true
		}
	}
	return CompetitionRule{}, false
}

// LengthDays is the number of started 24h days between start and end.
func (c *Competition) LengthDays() int {
	span := c.EndDate.Sub(c.StartDate)
	if span <= 0 {
		return 0
	}
	days := span / (24 * time.Hour)
	if span%(24*time.Hour) != 0 {
		days++
	}
	return int(days)
}

// Validate checks the rule set a competition is created with. Rules are
// immutable afterwards so this only runs at creation time.
func (c *Competition) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name is required")
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return invalid("start and end dates are required")
	}
	if !c.StartDate.Before(c.EndDate) {
		return invalid("start date must be before end date")
	}
	if c.LeaderboardUpdateDays < 0 {
		return invalid("leaderboard update days must not be negative")
	}
	if c.LeaderboardUpdateDays > c.LengthDays() {
		return invalid(fmt.Sprintf("leaderboard update days must not exceed the competition length of %d days", c.LengthDays()))
	}
	if c.DailyCap != nil && *c.DailyCap <= 0 {
		return invalid("daily cap must be positive")
	}
	if len(c.Rules) == 0 {
		return invalid("at least one activity rule is required")
	}

	seen := make(map[string]struct{}, len(c.Rules))
	custom := make(map[string]struct{})
	for i, r := range c.Rules {
		name := strings.TrimSpace(r.ActivityType)
		if name == "" {
			return invalid(fmt.Sprintf("rule %d: activity type is required", i))
		}
		if _, dup := seen[r.ActivityType]; dup {
			return invalid(fmt.Sprintf("duplicate activity type %q", r.ActivityType))
		}
		seen[r.ActivityType] = struct{}{}
		if r.IsCustom {
			if _, dup := custom[name]; dup {
				return invalid(fmt.Sprintf("duplicate custom activity %q", name))
			}
			custom[name] = struct{}{}
		}
		if err := r.validate(); err != nil {
			return fmt.Errorf("%w: %s: %s", ErrInvalidCompetition, r.ActivityType, err.Error())
		}
	}
	return nil
}

func (r CompetitionRule) validate() error {
	if !r.Unit.Known() {
		return fmt.Errorf("unknown unit %q", r.Unit)
	}
	if r.Unit == UnitCustom && strings.TrimSpace(r.CustomUnit) == "" {
		return errors.New("custom unit name is required")
	}
	if r.PointsPerUnit <= 0 {
		return errors.New("points per unit must be positive")
	}
	if r.UnitsPerPoint <= 0 {
		return errors.New("units per point must be positive")
	}
	if r.MaxSubmissionsPerDay != nil && *r.MaxSubmissionsPerDay <= 0 {
		return errors.New("max submissions per day must be positive")
	}
	if r.MaxPointsPerWeek != nil && *r.MaxPointsPerWeek <= 0 {
		return errors.New("max points per week must be positive")
	}
	if r.PerSubmissionCap != nil && *r.PerSubmissionCap <= 0 {
		return errors.New("per submission cap must be positive")
	}
	if r.MinPace != nil {
		if *r.MinPace <= 0 {
			return errors.New("min pace must be positive")
		}
		if strings.TrimSpace(r.PaceUnit) == "" {
			return errors.New("pace unit is required with min pace")
		}
	}
	return nil
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidCompetition, reason)
}
