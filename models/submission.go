// models/submission.go

package models

import "time"

// Submission is one logged activity. Points is always the final capped award.
// Date is chosen by the submitter and drives cap windows; CreatedAt is set by
// the store on insert and drives leaderboard reveal cutoffs.
type Submission struct {
	ID            string    `json:"id"`
	CompetitionID string    `json:"competition_id"`
	UserID        string    `json:"user_id"`
	Username      string    `json:"username,omitempty"`
	ActivityType  string    `json:"activity_type"`
	Unit          string    `json:"unit"`
	Quantity      float64   `json:"quantity"`
	Pace          *float64  `json:"pace,omitempty"`
	Points        float64   `json:"points"`
	Notes         string    `json:"notes,omitempty"`
	EvidenceURL   string    `json:"evidence_url,omitempty"`
	Date          time.Time `json:"date"`
	CreatedAt     time.Time `json:"created_at"`
}

// ActivityEntry is a candidate submission as sent by the submission form.
type ActivityEntry struct {
	ActivityType string    `json:"activity_type"`
	Quantity     float64   `json:"quantity"`
	Pace         *float64  `json:"pace,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Date         time.Time `json:"date"`
}
