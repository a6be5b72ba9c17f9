// models/leaderboard.go

package models

type LeaderboardEntry struct {
	UserID      string  `json:"user_id"`
	Username    string  `json:"username"`
	Avatar      string  `json:"avatar"`
	Points      float64 `json:"points"`
	Rank        int     `json:"rank"`
	Submissions int     `json:"submissions"`
	IsSelf      bool    `json:"is_self"`
}

// Participant is a user enrolled in a competition.
type Participant struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}
