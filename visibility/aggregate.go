package visibility

import (
	"sort"
	"time"

	"fitcomp/models"
)

// Totals sums points per user over subs.
func Totals(subs []models.Submission) map[string]float64 {
	totals := make(map[string]float64)
	for _, s := range subs {
		totals[s.UserID] += s.Points
	}
	return totals
}

// Leaderboard filters subs for observer and ranks every participant by their
// visible total. Users with visible submissions who are not in participants
// are ranked too.
func Leaderboard(participants []models.Participant, subs []models.Submission, c *models.Competition, observerID string, now time.Time) []models.LeaderboardEntry {
	visible := FilterVisible(subs, c, observerID, now)
	return Rank(participants, visible, observerID)
}

// Rank builds leaderboard entries from an already filtered submission set.
// Ties share a rank and the next rank skips (1, 1, 3).
func Rank(participants []models.Participant, visible []models.Submission, observerID string) []models.LeaderboardEntry {
	byUser := make(map[string]*models.LeaderboardEntry, len(participants))
	for _, p := range participants {
		byUser[p.UserID] = &models.LeaderboardEntry{
			UserID:   p.UserID,
			Username: p.Username,
			Avatar:   p.Avatar,
		}
	}
	for _, s := range visible {
		e, ok := byUser[s.UserID]
		if !ok {
			e = &models.LeaderboardEntry{UserID: s.UserID, Username: s.Username}
			byUser[s.UserID] = e
		}
		e.Submissions++
	}

	totals := Totals(visible)
	entries := make([]models.LeaderboardEntry, 0, len(byUser))
	for _, e := range byUser {
		e.Points = totals[e.UserID]
		e.IsSelf = e.UserID == observerID
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		if entries[i].Username != entries[j].Username {
			return entries[i].Username < entries[j].Username
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		if i > 0 && entries[i].Points == entries[i-1].Points {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}
	return entries
}
