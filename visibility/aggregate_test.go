package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitcomp/models"
)

func TestTotals(t *testing.T) {
	subs := []models.Submission{
		sub("a", "alice", at(1), 5),
		sub("b", "alice", at(2), 2.5),
		sub("c", "bob", at(1), 4),
	}
	assert.Equal(t, map[string]float64{"alice": 7.5, "bob": 4}, Totals(subs))
}

func TestRankTiesShareRank(t *testing.T) {
	participants := []models.Participant{
		{UserID: "alice", Username: "alice"},
		{UserID: "bob", Username: "bob"},
		{UserID: "carol", Username: "carol"},
		{UserID: "dave", Username: "dave"},
	}
	visible := []models.Submission{
		sub("1", "alice", at(1), 10),
		sub("2", "bob", at(1), 10),
		sub("3", "carol", at(1), 4),
	}

	entries := Rank(participants, visible, "carol")
	require.Len(t, entries, 4)
	assert.Equal(t, "alice", entries[0].UserID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "bob", entries[1].UserID)
	assert.Equal(t, 1, entries[1].Rank)
	assert.Equal(t, "carol", entries[2].UserID)
	assert.Equal(t, 3, entries[2].Rank)
	assert.True(t, entries[2].IsSelf)
	assert.Equal(t, "dave", entries[3].UserID)
	assert.Equal(t, 0.0, entries[3].Points)
	assert.Equal(t, 4, entries[3].Rank)
}

func TestLeaderboardUsesFilteredSet(t *testing.T) {
	c := delayed(3)
	participants := []models.Participant{
		{UserID: "alice", Username: "alice"},
		{UserID: "bob", Username: "bob"},
	}
	subs := []models.Submission{
		sub("a1", "alice", at(0.5), 3),
		sub("b1", "bob", at(1), 8),
	}

	entries := Leaderboard(participants, subs, c, "alice", at(2))
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].UserID)
	assert.Equal(t, 3.0, entries[0].Points)
	assert.Equal(t, 0.0, entries[1].Points)

	entries = Leaderboard(participants, subs, c, "alice", at(3))
	assert.Equal(t, "bob", entries[0].UserID)
	assert.Equal(t, 8.0, entries[0].Points)
}
