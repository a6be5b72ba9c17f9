package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCompetition() Competition {
	start := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	return Competition{
		Name:      "January Step-Up",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 28),
		Rules: []CompetitionRule{
			{ActivityType: "Running", Unit: UnitKilometre, PointsPerUnit: 1, UnitsPerPoint: 1},
			{ActivityType: "Steps", Unit: UnitStep, PointsPerUnit: 1, UnitsPerPoint: 1000},
		},
	}
}

func TestCompetitionValidate(t *testing.T) {
	c := validCompetition()
	require.NoError(t, c.Validate())
}

func TestCompetitionValidateRejects(t *testing.T) {
	neg := -1.0
	zero := 0
	cases := map[string]func(c *Competition){
		"empty name":          func(c *Competition) { c.Name = "  " },
		"end before start":    func(c *Competition) { c.EndDate = c.StartDate.Add(-time.Hour) },
		"negative cadence":    func(c *Competition) { c.LeaderboardUpdateDays = -1 },
		"cadence past end":    func(c *Competition) { c.LeaderboardUpdateDays = 29 },
		"huge cadence":        func(c *Competition) { c.LeaderboardUpdateDays = 200000 },
		"non-positive cap":    func(c *Competition) { c.DailyCap = &neg },
		"no rules":            func(c *Competition) { c.Rules = nil },
		"duplicate activity":  func(c *Competition) { c.Rules[1].ActivityType = "Running" },
		"blank activity":      func(c *Competition) { c.Rules[0].ActivityType = " " },
		"unknown unit":        func(c *Competition) { c.Rules[0].Unit = "Furlong" },
		"custom unit missing": func(c *Competition) { c.Rules[0].Unit = UnitCustom },
		"zero units":          func(c *Competition) { c.Rules[0].UnitsPerPoint = 0 },
		"zero points":         func(c *Competition) { c.Rules[0].PointsPerUnit = 0 },
		"zero submissions":    func(c *Competition) { c.Rules[0].MaxSubmissionsPerDay = &zero },
		"pace without unit": func(c *Competition) {
			p := 6.0
			c.Rules[0].MinPace = &p
		},
		"duplicate custom": func(c *Competition) {
			c.Rules = append(c.Rules,
				CompetitionRule{ActivityType: "Climb", IsCustom: true, Unit: UnitSession, PointsPerUnit: 1, UnitsPerPoint: 1},
				CompetitionRule{ActivityType: "Climb ", IsCustom: true, Unit: UnitSession, PointsPerUnit: 1, UnitsPerPoint: 1},
			)
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validCompetition()
			mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidCompetition)
		})
	}
}

func TestCompetitionCadenceMayCoverWholeCompetition(t *testing.T) {
	c := validCompetition()
	c.LeaderboardUpdateDays = 28
	require.NoError(t, c.Validate())

	c.EndDate = c.EndDate.Add(time.Hour)
	assert.Equal(t, 29, c.LengthDays())
	c.LeaderboardUpdateDays = 29
	require.NoError(t, c.Validate())
}

func TestCompetitionRuleLookupIsCaseSensitive(t *testing.T) {
	c := validCompetition()
	_, ok := c.Rule("running")
	assert.False(t, ok)
	r, ok := c.Rule("Running")
	assert.True(t, ok)
	assert.Equal(t, UnitKilometre, r.Unit)
}

func TestCustomUnitLabel(t *testing.T) {
	r := CompetitionRule{Unit: UnitCustom, CustomUnit: "laps"}
	assert.Equal(t, "laps", r.UnitLabel())
	assert.Equal(t, "Rep", CompetitionRule{Unit: UnitRep}.UnitLabel())
}

func TestIsSpeedPaceUnit(t *testing.T) {
	assert.True(t, IsSpeedPaceUnit("km/h"))
	assert.True(t, IsSpeedPaceUnit(" MPH "))
	assert.True(t, IsSpeedPaceUnit("m/min"))
	assert.False(t, IsSpeedPaceUnit("min/km"))
	assert.False(t, IsSpeedPaceUnit("sec/100m"))
}
