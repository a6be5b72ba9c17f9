package scoring

import (
	"time"

	"fitcomp/models"
)

// Window is the pair of half-open ranges used to aggregate a candidate's
// history: its calendar day and its Sunday-start calendar week.
type Window struct {
	DayStart  time.Time
	DayEnd    time.Time
	WeekStart time.Time
	WeekEnd   time.Time
}

// WindowFor returns the day and week containing date, as seen in loc.
// Weeks are not prorated when a competition starts or ends mid-week.
func WindowFor(date time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	d := date.In(loc)
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	week := day.AddDate(0, 0, -int(day.Weekday()))
	return Window{
		DayStart:  day,
		DayEnd:    day.AddDate(0, 0, 1),
		WeekStart: week,
		WeekEnd:   week.AddDate(0, 0, 7),
	}
}

func (w Window) inDay(t time.Time) bool {
	return !t.Before(w.DayStart) && t.Before(w.DayEnd)
}

func (w Window) inWeek(t time.Time) bool {
	return !t.Before(w.WeekStart) && t.Before(w.WeekEnd)
}

// BuildHistory aggregates subs inside w for the owner of candidate,
// skipping the candidate itself when it already has an id. Submissions of
// other users or other competitions are ignored.
func BuildHistory(subs []models.Submission, candidate models.Submission, w Window) History {
	var h History
	for _, s := range subs {
		if s.UserID != candidate.UserID || s.CompetitionID != candidate.CompetitionID {
			continue
		}
		if candidate.ID != "" && s.ID == candidate.ID {
			continue
		}
		if w.inDay(s.Date) {
			h.PointsToday += s.Points
			if s.ActivityType == candidate.ActivityType {
				h.SubmissionsToday++
			}
		}
		if s.ActivityType == candidate.ActivityType && w.inWeek(s.Date) {
			h.PointsThisWeek += s.Points
		}
	}
	return h
}
