package services

import (
	"log/slog"
	"time"

	"fitcomp/logging"
	"fitcomp/metrics"
)

// Deps carries the collaborators shared by every service. Zero values are
// usable: UTC windows, the wall clock, a discarding logger.
type Deps struct {
	Location *time.Location
	Clock    func() time.Time
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Notifier Notifier
	Uploader Uploader
}

func (d Deps) withDefaults() Deps {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	return d
}

func (d Deps) notify(competitionID string) {
	if d.Notifier != nil {
		d.Notifier.CompetitionChanged(competitionID)
	}
}
