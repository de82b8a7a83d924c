package main

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/marcus-crane/mediamon/config"
	"github.com/marcus-crane/mediamon/playback"
)

// SetupInBackground builds the scheduler for periodic work. The caller starts it.
func SetupInBackground(cfg config.Config, manager *playback.Manager) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	// Some players only announce timeline changes on seek, so the position drifts unless
	// it is re-read every so often.
	if interval := cfg.TimelineRefreshInterval(); interval > 0 {
		_, err := s.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(refreshTimeline, manager),
		)
		if err != nil {
			return nil, err
		}
		slog.Info("Timeline refresh enabled", slog.Duration("interval", interval))
	}

	return s, nil
}

func refreshTimeline(manager *playback.Manager) {
	if s := manager.Current(); s != nil {
		s.RefreshTimelineProperties()
	}
}
