package playback

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/marcus-crane/mediamon/events"
	"github.com/marcus-crane/mediamon/mediactl"
	"github.com/marcus-crane/mediamon/models"
	"github.com/marcus-crane/mediamon/thumbnail"
)

type sessionDeps struct {
	appID      string
	bus        events.Publisher
	thumbnails *thumbnail.Pipeline
	audio      mediactl.AudioSessions
	namer      mediactl.ProcessNamer
}

// Session is one attached OS media session. OS notifications are queued and handled on the
// session's own goroutine, and every event it produces goes onto the bus until it is
// detached. Nothing is published after Disconnect.
type Session struct {
	appID      string
	controls   mediactl.Session
	bus        events.Publisher
	thumbnails *thumbnail.Pipeline
	log        *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	jobs   *jobQueue
	volume *volumeBridge

	mediaToken    mediactl.Token
	playbackToken mediactl.Token
	timelineToken mediactl.Token

	pubMu    sync.Mutex
	detached bool

	detachOnce sync.Once
}

func newSession(parent context.Context, controls mediactl.Session, deps sessionDeps) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		appID:      deps.appID,
		controls:   controls,
		bus:        deps.bus,
		thumbnails: deps.thumbnails,
		log:        slog.With(slog.String("app_id", deps.appID)),
		ctx:        ctx,
		cancel:     cancel,
		jobs:       newJobQueue(),
	}
	s.volume = newVolumeBridge(deps.appID, deps.audio, deps.namer, s.publish, s.log)
	return s
}

func (s *Session) AppID() string {
	return s.appID
}

// attach seeds playback and timeline state, registers for all three notifications and
// announces the session. A failed registration rolls back the ones that succeeded.
func (s *Session) attach() error {
	s.jobs.push(jobPlaybackInfo)
	s.jobs.push(jobTimelineProperties)

	var err error
	s.playbackToken, err = s.controls.OnPlaybackInfoChanged(func() { s.jobs.push(jobPlaybackInfo) })
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to register playback info handler: %w", err)
	}
	s.timelineToken, err = s.controls.OnTimelinePropertiesChanged(func() { s.jobs.push(jobTimelineProperties) })
	if err != nil {
		s.unregister()
		s.cancel()
		return fmt.Errorf("failed to register timeline handler: %w", err)
	}
	s.mediaToken, err = s.controls.OnMediaPropertiesChanged(func() { s.jobs.push(jobMediaProperties) })
	if err != nil {
		s.unregister()
		s.cancel()
		return fmt.Errorf("failed to register media properties handler: %w", err)
	}

	s.publish(events.Connect{AppID: s.appID})
	s.log.Info("Attached to media session")
	metricSessionsAttached.Inc()
	metricSessionActive.Set(1)

	s.volume.start()
	go s.run()
	return nil
}

// detach is safe to call more than once. Unregistration failures are logged and never stop
// Disconnect from being published.
func (s *Session) detach() {
	s.detachOnce.Do(func() {
		s.cancel()
		s.unregister()
		s.volume.close()

		s.pubMu.Lock()
		s.detached = true
		s.bus.Publish(events.Disconnect{AppID: s.appID})
		s.pubMu.Unlock()

		s.log.Info("Detached from media session")
		metricSessionsDetached.Inc()
		metricSessionActive.Set(0)
	})
}

func (s *Session) unregister() {
	if s.playbackToken != "" {
		if err := s.controls.RemovePlaybackInfoChanged(s.playbackToken); err != nil {
			s.log.Warn("Failed to remove playback info handler", slog.String("error", err.Error()))
		}
		s.playbackToken = ""
	}
	if s.timelineToken != "" {
		if err := s.controls.RemoveTimelinePropertiesChanged(s.timelineToken); err != nil {
			s.log.Warn("Failed to remove timeline handler", slog.String("error", err.Error()))
		}
		s.timelineToken = ""
	}
	if s.mediaToken != "" {
		if err := s.controls.RemoveMediaPropertiesChanged(s.mediaToken); err != nil {
			s.log.Warn("Failed to remove media properties handler", slog.String("error", err.Error()))
		}
		s.mediaToken = ""
	}
}

// publish reports whether the event made it onto the bus.
func (s *Session) publish(ev events.MediaEvent) bool {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if s.detached {
		metricEventsDropped.WithLabelValues(string(ev.Kind())).Inc()
		return false
	}
	s.bus.Publish(ev)
	return true
}

func (s *Session) run() {
	for {
		for {
			if s.ctx.Err() != nil {
				return
			}
			k, ok := s.jobs.pop()
			if !ok {
				break
			}
			s.runJob(k)
		}
		select {
		case <-s.ctx.Done():
			return
		case <-s.jobs.wake:
		}
	}
}

func (s *Session) runJob(k jobKind) {
	switch k {
	case jobPlaybackInfo:
		s.handlePlaybackInfo()
	case jobTimelineProperties:
		s.handleTimelineProperties()
	case jobMediaProperties:
		s.handleMediaProperties()
	}
}

func (s *Session) handlePlaybackInfo() {
	info, err := s.controls.PlaybackInfo()
	if err != nil {
		s.log.Warn("Failed to read playback info", slog.String("error", err.Error()))
		return
	}
	s.publish(events.PlaybackInfoChanged{Data: models.PlaybackData{
		IsPlaying: info.Status == mediactl.StatusPlaying,
	}})
}

func (s *Session) handleTimelineProperties() {
	timeline, err := s.controls.TimelineProperties()
	if err != nil {
		s.log.Warn("Failed to read timeline properties", slog.String("error", err.Error()))
		return
	}
	s.publish(events.TimelinePropertiesChanged{Data: models.TimelineData{
		StartTime: ticksToUint(timeline.StartTime),
		EndTime:   ticksToUint(timeline.EndTime),
		Position:  ticksToUint(timeline.Position),
	}})
}

func (s *Session) handleMediaProperties() {
	props, err := s.controls.MediaProperties(s.ctx)
	if err != nil {
		s.log.Warn("Failed to read media properties", slog.String("error", err.Error()))
		return
	}
	info, err := s.controls.PlaybackInfo()
	if err != nil {
		s.log.Warn("Failed to read playback controls", slog.String("error", err.Error()))
		return
	}

	var artwork thumbnail.Source
	if props.Thumbnail != nil {
		artwork = props.Thumbnail
	}
	thumb := s.thumbnails.Process(s.ctx, artwork)
	if s.ctx.Err() != nil {
		return
	}

	controls := info.Controls
	s.publish(events.MediaPropertiesChanged{Data: models.SessionData{
		CanPlay:         controls.IsPlayEnabled,
		CanPause:        controls.IsPauseEnabled,
		CanPlayOrPause:  controls.IsPlayEnabled || controls.IsPauseEnabled,
		CanSkipNext:     controls.IsNextEnabled,
		CanSkipPrevious: controls.IsPreviousEnabled,
		Title:           props.Title,
		Artist:          props.Artist,
		Album:           props.AlbumTitle,
		Artists:         models.ParseArtists(props.Artist, props.Title),
		Thumbnail:       thumb,
	}})
}

// RefreshMediaProperties re-reads and republishes media properties as if the OS had
// announced a change. The Refresh* methods are how a late subscriber catches up.
func (s *Session) RefreshMediaProperties() { s.jobs.push(jobMediaProperties) }

func (s *Session) RefreshPlaybackInfo() { s.jobs.push(jobPlaybackInfo) }

func (s *Session) RefreshTimelineProperties() { s.jobs.push(jobTimelineProperties) }

func (s *Session) Refresh() {
	s.RefreshMediaProperties()
	s.RefreshPlaybackInfo()
	s.RefreshTimelineProperties()
}

func (s *Session) Play() { s.command("play", s.controls.TryPlay) }

func (s *Session) Pause() { s.command("pause", s.controls.TryPause) }

func (s *Session) SkipNext() { s.command("next", s.controls.TrySkipNext) }

func (s *Session) SkipPrevious() { s.command("previous", s.controls.TrySkipPrevious) }

// SetPlaybackPosition seeks to position, in the same ticks TimelineData reports.
func (s *Session) SetPlaybackPosition(position uint64) {
	ticks := mediactl.Ticks(math.MaxInt64)
	if position < math.MaxInt64 {
		ticks = mediactl.Ticks(position)
	}
	s.command("position", func() <-chan error {
		return s.controls.TryChangePlaybackPosition(ticks)
	})
}

// command fires an OS transport command without waiting for it. The outcome is only
// logged.
func (s *Session) command(name string, try func() <-chan error) {
	s.log.Debug("Sending transport command", slog.String("command", name))
	result := try()
	go func() {
		select {
		case err := <-result:
			if err != nil {
				metricCommandFailures.WithLabelValues(name).Inc()
				s.log.Warn("Transport command failed",
					slog.String("command", name),
					slog.String("error", err.Error()))
			}
		case <-s.ctx.Done():
		}
	}()
}

// Volume is the last known volume of the app's audio session, or -1 if none is bound.
func (s *Session) Volume() float32 {
	return s.volume.level()
}

// SetVolume clamps level to 0..1. It does nothing until an audio session is bound.
func (s *Session) SetVolume(level float32) {
	switch {
	case level < 0:
		level = 0
	case level > 1:
		level = 1
	}
	s.volume.set(level)
}

func ticksToUint(t mediactl.Ticks) uint64 {
	if t < 0 {
		return 0
	}
	return uint64(t)
}
