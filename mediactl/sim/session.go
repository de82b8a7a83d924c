package sim

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/marcus-crane/mediamon/mediactl"
)

// Manager is the simulated session manager. Add and Remove notify synchronously, the way a
// test expects to observe the effect straight after the call returns.
type Manager struct {
	faults

	mu       sync.Mutex
	sessions []*Session
	changed  handlers[func()]
}

func (m *Manager) Add(s *Session) {
	m.mu.Lock()
	m.sessions = append(m.sessions, s)
	m.mu.Unlock()
	m.FireSessionsChanged()
}

func (m *Manager) Remove(s *Session) {
	m.mu.Lock()
	for i, existing := range m.sessions {
		if existing == s {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	m.FireSessionsChanged()
}

func (m *Manager) FireSessionsChanged() {
	for _, h := range m.changed.snapshot() {
		h()
	}
}

// HandlerCount reports how many sessions-changed handlers are registered.
func (m *Manager) HandlerCount() int {
	return m.changed.len()
}

func (m *Manager) Sessions() ([]mediactl.Session, error) {
	if err := m.fault("Sessions"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mediactl.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (m *Manager) OnSessionsChanged(handler func()) (mediactl.Token, error) {
	if err := m.fault("OnSessionsChanged"); err != nil {
		return "", err
	}
	return m.changed.add(handler), nil
}

func (m *Manager) RemoveSessionsChanged(token mediactl.Token) error {
	if err := m.fault("RemoveSessionsChanged"); err != nil {
		return err
	}
	return m.changed.remove(token)
}

// Session is a simulated application media session.
type Session struct {
	faults

	appID string

	mu       sync.Mutex
	title    string
	artist   string
	album    string
	artwork  []byte
	info     mediactl.PlaybackInfo
	timeline mediactl.TimelineProperties
	commands []string
	gate     chan struct{}

	media    handlers[func()]
	playback handlers[func()]
	timeLine handlers[func()]
}

// NewSession starts paused with every transport control enabled.
func NewSession(appID string) *Session {
	return &Session{
		appID: appID,
		info: mediactl.PlaybackInfo{
			Status: mediactl.StatusPaused,
			Controls: mediactl.PlaybackControls{
				IsPlayEnabled:     true,
				IsPauseEnabled:    true,
				IsNextEnabled:     true,
				IsPreviousEnabled: true,
			},
		},
	}
}

func (s *Session) SetMediaProperties(title, artist, album string) {
	s.mu.Lock()
	s.title, s.artist, s.album = title, artist, album
	s.mu.Unlock()
	s.FireMediaPropertiesChanged()
}

// SetThumbnail replaces the artwork. Empty data means no artwork.
func (s *Session) SetThumbnail(data []byte) {
	s.mu.Lock()
	s.artwork = append([]byte(nil), data...)
	s.mu.Unlock()
	s.FireMediaPropertiesChanged()
}

func (s *Session) SetPlaybackStatus(status mediactl.PlaybackStatus) {
	s.mu.Lock()
	s.info.Status = status
	s.mu.Unlock()
	s.FirePlaybackInfoChanged()
}

func (s *Session) SetControls(controls mediactl.PlaybackControls) {
	s.mu.Lock()
	s.info.Controls = controls
	s.mu.Unlock()
	s.FirePlaybackInfoChanged()
}

func (s *Session) SetTimeline(timeline mediactl.TimelineProperties) {
	s.mu.Lock()
	s.timeline = timeline
	s.mu.Unlock()
	s.FireTimelinePropertiesChanged()
}

func (s *Session) FireMediaPropertiesChanged()    { fire(&s.media) }
func (s *Session) FirePlaybackInfoChanged()       { fire(&s.playback) }
func (s *Session) FireTimelinePropertiesChanged() { fire(&s.timeLine) }

func fire(h *handlers[func()]) {
	for _, f := range h.snapshot() {
		f()
	}
}

// Listeners reports how many media, playback and timeline handlers are registered.
func (s *Session) Listeners() (media, playback, timeline int) {
	return s.media.len(), s.playback.len(), s.timeLine.len()
}

// Commands lists the transport commands received so far, e.g. "play" or "position:42".
func (s *Session) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// BlockThumbnail holds every artwork read until release is called or the reader's context
// is cancelled.
func (s *Session) BlockThumbnail() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gate == gate {
				s.gate = nil
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

func (s *Session) SourceAppUserModelID() (string, error) {
	if err := s.fault("SourceAppUserModelID"); err != nil {
		return "", err
	}
	return s.appID, nil
}

func (s *Session) MediaProperties(ctx context.Context) (mediactl.MediaProperties, error) {
	if err := s.fault("MediaProperties"); err != nil {
		return mediactl.MediaProperties{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	props := mediactl.MediaProperties{
		Title:      s.title,
		Artist:     s.artist,
		AlbumTitle: s.album,
	}
	if len(s.artwork) > 0 {
		props.Thumbnail = artwork{s}
	}
	return props, nil
}

func (s *Session) PlaybackInfo() (mediactl.PlaybackInfo, error) {
	if err := s.fault("PlaybackInfo"); err != nil {
		return mediactl.PlaybackInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info, nil
}

func (s *Session) TimelineProperties() (mediactl.TimelineProperties, error) {
	if err := s.fault("TimelineProperties"); err != nil {
		return mediactl.TimelineProperties{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline, nil
}

func (s *Session) OnMediaPropertiesChanged(handler func()) (mediactl.Token, error) {
	if err := s.fault("OnMediaPropertiesChanged"); err != nil {
		return "", err
	}
	return s.media.add(handler), nil
}

func (s *Session) RemoveMediaPropertiesChanged(token mediactl.Token) error {
	if err := s.fault("RemoveMediaPropertiesChanged"); err != nil {
		return err
	}
	return s.media.remove(token)
}

func (s *Session) OnPlaybackInfoChanged(handler func()) (mediactl.Token, error) {
	if err := s.fault("OnPlaybackInfoChanged"); err != nil {
		return "", err
	}
	return s.playback.add(handler), nil
}

func (s *Session) RemovePlaybackInfoChanged(token mediactl.Token) error {
	if err := s.fault("RemovePlaybackInfoChanged"); err != nil {
		return err
	}
	return s.playback.remove(token)
}

func (s *Session) OnTimelinePropertiesChanged(handler func()) (mediactl.Token, error) {
	if err := s.fault("OnTimelinePropertiesChanged"); err != nil {
		return "", err
	}
	return s.timeLine.add(handler), nil
}

func (s *Session) RemoveTimelinePropertiesChanged(token mediactl.Token) error {
	if err := s.fault("RemoveTimelinePropertiesChanged"); err != nil {
		return err
	}
	return s.timeLine.remove(token)
}

func (s *Session) TryPlay() <-chan error {
	return s.command("TryPlay", "play", func() { s.SetPlaybackStatus(mediactl.StatusPlaying) })
}

func (s *Session) TryPause() <-chan error {
	return s.command("TryPause", "pause", func() { s.SetPlaybackStatus(mediactl.StatusPaused) })
}

func (s *Session) TrySkipNext() <-chan error {
	return s.command("TrySkipNext", "next", s.FireMediaPropertiesChanged)
}

func (s *Session) TrySkipPrevious() <-chan error {
	return s.command("TrySkipPrevious", "previous", s.FireMediaPropertiesChanged)
}

func (s *Session) TryChangePlaybackPosition(position mediactl.Ticks) <-chan error {
	return s.command("TryChangePlaybackPosition", fmt.Sprintf("position:%d", position), func() {
		s.mu.Lock()
		s.timeline.Position = position
		s.mu.Unlock()
		s.FireTimelinePropertiesChanged()
	})
}

// command records name and completes asynchronously, like the OS does.
func (s *Session) command(op, name string, apply func()) <-chan error {
	result := make(chan error, 1)
	go func() {
		s.mu.Lock()
		s.commands = append(s.commands, name)
		s.mu.Unlock()
		if err := s.fault(op); err != nil {
			result <- err
			return
		}
		apply()
		result <- nil
	}()
	return result
}

type artwork struct {
	s *Session
}

func (a artwork) OpenRead(ctx context.Context) (io.ReadCloser, error) {
	s := a.s
	if err := s.fault("OpenRead"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	data := append([]byte(nil), s.artwork...)
	s.mu.Unlock()
	if len(data) == 0 {
		return nil, mediactl.ErrNoThumbnail
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
