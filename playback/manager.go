package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/marcus-crane/mediamon/events"
	"github.com/marcus-crane/mediamon/mediactl"
	"github.com/marcus-crane/mediamon/thumbnail"
)

var (
	ErrNoTargetApp = errors.New("playback: a target app id is required")
	ErrStarted     = errors.New("playback: manager already started")
	ErrClosed      = errors.New("playback: manager is closed")
)

type Options struct {
	// TargetApp is the app id to monitor, e.g. "Spotify.exe". Matched exactly.
	TargetApp string
	// Thumbnails defaults to a pipeline with the default cache size.
	Thumbnails *thumbnail.Pipeline
	// Namer defaults to mediactl.NamerFor(backend).
	Namer mediactl.ProcessNamer
}

// Manager watches the OS session list and keeps at most one Session attached: the first one
// belonging to the target app. It never swaps an attached session for another.
type Manager struct {
	sessions mediactl.SessionManager
	audio    mediactl.AudioSessions
	bus      events.Publisher
	opts     Options

	// syncMu serialises every transition so concurrent notifications cannot both attach.
	syncMu     sync.Mutex
	token      mediactl.Token
	started    bool
	registered bool
	closed     bool
	cancel     context.CancelFunc

	m       sync.RWMutex
	current *Session
}

// NewManager acquires the OS session manager. Failing to do so is the one error a monitor
// cannot recover from, so it is returned rather than logged.
func NewManager(ctx context.Context, backend mediactl.Backend, bus events.Publisher, opts Options) (*Manager, error) {
	if opts.TargetApp == "" {
		return nil, ErrNoTargetApp
	}
	sessions, err := backend.RequestManager(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire media session manager: %w", err)
	}
	if opts.Thumbnails == nil {
		opts.Thumbnails, err = thumbnail.NewPipeline(thumbnail.DefaultCacheSize)
		if err != nil {
			return nil, err
		}
	}
	if opts.Namer == nil {
		opts.Namer = mediactl.NamerFor(backend)
	}
	return &Manager{
		sessions: sessions,
		audio:    backend.AudioSessions(),
		bus:      bus,
		opts:     opts,
	}, nil
}

// Start subscribes to session list changes and evaluates the current list straight away.
// Sessions attached from here on live no longer than ctx. A Manager starts at most once.
func (m *Manager) Start(ctx context.Context) error {
	m.syncMu.Lock()
	switch {
	case m.closed:
		m.syncMu.Unlock()
		return ErrClosed
	case m.started:
		m.syncMu.Unlock()
		return ErrStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	m.started = true
	m.cancel = cancel
	m.syncMu.Unlock()

	// Registration happens outside syncMu since the OS may call the handler before it returns.
	handler := func() { m.handleSessionsChanged(ctx) }
	token, err := m.sessions.OnSessionsChanged(handler)
	if err != nil {
		return fmt.Errorf("failed to subscribe to session changes: %w", err)
	}

	m.syncMu.Lock()
	if m.closed {
		m.syncMu.Unlock()
		if err := m.sessions.RemoveSessionsChanged(token); err != nil {
			slog.Warn("Failed to unsubscribe from session changes", slog.String("error", err.Error()))
		}
		return ErrClosed
	}
	m.token = token
	m.registered = true
	m.syncMu.Unlock()

	slog.Info("Watching for media sessions", slog.String("target_app", m.opts.TargetApp))
	handler()
	return nil
}

// Close stops watching and detaches the current session, if any.
func (m *Manager) Close() {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()
	if m.closed {
		return
	}
	m.closed = true

	if m.registered {
		if err := m.sessions.RemoveSessionsChanged(m.token); err != nil {
			slog.Warn("Failed to unsubscribe from session changes", slog.String("error", err.Error()))
		}
	}
	m.m.Lock()
	current := m.current
	m.current = nil
	m.m.Unlock()
	if current != nil {
		current.detach()
	}
	if m.cancel != nil {
		m.cancel()
	}
}

// Current returns the attached session or nil.
func (m *Manager) Current() *Session {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.current
}

func (m *Manager) TargetApp() string {
	return m.opts.TargetApp
}

// Volume is the attached session's volume, or -1 when there is nothing to report.
func (m *Manager) Volume() float32 {
	if s := m.Current(); s != nil {
		return s.Volume()
	}
	return NoVolume
}

func (m *Manager) handleSessionsChanged(ctx context.Context) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()
	if m.closed {
		return
	}

	sessions, err := m.sessions.Sessions()
	if err != nil {
		// Treated as an empty list; the next notification tries again.
		slog.Warn("Failed to enumerate media sessions", slog.String("error", err.Error()))
		sessions = nil
	}

	var match mediactl.Session
	for _, s := range sessions {
		appID, err := s.SourceAppUserModelID()
		if err != nil {
			slog.Debug("Skipping session without an app id", slog.String("error", err.Error()))
			continue
		}
		if appID == m.opts.TargetApp {
			match = s
			break
		}
	}

	current := m.Current()
	switch {
	case match != nil && current == nil:
		session := newSession(ctx, match, sessionDeps{
			appID:      m.opts.TargetApp,
			bus:        m.bus,
			thumbnails: m.opts.Thumbnails,
			audio:      m.audio,
			namer:      m.opts.Namer,
		})
		if err := session.attach(); err != nil {
			slog.Error("Failed to attach media session",
				slog.String("app_id", m.opts.TargetApp),
				slog.String("error", err.Error()))
			return
		}
		m.m.Lock()
		m.current = session
		m.m.Unlock()
	case match != nil:
		slog.Debug("Media session already attached", slog.String("app_id", current.AppID()))
	case current != nil:
		m.m.Lock()
		m.current = nil
		m.m.Unlock()
		current.detach()
	}
}
