// Package sim is an in-memory mediactl backend. Tests drive it directly through its
// setters, and the "sim" backend name gives the CLI something to monitor on machines
// without a media transport controls subsystem.
//
// Every mediactl method can be made to fail by calling Fail with the method's name.
package sim

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/marcus-crane/mediamon/mediactl"
)

const (
	DefaultApp = "Spotify.exe"
	DefaultPID = 4242
)

var errUnknownToken = errors.New("sim: unknown registration token")

func init() {
	mediactl.Register("sim", open)
}

// open builds a backend holding one session for opts["app"], with an audio session owned
// by opts["pid"] and, when opts["artwork"] names a file, that file as artwork.
func open(opts map[string]string) (mediactl.Backend, error) {
	app := opts["app"]
	if app == "" {
		app = DefaultApp
	}
	pid := uint32(DefaultPID)
	if raw := opts["pid"]; raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid sim pid %q: %w", raw, err)
		}
		pid = uint32(parsed)
	}

	b := New()
	s := NewSession(app)
	s.SetMediaProperties("Kyoto", "Phoebe Bridgers", "Punisher")
	s.SetTimeline(mediactl.TimelineProperties{EndTime: 1_840_000_000})
	if path := opts["artwork"]; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read sim artwork: %w", err)
		}
		s.SetThumbnail(data)
	}
	b.Processes.Set(pid, app)
	b.Audio.Add(NewAudioSession(pid, 0.8))
	b.Manager.Add(s)
	return b, nil
}

// Backend bundles the simulated subsystems.
type Backend struct {
	Manager   *Manager
	Audio     *AudioSessions
	Processes *Processes

	mu         sync.Mutex
	requestErr error
}

func New() *Backend {
	return &Backend{
		Manager:   &Manager{},
		Audio:     &AudioSessions{},
		Processes: &Processes{names: make(map[uint32]string)},
	}
}

// FailRequest makes RequestManager return err. Pass nil to clear.
func (b *Backend) FailRequest(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requestErr = err
}

func (b *Backend) RequestManager(ctx context.Context) (mediactl.SessionManager, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.requestErr != nil {
		return nil, b.requestErr
	}
	return b.Manager, nil
}

func (b *Backend) AudioSessions() mediactl.AudioSessions {
	return b.Audio
}

func (b *Backend) ProcessNamer() mediactl.ProcessNamer {
	return b.Processes
}

// handlers is a registration table keyed by uuid tokens, iterated in registration order.
type handlers[F any] struct {
	mu    sync.Mutex
	order []mediactl.Token
	byKey map[mediactl.Token]F
}

func (h *handlers[F]) add(f F) mediactl.Token {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.byKey == nil {
		h.byKey = make(map[mediactl.Token]F)
	}
	token := mediactl.Token(uuid.NewString())
	h.byKey[token] = f
	h.order = append(h.order, token)
	return token
}

func (h *handlers[F]) remove(token mediactl.Token) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.byKey[token]; !ok {
		return errUnknownToken
	}
	delete(h.byKey, token)
	for i, t := range h.order {
		if t == token {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	return nil
}

// snapshot is taken so handlers run without the table locked and may unregister themselves.
func (h *handlers[F]) snapshot() []F {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]F, 0, len(h.order))
	for _, t := range h.order {
		out = append(out, h.byKey[t])
	}
	return out
}

func (h *handlers[F]) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.order)
}

type faults struct {
	mu sync.Mutex
	m  map[string]error
}

// Fail makes the named method return err until cleared with a nil err.
func (f *faults) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.m == nil {
		f.m = make(map[string]error)
	}
	if err == nil {
		delete(f.m, op)
		return
	}
	f.m[op] = err
}

func (f *faults) fault(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.m[op]
}

// Processes is a fake process table.
type Processes struct {
	mu    sync.Mutex
	names map[uint32]string
}

func (p *Processes) Set(pid uint32, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names[pid] = name
}

func (p *Processes) ProcessName(pid uint32) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	name, ok := p.names[pid]
	if !ok {
		return "", fmt.Errorf("sim: no process with pid %d", pid)
	}
	return name, nil
}
