package mediactl

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	namer ProcessNamer
}

func (stubBackend) RequestManager(ctx context.Context) (SessionManager, error) {
	return nil, errors.New("no manager")
}

func (stubBackend) AudioSessions() AudioSessions { return nil }

type namingBackend struct {
	stubBackend
}

func (b namingBackend) ProcessNamer() ProcessNamer { return b.namer }

func TestRegistry(t *testing.T) {
	Register("stub-registry-test", func(opts map[string]string) (Backend, error) {
		return stubBackend{}, nil
	})

	b, err := Open("stub-registry-test", nil)
	require.NoError(t, err)
	assert.IsType(t, stubBackend{}, b)
	assert.Contains(t, Backends(), "stub-registry-test")

	assert.Panics(t, func() {
		Register("stub-registry-test", func(map[string]string) (Backend, error) { return nil, nil })
	})
	assert.Panics(t, func() { Register("nil-factory", nil) })

	_, err = Open("does-not-exist", nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestNamerFor(t *testing.T) {
	t.Parallel()
	assert.IsType(t, SystemProcessNamer{}, NamerFor(stubBackend{}))

	custom := ProcessNamerFunc(func(pid uint32) (string, error) { return "Spotify.exe", nil })
	namer := NamerFor(namingBackend{stubBackend{namer: custom}})
	name, err := namer.ProcessName(1)
	require.NoError(t, err)
	assert.Equal(t, "Spotify.exe", name)

	assert.IsType(t, SystemProcessNamer{}, NamerFor(namingBackend{}))
}

func TestSystemProcessNamer(t *testing.T) {
	t.Parallel()
	name, err := SystemProcessNamer{}.ProcessName(uint32(os.Getpid()))
	require.NoError(t, err)
	assert.NotEmpty(t, name)
}

func TestPlaybackStatus_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "playing", StatusPlaying.String())
	assert.Equal(t, "unknown", PlaybackStatus(99).String())
}
