package sim

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus-crane/mediamon/mediactl"
)

func TestOpen(t *testing.T) {
	t.Parallel()
	artworkPath := filepath.Join(t.TempDir(), "cover.png")
	require.NoError(t, os.WriteFile(artworkPath, []byte("not really a png"), 0o600))

	backend, err := mediactl.Open("sim", map[string]string{"app": "Tidal.exe", "pid": "99", "artwork": artworkPath})
	require.NoError(t, err)

	manager, err := backend.RequestManager(context.Background())
	require.NoError(t, err)
	sessions, err := manager.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	appID, err := sessions[0].SourceAppUserModelID()
	require.NoError(t, err)
	assert.Equal(t, "Tidal.exe", appID)

	props, err := sessions[0].MediaProperties(context.Background())
	require.NoError(t, err)
	require.NotNil(t, props.Thumbnail)
	rc, err := props.Thumbnail.OpenRead(context.Background())
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "not really a png", string(data))

	name, err := mediactl.NamerFor(backend).ProcessName(99)
	require.NoError(t, err)
	assert.Equal(t, "Tidal.exe", name)
}

func TestOpen_InvalidOptions(t *testing.T) {
	t.Parallel()
	_, err := mediactl.Open("sim", map[string]string{"pid": "nope"})
	assert.Error(t, err)

	_, err = mediactl.Open("sim", map[string]string{"artwork": filepath.Join(t.TempDir(), "missing.png")})
	assert.Error(t, err)
}

func TestHandlers(t *testing.T) {
	t.Parallel()
	var h handlers[func() string]
	a := h.add(func() string { return "a" })
	h.add(func() string { return "b" })

	var got []string
	for _, f := range h.snapshot() {
		got = append(got, f())
	}
	assert.Equal(t, []string{"a", "b"}, got)

	require.NoError(t, h.remove(a))
	assert.Equal(t, 1, h.len())
	assert.ErrorIs(t, h.remove(a), errUnknownToken)
}

func TestFaults(t *testing.T) {
	t.Parallel()
	m := &Manager{}
	boom := errors.New("boom")

	m.Fail("Sessions", boom)
	_, err := m.Sessions()
	assert.ErrorIs(t, err, boom)

	m.Fail("Sessions", nil)
	_, err = m.Sessions()
	assert.NoError(t, err)
}

func TestManager_AddAndRemoveNotify(t *testing.T) {
	t.Parallel()
	m := &Manager{}
	fired := 0
	token, err := m.OnSessionsChanged(func() { fired++ })
	require.NoError(t, err)

	s := NewSession("Spotify.exe")
	m.Add(s)
	m.Remove(s)
	assert.Equal(t, 2, fired)

	sessions, err := m.Sessions()
	require.NoError(t, err)
	assert.Empty(t, sessions)

	require.NoError(t, m.RemoveSessionsChanged(token))
	assert.Zero(t, m.HandlerCount())
}

func TestSession_Commands(t *testing.T) {
	t.Parallel()
	s := NewSession("Spotify.exe")
	playbackFired := make(chan struct{}, 1)
	_, err := s.OnPlaybackInfoChanged(func() { playbackFired <- struct{}{} })
	require.NoError(t, err)

	require.NoError(t, <-s.TryPlay())
	<-playbackFired
	info, err := s.PlaybackInfo()
	require.NoError(t, err)
	assert.Equal(t, mediactl.StatusPlaying, info.Status)

	require.NoError(t, <-s.TryChangePlaybackPosition(42))
	timeline, err := s.TimelineProperties()
	require.NoError(t, err)
	assert.Equal(t, mediactl.Ticks(42), timeline.Position)

	s.Fail("TrySkipNext", errors.New("not now"))
	assert.Error(t, <-s.TrySkipNext())

	assert.Equal(t, []string{"play", "position:42", "next"}, s.Commands())
}

func TestSession_NoArtwork(t *testing.T) {
	t.Parallel()
	s := NewSession("Spotify.exe")
	props, err := s.MediaProperties(context.Background())
	require.NoError(t, err)
	assert.Nil(t, props.Thumbnail)

	s.SetThumbnail([]byte{1, 2, 3})
	props, err = s.MediaProperties(context.Background())
	require.NoError(t, err)
	require.NotNil(t, props.Thumbnail)

	s.SetThumbnail(nil)
	_, err = props.Thumbnail.OpenRead(context.Background())
	assert.ErrorIs(t, err, mediactl.ErrNoThumbnail)
}

func TestSession_BlockThumbnail(t *testing.T) {
	t.Parallel()
	s := NewSession("Spotify.exe")
	s.SetThumbnail([]byte{1})
	props, err := s.MediaProperties(context.Background())
	require.NoError(t, err)

	release := s.BlockThumbnail()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = props.Thumbnail.OpenRead(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	release()
	release()
	rc, err := props.Thumbnail.OpenRead(context.Background())
	require.NoError(t, err)
	rc.Close()
}

func TestAudioSession_SetVolumeNotifies(t *testing.T) {
	t.Parallel()
	a := NewAudioSession(7, 0.5)
	var got []float32
	_, err := a.OnVolumeChanged(func(level float32) { got = append(got, level) })
	require.NoError(t, err)

	require.NoError(t, a.SetVolume(0.25))
	level, err := a.Volume()
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), level)
	assert.Equal(t, []float32{0.25}, got)
}

func TestAudioSessions_AddNotifies(t *testing.T) {
	t.Parallel()
	sessions := &AudioSessions{}
	var created []mediactl.AudioSession
	_, err := sessions.OnSessionCreated(func(s mediactl.AudioSession) { created = append(created, s) })
	require.NoError(t, err)

	a := NewAudioSession(1, 1)
	sessions.Add(a)
	require.Len(t, created, 1)
	assert.Same(t, a, created[0])
}
