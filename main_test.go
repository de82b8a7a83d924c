package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_DemoBackendIsExplained(t *testing.T) {
	t.Parallel()
	root := newRootCommand()

	for _, name := range []string{"serve", "watch"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
		assert.Contains(t, cmd.Long, `"sim"`)
		assert.Contains(t, cmd.Long, "in-memory demo")
	}

	backend := root.PersistentFlags().Lookup("backend")
	require.NotNil(t, backend)
	assert.Contains(t, backend.Usage, "in-memory demo")
}
