package mediactl

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessNamer resolves a process id to its executable name, e.g. "Spotify.exe".
type ProcessNamer interface {
	ProcessName(pid uint32) (string, error)
}

// ProcessNamerFunc adapts a function to ProcessNamer.
type ProcessNamerFunc func(pid uint32) (string, error)

func (f ProcessNamerFunc) ProcessName(pid uint32) (string, error) {
	return f(pid)
}

// SystemProcessNamer looks process names up in the live process table.
type SystemProcessNamer struct{}

func (SystemProcessNamer) ProcessName(pid uint32) (string, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", fmt.Errorf("failed to open process %d: %w", pid, err)
	}
	name, err := p.Name()
	if err != nil {
		return "", fmt.Errorf("failed to read name of process %d: %w", pid, err)
	}
	return name, nil
}

// ProcessNamerProvider is implemented by backends that know their own process table.
type ProcessNamerProvider interface {
	ProcessNamer() ProcessNamer
}

// NamerFor returns the backend's own ProcessNamer when it has one and the live process
// table otherwise.
func NamerFor(b Backend) ProcessNamer {
	if p, ok := b.(ProcessNamerProvider); ok {
		if namer := p.ProcessNamer(); namer != nil {
			return namer
		}
	}
	return SystemProcessNamer{}
}
