package guard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
)

// commLength is the longest process name the Linux process table keeps.
const commLength = 15

// ErrAlreadyRunning is returned when another controller process is found.
var ErrAlreadyRunning = errors.New("another controller instance is running")

// ProcessLister returns the process table. ps.Processes is the production lister.
type ProcessLister func() ([]ps.Process, error)

// EnsureSingleInstance fails when another process with this executable name runs.
func EnsureSingleInstance() error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	return ensureSingle(ps.Processes, os.Getpid(), filepath.Base(executable))
}

func ensureSingle(list ProcessLister, selfPID int, name string) error {
	if len(name) > commLength {
		name = name[:commLength]
	}

	processList, err := list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processList {
		if process.Pid() == selfPID {
			continue
		}

		if process.Executable() != name {
			continue
		}

		return fmt.Errorf("%w: %s (pid %d)", ErrAlreadyRunning, name, process.Pid())
	}

	return nil
}
