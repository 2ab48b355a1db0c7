package cli

import (
	"os"
	"path/filepath"
	"strings"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/streakline/internal/constants"
)

var processesFunc = ps.Processes

// runningInstances returns the pids of other streakline processes on this machine.
func runningInstances() ([]int, error) {
	procs, err := processesFunc()
	if err != nil {
		return nil, err
	}
	self := os.Getpid()
	var pids []int
	for _, p := range procs {
		if p.Pid() == self {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(p.Executable()), ".exe")
		if name == constants.AppName {
			pids = append(pids, p.Pid())
		}
	}
	return pids, nil
}
