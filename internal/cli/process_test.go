package cli

import (
	"errors"
	"os"
	"testing"

	ps "github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	pid  int
	exec string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.exec }

func stubProcesses(t *testing.T, procs []ps.Process, err error) {
	t.Helper()
	orig := processesFunc
	processesFunc = func() ([]ps.Process, error) { return procs, err }
	t.Cleanup(func() { processesFunc = orig })
}

func TestRunningInstances(t *testing.T) {
	stubProcesses(t, []ps.Process{
		fakeProcess{pid: os.Getpid(), exec: "streakline"},
		fakeProcess{pid: 101, exec: "streakline"},
		fakeProcess{pid: 102, exec: "streakline.exe"},
		fakeProcess{pid: 103, exec: "bash"},
	}, nil)

	pids, err := runningInstances()
	require.NoError(t, err)
	assert.Equal(t, []int{101, 102}, pids)
}

func TestRestoreRefusesWhileRunning(t *testing.T) {
	env := setupTestContext(t)
	env.seed(t)
	stubProcesses(t, nil, nil)
	require.NoError(t, (&BackupCreateCmd{}).Run(env.ctx))
	env.take()

	stubProcesses(t, []ps.Process{fakeProcess{pid: 4242, exec: "streakline"}}, nil)
	err := (&BackupRestoreCmd{BackupFile: "streakline-20240315-100000.db", Yes: true}).Run(env.ctx)
	assert.ErrorContains(t, err, "pid [4242]")
}

func TestRestoreWhenProcessListFails(t *testing.T) {
	env := setupTestContext(t)
	env.seed(t)
	require.NoError(t, (&BackupCreateCmd{}).Run(env.ctx))
	env.take()

	stubProcesses(t, nil, errors.New("no /proc"))
	err := (&BackupRestoreCmd{BackupFile: "streakline-20240315-100000.db", Yes: true}).Run(env.ctx)
	require.NoError(t, err)
	assert.Contains(t, string(env.take()), "Previous database saved as:")
}
