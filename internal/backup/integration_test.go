package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/storage/sqlite"
	"github.com/julianstephens/streakline/internal/tracker"
	"github.com/julianstephens/streakline/internal/utils"
)

type fakeUploader struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.paths = append(f.paths, path)
	return "backups/" + filepath.Base(path), nil
}

func openTracker(t *testing.T, dbPath string, clock utils.Clock) (*sqlite.Store, *tracker.Service) {
	t.Helper()
	store := sqlite.NewStore(dbPath, utils.NewNormalizer(time.UTC, clock))
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		require.NoError(t, store.Init())
	} else {
		require.NoError(t, store.Load())
	}
	return store, tracker.New(store)
}

// TestIntegrationBackupRestoreWorkflow backs up a real database, changes it and rolls back.
func TestIntegrationBackupRestoreWorkflow(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "streakline.db")
	clock := utils.NewFixedClock(testStart)

	store, svc := openTracker(t, dbPath, clock)
	habit, err := svc.CreateHabit(ctx, models.NewHabit{Name: "Read", TargetType: models.TargetDaily, TargetUnits: "pages"})
	require.NoError(t, err)
	_, err = svc.RecordCompletion(ctx, habit.ID, 1, nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	mgr := NewManager(dbPath, WithClock(clock))
	backupPath, err := mgr.CreateBackup()
	require.NoError(t, err)

	clock.Advance(24 * time.Hour)
	store, svc = openTracker(t, dbPath, clock)
	_, err = svc.RecordCompletion(ctx, habit.ID, 1, nil)
	require.NoError(t, err)
	streak, err := svc.GetStreak(ctx, habit.ID)
	require.NoError(t, err)
	require.NotNil(t, streak)
	assert.Equal(t, 2, streak.CurrentStreak)
	require.NoError(t, store.Close())

	_, err = mgr.RestoreBackup(backupPath)
	require.NoError(t, err)

	store, svc = openTracker(t, dbPath, clock)
	defer store.Close()

	completions, err := svc.ListCompletions(ctx, habit.ID)
	require.NoError(t, err)
	assert.Len(t, completions, 1)

	streak, err = svc.GetStreak(ctx, habit.ID)
	require.NoError(t, err)
	require.NotNil(t, streak)
	assert.Equal(t, 1, streak.CurrentStreak)
}

func TestSchedulerRunOnceUploads(t *testing.T) {
	dbPath := setupTestDB(t)
	clock := utils.NewFixedClock(testStart)
	up := &fakeUploader{}

	sched, err := NewScheduler("0 3 * * *", NewManager(dbPath, WithClock(clock)), up, time.UTC)
	require.NoError(t, err)

	require.NoError(t, sched.RunOnce(context.Background()))
	require.Len(t, up.paths, 1)
	assert.FileExists(t, up.paths[0])

	last, lastErr := sched.LastRun()
	assert.NoError(t, lastErr)
	assert.True(t, last.Equal(testStart))
}

func TestSchedulerRunOnceReportsUploadFailure(t *testing.T) {
	dbPath := setupTestDB(t)
	up := &fakeUploader{err: errors.New("bucket unreachable")}

	sched, err := NewScheduler("@daily", NewManager(dbPath), up, nil)
	require.NoError(t, err)

	err = sched.RunOnce(context.Background())
	require.Error(t, err)
	_, lastErr := sched.LastRun()
	assert.ErrorContains(t, lastErr, "bucket unreachable")
}

func TestSchedulerWithoutUploader(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath, WithClock(utils.NewFixedClock(testStart)))

	sched, err := NewScheduler("*/5 * * * *", mgr, nil, time.UTC)
	require.NoError(t, err)
	require.NoError(t, sched.RunOnce(context.Background()))

	backups, err := mgr.ListBackups()
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestSchedulerStartStop(t *testing.T) {
	dbPath := setupTestDB(t)
	sched, err := NewScheduler("0 3 * * *", NewManager(dbPath), nil, time.UTC)
	require.NoError(t, err)

	assert.True(t, sched.Next().IsZero())
	sched.Start()
	next := sched.Next()
	assert.False(t, next.IsZero())
	assert.Equal(t, 3, next.UTC().Hour())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sched.Stop(ctx)
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 3 * * *"))
	assert.NoError(t, ValidateSchedule("@hourly"))
	assert.Error(t, ValidateSchedule("0 0 3 * * *"))
	assert.Error(t, ValidateSchedule("not a schedule"))
}

func TestBackupDirectoryCreation(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	_, err := os.Stat(mgr.GetBackupDir())
	require.True(t, os.IsNotExist(err))

	_, err = mgr.CreateBackup()
	require.NoError(t, err)

	info, err := os.Stat(mgr.GetBackupDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestRestoreWithCorruptedBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	corrupted := filepath.Join(t.TempDir(), "streakline-20240101-000000.db")
	require.NoError(t, os.WriteFile(corrupted, []byte("garbage"), 0600))

	_, err := mgr.RestoreBackup(corrupted)
	require.Error(t, err)
	assert.Equal(t, 2, countHabits(t, dbPath))
}
