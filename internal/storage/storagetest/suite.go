// Package storagetest holds the behavior every storage.Provider must share. Driver
// packages run it from their own tests.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/storage"
)

// Factory returns an initialized, empty provider. It registers its own cleanup.
type Factory func(t *testing.T) storage.Provider

// Run exercises a provider through its transactional query set.
func Run(t *testing.T, newProvider Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, p storage.Provider)
	}{
		{"Habits", testHabits},
		{"ArchiveHabit", testArchiveHabit},
		{"Completions", testCompletions},
		{"CompletionRange", testCompletionRange},
		{"DeleteCompletion", testDeleteCompletion},
		{"Streaks", testStreaks},
		{"Rollback", testRollback},
		{"LockHabit", testLockHabit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newProvider(t))
		})
	}
}

func newHabit(name string) models.NewHabit {
	return models.NewHabit{
		Name:        name,
		Description: name + " every day",
		Icon:        "*",
		Color:       "#22c55e",
		TargetCount: 1,
		TargetType:  models.TargetDaily,
		TargetUnits: "times",
	}
}

func insertHabit(t *testing.T, p storage.Provider, name string) models.Habit {
	t.Helper()
	var h models.Habit
	require.NoError(t, p.WithTx(context.Background(), func(tx storage.Tx) error {
		var err error
		h, err = tx.InsertHabit(context.Background(), newHabit(name), p.Normalizer().Now())
		return err
	}))
	return h
}

func testHabits(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	norm := p.Normalizer()
	created := norm.Now()

	a := insertHabit(t, p, "Read")
	b := insertHabit(t, p, "Run")
	assert.Less(t, a.ID, b.ID)
	assert.Equal(t, "Read", a.Name)
	assert.Equal(t, "Read every day", a.Description)
	assert.Equal(t, models.TargetDaily, a.TargetType)
	assert.True(t, a.CreatedAt.Equal(created), "created_at %v != %v", a.CreatedAt, created)
	assert.Nil(t, a.ArchivedAt)

	require.NoError(t, p.WithTx(ctx, func(tx storage.Tx) error {
		got, err := tx.GetHabit(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b, got)

		habits, err := tx.ListHabits(ctx, false)
		require.NoError(t, err)
		require.Len(t, habits, 2)
		assert.Equal(t, a.ID, habits[0].ID)

		_, err = tx.GetHabit(ctx, b.ID+100)
		assert.True(t, apperrors.IsNotFound(err))
		return nil
	}))
}

func testArchiveHabit(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	a := insertHabit(t, p, "Read")
	insertHabit(t, p, "Run")
	at := p.Normalizer().Now().Add(time.Hour)

	require.NoError(t, p.WithTx(ctx, func(tx storage.Tx) error {
		return tx.ArchiveHabit(ctx, a.ID, at)
	}))

	require.NoError(t, p.WithTx(ctx, func(tx storage.Tx) error {
		active, err := tx.ListHabits(ctx, false)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "Run", active[0].Name)

		all, err := tx.ListHabits(ctx, true)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		got, err := tx.GetHabit(ctx, a.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ArchivedAt)
		assert.True(t, got.ArchivedAt.Equal(at))

		err = tx.ArchiveHabit(ctx, a.ID+100, at)
		assert.True(t, apperrors.IsNotFound(err))
		return nil
	}))
}

func testCompletions(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	h := insertHabit(t, p, "Read")
	now := p.Normalizer().Now()

	var ids []int64
	require.NoError(t, p.WithTx(ctx, func(tx storage.Tx) error {
		// Inserted out of order on purpose; listing sorts by time.
		for _, offset := range []time.Duration{-48 * time.Hour, 0, -24 * time.Hour} {
			c, err := tx.InsertCompletion(ctx, h.ID, 2, now.Add(offset))
			require.NoError(t, err)
			assert.Equal(t, h.ID, c.HabitID)
			assert.Equal(t, 2, c.Count)
			ids = append(ids, c.ID)
		}
		return nil
	}))

	require.NoError(t, p.WithTx(ctx, func(tx storage.Tx) error {
		list, err := tx.ListCompletions(ctx, h.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, ids[1], list[0].ID)
		assert.Equal(t, ids[2], list[1].ID)
		assert.Equal(t, ids[0], list[2].ID)
		assert.True(t, list[0].CompletedAt.Equal(now))

		got, err := tx.GetCompletion(ctx, ids[0])
		require.NoError(t, err)
		assert.True(t, got.CompletedAt.Equal(now.Add(-48*time.Hour)))

		_, err = tx.GetCompletion(ctx, ids[2]+100)
		assert.True(t, apperrors.IsNotFound(err))

		empty, err := tx.ListCompletions(ctx, h.ID+100)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
		return nil
	}))
}

func testCompletionRange(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	norm := p.Normalizer()
	h := insertHabit(t, p, "Read")
	now := norm.Now()

	require.NoError(t, p.WithTx(ctx, func(tx storage.Tx) error {
		for day := 0; day < 5; day++ {
			_, err := tx.InsertCompletion(ctx, h.ID, 1, now.AddDate(0, 0, -day))
			require.NoError(t, err)
		}
		return nil
	}))

	require.NoError(t, p.WithTx(ctx, func(tx storage.Tx) error {
		start := norm.StartOfDay(now.AddDate(0, 0, -3))
		end := norm.EndOfDay(now.AddDate(0, 0, -1))
		got, err := tx.ListCompletionsInRange(ctx, h.ID, start, end)
		require.NoError(t, err)
		assert.Len(t, got, 3)
		for _, c := range got {
			assert.False(t, c.CompletedAt.Before(start))
			assert.False(t, c.CompletedAt.After(end))
		}

		inverted, err := tx.ListCompletionsInRange(ctx, h.ID, end, start)
		require.NoError(t, err)
		assert.Empty(t, inverted)
		return nil
	}))
}

func testDeleteCompletion(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	h := insertHabit(t, p, "Read")

	var c models.Completion
	require.NoError(t, p.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		c, err = tx.InsertCompletion(ctx, h.ID, 1, p.Normalizer().Now())
		return err
	}))

	require.NoError(t, p.WithTx(ctx, func(tx storage.Tx) error {
		return tx.DeleteCompletion(ctx, c.ID)
	}))

	err := p.WithTx(ctx, func(tx storage.Tx) error {
		return tx.DeleteCompletion(ctx, c.ID)
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func testStreaks(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	h := insertHabit(t, p, "Read")
	now := p.Normalizer().Now()

	require.NoError(t, p.WithTx(ctx, func(tx storage.Tx) error {
		s, err := tx.GetStreak(ctx, h.ID)
		require.NoError(t, err)
		assert.Nil(t, s)

		require.NoError(t, tx.UpsertStreak(ctx, models.Streak{HabitID: h.ID, CurrentStreak: 3, LongestStreak: 5, LastCompletedAt: &now}))
		s, err = tx.GetStreak(ctx, h.ID)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, 3, s.CurrentStreak)
		assert.Equal(t, 5, s.LongestStreak)
		require.NotNil(t, s.LastCompletedAt)
		assert.True(t, s.LastCompletedAt.Equal(now))

		require.NoError(t, tx.UpsertStreak(ctx, models.Streak{HabitID: h.ID, CurrentStreak: 0, LongestStreak: 5}))
		s, err = tx.GetStreak(ctx, h.ID)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, 0, s.CurrentStreak)
		assert.Nil(t, s.LastCompletedAt)
		return nil
	}))
}

func testRollback(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := p.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.InsertHabit(ctx, newHabit("Read"), p.Normalizer().Now()); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, p.WithTx(ctx, func(tx storage.Tx) error {
		habits, err := tx.ListHabits(ctx, true)
		require.NoError(t, err)
		assert.Empty(t, habits)
		return nil
	}))
}

func testLockHabit(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	h := insertHabit(t, p, "Read")

	require.NoError(t, p.WithTx(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.LockHabit(ctx, h.ID))
		assert.True(t, apperrors.IsNotFound(tx.LockHabit(ctx, h.ID+100)))
		return nil
	}))
}
