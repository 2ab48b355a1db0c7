package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/julianstephens/streakline/internal/migration"
	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/utils"
)

// Provider is a habit database. Every read and write goes through WithTx so that a
// completion change and the streak it affects commit together.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// WithTx runs fn inside one database transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(Tx) error) error

	// Normalizer is the clock and timezone used for every stored instant.
	Normalizer() *utils.Normalizer

	// SchemaVersion reports the applied and the latest embedded migration versions.
	SchemaVersion() (current, latest int, err error)

	// Utils
	Driver() migration.Driver
	GetConfigPath() string
	// GetDB returns the underlying connection, or nil before Init/Load.
	GetDB() *sql.DB
}

// Tx is the set of queries available inside a transaction.
type Tx interface {
	// Habits
	GetHabit(ctx context.Context, id int64) (models.Habit, error)
	// LockHabit blocks concurrent writers of the same habit until the transaction ends.
	LockHabit(ctx context.Context, id int64) error
	InsertHabit(ctx context.Context, h models.NewHabit, createdAt time.Time) (models.Habit, error)
	ListHabits(ctx context.Context, includeArchived bool) ([]models.Habit, error)
	ArchiveHabit(ctx context.Context, id int64, at time.Time) error

	// Completions
	InsertCompletion(ctx context.Context, habitID int64, count int, completedAt time.Time) (models.Completion, error)
	GetCompletion(ctx context.Context, id int64) (models.Completion, error)
	// ListCompletions returns a habit's completions, most recent first.
	ListCompletions(ctx context.Context, habitID int64) ([]models.Completion, error)
	// ListCompletionsInRange returns completions with start <= completed_at <= end,
	// most recent first.
	ListCompletionsInRange(ctx context.Context, habitID int64, start, end time.Time) ([]models.Completion, error)
	DeleteCompletion(ctx context.Context, id int64) error

	// Streaks
	// GetStreak returns nil, nil when the habit has no streak row.
	GetStreak(ctx context.Context, habitID int64) (*models.Streak, error)
	UpsertStreak(ctx context.Context, s models.Streak) error
}
