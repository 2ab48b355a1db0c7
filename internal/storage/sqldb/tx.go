// Package sqldb implements storage.Tx on database/sql for both supported drivers.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/migration"
	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/storage"
	"github.com/julianstephens/streakline/internal/utils"
)

// Dialect captures the few places where SQLite and PostgreSQL differ.
type Dialect struct {
	Driver migration.Driver
	// LockSuffix is appended to the row lookup done by LockHabit.
	LockSuffix string
}

var (
	SQLite   = Dialect{Driver: migration.DriverSQLite}
	Postgres = Dialect{Driver: migration.DriverPostgres, LockSuffix: " FOR UPDATE"}
)

// Rebind rewrites ? placeholders into the driver's positional form.
func (d Dialect) Rebind(query string) string {
	if d.Driver != migration.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// RunInTx begins a transaction on db and hands fn a storage.Tx bound to it.
func RunInTx(ctx context.Context, db *sql.DB, d Dialect, norm *utils.Normalizer, fn func(storage.Tx) error) error {
	if db == nil {
		return apperrors.Storage("begin", errors.New("database not loaded"))
	}
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Storage("begin", err)
	}
	if err := fn(&Tx{tx: sqlTx, d: d, norm: norm}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return apperrors.Storage("commit", err)
	}
	return nil
}

// Tx implements storage.Tx.
type Tx struct {
	tx   *sql.Tx
	d    Dialect
	norm *utils.Normalizer
}

var _ storage.Tx = (*Tx)(nil)

func (t *Tx) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.d.Rebind(query), args...)
}

func (t *Tx) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.d.Rebind(query), args...)
}

func (t *Tx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.d.Rebind(query), args...)
}

const habitColumns = `id, name, description, icon, color, target_count, target_type, target_units, created_at, archived_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (t *Tx) scanHabit(row rowScanner) (models.Habit, error) {
	var h models.Habit
	var targetType, createdAt string
	var archivedAt sql.NullString

	if err := row.Scan(&h.ID, &h.Name, &h.Description, &h.Icon, &h.Color,
		&h.TargetCount, &targetType, &h.TargetUnits, &createdAt, &archivedAt); err != nil {
		return models.Habit{}, err
	}
	h.TargetType = models.TargetType(targetType)

	var err error
	h.CreatedAt, err = t.norm.Parse(createdAt)
	if err != nil {
		return models.Habit{}, apperrors.Storage("parse habit created_at", err)
	}
	if archivedAt.Valid {
		at, err := t.norm.Parse(archivedAt.String)
		if err != nil {
			return models.Habit{}, apperrors.Storage("parse habit archived_at", err)
		}
		h.ArchivedAt = &at
	}
	return h, nil
}

func (t *Tx) GetHabit(ctx context.Context, id int64) (models.Habit, error) {
	h, err := t.scanHabit(t.queryRow(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, apperrors.NotFoundf("habit %d", id)
	}
	if err != nil {
		return models.Habit{}, apperrors.Storage("get habit", err)
	}
	return h, nil
}

func (t *Tx) LockHabit(ctx context.Context, id int64) error {
	var got int64
	err := t.queryRow(ctx, `SELECT id FROM habits WHERE id = ?`+t.d.LockSuffix, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFoundf("habit %d", id)
	}
	return apperrors.Storage("lock habit", err)
}

func (t *Tx) InsertHabit(ctx context.Context, h models.NewHabit, createdAt time.Time) (models.Habit, error) {
	created := t.norm.Format(createdAt)
	var id int64
	err := t.queryRow(ctx, `
		INSERT INTO habits (name, description, icon, color, target_count, target_type, target_units, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		h.Name, h.Description, h.Icon, h.Color, h.TargetCount, string(h.TargetType), h.TargetUnits, created,
	).Scan(&id)
	if err != nil {
		return models.Habit{}, apperrors.Storage("insert habit", err)
	}

	// Read back so the caller sees the stored precision.
	return t.GetHabit(ctx, id)
}

func (t *Tx) ListHabits(ctx context.Context, includeArchived bool) ([]models.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits`
	if !includeArchived {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY id`

	rows, err := t.query(ctx, query)
	if err != nil {
		return nil, apperrors.Storage("list habits", err)
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := t.scanHabit(rows)
		if err != nil {
			return nil, apperrors.Storage("scan habit", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("list habits", err)
	}
	return habits, nil
}

func (t *Tx) ArchiveHabit(ctx context.Context, id int64, at time.Time) error {
	res, err := t.exec(ctx, `UPDATE habits SET archived_at = ? WHERE id = ?`, t.norm.Format(at), id)
	if err != nil {
		return apperrors.Storage("archive habit", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Storage("archive habit", err)
	}
	if n == 0 {
		return apperrors.NotFoundf("habit %d", id)
	}
	return nil
}

const completionColumns = `id, habit_id, completed_at, count`

func (t *Tx) scanCompletion(row rowScanner) (models.Completion, error) {
	var c models.Completion
	var completedAt string
	if err := row.Scan(&c.ID, &c.HabitID, &completedAt, &c.Count); err != nil {
		return models.Completion{}, err
	}
	at, err := t.norm.Parse(completedAt)
	if err != nil {
		return models.Completion{}, apperrors.Storage("parse completed_at", err)
	}
	c.CompletedAt = at
	return c, nil
}

func (t *Tx) InsertCompletion(ctx context.Context, habitID int64, count int, completedAt time.Time) (models.Completion, error) {
	stamp := t.norm.Format(completedAt)
	var id int64
	err := t.queryRow(ctx, `
		INSERT INTO habit_completions (habit_id, completed_at, count)
		VALUES (?, ?, ?)
		RETURNING id`, habitID, stamp, count).Scan(&id)
	if err != nil {
		return models.Completion{}, apperrors.Storage("insert completion", err)
	}

	at, err := t.norm.Parse(stamp)
	if err != nil {
		return models.Completion{}, apperrors.Storage("parse completed_at", err)
	}
	return models.Completion{ID: id, HabitID: habitID, CompletedAt: at, Count: count}, nil
}

func (t *Tx) GetCompletion(ctx context.Context, id int64) (models.Completion, error) {
	c, err := t.scanCompletion(t.queryRow(ctx, `SELECT `+completionColumns+` FROM habit_completions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Completion{}, apperrors.NotFoundf("completion %d", id)
	}
	if err != nil {
		return models.Completion{}, apperrors.Storage("get completion", err)
	}
	return c, nil
}

func (t *Tx) ListCompletions(ctx context.Context, habitID int64) ([]models.Completion, error) {
	return t.listCompletions(ctx, `
		SELECT `+completionColumns+` FROM habit_completions
		WHERE habit_id = ?
		ORDER BY completed_at DESC, id DESC`, habitID)
}

// offsetSkew bounds how far apart two stored UTC offsets can be. Stamps are compared as
// text in SQL, which is only chronological while they share an offset, so range bounds
// are widened by it and the rows are filtered on their instants.
const offsetSkew = 26 * time.Hour

func (t *Tx) ListCompletionsInRange(ctx context.Context, habitID int64, start, end time.Time) ([]models.Completion, error) {
	if start.After(end) {
		return []models.Completion{}, nil
	}
	candidates, err := t.listCompletions(ctx, `
		SELECT `+completionColumns+` FROM habit_completions
		WHERE habit_id = ? AND completed_at >= ? AND completed_at <= ?`,
		habitID, t.norm.Format(start.Add(-offsetSkew)), t.norm.Format(end.Add(offsetSkew)))
	if err != nil {
		return nil, err
	}

	completions := candidates[:0]
	for _, c := range candidates {
		if !c.CompletedAt.Before(start) && !c.CompletedAt.After(end) {
			completions = append(completions, c)
		}
	}
	return completions, nil
}

func (t *Tx) listCompletions(ctx context.Context, query string, args ...any) ([]models.Completion, error) {
	rows, err := t.query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Storage("list completions", err)
	}
	defer rows.Close()

	completions := []models.Completion{}
	for rows.Next() {
		c, err := t.scanCompletion(rows)
		if err != nil {
			return nil, apperrors.Storage("scan completion", err)
		}
		completions = append(completions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("list completions", err)
	}

	// Most recent first by instant; stamps written under another timezone may not sort
	// that way as text.
	sort.SliceStable(completions, func(i, j int) bool {
		a, b := completions[i], completions[j]
		if !a.CompletedAt.Equal(b.CompletedAt) {
			return a.CompletedAt.After(b.CompletedAt)
		}
		return a.ID > b.ID
	})
	return completions, nil
}

func (t *Tx) DeleteCompletion(ctx context.Context, id int64) error {
	res, err := t.exec(ctx, `DELETE FROM habit_completions WHERE id = ?`, id)
	if err != nil {
		return apperrors.Storage("delete completion", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Storage("delete completion", err)
	}
	if n == 0 {
		return apperrors.NotFoundf("completion %d", id)
	}
	return nil
}

func (t *Tx) GetStreak(ctx context.Context, habitID int64) (*models.Streak, error) {
	var s models.Streak
	var last sql.NullString
	err := t.queryRow(ctx, `
		SELECT habit_id, current_streak, longest_streak, last_completed_at
		FROM habit_streaks WHERE habit_id = ?`, habitID,
	).Scan(&s.HabitID, &s.CurrentStreak, &s.LongestStreak, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Storage("get streak", err)
	}
	if last.Valid {
		at, err := t.norm.Parse(last.String)
		if err != nil {
			return nil, apperrors.Storage("parse last_completed_at", err)
		}
		s.LastCompletedAt = &at
	}
	return &s, nil
}

func (t *Tx) UpsertStreak(ctx context.Context, s models.Streak) error {
	var last sql.NullString
	if s.LastCompletedAt != nil {
		last = sql.NullString{String: t.norm.Format(*s.LastCompletedAt), Valid: true}
	}
	_, err := t.exec(ctx, `
		INSERT INTO habit_streaks (habit_id, current_streak, longest_streak, last_completed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (habit_id) DO UPDATE SET
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_completed_at = excluded.last_completed_at`,
		s.HabitID, s.CurrentStreak, s.LongestStreak, last)
	return apperrors.Storage("upsert streak", err)
}
