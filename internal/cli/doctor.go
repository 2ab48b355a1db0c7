package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/streak"
)

type DoctorCmd struct{}

type checkResult int

const (
	checkOK checkResult = iota
	checkWarn
	checkFail
	checkSkipped
)

type doctorCheck struct {
	name string
	// needsDB checks are skipped when the database is unreachable.
	needsDB bool
	run     func(ctx *Context) (checkResult, string)
}

var doctorChecks = []doctorCheck{
	{"Schema version", true, checkSchemaVersion},
	{"Migrations complete", true, checkMigrationsComplete},
	{"Backups present", false, checkBackupsPresent},
	{"Habit data", true, checkHabits},
	{"Streak consistency", true, checkStreaks},
	{"Clock/timezone", false, checkClockTimezone},
}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	ctx.println("Running diagnostics...")
	ctx.println()

	hasError := false
	report := func(name string, res checkResult, detail string) {
		switch res {
		case checkOK:
			ctx.printf("✓ %s: OK\n", name)
		case checkWarn:
			ctx.printf("⚠ %s: WARNING\n", name)
		case checkFail:
			ctx.printf("❌ %s: FAIL\n", name)
			hasError = true
		case checkSkipped:
			ctx.printf("⊘ %s: SKIPPED (database not reachable)\n", name)
		}
		if detail != "" {
			for _, line := range strings.Split(detail, "\n") {
				ctx.printf("   %s\n", line)
			}
		}
	}

	dbReachable := true
	if err := checkDBReachable(ctx); err != nil {
		report("Database reachable", checkFail, "Error: "+err.Error())
		dbReachable = false
	} else {
		report("Database reachable", checkOK, "")
	}

	for _, check := range doctorChecks {
		if check.needsDB && !dbReachable {
			report(check.name, checkSkipped, "")
			continue
		}
		res, detail := check.run(ctx)
		report(check.name, res, detail)
	}

	ctx.println()
	if hasError {
		ctx.println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	db := ctx.Store.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	var result int
	if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *Context) (checkResult, string) {
	current, latest, err := ctx.Store.SchemaVersion()
	if err != nil {
		return checkFail, "Error: " + err.Error()
	}
	if current > latest {
		return checkFail, fmt.Sprintf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return checkOK, ""
}

func checkMigrationsComplete(ctx *Context) (checkResult, string) {
	current, latest, err := ctx.Store.SchemaVersion()
	if err != nil {
		return checkFail, "Error: " + err.Error()
	}
	if current < latest {
		return checkFail, fmt.Sprintf("migrations incomplete: current version %d, latest version %d (run '%s migrate')", current, latest, constants.AppName)
	}
	return checkOK, ""
}

func checkBackupsPresent(ctx *Context) (checkResult, string) {
	mgr, err := ctx.backupManager()
	if err != nil {
		return checkOK, "backups are managed outside streakline for PostgreSQL"
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return checkWarn, fmt.Sprintf("failed to list backups: %v", err)
	}
	if len(backups) == 0 {
		return checkWarn, fmt.Sprintf("no backups found - consider creating one with '%s backup create'", constants.AppName)
	}
	return checkOK, ""
}

func checkHabits(ctx *Context) (checkResult, string) {
	habits, err := ctx.Tracker.ListAllHabits(context.Background())
	if err != nil {
		return checkFail, "Error: " + err.Error()
	}

	var problems []string
	for _, h := range habits {
		nh := models.NewHabit{Name: h.Name, TargetCount: h.TargetCount, TargetType: h.TargetType, TargetUnits: h.TargetUnits}
		if err := nh.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("habit %d: %v", h.ID, err))
		}
	}
	if len(problems) > 0 {
		return checkFail, strings.Join(problems, "\n")
	}
	return checkOK, ""
}

// checkStreaks compares stored streaks with a fresh walk of the completions. A current
// streak that has lapsed since the last write is only stale, not corrupt.
func checkStreaks(ctx *Context) (checkResult, string) {
	bg := context.Background()
	habits, err := ctx.Tracker.ListAllHabits(bg)
	if err != nil {
		return checkFail, "Error: " + err.Error()
	}

	norm := ctx.Normalizer()
	result := checkOK
	var notes []string
	for _, h := range habits {
		stored, err := ctx.Tracker.GetStreak(bg, h.ID)
		if err != nil {
			return checkFail, "Error: " + err.Error()
		}
		completions, err := ctx.Tracker.ListCompletions(bg, h.ID)
		if err != nil {
			return checkFail, "Error: " + err.Error()
		}
		if stored == nil {
			if len(completions) > 0 {
				result = checkFail
				notes = append(notes, fmt.Sprintf("habit %d: has completions but no streak (run '%s streak recompute %d')", h.ID, constants.AppName, h.ID))
			}
			continue
		}
		if stored.LongestStreak < stored.CurrentStreak {
			result = checkFail
			notes = append(notes, fmt.Sprintf("habit %d: longest streak %d is below current streak %d", h.ID, stored.LongestStreak, stored.CurrentStreak))
			continue
		}
		if fresh := streak.Calculate(completions, norm.Now(), norm); fresh != stored.CurrentStreak {
			if result == checkOK {
				result = checkWarn
			}
			notes = append(notes, fmt.Sprintf("habit %d: stored current streak %d, completions give %d (run '%s streak recompute %d')", h.ID, stored.CurrentStreak, fresh, constants.AppName, h.ID))
		}
	}
	return result, strings.Join(notes, "\n")
}

func checkClockTimezone(ctx *Context) (checkResult, string) {
	now := ctx.Normalizer().Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return checkFail, fmt.Sprintf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	loc := ctx.Normalizer().Location()
	if loc == time.UTC {
		return checkOK, "timezone is UTC; set --timezone or " + constants.EnvTimezone + " to count days in local time"
	}
	return checkOK, ""
}
