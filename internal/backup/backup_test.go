package backup

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/utils"
)

var testStart = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "streakline.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE habits (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`INSERT INTO habits (id, name) VALUES (1, 'Read')`,
		`INSERT INTO habits (id, name) VALUES (2, 'Run')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to prepare test database: %v", err)
		}
	}

	return dbPath
}

func countHabits(t *testing.T, dbPath string) int {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM habits").Scan(&count); err != nil {
		t.Fatalf("failed to count habits: %v", err)
	}
	return count
}

func TestCreateBackup(t *testing.T) {
	dbPath := setupTestDB(t)

	mgr := NewManager(dbPath, WithClock(utils.NewFixedClock(testStart)))
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		t.Errorf("backup file was not created: %s", backupPath)
	}

	want := constants.BackupFilePrefix + "20240315-100000" + constants.BackupFileSuffix
	if filepath.Base(backupPath) != want {
		t.Errorf("backup name = %s, want %s", filepath.Base(backupPath), want)
	}

	if got := countHabits(t, backupPath); got != 2 {
		t.Errorf("expected 2 habits in backup, got %d", got)
	}
}

func TestCreateBackupMissingDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	_, err := mgr.CreateBackup()
	if !errors.Is(err, ErrNoDatabase) {
		t.Fatalf("expected ErrNoDatabase, got %v", err)
	}
}

func TestBackupRotation(t *testing.T) {
	dbPath := setupTestDB(t)
	clock := utils.NewFixedClock(testStart)
	mgr := NewManager(dbPath, WithClock(clock))

	for i := 0; i < constants.MaxBackups+3; i++ {
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup %d failed: %v", i, err)
		}
		clock.Advance(time.Hour)
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != constants.MaxBackups {
		t.Fatalf("expected %d backups after rotation, got %d", constants.MaxBackups, len(backups))
	}

	// The three oldest are gone.
	oldest := backups[len(backups)-1].Timestamp
	wantOldest := time.Date(2024, 3, 15, 13, 0, 0, 0, time.Local)
	if !oldest.Equal(wantOldest) {
		t.Errorf("oldest kept backup = %v, want %v", oldest, wantOldest)
	}
}

func TestWithMaxBackups(t *testing.T) {
	dbPath := setupTestDB(t)
	clock := utils.NewFixedClock(testStart)
	mgr := NewManager(dbPath, WithClock(clock), WithMaxBackups(2))

	for i := 0; i < 5; i++ {
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup failed: %v", err)
		}
		clock.Advance(time.Minute)
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 2 {
		t.Errorf("expected 2 backups, got %d", len(backups))
	}
}

func TestListBackups(t *testing.T) {
	dbPath := setupTestDB(t)
	clock := utils.NewFixedClock(testStart)
	mgr := NewManager(dbPath, WithClock(clock))

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected 0 backups before any were created, got %d", len(backups))
	}

	for i := 0; i < 3; i++ {
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup failed: %v", err)
		}
		clock.Advance(24 * time.Hour)
	}

	// Unrelated files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(mgr.GetBackupDir(), "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	backups, err = mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(backups))
	}

	for i := 0; i < len(backups)-1; i++ {
		if !backups[i].Timestamp.After(backups[i+1].Timestamp) {
			t.Errorf("backups not sorted newest first at %d", i)
		}
	}
	for _, b := range backups {
		if b.Size <= 0 {
			t.Errorf("backup %s has size %d", b.Path, b.Size)
		}
	}
}

func TestRestoreBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	clock := utils.NewFixedClock(testStart)
	mgr := NewManager(dbPath, WithClock(clock))

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("INSERT INTO habits (id, name) VALUES (3, 'Meditate')"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if got := countHabits(t, dbPath); got != 3 {
		t.Fatalf("expected 3 habits before restore, got %d", got)
	}

	clock.Advance(time.Minute)
	preRestore, err := mgr.RestoreBackup(backupPath)
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}

	if got := countHabits(t, dbPath); got != 2 {
		t.Errorf("expected 2 habits after restore, got %d", got)
	}
	if preRestore == "" {
		t.Fatal("expected a pre-restore backup path")
	}
	if got := countHabits(t, preRestore); got != 3 {
		t.Errorf("expected pre-restore backup to hold 3 habits, got %d", got)
	}
	if _, err := os.Stat(dbPath + ".restore.tmp"); !os.IsNotExist(err) {
		t.Error("temporary restore file was left behind")
	}
}

func TestRestoreBackupWithoutCurrentDatabase(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath, WithClock(utils.NewFixedClock(testStart)))

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if err := os.Remove(dbPath); err != nil {
		t.Fatal(err)
	}

	preRestore, err := mgr.RestoreBackup(backupPath)
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	if preRestore != "" {
		t.Errorf("expected no pre-restore backup, got %s", preRestore)
	}
	if got := countHabits(t, dbPath); got != 2 {
		t.Errorf("expected 2 habits after restore, got %d", got)
	}
}

func TestRestoreMissingBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	_, err := mgr.RestoreBackup(filepath.Join(t.TempDir(), "nope.db"))
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected missing backup error, got %v", err)
	}
}

func TestVerifyBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	if err := mgr.verifyBackup(dbPath); err != nil {
		t.Errorf("verifyBackup failed for valid database: %v", err)
	}

	invalidPath := filepath.Join(t.TempDir(), "invalid.db")
	if err := os.WriteFile(invalidPath, []byte("not a database"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := mgr.verifyBackup(invalidPath); err == nil {
		t.Error("verifyBackup should fail for invalid database")
	}
}

func TestUniqueBackupFilenames(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath, WithClock(utils.NewFixedClock(testStart)))

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		path, err := mgr.CreateBackup()
		if err != nil {
			t.Fatalf("CreateBackup %d failed: %v", i, err)
		}
		if seen[path] {
			t.Errorf("duplicate backup filename: %s", path)
		}
		seen[path] = true
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 3 {
		t.Errorf("expected 3 backups with counters, got %d", len(backups))
	}
}

func TestParseBackupName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"streakline-20240315-100000.db", true},
		{"streakline-20240315-100000-2.db", true},
		{"streakline-2024.db", false},
		{"other-20240315-100000.db", false},
		{"streakline-20240315-100000.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parseBackupName(tt.name)
			if ok != tt.ok {
				t.Errorf("parseBackupName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
		})
	}
}
