package sqldb

import "testing"

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		query   string
		want    string
	}{
		{"sqlite untouched", SQLite, "SELECT * FROM habits WHERE id = ? AND name = ?", "SELECT * FROM habits WHERE id = ? AND name = ?"},
		{"postgres numbered", Postgres, "SELECT * FROM habits WHERE id = ? AND name = ?", "SELECT * FROM habits WHERE id = $1 AND name = $2"},
		{"postgres no params", Postgres, "SELECT 1", "SELECT 1"},
		{"postgres many", Postgres, "VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", "VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.Rebind(tt.query); got != tt.want {
				t.Errorf("Rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}
