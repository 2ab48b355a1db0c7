package cli

import (
	"context"

	"github.com/julianstephens/streakline/internal/logger"
	"github.com/julianstephens/streakline/internal/tui"
)

type TuiCmd struct {
	NoBackup bool `help:"Skip the automatic backup taken on startup."`
}

func (c *TuiCmd) Run(ctx *Context) error {
	if !c.NoBackup && !ctx.Conn.IsPostgres() {
		ctx.performAutomaticBackup()
	}
	return tui.Run(context.Background(), ctx.Tracker)
}

// performAutomaticBackup snapshots the database before an interactive session.
// Failures are logged and never block startup.
func (c *Context) performAutomaticBackup() {
	mgr, err := c.backupManager()
	if err != nil {
		logger.Warn("automatic backup skipped", "error", err)
		return
	}
	path, err := mgr.CreateBackup()
	if err != nil {
		logger.Warn("automatic backup failed", "error", err)
		return
	}
	logger.Debug("automatic backup created", "path", path)
}
