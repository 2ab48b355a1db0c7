package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/streakline/internal/cli"
	"github.com/julianstephens/streakline/internal/config"
	"github.com/julianstephens/streakline/internal/constants"
	apperrors "github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/logger"
	"github.com/julianstephens/streakline/internal/utils"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"SQLite database path or PostgreSQL connection string. PostgreSQL credentials must NOT be embedded here; use STREAKLINE_DB_CONNECTION, the OS keyring or .pgpass instead." type:"string" default:"~/.config/streakline/streakline.db" env:"STREAKLINE_CONFIG"`
	Timezone string `help:"IANA timezone used to decide calendar days." default:"Local" env:"STREAKLINE_TIMEZONE"`
	Debug    bool   `help:"Enable debug logging to stderr." env:"STREAKLINE_DEBUG"`
	Format   string `help:"Output format." enum:"text,json,yaml" default:"text" short:"o"`

	Init        cli.InitCmd        `cmd:"" help:"Initialize streakline storage."`
	Migrate     cli.MigrateCmd     `cmd:"" help:"Run database migrations."`
	Doctor      cli.DoctorCmd      `cmd:"" help:"Run health checks and diagnostics."`
	Tui         cli.TuiCmd         `cmd:"" help:"Launch the interactive dashboard." default:"1"`
	Serve       cli.ServeCmd       `cmd:"" help:"Run the HTTP API."`
	Habit       cli.HabitCmd       `cmd:"" help:"Manage habits."`
	Complete    cli.CompleteCmd    `cmd:"" help:"Record a completion for a habit."`
	Completions cli.CompletionsCmd `cmd:"" help:"List or delete completions."`
	Streak      cli.StreakCmd      `cmd:"" help:"Show or rebuild streaks."`
	Backup      cli.BackupCmd      `cmd:"" help:"Manage database backups."`
	Conf        cli.ConfigCmd      `cmd:"" name:"config" help:"Manage the stored database connection."`
	Inspect     cli.DebugCmd       `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
}

// noLoad lists commands that run before, or without, a usable database.
var noLoad = map[string]bool{
	"init":   true,
	"config": true,
}

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		apperrors.Fatal(err)
	}

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with completion history and streaks"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)
	command := strings.Fields(ctx.Command())[0]

	conn, err := config.ResolveConnection(CLI.Config, config.DefaultLookup())
	if err != nil {
		apperrors.Fatal(err)
	}

	norm, err := utils.NewNormalizerForTimezone(CLI.Timezone)
	if err != nil {
		apperrors.Fatal(err)
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: config.ConfigDir(conn),
		Stderr:    command == "serve",
	}); err != nil {
		// Logging is best effort; commands still run without a log file.
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	store := config.OpenStore(conn, norm)
	if !noLoad[command] {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
	}

	appCtx := cli.NewContext(store, conn, cli.Format(CLI.Format))
	appCtx.Debug = CLI.Debug

	err = ctx.Run(appCtx)
	if closeErr := store.Close(); closeErr != nil {
		logger.Warn("failed to close storage", "error", closeErr)
	}
	apperrors.Fatal(err)
}
