package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/streakline/internal/api"
	"github.com/julianstephens/streakline/internal/backup"
	"github.com/julianstephens/streakline/internal/cache"
	"github.com/julianstephens/streakline/internal/config"
	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/logger"
	"github.com/julianstephens/streakline/internal/metrics"
	"github.com/julianstephens/streakline/internal/tracker"
)

type ServeCmd struct {
	Addr           string   `help:"Address to listen on." default:":3000" env:"STREAKLINE_ADDR"`
	RedisAddr      string   `help:"Redis address for the streak cache (disabled when empty)." env:"STREAKLINE_REDIS_ADDR"`
	RedisPassword  string   `help:"Redis password." env:"STREAKLINE_REDIS_PASSWORD"`
	BackupSchedule string   `help:"Cron expression for automatic SQLite backups, e.g. '0 3 * * *'." env:"STREAKLINE_BACKUP_SCHEDULE"`
	BackupBucket   string   `help:"S3 bucket that scheduled backups are uploaded to." env:"STREAKLINE_BACKUP_BUCKET"`
	AllowedOrigins []string `help:"CORS origins (default: all)." env:"STREAKLINE_ALLOWED_ORIGINS"`
}

func (c *ServeCmd) server() config.Server {
	addr := c.Addr
	if addr == "" {
		addr = constants.DefaultServerAddr
	}
	return config.Server{
		Addr:           addr,
		RedisAddr:      c.RedisAddr,
		RedisPassword:  c.RedisPassword,
		BackupSchedule: c.BackupSchedule,
		S3:             config.LoadS3Config(os.LookupEnv, c.BackupBucket),
	}
}

func (c *ServeCmd) Run(ctx *Context) error {
	cfg := c.server()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	opts := []tracker.Option{tracker.WithMetrics(m)}

	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis(sigCtx, cache.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			return err
		}
		defer redisCache.Close()
		opts = append(opts, tracker.WithCache(redisCache))
		logger.Info("streak cache enabled", "addr", cfg.RedisAddr)
	}
	ctx.Tracker = tracker.New(ctx.Store, opts...)

	if cfg.BackupSchedule != "" {
		sched, err := c.scheduler(ctx, cfg)
		if err != nil {
			return err
		}
		sched.Start()
		logger.Info("backup schedule enabled", "schedule", cfg.BackupSchedule, "next", sched.Next())
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	}

	srv := api.NewServer(ctx.Tracker, api.Options{Metrics: m, AllowedOrigins: c.AllowedOrigins})
	ctx.printf("Serving %s API on %s\n", constants.AppName, cfg.Addr)
	return srv.ListenAndServe(sigCtx, cfg.Addr)
}

func (c *ServeCmd) scheduler(ctx *Context, cfg config.Server) (*backup.Scheduler, error) {
	mgr, err := ctx.backupManager()
	if err != nil {
		return nil, err
	}

	var up backup.Uploader
	if cfg.S3.Enabled() {
		mu, err := backup.NewMinIOUploader(cfg.S3)
		if err != nil {
			return nil, err
		}
		up = mu
	} else if cfg.S3.Bucket != "" {
		return nil, fmt.Errorf("--backup-bucket needs %s, %s and %s", constants.EnvS3Endpoint, constants.EnvS3AccessKey, constants.EnvS3SecretKey)
	}

	return backup.NewScheduler(cfg.BackupSchedule, mgr, up, ctx.Normalizer().Location())
}
