package constants

import "time"

const (
	AppName            = "streakline"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/streakline/streakline.db"
	Version            = "v0.3.0"

	// DateFormat is the day format used for display and range arguments (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimestampFormat is the canonical storage format for instants. It is always rendered
	// in the normalizer's location and has fixed-width fractional seconds so that string
	// order matches time order.
	TimestampFormat = "2006-01-02T15:04:05.000000Z07:00"

	// LegacyTimestampFormat matches SQLite's CURRENT_TIMESTAMP output.
	LegacyTimestampFormat = "2006-01-02 15:04:05"

	// Environment variables
	EnvConfig           = "STREAKLINE_CONFIG"
	EnvTimezone         = "STREAKLINE_TIMEZONE"
	EnvDebug            = "STREAKLINE_DEBUG"
	EnvDBConnection     = "STREAKLINE_DB_CONNECTION"
	EnvS3Endpoint       = "STREAKLINE_S3_ENDPOINT"
	EnvS3AccessKey      = "STREAKLINE_S3_ACCESS_KEY"
	EnvS3SecretKey      = "STREAKLINE_S3_SECRET_KEY"
	EnvS3UseSSL         = "STREAKLINE_S3_USE_SSL"
	DefaultTimezone     = "Local"
	DefaultServerAddr   = ":3000"
	DefaultCompletionCt = 1

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "streakline-"
	BackupFileSuffix = ".db"

	// Storage tuning
	SQLiteBusyTimeoutMs = 5000
	PostgresMaxConns    = 25
	PostgresConnMaxLife = 5 * time.Minute

	// Streak cache
	StreakCacheTTL    = 30 * time.Second
	StreakCachePrefix = "streakline:streak:"
)
