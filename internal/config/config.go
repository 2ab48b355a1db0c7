// Package config resolves where the database lives and how the server is wired.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/keyring"
	"github.com/julianstephens/streakline/internal/storage"
	"github.com/julianstephens/streakline/internal/storage/postgres"
	"github.com/julianstephens/streakline/internal/storage/sqlite"
	"github.com/julianstephens/streakline/internal/utils"
)

// LoadDotEnv loads KEY=value pairs from path into the environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Source says where a connection string came from.
type Source string

const (
	SourceFlag    Source = "flag"
	SourceEnv     Source = "env"
	SourceKeyring Source = "keyring"
	SourceDefault Source = "default"
)

// Connection is a resolved database location: a SQLite file path or a PostgreSQL
// connection string.
type Connection struct {
	Value  string
	Source Source
}

// IsPostgres reports whether the connection points at PostgreSQL.
func (c Connection) IsPostgres() bool {
	return IsPostgresConnString(c.Value)
}

// IsPostgresConnString reports whether s is a PostgreSQL URL or key=value DSN.
func IsPostgresConnString(s string) bool {
	return postgres.IsURL(s) || strings.Contains(s, "host=")
}

// Lookup abstracts the environment and keyring so resolution can be tested.
type Lookup struct {
	Env     func(string) (string, bool)
	Keyring func() (string, error)
}

// DefaultLookup reads the process environment and the OS keyring.
func DefaultLookup() Lookup {
	return Lookup{Env: os.LookupEnv, Keyring: keyring.GetConnectionString}
}

// ResolveConnection picks the database to use. An explicit --config wins; otherwise
// STREAKLINE_DB_CONNECTION, then the keyring, then the default SQLite path. A --config
// PostgreSQL string must not embed a password, since flags end up in shell history.
func ResolveConnection(configValue string, lookup Lookup) (Connection, error) {
	explicit := configValue != "" && configValue != constants.DefaultConfigPath
	if explicit {
		if IsPostgresConnString(configValue) && HasEmbeddedCredentials(configValue) {
			return Connection{}, fmt.Errorf("PostgreSQL connection strings with embedded credentials are not allowed on the command line; use %s, the OS keyring ('%s config set-connection') or a .pgpass file", constants.EnvDBConnection, constants.AppName)
		}
		if IsPostgresConnString(configValue) {
			return Connection{Value: configValue, Source: SourceFlag}, nil
		}
		path, err := ExpandHome(configValue)
		if err != nil {
			return Connection{}, err
		}
		return Connection{Value: path, Source: SourceFlag}, nil
	}

	if lookup.Env != nil {
		if v, ok := lookup.Env(constants.EnvDBConnection); ok && strings.TrimSpace(v) != "" {
			return Connection{Value: strings.TrimSpace(v), Source: SourceEnv}, nil
		}
	}

	if lookup.Keyring != nil {
		v, err := lookup.Keyring()
		switch {
		case err == nil && v != "":
			return Connection{Value: v, Source: SourceKeyring}, nil
		case err != nil && !errors.Is(err, keyring.ErrNotFound) && !errors.Is(err, keyring.ErrKeyringUnavailable):
			return Connection{}, err
		}
	}

	path, err := ExpandHome(constants.DefaultConfigPath)
	if err != nil {
		return Connection{}, err
	}
	return Connection{Value: path, Source: SourceDefault}, nil
}

// HasEmbeddedCredentials reports whether a PostgreSQL connection string carries a
// password.
func HasEmbeddedCredentials(connStr string) bool {
	_, err := postgres.ValidateConnString(connStr)
	return errors.Is(err, postgres.ErrEmbeddedCredentials)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ConfigDir is where logs and backups live for a connection: next to the SQLite file,
// or under the user config directory for PostgreSQL.
func ConfigDir(conn Connection) string {
	if !conn.IsPostgres() {
		return filepath.Dir(conn.Value)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, constants.AppName)
	}
	return filepath.Join(os.TempDir(), constants.AppName)
}

// OpenStore returns the storage provider for conn. The store is not yet loaded.
func OpenStore(conn Connection, norm *utils.Normalizer) storage.Provider {
	if conn.IsPostgres() {
		return postgres.New(conn.Value, norm)
	}
	return sqlite.NewStore(conn.Value, norm)
}

// S3Config holds the S3/MinIO endpoint used for off-site backups.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// Enabled reports whether enough is configured to upload anything.
func (c S3Config) Enabled() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// LoadS3Config reads the STREAKLINE_S3_* variables. bucket comes from the command line.
func LoadS3Config(env func(string) (string, bool), bucket string) S3Config {
	get := func(key string) string {
		if env == nil {
			return ""
		}
		v, _ := env(key)
		return strings.TrimSpace(v)
	}
	return S3Config{
		Endpoint:  get(constants.EnvS3Endpoint),
		AccessKey: get(constants.EnvS3AccessKey),
		SecretKey: get(constants.EnvS3SecretKey),
		UseSSL:    get(constants.EnvS3UseSSL) == "true",
		Bucket:    bucket,
	}
}

// Server holds the options of the HTTP server.
type Server struct {
	Addr           string
	RedisAddr      string
	RedisPassword  string
	BackupSchedule string
	S3             S3Config
}
