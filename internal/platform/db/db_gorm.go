// Package db はcrop event記録用のデータベース接続を提供します。
package db

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultPort    = "5432"
	defaultSSLMode = "disable"
	connectTimeout = 60 * time.Second
	retryInterval  = 3 * time.Second
)

// Config はデータベース接続の設定です。
type Config struct {
	Driver       string // postgres または sqlite
	URL          string // DATABASE_URL。指定された場合は個別の項目より優先
	User         string
	Password     string
	Name         string
	Host         string
	Port         string
	InstanceName string // Cloud SQLのインスタンス接続名
	SSLMode      string
	SQLitePath   string
	Migrate      bool
}

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv() Config {
	cfg := Config{
		Driver:       strings.ToLower(os.Getenv("DB_DRIVER")),
		URL:          os.Getenv("DATABASE_URL"),
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
		Name:         os.Getenv("DB_NAME"),
		Host:         os.Getenv("DB_HOST"),
		Port:         os.Getenv("DB_PORT"),
		InstanceName: os.Getenv("INSTANCE_CONNECTION_NAME"),
		SSLMode:      os.Getenv("DB_SSLMODE"),
		SQLitePath:   os.Getenv("SQLITE_PATH"),
		Migrate:      os.Getenv("RUN_MIGRATIONS") == "true",
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverPostgres
		if cfg.SQLitePath != "" {
			cfg.Driver = DriverSQLite
		}
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = defaultSSLMode
	}
	return cfg
}

// Enabled は接続先が設定されているかを返します。未設定の場合、crop eventは記録されません。
func (c Config) Enabled() bool {
	if c.Driver == DriverSQLite {
		return c.SQLitePath != ""
	}
	return c.URL != "" || c.Host != "" || c.InstanceName != ""
}

// BuildDSN はPostgreSQLのDSNを組み立てます。Cloud SQLのインスタンス名があればUnixソケットを使います。
func BuildDSN(cfg Config) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	host, port := cfg.Host, cfg.Port
	if cfg.InstanceName != "" {
		host = "/cloudsql/" + cfg.InstanceName
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
}

// Opener はDSNからgorm.DBを開く関数です。
type Opener func(dsn string) (*gorm.DB, error)

// ConnectWithRetry はtimeoutに達するまで一定間隔で接続を再試行します。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "interval", retryInterval)
		time.Sleep(retryInterval)
	}
}

// OpenDB は設定に応じてPostgreSQLまたはSQLiteに接続します。
// cfg.Migrateがtrueの場合、modelsのテーブルを自動作成します。
func OpenDB(cfg Config, models ...any) (*gorm.DB, error) {
	var (
		dsn  string
		open Opener
	)
	switch cfg.Driver {
	case DriverSQLite:
		dsn = cfg.SQLitePath
		open = func(dsn string) (*gorm.DB, error) { return gorm.Open(sqlite.Open(dsn), &gorm.Config{}) }
	case DriverPostgres:
		dsn = BuildDSN(cfg)
		open = func(dsn string) (*gorm.DB, error) { return gorm.Open(postgres.Open(dsn), &gorm.Config{}) }
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	db, err := ConnectWithRetry(dsn, connectTimeout, open)
	if err != nil {
		return nil, err
	}

	if cfg.Migrate && len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	slog.Info("database connected", "driver", cfg.Driver, "migrated", cfg.Migrate)
	return db, nil
}
