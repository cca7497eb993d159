// Package redis は検出結果キャッシュ用のRedisクライアントを生成します。
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	EnvKeyURL      = "REDIS_URL"
	EnvKeyHost     = "REDIS_HOST"
	EnvKeyPort     = "REDIS_PORT"
	EnvKeyPassword = "REDIS_PASSWORD"
	EnvKeyDB       = "REDIS_DB"

	defaultPort = "6379"
	pingTimeout = 3 * time.Second
)

// Config はRedis接続の設定です。URLが指定された場合はHost/Portより優先されます。
type Config struct {
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
}

// LoadConfig は環境変数からRedisの設定を読み込みます。
func LoadConfig() (Config, error) {
	cfg := Config{
		URL:      os.Getenv(EnvKeyURL),
		Host:     os.Getenv(EnvKeyHost),
		Port:     os.Getenv(EnvKeyPort),
		Password: os.Getenv(EnvKeyPassword),
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if v := os.Getenv(EnvKeyDB); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvKeyDB, err)
		}
		cfg.DB = db
	}
	return cfg, nil
}

// Enabled はRedisの接続先が設定されているかを返します。
func (c Config) Enabled() bool {
	return c.URL != "" || c.Host != ""
}

// Options はgo-redisのクライアントオプションを組み立てます。
func (c Config) Options() (*redis.Options, error) {
	if c.URL != "" {
		opt, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvKeyURL, err)
		}
		return opt, nil
	}
	return &redis.Options{
		Addr:     c.Host + ":" + c.Port,
		Password: c.Password,
		DB:       c.DB,
	}, nil
}

// NewRedisClient はクライアントを生成し、接続を確認します。
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	opt, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)

	// 接続確認
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", opt.Addr, "error", err)
		_ = rdb.Close()
		return nil, err
	}

	slog.Info("Redis connection successful", "address", opt.Addr, "db", opt.DB)
	return rdb, nil
}
