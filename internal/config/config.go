// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"quill/internal/service"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	HTTPAddr      string
	WorkerCount   int
	LogLevel      log.Lvl
	// 每個 IP 每秒可嘗試登入次數
	SignInRateLimit float64

	JWTSecret         []byte
	SessionTTL        time.Duration
	ResetTokenTTL     time.Duration
	ConfirmTokenTTL   time.Duration
	UnlockTokenTTL    time.Duration
	MaxFailedAttempts int
	UnlockAfter       time.Duration
	BcryptCost        int
}

var (
	lookupEnv   = os.LookupEnv
	loadDotEnv  = func() error { return godotenv.Load() }
	logLevels   = map[string]log.Lvl{"debug": log.DEBUG, "info": log.INFO, "warn": log.WARN, "error": log.ERROR, "off": log.OFF}
	errRequired = errors.New("未設定")
)

// Load 讀取環境變數；目錄下有 .env 時先載入，不覆蓋已存在的變數
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("讀取 .env 失敗: %w", err)
	}

	cfg := &Config{}
	var err error
	if cfg.DatabaseURL, err = required("DATABASE_URL"); err != nil {
		return nil, err
	}
	if cfg.RedisAddr, err = required("REDIS_ADDR"); err != nil {
		return nil, err
	}
	redisDB, err := required("REDIS_DB")
	if err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = strconv.Atoi(redisDB); err != nil || cfg.RedisDB < 0 {
		return nil, fmt.Errorf("無效的 REDIS_DB: %q", redisDB)
	}
	secret, err := required("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.JWTSecret = []byte(secret)

	cfg.RedisPassword = optional("REDIS_PASSWORD", "")
	cfg.HTTPAddr = optional("HTTP_ADDR", ":8080")

	if cfg.WorkerCount, err = intVar("WORKER_COUNT", 1, 1); err != nil {
		return nil, err
	}
	if cfg.MaxFailedAttempts, err = intVar("MAX_FAILED_ATTEMPTS", 5, 1); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = intVar("BCRYPT_COST", bcrypt.DefaultCost, bcrypt.MinCost); err != nil {
		return nil, err
	}
	if cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("無效的 BCRYPT_COST: %d", cfg.BcryptCost)
	}

	durations := []struct {
		name string
		def  time.Duration
		dst  *time.Duration
	}{
		{"SESSION_TTL", 24 * time.Hour, &cfg.SessionTTL},
		{"RESET_TOKEN_TTL", 6 * time.Hour, &cfg.ResetTokenTTL},
		{"CONFIRM_TOKEN_TTL", 72 * time.Hour, &cfg.ConfirmTokenTTL},
		{"UNLOCK_TOKEN_TTL", time.Hour, &cfg.UnlockTokenTTL},
		{"UNLOCK_AFTER", time.Hour, &cfg.UnlockAfter},
	}
	for _, d := range durations {
		if *d.dst, err = durationVar(d.name, d.def); err != nil {
			return nil, err
		}
	}

	rate := optional("SIGNIN_RATE_LIMIT", "10")
	if cfg.SignInRateLimit, err = strconv.ParseFloat(rate, 64); err != nil || cfg.SignInRateLimit < 0 {
		return nil, fmt.Errorf("無效的 SIGNIN_RATE_LIMIT: %q", rate)
	}

	level := optional("LOG_LEVEL", "info")
	lvl, ok := logLevels[level]
	if !ok {
		return nil, fmt.Errorf("無效的 LOG_LEVEL: %q", level)
	}
	cfg.LogLevel = lvl
	return cfg, nil
}

// AuthOptions 轉成 service.Authenticator 的設定
func (c *Config) AuthOptions() service.Options {
	return service.Options{
		Secret:            c.JWTSecret,
		SessionTTL:        c.SessionTTL,
		ResetTokenTTL:     c.ResetTokenTTL,
		ConfirmTokenTTL:   c.ConfirmTokenTTL,
		UnlockTokenTTL:    c.UnlockTokenTTL,
		MaxFailedAttempts: c.MaxFailedAttempts,
		UnlockAfter:       c.UnlockAfter,
		BcryptCost:        c.BcryptCost,
	}
}

func required(name string) (string, error) {
	v, ok := lookupEnv(name)
	if !ok || v == "" {
		return "", fmt.Errorf("環境變數 %s %w", name, errRequired)
	}
	return v, nil
}

func optional(name, def string) string {
	if v, ok := lookupEnv(name); ok && v != "" {
		return v
	}
	return def
}

func intVar(name string, def, minValue int) (int, error) {
	v := optional(name, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < minValue {
		return 0, fmt.Errorf("無效的 %s: %q", name, v)
	}
	return n, nil
}

// durationVar 接受 time.ParseDuration 格式；UNLOCK_AFTER=0 表示只能用 unlock token 解鎖
func durationVar(name string, def time.Duration) (time.Duration, error) {
	v := optional(name, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("無效的 %s: %q", name, v)
	}
	return d, nil
}
