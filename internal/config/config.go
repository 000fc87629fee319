package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"learn-activity/internal/domain"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		LockTTL  string `yaml:"lock_ttl"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  string `yaml:"token_ttl"`
	} `yaml:"auth"`
	Quiz struct {
		PassingScore  int    `yaml:"passing_score"`
		MaxAttempts   int    `yaml:"max_attempts"`
		PassPoints    int    `yaml:"pass_points"`
		FailPoints    int    `yaml:"fail_points"`
		PerfectPoints int    `yaml:"perfect_points"`
		ContentTTL    string `yaml:"content_ttl"`
	} `yaml:"quiz"`
	Leaderboard struct {
		Limit int `yaml:"limit"`
	} `yaml:"leaderboard"`
}

// Load reads YAML config from path and applies environment overrides.
// A missing file is not an error; the original deployment configures
// everything through the environment.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func defaults() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Redis.LockTTL = "10m"
	cfg.Auth.TokenTTL = "24h"
	cfg.Quiz.PassingScore = 70
	cfg.Quiz.MaxAttempts = 3
	cfg.Quiz.PassPoints = 30
	cfg.Quiz.FailPoints = 0
	cfg.Quiz.PerfectPoints = 50
	cfg.Quiz.ContentTTL = "10m"
	cfg.Leaderboard.Limit = 10
	return cfg
}

func (c *Config) applyEnv() {
	envString(&c.Server.Port, "PORT")
	envString(&c.Postgres.URL, "DATABASE_URL")
	envString(&c.Redis.Addr, "REDIS_ADDR")
	envString(&c.Redis.Password, "REDIS_PASSWORD")
	envString(&c.Auth.JWTSecret, "JWT_SECRET")
	envInt(&c.Quiz.PassingScore, "PASSING_SCORE")
	envInt(&c.Quiz.MaxAttempts, "MAX_QUIZ_ATTEMPTS")
	envInt(&c.Quiz.PassPoints, "REP_POINTS_PASS")
	envInt(&c.Quiz.FailPoints, "REP_POINTS_FAIL")
	envInt(&c.Quiz.PerfectPoints, "REP_POINTS_PERFECT_SCORE")
}

// Rules builds the reward rules the scoring engine runs with.
func (c Config) Rules() domain.RewardRules {
	return domain.RewardRules{
		PassingScore:  c.Quiz.PassingScore,
		MaxAttempts:   c.Quiz.MaxAttempts,
		PassPoints:    c.Quiz.PassPoints,
		FailPoints:    c.Quiz.FailPoints,
		PerfectPoints: c.Quiz.PerfectPoints,
	}
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// TTLDuration parses a duration string or returns the fallback if empty or invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
