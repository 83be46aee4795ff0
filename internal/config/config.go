package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	RankingTTLSeconds     int
	RevealTokenCost       int
	MetricsEnabled        bool
	AuthSecret            string
	AccessTokenTTLMinutes int
	ApprovalPIN           string
}

// Load reads configuration from the environment, after loading a local .env
// file when one exists. Real environment variables win over .env entries.
func Load() Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, err := strconv.Atoi(getEnv("RANKING_TTL_SECONDS", "20"))
	if err != nil || ttl < 1 {
		ttl = 20
	}
	revealCost, err := strconv.Atoi(getEnv("REVEAL_TOKEN_COST", "1"))
	if err != nil || revealCost < 1 {
		revealCost = 1
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		RankingTTLSeconds:     ttl,
		RevealTokenCost:       revealCost,
		MetricsEnabled:        getEnv("METRICS_ENABLED", "true") != "false",
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		ApprovalPIN:           strings.TrimSpace(os.Getenv("APPROVAL_PIN")),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
