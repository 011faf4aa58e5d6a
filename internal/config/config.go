package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/lemonhall/oa-mvp/internal/log"
)

// Settings holds everything the server needs from the environment.
type Settings struct {
	SecretKey      string
	AccessTokenTTL time.Duration
	Port           string
	DBConnStr      string
}

// Load reads settings from a .env file (if present) and the environment.
// OA_* variables mirror the application settings; DB_* variables assemble
// the Postgres connection string when OA_DB_URL is not given.
func Load() Settings {
	if err := godotenv.Load(); err != nil {
		log.GetLogger().Debugf("No .env file found or failed to load: %v", err)
	}

	s := Settings{
		SecretKey:      getenv("OA_SECRET_KEY", "dev-secret-change-me"),
		AccessTokenTTL: 8 * time.Hour,
		Port:           getenv("OA_PORT", "8000"),
		DBConnStr:      os.Getenv("OA_DB_URL"),
	}
	if raw := os.Getenv("OA_ACCESS_TOKEN_EXPIRE_MINUTES"); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			s.AccessTokenTTL = time.Duration(minutes) * time.Minute
		}
	}
	if s.DBConnStr == "" {
		s.DBConnStr = connStrFromEnv()
	}
	return s
}

func connStrFromEnv() string {
	username := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	if username == "" || password == "" || host == "" || port == "" || name == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		username, password, host, port, name)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
