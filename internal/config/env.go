package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me-in-production"

type Env struct {
	AppAddr string
	GinMode string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret string
	JWTTTL    time.Duration

	BroadcastInterval time.Duration
	RouteCacheTTL     time.Duration

	CORSAllowedOrigins []string
	UploadDir          string

	NATSURL string
	AMQPURL string
}

// LoadEnv reads .env (when present) and the process environment.
func LoadEnv() (Env, error) {
	_ = godotenv.Load()

	env := Env{
		AppAddr:    getenvDefault("APP_ADDR", ":3001"),
		GinMode:    strings.TrimSpace(os.Getenv("GIN_MODE")),
		DBHost:     getenvDefault("DB_HOST", "127.0.0.1"),
		DBPort:     getenvDefault("DB_PORT", "3306"),
		DBUser:     getenvDefault("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getenvDefault("DB_NAME", "smartbus"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		UploadDir:  getenvDefault("UPLOAD_DIR", "uploads"),
		NATSURL:    strings.TrimSpace(os.Getenv("NATS_URL")),
		AMQPURL:    strings.TrimSpace(os.Getenv("AMQP_URL")),
	}
	if env.JWTSecret == "" {
		env.JWTSecret = defaultJWTSecret
		log.Printf("warning: JWT_SECRET not set, using the built-in development secret")
	}

	var err error
	if env.JWTTTL, err = durationFromEnv("JWT_TTL", 7*24*time.Hour); err != nil {
		return Env{}, err
	}
	if env.BroadcastInterval, err = durationFromEnv("BROADCAST_INTERVAL", 20*time.Second); err != nil {
		return Env{}, err
	}
	if env.RouteCacheTTL, err = durationFromEnv("ROUTE_CACHE_TTL", time.Minute); err != nil {
		return Env{}, err
	}

	env.CORSAllowedOrigins = splitList(getenvDefault("CORS_ALLOWED_ORIGINS", "*"))
	return env, nil
}

// DSN builds the go-sql-driver/mysql connection string. clientFoundRows makes
// UPDATE report matched rows, so re-marking a read notification still counts.
func (e Env) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=Local&charset=utf8mb4&clientFoundRows=true&timeout=5s&readTimeout=30s&writeTimeout=30s",
		e.DBUser,
		e.DBPassword,
		e.DBHost,
		e.DBPort,
		e.DBName,
	)
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
