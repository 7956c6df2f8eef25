package config

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	for _, k := range []string{"APP_ADDR", "JWT_TTL", "BROADCAST_INTERVAL", "ROUTE_CACHE_TTL", "CORS_ALLOWED_ORIGINS", "NATS_URL", "AMQP_URL"} {
		t.Setenv(k, "")
	}

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv error: %v", err)
	}
	if env.AppAddr != ":3001" {
		t.Fatalf("AppAddr = %q", env.AppAddr)
	}
	if env.JWTTTL != 7*24*time.Hour {
		t.Fatalf("JWTTTL = %v", env.JWTTTL)
	}
	if env.BroadcastInterval != 20*time.Second {
		t.Fatalf("BroadcastInterval = %v", env.BroadcastInterval)
	}
	if len(env.CORSAllowedOrigins) != 1 || env.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("CORSAllowedOrigins = %v", env.CORSAllowedOrigins)
	}
}

func TestLoadEnvRejectsBadDuration(t *testing.T) {
	t.Setenv("BROADCAST_INTERVAL", "soon")
	if _, err := LoadEnv(); err == nil {
		t.Fatalf("expected error for invalid BROADCAST_INTERVAL")
	}
}

func TestDSNKeepsFoundRows(t *testing.T) {
	env := Env{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "3306", DBName: "smartbus"}
	dsn := env.DSN()
	if !strings.HasPrefix(dsn, "u:p@tcp(h:3306)/smartbus?") {
		t.Fatalf("unexpected dsn prefix: %s", dsn)
	}
	if !strings.Contains(dsn, "clientFoundRows=true") || !strings.Contains(dsn, "parseTime=true") {
		t.Fatalf("dsn missing options: %s", dsn)
	}
}

func TestLoadEnvWarnsOnDefaultSecret(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	t.Setenv("JWT_SECRET", "")
	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv error: %v", err)
	}
	if env.JWTSecret != defaultJWTSecret {
		t.Fatalf("JWTSecret = %q", env.JWTSecret)
	}
	if !strings.Contains(buf.String(), "warning: JWT_SECRET not set") {
		t.Fatalf("expected startup warning, log was %q", buf.String())
	}

	buf.Reset()
	t.Setenv("JWT_SECRET", "s3cret")
	if _, err := LoadEnv(); err != nil {
		t.Fatalf("LoadEnv error: %v", err)
	}
	if strings.Contains(buf.String(), "JWT_SECRET") {
		t.Fatalf("no warning expected with a configured secret, got %q", buf.String())
	}
}
