package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	JWTSecret         string
	MidtransServerKey string
	MidtransProdEnv   bool

	// Sweeper tuning. PendingGrace is how long a pending appointment may sit
	// past its scheduled date+time before the sweeper cancels it.
	SweepInterval time.Duration
	PendingGrace  time.Duration
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("[WARN] no .env file found, using system ENV")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	MidtransServerKey = GetEnv("MIDTRANS_SERVER_KEY")
	MidtransProdEnv = GetEnv("MIDTRANS_PROD") == "true"

	SweepInterval = GetDuration("SWEEP_INTERVAL", 5*time.Minute)
	PendingGrace = GetDuration("PENDING_GRACE", 60*time.Minute)

	if JWTSecret == "" {
		log.Println("[ERROR] JWT_SECRET is not set")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

// GetDuration reads an env var either as a Go duration ("45m") or a number of
// seconds ("2700").
func GetDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	log.Printf("[WARN] invalid duration %s=%q, using default %s", key, v, def)
	return def
}
