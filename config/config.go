package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	Port        string
	DatabaseURL string
	SecretKey   []byte
	CORSOrigins []string
	UploadDir   string

	AdminUsername string
	AdminEmail    string
	AdminPassword string

	RateLimitWindow time.Duration
	RateLimitMax    int64
)

func Init() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("no .env file found, relying on environment")
	}

	Port = getEnv("PORT", "8080")
	DatabaseURL = os.Getenv("DATABASE_URL")
	if DatabaseURL == "" {
		logrus.Fatal("DATABASE_URL not set")
	}

	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		logrus.Fatal("JWT secret key not set")
	}
	SecretKey = []byte(secret)

	CORSOrigins = strings.Split(getEnv("CORS_ORIGIN", "http://localhost:3000"), ",")
	UploadDir = getEnv("UPLOAD_DIR", "uploads")

	AdminUsername = getEnv("ADMIN_USERNAME", "admin")
	AdminEmail = getEnv("ADMIN_EMAIL", "admin@havrebakery.com")
	AdminPassword = getEnv("ADMIN_PASSWORD", "admin123")

	windowMs := getEnvInt("RATE_LIMIT_WINDOW_MS", 15*60*1000)
	RateLimitWindow = time.Duration(windowMs) * time.Millisecond
	RateLimitMax = int64(getEnvInt("RATE_LIMIT_MAX_REQUESTS", 100))
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logrus.Warnf("invalid value for %s, using default", key)
		return fallback
	}
	return n
}
