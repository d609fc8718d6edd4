package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       int
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBNameTest string
	RedisHost  string
	RedisPort  int
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	UploadDir  string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		// Only log outside test runs
		if os.Getenv("GO_ENV") != "test" {
			log.Println("No .env file found, using default values")
		}
	}

	return Config{
		Port:       envInt("PORT", 4000),
		DBHost:     envString("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBUser:     envString("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     envString("DB_NAME", "taskboard"),
		DBNameTest: envString("DB_NAME_TEST", "taskboard_test"),
		RedisHost:  envString("REDIS_HOST", "localhost"),
		RedisPort:  envInt("REDIS_PORT", 6379),
		JWTSecret:  envString("JWT_SECRET", "dev-secret-key-change-in-production"),
		AccessTTL:  envDuration("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTTL: envDuration("JWT_REFRESH_TTL", 30*24*time.Hour),
		UploadDir:  envString("UPLOAD_DIR", "uploads"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
