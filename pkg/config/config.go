package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	FirebaseApiKey  string
	StorageBucket   string
	Environment     string
	JWTSecret       string
	JWTExpiry       int64

	// Risk assessment service (external, best-effort)
	RiskServiceURL     string
	RiskServiceAPIKey  string
	RiskServiceTimeout time.Duration

	// Upper bound for fire-and-forget notification delivery
	NotifyTimeout time.Duration

	// Days a merchant has to respond to a newly filed dispute
	MerchantResponseDays int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseApiKey:  getEnv("FIREBASE_API_KEY", ""),
		StorageBucket:   getEnv("STORAGE_BUCKET", ""),
		Environment:     getEnv("ENVIRONMENT", "development"),
		JWTSecret:       getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiry:       getEnvAsInt64("JWT_EXPIRY", 24*60*60), // 24 hours

		RiskServiceURL:     getEnv("RISK_SERVICE_URL", ""),
		RiskServiceAPIKey:  getEnv("RISK_SERVICE_API_KEY", ""),
		RiskServiceTimeout: getEnvAsDuration("RISK_SERVICE_TIMEOUT", 30*time.Second),

		NotifyTimeout: getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),

		MerchantResponseDays: int(getEnvAsInt64("MERCHANT_RESPONSE_DAYS", 7)),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
