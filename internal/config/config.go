package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	StaffJWTSecret     string
	CORSAllowedOrigins []string

	// Scheduling
	LayoutGapPercent     float64
	MinNoticeHours       float64
	OfferTTL             time.Duration
	DoubleBookingAllowed bool

	// Waitlist scoring weights; defaults reproduce production behavior.
	WeightPriorityHigh      int
	WeightPriorityMedium    int
	WeightPriorityLow       int
	WeightServiceExact      int
	WeightServicePartial    int
	WeightDurationFits      int
	WeightDurationPenalty   int
	WeightPractitioner      int
	WeightWaitPerDay        int
	WeightWaitCap           int
	WeightFormsComplete     int
	WeightDepositPaid       int
	WeightAvailabilityFit   int
	WeightAvailabilityMiss  int
	WeightDeclinePenalty    int
	WeightDeclineCap        int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisAddr:      getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		StaffJWTSecret: getEnv("STAFF_JWT_SECRET", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		LayoutGapPercent:     getEnvAsFloat("LAYOUT_GAP_PERCENT", 2),
		MinNoticeHours:       getEnvAsFloat("WAITLIST_MIN_NOTICE_HOURS", 2),
		OfferTTL:             getEnvAsDuration("WAITLIST_OFFER_TTL", 15*time.Minute),
		DoubleBookingAllowed: getEnvAsBool("DOUBLE_BOOKING_ALLOWED", false),

		WeightPriorityHigh:     getEnvAsInt("WEIGHT_PRIORITY_HIGH", 30),
		WeightPriorityMedium:   getEnvAsInt("WEIGHT_PRIORITY_MEDIUM", 20),
		WeightPriorityLow:      getEnvAsInt("WEIGHT_PRIORITY_LOW", 10),
		WeightServiceExact:     getEnvAsInt("WEIGHT_SERVICE_EXACT", 25),
		WeightServicePartial:   getEnvAsInt("WEIGHT_SERVICE_PARTIAL", 15),
		WeightDurationFits:     getEnvAsInt("WEIGHT_DURATION_FITS", 20),
		WeightDurationPenalty:  getEnvAsInt("WEIGHT_DURATION_PENALTY", -10),
		WeightPractitioner:     getEnvAsInt("WEIGHT_PRACTITIONER_MATCH", 20),
		WeightWaitPerDay:       getEnvAsInt("WEIGHT_WAIT_PER_DAY", 2),
		WeightWaitCap:          getEnvAsInt("WEIGHT_WAIT_CAP", 15),
		WeightFormsComplete:    getEnvAsInt("WEIGHT_FORMS_COMPLETE", 10),
		WeightDepositPaid:      getEnvAsInt("WEIGHT_DEPOSIT_PAID", 5),
		WeightAvailabilityFit:  getEnvAsInt("WEIGHT_AVAILABILITY_FIT", 15),
		WeightAvailabilityMiss: getEnvAsInt("WEIGHT_AVAILABILITY_MISS", -15),
		WeightDeclinePenalty:   getEnvAsInt("WEIGHT_DECLINE_PENALTY", 5),
		WeightDeclineCap:       getEnvAsInt("WEIGHT_DECLINE_CAP", 25),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, dropping
// empty items.
func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
