package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ConflictScope controls how slot occupancy is decided.
// "clinic" treats the whole clinic as one shared calendar (a slot is taken once
// any appointment exists at that time); "doctor" books doctors independently.
type ConflictScope string

const (
	ScopeClinic ConflictScope = "clinic"
	ScopeDoctor ConflictScope = "doctor"
)

// Config holds application configuration.
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string

	// Persistence
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Scheduling
	ClinicOpen    string // "09:00" 24-hour local time
	ClinicClose   string // "18:00"
	SlotMinutes   int
	ConflictScope ConflictScope
	Doctors       []string

	// Reminders
	DefaultCountryCode string
	ReminderTemplate   string // empty means the built-in default text

	// Booking
	RequestTimeout time.Duration

	// Snapshot
	SnapshotInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() *Config {
	scope := ScopeClinic
	if strings.EqualFold(getEnv("CONFLICT_SCOPE", "clinic"), "doctor") {
		scope = ScopeDoctor
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),
		ClinicOpen:         getEnv("CLINIC_OPEN", "09:00"),
		ClinicClose:        getEnv("CLINIC_CLOSE", "18:00"),
		SlotMinutes:        getEnvAsInt("SLOT_MINUTES", 30),
		ConflictScope:      scope,
		Doctors:            getEnvAsList("CLINIC_DOCTORS", []string{"Dr. Amara Osei", "Dr. Felix Brandt"}),
		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "+1"),
		ReminderTemplate:   getEnv("REMINDER_TEMPLATE", ""),
		RequestTimeout:     getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		SnapshotInterval:   getEnvAsDuration("SNAPSHOT_INTERVAL", 5*time.Minute),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
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

func getEnvAsList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
