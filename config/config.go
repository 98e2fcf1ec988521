// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
)

// Config holds application configuration.
type Config struct {
	Port     string
	DBPath   string
	LogLevel string

	// Business timezone used by the schedule calculator and reports.
	Timezone string

	// JWT credential check.
	JWTSecret string

	// Bootstrap operator account, created on first start when no users
	// exist. Password is bcrypt-hashed before storage.
	AdminUser     string
	AdminPassword string

	// Daily collection reminder. Inactive unless SMTP is configured.
	ReminderCron string
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SenderEmail  string
	ReminderTo   string
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "credits.db"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		Timezone:      getEnv("BUSINESS_TZ", "America/Bogota"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		AdminUser:     getEnv("ADMIN_USER", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		ReminderCron:  getEnv("REMINDER_CRON", "0 7 * * *"),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUser:      getEnv("SMTP_USER", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SenderEmail:   getEnv("SENDER_EMAIL", ""),
		ReminderTo:    getEnv("REMINDER_TO", ""),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// ReminderEnabled reports whether the daily reminder job can run.
func (c *Config) ReminderEnabled() bool {
	return c.SMTPHost != "" && c.SenderEmail != "" && c.ReminderTo != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
