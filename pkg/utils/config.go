package utils

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Payment  PaymentConfig
	Notify   NotifyConfig
	Jobs     JobsConfig
}

type AppConfig struct {
	Name           string
	Port           string
	Debug          bool
	LogPath        string
	MigrateOnStart bool
}

type DatabaseConfig struct {
	Host          string
	Port          string
	Name          string
	User          string
	Password      string
	MaxConns      int32
	QueryTimeout  time.Duration
	RetryAttempts uint64
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type PaymentConfig struct {
	StripeSecretKey string
	Currency        string
}

type NotifyConfig struct {
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioFromNumber  string
}

type JobsConfig struct {
	Enabled bool
}

// LoadConfig reads an optional .env file, then the process environment.
// Real environment variables win over .env values.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("APP_NAME", "car-rental")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_QUERY_TIMEOUT", "5s")
	v.SetDefault("DB_RETRY_ATTEMPTS", 1)
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("PAYMENT_CURRENCY", "eur")
	v.SetDefault("SENDGRID_FROM_NAME", "Car Rental")
	v.SetDefault("JOBS_ENABLED", true)

	config := &Config{
		App: AppConfig{
			Name:           v.GetString("APP_NAME"),
			Port:           v.GetString("PORT"),
			Debug:          v.GetBool("DEBUG"),
			LogPath:        v.GetString("LOG_PATH"),
			MigrateOnStart: v.GetBool("MIGRATE_ON_START"),
		},
		Database: DatabaseConfig{
			Host:          v.GetString("DB_HOST"),
			Port:          v.GetString("DB_PORT"),
			Name:          v.GetString("DB_NAME"),
			User:          v.GetString("DB_USER"),
			Password:      v.GetString("DB_PASS"),
			MaxConns:      v.GetInt32("DB_MAX_CONNS"),
			QueryTimeout:  v.GetDuration("DB_QUERY_TIMEOUT"),
			RetryAttempts: v.GetUint64("DB_RETRY_ATTEMPTS"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(v.GetString("CORS_ORIGINS")),
		},
		Payment: PaymentConfig{
			StripeSecretKey: v.GetString("STRIPE_SECRET_KEY"),
			Currency:        strings.ToLower(v.GetString("PAYMENT_CURRENCY")),
		},
		Notify: NotifyConfig{
			SendGridAPIKey:    v.GetString("SENDGRID_API_KEY"),
			SendGridFromEmail: v.GetString("SENDGRID_FROM_EMAIL"),
			SendGridFromName:  v.GetString("SENDGRID_FROM_NAME"),
			TwilioAccountSID:  v.GetString("TWILIO_ACCOUNT_SID"),
			TwilioAuthToken:   v.GetString("TWILIO_AUTH_TOKEN"),
			TwilioFromNumber:  v.GetString("TWILIO_FROM_NUMBER"),
		},
		Jobs: JobsConfig{
			Enabled: v.GetBool("JOBS_ENABLED"),
		},
	}

	var missing []string
	for key, val := range map[string]string{
		"DB_HOST":    config.Database.Host,
		"DB_NAME":    config.Database.Name,
		"DB_USER":    config.Database.User,
		"JWT_SECRET": config.JWT.Secret,
	} {
		if val == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	if config.Database.QueryTimeout <= 0 {
		return nil, fmt.Errorf("DB_QUERY_TIMEOUT must be a positive duration")
	}

	return config, nil
}

// splitCSV splits a comma-separated list, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
