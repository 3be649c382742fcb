package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	ServiceName    string
	AppVersion     string
	BuildID        string
	GitCommit      string
	Region         string
	ClinicTimezone string

	DatabaseURL string
	RedisURL    string

	DebugToken    string
	DebugUser     string
	SessionSecret string
	SessionTTL    time.Duration

	TwilioAccountSID          string
	TwilioAuthToken           string
	TwilioMessagingServiceSID string
	PublicBaseURL             string
	SMSSendTimeout            time.Duration

	GoogleMapsAPIKey string
	GeoTimeout       time.Duration
	GeoCacheTTL      time.Duration

	AdminPageSize        int
	RateLimitWindow      time.Duration
	RateLimitMaxSimulate int
	CORSAllowedOrigins   []string

	AWSRegion    string
	ExportBucket string

	AlertEmailTo   string
	AlertEmailFrom string
	AlertFromName  string
	SendGridAPIKey string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ServiceName:    getEnv("SERVICE_NAME", "Home Health Assistant"),
		AppVersion:     getEnv("APP_VERSION", "1.0.0"),
		BuildID:        getEnv("BUILD_ID", "local"),
		GitCommit:      getEnv("RENDER_GIT_COMMIT", getEnv("BUILD_ID", "local")),
		Region:         getEnv("REGION", "local"),
		ClinicTimezone: getEnv("CLINIC_TIMEZONE", "America/New_York"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		DebugToken:    getEnv("DEBUG_TOKEN", ""),
		DebugUser:     getEnv("DEBUG_USER", "admin"),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 5*24*time.Hour),

		TwilioAccountSID:          getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:           getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioMessagingServiceSID: getEnv("TWILIO_MESSAGING_SERVICE_SID", ""),
		PublicBaseURL:             getEnv("PUBLIC_BASE_URL", getEnv("RENDER_EXTERNAL_URL", "")),
		SMSSendTimeout:            getEnvAsDuration("SMS_SEND_TIMEOUT", 10*time.Second),

		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		GeoTimeout:       getEnvAsDuration("GEO_TIMEOUT", 8*time.Second),
		GeoCacheTTL:      getEnvAsDuration("GEO_CACHE_TTL", 24*time.Hour),

		AdminPageSize:        getEnvAsInt("ADMIN_PAGE_SIZE", 50),
		RateLimitWindow:      getEnvAsDuration("RATE_LIMIT_WINDOW", envSecondsFallback("RATE_LIMIT_WINDOW_SEC", time.Minute)),
		RateLimitMaxSimulate: getEnvAsInt("RATE_LIMIT_MAX_SIMULATE", 30),
		CORSAllowedOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS"),

		AWSRegion:    getEnv("AWS_REGION", ""),
		ExportBucket: getEnv("EXPORT_BUCKET", ""),

		AlertEmailTo:   getEnv("ALERT_EMAIL_TO", ""),
		AlertEmailFrom: getEnv("ALERT_EMAIL_FROM", ""),
		AlertFromName:  getEnv("ALERT_FROM_NAME", "Home Health Assistant"),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
	}
}

// SMSReady reports whether every credential needed for live SMS sending is set.
func (c *Config) SMSReady() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioMessagingServiceSID != ""
}

// MapsReady reports whether the live geocoding/distance provider can be used.
func (c *Config) MapsReady() bool {
	return c.GoogleMapsAPIKey != ""
}

// Mode returns "live" when real SMS sending is configured, else "mock".
func (c *Config) Mode() string {
	if c.SMSReady() {
		return "live"
	}
	return "mock"
}

// WebhookURL returns the public URL the SMS provider signs requests against.
// Empty means the request's own host headers are trusted.
func (c *Config) WebhookURL() string {
	base := strings.TrimSuffix(strings.TrimSpace(c.PublicBaseURL), "/")
	if base == "" {
		return ""
	}
	return base + "/webhook/sms"
}

// SessionKey returns the JWT signing key for admin session cookies.
// Falls back to the debug token so a single env var is enough for demos.
func (c *Config) SessionKey() string {
	if c.SessionSecret != "" {
		return c.SessionSecret
	}
	return c.DebugToken
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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

// envSecondsFallback reads a legacy integer-seconds variable, used as the
// default for the duration-valued replacement.
func envSecondsFallback(key string, defaultValue time.Duration) time.Duration {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil && value > 0 {
		return time.Duration(value) * time.Second
	}
	return defaultValue
}
