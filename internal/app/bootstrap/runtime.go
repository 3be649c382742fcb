// Package bootstrap builds the optional runtime collaborators from config.
// Every Build function degrades to a safe fallback (nil client, in-memory
// store, mock provider) instead of failing startup, so the service always
// comes up in mock mode on a bare laptop.
package bootstrap

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/mimakeko/homehealth-assistant/internal/appointments"
	appconfig "github.com/mimakeko/homehealth-assistant/internal/config"
	"github.com/mimakeko/homehealth-assistant/internal/geo"
	"github.com/mimakeko/homehealth-assistant/internal/messaging"
	"github.com/mimakeko/homehealth-assistant/internal/patients"
	"github.com/mimakeko/homehealth-assistant/internal/timeparse"
	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

// BuildPgxPool connects the primary store. Returns nil when DATABASE_URL is
// unset or the database does not answer a ping, leaving the caller on the
// in-memory repositories.
func BuildPgxPool(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *pgxpool.Pool {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("postgres config invalid", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Warn("postgres not available", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// BuildSQLDB opens a database/sql handle on the same database for the
// reporting queries. Nil when the database is unavailable; the report
// endpoints then serve empty aggregates.
func BuildSQLDB(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *sql.DB {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Warn("reporting database config invalid", "error", err)
		return nil
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Warn("reporting database not available", "error", err)
		db.Close()
		return nil
	}
	return db
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("redis url invalid", "error", err)
		return nil
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildAWSClients returns the S3 and SES clients, or nils when no AWS region
// is configured or credentials cannot be loaded.
func BuildAWSClients(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*s3.Client, *sesv2.Client) {
	if cfg == nil || strings.TrimSpace(cfg.AWSRegion) == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Warn("aws config not loaded", "error", err)
		return nil, nil
	}
	return s3.NewFromConfig(awsCfg), sesv2.NewFromConfig(awsCfg)
}

// BuildOutboundMessenger selects the SMS provider once at startup and
// returns it with the mode label surfaced on /healthz.
func BuildOutboundMessenger(cfg *appconfig.Config, logger *logging.Logger) (messaging.Messenger, string) {
	if cfg == nil {
		return messaging.NewMockMessenger(logger), "mock"
	}
	return messaging.BuildMessenger(messaging.ProviderConfig{
		AccountSID:          cfg.TwilioAccountSID,
		AuthToken:           cfg.TwilioAuthToken,
		MessagingServiceSID: cfg.TwilioMessagingServiceSID,
		SendTimeout:         cfg.SMSSendTimeout,
	}, logger)
}

// BuildGeoProvider selects the Google provider when an API key is present,
// otherwise the deterministic mock. The boolean mirrors MapsReady for the
// handlers that report readiness.
func BuildGeoProvider(cfg *appconfig.Config, logger *logging.Logger) (geo.Provider, bool) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg != nil && cfg.MapsReady() {
		logger.Info("geo provider selected", "provider", "google")
		return geo.NewGoogleProvider(cfg.GoogleMapsAPIKey, logger,
			geo.WithHTTPClient(&http.Client{Timeout: cfg.GeoTimeout})), true
	}
	logger.Info("geo provider selected", "provider", "mock")
	return geo.NewMockProvider(), false
}

// Stores bundles the persistence layer selected at startup.
type Stores struct {
	Patients     patients.Repository
	Appointments appointments.Repository
	Messages     messaging.Store
	Persistent   bool
}

// BuildStores returns postgres-backed repositories when a pool is available
// and the in-memory fallbacks otherwise.
func BuildStores(pool *pgxpool.Pool, timezone string, logger *logging.Logger) *Stores {
	if logger == nil {
		logger = logging.Default()
	}
	loc := timeparse.Location(timezone)

	if pool != nil {
		logger.Info("storage selected", "backend", "postgres")
		return &Stores{
			Patients:     patients.NewPostgresRepository(pool),
			Appointments: appointments.NewPostgresRepository(pool, loc),
			Messages:     messaging.NewPostgresStore(pool),
			Persistent:   true,
		}
	}

	logger.Info("storage selected", "backend", "memory")
	patientRepo := patients.NewInMemoryRepository()
	return &Stores{
		Patients:     patientRepo,
		Appointments: appointments.NewInMemoryRepository(loc, patientRepo),
		Messages:     messaging.NewInMemoryStore(),
		Persistent:   false,
	}
}
