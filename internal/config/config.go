// Package config loads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"

	"admin-rbac/internal/adapters/http/middleware"
)

const (
	EnvStoreDriver         = "STORE_DRIVER"
	EnvTableName           = "TABLE_NAME"
	EnvRegion              = "AWS_REGION"
	EnvDynamoDBEndpoint    = "DYNAMODB_ENDPOINT"
	EnvAuthMode            = "AUTH_MODE"
	EnvUserPoolID          = "COGNITO_USER_POOL_ID"
	EnvPort                = "PORT"
	EnvLogLevel            = "LOG_LEVEL"
	EnvAdminEmail          = "ADMIN_EMAIL"
	EnvAdminPassword       = "ADMIN_PASSWORD"
	EnvAdminName           = "ADMIN_NAME"
	EnvMaintenanceSchedule = "MAINTENANCE_SCHEDULE"
	EnvBcryptCost          = "BCRYPT_COST"
	EnvLambdaHandler       = "LAMBDA_HANDLER"
	EnvUserCacheTTL        = "USER_CACHE_TTL"
	EnvUserCacheSize       = "USER_CACHE_SIZE"
	EnvMetricsEnabled      = "METRICS_ENABLED"
)

type StoreDriver string

const (
	StoreDynamoDB StoreDriver = "dynamodb"
	StoreMemory   StoreDriver = "memory"
)

// ScheduleOff disables periodic maintenance.
const ScheduleOff = "off"

const DefaultAdminName = "System Administrator"

type Config struct {
	StoreDriver      StoreDriver
	TableName        string
	Region           string
	DynamoDBEndpoint string

	AuthMode   middleware.Mode
	UserPoolID string

	Port     string
	LogLevel string

	// AdminPassword may be empty; the caller then generates one.
	AdminEmail    string
	AdminPassword string
	AdminName     string

	MaintenanceSchedule string
	BcryptCost          int

	LambdaHandler string

	// UserCacheTTL of zero disables the user lookup cache.
	UserCacheTTL   time.Duration
	UserCacheSize  int
	MetricsEnabled bool
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Load reads the environment and validates the result.
func Load() (Config, error) {
	authMode, err := middleware.ParseAuthMode(os.Getenv(EnvAuthMode))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", EnvAuthMode, err)
	}
	cost := bcrypt.DefaultCost
	if raw := getenv(EnvBcryptCost, ""); raw != "" {
		cost, err = strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvBcryptCost, err)
		}
	}
	cacheTTL, err := time.ParseDuration(getenv(EnvUserCacheTTL, "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", EnvUserCacheTTL, err)
	}
	cacheSize, err := strconv.Atoi(getenv(EnvUserCacheSize, "1024"))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", EnvUserCacheSize, err)
	}
	metricsEnabled, err := strconv.ParseBool(getenv(EnvMetricsEnabled, "true"))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", EnvMetricsEnabled, err)
	}
	cfg := Config{
		StoreDriver:         StoreDriver(strings.ToLower(getenv(EnvStoreDriver, string(StoreDynamoDB)))),
		TableName:           getenv(EnvTableName, ""),
		Region:              getenv(EnvRegion, ""),
		DynamoDBEndpoint:    getenv(EnvDynamoDBEndpoint, ""),
		AuthMode:            authMode,
		UserPoolID:          getenv(EnvUserPoolID, ""),
		Port:                getenv(EnvPort, "8080"),
		LogLevel:            getenv(EnvLogLevel, "info"),
		AdminEmail:          getenv(EnvAdminEmail, ""),
		AdminPassword:       os.Getenv(EnvAdminPassword),
		AdminName:           getenv(EnvAdminName, DefaultAdminName),
		MaintenanceSchedule: getenv(EnvMaintenanceSchedule, "@every 1h"),
		BcryptCost:          cost,
		LambdaHandler:       strings.ToLower(getenv(EnvLambdaHandler, "http")),
		UserCacheTTL:        cacheTTL,
		UserCacheSize:       cacheSize,
		MetricsEnabled:      metricsEnabled,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreDynamoDB:
		if c.TableName == "" || c.Region == "" {
			errs = append(errs, fmt.Errorf("%s and %s are required for the dynamodb store", EnvTableName, EnvRegion))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("%s: unknown driver %q", EnvStoreDriver, c.StoreDriver))
	}
	if c.AuthMode == middleware.ModeCognito && (c.UserPoolID == "" || c.Region == "") {
		errs = append(errs, fmt.Errorf("%s and %s are required for cognito auth mode", EnvUserPoolID, EnvRegion))
	}
	if !strings.Contains(c.AdminEmail, "@") {
		errs = append(errs, fmt.Errorf("%s must be an email address", EnvAdminEmail))
	}
	if c.MaintenanceEnabled() {
		if _, err := cron.ParseStandard(c.MaintenanceSchedule); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvMaintenanceSchedule, err))
		}
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("%s must be between %d and %d", EnvBcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.UserCacheTTL < 0 || c.UserCacheSize < 1 {
		errs = append(errs, fmt.Errorf("%s must not be negative and %s must be positive", EnvUserCacheTTL, EnvUserCacheSize))
	}
	switch c.LambdaHandler {
	case "http", "maintenance":
	default:
		errs = append(errs, fmt.Errorf("%s: unknown handler %q", EnvLambdaHandler, c.LambdaHandler))
	}
	return errors.Join(errs...)
}

func (c Config) MaintenanceEnabled() bool {
	return !strings.EqualFold(c.MaintenanceSchedule, ScheduleOff)
}
