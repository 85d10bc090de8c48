// Package app wires configuration into repositories, services and the HTTP
// router. Both binaries build on it.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/labstack/echo/v4"

	adaptermiddleware "admin-rbac/internal/adapters/http/middleware"
	"admin-rbac/internal/adapters/metrics"
	"admin-rbac/internal/adapters/notify"
	"admin-rbac/internal/adapters/password"
	"admin-rbac/internal/application"
	"admin-rbac/internal/config"
	"admin-rbac/internal/infrastructure/auth"
	"admin-rbac/internal/infrastructure/cache"
	"admin-rbac/internal/infrastructure/dynamodb"
	"admin-rbac/internal/infrastructure/memory"
	"admin-rbac/internal/infrastructure/scheduler"
	httpiface "admin-rbac/internal/interfaces/http"
	"admin-rbac/internal/ports"
)

type App struct {
	Bootstrapper *application.Bootstrapper
	Jobs         *application.MaintenanceJobs
	Scheduler    *scheduler.MaintenanceScheduler
	Router       *echo.Echo
	// Store is nil for the memory driver.
	Store httpiface.Pinger
	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Metrics
}

type repositories struct {
	roles ports.RoleRepository
	users ports.UserRepository
	store httpiface.Pinger
}

func openStore(ctx context.Context, cfg config.Config) (repositories, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		store := memory.NewStore()
		return repositories{roles: memory.NewRoleRepository(store), users: memory.NewUserRepository(store)}, nil
	case config.StoreDynamoDB:
		client, err := dynamodb.NewClient(ctx, cfg.Region, cfg.TableName, cfg.DynamoDBEndpoint)
		if err != nil {
			return repositories{}, fmt.Errorf("initialize dynamodb client: %w", err)
		}
		if err := client.Ping(ctx); err != nil {
			return repositories{}, fmt.Errorf("reach table %s: %w", cfg.TableName, err)
		}
		return repositories{
			roles: dynamodb.NewRoleRepository(client),
			users: dynamodb.NewUserRepository(client),
			store: client,
		}, nil
	default:
		return repositories{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// GeneratePassword returns a random URL-safe password.
func GeneratePassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func New(ctx context.Context, cfg config.Config, logger ports.Logger) (*App, error) {
	repos, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var m *metrics.Metrics
	var cacheObserver ports.CacheObserver
	if cfg.MetricsEnabled {
		m = metrics.New(nil)
		cacheObserver = m
	}
	if cfg.UserCacheTTL > 0 {
		repos.users = cache.NewUserRepository(repos.users, cfg.UserCacheSize, cfg.UserCacheTTL, cacheObserver)
	}

	adminPassword := cfg.AdminPassword
	if adminPassword == "" {
		if adminPassword, err = GeneratePassword(); err != nil {
			return nil, fmt.Errorf("generate administrator password: %w", err)
		}
	}
	boot := application.NewBootstrapper(
		repos.roles,
		repos.users,
		password.NewBcryptHasher(cfg.BcryptCost),
		notify.NewLogNotifier(logger),
		logger,
		application.AdminCredentials{Email: cfg.AdminEmail, Password: adminPassword, Name: cfg.AdminName},
	)
	jobs := application.NewMaintenanceJobs(boot, repos.roles, repos.users, logger)
	if m != nil {
		jobs.SetObserver(m)
	}
	schedule := ""
	if cfg.MaintenanceEnabled() {
		schedule = cfg.MaintenanceSchedule
	}
	sched, err := scheduler.New(schedule, jobs, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize maintenance schedule: %w", err)
	}
	authSvc := application.NewAuthorizationService(repos.users)

	var cognitoHandler echo.MiddlewareFunc
	if cfg.AuthMode == adaptermiddleware.ModeCognito {
		cognitoHandler = auth.NewCognitoMiddleware(cfg.UserPoolID, cfg.Region).Handler
	}
	authMiddleware, err := adaptermiddleware.AuthMiddleware(cfg.AuthMode, cognitoHandler)
	if err != nil {
		return nil, fmt.Errorf("initialize auth middleware: %w", err)
	}

	handlers := httpiface.Handlers{
		System:        httpiface.NewSystemHandler(jobs, repos.store),
		Dashboard:     httpiface.NewDashboardHandler(authSvc),
		Roles:         httpiface.NewRolesHandler(application.NewRoleService(repos.roles)),
		Maintenance:   httpiface.NewMaintenanceHandler(sched),
		Authorization: httpiface.NewAuthorizationHandler(authSvc),
		Authorizer:    authSvc,
	}
	mw := httpiface.Middleware{
		Auth:          authMiddleware,
		XRay:          adaptermiddleware.XRayMiddleware("admin-rbac-http"),
		RequestLogger: adaptermiddleware.RequestLogger(logger),
	}
	if m != nil {
		handlers.Metrics = m.Handler()
		mw.Metrics = m.Middleware()
	}
	e := httpiface.NewRouter(handlers, mw)

	return &App{Bootstrapper: boot, Jobs: jobs, Scheduler: sched, Router: e, Store: repos.store, Metrics: m}, nil
}

// EnsureInitialized runs full maintenance when the system is not yet
// initialized. Callers must not serve traffic when it fails.
func (a *App) EnsureInitialized(ctx context.Context, logger ports.Logger) error {
	ok, err := a.Bootstrapper.IsSystemInitialized(ctx)
	if err != nil {
		return fmt.Errorf("check initialization: %w", err)
	}
	if ok {
		logger.Info(ctx, "system already initialized")
		return nil
	}
	logger.Info(ctx, "system not initialized; running maintenance")
	if _, err := a.Scheduler.RunNow(ctx); err != nil {
		return fmt.Errorf("initial maintenance: %w", err)
	}
	return nil
}
