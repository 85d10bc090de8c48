package ports

import (
	"context"
	"time"
)

type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Debug(ctx context.Context, msg string, args ...any)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// CredentialNotifier delivers the initial administrator credentials to
// whoever operates the deployment.
type CredentialNotifier interface {
	AdminCreated(ctx context.Context, email, password string) error
}

// JobObserver is told about every maintenance job run, including the
// stages of a full run.
type JobObserver interface {
	ObserveJob(job string, elapsed time.Duration, changed int, err error)
}

// CacheObserver counts lookups served from or missed by a cache.
type CacheObserver interface {
	CacheHit(cache string)
	CacheMiss(cache string)
}
