// Package cache puts a short-lived read cache in front of the user store
// for the per-request authorization path.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"admin-rbac/internal/domain"
	"admin-rbac/internal/ports"
)

const cacheName = "users"

// UserRepository serves GetByEmail from an expiring LRU and drops an entry
// whenever the same process writes that user. Writes made by other
// processes become visible once the entry expires.
//
// A lookup only fills the cache when no local write landed while it was
// reading the store, so a concurrent Update cannot be undone by a stale fill.
type UserRepository struct {
	ports.UserRepository
	entries  *lru.LRU[string, domain.User]
	observer ports.CacheObserver

	mu     sync.Mutex
	writes uint64
}

// NewUserRepository wraps next. observer may be nil.
func NewUserRepository(next ports.UserRepository, size int, ttl time.Duration, observer ports.CacheObserver) *UserRepository {
	if size <= 0 {
		size = 1024
	}
	return &UserRepository{
		UserRepository: next,
		entries:        lru.NewLRU[string, domain.User](size, nil, ttl),
		observer:       observer,
	}
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	k := key(email)
	if u, ok := r.entries.Get(k); ok {
		if r.observer != nil {
			r.observer.CacheHit(cacheName)
		}
		return cloneUser(u), nil
	}
	if r.observer != nil {
		r.observer.CacheMiss(cacheName)
	}
	r.mu.Lock()
	seen := r.writes
	r.mu.Unlock()

	u, err := r.UserRepository.GetByEmail(ctx, email)
	if err != nil {
		return domain.User{}, err
	}

	r.mu.Lock()
	if r.writes == seen {
		r.entries.Add(k, cloneUser(u))
	}
	r.mu.Unlock()
	return u, nil
}

func (r *UserRepository) invalidate(email string) {
	r.mu.Lock()
	r.writes++
	r.entries.Remove(key(email))
	r.mu.Unlock()
}

func (r *UserRepository) CreateIfAbsent(ctx context.Context, user domain.User) (bool, error) {
	created, err := r.UserRepository.CreateIfAbsent(ctx, user)
	r.invalidate(user.Email)
	return created, err
}

func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	err := r.UserRepository.Update(ctx, user)
	r.invalidate(user.Email)
	return err
}

func cloneUser(u domain.User) domain.User {
	u.PermissionSnapshot = u.PermissionSnapshot.Clone()
	return u
}
