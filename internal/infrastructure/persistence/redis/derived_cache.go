package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/quizhub/progress-hub/internal/application/query"
	"github.com/quizhub/progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DERIVED-VIEW CACHE
// Реализация query.DerivedCache. Все ключи витрин живут в пространстве
// "view:" и содержат ID студента, поэтому сброс после нового события - один
// SCAN по шаблону.
// ══════════════════════════════════════════════════════════════════════════════

// viewPrefix namespaces all derived-view keys.
const viewPrefix = "view:"

// DerivedCache implements query.DerivedCache on Redis.
type DerivedCache struct {
	cache *Cache
}

// NewDerivedCache creates a derived-view cache.
func NewDerivedCache(cache *Cache) *DerivedCache {
	return &DerivedCache{cache: cache}
}

var _ query.DerivedCache = (*DerivedCache)(nil)

// Get unmarshals the cached view into dest. Returns false on a miss.
func (d *DerivedCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	return d.cache.Get(ctx, viewPrefix+key, dest)
}

// Set stores the view under the key with a TTL.
func (d *DerivedCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return d.cache.Set(ctx, viewPrefix+key, value, ttl)
}

// InvalidateStudent drops every derived view cached for the student.
func (d *DerivedCache) InvalidateStudent(ctx context.Context, studentID shared.StudentID) error {
	pattern := fmt.Sprintf("%s*%s*", viewPrefix, studentID.String())
	return d.cache.DeleteByPattern(ctx, pattern)
}
