// Package taxonomy ensures named collections exist on the storefront and
// links published products into them. Collection linkage is best-effort:
// one collection's failure never blocks the rest, and never the submission.
package taxonomy

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"listing-backend/internal/model"
)

// cacheKeyPrefix namespaces cached collection IDs, keyed by lower-cased title.
const cacheKeyPrefix = "listing:collections:"

// cacheTTL bounds staleness if a collection is deleted store-side.
const cacheTTL = 24 * time.Hour

// LinkError reports one collection's failed resolution or linkage.
type LinkError struct {
	Collection string
	Err        error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("taxonomy: linking %q: %v", e.Collection, e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }

// API is the storefront collection surface the manager needs.
type API interface {
	ListCollections(ctx context.Context) ([]model.CollectionRef, error)
	CreateCollection(ctx context.Context, title string) (model.CollectionRef, error)
	LinkProductToCollection(ctx context.Context, productID, collectionID int64) error
}

// Manager resolves collection names to storefront collection IDs and links
// products to them. A Redis cache in front of the collection list keeps
// repeat submissions from re-fetching it; cache may be nil.
type Manager struct {
	api   API
	cache *redis.Client
	log   *zap.Logger
}

// NewManager creates a taxonomy manager. cache may be nil to disable
// caching.
func NewManager(api API, cache *redis.Client, log *zap.Logger) *Manager {
	return &Manager{api: api, cache: cache, log: log}
}

// EnsureLinked resolves each collection name (case-insensitive exact title
// match, creating on miss) and links the product to it. Failures are logged
// and skipped; the returned count is the number of successful links.
func (m *Manager) EnsureLinked(ctx context.Context, productID int64, names []string) int {
	linked := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := m.ensureOne(ctx, productID, name); err != nil {
			m.log.Warn("collection link skipped",
				zap.Int64("product_id", productID),
				zap.String("collection", name),
				zap.Error(err),
			)
			continue
		}
		linked++
	}
	return linked
}

func (m *Manager) ensureOne(ctx context.Context, productID int64, name string) error {
	ref, err := m.resolve(ctx, name)
	if err != nil {
		return &LinkError{Collection: name, Err: err}
	}
	if err := m.api.LinkProductToCollection(ctx, productID, ref.ID); err != nil {
		return &LinkError{Collection: name, Err: err}
	}
	return nil
}

// resolve finds an existing collection by case-insensitive title, trying
// the cache first and the full collection list second, and creates the
// collection when neither knows it.
func (m *Manager) resolve(ctx context.Context, name string) (model.CollectionRef, error) {
	if id, ok := m.cachedID(ctx, name); ok {
		return model.CollectionRef{ID: id, Title: name}, nil
	}

	existing, err := m.api.ListCollections(ctx)
	if err != nil {
		return model.CollectionRef{}, err
	}
	for _, col := range existing {
		if strings.EqualFold(col.Title, name) {
			m.cacheID(ctx, name, col.ID)
			return col, nil
		}
	}

	created, err := m.api.CreateCollection(ctx, name)
	if err != nil {
		return model.CollectionRef{}, err
	}
	m.cacheID(ctx, name, created.ID)
	m.log.Info("collection created",
		zap.String("collection", created.Title),
		zap.Int64("collection_id", created.ID),
	)
	return created, nil
}

func (m *Manager) cachedID(ctx context.Context, name string) (int64, bool) {
	if m.cache == nil {
		return 0, false
	}
	val, err := m.cache.Get(ctx, cacheKey(name)).Result()
	if err != nil {
		if err != redis.Nil {
			m.log.Debug("collection cache read failed", zap.Error(err))
		}
		return 0, false
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (m *Manager) cacheID(ctx context.Context, name string, id int64) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Set(ctx, cacheKey(name), strconv.FormatInt(id, 10), cacheTTL).Err(); err != nil {
		m.log.Debug("collection cache write failed", zap.Error(err))
	}
}

func cacheKey(name string) string {
	return cacheKeyPrefix + strings.ToLower(name)
}
