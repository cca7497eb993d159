// Package cache provides caching implementations for detector interfaces.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"face_cropper/internal/feature/facecrop/domain/entity"
	"face_cropper/internal/feature/facecrop/usecase"
)

const (
	DefaultTTL       = 24 * time.Hour
	DefaultNamespace = "faces"
)

// CachingFaceDetector decorates a FaceDetector with Redis caching.
// Entries hold only the detected boxes, keyed by a digest of the uploaded bytes;
// image data is never written to Redis.
type CachingFaceDetector struct {
	inner     usecase.FaceDetector
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	backend   string
}

var _ usecase.FaceDetector = (*CachingFaceDetector)(nil)

// NewCachingFaceDetector decorates a FaceDetector with Redis caching.
// If ttl is 0, it defaults to 24 hours. If namespace is empty, it uses "faces".
// backend separates entries produced by different detector implementations.
func NewCachingFaceDetector(rdb *redis.Client, ttl time.Duration, inner usecase.FaceDetector, namespace, backend string) *CachingFaceDetector {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &CachingFaceDetector{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		backend:   backend,
	}
}

// DetectFaces returns cached boxes for identical uploads, falling back to the inner detector.
func (c *CachingFaceDetector) DetectFaces(ctx context.Context, img *entity.Image) ([]entity.BoundingBox, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.DetectFaces(ctx, img)
	}

	key := c.cacheKey(img.Raw)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.BoundingBox
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to the detector
	out, err := c.inner.DetectFaces(ctx, img)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// Purge deletes every entry of this namespace and backend. It returns the number of keys removed.
func (c *CachingFaceDetector) Purge(ctx context.Context) (int, error) {
	if c.rdb == nil {
		return 0, nil
	}
	return c.deleteByPattern(ctx, c.cacheKeyPrefix()+"*")
}

// cacheKey generates a cache key for a specific upload.
func (c *CachingFaceDetector) cacheKey(raw []byte) string {
	sum := sha256.Sum256(raw)
	return c.cacheKeyPrefix() + hex.EncodeToString(sum[:])
}

// cacheKeyPrefix generates the prefix shared by all entries of this detector.
func (c *CachingFaceDetector) cacheKeyPrefix() string {
	return fmt.Sprintf("%s:%s:", c.namespace, safe(c.backend))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingFaceDetector) deleteByPattern(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return deleted, err
			}
			deleted += len(keys)
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return deleted, nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
