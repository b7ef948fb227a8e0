// In file: internal/llm/attachment_cache.go
package llm

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dileep-u-k/tutor-director/internal/compose"
	"github.com/dileep-u-k/tutor-director/internal/log"
	"github.com/dileep-u-k/tutor-director/internal/version"
)

const attachmentKeyPrefix = "attachment"

// AttachmentCache remembers which provider URI a local document was uploaded
// to, so repeated questions about the same document skip the upload. Entries
// expire before the provider deletes the file.
type AttachmentCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAttachmentCache creates a cache. A non-positive ttl uses DefaultAttachmentTTL.
func NewAttachmentCache(rdb *redis.Client, ttl time.Duration) *AttachmentCache {
	if ttl <= 0 {
		ttl = DefaultAttachmentTTL
	}
	return &AttachmentCache{rdb: rdb, ttl: ttl}
}

// attachmentKey identifies a file by path, size and modification time.
func attachmentKey(path string, info os.FileInfo) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return version.FileCacheKey(attachmentKeyPrefix, path, info.Size(), info.ModTime())
}

// Get returns the cached attachment stored under key. Redis errors count as a miss.
func (c *AttachmentCache) Get(ctx context.Context, key string) (compose.Attachment, bool) {
	fields, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		log.Warnf("⚠️ Attachment cache lookup failed: %v", err)
		return compose.Attachment{}, false
	}
	uri := fields["uri"]
	if uri == "" {
		return compose.Attachment{}, false
	}
	return compose.Attachment{Title: fields["title"], URI: uri, MIMEType: fields["mime_type"]}, true
}

// Put stores att under key for the cache TTL. Failures are logged only.
func (c *AttachmentCache) Put(ctx context.Context, key string, att compose.Attachment) {
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, "uri", att.URI, "mime_type", att.MIMEType, "title", att.Title)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warnf("⚠️ Failed to cache attachment %q: %v", att.Title, err)
	}
}
