// In file: internal/version/version.go

// Package version centralizes the versioning for different logical components of the director.
//
// Version strings are folded into cache keys: bumping a component's version
// makes every key built under the old one unreachable, so stale entries simply
// expire instead of being served. For example, changing how attachments are
// uploaded and bumping Attachments from "v1.0" to "v1.1" forces every document
// to be uploaded again.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// ComponentVersions holds the version strings for different logical parts of the application.
// Manually increment a version number here before you deploy a change to that component.
var ComponentVersions = struct {
	// Tools should be updated whenever a tool's schema or payload shape changes.
	Tools string

	// Attachments should be updated whenever the way documents are uploaded
	// to the generation provider changes.
	Attachments string

	// Instructions should be updated whenever the decision engine's system
	// instructions change.
	Instructions string
}{
	Tools:        "v1.0",
	Attachments:  "v1.0",
	Instructions: "v1.0",
}

// Fingerprint is a compact string describing the current component versions,
// e.g. "tv1.0_av1.0_iv1.0".
func Fingerprint() string {
	return fmt.Sprintf("tv%s_av%s_iv%s",
		ComponentVersions.Tools,
		ComponentVersions.Attachments,
		ComponentVersions.Instructions,
	)
}

// GenerateVersionedCacheKey creates a consistent, version-aware cache key.
//
// It combines a prefix, a hash of the input, and the current component
// versions.
//
// Example output: "attachment:a1b2c3d4...:tv1.0_av1.0_iv1.0"
func GenerateVersionedCacheKey(prefix, input string) string {
	hasher := sha256.New()
	hasher.Write([]byte(input))
	inputHash := hex.EncodeToString(hasher.Sum(nil))

	return fmt.Sprintf("%s:%s:%s", prefix, inputHash, Fingerprint())
}

// FileCacheKey keys a cache entry on a local file's identity: its cleaned
// path, size and modification time. Editing the file changes the key.
func FileCacheKey(prefix, path string, size int64, modTime time.Time) string {
	identity := strings.Join([]string{
		path,
		fmt.Sprintf("%d", size),
		modTime.UTC().Format(time.RFC3339Nano),
	}, "|")
	return GenerateVersionedCacheKey(prefix, identity)
}
