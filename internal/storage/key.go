package storage

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// LocatorPrefix is the public URL prefix every stored blob is served
	// under.
	LocatorPrefix = "/api/files/"
	// LegacySegment is the historical directory marker that old locators
	// carry between the prefix and the key.
	LegacySegment = "uploads"
)

// GenerateKey builds a fresh key for an upload: millisecond timestamp,
// short random suffix, then the sanitized original name. Uniqueness is by
// construction, not by locking; a collision is treated as a store failure.
func GenerateKey(originalName string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), suffix, SanitizeName(originalName))
}

// SanitizeName replaces every character outside [A-Za-z0-9.-] with an
// underscore so the key is safe as a flat filename and URL segment.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return '_'
	}, name)
}

// BuildLocator turns a key into the URL persisted on domain records.
func BuildLocator(key string) string { return LocatorPrefix + key }

// ExtractKey parses a locator and returns the embedded key. It recognizes
// /api/files/<key> and the legacy /api/files/uploads/<key>; external URLs,
// empty strings and anything else return ok=false. It is the left inverse
// of BuildLocator.
func ExtractKey(locator string) (string, bool) {
	if locator == "" {
		return "", false
	}
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return "", false
	}
	if !strings.HasPrefix(locator, LocatorPrefix) {
		return "", false
	}
	rest := strings.TrimPrefix(locator, LocatorPrefix)
	rest = strings.TrimPrefix(rest, LegacySegment+"/")
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
