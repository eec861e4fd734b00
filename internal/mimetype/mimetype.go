// Package mimetype resolves content types for object keys, preferring a
// small override table tuned for data-science payloads before falling back
// to the platform MIME registry.
package mimetype

import (
	"mime"
	"path"
	"strings"
)

// Overrides take precedence over the platform registry, which guesses
// inconsistently across systems for these extensions.
var overrides = map[string]string{
	".csv":    "text/csv",
	".jsonl":  "application/x-jsonlines",
	".ndjson": "application/x-jsonlines",
	".js":     "text/javascript",
	".zip":    "application/zip",
	".sql":    "application/sql",
	".webp":   "image/webp",
	".ico":    "image/vnd.microsoft.icon",
}

// FromKey returns the content type suggested by the key's extension, or the
// fallback when no suggestion is available.
func FromKey(key, fallback string) string {
	ext := strings.ToLower(path.Ext(key))
	if ext == "" {
		return fallback
	}
	if ct, ok := overrides[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		// Strip any charset parameter the registry may attach.
		if i := strings.IndexByte(ct, ';'); i >= 0 {
			ct = strings.TrimSpace(ct[:i])
		}
		return ct
	}
	return fallback
}
