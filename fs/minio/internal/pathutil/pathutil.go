// Package pathutil maps storage paths onto MinIO/S3 object keys.
package pathutil

import (
	"path/filepath"
	"strings"
)

// Normalize cleans a path and ensures forward slashes.
// It applies: ToSlash → Clean → Trim slashes
// Returns "." for empty paths and the root.
func Normalize(path string) string {
	if path == "" {
		return "."
	}

	// Convert backslashes first (for Windows-style paths)
	path = strings.ReplaceAll(path, "\\", "/")
	path = filepath.ToSlash(filepath.Clean(path))
	path = strings.Trim(path, "/")

	if path == "" {
		return "."
	}
	return path
}

// NormalizePrefix normalizes a key prefix. Returns "" for "." or empty.
func NormalizePrefix(prefix string) string {
	prefix = Normalize(prefix)
	if prefix == "." {
		return ""
	}
	return prefix
}

// JoinPath joins a prefix with a storage path to create an object key.
// The root maps to the prefix itself.
func JoinPath(prefix, name string) string {
	name = Normalize(name)

	if name == "." {
		return prefix
	}
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// DirKey returns the listing prefix for a directory key: the key with a
// trailing slash, or "" for the bucket root.
func DirKey(key string) string {
	if key == "" || strings.HasSuffix(key, "/") {
		return key
	}
	return key + "/"
}

// StripETag removes the quotes some servers put around ETags.
func StripETag(etag string) string {
	return strings.Trim(etag, `"`)
}
