// Package types converts MinIO object metadata into storage snapshots.
package types // nolint:revive // Internal package with clear purpose

import (
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/tobimo/brackets/fs/core"
	"github.com/tobimo/brackets/fs/minio/internal/pathutil"
)

// ObjectStat converts object metadata into a file snapshot. The ETag is
// used as the content hash.
func ObjectStat(info minio.ObjectInfo) core.Stat {
	return core.Stat{
		Size:    info.Size,
		ModTime: info.LastModified,
		Hash:    pathutil.StripETag(info.ETag),
	}
}

// DirStat returns the snapshot used for virtual directories.
func DirStat(modTime time.Time) core.Stat {
	return core.Stat{ModTime: modTime, IsDir: true}
}

// ListEntry converts a non-recursive listing result below dirKey into a
// directory entry. It reports false for the directory marker itself.
func ListEntry(dirKey string, object minio.ObjectInfo) (core.DirEntry, bool) {
	if object.Key == dirKey {
		return core.DirEntry{}, false
	}

	name := strings.TrimPrefix(object.Key, dirKey)
	if strings.HasSuffix(name, "/") {
		name = strings.TrimSuffix(name, "/")
		if name == "" {
			return core.DirEntry{}, false
		}
		return core.DirEntry{Name: name, Stat: DirStat(object.LastModified)}, true
	}
	if name == "" {
		return core.DirEntry{}, false
	}
	return core.DirEntry{Name: name, Stat: ObjectStat(object)}, true
}
