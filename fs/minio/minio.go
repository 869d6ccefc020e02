package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"

	"github.com/tobimo/brackets/errors"
	"github.com/tobimo/brackets/fs/core"
	"github.com/tobimo/brackets/fs/minio/internal/errs"
	"github.com/tobimo/brackets/fs/minio/internal/pathutil"
	"github.com/tobimo/brackets/fs/minio/internal/types"
	"github.com/tobimo/brackets/fs/textenc"
)

// zeroTime is reported as the modification time of implied directories.
var zeroTime time.Time

// MinioFS implements core.Storage for MinIO/S3-compatible storage.
// Directories are virtual: a directory exists while at least one key
// lives below it. MkdirAll writes an empty "dir/" marker object so empty
// directories survive.
//
//nolint:revive // MinioFS name is intentional to match LocalFS/MemoryFS
type MinioFS struct {
	client             *minio.Client
	bucket             string
	prefix             string // Optional prefix for all keys
	defaultEncoding    string
	multipartThreshold int64 // Part size for multipart uploads
	renameConcurrency  int   // Max concurrent copies for directory rename
}

// NewMinIO creates a MinIO-backed storage.
// Returns error if configuration is invalid or the client cannot be created.
func NewMinIO(cfg Config) (*MinioFS, error) {
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParams, "invalid config")
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeUnavailable, "failed to create minio client")
		}
	}

	encoding := cfg.DefaultEncoding
	if encoding == "" {
		encoding = core.DefaultEncoding
	}

	multipartThreshold := cfg.MultipartThreshold
	if multipartThreshold == 0 {
		multipartThreshold = 5 * 1024 * 1024
	}

	renameConcurrency := cfg.MaxRenameConcurrency
	if renameConcurrency == 0 {
		renameConcurrency = 10
	}

	return &MinioFS{
		client:             client,
		bucket:             cfg.Bucket,
		prefix:             pathutil.NormalizePrefix(cfg.Prefix),
		defaultEncoding:    encoding,
		multipartThreshold: multipartThreshold,
		renameConcurrency:  renameConcurrency,
	}, nil
}

// key maps a storage path onto an object key.
func (m *MinioFS) key(name string) string {
	return pathutil.JoinPath(m.prefix, name)
}

func (m *MinioFS) encoding(name string) string {
	if name == "" {
		return m.defaultEncoding
	}
	return name
}

// Type returns FSTypeRemote.
func (m *MinioFS) Type() core.FSType {
	return core.FSTypeRemote
}

// ReadFile downloads the named object and decodes it as text.
func (m *MinioFS) ReadFile(ctx context.Context, name string, opts core.ReadOptions) (string, core.Stat, error) {
	key := m.key(name)

	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", core.Stat{}, errs.Translate(err, "read", name)
	}
	defer func() {
		_ = obj.Close()
	}()

	// Stat on the object handle issues the request; missing keys fail here.
	info, err := obj.Stat()
	if err != nil {
		return "", core.Stat{}, errs.Translate(err, "read", name)
	}

	buf := make([]byte, info.Size)
	if _, err := io.ReadFull(obj, buf); err != nil {
		return "", core.Stat{}, errs.Translate(err, "read", name)
	}

	text, err := textenc.Decode(m.encoding(opts.Encoding), buf)
	if err != nil {
		return "", core.Stat{}, errors.WithContext(err, "path", name)
	}

	return text, types.ObjectStat(info), nil
}

// WriteFile encodes data and uploads it, replacing any existing object.
func (m *MinioFS) WriteFile(ctx context.Context, name string, data string, opts core.WriteOptions) (core.Stat, error) {
	key := m.key(name)
	encoding := m.encoding(opts.Encoding)

	raw, err := textenc.Encode(encoding, data)
	if err != nil {
		return core.Stat{}, errors.WithContext(err, "path", name)
	}

	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=" + encoding,
		PartSize:    uint64(m.multipartThreshold),
	})
	if err != nil {
		return core.Stat{}, errs.Translate(err, "write", name)
	}

	// PutObject does not report LastModified; read it back so the snapshot
	// matches later Stat calls.
	info, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return core.Stat{}, errs.Translate(err, "write", name)
	}
	return types.ObjectStat(info), nil
}

// Stat returns object metadata, or a directory snapshot when name is a
// prefix of other keys.
func (m *MinioFS) Stat(ctx context.Context, name string) (core.Stat, error) {
	key := m.key(name)

	if key != m.prefix {
		info, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
		if err == nil {
			return types.ObjectStat(info), nil
		}
		if !errors.HasCode(errs.Translate(err, "stat", name), errors.CodeNotFound) {
			return core.Stat{}, errs.Translate(err, "stat", name)
		}
	}

	found, err := m.prefixExists(ctx, pathutil.DirKey(key))
	if err != nil {
		return core.Stat{}, errs.Translate(err, "stat", name)
	}
	if !found && key != m.prefix {
		return core.Stat{}, errs.NotFound("stat", name)
	}
	return types.DirStat(zeroTime), nil
}

// prefixExists reports whether any object lives below dirKey.
func (m *MinioFS) prefixExists(ctx context.Context, dirKey string) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:  dirKey,
		MaxKeys: 1, // We only need to know if ANY object exists
	}) {
		if object.Err != nil {
			return false, object.Err
		}
		return true, nil
	}
	return false, nil
}

// ReadDir lists the immediate children of a virtual directory.
func (m *MinioFS) ReadDir(ctx context.Context, name string) ([]core.DirEntry, error) {
	dirKey := pathutil.DirKey(m.key(name))

	var entries []core.DirEntry
	found := false
	for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    dirKey,
		Recursive: false, // Use delimiter for directory-like listing
	}) {
		if object.Err != nil {
			return nil, errs.Translate(object.Err, "readdir", name)
		}
		found = true
		if entry, ok := types.ListEntry(dirKey, object); ok {
			entries = append(entries, entry)
		}
	}

	if !found && dirKey != pathutil.DirKey(m.prefix) {
		return nil, errs.NotFound("readdir", name)
	}

	// Enforce ordering; servers usually return keys sorted already
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// MkdirAll writes a directory marker object. Parents are implied by the
// marker key.
func (m *MinioFS) MkdirAll(ctx context.Context, name string) (core.Stat, error) {
	key := m.key(name)
	if key == m.prefix {
		return types.DirStat(zeroTime), nil
	}

	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err == nil {
		return core.Stat{}, errors.Newf(errors.CodeAlreadyExists, "mkdir %s: a file exists at this path", name)
	}

	info, err := m.client.PutObject(ctx, m.bucket, pathutil.DirKey(key), bytes.NewReader(nil), 0, minio.PutObjectOptions{})
	if err != nil {
		return core.Stat{}, errs.Translate(err, "mkdir", name)
	}
	return types.DirStat(info.LastModified), nil
}

// Remove deletes the named object, or every object below the named
// directory.
func (m *MinioFS) Remove(ctx context.Context, name string) error {
	key := m.key(name)

	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err == nil {
		if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return errs.Translate(err, "remove", name)
		}
		return nil
	}

	dirKey := pathutil.DirKey(key)
	objectsCh := make(chan minio.ObjectInfo, 100)

	// Launch lister goroutine
	var listErr error
	var count int
	go func() {
		defer close(objectsCh)
		for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
			Prefix:    dirKey,
			Recursive: true,
		}) {
			if object.Err != nil {
				listErr = object.Err
				return
			}
			count++
			objectsCh <- object
		}
	}()

	// Use RemoveObjects batch API for efficient deletion
	var firstErr error
	for result := range m.client.RemoveObjects(ctx, m.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if result.Err != nil && firstErr == nil {
			firstErr = result.Err
		}
	}

	// The lister has finished once RemoveObjects drained objectsCh.
	if listErr != nil {
		return errs.Translate(listErr, "remove", name)
	}
	if firstErr != nil {
		return errs.Translate(firstErr, "remove", name)
	}
	if count == 0 {
		return errs.NotFound("remove", name)
	}
	return nil
}

// Rename renames (moves) oldpath to newpath.
// In S3/MinIO, this is implemented as parallel copy + batch delete.
//
// IMPORTANT: This operation is NOT atomic. If an error occurs during
// the copy phase, some objects may have been copied. If an error occurs
// during the delete phase, objects will exist at both old and new paths.
func (m *MinioFS) Rename(ctx context.Context, oldpath, newpath string) error {
	oldKey := m.key(oldpath)
	newKey := m.key(newpath)

	if _, err := m.client.StatObject(ctx, m.bucket, oldKey, minio.StatObjectOptions{}); err == nil {
		return m.renameFile(ctx, oldKey, newKey, oldpath)
	}

	copied, err := m.parallelCopy(ctx, pathutil.DirKey(oldKey), pathutil.DirKey(newKey))
	if err != nil {
		return errs.Translate(err, "rename", oldpath)
	}
	if len(copied) == 0 {
		return errs.NotFound("rename", oldpath)
	}

	toDelete := make(chan minio.ObjectInfo, len(copied))
	for _, key := range copied {
		toDelete <- minio.ObjectInfo{Key: key}
	}
	close(toDelete)

	for result := range m.client.RemoveObjects(ctx, m.bucket, toDelete, minio.RemoveObjectsOptions{}) {
		if result.Err != nil {
			// Copy succeeded but delete failed - partial state
			return errs.Translate(result.Err, "rename", oldpath)
		}
	}
	return nil
}

// renameFile renames a single object.
func (m *MinioFS) renameFile(ctx context.Context, oldKey, newKey, oldpath string) error {
	src := minio.CopySrcOptions{Bucket: m.bucket, Object: oldKey}
	dst := minio.CopyDestOptions{Bucket: m.bucket, Object: newKey}

	if _, err := m.client.CopyObject(ctx, dst, src); err != nil {
		return errs.Translate(err, "rename", oldpath)
	}
	if err := m.client.RemoveObject(ctx, m.bucket, oldKey, minio.RemoveObjectOptions{}); err != nil {
		return errs.Translate(err, "rename", oldpath)
	}
	return nil
}

// parallelCopy copies objects from old to new prefix using a worker pool.
// Returns the list of successfully copied object keys for cleanup.
func (m *MinioFS) parallelCopy(ctx context.Context, oldPrefix, newPrefix string) ([]string, error) {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(m.renameConcurrency)

	var copiedMu sync.Mutex
	var copied []string

	for object := range m.client.ListObjects(egCtx, m.bucket, minio.ListObjectsOptions{
		Prefix:    oldPrefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			_ = eg.Wait()
			return copied, object.Err
		}

		objectKey := object.Key
		eg.Go(func() error {
			newKey := newPrefix + strings.TrimPrefix(objectKey, oldPrefix)

			src := minio.CopySrcOptions{Bucket: m.bucket, Object: objectKey}
			dst := minio.CopyDestOptions{Bucket: m.bucket, Object: newKey}
			if _, err := m.client.CopyObject(egCtx, dst, src); err != nil {
				return fmt.Errorf("copy object %s to %s: %w", objectKey, newKey, err)
			}

			copiedMu.Lock()
			copied = append(copied, objectKey)
			copiedMu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return copied, fmt.Errorf("parallel copy failed: %w", err)
	}
	return copied, nil
}

// Compile-time interface check.
var _ core.Storage = (*MinioFS)(nil)
