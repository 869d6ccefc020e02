package minio

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tobimo/brackets/errors"
	"github.com/tobimo/brackets/fs/core"
	"github.com/tobimo/brackets/fs/fstest"
)

const testBucket = "test-bucket"

// setupMinIOContainer starts a MinIO container and returns a client for it.
func setupMinIOContainer(t *testing.T) *minio.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "minioadmin",
			"MINIO_ROOT_PASSWORD": "minioadmin",
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
	}

	minioC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start MinIO container")
	t.Cleanup(func() {
		_ = minioC.Terminate(ctx)
	})

	endpoint, err := minioC.Endpoint(ctx, "")
	require.NoError(t, err, "failed to get container endpoint")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	require.NoError(t, err, "failed to create MinIO client")

	require.NoError(t, client.MakeBucket(ctx, testBucket, minio.MakeBucketOptions{}))
	return client
}

var prefixSeq atomic.Int64

// newMinIOFS returns a storage rooted at a fresh prefix so tests sharing
// the bucket never see each other's objects.
func newMinIOFS(t *testing.T, client *minio.Client) *MinioFS {
	t.Helper()

	fs, err := NewMinIO(Config{
		Client: client,
		Bucket: testBucket,
		Prefix: fmt.Sprintf("run-%d", prefixSeq.Add(1)),
	})
	require.NoError(t, err, "failed to create MinioFS")
	return fs
}

// TestMinioConformance runs the storage conformance suite with S3 configuration.
func TestMinioConformance(t *testing.T) {
	client := setupMinIOContainer(t)

	fstest.TestSuiteWithConfig(t, func() core.Storage {
		return newMinIOFS(t, client)
	}, fstest.S3Config())
}

func TestLargeFileUpload(t *testing.T) {
	client := setupMinIOContainer(t)
	fs := newMinIOFS(t, client)
	ctx := context.Background()

	// Larger than the multipart threshold
	data := strings.Repeat("0123456789", 600*1024)

	stat, err := fs.WriteFile(ctx, "/large.txt", data, core.WriteOptions{Encoding: core.DefaultEncoding})
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), stat.Size)

	got, readStat, err := fs.ReadFile(ctx, "/large.txt", core.ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.True(t, stat.Equal(readStat))
}

func TestRenameDirectory(t *testing.T) {
	client := setupMinIOContainer(t)
	fs := newMinIOFS(t, client)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := fs.WriteFile(ctx, fmt.Sprintf("/src/nested/file-%02d.txt", i), "x", core.WriteOptions{})
		require.NoError(t, err)
	}

	require.NoError(t, fs.Rename(ctx, "/src", "/dst"))

	_, err := fs.Stat(ctx, "/src")
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	entries, err := fs.ReadDir(ctx, "/dst/nested")
	require.NoError(t, err)
	assert.Len(t, entries, 25)
	assert.Equal(t, "file-00.txt", entries[0].Name)
}

func TestConcurrentWrites(t *testing.T) {
	client := setupMinIOContainer(t)
	fs := newMinIOFS(t, client)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := fs.WriteFile(ctx, fmt.Sprintf("/c/%d.txt", i), fmt.Sprint(i), core.WriteOptions{})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	entries, err := fs.ReadDir(ctx, "/c")
	require.NoError(t, err)
	assert.Len(t, entries, 10)
}

func TestEmptyDirectoryMarker(t *testing.T) {
	client := setupMinIOContainer(t)
	fs := newMinIOFS(t, client)
	ctx := context.Background()

	stat, err := fs.MkdirAll(ctx, "/empty")
	require.NoError(t, err)
	assert.True(t, stat.IsDir)

	stat, err = fs.Stat(ctx, "/empty")
	require.NoError(t, err)
	assert.True(t, stat.IsDir)

	entries, err := fs.ReadDir(ctx, "/empty")
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = fs.WriteFile(ctx, "/f.txt", "x", core.WriteOptions{})
	require.NoError(t, err)
	_, err = fs.MkdirAll(ctx, "/f.txt")
	assert.True(t, errors.HasCode(err, errors.CodeAlreadyExists))
}
