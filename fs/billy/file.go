package billy

import (
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
	digest "github.com/opencontainers/go-digest"
)

// readBytes reads the whole named file.
func readBytes(bfs billy.Filesystem, name string) ([]byte, error) {
	f, err := bfs.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

// writeBytes replaces the contents of the named file with data.
// Backends whose files support Sync (osfs) are flushed before Close so the
// Stat taken afterwards reflects the write.
func writeBytes(bfs billy.Filesystem, name string, data []byte) error {
	f, err := bfs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}

	if syncer, ok := f.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			_ = f.Close()
			return err
		}
	}

	return f.Close()
}

// contentHash returns the digest recorded in core.Stat.Hash.
func contentHash(data []byte) string {
	return digest.FromBytes(data).String()
}
