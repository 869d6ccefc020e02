package fstest

import (
	"context"
	"testing"

	"github.com/tobimo/brackets/errors"
	"github.com/tobimo/brackets/fs/core"
)

// TestEncoding tests that ReadOptions and WriteOptions encodings are
// honored.
func TestEncoding(t *testing.T, storage core.Storage, config Config) {
	ctx := context.Background()

	for _, enc := range config.Encodings {
		run(t, config, "Encoding", enc, func(t *testing.T) {
			name := "/enc-" + enc + ".txt"
			const text = "café"
			if _, err := storage.WriteFile(ctx, name, text, core.WriteOptions{Encoding: enc}); err != nil {
				t.Fatalf("WriteFile(%s): got error %v", enc, err)
			}
			got, _, err := storage.ReadFile(ctx, name, core.ReadOptions{Encoding: enc})
			if err != nil {
				t.Fatalf("ReadFile(%s): got error %v", enc, err)
			}
			if got != text {
				t.Errorf("ReadFile(%s): got %q, want %q", enc, got, text)
			}
		})
	}

	run(t, config, "Encoding", "Unknown", func(t *testing.T) {
		_, err := storage.WriteFile(ctx, "/unknown.txt", "x", core.WriteOptions{Encoding: "klingon"})
		if got := errors.GetCode(err); got != errors.CodeUnsupportedEncoding {
			t.Errorf("WriteFile(klingon): got code %q (%v), want %q", got, err, errors.CodeUnsupportedEncoding)
		}
		if _, err := storage.Stat(ctx, "/unknown.txt"); errors.GetCode(err) != errors.CodeNotFound {
			t.Errorf("Stat(): got %v, want NotFound after rejected write", err)
		}
	})
}
