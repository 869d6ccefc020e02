// Package fstest provides a conformance test suite for validating storage
// implementations against the core.Storage contract.
//
// The suite is designed to validate the contract, not backend-specific
// behavior. Different backends have different capabilities (S3 has no real
// directories, for example), and Config lets each backend declare the
// documented differences.
//
// Example usage:
//
//	func TestMyStorage(t *testing.T) {
//	    fstest.TestSuite(t, func() core.Storage {
//	        return mystorage.New()
//	    })
//	}
package fstest

import (
	"context"
	"testing"

	"github.com/tobimo/brackets/fs/core"
)

// Config configures the test suite to match storage behavior characteristics.
type Config struct {
	// VirtualDirectories indicates directories are virtual (e.g., S3 prefixes).
	// When true, directories only exist while they contain objects and
	// writes never fail because a parent is missing.
	VirtualDirectories bool

	// Encodings lists the non-default encodings the backend must round-trip.
	Encodings []string

	// SkipTests lists specific test names to skip.
	// Format: "Group/SubTest" (e.g., "Write/MissingParent").
	SkipTests []string
}

// POSIXConfig returns configuration for POSIX-like storage (local, memory).
func POSIXConfig() Config {
	return Config{
		VirtualDirectories: false,
		Encodings:          []string{"latin1", "utf-16le"},
	}
}

// S3Config returns configuration for S3-like storage (MinIO, S3).
func S3Config() Config {
	return Config{
		VirtualDirectories: true,
		Encodings:          []string{"latin1"},
	}
}

func (c Config) skip(t *testing.T, name string) bool {
	t.Helper()
	for _, s := range c.SkipTests {
		if s == name {
			t.Skip("Skipped by provider configuration")
			return true
		}
	}
	return false
}

// TestSuite runs all conformance tests using POSIXConfig.
// The newStorage function should return a fresh, empty storage for each
// group. Tests create and modify files, so each invocation should start
// clean.
func TestSuite(t *testing.T, newStorage func() core.Storage) {
	TestSuiteWithConfig(t, newStorage, POSIXConfig())
}

// TestSuiteWithConfig runs conformance tests with behavior configuration.
func TestSuiteWithConfig(t *testing.T, newStorage func() core.Storage, config Config) {
	groups := []struct {
		name string
		fn   func(*testing.T, core.Storage, Config)
	}{
		{"Read", TestRead},
		{"Write", TestWrite},
		{"Manage", TestManage},
		{"Encoding", TestEncoding},
		{"Concurrent", TestConcurrent},
	}

	for _, g := range groups {
		t.Run(g.name, func(t *testing.T) {
			if config.skip(t, g.name) {
				return
			}
			g.fn(t, newStorage(), config)
		})
	}
}

func run(t *testing.T, config Config, group, name string, fn func(t *testing.T)) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if config.skip(t, group+"/"+name) {
			return
		}
		fn(t)
	})
}

// mustWrite writes a fixture file, creating parents first.
func mustWrite(t *testing.T, storage core.Storage, name, data string) core.Stat {
	t.Helper()
	ctx := context.Background()
	if dir := parentOf(name); dir != "/" {
		if _, err := storage.MkdirAll(ctx, dir); err != nil {
			t.Fatalf("MkdirAll(%q): setup failed: %v", dir, err)
		}
	}
	stat, err := storage.WriteFile(ctx, name, data, core.WriteOptions{Encoding: core.DefaultEncoding})
	if err != nil {
		t.Fatalf("WriteFile(%q): setup failed: %v", name, err)
	}
	return stat
}

func parentOf(name string) string {
	for i := len(name) - 1; i > 0; i-- {
		if name[i] == '/' {
			return name[:i]
		}
	}
	return "/"
}
