package filesystem

import (
	"context"
	"sync"

	"github.com/tobimo/brackets/errors"
	"github.com/tobimo/brackets/fs/core"
)

// fakeStorage records the options it receives and returns canned results.
// When gate is non-nil, WriteFile blocks until it can receive from gate.
type fakeStorage struct {
	mu sync.Mutex

	contents  string
	stat      core.Stat
	readErr   error
	writeErr  error
	gate      chan struct{}
	started   chan struct{}
	reads     int
	writes    int
	readOpts  []core.ReadOptions
	writeOpts []core.WriteOptions
}

func (s *fakeStorage) ReadFile(_ context.Context, _ string, opts core.ReadOptions) (string, core.Stat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	s.readOpts = append(s.readOpts, opts)
	if s.readErr != nil {
		return "", core.Stat{}, s.readErr
	}
	return s.contents, s.stat, nil
}

func (s *fakeStorage) WriteFile(_ context.Context, _ string, data string, opts core.WriteOptions) (core.Stat, error) {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.writeOpts = append(s.writeOpts, opts)
	if s.writeErr != nil {
		return core.Stat{}, s.writeErr
	}
	s.contents = data
	return s.stat, nil
}

func (s *fakeStorage) Stat(context.Context, string) (core.Stat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stat, s.readErr
}

func (s *fakeStorage) ReadDir(context.Context, string) ([]core.DirEntry, error) {
	return nil, errors.ErrNotSupported
}

func (s *fakeStorage) MkdirAll(context.Context, string) (core.Stat, error) {
	return core.Stat{}, errors.ErrNotSupported
}

func (s *fakeStorage) Rename(context.Context, string, string) error { return nil }
func (s *fakeStorage) Remove(context.Context, string) error         { return nil }
func (s *fakeStorage) Type() core.FSType                            { return core.FSTypeMemory }

func (s *fakeStorage) lastReadOpts() core.ReadOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readOpts[len(s.readOpts)-1]
}

func (s *fakeStorage) lastWriteOpts() core.WriteOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeOpts[len(s.writeOpts)-1]
}

// fakeBarrier counts calls and remembers the extremes of the count.
type fakeBarrier struct {
	mu     sync.Mutex
	begins int
	ends   int
	active int
	max    int
	min    int
}

func (b *fakeBarrier) BeginWrite() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.begins++
	b.active++
	if b.active > b.max {
		b.max = b.active
	}
}

func (b *fakeBarrier) EndWrite() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ends++
	b.active--
	if b.active < b.min {
		b.min = b.active
	}
}

func (b *fakeBarrier) counts() (begins, ends, active int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.begins, b.ends, b.active
}
