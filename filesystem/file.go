package filesystem

import (
	"context"

	"go.uber.org/zap"

	"github.com/tobimo/brackets/fs/core"
)

// ReadCallback receives the result of ReadAsTextAsync.
type ReadCallback func(err error, contents string, stat core.Stat)

// WriteCallback receives the result of WriteAsync.
type WriteCallback func(err error, stat core.Stat)

type fileOptions struct {
	encoding string
}

// FileOption configures a read or a write.
type FileOption func(*fileOptions)

// WithEncoding names the text encoding, e.g. "utf8" or "latin1".
func WithEncoding(name string) FileOption {
	return func(o *fileOptions) { o.encoding = name }
}

// File is a handle to a byte-stream resource. It caches the last known
// stat but never the content.
type File struct {
	entry
}

func newFile(fs *FileSystem, p string) *File {
	f := &File{}
	f.init(fs, KindFile, p)
	return f
}

// ReadAsText reads the whole file as text. Without WithEncoding the
// storage default applies.
//
// On success the cached stat is replaced with the returned one. On
// failure the cached stat is left alone and the storage error is
// returned unchanged.
func (f *File) ReadAsText(ctx context.Context, opts ...FileOption) (string, core.Stat, error) {
	var o fileOptions
	for _, opt := range opts {
		opt(&o)
	}

	name := f.Path()
	contents, stat, err := f.fs.storage.ReadFile(ctx, name, core.ReadOptions{Encoding: o.encoding})
	f.fs.metrics.ObserveRead(err)
	if err != nil {
		f.fs.logger.Debug("read failed", zap.String("path", name), zap.Error(err))
		return "", core.Stat{}, err
	}

	f.setStat(stat)
	return contents, stat, nil
}

// ReadAsTextAsync runs ReadAsText on a new goroutine and passes the result
// to cb. The returned channel is closed after cb returns. A panic in cb is
// recovered and logged.
func (f *File) ReadAsTextAsync(ctx context.Context, cb ReadCallback, opts ...FileOption) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		contents, stat, err := f.ReadAsText(ctx, opts...)
		if cb != nil {
			f.fs.safeCall("read", f.Path(), func() { cb(err, contents, stat) })
		}
	}()
	return done
}

// Write replaces the file content with data. Without WithEncoding the
// data is written as "utf8".
//
// The registry's write barrier is held for the duration of the call so
// the change notification caused by this write is recognized as our own.
func (f *File) Write(ctx context.Context, data string, opts ...FileOption) (core.Stat, error) {
	barrier := f.fs.barrier
	barrier.BeginWrite()
	defer barrier.EndWrite()

	return f.write(ctx, data, opts)
}

// WriteAsync runs Write on a new goroutine and passes the result to cb.
// The barrier is acquired before WriteAsync returns and released after cb
// returns, even if cb panics. The returned channel is closed after the
// barrier is released. cb may be nil.
func (f *File) WriteAsync(ctx context.Context, data string, cb WriteCallback, opts ...FileOption) <-chan struct{} {
	if cb == nil {
		cb = func(error, core.Stat) {}
	}

	barrier := f.fs.barrier
	barrier.BeginWrite()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer barrier.EndWrite()

		stat, err := f.write(ctx, data, opts)
		f.fs.safeCall("write", f.Path(), func() { cb(err, stat) })
	}()
	return done
}

func (f *File) write(ctx context.Context, data string, opts []FileOption) (core.Stat, error) {
	o := fileOptions{encoding: core.DefaultEncoding}
	for _, opt := range opts {
		opt(&o)
	}
	if o.encoding == "" {
		o.encoding = core.DefaultEncoding
	}

	name := f.Path()
	stat, err := f.fs.storage.WriteFile(ctx, name, data, core.WriteOptions{Encoding: o.encoding})
	f.fs.metrics.ObserveWrite(err)
	if err != nil {
		f.fs.logger.Debug("write failed", zap.String("path", name), zap.Error(err))
		return core.Stat{}, err
	}

	f.setStat(stat)
	return stat, nil
}

var _ Entry = (*File)(nil)
