//go:build !windows

// Package dump reads and writes gzip-compressed device images. A dump is a
// plain gzip stream of the raw device bytes, with no extra framing, so it
// stays compatible with standalone gunzip.
package dump

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sys/unix"
)

// DefaultLevel is the compression level used when the caller does not pick one.
const DefaultLevel = 6

var (
	// ErrNotRegularFile is returned when a dump path does not name a regular file.
	ErrNotRegularFile = errors.New("not a regular file")
	// ErrInvalidLevel is returned for compression levels outside 0-9.
	ErrInvalidLevel = errors.New("compression level must be between 0 and 9")
)

// Writer compresses a raw image into a dump file.
type Writer struct {
	f      *os.File
	count  *countingWriter
	gz     *gzip.Writer
	path   string
	closed bool
}

// Create opens path for writing at the given compression level, truncating any
// existing dump. The level is checked before the file is touched so a bad
// level never clobbers an existing dump.
func Create(path string, level int) (*Writer, error) {
	if level < gzip.NoCompression || level > gzip.BestCompression {
		return nil, fmt.Errorf("dump %s: %w, got %d", path, ErrInvalidLevel, level)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create dump %s: %w", path, err)
	}

	if _, err := statRegular(f, path); err != nil {
		_ = f.Close()
		return nil, err
	}

	count := &countingWriter{w: f}
	gz, err := gzip.NewWriterLevel(count, level)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create gzip stream for dump %s: %w", path, err)
	}

	slog.Debug("Created dump", "path", path, "level", level)

	return &Writer{f: f, count: count, gz: gz, path: path}, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	return w.gz.Write(p)
}

// CompressedSize reports the compressed bytes emitted so far. It is final
// once Close has flushed the stream.
func (w *Writer) CompressedSize() int64 {
	return w.count.n
}

// Close flushes the compressed stream and closes the file. Calling it more
// than once is safe.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.gz.Close(); err != nil {
		_ = w.f.Close()
		return fmt.Errorf("failed to flush dump %s: %w", w.path, err)
	}

	if err := w.f.Close(); err != nil {
		return fmt.Errorf("failed to close dump %s: %w", w.path, err)
	}

	return nil
}

// Reader decompresses a dump file back into the raw image stream.
type Reader struct {
	f    *os.File
	gz   *gzip.Reader
	path string
	size int64
	eof  bool
}

// Open opens an existing dump for reading. Only the node kind and on-disk
// size are examined here; the gzip header is consumed lazily on the first
// Read, so opening a zero-length dump for metadata alone succeeds.
func Open(path string) (*Reader, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open dump %s: %w", path, err)
	}

	st, err := statRegular(f, path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	slog.Debug("Opened dump", "path", path, "compressed_size", st.Size)

	return &Reader{f: f, path: path, size: st.Size}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.eof {
		return 0, io.EOF
	}

	if r.gz == nil {
		gz, err := gzip.NewReader(r.f)
		if errors.Is(err, io.EOF) {
			// A zero-length dump reads as an empty stream.
			r.eof = true
			return 0, io.EOF
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read dump %s header: %w", r.path, err)
		}
		r.gz = gz
	}

	return r.gz.Read(p)
}

// CompressedSize reports the dump's on-disk byte length at open time.
func (r *Reader) CompressedSize() int64 {
	return r.size
}

func (r *Reader) Close() error {
	if r.gz != nil {
		_ = r.gz.Close()
	}
	return r.f.Close()
}

// statRegular stats the open descriptor, not the path, so the validated node
// is the one the handle actually refers to.
func statRegular(f *os.File, path string) (unix.Stat_t, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return st, fmt.Errorf("failed to stat dump %s: %w", path, err)
	}

	if st.Mode&unix.S_IFMT != unix.S_IFREG {
		slog.Error("Dump is not a regular file", "path", path)
		return st, fmt.Errorf("dump %s: %w", path, ErrNotRegularFile)
	}

	return st, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
