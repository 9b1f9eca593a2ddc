package engine

import "io"

// DeviceReader is the read side of a block-device endpoint.
type DeviceReader interface {
	io.ReadCloser
	// Size reports the device size in bytes and leaves the read position at
	// the start.
	Size() (int64, error)
}

// DeviceWriter is the write side of a block-device endpoint.
type DeviceWriter interface {
	io.WriteCloser
	// Size reports the device size in bytes and leaves the write position at
	// the start.
	Size() (int64, error)
	// Sync makes previously written data durable.
	Sync() error
}

// DumpReader is the decompressing read side of a dump.
type DumpReader interface {
	io.ReadCloser
	// CompressedSize reports the dump's on-disk byte length.
	CompressedSize() int64
}

// DumpWriter is the compressing write side of a dump. Close flushes the
// stream and must be safe to call more than once.
type DumpWriter interface {
	io.WriteCloser
	// CompressedSize reports the compressed bytes emitted so far; the value
	// is final after Close.
	CompressedSize() int64
}

// DeviceOpener opens device endpoints by path. Opening validates that the
// path names a block-special node before anything else happens.
type DeviceOpener interface {
	OpenRead(path string) (DeviceReader, error)
	OpenWrite(path string) (DeviceWriter, error)
}

// DumpOpener opens dump endpoints by path. Opening validates that the path
// names a regular file before anything else happens.
type DumpOpener interface {
	OpenRead(path string) (DumpReader, error)
	Create(path string, level int) (DumpWriter, error)
}
