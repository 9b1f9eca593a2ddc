// Package engine implements the block transfer engine shared by the backup,
// restore, check, and info operations. A session iterates a (device, dump)
// pair in fixed-size blocks from offset zero, copying or comparing one block
// at a time while emitting structured progress events. There is no
// parallelism and no retry: a block is fully read before it is written, and
// every I/O error is fatal to the operation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/diskdump/diskdump/units"
	"github.com/oklog/ulid/v2"
)

// DefaultBlockSize is applied by Run when Config.BlockSize is zero.
const DefaultBlockSize = 4 * units.MiB

// Op selects which operation a session performs.
type Op string

const (
	OpInfo    Op = "info"
	OpBackup  Op = "backup"
	OpRestore Op = "restore"
	OpCheck   Op = "check"
)

var (
	// ErrInvalidBlockSize is returned for block sizes below one byte.
	ErrInvalidBlockSize = errors.New("block size must be at least 1 byte")

	// ErrTrailingData is returned when a source still has data past the size
	// measured at session start. The size changed between measurement and
	// transfer, e.g. the device was modified concurrently.
	ErrTrailingData = errors.New("trailing data past declared size")
)

// Config carries the parameters of one transfer session.
type Config struct {
	DevicePath string
	DumpPath   string

	// BlockSize is the fixed per-iteration transfer unit in bytes, at least
	// one. Zero selects DefaultBlockSize. The final block of a session may
	// be shorter.
	BlockSize int64

	// Level is the gzip compression level for Backup.
	Level int

	// SyncEachWrite makes Restore follow every device write with a durable
	// sync. This is the one durability guarantee the tool makes.
	SyncEachWrite bool

	// Progress, when set, receives per-block events.
	Progress ProgressFunc
}

// Result reports what one operation did.
type Result struct {
	Op      Op
	Session ulid.ULID

	DeviceSize int64
	// DumpSize is the compressed on-disk byte length of the dump side.
	DumpSize int64

	BlockSize    int64
	Blocks       int64
	BlocksDone   int64
	BytesRead    int64
	BytesWritten int64

	// Truncated reports that the source ended before the declared size was
	// exhausted. The transfer stopped early; this is reported, not fatal.
	Truncated bool

	// Verified is non-nil for Check: true when every block matched. An
	// empty device verifies trivially.
	Verified *bool

	// MismatchBlock is the first diverging block index when Verified is
	// false, -1 otherwise.
	MismatchBlock int64
}

// Engine runs transfer sessions over endpoints supplied by its openers.
type Engine struct {
	devices DeviceOpener
	dumps   DumpOpener
}

// New returns an engine that opens endpoints through the given openers.
func New(devices DeviceOpener, dumps DumpOpener) *Engine {
	return &Engine{devices: devices, dumps: dumps}
}

// Run performs one operation against the configured (device, dump) pair.
// The context is observed between blocks, so cancellation stops the transfer
// at the next block boundary with both endpoints closed.
func (e *Engine) Run(ctx context.Context, op Op, cfg Config) (*Result, error) {
	if cfg.BlockSize == 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if cfg.BlockSize < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidBlockSize, cfg.BlockSize)
	}

	s := &session{engine: e, id: ulid.Make(), cfg: cfg}

	slog.Debug("Starting transfer session",
		"session", s.id,
		"op", op,
		"device", cfg.DevicePath,
		"dump", cfg.DumpPath,
		"block_size", cfg.BlockSize,
	)

	switch op {
	case OpInfo:
		return s.info()
	case OpBackup:
		return s.backup(ctx)
	case OpRestore:
		return s.restore(ctx)
	case OpCheck:
		return s.check(ctx)
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

// session is the transient state of one running operation. It exists only
// for the duration of a single Run and keeps no progress across runs.
type session struct {
	engine *Engine
	id     ulid.ULID
	cfg    Config
}

func (s *session) newResult(op Op) *Result {
	return &Result{
		Op:            op,
		Session:       s.id,
		BlockSize:     s.cfg.BlockSize,
		MismatchBlock: -1,
	}
}

func (s *session) emit(op Op, phase Phase, block, blocks, bytes int64) {
	if s.cfg.Progress == nil {
		return
	}

	s.cfg.Progress(Event{
		Session: s.id,
		Op:      op,
		Phase:   phase,
		Block:   block,
		Blocks:  blocks,
		Bytes:   bytes,
	})
}

// blockCount is ceil(size / blockSize) without a float64 detour.
func blockCount(size, blockSize int64) int64 {
	return (size + blockSize - 1) / blockSize
}

// blockLen is the length of the block at index: blockSize everywhere except
// a short final block.
func blockLen(size, blockSize, index int64) int64 {
	remain := size - index*blockSize
	if remain > blockSize {
		return blockSize
	}
	return remain
}

// readBlock fills buf from r. A clean end-of-stream before the first byte
// reports zero bytes and no error; a partial final block reports the bytes
// that did arrive. Anything else is a real read failure.
func readBlock(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return n, nil
	}
	return n, err
}

// assertDrained verifies the source has nothing left past the declared size,
// reusing buf as scratch space. A source that still produces data here was
// resized or modified mid-transfer.
func assertDrained(r io.Reader, buf []byte, side string) error {
	n, err := readBlock(r, buf)
	if err != nil {
		return fmt.Errorf("failed to probe %s for trailing data: %w", side, err)
	}

	if n > 0 {
		slog.Error("Source has data past its declared size", "side", side, "extra_bytes", n)
		return fmt.Errorf("%s: %w", side, ErrTrailingData)
	}

	return nil
}
