// Package atomicwrite persists payloads of arbitrary size safely.
//
// The pipeline runs preflight (free-space heuristic), optional backup,
// chunked streaming to a sibling temp file, durability sync, atomic rename,
// and size verification, with bounded exponential-backoff retry around the
// write+verify sequence and best-effort rollback on unrecoverable failure.
//
// Overwrite mode commits through an atomic rename so readers never observe
// a partial file. Append mode writes in place; it is not atomic at the
// append level, which is an accepted limitation.
package atomicwrite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"
	"go.uber.org/zap"

	"github.com/fsgate/fsgate/internal/infrastructure/logging"
	"github.com/fsgate/fsgate/internal/infrastructure/resilience"
	"github.com/fsgate/fsgate/internal/shared/id"
)

// Mode selects how content is applied to the target.
type Mode string

const (
	ModeOverwrite Mode = "overwrite"
	ModeAppend    Mode = "append"
)

// Defaults applied to zero-valued request fields.
const (
	DefaultChunkSize     = 64 * 1024
	DefaultRetryAttempts = 3

	// spaceSafetyFactor is the preflight headroom: available space must be
	// at least 1.5x the payload. Numerator/denominator to stay in integers.
	spaceFactorNum = 3
	spaceFactorDen = 2
)

// Request describes one write.
type Request struct {
	Path          string
	Content       []byte
	Mode          Mode
	ChunkSize     int
	Backup        bool
	RetryAttempts int
	Verify        bool
}

// Report describes a completed write.
type Report struct {
	Path          string
	FinalSize     int64
	ChunksWritten int
	RetriesUsed   int
	Elapsed       time.Duration
	BackupPath    string // empty when no backup was taken
}

// Pipeline executes writes. Safe for concurrent use; concurrent writes to
// the same path race at the filesystem layer (no path-level locking).
type Pipeline struct {
	log             *logging.Logger
	backoffBase     time.Duration
	backoffCap      time.Duration
	compressBackups bool
	freeSpace       func(dir string) (uint64, error)
	sleep           func(time.Duration)
	chunkHook       func(attempt, chunk int) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBackoff overrides the retry delay schedule parameters.
func WithBackoff(base, cap time.Duration) Option {
	return func(p *Pipeline) {
		p.backoffBase = base
		p.backoffCap = cap
	}
}

// WithCompressedBackups gzips backup copies.
func WithCompressedBackups() Option {
	return func(p *Pipeline) {
		p.compressBackups = true
	}
}

// WithFreeSpaceFunc overrides the preflight free-space probe. For tests.
func WithFreeSpaceFunc(fn func(dir string) (uint64, error)) Option {
	return func(p *Pipeline) {
		p.freeSpace = fn
	}
}

// WithSleepFunc overrides the retry sleep. For tests.
func WithSleepFunc(fn func(time.Duration)) Option {
	return func(p *Pipeline) {
		p.sleep = fn
	}
}

// WithChunkHook installs a fault-injection hook invoked before each chunk
// write with the attempt and chunk index. A non-nil return fails that
// attempt. For tests.
func WithChunkHook(fn func(attempt, chunk int) error) Option {
	return func(p *Pipeline) {
		p.chunkHook = fn
	}
}

// New creates a write pipeline.
func New(log *logging.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		log:         log,
		backoffBase: resilience.DefaultBackoffBase,
		backoffCap:  resilience.DefaultBackoffCap,
		freeSpace: func(dir string) (uint64, error) {
			usage, err := disk.Usage(dir)
			if err != nil {
				return 0, err
			}
			return usage.Free, nil
		},
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Write runs the full pipeline for one request. Once started, the write
// runs to completion or failure; ctx is accepted for interface consistency
// but cancellation is not propagated into an in-flight write.
func (p *Pipeline) Write(ctx context.Context, req Request) (*Report, error) {
	_ = ctx

	if req.Path == "" {
		return nil, errors.New("write path required")
	}
	if req.Mode == "" {
		req.Mode = ModeOverwrite
	}
	if req.Mode != ModeOverwrite && req.Mode != ModeAppend {
		return nil, fmt.Errorf("unknown write mode %q", req.Mode)
	}
	if req.ChunkSize <= 0 {
		req.ChunkSize = DefaultChunkSize
	}
	if req.RetryAttempts <= 0 {
		req.RetryAttempts = DefaultRetryAttempts
	}

	start := time.Now()

	// Preflight: a heuristic, not the primary safety guarantee. An
	// unusable probe downgrades to a warning; a confirmed shortfall
	// fails fast before any mutation.
	required := int64(len(req.Content))
	if free, err := p.freeSpace(filepath.Dir(req.Path)); err != nil {
		p.log.Warn("free-space check unavailable, continuing",
			zap.String("path", req.Path), zap.Error(err))
	} else if int64(free) < required*spaceFactorNum/spaceFactorDen {
		return nil, &WriteError{Path: req.Path, Attempts: 0, Err: fmt.Errorf(
			"insufficient disk space: need %s plus headroom, %s available",
			humanize.Bytes(uint64(required)), humanize.Bytes(free))}
	}

	prevSize := int64(0)
	exists := false
	if info, err := os.Stat(req.Path); err == nil {
		if info.IsDir() {
			return nil, fmt.Errorf("target %s is a directory", req.Path)
		}
		exists = true
		prevSize = info.Size()
	}

	backupPath := ""
	if exists && req.Backup {
		bp, err := p.takeBackup(req.Path)
		if err != nil {
			return nil, &WriteError{Path: req.Path, Attempts: 0,
				Err: fmt.Errorf("backup failed: %w", err)}
		}
		backupPath = bp
	}

	var lastErr error
	for attempt := 0; attempt < req.RetryAttempts; attempt++ {
		if attempt > 0 {
			p.sleep(resilience.Backoff(attempt-1, p.backoffBase, p.backoffCap))
		}

		chunks, err := p.writeOnce(req, attempt, prevSize)
		if err == nil {
			report := &Report{
				Path:          req.Path,
				FinalSize:     p.finalSize(req.Path),
				ChunksWritten: chunks,
				RetriesUsed:   attempt,
				Elapsed:       time.Since(start),
				BackupPath:    backupPath,
			}
			p.log.Info("write committed",
				zap.String("path", req.Path),
				zap.String("size", humanize.Bytes(uint64(report.FinalSize))),
				zap.Int("chunks", chunks),
				zap.Int("retries", attempt),
				zap.Duration("elapsed", report.Elapsed))
			return report, nil
		}

		var verr *VerificationError
		if errors.As(err, &verr) {
			// Never retried: the bytes on disk cannot be trusted.
			p.rollback(req, backupPath)
			return nil, err
		}

		lastErr = err
		p.log.Warn("write attempt failed",
			zap.String("path", req.Path),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	p.rollback(req, backupPath)
	return nil, &WriteError{Path: req.Path, Attempts: req.RetryAttempts, Err: lastErr}
}

// takeBackup copies the existing target to a sibling path derived from the
// target plus a monotonic disambiguator.
func (p *Pipeline) takeBackup(path string) (string, error) {
	backupPath := fmt.Sprintf("%s.backup.%s", path, id.NewWriteID())
	if p.compressBackups {
		backupPath += gzipSuffix
		if err := compressFile(path, backupPath); err != nil {
			return "", err
		}
		return backupPath, nil
	}
	if err := copyFile(path, backupPath); err != nil {
		return "", err
	}
	return backupPath, nil
}

// writeOnce performs a single streamed write plus verification.
func (p *Pipeline) writeOnce(req Request, attempt int, prevSize int64) (int, error) {
	switch req.Mode {
	case ModeAppend:
		return p.appendOnce(req, attempt, prevSize)
	default:
		return p.overwriteOnce(req, attempt)
	}
}

// overwriteOnce streams chunks to a sibling temp file, syncs, and commits
// with an atomic rename.
func (p *Pipeline) overwriteOnce(req Request, attempt int) (int, error) {
	tempPath := fmt.Sprintf("%s.tmp.%s", req.Path, id.NewWriteID())

	f, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	chunks, err := p.streamChunks(f, req.Content, req.ChunkSize, attempt)
	if err != nil {
		f.Close()
		os.Remove(tempPath)
		return 0, err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempPath)
		return 0, fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempPath, req.Path); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("commit rename: %w", err)
	}

	if req.Verify {
		info, err := os.Stat(req.Path)
		if err != nil {
			return 0, fmt.Errorf("verify stat: %w", err)
		}
		if info.Size() != int64(len(req.Content)) {
			return 0, &VerificationError{
				Path:     req.Path,
				Expected: int64(len(req.Content)),
				Actual:   info.Size(),
			}
		}
	}
	return chunks, nil
}

// appendOnce writes chunks directly to the target. Not atomic at the
// append level; verification only confirms growth.
func (p *Pipeline) appendOnce(req Request, attempt int, prevSize int64) (int, error) {
	f, err := os.OpenFile(req.Path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open for append: %w", err)
	}

	chunks, err := p.streamChunks(f, req.Content, req.ChunkSize, attempt)
	if err != nil {
		f.Close()
		return 0, err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return 0, fmt.Errorf("sync: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close: %w", err)
	}

	if req.Verify {
		info, err := os.Stat(req.Path)
		if err != nil {
			return 0, fmt.Errorf("verify stat: %w", err)
		}
		if info.Size() < prevSize+int64(len(req.Content)) {
			return 0, &VerificationError{
				Path:     req.Path,
				Expected: prevSize + int64(len(req.Content)),
				Actual:   info.Size(),
			}
		}
	}
	return chunks, nil
}

// streamChunks writes content in fixed-size chunks.
func (p *Pipeline) streamChunks(f *os.File, content []byte, chunkSize, attempt int) (int, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	chunks := 0
	for off := 0; off < len(content); off += chunkSize {
		if p.chunkHook != nil {
			if err := p.chunkHook(attempt, chunks); err != nil {
				return chunks, err
			}
		}
		end := off + chunkSize
		if end > len(content) {
			end = len(content)
		}
		if _, err := f.Write(content[off:end]); err != nil {
			return chunks, fmt.Errorf("write chunk %d: %w", chunks, err)
		}
		chunks++
	}
	return chunks, nil
}

// rollback restores the pre-write state as well as it can. Both cleanup
// steps swallow their own errors so the triggering failure propagates.
func (p *Pipeline) rollback(req Request, backupPath string) {
	pattern := fmt.Sprintf("%s.tmp.*", req.Path)
	if stale, err := filepath.Glob(pattern); err == nil {
		for _, tmp := range stale {
			if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
				p.log.Warn("temp cleanup failed", zap.String("path", tmp), zap.Error(err))
			}
		}
	}

	if backupPath == "" {
		return
	}
	if err := restoreFile(backupPath, req.Path); err != nil {
		p.log.Warn("backup restore failed",
			zap.String("backup", backupPath),
			zap.String("path", req.Path),
			zap.Error(err))
		return
	}
	p.log.Info("restored from backup",
		zap.String("backup", backupPath),
		zap.String("path", req.Path))
}

func (p *Pipeline) finalSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
