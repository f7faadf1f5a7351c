// Package queue defers file replacements that may be blocked by running
// processes.
//
// Blockable files are written next to their target and a Move is queued.
// The queue is executed once after every pack was extracted. Moves that still
// fail because the target is locked are persisted to a pending-moves file and
// flag that a reboot is needed to finish the installation.
package queue

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/meigma/unpack/internal/platform"
)

var (
	// ErrExecuted is returned when a queue is executed twice.
	ErrExecuted = errors.New("queue: already executed")

	// ErrTargetExists is returned for a move without Overwrite whose
	// destination exists.
	ErrTargetExists = errors.New("queue: target exists")
)

// Move replaces Dst with Src. A Move with an empty Dst deletes Src.
type Move struct {
	Src string `toml:"src"`
	Dst string `toml:"dst,omitempty"`

	// Overwrite allows replacing an existing Dst.
	Overwrite bool `toml:"overwrite"`

	// ForceInUse moves a locked Dst aside so Src can take its place.
	ForceInUse bool `toml:"force_in_use"`
}

// Queue collects moves and applies them in insertion order.
type Queue interface {
	Add(m Move)
	IsEmpty() bool
	Execute(ctx context.Context) error
	IsRebootNecessary() bool
}

// FileQueue applies moves with rename.
type FileQueue struct {
	mu       sync.Mutex
	moves    []Move
	pending  []Move
	executed bool
	reboot   bool

	pendingFile string
	rename      func(src, dst string) error
	remove      func(path string) error
	logger      *slog.Logger
}

// Option configures a FileQueue.
type Option func(*FileQueue)

// WithPendingFile sets where moves deferred to the next reboot are recorded.
// Without it deferred moves are only reported through IsRebootNecessary
// and Pending.
func WithPendingFile(path string) Option {
	return func(q *FileQueue) {
		q.pendingFile = path
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(q *FileQueue) {
		q.logger = logger
	}
}

// New creates an empty FileQueue.
func New(opts ...Option) *FileQueue {
	q := &FileQueue{
		rename: os.Rename,
		remove: os.Remove,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *FileQueue) log() *slog.Logger {
	if q.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return q.logger
}

// Add appends a move.
func (q *FileQueue) Add(m Move) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.moves = append(q.moves, m)
}

// IsEmpty reports whether no moves were added.
func (q *FileQueue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.moves) == 0
}

// Moves returns a copy of the queued moves.
func (q *FileQueue) Moves() []Move {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Move(nil), q.moves...)
}

// Clear drops every move that was not executed yet.
func (q *FileQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.executed {
		q.moves = nil
	}
}

// Pending returns the moves deferred to the next reboot.
func (q *FileQueue) Pending() []Move {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Move(nil), q.pending...)
}

// IsRebootNecessary reports whether Execute deferred any move.
func (q *FileQueue) IsRebootNecessary() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.reboot
}

// Execute applies every move once, in order. Failures that a reboot may
// resolve are deferred; all other failures are joined into the returned
// error after every move was attempted.
func (q *FileQueue) Execute(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.executed {
		return ErrExecuted
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	q.executed = true

	var errs []error
	for _, m := range q.moves {
		deferred, err := q.apply(m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(deferred) > 0 {
			q.pending = append(q.pending, deferred...)
			q.reboot = true
		}
	}

	if len(q.pending) > 0 && q.pendingFile != "" {
		if err := appendPending(q.pendingFile, q.pending); err != nil {
			errs = append(errs, err)
		}
	}
	q.log().Info("executed file queue", "moves", len(q.moves), "deferred", len(q.pending), "failed", len(errs))
	return errors.Join(errs...)
}

// apply performs one move and returns the moves left for the next reboot.
func (q *FileQueue) apply(m Move) ([]Move, error) {
	if m.Dst == "" {
		if err := q.remove(m.Src); err != nil && !errors.Is(err, fs.ErrNotExist) {
			if platform.IsDeferrable(err) {
				return []Move{m}, nil
			}
			return nil, fmt.Errorf("delete %s: %w", m.Src, err)
		}
		return nil, nil
	}

	if !m.Overwrite {
		if _, err := os.Lstat(m.Dst); err == nil {
			_ = q.remove(m.Src) //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("%s: %w", m.Dst, ErrTargetExists)
		}
	}

	err := q.rename(m.Src, m.Dst)
	if err == nil {
		q.log().Debug("moved file", "src", m.Src, "dst", m.Dst)
		return nil, nil
	}

	if m.ForceInUse && platform.IsInUse(err) {
		aside, asideErr := q.moveAside(m.Dst)
		if asideErr == nil {
			if err = q.rename(m.Src, m.Dst); err == nil {
				q.log().Debug("replaced file in use", "dst", m.Dst, "aside", aside)
				// The old file is still open; delete it once it is released.
				return []Move{{Src: aside}}, nil
			}
			_ = q.rename(aside, m.Dst) //nolint:errcheck // restore the original target
		}
	}

	if platform.IsDeferrable(err) {
		q.log().Warn("deferring move until reboot", "src", m.Src, "dst", m.Dst, "error", err)
		return []Move{m}, nil
	}
	_ = q.remove(m.Src) //nolint:errcheck // best-effort cleanup
	return nil, fmt.Errorf("move %s to %s: %w", m.Src, m.Dst, err)
}

func (q *FileQueue) moveAside(path string) (string, error) {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	aside := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".old-"+hex.EncodeToString(b[:]))
	if err := q.rename(path, aside); err != nil {
		return "", err
	}
	return aside, nil
}
