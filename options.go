package unpack

import (
	"log/slog"

	"github.com/meigma/unpack/queue"
	"github.com/meigma/unpack/source"
)

// Option configures an Unpacker.
type Option func(*Unpacker)

// WithLogger sets the logger. Per-file decisions are logged at debug level,
// pack milestones at info level and best-effort failures at warn level.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Unpacker) {
		u.logger = logger
	}
}

// WithQueue enables deferred replacement of blockable files.
// Without a queue every file is renamed into place immediately.
func WithQueue(q queue.Queue) Option {
	return func(u *Unpacker) {
		u.queue = q
	}
}

// WithLooseProvider sets where files of loose packs are read from.
// By default the payload provider is used.
func WithLooseProvider(p source.Provider) Option {
	return func(u *Unpacker) {
		u.loose = p
	}
}

// WithPrompter sets the prompter used for ask-style decisions and warnings.
func WithPrompter(p Prompter) Option {
	return func(u *Unpacker) {
		u.prompter = p
	}
}

// WithRules sets the condition evaluator. Without rules every condition is
// true.
func WithRules(r Rules) Option {
	return func(u *Unpacker) {
		u.rules = r
	}
}

// WithSubstitutor replaces the default variable substitutor.
func WithSubstitutor(s Substitutor) Option {
	return func(u *Unpacker) {
		u.subst = s
	}
}

// WithListeners adds pack listeners. Listeners that also implement
// DirListener, FileListener or FailureListener receive those events too.
func WithListeners(ls ...PackListener) Option {
	return func(u *Unpacker) {
		u.listeners = append(u.listeners, ls...)
	}
}

// WithProgress sets a callback for progress updates.
func WithProgress(fn ProgressFunc) Option {
	return func(u *Unpacker) {
		u.progress = fn
	}
}

// WithAcceptWarnings accepts warnings in unattended runs. By default an
// unattended warning is fatal.
func WithAcceptWarnings(accept bool) Option {
	return func(u *Unpacker) {
		u.acceptWarnings = accept
	}
}

// WithRecordName sets the file name of the installation record inside the
// install path. The default is DefaultRecordName.
func WithRecordName(name string) Option {
	return func(u *Unpacker) {
		u.recordName = name
	}
}

// WithTempDir sets the directory for private temporary files such as packed
// bytes awaiting decompression. The default is os.TempDir.
func WithTempDir(dir string) Option {
	return func(u *Unpacker) {
		u.tempDir = dir
	}
}
