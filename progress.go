package unpack

// ProgressEvent represents a progress update during an installation.
type ProgressEvent struct {
	// Stage identifies the current phase.
	Stage ProgressStage

	// Pack is the pack being extracted, if applicable.
	Pack string

	// Path is the file currently being processed, if applicable.
	Path string

	// PacksDone is the number of packs completed.
	PacksDone int

	// PacksTotal is the number of selected packs.
	PacksTotal int

	// FilesDone is the number of files completed.
	FilesDone int

	// FilesTotal is the number of files in the selected packs.
	FilesTotal int
}

// ProgressStage identifies the current phase of an installation.
type ProgressStage uint8

// Progress stages in the order they occur.
const (
	// StageReadingCatalog indicates the catalog is being fetched.
	StageReadingCatalog ProgressStage = iota

	// StageExtracting indicates files are being extracted.
	StageExtracting

	// StageParsing indicates variables are substituted in parsable files.
	StageParsing

	// StageExecuting indicates post-install executables are running.
	StageExecuting

	// StageUpdateCheck indicates obsolete files are being removed.
	StageUpdateCheck

	// StageCommitting indicates the deferred queue is executed and the
	// installation record written.
	StageCommitting
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageReadingCatalog:
		return "reading catalog"
	case StageExtracting:
		return "extracting"
	case StageParsing:
		return "parsing"
	case StageExecuting:
		return "executing"
	case StageUpdateCheck:
		return "update check"
	case StageCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates. It is called from the extraction
// goroutine.
type ProgressFunc func(ProgressEvent)
