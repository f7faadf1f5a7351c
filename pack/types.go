package pack

import (
	"runtime"
	"strings"
)

// Override selects what happens when a file's target already exists.
type Override uint8

const (
	// OverrideFalse never replaces an existing target.
	OverrideFalse Override = iota
	// OverrideTrue always replaces an existing target.
	OverrideTrue
	// OverrideAskFalse asks the user, defaulting to keep the existing file.
	OverrideAskFalse
	// OverrideAskTrue asks the user, defaulting to replace the existing file.
	OverrideAskTrue
	// OverrideUpdate replaces the target only if it is strictly older.
	OverrideUpdate
)

// String returns the catalog name of the policy.
func (o Override) String() string {
	switch o {
	case OverrideFalse:
		return "false"
	case OverrideTrue:
		return "true"
	case OverrideAskFalse:
		return "asknot"
	case OverrideAskTrue:
		return "ask"
	case OverrideUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// IsAsk reports whether the policy requires a user decision.
func (o Override) IsAsk() bool {
	return o == OverrideAskFalse || o == OverrideAskTrue
}

// ParseOverride maps a catalog policy name to an Override.
func ParseOverride(s string) (Override, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "false", "no", "never":
		return OverrideFalse, true
	case "true", "yes", "always":
		return OverrideTrue, true
	case "asknot", "ask-false":
		return OverrideAskFalse, true
	case "ask", "ask-true":
		return OverrideAskTrue, true
	case "update":
		return OverrideUpdate, true
	default:
		return OverrideFalse, false
	}
}

// Blockable classifies whether a target may be locked by the operating system
// while the installer runs.
type Blockable uint8

const (
	// BlockableNone marks files that are written in place.
	BlockableNone Blockable = iota
	// BlockableAuto marks files detected as possibly in use.
	BlockableAuto
	// BlockableForce marks files the payload author declared as possibly in use.
	// Both classifications queue the same forced replacement.
	BlockableForce
)

// String returns the catalog name of the classification.
func (b Blockable) String() string {
	switch b {
	case BlockableNone:
		return "none"
	case BlockableAuto:
		return "auto"
	case BlockableForce:
		return "force"
	default:
		return "unknown"
	}
}

// OsModel describes one platform a catalog element applies to.
// Empty fields match anything.
type OsModel struct {
	Family  string
	Name    string
	Arch    string
	Version string
}

// Matches reports whether the model applies to the given GOOS/GOARCH pair.
// Version is informational; the running OS version is not inspected.
func (m OsModel) Matches(goos, goarch string) bool {
	if m.Family != "" && !familyMatches(strings.ToLower(m.Family), goos) {
		return false
	}
	if m.Name != "" && !nameMatches(strings.ToLower(m.Name), goos) {
		return false
	}
	if m.Arch != "" && normalizeArch(strings.ToLower(m.Arch)) != goarch {
		return false
	}
	return true
}

// MatchesCurrent reports whether constraints allow the running platform.
// An empty list matches every platform; otherwise any entry must match.
func MatchesCurrent(constraints []OsModel) bool {
	return MatchesPlatform(constraints, runtime.GOOS, runtime.GOARCH)
}

// MatchesPlatform is MatchesCurrent for an explicit platform.
func MatchesPlatform(constraints []OsModel, goos, goarch string) bool {
	if len(constraints) == 0 {
		return true
	}
	for _, m := range constraints {
		if m.Matches(goos, goarch) {
			return true
		}
	}
	return false
}

func familyMatches(family, goos string) bool {
	switch family {
	case "windows":
		return goos == "windows"
	case "unix":
		return goos != "windows" && goos != "plan9" && goos != "js" && goos != "wasip1"
	case "mac", "macos", "macosx", "darwin":
		return goos == "darwin"
	case "linux":
		return goos == "linux"
	case "bsd":
		return strings.HasSuffix(goos, "bsd") || goos == "dragonfly"
	default:
		return family == goos
	}
}

func nameMatches(name, goos string) bool {
	switch {
	case strings.HasPrefix(name, "windows"):
		return goos == "windows"
	case strings.HasPrefix(name, "mac"):
		return goos == "darwin"
	default:
		return name == goos
	}
}

func normalizeArch(arch string) string {
	switch arch {
	case "x86_64", "x64", "amd64":
		return "amd64"
	case "x86", "i386", "i686", "386":
		return "386"
	case "aarch64", "arm64":
		return "arm64"
	default:
		return arch
	}
}

// ParsableFile names an installed file whose content is variable-substituted
// after every pack has been written.
type ParsableFile struct {
	// Path is the target path, relative paths resolve against the install dir.
	Path string
	// Type selects the escaping applied to substituted values
	// (plain, shell, javaprop, xml, ant).
	Type     string
	Encoding string
	// Condition is a rules identifier; empty means always.
	Condition     string
	OsConstraints []OsModel
}

// ExecutionStage selects when an ExecutableFile runs.
type ExecutionStage uint8

const (
	// StagePostInstall runs the file after all packs are installed.
	StagePostInstall ExecutionStage = iota
	// StageNever only marks the file executable.
	StageNever
	// StageUninstall defers the file to the uninstaller.
	StageUninstall
)

// String returns the catalog name of the stage.
func (s ExecutionStage) String() string {
	switch s {
	case StagePostInstall:
		return "postinstall"
	case StageNever:
		return "never"
	case StageUninstall:
		return "uninstall"
	default:
		return "unknown"
	}
}

// ParseStage maps a stage name to an ExecutionStage. Empty means
// post-install.
func ParseStage(s string) (ExecutionStage, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "postinstall", "post-install":
		return StagePostInstall, true
	case "never":
		return StageNever, true
	case "uninstall":
		return StageUninstall, true
	default:
		return StagePostInstall, false
	}
}

// FailurePolicy selects what a failing executable does to the installation.
type FailurePolicy uint8

const (
	// FailureAbort stops the installation.
	FailureAbort FailurePolicy = iota
	// FailureWarn reports a warning.
	FailureWarn
	// FailureAsk asks whether to continue.
	FailureAsk
	// FailureIgnore logs and continues.
	FailureIgnore
)

// String returns the catalog name of the policy.
func (f FailurePolicy) String() string {
	switch f {
	case FailureAbort:
		return "abort"
	case FailureWarn:
		return "warn"
	case FailureAsk:
		return "ask"
	case FailureIgnore:
		return "ignore"
	default:
		return "unknown"
	}
}

// ParseFailurePolicy maps a policy name to a FailurePolicy. Empty means
// abort.
func ParseFailurePolicy(s string) (FailurePolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return FailureAbort, true
	case "warn":
		return FailureWarn, true
	case "ask":
		return FailureAsk, true
	case "ignore":
		return FailureIgnore, true
	default:
		return FailureAbort, false
	}
}

// ExecutableFile names an installed file that is run or marked executable
// after installation.
type ExecutableFile struct {
	Path string
	// Type is "bin" for native executables or "shell" for POSIX scripts.
	Type          string
	Stage         ExecutionStage
	OnFailure     FailurePolicy
	Args          []string
	KeepFile      bool
	Condition     string
	OsConstraints []OsModel
}

// UpdateCheck is an include/exclude filter rooted at the install directory.
// Files it matches that were not installed by the current run are removed.
type UpdateCheck struct {
	Includes      []string
	Excludes      []string
	CaseSensitive bool
}
