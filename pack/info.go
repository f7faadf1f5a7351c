package pack

// PackInfo aggregates a pack with its files and post-install artifacts.
// It is assembled at build time and read-only afterwards.
type PackInfo struct {
	pack        *Pack
	files       []*PackFile
	seen        map[*PackFile]struct{}
	parsables   []ParsableFile
	executables []ExecutableFile
	updates     []UpdateCheck
}

// NewPackInfo creates an empty aggregate for p.
func NewPackInfo(p *Pack) *PackInfo {
	return &PackInfo{
		pack: p,
		seen: make(map[*PackFile]struct{}),
	}
}

// Pack returns the pack.
func (pi *PackInfo) Pack() *Pack { return pi.pack }

// AddFile appends a file. Adding the same file twice is a no-op.
// Files inherit the pack's loose status.
func (pi *PackInfo) AddFile(f *PackFile) {
	if _, ok := pi.seen[f]; ok {
		return
	}
	pi.seen[f] = struct{}{}
	if pi.pack != nil && pi.pack.Loose {
		f.SetLoosePackInfo(true)
	}
	pi.files = append(pi.files, f)
}

// Files returns files in insertion order. The slice must not be modified.
func (pi *PackInfo) Files() []*PackFile { return pi.files }

// AddParsable registers a file for variable substitution.
func (pi *PackInfo) AddParsable(p ParsableFile) {
	pi.parsables = append(pi.parsables, p)
}

// Parsables returns the registered parsable files.
func (pi *PackInfo) Parsables() []ParsableFile { return pi.parsables }

// AddExecutable registers a post-install executable.
func (pi *PackInfo) AddExecutable(e ExecutableFile) {
	pi.executables = append(pi.executables, e)
}

// Executables returns the registered executables.
func (pi *PackInfo) Executables() []ExecutableFile { return pi.executables }

// AddUpdateCheck registers an update-check rule.
func (pi *PackInfo) AddUpdateCheck(u UpdateCheck) {
	pi.updates = append(pi.updates, u)
}

// UpdateChecks returns the registered update-check rules.
func (pi *PackInfo) UpdateChecks() []UpdateCheck { return pi.updates }

// FileIndex returns the position of f in Files, or -1.
func (pi *PackInfo) FileIndex(f *PackFile) int {
	for i, g := range pi.files {
		if g == f {
			return i
		}
	}
	return -1
}
