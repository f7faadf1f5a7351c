package unpack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/meigma/unpack/catalog"
	"github.com/meigma/unpack/codec"
	"github.com/meigma/unpack/internal/copyio"
	"github.com/meigma/unpack/pack"
	"github.com/meigma/unpack/queue"
	"github.com/meigma/unpack/source"
	"github.com/meigma/unpack/subst"
)

// Unpacker installs packs from a payload.
//
// An Unpacker runs one installation at a time. Run may be called again after
// a run completed or failed, but not after it was interrupted.
type Unpacker struct {
	provider       source.Provider
	loose          source.Provider
	queue          queue.Queue
	prompter       Prompter
	rules          Rules
	subst          Substitutor
	listeners      []PackListener
	progress       ProgressFunc
	acceptWarnings bool
	recordName     string
	tempDir        string
	logger         *slog.Logger

	state             atomic.Int32
	mu                sync.Mutex
	cancel            context.CancelCauseFunc
	ack               chan struct{}
	interruptDisabled bool
	committing        bool
	rollbacks         []func(context.Context) error
}

// New creates an Unpacker reading the payload from p.
func New(p source.Provider, opts ...Option) *Unpacker {
	u := &Unpacker{
		provider:   p,
		recordName: DefaultRecordName,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.loose == nil {
		u.loose = p
	}
	return u
}

func (u *Unpacker) log() *slog.Logger {
	if u.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return u.logger
}

// AddRollback registers fn to run when an installation fails or is
// interrupted. Rollbacks run in reverse registration order.
func (u *Unpacker) AddRollback(fn func(ctx context.Context) error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rollbacks = append(u.rollbacks, fn)
}

// run holds the state of one installation.
type run struct {
	data    *InstallData
	dir     string
	root    *os.Root
	catalog *catalog.Catalog
	subst   Substitutor

	raw        FileUnpacker
	compressed FileUnpacker
	repack     FileUnpacker
	looseCopy  FileUnpacker

	installed   map[string]struct{}
	staged      map[string]string
	stagedOrder []string
	queueDone   bool
	packs       []*pack.Pack
	uninstall   []string
	parsables   []pack.ParsableFile
	executables []pack.ExecutableFile
	updates     []pack.UpdateCheck

	packsDone, packsTotal int
	filesDone, filesTotal int
	result                *Result
}

// Run installs the packs selected in data.
//
// Cancelling ctx is treated as an interrupt. An interrupted run returns
// ErrInterrupted together with a partial Result; the Unpacker then stays in
// StateInterrupted.
func (u *Unpacker) Run(ctx context.Context, data *InstallData) (*Result, error) {
	if data == nil || data.InstallPath == "" {
		return nil, ErrNoInstallPath
	}
	runCtx, err := u.begin(ctx)
	if err != nil {
		return nil, err
	}
	r := &run{
		data:      data,
		installed: make(map[string]struct{}),
		staged:    make(map[string]string),
		result:    &Result{},
	}
	err = u.install(runCtx, r)
	return u.finish(runCtx, r, err)
}

func (u *Unpacker) install(ctx context.Context, r *run) error {
	if err := u.prepare(ctx, r); err != nil {
		return err
	}

	selected, err := selectPacks(r.catalog, r.data.SelectedPacks)
	if err != nil {
		return err
	}
	packs := make([]*pack.Pack, len(selected))
	for i, info := range selected {
		packs[i] = info.Pack()
		r.filesTotal += len(info.Files())
	}
	r.packsTotal = len(selected)
	for _, l := range u.listeners {
		if err := l.BeforePacks(ctx, packs, len(packs)); err != nil {
			return fmt.Errorf("before packs: %w", err)
		}
	}

	for i, info := range selected {
		if err := u.installPack(ctx, r, i, info); err != nil {
			return err
		}
		if err := u.checkpoint(ctx); err != nil {
			return err
		}
	}

	u.report(r, ProgressEvent{Stage: StageParsing})
	if err := u.parseFiles(ctx, r); err != nil {
		return err
	}
	if err := u.checkpoint(ctx); err != nil {
		return err
	}

	u.report(r, ProgressEvent{Stage: StageExecuting})
	if err := u.runExecutables(ctx, r); err != nil {
		return err
	}
	if err := u.checkpoint(ctx); err != nil {
		return err
	}

	u.report(r, ProgressEvent{Stage: StageUpdateCheck})
	removed, err := u.updateCheck(ctx, r)
	if err != nil {
		return err
	}
	r.result.Removed = removed
	if err := u.checkpoint(ctx); err != nil {
		return err
	}

	if err := u.enterCommit(ctx); err != nil {
		return err
	}
	u.report(r, ProgressEvent{Stage: StageCommitting})
	commitCtx := context.WithoutCancel(ctx)
	if err := u.commit(commitCtx, r); err != nil {
		return err
	}
	for _, l := range u.listeners {
		if err := l.AfterPacks(commitCtx, r.result); err != nil {
			return fmt.Errorf("after packs: %w", err)
		}
	}
	return nil
}

// prepare opens the install directory and reads the catalog.
func (u *Unpacker) prepare(ctx context.Context, r *run) error {
	u.report(r, ProgressEvent{Stage: StageReadingCatalog})

	dir, err := filepath.Abs(r.data.InstallPath)
	if err != nil {
		return &InstallerError{Severity: SeverityError, Op: "resolve install path", Path: r.data.InstallPath, Err: err}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &InstallerError{Severity: SeverityError, Op: "create install path", Path: dir, Err: err}
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return &InstallerError{Severity: SeverityError, Op: "open install path", Path: dir, Err: err}
	}
	r.dir, r.root = dir, root

	cat, err := catalog.Read(ctx, u.provider)
	if err != nil {
		return u.resourceError("read catalog", source.CatalogResource, err)
	}
	r.catalog = cat

	c := &copier{root: root, dir: dir, queue: u.queue, stage: r.stage}
	r.raw = &defaultUnpacker{c: c}
	r.repack = &repackUnpacker{c: c, logger: u.logger}
	r.looseCopy = &looseUnpacker{c: c}
	if !codec.IsNone(cat.Compression) {
		cd, err := codec.Lookup(cat.Compression)
		if err != nil {
			return fmt.Errorf("catalog compression: %w", err)
		}
		r.compressed = &compressedUnpacker{c: c, codec: cd, tempDir: u.tempDir}
	}
	r.subst = u.substitutor(dir, r.data)

	u.log().Info("catalog loaded", "packs", len(cat.Packs), "compression", cat.Compression, "install_path", dir)
	return nil
}

func (u *Unpacker) substitutor(dir string, data *InstallData) Substitutor {
	if u.subst != nil {
		return u.subst
	}
	s := subst.New(data.Variables)
	if _, ok := s.Lookup("INSTALL_PATH"); !ok {
		s.Set("INSTALL_PATH", dir)
	}
	return s
}

// selectPacks returns the selected packs in catalog order.
func selectPacks(c *catalog.Catalog, names []string) ([]*pack.PackInfo, error) {
	var out []*pack.PackInfo
	if len(names) == 0 {
		for _, info := range c.Packs {
			if p := info.Pack(); p.Required || p.Preselected {
				out = append(out, info)
			}
		}
		return out, nil
	}
	want := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := c.Pack(name); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPack, name)
		}
		want[name] = struct{}{}
	}
	for _, info := range c.Packs {
		if _, ok := want[info.Pack().Name]; ok {
			out = append(out, info)
		}
	}
	return out, nil
}

func (u *Unpacker) installPack(ctx context.Context, r *run, index int, info *pack.PackInfo) error {
	p := info.Pack()
	if !u.applies(p.Condition, p.OsConstraints) {
		u.log().Info("skipping pack", "pack", p.Name, "condition", p.Condition)
		return nil
	}
	u.log().Info("installing pack", "pack", p.Name, "files", len(info.Files()))

	for _, l := range u.listeners {
		if err := l.BeforePack(ctx, p, index); err != nil {
			return fmt.Errorf("before pack %s: %w", p.Name, err)
		}
	}
	if err := u.extractPack(ctx, r, info); err != nil {
		return err
	}

	for _, pf := range info.Parsables() {
		if u.applies(pf.Condition, pf.OsConstraints) {
			r.parsables = append(r.parsables, pf)
		}
	}
	for _, ef := range info.Executables() {
		if u.applies(ef.Condition, ef.OsConstraints) {
			r.executables = append(r.executables, ef)
		}
	}
	r.updates = append(r.updates, info.UpdateChecks()...)
	r.packs = append(r.packs, p)
	r.result.InstalledPacks = append(r.result.InstalledPacks, p.Name)

	for _, l := range u.listeners {
		if err := l.AfterPack(ctx, p, index); err != nil {
			return fmt.Errorf("after pack %s: %w", p.Name, err)
		}
	}
	r.packsDone++
	u.report(r, ProgressEvent{Stage: StageExtracting, Pack: p.Name})
	return nil
}

// needsPackStream reports whether any file of the pack reads from the
// shared pack stream.
func needsPackStream(info *pack.PackInfo) bool {
	return slices.ContainsFunc(info.Files(), occupiesStream)
}

func occupiesStream(f *pack.PackFile) bool {
	return f.OccupiesPackStream() && !f.IsDirectory()
}

func (u *Unpacker) extractPack(ctx context.Context, r *run, info *pack.PackInfo) error {
	p := info.Pack()
	var stream io.Reader
	if needsPackStream(info) {
		rc, err := u.provider.PackStream(ctx, p.Name)
		if err != nil {
			return u.resourceError("open pack stream", source.PackStreamName(p.Name), err)
		}
		defer rc.Close()
		stream = rc
	}
	for _, f := range info.Files() {
		if err := u.extractFile(ctx, r, p, f, stream); err != nil {
			return err
		}
	}
	return nil
}

func (u *Unpacker) extractFile(ctx context.Context, r *run, p *pack.Pack, f *pack.PackFile, stream io.Reader) error {
	if !u.applies(f.Condition(), f.OsConstraints()) {
		u.log().Debug("skipping file", "pack", p.Name, "path", f.TargetPath())
		return u.skip(ctx, f, stream)
	}

	rel, err := r.relPath(f.TargetPath())
	if err != nil {
		return &InstallerError{Severity: SeverityError, Op: "resolve target", Path: f.TargetPath(), Err: err}
	}
	if f.IsDirectory() {
		if err := u.mkdirs(ctx, r, rel, f); err != nil {
			return err
		}
		r.markInstalled(rel, p)
		u.fileDone(r, p, rel)
		return nil
	}
	if err := u.mkdirs(ctx, r, path.Dir(rel), f); err != nil {
		return err
	}

	write, err := u.decideOverride(ctx, r, f, rel)
	if err != nil {
		return err
	}
	r.markInstalled(rel, p)
	if !write {
		u.log().Debug("keeping existing file", "path", rel, "override", f.Override().String())
		if err := u.skip(ctx, f, stream); err != nil {
			return err
		}
		u.fileDone(r, p, rel)
		return nil
	}
	if err := renameExisting(r.root, f, rel); err != nil {
		return err
	}

	for _, l := range u.listeners {
		if fl, ok := l.(FileListener); ok {
			if err := fl.BeforeFile(ctx, rel, f); err != nil {
				return fmt.Errorf("before file %s: %w", rel, err)
			}
		}
	}
	queued, err := u.unpackFile(ctx, r, f, rel, stream)
	if err != nil {
		return err
	}
	if queued {
		r.result.Queued++
	}
	for _, l := range u.listeners {
		if fl, ok := l.(FileListener); ok {
			if err := fl.AfterFile(ctx, rel, f); err != nil {
				return fmt.Errorf("after file %s: %w", rel, err)
			}
		}
	}
	u.log().Debug("extracted file", "path", rel, "queued", queued)
	u.fileDone(r, p, rel)
	return nil
}

// unpackFile selects the strategy for f and its byte source.
func (u *Unpacker) unpackFile(ctx context.Context, r *run, f *pack.PackFile, rel string, stream io.Reader) (bool, error) {
	content := contentOf(f)
	switch {
	case f.IsLoosePack() || content.IsLoosePack():
		name := loosePath(content)
		rc, err := u.loose.InputStream(ctx, name)
		if err != nil {
			return false, u.resourceError("open loose file", name, err)
		}
		defer rc.Close()
		return r.looseCopy.Unpack(ctx, f, rc, rel)

	case content.IsPack200():
		name := source.SideStreamName(content.StreamResourceName())
		rc, err := u.provider.InputStream(ctx, name)
		if err != nil {
			return false, u.resourceError("open side-stream", name, err)
		}
		defer rc.Close()
		return r.repack.Unpack(ctx, f, rc, rel)

	case f.IsBackReference():
		name := source.SideStreamName(content.StreamResourceName())
		rc, err := source.OpenAt(ctx, u.provider, name, content.StreamOffset())
		if err != nil {
			return false, u.resourceError("open side-stream", name, err)
		}
		defer rc.Close()
		return r.rawUnpacker(content).Unpack(ctx, f, rc, rel)

	default:
		return r.rawUnpacker(f).Unpack(ctx, f, stream, rel)
	}
}

func (r *run) rawUnpacker(content *pack.PackFile) FileUnpacker {
	if r.compressed != nil && !content.IsStored() {
		return r.compressed
	}
	return r.raw
}

// skip advances the pack stream past a file that is not written.
func (u *Unpacker) skip(ctx context.Context, f *pack.PackFile, stream io.Reader) error {
	if !occupiesStream(f) {
		return nil
	}
	n, err := copyio.Discard(ctx, stream, f.Size())
	if err != nil {
		return fmt.Errorf("skip %s: %w", f.TargetPath(), err)
	}
	if n != f.Size() {
		return accountingError("skip", f.TargetPath(), n, f.Size())
	}
	return nil
}

// mkdirs creates rel and its missing parents, notifying directory listeners.
func (u *Unpacker) mkdirs(ctx context.Context, r *run, rel string, f *pack.PackFile) error {
	if rel == "." || rel == "" {
		return nil
	}
	info, err := r.root.Stat(filepath.FromSlash(rel))
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return &InstallerError{Severity: SeverityError, Op: "create directory", Path: rel, Err: fs.ErrExist}
	case !errors.Is(err, fs.ErrNotExist):
		return &InstallerError{Severity: SeverityError, Op: "create directory", Path: rel, Err: err}
	}
	if err := u.mkdirs(ctx, r, path.Dir(rel), f); err != nil {
		return err
	}

	for _, l := range u.listeners {
		if dl, ok := l.(DirListener); ok {
			if err := dl.BeforeDir(ctx, rel, f); err != nil {
				return fmt.Errorf("before dir %s: %w", rel, err)
			}
		}
	}
	if err := r.root.Mkdir(filepath.FromSlash(rel), 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return &InstallerError{Severity: SeverityError, Op: "create directory", Path: rel, Err: err}
	}
	for _, l := range u.listeners {
		if dl, ok := l.(DirListener); ok {
			if err := dl.AfterDir(ctx, rel, f); err != nil {
				return fmt.Errorf("after dir %s: %w", rel, err)
			}
		}
	}
	u.log().Debug("created directory", "path", rel)
	return nil
}

// commit executes the deferred queue and writes the installation record.
func (u *Unpacker) commit(ctx context.Context, r *run) error {
	if u.queue != nil && !u.queue.IsEmpty() {
		u.log().Info("executing deferred queue")
		err := u.queue.Execute(ctx)
		r.queueDone = true
		r.result.RebootRequired = u.queue.IsRebootNecessary()
		r.cleanStaged(u.queue, u.log())
		if err != nil {
			return &InstallerError{Severity: SeverityError, Op: "commit queue", Err: err}
		}
	}
	if err := u.writeRecord(r); err != nil {
		return &InstallerError{Severity: SeverityError, Op: "write installation record", Path: u.recordName, Err: err}
	}
	return nil
}

func (u *Unpacker) finish(ctx context.Context, r *run, err error) (*Result, error) {
	if r.root != nil {
		defer r.root.Close()
	}
	if err == nil {
		r.result.Success = true
		u.endRun(false)
		u.log().Info("installation complete",
			"packs", len(r.result.InstalledPacks),
			"files", len(r.result.InstalledFiles),
			"queued", r.result.Queued,
			"reboot", r.result.RebootRequired)
		return r.result, nil
	}

	cleanupCtx := context.WithoutCancel(ctx)
	if !r.queueDone {
		r.discardStaged(u.log())
		if c, ok := u.queue.(interface{ Clear() }); ok && len(r.stagedOrder) > 0 {
			c.Clear()
		}
	}
	if u.State() == StateInterrupt || ctx.Err() != nil || isInterrupt(err) {
		r.result.Interrupted = true
		u.log().Info("installation interrupted", "cause", err)
		u.rollback(cleanupCtx)
		u.endRun(true)
		return r.result, ErrInterrupted
	}

	u.log().Error("installation failed", "error", err)
	for _, l := range u.listeners {
		if fl, ok := l.(FailureListener); ok {
			fl.OnFailure(cleanupCtx, err)
		}
	}
	u.rollback(cleanupCtx)
	u.endRun(false)
	return r.result, err
}

func (u *Unpacker) rollback(ctx context.Context) {
	u.mu.Lock()
	fns := slices.Clone(u.rollbacks)
	u.mu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		if err := fns[i](ctx); err != nil {
			u.log().Warn("rollback failed", "error", err)
		}
	}
}

func isInterrupt(err error) bool {
	return errors.Is(err, ErrInterrupted) ||
		errors.Is(err, source.ErrInterrupted) ||
		errors.Is(err, context.Canceled)
}

// resourceError wraps a failed resource access.
func (u *Unpacker) resourceError(op, name string, err error) error {
	return &InstallerError{Severity: SeverityError, Op: op, Path: name, Err: err}
}

// warn offers a warning to the user. It returns nil when the warning is
// accepted and the warning itself otherwise.
func (u *Unpacker) warn(ctx context.Context, r *run, w *InstallerError) error {
	w.Severity = SeverityWarning
	u.log().Warn("installation warning", "op", w.Op, "path", w.Path, "error", w.Err)
	accept := u.acceptWarnings
	if !r.data.Unattended && u.prompter != nil {
		ok, err := u.prompter.Confirm(ctx, w.Error()+"\nContinue anyway?", true)
		if err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
		accept = ok
	}
	if !accept {
		return w
	}
	r.result.Warnings = append(r.result.Warnings, w)
	return nil
}

func (u *Unpacker) applies(condition string, constraints []pack.OsModel) bool {
	if !pack.MatchesCurrent(constraints) {
		return false
	}
	if condition == "" || u.rules == nil {
		return true
	}
	return u.rules.IsConditionTrue(condition)
}

func (u *Unpacker) report(r *run, ev ProgressEvent) {
	if u.progress == nil {
		return
	}
	ev.PacksDone, ev.PacksTotal = r.packsDone, r.packsTotal
	ev.FilesDone, ev.FilesTotal = r.filesDone, r.filesTotal
	u.progress(ev)
}

func (u *Unpacker) fileDone(r *run, p *pack.Pack, rel string) {
	r.filesDone++
	u.report(r, ProgressEvent{Stage: StageExtracting, Pack: p.Name, Path: rel})
}

// relPath substitutes variables in p and returns it relative to the install
// path, slash-separated.
func (r *run) relPath(p string) (string, error) {
	s, err := r.subst.Substitute(p, subst.TypePlain)
	if err != nil {
		return "", err
	}
	s = pack.NormalizeTarget(s)
	if filepath.IsAbs(filepath.FromSlash(s)) || strings.HasPrefix(s, "/") {
		rel, err := filepath.Rel(r.dir, filepath.Clean(filepath.FromSlash(s)))
		if err != nil {
			return "", &fs.PathError{Op: "install", Path: p, Err: fs.ErrInvalid}
		}
		s = filepath.ToSlash(rel)
	}
	s = path.Clean(s)
	if !fs.ValidPath(s) {
		return "", &fs.PathError{Op: "install", Path: p, Err: fs.ErrInvalid}
	}
	return s, nil
}

func (r *run) markInstalled(rel string, p *pack.Pack) {
	if _, ok := r.installed[rel]; ok {
		return
	}
	r.installed[rel] = struct{}{}
	r.result.InstalledFiles = append(r.result.InstalledFiles, rel)
	if p.Uninstall {
		r.uninstall = append(r.uninstall, filepath.Join(r.dir, filepath.FromSlash(rel)))
	}
}

// stage remembers the temporary file that replaces rel once the queue ran.
func (r *run) stage(rel, tmpRel string) {
	if _, ok := r.staged[rel]; !ok {
		r.stagedOrder = append(r.stagedOrder, rel)
	}
	r.staged[rel] = tmpRel
}

// resolve returns the file currently holding the content of rel.
func (r *run) resolve(rel string) string {
	if tmp, ok := r.staged[rel]; ok {
		return tmp
	}
	return filepath.FromSlash(rel)
}

// discardStaged removes staged files when the queue never ran.
func (r *run) discardStaged(logger *slog.Logger) {
	for _, rel := range r.stagedOrder {
		tmp := r.staged[rel]
		if err := r.root.Remove(tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("remove staged file", "path", tmp, "error", err)
		}
	}
}

// pendingLister is implemented by queues that keep moves for the next reboot.
type pendingLister interface {
	Pending() []queue.Move
}

// cleanStaged removes staged files left over after the queue ran. Sources of
// moves deferred to the next reboot are kept.
func (r *run) cleanStaged(q queue.Queue, logger *slog.Logger) {
	keep := make(map[string]struct{})
	if pl, ok := q.(pendingLister); ok {
		for _, m := range pl.Pending() {
			keep[m.Src] = struct{}{}
		}
	}
	for _, rel := range r.stagedOrder {
		tmp := r.staged[rel]
		if _, ok := keep[filepath.Join(r.dir, tmp)]; ok {
			continue
		}
		if err := r.root.Remove(tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("remove staged file", "path", tmp, "error", err)
		}
	}
}

// variables returns the final variable set.
func (r *run) variables() map[string]string {
	if vs, ok := r.subst.(interface{ Variables() map[string]string }); ok {
		return vs.Variables()
	}
	return maps.Clone(r.data.Variables)
}

// environ returns the variables as NAME=value pairs.
func (r *run) environ() []string {
	if e, ok := r.subst.(interface{ Environ() []string }); ok {
		return e.Environ()
	}
	vars := r.variables()
	out := make([]string, 0, len(vars))
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		out = append(out, k+"="+vars[k])
	}
	return out
}
