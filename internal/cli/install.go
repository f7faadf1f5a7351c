package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/meigma/unpack"
	"github.com/meigma/unpack/queue"
	"github.com/meigma/unpack/source/local"
)

type installFlags struct {
	target     string
	packs      []string
	vars       map[string]string
	conditions []string
	looseDir   string
}

func newInstallCommand(a *app) *cobra.Command {
	var f installFlags
	cmd := &cobra.Command{
		Use:   "install SOURCE",
		Short: "Install packs into a target directory",
		Long: `Install packs from the payload at SOURCE into the target directory.

SOURCE is a local payload directory, an http(s) URL or an oci:// reference.
Without --pack, required and preselected packs are installed. Interrupting
the command (Ctrl+C) stops extraction. Files already in place are kept;
queued replacements of in-use files are discarded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(a.v, cmd.Flags(), map[string]string{
				"unattended":      keyUnattended,
				"accept-warnings": keyAcceptWarnings,
				"pending-file":    keyPendingFile,
				"record-name":     keyRecordName,
				"temp-dir":        keyTempDir,
			}); err != nil {
				return err
			}
			return a.install(cmd, args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.target, "target", "t", "", "installation directory")
	cmd.Flags().StringSliceVarP(&f.packs, "pack", "p", nil, "pack to install (repeatable)")
	cmd.Flags().StringToStringVar(&f.vars, "var", nil, "installer variable NAME=VALUE (repeatable)")
	cmd.Flags().StringSliceVar(&f.conditions, "condition", nil, "condition id that evaluates to true (repeatable)")
	cmd.Flags().StringVar(&f.looseDir, "loose-dir", "", "directory holding the files of loose packs (default is SOURCE)")
	cmd.Flags().Bool("unattended", false, "never prompt; ask-style decisions use their default")
	cmd.Flags().Bool("accept-warnings", false, "continue past recoverable warnings")
	cmd.Flags().String("pending-file", "", "record moves that need a reboot in this file")
	cmd.Flags().String("record-name", "", "installation record file name inside the target")
	cmd.Flags().String("temp-dir", "", "directory for decompression scratch files")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func (a *app) install(cmd *cobra.Command, loc string, f installFlags) error {
	ctx := cmd.Context()
	p, closeSource, err := a.openSource(ctx, loc)
	if err != nil {
		return err
	}
	defer closeSource()

	qopts := []queue.Option{queue.WithLogger(a.logger)}
	if pending := a.v.GetString(keyPendingFile); pending != "" {
		qopts = append(qopts, queue.WithPendingFile(pending))
	}
	q := queue.New(qopts...)

	progress := &progressPrinter{w: a.errOut}
	opts := []unpack.Option{
		unpack.WithLogger(a.logger),
		unpack.WithQueue(q),
		unpack.WithPrompter(confirmPrompter{accessible: a.v.GetBool(keyAccessible)}),
		unpack.WithRules(newConditionSet(f.conditions)),
		unpack.WithProgress(progress.report),
		unpack.WithAcceptWarnings(a.v.GetBool(keyAcceptWarnings)),
	}
	if name := a.v.GetString(keyRecordName); name != "" {
		opts = append(opts, unpack.WithRecordName(name))
	}
	if dir := a.v.GetString(keyTempDir); dir != "" {
		opts = append(opts, unpack.WithTempDir(dir))
	}
	if f.looseDir != "" {
		lp, err := local.New(f.looseDir, local.WithLogger(a.logger))
		if err != nil {
			return err
		}
		defer lp.Close()
		opts = append(opts, unpack.WithLooseProvider(lp))
	}

	u := unpack.New(p, opts...)
	res, err := u.Run(ctx, &unpack.InstallData{
		InstallPath:   f.target,
		SelectedPacks: f.packs,
		Unattended:    a.v.GetBool(keyUnattended),
		Variables:     f.vars,
	})
	if errors.Is(err, unpack.ErrInterrupted) {
		fmt.Fprintln(a.errOut, WarningStyle.Render("Installation interrupted; files already extracted were kept and queued replacements discarded."))
		return &ExitError{Code: 130, Err: err}
	}
	if err != nil {
		return err
	}
	printResult(a.out, res, f.target, a.v.GetString(keyPendingFile))
	return nil
}

func printResult(w io.Writer, res *unpack.Result, target, pending string) {
	fmt.Fprintln(w, SuccessStyle.Render("✓ ")+fmt.Sprintf("Installed %d pack(s), %d file(s) into %s",
		len(res.InstalledPacks), len(res.InstalledFiles), CmdStyle.Render(target)))
	if len(res.Removed) > 0 {
		fmt.Fprintln(w, SubtitleStyle.Render(fmt.Sprintf("  removed %d obsolete path(s)", len(res.Removed))))
	}
	if res.Queued > 0 {
		fmt.Fprintln(w, SubtitleStyle.Render(fmt.Sprintf("  %d file(s) replaced through the deferred queue", res.Queued)))
	}
	for _, warn := range res.Warnings {
		fmt.Fprintln(w, WarningStyle.Render("  warning: ")+warn.Error())
	}
	if res.RebootRequired {
		msg := "A reboot is required to finish replacing files in use."
		if pending != "" {
			msg += " Pending moves were written to " + pending + "."
		}
		fmt.Fprintln(w, WarningStyle.Render(msg))
	}
}

// progressPrinter prints a line whenever the stage or the current pack
// changes.
type progressPrinter struct {
	w     io.Writer
	stage unpack.ProgressStage
	pack  string
	begun bool
}

func (p *progressPrinter) report(ev unpack.ProgressEvent) {
	if p.begun && ev.Stage == p.stage && ev.Pack == p.pack {
		return
	}
	p.begun = true
	p.stage = ev.Stage
	p.pack = ev.Pack

	line := SubtitleStyle.Render(ev.Stage.String())
	if ev.Stage == unpack.StageExtracting && ev.Pack != "" {
		line += " " + TitleStyle.Render(ev.Pack) +
			SubtitleStyle.Render(fmt.Sprintf(" (%d/%d packs, %d/%d files)", ev.PacksDone+1, ev.PacksTotal, ev.FilesDone, ev.FilesTotal))
	}
	fmt.Fprintln(p.w, line)
}
