// Package cli implements the unpack command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// ExitError carries a process exit code through cobra.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// app holds state shared by all commands of one invocation.
type app struct {
	cfgFile string
	verbose bool

	v      *viper.Viper
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "unpack",
		Short: "Install packs from an installer payload",
		Long: TitleStyle.Render("unpack") + SubtitleStyle.Render(" - installer payload extraction") + `

unpack installs the packs of an installer payload into a target directory.
Payloads are read from a local directory, an HTTP server or an OCI
registry, and are produced from a TOML manifest with 'unpack build'.

` + SubtitleStyle.Render("Examples:") + `
  unpack build installer.toml -o ./payload
  unpack inspect ./payload
  unpack install ./payload -t /opt/app --pack core --pack docs
  unpack publish ./payload registry.example.com/app/payload:1.0
  unpack install oci://registry.example.com/app/payload:1.0 -t /opt/app`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/unpack/unpack.toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().String("cache-dir", "", "cache remote resources in this directory")
	root.PersistentFlags().Bool("plain-http", false, "use plain HTTP for OCI registries")

	root.AddCommand(
		newInstallCommand(a),
		newInspectCommand(a),
		newBuildCommand(a),
		newPublishCommand(a),
		newRecordCommand(a),
		newPendingCommand(a),
		newCacheCommand(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	v, err := loadConfig(a.cfgFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd.Root().PersistentFlags(), map[string]string{
		"cache-dir":  keyCacheDir,
		"plain-http": keyPlainHTTP,
	}); err != nil {
		return err
	}
	a.v = v
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()

	level, err := log.ParseLevel(v.GetString(keyLogLevel))
	if err != nil {
		return fmt.Errorf("config %s: %w", keyLogLevel, err)
	}
	if a.verbose {
		level = log.DebugLevel
	}
	a.logger = slog.New(log.NewWithOptions(a.errOut, log.Options{
		Level:           level,
		Prefix:          "unpack",
		ReportTimestamp: a.verbose,
	}))
	return nil
}

func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process with the command's status.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(),
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
