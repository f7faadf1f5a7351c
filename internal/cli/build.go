package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meigma/unpack/payload"
)

func newBuildCommand(a *app) *cobra.Command {
	var (
		output  string
		noDedup bool
	)
	cmd := &cobra.Command{
		Use:   "build MANIFEST",
		Short: "Build a payload from a TOML manifest",
		Long: `Build an installer payload from a TOML manifest.

The manifest lists packs and the directories their files are collected
from. The payload (catalog, pack streams and side-streams) is written to
the output directory, which can be installed from directly or published
to a registry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(a.v, cmd.Flags(), map[string]string{"compression": keyCompression}); err != nil {
				return err
			}
			m, err := payload.LoadManifest(args[0])
			if err != nil {
				return err
			}

			opts := []payload.Option{payload.WithLogger(a.logger)}
			if c := a.v.GetString(keyCompression); c != "" {
				opts = append(opts, payload.WithCompression(c))
			}
			if noDedup {
				opts = append(opts, payload.WithDeduplication(false))
			}
			b, err := m.NewBuilder(opts...)
			if err != nil {
				return err
			}

			c, err := b.Build(cmd.Context(), payload.NewDirSink(output))
			if err != nil {
				return err
			}
			var files int
			for _, info := range c.Packs {
				files += len(info.Files())
			}
			fmt.Fprintln(a.out, SuccessStyle.Render("✓ ")+fmt.Sprintf("Built %d pack(s), %d file(s) into %s",
				len(c.Packs), files, CmdStyle.Render(output)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "payload", "output directory")
	cmd.Flags().String("compression", "", "pack-stream codec (overrides the manifest)")
	cmd.Flags().BoolVar(&noDedup, "no-dedup", false, "store identical files more than once")
	return cmd
}
