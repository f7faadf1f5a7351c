package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meigma/unpack/source/cache/disk"
)

var errNoCacheDir = errors.New("no cache directory configured (use --cache-dir or cache.dir)")

func newCacheCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the resource cache",
	}

	openStore := func() (*disk.Store, error) {
		dir := a.v.GetString(keyCacheDir)
		if dir == "" {
			return nil, errNoCacheDir
		}
		return disk.New(dir)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show the cache size",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, CmdStyle.Render(a.v.GetString(keyCacheDir))+" "+humanBytes(s.SizeBytes()))
			return nil
		},
	})

	var target int64
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Evict cached resources until the cache fits a size",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			freed, err := s.Prune(target)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, SuccessStyle.Render("✓ ")+fmt.Sprintf("Freed %s, %s left", humanBytes(freed), humanBytes(s.SizeBytes())))
			return nil
		},
	}
	prune.Flags().Int64Var(&target, "size", 0, "target cache size in bytes")
	cmd.AddCommand(prune)
	return cmd
}
