package cli

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/meigma/unpack"
)

func newRecordCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record DIR",
		Short: "Show the installation record of a target directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(a.v, cmd.Flags(), map[string]string{"record-name": keyRecordName}); err != nil {
				return err
			}
			name := a.v.GetString(keyRecordName)
			if name == "" {
				name = unpack.DefaultRecordName
			}
			rec, err := unpack.ReadRecordFile(filepath.Join(args[0], name))
			if err != nil {
				return err
			}
			if len(rec.Packs) == 0 {
				fmt.Fprintln(a.out, SubtitleStyle.Render("nothing installed in "+args[0]))
				return nil
			}

			fmt.Fprintln(a.out, TitleStyle.Render("Installed packs"))
			for _, p := range rec.Packs {
				line := "  " + p.Name
				if p.Description != "" {
					line += SubtitleStyle.Render(" - " + p.Description)
				}
				fmt.Fprintln(a.out, line)
			}
			if len(rec.Variables) > 0 {
				fmt.Fprintln(a.out, TitleStyle.Render("Variables"))
				for _, k := range slices.Sorted(maps.Keys(rec.Variables)) {
					fmt.Fprintf(a.out, "  %s=%s\n", k, rec.Variables[k])
				}
			}
			if len(rec.Uninstall) > 0 {
				fmt.Fprintln(a.out, TitleStyle.Render("Uninstall list"))
				for _, p := range rec.Uninstall {
					fmt.Fprintln(a.out, "  "+CmdStyle.Render(p))
				}
			}
			return nil
		},
	}
	cmd.Flags().String("record-name", "", "installation record file name inside DIR")
	return cmd
}
