package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/meigma/unpack/queue"
)

func newPendingCommand(a *app) *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "pending FILE",
		Short: "List or apply moves deferred until reboot",
		Long: `List the file moves an installation deferred because their targets
were in use. With --apply the moves are retried; moves that still cannot be
applied are written back to FILE.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			moves, err := queue.ReadPending(file)
			if err != nil {
				return err
			}
			if len(moves) == 0 {
				fmt.Fprintln(a.out, SubtitleStyle.Render("no pending moves"))
				return nil
			}
			if !apply {
				for _, m := range moves {
					if m.Dst == "" {
						fmt.Fprintln(a.out, WarningStyle.Render("delete ")+CmdStyle.Render(m.Src))
						continue
					}
					fmt.Fprintln(a.out, SubtitleStyle.Render("move   ")+CmdStyle.Render(m.Src)+" -> "+CmdStyle.Render(m.Dst))
				}
				return nil
			}

			// Moves that are deferred again are appended to a fresh file.
			if err := os.Remove(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			q := queue.New(queue.WithPendingFile(file), queue.WithLogger(a.logger))
			for _, m := range moves {
				q.Add(m)
			}
			execErr := q.Execute(cmd.Context())
			left := len(q.Pending())
			fmt.Fprintln(a.out, SuccessStyle.Render("✓ ")+fmt.Sprintf("Applied %d of %d move(s)", len(moves)-left, len(moves)))
			if left > 0 {
				fmt.Fprintln(a.out, WarningStyle.Render(fmt.Sprintf("%d move(s) still pending in %s", left, file)))
			}
			return execErr
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "retry the pending moves")
	return cmd
}
