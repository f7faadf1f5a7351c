package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meigma/unpack/catalog"
	"github.com/meigma/unpack/codec"
	"github.com/meigma/unpack/pack"
)

func newInspectCommand(a *app) *cobra.Command {
	var files bool
	cmd := &cobra.Command{
		Use:   "inspect SOURCE",
		Short: "List the packs of a payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, closeSource, err := a.openSource(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeSource()

			c, err := catalog.Read(ctx, p)
			if err != nil {
				return err
			}
			printCatalog(a.out, c, files)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&files, "files", "f", false, "list the files of every pack")
	return cmd
}

func printCatalog(w io.Writer, c *catalog.Catalog, files bool) {
	compression := c.Compression
	if codec.IsNone(compression) {
		compression = codec.None
	}
	fmt.Fprintln(w, SubtitleStyle.Render(fmt.Sprintf("catalog v%d, compression %s, %d pack(s)", c.Version, compression, len(c.Packs))))

	for _, info := range c.Packs {
		p := info.Pack()
		var length int64
		for _, f := range info.Files() {
			length += f.Length()
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render(p.Name)+" "+flagStyle.Render(packMarkers(p)))
		if p.Description != "" {
			fmt.Fprintln(w, "  "+p.Description)
		}
		fmt.Fprintln(w, SubtitleStyle.Render(fmt.Sprintf("  %d file(s), %s", len(info.Files()), humanBytes(length))))
		if !files {
			continue
		}
		for _, f := range info.Files() {
			fmt.Fprintf(w, "    %s %s\n", CmdStyle.Render(f.TargetPath()), flagStyle.Render(fileMarkers(f)))
		}
	}
}

func packMarkers(p *pack.Pack) string {
	var m []string
	if p.Required {
		m = append(m, "required")
	}
	if p.Preselected {
		m = append(m, "preselected")
	}
	if p.Loose {
		m = append(m, "loose")
	}
	if p.Hidden {
		m = append(m, "hidden")
	}
	if p.Condition != "" {
		m = append(m, "if "+p.Condition)
	}
	if len(p.Dependencies) > 0 {
		m = append(m, "needs "+strings.Join(p.Dependencies, ","))
	}
	if len(m) == 0 {
		return ""
	}
	return "[" + strings.Join(m, "] [") + "]"
}

func fileMarkers(f *pack.PackFile) string {
	if f.IsDirectory() {
		return "[dir]"
	}
	m := []string{humanBytes(f.Length())}
	switch {
	case f.IsBackReference():
		m = append(m, "same as "+f.LinkedFile().TargetPath())
	case f.IsPack200():
		m = append(m, "repacked")
	case f.IsStored():
		m = append(m, "stored")
	case f.OccupiesPackStream() && f.Size() != f.Length():
		m = append(m, "packed "+humanBytes(f.Size()))
	}
	if f.Blockable() != pack.BlockableNone {
		m = append(m, "blockable")
	}
	if f.Condition() != "" {
		m = append(m, "if "+f.Condition())
	}
	return "[" + strings.Join(m, "] [") + "]"
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
