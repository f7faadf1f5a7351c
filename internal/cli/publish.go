package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meigma/unpack/source/oci"
)

func newPublishCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "publish DIR REFERENCE",
		Short: "Push a built payload to an OCI registry",
		Long: `Push every resource of the payload in DIR to the registry repository
named by REFERENCE (host/repository:tag) and tag the resulting manifest.
Credentials come from the Docker configuration.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := strings.TrimPrefix(args[1], ociScheme)
			opts := []oci.RemoteOption{
				oci.WithPlainHTTP(a.v.GetBool(keyPlainHTTP)),
				oci.WithUserAgent("unpack/" + Version),
			}
			if a.v.GetBool(keyAnonymous) {
				opts = append(opts, oci.WithAnonymous())
			}
			repo, err := oci.Repository(ref, opts...)
			if err != nil {
				return err
			}
			tag := repo.Reference.Reference
			if tag == "" {
				return errors.New("publish: reference needs a tag")
			}

			desc, err := oci.Publish(cmd.Context(), repo, args[0], tag)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, SuccessStyle.Render("✓ ")+"Published "+CmdStyle.Render(ref))
			fmt.Fprintln(a.out, SubtitleStyle.Render("  "+desc.Digest.String()))
			return nil
		},
	}
}
