package main

import (
	"fmt"
	"io/fs"
	"strconv"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"

	srcpack "github.com/meigma/srcpack/core"
)

func newUnpackCmd(c *cli) *cobra.Command {
	var (
		mode     string
		expected string
	)
	cmd := &cobra.Command{
		Use:   "unpack MANIFEST DEST",
		Short: "Restore the files of a manifest under a directory",
		Long: `Restore the files of a manifest under DEST.

Existing files are overwritten; files not in the manifest are left alone.
Both legacy and current manifests are accepted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loadOpts := []srcpack.LoadOption{srcpack.LoadWithLogger(c.logger)}
			if expected != "" {
				d, err := digest.Parse(expected)
				if err != nil {
					return fmt.Errorf("invalid --digest: %w", err)
				}
				loadOpts = append(loadOpts, srcpack.LoadWithExpectedDigest(d))
			}
			perm, err := strconv.ParseUint(mode, 8, 32)
			if err != nil {
				return fmt.Errorf("invalid --mode %q: %w", mode, err)
			}

			p, err := srcpack.FromFile(args[0], loadOpts...)
			if err != nil {
				return err
			}
			if err := p.UnwrapToFilesystem(args[1],
				srcpack.UnwrapWithFileMode(fs.FileMode(perm)),
				srcpack.UnwrapWithLogger(c.logger),
			); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d files into %s\n",
				successStyle.Render("restored"), p.Len(), pathStyle.Render(args[1]))
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "0644", "permission bits of restored files (octal)")
	cmd.Flags().StringVar(&expected, "digest", "", "fail unless the manifest has this digest")
	return cmd
}
