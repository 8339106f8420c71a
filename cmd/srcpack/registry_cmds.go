package main

import (
	"errors"
	"fmt"
	"os"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/spf13/cobra"

	"github.com/meigma/srcpack"
	srcpackcore "github.com/meigma/srcpack/core"
)

func newPushCmd(c *cli) *cobra.Command {
	var (
		tags        []string
		annotations map[string]string
		compress    bool
		fileList    string
		name        string
		version     string
	)
	cmd := &cobra.Command{
		Use:   "push SOURCE REF",
		Short: "Push a manifest or a project to an OCI registry",
		Long: `Push a manifest or a project to an OCI registry.

SOURCE is either a manifest file or a project directory. A directory is
packed first, using the pack settings from the configuration.`,
		Example: `  srcpack push adder.source.json ghcr.io/acme/adder-src:v1.0.0 --tag latest
  srcpack push ./contracts ghcr.io/acme/adder-src:v1.0.0 --name adder`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, ref := args[0], args[1]
			if !cmd.Flags().Changed("compress") {
				compress = c.cfg.Pack.Compress
			}
			client, err := c.registryClient()
			if err != nil {
				return err
			}

			opts := []srcpack.PushOption{
				srcpack.PushWithTags(tags...),
				srcpack.PushWithAnnotations(annotations),
				srcpack.PushWithCompression(compress),
			}

			info, err := os.Stat(source)
			if err != nil {
				return err
			}
			var desc ocispec.Descriptor
			if info.IsDir() {
				metadata := srcpack.Metadata{}
				if name != "" {
					metadata["name"] = name
				}
				if version != "" {
					metadata["version"] = version
				}
				pc := c.cfg.Pack
				opts = append(opts,
					srcpack.PushWithMetadata(metadata),
					srcpack.PushWithModuleMarkers(pc.ModuleMarkers...),
					srcpack.PushWithExclude(pc.Exclude...),
					srcpack.PushWithTestDirs(pc.TestDirs...),
					srcpack.PushWithTestFilePatterns(pc.TestPatterns...),
					srcpack.PushWithDepth(pc.DefaultDepth),
				)
				if fileList != "" {
					opts = append(opts, srcpack.PushWithFileList(fileList))
				}
				desc, err = client.Push(cmd.Context(), ref, source, opts...)
			} else {
				if fileList != "" || name != "" || version != "" {
					return errors.New("--file-list, --name and --project-version only apply to project directories")
				}
				var p *srcpack.Packaged
				p, err = srcpackcore.FromFile(source, srcpackcore.LoadWithLogger(c.logger))
				if err != nil {
					return err
				}
				desc, err = client.PushPackaged(cmd.Context(), ref, p, opts...)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s@%s\n", successStyle.Render("pushed"), ref, desc.Digest)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVarP(&tags, "tag", "t", nil, "additional tags")
	f.StringToStringVar(&annotations, "annotation", nil, "manifest annotations as key=value")
	f.BoolVar(&compress, "compress", false, "store the manifest zstd-compressed")
	f.StringVar(&fileList, "file-list", "", "JSON file list to package instead of walking the project")
	f.StringVar(&name, "name", "", "project name stored in metadata")
	f.StringVar(&version, "project-version", "", "project version stored in metadata")
	return cmd
}

func newPullCmd(c *cli) *cobra.Command {
	var (
		output   string
		unpackTo string
		maxSize  int64
	)
	cmd := &cobra.Command{
		Use:   "pull REF",
		Short: "Pull a manifest from an OCI registry",
		Example: `  srcpack pull ghcr.io/acme/adder-src:v1.0.0 -o adder.source.json
  srcpack pull ghcr.io/acme/adder-src:v1.0.0 --unpack ./restored`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" && unpackTo == "" {
				return errors.New("one of --output or --unpack is required")
			}
			client, err := c.registryClient()
			if err != nil {
				return err
			}
			pullOpts := []srcpack.PullOption{srcpack.PullWithMaxSize(maxSize)}

			var p *srcpack.Packaged
			if output == "" {
				p, err = client.PullTo(cmd.Context(), args[0], unpackTo, pullOpts...)
			} else {
				p, err = client.Pull(cmd.Context(), args[0], pullOpts...)
			}
			if err != nil {
				return err
			}

			if output != "" {
				if err := p.SaveToFile(output, srcpackcore.SaveWithLogger(c.logger)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("saved"), pathStyle.Render(output))
				if unpackTo != "" {
					if err := p.UnwrapToFilesystem(unpackTo, srcpackcore.UnwrapWithLogger(c.logger)); err != nil {
						return err
					}
				}
			}
			if unpackTo != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d files into %s\n",
					successStyle.Render("restored"), p.Len(), pathStyle.Render(unpackTo))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the manifest to this file")
	cmd.Flags().StringVar(&unpackTo, "unpack", "", "restore the files under this directory")
	cmd.Flags().Int64Var(&maxSize, "max-size", 512<<20, "largest manifest layer accepted, in bytes (0 disables)")
	return cmd
}

func newTagCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tag REF DIGEST",
		Short: "Tag an existing manifest in an OCI registry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.registryClient()
			if err != nil {
				return err
			}
			if err := client.Tag(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", successStyle.Render("tagged"), args[0], args[1])
			return nil
		},
	}
}
