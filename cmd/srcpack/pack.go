package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	srcpack "github.com/meigma/srcpack/core"
	"github.com/meigma/srcpack/internal/discovery"
)

type packOptions struct {
	output         string
	fileList       string
	name           string
	projectVersion string
	meta           []string
	metadataFile   string
	compress       bool
	depth          int
	markers        []string
	exclude        []string
	testDirs       []string
	testPatterns   []string
}

func newPackCmd(c *cli) *cobra.Command {
	var o packOptions
	cmd := &cobra.Command{
		Use:   "pack PROJECT",
		Short: "Package a project's source files into a manifest",
		Long: `Package a project's source files into a manifest.

Files are discovered by walking PROJECT, or taken from a JSON file list
produced by a dependency analyzer (--file-list). Output ending in .zst is
zstd-compressed.`,
		Example: `  srcpack pack ./contracts -o adder.source.json --name adder --project-version 1.0.0
  srcpack pack ./contracts -o adder.source.json --file-list deps.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPack(cmd, args[0], &o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.output, "output", "o", "", "manifest file to write (required)")
	f.StringVar(&o.fileList, "file-list", "", "JSON file list to package instead of walking the project")
	f.StringVar(&o.name, "name", "", "project name stored in metadata")
	f.StringVar(&o.projectVersion, "project-version", "", "project version stored in metadata")
	f.StringArrayVar(&o.meta, "meta", nil, "extra metadata as key=value (repeatable)")
	f.StringVar(&o.metadataFile, "metadata-file", "", "JSON object merged into metadata")
	f.BoolVar(&o.compress, "compress", false, "zstd-compress the manifest")
	f.IntVar(&o.depth, "depth", 0, "dependency depth assigned to walked files")
	f.StringSliceVar(&o.markers, "module-marker", nil, "file names marking a module root")
	f.StringSliceVar(&o.exclude, "exclude", nil, "directory names to skip")
	f.StringSliceVar(&o.testDirs, "test-dir", nil, "directory names holding test files")
	f.StringSliceVar(&o.testPatterns, "test-pattern", nil, "file name patterns of test files")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (c *cli) runPack(cmd *cobra.Command, project string, o *packOptions) error {
	c.applyPackConfig(cmd, o)

	metadata, err := o.metadata()
	if err != nil {
		return err
	}

	var files []discovery.File
	if o.fileList != "" {
		files, err = discovery.LoadList(o.fileList, project)
	} else {
		files, err = discovery.Walk(cmd.Context(), project,
			discovery.WithModuleMarkers(o.markers...),
			discovery.WithExclude(o.exclude...),
			discovery.WithTestDirs(o.testDirs...),
			discovery.WithTestFilePatterns(o.testPatterns...),
			discovery.WithDefaultDepth(o.depth),
			discovery.WithLogger(c.logger),
		)
	}
	if err != nil {
		return err
	}

	p, err := srcpack.FromFilesystem(metadata, project, files, srcpack.PackWithLogger(c.logger))
	if err != nil {
		return err
	}

	saveOpts := []srcpack.SaveOption{srcpack.SaveWithLogger(c.logger)}
	if cmd.Flags().Changed("compress") || o.compress {
		saveOpts = append(saveOpts, srcpack.SaveWithCompression(o.compress))
	}
	if err := p.SaveToFile(o.output, saveOpts...); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %d files (%d bytes) into %s\n",
		successStyle.Render("packed"), p.Len(), p.TotalSize(), pathStyle.Render(o.output))
	return nil
}

// applyPackConfig fills flags the user did not set from configuration.
func (c *cli) applyPackConfig(cmd *cobra.Command, o *packOptions) {
	f := cmd.Flags()
	pc := c.cfg.Pack
	if !f.Changed("module-marker") {
		o.markers = pc.ModuleMarkers
	}
	if !f.Changed("exclude") {
		o.exclude = pc.Exclude
	}
	if !f.Changed("test-dir") {
		o.testDirs = pc.TestDirs
	}
	if !f.Changed("test-pattern") {
		o.testPatterns = pc.TestPatterns
	}
	if !f.Changed("depth") {
		o.depth = pc.DefaultDepth
	}
	if !f.Changed("compress") {
		o.compress = pc.Compress
	}
}

func (o *packOptions) metadata() (srcpack.Metadata, error) {
	metadata := srcpack.Metadata{}
	if o.metadataFile != "" {
		data, err := os.ReadFile(o.metadataFile)
		if err != nil {
			return nil, fmt.Errorf("read metadata file: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&metadata); err != nil {
			return nil, fmt.Errorf("parse metadata file %s: %w", o.metadataFile, err)
		}
		if metadata == nil {
			metadata = srcpack.Metadata{}
		}
	}
	for _, kv := range o.meta {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --meta %q: want key=value", kv)
		}
		metadata[key] = value
	}
	if o.name != "" {
		metadata["name"] = o.name
	}
	if o.projectVersion != "" {
		metadata["version"] = o.projectVersion
	}
	return metadata, nil
}
