package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/meigma/srcpack/internal/container"
)

func newBuildCmd(c *cli) *cobra.Command {
	var (
		req            container.BuildRequest
		engine         string
		noInteractive  bool
		noTTY          bool
		cargoTargetDir string
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a project or packaged source in a container",
		Long: `Build a project or packaged source in a container.

The output directory must be empty. The command exits with the build
container's exit status.`,
		Example: `  srcpack build --image builder:v5.4.1 --project ./contracts --contract adder
  srcpack build --image builder:v5.4.1 --packaged-src adder.source.json --output ./output-reproduced`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := c.cfg.Container
			f := cmd.Flags()
			if !f.Changed("image") {
				req.Image = cc.Image
			}
			if !f.Changed("engine") {
				engine = cc.Engine
			}
			if !f.Changed("cache-dir") && cc.CacheDir != "" {
				req.CacheRoot = cc.CacheDir
			}
			req.Interactive = cc.Interactive && !noInteractive
			req.TTY = cc.TTY && !noTTY
			if req.OutputDir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				req.OutputDir = filepath.Join(wd, "output")
			}
			if cargoTargetDir != "" {
				c.logger.Warn("--cargo-target-dir is deprecated and ignored")
			}

			opts := append([]container.Option{
				container.WithEngine(engine),
				container.WithLogger(c.logger),
				container.WithStdio(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
			}, c.runnerOpts...)
			runner, err := container.NewRunner(opts...)
			if err != nil {
				return err
			}

			code, err := runner.Build(cmd.Context(), req)
			if err != nil {
				return err
			}
			if code != 0 {
				return &ExitError{Code: code, Err: fmt.Errorf("build container exited with status %d", code)}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s artifacts in %s\n",
				successStyle.Render("built"), pathStyle.Render(req.OutputDir))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Image, "image", "", "build image (default from container.image)")
	f.StringVar(&req.ProjectDir, "project", "", "project directory to build")
	f.StringVar(&req.PackagedSrc, "packaged-src", "", "packaged source manifest to build")
	f.StringVar(&req.Contract, "contract", "", "build only this contract")
	f.StringVar(&req.OutputDir, "output", "", "output directory (default ./output)")
	f.BoolVar(&req.PackageWholeProjectSrc, "package-whole-project-src", false, "include all project files in the produced source manifest")
	f.BoolVar(&req.NoWasmOpt, "no-wasm-opt", false, "do not optimize wasm files after the build")
	f.StringVar(&req.BuildRoot, "build-root", "", "build root path inside the container")
	f.BoolVar(&req.CargoVerbose, "cargo-verbose", false, "set CARGO_TERM_VERBOSE in the container")
	f.StringVar(&req.CacheRoot, "cache-dir", "", "host directory for cargo caches")
	f.StringVar(&engine, "engine", "docker", "container engine: docker or podman")
	f.BoolVar(&noInteractive, "no-docker-interactive", false, "do not keep stdin attached")
	f.BoolVar(&noTTY, "no-docker-tty", false, "do not allocate a TTY")
	f.StringVar(&cargoTargetDir, "cargo-target-dir", "", "deprecated, ignored")
	_ = f.MarkDeprecated("cargo-target-dir", "it is no longer used")
	return cmd
}
