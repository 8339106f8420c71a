package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/meigma/srcpack"
	"github.com/meigma/srcpack/internal/config"
	"github.com/meigma/srcpack/internal/container"
)

// cli holds state shared by all commands.
type cli struct {
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *slog.Logger

	// Test hooks.
	runnerOpts []container.Option
	clientOpts []srcpack.Option
}

func newCLI() *cli {
	return &cli{}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "srcpack",
		Short: "Package project sources for reproducible builds",
		Long: titleStyle.Render("srcpack") + labelStyle.Render(" - package project sources for reproducible builds") + `

srcpack collects the source files of a project into a single JSON manifest
that records each file's module, dependency depth and test status. The
manifest can be restored byte for byte, stored in an OCI registry, and fed
to a containerized build to reproduce contract artifacts.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default ./srcpack.toml, then the user config directory)")

	root.AddCommand(
		newPackCmd(c),
		newUnpackCmd(c),
		newInspectCmd(c),
		newBuildCmd(c),
		newCompareCmd(c),
		newPushCmd(c),
		newPullCmd(c),
		newTagCmd(c),
	)
	return root
}

// init loads configuration and builds the logger.
func (c *cli) init(cmd *cobra.Command) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, path, err := config.Load(cmd.Context(), config.LoadOptions{
		ConfigFile: c.cfgFile,
		WorkDir:    wd,
	})
	if err != nil {
		return err
	}
	c.cfg = cfg

	level, err := log.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = log.InfoLevel
	}
	if c.verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Level:  level,
		Prefix: "srcpack",
	})
	c.logger = slog.New(handler)
	if path != "" {
		c.logger.Debug("loaded config", "path", path)
	}
	return nil
}

func (c *cli) registryClient() (*srcpack.Client, error) {
	opts := []srcpack.Option{
		srcpack.WithLogger(c.logger),
		srcpack.WithPlainHTTP(c.cfg.Registry.PlainHTTP),
		srcpack.WithUserAgent(c.cfg.Registry.UserAgent),
	}
	if c.cfg.Registry.DockerConfig {
		opts = append(opts, srcpack.WithDockerConfig())
	}
	opts = append(opts, c.clientOpts...)
	return srcpack.NewClient(opts...)
}
