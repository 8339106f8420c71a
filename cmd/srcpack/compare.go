package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/meigma/srcpack/internal/compare"
)

func newCompareCmd(c *cli) *cobra.Command {
	var (
		diffBytes int
		skip      []string
		workers   int
	)
	cmd := &cobra.Command{
		Use:   "compare DIR_A DIR_B",
		Short: "Check that two build outputs are identical",
		Long: `Check that two build outputs are identical.

Exits with status 1 when files are missing on either side or differ.
Archives (.zip) are skipped by default.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []compare.Option{compare.WithLogger(c.logger)}
			if cmd.Flags().Changed("skip-ext") {
				opts = append(opts, compare.WithSkipExtensions(skip...))
			}
			if workers > 0 {
				opts = append(opts, compare.WithWorkers(workers))
			}
			if diffBytes > 0 {
				opts = append(opts, compare.WithDiff(diffBytes))
			}

			report, err := compare.Dirs(cmd.Context(), args[0], args[1], opts...)
			if err != nil {
				return err
			}
			writeReport(cmd.OutOrStdout(), report)
			if !report.Equal() {
				return &ExitError{Code: 1, Err: errors.New("outputs differ")}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&diffBytes, "diff", 0, "show unified diffs for differing text files up to this combined size")
	cmd.Flags().StringSliceVar(&skip, "skip-ext", compare.DefaultSkipExtensions, "file extensions to ignore")
	cmd.Flags().IntVar(&workers, "workers", 0, "files hashed concurrently (default GOMAXPROCS)")
	return cmd
}

func writeReport(w io.Writer, r *compare.Report) {
	for _, p := range r.OnlyInA {
		fmt.Fprintf(w, "%s %s\n", errorStyle.Render("only in A:"), p)
	}
	for _, p := range r.OnlyInB {
		fmt.Fprintf(w, "%s %s\n", errorStyle.Render("only in B:"), p)
	}
	for _, p := range r.Differ {
		fmt.Fprintf(w, "%s %s\n", errorStyle.Render("differs:  "), p)
		if d, ok := r.Diffs[p]; ok {
			fmt.Fprint(w, d)
		}
	}
	if r.Equal() {
		fmt.Fprintf(w, "%s %d files identical\n", successStyle.Render("equal:"), len(r.Identical))
	}
}
