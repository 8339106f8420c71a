package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	srcpack "github.com/meigma/srcpack/core"
)

// manifestSummary is the inspect view of a manifest, without file contents.
type manifestSummary struct {
	SchemaVersion string           `json:"schemaVersion" yaml:"schemaVersion"`
	Digest        string           `json:"digest" yaml:"digest"`
	Metadata      srcpack.Metadata `json:"metadata" yaml:"metadata"`
	TotalSize     int64            `json:"totalSize" yaml:"totalSize"`
	Entries       []entrySummary   `json:"entries" yaml:"entries"`
}

type entrySummary struct {
	Path string `json:"path" yaml:"path"`
	// Module is empty when the file belongs to no module.
	Module string `json:"module,omitempty" yaml:"module,omitempty"`
	// DependencyDepth is nil for unbounded depth.
	DependencyDepth *int   `json:"dependencyDepth" yaml:"dependencyDepth"`
	IsTestFile      bool   `json:"isTestFile" yaml:"isTestFile"`
	Size            int    `json:"size" yaml:"size"`
	Digest          string `json:"digest" yaml:"digest"`
}

func summarize(p *srcpack.Packaged) (manifestSummary, error) {
	d, err := p.Digest()
	if err != nil {
		return manifestSummary{}, err
	}
	s := manifestSummary{
		SchemaVersion: string(p.Version()),
		Digest:        d.String(),
		Metadata:      p.Metadata(),
		TotalSize:     p.TotalSize(),
	}
	for _, e := range p.Entries() {
		es := entrySummary{
			Path:       e.Path(),
			IsTestFile: e.IsTestFile(),
			Size:       e.Size(),
			Digest:     e.Digest().String(),
		}
		if m, ok := e.Module(); ok {
			es.Module = m
		}
		if depth := e.DependencyDepth(); depth != srcpack.UnboundedDepth {
			es.DependencyDepth = &depth
		}
		s.Entries = append(s.Entries, es)
	}
	return s, nil
}

func newInspectCmd(c *cli) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "inspect MANIFEST",
		Short: "Show a manifest's metadata and entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := srcpack.FromFile(args[0], srcpack.LoadWithLogger(c.logger))
			if err != nil {
				return err
			}
			s, err := summarize(p)
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), s, format)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

func writeSummary(w io.Writer, s manifestSummary, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		s.Metadata = yamlMetadata(s.Metadata)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		_, err := io.WriteString(w, renderSummary(s))
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// yamlMetadata replaces json.Number values, which yaml would quote, with
// plain integers or floats.
func yamlMetadata(m srcpack.Metadata) srcpack.Metadata {
	out := make(srcpack.Metadata, len(m))
	for k, v := range m {
		out[k] = yamlValue(v)
	}
	return out
}

func yamlValue(v any) any {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]any:
		return map[string]any(yamlMetadata(v))
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = yamlValue(item)
		}
		return out
	default:
		return v
	}
}

func renderSummary(s manifestSummary) string {
	field := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-16s", label)) + value + "\n"
	}

	out := titleStyle.Render("Packaged source") + "\n"
	out += field("schema version", s.SchemaVersion)
	out += field("digest", s.Digest)
	out += field("files", strconv.Itoa(len(s.Entries)))
	out += field("total size", strconv.FormatInt(s.TotalSize, 10))
	for _, k := range slices.Sorted(maps.Keys(s.Metadata)) {
		out += field("meta."+k, fmt.Sprint(s.Metadata[k]))
	}

	rows := make([][]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		depth := "unbounded"
		if e.DependencyDepth != nil {
			depth = strconv.Itoa(*e.DependencyDepth)
		}
		module := e.Module
		if module == "" {
			module = "-"
		}
		test := ""
		if e.IsTestFile {
			test = "yes"
		}
		rows = append(rows, []string{e.Path, module, depth, test, strconv.Itoa(e.Size)})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(labelStyle).
		Headers("PATH", "MODULE", "DEPTH", "TEST", "SIZE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return out + t.Render() + "\n"
}
