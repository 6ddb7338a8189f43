package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"faultline/internal/version"
)

// versionPayload is both the JSON document and the source of pretty output.
type versionPayload struct {
	Tool       string `json:"tool"`
	Version    string `json:"version"`
	Go         string `json:"go,omitempty"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

var versionFlags struct {
	format  string
	hash    bool
	message bool
	date    bool
	full    bool
}

func init() {
	f := versionCmd.Flags()
	f.StringVar(&versionFlags.format, "format", "pretty", "output format (pretty|json)")
	f.BoolVar(&versionFlags.hash, "hash", false, "include git commit hash")
	f.BoolVar(&versionFlags.message, "message", false, "include git commit message")
	f.BoolVar(&versionFlags.date, "date", false, "include build timestamp")
	f.BoolVar(&versionFlags.full, "full", false, "include toolchain and all build metadata")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show faultline build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p := buildPayload()
		out := cmd.OutOrStdout()
		switch strings.ToLower(versionFlags.format) {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		case "pretty":
			printVersion(out, p)
			return nil
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFlags.format)
		}
	},
}

// buildPayload keeps only the fields the flags ask for. Values not set via
// -ldflags fall back to the VCS stamp of the binary.
func buildPayload() versionPayload {
	full := versionFlags.full
	p := versionPayload{
		Tool:    "faultline",
		Version: orDefault(version.Version, "dev"),
	}
	commit, date := vcsStamp()
	if full {
		p.Go = runtime.Version()
	}
	if full || versionFlags.hash {
		p.GitCommit = orDefault(orDefault(version.GitCommit, commit), "unknown")
	}
	if full || versionFlags.message {
		p.GitMessage = orDefault(version.GitMessage, "unknown")
	}
	if full || versionFlags.date {
		p.BuildDate = orDefault(orDefault(version.BuildDate, date), "unknown")
	}
	return p
}

func vcsStamp() (commit, date string) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			commit = s.Value
		case "vcs.time":
			date = s.Value
		}
	}
	return commit, date
}

func printVersion(out io.Writer, p versionPayload) {
	v := p.Version
	if v == strings.TrimSpace(version.Version) {
		v = version.Colored()
	}
	fmt.Fprintf(out, "%s %s\n", p.Tool, v)
	for _, row := range [...]struct{ label, value string }{
		{"go", p.Go},
		{"commit", p.GitCommit},
		{"message", p.GitMessage},
		{"built", p.BuildDate},
	} {
		if row.value != "" {
			fmt.Fprintf(out, "%-8s %s\n", row.label+":", row.value)
		}
	}
}

// orDefault returns the trimmed s, or def when s is blank.
func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
