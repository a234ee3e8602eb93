package cmd

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/fluxbase-eu/urlpack/cli/output"
)

var versionFmt string

// versionInfo is what `urlpack version` reports.
type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show urlpack version information",
	Long: `Display the urlpack release, the commit and date it was built from, and
the Go toolchain and platform of this binary. Include this output when
reporting a bundling problem.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		formatter, err := newFormatter(versionFmt)
		if err != nil {
			return err
		}
		formatter.Writer = cmd.OutOrStdout()

		info := versionInfo{
			Version:   Version,
			Commit:    Commit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}
		if formatter.Format != output.FormatTable {
			return formatter.Print(info)
		}
		formatter.PrintTable(output.TableData{
			Headers: []string{"VERSION", "COMMIT", "BUILD DATE", "GO", "PLATFORM"},
			Rows:    [][]string{{info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform}},
		})
		return nil
	},
}

func init() {
	versionCmd.Flags().StringVarP(&versionFmt, "output", "o", "table", "output format: table, json, yaml")
}
