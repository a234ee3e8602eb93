package bundler

import (
	"fmt"
	"io"
	"strings"

	"github.com/fluxbase-eu/urlpack/cli/util"
)

// DisplayAnalysis prints the bundle analysis in a formatted way
func DisplayAnalysis(w io.Writer, result *AnalysisResult, showDetails bool) {
	_, _ = fmt.Fprintf(w, "\n=== Bundle Analysis: %s ===\n", result.Name)
	_, _ = fmt.Fprintf(w, "Total output size: %s\n", util.FormatBytes(int64(result.TotalBytes)))

	if len(result.Outputs) > 1 {
		_, _ = fmt.Fprintln(w, "\nOutput files:")
		for _, out := range result.Outputs {
			_, _ = fmt.Fprintf(w, "  - %s (%s)\n", out.Path, util.FormatBytes(int64(out.Bytes)))
		}
	}

	if len(result.RemoteModules) > 0 {
		_, _ = fmt.Fprintln(w, "\nRemote modules (inlined):")
		for _, id := range result.RemoteModules {
			_, _ = fmt.Fprintf(w, "  - %s\n", id)
		}
	}

	if len(result.ExternalImports) > 0 {
		_, _ = fmt.Fprintln(w, "\nExternal imports (left to the runtime):")
		for _, imp := range result.ExternalImports {
			_, _ = fmt.Fprintf(w, "  - %s\n", imp)
		}
	}

	if len(result.InputFiles) > 0 {
		_, _ = fmt.Fprintln(w, "\nBundle breakdown:")

		maxFiles := 10
		if showDetails {
			maxFiles = len(result.InputFiles)
		}

		// Calculate max path length for alignment
		maxPathLen := 0
		for i, file := range result.InputFiles {
			if i >= maxFiles {
				break
			}
			displayPath := truncatePath(file.Path, 50)
			if len(displayPath) > maxPathLen {
				maxPathLen = len(displayPath)
			}
		}

		for i, file := range result.InputFiles {
			if i >= maxFiles {
				remaining := len(result.InputFiles) - maxFiles
				_, _ = fmt.Fprintf(w, "  ... and %d more files\n", remaining)
				break
			}

			displayPath := truncatePath(file.Path, 50)
			padding := strings.Repeat(" ", maxPathLen-len(displayPath))
			_, _ = fmt.Fprintf(w, "  %s%s  %10s  %5.1f%%\n",
				displayPath,
				padding,
				util.FormatBytes(int64(file.BytesInOutput)),
				file.Percentage,
			)
		}
	}

	if len(result.Warnings) > 0 {
		_, _ = fmt.Fprintln(w, "\nWarnings:")
		for _, warn := range result.Warnings {
			_, _ = fmt.Fprintf(w, "  - %s\n", warn)
		}
	}

	_, _ = fmt.Fprintln(w)
}

// truncatePath shortens a path if it's too long
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}
