package bundler

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fluxbase-eu/urlpack/internal/remote"
)

// Analyzer reads the metafile of a compile and reports where the bytes came from.
type Analyzer struct {
	workDir string
}

// NewAnalyzer creates an analyzer; input paths are shown relative to workDir.
func NewAnalyzer(workDir string) *Analyzer {
	return &Analyzer{workDir: workDir}
}

// Analyze parses result's metafile.
func (a *Analyzer) Analyze(name string, result *Result) (*AnalysisResult, error) {
	var meta Metafile
	if err := json.Unmarshal([]byte(result.Metafile), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}

	analysis := a.analyzeMetafile(&meta, name)
	analysis.Warnings = append(analysis.Warnings, result.Warnings...)
	return analysis, nil
}

func (a *Analyzer) analyzeMetafile(meta *Metafile, name string) *AnalysisResult {
	result := &AnalysisResult{Name: name}

	contrib := make(map[string]int)
	externals := make(map[string]bool)

	for outPath, output := range meta.Outputs {
		if strings.HasSuffix(outPath, ".map") {
			continue
		}
		result.TotalBytes += output.Bytes
		result.Outputs = append(result.Outputs, OutputAnalysis{
			Path:  a.displayPath(outPath),
			Bytes: output.Bytes,
		})

		for _, imp := range output.Imports {
			if imp.External {
				externals[imp.Path] = true
			}
		}
		for inputPath, c := range output.Inputs {
			contrib[inputPath] += c.BytesInOutput
		}
	}

	for inputPath, bytesInOutput := range contrib {
		inputInfo, ok := meta.Inputs[inputPath]
		if !ok {
			continue
		}

		percentage := 0.0
		if result.TotalBytes > 0 {
			percentage = float64(bytesInOutput) / float64(result.TotalBytes) * 100
		}

		isRemote := strings.HasPrefix(inputPath, remote.Namespace+":")
		if isRemote {
			result.RemoteModules = append(result.RemoteModules, strings.TrimPrefix(inputPath, remote.Namespace+":"))
		}

		result.InputFiles = append(result.InputFiles, FileAnalysis{
			Path:          a.displayPath(inputPath),
			Bytes:         inputInfo.Bytes,
			BytesInOutput: bytesInOutput,
			Percentage:    percentage,
			ImportCount:   len(inputInfo.Imports),
			Remote:        isRemote,
		})
	}

	for ext := range externals {
		result.ExternalImports = append(result.ExternalImports, ext)
	}

	// Largest contribution first
	sort.Slice(result.InputFiles, func(i, j int) bool {
		if result.InputFiles[i].BytesInOutput != result.InputFiles[j].BytesInOutput {
			return result.InputFiles[i].BytesInOutput > result.InputFiles[j].BytesInOutput
		}
		return result.InputFiles[i].Path < result.InputFiles[j].Path
	})
	sort.Slice(result.Outputs, func(i, j int) bool {
		return result.Outputs[i].Path < result.Outputs[j].Path
	})
	sort.Strings(result.ExternalImports)
	sort.Strings(result.RemoteModules)

	return result
}

// displayPath makes metafile paths (relative to the work dir) readable.
func (a *Analyzer) displayPath(p string) string {
	if filepath.IsAbs(p) && a.workDir != "" {
		if rel, err := filepath.Rel(a.workDir, p); err == nil {
			return rel
		}
	}
	return p
}
