package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fluxbase-eu/urlpack/cli/bundler"
	cliconfig "github.com/fluxbase-eu/urlpack/cli/config"
	"github.com/fluxbase-eu/urlpack/cli/output"
	"github.com/fluxbase-eu/urlpack/cli/util"
	"github.com/fluxbase-eu/urlpack/internal/buildconfig"
	"github.com/fluxbase-eu/urlpack/internal/hook"
	"github.com/fluxbase-eu/urlpack/internal/remote"
)

var compileCmd = &cobra.Command{
	Use:   "compile <input>",
	Short: "Bundle an entry module",
	Long: `Bundle an entry module and everything it imports.

Imports of absolute http:// or https:// URLs are fetched and inlined.
If --out names an existing directory the output is written into it,
otherwise --out is the output file.

Examples:
  urlpack compile src/index.js --format cjs --out dist/main.js
  urlpack compile src/index.js -f esm -o dist --chunks vendor=src/vendor.js
  urlpack compile src/index.js -f iife -n MyLib --exports default
  urlpack compile src/index.js -f cjs -e left-pad,debug --analyze`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	f := compileCmd.Flags()
	f.StringP("format", "f", "", "output format: cjs, esm, iife (required)")
	f.StringP("out", "o", "", "output file, or an existing directory (default is ./main.js)")
	f.StringP("external", "e", "", "comma separated modules to leave unbundled")
	f.StringP("chunks", "c", "", "manual chunks as name=entry,name=entry (needs a directory --out)")
	f.StringP("name", "n", "", "global variable name for iife output")
	f.String("exports", "", "export mode: auto, named, default, none")
	f.Bool("analyze", false, "print a bundle size breakdown")
	f.Bool("verbose-analysis", false, "list every input in the size breakdown (implies --analyze)")
	f.String("summary", "", "summary format: table, json, yaml, none")
	f.Duration("timeout", 0, "timeout for each remote module fetch (default 30s)")
	f.Bool("allow-http", true, "allow remote modules served over plain http")
	f.Int64("max-bytes", 0, "largest accepted remote module body in bytes (0 is unlimited)")
	f.Float64("rate-limit", 0, "remote fetches per second (0 is unlimited)")
	f.Int64("max-parallel", 0, "concurrent remote fetches (0 is unlimited)")

	bind := map[string]string{
		"compile.format":           "format",
		"compile.out":              "out",
		"compile.external":         "external",
		"compile.chunks":           "chunks",
		"compile.name":             "name",
		"compile.exports":          "exports",
		"compile.analyze":          "analyze",
		"compile.verbose_analysis": "verbose-analysis",
		"compile.summary":          "summary",
		"fetch.timeout":            "timeout",
		"fetch.allow_http":         "allow-http",
		"fetch.max_bytes":          "max-bytes",
		"fetch.rate_limit":         "rate-limit",
		"fetch.max_parallel":       "max-parallel",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}
	registerCompileCompletions(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := cliconfig.FromViper(viper.GetViper())
	if err != nil {
		return err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	formatter, err := newFormatter(cfg.Compile.Summary)
	if err != nil {
		return err
	}
	formatter.Writer = cmd.OutOrStdout()
	formatter.ErrWriter = cmd.ErrOrStderr()

	return compile(cmd.Context(), compileJob{
		Entry:     args[0],
		WorkDir:   workDir,
		Config:    cfg,
		Fs:        afero.NewOsFs(),
		Formatter: formatter,
		Out:       cmd.OutOrStdout(),
	})
}

type compileJob struct {
	Entry     string
	WorkDir   string
	Config    *cliconfig.Config
	Fs        afero.Fs
	Formatter *output.Formatter
	Out       io.Writer
}

func compile(ctx context.Context, job compileJob) error {
	c := job.Config.Compile

	format, err := buildconfig.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	exports, err := buildconfig.ParseExports(c.Exports)
	if err != nil {
		return err
	}
	manifest, err := buildconfig.ParseChunkManifest(c.Chunks)
	if err != nil {
		return err
	}
	externals := buildconfig.ComposeExternals(format, c.External)

	outPath := c.Out
	if outPath == "" {
		outPath = "main.js"
	}
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(job.WorkDir, outPath)
	}

	target, writeOpts, err := buildconfig.ResolveOutputTarget(job.Fs, outPath, buildconfig.WriteOptions{
		Format:   format,
		Exports:  exports,
		Name:     c.Name,
		Manifest: manifest,
	})
	if err != nil {
		return err
	}

	plugin := remote.New(remote.WithFetcher(remote.NewFetcher(job.Config.Fetch.Options())))

	result, err := bundler.Compile(ctx, bundler.Request{
		Entry:     job.Entry,
		WorkDir:   job.WorkDir,
		Externals: externals,
		Write:     writeOpts,
		Hooks:     []hook.Hook{plugin},
	})
	if err != nil {
		return err
	}

	if err := bundler.Write(job.Fs, result.Outputs); err != nil {
		return err
	}

	log.Info().
		Str("entry", job.Entry).
		Str("target", target.Kind.String()).
		Int("files", len(result.Outputs)).
		Int("remote_modules", plugin.Registry().Len()).
		Dur("elapsed", result.Duration).
		Msg("Compile finished")
	log.Debug().Strs("remote_modules", plugin.Registry().IDs()).Msg("Inlined remote modules")

	for _, w := range result.Warnings {
		job.Formatter.PrintWarning(w)
	}

	rows := make([][]string, 0, len(result.Outputs))
	for _, out := range result.Outputs {
		rows = append(rows, []string{
			displayPath(job.WorkDir, out.Path),
			util.FormatBytes(int64(len(out.Contents))),
		})
	}
	job.Formatter.PrintTable(output.TableData{
		Headers: []string{"FILE", "SIZE"},
		Rows:    rows,
	})

	if c.Analyze || c.VerboseAnalysis {
		analysis, err := bundler.NewAnalyzer(job.WorkDir).Analyze(strings.TrimSuffix(filepath.Base(job.Entry), filepath.Ext(job.Entry)), result)
		if err != nil {
			return err
		}
		bundler.DisplayAnalysis(job.Out, analysis, c.VerboseAnalysis)
	}
	return nil
}

func displayPath(workDir, p string) string {
	if rel, err := filepath.Rel(workDir, p); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return p
}
