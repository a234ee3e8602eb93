// Package bundler turns a derived compile request into esbuild build options,
// runs the build, and writes the resulting files.
package bundler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"

	"github.com/fluxbase-eu/urlpack/internal/buildconfig"
	"github.com/fluxbase-eu/urlpack/internal/hook"
)

// Request is everything one compile needs.
type Request struct {
	// Entry is the entry module path, relative to WorkDir or absolute.
	Entry string
	// WorkDir is the absolute directory relative paths resolve from.
	WorkDir   string
	Externals []string
	// Write must already have its target resolved (File or Dir set).
	Write buildconfig.WriteOptions
	// Hooks run before esbuild's own resolver, in order.
	Hooks []hook.Hook
}

// OutputFile is one file produced by a compile.
type OutputFile struct {
	Path     string
	Contents []byte
}

// Result is the outcome of a successful compile.
type Result struct {
	Outputs  []OutputFile
	Metafile string
	Warnings []string
	Duration time.Duration
}

// BuildError collects the messages of a failed build.
type BuildError struct {
	Messages []string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("compile failed: %s", strings.Join(e.Messages, "; "))
}

// Compile runs the bundling engine. Nothing is written to disk.
func Compile(ctx context.Context, req Request) (*Result, error) {
	opts, err := buildOptions(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("entry", req.Entry).
		Str("format", string(req.Write.Format)).
		Int("externals", len(req.Externals)).
		Int("chunks", len(req.Write.Manifest)).
		Msg("Starting compile")

	start := time.Now()
	built := api.Build(opts)
	if len(built.Errors) > 0 {
		return nil, &BuildError{Messages: formatMessages(built.Errors)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Metafile: built.Metafile,
		Warnings: formatMessages(built.Warnings),
		Duration: time.Since(start),
	}
	for _, f := range built.OutputFiles {
		result.Outputs = append(result.Outputs, OutputFile{Path: f.Path, Contents: f.Contents})
	}
	return result, nil
}

func buildOptions(ctx context.Context, req Request) (api.BuildOptions, error) {
	if req.Entry == "" {
		return api.BuildOptions{}, fmt.Errorf("entry module is required")
	}
	if !filepath.IsAbs(req.WorkDir) {
		return api.BuildOptions{}, fmt.Errorf("work dir must be absolute, got %q", req.WorkDir)
	}
	w := req.Write
	if (w.File == "") == (w.Dir == "") {
		return api.BuildOptions{}, fmt.Errorf("exactly one of output file or output directory must be set")
	}

	opts := api.BuildOptions{
		EntryPointsAdvanced: []api.EntryPoint{{InputPath: req.Entry}},
		Bundle:              true,
		Write:               false,
		Metafile:            true,
		LogLevel:            api.LogLevelSilent,
		AbsWorkingDir:       req.WorkDir,
		External:            req.Externals,
		Plugins:             []api.Plugin{hook.Plugin(ctx, req.WorkDir, req.Hooks...)},
	}

	switch w.Format {
	case buildconfig.FormatCommonJS:
		opts.Format = api.FormatCommonJS
		opts.Platform = api.PlatformNode
	case buildconfig.FormatESM:
		opts.Format = api.FormatESModule
		opts.Platform = api.PlatformBrowser
	case buildconfig.FormatIIFE:
		opts.Format = api.FormatIIFE
		opts.Platform = api.PlatformBrowser
		if w.Exports != buildconfig.ExportsNone {
			opts.GlobalName = w.Name
		}
	default:
		return api.BuildOptions{}, fmt.Errorf("unsupported output format %q", w.Format)
	}
	if err := buildconfig.CheckExports(w.Format, w.Exports, w.Name); err != nil {
		return api.BuildOptions{}, err
	}

	if footer := exportsFooter(w); footer != "" {
		opts.Footer = map[string]string{"js": footer}
	}

	if w.File != "" {
		if len(w.Manifest) > 0 {
			return api.BuildOptions{}, fmt.Errorf("manual chunks cannot be written to a single file")
		}
		opts.Outfile = w.File
		return opts, nil
	}

	opts.Outdir = w.Dir
	opts.EntryNames = "[name]"
	for _, name := range w.Manifest.Names() {
		opts.EntryPointsAdvanced = append(opts.EntryPointsAdvanced, api.EntryPoint{
			InputPath:  w.Manifest[name][0],
			OutputPath: name,
		})
	}
	if w.ChunkFileNames != "" {
		// Manual chunks are named entry points; esbuild patterns carry no extension.
		// Shared code split out of them keeps a hashed name so it cannot collide.
		opts.EntryNames = strings.TrimSuffix(w.ChunkFileNames, ".js")
		opts.ChunkNames = "chunk-[hash]"
		opts.Splitting = w.Format == buildconfig.FormatESM
	}
	return opts, nil
}

// exportsFooter shapes what the bundle exposes for the chosen export mode.
// named keeps esbuild's exports object as is.
func exportsFooter(w buildconfig.WriteOptions) string {
	var target string
	switch w.Format {
	case buildconfig.FormatCommonJS:
		target = "module.exports"
	case buildconfig.FormatIIFE:
		if w.Name == "" {
			return ""
		}
		target = w.Name
	default:
		return ""
	}

	switch w.Exports {
	case buildconfig.ExportsDefault:
		return fmt.Sprintf("%s = %s.default;", target, target)
	case buildconfig.ExportsNone:
		if w.Format == buildconfig.FormatCommonJS {
			return "module.exports = {};"
		}
		return ""
	case buildconfig.ExportsNamed:
		return ""
	default:
		return soleDefaultFooter(target)
	}
}

// soleDefaultFooter replaces target by its default export when that is the only export.
func soleDefaultFooter(target string) string {
	return fmt.Sprintf(
		`if (%[1]s !== null && typeof %[1]s === "object" && Object.keys(%[1]s).length === 1 && "default" in %[1]s) %[1]s = %[1]s.default;`,
		target,
	)
}

func formatMessages(msgs []api.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		text := m.Text
		if m.Location != nil && m.Location.File != "" {
			text = fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, text)
		}
		out = append(out, text)
	}
	return out
}
