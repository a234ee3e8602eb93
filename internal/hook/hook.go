// Package hook adapts an ordered list of resolve/load handlers into one esbuild plugin.
package hook

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

// Loader names the esbuild loader used for a module's source.
type Loader string

const (
	LoaderJS   Loader = "js"
	LoaderJSX  Loader = "jsx"
	LoaderTS   Loader = "ts"
	LoaderTSX  Loader = "tsx"
	LoaderJSON Loader = "json"
	LoaderCSS  Loader = "css"
	LoaderText Loader = "text"
)

// LoaderForPath picks a loader from a path or URL extension, ignoring any query or fragment.
func LoaderForPath(p string) Loader {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch strings.ToLower(filepath.Ext(p)) {
	case ".ts", ".mts", ".cts":
		return LoaderTS
	case ".tsx":
		return LoaderTSX
	case ".jsx":
		return LoaderJSX
	case ".json":
		return LoaderJSON
	case ".css":
		return LoaderCSS
	case ".txt":
		return LoaderText
	default:
		return LoaderJS
	}
}

func (l Loader) esbuild() api.Loader {
	switch l {
	case LoaderJSX:
		return api.LoaderJSX
	case LoaderTS:
		return api.LoaderTS
	case LoaderTSX:
		return api.LoaderTSX
	case LoaderJSON:
		return api.LoaderJSON
	case LoaderCSS:
		return api.LoaderCSS
	case LoaderText:
		return api.LoaderText
	default:
		return api.LoaderJS
	}
}

// ResolveArgs describes one import the engine wants resolved.
type ResolveArgs struct {
	Specifier string
	// Importer is the id or file path of the importing module.
	Importer string
	// ImporterHook names the hook that owns Importer, empty for files on disk.
	ImporterHook string
}

// Source is the text a hook produces for a module id.
type Source struct {
	Contents string
	Loader   Loader
}

// Hook resolves and loads the module ids it claims.
// Resolve returns "" to defer to the next hook; Load returns nil to defer.
type Hook interface {
	Name() string
	Resolve(args ResolveArgs) (string, error)
	Load(ctx context.Context, id string) (*Source, error)
}

// Plugin chains hooks into one esbuild plugin. Each hook's ids live in a namespace
// named after the hook; the first hook that claims a specifier or id wins.
// resolveDir is where bare imports inside hook-owned modules are resolved from.
func Plugin(ctx context.Context, resolveDir string, hooks ...Hook) api.Plugin {
	byName := make(map[string]Hook, len(hooks))
	for _, h := range hooks {
		byName[h.Name()] = h
	}

	return api.Plugin{
		Name: "hooks",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `.*`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					ra := ResolveArgs{Specifier: args.Path, Importer: args.Importer}
					if _, ok := byName[args.Namespace]; ok {
						ra.ImporterHook = args.Namespace
					}
					for _, h := range hooks {
						id, err := h.Resolve(ra)
						if err != nil {
							return api.OnResolveResult{}, err
						}
						if id == "" {
							continue
						}
						log.Debug().Str("hook", h.Name()).Str("specifier", args.Path).Str("id", id).Msg("Resolved module")
						return api.OnResolveResult{Path: id, Namespace: h.Name()}, nil
					}
					// Empty result hands the specifier back to esbuild's own resolver.
					return api.OnResolveResult{}, nil
				})

			for _, h := range hooks {
				build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: h.Name()},
					func(args api.OnLoadArgs) (api.OnLoadResult, error) {
						src, err := h.Load(ctx, args.Path)
						if err != nil {
							return api.OnLoadResult{}, err
						}
						if src == nil {
							return api.OnLoadResult{}, nil
						}
						contents := src.Contents
						return api.OnLoadResult{
							Contents:   &contents,
							Loader:     src.Loader.esbuild(),
							ResolveDir: resolveDir,
						}, nil
					})
			}
		},
	}
}
