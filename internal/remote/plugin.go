package remote

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fluxbase-eu/urlpack/internal/hook"
)

// Namespace is the name the plugin registers its ids under.
const Namespace = "remote"

// Plugin resolves http(s) specifiers to synthetic ids and loads them over the network.
// Create one per compile.
type Plugin struct {
	registry *Registry
	fetcher  *Fetcher
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithFetcher replaces the default fetcher.
func WithFetcher(f *Fetcher) Option {
	return func(p *Plugin) {
		p.fetcher = f
	}
}

// New creates a plugin with its own registry.
func New(opts ...Option) *Plugin {
	p := &Plugin{
		registry: NewRegistry(),
		fetcher:  NewFetcher(FetchOptions{AllowHTTP: true}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements hook.Hook.
func (p *Plugin) Name() string { return Namespace }

// Registry exposes the records resolved so far.
func (p *Plugin) Registry() *Registry { return p.registry }

// Resolve claims absolute http(s) specifiers, and relative specifiers imported
// from a module this plugin owns. Anything else is deferred with "".
func (p *Plugin) Resolve(args hook.ResolveArgs) (string, error) {
	specifier := args.Specifier

	if args.ImporterHook == Namespace && isRelative(specifier) {
		abs, err := p.resolveRelative(specifier, args.Importer)
		if err != nil {
			return "", err
		}
		specifier = abs
	}

	remote, secure := IsRemote(specifier)
	if !remote {
		return "", nil
	}

	id := SyntheticID(specifier)
	if id == "" {
		return "", fmt.Errorf("cannot derive a module id from %s", specifier)
	}
	if err := p.registry.Register(id, Record{URL: specifier, Secure: secure}); err != nil {
		return "", err
	}
	return id, nil
}

// Load fetches the body of a registered id. Unknown ids are deferred with nil.
func (p *Plugin) Load(ctx context.Context, id string) (*hook.Source, error) {
	rec, ok := p.registry.Lookup(id)
	if !ok {
		return nil, nil
	}

	log.Debug().Str("id", id).Str("url", rec.URL).Bool("secure", rec.Secure).Msg("Loading remote module")

	body, err := p.fetcher.Fetch(ctx, rec)
	if err != nil {
		return nil, err
	}
	return &hook.Source{Contents: body, Loader: hook.LoaderForPath(rec.URL)}, nil
}

func (p *Plugin) resolveRelative(specifier, importer string) (string, error) {
	rec, ok := p.registry.Lookup(importer)
	if !ok {
		return "", fmt.Errorf("import %q from unknown remote module %q", specifier, importer)
	}
	base, err := url.Parse(rec.URL)
	if err != nil {
		return "", fmt.Errorf("invalid remote module url %s: %w", rec.URL, err)
	}
	ref, err := url.Parse(specifier)
	if err != nil {
		return "", fmt.Errorf("invalid import %q in %s: %w", specifier, rec.URL, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") ||
		strings.HasPrefix(specifier, "../") ||
		strings.HasPrefix(specifier, "/")
}
