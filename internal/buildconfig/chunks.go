package buildconfig

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformedChunkSpec is wrapped by every ChunkSpecError.
var ErrMalformedChunkSpec = errors.New("malformed chunk spec")

// ChunkSpecError reports the token of a chunk flag that could not be parsed.
type ChunkSpecError struct {
	Token  string
	Reason string
}

func (e *ChunkSpecError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrMalformedChunkSpec, e.Token, e.Reason)
}

func (e *ChunkSpecError) Unwrap() error { return ErrMalformedChunkSpec }

// ChunkManifest maps a chunk name to its entry points. The flag grammar allows
// exactly one entry per chunk.
type ChunkManifest map[string][]string

// Names returns the chunk names in sorted order.
func (m ChunkManifest) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseChunkManifest parses "name=entry,name=entry". An empty flag yields a nil
// manifest, meaning manual chunking is off.
func ParseChunkManifest(flag string) (ChunkManifest, error) {
	if strings.TrimSpace(flag) == "" {
		return nil, nil
	}

	manifest := make(ChunkManifest)
	for _, token := range strings.Split(flag, ",") {
		token = strings.TrimSpace(token)
		parts := strings.Split(token, "=")
		if len(parts) != 2 {
			return nil, &ChunkSpecError{Token: token, Reason: "expected name=entry"}
		}
		name := strings.TrimSpace(parts[0])
		entry := strings.TrimSpace(parts[1])
		if name == "" {
			return nil, &ChunkSpecError{Token: token, Reason: "missing chunk name"}
		}
		if entry == "" {
			return nil, &ChunkSpecError{Token: token, Reason: "missing entry"}
		}
		if _, dup := manifest[name]; dup {
			return nil, &ChunkSpecError{Token: token, Reason: "chunk defined more than once"}
		}
		manifest[name] = []string{entry}
	}
	return manifest, nil
}
