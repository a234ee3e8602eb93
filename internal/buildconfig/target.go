package buildconfig

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/afero"
)

// ChunkFileNames is the naming pattern used for chunks written into a directory.
const ChunkFileNames = "[name].js"

// TargetKind says whether output goes to one file or a directory tree.
type TargetKind int

const (
	TargetFile TargetKind = iota
	TargetDirectory
)

func (k TargetKind) String() string {
	switch k {
	case TargetDirectory:
		return "directory"
	default:
		return "file"
	}
}

// OutputTarget is where the compile output is written.
type OutputTarget struct {
	Kind TargetKind
	Path string
}

// WriteOptions is the write half of a compile request.
type WriteOptions struct {
	Format  Format
	Exports Exports
	Name    string // global name for iife output

	// Exactly one of File and Dir is set once the target is resolved.
	File string
	Dir  string

	// ChunkFileNames is set only for a directory target with a chunk manifest.
	ChunkFileNames string
	Manifest       ChunkManifest
}

// ResolveOutputTarget probes path: an existing directory selects a directory target,
// anything else (including a missing path) a single file. It returns opts with the
// file or directory option filled in accordingly.
func ResolveOutputTarget(fs afero.Fs, path string, opts WriteOptions) (OutputTarget, WriteOptions, error) {
	if path == "" {
		return OutputTarget{}, opts, errors.New("output path is required")
	}

	info, err := fs.Stat(path)
	// A path below an existing regular file cannot be a directory either.
	if err != nil && !errors.Is(err, os.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR) {
		return OutputTarget{}, opts, fmt.Errorf("failed to inspect output path %s: %w", path, err)
	}

	if err == nil && info.IsDir() {
		opts.File = ""
		opts.Dir = path
		if opts.Manifest != nil {
			opts.ChunkFileNames = ChunkFileNames
		}
		return OutputTarget{Kind: TargetDirectory, Path: path}, opts, nil
	}

	if opts.Manifest != nil {
		return OutputTarget{}, opts, fmt.Errorf("manual chunks need an existing output directory, %s is not one", path)
	}
	opts.Dir = ""
	opts.File = path
	opts.ChunkFileNames = ""
	return OutputTarget{Kind: TargetFile, Path: path}, opts, nil
}
