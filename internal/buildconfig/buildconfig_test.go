package buildconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"cjs", FormatCommonJS, false},
		{"commonjs", FormatCommonJS, false},
		{"ESM", FormatESM, false},
		{"es", FormatESM, false},
		{"module", FormatESM, false},
		{"iife", FormatIIFE, false},
		{"umd", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseExports(t *testing.T) {
	got, err := ParseExports("")
	require.NoError(t, err)
	assert.Equal(t, ExportsAuto, got)

	got, err = ParseExports("Default")
	require.NoError(t, err)
	assert.Equal(t, ExportsDefault, got)

	_, err = ParseExports("everything")
	assert.Error(t, err)
}

func TestComposeExternals(t *testing.T) {
	t.Run("cjs without user list is the builtin baseline", func(t *testing.T) {
		got := ComposeExternals(FormatCommonJS, "")
		assert.Equal(t, BuiltinModules(), got)
		assert.Contains(t, got, "fs")
		assert.Contains(t, got, "path")
	})

	t.Run("esm gets only the user list", func(t *testing.T) {
		got := ComposeExternals(FormatESM, "left-pad,debug")
		assert.Equal(t, []string{"left-pad", "debug"}, got)
	})

	t.Run("cjs appends user names even when duplicated", func(t *testing.T) {
		got := ComposeExternals(FormatCommonJS, "fs,react")
		assert.Len(t, got, len(BuiltinModules())+2)
		assert.Equal(t, []string{"fs", "react"}, got[len(got)-2:])
	})

	t.Run("empty names are dropped", func(t *testing.T) {
		got := ComposeExternals(FormatIIFE, "a,, b ,")
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("nothing at all", func(t *testing.T) {
		assert.Empty(t, ComposeExternals(FormatESM, ""))
	})
}

func TestBuiltinModulesIsACopy(t *testing.T) {
	got := BuiltinModules()
	got[0] = "mutated"
	assert.NotEqual(t, "mutated", BuiltinModules()[0])
}

func TestParseChunkManifest(t *testing.T) {
	got, err := ParseChunkManifest("a=src/a.js,b=src/b.js")
	require.NoError(t, err)
	assert.Equal(t, ChunkManifest{
		"a": {"src/a.js"},
		"b": {"src/b.js"},
	}, got)
	assert.Equal(t, []string{"a", "b"}, got.Names())

	got, err = ParseChunkManifest("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseChunkManifest_Malformed(t *testing.T) {
	tests := []struct {
		name string
		flag string
	}{
		{"no equals", "a"},
		{"two equals", "a=b=c"},
		{"missing entry", "a="},
		{"missing name", "=src/a.js"},
		{"empty token", "a=src/a.js,"},
		{"duplicate name", "a=src/a.js,a=src/b.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChunkManifest(tt.flag)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, ErrMalformedChunkSpec))

			var cse *ChunkSpecError
			assert.True(t, errors.As(err, &cse))
		})
	}
}

func TestResolveOutputTarget(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/out/dist", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/out/existing.js", []byte("old"), 0o644))

	base := WriteOptions{Format: FormatCommonJS, Exports: ExportsAuto}

	t.Run("existing directory", func(t *testing.T) {
		target, opts, err := ResolveOutputTarget(fs, "/out/dist", base)
		require.NoError(t, err)
		assert.Equal(t, TargetDirectory, target.Kind)
		assert.Equal(t, "/out/dist", target.Path)
		assert.Equal(t, "/out/dist", opts.Dir)
		assert.Empty(t, opts.File)
		assert.Empty(t, opts.ChunkFileNames)
	})

	t.Run("directory with manifest sets chunk naming", func(t *testing.T) {
		withChunks := base
		withChunks.Manifest = ChunkManifest{"vendor": {"src/vendor.js"}}
		_, opts, err := ResolveOutputTarget(fs, "/out/dist", withChunks)
		require.NoError(t, err)
		assert.Equal(t, "[name].js", opts.ChunkFileNames)
	})

	t.Run("missing path is a file", func(t *testing.T) {
		target, opts, err := ResolveOutputTarget(fs, "/out/new.js", base)
		require.NoError(t, err)
		assert.Equal(t, TargetFile, target.Kind)
		assert.Equal(t, "/out/new.js", opts.File)
		assert.Empty(t, opts.Dir)
	})

	t.Run("existing file is a file", func(t *testing.T) {
		target, _, err := ResolveOutputTarget(fs, "/out/existing.js", base)
		require.NoError(t, err)
		assert.Equal(t, TargetFile, target.Kind)
		assert.Equal(t, "file", target.Kind.String())
	})

	t.Run("manifest with file target fails", func(t *testing.T) {
		withChunks := base
		withChunks.Manifest = ChunkManifest{"vendor": {"src/vendor.js"}}
		_, _, err := ResolveOutputTarget(fs, "/out/new.js", withChunks)
		assert.Error(t, err)
	})

	t.Run("empty path fails", func(t *testing.T) {
		_, _, err := ResolveOutputTarget(fs, "", base)
		assert.Error(t, err)
	})
}

func TestResolveOutputTarget_BelowRegularFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "out.js")
	require.NoError(t, os.WriteFile(file, []byte("old"), 0o644))

	path := filepath.Join(file, "x.js")
	target, opts, err := ResolveOutputTarget(afero.NewOsFs(), path, WriteOptions{Format: FormatESM})
	require.NoError(t, err)
	assert.Equal(t, TargetFile, target.Kind)
	assert.Equal(t, path, opts.File)
}

func TestCheckExports(t *testing.T) {
	tests := []struct {
		format  Format
		exports Exports
		name    string
		wantErr bool
	}{
		{FormatCommonJS, ExportsAuto, "", false},
		{FormatCommonJS, ExportsNamed, "", false},
		{FormatCommonJS, ExportsDefault, "", false},
		{FormatCommonJS, ExportsNone, "", false},
		{FormatESM, "", "", false},
		{FormatESM, ExportsAuto, "", false},
		{FormatESM, ExportsNamed, "", false},
		{FormatESM, ExportsDefault, "", true},
		{FormatESM, ExportsNone, "", true},
		{FormatIIFE, ExportsAuto, "", false},
		{FormatIIFE, ExportsNone, "", false},
		{FormatIIFE, ExportsNamed, "", true},
		{FormatIIFE, ExportsDefault, "", true},
		{FormatIIFE, ExportsDefault, "Lib", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.format)+"/"+string(tt.exports)+"/"+tt.name, func(t *testing.T) {
			err := CheckExports(tt.format, tt.exports, tt.name)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
