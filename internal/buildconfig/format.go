// Package buildconfig derives the pieces of a compile request from CLI flag values:
// the externals set, the manual chunk manifest, and the output target.
package buildconfig

import (
	"fmt"
	"strings"
)

// Format is an output module format.
type Format string

const (
	FormatCommonJS Format = "cjs"
	FormatESM      Format = "esm"
	FormatIIFE     Format = "iife"
)

// ParseFormat normalizes a format flag value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cjs", "commonjs":
		return FormatCommonJS, nil
	case "esm", "es", "module":
		return FormatESM, nil
	case "iife":
		return FormatIIFE, nil
	case "":
		return "", fmt.Errorf("output format is required (valid: cjs, esm, iife)")
	default:
		return "", fmt.Errorf("invalid output format: %s (valid: cjs, esm, iife)", s)
	}
}

// Exports is how the entry module's exports are exposed.
type Exports string

const (
	ExportsAuto    Exports = "auto"
	ExportsNamed   Exports = "named"
	ExportsDefault Exports = "default"
	ExportsNone    Exports = "none"
)

// ParseExports normalizes an export mode flag value. Empty means auto.
func ParseExports(s string) (Exports, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ExportsAuto, nil
	case "named":
		return ExportsNamed, nil
	case "default":
		return ExportsDefault, nil
	case "none":
		return ExportsNone, nil
	default:
		return "", fmt.Errorf("invalid export mode: %s (valid: auto, named, default, none)", s)
	}
}

// CheckExports rejects an export mode that format cannot express. Empty
// exports is treated as auto.
func CheckExports(format Format, exports Exports, name string) error {
	switch format {
	case FormatESM:
		// ES modules always expose their exports as written.
		if exports == ExportsDefault || exports == ExportsNone {
			return fmt.Errorf("export mode %s is not supported for esm output (valid: auto, named)", exports)
		}
	case FormatIIFE:
		if name == "" && (exports == ExportsNamed || exports == ExportsDefault) {
			return fmt.Errorf("export mode %s for iife output needs a global name", exports)
		}
	}
	return nil
}
