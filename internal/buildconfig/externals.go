package buildconfig

import "strings"

// ComposeExternals returns the module names the engine must leave unbundled.
// CommonJS output starts from the platform built-ins; every format then gets the
// comma separated userList appended as-is. Duplicates are kept, the engine only
// tests membership.
func ComposeExternals(format Format, userList string) []string {
	var externals []string
	if format == FormatCommonJS {
		externals = append(externals, nodeBuiltinModules...)
	}
	for _, name := range strings.Split(userList, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		externals = append(externals, name)
	}
	return externals
}
