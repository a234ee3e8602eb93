package buildconfig

// nodeBuiltinModules is the Node.js core module list, top-level names only
// (no "node:" prefix, no subpaths, no private "_" modules).
var nodeBuiltinModules = []string{
	"assert",
	"async_hooks",
	"buffer",
	"child_process",
	"cluster",
	"console",
	"constants",
	"crypto",
	"dgram",
	"diagnostics_channel",
	"dns",
	"domain",
	"events",
	"fs",
	"http",
	"http2",
	"https",
	"inspector",
	"module",
	"net",
	"os",
	"path",
	"perf_hooks",
	"process",
	"punycode",
	"querystring",
	"readline",
	"repl",
	"stream",
	"string_decoder",
	"sys",
	"timers",
	"tls",
	"trace_events",
	"tty",
	"url",
	"util",
	"v8",
	"vm",
	"wasi",
	"worker_threads",
	"zlib",
}

// BuiltinModules returns a copy of the platform built-in module names.
func BuiltinModules() []string {
	out := make([]string, len(nodeBuiltinModules))
	copy(out, nodeBuiltinModules)
	return out
}
