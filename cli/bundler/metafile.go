package bundler

// Metafile is the subset of the esbuild metafile JSON the analyzer reads.
type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

// MetafileInput is one module that took part in the build.
type MetafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []MetafileImport `json:"imports"`
	Format  string           `json:"format,omitempty"` // "cjs" or "esm"
}

// MetafileImport is an import edge.
type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

// MetafileOutput is one written file.
type MetafileOutput struct {
	Bytes      int                     `json:"bytes"`
	Inputs     map[string]InputContrib `json:"inputs"`
	Imports    []MetafileImport        `json:"imports"`
	Exports    []string                `json:"exports"`
	EntryPoint string                  `json:"entryPoint,omitempty"`
}

// InputContrib is how much of an input ended up in an output.
type InputContrib struct {
	BytesInOutput int `json:"bytesInOutput"`
}

// AnalysisResult summarizes one compile.
type AnalysisResult struct {
	Name            string
	TotalBytes      int
	Outputs         []OutputAnalysis
	InputFiles      []FileAnalysis
	ExternalImports []string
	RemoteModules   []string
	Warnings        []string
}

// OutputAnalysis is the size of one output file.
type OutputAnalysis struct {
	Path  string
	Bytes int
}

// FileAnalysis is one input's share of the output.
type FileAnalysis struct {
	Path          string
	Bytes         int
	BytesInOutput int
	Percentage    float64
	ImportCount   int
	Remote        bool
}
