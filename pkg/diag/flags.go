// Package diag collects the diagnostic/debug feature flags shared by the three
// command line tools (Assembler, VM Translator, Jack Compiler). They used to be read
// ad hoc with os.Getenv at each call site; gathering them here means every tool agrees
// on the same names/defaults. Each parser constructor loads them with Load.
package diag

import "github.com/caarlos0/env/v6"

// Flags holds every debug/diagnostic toggle honored by the parsing layer.
type Flags struct {
	// ParsecDebug enables goparsec's own verbose trace logging while parsing.
	ParsecDebug bool `env:"PARSEC_DEBUG" envDefault:"false"`
	// ExportAST dumps a Graphviz rendering of the raw parser AST to DebugFolder.
	ExportAST bool `env:"EXPORT_AST" envDefault:"false"`
	// PrintAST pretty-prints the raw parser AST to stdout.
	PrintAST bool `env:"PRINT_AST" envDefault:"false"`
	// DebugFolder is where ExportAST (and any other debug artifact) gets written.
	DebugFolder string `env:"DEBUG_FOLDER" envDefault:"."`
}

// Load reads the process environment into a Flags value, applying defaults for
// anything unset. The only failure mode is a malformed boolean/number, which env
// reports with the offending variable name.
func Load() (Flags, error) {
	flags := Flags{}
	if err := env.Parse(&flags); err != nil {
		return Flags{}, err
	}
	return flags, nil
}
