// Package config implements the compiler-wide option set of spec §6: the
// knobs that control how a compilation finds its inputs and which output
// style and source-map behavior the printer uses. The host hooks (importers
// and native functions) are not part of Options; an embedder passes them
// to compile.Compile as separate parameters.
//
// Grounded on esbuild's internal/config: a single plain Options struct
// threaded through every stage rather than one flag set per package,
// with file-based configuration (here, riftss.toml via BurntSushi/toml)
// layered underneath explicit overrides the same way esbuild layers
// tsconfig.json under CLI flags.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/riftss/riftss/internal/printer"
)

// Options is the full set of knobs spec §6 names for one compilation.
type Options struct {
	// EntryFile is the root stylesheet to compile; required.
	EntryFile string

	// LoadPaths are additional directories the resolver searches (spec
	// §4.E), after the importing file's own directory.
	LoadPaths []string

	// IndentedSyntax is loaded from riftss.toml and the --indented-syntax
	// flag, but no compilation stage reads it: every input is parsed as the
	// braces-and-semicolons syntax, and indented input is not converted.
	IndentedSyntax bool

	Style          printer.Style
	Precision      int
	SourceComments bool

	SourceMap           bool
	SourceMapEmbed      bool // loaded but not read by any stage; no data: URL is produced
	SourceMapContents   bool // inline source text into the map
	OmitSourceMapURL    bool // cmd/riftss skips writing the .map file; no sourceMappingURL comment is emitted either way

	// OutFile, when set, is where the compiled CSS is written; an empty
	// value means "return the result to the caller without writing".
	OutFile string
}

// DefaultOptions returns the baseline a loaded riftss.toml or CLI flags
// are layered on top of.
func DefaultOptions() Options {
	return Options{
		Style:     printer.Nested,
		Precision: 5,
	}
}

// fileOptions mirrors the subset of Options a riftss.toml may set; kept as
// its own type (rather than decoding straight into Options) since TOML
// field names are lowercase/snake and a couple of fields (Style) need a
// string-to-enum translation the struct tag can't express.
type fileOptions struct {
	LoadPaths      []string `toml:"load_paths"`
	IndentedSyntax bool     `toml:"indented_syntax"`
	Style          string   `toml:"style"`
	Precision      *int     `toml:"precision"`
	SourceComments bool     `toml:"source_comments"`
	SourceMap      bool     `toml:"source_map"`
	SourceMapEmbed bool     `toml:"source_map_embed"`
	OutFile        string   `toml:"out_file"`
}

// Load reads a riftss.toml at path (expanding a leading "~" the way a
// shell would) and applies it on top of base, returning the merged
// Options. A missing file is not an error: it just returns base
// unchanged, since a riftss.toml is optional.
func Load(path string, base Options) (Options, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return base, err
	}
	if _, statErr := os.Stat(expanded); os.IsNotExist(statErr) {
		return base, nil
	}

	var fo fileOptions
	if _, err := toml.DecodeFile(expanded, &fo); err != nil {
		return base, err
	}

	out := base
	if len(fo.LoadPaths) > 0 {
		out.LoadPaths = fo.LoadPaths
	}
	out.IndentedSyntax = out.IndentedSyntax || fo.IndentedSyntax
	if fo.Style != "" {
		out.Style = styleFromString(fo.Style)
	}
	if fo.Precision != nil {
		out.Precision = *fo.Precision
	}
	out.SourceComments = out.SourceComments || fo.SourceComments
	out.SourceMap = out.SourceMap || fo.SourceMap
	out.SourceMapEmbed = out.SourceMapEmbed || fo.SourceMapEmbed
	if fo.OutFile != "" {
		out.OutFile = fo.OutFile
	}
	return out, nil
}

func styleFromString(s string) printer.Style {
	switch s {
	case "expanded":
		return printer.Expanded
	case "compact":
		return printer.Compact
	case "compressed":
		return printer.Compressed
	default:
		return printer.Nested
	}
}
