// Command riftss is the thin CLI driver spec §1 deliberately places
// outside the compiler core: it turns command-line flags and an optional
// riftss.toml project file into a config.Options, expands glob input
// patterns, and calls internal/compile.Compile once per input file.
//
// Grounded on sammcj-ingest's cobra root command for the flag/subcommand
// shape, scaled down from its document-ingestion flag set to this
// compiler's much smaller one (style, precision, search paths,
// source-map options, log file).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/riftss/riftss/internal/config"
)

var rootFlags struct {
	loadPaths         []string
	style             string
	precision         int
	sourceComments    bool
	sourceMap         bool
	sourceMapEmbed    bool
	sourceMapContents bool
	omitSourceMapURL  bool
	indentedSyntax    bool
	configFile        string
	outFile           string
	verbose           bool
	logFile           string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "riftss",
		Short:         "Compile riftss stylesheets to CSS",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringSliceVarP(&rootFlags.loadPaths, "load-path", "I", nil, "additional import search path (repeatable)")
	root.PersistentFlags().StringVar(&rootFlags.style, "style", "", "output style: nested, expanded, compact, compressed (default nested)")
	root.PersistentFlags().IntVar(&rootFlags.precision, "precision", 0, "decimal places kept when formatting numbers (default 5)")
	root.PersistentFlags().BoolVar(&rootFlags.sourceComments, "source-comments", false, "annotate each rule with its source line")
	root.PersistentFlags().BoolVar(&rootFlags.sourceMap, "source-map", false, "generate a source map")
	root.PersistentFlags().BoolVar(&rootFlags.sourceMapEmbed, "source-map-embed", false, "accepted but has no effect; no data: URL is produced")
	root.PersistentFlags().BoolVar(&rootFlags.sourceMapContents, "source-map-contents", false, "inline source text into the generated map")
	root.PersistentFlags().BoolVar(&rootFlags.omitSourceMapURL, "omit-source-map-url", false, "generate the map but do not write the .map file")
	root.PersistentFlags().BoolVar(&rootFlags.indentedSyntax, "indented-syntax", false, "accepted but has no effect; input is always parsed as the braced syntax")
	root.PersistentFlags().StringVar(&rootFlags.configFile, "config", "riftss.toml", "project config file (~ expanded)")
	root.PersistentFlags().StringVarP(&rootFlags.outFile, "out", "o", "", "output file (single input only); defaults to stdout")
	root.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "verbose process logging")
	root.PersistentFlags().StringVar(&rootFlags.logFile, "log-file", "", "rotate process logs through this file instead of stderr")

	root.AddCommand(newCompileCmd(), newWatchCmd(), newVersionCmd())
	return root
}

// resolveOptions merges CLI flags over an optional riftss.toml over the
// package baseline, matching the layering SPEC_FULL's ambient-stack
// section describes for internal/config.
func resolveOptions(entryFile string) (config.Options, error) {
	base := config.DefaultOptions()
	opts, err := config.Load(rootFlags.configFile, base)
	if err != nil {
		return opts, fmt.Errorf("loading %s: %w", rootFlags.configFile, err)
	}

	opts.EntryFile = entryFile
	if len(rootFlags.loadPaths) > 0 {
		opts.LoadPaths = rootFlags.loadPaths
	}
	if rootFlags.style != "" {
		opts.Style = styleFlagToStyle(rootFlags.style)
	}
	if rootFlags.precision != 0 {
		opts.Precision = rootFlags.precision
	}
	opts.IndentedSyntax = opts.IndentedSyntax || rootFlags.indentedSyntax
	opts.SourceComments = opts.SourceComments || rootFlags.sourceComments
	opts.SourceMap = opts.SourceMap || rootFlags.sourceMap
	opts.SourceMapEmbed = opts.SourceMapEmbed || rootFlags.sourceMapEmbed
	opts.SourceMapContents = opts.SourceMapContents || rootFlags.sourceMapContents
	opts.OmitSourceMapURL = opts.OmitSourceMapURL || rootFlags.omitSourceMapURL
	if rootFlags.outFile != "" {
		opts.OutFile = rootFlags.outFile
	}
	return opts, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
