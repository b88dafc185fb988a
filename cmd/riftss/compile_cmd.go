package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/riftss/riftss/internal/compile"
)

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <file|glob>...",
		Short: "Compile one or more riftss stylesheets to CSS",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCompile,
	}
}

func runCompile(cmd *cobra.Command, args []string) error {
	log, err := newProcessLogger(rootFlags.verbose, rootFlags.logFile)
	if err != nil {
		return err
	}
	defer log.Sync()

	files, err := expandInputs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no input files matched %v", args)
	}

	var bar *progressbar.ProgressBar
	if len(files) > 1 {
		bar = progressbar.Default(int64(len(files)), "compiling")
	}

	failed := false
	for _, f := range files {
		if err := compileOne(log, f, len(files) > 1); err != nil {
			log.Error("compile failed", zap.String("file", f), zap.Error(err))
			failed = true
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	if failed {
		return fmt.Errorf("one or more files failed to compile")
	}
	return nil
}

func compileOne(log *zap.Logger, entryFile string, multiple bool) error {
	opts, err := resolveOptions(entryFile)
	if err != nil {
		return err
	}

	res := compile.Compile(compile.Input{Path: entryFile}, opts, osFS{}, nil, nil, nil)
	printDiagnostics(os.Stderr, res)
	if res.Warnings != nil {
		log.Warn("compilation produced warnings", zap.String("file", entryFile), zap.Error(res.Warnings))
	}
	if res.Status != compile.StatusOK {
		return fmt.Errorf("%s: compilation failed", entryFile)
	}

	out := opts.OutFile
	if out == "" && multiple {
		out = strings.TrimSuffix(entryFile, ".scss")
		out = strings.TrimSuffix(out, ".sass") + ".css"
	}
	if out == "" {
		fmt.Print(res.CSS)
		return nil
	}
	if err := os.WriteFile(out, []byte(res.CSS), 0o644); err != nil {
		return err
	}
	if res.SourceMapJSON != nil && !opts.OmitSourceMapURL {
		mapPath := out + ".map"
		if err := os.WriteFile(mapPath, res.SourceMapJSON, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// expandInputs resolves glob patterns in args against the filesystem
// (the "glob expansion of input file arguments" domain-stack entry),
// passing through any literal path that isn't itself a pattern unchanged.
func expandInputs(args []string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, a := range args {
		matches, err := doublestar.FilepathGlob(a)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", a, err)
		}
		if len(matches) == 0 {
			matches = []string{a}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}
