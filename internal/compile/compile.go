// Package compile implements the driver of spec §6: it wires the source
// store, import resolver, parser, evaluator and selector engine, and
// output formatter into the single entry point an embedder (or
// cmd/riftss) calls to turn one input into CSS.
//
// Grounded on esbuild's pkg/api/api_impl.go for the general shape of a
// public Build-style entry point that validates/defaults its options and
// returns a single result struct; esbuild's own version of that file is
// almost entirely JS/bundler-specific (JSX, loaders, tree-shaking option
// validation) and has no analogue here, so this package only borrows the
// outer shape: one function that runs the pipeline once and reports a
// structured result, not any of esbuild's validate* helpers.
package compile

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/riftss/riftss/internal/config"
	"github.com/riftss/riftss/internal/cssast"
	"github.com/riftss/riftss/internal/env"
	"github.com/riftss/riftss/internal/eval"
	"github.com/riftss/riftss/internal/logger"
	"github.com/riftss/riftss/internal/parser"
	"github.com/riftss/riftss/internal/printer"
	"github.com/riftss/riftss/internal/resolver"
	"github.com/riftss/riftss/internal/selector"
	"github.com/riftss/riftss/internal/source"
)

// FS is the filesystem seam the driver needs; resolver.FS already has the
// right shape (read a file, test whether a path is a directory), so the
// driver just reuses it rather than defining a parallel interface.
type FS = resolver.FS

// ImportResult is one `{path, source, srcmap}` triple a host importer may
// return (spec §6). SourceMap is carried through the ABI so an importer's
// return value round-trips, but this driver reads only Path and Source: a
// host-supplied map is not composed into the output map.
type ImportResult struct {
	Path      string
	Source    string
	SourceMap string
}

// Importer is a host-provided resolver tried before the default
// path-based cascade (spec §6), in priority order: the first importer
// to return a non-empty result wins. Returning nil defers to the next
// importer, and ultimately to the default resolver.
//
// This driver resolves at most one file per logical @import; an importer
// returning more than one triple is reported as an Import error rather
// than silently merged (see DESIGN.md for why the fan-out case isn't
// supported).
type Importer func(requestedPath, previousPath string) []ImportResult

// HostFunction is one entry of the §6 "host-provided function list": a
// signature string in the source language's own parameter syntax, a
// callable, and an opaque cookie the host can use to recover its own
// context from inside Call (mirrored here as the Cookie field, since Go
// closures make an explicit cookie parameter unnecessary for Call itself).
type HostFunction struct {
	Signature string
	Call      cssast.NativeFunc
	Cookie    interface{}
}

// Input is one of the two forms spec §6 accepts: a byte buffer under a
// nominal path, or a bare absolute path read through FS.
type Input struct {
	Path        string
	Contents    string
	HasContents bool // true selects the buffer form; false reads Path through FS
}

type Status uint8

const (
	StatusOK Status = iota
	StatusError
)

// Diagnostic is the outermost error's JSON shape from spec §7:
// `{status, file, line, column, message}`.
type Diagnostic struct {
	Status  string `json:"status"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// Result is the spec §6 compilation output: `{css_bytes, source_map_json?,
// included_files[], status, error?}`, plus the non-fatal @warn/@debug
// messages collected along the way (not named in §6's output tuple, but
// something has to surface them to an embedder or the CLI).
type Result struct {
	CSS           string
	SourceMapJSON []byte
	IncludedFiles []string
	Status        Status
	Error         *Diagnostic
	Diagnostics   []logger.Msg

	// Warnings aggregates every non-fatal @warn/@debug message raised
	// during this compilation into a single error value (nil if none were
	// raised), via logger.Log.Warnings.
	Warnings error

	// ParseCount is the number of files actually parsed (not merely
	// resolved) during this compilation, the counter spec §8 property 6
	// ("import dedup... observable via a counter exposed for tests")
	// calls for: importing the same absolute path twice must not move
	// this past the number of distinct files involved.
	ParseCount int
}

// Registry hands out a cancellation flag per compilation, keyed by a
// stable uuid (spec §6/SPEC_FULL "cancellation-flag registration"), so a
// driver running several compilations concurrently can cancel one without
// touching the others.
type Registry struct {
	mu    sync.Mutex
	flags map[string]*int32
}

func NewRegistry() *Registry {
	return &Registry{flags: map[string]*int32{}}
}

// Begin registers a new compilation and returns its id plus the flag
// Compile should be given as cancel. Callers must End(id) once the
// compilation finishes, successfully or not.
func (r *Registry) Begin() (id string, cancel *int32) {
	id = uuid.NewString()
	cancel = new(int32)
	r.mu.Lock()
	r.flags[id] = cancel
	r.mu.Unlock()
	return id, cancel
}

func (r *Registry) End(id string) {
	r.mu.Lock()
	delete(r.flags, id)
	r.mu.Unlock()
}

// Cancel requests that the compilation registered under id stop at its
// next cancellation check (before a top-level statement, on a @while
// iteration, or between @extend fixpoint iterations), reporting true if id
// was still live.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	flag, ok := r.flags[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	atomic.StoreInt32(flag, 1)
	return true
}

// Compile runs one compilation end to end: resolve/parse/evaluate/extend/
// print. cancel may be nil (no cancellation support for this call).
func Compile(in Input, opts config.Options, fs FS, importers []Importer, hostFuncs []HostFunction, cancel *int32) Result {
	store := source.New()
	res := resolver.New(fs, opts.LoadPaths, store)
	arena := cssast.NewArena()
	log := logger.NewDeferLog()

	entryPath := source.Canonical(in.Path)
	contents := in.Contents
	if !in.HasContents {
		read, err := fs.ReadFile(entryPath)
		if err != nil {
			return Result{Status: StatusError, Error: &Diagnostic{Status: "error", File: entryPath, Message: err.Error()}}
		}
		contents = read
	}

	id, _ := store.Add(entryPath, contents)
	tracker := store.Tracker(id)
	root := parser.Parse(store.Source(id), id, arena, log)

	c := &driverState{
		store:        store,
		res:          res,
		arena:        arena,
		log:          log,
		importers:    importers,
		dirStack:     []string{path.Dir(entryPath)},
		parsedBlocks: map[uint32]*cssast.Block{id: root},
		included:     []string{entryPath},
	}
	c.res.BeginVisit(entryPath)

	e := env.New()
	if err := registerHostFunctions(e, hostFuncs); err != nil {
		return Result{Status: StatusError, Error: &Diagnostic{Status: "error", File: entryPath, Message: err.Error()}}
	}

	ev := eval.New(e, log, tracker)
	ev.SetSelectorResolver(selector.ResolveParent)
	ev.ResolveImport = c.resolveImport
	ev.Precision = opts.Precision
	ev.Cancelled = cancel

	lowered := ev.EvalStylesheet(root)

	var sels []*cssast.SelectorList
	var ctxs []int
	selector.CollectSelectors(lowered, 0, &sels, &ctxs)
	unmatched := selector.ExpandExtends(ev.Extends, sels, ctxs, func() bool {
		return cancel != nil && atomic.LoadInt32(cancel) != 0
	})
	for _, rule := range unmatched {
		log.Add(logger.Import, &tracker, rule.Span.Range,
			fmt.Sprintf("%q failed to @extend any selector", cssast.FormatSelectorList(rule.Target)))
	}

	msgs := log.Done()
	if log.HasErrors() {
		return Result{
			Status:        StatusError,
			IncludedFiles: c.included,
			Error:         diagnosticFromMsgs(entryPath, msgs),
			Diagnostics:   msgs,
			Warnings:      log.Warnings(),
			ParseCount:    c.parseCount + 1,
		}
	}

	css, smJSON := printer.Print(lowered, store, printer.Options{
		Style:               opts.Style,
		Precision:           opts.Precision,
		SourceComments:      opts.SourceComments,
		GenerateSourceMap:   opts.SourceMap,
		EmbedSourcesContent: opts.SourceMapContents,
	})

	return Result{
		Status:        StatusOK,
		CSS:           css,
		SourceMapJSON: smJSON,
		IncludedFiles: c.included,
		Diagnostics:   msgs,
		Warnings:      log.Warnings(),
		ParseCount:    c.parseCount + 1,
	}
}

func diagnosticFromMsgs(entryPath string, msgs []logger.Msg) *Diagnostic {
	for _, m := range msgs {
		if !m.Kind.IsFatal() {
			continue
		}
		if loc := m.Data.Location; loc != nil {
			return &Diagnostic{Status: "error", File: loc.File, Line: loc.Line, Column: loc.Column, Message: m.Data.Text}
		}
		return &Diagnostic{Status: "error", File: entryPath, Message: m.Data.Text}
	}
	return &Diagnostic{Status: "error", File: entryPath, Message: "compilation failed"}
}

// driverState holds the mutable bookkeeping one compilation's nested
// @import resolution needs: which directory relative imports resolve
// against, which absolute paths have already been parsed (spec §4.E
// dedup-by-path, so a file imported twice is only ever parsed once), and
// the load-order list the driver exposes as "included files".
type driverState struct {
	store        *source.Store
	res          *resolver.Resolver
	arena        *cssast.Arena
	log          logger.Log
	importers    []Importer
	dirStack     []string
	parsedBlocks map[uint32]*cssast.Block
	included     []string
	parseCount   int
}

// resolveImport is installed as eval.Evaluator.ResolveImport. It tries
// host importers in priority order, falling back to the default
// path-based resolver (spec §9 "importer composition"), then parses (or
// reuses a cached parse of) the target file, pushing its directory for
// the duration of its own nested imports.
func (c *driverState) resolveImport(url string) (block *cssast.Block, tracker logger.LineColumnTracker, isFile bool, done func()) {
	if resolver.IsURLPassthrough(url) {
		return nil, logger.LineColumnTracker{}, false, nil
	}
	fromDir := c.dirStack[len(c.dirStack)-1]

	resolvedPath, contents, ok := c.tryImporters(url, fromDir)
	if !ok {
		p, body, err := c.res.Resolve(url, fromDir)
		if err != nil {
			c.log.AddMsg(logger.Msg{Kind: logger.Import, Data: logger.MsgData{Text: "file to import not found or unreadable: \"" + url + "\""}})
			return nil, logger.LineColumnTracker{}, false, nil
		}
		resolvedPath, contents = p, body
	}
	resolvedPath = source.Canonical(resolvedPath)

	if !c.res.BeginVisit(resolvedPath) {
		c.log.AddMsg(logger.Msg{Kind: logger.Import, Data: logger.MsgData{Text: "circular import of \"" + resolvedPath + "\""}})
		return nil, logger.LineColumnTracker{}, false, nil
	}

	id, alreadyLoaded := c.store.Add(resolvedPath, contents)
	if !alreadyLoaded {
		c.included = append(c.included, resolvedPath)
	}
	cached, haveCache := c.parsedBlocks[id]
	if !haveCache {
		cached = parser.Parse(c.store.Source(id), id, c.arena, c.log)
		c.parsedBlocks[id] = cached
		c.parseCount++
	}

	c.dirStack = append(c.dirStack, path.Dir(resolvedPath))
	done = func() {
		c.dirStack = c.dirStack[:len(c.dirStack)-1]
		c.res.EndVisit(resolvedPath)
	}
	return cached, c.store.Tracker(id), true, done
}

func (c *driverState) tryImporters(url, fromDir string) (resolvedPath, contents string, ok bool) {
	for _, imp := range c.importers {
		results := imp(url, fromDir)
		if len(results) == 0 {
			continue
		}
		if len(results) > 1 {
			c.log.AddMsg(logger.Msg{Kind: logger.Import, Data: logger.MsgData{
				Text: fmt.Sprintf("importer returned %d files for %q; only one resolved file per import is supported", len(results), url),
			}})
			return "", "", false
		}
		return results[0].Path, results[0].Source, true
	}
	return "", "", false
}

// registerHostFunctions parses each signature string (spec §6
// `"name($p1, $p2: default, $rest...)"`) into the same Parameters shape
// the parser builds for a source-level @function, and binds a Definition
// wrapping Call as its Native func so the evaluator's existing
// callFunction dispatch (internal/eval/call.go) needs no special case for
// host-provided functions.
func registerHostFunctions(e *env.Environment, fns []HostFunction) error {
	for _, hf := range fns {
		name, params, err := parseSignature(hf.Signature)
		if err != nil {
			return fmt.Errorf("host function %q: %w", hf.Signature, err)
		}
		e.DefineFunction(name, &cssast.Definition{Kind: cssast.DefFunction, Name: name, Parameters: params, Native: hf.Call})
	}
	return nil
}

func parseSignature(sig string) (name string, params *cssast.Parameters, err error) {
	sig = strings.TrimSpace(sig)
	open := strings.IndexByte(sig, '(')
	if open < 0 || !strings.HasSuffix(sig, ")") {
		return "", nil, fmt.Errorf("expected \"name(...)\", got %q", sig)
	}
	name = strings.TrimSpace(sig[:open])
	if name == "" {
		return "", nil, fmt.Errorf("missing function name in %q", sig)
	}
	body := strings.TrimSpace(sig[open+1 : len(sig)-1])
	params = &cssast.Parameters{}
	if body == "" {
		return name, params, nil
	}
	for _, raw := range splitTopLevelCommas(body) {
		part := strings.TrimSpace(raw)
		if !strings.HasPrefix(part, "$") {
			return "", nil, fmt.Errorf("parameter %q must start with \"$\"", part)
		}
		part = part[1:]
		if strings.HasSuffix(part, "...") {
			params.Items = append(params.Items, cssast.Parameter{Name: strings.TrimSuffix(part, "..."), IsRest: true})
			continue
		}
		if idx := strings.IndexByte(part, ':'); idx >= 0 {
			pname := strings.TrimSpace(part[:idx])
			params.Items = append(params.Items, cssast.Parameter{Name: pname, Default: parseLiteralDefault(strings.TrimSpace(part[idx+1:]))})
			continue
		}
		params.Items = append(params.Items, cssast.Parameter{Name: part})
	}
	return name, params, nil
}

// splitTopLevelCommas splits on commas outside of any parens, since a
// default value like `rgba(0, 0, 0, 1)` must not be split at its own
// internal commas.
func splitTopLevelCommas(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

// parseLiteralDefault covers the handful of default-value forms a host
// function's signature string plausibly needs: booleans, null, quoted
// strings, dimensioned numbers, and bare identifiers (treated as unquoted
// strings/keywords, e.g. `$pos: start`).
func parseLiteralDefault(s string) cssast.Expr {
	switch {
	case s == "true":
		return &cssast.Boolean{Value: true}
	case s == "false":
		return &cssast.Boolean{Value: false}
	case s == "null", s == "":
		return &cssast.Null{}
	case len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0]:
		quote := cssast.QuoteDouble
		if s[0] == '\'' {
			quote = cssast.QuoteSingle
		}
		return &cssast.StringQuoted{Value: s[1 : len(s)-1], Quote: quote}
	}
	if v, unit, ok := parseNumberLiteral(s); ok {
		if unit == "" {
			return cssast.NewScalar(cssast.Span{}, v)
		}
		return cssast.NewDimension(cssast.Span{}, v, unit)
	}
	return &cssast.StringConstant{Value: s}
}

func parseNumberLiteral(s string) (value float64, unit string, ok bool) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	if i == start {
		return 0, "", false
	}
	numText := s[:i]
	v, err := strconv.ParseFloat(numText, 64)
	if err != nil {
		return 0, "", false
	}
	return v, s[i:], true
}
