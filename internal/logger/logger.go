// Package logger implements the structured error model of §4.J / §7: a
// single message type carrying a position, a path and a kind, threaded
// through every later compiler stage (lexer, parser, resolver, evaluator,
// selector engine, printer).
//
// The design mirrors esbuild's internal/logger: a Log is a small bag of
// closures (AddMsg/HasErrors/Done) rather than an interface, so that a
// no-op, a deferred (collect-then-sort), or a streaming logger can all be
// constructed without an adapter type. Terminal rendering (color, TTY
// width) is deliberately left out of this package: cmd/riftss renders
// collected messages with fatih/color instead, so this package stays pure.
package logger

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Loc is a 0-based byte offset from the start of a source file.
type Loc struct {
	Start int32
}

// Range is a span of bytes within a single source file.
type Range struct {
	Loc Loc
	Len int32
}

func (r Range) End() int32 { return r.Loc.Start + r.Len }

// Path identifies a source file. Text is kept platform-independent
// (forward slashes only) per spec §4.A so output and diagnostics never
// depend on the host OS.
type Path struct {
	Text      string
	Namespace string // "file" for on-disk files, "url" for passthrough imports
}

// Source is one loaded input buffer plus the bookkeeping needed to turn a
// byte offset into a (line, column) pair on demand.
type Source struct {
	Index          uint32
	KeyPath        Path
	PrettyPath     string
	Contents       string
	lineStarts     []int32
	lineStartsOnce sync.Once
}

func (s *Source) TextForRange(r Range) string {
	return s.Contents[r.Loc.Start : r.Loc.Start+r.Len]
}

// computeLineStarts builds the lazily-computed line-start index named in
// spec §4.A. It is computed once per source and reused by every
// LineColumnTracker built against that source.
func (s *Source) computeLineStarts() []int32 {
	s.lineStartsOnce.Do(func() {
		starts := []int32{0}
		for i := 0; i < len(s.Contents); i++ {
			c := s.Contents[i]
			if c == '\n' {
				starts = append(starts, int32(i+1))
			} else if c == '\r' {
				// Treat "\r\n" as a single line break
				if i+1 < len(s.Contents) && s.Contents[i+1] == '\n' {
					continue
				}
				starts = append(starts, int32(i+1))
			}
		}
		s.lineStarts = starts
	})
	return s.lineStarts
}

// PositionOf implements the source store's `(path, offset) → (line, column)`
// lookup (spec §4.A) via binary search over the line-start index.
func (s *Source) PositionOf(offset int32) (line int, column int) {
	starts := s.computeLineStarts()
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, int(offset - starts[i])
}

// LineColumnTracker caches the (line, column) computation for repeated
// lookups against the same source while a single stage (lexer, parser, ...)
// is producing diagnostics.
type LineColumnTracker struct {
	source *Source
}

func MakeLineColumnTracker(source *Source) LineColumnTracker {
	return LineColumnTracker{source: source}
}

func (t *LineColumnTracker) MsgData(r Range, text string) MsgData {
	if t == nil || t.source == nil {
		return MsgData{Text: text}
	}
	line, column := t.source.PositionOf(r.Loc.Start)
	lineText := t.lineText(line)
	return MsgData{
		Text: text,
		Location: &MsgLocation{
			File:     t.source.PrettyPath,
			Line:     line,
			Column:   column,
			Length:   int(r.Len),
			LineText: lineText,
		},
	}
}

func (t *LineColumnTracker) lineText(line int) string {
	starts := t.source.computeLineStarts()
	if line-1 < 0 || line-1 >= len(starts) {
		return ""
	}
	start := starts[line-1]
	end := int32(len(t.source.Contents))
	if line < len(starts) {
		end = starts[line]
	}
	text := t.source.Contents[start:end]
	return strings.TrimRight(text, "\r\n")
}

// Kind is the error-model's classification (spec §4.J / §7). It replaces
// esbuild's two-valued {Error,Warning} MsgKind with the eight SassError
// kinds plus the two non-fatal diagnostic kinds used by @warn/@debug.
type Kind uint8

const (
	Syntax Kind = iota
	Undefined
	Arity
	Type
	Unit
	IO
	Import
	User
	Warning
	Debug
)

func (k Kind) String() string {
	switch k {
	case Syntax:
		return "syntax error"
	case Undefined:
		return "undefined error"
	case Arity:
		return "arity error"
	case Type:
		return "type error"
	case Unit:
		return "unit error"
	case IO:
		return "IO error"
	case Import:
		return "import error"
	case User:
		return "error"
	case Warning:
		return "warning"
	case Debug:
		return "debug"
	default:
		return "error"
	}
}

// IsFatal reports whether a message of this kind aborts the compilation
// (spec §7: only @warn/@debug are non-fatal).
func (k Kind) IsFatal() bool {
	return k != Warning && k != Debug
}

type MsgLocation struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int
	LineText string
}

type MsgData struct {
	Text     string
	Location *MsgLocation
}

type Msg struct {
	Kind  Kind
	Data  MsgData
	Notes []MsgData
}

func (msg Msg) String() string {
	loc := msg.Data.Location
	if loc == nil {
		return fmt.Sprintf("%s: %s", msg.Kind, msg.Data.Text)
	}
	sb := strings.Builder{}
	fmt.Fprintf(&sb, "%s:%d:%d: %s: %s\n", loc.File, loc.Line, loc.Column, msg.Kind, msg.Data.Text)
	if loc.LineText != "" {
		fmt.Fprintf(&sb, "    %s\n", loc.LineText)
	}
	for _, note := range msg.Notes {
		fmt.Fprintf(&sb, "  note: %s\n", note.Text)
	}
	return sb.String()
}

// SortableMsgs lets Go's stdlib sort order messages by location, mirroring
// esbuild's SortableMsgs.
type SortableMsgs []Msg

func (a SortableMsgs) Len() int      { return len(a) }
func (a SortableMsgs) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a SortableMsgs) Less(i, j int) bool {
	ai, aj := a[i].Data.Location, a[j].Data.Location
	if ai == nil || aj == nil {
		return ai == nil && aj != nil
	}
	if ai.File != aj.File {
		return ai.File < aj.File
	}
	if ai.Line != aj.Line {
		return ai.Line < aj.Line
	}
	return ai.Column < aj.Column
}

// Log is a bag of closures rather than an interface, following esbuild's
// logger.Log: this lets NewDeferLog build the struct out of captured
// locals without a separate adapter type.
type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	Done      func() []Msg

	// Warnings returns every accumulated non-fatal @warn/@debug message
	// (plus resolver warnings) as a single aggregate error value, or nil
	// if none were recorded. This is distinct from Done, which returns
	// every message (fatal and non-fatal) for the driver's own formatted
	// diagnostics output; Warnings exists for a caller that wants the
	// compilation's non-fatal findings as one Go error, e.g. to wrap or
	// log alongside an unrelated error chain.
	Warnings func() error
}

// NewDeferLog creates a Log that collects every message for a single
// compilation and returns them sorted by location once Done is called. A
// compilation's non-fatal @warn/@debug messages are additionally folded
// into a *multierror.Error (spec's "accumulated diagnostics") so a caller
// can fetch them as one aggregate error value via Warnings.
func NewDeferLog() Log {
	var mutex sync.Mutex
	var msgs SortableMsgs
	var hasErrors bool
	var warnings *multierror.Error

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			if msg.Kind.IsFatal() {
				hasErrors = true
			} else {
				warnings = multierror.Append(warnings, fmt.Errorf("%s", msg.String()))
			}
			msgs = append(msgs, msg)
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return hasErrors
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			sort.Stable(msgs)
			return msgs
		},
		Warnings: func() error {
			mutex.Lock()
			defer mutex.Unlock()
			if warnings == nil {
				return nil
			}
			return warnings.ErrorOrNil()
		},
	}
}

func (log Log) Add(kind Kind, tracker *LineColumnTracker, r Range, text string) {
	log.AddWithNotes(kind, tracker, r, text, nil)
}

func (log Log) AddWithNotes(kind Kind, tracker *LineColumnTracker, r Range, text string, notes []MsgData) {
	data := tracker.MsgData(r, text)
	log.AddMsg(Msg{Kind: kind, Data: data, Notes: notes})
}
