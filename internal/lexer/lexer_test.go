package lexer

import (
	"testing"

	"github.com/riftss/riftss/internal/logger"
)

func lexFirst(contents string) (T, string) {
	log := logger.NewDeferLog()
	src := &logger.Source{Contents: contents, PrettyPath: "test.scss"}
	tracker := logger.MakeLineColumnTracker(src)
	lx := New(log, tracker, contents)
	return lx.Tok.Kind, lx.Tok.DecodedText(contents)
}

func TestTokenKinds(t *testing.T) {
	cases := []struct {
		contents string
		kind     T
	}{
		{"", TEndOfFile},
		{"@media", TAtKeyword},
		{"$color", TVariable},
		{"%placeholder", TPlaceholder},
		{"#{", TInterpolationStart},
		{"#id", THash},
		{"name", TIdent},
		{"lighten(", TFunction},
		{"123", TNumber},
		{"1px", TDimension},
		{"50%", TPercentage},
		{"'abc'", TString},
		{"url(test)", TURL},
		{"{", TOpenBrace},
		{"}", TCloseBrace},
		{"(", TOpenParen},
		{")", TCloseParen},
		{"[", TOpenBracket},
		{"]", TCloseBracket},
		{":", TColon},
		{";", TSemicolon},
		{",", TComma},
		{" ", TWhitespace},
		{"~", TDelim},
	}
	for _, c := range cases {
		t.Run(c.contents, func(t *testing.T) {
			kind, _ := lexFirst(c.contents)
			if kind != c.kind {
				t.Errorf("lexFirst(%q) kind = %v, want %v", c.contents, kind, c.kind)
			}
		})
	}
}

func TestDecodedTextStripsDecoration(t *testing.T) {
	cases := []struct {
		contents string
		want     string
	}{
		{"$color", "color"},
		{"@media", "media"},
		{"%placeholder", "placeholder"},
		{"#id", "id"},
		{"'abc'", "abc"},
		{"\"abc\"", "abc"},
		{"lighten(", "lighten"},
	}
	for _, c := range cases {
		_, text := lexFirst(c.contents)
		if text != c.want {
			t.Errorf("DecodedText(%q) = %q, want %q", c.contents, text, c.want)
		}
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	kind, text := lexFirst("/* hi */ name")
	if kind != TWhitespace {
		t.Fatalf("expected leading whitespace token after comment skip, got %v", kind)
	}
	_ = text
}

func TestLineCommentSkipped(t *testing.T) {
	kind, _ := lexFirst("// comment\nname")
	if kind != TWhitespace {
		t.Fatalf("expected whitespace token, got %v", kind)
	}
}

func TestSnapshotRestore(t *testing.T) {
	log := logger.NewDeferLog()
	contents := "$a $b"
	src := &logger.Source{Contents: contents, PrettyPath: "test.scss"}
	tracker := logger.MakeLineColumnTracker(src)
	lx := New(log, tracker, contents)
	if lx.Tok.Kind != TVariable {
		t.Fatalf("expected first token to be a variable, got %v", lx.Tok.Kind)
	}
	snap := lx.Snapshot()
	lx.Next() // whitespace
	lx.Next() // second variable
	if lx.Tok.DecodedText(contents) != "b" {
		t.Fatalf("expected to have advanced to $b, got %q", lx.Tok.DecodedText(contents))
	}
	lx.Restore(snap)
	if lx.Tok.DecodedText(contents) != "a" {
		t.Fatalf("expected restore to rewind to $a, got %q", lx.Tok.DecodedText(contents))
	}
}

func TestBadURLReported(t *testing.T) {
	kind, _ := lexFirst("url(x y")
	if kind != TBadURL {
		t.Errorf("expected a bad URL token for an unquoted URL containing whitespace, got %v", kind)
	}
}
