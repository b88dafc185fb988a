// Package sourcemap implements the VLQ mapping encoding used by spec §4.I /
// §6 to describe `(output_line, output_col) → (path_id, line, col)`.
//
// Grounded on esbuild's internal/sourcemap: the VLQ bit layout and the
// binary-search Find method are kept verbatim (they're a fixed wire
// format, not a design choice to improve on). esbuild's ChunkBuilder
// exists to join source map fragments generated by parallel bundler
// workers; a single riftss compilation is single-threaded (spec §5) and
// produces one contiguous map, so it is replaced here by a much smaller
// incremental Builder that just appends one mapping at a time as the
// formatter (§4.I) walks the evaluated AST.
package sourcemap

import (
	"bytes"
	"encoding/json"
)

// Mapping is one entry of a decoded source map: the generated position and
// the original position it corresponds to.
type Mapping struct {
	GeneratedLine   int32
	GeneratedColumn int32
	SourceIndex     int32
	OriginalLine    int32
	OriginalColumn  int32
}

type SourceMap struct {
	Sources        []string
	SourcesContent []string // parallel to Sources; entries may be ""
	Mappings       []Mapping
	Names         []string
}

// Find performs the binary search esbuild's SourceMap.Find performs,
// matching the behavior of the popular "source-map" library from Mozilla.
func (sm *SourceMap) Find(line int32, column int32) *Mapping {
	mappings := sm.Mappings
	count := len(mappings)
	index := 0
	for count > 0 {
		step := count / 2
		i := index + step
		mapping := mappings[i]
		if mapping.GeneratedLine < line || (mapping.GeneratedLine == line && mapping.GeneratedColumn <= column) {
			index = i + 1
			count -= step + 1
		} else {
			count = step
		}
	}
	if index > 0 {
		mapping := &mappings[index-1]
		if mapping.GeneratedLine == line {
			return mapping
		}
	}
	return nil
}

var base64 = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/")

// encodeVLQ encodes one signed value as source-map VLQ: the low bit is the
// sign, the next four bits are data, the sixth bit is a continuation flag.
func encodeVLQ(encoded []byte, value int) []byte {
	var vlq int
	if value < 0 {
		vlq = ((-value) << 1) | 1
	} else {
		vlq = value << 1
	}
	for {
		digit := vlq & 31
		vlq >>= 5
		if vlq != 0 {
			digit |= 32
		}
		encoded = append(encoded, base64[digit])
		if vlq == 0 {
			break
		}
	}
	return encoded
}

func DecodeVLQ(encoded []byte, start int) (int, int) {
	shift := 0
	vlq := 0
	for {
		index := bytes.IndexByte(base64, encoded[start])
		if index < 0 {
			break
		}
		vlq |= (index & 31) << shift
		start++
		shift += 5
		if (index & 32) == 0 {
			break
		}
	}
	value := vlq >> 1
	if (vlq & 1) != 0 {
		value = -value
	}
	return value, start
}

// Builder accumulates mappings incrementally as the printer walks the
// evaluated AST in source order (spec §4.I: "collects source-map segments
// ... at declaration and selector-token boundaries").
type Builder struct {
	sources     []string
	sourceIndex map[string]int32
	contents    []string
	names       []string
	mappings    []Mapping
	genLine     int32
	genColumn   int32
	embedContents bool
}

func NewBuilder(embedContents bool) *Builder {
	return &Builder{sourceIndex: make(map[string]int32), embedContents: embedContents}
}

func (b *Builder) sourceIndexFor(path, contents string) int32 {
	if i, ok := b.sourceIndex[path]; ok {
		return i
	}
	i := int32(len(b.sources))
	b.sources = append(b.sources, path)
	if b.embedContents {
		b.contents = append(b.contents, contents)
	} else {
		b.contents = append(b.contents, "")
	}
	b.sourceIndex[path] = i
	return i
}

// AdvanceGenerated tells the builder that `text` was just appended to the
// output, so its internal notion of the current generated (line, column)
// stays in sync without the caller tracking it separately.
func (b *Builder) AdvanceGenerated(text string) {
	for _, c := range text {
		if c == '\n' {
			b.genLine++
			b.genColumn = 0
		} else {
			b.genColumn++
		}
	}
}

// AddMapping records that the current generated position corresponds to
// (path, line, column) in the original source.
func (b *Builder) AddMapping(path, contents string, line, column int32) {
	b.mappings = append(b.mappings, Mapping{
		GeneratedLine:   b.genLine,
		GeneratedColumn: b.genColumn,
		SourceIndex:     b.sourceIndexFor(path, contents),
		OriginalLine:    line,
		OriginalColumn:  column,
	})
}

// Encode produces the "mappings" VLQ string for the accumulated mappings.
func (b *Builder) Encode() string {
	var out []byte
	prevGenLine := int32(0)
	prevGenCol, prevSrc, prevLine, prevCol := 0, 0, 0, 0
	for _, m := range b.mappings {
		if m.GeneratedLine != prevGenLine {
			out = append(out, bytes.Repeat([]byte{';'}, int(m.GeneratedLine-prevGenLine))...)
			prevGenLine = m.GeneratedLine
			prevGenCol = 0
		} else if len(out) > 0 {
			out = append(out, ',')
		}
		out = encodeVLQ(out, int(m.GeneratedColumn)-prevGenCol)
		out = encodeVLQ(out, int(m.SourceIndex)-prevSrc)
		out = encodeVLQ(out, int(m.OriginalLine)-prevLine)
		out = encodeVLQ(out, int(m.OriginalColumn)-prevCol)
		prevGenCol = int(m.GeneratedColumn)
		prevSrc = int(m.SourceIndex)
		prevLine = int(m.OriginalLine)
		prevCol = int(m.OriginalColumn)
	}
	return string(out)
}

// JSON is the wire format for spec §4.I / §6's "source-map file path" output.
type JSON struct {
	Version        int      `json:"version"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// ToJSON serializes the accumulated mappings, optionally inlining source
// contents (the "embed" flag named in spec §6).
func (b *Builder) ToJSON(omitSourcesContent bool) ([]byte, error) {
	j := JSON{
		Version:  3,
		Sources:  b.sources,
		Names:    b.names,
		Mappings: b.Encode(),
	}
	if !omitSourcesContent {
		j.SourcesContent = b.contents
	}
	return json.Marshal(j)
}
