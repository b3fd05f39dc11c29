package source

import "os"

// File represents a single source file (or an in-memory buffer with a
// synthetic name), retained for the lifetime of a compilation so that
// diagnostics can be rendered against it after parsing completes.
type File struct {
	name     string
	contents []byte
	// lineStarts[i] is the byte offset of the first byte of line i+1
	// (lines are numbered from 1).
	lineStarts []int
}

// NewFile constructs a source file from raw bytes and an origin label (a
// path, or a synthetic name such as "<string>").
func NewFile(name string, contents []byte) *File {
	return &File{
		name:       name,
		contents:   contents,
		lineStarts: computeLineStarts(contents),
	}
}

// ReadFile reads a file from disk and wraps it as a source.File.
func ReadFile(path string) (*File, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewFile(path, bytes), nil
}

func computeLineStarts(contents []byte) []int {
	starts := []int{0}
	for i, b := range contents {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// Name returns the origin label for this source file.
func (f *File) Name() string { return f.name }

// Contents returns the raw bytes of this source file.
func (f *File) Contents() []byte { return f.contents }

// Text returns the substring of this file covered by span.
func (f *File) Text(span Span) string {
	start := clamp(span.Start(), 0, len(f.contents))
	end := clamp(span.End(), start, len(f.contents))
	return string(f.contents[start:end])
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Position is a 1-indexed line/column pair plus the byte offset it
// corresponds to.
type Position struct {
	Line   int
	Column int
	Offset int
}

// PositionOf resolves a byte offset into a line/column position. Offsets
// beyond the end of the file resolve to the last position in the file.
func (f *File) PositionOf(offset int) Position {
	offset = clamp(offset, 0, len(f.contents))
	// binary search for the line containing offset
	lo, hi := 0, len(f.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if f.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	line := lo
	col := offset - f.lineStarts[line]
	return Position{Line: line + 1, Column: col + 1, Offset: offset}
}

// LineText returns the text of the given 1-indexed line, without its
// trailing newline.
func (f *File) LineText(line int) string {
	if line < 1 || line > len(f.lineStarts) {
		return ""
	}
	start := f.lineStarts[line-1]
	var end int
	if line == len(f.lineStarts) {
		end = len(f.contents)
	} else {
		end = f.lineStarts[line] - 1
	}
	end = clamp(end, start, len(f.contents))
	if end > start && f.contents[end-1] == '\r' {
		end--
	}
	return string(f.contents[start:end])
}
