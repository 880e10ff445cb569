package segment

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for sequence construction.
var (
	ErrEmptySequence       = errors.New("segment sequence is empty")
	ErrOverlappingSegments = errors.New("segments overlap")
	ErrInvalidBounds       = errors.New("invalid segment bounds")
)

// Kind identifies how a segment is rendered.
type Kind int

const (
	PlainMarkdown Kind = iota
	DeclarativeDiagram
	SequenceDiagram
	FlowDiagram
	DataTable
)

var kindNames = [...]string{
	PlainMarkdown:      "plain",
	DeclarativeDiagram: "d2",
	SequenceDiagram:    "plantuml",
	FlowDiagram:        "mermaid",
	DataTable:          "data",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsDiagram reports whether segments of this kind go through an external compiler.
func (k Kind) IsDiagram() bool {
	return k == DeclarativeDiagram || k == SequenceDiagram || k == FlowDiagram
}

// Segment is a contiguous slice of the source document.
// Lines are 1-based and inclusive.
type Segment struct {
	Kind      Kind
	FirstLine int
	LastLine  int
	Content   string
}

// New creates a segment from lines[first-1:last].
func New(kind Kind, first, last int, lines []string) (Segment, error) {
	if first < 1 || last < first || last > len(lines) {
		return Segment{}, fmt.Errorf("%w: %s [%d, %d] in %d lines", ErrInvalidBounds, kind, first, last, len(lines))
	}
	return Segment{
		Kind:      kind,
		FirstLine: first,
		LastLine:  last,
		Content:   strings.Join(lines[first-1:last], "\n"),
	}, nil
}

// LineCount returns the number of source lines covered.
func (s Segment) LineCount() int {
	return s.LastLine - s.FirstLine + 1
}

func (s Segment) String() string {
	return fmt.Sprintf("%s[%d-%d]", s.Kind, s.FirstLine, s.LastLine)
}

// Sequence is an ordered, non-overlapping list of segments.
type Sequence struct {
	segments []Segment
}

// NewSequence sorts segs by first line and validates that none overlap.
// The input slice is not modified.
func NewSequence(segs []Segment) (*Sequence, error) {
	if len(segs) == 0 {
		return nil, ErrEmptySequence
	}

	sorted := make([]Segment, len(segs))
	copy(sorted, segs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FirstLine < sorted[j].FirstLine
	})

	for i := 0; i < len(sorted)-1; i++ {
		if sorted[i].LastLine >= sorted[i+1].FirstLine {
			return nil, fmt.Errorf("%w: %s and %s", ErrOverlappingSegments, sorted[i], sorted[i+1])
		}
	}

	return &Sequence{segments: sorted}, nil
}

// Len returns the number of segments.
func (s *Sequence) Len() int {
	return len(s.segments)
}

// At returns the i-th segment in document order.
func (s *Sequence) At(i int) Segment {
	return s.segments[i]
}

// Segments returns a copy of the segments in document order.
func (s *Sequence) Segments() []Segment {
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// Join concatenates segment contents in order, one segment per line.
func (s *Sequence) Join() string {
	parts := make([]string, len(s.segments))
	for i, seg := range s.segments {
		parts[i] = seg.Content
	}
	return strings.Join(parts, "\n")
}
