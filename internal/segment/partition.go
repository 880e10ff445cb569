package segment

import (
	"sort"
	"strings"
)

// fencedKinds lists enhancement kinds in close priority order.
// A bare closing fence closes the first kind in this list with an open block.
var fencedKinds = []struct {
	kind  Kind
	fence string
}{
	{DeclarativeDiagram, D2Fence},
	{SequenceDiagram, PlantUMLFence},
	{FlowDiagram, MermaidFence},
	{DataTable, DataFence},
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// SplitLines normalizes line endings and splits a document into lines.
// An empty document has one empty line.
func SplitLines(doc string) []string {
	return strings.Split(lineEndings.Replace(doc), "\n")
}

// Partition splits doc into a complete Sequence.
//
// Blocks of each fenced kind are detected independently. A block left open
// at the end of the document is not a block: its lines stay plain markdown.
// Crossing blocks of different kinds are rejected with ErrOverlappingSegments.
func Partition(doc string) (*Sequence, error) {
	return PartitionLines(SplitLines(doc))
}

// PartitionLines is Partition over pre-split lines.
func PartitionLines(lines []string) (*Sequence, error) {
	markers := scan(lines)

	var blocks []Segment
	for _, fk := range fencedKinds {
		m := markers[fk.kind]
		for i := 0; i+1 < len(m); i += 2 {
			seg, err := New(fk.kind, m[i], m[i+1], lines)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, seg)
		}
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].FirstLine < blocks[j].FirstLine
	})

	segs, err := fillGaps(blocks, lines)
	if err != nil {
		return nil, err
	}
	return NewSequence(segs)
}

// scan records 1-based start/end line markers per fenced kind.
// An odd marker count means a block of that kind is open.
func scan(lines []string) map[Kind][]int {
	markers := make(map[Kind][]int, len(fencedKinds))

	for i, line := range lines {
		lineNo := i + 1

		if opened := openBlock(markers, line, lineNo); opened {
			continue
		}

		if strings.TrimSpace(line) == CloseFence {
			for _, fk := range fencedKinds {
				if len(markers[fk.kind])%2 == 1 {
					markers[fk.kind] = append(markers[fk.kind], lineNo)
					break
				}
			}
		}
	}

	// Unterminated blocks degrade to plain text.
	for kind, m := range markers {
		if len(m)%2 == 1 {
			markers[kind] = m[:len(m)-1]
		}
	}
	return markers
}

func openBlock(markers map[Kind][]int, line string, lineNo int) bool {
	for _, fk := range fencedKinds {
		if strings.HasPrefix(line, fk.fence) && len(markers[fk.kind])%2 == 0 {
			markers[fk.kind] = append(markers[fk.kind], lineNo)
			return true
		}
	}
	return false
}

// fillGaps inserts PlainMarkdown segments between sorted blocks.
// Zero-width gaps produce no segment.
func fillGaps(blocks []Segment, lines []string) ([]Segment, error) {
	segs := make([]Segment, 0, 2*len(blocks)+1)
	next := 1

	for _, b := range blocks {
		if b.FirstLine > next {
			plain, err := New(PlainMarkdown, next, b.FirstLine-1, lines)
			if err != nil {
				return nil, err
			}
			segs = append(segs, plain)
		}
		segs = append(segs, b)
		if b.LastLine+1 > next {
			next = b.LastLine + 1
		}
	}

	if next <= len(lines) {
		plain, err := New(PlainMarkdown, next, len(lines), lines)
		if err != nil {
			return nil, err
		}
		segs = append(segs, plain)
	}
	return segs, nil
}
