// Package similarity provides a cheap, probabilistic "looks like" test
// between two text blocks.
//
// It is not a diff. A few random windows of the known text are searched
// for in the current text; if all are found the texts are considered
// similar. Two unrelated texts may pass and two close texts may fail.
package similarity

import (
	"math/rand/v2"
	"strings"
)

// Defaults for Matcher.
const (
	DefaultTrials = 3
	DefaultLength = 5
)

// IntN returns a uniform integer in [0, n).
type IntN func(n int) int

// Matcher samples windows of a known text.
type Matcher struct {
	Trials int
	Length int
	// Rand picks window offsets. Defaults to math/rand/v2.
	Rand IntN
}

// New returns a Matcher with default trials and window length.
func New() *Matcher {
	return &Matcher{Trials: DefaultTrials, Length: DefaultLength, Rand: rand.IntN}
}

// LooksLike reports whether current contains Trials random windows of known.
// A known text shorter than one window must be contained whole.
func (m *Matcher) LooksLike(current, known string) bool {
	trials, length := m.Trials, m.Length
	if trials <= 0 {
		trials = DefaultTrials
	}
	if length <= 0 {
		length = DefaultLength
	}
	pick := m.Rand
	if pick == nil {
		pick = rand.IntN
	}

	src := []rune(known)
	if len(src) <= length {
		return strings.Contains(current, known)
	}

	for i := 0; i < trials; i++ {
		start := pick(len(src) - length + 1)
		if !strings.Contains(current, string(src[start:start+length])) {
			return false
		}
	}
	return true
}
