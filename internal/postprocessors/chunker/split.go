package chunker

import (
	"iter"
	"strings"
)

// Span is one chunk of a text, addressed by rune offsets.
type Span struct {
	// Start is the rune offset of the first character.
	Start int

	// End is the rune offset one past the last character.
	End int

	// Text is the chunk content.
	Text string
}

// Len returns the span length in characters.
func (s Span) Len() int {
	return s.End - s.Start
}

// separators are natural boundaries in order of preference.
// A chunk ends just after the separator, so it stays with the text before it.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune("! "),
	[]rune("? "),
	[]rune("; "),
	[]rune(", "),
	[]rune(" "),
	[]rune("\t"),
}

// Split returns the chunks of text in document order.
//
// Every chunk holds at most size characters. Each chunk after the first
// starts exactly overlap characters before the previous one ended, so
// dropping the first overlap characters of every chunk but the first and
// concatenating reconstructs text exactly. Text no longer than size yields
// a single chunk. Empty text yields nothing.
//
// The sequence is lazy and may be ranged over any number of times.
// Callers must ensure 0 <= overlap < size.
func Split(text string, size, overlap int) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		if text == "" || size <= 0 || overlap < 0 || overlap >= size {
			return
		}

		runes := []rune(text)
		n := len(runes)
		start := 0

		for {
			if n-start <= size {
				yield(Span{Start: start, End: n, Text: string(runes[start:n])})
				return
			}

			end := boundary(runes, start, size, overlap)
			if !yield(Span{Start: start, End: end, Text: string(runes[start:end])}) {
				return
			}
			start = end - overlap
		}
	}
}

// boundary picks where the chunk starting at start should end.
// Natural boundaries are only taken from the back half of the window so
// chunks stay close to size, and always leave room to advance past the overlap.
func boundary(runes []rune, start, size, overlap int) int {
	limit := start + size
	minEnd := start + max(overlap+1, size/2)

	for _, sep := range separators {
		for end := limit; end >= minEnd; end-- {
			if endsWith(runes[:end], sep) {
				return end
			}
		}
	}

	// No natural boundary in range, cut hard.
	return limit
}

func endsWith(runes, suffix []rune) bool {
	if len(runes) < len(suffix) {
		return false
	}
	tail := runes[len(runes)-len(suffix):]
	for i := range suffix {
		if tail[i] != suffix[i] {
			return false
		}
	}
	return true
}

// Reconstruct joins chunk texts produced with the given overlap back into the
// original text.
func Reconstruct(chunks []string, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c)
			continue
		}
		r := []rune(c)
		if len(r) > overlap {
			b.WriteString(string(r[overlap:]))
		}
	}
	return b.String()
}
