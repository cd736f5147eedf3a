package chunker

import "strings"

// Chunk is a single window of words cut from a larger text.
// Offsets are positions in the normalized text (words joined by
// single spaces), so EndOffset-StartOffset == len(Text).
type Chunk struct {
	Index       int
	Text        string
	StartOffset int
	EndOffset   int
	WordCount   int
}

// Splitter cuts text into fixed-size word windows with overlap.
// Adjacent windows share the trailing words of the previous one so
// retrieval keeps context across chunk boundaries.
type Splitter struct {
	size    int
	overlap int
}

// New creates a Splitter. size is the window length in words, overlap
// the number of words repeated at the head of the next window.
func New(size, overlap int) *Splitter {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &Splitter{size: size, overlap: overlap}
}

// Size returns the window length in words.
func (s *Splitter) Size() int { return s.size }

// Overlap returns the overlap length in words.
func (s *Splitter) Overlap() int { return s.overlap }

// Split cuts text into overlapping word windows. Windows advance by
// size-overlap words; once the remaining words fit in a single window
// they form the final (possibly shorter) chunk. Empty or
// whitespace-only input yields no chunks.
func (s *Splitter) Split(text string) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	// Word start positions in the normalized (single-space-joined) text.
	starts := make([]int, len(words))
	pos := 0
	for i, w := range words {
		starts[i] = pos
		pos += len(w) + 1
	}

	step := s.size - s.overlap
	var chunks []Chunk
	for start := 0; ; start += step {
		end := start + s.size
		last := end >= len(words)
		if last {
			end = len(words)
		}
		joined := strings.Join(words[start:end], " ")
		chunks = append(chunks, Chunk{
			Index:       len(chunks),
			Text:        joined,
			StartOffset: starts[start],
			EndOffset:   starts[start] + len(joined),
			WordCount:   end - start,
		})
		if last {
			break
		}
	}
	return chunks
}

// Texts returns just the chunk texts, in order.
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}
