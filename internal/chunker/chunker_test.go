package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	s := New(3, 1)
	assert.Nil(t, s.Split(""))
	assert.Nil(t, s.Split("   \n\t  "))
}

func TestSplitSingleWindow(t *testing.T) {
	s := New(10, 2)
	chunks := s.Split("only four words here")
	require.Len(t, chunks, 1)
	assert.Equal(t, "only four words here", chunks[0].Text)
	assert.Equal(t, 4, chunks[0].WordCount)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, len(chunks[0].Text), chunks[0].EndOffset)
}

func TestSplitOverlapWindows(t *testing.T) {
	text := "A cat sat. A dog ran. A bird flew."
	chunks := s3o1().Split(text)

	want := []string{
		"A cat sat.",
		"sat. A dog",
		"dog ran. A",
		"A bird flew.",
	}
	require.Len(t, chunks, len(want))
	for i, c := range chunks {
		assert.Equal(t, want[i], c.Text, "chunk %d", i)
		assert.Equal(t, i, c.Index)
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta epsilon ", 40)
	s := New(7, 3)
	first := s.Split(text)
	second := s.Split(text)
	assert.Equal(t, first, second)
}

func TestSplitSizeBound(t *testing.T) {
	text := strings.Repeat("word ", 103)
	s := New(10, 4)
	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		if i < len(chunks)-1 {
			assert.Equal(t, 10, c.WordCount, "chunk %d", i)
		} else {
			assert.GreaterOrEqual(t, c.WordCount, 1)
			assert.LessOrEqual(t, c.WordCount, 10)
		}
	}
}

func TestSplitOverlapInvariant(t *testing.T) {
	text := "one two three four five six seven eight nine ten eleven twelve"
	s := New(4, 2)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1].Text)
		cur := strings.Fields(chunks[i].Text)
		tail := prev[len(prev)-2:]
		head := cur[:2]
		assert.Equal(t, tail, head, "boundary %d", i)
	}
}

// Concatenating each chunk's non-overlapping portion reconstructs the
// original word sequence.
func TestSplitCoverage(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog again and again today"
	words := strings.Fields(text)
	s := New(5, 2)
	chunks := s.Split(text)

	var rebuilt []string
	for i, c := range chunks {
		cw := strings.Fields(c.Text)
		if i > 0 {
			cw = cw[2:] // drop the overlap carried from the previous chunk
		}
		rebuilt = append(rebuilt, cw...)
	}
	assert.Equal(t, words, rebuilt)
}

func TestSplitOffsetsConsistent(t *testing.T) {
	text := "  spaced\tout   text with   odd \n whitespace everywhere in   it  "
	s := New(3, 1)
	chunks := s.Split(text)
	require.NotEmpty(t, chunks)

	normalized := strings.Join(strings.Fields(text), " ")
	for _, c := range chunks {
		assert.Equal(t, len(c.Text), c.EndOffset-c.StartOffset)
		assert.Equal(t, c.Text, normalized[c.StartOffset:c.EndOffset])
	}
}

func TestNewClampsBadParams(t *testing.T) {
	s := New(0, 0)
	assert.Equal(t, 500, s.Size())

	s = New(5, 9)
	assert.Equal(t, 4, s.Overlap())

	s = New(5, -1)
	assert.Equal(t, 0, s.Overlap())
}

func TestTexts(t *testing.T) {
	chunks := s3o1().Split("a b c d e")
	texts := Texts(chunks)
	require.Len(t, texts, len(chunks))
	for i := range texts {
		assert.Equal(t, chunks[i].Text, texts[i])
	}
}

func s3o1() *Splitter { return New(3, 1) }
