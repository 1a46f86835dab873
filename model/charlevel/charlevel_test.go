package charlevel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/subtok/subtok/model"
)

func symbolTexts(symbols []model.Symbol) []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = s.Text
	}
	return out
}

func TestSegmentOneSymbolPerRune(t *testing.T) {
	m := New()
	symbols := m.Segment(nil, "ab")
	assert.Equal(t, []string{"a", "b"}, symbolTexts(symbols))
	assert.Equal(t, 0, symbols[0].Start)
	assert.Equal(t, 1, symbols[0].End)
	assert.Equal(t, 1, symbols[1].Start)
	assert.Equal(t, 2, symbols[1].End)
}

func TestSegmentMultiByteRuneStaysWhole(t *testing.T) {
	m := New()
	symbols := m.Segment(nil, "aéb") // 'a', 'é' (2 bytes), 'b'
	assert.Equal(t, []string{"a", "é", "b"}, symbolTexts(symbols))
	assert.Equal(t, 1, symbols[1].Start)
	assert.Equal(t, 3, symbols[1].End)
}

func TestSegmentEmptyWord(t *testing.T) {
	m := New()
	assert.Empty(t, m.Segment(nil, ""))
}

func TestJoinConcatenatesDirectly(t *testing.T) {
	m := New()
	assert.Equal(t, "cat", m.Join([]string{"c", "a", "t"}))
}
