package pretokenize

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhitespaceSplitsOnRuns(t *testing.T) {
	w := Whitespace{}
	words, err := w.PreTokenize("hello   world\tfoo")
	require.NoError(t, err)
	texts := wordTexts(words)
	assert.Equal(t, []string{"hello", "world", "foo"}, texts)
}

func TestWhitespaceEmptyInput(t *testing.T) {
	w := Whitespace{}
	words, err := w.PreTokenize("")
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestWhitespaceOffsetsMatchOriginal(t *testing.T) {
	w := Whitespace{}
	words, err := w.PreTokenize("ab cd")
	require.NoError(t, err)
	require.Len(t, words, 2)
	assert.Equal(t, Offset{0, 2}, words[0].Offset)
	assert.Equal(t, Offset{3, 5}, words[1].Offset)
}

func TestRegexPatternPartitionsMatchesAndNonMatches(t *testing.T) {
	w := Whitespace{Patterns: []*regexp.Regexp{regexp.MustCompile(`[0-9]+`)}}
	words, err := w.PreTokenize("abc123def456")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "123", "def", "456"}, wordTexts(words))
}

func TestByteLevelEmitsOneTokenPerByte(t *testing.T) {
	b := ByteLevel{}
	words, err := b.PreTokenize("hé")
	require.NoError(t, err)
	assert.Len(t, words, 3) // 'h' (1 byte) + 'é' (2 bytes UTF-8)
}

func TestByteLevelRoundTrip(t *testing.T) {
	b := ByteLevel{}
	original := "héllo, world!"
	words, err := b.PreTokenize(original)
	require.NoError(t, err)
	var joined string
	for _, w := range words {
		joined += w.Text
	}
	assert.Equal(t, original, ByteLevelDecode(joined))
}

func TestPunctuationSplitsOffSingleChars(t *testing.T) {
	p := Punctuation{}
	words, err := p.PreTokenize("hello, world!")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", ",", "world", "!"}, wordTexts(words))
}

func TestICUWordBasic(t *testing.T) {
	icu := ICUWord{}
	words, err := icu.PreTokenize("Hello, world!")
	require.NoError(t, err)
	assert.NotEmpty(t, words)
}

func TestICUWordKeepsURLAsSingleToken(t *testing.T) {
	icu := ICUWord{}
	words, err := icu.PreTokenize("visit https://example.com/path today")
	require.NoError(t, err)
	texts := wordTexts(words)
	assert.Contains(t, texts, "https://example.com/path")
	for _, text := range texts {
		assert.NotEqual(t, "https", text, "URL must not be split into separate word-break pieces")
	}
}

func TestICUWordKeepsEmailAsSingleToken(t *testing.T) {
	icu := ICUWord{}
	words, err := icu.PreTokenize("contact jane.doe@example.com now")
	require.NoError(t, err)
	texts := wordTexts(words)
	assert.Contains(t, texts, "jane.doe@example.com")
}

func TestICUWordURLOffsetsSpanWholeMatch(t *testing.T) {
	icu := ICUWord{}
	text := "see https://example.com here"
	words, err := icu.PreTokenize(text)
	require.NoError(t, err)
	for _, w := range words {
		if w.Text == "https://example.com" {
			assert.Equal(t, text[w.Offset.Start:w.Offset.End], w.Text)
			return
		}
	}
	t.Fatal("URL token not found")
}

func TestSequenceComposesStages(t *testing.T) {
	seq := Sequence{Stages: []PreTokenizer{Whitespace{}, Punctuation{}}}
	words, err := seq.PreTokenize("hello, world")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", ",", "world"}, wordTexts(words))
}

func TestInvalidUTF8Reported(t *testing.T) {
	w := Whitespace{}
	_, err := w.PreTokenize(string([]byte{0xff, 0xfe}))
	require.Error(t, err)
}

func wordTexts(words []Word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Text
	}
	return out
}
