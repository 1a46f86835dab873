// Package charlevel implements character-level segmentation (spec.md
// §1's fourth algorithm): every rune in a word is its own symbol, looked
// up in the vocabulary directly.
//
// Grounded on original_source/Aura-Tokenizer/src/char_level_tokenizer.cpp,
// which iterates `char c : text` (a byte, not a rune) — a latent bug for
// any non-ASCII UTF-8 input. This implementation iterates runes instead,
// so multi-byte characters stay single symbols rather than being split
// into unknown byte fragments.
package charlevel

import (
	"strings"

	"github.com/subtok/subtok/model"
	"github.com/subtok/subtok/vocab"
)

// Model segments a word into one symbol per rune.
type Model struct{}

// New builds a character-level Model. It holds no state: the vocabulary
// passed to Segment already carries whichever characters training
// seeded it with.
func New() *Model { return &Model{} }

func (m *Model) Algorithm() model.Algorithm { return model.AlgorithmCharLevel }

// Segment splits word into one symbol per rune, each carrying its byte
// offset within word.
func (m *Model) Segment(_ *vocab.Vocab, word string) []model.Symbol {
	if word == "" {
		return nil
	}
	symbols := make([]model.Symbol, 0, len(word))
	offset := 0
	for _, r := range word {
		size := len(string(r))
		symbols = append(symbols, model.Symbol{Text: string(r), Start: offset, End: offset + size})
		offset += size
	}
	return symbols
}

// Join concatenates symbol texts directly: character-level segmentation
// never inserts separators of its own, so joining is plain concatenation.
func (m *Model) Join(symbols []string) string {
	var b strings.Builder
	for _, s := range symbols {
		b.WriteString(s)
	}
	return b.String()
}
