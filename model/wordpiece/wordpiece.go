// Package wordpiece implements greedy longest-match segmentation with the
// "##" continuation convention (spec.md §4.7).
//
// Generalized from the teacher's hftokenizer.go#wordPieceTokenize (vocab
// is a parsed tokenizer.json map) to read a vocab.Vocab directly.
package wordpiece

import (
	"strings"

	"github.com/subtok/subtok/model"
	"github.com/subtok/subtok/vocab"
)

// ContinuationPrefix marks subwords other than the first in a word,
// per spec.md §3's WordPieceVocab convention.
const ContinuationPrefix = "##"

// DefaultMaxInputCharsPerWord is the guard spec.md §3 documents.
const DefaultMaxInputCharsPerWord = 100

// Model implements greedy WordPiece segmentation against a shared vocab.
type Model struct {
	MaxInputCharsPerWord int
	UnknownText          string
}

// New builds a Model. maxChars <= 0 uses DefaultMaxInputCharsPerWord.
func New(unknownText string, maxChars int) *Model {
	if maxChars <= 0 {
		maxChars = DefaultMaxInputCharsPerWord
	}
	return &Model{MaxInputCharsPerWord: maxChars, UnknownText: unknownText}
}

func (m *Model) Algorithm() model.Algorithm { return model.AlgorithmWordPiece }

// Segment finds, for each position, the longest vocabulary-present
// prefix of the remainder (prepended with "##" when not at the word's
// start); if none is found the whole word becomes a single unknown
// symbol, per spec.md §4.7.
func (m *Model) Segment(v *vocab.Vocab, word string) []model.Symbol {
	if word == "" {
		return nil
	}
	runes := []rune(word)
	if len(runes) > m.MaxInputCharsPerWord {
		return []model.Symbol{{Text: m.UnknownText, Start: 0, End: len(word)}}
	}

	var out []model.Symbol
	start := 0
	byteOffsets := runeByteOffsets(word, runes)
	for start < len(runes) {
		end := len(runes)
		found := false
		for end > start {
			candidate := string(runes[start:end])
			if start > 0 {
				candidate = ContinuationPrefix + candidate
			}
			if v.Has(candidate) {
				out = append(out, model.Symbol{Text: candidate, Start: byteOffsets[start], End: byteOffsets[end]})
				found = true
				break
			}
			end--
		}
		if !found {
			return []model.Symbol{{Text: m.UnknownText, Start: 0, End: len(word)}}
		}
		start = end
	}
	return out
}

// runeByteOffsets returns, for each rune index i in 0..len(runes), the
// byte offset of that rune's start in word (with one extra trailing
// entry for len(word)).
func runeByteOffsets(word string, runes []rune) []int {
	offsets := make([]int, len(runes)+1)
	b := 0
	for i, r := range runes {
		offsets[i] = b
		b += len(string(r))
	}
	offsets[len(runes)] = b
	_ = word
	return offsets
}

// Join drops the "##" continuation prefix and concatenates, inserting a
// space before each new word-initial piece (one that doesn't carry the
// prefix), per spec.md §4.9.
func (m *Model) Join(symbols []string) string {
	var b strings.Builder
	for i, s := range symbols {
		if strings.HasPrefix(s, ContinuationPrefix) {
			b.WriteString(strings.TrimPrefix(s, ContinuationPrefix))
		} else {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(s)
		}
	}
	return b.String()
}
