// Package bpe implements greedy Byte-Pair Encoding segmentation driven by
// an ordered, trained merge-rule list (spec.md §4.4).
//
// Generalized from the teacher's hftokenizer.go#bpeTokenize (a JSON-vocab
// driven greedy merge loop) into a Model that reads a vocab.Vocab and an
// explicit MergeRule list rather than a parsed tokenizer.json Model
// block.
package bpe

import (
	"strings"

	"github.com/subtok/subtok/model"
	"github.com/subtok/subtok/vocab"
)

// EndOfWord is the marker the trainer appends to every word before
// character splitting. spec.md §9 fixes this invariant: the encoder must
// append the same marker the trainer used, or trained merges referencing
// it never fire.
const EndOfWord = "</w>"

// MergeRule is an ordered (left, right) pair; its position in the Rules
// slice is its rank (lower rank = higher merge priority), per spec.md
// §3.
type MergeRule struct {
	Left, Right string
}

// Model applies an ordered merge-rule list to segment words.
type Model struct {
	rules []MergeRule
	ranks map[string]int // "left\x00right" -> rank, O(1) lookup per spec.md §4.4
}

// New builds a Model from an ordered merge-rule list. The list's order
// IS the rank; it must not be re-sorted by callers.
func New(rules []MergeRule) *Model {
	ranks := make(map[string]int, len(rules))
	for i, r := range rules {
		ranks[pairKey(r.Left, r.Right)] = i
	}
	return &Model{rules: rules, ranks: ranks}
}

// Rules returns the ordered merge-rule list (for serialization).
func (m *Model) Rules() []MergeRule {
	return m.rules
}

func pairKey(left, right string) string {
	return left + "\x00" + right
}

func (m *Model) Algorithm() model.Algorithm { return model.AlgorithmBPE }

// Segment implements the canonical greedy BPE algorithm: represent the
// word as single-character symbols with EndOfWord appended to the last
// one, then repeatedly merge the leftmost occurrence of the
// lowest-ranked adjacent pair until no adjacent pair is a merge rule.
// Runtime is O(k*n) for a word of length n after k <= n-1 merges.
func (m *Model) Segment(_ *vocab.Vocab, word string) []model.Symbol {
	if word == "" {
		return nil
	}
	symbols := splitToSymbols(word)

	for len(symbols) > 1 {
		bestRank := -1
		bestIdx := -1
		for i := 0; i < len(symbols)-1; i++ {
			rank, ok := m.ranks[pairKey(symbols[i].text, symbols[i+1].text)]
			if !ok {
				continue
			}
			if bestRank == -1 || rank < bestRank {
				bestRank = rank
				bestIdx = i
			}
		}
		if bestIdx == -1 {
			break
		}
		merged := symbolSpan{
			text:  symbols[bestIdx].text + symbols[bestIdx+1].text,
			start: symbols[bestIdx].start,
			end:   symbols[bestIdx+1].end,
		}
		next := make([]symbolSpan, 0, len(symbols)-1)
		next = append(next, symbols[:bestIdx]...)
		next = append(next, merged)
		next = append(next, symbols[bestIdx+2:]...)
		symbols = next
	}

	out := make([]model.Symbol, len(symbols))
	for i, s := range symbols {
		out[i] = model.Symbol{Text: s.text, Start: s.start, End: s.end}
	}
	return out
}

type symbolSpan struct {
	text       string
	start, end int
}

// splitToSymbols represents word as single-character (rune) symbols and
// appends EndOfWord to the final symbol, matching the trainer's
// convention (see train/bpetrain).
func splitToSymbols(word string) []symbolSpan {
	runes := []rune(word)
	symbols := make([]symbolSpan, 0, len(runes))
	byteOffset := 0
	for i, r := range runes {
		size := len(string(r))
		text := string(r)
		if i == len(runes)-1 {
			text += EndOfWord
		}
		symbols = append(symbols, symbolSpan{text: text, start: byteOffset, end: byteOffset + size})
		byteOffset += size
	}
	return symbols
}

// Join reverses BPE's composition for decode: strips the EndOfWord
// marker from each piece, replacing it with a single space except at
// the final token's boundary, and concatenates the rest directly
// (pieces that are not the last piece of a word were merged together
// without a marker, so no separator is inserted between them).
func (m *Model) Join(symbols []string) string {
	var b strings.Builder
	for i, s := range symbols {
		if strings.HasSuffix(s, EndOfWord) {
			b.WriteString(strings.TrimSuffix(s, EndOfWord))
			if i < len(symbols)-1 {
				b.WriteByte(' ')
			}
		} else {
			b.WriteString(s)
		}
	}
	return b.String()
}
