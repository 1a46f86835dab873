// Package unigram implements Viterbi best-path segmentation by
// log-score (spec.md §4.6).
//
// The original's UnigramTokenizer::viterbi_segment (see
// original_source/Aura-Tokenizer/src/unigram_tokenizer.cpp) is a stub
// that greedily grows a segment until it finds ANY vocabulary match; it
// is not the dynamic-programming Viterbi the header and the spec
// require. This package implements the real algorithm: a trie-indexed
// best[i] dynamic program with back-pointers, per spec.md §4.6.
package unigram

import (
	"github.com/subtok/subtok/internal/prefixindex"
	"github.com/subtok/subtok/model"
	"github.com/subtok/subtok/vocab"
)

// Model segments text via Viterbi best-path over scored vocabulary
// candidates.
type Model struct {
	index       *prefixindex.Trie
	unknownText string
}

// New builds a Model whose candidate set is every token in v with a
// recorded Unigram score (vocab.Vocab.AddTokenWithScore), indexed by a
// prefix trie to satisfy spec.md §4.6's complexity bound.
func New(v *vocab.Vocab, unknownText string) *Model {
	idx := prefixindex.New()
	for _, text := range v.ScoredTokens() {
		idx.Insert(text)
	}
	return &Model{index: idx, unknownText: unknownText}
}

func (m *Model) Algorithm() model.Algorithm { return model.AlgorithmUnigram }

type step struct {
	score    float64
	tokenID  int32
	fromIdx  int
	hasPath  bool
}

// Segment computes best[i] = best score reaching byte-position i, with
// best[0] = 0, by extending every reachable position i with the
// candidates the prefix trie finds starting at i, then reconstructs the
// segmentation from back-pointers. Bytes not covered by any candidate
// are emitted as unknown. Ties are broken by the lower vocabulary id of
// the edge ending at a position, per spec.md §3.
func (m *Model) Segment(v *vocab.Vocab, word string) []model.Symbol {
	n := len(word)
	if n == 0 {
		return nil
	}

	best := make([]step, n+1)
	for i := 1; i <= n; i++ {
		best[i].score = negInf
	}
	best[0] = step{score: 0, hasPath: true}

	for i := 0; i < n; i++ {
		if !best[i].hasPath {
			continue
		}
		ends := m.index.PrefixEndsAt(word, i)
		for _, end := range ends {
			text := word[i:end]
			score, ok := v.Score(text)
			if !ok {
				continue
			}
			candidate := best[i].score + float64(score)
			id := v.IDOf(text)
			if !best[end].hasPath || candidate > best[end].score ||
				(candidate == best[end].score && id < best[end].tokenID) {
				best[end] = step{score: candidate, tokenID: id, fromIdx: i, hasPath: true}
			}
		}
		// Always allow a single-byte fallback edge so every position
		// remains reachable even when no vocabulary candidate applies;
		// this is what lets uncovered bytes surface as unknown below.
		fallback := best[i].score + unknownByteScore
		if !best[i+1].hasPath || fallback > best[i+1].score {
			best[i+1] = step{score: fallback, tokenID: -1, fromIdx: i, hasPath: true}
		}
	}

	// Reconstruct by walking back-pointers from n to 0.
	var spans []model.Symbol
	for i := n; i > 0; {
		from := best[i].fromIdx
		text := word[from:i]
		if best[i].tokenID < 0 {
			text = m.unknownText
		}
		spans = append(spans, model.Symbol{Text: text, Start: from, End: i})
		i = from
	}
	// reverse into left-to-right order
	for l, r := 0, len(spans)-1; l < r; l, r = l+1, r-1 {
		spans[l], spans[r] = spans[r], spans[l]
	}
	return spans
}

const negInf = -1e18

// unknownByteScore is deliberately far below any realistic trained log
// score so the fallback edge is only taken when no vocabulary candidate
// reaches a position, per spec.md §4.6 "bytes not covered ... are
// emitted as unknown".
const unknownByteScore = -1e6

// Join concatenates segment texts directly; Unigram carries no
// continuation marker, so pieces already represent contiguous
// original-text bytes (spec.md §4.9).
func (m *Model) Join(symbols []string) string {
	out := make([]byte, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, s...)
	}
	return string(out)
}
