// Package bpetrain implements the BPE trainer: iterative pair-frequency
// counting and greedy merge selection producing the ordered merge-rule
// list that drives model/bpe (spec.md §4.5).
//
// Generalized from original_source/Aura-Tokenizer/src/bpe_trainer.cpp's
// BPETrainer::train, which re-tallies pair counts from scratch every
// iteration (the O(V*W) baseline spec.md §4.5 explicitly allows). This
// port keeps that baseline but replaces the original's nondeterministic
// unordered_map iteration for max-frequency tie-breaking (first pair
// found in hash order) with a deterministic selection via a max-heap
// ordered by (frequency desc, merged-string asc) — the lexicographic
// tie-break spec.md §4.5 recommends — built with
// github.com/emirpasic/gods/v2's binaryheap, the same heap package
// ollama-ollama's BytePairEncoding.Encode uses for its merge-priority
// queue at inference time (see SPEC_FULL.md §4).
package bpetrain

import (
	"strings"

	heap "github.com/emirpasic/gods/v2/trees/binaryheap"
	"github.com/subtok/subtok/model/bpe"
	"github.com/subtok/subtok/normalize"
	"github.com/subtok/subtok/tokenizererr"
	"github.com/subtok/subtok/vocab"
)

// Options configures a training run.
type Options struct {
	VocabSize    int
	MinFrequency int
	Normalizer   *normalize.Normalizer // optional; nil means no normalization

	// Special tokens are inserted into the vocabulary first, in this
	// fixed order, before any corpus-derived character (spec.md §4.5
	// step 2 "insert special tokens first").
	UnknownToken string
	PadToken     string
	BosToken     string
	EosToken     string
	MaskToken    string
	SepToken     string
	ClsToken     string
}

// Result is the outcome of a training run.
type Result struct {
	Rules []bpe.MergeRule
}

type pairFreq struct {
	left, right string
	freq        int
}

// Train learns a BPE vocabulary of size Options.VocabSize and an ordered
// merge-rule list from corpus (one entry per line), seeding v with
// special tokens and per-character entries before iterating merges, per
// spec.md §4.5.
func Train(corpus []string, v *vocab.Vocab, opts Options) (*Result, error) {
	if len(corpus) == 0 {
		return nil, tokenizererr.New(tokenizererr.EmptyCorpus, "training corpus has zero lines")
	}
	if opts.VocabSize <= 0 {
		return nil, tokenizererr.New(tokenizererr.InvalidParameter, "vocab size must be positive")
	}
	if opts.MinFrequency <= 0 {
		return nil, tokenizererr.New(tokenizererr.InvalidParameter, "min frequency must be at least 1")
	}

	wordCounts := countWords(corpus, opts.Normalizer)

	seedVocab(v, opts, wordCounts)

	var rules []bpe.MergeRule
	for v.Size() < opts.VocabSize {
		pairCounts := countPairs(wordCounts)
		if len(pairCounts) == 0 {
			break
		}
		best := selectBestPair(pairCounts)
		if best.freq == 0 {
			break
		}

		rules = append(rules, bpe.MergeRule{Left: best.left, Right: best.right})
		merged := best.left + best.right
		v.Add(merged)

		wordCounts = rewriteWords(wordCounts, best.left, best.right, merged)
	}

	return &Result{Rules: rules}, nil
}

// countWords normalizes each corpus line, splits on whitespace, appends
// the end-of-word marker (matching model/bpe.EndOfWord so trained merges
// fire at inference time, per spec.md §9), and counts occurrences. Word
// keys are the space-joined initial symbol sequence, e.g. "l o w</w>".
func countWords(corpus []string, normalizer *normalize.Normalizer) map[string]int {
	counts := make(map[string]int)
	for _, line := range corpus {
		text := line
		if normalizer != nil {
			text = normalizer.Normalize(text)
		}
		for _, word := range strings.Fields(text) {
			symbols := splitSymbols(word)
			key := strings.Join(symbols, " ")
			counts[key]++
		}
	}
	return counts
}

func splitSymbols(word string) []string {
	runes := []rune(word)
	symbols := make([]string, len(runes))
	for i, r := range runes {
		symbols[i] = string(r)
	}
	if len(symbols) == 0 {
		return symbols
	}
	symbols[len(symbols)-1] += bpe.EndOfWord
	return symbols
}

// seedVocab installs special tokens (in a fixed, deterministic order)
// then every character occurring with count >= MinFrequency, per
// spec.md §4.5 step 2.
func seedVocab(v *vocab.Vocab, opts Options, wordCounts map[string]int) {
	type role struct {
		text string
		kind vocab.SpecialTokenType
	}
	for _, r := range []role{
		{opts.UnknownToken, vocab.Unknown},
		{opts.PadToken, vocab.Pad},
		{opts.BosToken, vocab.Bos},
		{opts.EosToken, vocab.Eos},
		{opts.MaskToken, vocab.Mask},
		{opts.SepToken, vocab.Sep},
		{opts.ClsToken, vocab.Cls},
	} {
		if r.text != "" {
			v.MarkSpecial(r.text, r.kind)
		}
	}

	charCounts := make(map[string]int)
	for wordKey, count := range wordCounts {
		for _, sym := range strings.Split(wordKey, " ") {
			charCounts[sym] += count
		}
	}
	// Deterministic insertion order: sort symbols lexicographically so
	// ids are stable across runs for a fixed corpus, matching the
	// BPE-determinism property spec.md §8 requires.
	symbols := make([]string, 0, len(charCounts))
	for sym := range charCounts {
		symbols = append(symbols, sym)
	}
	sortStrings(symbols)
	for _, sym := range symbols {
		if charCounts[sym] >= opts.MinFrequency {
			v.Add(sym)
		}
	}
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func pairKey(left, right string) string {
	return left + "\x00" + right
}

// countPairs tallies every adjacent symbol pair across all words,
// weighted by word count, per spec.md §4.5 step 3a.
func countPairs(wordCounts map[string]int) map[string]*pairFreq {
	counts := make(map[string]*pairFreq)
	for wordKey, count := range wordCounts {
		symbols := strings.Split(wordKey, " ")
		for i := 0; i < len(symbols)-1; i++ {
			key := pairKey(symbols[i], symbols[i+1])
			entry, ok := counts[key]
			if !ok {
				entry = &pairFreq{left: symbols[i], right: symbols[i+1]}
				counts[key] = entry
			}
			entry.freq += count
		}
	}
	return counts
}

// selectBestPair picks the highest-frequency pair, breaking ties
// deterministically on the lexicographically smallest merged string
// (spec.md §4.5 step 3b), via a max-heap.
func selectBestPair(pairCounts map[string]*pairFreq) pairFreq {
	h := heap.NewWith(func(a, b pairFreq) int {
		if a.freq != b.freq {
			return b.freq - a.freq
		}
		return strings.Compare(a.left+a.right, b.left+b.right)
	})
	for _, p := range pairCounts {
		h.Push(*p)
	}
	top, _ := h.Pop()
	return top
}

// rewriteWords replaces every non-overlapping occurrence of (left,right)
// with merged in every word, left to right (spec.md §4.5 step 3d).
func rewriteWords(wordCounts map[string]int, left, right, merged string) map[string]int {
	next := make(map[string]int, len(wordCounts))
	for wordKey, count := range wordCounts {
		symbols := strings.Split(wordKey, " ")
		rewritten := make([]string, 0, len(symbols))
		i := 0
		for i < len(symbols) {
			if i < len(symbols)-1 && symbols[i] == left && symbols[i+1] == right {
				rewritten = append(rewritten, merged)
				i += 2
			} else {
				rewritten = append(rewritten, symbols[i])
				i++
			}
		}
		next[strings.Join(rewritten, " ")] += count
	}
	return next
}
