// Package chartrain builds the vocabulary a character-level model needs:
// every special token, then every distinct rune occurring in the corpus.
// There is no merge-rule learning loop (spec.md §4.9: character-level
// segmentation has no trainable parameters beyond the vocabulary itself).
//
// Grounded on original_source/Aura-Tokenizer/src/char_level_tokenizer.cpp's
// CharLevelTokenizer::train, which clears the vocab and assigns ids to
// each distinct `char` (byte) in corpus order — nondeterministic across
// runs if corpus order ever changes and broken for multi-byte UTF-8. This
// port iterates runes and assigns ids in a fixed, sorted order instead,
// matching train/bpetrain's determinism guarantee (spec.md §8).
package chartrain

import (
	"sort"

	"github.com/subtok/subtok/normalize"
	"github.com/subtok/subtok/tokenizererr"
	"github.com/subtok/subtok/vocab"
)

// Options configures a training run. Special tokens are inserted first,
// in this fixed order, before any corpus-derived rune — mirrors
// bpetrain.Options's seeding convention.
type Options struct {
	Normalizer *normalize.Normalizer // optional; nil means no normalization

	UnknownToken string
	PadToken     string
	BosToken     string
	EosToken     string
	MaskToken    string
	SepToken     string
	ClsToken     string
}

// Train seeds v with special tokens followed by every distinct rune in
// corpus, in sorted order for run-to-run determinism.
func Train(corpus []string, v *vocab.Vocab, opts Options) error {
	if len(corpus) == 0 {
		return tokenizererr.New(tokenizererr.EmptyCorpus, "training corpus has zero lines")
	}

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

	seen := make(map[string]bool)
	for _, line := range corpus {
		if opts.Normalizer != nil {
			line = opts.Normalizer.Normalize(line)
		}
		for _, r := range line {
			seen[string(r)] = true
		}
	}

	runes := make([]string, 0, len(seen))
	for r := range seen {
		runes = append(runes, r)
	}
	sort.Strings(runes)
	for _, r := range runes {
		if !v.Has(r) {
			v.Add(r)
		}
	}
	return nil
}
