// Package model defines the shared segmentation-model contract the
// pipeline dispatches to, replacing the C++ original's abstract
// TokenizerBase/derived-model hierarchy with a closed Algorithm enum plus
// one interface, per spec.md §9's "class hierarchy collapse" design note.
package model

import "github.com/subtok/subtok/vocab"

// Algorithm is the closed set of segmentation algorithms spec.md §1
// supports.
type Algorithm int

const (
	AlgorithmBPE Algorithm = iota
	AlgorithmUnigram
	AlgorithmWordPiece
	AlgorithmCharLevel
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmBPE:
		return "bpe"
	case AlgorithmUnigram:
		return "unigram"
	case AlgorithmWordPiece:
		return "wordpiece"
	case AlgorithmCharLevel:
		return "char"
	default:
		return "unknown"
	}
}

// Symbol is one subword string produced by segmenting a word, before
// vocabulary lookup.
type Symbol struct {
	Text string
	// Start, End are byte offsets of this symbol within the word it was
	// segmented from (not the original document); the pipeline adds the
	// word's own offset to translate into document-relative offsets.
	Start, End int
}

// Model segments a single pre-tokenized word into subword symbols. It
// holds only a read-only borrow of the Vocab for the duration of the
// call (spec.md §9 "Shared ownership of Vocab") — Go has no way to
// enforce const pointers, so this is a documented contract rather than a
// compiler-checked one, same as the teacher's api.Tokenizer interface
// documents immutability by comment.
type Model interface {
	Segment(v *vocab.Vocab, word string) []Symbol
	// Join reverses Segment's composition for decode: given the
	// surface texts of consecutive symbols (already looked up from the
	// vocab), reconstruct the word text. Algorithm-specific per
	// spec.md §4.9 "Joining strategy is algorithm-specific".
	Join(symbols []string) string
	Algorithm() Algorithm
}
