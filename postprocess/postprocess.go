// Package postprocess implements the three composable post-processor
// variants spec.md §4.8 describes: BERT-style, generic Template, and
// Chat Template. All three prepend/append ids derived from a shared
// Vocab rather than mutating it.
//
// Grounded on original_source/Aura-Tokenizer/src/post_processor.cpp's
// BertPostProcessor/TemplatePostProcessor/ChatTemplatePostProcessor/
// CompositePostProcessor hierarchy, collapsed per spec.md §9's "class
// hierarchy collapse" design note into a closed set of Go types behind
// one PostProcessor interface instead of virtual dispatch.
package postprocess

import (
	"github.com/subtok/subtok/vocab"
)

// Encoding is the id/type-id pair a post-processor produces. Offsets
// for inserted special tokens are not tracked here; the pipeline fills
// (0,0) sentinels for them per spec.md §9's offset-tracking note.
type Encoding struct {
	IDs     []int32
	TypeIDs []int32
}

// PostProcessor transforms the raw subword ids of one or two input
// segments into a final id/type-id sequence.
type PostProcessor interface {
	Process(v *vocab.Vocab, first, second []int32) (Encoding, error)
}

// BertPostProcessor prepends CLS and appends SEP; for two-segment
// input it inserts SEP between segments, tagging the first segment
// (plus its boundary SEP) with type id 0 and the second with 1, per
// spec.md §4.8 and original_source's BertPostProcessor::process.
type BertPostProcessor struct{}

func (BertPostProcessor) Process(v *vocab.Vocab, first, second []int32) (Encoding, error) {
	cls := v.SpecialID(vocab.Cls)
	sep := v.SpecialID(vocab.Sep)

	ids := make([]int32, 0, len(first)+len(second)+3)
	types := make([]int32, 0, cap(ids))

	ids = append(ids, cls)
	types = append(types, 0)
	ids = append(ids, first...)
	types = appendN(types, 0, len(first))
	ids = append(ids, sep)
	types = append(types, 0)

	if second != nil {
		ids = append(ids, second...)
		types = appendN(types, 1, len(second))
		ids = append(ids, sep)
		types = append(types, 1)
	}

	return Encoding{IDs: ids, TypeIDs: types}, nil
}

func appendN(s []int32, v int32, n int) []int32 {
	for i := 0; i < n; i++ {
		s = append(s, v)
	}
	return s
}

// CompositePostProcessor chains processors in insertion order: each
// stage's output id list becomes the next stage's "first" segment,
// with no second segment carried forward, per spec.md §4.8 "composite
// post-processors apply in insertion order".
type CompositePostProcessor struct {
	Processors []PostProcessor
}

func (c *CompositePostProcessor) Process(v *vocab.Vocab, first, second []int32) (Encoding, error) {
	curFirst, curSecond := first, second
	var enc Encoding
	for _, p := range c.Processors {
		e, err := p.Process(v, curFirst, curSecond)
		if err != nil {
			return Encoding{}, err
		}
		enc = e
		curFirst, curSecond = e.IDs, nil
	}
	return enc, nil
}
