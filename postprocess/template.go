package postprocess

import (
	"strings"

	"github.com/subtok/subtok/tokenizererr"
	"github.com/subtok/subtok/vocab"
)

// SegmentKind tags a parsed template segment, collapsing the original
// TemplateSegment::LITERAL/VARIABLE/SPECIAL_TOKEN variant
// (original_source/Aura-Tokenizer/src/template_parser.cpp) into a Go enum.
type SegmentKind int

const (
	Literal SegmentKind = iota
	Variable
	SpecialTokenRef
)

// Segment is one piece of a parsed template. Text holds the literal
// string for Literal segments, the variable name for Variable segments
// (only "message" is accepted, per spec.md §9), or the role/added-token
// name for SpecialTokenRef segments.
type Segment struct {
	Kind SegmentKind
	Text string
}

var roleByName = map[string]vocab.SpecialTokenType{
	"CLS":  vocab.Cls,
	"SEP":  vocab.Sep,
	"BOS":  vocab.Bos,
	"EOS":  vocab.Eos,
	"PAD":  vocab.Pad,
	"UNK":  vocab.Unknown,
	"MASK": vocab.Mask,
}

// resolveSpecialToken resolves a SpecialTokenRef name to a vocabulary
// id: canonical role names (CLS/SEP/BOS/EOS/PAD/UNK/MASK) resolve via
// the role table; anything else is looked up as a custom added-token's
// literal text, per spec.md §4.8 "a custom added-token name".
func resolveSpecialToken(v *vocab.Vocab, name string) (int32, error) {
	if role, ok := roleByName[strings.ToUpper(name)]; ok {
		id := v.SpecialID(role)
		if id < 0 {
			return 0, tokenizererr.New(tokenizererr.MalformedTemplate, "template references role %q with no assigned token", name)
		}
		return id, nil
	}
	if !v.Has(name) {
		return 0, tokenizererr.New(tokenizererr.MalformedTemplate, "template references unknown special token %q", name)
	}
	return v.IDOf(name), nil
}

// TemplatePostProcessor wraps the "message" variable with literal and
// special-token segments. Segments are supplied pre-parsed (e.g. built
// programmatically from a tokenizer config), matching
// original_source's TemplatePostProcessor which is constructed from an
// already-parsed segment list rather than a raw string.
type TemplatePostProcessor struct {
	Segments []Segment
}

// NewTemplate builds a TemplatePostProcessor from an explicit segment
// list.
func NewTemplate(segments []Segment) *TemplatePostProcessor {
	return &TemplatePostProcessor{Segments: segments}
}

func (t *TemplatePostProcessor) Process(v *vocab.Vocab, first, second []int32) (Encoding, error) {
	var ids []int32
	for _, seg := range t.Segments {
		switch seg.Kind {
		case Literal:
			if !v.Has(seg.Text) {
				return Encoding{}, tokenizererr.New(tokenizererr.MalformedTemplate, "template literal %q is not a known token", seg.Text)
			}
			ids = append(ids, v.IDOf(seg.Text))
		case Variable:
			if seg.Text != "message" {
				return Encoding{}, tokenizererr.New(tokenizererr.UnknownTemplateVariable, "template variable %q is not supported, only \"message\" is", seg.Text)
			}
			ids = append(ids, first...)
			if second != nil {
				ids = append(ids, second...)
			}
		case SpecialTokenRef:
			id, err := resolveSpecialToken(v, seg.Text)
			if err != nil {
				return Encoding{}, err
			}
			ids = append(ids, id)
		}
	}
	// Type ids are all zero: the "message" variable carries whatever
	// single sequence the caller substitutes; segment-aware typing is
	// BertPostProcessor's concern.
	types := make([]int32, len(ids))
	return Encoding{IDs: ids, TypeIDs: types}, nil
}
