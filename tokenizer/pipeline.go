package tokenizer

import (
	"log/slog"
	"regexp"
	"sync"

	"github.com/subtok/subtok/model"
	"github.com/subtok/subtok/normalize"
	"github.com/subtok/subtok/postprocess"
	"github.com/subtok/subtok/pretokenize"
	"github.com/subtok/subtok/tokenizererr"
	"github.com/subtok/subtok/vocab"
)

// batchParallelThreshold mirrors normalize.Normalizer's own threshold
// (spec.md §5 "batch size exceeds an implementation-chosen threshold").
const batchParallelThreshold = 1000

// Offset is re-exported for callers that only import this package.
type Offset = pretokenize.Offset

// Row is the per-item result of Encode, matching spec.md §4.9 step 8's
// field set for a single row.
type Row struct {
	InputIDs          []int32
	AttentionMask     []int32
	TokenTypeIDs      []int32
	OffsetMapping     []Offset
	Length            int
	OverflowingTokens []int32
}

// Batch is the parallel-list result of EncodeBatch.
type Batch struct {
	InputIDs          [][]int32
	AttentionMask     [][]int32
	TokenTypeIDs      [][]int32
	OffsetMapping     [][]Offset
	Length            []int
	OverflowingTokens [][]int32
}

// Pipeline composes a Vocab (owned) with a Normalizer, PreTokenizer,
// segmentation Model, and PostProcessor into spec.md §4.9's encode and
// decode contract. Vocab is owned by the pipeline and lent by
// immutable borrow to the model and post-processor during a call, per
// spec.md §9's "shared ownership of Vocab" design note — there is no
// reference-counted sharing here.
type Pipeline struct {
	Config *Config
	Vocab  *vocab.Vocab
	Model  model.Model

	normalizer   *normalize.Normalizer
	preTokenizer pretokenize.PreTokenizer
	postProc     postprocess.PostProcessor

	logger *slog.Logger
}

// NewPipeline assembles a Pipeline from cfg and v. The model is not
// set; call SetModel once one has been trained or loaded.
func NewPipeline(cfg *Config, v *vocab.Vocab) (*Pipeline, error) {
	if cfg == nil {
		cfg = New()
	}
	if v == nil {
		v = vocab.New()
	}

	p := &Pipeline{Config: cfg, Vocab: v, logger: cfg.Logger}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	p.normalizer = buildNormalizer(cfg)
	p.preTokenizer = buildPreTokenizer(cfg)

	pp, err := buildPostProcessor(cfg)
	if err != nil {
		return nil, err
	}
	p.postProc = pp

	for text, id := range cfg.AddedTokens {
		if err := v.AddWithID(text, id); err != nil {
			return nil, err
		}
	}
	for role, text := range cfg.SpecialTokens {
		if text != "" {
			v.MarkSpecial(text, role)
		}
	}

	return p, nil
}

// SetModel installs the segmentation model a trainer produced or a
// Load call restored.
func (p *Pipeline) SetModel(m model.Model) {
	p.logger.Debug("model installed", "algorithm", m.Algorithm().String())
	p.Model = m
}

func buildNormalizer(cfg *Config) *normalize.Normalizer {
	return normalize.New(normalize.Options{
		Form:                cfg.NormalizationForm,
		Lowercase:           cfg.Lowercase,
		StripAccents:        cfg.StripAccents,
		NormalizeWhitespace: cfg.NormalizeWhitespace,
		RemoveControlChars:  cfg.RemoveControlChars,
	})
}

func buildPreTokenizer(cfg *Config) pretokenize.PreTokenizer {
	if cfg.ByteLevel {
		return pretokenize.ByteLevel{}
	}
	if len(cfg.PreTokenizerPatterns) > 0 {
		patterns := make([]*regexp.Regexp, 0, len(cfg.PreTokenizerPatterns))
		for _, pat := range cfg.PreTokenizerPatterns {
			patterns = append(patterns, regexp.MustCompile(pat))
		}
		return pretokenize.Whitespace{Patterns: patterns}
	}
	return pretokenize.Whitespace{}
}

func buildPostProcessor(cfg *Config) (postprocess.PostProcessor, error) {
	switch cfg.PostProcessorFamily {
	case "", "none":
		return nil, nil
	case "bert":
		return postprocess.BertPostProcessor{}, nil
	case "template":
		return postprocess.NewChatTemplate(cfg.TemplateString)
	case "chat":
		return postprocess.NewChatTemplate(cfg.TemplateString)
	default:
		return postprocess.BertPostProcessor{}, nil
	}
}

// Encode is the single-row entry point: encode(text) -> Row.
func (p *Pipeline) Encode(text string) (Row, error) {
	return p.EncodePair(text, "")
}

// EncodePair encodes a single segment, or two segments when second is
// non-empty (spec.md §4.9, §4.8's "two-segment input").
func (p *Pipeline) EncodePair(first, second string) (Row, error) {
	if p.Model == nil {
		return Row{}, tokenizererr.New(tokenizererr.ModelNotLoaded, "encode called before a model was installed")
	}

	firstIDs, firstOffsets, err := p.segment(first)
	if err != nil {
		return Row{}, err
	}
	var secondIDs []int32
	var secondOffsets []Offset
	if second != "" {
		secondIDs, secondOffsets, err = p.segment(second)
		if err != nil {
			return Row{}, err
		}
	}

	var ids, types []int32
	var offsets []Offset

	if p.Config.AddSpecialTokens && p.postProc != nil {
		var secondForProc []int32
		if second != "" {
			secondForProc = secondIDs
		}
		enc, err := p.postProc.Process(p.Vocab, firstIDs, secondForProc)
		if err != nil {
			return Row{}, err
		}
		ids = enc.IDs
		types = enc.TypeIDs
		offsets = reconcileOffsets(ids, firstIDs, firstOffsets, secondIDs, secondOffsets)
	} else {
		ids = append(append([]int32{}, firstIDs...), secondIDs...)
		types = make([]int32, len(ids))
		for i := len(firstIDs); i < len(ids); i++ {
			types[i] = 1
		}
		offsets = append(append([]Offset{}, firstOffsets...), secondOffsets...)
	}

	var overflow []int32
	if p.Config.MaxLength > 0 && len(ids) > p.Config.MaxLength {
		ids, types, offsets, overflow = p.truncate(ids, types, offsets)
	}

	attention := make([]int32, len(ids))
	for i := range attention {
		attention[i] = 1
	}

	if p.Config.PadToMaxLength && p.Config.MaxLength > 0 && len(ids) < p.Config.MaxLength {
		padID := p.Vocab.SpecialID(vocab.Pad)
		if padID < 0 {
			padID = 0
		}
		for len(ids) < p.Config.MaxLength {
			ids = append(ids, padID)
			types = append(types, 0)
			offsets = append(offsets, Offset{})
			attention = append(attention, 0)
		}
	}

	return Row{
		InputIDs:          ids,
		AttentionMask:     attention,
		TokenTypeIDs:      types,
		OffsetMapping:     offsets,
		Length:            len(ids),
		OverflowingTokens: overflow,
	}, nil
}

// EncodeBatch is pointwise-equivalent to Encode, fanning out across
// goroutines once the batch is large, per spec.md §5(b).
func (p *Pipeline) EncodeBatch(texts []string) (Batch, error) {
	rows := make([]Row, len(texts))
	errs := make([]error, len(texts))

	if len(texts) <= batchParallelThreshold {
		for i, t := range texts {
			rows[i], errs[i] = p.Encode(t)
		}
	} else {
		var wg sync.WaitGroup
		workers := 8
		chunk := (len(texts) + workers - 1) / workers
		for w := 0; w < workers; w++ {
			start := w * chunk
			end := start + chunk
			if start >= len(texts) {
				break
			}
			if end > len(texts) {
				end = len(texts)
			}
			wg.Add(1)
			go func(start, end int) {
				defer wg.Done()
				for i := start; i < end; i++ {
					rows[i], errs[i] = p.Encode(texts[i])
				}
			}(start, end)
		}
		wg.Wait()
	}

	for _, err := range errs {
		if err != nil {
			return Batch{}, err
		}
	}

	batch := Batch{
		InputIDs:          make([][]int32, len(rows)),
		AttentionMask:     make([][]int32, len(rows)),
		TokenTypeIDs:      make([][]int32, len(rows)),
		OffsetMapping:     make([][]Offset, len(rows)),
		Length:            make([]int, len(rows)),
		OverflowingTokens: make([][]int32, len(rows)),
	}
	for i, r := range rows {
		batch.InputIDs[i] = r.InputIDs
		batch.AttentionMask[i] = r.AttentionMask
		batch.TokenTypeIDs[i] = r.TokenTypeIDs
		batch.OffsetMapping[i] = r.OffsetMapping
		batch.Length[i] = r.Length
		batch.OverflowingTokens[i] = r.OverflowingTokens
	}
	return batch, nil
}

// segment normalizes and pre-tokenizes text, then runs the active
// model over each word, looking up ids and accumulating offsets
// relative to the normalized text (spec.md §4.9 steps 1-3).
func (p *Pipeline) segment(text string) ([]int32, []Offset, error) {
	normalized := p.normalizer.Normalize(text)
	words, err := p.preTokenizer.PreTokenize(normalized)
	if err != nil {
		return nil, nil, err
	}

	var ids []int32
	var offsets []Offset
	for _, word := range words {
		symbols := p.Model.Segment(p.Vocab, word.Text)
		for _, sym := range symbols {
			id := p.Vocab.IDOf(sym.Text)
			if id < 0 {
				id = p.Vocab.SpecialID(vocab.Unknown)
			}
			ids = append(ids, id)
			offsets = append(offsets, Offset{Start: word.Offset.Start + sym.Start, End: word.Offset.Start + sym.End})
		}
	}
	return ids, offsets, nil
}

// reconcileOffsets rebuilds offsets for a post-processed id sequence
// by locating the pre-process firstIDs/secondIDs as contiguous runs
// within the final ids (every post-processor here copies a segment's
// ids verbatim into its output) and filling every other position —
// the inserted special tokens — with the (0,0) sentinel spec.md §9
// prescribes for positions with no locatable offset.
func reconcileOffsets(final, firstIDs []int32, firstOffsets []Offset, secondIDs []int32, secondOffsets []Offset) []Offset {
	out := make([]Offset, len(final))
	if start, ok := findSubsequence(final, firstIDs); ok {
		copy(out[start:start+len(firstIDs)], firstOffsets)
	}
	if len(secondIDs) > 0 {
		if start, ok := findSubsequence(final, secondIDs); ok {
			copy(out[start:start+len(secondIDs)], secondOffsets)
		}
	}
	return out
}

func findSubsequence(haystack, needle []int32) (int, bool) {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return 0, false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i, true
		}
	}
	return 0, false
}

// truncate trims ids to Config.MaxLength per Config.TruncationStrategy,
// preserving any leading/trailing run of tokens tagged special in the
// vocabulary (spec.md §8 seed scenario 6 "boundary specials
// preserved"), and returns the dropped content as overflow.
func (p *Pipeline) truncate(ids, types []int32, offsets []Offset) (outIDs, outTypes []int32, outOffsets []Offset, overflow []int32) {
	prefix := 0
	for prefix < len(ids) && p.Vocab.IsSpecial(ids[prefix]) {
		prefix++
	}
	suffix := 0
	for suffix < len(ids)-prefix && p.Vocab.IsSpecial(ids[len(ids)-1-suffix]) {
		suffix++
	}
	contentEnd := len(ids) - suffix
	content := ids[prefix:contentEnd]
	contentOffsets := offsets[prefix:contentEnd]

	budget := p.Config.MaxLength - prefix - suffix
	if budget < 0 {
		budget = 0
	}

	segA, segB := content, []int32(nil)
	sepID := p.Vocab.SpecialID(vocab.Sep)
	splitAt := -1
	if sepID >= 0 {
		for i, id := range content {
			if id == sepID {
				splitAt = i
				break
			}
		}
	}
	if splitAt >= 0 {
		segA = content[:splitAt+1]
		segB = content[splitAt+1:]
	}
	aLen := len(segA)

	switch p.Config.TruncationStrategy {
	case OnlyFirst:
		segA = truncateFromEnd(segA, max(0, budget-len(segB)))
	case OnlySecond:
		segB = truncateFromEnd(segB, max(0, budget-len(segA)))
	default: // LongestFirst
		for len(segA)+len(segB) > budget {
			if len(segA) >= len(segB) && len(segA) > 0 {
				segA = segA[:len(segA)-1]
			} else if len(segB) > 0 {
				segB = segB[:len(segB)-1]
			} else {
				break
			}
		}
	}

	kept := append(append([]int32{}, segA...), segB...)
	dropped := make([]int32, 0, len(content)-len(kept))
	dropped = append(dropped, content[len(segA):aLen]...)
	dropped = append(dropped, content[aLen+len(segB):]...)

	outIDs = append(append([]int32{}, ids[:prefix]...), kept...)
	outIDs = append(outIDs, ids[contentEnd:]...)
	outTypes = append([]int32{}, types[:prefix]...)
	outOffsets = append([]Offset{}, offsets[:prefix]...)
	for i := 0; i < len(content); i++ {
		if i < len(segA) || (i >= aLen && i < aLen+len(segB)) {
			outTypes = append(outTypes, types[prefix+i])
			outOffsets = append(outOffsets, contentOffsets[i])
		}
	}
	outTypes = append(outTypes, types[contentEnd:]...)
	outOffsets = append(outOffsets, offsets[contentEnd:]...)
	return outIDs, outTypes, outOffsets, dropped
}

func truncateFromEnd(s []int32, budget int) []int32 {
	if budget < 0 {
		budget = 0
	}
	if len(s) <= budget {
		return s
	}
	return s[:budget]
}

// Decode reverse-looks-up each id, strips specials when requested,
// delegates joining to the active model's algorithm-specific inverse,
// and for byte-level configs reinterprets the joined GPT-2-mapped runes
// back into the original bytes (spec.md §4.9's decode step).
func (p *Pipeline) Decode(ids []int32, skipSpecial bool) string {
	if p.Model == nil {
		return ""
	}
	texts := make([]string, 0, len(ids))
	for _, id := range ids {
		if skipSpecial && p.Vocab.IsSpecial(id) {
			continue
		}
		text := p.Vocab.TextOf(id)
		texts = append(texts, text)
	}
	joined := p.Model.Join(texts)
	if p.Config.ByteLevel {
		return pretokenize.ByteLevelDecode(joined)
	}
	return joined
}

// DecodeBatch is pointwise Decode.
func (p *Pipeline) DecodeBatch(idLists [][]int32, skipSpecial bool) []string {
	out := make([]string, len(idLists))
	for i, ids := range idLists {
		out[i] = p.Decode(ids, skipSpecial)
	}
	return out
}

// AddSpecialTokens installs each text as an ordinary vocabulary entry
// tagged Custom, matching spec.md §6's `add_special_tokens(list<text>)`.
func (p *Pipeline) AddSpecialTokens(texts []string) {
	for _, text := range texts {
		p.Vocab.MarkSpecial(text, vocab.Custom)
	}
}

func (p *Pipeline) TokenToID(text string) int32 { return p.Vocab.IDOf(text) }
func (p *Pipeline) IDToToken(id int32) string   { return p.Vocab.TextOf(id) }
func (p *Pipeline) VocabSize() int              { return p.Vocab.Size() }
func (p *Pipeline) GetSpecialTokens() []string  { return p.Vocab.SpecialTokens() }
