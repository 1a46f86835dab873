// Package pretokenize splits normalized text into word-like pieces, the
// second stage of the encode pipeline (spec.md §4.3).
//
// Generalized from the teacher's hftokenizer.go#applyPreTokenizer (a
// type-switch over a JSON pre_tokenizer tree keyed by "type") into a set
// of composable PreTokenizer implementations selected by TokenizerConfig
// rather than by parsing a tokenizer.json pre_tokenizer block.
package pretokenize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/subtok/subtok/internal/unicodeutil"
	"github.com/subtok/subtok/tokenizererr"
)

// Offset indexes a word into the text it was split from, in byte units.
// (start,end) == (x,x) means "not locatable", per spec.md §3.
type Offset struct {
	Start, End int
}

// Word is one piece produced by pre-tokenization.
type Word struct {
	Text   string
	Offset Offset
}

// PreTokenizer splits a string into words.
type PreTokenizer interface {
	PreTokenize(text string) ([]Word, error)
}

// BatchPreTokenize applies pt to each element of texts, pointwise.
func BatchPreTokenize(pt PreTokenizer, texts []string) ([][]Word, error) {
	out := make([][]Word, len(texts))
	for i, text := range texts {
		words, err := pt.PreTokenize(text)
		if err != nil {
			return nil, err
		}
		out[i] = words
	}
	return out, nil
}

// Whitespace splits text on runs of Unicode whitespace when Patterns is
// empty, or applies Patterns left-to-right otherwise: each regex
// partitions the current text into matches and non-matches, both
// preserved in order, with empty fragments dropped (spec.md §4.3).
type Whitespace struct {
	Patterns []*regexp.Regexp
}

func (w Whitespace) PreTokenize(text string) ([]Word, error) {
	if !utf8.ValidString(text) {
		return nil, tokenizererr.New(tokenizererr.InvalidUTF8, "whitespace pre-tokenizer received invalid UTF-8")
	}
	if len(w.Patterns) == 0 {
		return splitWhitespace(text), nil
	}

	fragments := []Word{{Text: text, Offset: Offset{0, len(text)}}}
	for _, re := range w.Patterns {
		fragments = applyPattern(re, fragments)
	}
	return fragments, nil
}

func splitWhitespace(text string) []Word {
	var out []Word
	start := -1
	i := 0
	for _, r := range text {
		size := utf8.RuneLen(r)
		if unicodeutil.IsWhitespace(r) {
			if start >= 0 {
				out = append(out, Word{Text: text[start:i], Offset: Offset{start, i}})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
		i += size
	}
	if start >= 0 {
		out = append(out, Word{Text: text[start:], Offset: Offset{start, len(text)}})
	}
	return out
}

// applyPattern partitions each fragment's text by re, preserving both
// matches and non-matches in order and dropping empty pieces, offsetting
// the fragment-relative match positions back into the original text.
func applyPattern(re *regexp.Regexp, fragments []Word) []Word {
	var out []Word
	for _, frag := range fragments {
		locs := re.FindAllStringIndex(frag.Text, -1)
		if locs == nil {
			if frag.Text != "" {
				out = append(out, frag)
			}
			continue
		}
		pos := 0
		for _, loc := range locs {
			if loc[0] > pos {
				out = append(out, Word{Text: frag.Text[pos:loc[0]], Offset: Offset{frag.Offset.Start + pos, frag.Offset.Start + loc[0]}})
			}
			out = append(out, Word{Text: frag.Text[loc[0]:loc[1]], Offset: Offset{frag.Offset.Start + loc[0], frag.Offset.Start + loc[1]}})
			pos = loc[1]
		}
		if pos < len(frag.Text) {
			out = append(out, Word{Text: frag.Text[pos:], Offset: Offset{frag.Offset.Start + pos, frag.Offset.Start + len(frag.Text)}})
		}
	}
	return out
}

// ByteLevel emits one "word" per input byte, GPT-2-style, mapping each
// byte through a reversible byte<->unicode table so every byte value
// becomes a printable, mergeable rune (spec.md §4.3: "one token per input
// byte"). AddPrefixSpace prepends a space when the text doesn't already
// start with one, matching the teacher's ByteLevel pre_tokenizer option.
type ByteLevel struct {
	AddPrefixSpace bool
}

func (b ByteLevel) PreTokenize(text string) ([]Word, error) {
	if b.AddPrefixSpace && len(text) > 0 && text[0] != ' ' {
		text = " " + text
	}
	out := make([]Word, 0, len(text))
	for i := 0; i < len(text); i++ {
		out = append(out, Word{Text: string(byteToUnicode[text[i]]), Offset: Offset{i, i + 1}})
	}
	return out, nil
}

// byteToUnicode/unicodeToByte implement the GPT-2 reversible byte-to-
// unicode mapping (ported from the teacher's hftokenizer.go init()):
// printable Latin-1 bytes map to themselves, the rest map to unused
// codepoints above 255 so every byte sequence round-trips through valid
// UTF-8.
var (
	byteToUnicode [256]rune
	unicodeToByte = make(map[rune]byte, 256)
)

func init() {
	n := 0
	for b := 0; b < 256; b++ {
		switch {
		case b >= '!' && b <= '~', b >= 0xa1 && b <= 0xac, b >= 0xae && b <= 0xff:
			byteToUnicode[b] = rune(b)
		default:
			byteToUnicode[b] = rune(256 + n)
			n++
		}
		unicodeToByte[byteToUnicode[b]] = byte(b)
	}
}

// ByteLevelDecode reverses ByteLevel's mapping: joins the mapped runes in
// text and reinterprets the resulting bytes as UTF-8.
func ByteLevelDecode(text string) string {
	buf := make([]byte, 0, len(text))
	for _, r := range text {
		if b, ok := unicodeToByte[r]; ok {
			buf = append(buf, b)
			continue
		}
		buf = append(buf, []byte(string(r))...)
	}
	return string(buf)
}

// Punctuation splits off single-character punctuation tokens, keeping
// runs of non-punctuation, non-whitespace characters together (ported
// from the teacher's hftokenizer.go#punctuationPreTokenize).
type Punctuation struct{}

func (Punctuation) PreTokenize(text string) ([]Word, error) {
	var out []Word
	start := -1
	i := 0
	for _, r := range text {
		size := utf8.RuneLen(r)
		switch {
		case unicodeutil.IsPunctuation(r):
			if start >= 0 {
				out = append(out, Word{Text: text[start:i], Offset: Offset{start, i}})
				start = -1
			}
			out = append(out, Word{Text: text[i : i+size], Offset: Offset{i, i + size}})
		case unicodeutil.IsWhitespace(r):
			if start >= 0 {
				out = append(out, Word{Text: text[start:i], Offset: Offset{start, i}})
				start = -1
			}
		default:
			if start < 0 {
				start = i
			}
		}
		i += size
	}
	if start >= 0 {
		out = append(out, Word{Text: text[start:], Offset: Offset{start, len(text)}})
	}
	return out, nil
}

// ICUWord delegates to the Unicode word-segmentation service
// (github.com/clipperhouse/uax29/v2/words) for UAX#29 word-break
// iteration, treating URLs and email addresses as single tokens as
// spec.md §4.3 requires. This is the pre-tokenizer offsets are most
// reliably sourced from (spec.md §9 "Offset tracking").
type ICUWord struct{}

var urlOrEmailPattern = regexp.MustCompile(`(https?://\S+|[[:alnum:]._%+\-]+@[[:alnum:].\-]+\.[[:alpha:]]{2,})`)

// PreTokenize first finds every URL/email span in the whole text (UAX#29
// would otherwise split one across several word-break pieces — scheme,
// "://", host, path), then runs the word-break segmenter and merges
// every piece that falls inside a found span back into a single Word,
// so a URL or email address survives as one token per spec.md §4.3.
func (ICUWord) PreTokenize(text string) ([]Word, error) {
	if !utf8.ValidString(text) {
		return nil, tokenizererr.New(tokenizererr.InvalidUTF8, "ICU word pre-tokenizer received invalid UTF-8")
	}
	special := urlOrEmailPattern.FindAllStringIndex(text, -1)
	si := 0

	var out []Word
	data := []byte(text)
	pos := 0

	seg := words.FromBytes(data)
	for seg.Next() {
		piece := seg.Value()
		start := pos
		end := pos + len(piece)
		pos = end

		for si < len(special) && special[si][1] <= start {
			si++
		}
		if si < len(special) && special[si][0] == start {
			spanEnd := special[si][1]
			for pos < spanEnd && seg.Next() {
				pos += len(seg.Value())
			}
			out = append(out, Word{Text: text[start:pos], Offset: Offset{start, pos}})
			si++
			continue
		}

		s := string(piece)
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, Word{Text: s, Offset: Offset{start, end}})
	}
	return out, nil
}

// Sequence composes pre-tokenizers left-to-right, feeding each stage's
// output words as the next stage's input texts (ported from the
// teacher's hftokenizer.go "Sequence" case). Offsets from inner stages
// are preserved relative to the outermost input when every stage tracks
// them; otherwise inner (0,0) sentinels propagate.
type Sequence struct {
	Stages []PreTokenizer
}

func (s Sequence) PreTokenize(text string) ([]Word, error) {
	current := []Word{{Text: text, Offset: Offset{0, len(text)}}}
	for _, stage := range s.Stages {
		var next []Word
		for _, w := range current {
			produced, err := stage.PreTokenize(w.Text)
			if err != nil {
				return nil, err
			}
			for _, p := range produced {
				offset := p.Offset
				if offset != (Offset{}) || w.Offset != (Offset{}) {
					offset = Offset{w.Offset.Start + p.Offset.Start, w.Offset.Start + p.Offset.End}
				}
				next = append(next, Word{Text: p.Text, Offset: offset})
			}
		}
		current = next
	}
	return current, nil
}
