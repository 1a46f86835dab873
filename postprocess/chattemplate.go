package postprocess

import (
	"regexp"
	"strings"

	"github.com/subtok/subtok/tokenizererr"
	"github.com/subtok/subtok/vocab"
)

// placeholderPattern recognizes `{{name}}` variable placeholders and
// `[NAME]` special-token placeholders, matching the regex
// original_source/Aura-Tokenizer/src/template_parser.cpp uses:
// `(\{\{[^\}]+\}\}|\[[^\]]+\])`.
var placeholderPattern = regexp.MustCompile(`\{\{[^}]+\}\}|\[[^\]]+\]`)

// ChatTemplatePostProcessor parses a raw template string containing
// `{{name}}` and `[NAME]` placeholders into segments, then delegates
// to the same resolution logic as TemplatePostProcessor.
type ChatTemplatePostProcessor struct {
	inner *TemplatePostProcessor
}

// NewChatTemplate parses template and returns a ready-to-use
// processor, or a MalformedTemplate error if a placeholder is
// unterminated.
func NewChatTemplate(template string) (*ChatTemplatePostProcessor, error) {
	segments, err := parseChatTemplate(template)
	if err != nil {
		return nil, err
	}
	return &ChatTemplatePostProcessor{inner: NewTemplate(segments)}, nil
}

func (c *ChatTemplatePostProcessor) Process(v *vocab.Vocab, first, second []int32) (Encoding, error) {
	return c.inner.Process(v, first, second)
}

func parseChatTemplate(template string) ([]Segment, error) {
	var segments []Segment
	cursor := 0
	matches := placeholderPattern.FindAllStringIndex(template, -1)
	for _, m := range matches {
		start, end := m[0], m[1]
		if literal := template[cursor:start]; literal != "" {
			if err := checkNoStrayPlaceholderChars(literal); err != nil {
				return nil, err
			}
			segments = append(segments, Segment{Kind: Literal, Text: literal})
		}
		placeholder := template[start:end]
		switch {
		case strings.HasPrefix(placeholder, "{{"):
			name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(placeholder, "{{"), "}}"))
			if name != "message" {
				return nil, tokenizererr.New(tokenizererr.UnknownTemplateVariable, "chat template variable %q is not supported, only \"message\" is", name)
			}
			segments = append(segments, Segment{Kind: Variable, Text: name})
		case strings.HasPrefix(placeholder, "["):
			name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(placeholder, "["), "]"))
			segments = append(segments, Segment{Kind: SpecialTokenRef, Text: name})
		}
		cursor = end
	}
	if tail := template[cursor:]; tail != "" {
		if err := checkNoStrayPlaceholderChars(tail); err != nil {
			return nil, err
		}
		segments = append(segments, Segment{Kind: Literal, Text: tail})
	}
	return segments, nil
}

// checkNoStrayPlaceholderChars rejects literal runs containing an
// unterminated placeholder opener/closer, which placeholderPattern
// would otherwise silently leave as ordinary literal text.
func checkNoStrayPlaceholderChars(literal string) error {
	for _, marker := range []string{"{{", "}}", "[", "]"} {
		if strings.Contains(literal, marker) {
			return tokenizererr.New(tokenizererr.MalformedTemplate, "unterminated or stray placeholder marker %q in template", marker)
		}
	}
	return nil
}
