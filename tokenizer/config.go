// Package tokenizer assembles the normalizer, pre-tokenizer, model and
// post-processor packages into the single encode/decode pipeline
// spec.md §4.9 describes, plus its configuration and on-disk format.
package tokenizer

import (
	"log/slog"

	"github.com/subtok/subtok/internal/unicodeutil"
	"github.com/subtok/subtok/vocab"
)

// TruncationStrategy selects which side of a (possibly paired) input
// loses tokens when the post-processed sequence exceeds MaxLength,
// per spec.md §3.
type TruncationStrategy int

const (
	LongestFirst TruncationStrategy = iota
	OnlyFirst
	OnlySecond
)

// Config is the recognized option set a Pipeline consults, per
// spec.md §3's TokenizerConfig. Built via functional options, the
// idiom the teacher uses for its own library configuration (e.g.
// hub.Repo options).
type Config struct {
	VocabSize    int
	MinFrequency int

	// MaxTokens, when positive, is a hard ceiling on the trained
	// vocabulary, overriding VocabSize when smaller. The train command
	// in cmd/subtok applies it; the trainer packages do not read it.
	MaxTokens int

	SpecialTokens map[vocab.SpecialTokenType]string
	AddedTokens   map[string]int32

	NormalizationForm  unicodeutil.Form
	Lowercase          bool
	StripAccents       bool
	NormalizeWhitespace bool
	RemoveControlChars bool

	PreTokenizerPatterns []string
	ByteLevel            bool

	PostProcessorFamily string // "bert", "template", "chat", "" (none)
	TemplateString      string

	AddSpecialTokens   bool
	MaxLength          int
	PadToMaxLength     bool
	TruncationStrategy TruncationStrategy

	// ModelID is a provenance stamp written into the config block on
	// save (see serialize.go), letting two files trained from
	// identical config+corpus still be told apart.
	ModelID string

	Logger *slog.Logger
}

// Option mutates a Config under construction.
type Option func(*Config)

// New assembles a Config from defaults plus the given options.
func New(opts ...Option) *Config {
	cfg := &Config{
		VocabSize:          30000,
		MinFrequency:       2,
		SpecialTokens:      make(map[vocab.SpecialTokenType]string),
		AddedTokens:        make(map[string]int32),
		NormalizationForm:  unicodeutil.FormNFC,
		NormalizeWhitespace: true,
		TruncationStrategy: LongestFirst,
		Logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func WithVocabSize(n int) Option    { return func(c *Config) { c.VocabSize = n } }
func WithMinFrequency(n int) Option { return func(c *Config) { c.MinFrequency = n } }
func WithMaxTokens(n int) Option    { return func(c *Config) { c.MaxTokens = n } }

func WithSpecialToken(role vocab.SpecialTokenType, text string) Option {
	return func(c *Config) { c.SpecialTokens[role] = text }
}

func WithAddedToken(text string, id int32) Option {
	return func(c *Config) { c.AddedTokens[text] = id }
}

func WithNormalizationForm(f unicodeutil.Form) Option {
	return func(c *Config) { c.NormalizationForm = f }
}
func WithLowercase(b bool) Option           { return func(c *Config) { c.Lowercase = b } }
func WithStripAccents(b bool) Option        { return func(c *Config) { c.StripAccents = b } }
func WithNormalizeWhitespace(b bool) Option { return func(c *Config) { c.NormalizeWhitespace = b } }
func WithRemoveControlChars(b bool) Option  { return func(c *Config) { c.RemoveControlChars = b } }

func WithPreTokenizerPatterns(patterns []string) Option {
	return func(c *Config) { c.PreTokenizerPatterns = patterns }
}
func WithByteLevel(b bool) Option { return func(c *Config) { c.ByteLevel = b } }

func WithPostProcessor(family, template string) Option {
	return func(c *Config) { c.PostProcessorFamily = family; c.TemplateString = template }
}

func WithAddSpecialTokens(b bool) Option { return func(c *Config) { c.AddSpecialTokens = b } }
func WithMaxLength(n int) Option         { return func(c *Config) { c.MaxLength = n } }
func WithPadToMaxLength(b bool) Option   { return func(c *Config) { c.PadToMaxLength = b } }
func WithTruncationStrategy(s TruncationStrategy) Option {
	return func(c *Config) { c.TruncationStrategy = s }
}

func WithModelID(id string) Option { return func(c *Config) { c.ModelID = id } }
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}
