// Package normalize implements the normalization pipeline: an optional
// Unicode normalization form, custom transforms, accent stripping, and
// case folding, applied in the order spec.md §4.2 fixes.
//
// Generalized from the teacher's hftokenizer.go#applyNormalizer (a
// type-switch over a JSON-described normalizer tree) into a configured,
// composable Normalizer — the "Sequence" case there becomes the ordered
// steps here.
package normalize

import (
	"sync"

	"github.com/subtok/subtok/internal/unicodeutil"
)

// batchParallelThreshold is the batch size above which BatchNormalize may
// fan out across worker goroutines, per spec.md §4.2.
const batchParallelThreshold = 1000

// Transform is a user-supplied normalization step, run in insertion order
// after the Unicode form and before accent-stripping/case-folding.
type Transform func(string) string

// Options configures a Normalizer. The zero value applies no
// transformation (spec.md §4.2: "each step optional and independently
// togglable").
type Options struct {
	Form                unicodeutil.Form
	CustomTransforms    []Transform
	StripAccents        bool
	Lowercase           bool
	NormalizeWhitespace bool
	RemoveControlChars  bool
}

// Normalizer applies Options.Form -> custom transforms -> strip_accents ->
// lowercase, with RemoveControlChars run first and NormalizeWhitespace run
// last (supplementing spec.md §4.2's numbered steps, grounded on the
// BertNormalizer convention in the teacher — see SPEC_FULL.md §6).
type Normalizer struct {
	opts Options
}

// New builds a Normalizer from opts.
func New(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Normalize applies the configured pipeline to s. Empty input maps to
// empty output.
func (n *Normalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}
	if n.opts.RemoveControlChars {
		s = unicodeutil.RemoveControlChars(s)
	}
	s = unicodeutil.Normalize(n.opts.Form, s)
	for _, t := range n.opts.CustomTransforms {
		s = t(s)
	}
	if n.opts.StripAccents {
		s = unicodeutil.StripAccents(unicodeutil.Normalize(unicodeutil.FormNFD, s))
		s = unicodeutil.Normalize(unicodeutil.FormNFC, s)
	}
	if n.opts.Lowercase {
		s = unicodeutil.Lowercase(s)
	}
	if n.opts.NormalizeWhitespace {
		s = unicodeutil.NormalizeWhitespace(s)
	}
	return s
}

// BatchNormalize is semantically equivalent to mapping Normalize over in,
// preserving input order in the output. Once len(in) exceeds
// batchParallelThreshold the work fans out across goroutines, per
// spec.md §4.2 and §5's parallelism allowance.
func (n *Normalizer) BatchNormalize(in []string) []string {
	out := make([]string, len(in))
	if len(in) <= batchParallelThreshold {
		for i, s := range in {
			out[i] = n.Normalize(s)
		}
		return out
	}

	var wg sync.WaitGroup
	workers := 8
	chunk := (len(in) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= len(in) {
			break
		}
		if end > len(in) {
			end = len(in)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				out[i] = n.Normalize(in[i])
			}
		}(start, end)
	}
	wg.Wait()
	return out
}
