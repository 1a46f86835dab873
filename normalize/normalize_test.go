package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/subtok/subtok/internal/unicodeutil"
)

func TestEmptyInputMapsToEmptyOutput(t *testing.T) {
	n := New(Options{Lowercase: true, StripAccents: true, Form: unicodeutil.FormNFC})
	assert.Equal(t, "", n.Normalize(""))
}

func TestLowercase(t *testing.T) {
	n := New(Options{Lowercase: true})
	assert.Equal(t, "hello world", n.Normalize("Hello World"))
}

func TestStripAccents(t *testing.T) {
	n := New(Options{StripAccents: true})
	assert.Equal(t, "resume", n.Normalize("résumé"))
}

func TestIdempotence(t *testing.T) {
	n := New(Options{Form: unicodeutil.FormNFC, Lowercase: true, StripAccents: true, NormalizeWhitespace: true})
	once := n.Normalize("  Héllo   Wörld  ")
	twice := n.Normalize(once)
	assert.Equal(t, once, twice)
}

func TestCustomTransform(t *testing.T) {
	n := New(Options{CustomTransforms: []Transform{
		func(s string) string { return s + "!" },
	}})
	assert.Equal(t, "hi!", n.Normalize("hi"))
}

func TestNormalizeWhitespaceCollapsesRuns(t *testing.T) {
	n := New(Options{NormalizeWhitespace: true})
	assert.Equal(t, "a b c", n.Normalize("a   b\t\tc"))
}

func TestRemoveControlChars(t *testing.T) {
	n := New(Options{RemoveControlChars: true})
	assert.Equal(t, "ab", n.Normalize("a\x00b"))
}

func TestBatchNormalizePreservesOrder(t *testing.T) {
	n := New(Options{Lowercase: true})
	in := make([]string, 0, 2500)
	for i := 0; i < 2500; i++ {
		in = append(in, "ITEM")
	}
	in[1234] = "UNIQUE"
	out := n.BatchNormalize(in)
	assert.Len(t, out, 2500)
	assert.Equal(t, "unique", out[1234])
	assert.Equal(t, "item", out[0])
	assert.Equal(t, "item", out[2499])
}

func TestBatchNormalizeEquivalentToMap(t *testing.T) {
	n := New(Options{Lowercase: true, NormalizeWhitespace: true})
	in := []string{"Foo Bar", "  Baz  ", "QUX"}
	out := n.BatchNormalize(in)
	for i, s := range in {
		assert.Equal(t, n.Normalize(s), out[i])
	}
}
