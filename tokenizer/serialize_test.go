package tokenizer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subtok/subtok/model/bpe"
	"github.com/subtok/subtok/vocab"
)

func TestSaveLoadRoundTripBPE(t *testing.T) {
	v := vocab.New()
	v.MarkSpecial("[UNK]", vocab.Unknown)
	for _, c := range []string{"l", "o", "w", "n", "e", "s", "t", "r", "i", "d", "w</w>", "t</w>", "r</w>"} {
		v.Add(c)
	}
	rules := []bpe.MergeRule{{Left: "e", Right: "s"}, {Left: "es", Right: "t</w>"}}

	cfg := New(WithMaxLength(16), WithAddSpecialTokens(true), WithPostProcessor("bert", ""))
	p, err := NewPipeline(cfg, v)
	require.NoError(t, err)
	p.SetModel(bpe.New(rules))

	path := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, p.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, p.Vocab.Size(), loaded.Vocab.Size())
	assert.Equal(t, cfg.MaxLength, loaded.Config.MaxLength)
	assert.Equal(t, cfg.AddSpecialTokens, loaded.Config.AddSpecialTokens)
	require.NotNil(t, loaded.Model)

	loadedBPE, ok := loaded.Model.(*bpe.Model)
	require.True(t, ok)
	assert.Equal(t, rules, loadedBPE.Rules())
}

func TestSaveRejectsEmptyPath(t *testing.T) {
	v := vocab.New()
	p, err := NewPipeline(New(), v)
	require.NoError(t, err)
	p.SetModel(bpe.New(nil))

	err = p.Save("")
	require.Error(t, err)
}

func TestSaveRejectsNoModel(t *testing.T) {
	p, err := NewPipeline(New(), vocab.New())
	require.NoError(t, err)

	err = p.Save(filepath.Join(t.TempDir(), "model.bin"))
	require.Error(t, err)
}
