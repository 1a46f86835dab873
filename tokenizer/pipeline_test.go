package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subtok/subtok/model/charlevel"
	"github.com/subtok/subtok/model/wordpiece"
	"github.com/subtok/subtok/pretokenize"
	"github.com/subtok/subtok/tokenizererr"
	"github.com/subtok/subtok/vocab"
)

func buildBertWordPieceVocab() *vocab.Vocab {
	v := vocab.New()
	v.MarkSpecial("[CLS]", vocab.Cls)
	v.MarkSpecial("[SEP]", vocab.Sep)
	v.MarkSpecial("[UNK]", vocab.Unknown)
	for _, tok := range []string{"un", "##aff", "##able", "do", "##ing"} {
		v.Add(tok)
	}
	return v
}

// TestBertStyleWordPieceSeedScenario pins spec.md §8 seed scenario 2:
// encoding "unaffable doing" with a BERT post-processor yields ids for
// [CLS], un, ##aff, ##able, do, ##ing, [SEP] in that order.
func TestBertStyleWordPieceSeedScenario(t *testing.T) {
	v := buildBertWordPieceVocab()
	cfg := New(WithPostProcessor("bert", ""), WithAddSpecialTokens(true))
	p, err := NewPipeline(cfg, v)
	require.NoError(t, err)
	p.SetModel(wordpiece.New("[UNK]", wordpiece.DefaultMaxInputCharsPerWord))

	row, err := p.Encode("unaffable doing")
	require.NoError(t, err)

	expect := []int32{
		v.SpecialID(vocab.Cls),
		v.IDOf("un"), v.IDOf("##aff"), v.IDOf("##able"),
		v.IDOf("do"), v.IDOf("##ing"),
		v.SpecialID(vocab.Sep),
	}
	assert.Equal(t, expect, row.InputIDs)
}

func TestEncodeWithoutModelReturnsModelNotLoaded(t *testing.T) {
	p, err := NewPipeline(New(), vocab.New())
	require.NoError(t, err)

	_, err = p.Encode("hello")
	require.Error(t, err)
	var terr *tokenizererr.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, tokenizererr.ModelNotLoaded, terr.Kind())
}

// TestTruncationAndPaddingSeedScenario pins spec.md §8 seed scenario
// 6: a 7-id post-processed sequence with boundary BOS/EOS specials,
// truncated to max_length=5 under LONGEST_FIRST, and separately padded
// to max_length=9.
func TestTruncationAndPaddingSeedScenario(t *testing.T) {
	v := vocab.New()
	v.AddWithID("[PAD]", 0)
	v.MarkSpecial("[PAD]", vocab.Pad)
	v.AddWithID("<bos>", 1)
	v.MarkSpecial("<bos>", vocab.Bos)
	v.AddWithID("<eos>", 2)
	v.MarkSpecial("<eos>", vocab.Eos)
	letters := []string{"a", "b", "c", "d", "e"}
	for i, letter := range letters {
		v.AddWithID(letter, int32(10+i))
	}

	t.Run("truncate helper matches seed scenario exactly", func(t *testing.T) {
		cfg := New(WithMaxLength(5), WithTruncationStrategy(LongestFirst))
		p := &Pipeline{Config: cfg, Vocab: v}
		ids := []int32{1, 10, 11, 12, 13, 14, 2}
		types := make([]int32, len(ids))
		offsets := make([]Offset, len(ids))

		outIDs, _, _, _ := p.truncate(ids, types, offsets)
		assert.Equal(t, []int32{1, 10, 11, 12, 2}, outIDs)
	})

	t.Run("padding to max_length=9", func(t *testing.T) {
		cfg := New(WithMaxLength(9), WithPadToMaxLength(true),
			WithPostProcessor("template", "<bos>{{message}}<eos>"), WithAddSpecialTokens(true))
		p, err := NewPipeline(cfg, v)
		require.NoError(t, err)
		p.SetModel(charlevel.New())

		// "abcde" segments to ids 10..14; the template wraps them in
		// <bos>/<eos>, giving the 7-id sequence padded with [PAD] (id 0).
		row, err := p.Encode("abcde")
		require.NoError(t, err)
		assert.Equal(t, []int32{1, 10, 11, 12, 13, 14, 2, 0, 0}, row.InputIDs)
	})
}

// TestByteLevelRoundTripSeedScenario pins spec.md §8 seed scenario 3:
// decode(encode("héllo"), skip_special=true) == "héllo", exercised
// through the public Encode/Decode API rather than the pretokenizer
// alone, since a byte-level config must reverse the GPT-2 byte<->unicode
// mapping on the way out.
func TestByteLevelRoundTripSeedScenario(t *testing.T) {
	original := "héllo"
	byteWords, err := pretokenize.ByteLevel{}.PreTokenize(original)
	require.NoError(t, err)

	v := vocab.New()
	for _, w := range byteWords {
		v.Add(w.Text)
	}

	cfg := New(WithByteLevel(true))
	p, err := NewPipeline(cfg, v)
	require.NoError(t, err)
	p.SetModel(charlevel.New())

	row, err := p.Encode(original)
	require.NoError(t, err)

	decoded := p.Decode(row.InputIDs, true)
	assert.Equal(t, original, decoded)
}

func TestBatchEncodeEquivalentToEncode(t *testing.T) {
	v := buildBertWordPieceVocab()
	cfg := New(WithPostProcessor("bert", ""), WithAddSpecialTokens(true))
	p, err := NewPipeline(cfg, v)
	require.NoError(t, err)
	p.SetModel(wordpiece.New("[UNK]", wordpiece.DefaultMaxInputCharsPerWord))

	texts := []string{"unaffable doing", "do unaffable"}
	batch, err := p.EncodeBatch(texts)
	require.NoError(t, err)

	for i, text := range texts {
		row, err := p.Encode(text)
		require.NoError(t, err)
		assert.Equal(t, row.InputIDs, batch.InputIDs[i])
	}
}
