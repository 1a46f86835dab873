package chartrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subtok/subtok/tokenizererr"
	"github.com/subtok/subtok/vocab"
)

func TestEmptyCorpusFails(t *testing.T) {
	v := vocab.New()
	err := Train(nil, v, Options{UnknownToken: "[UNK]"})
	require.Error(t, err)
	var terr *tokenizererr.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, tokenizererr.EmptyCorpus, terr.Kind())
}

func TestSpecialTokensSeededFirst(t *testing.T) {
	v := vocab.New()
	require.NoError(t, Train([]string{"ab"}, v, Options{UnknownToken: "[UNK]", PadToken: "[PAD]"}))

	assert.Equal(t, int32(0), v.SpecialID(vocab.Unknown))
	assert.Equal(t, int32(1), v.SpecialID(vocab.Pad))
}

func TestDistinctRunesAddedInSortedOrder(t *testing.T) {
	v := vocab.New()
	require.NoError(t, Train([]string{"cba", "ab"}, v, Options{}))

	assert.True(t, v.Has("a"))
	assert.True(t, v.Has("b"))
	assert.True(t, v.Has("c"))
	assert.True(t, v.IDOf("a") < v.IDOf("b"))
	assert.True(t, v.IDOf("b") < v.IDOf("c"))
}

func TestMultiByteRuneTreatedAsOneToken(t *testing.T) {
	v := vocab.New()
	require.NoError(t, Train([]string{"café"}, v, Options{}))

	assert.True(t, v.Has("é"))
	assert.Equal(t, 4, v.Size()) // c, a, f, é (one token each)
}

func TestTrainingIsDeterministicAcrossRuns(t *testing.T) {
	corpus := []string{"the quick brown fox", "jumps over the lazy dog"}

	v1 := vocab.New()
	require.NoError(t, Train(corpus, v1, Options{UnknownToken: "[UNK]"}))

	v2 := vocab.New()
	require.NoError(t, Train(corpus, v2, Options{UnknownToken: "[UNK]"}))

	assert.Equal(t, v1.Size(), v2.Size())
	for _, r := range "the quick brown fox" {
		assert.Equal(t, v1.IDOf(string(r)), v2.IDOf(string(r)))
	}
}
