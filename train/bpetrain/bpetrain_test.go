package bpetrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subtok/subtok/tokenizererr"
	"github.com/subtok/subtok/vocab"
)

func TestEmptyCorpusFails(t *testing.T) {
	_, err := Train(nil, vocab.New(), Options{VocabSize: 10, MinFrequency: 1})
	require.Error(t, err)
	var terr *tokenizererr.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, tokenizererr.EmptyCorpus, terr.Kind())
}

func TestInvalidVocabSizeFails(t *testing.T) {
	_, err := Train([]string{"a"}, vocab.New(), Options{VocabSize: 0, MinFrequency: 1})
	require.Error(t, err)
}

func TestInvalidMinFrequencyFails(t *testing.T) {
	_, err := Train([]string{"a"}, vocab.New(), Options{VocabSize: 10, MinFrequency: 0})
	require.Error(t, err)
}

// TestSeedScenarioFirstThreeMerges pins down the literal seed scenario
// from the spec: training on this corpus, the first three merges must
// be ("e","s"), ("es","t</w>"), ("l","o") in that order.
func TestSeedScenarioFirstThreeMerges(t *testing.T) {
	corpus := []string{
		"low low low low low",
		"lower lower",
		"newest newest newest newest newest newest",
		"widest widest widest",
	}
	v := vocab.New()
	v.MarkSpecial("[UNK]", vocab.Unknown)

	result, err := Train(corpus, v, Options{VocabSize: 20, MinFrequency: 1, UnknownToken: "[UNK]"})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(result.Rules), 3)

	assert.Equal(t, "e", result.Rules[0].Left)
	assert.Equal(t, "s", result.Rules[0].Right)
	assert.Equal(t, "es", result.Rules[1].Left)
	assert.Equal(t, "t</w>", result.Rules[1].Right)
	assert.Equal(t, "l", result.Rules[2].Left)
	assert.Equal(t, "o", result.Rules[2].Right)
}

func TestVocabMonotoneGrowth(t *testing.T) {
	corpus := []string{"aaa bbb ccc", "aaa bbb", "ccc ddd"}
	v := vocab.New()
	before := v.Size()

	result, err := Train(corpus, v, Options{VocabSize: 50, MinFrequency: 1})
	require.NoError(t, err)

	after := v.Size()
	assert.Equal(t, before+numCharsSeeded(corpus)+len(result.Rules), after)
}

// numCharsSeeded recomputes the distinct character count the corpus
// would seed, to check vocab growth independent of merge count.
func numCharsSeeded(corpus []string) int {
	v := vocab.New()
	seedVocab(v, Options{MinFrequency: 1}, countWords(corpus, nil))
	return v.Size()
}

func TestTrainingIsDeterministicAcrossRuns(t *testing.T) {
	corpus := []string{"low low low", "lower lower", "newest newest newest", "widest widest"}
	v1 := vocab.New()
	r1, err := Train(corpus, v1, Options{VocabSize: 30, MinFrequency: 1})
	require.NoError(t, err)

	v2 := vocab.New()
	r2, err := Train(corpus, v2, Options{VocabSize: 30, MinFrequency: 1})
	require.NoError(t, err)

	assert.Equal(t, r1.Rules, r2.Rules)
}
