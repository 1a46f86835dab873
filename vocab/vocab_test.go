package vocab

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAssignsSequentialIDs(t *testing.T) {
	v := New()
	id0 := v.Add("hello")
	id1 := v.Add("world")
	assert.Equal(t, int32(0), id0)
	assert.Equal(t, int32(1), id1)
}

func TestAddIsIdempotentForExistingText(t *testing.T) {
	v := New()
	first := v.Add("hello")
	second := v.Add("hello")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, v.Size())
}

func TestBijection(t *testing.T) {
	v := New()
	for _, tok := range []string{"a", "b", "c"} {
		id := v.Add(tok)
		assert.Equal(t, tok, v.TextOf(id))
		assert.Equal(t, id, v.IDOf(tok))
	}
}

func TestAddWithIDDuplicateRejected(t *testing.T) {
	v := New()
	require.NoError(t, v.AddWithID("a", 5))
	err := v.AddWithID("b", 5)
	require.Error(t, err)
}

func TestAddWithIDAdvancesNextID(t *testing.T) {
	v := New()
	require.NoError(t, v.AddWithID("a", 10))
	next := v.Add("b")
	assert.Equal(t, int32(11), next)
}

func TestMarkSpecialDisjoint(t *testing.T) {
	v := New()
	ordinary := v.Add("cat")
	special := v.MarkSpecial("[CLS]", Cls)
	assert.False(t, v.IsSpecial(ordinary))
	assert.True(t, v.IsSpecial(special))
	assert.Equal(t, special, v.SpecialID(Cls))
	assert.Equal(t, "[CLS]", v.SpecialText(Cls))
}

func TestSpecialIDMissingRoleReturnsNegativeOne(t *testing.T) {
	v := New()
	assert.Equal(t, int32(-1), v.SpecialID(Mask))
	assert.Equal(t, "", v.SpecialText(Mask))
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	v := New()
	v.Add("hello")
	v.Add("world")
	v.MarkSpecial("[UNK]", Unknown)
	v.MarkSpecial("[PAD]", Pad)

	var buf bytes.Buffer
	require.NoError(t, v.Serialize(&buf))

	restored, err := Deserialize(&buf)
	require.NoError(t, err)

	assert.Equal(t, v.Size(), restored.Size())
	assert.Equal(t, v.IDOf("hello"), restored.IDOf("hello"))
	assert.Equal(t, v.SpecialID(Unknown), restored.SpecialID(Unknown))
	assert.True(t, restored.IsSpecial(restored.SpecialID(Pad)))

	// next_id must be strictly greater than every assigned id.
	newID := restored.Add("newtoken")
	assert.Greater(t, newID, int32(-1))
	for _, existing := range []string{"hello", "world", "[UNK]", "[PAD]"} {
		assert.NotEqual(t, newID, restored.IDOf(existing))
	}
}

func TestAddTokenWithScore(t *testing.T) {
	v := New()
	v.AddTokenWithScore("ab", -1.5)
	score, ok := v.Score("ab")
	require.True(t, ok)
	assert.InDelta(t, -1.5, score, 1e-9)

	_, ok = v.Score("absent")
	assert.False(t, ok)
}
