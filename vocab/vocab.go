// Package vocab implements the bidirectional token<->id mapping shared by
// every segmentation model, along with special-token role tagging.
//
// This is a direct generalization of the original Aura-Tokenizer Vocab
// class (vocab.cpp/vocab.h): token_to_id_/id_to_token_ become Go maps,
// special_token_ids_/special_ids_set_ stay as a role map and an id set.
package vocab

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/subtok/subtok/tokenizererr"
)

// SpecialTokenType enumerates the structural roles a token can be tagged
// with, per spec.md §3's nine canonical roles.
type SpecialTokenType int

const (
	Unknown SpecialTokenType = iota
	Pad
	Bos
	Eos
	Mask
	Sep
	Cls
	Blank
	Custom
)

var specialTokenNames = [...]string{"UNK", "PAD", "BOS", "EOS", "MASK", "SEP", "CLS", "BLANK", "CUSTOM"}

func (t SpecialTokenType) String() string {
	if int(t) < 0 || int(t) >= len(specialTokenNames) {
		return "UNKNOWN_ROLE"
	}
	return specialTokenNames[t]
}

// Vocab is a bijective token<->id mapping plus special-token bookkeeping.
// Construct one with New; the zero value has nil maps and cannot be
// added to.
type Vocab struct {
	tokenToID map[string]int32
	idToToken map[int32]string

	specialIDs   map[SpecialTokenType]int32
	specialIDSet map[int32]bool

	// scores holds Unigram log-probabilities when this Vocab doubles as a
	// Unigram candidate set (see vocab.AddTokenWithScore). Absent entries
	// are not Unigram candidates.
	scores map[string]float32

	nextID int32
}

// New returns an empty, ready-to-use Vocab.
func New() *Vocab {
	return &Vocab{
		tokenToID:    make(map[string]int32),
		idToToken:    make(map[int32]string),
		specialIDs:   make(map[SpecialTokenType]int32),
		specialIDSet: make(map[int32]bool),
		scores:       make(map[string]float32),
	}
}

// Add assigns text the next unused id, or returns its existing id if
// already present. Empty text is a no-op returning -1.
func (v *Vocab) Add(text string) int32 {
	if text == "" {
		return -1
	}
	if id, ok := v.tokenToID[text]; ok {
		return id
	}
	id := v.nextID
	v.nextID++
	v.tokenToID[text] = id
	v.idToToken[id] = text
	return id
}

// AddWithID assigns text the given id. It fails with DuplicateID if id is
// already taken by a different text. Adding the same (text, id) pair twice
// is a no-op. next_id advances past id if needed.
func (v *Vocab) AddWithID(text string, id int32) error {
	if text == "" {
		return tokenizererr.New(tokenizererr.InvalidParameter, "cannot add empty token text")
	}
	if existingText, ok := v.idToToken[id]; ok {
		if existingText != text {
			return tokenizererr.New(tokenizererr.DuplicateID, "id %d already assigned to %q, cannot reassign to %q", id, existingText, text)
		}
		return nil
	}
	if existingID, ok := v.tokenToID[text]; ok {
		if existingID != id {
			return tokenizererr.New(tokenizererr.DuplicateID, "token %q already has id %d, cannot reassign to %d", text, existingID, id)
		}
		return nil
	}
	v.tokenToID[text] = id
	v.idToToken[id] = text
	if id >= v.nextID {
		v.nextID = id + 1
	}
	return nil
}

// AddTokenWithScore adds text like Add, and additionally records a
// Unigram log-probability score for it. Unlike the original's
// add_token_with_score (which discarded the score, see DESIGN.md), this
// wires the score into the UnigramScore map so a WordPiece/BPE vocab can
// double as a Unigram candidate set.
func (v *Vocab) AddTokenWithScore(text string, score float32) int32 {
	id := v.Add(text)
	if id >= 0 {
		v.scores[text] = score
	}
	return id
}

// Score returns the Unigram log-probability for text, and whether one was
// recorded.
func (v *Vocab) Score(text string) (float32, bool) {
	s, ok := v.scores[text]
	return s, ok
}

// ScoredTokens returns every token text that has a recorded Unigram
// score, in no particular order — the candidate set model/unigram
// indexes for Viterbi segmentation.
func (v *Vocab) ScoredTokens() []string {
	out := make([]string, 0, len(v.scores))
	for text := range v.scores {
		out = append(out, text)
	}
	return out
}

// IDOf returns the id for text, or -1 if absent.
func (v *Vocab) IDOf(text string) int32 {
	if id, ok := v.tokenToID[text]; ok {
		return id
	}
	return -1
}

// TextOf returns the text for id, or "" if absent.
func (v *Vocab) TextOf(id int32) string {
	return v.idToToken[id]
}

// Has reports whether text is present.
func (v *Vocab) Has(text string) bool {
	_, ok := v.tokenToID[text]
	return ok
}

// HasID reports whether id is present.
func (v *Vocab) HasID(id int32) bool {
	_, ok := v.idToToken[id]
	return ok
}

// Size returns the number of distinct tokens.
func (v *Vocab) Size() int {
	return len(v.tokenToID)
}

// MarkSpecial registers text (adding it if needed), records role -> id,
// and tags the id as special.
func (v *Vocab) MarkSpecial(text string, role SpecialTokenType) int32 {
	id := v.Add(text)
	if id < 0 {
		return id
	}
	v.specialIDs[role] = id
	v.specialIDSet[id] = true
	return id
}

// IsSpecial reports whether id was tagged special via MarkSpecial, in O(1).
func (v *Vocab) IsSpecial(id int32) bool {
	return v.specialIDSet[id]
}

// IsSpecialText reports whether text is a tagged special token.
func (v *Vocab) IsSpecialText(text string) bool {
	id, ok := v.tokenToID[text]
	return ok && v.specialIDSet[id]
}

// SpecialID returns the id assigned to role, or -1 if the role has none.
func (v *Vocab) SpecialID(role SpecialTokenType) int32 {
	if id, ok := v.specialIDs[role]; ok {
		return id
	}
	return -1
}

// SpecialText returns the token text assigned to role, or "" if none.
func (v *Vocab) SpecialText(role SpecialTokenType) string {
	return v.TextOf(v.SpecialID(role))
}

// SpecialTokens returns all tokens tagged special, in id order.
func (v *Vocab) SpecialTokens() []string {
	ids := make([]int32, 0, len(v.specialIDSet))
	for id := range v.specialIDSet {
		ids = append(ids, id)
	}
	sortInt32s(ids)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = v.idToToken[id]
	}
	return out
}

func sortInt32s(s []int32) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// writeString writes a length-prefixed (u64 little-endian) UTF-8 string.
func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// Serialize writes the vocabulary block described in spec.md §6: u64
// size, then size records of {u64 text_len, bytes text, i32 id}, then the
// special-role table {u64 count, {role_tag: u8, i32 id} * count}.
func (v *Vocab) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(v.tokenToID))); err != nil {
		return errors.Wrap(err, "writing vocab size")
	}
	for text, id := range v.tokenToID {
		if err := writeString(w, text); err != nil {
			return errors.Wrapf(err, "writing vocab entry %q", text)
		}
		if err := binary.Write(w, binary.LittleEndian, id); err != nil {
			return errors.Wrapf(err, "writing id for %q", text)
		}
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(v.specialIDs))); err != nil {
		return errors.Wrap(err, "writing special-role count")
	}
	for role, id := range v.specialIDs {
		if err := binary.Write(w, binary.LittleEndian, uint8(role)); err != nil {
			return errors.Wrap(err, "writing role tag")
		}
		if err := binary.Write(w, binary.LittleEndian, id); err != nil {
			return errors.Wrap(err, "writing role id")
		}
	}
	return nil
}

// Deserialize restores a Vocab from the wire format Serialize produced.
// next_id is restored to 1 + max(id) as spec.md §4.1 requires.
func Deserialize(r io.Reader) (*Vocab, error) {
	v := New()
	var size uint64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, errors.Wrap(err, "reading vocab size")
	}
	var maxID int32 = -1
	for i := uint64(0); i < size; i++ {
		text, err := readString(r)
		if err != nil {
			return nil, tokenizererr.New(tokenizererr.MalformedModelFile, "truncated vocab entry %d: %v", i, err)
		}
		var id int32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, tokenizererr.New(tokenizererr.MalformedModelFile, "truncated id for entry %d: %v", i, err)
		}
		v.tokenToID[text] = id
		v.idToToken[id] = text
		if id > maxID {
			maxID = id
		}
	}
	var roleCount uint64
	if err := binary.Read(r, binary.LittleEndian, &roleCount); err != nil {
		return nil, errors.Wrap(err, "reading special-role count")
	}
	for i := uint64(0); i < roleCount; i++ {
		var roleTag uint8
		if err := binary.Read(r, binary.LittleEndian, &roleTag); err != nil {
			return nil, tokenizererr.New(tokenizererr.MalformedModelFile, "truncated role tag %d: %v", i, err)
		}
		var id int32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, tokenizererr.New(tokenizererr.MalformedModelFile, "truncated role id %d: %v", i, err)
		}
		role := SpecialTokenType(roleTag)
		v.specialIDs[role] = id
		v.specialIDSet[id] = true
	}
	v.nextID = maxID + 1
	return v, nil
}
