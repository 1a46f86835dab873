package tokenizer

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/subtok/subtok/model"
	"github.com/subtok/subtok/model/bpe"
	"github.com/subtok/subtok/model/charlevel"
	"github.com/subtok/subtok/model/unigram"
	"github.com/subtok/subtok/model/wordpiece"
	"github.com/subtok/subtok/tokenizererr"
	"github.com/subtok/subtok/vocab"
)

// Save writes the model file format spec.md §6 describes (config
// block, vocabulary block, then an algorithm-specific block) to path.
// The write goes to a temporary file in the same directory under an
// exclusive advisory lock, then is renamed into place atomically —
// the same locked-write-then-rename idiom the teacher's
// hub/download.go uses for concurrent-safe file writes, swapping its
// download lock for a save lock scoped to path.
func (p *Pipeline) Save(path string) error {
	if path == "" {
		return tokenizererr.New(tokenizererr.InvalidParameter, "save path must not be empty")
	}
	if p.Model == nil {
		return tokenizererr.New(tokenizererr.ModelNotLoaded, "save called before a model was installed")
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return errors.Wrapf(err, "locking %s for save", path)
	}
	if !locked {
		return tokenizererr.New(tokenizererr.IoFailure, "another process holds the save lock for %s", path)
	}
	defer lock.Unlock()

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return errors.Wrapf(err, "creating temp file for %s", tmpPath)
	}

	if err := p.writeModelFile(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "closing temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "renaming %s into place", path)
	}

	p.logger.Debug("tokenizer saved", "path", path, "algorithm", p.Model.Algorithm().String())
	return nil
}

func (p *Pipeline) writeModelFile(w io.Writer) error {
	if err := writeConfigBlock(w, p.Config, p.Model.Algorithm()); err != nil {
		return errors.Wrap(err, "writing config block")
	}
	if err := p.Vocab.Serialize(w); err != nil {
		return errors.Wrap(err, "writing vocabulary block")
	}

	switch m := p.Model.(type) {
	case *bpe.Model:
		if err := writeMergeRulesBlock(w, m.Rules()); err != nil {
			return errors.Wrap(err, "writing merge-rules block")
		}
	case *unigram.Model:
		if err := writeScoresBlock(w, p.Vocab); err != nil {
			return errors.Wrap(err, "writing scores block")
		}
	}
	return nil
}

// The key* constants name the textual key=value fields written to
// the config block, per spec.md §6 "the textual key=value form is an
// acceptable wire format for this spec".
const (
	keyAlgorithm          = "algorithm"
	keyMaxLength          = "max_length"
	keyPadToMaxLength     = "pad_to_max_length"
	keyTruncationStrategy = "truncation_strategy"
	keyPostProcessorFamily = "post_processor_family"
	keyTemplateString     = "template_string"
	keyAddSpecialTokens   = "add_special_tokens"
	keyModelID            = "model_id"
)

func writeConfigBlock(w io.Writer, cfg *Config, algorithm model.Algorithm) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s=%s\n", keyAlgorithm, algorithm.String())
	fmt.Fprintf(&buf, "%s=%d\n", keyMaxLength, cfg.MaxLength)
	fmt.Fprintf(&buf, "%s=%t\n", keyPadToMaxLength, cfg.PadToMaxLength)
	fmt.Fprintf(&buf, "%s=%d\n", keyTruncationStrategy, int(cfg.TruncationStrategy))
	fmt.Fprintf(&buf, "%s=%s\n", keyPostProcessorFamily, cfg.PostProcessorFamily)
	fmt.Fprintf(&buf, "%s=%s\n", keyTemplateString, escapeNewlines(cfg.TemplateString))
	fmt.Fprintf(&buf, "%s=%t\n", keyAddSpecialTokens, cfg.AddSpecialTokens)
	fmt.Fprintf(&buf, "%s=%s\n", keyModelID, cfg.ModelID)

	return writeBytesBlock(w, buf.Bytes())
}

func escapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", `\n`)
}

func unescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

func writeBytesBlock(w io.Writer, data []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readBytesBlock(r io.Reader) ([]byte, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, tokenizererr.New(tokenizererr.MalformedModelFile, "truncated config block length: %v", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, tokenizererr.New(tokenizererr.MalformedModelFile, "truncated config block: %v", err)
	}
	return buf, nil
}

func parseConfigBlock(data []byte) map[string]string {
	out := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		out[parts[0]] = unescapeNewlines(parts[1])
	}
	return out
}

func writeMergeRulesBlock(w io.Writer, rules []bpe.MergeRule) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(rules))); err != nil {
		return err
	}
	for _, rule := range rules {
		if err := writeLenPrefixedString(w, rule.Left); err != nil {
			return err
		}
		if err := writeLenPrefixedString(w, rule.Right); err != nil {
			return err
		}
	}
	return nil
}

func readMergeRulesBlock(r io.Reader) ([]bpe.MergeRule, error) {
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, tokenizererr.New(tokenizererr.MalformedModelFile, "truncated merge-rule count: %v", err)
	}
	rules := make([]bpe.MergeRule, 0, count)
	for i := uint64(0); i < count; i++ {
		left, err := readLenPrefixedString(r)
		if err != nil {
			return nil, tokenizererr.New(tokenizererr.MalformedModelFile, "truncated merge rule %d left: %v", i, err)
		}
		right, err := readLenPrefixedString(r)
		if err != nil {
			return nil, tokenizererr.New(tokenizererr.MalformedModelFile, "truncated merge rule %d right: %v", i, err)
		}
		rules = append(rules, bpe.MergeRule{Left: left, Right: right})
	}
	return rules, nil
}

func writeScoresBlock(w io.Writer, v *vocab.Vocab) error {
	tokens := v.ScoredTokens()
	if err := binary.Write(w, binary.LittleEndian, uint64(len(tokens))); err != nil {
		return err
	}
	for _, text := range tokens {
		score, _ := v.Score(text)
		if err := writeLenPrefixedString(w, text); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, score); err != nil {
			return err
		}
	}
	return nil
}

func readScoresBlock(r io.Reader, v *vocab.Vocab) error {
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return tokenizererr.New(tokenizererr.MalformedModelFile, "truncated scores count: %v", err)
	}
	for i := uint64(0); i < count; i++ {
		text, err := readLenPrefixedString(r)
		if err != nil {
			return tokenizererr.New(tokenizererr.MalformedModelFile, "truncated score entry %d text: %v", i, err)
		}
		var score float32
		if err := binary.Read(r, binary.LittleEndian, &score); err != nil {
			return tokenizererr.New(tokenizererr.MalformedModelFile, "truncated score entry %d value: %v", i, err)
		}
		v.AddTokenWithScore(text, score)
	}
	return nil
}

func writeLenPrefixedString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readLenPrefixedString(r io.Reader) (string, error) {
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

// Load restores a Pipeline from the file format Save wrote. Any
// trailing bytes are an error, per spec.md §6 "Any trailing bytes are
// an error".
func Load(path string) (*Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	configData, err := readBytesBlock(f)
	if err != nil {
		return nil, err
	}
	kv := parseConfigBlock(configData)

	cfg := New()
	if v, ok := kv[keyMaxLength]; ok {
		cfg.MaxLength, _ = strconv.Atoi(v)
	}
	if v, ok := kv[keyPadToMaxLength]; ok {
		cfg.PadToMaxLength = v == "true"
	}
	if v, ok := kv[keyTruncationStrategy]; ok {
		n, _ := strconv.Atoi(v)
		cfg.TruncationStrategy = TruncationStrategy(n)
	}
	cfg.PostProcessorFamily = kv[keyPostProcessorFamily]
	cfg.TemplateString = kv[keyTemplateString]
	cfg.AddSpecialTokens = kv[keyAddSpecialTokens] == "true"
	cfg.ModelID = kv[keyModelID]

	v, err := vocab.Deserialize(f)
	if err != nil {
		return nil, err
	}

	p, err := NewPipeline(cfg, v)
	if err != nil {
		return nil, err
	}

	switch kv[keyAlgorithm] {
	case model.AlgorithmBPE.String():
		rules, err := readMergeRulesBlock(f)
		if err != nil {
			return nil, err
		}
		p.SetModel(bpe.New(rules))
	case model.AlgorithmUnigram.String():
		if err := readScoresBlock(f, v); err != nil {
			return nil, err
		}
		p.SetModel(unigram.New(v, v.SpecialText(vocab.Unknown)))
	case model.AlgorithmWordPiece.String():
		p.SetModel(wordpiece.New(v.SpecialText(vocab.Unknown), wordpiece.DefaultMaxInputCharsPerWord))
	case model.AlgorithmCharLevel.String():
		p.SetModel(charlevel.New())
	}

	if extra, err := io.ReadAll(f); err == nil && len(extra) > 0 {
		return nil, tokenizererr.New(tokenizererr.MalformedModelFile, "%d trailing bytes after expected sections", len(extra))
	}

	return p, nil
}
