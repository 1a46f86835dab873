package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/subtok/subtok/model/bpe"
	"github.com/subtok/subtok/model/charlevel"
	"github.com/subtok/subtok/tokenizer"
	"github.com/subtok/subtok/tokenizererr"
	"github.com/subtok/subtok/train/bpetrain"
	"github.com/subtok/subtok/train/chartrain"
	"github.com/subtok/subtok/vocab"
)

func newTrainCmd() *cobra.Command {
	var corpusPath string
	var algorithm string
	var vocabSize int
	var minFrequency int
	var unknownToken string
	var outPath string
	var modelID string
	var maxTokens int

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a tokenizer from a line-oriented text corpus (bpe or char)",
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := readLines(corpusPath)
			if err != nil {
				return err
			}

			if modelID == "" {
				modelID = uuid.NewString()
			}

			v := vocab.New()
			cfg := tokenizer.New(
				tokenizer.WithVocabSize(vocabSize),
				tokenizer.WithMinFrequency(minFrequency),
				tokenizer.WithMaxTokens(maxTokens),
				tokenizer.WithModelID(modelID),
			)
			p, err := tokenizer.NewPipeline(cfg, v)
			if err != nil {
				return err
			}

			// MaxTokens, when set, is a hard ceiling on the trained
			// vocabulary that overrides the vocab-size target.
			effectiveVocabSize := vocabSize
			if cfg.MaxTokens > 0 && cfg.MaxTokens < effectiveVocabSize {
				effectiveVocabSize = cfg.MaxTokens
			}

			var merges int
			switch algorithm {
			case "bpe":
				result, err := bpetrain.Train(lines, v, bpetrain.Options{
					VocabSize:    effectiveVocabSize,
					MinFrequency: minFrequency,
					UnknownToken: unknownToken,
				})
				if err != nil {
					return err
				}
				p.SetModel(bpe.New(result.Rules))
				merges = len(result.Rules)
			case "char":
				if err := chartrain.Train(lines, v, chartrain.Options{UnknownToken: unknownToken}); err != nil {
					return err
				}
				p.SetModel(charlevel.New())
			default:
				return tokenizererr.New(tokenizererr.UnsupportedAlgorithm, "algorithm %q has no trainer; use bpe or char", algorithm)
			}

			if err := p.Save(outPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "trained %d merges, vocab size %d, model id %s, saved to %s\n", merges, v.Size(), modelID, outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "", "path to a line-oriented training corpus (required)")
	cmd.Flags().StringVar(&algorithm, "algorithm", "bpe", "segmentation algorithm to train: bpe or char")
	cmd.Flags().IntVar(&vocabSize, "vocab-size", 30000, "target vocabulary size (bpe only)")
	cmd.Flags().IntVar(&minFrequency, "min-frequency", 2, "minimum character frequency to seed the vocabulary (bpe only)")
	cmd.Flags().StringVar(&unknownToken, "unk", "[UNK]", "unknown token text")
	cmd.Flags().StringVar(&outPath, "out", "tokenizer.bin", "output model file path")
	cmd.Flags().StringVar(&modelID, "model-id", "", "provenance id stamped into the saved model (default: a generated uuid)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "hard ceiling on trained vocabulary size, overriding --vocab-size when smaller (0 means no ceiling)")
	cmd.MarkFlagRequired("corpus")

	return cmd
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
