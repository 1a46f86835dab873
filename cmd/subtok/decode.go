package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/subtok/subtok/tokenizer"
)

func newDecodeCmd() *cobra.Command {
	var modelPath string
	var skipSpecial bool

	cmd := &cobra.Command{
		Use:   "decode [ids...]",
		Short: "Decode a sequence of token ids back into text using a saved tokenizer model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := tokenizer.Load(modelPath)
			if err != nil {
				return err
			}

			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), p.Decode(ids, skipSpecial))
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "path to a saved tokenizer model file (required)")
	cmd.Flags().BoolVar(&skipSpecial, "skip-special", true, "omit special tokens from the decoded output")
	cmd.MarkFlagRequired("model")

	return cmd
}

func parseIDs(args []string) ([]int32, error) {
	var ids []int32
	for _, arg := range args {
		for _, field := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' }) {
			n, err := strconv.ParseInt(field, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid token id %q: %w", field, err)
			}
			ids = append(ids, int32(n))
		}
	}
	return ids, nil
}
