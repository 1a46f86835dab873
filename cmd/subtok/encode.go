package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/subtok/subtok/tokenizer"
)

func newEncodeCmd() *cobra.Command {
	var modelPath string
	var maxLength int
	var pad bool

	cmd := &cobra.Command{
		Use:   "encode [text...]",
		Short: "Encode text into token ids using a saved tokenizer model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := tokenizer.Load(modelPath)
			if err != nil {
				return err
			}
			if maxLength > 0 {
				p.Config.MaxLength = maxLength
			}
			p.Config.PadToMaxLength = pad

			text := strings.Join(args, " ")
			row, err := p.Encode(text)
			if err != nil {
				return err
			}

			ids := make([]string, len(row.InputIDs))
			for i, id := range row.InputIDs {
				ids[i] = strconv.Itoa(int(id))
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(ids, " "))
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "path to a saved tokenizer model file (required)")
	cmd.Flags().IntVar(&maxLength, "max-length", 0, "override the model's configured max sequence length")
	cmd.Flags().BoolVar(&pad, "pad", false, "pad the sequence to max-length")
	cmd.MarkFlagRequired("model")

	return cmd
}
