package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Wolfe-Jam/faf-go/pkg/fafb"
	"github.com/Wolfe-Jam/faf-go/pkg/tokens"
)

func newTokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens <file.fafb>",
		Short: "Report per-section token costs",
		Long: `tokens prints the token cost of each section. Without --model it
reads the stored estimates from the section table; with --model it
decodes the sections and counts them with that model's tokenizer.`,
		Args: cobra.ExactArgs(1),
		RunE: runTokens,
	}

	cmd.Flags().String("model", "", "Tokenizer model for exact counts")

	return cmd
}

func runTokens(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	model, _ := cmd.Flags().GetString("model")

	if model == "" {
		_, entries, err := fafb.Inspect(data)
		if err != nil {
			return err
		}
		total := 0
		for _, e := range entries {
			fmt.Printf("%-14s ~%d\n", e.Type(), e.TokenEstimate())
			total += e.TokenEstimate()
		}
		fmt.Printf("total ~%d tokens (stored estimates)\n", total)
		return nil
	}

	counter, err := tokens.NewTiktokenCounter(model)
	if err != nil {
		return err
	}
	doc, err := fafb.Load(data)
	if err != nil && doc == nil {
		return err
	}
	desc := doc.Description()
	if desc == nil {
		return fmt.Errorf("%s has no identity section to count", args[0])
	}

	total := 0
	for _, t := range fafb.CoreSectionTypes() {
		text, ok := fafb.SectionPlaintext(desc, t)
		if !ok || text == "" {
			continue
		}
		n, err := counter.Count(text)
		if err != nil {
			return err
		}
		fmt.Printf("%-14s %d\n", t, n)
		total += n
	}
	fmt.Printf("total %d tokens (%s)\n", total, counter.Model())
	return nil
}
