package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Wolfe-Jam/faf-go/pkg/embed"
	"github.com/Wolfe-Jam/faf-go/pkg/faf"
	"github.com/Wolfe-Jam/faf-go/pkg/fafb"
)

func newEmbedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed [path]",
		Short: "Compile a .faf file with an embedding layer",
		Long: `embed compiles a .faf file like compile does, then attaches an
embedding layer built from the section texts via an OpenAI-compatible
API. The API key comes from OPENAI_API_KEY.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runEmbed,
	}

	cmd.Flags().StringP("output", "o", "", "Output path (default: alongside the source)")
	cmd.Flags().String("base-url", "", "Embedding API base URL")
	cmd.Flags().String("model", "", "Embedding model")
	cmd.Flags().Int("dimensions", 0, "Embedding dimensions")

	return cmd
}

func runEmbed(cmd *cobra.Command, args []string) error {
	srcPath, err := discoverSource(args)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}
	d, err := faf.Parse(src)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var popts []embed.OpenAIOption
	if baseURL := flagOrConfig(cmd, "base-url", cfg.Embedding.BaseURL); baseURL != "" {
		popts = append(popts, embed.WithBaseURL(baseURL))
	}
	if model := flagOrConfig(cmd, "model", cfg.Embedding.Model); model != "" {
		popts = append(popts, embed.WithModel(model))
	}
	dims, _ := cmd.Flags().GetInt("dimensions")
	if dims == 0 {
		dims = cfg.Embedding.Dimensions
	}
	if dims > 0 {
		popts = append(popts, embed.WithDimensions(dims))
	}

	provider, err := embed.NewOpenAIProvider(popts...)
	if err != nil {
		return err
	}
	layer, err := embed.BuildLayer(cmd.Context(), provider, d)
	if err != nil {
		return err
	}

	opts, err := cfg.CompileOptions()
	if err != nil {
		return err
	}
	opts = append(opts, fafb.WithEmbeddings(layer))

	outFlag, _ := cmd.Flags().GetString("output")
	outPath := outputPath(srcPath, outFlag)
	if err := fafb.CompileFile(outPath, d, opts...); err != nil {
		return err
	}

	fmt.Printf("Compiled %s -> %s with %d vectors (%s, %d dimensions)\n",
		srcPath, outPath, len(layer.Entries), layer.Model, layer.Dim)
	return nil
}

// flagOrConfig returns the flag value when set, falling back to the
// configured value.
func flagOrConfig(cmd *cobra.Command, name, fallback string) string {
	value, _ := cmd.Flags().GetString(name)
	if value != "" {
		return value
	}
	return fallback
}
