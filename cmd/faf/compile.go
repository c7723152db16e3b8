package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Wolfe-Jam/faf-go/pkg/config"
	"github.com/Wolfe-Jam/faf-go/pkg/faf"
	"github.com/Wolfe-Jam/faf-go/pkg/fafb"
	"github.com/Wolfe-Jam/faf-go/pkg/tokens"
)

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile [path]",
		Short: "Compile a .faf file into a binary .fafb container",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCompile,
	}

	cmd.Flags().StringP("output", "o", "", "Output path (default: alongside the source)")
	cmd.Flags().Bool("compress", false, "Compress large sections")
	cmd.Flags().String("token-model", "", "Tokenizer model for an exact token map")
	cmd.Flags().StringSlice("priority", nil, "Per-section priority override, section=0-255")

	return cmd
}

func runCompile(cmd *cobra.Command, args []string) error {
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
	opts, err := compileOptions(cmd, cfg)
	if err != nil {
		return err
	}

	outFlag, _ := cmd.Flags().GetString("output")
	outPath := outputPath(srcPath, outFlag)
	if err := fafb.CompileFile(outPath, d, opts...); err != nil {
		return err
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return err
	}
	fmt.Printf("Compiled %s -> %s (%d bytes)\n", srcPath, outPath, info.Size())
	return nil
}

// compileOptions merges configuration defaults with command flags.
// Flags win when set.
func compileOptions(cmd *cobra.Command, cfg *config.Config) ([]fafb.CompileOption, error) {
	var opts []fafb.CompileOption

	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	if len(policy) > 0 {
		opts = append(opts, fafb.WithPolicy(policy))
	}
	overrides, _ := cmd.Flags().GetStringSlice("priority")
	for _, override := range overrides {
		t, p, err := parsePriority(override)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fafb.WithPriority(t, p))
	}

	compress := cfg.Compress
	if cmd.Flags().Changed("compress") {
		compress, _ = cmd.Flags().GetBool("compress")
	}
	if compress {
		if cfg.CompressionLevel > 0 {
			opts = append(opts, fafb.WithCompressionLevel(cfg.CompressionLevel))
		} else {
			opts = append(opts, fafb.WithCompression())
		}
	}

	model, _ := cmd.Flags().GetString("token-model")
	if model == "" {
		model = cfg.TokenModel
	}
	if model != "" {
		counter, err := tokens.NewTiktokenCounter(model)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fafb.WithTokenCounter(counter))
	}

	return opts, nil
}

// parsePriority parses a section=value override such as context=255.
func parsePriority(arg string) (fafb.SectionType, fafb.Priority, error) {
	name, value, ok := strings.Cut(arg, "=")
	if !ok {
		return 0, 0, fmt.Errorf("priority override %q must be section=value", arg)
	}
	t, ok := fafb.SectionTypeByName(name)
	if !ok {
		return 0, 0, fmt.Errorf("unknown section %q in priority override", name)
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 || n > 255 {
		return 0, 0, fmt.Errorf("priority %q must be a number from 0 to 255", value)
	}
	return t, fafb.Priority(n), nil
}

// outputPath derives the .fafb path from the source when -o is not given.
func outputPath(srcPath, flag string) string {
	if flag != "" {
		return flag
	}
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	if base == "" {
		// a bare .faf file has no stem
		base = "project"
	}
	return filepath.Join(filepath.Dir(srcPath), base+".fafb")
}
