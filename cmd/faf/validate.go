package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Wolfe-Jam/faf-go/pkg/faf"
	"github.com/Wolfe-Jam/faf-go/pkg/fafb"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Check a .faf or .fafb file and report problems",
		Long: `validate checks a .faf text file for completeness, or fully loads a
.fafb container and reports version, corruption and checksum problems.
It exits non-zero when the file is invalid.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	if len(args) > 0 && strings.HasSuffix(args[0], ".fafb") {
		return validateBinary(args[0])
	}
	path, err := discoverSource(args)
	if err != nil {
		return err
	}
	return validateText(path)
}

func validateText(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	d, err := faf.Parse(src)
	if err != nil {
		return err
	}

	report := faf.Validate(d)
	fmt.Printf("%s: score %d/%d\n", path, report.Score, faf.MaxScore)
	for _, w := range report.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	for _, e := range report.Errors {
		fmt.Printf("  error: %s\n", e)
	}
	if !report.Valid {
		return fmt.Errorf("%s failed validation", path)
	}
	return nil
}

func validateBinary(path string) error {
	doc, loadErr := fafb.LoadFile(path)
	if loadErr != nil && doc == nil {
		return loadErr
	}

	if loadErr != nil {
		fmt.Printf("  error: %v\n", loadErr)
	}
	for _, diag := range doc.Diagnostics() {
		fmt.Printf("  diagnostic: %s\n", diag)
	}

	h := doc.Header()
	status := "OK"
	if loadErr != nil {
		status = "INVALID"
	}
	fmt.Printf("%s: %s (v%d.%d, %d sections, ~%d tokens)\n",
		path, status, h.Major(), h.Minor(), h.SectionCount(), doc.TokenEstimate())
	if doc.SourceVerified() {
		fmt.Println("  source checksum verified")
	}

	if loadErr != nil {
		return fmt.Errorf("%s failed validation", path)
	}
	return nil
}
