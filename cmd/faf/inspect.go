package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Wolfe-Jam/faf-go/pkg/fafb"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file.fafb>",
		Short: "Show the header and section table without reading bodies",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}

	cmd.Flags().BoolP("json", "j", false, "Output as JSON")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	h, entries, err := fafb.Inspect(data)
	if err != nil {
		return err
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		report := struct {
			Header  headerReport  `json:"header"`
			Entries []entryReport `json:"entries"`
		}{Header: newHeaderReport(h)}
		for _, e := range entries {
			report.Entries = append(report.Entries, newEntryReport(e))
		}
		return printJSON(report)
	}

	fmt.Printf("fafb v%d.%d, %d bytes, created %s\n",
		h.Major(), h.Minor(), h.TotalSize(), h.CreatedAt().Format(time.RFC3339))
	fmt.Printf("source checksum %08x, flags %s\n", h.SourceChecksum(), flagNames(h.Flags()))
	fmt.Printf("%d sections:\n", h.SectionCount())
	for _, e := range entries {
		suffix := ""
		if e.Flags().Has(fafb.SectionFlagCompressed) {
			suffix = "  compressed"
		}
		fmt.Printf("  %-14s priority %3d  offset %6d  %7d bytes  ~%d tokens%s\n",
			e.Type(), e.Priority(), e.Offset(), e.Length(), e.TokenEstimate(), suffix)
	}
	return nil
}
