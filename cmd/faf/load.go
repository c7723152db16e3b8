package main

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Wolfe-Jam/faf-go/pkg/config"
	"github.com/Wolfe-Jam/faf-go/pkg/fafb"
)

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <file.fafb>",
		Short: "Load a .fafb container, whole or under a token budget",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoad,
	}

	cmd.Flags().Int("budget", 0, "Token budget for partial loading")
	cmd.Flags().String("preset", "", "Budget preset: minimal, standard or full")
	cmd.Flags().StringSlice("sections", nil, "Load only the named sections")
	cmd.Flags().String("glob", "", "Load sections whose names match a glob pattern")
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")

	return cmd
}

func runLoad(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	budget, _ := cmd.Flags().GetInt("budget")
	preset, _ := cmd.Flags().GetString("preset")
	sectionNames, _ := cmd.Flags().GetStringSlice("sections")
	pattern, _ := cmd.Flags().GetString("glob")

	var doc *fafb.Document
	switch {
	case pattern != "":
		doc, err = fafb.LoadGlob(data, pattern)
	case len(sectionNames) > 0:
		types := make([]fafb.SectionType, 0, len(sectionNames))
		for _, name := range sectionNames {
			t, ok := fafb.SectionTypeByName(name)
			if !ok {
				return fmt.Errorf("unknown section %q", name)
			}
			types = append(types, t)
		}
		doc, err = fafb.LoadSections(data, types...)
	case budget > 0 || preset != "":
		n := budget
		if n == 0 {
			if n, err = presetBudget(preset); err != nil {
				return err
			}
		}
		doc, err = fafb.LoadBudget(data, n)
	default:
		doc, err = fafb.Load(data)
	}
	if err != nil {
		// A checksum mismatch still yields a usable document.
		if doc == nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Warning:", err)
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return printJSON(documentReport(doc))
	}
	printDocument(doc)
	return nil
}

// presetBudget maps a preset name to its token budget.
func presetBudget(name string) (int, error) {
	switch name {
	case config.PresetMinimal:
		return fafb.BudgetMinimal, nil
	case config.PresetStandard:
		return fafb.BudgetStandard, nil
	case config.PresetFull:
		return fafb.BudgetFull, nil
	}
	return 0, fmt.Errorf("unknown preset %q", name)
}

func printDocument(doc *fafb.Document) {
	entries := doc.Entries()
	printed := make(map[fafb.SectionType]bool)
	for _, e := range entries {
		t := e.Type()
		if !doc.Loaded(t) || printed[t] {
			continue
		}
		printed[t] = true
		fmt.Printf("## %s (priority %d, ~%d tokens)\n", t, e.Priority(), e.TokenEstimate())
		if text, ok := sectionText(doc, t); ok && text != "" {
			fmt.Println(text)
		}
		fmt.Println()
	}
	fmt.Printf("Loaded %d of %d sections, ~%d tokens", len(printed), len(entries), doc.TokenEstimate())
	if doc.SourceVerified() {
		fmt.Print(", source verified")
	}
	fmt.Println()
	for _, diag := range doc.Diagnostics() {
		fmt.Printf("  diagnostic: %s\n", diag)
	}
}

// sectionText renders one loaded section for terminal output.
func sectionText(doc *fafb.Document, t fafb.SectionType) (string, bool) {
	switch t {
	case fafb.SectionIdentity:
		name, ver, score, ok := doc.Identity()
		if !ok {
			return "", false
		}
		s := name
		if ver != "" {
			s += " " + ver
		}
		if score > 0 {
			s += fmt.Sprintf(" (score %d)", score)
		}
		return s, true
	case fafb.SectionTechStack:
		stack := doc.Stack()
		keys := make([]string, 0, len(stack))
		for k := range stack {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		var b strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&b, "%s: %s\n", k, stack[k])
		}
		return strings.TrimRight(b.String(), "\n"), true
	case fafb.SectionKeyFiles:
		var b strings.Builder
		for _, kf := range doc.KeyFiles() {
			if kf.Description != "" {
				fmt.Fprintf(&b, "%s: %s\n", kf.Path, kf.Description)
			} else {
				fmt.Fprintf(&b, "%s\n", kf.Path)
			}
		}
		return strings.TrimRight(b.String(), "\n"), true
	case fafb.SectionArchitecture, fafb.SectionCommands, fafb.SectionContext:
		return doc.Text(t)
	case fafb.SectionSyncMeta:
		m, ok := doc.Sync()
		if !ok {
			return "", false
		}
		return fmt.Sprintf("origin %s, generation %d, synced %s",
			m.Origin, m.Generation, m.SyncedAt.Format(time.RFC3339)), true
	case fafb.SectionEmbeddings:
		layer, ok := doc.Embeddings()
		if !ok {
			return "", false
		}
		return fmt.Sprintf("model %s, %d vectors of %d dimensions",
			layer.Model, len(layer.Entries), layer.Dim), true
	case fafb.SectionTokenMap:
		var b strings.Builder
		for _, m := range doc.TokenMaps() {
			fmt.Fprintf(&b, "%s: %d tokens\n", m.Model, m.Total())
		}
		return strings.TrimRight(b.String(), "\n"), true
	case fafb.SectionAttention:
		hints := doc.Attention()
		var b strings.Builder
		for _, h := range hints {
			fmt.Fprintf(&b, "%s: weight %.2f", h.Section(), h.BaseWeight())
			if kw := h.Keywords(); len(kw) > 0 {
				fmt.Fprintf(&b, ", keywords %s", strings.Join(kw, " "))
			}
			b.WriteString("\n")
		}
		return strings.TrimRight(b.String(), "\n"), true
	case fafb.SectionCustom:
		blobs := doc.Custom()
		total := 0
		for _, blob := range blobs {
			total += len(blob)
		}
		return fmt.Sprintf("%d custom payloads, %d bytes", len(blobs), total), true
	}
	return "", false
}
