package main

import (
	"fmt"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/Wolfe-Jam/faf-go/pkg/fafb"
)

// headerReport is the JSON shape of a container header.
type headerReport struct {
	Version        string `json:"version"`
	Flags          string `json:"flags"`
	SourceChecksum string `json:"source_checksum"`
	CreatedAt      string `json:"created_at"`
	SectionCount   int    `json:"section_count"`
	TotalSize      int    `json:"total_size"`
}

// entryReport is the JSON shape of one section table entry.
type entryReport struct {
	Section    string `json:"section"`
	Priority   int    `json:"priority"`
	Offset     int    `json:"offset"`
	Length     int    `json:"length"`
	Tokens     int    `json:"tokens"`
	Compressed bool   `json:"compressed,omitempty"`
}

// loadReport is the JSON shape of a loaded document.
type loadReport struct {
	Header         headerReport      `json:"header"`
	Sections       map[string]string `json:"sections"`
	TokenEstimate  int               `json:"token_estimate"`
	SourceVerified bool              `json:"source_verified"`
	Diagnostics    []string          `json:"diagnostics,omitempty"`
}

func newHeaderReport(h fafb.Header) headerReport {
	return headerReport{
		Version:        fmt.Sprintf("%d.%d", h.Major(), h.Minor()),
		Flags:          flagNames(h.Flags()),
		SourceChecksum: fmt.Sprintf("%08x", h.SourceChecksum()),
		CreatedAt:      h.CreatedAt().Format(time.RFC3339),
		SectionCount:   h.SectionCount(),
		TotalSize:      h.TotalSize(),
	}
}

func newEntryReport(e fafb.SectionEntry) entryReport {
	return entryReport{
		Section:    e.Type().String(),
		Priority:   int(e.Priority()),
		Offset:     e.Offset(),
		Length:     e.Length(),
		Tokens:     e.TokenEstimate(),
		Compressed: e.Flags().Has(fafb.SectionFlagCompressed),
	}
}

func documentReport(doc *fafb.Document) loadReport {
	r := loadReport{
		Header:         newHeaderReport(doc.Header()),
		Sections:       make(map[string]string),
		TokenEstimate:  doc.TokenEstimate(),
		SourceVerified: doc.SourceVerified(),
	}
	for _, e := range doc.Entries() {
		t := e.Type()
		if !doc.Loaded(t) {
			continue
		}
		if text, ok := sectionText(doc, t); ok {
			r.Sections[t.String()] = text
		}
	}
	for _, diag := range doc.Diagnostics() {
		r.Diagnostics = append(r.Diagnostics, diag.String())
	}
	return r
}

// flagNames renders header flags as a comma-separated list.
func flagNames(f fafb.HeaderFlags) string {
	known := []struct {
		mask fafb.HeaderFlags
		name string
	}{
		{fafb.FlagCompressed, "compressed"},
		{fafb.FlagEmbeddings, "embeddings"},
		{fafb.FlagTokenMap, "token-map"},
		{fafb.FlagModelHints, "model-hints"},
		{fafb.FlagAttention, "attention"},
		{fafb.FlagSignature, "signature"},
	}
	var names []string
	for _, k := range known {
		if f.Has(k.mask) {
			names = append(names, k.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

func printJSON(v any) error {
	b, err := gojson.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
