// Package embed produces embedding layers for compiled description
// files. A Provider turns section text into vectors; BuildLayer walks a
// description and assembles the layer a compiler can attach with
// fafb.WithEmbeddings or fafb.WithOverlay.
package embed

import (
	"context"
	"fmt"

	"github.com/Wolfe-Jam/faf-go/pkg/faf"
	"github.com/Wolfe-Jam/faf-go/pkg/fafb"
)

// Provider computes embedding vectors for batches of text.
type Provider interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Model names the embedding model, recorded in the layer.
	Model() string
	// Dimensions is the width of the returned vectors.
	Dimensions() int
}

// BuildLayer renders each core section of the description to plain text
// and embeds them as whole-section vectors in one batched call.
func BuildLayer(ctx context.Context, p Provider, d *faf.ProjectDescription) (*fafb.EmbeddingLayer, error) {
	if d == nil {
		return nil, fmt.Errorf("embed: nil description")
	}
	var (
		sections []fafb.SectionType
		texts    []string
	)
	for _, t := range fafb.CoreSectionTypes() {
		text, ok := fafb.SectionPlaintext(d, t)
		if !ok {
			continue
		}
		sections = append(sections, t)
		texts = append(texts, text)
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("embed: description has no embeddable sections")
	}

	vectors, err := p.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed: %s: %w", p.Model(), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed: %s returned %d vectors for %d inputs", p.Model(), len(vectors), len(texts))
	}

	layer := &fafb.EmbeddingLayer{
		Model:   p.Model(),
		Dim:     p.Dimensions(),
		Entries: make([]fafb.EmbeddingEntry, 0, len(vectors)),
	}
	for i, vec := range vectors {
		layer.Entries = append(layer.Entries, fafb.EmbeddingEntry{
			Section:    sections[i],
			Chunk:      0,
			Confidence: fafb.DefaultConfidence,
			Vector:     vec,
		})
	}
	if err := layer.Validate(); err != nil {
		return nil, fmt.Errorf("embed: %s: %w", p.Model(), err)
	}
	return layer, nil
}
