package fafb

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MaxEmbeddingDim bounds vector width. Current embedding APIs top out at
// 3072 dimensions; 4096 leaves headroom without letting a corrupt count
// allocate gigabytes.
const MaxEmbeddingDim = 4096

// DefaultConfidence replaces out-of-range confidence values on load.
const DefaultConfidence float32 = 1.0

// EmbeddingEntry is one vector within a layer. Chunk 0 embeds the whole
// section; higher values number the chunks of a split section.
type EmbeddingEntry struct {
	Section    SectionType
	Chunk      uint16
	Confidence float32
	Vector     []float32
}

// EmbeddingLayer carries precomputed vectors for semantic retrieval over
// the description. A file holds at most one base layer plus any number of
// model-specific overlays.
type EmbeddingLayer struct {
	Model   string
	Dim     int
	Entries []EmbeddingEntry
}

// Validate reports whether the layer is well formed enough to write.
func (l *EmbeddingLayer) Validate() error {
	if l.Model == "" {
		return fmt.Errorf("%w: embedding layer without model name", ErrInvalidField)
	}
	if l.Dim < 1 || l.Dim > MaxEmbeddingDim {
		return fmt.Errorf("%w: embedding dimension %d outside 1-%d", ErrInvalidField, l.Dim, MaxEmbeddingDim)
	}
	if len(l.Entries) > math.MaxUint16 {
		return fmt.Errorf("%w: %d embedding entries exceed %d", ErrInvalidField, len(l.Entries), math.MaxUint16)
	}
	for i, e := range l.Entries {
		if len(e.Vector) != l.Dim {
			return fmt.Errorf("%w: entry %d vector has %d dimensions, layer declares %d", ErrInvalidField, i, len(e.Vector), l.Dim)
		}
		if !(e.Confidence >= 0 && e.Confidence <= 1) {
			return fmt.Errorf("%w: entry %d confidence %v outside 0-1", ErrInvalidField, i, e.Confidence)
		}
	}
	return nil
}

func encodeEmbeddings(l *EmbeddingLayer) ([]byte, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	buf := appendString(nil, l.Model)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(l.Dim))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(l.Entries)))
	for _, e := range l.Entries {
		buf = append(buf, byte(e.Section))
		buf = binary.LittleEndian.AppendUint16(buf, e.Chunk)
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(e.Confidence))
		for _, v := range e.Vector {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return buf, nil
}

// decodeEmbeddings parses a layer body. Out-of-range confidence values
// are replaced with DefaultConfidence rather than failing the layer;
// structural damage fails it.
func decodeEmbeddings(b []byte) (*EmbeddingLayer, error) {
	r := &bodyReader{b: b}
	model, err := r.str()
	if err != nil {
		return nil, err
	}
	dim, err := r.u16()
	if err != nil {
		return nil, err
	}
	if dim == 0 || int(dim) > MaxEmbeddingDim {
		return nil, fmt.Errorf("%w: embedding dimension %d outside 1-%d", ErrCorruptSection, dim, MaxEmbeddingDim)
	}
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	layer := &EmbeddingLayer{Model: model, Dim: int(dim), Entries: make([]EmbeddingEntry, 0, count)}
	for i := 0; i < int(count); i++ {
		sec, err := r.u8()
		if err != nil {
			return nil, err
		}
		chunk, err := r.u16()
		if err != nil {
			return nil, err
		}
		conf, err := r.f32()
		if err != nil {
			return nil, err
		}
		if !(conf >= 0 && conf <= 1) {
			conf = DefaultConfidence
		}
		vec := make([]float32, dim)
		for j := range vec {
			if vec[j], err = r.f32(); err != nil {
				return nil, err
			}
		}
		layer.Entries = append(layer.Entries, EmbeddingEntry{
			Section:    SectionType(sec),
			Chunk:      chunk,
			Confidence: conf,
			Vector:     vec,
		})
	}
	if err := r.expectDone(); err != nil {
		return nil, err
	}
	return layer, nil
}
