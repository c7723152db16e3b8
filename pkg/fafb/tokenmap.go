package fafb

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// TokenMap records exact token counts per section for one tokenizer
// model, replacing the table's byte-length heuristic when present.
type TokenMap struct {
	Model  string
	Counts map[SectionType]int
}

// Total sums the per-section counts.
func (m *TokenMap) Total() int {
	total := 0
	for _, n := range m.Counts {
		total += n
	}
	return total
}

// Validate reports whether the map is well formed enough to write.
func (m *TokenMap) Validate() error {
	if m.Model == "" {
		return fmt.Errorf("%w: token map without model name", ErrInvalidField)
	}
	if len(m.Counts) > math.MaxUint16 {
		return fmt.Errorf("%w: %d token map entries exceed %d", ErrInvalidField, len(m.Counts), math.MaxUint16)
	}
	for t, n := range m.Counts {
		if n < 0 || int64(n) > math.MaxUint32 {
			return fmt.Errorf("%w: token count %d for section %s", ErrInvalidField, n, t)
		}
	}
	return nil
}

func encodeTokenMap(m *TokenMap) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	types := make([]SectionType, 0, len(m.Counts))
	for t := range m.Counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	buf := appendString(nil, m.Model)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(types)))
	for _, t := range types {
		buf = append(buf, byte(t))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(m.Counts[t]))
	}
	return buf, nil
}

func decodeTokenMap(b []byte) (*TokenMap, error) {
	r := &bodyReader{b: b}
	model, err := r.str()
	if err != nil {
		return nil, err
	}
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	m := &TokenMap{Model: model, Counts: make(map[SectionType]int, count)}
	for i := 0; i < int(count); i++ {
		t, err := r.u8()
		if err != nil {
			return nil, err
		}
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		m.Counts[SectionType(t)] = int(n)
	}
	if err := r.expectDone(); err != nil {
		return nil, err
	}
	return m, nil
}
