package fafb

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// Attention defaults. Out-of-range values are replaced with these rather
// than rejected, so a damaged or hand-built hint degrades instead of
// failing the load.
const (
	DefaultBaseWeight float32 = 0.5
	DefaultDecayRate  float32 = 0
)

// Relation links a hint's section to another section with a signed
// strength in [-1, 1]. Positive strength suggests co-loading, negative
// suggests the target is redundant when this section is present.
type Relation struct {
	Target   SectionType
	Strength float32
}

// AttentionHint suggests how a consumer should weight one section.
// Build hints with NewAttentionHint and the With chainers; values
// outside their documented ranges are replaced with defaults.
type AttentionHint struct {
	section  SectionType
	weight   float32
	decay    float32
	keywords []string
	relation *Relation
}

// NewAttentionHint returns a hint for section with the given base weight
// in [0, 1] and positional decay rate in [0, 1].
func NewAttentionHint(section SectionType, weight, decay float32) AttentionHint {
	return AttentionHint{
		section: section,
		weight:  sanitizeWeight(weight),
		decay:   sanitizeDecay(decay),
	}
}

// WithKeywords returns a copy of the hint with glob patterns appended.
func (h AttentionHint) WithKeywords(patterns ...string) AttentionHint {
	h.keywords = append(slices.Clone(h.keywords), patterns...)
	return h
}

// WithRelation returns a copy of the hint related to target with the
// given strength in [-1, 1].
func (h AttentionHint) WithRelation(target SectionType, strength float32) AttentionHint {
	h.relation = &Relation{Target: target, Strength: sanitizeStrength(strength)}
	return h
}

func (h AttentionHint) Section() SectionType { return h.section }
func (h AttentionHint) BaseWeight() float32  { return h.weight }
func (h AttentionHint) DecayRate() float32   { return h.decay }

func (h AttentionHint) Keywords() []string { return slices.Clone(h.keywords) }

func (h AttentionHint) Relation() (Relation, bool) {
	if h.relation == nil {
		return Relation{}, false
	}
	return *h.relation, true
}

// Matches reports whether term matches any keyword pattern. Matching is
// case-insensitive glob; a pattern that fails to compile falls back to a
// literal comparison.
func (h AttentionHint) Matches(term string) bool {
	lowered := strings.ToLower(term)
	for _, kw := range h.keywords {
		g, err := glob.Compile(strings.ToLower(kw))
		if err != nil {
			if strings.EqualFold(kw, term) {
				return true
			}
			continue
		}
		if g.Match(lowered) {
			return true
		}
	}
	return false
}

func sanitizeWeight(w float32) float32 {
	if !(w >= 0 && w <= 1) {
		return DefaultBaseWeight
	}
	return w
}

func sanitizeDecay(d float32) float32 {
	if !(d >= 0 && d <= 1) {
		return DefaultDecayRate
	}
	return d
}

func sanitizeStrength(s float32) float32 {
	if !(s >= -1 && s <= 1) {
		return 0
	}
	return s
}

func encodeAttention(hints []AttentionHint) ([]byte, error) {
	if len(hints) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d attention hints exceed %d", ErrInvalidField, len(hints), math.MaxUint16)
	}
	buf := binary.LittleEndian.AppendUint16(nil, uint16(len(hints)))
	for i, h := range hints {
		if len(h.keywords) > math.MaxUint8 {
			return nil, fmt.Errorf("%w: hint %d has %d keywords, limit %d", ErrInvalidField, i, len(h.keywords), math.MaxUint8)
		}
		buf = append(buf, byte(h.section))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(h.weight))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(h.decay))
		buf = append(buf, uint8(len(h.keywords)))
		for _, kw := range h.keywords {
			buf = appendString(buf, kw)
		}
		if h.relation == nil {
			buf = append(buf, 0)
		} else {
			buf = append(buf, 1)
			buf = append(buf, byte(h.relation.Target))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(h.relation.Strength))
		}
	}
	return buf, nil
}

func decodeAttention(b []byte) ([]AttentionHint, error) {
	r := &bodyReader{b: b}
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	hints := make([]AttentionHint, 0, count)
	for i := 0; i < int(count); i++ {
		sec, err := r.u8()
		if err != nil {
			return nil, err
		}
		weight, err := r.f32()
		if err != nil {
			return nil, err
		}
		decay, err := r.f32()
		if err != nil {
			return nil, err
		}
		h := NewAttentionHint(SectionType(sec), weight, decay)
		kwCount, err := r.u8()
		if err != nil {
			return nil, err
		}
		for j := 0; j < int(kwCount); j++ {
			kw, err := r.str()
			if err != nil {
				return nil, err
			}
			h.keywords = append(h.keywords, kw)
		}
		flag, err := r.u8()
		if err != nil {
			return nil, err
		}
		switch flag {
		case 0:
		case 1:
			target, err := r.u8()
			if err != nil {
				return nil, err
			}
			strength, err := r.f32()
			if err != nil {
				return nil, err
			}
			h.relation = &Relation{Target: SectionType(target), Strength: sanitizeStrength(strength)}
		default:
			return nil, fmt.Errorf("%w: relation flag 0x%02x", ErrCorruptSection, flag)
		}
		hints = append(hints, h)
	}
	if err := r.expectDone(); err != nil {
		return nil, err
	}
	return hints, nil
}
