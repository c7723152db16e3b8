package fafb

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAttentionHintSanitizes(t *testing.T) {
	tests := []struct {
		name       string
		weight     float32
		decay      float32
		wantWeight float32
		wantDecay  float32
	}{
		{"in range", 0.8, 0.2, 0.8, 0.2},
		{"weight above range", 1.5, 0.2, DefaultBaseWeight, 0.2},
		{"weight below range", -0.1, 0.2, DefaultBaseWeight, 0.2},
		{"decay above range", 0.8, 3, 0.8, DefaultDecayRate},
		{"nan weight", float32(math.NaN()), 0, DefaultBaseWeight, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAttentionHint(SectionContext, tt.weight, tt.decay)
			assert.Equal(t, SectionContext, h.Section())
			assert.Equal(t, tt.wantWeight, h.BaseWeight())
			assert.Equal(t, tt.wantDecay, h.DecayRate())
		})
	}
}

func TestAttentionHintChainingCopies(t *testing.T) {
	base := NewAttentionHint(SectionArchitecture, 0.9, 0.1)
	kw := base.WithKeywords("grpc", "transport-*")
	rel := kw.WithRelation(SectionTechStack, 0.7)

	assert.Empty(t, base.Keywords())
	assert.Equal(t, []string{"grpc", "transport-*"}, kw.Keywords())
	_, ok := kw.Relation()
	assert.False(t, ok)

	r, ok := rel.Relation()
	require.True(t, ok)
	assert.Equal(t, SectionTechStack, r.Target)
	assert.Equal(t, float32(0.7), r.Strength)
}

func TestAttentionRelationStrengthSanitized(t *testing.T) {
	r, ok := NewAttentionHint(SectionContext, 0.5, 0).WithRelation(SectionIdentity, 5).Relation()
	require.True(t, ok)
	assert.Zero(t, r.Strength)

	r, ok = NewAttentionHint(SectionContext, 0.5, 0).WithRelation(SectionIdentity, -0.5).Relation()
	require.True(t, ok)
	assert.Equal(t, float32(-0.5), r.Strength)
}

func TestAttentionHintMatches(t *testing.T) {
	h := NewAttentionHint(SectionKeyFiles, 0.6, 0).WithKeywords("index*", "HNSW")
	assert.True(t, h.Matches("indexer"))
	assert.True(t, h.Matches("hnsw"))
	assert.True(t, h.Matches("HNSW"))
	assert.False(t, h.Matches("storage"))
	assert.False(t, NewAttentionHint(SectionKeyFiles, 0.6, 0).Matches("anything"))
}

func TestAttentionCodecRoundTrip(t *testing.T) {
	hints := []AttentionHint{
		NewAttentionHint(SectionArchitecture, 0.9, 0.25).WithKeywords("grpc", "http"),
		NewAttentionHint(SectionContext, 0.4, 0).WithRelation(SectionTechStack, -0.5),
		NewAttentionHint(SectionIdentity, 1, 1),
	}
	body, err := encodeAttention(hints)
	require.NoError(t, err)

	got, err := decodeAttention(body)
	require.NoError(t, err)
	assert.Equal(t, hints, got)
}

func TestAttentionRoundTripThroughFile(t *testing.T) {
	d := newTestDescription(t)
	hints := []AttentionHint{
		// 1.5 is out of range and stored as the default
		NewAttentionHint(SectionArchitecture, 1.5, 0.25).WithKeywords("grpc"),
		NewAttentionHint(SectionContext, 0.9, 0).WithRelation(SectionTechStack, -0.5),
	}
	data, err := Compile(d, WithAttention(hints...))
	require.NoError(t, err)

	h, _, err := Inspect(data)
	require.NoError(t, err)
	assert.True(t, h.Flags().Has(FlagAttention))

	doc, err := Load(data)
	require.NoError(t, err)
	got := doc.Attention()
	require.Len(t, got, 2)
	assert.Equal(t, DefaultBaseWeight, got[0].BaseWeight())
	assert.Equal(t, float32(0.25), got[0].DecayRate())
	assert.Equal(t, []string{"grpc"}, got[0].Keywords())

	r, ok := got[1].Relation()
	require.True(t, ok)
	assert.Equal(t, SectionTechStack, r.Target)
	assert.Equal(t, float32(-0.5), r.Strength)
}

func TestDecodeAttentionSanitizesStoredValues(t *testing.T) {
	// a foreign writer stored weight 7.5 and decay -2
	buf := binary.LittleEndian.AppendUint16(nil, 1)
	buf = append(buf, byte(SectionContext))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(7.5))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(-2))
	buf = append(buf, 0) // keywords
	buf = append(buf, 0) // relation

	hints, err := decodeAttention(buf)
	require.NoError(t, err)
	require.Len(t, hints, 1)
	assert.Equal(t, DefaultBaseWeight, hints[0].BaseWeight())
	assert.Equal(t, DefaultDecayRate, hints[0].DecayRate())
}

func TestDecodeAttentionCorrupt(t *testing.T) {
	_, err := decodeAttention([]byte{1})
	assert.ErrorIs(t, err, ErrCorruptSection)

	badFlag := binary.LittleEndian.AppendUint16(nil, 1)
	badFlag = append(badFlag, byte(SectionContext))
	badFlag = binary.LittleEndian.AppendUint32(badFlag, math.Float32bits(0.5))
	badFlag = binary.LittleEndian.AppendUint32(badFlag, 0)
	badFlag = append(badFlag, 0) // keywords
	badFlag = append(badFlag, 9) // relation flag
	_, err = decodeAttention(badFlag)
	assert.ErrorIs(t, err, ErrCorruptSection)
}
