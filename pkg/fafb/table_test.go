package fafb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionEntryRoundTrip(t *testing.T) {
	e := SectionEntry{
		typ:      SectionTechStack,
		priority: PriorityHigh,
		offset:   32,
		length:   512,
		tokens:   128,
		flags:    SectionFlagCompressed,
	}
	buf := e.append(nil)
	require.Len(t, buf, EntrySize)
	assert.Equal(t, e, decodeEntry(buf))
}

func TestDecodeEntryIgnoresReserved(t *testing.T) {
	e := SectionEntry{typ: SectionIdentity, priority: PriorityCritical, offset: 32, length: 10}
	buf := e.append(nil)
	buf[14] = 0xAA
	buf[15] = 0xBB
	assert.Equal(t, e, decodeEntry(buf))
}

func TestSectionTypeNames(t *testing.T) {
	tests := []struct {
		typ  SectionType
		name string
	}{
		{SectionIdentity, "identity"},
		{SectionTechStack, "tech-stack"},
		{SectionKeyFiles, "key-files"},
		{SectionArchitecture, "architecture"},
		{SectionCommands, "commands"},
		{SectionContext, "context"},
		{SectionSyncMeta, "sync-metadata"},
		{SectionEmbeddings, "embeddings"},
		{SectionTokenMap, "token-map"},
		{SectionModelHints, "model-hints"},
		{SectionAttention, "attention-hints"},
		{SectionCustom, "custom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.typ.String())
			assert.True(t, tt.typ.Known())
			got, ok := SectionTypeByName(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.typ, got)
		})
	}
}

func TestSectionTypeUnknown(t *testing.T) {
	u := SectionType(0x42)
	assert.Equal(t, "unknown(0x42)", u.String())
	assert.False(t, u.Known())
	assert.False(t, u.Extension())

	_, ok := SectionTypeByName("no-such-section")
	assert.False(t, ok)
}

func TestSectionTypeExtension(t *testing.T) {
	assert.True(t, SectionEmbeddings.Extension())
	assert.True(t, SectionTokenMap.Extension())
	assert.True(t, SectionModelHints.Extension())
	assert.True(t, SectionAttention.Extension())
	assert.False(t, SectionIdentity.Extension())
	assert.False(t, SectionCustom.Extension())
}

func TestCoreSectionTypesOrder(t *testing.T) {
	core := CoreSectionTypes()
	require.Len(t, core, 7)
	for i := 1; i < len(core); i++ {
		assert.Less(t, core[i-1], core[i])
	}
	assert.Equal(t, SectionIdentity, core[0])
	assert.Equal(t, SectionSyncMeta, core[len(core)-1])
}
