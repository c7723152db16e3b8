package fafb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenMapRoundTrip(t *testing.T) {
	m := &TokenMap{
		Model: "gpt-4o",
		Counts: map[SectionType]int{
			SectionIdentity: 12,
			SectionContext:  480,
		},
	}
	body, err := encodeTokenMap(m)
	require.NoError(t, err)

	got, err := decodeTokenMap(body)
	require.NoError(t, err)
	assert.Equal(t, m, got)
	assert.Equal(t, 492, got.Total())
}

func TestEncodeTokenMapDeterministic(t *testing.T) {
	m := &TokenMap{
		Model: "gpt-4o",
		Counts: map[SectionType]int{
			SectionIdentity:     3,
			SectionTechStack:    17,
			SectionKeyFiles:     29,
			SectionArchitecture: 41,
			SectionContext:      53,
		},
	}
	a, err := encodeTokenMap(m)
	require.NoError(t, err)
	b, err := encodeTokenMap(m)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTokenMapValidate(t *testing.T) {
	assert.ErrorIs(t, (&TokenMap{}).Validate(), ErrInvalidField)
	assert.ErrorIs(t, (&TokenMap{
		Model:  "m",
		Counts: map[SectionType]int{SectionIdentity: -1},
	}).Validate(), ErrInvalidField)
	assert.NoError(t, (&TokenMap{Model: "m"}).Validate())
}

func TestDecodeTokenMapCorrupt(t *testing.T) {
	_, err := decodeTokenMap(nil)
	assert.ErrorIs(t, err, ErrCorruptSection)

	body, err := encodeTokenMap(&TokenMap{Model: "m", Counts: map[SectionType]int{SectionIdentity: 5}})
	require.NoError(t, err)
	_, err = decodeTokenMap(body[:len(body)-2])
	assert.ErrorIs(t, err, ErrCorruptSection)
}
