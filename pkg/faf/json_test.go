package faf

import (
	"errors"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRoundTrip(t *testing.T) {
	d := fullDescription(t)

	b, err := gojson.Marshal(d)
	require.NoError(t, err)

	var got ProjectDescription
	require.NoError(t, gojson.Unmarshal(b, &got))
	assert.True(t, d.Equal(&got))
}

func TestJSONUnmarshalValidates(t *testing.T) {
	var d ProjectDescription

	err := gojson.Unmarshal([]byte(`{"version":"1.0.0"}`), &d)
	assert.True(t, errors.Is(err, ErrInvalidField), "missing name must be rejected")

	err = gojson.Unmarshal([]byte(`{"name":"demo","score":250}`), &d)
	assert.True(t, errors.Is(err, ErrInvalidField), "out-of-range score must be rejected")
}
