package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name    string
		byteLen int
		want    uint16
	}{
		{"empty", 0, 0},
		{"negative", -5, 0},
		{"one byte rounds up", 1, 1},
		{"exact boundary", 4, 1},
		{"five bytes", 5, 2},
		{"kilobyte", 1024, 256},
		{"saturates at max", 1 << 20, MaxEstimate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Estimate(tt.byteLen))
		})
	}
}

func TestEstimateMonotonic(t *testing.T) {
	prev := Estimate(0)
	for n := 1; n < 1<<18; n += 97 {
		cur := Estimate(n)
		if cur < prev {
			t.Fatalf("estimate decreased: Estimate(%d) = %d, previous %d", n, cur, prev)
		}
		prev = cur
	}
}

func TestHeuristicCounter(t *testing.T) {
	c := HeuristicCounter{}
	assert.Equal(t, "heuristic", c.Model())

	n, err := c.Count("12345678")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = c.Count("")
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestTiktokenCounter(t *testing.T) {
	c, err := NewTiktokenCounter("gpt-4o")
	if err != nil {
		t.Skipf("tokenizer data unavailable: %v", err)
	}

	n, err := c.Count("hello world")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n <= 0 {
		t.Fatalf("expected a positive token count, got %d", n)
	}
	assert.Equal(t, "gpt-4o", c.Model())
}
