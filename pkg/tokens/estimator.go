// Package tokens estimates and counts LLM tokens for section payloads.
//
// Two precision levels are available: a cheap byte-length heuristic used for
// the per-section estimates stored in every compiled file, and exact counts
// from a real model tokenizer used to build optional per-model token maps.
package tokens

import (
	"fmt"
	"math"

	"github.com/pkoukk/tiktoken-go"
)

// BytesPerToken is the heuristic ratio between UTF-8 bytes and tokens.
// Roughly one token per four bytes holds across common BPE tokenizers.
const BytesPerToken = 4

// MaxEstimate is the largest value a stored estimate can carry.
const MaxEstimate = math.MaxUint16

// Estimate returns the heuristic token estimate for a payload of byteLen
// bytes: one token per four bytes, rounded up, saturating at MaxEstimate.
// Monotonic: a longer payload never yields a smaller estimate.
func Estimate(byteLen int) uint16 {
	if byteLen <= 0 {
		return 0
	}
	n := (byteLen + BytesPerToken - 1) / BytesPerToken
	if n > MaxEstimate {
		return MaxEstimate
	}
	return uint16(n)
}

// Counter produces token counts for text under a named tokenizer.
type Counter interface {
	// Model identifies the tokenizer, e.g. "gpt-4o" or "heuristic".
	Model() string

	// Count returns the number of tokens in text.
	Count(text string) (int, error)
}

// HeuristicCounter applies the BytesPerToken rule as a Counter. It never
// fails and needs no tokenizer data.
type HeuristicCounter struct{}

func (HeuristicCounter) Model() string { return "heuristic" }

func (HeuristicCounter) Count(text string) (int, error) {
	return (len(text) + BytesPerToken - 1) / BytesPerToken, nil
}

// TiktokenCounter counts tokens with a real model tokenizer. Construction
// resolves the encoding for the model and may download encoding data on
// first use.
type TiktokenCounter struct {
	model string
	enc   *tiktoken.Tiktoken
}

// NewTiktokenCounter resolves the tokenizer for the given model name.
func NewTiktokenCounter(model string) (*TiktokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("tokens: resolve tokenizer for %s: %w", model, err)
	}
	return &TiktokenCounter{model: model, enc: enc}, nil
}

func (c *TiktokenCounter) Model() string { return c.model }

func (c *TiktokenCounter) Count(text string) (int, error) {
	return len(c.enc.Encode(text, nil, nil)), nil
}
