package fafb

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Bodies smaller than this are never compressed; the frame overhead
// outweighs any savings.
const compressThreshold = 512

func compressBody(b []byte, level zstd.EncoderLevel) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("fafb: create compressor: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(b, nil), nil
}

// A single shared decoder serves all loads. Decompressed sections are
// bounded by MaxSectionSize, so cap decoder memory there.
var sharedDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
	return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(MaxSectionSize)))
})

func decompressBody(b []byte) ([]byte, error) {
	dec, err := sharedDecoder()
	if err != nil {
		return nil, fmt.Errorf("fafb: create decompressor: %w", err)
	}
	out, err := dec.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %v", ErrCorruptSection, err)
	}
	return out, nil
}
