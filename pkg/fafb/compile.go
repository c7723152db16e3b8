package fafb

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"maps"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/Wolfe-Jam/faf-go/pkg/faf"
	"github.com/Wolfe-Jam/faf-go/pkg/tokens"
)

var timeNow = time.Now // injected for testability

// compiler collects the settings for a single Compile call.
type compiler struct {
	policy    Policy
	overrides map[SectionType]Priority
	compress  bool
	level     zstd.EncoderLevel
	createdAt time.Time
	base      *EmbeddingLayer
	overlays  []*EmbeddingLayer
	tokenMap  *TokenMap
	counter   tokens.Counter
	hints     []AttentionHint
	custom    [][]byte
}

// CompileOption adjusts how Compile lays out a file.
type CompileOption func(*compiler) error

// WithPolicy replaces the default priority tiers.
func WithPolicy(p Policy) CompileOption {
	return func(c *compiler) error {
		c.policy = maps.Clone(p)
		return nil
	}
}

// WithPriority overrides the priority of a single section type.
func WithPriority(t SectionType, p Priority) CompileOption {
	return func(c *compiler) error {
		c.overrides[t] = p
		return nil
	}
}

// WithCompression enables zstd compression of section bodies at the
// default level. Bodies are compressed only when it makes them smaller.
func WithCompression() CompileOption {
	return func(c *compiler) error {
		c.compress = true
		return nil
	}
}

// WithCompressionLevel enables compression at a zstd level between 1
// (fastest) and 19 (smallest); levels map onto the encoder's speed tiers.
func WithCompressionLevel(level int) CompileOption {
	return func(c *compiler) error {
		c.compress = true
		c.level = zstd.EncoderLevelFromZstd(level)
		return nil
	}
}

// WithTimestamp fixes the creation time recorded in the header.
func WithTimestamp(t time.Time) CompileOption {
	return func(c *compiler) error {
		c.createdAt = t
		return nil
	}
}

// WithEmbeddings attaches the base embedding layer.
func WithEmbeddings(l *EmbeddingLayer) CompileOption {
	return func(c *compiler) error {
		if l == nil {
			return fmt.Errorf("%w: nil embedding layer", ErrInvalidField)
		}
		c.base = l
		return nil
	}
}

// WithOverlay attaches a model-specific embedding overlay. Repeat the
// option to carry overlays for several models.
func WithOverlay(l *EmbeddingLayer) CompileOption {
	return func(c *compiler) error {
		if l == nil {
			return fmt.Errorf("%w: nil embedding overlay", ErrInvalidField)
		}
		c.overlays = append(c.overlays, l)
		return nil
	}
}

// WithTokenMap attaches exact per-section token counts.
func WithTokenMap(m *TokenMap) CompileOption {
	return func(c *compiler) error {
		if m == nil {
			return fmt.Errorf("%w: nil token map", ErrInvalidField)
		}
		c.tokenMap = m
		return nil
	}
}

// WithTokenCounter computes a token map during compilation. An explicit
// WithTokenMap takes precedence over the counter.
func WithTokenCounter(ctr tokens.Counter) CompileOption {
	return func(c *compiler) error {
		c.counter = ctr
		return nil
	}
}

// WithAttention appends attention hints.
func WithAttention(hints ...AttentionHint) CompileOption {
	return func(c *compiler) error {
		c.hints = append(c.hints, hints...)
		return nil
	}
}

// WithCustomSection appends an opaque application-defined section.
func WithCustomSection(data []byte) CompileOption {
	return func(c *compiler) error {
		c.custom = append(c.custom, bytes.Clone(data))
		return nil
	}
}

type rawSection struct {
	typ  SectionType
	body []byte
}

// Compile lays out a description as a binary file: 32-byte header,
// section bodies in canonical type order, then the section table. The
// header is computed last so every field is final when written; the
// returned bytes are the complete file.
func Compile(d *faf.ProjectDescription, opts ...CompileOption) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil description", ErrInvalidField)
	}
	if d.Name() == "" {
		return nil, fmt.Errorf("%w: project name must not be empty", ErrInvalidField)
	}
	if d.Score() < 0 || d.Score() > faf.MaxScore {
		return nil, fmt.Errorf("%w: score %d outside 0-%d", ErrInvalidField, d.Score(), faf.MaxScore)
	}
	c := &compiler{
		policy:    DefaultPolicy(),
		overrides: make(map[SectionType]Priority),
		level:     zstd.SpeedDefault,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	src, err := faf.Serialize(d)
	if err != nil {
		return nil, fmt.Errorf("fafb: serialize source: %w", err)
	}

	if c.tokenMap == nil && c.counter != nil {
		m, err := countTokens(c.counter, d)
		if err != nil {
			return nil, err
		}
		c.tokenMap = m
	}

	raw, err := c.rawSections(d)
	if err != nil {
		return nil, err
	}
	if len(raw) > MaxSections {
		return nil, fmt.Errorf("%w: %d sections exceed %d", ErrLimitExceeded, len(raw), MaxSections)
	}

	var (
		bodies  []byte
		entries = make([]SectionEntry, 0, len(raw))
		flags   = c.headerFlags()
		offset  = uint32(HeaderSize)
	)
	for _, s := range raw {
		if len(s.body) > MaxSectionSize {
			return nil, fmt.Errorf("%w: %s section is %d bytes, limit %d", ErrLimitExceeded, s.typ, len(s.body), MaxSectionSize)
		}
		// Token estimates always describe the uncompressed body.
		est := tokens.Estimate(len(s.body))
		stored := s.body
		var sf SectionFlags
		if c.compress && len(s.body) > compressThreshold {
			packed, err := compressBody(s.body, c.level)
			if err != nil {
				return nil, err
			}
			if len(packed) < len(s.body) {
				stored = packed
				sf |= SectionFlagCompressed
				flags |= FlagCompressed
			}
		}
		entries = append(entries, SectionEntry{
			typ:      s.typ,
			priority: c.priorityFor(s.typ),
			offset:   offset,
			length:   uint32(len(stored)),
			tokens:   est,
			flags:    sf,
		})
		bodies = append(bodies, stored...)
		offset += uint32(len(stored))
	}

	tableOff := HeaderSize + len(bodies)
	total := tableOff + len(entries)*EntrySize
	if total > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceed %d", ErrLimitExceeded, total, MaxFileSize)
	}

	created := c.createdAt
	if created.IsZero() {
		created = timeNow()
	}

	h := Header{
		major:     VersionMajor,
		minor:     VersionMinor,
		flags:     flags,
		checksum:  crc32.ChecksumIEEE(src),
		createdAt: uint64(created.Unix()),
		count:     uint16(len(entries)),
		tableOff:  uint32(tableOff),
		totalSize: uint32(total),
	}

	out := make([]byte, 0, total)
	out = h.append(out)
	out = append(out, bodies...)
	for _, e := range entries {
		out = e.append(out)
	}
	return out, nil
}

// CompileFile compiles d and writes the result to path atomically.
func CompileFile(path string, d *faf.ProjectDescription, opts ...CompileOption) error {
	data, err := Compile(d, opts...)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("fafb: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("fafb: atomic rename %s: %w", path, err)
	}
	return nil
}

func (c *compiler) priorityFor(t SectionType) Priority {
	if p, ok := c.overrides[t]; ok {
		return p
	}
	return c.policy.For(t)
}

func (c *compiler) headerFlags() HeaderFlags {
	var f HeaderFlags
	if c.base != nil {
		f |= FlagEmbeddings
	}
	if c.tokenMap != nil {
		f |= FlagTokenMap
	}
	if len(c.overlays) > 0 {
		f |= FlagModelHints
	}
	if len(c.hints) > 0 {
		f |= FlagAttention
	}
	return f
}

// rawSections encodes every present section body in canonical type
// order. Identity is always written; the other core sections appear only
// when the description has content for them.
func (c *compiler) rawSections(d *faf.ProjectDescription) ([]rawSection, error) {
	raw := []rawSection{{SectionIdentity, encodeIdentity(d)}}
	if len(d.StackKeys()) > 0 {
		raw = append(raw, rawSection{SectionTechStack, encodeStack(d)})
	}
	if len(d.KeyFiles()) > 0 {
		raw = append(raw, rawSection{SectionKeyFiles, encodeKeyFiles(d)})
	}
	if s := d.Architecture(); s != "" {
		raw = append(raw, rawSection{SectionArchitecture, encodeText(s)})
	}
	if s := d.Commands(); s != "" {
		raw = append(raw, rawSection{SectionCommands, encodeText(s)})
	}
	if s := d.Context(); s != "" {
		raw = append(raw, rawSection{SectionContext, encodeText(s)})
	}
	if m, ok := d.Sync(); ok {
		blob, err := faf.SerializeSync(m)
		if err != nil {
			return nil, fmt.Errorf("fafb: serialize sync metadata: %w", err)
		}
		raw = append(raw, rawSection{SectionSyncMeta, blob})
	}
	if c.base != nil {
		body, err := encodeEmbeddings(c.base)
		if err != nil {
			return nil, err
		}
		raw = append(raw, rawSection{SectionEmbeddings, body})
	}
	if c.tokenMap != nil {
		body, err := encodeTokenMap(c.tokenMap)
		if err != nil {
			return nil, err
		}
		raw = append(raw, rawSection{SectionTokenMap, body})
	}
	for _, l := range c.overlays {
		body, err := encodeEmbeddings(l)
		if err != nil {
			return nil, err
		}
		raw = append(raw, rawSection{SectionModelHints, body})
	}
	if len(c.hints) > 0 {
		body, err := encodeAttention(c.hints)
		if err != nil {
			return nil, err
		}
		raw = append(raw, rawSection{SectionAttention, body})
	}
	for _, data := range c.custom {
		raw = append(raw, rawSection{SectionCustom, data})
	}
	return raw, nil
}

func countTokens(ctr tokens.Counter, d *faf.ProjectDescription) (*TokenMap, error) {
	m := &TokenMap{Model: ctr.Model(), Counts: make(map[SectionType]int)}
	for _, t := range CoreSectionTypes() {
		text, ok := SectionPlaintext(d, t)
		if !ok {
			continue
		}
		n, err := ctr.Count(text)
		if err != nil {
			return nil, fmt.Errorf("fafb: count tokens for %s: %w", t, err)
		}
		m.Counts[t] = n
	}
	return m, nil
}
