package fafb

import (
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/gobwas/glob"

	"github.com/Wolfe-Jam/faf-go/pkg/faf"
)

// Inspect decodes the header and section table without reading any
// bodies. It runs the structural checks shared by every load mode:
// magic, major version, declared size, and table bounds.
func Inspect(data []byte) (Header, []SectionEntry, error) {
	h, err := decodeHeader(data)
	if err != nil {
		return Header{}, nil, err
	}
	if h.Major() != VersionMajor {
		return Header{}, nil, fmt.Errorf("%w: file is major version %d, this package reads %d", ErrIncompatibleVersion, h.Major(), VersionMajor)
	}
	if h.Minor() > VersionMinor {
		slog.Debug("file has newer minor format version", "file", h.Minor(), "supported", VersionMinor)
	}
	if h.TotalSize() < HeaderSize {
		return Header{}, nil, fmt.Errorf("%w: declared size %d is shorter than the header", ErrMalformedHeader, h.TotalSize())
	}
	if len(data) < h.TotalSize() {
		return Header{}, nil, fmt.Errorf("%w: file is %d bytes, header declares %d", ErrTableOutOfBounds, len(data), h.TotalSize())
	}
	if len(data) > h.TotalSize() {
		return Header{}, nil, fmt.Errorf("%w: %d trailing bytes after declared size %d", ErrMalformedHeader, len(data)-h.TotalSize(), h.TotalSize())
	}
	tableEnd := h.TableOffset() + h.SectionCount()*EntrySize
	if h.TableOffset() < HeaderSize || tableEnd > h.TotalSize() {
		return Header{}, nil, fmt.Errorf("%w: table of %d entries at offset %d does not fit in %d bytes", ErrTableOutOfBounds, h.SectionCount(), h.TableOffset(), h.TotalSize())
	}
	entries := make([]SectionEntry, 0, h.SectionCount())
	for i := 0; i < h.SectionCount(); i++ {
		off := h.TableOffset() + i*EntrySize
		entries = append(entries, decodeEntry(data[off:off+EntrySize]))
	}
	return h, entries, nil
}

type identityParts struct {
	name    string
	version string
	score   int
}

// Document is the result of loading a binary file. Partial loads leave
// unselected sections out; InFile and Loaded distinguish a section the
// file never contained from one that was skipped.
type Document struct {
	header  Header
	entries []SectionEntry

	inFile map[SectionType]bool
	loaded map[SectionType]bool

	identity *identityParts
	stack    map[string]string
	keyFiles []faf.KeyFile
	texts    map[SectionType]string
	sync     *faf.SyncMeta
	custom   [][]byte

	embeddings *EmbeddingLayer
	overlays   []*EmbeddingLayer
	tokenMaps  []*TokenMap
	attention  []AttentionHint

	desc       *faf.ProjectDescription
	verified   bool
	tokenTotal int
	diags      []Diagnostic
}

func (doc *Document) Header() Header { return doc.header }

// Entries returns a copy of the section table.
func (doc *Document) Entries() []SectionEntry { return slices.Clone(doc.entries) }

// InFile reports whether the file contains a section of type t, whether
// or not it was loaded.
func (doc *Document) InFile(t SectionType) bool { return doc.inFile[t] }

// Loaded reports whether a section of type t was selected and decoded.
func (doc *Document) Loaded(t SectionType) bool { return doc.loaded[t] }

// Description returns the assembled description, or nil when the
// identity section was not loaded.
func (doc *Document) Description() *faf.ProjectDescription { return doc.desc }

// Identity returns the identity fields without requiring assembly.
func (doc *Document) Identity() (name, version string, score int, ok bool) {
	if doc.identity == nil {
		return "", "", 0, false
	}
	return doc.identity.name, doc.identity.version, doc.identity.score, true
}

func (doc *Document) Stack() map[string]string { return maps.Clone(doc.stack) }

func (doc *Document) KeyFiles() []faf.KeyFile { return slices.Clone(doc.keyFiles) }

// Text returns a loaded free-text section: architecture, commands or
// context.
func (doc *Document) Text(t SectionType) (string, bool) {
	s, ok := doc.texts[t]
	return s, ok
}

func (doc *Document) Sync() (faf.SyncMeta, bool) {
	if doc.sync == nil {
		return faf.SyncMeta{}, false
	}
	return *doc.sync, true
}

// Custom returns copies of the opaque custom section bodies in file order.
func (doc *Document) Custom() [][]byte {
	out := make([][]byte, len(doc.custom))
	for i, b := range doc.custom {
		out[i] = bytes.Clone(b)
	}
	return out
}

// Embeddings returns the base embedding layer when one loaded cleanly.
func (doc *Document) Embeddings() (*EmbeddingLayer, bool) {
	return doc.embeddings, doc.embeddings != nil
}

// Overlays returns the model-specific embedding overlays in file order.
func (doc *Document) Overlays() []*EmbeddingLayer { return slices.Clone(doc.overlays) }

// TokenMaps returns the exact token counts carried by the file, one map
// per tokenizer model.
func (doc *Document) TokenMaps() []*TokenMap { return slices.Clone(doc.tokenMaps) }

// Attention returns every attention hint in the file.
func (doc *Document) Attention() []AttentionHint { return slices.Clone(doc.attention) }

// SourceVerified reports whether a full load recomputed a matching
// source checksum.
func (doc *Document) SourceVerified() bool { return doc.verified }

// TokenEstimate sums the table estimates of the loaded sections.
func (doc *Document) TokenEstimate() int { return doc.tokenTotal }

// Diagnostics lists the degraded conditions observed while loading.
func (doc *Document) Diagnostics() []Diagnostic { return slices.Clone(doc.diags) }

func (doc *Document) diag(code string, t SectionType, detail string) {
	doc.diags = append(doc.diags, Diagnostic{Code: code, Section: t, Detail: detail})
}

// Load reads every section of a compiled file and verifies the source
// checksum. On checksum mismatch the fully decoded document is returned
// together with an error wrapping ErrChecksumMismatch.
func Load(data []byte) (*Document, error) {
	return load(data, true, nil)
}

// LoadFile reads and fully loads the file at path.
func LoadFile(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("fafb: stat %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrLimitExceeded, path, info.Size(), MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fafb: read %s: %w", path, err)
	}
	return Load(data)
}

// LoadBudget reads the sections that fit the token budget, chosen by the
// same rule as PlanBudget. Critical sections always load, whatever the
// budget.
func LoadBudget(data []byte, budget int) (*Document, error) {
	return load(data, false, func(entries []SectionEntry) map[int]bool {
		picked := planIndices(entries, budget)
		set := make(map[int]bool, len(picked))
		for _, i := range picked {
			set[i] = true
		}
		return set
	})
}

// LoadSections loads only the named section types.
func LoadSections(data []byte, types ...SectionType) (*Document, error) {
	want := make(map[SectionType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	return load(data, false, func(entries []SectionEntry) map[int]bool {
		set := make(map[int]bool)
		for i, e := range entries {
			if want[e.Type()] {
				set[i] = true
			}
		}
		return set
	})
}

// LoadGlob loads the sections whose canonical names match pattern, for
// example "key-*" or "{identity,tech-stack}".
func LoadGlob(data []byte, pattern string) (*Document, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("fafb: section pattern %q: %w", pattern, err)
	}
	return load(data, false, func(entries []SectionEntry) map[int]bool {
		set := make(map[int]bool)
		for i, e := range entries {
			if e.Type().Known() && g.Match(e.Type().String()) {
				set[i] = true
			}
		}
		return set
	})
}

// load is the shared core. A nil pick loads everything; otherwise pick
// chooses table indices once the table is decoded. full selects the
// strict error handling of Load.
func load(data []byte, full bool, pick func([]SectionEntry) map[int]bool) (*Document, error) {
	h, entries, err := Inspect(data)
	if err != nil {
		return nil, err
	}
	var selected map[int]bool
	if pick != nil {
		selected = pick(entries)
	}
	doc := &Document{
		header:  h,
		entries: entries,
		inFile:  make(map[SectionType]bool, len(entries)),
		loaded:  make(map[SectionType]bool, len(entries)),
		texts:   make(map[SectionType]string, 3),
	}
	for i, e := range entries {
		doc.inFile[e.Type()] = true
		if selected != nil && !selected[i] {
			continue
		}
		if err := doc.loadEntry(data, h, e, full); err != nil {
			return nil, err
		}
	}
	if err := doc.assemble(); err != nil {
		if full {
			return nil, err
		}
		doc.diag(CodeCorruptSection, SectionIdentity, err.Error())
	}
	if full {
		if err := doc.verify(h); err != nil {
			if errors.Is(err, ErrChecksumMismatch) {
				return doc, err
			}
			return nil, err
		}
	}
	return doc, nil
}

func inBounds(e SectionEntry, h Header) bool {
	return e.Offset() >= HeaderSize && e.Offset()+e.Length() <= h.TableOffset()
}

// loadEntry decodes one selected section into the document. Unknown
// types are skipped with their bodies unread. Failures in core sections
// are fatal for full loads and diagnostics otherwise; failures in
// extension layers are always diagnostics.
func (doc *Document) loadEntry(data []byte, h Header, e SectionEntry, full bool) error {
	t := e.Type()
	if !inBounds(e, h) {
		detail := fmt.Sprintf("body at %d+%d overruns table at %d", e.Offset(), e.Length(), h.TableOffset())
		if full {
			return fmt.Errorf("%w: %s %s", ErrTableOutOfBounds, t, detail)
		}
		doc.diag(CodeEntryOutOfBounds, t, detail)
		slog.Debug("skipping out-of-bounds section", "type", t.String(), "detail", detail)
		return nil
	}
	if !t.Known() {
		doc.diag(CodeUnknownSection, t, fmt.Sprintf("%d bytes skipped", e.Length()))
		slog.Debug("skipping unknown section", "type", t.String(), "bytes", e.Length())
		return nil
	}
	body := data[e.Offset() : e.Offset()+e.Length()]
	if e.Flags().Has(SectionFlagCompressed) {
		plain, err := decompressBody(body)
		if err != nil {
			return doc.bodyFailure(t, err, full)
		}
		body = plain
	}

	switch t {
	case SectionIdentity:
		name, version, score, err := decodeIdentity(body)
		if err != nil {
			return doc.bodyFailure(t, err, full)
		}
		doc.noteDuplicate(t)
		doc.identity = &identityParts{name: name, version: version, score: score}
	case SectionTechStack:
		m, err := decodeStack(body)
		if err != nil {
			return doc.bodyFailure(t, err, full)
		}
		doc.noteDuplicate(t)
		doc.stack = m
	case SectionKeyFiles:
		files, err := decodeKeyFiles(body)
		if err != nil {
			return doc.bodyFailure(t, err, full)
		}
		doc.noteDuplicate(t)
		doc.keyFiles = files
	case SectionArchitecture, SectionCommands, SectionContext:
		s, err := decodeText(body)
		if err != nil {
			return doc.bodyFailure(t, err, full)
		}
		doc.noteDuplicate(t)
		doc.texts[t] = s
	case SectionSyncMeta:
		m, err := faf.ParseSync(body)
		if err != nil {
			return doc.bodyFailure(t, fmt.Errorf("%w: %v", ErrCorruptSection, err), full)
		}
		doc.noteDuplicate(t)
		doc.sync = &m
	case SectionEmbeddings:
		layer, err := decodeEmbeddings(body)
		if err != nil {
			return doc.bodyFailure(t, err, full)
		}
		if doc.embeddings != nil {
			doc.diag(CodeDuplicateSection, t, "last occurrence wins")
		}
		doc.embeddings = layer
	case SectionTokenMap:
		m, err := decodeTokenMap(body)
		if err != nil {
			return doc.bodyFailure(t, err, full)
		}
		doc.tokenMaps = append(doc.tokenMaps, m)
	case SectionModelHints:
		layer, err := decodeEmbeddings(body)
		if err != nil {
			return doc.bodyFailure(t, err, full)
		}
		doc.overlays = append(doc.overlays, layer)
	case SectionAttention:
		hints, err := decodeAttention(body)
		if err != nil {
			return doc.bodyFailure(t, err, full)
		}
		doc.attention = append(doc.attention, hints...)
	case SectionCustom:
		doc.custom = append(doc.custom, bytes.Clone(body))
	}
	doc.loaded[t] = true
	doc.tokenTotal += e.TokenEstimate()
	return nil
}

// bodyFailure routes a decode or decompression failure. Extension layers
// degrade to a diagnostic in every mode.
func (doc *Document) bodyFailure(t SectionType, err error, full bool) error {
	if t.Extension() {
		doc.diag(CodeLayerUnavailable, t, err.Error())
		slog.Debug("extension layer unavailable", "type", t.String(), "error", err)
		return nil
	}
	if full {
		return fmt.Errorf("%s section: %w", t, err)
	}
	doc.diag(CodeCorruptSection, t, err.Error())
	slog.Debug("skipping corrupt section", "type", t.String(), "error", err)
	return nil
}

func (doc *Document) noteDuplicate(t SectionType) {
	if doc.loaded[t] {
		doc.diag(CodeDuplicateSection, t, "last occurrence wins")
	}
}

// assemble builds a ProjectDescription from whatever core pieces loaded.
// It needs at least the identity section.
func (doc *Document) assemble() error {
	if doc.identity == nil {
		return nil
	}
	var opts []faf.Option
	if doc.identity.version != "" {
		opts = append(opts, faf.WithVersion(doc.identity.version))
	}
	if doc.identity.score > 0 {
		opts = append(opts, faf.WithScore(doc.identity.score))
	}
	if len(doc.stack) > 0 {
		opts = append(opts, faf.WithStack(doc.stack))
	}
	for _, kf := range doc.keyFiles {
		opts = append(opts, faf.WithKeyFile(kf.Path, kf.Description))
	}
	if s, ok := doc.texts[SectionArchitecture]; ok {
		opts = append(opts, faf.WithArchitecture(s))
	}
	if s, ok := doc.texts[SectionCommands]; ok {
		opts = append(opts, faf.WithCommands(s))
	}
	if s, ok := doc.texts[SectionContext]; ok {
		opts = append(opts, faf.WithContext(s))
	}
	if doc.sync != nil {
		opts = append(opts, faf.WithSync(*doc.sync))
	}
	d, err := faf.New(doc.identity.name, opts...)
	if err != nil {
		return fmt.Errorf("%w: reassemble description: %v", ErrCorruptSection, err)
	}
	doc.desc = d
	return nil
}

// verify recomputes the source checksum from the assembled description
// and compares it with the header. Files whose identity section did not
// load cannot be verified; that is recorded as a diagnostic, not an
// error.
func (doc *Document) verify(h Header) error {
	if doc.desc == nil {
		doc.diag(CodeChecksumSkipped, SectionIdentity, "identity section not loaded")
		return nil
	}
	src, err := faf.Serialize(doc.desc)
	if err != nil {
		return fmt.Errorf("fafb: serialize for checksum: %w", err)
	}
	sum := crc32.ChecksumIEEE(src)
	if sum != h.SourceChecksum() {
		doc.diag(CodeChecksumMismatch, SectionIdentity, fmt.Sprintf("stored %08x, computed %08x", h.SourceChecksum(), sum))
		return fmt.Errorf("%w: stored %08x, computed %08x", ErrChecksumMismatch, h.SourceChecksum(), sum)
	}
	doc.verified = true
	return nil
}
