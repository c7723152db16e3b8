package fafb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wolfe-Jam/faf-go/pkg/faf"
	"github.com/Wolfe-Jam/faf-go/pkg/tokens"
)

func newTestDescription(t *testing.T) *faf.ProjectDescription {
	t.Helper()
	d, err := faf.New("vector-search",
		faf.WithVersion("2.1.0"),
		faf.WithScore(85),
		faf.WithStack(map[string]string{
			"language":  "go",
			"framework": "cobra",
			"storage":   "sqlite",
		}),
		faf.WithKeyFile("cmd/server/main.go", "service entry point"),
		faf.WithKeyFile("internal/index/hnsw.go", "vector index"),
		faf.WithArchitecture("Hexagonal core. Adapters for HTTP and gRPC."),
		faf.WithCommands("build: go build ./...\ntest: go test ./..."),
		faf.WithContext("Latency budget is 10ms at p99."),
		faf.WithSync(faf.NewSyncMeta("faf-cli")),
	)
	require.NoError(t, err)
	return d
}

func findEntry(t *testing.T, entries []SectionEntry, typ SectionType) SectionEntry {
	t.Helper()
	for _, e := range entries {
		if e.Type() == typ {
			return e
		}
	}
	t.Fatalf("no %s entry in table", typ)
	return SectionEntry{}
}

func TestCompileLoadRoundTrip(t *testing.T) {
	d := newTestDescription(t)
	data, err := Compile(d)
	require.NoError(t, err)

	doc, err := Load(data)
	require.NoError(t, err)
	require.NotNil(t, doc.Description())
	assert.True(t, d.Equal(doc.Description()))
	assert.True(t, doc.SourceVerified())
	assert.Empty(t, doc.Diagnostics())
}

func TestCompileCanonicalSectionOrder(t *testing.T) {
	d := newTestDescription(t)
	data, err := Compile(d, WithCustomSection([]byte("opaque")))
	require.NoError(t, err)

	_, entries, err := Inspect(data)
	require.NoError(t, err)

	var got []SectionType
	for _, e := range entries {
		got = append(got, e.Type())
	}
	assert.Equal(t, []SectionType{
		SectionIdentity, SectionTechStack, SectionKeyFiles,
		SectionArchitecture, SectionCommands, SectionContext,
		SectionSyncMeta, SectionCustom,
	}, got)

	// bodies are laid out back to back between header and table
	offset := HeaderSize
	for _, e := range entries {
		assert.Equal(t, offset, e.Offset())
		offset += e.Length()
	}
}

func TestCompileHeader(t *testing.T) {
	created := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	d := newTestDescription(t)
	data, err := Compile(d, WithTimestamp(created))
	require.NoError(t, err)

	h, entries, err := Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, VersionMajor, h.Major())
	assert.Equal(t, VersionMinor, h.Minor())
	assert.Equal(t, created, h.CreatedAt())
	assert.Equal(t, len(entries), h.SectionCount())
	assert.Equal(t, len(data), h.TotalSize())
	assert.Equal(t, h.TotalSize()-len(entries)*EntrySize, h.TableOffset())
}

func TestCompileDeterministic(t *testing.T) {
	d := newTestDescription(t)
	created := time.Unix(1756000000, 0)

	a, err := Compile(d, WithTimestamp(created))
	require.NoError(t, err)
	b, err := Compile(d, WithTimestamp(created))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompileSkipsEmptySections(t *testing.T) {
	d, err := faf.New("tiny")
	require.NoError(t, err)
	data, err := Compile(d)
	require.NoError(t, err)

	doc, err := Load(data)
	require.NoError(t, err)
	assert.True(t, doc.InFile(SectionIdentity))
	assert.False(t, doc.InFile(SectionTechStack))
	assert.False(t, doc.InFile(SectionContext))
	assert.True(t, doc.SourceVerified())
	assert.Equal(t, "tiny", doc.Description().Name())
}

func TestCompileAppliesPriorities(t *testing.T) {
	d := newTestDescription(t)
	data, err := Compile(d, WithPriority(SectionContext, PriorityCritical))
	require.NoError(t, err)

	_, entries, err := Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, PriorityCritical, findEntry(t, entries, SectionIdentity).Priority())
	assert.Equal(t, PriorityHigh, findEntry(t, entries, SectionTechStack).Priority())
	assert.Equal(t, PriorityMedium, findEntry(t, entries, SectionCommands).Priority())
	assert.Equal(t, PriorityCritical, findEntry(t, entries, SectionContext).Priority())
}

func TestCompileCompression(t *testing.T) {
	long := strings.Repeat("The indexer walks the repository and refreshes stale entries. ", 60)
	d, err := faf.New("big", faf.WithContext(long))
	require.NoError(t, err)

	plain, err := Compile(d)
	require.NoError(t, err)
	packed, err := Compile(d, WithCompression())
	require.NoError(t, err)
	assert.Less(t, len(packed), len(plain))

	h, entries, err := Inspect(packed)
	require.NoError(t, err)
	assert.True(t, h.Flags().Has(FlagCompressed))

	ctx := findEntry(t, entries, SectionContext)
	assert.True(t, ctx.Flags().Has(SectionFlagCompressed))
	// the estimate describes the uncompressed body
	assert.Equal(t, int(tokens.Estimate(len(encodeText(long)))), ctx.TokenEstimate())
	assert.Less(t, ctx.Length(), len(encodeText(long)))

	doc, err := Load(packed)
	require.NoError(t, err)
	got, ok := doc.Text(SectionContext)
	require.True(t, ok)
	assert.Equal(t, long, got)
	assert.True(t, doc.SourceVerified())
}

func TestCompileSmallBodiesStayRaw(t *testing.T) {
	d, err := faf.New("tiny", faf.WithContext("short note"))
	require.NoError(t, err)
	data, err := Compile(d, WithCompression())
	require.NoError(t, err)

	h, entries, err := Inspect(data)
	require.NoError(t, err)
	assert.False(t, h.Flags().Has(FlagCompressed))
	for _, e := range entries {
		assert.False(t, e.Flags().Has(SectionFlagCompressed))
	}
}

func TestCompileWithTokenCounter(t *testing.T) {
	d := newTestDescription(t)
	data, err := Compile(d, WithTokenCounter(tokens.HeuristicCounter{}))
	require.NoError(t, err)

	h, _, err := Inspect(data)
	require.NoError(t, err)
	assert.True(t, h.Flags().Has(FlagTokenMap))

	doc, err := Load(data)
	require.NoError(t, err)
	tms := doc.TokenMaps()
	require.Len(t, tms, 1)
	assert.Equal(t, "heuristic", tms[0].Model)
	assert.Contains(t, tms[0].Counts, SectionIdentity)
	assert.Contains(t, tms[0].Counts, SectionContext)
	assert.NotContains(t, tms[0].Counts, SectionSyncMeta)
	assert.Positive(t, tms[0].Total())
}

func TestCompileNilDescription(t *testing.T) {
	_, err := Compile(nil)
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestCompileZeroValueDescription(t *testing.T) {
	// a zero value bypasses the New factory; the compiler must reject it
	// rather than emit bytes no loader will accept
	_, err := Compile(&faf.ProjectDescription{})
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestCompileSectionSizeLimit(t *testing.T) {
	d, err := faf.New("big")
	require.NoError(t, err)
	_, err = Compile(d, WithCustomSection(make([]byte, MaxSectionSize+1)))
	assert.ErrorIs(t, err, ErrLimitExceeded)
}

func TestCompileSectionCountLimit(t *testing.T) {
	d, err := faf.New("many")
	require.NoError(t, err)
	// identity already takes one slot
	opts := make([]CompileOption, 0, MaxSections)
	for i := 0; i < MaxSections; i++ {
		opts = append(opts, WithCustomSection([]byte{byte(i)}))
	}
	_, err = Compile(d, opts...)
	assert.ErrorIs(t, err, ErrLimitExceeded)
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.fafb")
	d := newTestDescription(t)
	require.NoError(t, CompileFile(path, d))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, d.Equal(doc.Description()))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
