package faf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresName(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidField))
}

func TestNewRejectsOutOfRangeScore(t *testing.T) {
	tests := []struct {
		name  string
		score int
	}{
		{"above maximum", 101},
		{"far above maximum", 1000},
		{"negative", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("demo", WithScore(tt.score))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidField), "score must be rejected, not clamped")
		})
	}
}

func TestNewPopulatesFields(t *testing.T) {
	d, err := New("demo",
		WithVersion("1.2.3"),
		WithScore(85),
		WithStackEntry("backend", "go"),
		WithStackEntry("frontend", "svelte"),
		WithKeyFile("main.go", "entry point"),
		WithKeyFile("pkg/core", ""),
		WithArchitecture("hexagonal"),
		WithCommands("build: go build ./..."),
		WithContext("a demo project"),
	)
	require.NoError(t, err)

	assert.Equal(t, "demo", d.Name())
	assert.Equal(t, "1.2.3", d.Version())
	assert.Equal(t, 85, d.Score())
	assert.Equal(t, map[string]string{"backend": "go", "frontend": "svelte"}, d.Stack())
	assert.Equal(t, []KeyFile{
		{Path: "main.go", Description: "entry point"},
		{Path: "pkg/core"},
	}, d.KeyFiles())
	assert.Equal(t, "hexagonal", d.Architecture())
	assert.Equal(t, "build: go build ./...", d.Commands())
	assert.Equal(t, "a demo project", d.Context())
	assert.Equal(t, []string{"backend", "frontend"}, d.StackKeys())

	_, ok := d.Sync()
	assert.False(t, ok)
}

func TestNewRejectsEmptyStackKey(t *testing.T) {
	_, err := New("demo", WithStackEntry("", "go"))
	assert.True(t, errors.Is(err, ErrInvalidField))

	_, err = New("demo", WithStack(map[string]string{"": "go"}))
	assert.True(t, errors.Is(err, ErrInvalidField))
}

func TestNewRejectsEmptyKeyFilePath(t *testing.T) {
	_, err := New("demo", WithKeyFile("", "something"))
	assert.True(t, errors.Is(err, ErrInvalidField))
}

func TestAccessorsReturnCopies(t *testing.T) {
	d, err := New("demo",
		WithStack(map[string]string{"backend": "go"}),
		WithKeyFile("main.go", "entry"),
	)
	require.NoError(t, err)

	stack := d.Stack()
	stack["backend"] = "mutated"
	assert.Equal(t, "go", d.Stack()["backend"])

	files := d.KeyFiles()
	files[0].Path = "mutated.go"
	assert.Equal(t, "main.go", d.KeyFiles()[0].Path)
}

func TestWithStackCopiesInput(t *testing.T) {
	src := map[string]string{"backend": "go"}
	d, err := New("demo", WithStack(src))
	require.NoError(t, err)

	src["backend"] = "mutated"
	assert.Equal(t, "go", d.Stack()["backend"])
}

func TestEqual(t *testing.T) {
	build := func() *ProjectDescription {
		d, err := New("demo",
			WithVersion("1.0.0"),
			WithScore(70),
			WithStackEntry("backend", "go"),
			WithKeyFile("main.go", "entry"),
			WithContext("ctx"),
		)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return d
	}

	a, b := build(), build()
	assert.True(t, a.Equal(b))

	c, err := New("demo", WithVersion("1.0.0"), WithScore(71))
	require.NoError(t, err)
	assert.False(t, a.Equal(c))

	var nilDesc *ProjectDescription
	assert.False(t, a.Equal(nilDesc))
	assert.True(t, nilDesc.Equal(nil))
}

func TestSyncMetaLineage(t *testing.T) {
	m := NewSyncMeta("project.faf")
	assert.NotEmpty(t, m.SyncID)
	assert.Equal(t, "project.faf", m.Origin)
	assert.Equal(t, 1, m.Generation)
	require.NoError(t, m.Validate())

	next := m.Next()
	assert.Equal(t, m.SyncID, next.SyncID)
	assert.Equal(t, 2, next.Generation)
	assert.Equal(t, 1, m.Generation, "Next must not mutate the receiver")
}

func TestSyncMetaValidate(t *testing.T) {
	m := SyncMeta{Generation: 1}
	assert.True(t, errors.Is(m.Validate(), ErrInvalidField))

	m = SyncMeta{SyncID: "abc", Generation: 0}
	assert.True(t, errors.Is(m.Validate(), ErrInvalidField))
}

func TestWithSyncValidates(t *testing.T) {
	_, err := New("demo", WithSync(SyncMeta{}))
	assert.True(t, errors.Is(err, ErrInvalidField))

	d, err := New("demo", WithSync(NewSyncMeta("project.faf")))
	require.NoError(t, err)
	got, ok := d.Sync()
	require.True(t, ok)
	assert.Equal(t, 1, got.Generation)
}
