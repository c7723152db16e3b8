// Package faf holds the project-description boundary object and its text
// codec. A description is everything an AI assistant should know about a
// project before reading its code: identity, tech stack, key files,
// operational notes and free-form context.
//
// Descriptions are immutable values. All construction flows through New so
// a description can never exist half-initialized or with out-of-range
// fields; accessors return copies of any internal maps or slices.
package faf

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidField = errors.New("faf: invalid field")
	ErrNotFound     = errors.New("faf: no .faf file found")
)

// MaxScore is the upper bound of the quality score.
const MaxScore = 100

var timeNow = time.Now // injected for testability

// KeyFile points an AI consumer at one file worth reading first.
// An empty description is valid; an empty path is not.
type KeyFile struct {
	Path        string `yaml:"path" json:"path"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// SyncMeta records the provenance of a description that is kept in sync
// with an on-disk source.
type SyncMeta struct {
	SyncID     string    `yaml:"sync_id" json:"sync_id"`
	Origin     string    `yaml:"origin,omitempty" json:"origin,omitempty"`
	Generation int       `yaml:"generation" json:"generation"`
	SyncedAt   time.Time `yaml:"synced_at" json:"synced_at"`
}

// NewSyncMeta starts a fresh sync lineage for the given origin path.
func NewSyncMeta(origin string) SyncMeta {
	return SyncMeta{
		SyncID:     uuid.New().String(),
		Origin:     origin,
		Generation: 1,
		SyncedAt:   timeNow().UTC().Truncate(time.Second),
	}
}

// Next returns the metadata for the following sync generation.
func (m SyncMeta) Next() SyncMeta {
	m.Generation++
	m.SyncedAt = timeNow().UTC().Truncate(time.Second)
	return m
}

// Validate ensures required sync metadata fields are populated.
func (m SyncMeta) Validate() error {
	if m.SyncID == "" {
		return fmt.Errorf("%w: sync_id must not be empty", ErrInvalidField)
	}
	if m.Generation < 1 {
		return fmt.Errorf("%w: sync generation must be at least 1", ErrInvalidField)
	}
	return nil
}

// Equal reports whether two sync records describe the same state.
func (m SyncMeta) Equal(o SyncMeta) bool {
	return m.SyncID == o.SyncID &&
		m.Origin == o.Origin &&
		m.Generation == o.Generation &&
		m.SyncedAt.Equal(o.SyncedAt)
}

// ProjectDescription is the boundary object of the format.
type ProjectDescription struct {
	name         string
	version      string
	score        uint8
	stack        map[string]string
	keyFiles     []KeyFile
	architecture string
	commands     string
	context      string
	sync         *SyncMeta
}

// Option configures a description under construction.
type Option func(*ProjectDescription) error

// WithVersion sets the project version string.
func WithVersion(version string) Option {
	return func(d *ProjectDescription) error {
		d.version = version
		return nil
	}
}

// WithScore sets the quality score. Scores outside 0-100 are rejected,
// never clamped.
func WithScore(score int) Option {
	return func(d *ProjectDescription) error {
		if score < 0 || score > MaxScore {
			return fmt.Errorf("%w: score %d outside 0-%d", ErrInvalidField, score, MaxScore)
		}
		d.score = uint8(score)
		return nil
	}
}

// WithStack replaces the tech-stack entries with a copy of m.
func WithStack(m map[string]string) Option {
	return func(d *ProjectDescription) error {
		for k := range m {
			if k == "" {
				return fmt.Errorf("%w: stack key must not be empty", ErrInvalidField)
			}
		}
		d.stack = maps.Clone(m)
		return nil
	}
}

// WithStackEntry adds a single tech-stack entry.
func WithStackEntry(key, value string) Option {
	return func(d *ProjectDescription) error {
		if key == "" {
			return fmt.Errorf("%w: stack key must not be empty", ErrInvalidField)
		}
		if d.stack == nil {
			d.stack = make(map[string]string)
		}
		d.stack[key] = value
		return nil
	}
}

// WithKeyFile appends a key-file entry. The description may be empty.
func WithKeyFile(path, description string) Option {
	return func(d *ProjectDescription) error {
		if path == "" {
			return fmt.Errorf("%w: key-file path must not be empty", ErrInvalidField)
		}
		d.keyFiles = append(d.keyFiles, KeyFile{Path: path, Description: description})
		return nil
	}
}

// WithArchitecture sets the free-form architecture notes.
func WithArchitecture(text string) Option {
	return func(d *ProjectDescription) error {
		d.architecture = text
		return nil
	}
}

// WithCommands sets the free-form build/run command notes.
func WithCommands(text string) Option {
	return func(d *ProjectDescription) error {
		d.commands = text
		return nil
	}
}

// WithContext sets the free-form project context.
func WithContext(text string) Option {
	return func(d *ProjectDescription) error {
		d.context = text
		return nil
	}
}

// WithSync attaches sync metadata.
func WithSync(m SyncMeta) Option {
	return func(d *ProjectDescription) error {
		if err := m.Validate(); err != nil {
			return err
		}
		d.sync = &m
		return nil
	}
}

// New constructs a validated project description. The name is required;
// every other field is optional.
func New(name string, opts ...Option) (*ProjectDescription, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: project name must not be empty", ErrInvalidField)
	}
	d := &ProjectDescription{name: name}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *ProjectDescription) Name() string    { return d.name }
func (d *ProjectDescription) Version() string { return d.version }
func (d *ProjectDescription) Score() int      { return int(d.score) }

// Stack returns a copy of the tech-stack entries.
func (d *ProjectDescription) Stack() map[string]string {
	if len(d.stack) == 0 {
		return nil
	}
	return maps.Clone(d.stack)
}

// KeyFiles returns a copy of the key-file list in authored order.
func (d *ProjectDescription) KeyFiles() []KeyFile {
	if len(d.keyFiles) == 0 {
		return nil
	}
	return slices.Clone(d.keyFiles)
}

func (d *ProjectDescription) Architecture() string { return d.architecture }
func (d *ProjectDescription) Commands() string     { return d.commands }
func (d *ProjectDescription) Context() string      { return d.context }

// Sync returns the sync metadata, if any.
func (d *ProjectDescription) Sync() (SyncMeta, bool) {
	if d.sync == nil {
		return SyncMeta{}, false
	}
	return *d.sync, true
}

// Equal reports whether two descriptions match field for field.
func (d *ProjectDescription) Equal(o *ProjectDescription) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.name != o.name || d.version != o.version || d.score != o.score {
		return false
	}
	if !maps.Equal(d.stack, o.stack) {
		return false
	}
	if !slices.Equal(d.keyFiles, o.keyFiles) {
		return false
	}
	if d.architecture != o.architecture || d.commands != o.commands || d.context != o.context {
		return false
	}
	switch {
	case d.sync == nil && o.sync == nil:
		return true
	case d.sync == nil || o.sync == nil:
		return false
	default:
		return d.sync.Equal(*o.sync)
	}
}

// StackKeys returns the stack keys in sorted order.
func (d *ProjectDescription) StackKeys() []string {
	if len(d.stack) == 0 {
		return nil
	}
	keys := make([]string, 0, len(d.stack))
	for k := range d.stack {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
