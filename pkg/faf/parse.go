package faf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// TextVersion identifies the .faf text schema written by Serialize.
// Parse accepts any value and ignores it.
const TextVersion = "1.0"

// document mirrors the on-disk .faf YAML schema.
type document struct {
	FafVersion   string        `yaml:"faf_version,omitempty"`
	Project      projectDoc    `yaml:"project"`
	AIScore      scoreValue    `yaml:"ai_score,omitempty"`
	Stack        stackDoc      `yaml:"stack,omitempty"`
	KeyFiles     []keyFileDoc  `yaml:"key_files,omitempty"`
	Architecture string        `yaml:"architecture,omitempty"`
	Commands     commandsValue `yaml:"commands,omitempty"`
	Context      string        `yaml:"context,omitempty"`
	Sync         *SyncMeta     `yaml:"sync,omitempty"`
}

type projectDoc struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version,omitempty"`
}

// scoreValue accepts both integer scores and the historical "85%" string
// form. It always serializes to the percent form.
type scoreValue int

func (s *scoreValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("ai_score must be a scalar")
	}
	raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(node.Value), "%"))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("ai_score %q is not a number", node.Value)
	}
	*s = scoreValue(n)
	return nil
}

func (s scoreValue) MarshalYAML() (any, error) {
	return fmt.Sprintf("%d%%", int(s)), nil
}

// stackDoc serializes with sorted keys so the canonical form is
// byte-deterministic regardless of map iteration order.
type stackDoc map[string]string

func (s stackDoc) MarshalYAML() (any, error) {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		var key, val yaml.Node
		key.SetString(k)
		val.SetString(s[k])
		node.Content = append(node.Content, &key, &val)
	}
	return node, nil
}

// keyFileDoc accepts both the legacy bare-path form and the full
// path/description mapping.
type keyFileDoc struct {
	Path        string `yaml:"path"`
	Description string `yaml:"description,omitempty"`
}

func (k *keyFileDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		k.Path = node.Value
		k.Description = ""
		return nil
	}
	type plain keyFileDoc
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*k = keyFileDoc(p)
	return nil
}

// commandsValue accepts either free text or a name-to-command mapping.
// Mappings canonicalize into sorted "name: command" lines.
type commandsValue string

func (c *commandsValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*c = commandsValue(node.Value)
		return nil
	}
	var m map[string]string
	if err := node.Decode(&m); err != nil {
		return fmt.Errorf("commands must be text or a name-to-command map")
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, name+": "+m[name])
	}
	*c = commandsValue(strings.Join(lines, "\n"))
	return nil
}

// Parse deserializes .faf text into a validated description.
func Parse(src []byte) (*ProjectDescription, error) {
	var doc document
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("faf: parse: %w", err)
	}

	opts := []Option{WithVersion(doc.Project.Version)}
	if doc.AIScore != 0 {
		opts = append(opts, WithScore(int(doc.AIScore)))
	}
	if len(doc.Stack) > 0 {
		opts = append(opts, WithStack(doc.Stack))
	}
	for _, kf := range doc.KeyFiles {
		opts = append(opts, WithKeyFile(kf.Path, kf.Description))
	}
	if doc.Architecture != "" {
		opts = append(opts, WithArchitecture(doc.Architecture))
	}
	if doc.Commands != "" {
		opts = append(opts, WithCommands(string(doc.Commands)))
	}
	if doc.Context != "" {
		opts = append(opts, WithContext(doc.Context))
	}
	if doc.Sync != nil {
		opts = append(opts, WithSync(*doc.Sync))
	}

	d, err := New(doc.Project.Name, opts...)
	if err != nil {
		return nil, fmt.Errorf("faf: parse: %w", err)
	}
	return d, nil
}

// Serialize renders a description to its canonical .faf text form. The
// output is byte-deterministic for equal descriptions: fixed field order,
// sorted map keys. This canonical text is what the binary container's
// source checksum covers.
func Serialize(d *ProjectDescription) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("faf: serialize: %w: nil description", ErrInvalidField)
	}

	doc := document{
		FafVersion:   TextVersion,
		Project:      projectDoc{Name: d.name, Version: d.version},
		AIScore:      scoreValue(d.score),
		Stack:        stackDoc(d.stack),
		Architecture: d.architecture,
		Commands:     commandsValue(d.commands),
		Context:      d.context,
	}
	for _, kf := range d.keyFiles {
		doc.KeyFiles = append(doc.KeyFiles, keyFileDoc{Path: kf.Path, Description: kf.Description})
	}
	if d.sync != nil {
		sync := *d.sync
		doc.Sync = &sync
	}

	b, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("faf: serialize: %w", err)
	}
	return b, nil
}

// SerializeSync renders sync metadata as a standalone YAML blob. The binary
// container stores this blob uninterpreted in its own section.
func SerializeSync(m SyncMeta) ([]byte, error) {
	b, err := yaml.Marshal(&m)
	if err != nil {
		return nil, fmt.Errorf("faf: serialize sync: %w", err)
	}
	return b, nil
}

// ParseSync decodes a sync metadata blob written by SerializeSync.
func ParseSync(b []byte) (SyncMeta, error) {
	var m SyncMeta
	if err := yaml.Unmarshal(b, &m); err != nil {
		return SyncMeta{}, fmt.Errorf("faf: parse sync: %w", err)
	}
	if err := m.Validate(); err != nil {
		return SyncMeta{}, fmt.Errorf("faf: parse sync: %w", err)
	}
	return m, nil
}
