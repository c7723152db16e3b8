package faf

import (
	"fmt"

	gojson "github.com/goccy/go-json"
)

// descriptionJSON is the exported wire shape for tool boundaries.
type descriptionJSON struct {
	Name         string            `json:"name"`
	Version      string            `json:"version,omitempty"`
	Score        int               `json:"score,omitempty"`
	Stack        map[string]string `json:"stack,omitempty"`
	KeyFiles     []KeyFile         `json:"key_files,omitempty"`
	Architecture string            `json:"architecture,omitempty"`
	Commands     string            `json:"commands,omitempty"`
	Context      string            `json:"context,omitempty"`
	Sync         *SyncMeta         `json:"sync,omitempty"`
}

// MarshalJSON renders the description for JSON consumers such as editor
// integrations and the CLI's --json output.
func (d *ProjectDescription) MarshalJSON() ([]byte, error) {
	doc := descriptionJSON{
		Name:         d.name,
		Version:      d.version,
		Score:        int(d.score),
		Stack:        d.stack,
		KeyFiles:     d.keyFiles,
		Architecture: d.architecture,
		Commands:     d.commands,
		Context:      d.context,
		Sync:         d.sync,
	}
	return gojson.Marshal(doc)
}

// UnmarshalJSON rebuilds a description from its JSON form. All input flows
// through the validating factory, so invalid JSON payloads are rejected the
// same way invalid option values are.
func (d *ProjectDescription) UnmarshalJSON(b []byte) error {
	var doc descriptionJSON
	if err := gojson.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("faf: unmarshal json: %w", err)
	}

	opts := []Option{WithVersion(doc.Version)}
	if doc.Score != 0 {
		opts = append(opts, WithScore(doc.Score))
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
		opts = append(opts, WithCommands(doc.Commands))
	}
	if doc.Context != "" {
		opts = append(opts, WithContext(doc.Context))
	}
	if doc.Sync != nil {
		opts = append(opts, WithSync(*doc.Sync))
	}

	rebuilt, err := New(doc.Name, opts...)
	if err != nil {
		return err
	}
	*d = *rebuilt
	return nil
}
