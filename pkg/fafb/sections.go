package fafb

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/Wolfe-Jam/faf-go/pkg/faf"
)

// Section bodies share one encoding scheme: little-endian fixed-width
// integers, strings as a uint32 byte length followed by UTF-8 bytes,
// repeated records behind a uint16 count.

func appendString(dst []byte, s string) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(s)))
	return append(dst, s...)
}

// bodyReader walks a section body with bounds checking. Every read past
// the end reports ErrCorruptSection so callers can treat truncation and
// impossible counts uniformly.
type bodyReader struct {
	b   []byte
	off int
}

func (r *bodyReader) remaining() int { return len(r.b) - r.off }

func (r *bodyReader) u8() (uint8, error) {
	if r.remaining() < 1 {
		return 0, fmt.Errorf("%w: truncated byte at offset %d", ErrCorruptSection, r.off)
	}
	v := r.b[r.off]
	r.off++
	return v, nil
}

func (r *bodyReader) u16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, fmt.Errorf("%w: truncated uint16 at offset %d", ErrCorruptSection, r.off)
	}
	v := binary.LittleEndian.Uint16(r.b[r.off:])
	r.off += 2
	return v, nil
}

func (r *bodyReader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, fmt.Errorf("%w: truncated uint32 at offset %d", ErrCorruptSection, r.off)
	}
	v := binary.LittleEndian.Uint32(r.b[r.off:])
	r.off += 4
	return v, nil
}

func (r *bodyReader) f32() (float32, error) {
	bits, err := r.u32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

func (r *bodyReader) str() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	if uint64(n) > uint64(r.remaining()) {
		return "", fmt.Errorf("%w: string length %d exceeds remaining %d bytes", ErrCorruptSection, n, r.remaining())
	}
	s := string(r.b[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}

func (r *bodyReader) expectDone() error {
	if r.remaining() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorruptSection, r.remaining())
	}
	return nil
}

// --- identity (0x01): name, version, score ---

func encodeIdentity(d *faf.ProjectDescription) []byte {
	buf := appendString(nil, d.Name())
	buf = appendString(buf, d.Version())
	return append(buf, uint8(d.Score()))
}

func decodeIdentity(b []byte) (name, version string, score int, err error) {
	r := &bodyReader{b: b}
	if name, err = r.str(); err != nil {
		return "", "", 0, err
	}
	if version, err = r.str(); err != nil {
		return "", "", 0, err
	}
	s, err := r.u8()
	if err != nil {
		return "", "", 0, err
	}
	if err = r.expectDone(); err != nil {
		return "", "", 0, err
	}
	if name == "" {
		return "", "", 0, fmt.Errorf("%w: empty project name", ErrCorruptSection)
	}
	if int(s) > faf.MaxScore {
		return "", "", 0, fmt.Errorf("%w: score %d outside 0-%d", ErrCorruptSection, s, faf.MaxScore)
	}
	return name, version, int(s), nil
}

// --- tech stack (0x02): key/value pairs, sorted on write ---

func encodeStack(d *faf.ProjectDescription) []byte {
	keys := d.StackKeys()
	stack := d.Stack()
	buf := binary.LittleEndian.AppendUint16(nil, uint16(len(keys)))
	for _, k := range keys {
		buf = appendString(buf, k)
		buf = appendString(buf, stack[k])
	}
	return buf
}

// decodeStack rebuilds the stack map. Duplicate keys are legal in the wire
// form; the last write wins.
func decodeStack(b []byte) (map[string]string, error) {
	r := &bodyReader{b: b}
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, count)
	for i := 0; i < int(count); i++ {
		k, err := r.str()
		if err != nil {
			return nil, err
		}
		v, err := r.str()
		if err != nil {
			return nil, err
		}
		if k == "" {
			return nil, fmt.Errorf("%w: empty stack key", ErrCorruptSection)
		}
		m[k] = v
	}
	if err := r.expectDone(); err != nil {
		return nil, err
	}
	return m, nil
}

// --- key files (0x03): ordered path/description records ---

func encodeKeyFiles(d *faf.ProjectDescription) []byte {
	files := d.KeyFiles()
	buf := binary.LittleEndian.AppendUint16(nil, uint16(len(files)))
	for _, kf := range files {
		buf = appendString(buf, kf.Path)
		buf = appendString(buf, kf.Description)
	}
	return buf
}

func decodeKeyFiles(b []byte) ([]faf.KeyFile, error) {
	r := &bodyReader{b: b}
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	files := make([]faf.KeyFile, 0, count)
	for i := 0; i < int(count); i++ {
		path, err := r.str()
		if err != nil {
			return nil, err
		}
		desc, err := r.str()
		if err != nil {
			return nil, err
		}
		if path == "" {
			return nil, fmt.Errorf("%w: empty key-file path", ErrCorruptSection)
		}
		files = append(files, faf.KeyFile{Path: path, Description: desc})
	}
	if err := r.expectDone(); err != nil {
		return nil, err
	}
	return files, nil
}

// --- free-text sections (0x04-0x07): one string blob ---

func encodeText(s string) []byte {
	return appendString(nil, s)
}

func decodeText(b []byte) (string, error) {
	r := &bodyReader{b: b}
	s, err := r.str()
	if err != nil {
		return "", err
	}
	if err := r.expectDone(); err != nil {
		return "", err
	}
	return s, nil
}

// SectionPlaintext renders a core section of the description as plain text
// for token counting and embedding. It returns false for sections with
// nothing to render and for non-core types.
func SectionPlaintext(d *faf.ProjectDescription, t SectionType) (string, bool) {
	if d == nil {
		return "", false
	}
	switch t {
	case SectionIdentity:
		s := strings.TrimSpace(d.Name() + " " + d.Version())
		return s, s != ""
	case SectionTechStack:
		keys := d.StackKeys()
		if len(keys) == 0 {
			return "", false
		}
		stack := d.Stack()
		var b strings.Builder
		for _, k := range keys {
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(stack[k])
			b.WriteString("\n")
		}
		return b.String(), true
	case SectionKeyFiles:
		files := d.KeyFiles()
		if len(files) == 0 {
			return "", false
		}
		var b strings.Builder
		for _, kf := range files {
			b.WriteString(kf.Path)
			if kf.Description != "" {
				b.WriteString(": ")
				b.WriteString(kf.Description)
			}
			b.WriteString("\n")
		}
		return b.String(), true
	case SectionArchitecture:
		return d.Architecture(), d.Architecture() != ""
	case SectionCommands:
		return d.Commands(), d.Commands() != ""
	case SectionContext:
		return d.Context(), d.Context() != ""
	}
	return "", false
}
