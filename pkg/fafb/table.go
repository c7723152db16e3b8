package fafb

import (
	"encoding/binary"
	"fmt"
)

// SectionType tags the content of one section. Core types carry the
// description itself; types 0x10 and above are extension layers; 0xFF is
// caller-defined. Unknown tags are skipped on load, never rejected.
type SectionType uint8

const (
	SectionIdentity     SectionType = 0x01
	SectionTechStack    SectionType = 0x02
	SectionKeyFiles     SectionType = 0x03
	SectionArchitecture SectionType = 0x04
	SectionCommands     SectionType = 0x05
	SectionContext      SectionType = 0x06
	SectionSyncMeta     SectionType = 0x07
	SectionEmbeddings   SectionType = 0x10
	SectionTokenMap     SectionType = 0x11
	SectionModelHints   SectionType = 0x12
	SectionAttention    SectionType = 0x13
	SectionCustom       SectionType = 0xFF
)

var sectionNames = map[SectionType]string{
	SectionIdentity:     "identity",
	SectionTechStack:    "tech-stack",
	SectionKeyFiles:     "key-files",
	SectionArchitecture: "architecture",
	SectionCommands:     "commands",
	SectionContext:      "context",
	SectionSyncMeta:     "sync-metadata",
	SectionEmbeddings:   "embeddings",
	SectionTokenMap:     "token-map",
	SectionModelHints:   "model-hints",
	SectionAttention:    "attention-hints",
	SectionCustom:       "custom",
}

func (t SectionType) String() string {
	if name, ok := sectionNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%02x)", uint8(t))
}

// Known reports whether this package understands the tag.
func (t SectionType) Known() bool {
	_, ok := sectionNames[t]
	return ok
}

// Extension reports whether the type is a layered extension, structurally
// separate from the core description.
func (t SectionType) Extension() bool {
	switch t {
	case SectionEmbeddings, SectionTokenMap, SectionModelHints, SectionAttention:
		return true
	}
	return false
}

// SectionTypeByName resolves a canonical section name back to its tag.
func SectionTypeByName(name string) (SectionType, bool) {
	for t, n := range sectionNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// CoreSectionTypes lists the description-carrying types in canonical order.
func CoreSectionTypes() []SectionType {
	return []SectionType{
		SectionIdentity,
		SectionTechStack,
		SectionKeyFiles,
		SectionArchitecture,
		SectionCommands,
		SectionContext,
		SectionSyncMeta,
	}
}

// Priority orders sections for budget-constrained loading. Higher loads
// first. The named tiers are conventions; any value is a valid priority
// and forms its own tier.
type Priority uint8

const (
	PriorityOptional Priority = 0
	PriorityLow      Priority = 64
	PriorityMedium   Priority = 128
	PriorityHigh     Priority = 200
	// PriorityCritical sections are always loaded, at any budget.
	PriorityCritical Priority = 255
)

// SectionFlags is the per-section bitset. Unknown bits are ignored.
type SectionFlags uint16

const (
	// SectionFlagCompressed marks a zstd-compressed body.
	SectionFlagCompressed SectionFlags = 0x0001
)

// Has reports whether every bit in mask is set.
func (f SectionFlags) Has(mask SectionFlags) bool { return f&mask == mask }

// SectionEntry is one decoded 16-byte section-table entry.
//
// Layout (little-endian): type uint8, priority uint8, body offset uint32
// (file-absolute), body length uint32, token estimate uint16, flags
// uint16, reserved uint16.
type SectionEntry struct {
	typ      SectionType
	priority Priority
	offset   uint32
	length   uint32
	tokens   uint16
	flags    SectionFlags
}

func (e SectionEntry) Type() SectionType   { return e.typ }
func (e SectionEntry) Priority() Priority  { return e.priority }
func (e SectionEntry) Offset() int         { return int(e.offset) }
func (e SectionEntry) Length() int         { return int(e.length) }
func (e SectionEntry) TokenEstimate() int  { return int(e.tokens) }
func (e SectionEntry) Flags() SectionFlags { return e.flags }

func (e SectionEntry) append(dst []byte) []byte {
	dst = append(dst, uint8(e.typ), uint8(e.priority))
	dst = binary.LittleEndian.AppendUint32(dst, e.offset)
	dst = binary.LittleEndian.AppendUint32(dst, e.length)
	dst = binary.LittleEndian.AppendUint16(dst, e.tokens)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(e.flags))
	dst = binary.LittleEndian.AppendUint16(dst, 0) // reserved
	return dst
}

// decodeEntry reads one table entry. Any 16 bytes parse; bounds are the
// loader's concern.
func decodeEntry(b []byte) SectionEntry {
	return SectionEntry{
		typ:      SectionType(b[0]),
		priority: Priority(b[1]),
		offset:   binary.LittleEndian.Uint32(b[2:6]),
		length:   binary.LittleEndian.Uint32(b[6:10]),
		tokens:   binary.LittleEndian.Uint16(b[10:12]),
		flags:    SectionFlags(binary.LittleEndian.Uint16(b[12:14])),
	}
}
