package fafb

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Magic identifies a compiled container file.
const Magic = "FAFB"

// Fixed structural sizes in bytes.
const (
	HeaderSize = 32
	EntrySize  = 16
)

// Format version written by this package. The major version gates
// compatibility; the minor version is informational only.
const (
	VersionMajor = 1
	VersionMinor = 0
)

// Format limits enforced at compile time.
const (
	MaxFileSize    = 10 << 20
	MaxSectionSize = 1 << 20
	MaxSections    = 256
)

// HeaderFlags is the header's feature bitset. Unknown bits are ignored on
// read so newer writers stay loadable.
type HeaderFlags uint16

const (
	FlagCompressed HeaderFlags = 0x0001
	FlagEmbeddings HeaderFlags = 0x0002
	FlagTokenMap   HeaderFlags = 0x0004
	FlagAttention  HeaderFlags = 0x0008
	FlagModelHints HeaderFlags = 0x0010
	// FlagSignature is reserved for signed containers. This writer never
	// sets it and readers ignore it.
	FlagSignature HeaderFlags = 0x0020
)

// Has reports whether every bit in mask is set.
func (f HeaderFlags) Has(mask HeaderFlags) bool { return f&mask == mask }

// Header is the decoded 32-byte file header.
//
// Layout (little-endian): magic "FAFB", major uint8, minor uint8, flags
// uint16, source checksum uint32, creation time uint64 (Unix seconds),
// section count uint16, section-table offset uint32, reserved uint16,
// total file size uint32.
type Header struct {
	major     uint8
	minor     uint8
	flags     HeaderFlags
	checksum  uint32
	createdAt uint64
	count     uint16
	tableOff  uint32
	totalSize uint32
}

func (h Header) Major() int              { return int(h.major) }
func (h Header) Minor() int              { return int(h.minor) }
func (h Header) Flags() HeaderFlags      { return h.flags }
func (h Header) SourceChecksum() uint32  { return h.checksum }
func (h Header) SectionCount() int       { return int(h.count) }
func (h Header) TableOffset() int        { return int(h.tableOff) }
func (h Header) TotalSize() int          { return int(h.totalSize) }

// CreatedAt returns the creation timestamp in UTC at second precision.
func (h Header) CreatedAt() time.Time {
	return time.Unix(int64(h.createdAt), 0).UTC()
}

func (h Header) append(dst []byte) []byte {
	dst = append(dst, Magic...)
	dst = append(dst, h.major, h.minor)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(h.flags))
	dst = binary.LittleEndian.AppendUint32(dst, h.checksum)
	dst = binary.LittleEndian.AppendUint64(dst, h.createdAt)
	dst = binary.LittleEndian.AppendUint16(dst, h.count)
	dst = binary.LittleEndian.AppendUint32(dst, h.tableOff)
	dst = binary.LittleEndian.AppendUint16(dst, 0) // reserved
	dst = binary.LittleEndian.AppendUint32(dst, h.totalSize)
	return dst
}

// decodeHeader reads the fixed header. It validates only length and magic;
// version and size gates belong to the loader so callers can still inspect
// incompatible files' headers.
func decodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes is shorter than the %d-byte header", ErrMalformedHeader, len(data), HeaderSize)
	}
	if string(data[:4]) != Magic {
		return Header{}, fmt.Errorf("%w: bad magic %q", ErrMalformedHeader, data[:4])
	}
	return Header{
		major:     data[4],
		minor:     data[5],
		flags:     HeaderFlags(binary.LittleEndian.Uint16(data[6:8])),
		checksum:  binary.LittleEndian.Uint32(data[8:12]),
		createdAt: binary.LittleEndian.Uint64(data[12:20]),
		count:     binary.LittleEndian.Uint16(data[20:22]),
		tableOff:  binary.LittleEndian.Uint32(data[22:26]),
		totalSize: binary.LittleEndian.Uint32(data[28:32]),
	}, nil
}
