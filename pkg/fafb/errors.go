package fafb

import "errors"

var (
	// ErrMalformedHeader covers files too short to hold a header, bad
	// magic bytes, and declared sizes smaller than the actual data.
	ErrMalformedHeader = errors.New("fafb: malformed header")

	// ErrIncompatibleVersion is returned when the file's major format
	// version differs from this package's. The minor version never gates.
	ErrIncompatibleVersion = errors.New("fafb: incompatible format version")

	// ErrTableOutOfBounds covers structural bounds violations: a section
	// table or section body that falls outside the actual data, including
	// files truncated mid-body. Fatal for full loads; partial loads skip
	// the offending entry and record a diagnostic instead.
	ErrTableOutOfBounds = errors.New("fafb: section table out of bounds")

	// ErrChecksumMismatch is reported by full loads when the stored source
	// checksum does not match the decoded description. The returned
	// document is still fully decoded.
	ErrChecksumMismatch = errors.New("fafb: source checksum mismatch")

	// ErrCorruptSection covers body-level decode failures in core
	// sections: truncated strings, impossible counts, failed
	// decompression. Extension layers never surface it; they degrade to
	// diagnostics.
	ErrCorruptSection = errors.New("fafb: corrupt section body")

	// ErrInvalidField is returned at compile time for values that cannot
	// be represented. Values are rejected, never clamped.
	ErrInvalidField = errors.New("fafb: invalid field")

	// ErrLimitExceeded is returned when a section, the section count, or
	// the whole file exceeds the format limits.
	ErrLimitExceeded = errors.New("fafb: size limit exceeded")
)

// Diagnostic codes recorded on loaded documents. Diagnostics report
// conditions that degrade a load without failing it.
const (
	CodeUnknownSection   = "unknown_section"
	CodeEntryOutOfBounds = "entry_out_of_bounds"
	CodeCorruptSection   = "corrupt_section"
	CodeLayerUnavailable = "layer_unavailable"
	CodeDuplicateSection = "duplicate_section"
	CodeChecksumMismatch = "checksum_mismatch"
	CodeChecksumSkipped  = "checksum_skipped"
)

// Diagnostic describes one degraded condition observed during a load.
type Diagnostic struct {
	Code    string
	Section SectionType
	Detail  string
}

func (d Diagnostic) String() string {
	return d.Code + " " + d.Section.String() + ": " + d.Detail
}
