// Package fafb implements the FAFB binary container for project
// descriptions.
//
// A .fafb file is the compiled form of a .faf project description, laid
// out for fast partial reads: a fixed 32-byte header, the section
// bodies, then a section table of fixed 16-byte entries that gives a
// reader random access to individual sections without scanning the
// whole file.
//
// Sections carry independent parts of the description (identity, tech
// stack, key files, free-text context) plus optional extension layers
// (embeddings, exact token counts, attention hints). Every table entry
// records a priority and a token estimate, so a consumer with a fixed
// context budget can load the most important sections first and skip
// the rest.
//
// Loading comes in three modes:
//
//	doc, err := fafb.Load(data)            // everything, checksum verified
//	doc, err := fafb.LoadBudget(data, 400) // fit a token budget
//	doc, err := fafb.LoadSections(data, fafb.SectionIdentity)
//
// Compiling is option-driven:
//
//	data, err := fafb.Compile(desc,
//		fafb.WithCompression(),
//		fafb.WithTokenCounter(counter),
//	)
//
// Corruption never cascades: full loads fail fast on damaged core
// sections, partial loads skip them and record diagnostics, and
// extension layers always degrade to diagnostics. Unknown section types
// are skipped in every mode, so older readers can open newer files.
package fafb
