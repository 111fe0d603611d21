// Package arh decodes XCX ARH/ARD archives and extracts their members.
//
// An archive is a pair of files:
//   - Header (.arh): a fixed little-endian table of member filename hashes and sizes
//   - Data (.ard): member contents concatenated at alignment-rounded offsets
//
// The header stores only xxHash64 hashes of member names. Names are attached
// by supplying candidate filenames; members that stay unresolved are
// extracted under their 16-digit uppercase hex hash.
package arh
