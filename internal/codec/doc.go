// Package codec defines the text encoding used for structured column values.
//
// Sequences, maps and structs cannot be stored in a SQLite column directly.
// On write they are converted to canonical JSON text:
//   - object keys sorted by UTF-16 code units
//   - no HTML escaping (< > & are kept literal)
//   - strings kept byte for byte (no Unicode normalization)
//   - numbers kept exactly as encoding/json renders them
//
// The same encoding is applied to criteria values, so a structured value can
// be matched by equality. Reading is explicit: callers decode a column with
// Decode (or store.Record.Decode); the store never guesses whether a TEXT
// column holds JSON.
package codec
