// Package dataset provides the in-memory table model shared by every
// preparation stage.
//
// A Table is an ordered sequence of rows over an ordered column list. The
// column list distinguishes the fixed original schema (as delivered by
// ingestion) from derived boolean flag columns added by later stages;
// derived columns are additive and never displace original ones. Tables are
// immutable through the API: every transforming method returns a new Table
// value, so stages stay referentially transparent and reproducible.
//
// The package also owns the single numeric-coercion predicate. A cell is
// numeric only when its entire trimmed text parses as a finite number;
// empty cells, partial matches and non-finite parses are "absent". Every
// stage that reads numbers goes through this predicate so absence semantics
// never drift between stages.
package dataset
