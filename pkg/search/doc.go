// Package search implements keyword search over the building catalog.
//
// # Overview
//
// A query is tokenized into keywords; each keyword independently resolves
// to a set of building ids via a case-insensitive substring match across
// the catalog's text columns plus an architect-name fallback chain
// (individual architect -> composition group -> credited building).
// Per-keyword sets are intersected (AND semantics), ordered by building id
// descending, paginated, and hydrated with full rows and assembled
// architect display names.
//
// # Degradation
//
// Every sub-step except the final detail fetch degrades to an empty
// contribution on failure: a broken architect-chain lookup or a failed
// name reassembly shrinks the result rather than failing the search.
package search
