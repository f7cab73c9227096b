// Package royalty implements the royalty calculation core: rate tier
// resolution, returns netting, advance recoupment, co-author ownership
// splits, royalty period derivation, and statement assembly.
//
// Every computation in this package is a pure function over its explicit
// inputs. All currency math uses fixed-point decimals; per-tier amounts are
// rounded to currency precision before summation so the assembled statement
// matches reporting granularity. Assembling a statement twice from identical
// inputs produces a byte-identical calculations record, which is what makes
// statements auditable and re-derivable.
package royalty
