// Package synth generates synthetic tables from terse specifications.
//
// A Generator owns one seeded random source and one list of default
// categories. It does no locking: give each goroutine its own Generator.
// Two generators built with the same seed and fed the same calls in the
// same order produce identical tables.
package synth
