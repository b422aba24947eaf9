// Package match scores requested titles against catalog candidates and
// decides availability.
//
// Scoring combines three ratio measures over canonical token forms: a
// token-set ratio that ignores order and duplicates, a token-sort ratio
// that compares the sorted token sequences, and a partial ratio that finds
// the best substring alignment. All ratios live in [0, 100]. The engine is
// read-only; it never mutates candidates or stores anything.
package match
