// Package title canonicalizes noisy movie filenames and titles into a
// comparable token form.
//
// Normalization lowercases the input, strips bracketed release-group tags,
// release descriptors (resolution, codec, source, audio, and subtitle tags),
// and container extensions, then tokenizes on non-alphanumeric runs and drops
// a fixed stop-word set. Token order is preserved because downstream scoring
// includes an order-sensitive measure. The operation is deterministic, pure,
// and total: malformed input yields an empty token sequence, never an error.
package title
