package title

import (
	"regexp"
	"strconv"
	"strings"
)

// groupTagPattern matches bracketed release-group tags like "[YIFY]".
var groupTagPattern = regexp.MustCompile(`\[[^\]]*\]`)

// codecGroupPattern matches the codec-group convention ("x264-SPARKS",
// "HEVC-PSA") before separators are collapsed, while the dash is still
// visible to bind the group name to the codec.
var codecGroupPattern = regexp.MustCompile(`\b(?:[xh]\.?26[45]|hevc)-[a-z0-9]+\b`)

// releasePatterns is the fixed catalog of release-descriptor tokens removed
// during normalization. Patterns run against the space-collapsed lowercase
// form, so separator classes only need to cover a single space. Codec
// patterns consume an attached "-GROUP" suffix (the common codec-group
// convention, e.g. "x264-SPARKS"); the dash survives until the second
// collapse, so the suffix is matched as a following token.
var releasePatterns = []*regexp.Regexp{
	// resolution classes
	regexp.MustCompile(`\b(?:480|720|1080|2160)[pi]\b`),
	regexp.MustCompile(`\b[48]k\b`),
	// codecs and bit-depth markers
	regexp.MustCompile(`\b[xh] ?26[45]\b`),
	regexp.MustCompile(`\bhevc\b`),
	regexp.MustCompile(`\b(?:8|10) ?bit\b`),
	// source tags
	regexp.MustCompile(`\bweb ?(?:dl|rip)\b`),
	regexp.MustCompile(`\bblu ?ray\b`),
	regexp.MustCompile(`\bbdrip\b`),
	regexp.MustCompile(`\bhdtv\b`),
	regexp.MustCompile(`\bhd ?rip\b`),
	regexp.MustCompile(`\bdvd ?rip\b`),
	// audio tags
	regexp.MustCompile(`\b(?:dual|multi) ?audio\b`),
	regexp.MustCompile(`\btruehd\b`),
	regexp.MustCompile(`\bdts ?hd\b`),
	regexp.MustCompile(`\bac3\b`),
	regexp.MustCompile(`\baac\b`),
	// subtitle tags
	regexp.MustCompile(`\beng ?subs?\b`),
	regexp.MustCompile(`\be?subs?\b`),
}

// containerPattern matches a trailing media container extension.
var containerPattern = regexp.MustCompile(`(?i)\.(?:mkv|mp4|avi|mov|wmv|flv|webm)$`)

// nonAlphanumericPattern matches runs of characters outside [a-z0-9].
var nonAlphanumericPattern = regexp.MustCompile(`[^a-z0-9]+`)

// yearPattern matches a standalone four-digit year between 1900 and 2099.
var yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {},
}

// Normalize canonicalizes an arbitrary filename or title into an ordered
// sequence of lowercase alphanumeric tokens. Empty or fully-stripped input
// yields a nil slice.
//
// The descriptor strip runs to a fixpoint: removing a token can make two
// survivors adjacent and form a new descriptor ("web" + "dl"), and
// idempotence requires those to go too.
func Normalize(raw string) []string {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return nil
	}

	cleaned = containerPattern.ReplaceAllString(cleaned, "")
	cleaned = groupTagPattern.ReplaceAllString(cleaned, " ")
	cleaned = codecGroupPattern.ReplaceAllString(cleaned, " ")
	cleaned = collapse(cleaned)

	for {
		next := stripPass(cleaned)
		if next == cleaned {
			break
		}
		cleaned = next
	}

	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// stripPass removes one round of release descriptors and stop words from a
// space-collapsed lowercase string.
func stripPass(s string) string {
	for _, pattern := range releasePatterns {
		s = pattern.ReplaceAllString(s, " ")
	}
	s = collapse(s)

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, field := range fields {
		if _, skip := stopWords[field]; skip {
			continue
		}
		kept = append(kept, field)
	}
	return strings.Join(kept, " ")
}

// collapse replaces non-alphanumeric runs with single spaces and trims.
func collapse(s string) string {
	return strings.TrimSpace(nonAlphanumericPattern.ReplaceAllString(s, " "))
}

// Canonical returns the normalized token sequence joined by single spaces.
func Canonical(raw string) string {
	return strings.Join(Normalize(raw), " ")
}

// ExtractYear returns the first standalone four-digit year (1900-2099) found
// in the input, or false when none is present.
func ExtractYear(raw string) (int, bool) {
	match := yearPattern.FindString(raw)
	if match == "" {
		return 0, false
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return year, true
}
