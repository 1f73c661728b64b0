// Package subtitle parses SubRip (.srt) files into an ordered list of cues.
// Cues keep the order they have in the file; timing is never reordered or
// validated beyond the grammar itself.
package subtitle
