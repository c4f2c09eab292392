// Package chunk splits reply text into speakable units. The same
// boundary rules serve two callers: the pipeline scans a growing LLM
// output buffer for completed sentences, and synthesis adapters hard-cap
// unit length before issuing provider calls.
package chunk

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// sentencePattern detects a sentence boundary: a run of terminators or
// an ellipsis, followed by whitespace. Text after the last terminator of
// a reply carries no trailing whitespace and is flushed separately.
var sentencePattern = regexp.MustCompile(`[.!?]+\s+|\.{3}\s+`)

// NextSentence scans buf for the first completed sentence. When a
// boundary is found it returns the sentence (boundary whitespace
// trimmed), the unconsumed remainder, and ok=true. The sentence may be
// empty if the consumed span was whitespace only; the remainder is still
// advanced so callers make progress.
func NextSentence(buf string) (sentence, rest string, ok bool) {
	loc := sentencePattern.FindStringIndex(buf)
	if loc == nil {
		return "", buf, false
	}
	return strings.TrimSpace(buf[:loc[1]]), buf[loc[1]:], true
}

// Split breaks text into units of at most maxLength bytes, preferring
// sentence boundaries, then word boundaries, then a forced cut. A unit
// may exceed maxLength only when maxLength is not positive. Empty or
// whitespace-only input yields no units.
func Split(text string, maxLength int) []string {
	remaining := strings.TrimSpace(text)
	if remaining == "" {
		return nil
	}
	if maxLength <= 0 {
		return []string{remaining}
	}

	var units []string
	for remaining != "" {
		if len(remaining) <= maxLength {
			units = append(units, remaining)
			break
		}

		cut, next := boundaryCut(remaining, maxLength)
		unit := strings.TrimSpace(remaining[:cut])
		if unit != "" {
			units = append(units, unit)
		}
		remaining = strings.TrimLeft(remaining[next:], " \t\r\n")
	}
	return units
}

// boundaryCut picks the split point for a remainder longer than
// maxLength. It returns the end of the emitted span and the start of the
// next span, scanning the window [0, maxLength] for the last sentence
// terminator followed by whitespace, then for the last whitespace run,
// before falling back to a forced cut at maxLength.
func boundaryCut(remaining string, maxLength int) (cut, next int) {
	window := maxLength + 1
	if window > len(remaining) {
		window = len(remaining)
	}

	for i := window - 1; i > 0; i-- {
		if isTerminator(remaining[i-1]) && isSpace(remaining[i]) {
			return i, skipSpace(remaining, i)
		}
	}
	for i := window - 1; i >= 0; i-- {
		if isSpace(remaining[i]) {
			return i, skipSpace(remaining, i)
		}
	}

	// Forced cut. Back off to the previous rune start so a multi-byte
	// rune is never sliced; a single rune wider than maxLength moves
	// forward instead so the caller keeps making progress.
	cut = maxLength
	for cut > 0 && !utf8.RuneStart(remaining[cut]) {
		cut--
	}
	if cut == 0 {
		cut = maxLength
		for cut < len(remaining) && !utf8.RuneStart(remaining[cut]) {
			cut++
		}
	}
	return cut, cut
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
