package speech

import (
	"strings"
)

// SentenceBuffer splits an incremental text stream on sentence boundaries.
// Dialog replies arrive as deltas; handing each finished sentence to the
// synthesizer keeps time-to-first-audio low instead of waiting on the full
// reply.
type SentenceBuffer struct {
	pending strings.Builder
}

func NewSentenceBuffer() *SentenceBuffer {
	return &SentenceBuffer{}
}

// Add appends a delta and returns the sentences it completed, trimmed.
// Text after the last boundary stays pending.
func (b *SentenceBuffer) Add(text string) []string {
	b.pending.WriteString(text)
	content := b.pending.String()

	var out []string
	start := 0
	for i := 0; i < len(content); i++ {
		if !boundaryAt(content, i) {
			continue
		}
		if s := strings.TrimSpace(content[start : i+1]); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}

	if start > 0 {
		rest := content[start:]
		b.pending.Reset()
		b.pending.WriteString(rest)
	}
	return out
}

// Flush returns whatever is pending, trimmed, and empties the buffer.
func (b *SentenceBuffer) Flush() string {
	out := strings.TrimSpace(b.pending.String())
	b.pending.Reset()
	return out
}

// Pending returns the unfinished tail without consuming it.
func (b *SentenceBuffer) Pending() string {
	return b.pending.String()
}

// boundaryAt reports whether s[i] ends a sentence. A terminator only counts
// when followed by whitespace or the end of the text, so "49.99" and
// mid-abbreviation periods never split.
func boundaryAt(s string, i int) bool {
	switch s[i] {
	case '!', '?':
	case '.':
		if endsAbbreviation(s, i) {
			return false
		}
	default:
		return false
	}

	if i+1 < len(s) {
		switch s[i+1] {
		case ' ', '\n', '\r', '\t':
		default:
			return false
		}
	}
	return true
}

// Titles and credentials that show up in clinic speech and must not end a
// sentence. Lowercased for lookup.
var spokenAbbreviations = map[string]struct{}{
	"dr.": {}, "mr.": {}, "mrs.": {}, "ms.": {}, "jr.": {}, "sr.": {},
	"d.d.s.": {}, "d.m.d.": {}, "prof.": {},
	"st.": {}, "ave.": {}, "apt.": {}, "ste.": {},
	"a.m.": {}, "p.m.": {}, "i.e.": {}, "e.g.": {}, "etc.": {}, "approx.": {},
}

func endsAbbreviation(s string, i int) bool {
	if i < 1 {
		return false
	}

	start := i
	for start > 0 && s[start-1] != ' ' && s[start-1] != '\n' {
		start--
	}
	if _, ok := spokenAbbreviations[strings.ToLower(s[start:i+1])]; ok {
		return true
	}

	// "John Q. Public": a lone capital before the period is an initial.
	return s[i-1] >= 'A' && s[i-1] <= 'Z' && (i < 2 || s[i-2] == ' ' || s[i-2] == '\n')
}
