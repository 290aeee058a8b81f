// Package transcript splits speaker notes into lines and maps session times
// onto them.
package transcript

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

var (
	blankLine    = regexp.MustCompile(`\n[ \t\r]*\n`)
	sentenceEnd  = regexp.MustCompile(`([.?!])\s+`)
	lineBreaks   = regexp.MustCompile(`\r?\n`)
	innerSpacing = regexp.MustCompile(`\s+`)
)

// Split breaks text into non-empty lines. Paragraphs separated by blank lines
// win; otherwise single line breaks are used; text without line breaks is cut
// after sentence punctuation.
func Split(text string) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil
	}
	var parts []string
	switch {
	case blankLine.MatchString(text):
		parts = blankLine.Split(text, -1)
	case strings.Contains(text, "\n"):
		parts = lineBreaks.Split(text, -1)
	default:
		parts = strings.Split(sentenceEnd.ReplaceAllString(text, "$1\n"), "\n")
	}
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(innerSpacing.ReplaceAllString(p, " "))
		if p != "" {
			lines = append(lines, p)
		}
	}
	return lines
}

// Aligner maps session timestamps onto transcript lines, assuming the lines
// are spread evenly over the session.
type Aligner struct {
	lines    []string
	duration float64
}

// NewAligner creates an Aligner over lines for a session of duration seconds.
func NewAligner(lines []string, duration float64) Aligner {
	return Aligner{lines: lines, duration: duration}
}

// Index returns the line index for t, or -1 when there is nothing to align to.
func (a Aligner) Index(t float64) int {
	n := len(a.lines)
	if n == 0 || a.duration <= 0 || math.IsNaN(t) || math.IsNaN(a.duration) || math.IsInf(a.duration, 0) {
		return -1
	}
	pos := t / a.duration * float64(n)
	switch {
	case pos < 0:
		return 0
	case pos >= float64(n):
		return n - 1
	}
	return int(math.Floor(pos))
}

// Line returns the transcript line spoken around t, or "".
func (a Aligner) Line(t float64) string {
	if i := a.Index(t); i >= 0 {
		return a.lines[i]
	}
	return ""
}

// Lines returns the underlying lines.
func (a Aligner) Lines() []string { return a.lines }

// Timecode formats seconds as MM:SS.
func Timecode(t float64) string {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	total := int(math.Floor(t))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
