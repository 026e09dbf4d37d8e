package views

import (
	"strings"

	"gait-logger/models"
)

// ScoreSection names the computed summary section spliced into snapshots.
const ScoreSection = "Score"

const bom = "\ufeff"

// RenderSnapshot renders the whole dictionary. Nested subfields become
// section;field;subfield;value rows, everything else section;field;value.
// Each section ends with a blank line. Sections that are not mappings are
// skipped.
func RenderSnapshot(d *models.Dictionary) string {
	var b strings.Builder
	b.WriteString(Preamble)
	if d == nil {
		return b.String()
	}

	for _, sec := range d.Sections {
		fields, ok := sec.Value.(models.Object)
		if !ok {
			continue
		}
		for _, f := range fields {
			if sub, ok := f.Value.(models.Object); ok {
				for _, s := range sub {
					b.WriteString(JoinFields([]string{
						sec.Key, f.Key, FormatSubKeyName(s.Key), formatValue(s.Key, s.Value),
					}))
					b.WriteByte('\n')
				}
				continue
			}
			b.WriteString(JoinFields([]string{sec.Key, f.Key, formatValue(f.Key, f.Value)}))
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func formatValue(key string, v any) string {
	return Cell(Capitalize(FormatDate(key, v), key))
}

// ScoreRow is one labelled score of the Score section.
type ScoreRow struct {
	Label string
	Score float64
}

// RenderScoreSection renders the Score rows followed by the blank line that
// terminates a section.
func RenderScoreSection(rows []ScoreRow) []string {
	lines := make([]string, 0, len(rows)+1)
	for _, r := range rows {
		lines = append(lines, JoinFields([]string{ScoreSection, r.Label, models.FormatFixed(r.Score, 2)}))
	}
	return append(lines, "")
}

// SpliceSection replaces the Score section of text with section. Without an
// existing Score section the new one goes right after the Infos section,
// falling back to after the first section, then to the end.
func SpliceSection(text string, section []string) string {
	lines := strings.Split(text, "\n")

	pos := -1
	if start := findSection(lines, ScoreSection); start >= 0 {
		end := sectionEnd(lines, start)
		lines = append(lines[:start:start], lines[end:]...)
		pos = start
	}
	if pos < 0 {
		pos = insertionPoint(lines)
	}

	out := make([]string, 0, len(lines)+len(section))
	out = append(out, lines[:pos]...)
	out = append(out, section...)
	out = append(out, lines[pos:]...)
	return strings.Join(out, "\n")
}

// insertionPoint is the index right after the Infos section's blank line.
func insertionPoint(lines []string) int {
	start := findSection(lines, models.InfosSection)
	if start < 0 {
		start = firstRow(lines)
	}
	if start < 0 {
		return trailingIndex(lines)
	}
	end := sectionEnd(lines, start)
	if end > trailingIndex(lines) {
		return trailingIndex(lines)
	}
	return end
}

// findSection returns the first line whose first field equals name,
// ignoring case, or -1.
func findSection(lines []string, name string) int {
	for i, l := range lines {
		if strings.EqualFold(firstField(l), name) {
			return i
		}
	}
	return -1
}

// sectionEnd returns the index just past the blank line that terminates the
// section starting at start.
func sectionEnd(lines []string, start int) int {
	for i := start; i < len(lines); i++ {
		if lines[i] == "" {
			return i + 1
		}
	}
	return len(lines)
}

// firstRow returns the first data row after the preamble, or -1.
func firstRow(lines []string) int {
	for i, l := range lines {
		if i == 0 && strings.HasPrefix(l, bom) {
			continue
		}
		if l != "" {
			return i
		}
	}
	return -1
}

// trailingIndex is where content goes to land before the final newline.
func trailingIndex(lines []string) int {
	if n := len(lines); n > 0 && lines[n-1] == "" {
		return n - 1
	}
	return len(lines)
}

// firstField unquotes the first field of a row.
func firstField(line string) string {
	line = strings.TrimPrefix(line, bom)
	if !strings.HasPrefix(line, `"`) {
		f, _, _ := strings.Cut(line, Delimiter)
		return f
	}
	var b strings.Builder
	for i := 1; i < len(line); i++ {
		c := line[i]
		if c != '"' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(line) && line[i+1] == '"' {
			b.WriteByte('"')
			i++
			continue
		}
		break
	}
	return b.String()
}
