// Package logictext splits the free-form logic text attached to a form
// field into discrete declarative units. Authors write logic as bullet
// lists, numbered lists, or plain sentences separated by blank lines;
// each unit is classified and synthesized independently.
package logictext

import "strings"

// Split segments logic text into units. A new bullet or numbered line
// starts a unit; indented lines continue the current one; blank lines
// terminate it. Plain consecutive lines merge into a single unit.
func Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var units []string
	var buf []string

	flush := func() {
		joined := strings.TrimSpace(strings.Join(buf, " "))
		if joined != "" {
			units = append(units, joined)
		}
		buf = buf[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.TrimSpace(line) == "":
			flush()
		case (isBullet(line) || isNumbered(line)) && !isIndented(line):
			flush()
			buf = append(buf, stripListPrefix(line))
		case isIndented(line):
			// Continuation of the current unit, including nested bullets.
			buf = append(buf, stripListPrefix(line))
		default:
			buf = append(buf, strings.TrimSpace(line))
		}
	}
	flush()
	return units
}

// isBullet returns true for lines starting with "- ", "* ", or "• "
// (after trim). '•' is multi-byte but HasPrefix compares bytes, so the
// check is correct.
func isBullet(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "- ") ||
		strings.HasPrefix(trimmed, "* ") ||
		strings.HasPrefix(trimmed, "• ")
}

// isNumbered returns true for lines starting with "N. " or "N) " where N
// is one or more decimal digits.
func isNumbered(line string) bool {
	b := []byte(strings.TrimSpace(line))
	for j := 0; j < len(b); j++ {
		ch := b[j]
		if ch >= '0' && ch <= '9' {
			continue
		}
		if (ch == '.' || ch == ')') && j > 0 {
			return j+1 < len(b) && b[j+1] == ' '
		}
		break
	}
	return false
}

// isIndented returns true for lines with a leading tab or at least two
// spaces.
func isIndented(line string) bool {
	return strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "\t")
}

// stripListPrefix removes "N. ", "N) ", "- ", "* ", or "• " from the
// start of a line. Returns the trimmed text unchanged if no known prefix
// is present.
func stripListPrefix(line string) string {
	trimmed := strings.TrimSpace(line)
	b := []byte(trimmed)
	for j := 0; j < len(b); j++ {
		ch := b[j]
		if ch >= '0' && ch <= '9' {
			continue
		}
		if (ch == '.' || ch == ')') && j > 0 && j+1 < len(b) && b[j+1] == ' ' {
			return strings.TrimSpace(string(b[j+1:]))
		}
		break
	}
	for _, pfx := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(trimmed, pfx) {
			return strings.TrimSpace(trimmed[len(pfx):])
		}
	}
	return trimmed
}
