// Package template substitutes the year token in configured names and cloned expressions.
//
// The token has two spellings that mean the same thing:
//   - the placeholder "{year}" used in leapyear's own configuration
//   - the template year itself (e.g. "2025") inside names and expressions
//     read back from the template workspace, wherever it is not part of a
//     longer number ("FY2025" and "Weeks_2025" match, "20251" does not)
//
// Render is the only place either spelling is replaced.
package template

import (
	"strconv"
	"strings"
)

// Placeholder is the configuration spelling of the year token.
const Placeholder = "{year}"

// Years pairs the template year being cloned with the year being created.
type Years struct {
	Template int
	Target   int
}

// String renders the target year.
func (y Years) String() string {
	return strconv.Itoa(y.Target)
}

// yearIndexes returns the offsets of year in s that are not adjacent to
// another digit.
func yearIndexes(s, year string) []int {
	var out []int
	for from := 0; ; {
		i := strings.Index(s[from:], year)
		if i < 0 {
			return out
		}
		i += from
		end := i + len(year)
		if (i == 0 || !isDigit(s[i-1])) && (end == len(s) || !isDigit(s[end])) {
			out = append(out, i)
		}
		from = i + 1
	}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Render replaces every year token in s with the target year.
func Render(s string, y Years) string {
	out := strings.ReplaceAll(s, Placeholder, y.String())
	if y.Template == 0 || y.Template == y.Target {
		return out
	}
	year := strconv.Itoa(y.Template)
	idx := yearIndexes(out, year)
	if len(idx) == 0 {
		return out
	}
	var b strings.Builder
	last := 0
	for _, i := range idx {
		b.WriteString(out[last:i])
		b.WriteString(y.String())
		last = i + len(year)
	}
	b.WriteString(out[last:])
	return b.String()
}

// HasToken reports whether s contains either spelling of the year token.
func HasToken(s string, y Years) bool {
	if strings.Contains(s, Placeholder) {
		return true
	}
	return y.Template != 0 && len(yearIndexes(s, strconv.Itoa(y.Template))) > 0
}
