package snippet

import (
	"strings"
	"unicode"
)

// WhitePrefix returns the leading whitespace shared by all non-blank lines.
func WhitePrefix(lines []string) string {
	var prefix string
	first := true
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if first {
			prefix = l[:len(l)-len(strings.TrimLeftFunc(l, unicode.IsSpace))]
			first = false
			continue
		}
		prefix = commonPrefix(prefix, l)
	}
	return prefix
}

// ReindentBlock removes the common white prefix of lines and prepends
// newIndent to every non-empty line. Lines are joined with "\n".
func ReindentBlock(lines []string, newIndent string) string {
	oldIndent := WhitePrefix(lines)
	out := make([]string, len(lines))
	for i, l := range lines {
		l = strings.TrimPrefix(l, oldIndent)
		if l != "" && newIndent != "" {
			l = newIndent + l
		}
		out[i] = l
	}
	return strings.Join(out, "\n")
}

// Reindent is ReindentBlock over the lines of text.
func Reindent(text, newIndent string) string {
	return ReindentBlock(strings.Split(text, "\n"), newIndent)
}

// CommonPrefix returns the longest literal prefix shared by all strings.
func CommonPrefix(strs []string) string {
	if len(strs) == 0 {
		return ""
	}
	prefix := strs[0]
	for _, s := range strs[1:] {
		prefix = commonPrefix(prefix, s)
		if prefix == "" {
			break
		}
	}
	return prefix
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
