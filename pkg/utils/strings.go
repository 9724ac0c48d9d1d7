package utils

import "strings"

// SplitNonEmpty splits s on sep, trims every element and drops the blank ones.
func SplitNonEmpty(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}

	return result
}

// Unique returns values without duplicates, keeping the first occurrence of each.
func Unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}

	return result
}

// NormalizeLines turns a newline separated list into its canonical form:
// trimmed, deduplicated, no blank lines.
func NormalizeLines(s string) string {
	return strings.Join(Unique(SplitNonEmpty(strings.ReplaceAll(s, "\r\n", "\n"), "\n")), "\n")
}

// AppendLine adds line to a newline separated set if it is not already present.
func AppendLine(s, line string) string {
	return NormalizeLines(s + "\n" + line)
}
