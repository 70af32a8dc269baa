// Package logname splits dotted logger and type names into their segments.
// Both '.' and '$' act as separators, so nested type names such as
// "com.foo.Bar$Nested" split the same way as package paths.
package logname

import "strings"

const separators = ".$"

// SeparatorIndex returns the index of the first separator at or after from,
// or -1 if there is none.
func SeparatorIndex(name string, from int) int {
	if from < 0 {
		from = 0
	}
	if from >= len(name) {
		return -1
	}
	i := strings.IndexAny(name[from:], separators)
	if i < 0 {
		return -1
	}
	return from + i
}

// Parts returns every segment of name. An empty name yields a single empty
// segment and a trailing separator yields a trailing empty segment.
func Parts(name string) []string {
	var parts []string
	from := 0
	for {
		i := SeparatorIndex(name, from)
		if i < 0 {
			return append(parts, name[from:])
		}
		parts = append(parts, name[from:i])
		from = i + 1
	}
}

// SimpleName returns the last segment of name.
func SimpleName(name string) string {
	i := strings.LastIndexAny(name, separators)
	return name[i+1:]
}

// Valid reports whether name is non-empty and has no empty segments.
func Valid(name string) bool {
	for _, p := range Parts(name) {
		if p == "" {
			return false
		}
	}
	return true
}
