package node

import "strings"

const (
	// Separator separates the segments of a node.
	Separator = "."
	// Wildcard grants every node below its parent segment.
	Wildcard = "*"
	// Negation prefixes a node in list-form permissions to deny it.
	Negation = "-"
)

// Normalize returns the canonical form of a node, group or user name.
// Names are case-insensitive.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Wildcards returns the wildcard nodes that match n, most specific first.
// For "a.b.c" this is "a.b.*", "a.*", "*".
func Wildcards(n string) []string {
	if n == "" || n == Wildcard {
		return nil
	}
	segments := strings.Split(n, Separator)
	out := make([]string, 0, len(segments))
	for i := len(segments) - 1; i > 0; i-- {
		out = append(out, strings.Join(segments[:i], Separator)+Separator+Wildcard)
	}
	return append(out, Wildcard)
}

// Join joins node segments, skipping empty ones.
func Join(segments ...string) string {
	parts := segments[:0:0]
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, Separator)
}
