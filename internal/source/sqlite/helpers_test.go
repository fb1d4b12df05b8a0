package sqlite

import "strings"

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func join(tags []string) string {
	return strings.Join(tags, " ")
}
