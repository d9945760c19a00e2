package storage

import "strings"

// escapeLike escapes SQL LIKE metacharacters (%, _, and the escape
// character itself) so that user-supplied substrings match literally when
// wrapped in surrounding wildcards by the caller.
func escapeLike(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		"%", "\\%",
		"_", "\\_",
	)
	return r.Replace(s)
}

// likePattern builds a `LIKE ? ESCAPE '\'`-ready substring pattern from
// raw user input, escaping metacharacters before adding the surrounding
// wildcards.
func likePattern(raw string) string {
	return "%" + escapeLike(raw) + "%"
}

const likeEscapeClause = ` ESCAPE '\'`
