package db

import (
	"fmt"
	"strings"
)

// Query-string builders for structured FT.SEARCH clauses. Repositories
// compose these into the query passed to Searcher.SearchStructured.

// TagClause builds an exact-match tag clause @field:{value} with the value
// escaped.
func TagClause(field, value string) string {
	return fmt.Sprintf("@%s:{%s}", field, EscapeTag(value))
}

// NumericRange builds an inclusive numeric range clause @field:[min max].
func NumericRange(field string, min, max float64) string {
	return fmt.Sprintf("@%s:[%g %g]", field, min, max)
}

// Or groups clauses into a disjunction. Empty clauses are skipped.
func Or(clauses ...string) string {
	kept := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if c != "" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return "(" + strings.Join(kept, " | ") + ")"
}

// EscapeTag escapes FT tag syntax characters in a value.
func EscapeTag(value string) string {
	return tagEscaper.Replace(value)
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)
