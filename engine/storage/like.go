package storage

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern turns a search token into a lower-cased substring pattern for
// LIKE ... ESCAPE '\'.
func LikePattern(token string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(token)) + "%"
}
