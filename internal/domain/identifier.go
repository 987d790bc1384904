package domain

import "strings"

var identifierReplacer = strings.NewReplacer(
	":", "",
	",", "",
	"?", "",
	"-", "_",
	" ", "_",
)

// Identifier derives the constant-style name used when listing the movie
// name to id index, e.g. "Mission: Impossible - Fallout" becomes
// "Mission_Impossible___Fallout".
func Identifier(name string) string {
	return identifierReplacer.Replace(name)
}
