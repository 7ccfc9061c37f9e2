package repository

import "strings"

// ListOptions carries limit/offset paging and an optional free-text search.
type ListOptions struct {
	Limit  int
	Offset int
	Search string
}

// TitleFilter narrows title listings; empty fields are ignored.
type TitleFilter struct {
	ListOptions
	Category string // category slug
	Genre    string // genre slug
	Name     string // case-insensitive substring
	Year     *int
}

// likePattern escapes LIKE metacharacters so user input matches literally.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
