package game

import "github.com/gosimple/slug"

// MakeSlug derives the URL identifier of a game from its display name.
func MakeSlug(name string) string {
	return slug.Make("game " + name)
}
