package asset

import (
	"errors"
	"strings"
)

// RootDepth is the number of leading path segments (for example "users/example") that
// make up a user's root folder. Root folders are never created or deleted by this package.
const RootDepth = 2

// Clean trims leading and trailing separators from an asset identifier and ensures
// it doesn't contain empty or relative segments.
func Clean(id string) (string, error) {

	id = strings.Trim(id, "/")

	if id == "" {
		return "", errors.New("Empty asset ID")
	}

	for _, part := range strings.Split(id, "/") {

		switch part {
		case "", ".", "..":
			return "", errors.New("Invalid asset ID")
		default:
			// pass
		}
	}

	return id, nil
}

// Name returns the last segment of an asset identifier.
func Name(id string) string {

	id = strings.TrimRight(id, "/")
	idx := strings.LastIndex(id, "/")

	if idx == -1 {
		return id
	}

	return id[idx+1:]
}

// Parent returns the identifier of the parent of an asset, or an empty string if it has none.
func Parent(id string) string {

	id = strings.TrimRight(id, "/")
	idx := strings.LastIndex(id, "/")

	if idx == -1 {
		return ""
	}

	return id[:idx]
}

// Join joins one or more path segments in to an asset identifier.
func Join(parts ...string) string {

	trimmed := make([]string, 0, len(parts))

	for _, p := range parts {

		p = strings.Trim(p, "/")

		if p != "" {
			trimmed = append(trimmed, p)
		}
	}

	return strings.Join(trimmed, "/")
}

// Depth returns the number of segments in an asset identifier.
func Depth(id string) int {

	id = strings.Trim(id, "/")

	if id == "" {
		return 0
	}

	return strings.Count(id, "/") + 1
}

// IsRoot reports whether id is a root folder (or above one).
func IsRoot(id string) bool {
	return Depth(id) <= RootDepth
}

// Ancestors returns the identifiers of the intermediate folders between the root
// folder and id, ordered from the top down. For "users/example/a/b/c" that is
// "users/example/a" and "users/example/a/b".
func Ancestors(id string) []string {

	parts := strings.Split(strings.Trim(id, "/"), "/")

	if len(parts) <= RootDepth+1 {
		return []string{}
	}

	ancestors := make([]string, 0, len(parts)-RootDepth-1)
	root := strings.Join(parts[:RootDepth], "/")

	for _, part := range parts[RootDepth : len(parts)-1] {
		root = root + "/" + part
		ancestors = append(ancestors, root)
	}

	return ancestors
}
