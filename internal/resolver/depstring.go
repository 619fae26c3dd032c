package resolver

import "strings"

// CleanDependency strips a version constraint from a dependency string
// (e.g. "foo>=1.2" -> "foo"), matching makepkg's dependency syntax:
// name, optionally followed by one of <, <=, =, >=, > and a version.
// Idempotent: cleaning an already-clean name returns it unchanged.
func CleanDependency(dep string) string {
	if idx := strings.IndexAny(dep, "<>="); idx >= 0 {
		return dep[:idx]
	}
	return dep
}
