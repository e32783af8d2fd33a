package authz

import (
	"slices"
	"sort"
)

// Normalize removes duplicate permission names and sorts them. Returns nil
// for empty input so normalized sets compare cleanly.
func Normalize(names []string) []string {
	if len(names) == 0 {
		return nil
	}

	unique := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name != "" {
			unique[name] = struct{}{}
		}
	}
	if len(unique) == 0 {
		return nil
	}

	out := make([]string, 0, len(unique))
	for name := range unique {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// HasAny reports whether the caller's permission set intersects the
// required set. An empty required set always passes: it marks an
// intentionally public operation. Permission names are atomic; there is no
// wildcard or hierarchy matching.
func HasAny(callerPerms, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if len(callerPerms) == 0 {
		return false
	}

	if len(callerPerms) > 10 && len(required) > 3 {
		set := make(map[string]struct{}, len(callerPerms))
		for _, p := range callerPerms {
			set[p] = struct{}{}
		}
		for _, r := range required {
			if _, ok := set[r]; ok {
				return true
			}
		}
		return false
	}

	for _, r := range required {
		if slices.Contains(callerPerms, r) {
			return true
		}
	}
	return false
}
