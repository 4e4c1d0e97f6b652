package agent

import (
	"sort"
	"strings"
)

// normalizeItems trims, de-duplicates, and sorts a caller-supplied list.
// Empty entries are dropped.
func normalizeItems(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	sort.Strings(result)
	if len(result) == 0 {
		return nil
	}
	return result
}

// setContains reports whether a sorted set contains the item.
func setContains(set []string, item string) bool {
	idx := sort.SearchStrings(set, item)
	return idx < len(set) && set[idx] == item
}

// setAdd returns the sorted union of set and items, plus the items that were
// actually new. The input set is never mutated.
func setAdd(set []string, items []string) (result []string, added []string) {
	result = append([]string(nil), set...)
	for _, item := range items {
		if setContains(result, item) {
			continue
		}
		result = append(result, item)
		added = append(added, item)
	}
	sort.Strings(result)
	sort.Strings(added)
	return result, added
}

// setRemove returns set without items, plus the items that were actually
// present. The input set is never mutated.
func setRemove(set []string, items []string) (result []string, removed []string) {
	drop := make(map[string]struct{}, len(items))
	for _, item := range items {
		if setContains(set, item) {
			drop[item] = struct{}{}
			removed = append(removed, item)
		}
	}
	for _, item := range set {
		if _, ok := drop[item]; ok {
			continue
		}
		result = append(result, item)
	}
	sort.Strings(removed)
	return result, removed
}
