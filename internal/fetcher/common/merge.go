// SPDX-License-Identifier: AGPL-3.0-only
package common

import "github.com/fluffyriot/statsync/internal/store"

// MergeContent concatenates the given lists dropping items whose id was
// already seen. First occurrence by list order wins, so the earlier
// source's version of a shared item is the one kept.
func MergeContent(lists ...[]store.ContentItem) []store.ContentItem {
	seen := make(map[string]struct{})
	var out []store.ContentItem

	for _, list := range lists {
		for _, item := range list {
			if item.ID == "" {
				continue
			}
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}
