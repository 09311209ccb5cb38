// SPDX-License-Identifier: AGPL-3.0-only
package fetcher

import (
	"context"

	"github.com/fluffyriot/statsync/internal/store"
)

// ProfileFields are the profile-level values a strategy can recover.
// Partial attempts contribute whatever subset they found.
type ProfileFields struct {
	Followers  int64
	PostsCount int64
	Avatar     string
	FullName   string
	Bio        string
}

// Attempt is the uniform result shape of one strategy run. A strategy
// reports full success (fields + items), partial success (Insufficient
// set, fields kept for the next attempt) or hard failure (error from
// fetch, possibly with a non-nil Attempt carrying salvaged fields).
type Attempt struct {
	Fields       ProfileFields
	Items        []store.ContentItem
	Insufficient bool
}

type strategy struct {
	name  string
	fetch func(ctx context.Context, cy *cycle) (*Attempt, error)
}

// MergeFields folds the next attempt's fields into the accumulated set:
// first non-empty wins for strings, numeric fields take the maximum
// observed because later attempts sometimes under-report after partial
// rendering.
func MergeFields(acc, next ProfileFields) ProfileFields {
	if next.Followers > acc.Followers {
		acc.Followers = next.Followers
	}
	if next.PostsCount > acc.PostsCount {
		acc.PostsCount = next.PostsCount
	}
	if acc.Avatar == "" {
		acc.Avatar = next.Avatar
	}
	if acc.FullName == "" {
		acc.FullName = next.FullName
	}
	if acc.Bio == "" {
		acc.Bio = next.Bio
	}
	return acc
}
