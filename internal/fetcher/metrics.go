// SPDX-License-Identifier: AGPL-3.0-only
package fetcher

import (
	"math"

	"github.com/fluffyriot/statsync/internal/store"
)

// viewCentric platforms divide engagement by total views; the others
// divide by follower count.
var viewCentric = map[string]bool{
	"youtube": true,
	"twitch":  true,
	"tiktok":  true,
}

// Recompute reduces the full content list accumulated so far into a
// fresh snapshot. It is a complete reduction rather than a delta over
// the previous snapshot, so the snapshot is always consistent with
// recentContent.
func Recompute(platform string, fields ProfileFields, content []store.ContentItem, blocked int) *store.Metrics {
	m := &store.Metrics{
		Followers:    fields.Followers,
		Avatar:       fields.Avatar,
		BlockedCount: blocked,
	}

	for _, item := range content {
		m.TotalViews += item.Views
		m.TotalLikes += item.Likes
		m.TotalComments += item.Comments
		m.TotalShares += item.Shares
	}

	denom := m.Followers
	if viewCentric[platform] {
		denom = m.TotalViews
	}
	if denom > 0 {
		rate := float64(m.TotalLikes+m.TotalComments) / float64(denom) * 100
		m.EngagementRate = math.Round(rate*100) / 100
	}

	return m
}
