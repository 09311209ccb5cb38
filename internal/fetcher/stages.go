// SPDX-License-Identifier: AGPL-3.0-only
package fetcher

// Per-platform progress stage tables. Each chain reserves sub-ranges of
// the 0-100 scale; the reporter maps in-stage completion into them.
// Ordering and bounds are part of the streamed contract with the UI.
var platformStages = map[string][]Stage{
	"youtube": {
		{Name: "listing", Start: 0, End: 30},
		{Name: "enrich", Start: 30, End: 95},
		{Name: "finalize", Start: 95, End: 100},
	},
	"twitch": {
		{Name: "listing", Start: 0, End: 30},
		{Name: "enrich", Start: 30, End: 95},
		{Name: "finalize", Start: 95, End: 100},
	},
	"tiktok": {
		{Name: "profile", Start: 0, End: 15},
		{Name: "listing", Start: 15, End: 35},
		{Name: "enrich", Start: 35, End: 95},
		{Name: "finalize", Start: 95, End: 100},
	},
	"instagram": {
		{Name: "profile", Start: 0, End: 80},
		{Name: "finalize", Start: 80, End: 100},
	},
	"facebook": {
		{Name: "profile", Start: 0, End: 30},
		{Name: "listing", Start: 30, End: 45},
		{Name: "enrich", Start: 45, End: 95},
		{Name: "finalize", Start: 95, End: 100},
	},
	"twitter": {
		{Name: "profile", Start: 0, End: 60},
		{Name: "timeline", Start: 60, End: 95},
		{Name: "finalize", Start: 95, End: 100},
	},
}
