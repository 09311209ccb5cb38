// SPDX-License-Identifier: AGPL-3.0-only
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/fluffyriot/statsync/internal/fetcher/common"
	"github.com/fluffyriot/statsync/internal/store"
)

var (
	tiktokFollowerRe = regexp.MustCompile(`"followerCount"\s*:\s*(\d+)`)
	tiktokAvatarRe   = regexp.MustCompile(`"avatarLarger"\s*:\s*"([^"]+)"`)
)

// fetchTikTok merges a best-effort profile-page scrape with a listing
// extraction. Per-item enrichment failures that look like bot blocking
// are tallied without aborting; blocked items keep the listing's coarse
// counts instead of being dropped.
func (c *Client) fetchTikTok(ctx context.Context, cy *cycle) (*Attempt, error) {
	fields := c.scrapeTikTokProfile(cy.acct.URL)
	cy.updateFields(fields)
	cy.rep.EmitStage("profile", 1, 1)

	jar, cleanup := c.cookieJar(cy.acct)
	if cleanup != nil {
		defer cleanup()
	}

	entries, err := c.meta.FetchListing(ctx, cy.acct.URL, c.listingLimit(), jar)
	if err != nil {
		return &Attempt{Fields: fields}, fmt.Errorf("listing extraction failed: %w", err)
	}

	coarse := make([]store.ContentItem, 0, len(entries))
	for _, e := range entries {
		coarse = append(coarse, coarseItem(&e, "video"))
	}
	cy.rep.EmitStage("listing", 1, 1)

	var blocked atomic.Int64
	final, err := c.enrichItems(ctx, cy, coarse, jar, tiktokSalvage(&blocked))
	// The salvage callback runs on batch goroutines; the cycle field is
	// only written here, after the batches have been waited out.
	cy.blocked = int(blocked.Load())
	if err != nil {
		return &Attempt{Fields: fields}, err
	}

	if fields.Followers == 0 && len(final) == 0 {
		return &Attempt{Fields: fields, Insufficient: true}, nil
	}
	return &Attempt{Fields: fields, Items: final}, nil
}

// tiktokSalvage tallies enrichment failures that look like bot blocking
// and keeps the listing's coarse counts for items that already carry
// some. Invoked concurrently from batch goroutines, so the tally is the
// only state it touches and it is atomic.
func tiktokSalvage(blocked *atomic.Int64) func(store.ContentItem, error) (store.ContentItem, bool) {
	return func(item store.ContentItem, ferr error) (store.ContentItem, bool) {
		if !isBlockedErr(ferr) {
			return store.ContentItem{}, false
		}
		blocked.Add(1)
		if item.Views > 0 || item.Likes > 0 {
			// Degraded substitute: the listing's coarse counts are
			// better than losing the item entirely.
			return item, true
		}
		return store.ContentItem{}, false
	}
}

// scrapeTikTokProfile never blocks the chain: any failure just yields
// empty fields.
func (c *Client) scrapeTikTokProfile(url string) ProfileFields {
	resp, err := c.get(url)
	if err != nil {
		log.Printf("TikTok profile scrape failed: %v", err)
		return ProfileFields{}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		log.Printf("TikTok profile read failed: %v", err)
		return ProfileFields{}
	}

	return extractTikTokProfile(string(body))
}

// extractTikTokProfile pulls follower count and avatar out of the
// profile page's embedded state JSON.
func extractTikTokProfile(html string) ProfileFields {
	var fields ProfileFields

	if m := tiktokFollowerRe.FindStringSubmatch(html); m != nil {
		fields.Followers = common.ParseCount(m[1])
	}
	if m := tiktokAvatarRe.FindStringSubmatch(html); m != nil {
		fields.Avatar = strings.ReplaceAll(m[1], "\\/", "/")
	}
	return fields
}

// isBlockedErr recognizes extraction failures caused by anti-bot
// measures rather than missing content.
func isBlockedErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"blocked", "login required", "captcha", "403", "rate limit", "unable to extract", "ip address"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
