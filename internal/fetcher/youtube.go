// SPDX-License-Identifier: AGPL-3.0-only
package fetcher

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/fluffyriot/statsync/internal/fetcher/common"
	"github.com/fluffyriot/statsync/internal/fetcher/tools"
	"github.com/fluffyriot/statsync/internal/store"
)

// videoListing is one content source of a video platform, e.g. a
// channel's long-form uploads or its shorts shelf.
type videoListing struct {
	subtype string
	url     string
}

func (c *Client) fetchYouTube(ctx context.Context, cy *cycle) (*Attempt, error) {
	return c.fetchVideoPlatform(ctx, cy, []videoListing{
		{subtype: "video", url: cy.acct.URL + "/videos"},
		{subtype: "short", url: cy.acct.URL + "/shorts"},
	})
}

func (c *Client) fetchTwitch(ctx context.Context, cy *cycle) (*Attempt, error) {
	return c.fetchVideoPlatform(ctx, cy, []videoListing{
		{subtype: "vod", url: cy.acct.URL + "/videos?filter=archives&sort=time"},
		{subtype: "clip", url: cy.acct.URL + "/clips?filter=clips&range=7d"},
	})
}

// fetchVideoPlatform is the single strategy shared by the video
// platforms: both listings are fetched concurrently, tagged by sub-type,
// deduplicated by content id with the first source winning, then each
// item is enriched through the metadata tool in small batches.
func (c *Client) fetchVideoPlatform(ctx context.Context, cy *cycle, listings []videoListing) (*Attempt, error) {
	jar, cleanup := c.cookieJar(cy.acct)
	if cleanup != nil {
		defer cleanup()
	}

	lists := make([][]store.ContentItem, len(listings))
	errs := make([]error, len(listings))
	var fields ProfileFields
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i, l := range listings {
		wg.Add(1)
		go func(idx int, l videoListing) {
			defer wg.Done()
			entries, err := c.meta.FetchListing(ctx, l.url, c.listingLimit(), jar)
			if err != nil {
				errs[idx] = err
				return
			}
			items := make([]store.ContentItem, 0, len(entries))
			for _, e := range entries {
				items = append(items, coarseItem(&e, l.subtype))

				mu.Lock()
				if e.ChannelFollowerCount > fields.Followers {
					fields.Followers = e.ChannelFollowerCount
				}
				if fields.FullName == "" && e.Channel != "" {
					fields.FullName = e.Channel
				}
				mu.Unlock()
			}
			lists[idx] = items
		}(i, l)
	}
	wg.Wait()

	// Either listing alone is enough; both failing is a hard failure.
	var usable int
	var lastErr error
	for i := range listings {
		if errs[i] != nil {
			log.Printf("Listing %s failed for %s: %v", listings[i].subtype, cy.acct.Handle, errs[i])
			lastErr = errs[i]
			continue
		}
		usable++
	}
	if usable == 0 {
		return nil, fmt.Errorf("all listings failed: %w", lastErr)
	}

	merged := common.MergeContent(lists...)
	cy.updateFields(fields)
	cy.rep.EmitStage("listing", 1, 1)

	final, err := c.enrichItems(ctx, cy, merged, jar, nil)
	if err != nil {
		return &Attempt{Fields: fields}, err
	}

	if fields.Followers == 0 && len(final) == 0 {
		return &Attempt{Fields: fields, Insufficient: true}, nil
	}
	return &Attempt{Fields: fields, Items: final}, nil
}

// enrichItems runs per-item metadata extraction over coarse listing
// entries in bounded batches, committing after every batch. A failed
// item is dropped unless onFail salvages a substitute for it.
func (c *Client) enrichItems(
	ctx context.Context,
	cy *cycle,
	coarse []store.ContentItem,
	jar string,
	onFail func(item store.ContentItem, err error) (store.ContentItem, bool),
) ([]store.ContentItem, error) {
	results, err := common.RunBatches(ctx, coarse, c.cfg.BatchSizeHeavy,
		func(ctx context.Context, item store.ContentItem) (store.ContentItem, error) {
			info, ferr := c.meta.FetchItem(ctx, item.URL, jar)
			if ferr != nil {
				if onFail != nil {
					if sub, ok := onFail(item, ferr); ok {
						return sub, nil
					}
				}
				log.Printf("Item extraction failed for %s: %v", item.URL, ferr)
				return store.ContentItem{}, ferr
			}
			enriched := enrichedItem(info, item)
			return enriched, nil
		},
		func(batch []*store.ContentItem, completed, total int) error {
			var done []store.ContentItem
			for _, r := range batch {
				if r != nil {
					done = append(done, *r)
				}
			}
			return cy.commitBatch("enrich", done, completed, total)
		})
	if err != nil {
		return nil, err
	}

	var final []store.ContentItem
	for _, r := range results {
		if r != nil {
			final = append(final, *r)
		}
	}
	return final, nil
}

// cookieJar materializes the account credential for subprocess tools;
// both return values are zero when no credential is stored.
func (c *Client) cookieJar(acct *store.Account) (string, func()) {
	if acct.Cookie == "" {
		return "", nil
	}
	jar, cleanup, err := tools.WriteCookieJar(acct.Cookie, platformDomain(acct.Platform))
	if err != nil {
		log.Printf("Failed to write cookie jar for %s/%s: %v", acct.Platform, acct.Handle, err)
		return "", nil
	}
	return jar, cleanup
}

func platformDomain(platform string) string {
	switch platform {
	case "youtube":
		return "youtube.com"
	case "twitch":
		return "twitch.tv"
	case "tiktok":
		return "tiktok.com"
	case "instagram":
		return "instagram.com"
	case "facebook":
		return "facebook.com"
	case "twitter":
		return "x.com"
	default:
		return platform + ".com"
	}
}

// coarseItem converts a flat-listing entry into a content item carrying
// whatever coarse counts the listing stage exposed.
func coarseItem(e *tools.ItemInfo, subtype string) store.ContentItem {
	url := e.WebpageURL
	if url == "" {
		url = e.URL
	}
	return store.ContentItem{
		ID:          e.ID,
		Type:        subtype,
		Title:       e.Title,
		URL:         url,
		Thumbnail:   e.BestThumbnail(),
		Views:       e.ViewCount,
		Likes:       e.LikeCount,
		Comments:    e.CommentCount,
		Duration:    e.Duration,
		UploadDate:  e.UploadDate,
		Description: common.Truncate(e.Description, 200),
	}
}

// enrichedItem overlays full single-item metadata onto the coarse entry,
// keeping the listing's sub-type tag and falling back to coarse values
// where the tool reported nothing.
func enrichedItem(info *tools.ItemInfo, coarse store.ContentItem) store.ContentItem {
	item := coarseItem(info, coarse.Type)
	if item.ID == "" {
		item.ID = coarse.ID
	}
	if item.URL == "" {
		item.URL = coarse.URL
	}
	if item.Title == "" {
		item.Title = coarse.Title
	}
	if item.Thumbnail == "" {
		item.Thumbnail = coarse.Thumbnail
	}
	if item.Views == 0 {
		item.Views = coarse.Views
	}
	if item.Likes == 0 {
		item.Likes = coarse.Likes
	}
	return item
}
