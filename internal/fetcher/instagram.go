// SPDX-License-Identifier: AGPL-3.0-only
package fetcher

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fluffyriot/statsync/internal/fetcher/common"
	"github.com/fluffyriot/statsync/internal/helpers"
	"github.com/fluffyriot/statsync/internal/store"
)

// fetchInstagramScript is the primary strategy: the scripted profile
// extractor returns profile fields and recent posts in one shot.
func (c *Client) fetchInstagramScript(ctx context.Context, cy *cycle) (*Attempt, error) {
	profile, err := c.script.Fetch(ctx, cy.acct.Handle)
	if err != nil {
		return nil, err
	}

	fields := ProfileFields{
		Followers:  profile.Followers,
		PostsCount: profile.PostsCount,
		Avatar:     profile.ProfilePicURL,
		FullName:   profile.FullName,
		Bio:        profile.Biography,
	}
	cy.updateFields(fields)

	items := make([]store.ContentItem, 0, len(profile.Posts))
	for _, p := range profile.Posts {
		itemType := "photo"
		if p.IsVideo {
			itemType = "video"
		}
		items = append(items, store.ContentItem{
			ID:         p.ID,
			Type:       itemType,
			Title:      common.Truncate(p.Title, 100),
			URL:        p.URL,
			Thumbnail:  p.Thumbnail,
			Views:      p.Views,
			Likes:      p.Likes,
			Comments:   p.Comments,
			UploadDate: p.UploadDate,
		})
	}

	if err := cy.commitBatch("profile", items, 1, 1); err != nil {
		return &Attempt{Fields: fields}, err
	}

	if fields.Followers == 0 {
		return &Attempt{Fields: fields, Items: items, Insufficient: true}, nil
	}
	return &Attempt{Fields: fields, Items: items}, nil
}

var igDescriptionRe = regexp.MustCompile(`(?i)([\d.,]+\s*[KMB]?)\s+Followers.*?([\d.,]+\s*[KMB]?)\s+Posts`)

// fetchInstagramMeta is the fallback: scrape the profile page's meta
// tags for follower/post counts and a preview image. No follower count
// here means the whole chain fails.
func (c *Client) fetchInstagramMeta(ctx context.Context, cy *cycle) (*Attempt, error) {
	url, err := helpers.ProfileURL("instagram", cy.acct.Handle)
	if err != nil {
		return nil, err
	}

	resp, err := c.get(url)
	if err != nil {
		return nil, fmt.Errorf("profile page fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("profile page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile page: %w", err)
	}

	fields := extractInstagramMeta(doc)
	cy.updateFields(fields)

	if fields.Followers == 0 {
		return &Attempt{Fields: fields}, fmt.Errorf("no follower count found in profile meta tags")
	}

	if err := cy.commitBatch("profile", nil, 1, 1); err != nil {
		return &Attempt{Fields: fields}, err
	}
	return &Attempt{Fields: fields}, nil
}

// extractInstagramMeta reads the og:description line of the shape
// "12K Followers, 1,024 Following, 680 Posts - ..." plus the og:image
// preview.
func extractInstagramMeta(doc *goquery.Document) ProfileFields {
	var fields ProfileFields

	desc, _ := doc.Find(`meta[property="og:description"]`).Attr("content")
	if desc != "" {
		if m := igDescriptionRe.FindStringSubmatch(desc); m != nil {
			fields.Followers = common.ParseCount(m[1])
			fields.PostsCount = common.ParseCount(m[2])
		} else if i := strings.Index(strings.ToLower(desc), "followers"); i > 0 {
			fields.Followers = common.ParseCount(desc[:i])
		}
	}

	if img, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		fields.Avatar = img
	}
	if title, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		fields.FullName = strings.TrimSpace(strings.Split(title, "(")[0])
	}

	return fields
}
