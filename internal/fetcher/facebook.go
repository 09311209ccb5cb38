// SPDX-License-Identifier: AGPL-3.0-only
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fluffyriot/statsync/internal/fetcher/common"
	"github.com/fluffyriot/statsync/internal/fetcher/tools"
	"github.com/fluffyriot/statsync/internal/store"
)

const graphBase = "https://graph.facebook.com/v19.0"

type graphPage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

type graphPageDetails struct {
	Name           string `json:"name"`
	FollowersCount int64  `json:"followers_count"`
	FanCount       int64  `json:"fan_count"`
	Picture        struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

type graphEngagement struct {
	Summary struct {
		TotalCount int64 `json:"total_count"`
	} `json:"summary"`
}

type graphPost struct {
	ID           string          `json:"id"`
	Message      string          `json:"message"`
	Description  string          `json:"description"`
	CreatedTime  string          `json:"created_time"`
	PermalinkURL string          `json:"permalink_url"`
	FullPicture  string          `json:"full_picture"`
	Picture      string          `json:"picture"`
	Views        int64           `json:"views"`
	Likes        graphEngagement `json:"likes"`
	Comments     graphEngagement `json:"comments"`
	Shares       struct {
		Count int64 `json:"count"`
	} `json:"shares"`
}

type graphFeed struct {
	Data  []graphPost `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// apiToken pulls a Graph API credential out of the stored cookie blob.
// Accounts without one skip straight to the browser fallback.
func apiToken(acct *store.Account) string {
	for _, p := range tools.ParseCookieHeader(acct.Cookie) {
		if p.Name == "access_token" {
			return p.Value
		}
	}
	return ""
}

// fetchFacebookAPI is the authenticated strategy: resolve the managed
// page identity, read page fields, then pull posts and videos
// concurrently.
func (c *Client) fetchFacebookAPI(ctx context.Context, cy *cycle) (*Attempt, error) {
	token := apiToken(cy.acct)
	if token == "" {
		return nil, fmt.Errorf("no API credential stored")
	}

	page, err := c.resolveManagedPage(token, cy.acct.Handle)
	if err != nil {
		return nil, err
	}

	var details graphPageDetails
	detailsURL := fmt.Sprintf("%s/%s?fields=name,followers_count,fan_count,picture.type(large)&access_token=%s",
		graphBase, page.ID, url.QueryEscape(page.AccessToken))
	if err := c.getJSON(detailsURL, &details); err != nil {
		return nil, fmt.Errorf("failed to fetch page fields: %w", err)
	}

	fields := ProfileFields{
		Followers: details.FollowersCount,
		Avatar:    details.Picture.Data.URL,
		FullName:  details.Name,
	}
	if details.FanCount > fields.Followers {
		fields.Followers = details.FanCount
	}
	cy.updateFields(fields)
	cy.rep.EmitStage("profile", 1, 1)

	postsURL := fmt.Sprintf("%s/%s/posts?fields=id,message,created_time,permalink_url,full_picture,shares,likes.summary(true),comments.summary(true)&limit=%d&access_token=%s",
		graphBase, page.ID, c.listingLimit(), url.QueryEscape(page.AccessToken))
	videosURL := fmt.Sprintf("%s/%s/videos?fields=id,description,created_time,permalink_url,picture,views,likes.summary(true),comments.summary(true)&limit=%d&access_token=%s",
		graphBase, page.ID, c.listingLimit(), url.QueryEscape(page.AccessToken))

	var posts, videos graphFeed
	var postsErr, videosErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); postsErr = c.getJSON(postsURL, &posts) }()
	go func() { defer wg.Done(); videosErr = c.getJSON(videosURL, &videos) }()
	wg.Wait()

	if postsErr != nil && videosErr != nil {
		return &Attempt{Fields: fields}, fmt.Errorf("failed to fetch page content: %w", postsErr)
	}

	items := common.MergeContent(graphItems(posts.Data, "post"), graphItems(videos.Data, "video"))
	if err := cy.commitBatch("listing", items, 1, 1); err != nil {
		return &Attempt{Fields: fields}, err
	}
	cy.rep.EmitStage("enrich", 1, 1)

	return &Attempt{Fields: fields, Items: items}, nil
}

func (c *Client) resolveManagedPage(token, handle string) (*graphPage, error) {
	var accounts struct {
		Data  []graphPage `json:"data"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	accountsURL := fmt.Sprintf("%s/me/accounts?access_token=%s", graphBase, url.QueryEscape(token))
	if err := c.getJSON(accountsURL, &accounts); err != nil {
		return nil, fmt.Errorf("failed to resolve managed pages: %w", err)
	}
	if accounts.Error != nil {
		return nil, fmt.Errorf("graph API error: %s", accounts.Error.Message)
	}
	if len(accounts.Data) == 0 {
		return nil, fmt.Errorf("credential manages no pages")
	}

	lowered := strings.ToLower(handle)
	for i := range accounts.Data {
		p := &accounts.Data[i]
		if p.ID == handle || strings.ToLower(p.Name) == lowered {
			return p, nil
		}
	}
	return &accounts.Data[0], nil
}

func (c *Client) getJSON(url string, out any) error {
	resp, err := c.get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, common.Truncate(string(data), 200))
	}
	return json.Unmarshal(data, out)
}

func graphItems(posts []graphPost, itemType string) []store.ContentItem {
	items := make([]store.ContentItem, 0, len(posts))
	for _, p := range posts {
		title := p.Message
		if title == "" {
			title = p.Description
		}
		thumb := p.FullPicture
		if thumb == "" {
			thumb = p.Picture
		}
		items = append(items, store.ContentItem{
			ID:         p.ID,
			Type:       itemType,
			Title:      common.Truncate(title, 100),
			URL:        p.PermalinkURL,
			Thumbnail:  thumb,
			Views:      p.Views,
			Likes:      p.Likes.Summary.TotalCount,
			Comments:   p.Comments.Summary.TotalCount,
			Shares:     p.Shares.Count,
			UploadDate: p.CreatedTime,
		})
	}
	return items
}

var (
	fbFollowersRe = regexp.MustCompile(`(?i)([\d.,]+\s*(?:mil|mi|[KMB])?)\s+(?:followers|seguidores)`)
	fbLikesRe     = regexp.MustCompile(`(?i)([\d.,]+\s*(?:mil|mi|[KMB])?)\s+(?:likes|curtidas)`)
	fbContentRe   = regexp.MustCompile(`/(posts|videos|reel)/([A-Za-z0-9]+)`)
)

const stripOverlaysJS = `
	(function() {
		document.querySelectorAll('div[role="dialog"], div[data-testid="cookie-policy-manage-dialog"]').forEach(e => e.remove());
		document.querySelectorAll('div').forEach(e => {
			const s = window.getComputedStyle(e);
			if (s.position === 'fixed' && parseInt(s.zIndex || '0') > 100) e.remove();
		});
		document.body.style.overflow = 'auto';
		return true;
	})()
`

// fetchFacebookBrowser is the fallback: render the page headlessly,
// clear consent overlays, read the visible counts and collect content
// ids from anchors, then enrich each id through the metadata tool.
func (c *Client) fetchFacebookBrowser(ctx context.Context, cy *cycle) (*Attempt, error) {
	b, err := tools.OpenBrowser(ctx, c.cfg.Headless)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer b.Close()

	if pairs := tools.ParseCookieHeader(cy.acct.Cookie); len(pairs) > 0 {
		if err := b.SetCookies("facebook.com", pairs); err != nil {
			log.Printf("Failed to set browser cookies: %v", err)
		}
	}

	if err := b.Navigate(cy.acct.URL, 5*time.Second); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}

	if loc, err := b.Location(); err == nil && strings.Contains(loc, "/login") {
		return nil, fmt.Errorf("redirected to login page, cookie expired or missing")
	}

	var stripped bool
	if err := b.Evaluate(stripOverlaysJS, &stripped); err != nil {
		log.Printf("Overlay strip failed: %v", err)
	}

	text, err := b.PageText()
	if err != nil {
		return nil, fmt.Errorf("failed to read page text: %w", err)
	}
	fields := extractFacebookCounts(text)

	html, err := b.PageHTML()
	if err != nil {
		return &Attempt{Fields: fields}, fmt.Errorf("failed to read page html: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return &Attempt{Fields: fields}, fmt.Errorf("failed to parse page html: %w", err)
	}

	// Counts rendered in hidden or aria-only nodes don't surface in
	// innerText; a pass over the stripped markup catches those.
	if fields.Followers == 0 {
		fields = MergeFields(fields, extractFacebookCounts(common.StripHTMLToText(html)))
	}

	if img, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && fields.Avatar == "" {
		fields.Avatar = img
	}
	cy.updateFields(fields)
	cy.rep.EmitStage("profile", 1, 1)

	ids := collectFacebookContent(doc)

	// Profile timelines often render only a handful of posts; the
	// videos listing page usually carries more.
	if len(ids) < 3 {
		if err := b.Navigate(cy.acct.URL+"/videos", 4*time.Second); err == nil {
			if html, err := b.PageHTML(); err == nil {
				if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
					ids = common.MergeContent(ids, collectFacebookContent(doc))
				}
			}
		}
	}
	cy.rep.EmitStage("listing", 1, 1)

	jar, cleanup := c.cookieJar(cy.acct)
	if cleanup != nil {
		defer cleanup()
	}

	final, err := c.enrichItems(ctx, cy, ids, jar, nil)
	if err != nil {
		return &Attempt{Fields: fields}, err
	}

	if fields.Followers == 0 {
		return &Attempt{Fields: fields, Items: final, Insufficient: true}, nil
	}
	return &Attempt{Fields: fields, Items: final}, nil
}

// extractFacebookCounts reads follower and like counts out of rendered
// page text, with locale-aware magnitude parsing. Likes stand in for
// followers on pages that only show likes.
func extractFacebookCounts(text string) ProfileFields {
	var fields ProfileFields

	if m := fbFollowersRe.FindStringSubmatch(text); m != nil {
		fields.Followers = common.ParseCount(m[1])
	}
	if fields.Followers == 0 {
		if m := fbLikesRe.FindStringSubmatch(text); m != nil {
			fields.Followers = common.ParseCount(m[1])
		}
	}
	return fields
}

// collectFacebookContent gathers content ids from anchor hrefs,
// deduplicated in document order.
func collectFacebookContent(doc *goquery.Document) []store.ContentItem {
	var items []store.ContentItem
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		m := fbContentRe.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id := m[2]
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}

		itemURL := href
		if strings.HasPrefix(itemURL, "/") {
			itemURL = "https://www.facebook.com" + itemURL
		}
		itemType := "post"
		if m[1] == "videos" || m[1] == "reel" {
			itemType = "video"
		}
		items = append(items, store.ContentItem{ID: id, Type: itemType, URL: itemURL})
	})

	return items
}
