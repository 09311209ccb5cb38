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

	"github.com/fluffyriot/statsync/internal/fetcher/common"
	"github.com/fluffyriot/statsync/internal/store"
)

const (
	twitterInfoURL     = "https://cdn.syndication.twimg.com/widgets/followbutton/info.json?screen_names=%s"
	twitterTimelineURL = "https://syndication.twitter.com/srv/timeline-profile/screen-name/%s"
)

type twitterInfo struct {
	Name            string `json:"name"`
	ScreenName      string `json:"screen_name"`
	FollowersCount  int64  `json:"followers_count"`
	ProfileImageURL string `json:"profile_image_url_https"`
}

// fetchTwitter reads follower data from the public follow-button
// endpoint and, best-effort, recent tweets from the syndication
// timeline. Timeline failures only cost the content listing.
func (c *Client) fetchTwitter(ctx context.Context, cy *cycle) (*Attempt, error) {
	var infos []twitterInfo
	if err := c.getJSON(fmt.Sprintf(twitterInfoURL, url.QueryEscape(cy.acct.Handle)), &infos); err != nil {
		return nil, fmt.Errorf("follow-button lookup failed: %w", err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("no profile data for %s", cy.acct.Handle)
	}

	info := infos[0]
	fields := ProfileFields{
		Followers: info.FollowersCount,
		Avatar:    strings.Replace(info.ProfileImageURL, "_normal", "_400x400", 1),
		FullName:  info.Name,
	}
	cy.updateFields(fields)
	cy.rep.EmitStage("profile", 1, 1)

	items := c.fetchTwitterTimeline(cy.acct.Handle)
	if err := cy.commitBatch("timeline", items, 1, 1); err != nil {
		return &Attempt{Fields: fields}, err
	}

	if fields.Followers == 0 {
		return &Attempt{Fields: fields, Items: items, Insufficient: true}, nil
	}
	return &Attempt{Fields: fields, Items: items}, nil
}

// fetchTwitterTimeline never fails the strategy; the syndication
// service is flaky and follower data alone is still a useful snapshot.
func (c *Client) fetchTwitterTimeline(handle string) []store.ContentItem {
	resp, err := c.get(fmt.Sprintf(twitterTimelineURL, url.QueryEscape(handle)))
	if err != nil {
		log.Printf("Timeline fetch failed for %s: %v", handle, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		log.Printf("Timeline returned status %d for %s", resp.StatusCode, handle)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		log.Printf("Timeline read failed for %s: %v", handle, err)
		return nil
	}

	items, err := parseTwitterTimeline(string(body), handle, c.listingLimit())
	if err != nil {
		log.Printf("Timeline parse failed for %s: %v", handle, err)
		return nil
	}
	return items
}

var nextDataRe = regexp.MustCompile(`(?s)<script id="__NEXT_DATA__" type="application/json">(.*?)</script>`)

type timelineData struct {
	Props struct {
		PageProps struct {
			Timeline struct {
				Entries []struct {
					Type    string `json:"type"`
					Content struct {
						Tweet timelineTweet `json:"tweet"`
					} `json:"content"`
				} `json:"entries"`
			} `json:"timeline"`
		} `json:"pageProps"`
	} `json:"props"`
}

type timelineTweet struct {
	IDStr         string `json:"id_str"`
	Text          string `json:"text"`
	FullText      string `json:"full_text"`
	CreatedAt     string `json:"created_at"`
	FavoriteCount int64  `json:"favorite_count"`
	RetweetCount  int64  `json:"retweet_count"`
	ReplyCount    int64  `json:"reply_count"`
	Entities      struct {
		Media []struct {
			MediaURLHTTPS string `json:"media_url_https"`
		} `json:"media"`
	} `json:"entities"`
}

// parseTwitterTimeline extracts recent tweets from the syndication
// page's embedded state JSON.
func parseTwitterTimeline(html, handle string, limit int) ([]store.ContentItem, error) {
	m := nextDataRe.FindStringSubmatch(html)
	if m == nil {
		return nil, fmt.Errorf("no embedded state found")
	}

	var data timelineData
	if err := json.Unmarshal([]byte(m[1]), &data); err != nil {
		return nil, fmt.Errorf("embedded state malformed: %w", err)
	}

	var items []store.ContentItem
	for _, e := range data.Props.PageProps.Timeline.Entries {
		if e.Type != "tweet" {
			continue
		}
		t := e.Content.Tweet
		if t.IDStr == "" {
			continue
		}

		text := t.FullText
		if text == "" {
			text = t.Text
		}
		var thumb string
		if len(t.Entities.Media) > 0 {
			thumb = t.Entities.Media[0].MediaURLHTTPS
		}

		items = append(items, store.ContentItem{
			ID:         t.IDStr,
			Type:       "tweet",
			Title:      common.Truncate(text, 100),
			URL:        fmt.Sprintf("https://x.com/%s/status/%s", handle, t.IDStr),
			Thumbnail:  thumb,
			Likes:      t.FavoriteCount,
			Comments:   t.ReplyCount,
			Shares:     t.RetweetCount,
			UploadDate: t.CreatedAt,
		})
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}
