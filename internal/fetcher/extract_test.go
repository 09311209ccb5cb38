// SPDX-License-Identifier: AGPL-3.0-only
package fetcher

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/fluffyriot/statsync/internal/fetcher/tools"
	"github.com/fluffyriot/statsync/internal/store"
)

func TestExtractTikTokProfile(t *testing.T) {
	html := `<html><script>{"userInfo":{"user":{"avatarLarger":"https:\/\/p16.tiktokcdn.com\/img.jpeg"},"stats":{"followerCount": 123456,"heartCount":999}}}</script></html>`

	fields := extractTikTokProfile(html)
	if fields.Followers != 123456 {
		t.Errorf("Followers = %d, want 123456", fields.Followers)
	}
	if fields.Avatar != "https://p16.tiktokcdn.com/img.jpeg" {
		t.Errorf("Avatar = %q, escaped slashes not unescaped", fields.Avatar)
	}
}

func TestExtractTikTokProfileEmptyPage(t *testing.T) {
	fields := extractTikTokProfile("<html><body>verify you are human</body></html>")
	if fields != (ProfileFields{}) {
		t.Errorf("fields = %+v, want zero value", fields)
	}
}

func TestIsBlockedErr(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("HTTP Error 403: Forbidden"), true},
		{errors.New("Login required to access this content"), true},
		{errors.New("unable to extract video data"), true},
		{errors.New("no such file or directory"), false},
		{errors.New("context deadline exceeded"), false},
	}
	for _, tt := range tests {
		if got := isBlockedErr(tt.err); got != tt.want {
			t.Errorf("isBlockedErr(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return doc
}

func TestExtractInstagramMeta(t *testing.T) {
	doc := parseDoc(t, `<html><head>
		<meta property="og:description" content="12.5K Followers, 1,024 Following, 680 Posts - See Instagram photos and videos from Some One (@someone)"/>
		<meta property="og:image" content="https://cdn.example.com/avatar.jpg"/>
		<meta property="og:title" content="Some One (@someone)"/>
	</head></html>`)

	fields := extractInstagramMeta(doc)
	if fields.Followers != 12500 {
		t.Errorf("Followers = %d, want 12500", fields.Followers)
	}
	if fields.PostsCount != 680 {
		t.Errorf("PostsCount = %d, want 680", fields.PostsCount)
	}
	if fields.Avatar != "https://cdn.example.com/avatar.jpg" {
		t.Errorf("Avatar = %q", fields.Avatar)
	}
	if fields.FullName != "Some One" {
		t.Errorf("FullName = %q, want Some One", fields.FullName)
	}
}

func TestExtractInstagramMetaMissing(t *testing.T) {
	doc := parseDoc(t, `<html><head><title>Login</title></head></html>`)
	if fields := extractInstagramMeta(doc); fields.Followers != 0 {
		t.Errorf("Followers = %d on a login wall, want 0", fields.Followers)
	}
}

func TestExtractFacebookCounts(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int64
	}{
		{"english followers", "Some Page 48K followers · 120 following", 48000},
		{"likes only", "Community 3,456 likes", 3456},
		{"portuguese magnitude", "Página 14 mil seguidores", 14000},
		{"followers preferred over likes", "10 likes 2.5K followers", 2500},
		{"nothing", "a page with no counts at all", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractFacebookCounts(tt.text).Followers; got != tt.want {
				t.Errorf("Followers = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCollectFacebookContent(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<a href="/somepage/posts/111222333">post</a>
		<a href="https://www.facebook.com/somepage/videos/444555666/">video</a>
		<a href="/reel/777888999">reel</a>
		<a href="/somepage/posts/111222333">duplicate</a>
		<a href="/somepage/about">not content</a>
	</body></html>`)

	items := collectFacebookContent(doc)
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3 unique", len(items))
	}
	if items[0].ID != "111222333" || items[0].Type != "post" {
		t.Errorf("first item = %+v", items[0])
	}
	if items[0].URL != "https://www.facebook.com/somepage/posts/111222333" {
		t.Errorf("relative href not absolutized: %q", items[0].URL)
	}
	if items[1].Type != "video" || items[2].Type != "video" {
		t.Errorf("videos/reels should be typed video: %+v, %+v", items[1], items[2])
	}
}

func TestParseTwitterTimeline(t *testing.T) {
	html := `<html><body><script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"timeline":{"entries":[
		{"type":"tweet","content":{"tweet":{"id_str":"100","full_text":"hello world","favorite_count":12,"retweet_count":3,"reply_count":2,"created_at":"2026-08-20T10:00:00.000Z"}}},
		{"type":"cursor","content":{}},
		{"type":"tweet","content":{"tweet":{"id_str":"101","text":"short form","favorite_count":5,"entities":{"media":[{"media_url_https":"https://pbs.example.com/m.jpg"}]}}}}
	]}}}}</script></body></html>`

	items, err := parseTwitterTimeline(html, "someone", 25)
	if err != nil {
		t.Fatalf("parseTwitterTimeline() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (cursor entry skipped)", len(items))
	}

	first := items[0]
	if first.ID != "100" || first.Type != "tweet" || first.Title != "hello world" {
		t.Errorf("first item = %+v", first)
	}
	if first.Likes != 12 || first.Shares != 3 || first.Comments != 2 {
		t.Errorf("counts = %d/%d/%d, want 12/3/2", first.Likes, first.Shares, first.Comments)
	}
	if first.URL != "https://x.com/someone/status/100" {
		t.Errorf("URL = %q", first.URL)
	}

	if items[1].Title != "short form" {
		t.Errorf("text fallback failed: %q", items[1].Title)
	}
	if items[1].Thumbnail != "https://pbs.example.com/m.jpg" {
		t.Errorf("Thumbnail = %q", items[1].Thumbnail)
	}
}

func TestParseTwitterTimelineLimit(t *testing.T) {
	var entries []string
	for _, id := range []string{"1", "2", "3"} {
		entries = append(entries, `{"type":"tweet","content":{"tweet":{"id_str":"`+id+`"}}}`)
	}
	html := `<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"timeline":{"entries":[` +
		strings.Join(entries, ",") + `]}}}}</script>`

	items, err := parseTwitterTimeline(html, "someone", 2)
	if err != nil {
		t.Fatalf("parseTwitterTimeline() error = %v", err)
	}
	if len(items) != 2 {
		t.Errorf("got %d items, want limit of 2", len(items))
	}
}

func TestParseTwitterTimelineNoState(t *testing.T) {
	if _, err := parseTwitterTimeline("<html><body>rate limited</body></html>", "x", 25); err == nil {
		t.Error("expected error when embedded state is missing")
	}
}

func TestEnrichedItemFallsBackToCoarse(t *testing.T) {
	coarse := store.ContentItem{
		ID: "abc", Type: "short", Title: "coarse title",
		URL: "https://youtube.com/shorts/abc", Thumbnail: "coarse.jpg",
		Views: 100, Likes: 10,
	}
	info := &tools.ItemInfo{ID: "abc", ViewCount: 5000, LikeCount: 0}

	item := enrichedItem(info, coarse)
	if item.Type != "short" {
		t.Errorf("Type = %q, listing sub-type must survive enrichment", item.Type)
	}
	if item.Views != 5000 {
		t.Errorf("Views = %d, want enriched 5000", item.Views)
	}
	if item.Likes != 10 {
		t.Errorf("Likes = %d, want coarse fallback 10", item.Likes)
	}
	if item.Title != "coarse title" || item.Thumbnail != "coarse.jpg" || item.URL != "https://youtube.com/shorts/abc" {
		t.Errorf("coarse fallbacks lost: %+v", item)
	}
}

func TestPlatformDomain(t *testing.T) {
	if got := platformDomain("twitter"); got != "x.com" {
		t.Errorf("platformDomain(twitter) = %q, want x.com", got)
	}
	if got := platformDomain("youtube"); got != "youtube.com" {
		t.Errorf("platformDomain(youtube) = %q", got)
	}
}

func TestAPIToken(t *testing.T) {
	acct := &store.Account{Cookie: "c_user=1; access_token=EAAB123; xs=abc"}
	if got := apiToken(acct); got != "EAAB123" {
		t.Errorf("apiToken() = %q, want EAAB123", got)
	}
	if got := apiToken(&store.Account{Cookie: "c_user=1"}); got != "" {
		t.Errorf("apiToken() = %q, want empty", got)
	}
}
