package tools

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestParseCookieHeader(t *testing.T) {
	pairs := ParseCookieHeader("c_user=100042; xs=ab%3Acd; datr=xyz;")
	if len(pairs) != 3 {
		t.Fatalf("len = %d, want 3", len(pairs))
	}
	if pairs[0].Name != "c_user" || pairs[0].Value != "100042" {
		t.Errorf("first pair = %+v", pairs[0])
	}
	if pairs[1].Value != "ab%3Acd" {
		t.Errorf("value should not be decoded: %q", pairs[1].Value)
	}
}

func TestParseCookieHeaderSkipsMalformed(t *testing.T) {
	pairs := ParseCookieHeader("broken; =novalue; ok=1")
	if len(pairs) != 1 || pairs[0].Name != "ok" {
		t.Errorf("pairs = %+v, want only ok=1", pairs)
	}
}

func TestWriteCookieJar(t *testing.T) {
	path, cleanup, err := WriteCookieJar("sessionid=abc; csrftoken=def", "facebook.com")
	if err != nil {
		t.Fatalf("WriteCookieJar failed: %v", err)
	}
	defer cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("jar unreadable: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# Netscape HTTP Cookie File") {
		t.Errorf("missing Netscape header: %q", content)
	}
	if !strings.Contains(content, ".facebook.com\tTRUE\t/\tTRUE\t0\tsessionid\tabc") {
		t.Errorf("missing cookie line: %q", content)
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("cleanup did not remove the jar file")
	}
}

func TestWriteCookieJarEmptyCredential(t *testing.T) {
	if _, _, err := WriteCookieJar("   ", "x.com"); err == nil {
		t.Error("expected error for empty credential")
	}
}

func TestParseFirstItem(t *testing.T) {
	out := []byte(`{"id":"abc123","title":"A video","view_count":1000,"like_count":50,"comment_count":7,"duration":63.5,"upload_date":"20250102","thumbnail":"https://i.example/t.jpg"}
{"id":"second","title":"ignored"}`)

	info, err := parseFirstItem(out)
	if err != nil {
		t.Fatalf("parseFirstItem failed: %v", err)
	}
	if info.ID != "abc123" || info.ViewCount != 1000 || info.Duration != 63.5 {
		t.Errorf("unexpected item: %+v", info)
	}
}

func TestParseFirstItemNullCounts(t *testing.T) {
	info, err := parseFirstItem([]byte(`{"id":"x","view_count":null,"like_count":null}`))
	if err != nil {
		t.Fatalf("parseFirstItem failed: %v", err)
	}
	if info.ViewCount != 0 || info.LikeCount != 0 {
		t.Errorf("null counts should stay zero: %+v", info)
	}
}

func TestParseListingSkipsMalformedLines(t *testing.T) {
	out := []byte(`{"id":"v1","title":"one"}
not json at all
{"id":"v2","title":"two"}`)

	items, err := parseListing(out)
	if err != nil {
		t.Fatalf("parseListing failed: %v", err)
	}
	if len(items) != 2 || items[0].ID != "v1" || items[1].ID != "v2" {
		t.Errorf("items = %+v", items)
	}
}

func TestBestThumbnail(t *testing.T) {
	i := &ItemInfo{}
	if i.BestThumbnail() != "" {
		t.Error("empty item should have no thumbnail")
	}
	i.Thumbnails = []struct {
		URL string `json:"url"`
	}{{URL: "small"}, {URL: "large"}}
	if i.BestThumbnail() != "large" {
		t.Errorf("BestThumbnail = %q, want largest (last)", i.BestThumbnail())
	}
	i.Thumbnail = "direct"
	if i.BestThumbnail() != "direct" {
		t.Errorf("direct field should win")
	}
}

func TestParseScriptOutput(t *testing.T) {
	raw := []byte(`{"username":"someone","followers":12100,"profile_pic_url":"https://i.example/p.jpg","posts":[{"id":"Cxyz","likes":420,"comments":11,"is_video":false}]}`)

	profile, err := parseScriptOutput(raw)
	if err != nil {
		t.Fatalf("parseScriptOutput failed: %v", err)
	}
	if profile.Followers != 12100 || len(profile.Posts) != 1 || profile.Posts[0].Likes != 420 {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestScriptErrorTags(t *testing.T) {
	profile, err := parseScriptOutput([]byte(`{"error":"rate_limited","message":"429"}`))
	if err != nil {
		t.Fatalf("parseScriptOutput failed: %v", err)
	}
	if profile.Error != "rate_limited" {
		t.Errorf("Error = %q", profile.Error)
	}

	// The Fetch wrapper converts the tag into the sentinel; exercise the
	// conversion logic directly.
	var convErr error
	if profile.Error == "rate_limited" {
		convErr = ErrRateLimited
	}
	if !errors.Is(convErr, ErrRateLimited) {
		t.Error("rate_limited tag should map to ErrRateLimited")
	}
}
