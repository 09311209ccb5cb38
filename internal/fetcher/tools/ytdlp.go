// SPDX-License-Identifier: AGPL-3.0-only
package tools

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// MetaDump wraps the yt-dlp style metadata tool: invoked per URL, one
// JSON object per output line, no media download.
type MetaDump struct {
	Path    string
	Timeout time.Duration
}

func NewMetaDump(path string, timeout time.Duration) *MetaDump {
	return &MetaDump{Path: path, Timeout: timeout}
}

// ItemInfo is the subset of the tool's JSON output the pipeline reads.
// Flat-listing mode fills only a few of these; single-item mode fills
// most. Missing or null fields stay zero.
type ItemInfo struct {
	ID                   string  `json:"id"`
	Title                string  `json:"title"`
	WebpageURL           string  `json:"webpage_url"`
	URL                  string  `json:"url"`
	Thumbnail            string  `json:"thumbnail"`
	ViewCount            int64   `json:"view_count"`
	LikeCount            int64   `json:"like_count"`
	CommentCount         int64   `json:"comment_count"`
	RepostCount          int64   `json:"repost_count"`
	Duration             float64 `json:"duration"`
	UploadDate           string  `json:"upload_date"`
	Timestamp            int64   `json:"timestamp"`
	Description          string  `json:"description"`
	Uploader             string  `json:"uploader"`
	Channel              string  `json:"channel"`
	ChannelFollowerCount int64   `json:"channel_follower_count"`
	Thumbnails           []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
}

// BestThumbnail prefers the direct thumbnail field, falling back to the
// last entry of the thumbnails list (yt-dlp orders them smallest first).
func (i *ItemInfo) BestThumbnail() string {
	if i.Thumbnail != "" {
		return i.Thumbnail
	}
	if n := len(i.Thumbnails); n > 0 {
		return i.Thumbnails[n-1].URL
	}
	return ""
}

func (m *MetaDump) run(ctx context.Context, args []string) ([]byte, error) {
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, m.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("metadata tool timed out: %w", ctx.Err())
		}
		return nil, fmt.Errorf("metadata tool failed: %v: %s", err, lastLine(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}

// FetchItem runs the tool in single-item mode and decodes the first
// output line.
func (m *MetaDump) FetchItem(ctx context.Context, url, cookieJar string) (*ItemInfo, error) {
	args := []string{"--dump-json", "--skip-download", "--no-warnings"}
	if cookieJar != "" {
		args = append(args, "--cookies", cookieJar)
	}
	args = append(args, url)

	out, err := m.run(ctx, args)
	if err != nil {
		return nil, err
	}
	return parseFirstItem(out)
}

// FetchListing runs the tool in flat-listing mode with a result-count
// cap and decodes every output line.
func (m *MetaDump) FetchListing(ctx context.Context, url string, limit int, cookieJar string) ([]ItemInfo, error) {
	args := []string{"--flat-playlist", "--dump-json", "--skip-download", "--no-warnings"}
	if limit > 0 {
		args = append(args, "--playlist-end", strconv.Itoa(limit))
	}
	if cookieJar != "" {
		args = append(args, "--cookies", cookieJar)
	}
	args = append(args, url)

	out, err := m.run(ctx, args)
	if err != nil {
		return nil, err
	}
	return parseListing(out)
}

func parseFirstItem(out []byte) (*ItemInfo, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var info ItemInfo
		if err := json.Unmarshal(line, &info); err != nil {
			return nil, fmt.Errorf("failed to parse tool output: %w", err)
		}
		return &info, nil
	}
	return nil, fmt.Errorf("metadata tool produced no output")
}

func parseListing(out []byte) ([]ItemInfo, error) {
	var items []ItemInfo
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var info ItemInfo
		if err := json.Unmarshal(line, &info); err != nil {
			// One malformed entry should not sink the listing.
			continue
		}
		items = append(items, info)
	}
	return items, nil
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
