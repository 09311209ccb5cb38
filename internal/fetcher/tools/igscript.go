// SPDX-License-Identifier: AGPL-3.0-only
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrRateLimited marks the distinguished rate_limited tag from the
// scripted profile extractor.
var ErrRateLimited = errors.New("profile script rate limited")

// ProfileScript wraps the scripted profile extractor: one handle in, one
// JSON object out, error tag inside the object on failure.
type ProfileScript struct {
	Python  string
	Script  string
	Timeout time.Duration
}

func NewProfileScript(python, script string, timeout time.Duration) *ProfileScript {
	return &ProfileScript{Python: python, Script: script, Timeout: timeout}
}

type ScriptPost struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	Thumbnail  string `json:"thumbnail"`
	Likes      int64  `json:"likes"`
	Comments   int64  `json:"comments"`
	Views      int64  `json:"views"`
	IsVideo    bool   `json:"is_video"`
	UploadDate string `json:"upload_date"`
}

type ScriptProfile struct {
	Username      string       `json:"username"`
	FullName      string       `json:"full_name"`
	Biography     string       `json:"biography"`
	Followers     int64        `json:"followers"`
	Following     int64        `json:"following"`
	PostsCount    int64        `json:"posts_count"`
	IsPrivate     bool         `json:"is_private"`
	IsVerified    bool         `json:"is_verified"`
	ProfilePicURL string       `json:"profile_pic_url"`
	ExternalURL   string       `json:"external_url"`
	Posts         []ScriptPost `json:"posts"`

	Error   string `json:"error"`
	Message string `json:"message"`
}

func (p *ProfileScript) Fetch(ctx context.Context, handle string) (*ScriptProfile, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	handle = strings.TrimPrefix(handle, "@")
	cmd := exec.CommandContext(ctx, p.Python, p.Script, handle)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, fmt.Errorf("profile script timed out: %w", ctx.Err())
	}

	// The script reports failures as JSON on stdout with a non-zero exit,
	// so parse the output before deciding what the error was.
	profile, parseErr := parseScriptOutput(stdout.Bytes())
	if parseErr != nil {
		if runErr != nil {
			return nil, fmt.Errorf("profile script failed: %v: %s", runErr, lastLine(stderr.Bytes()))
		}
		return nil, parseErr
	}

	if profile.Error != "" {
		if profile.Error == "rate_limited" {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, profile.Message)
		}
		return nil, fmt.Errorf("profile script error: %s", profile.Error)
	}
	return profile, nil
}

func parseScriptOutput(out []byte) (*ScriptProfile, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("profile script produced no output")
	}
	var profile ScriptProfile
	if err := json.Unmarshal(out, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile script output: %w", err)
	}
	return &profile, nil
}
