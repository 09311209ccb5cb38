// SPDX-License-Identifier: AGPL-3.0-only
package store

import (
	"time"

	"github.com/google/uuid"
)

// ContentItem is one post or video. The field set is a superset across
// platforms; zero values mean the platform did not report the field.
type ContentItem struct {
	ID          string  `json:"id"`
	Type        string  `json:"type,omitempty"`
	Title       string  `json:"title,omitempty"`
	URL         string  `json:"url,omitempty"`
	Thumbnail   string  `json:"thumbnail,omitempty"`
	Views       int64   `json:"views"`
	Likes       int64   `json:"likes"`
	Comments    int64   `json:"comments"`
	Shares      int64   `json:"shares"`
	Duration    float64 `json:"duration,omitempty"`
	UploadDate  string  `json:"uploadDate,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Metrics is the aggregate snapshot for one account. When no strategy
// produced usable data it degrades to an error record: Error and Message
// set, everything else zero.
type Metrics struct {
	Followers      int64   `json:"followers,omitempty"`
	Avatar         string  `json:"avatar,omitempty"`
	TotalViews     int64   `json:"totalViews,omitempty"`
	TotalLikes     int64   `json:"totalLikes,omitempty"`
	TotalComments  int64   `json:"totalComments,omitempty"`
	TotalShares    int64   `json:"totalShares,omitempty"`
	EngagementRate float64 `json:"engagementRate,omitempty"`
	BlockedCount   int     `json:"blockedCount,omitempty"`
	Error          string  `json:"error,omitempty"`
	Message        string  `json:"message,omitempty"`
}

// IsError reports whether the snapshot is an error record rather than a
// computed aggregate.
func (m *Metrics) IsError() bool {
	return m != nil && m.Error != ""
}

type Account struct {
	ID            uuid.UUID     `json:"id"`
	Platform      string        `json:"platform"`
	Handle        string        `json:"handle"`
	URL           string        `json:"url"`
	Cookie        string        `json:"cookie,omitempty"`
	FolderID      string        `json:"folderId,omitempty"`
	Metrics       *Metrics      `json:"metrics,omitempty"`
	RecentContent []ContentItem `json:"recentContent"`
	LastFetch     time.Time     `json:"lastFetch"`
}

// Clone returns a deep copy so a running fetch cycle owns its account
// record exclusively and never shares slices with the store document.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.Metrics != nil {
		m := *a.Metrics
		c.Metrics = &m
	}
	c.RecentContent = append([]ContentItem(nil), a.RecentContent...)
	return &c
}

type Folder struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Settings struct {
	WorkerIntervalMinutes int `json:"workerIntervalMinutes,omitempty"`
	ListingLimit          int `json:"listingLimit,omitempty"`
}

// document is the whole-file persistence envelope: platform name to an
// ordered list of accounts, plus the folder and settings side-tables.
type document struct {
	Accounts map[string][]*Account `json:"accounts"`
	Folders  []Folder              `json:"folders"`
	Settings Settings              `json:"settings"`
}

func newDocument() *document {
	return &document{Accounts: make(map[string][]*Account)}
}
