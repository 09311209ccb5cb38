// SPDX-License-Identifier: AGPL-3.0-only
package fetcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/fluffyriot/statsync/internal/fetcher/common"
	"github.com/fluffyriot/statsync/internal/store"
)

func TestTikTokSalvageConcurrentTally(t *testing.T) {
	items := make([]store.ContentItem, 10)
	for i := range items {
		items[i].ID = string(rune('a' + i))
		if i%2 == 0 {
			items[i].Views = int64(100 * (i + 1))
		}
	}

	// Same wiring as enrichment: the salvage callback fires on the
	// concurrent batch goroutines, every extraction blocked.
	var blocked atomic.Int64
	salvage := tiktokSalvage(&blocked)
	blockedErr := errors.New("HTTP Error 403: Forbidden")

	results, err := common.RunBatches(context.Background(), items, 5,
		func(ctx context.Context, item store.ContentItem) (store.ContentItem, error) {
			if sub, ok := salvage(item, blockedErr); ok {
				return sub, nil
			}
			return store.ContentItem{}, blockedErr
		}, nil)
	if err != nil {
		t.Fatalf("RunBatches() error = %v", err)
	}

	if got := blocked.Load(); got != 10 {
		t.Errorf("blocked tally = %d, want 10", got)
	}

	var kept int
	for _, r := range results {
		if r != nil {
			kept++
			if r.Views == 0 {
				t.Errorf("kept substitute without coarse counts: %+v", *r)
			}
		}
	}
	if kept != 5 {
		t.Errorf("kept %d degraded substitutes, want the 5 with coarse counts", kept)
	}
}

func TestTikTokSalvageIgnoresOtherErrors(t *testing.T) {
	var blocked atomic.Int64
	salvage := tiktokSalvage(&blocked)

	if _, ok := salvage(store.ContentItem{Views: 50}, errors.New("no such file or directory")); ok {
		t.Error("non-blocking failure must not be salvaged")
	}
	if blocked.Load() != 0 {
		t.Errorf("blocked tally = %d, want 0 for non-blocking failures", blocked.Load())
	}
}
