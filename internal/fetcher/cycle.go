// SPDX-License-Identifier: AGPL-3.0-only
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/fluffyriot/statsync/internal/fetcher/common"
	"github.com/fluffyriot/statsync/internal/store"
)

// cycle is the state of one fetch-and-aggregate run for one account.
// The account record is an exclusively owned working copy for the whole
// cycle; the store only ever sees full-snapshot replacements of it.
type cycle struct {
	client  *Client
	acct    *store.Account
	rep     *Reporter
	fields  ProfileFields
	blocked int
}

// updateFields folds newly observed profile fields into the accumulated
// set (see MergeFields for the merge policy).
func (cy *cycle) updateFields(f ProfileFields) {
	cy.fields = MergeFields(cy.fields, f)
}

// commitBatch merges a batch's extracted items into the working record,
// recomputes the snapshot over everything accumulated so far, persists
// the whole account and emits one progress record. Called from batch
// completion hooks, synchronously before the next batch starts.
func (cy *cycle) commitBatch(stage string, newItems []store.ContentItem, completed, total int) error {
	cy.acct.RecentContent = common.MergeContent(cy.acct.RecentContent, newItems)
	cy.acct.Metrics = Recompute(cy.acct.Platform, cy.fields, cy.acct.RecentContent, cy.blocked)

	if err := cy.client.store.ReplaceAccount(cy.acct); err != nil {
		return fmt.Errorf("failed to persist batch: %w", err)
	}

	cy.rep.EmitStage(stage, completed, total)
	return nil
}

func (c *Client) chainFor(platform string) []strategy {
	switch platform {
	case "youtube":
		return []strategy{{name: "youtube-listing", fetch: c.fetchYouTube}}
	case "twitch":
		return []strategy{{name: "twitch-listing", fetch: c.fetchTwitch}}
	case "tiktok":
		return []strategy{{name: "tiktok-listing", fetch: c.fetchTikTok}}
	case "instagram":
		return []strategy{
			{name: "instagram-script", fetch: c.fetchInstagramScript},
			{name: "instagram-meta", fetch: c.fetchInstagramMeta},
		}
	case "facebook":
		return []strategy{
			{name: "facebook-api", fetch: c.fetchFacebookAPI},
			{name: "facebook-browser", fetch: c.fetchFacebookBrowser},
		}
	case "twitter":
		return []strategy{{name: "twitter-public", fetch: c.fetchTwitter}}
	default:
		return nil
	}
}

// runChain tries each strategy in order until one fully succeeds.
// Partial fields from failed attempts are carried forward into later
// ones; the last failure message is what an exhausted chain reports.
func (cy *cycle) runChain(ctx context.Context, strategies []strategy) error {
	if len(strategies) == 0 {
		return fmt.Errorf("no strategies for platform %s", cy.acct.Platform)
	}

	var lastErr error
	for _, s := range strategies {
		att, err := s.fetch(ctx, cy)
		if att != nil {
			cy.updateFields(att.Fields)
		}
		if err != nil {
			log.Printf("Strategy %s failed for %s/%s: %v", s.name, cy.acct.Platform, cy.acct.Handle, err)
			lastErr = err
			continue
		}
		if att == nil || att.Insufficient {
			lastErr = fmt.Errorf("strategy %s returned insufficient data", s.name)
			log.Printf("Strategy %s insufficient for %s/%s, trying next", s.name, cy.acct.Platform, cy.acct.Handle)
			continue
		}
		return nil
	}
	return lastErr
}

// FetchAccount runs one full cycle for the given account copy, streaming
// progress records to w. The terminal record is always emitted, even
// when every strategy failed; only persistence failures surface as a
// returned error, and even those after a best-effort terminal write.
func (c *Client) FetchAccount(ctx context.Context, acct *store.Account, w io.Writer) error {
	rep := NewReporter(w, platformStages[acct.Platform])
	cy := &cycle{client: c, acct: acct, rep: rep}

	// Snapshot and content are replaced wholesale each cycle.
	acct.Metrics = nil
	acct.RecentContent = nil

	chainErr := cy.runChain(ctx, c.chainFor(acct.Platform))

	acct.LastFetch = time.Now()

	if chainErr != nil {
		acct.Metrics = &store.Metrics{Error: "fetch_failed", Message: chainErr.Error()}
		acct.RecentContent = []store.ContentItem{}
	} else {
		acct.Metrics = Recompute(acct.Platform, cy.fields, acct.RecentContent, cy.blocked)
		rep.EmitStage("finalize", 1, 1)
	}

	persistErr := c.store.ReplaceAccount(acct)
	rep.Done(acct)

	if persistErr != nil {
		return fmt.Errorf("failed to persist fetch result: %w", persistErr)
	}
	return nil
}

// FetchAll runs cycles for every tracked account sequentially, one at a
// time, discarding progress. Sequential on purpose: overlapping cycles
// would interleave whole-file store writes.
func (c *Client) FetchAll(ctx context.Context) {
	for _, acct := range c.store.AllAccounts() {
		if err := c.FetchAccount(ctx, acct, io.Discard); err != nil {
			log.Printf("Fetch failed for %s/%s: %v", acct.Platform, acct.Handle, err)
		}
	}
}
