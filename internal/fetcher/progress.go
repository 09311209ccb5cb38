// SPDX-License-Identifier: AGPL-3.0-only
package fetcher

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/fluffyriot/statsync/internal/store"
)

// Stage reserves a percentage sub-range for one named phase of a
// platform's chain. Completion within the stage maps linearly onto
// [Start, End]: a fully completed stage emits exactly End, which is the
// next stage's Start, and the monotone clamp keeps the hand-off from
// ever moving backwards.
type Stage struct {
	Name  string
	Start float64
	End   float64
}

// Reporter is the only component that touches the long-lived response
// stream. It writes one newline-delimited JSON record per batch and
// exactly one terminal record per cycle, and clamps progress so emitted
// values never decrease.
type Reporter struct {
	w        io.Writer
	stages   map[string]Stage
	last     int
	terminal bool
}

func NewReporter(w io.Writer, stages []Stage) *Reporter {
	m := make(map[string]Stage, len(stages))
	for _, s := range stages {
		m[s.Name] = s
	}
	return &Reporter{w: w, stages: m}
}

type progressRecord struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

type terminalRecord struct {
	Status        string              `json:"status"`
	Metrics       *store.Metrics      `json:"metrics"`
	RecentContent []store.ContentItem `json:"recentContent"`
	LastFetch     time.Time           `json:"lastFetch"`
}

// EmitStage maps completed/total within the named stage onto its
// percentage sub-range (End inclusive at full completion) and writes
// one update record.
func (r *Reporter) EmitStage(stage string, completed, total int) {
	if r.w == nil || r.terminal {
		return
	}

	s, ok := r.stages[stage]
	if !ok {
		return
	}

	frac := 1.0
	if total > 0 {
		frac = float64(completed) / float64(total)
		if frac > 1 {
			frac = 1
		}
	}

	pct := int(s.Start + frac*(s.End-s.Start))
	if pct < r.last {
		pct = r.last
	}
	r.last = pct

	r.write(progressRecord{Status: "update", Progress: pct})
}

// Done writes the single terminal record. Further calls are ignored, so
// best-effort error paths can call it without double-emitting.
func (r *Reporter) Done(acct *store.Account) {
	if r.w == nil || r.terminal {
		return
	}
	r.terminal = true

	content := acct.RecentContent
	if content == nil {
		content = []store.ContentItem{}
	}
	r.write(terminalRecord{
		Status:        "done",
		Metrics:       acct.Metrics,
		RecentContent: content,
		LastFetch:     acct.LastFetch,
	})
}

func (r *Reporter) write(record any) {
	enc := json.NewEncoder(r.w)
	if err := enc.Encode(record); err != nil {
		log.Printf("Failed to write progress record: %v", err)
		return
	}
	if f, ok := r.w.(http.Flusher); ok {
		f.Flush()
	}
}
