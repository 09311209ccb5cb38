// SPDX-License-Identifier: AGPL-3.0-only
package fetcher

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fluffyriot/statsync/internal/store"
)

func decodeRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("invalid record %q: %v", line, err)
		}
		records = append(records, rec)
	}
	return records
}

func TestReporterStageMapping(t *testing.T) {
	var buf bytes.Buffer
	rep := NewReporter(&buf, []Stage{
		{Name: "listing", Start: 0, End: 30},
		{Name: "enrich", Start: 30, End: 95},
	})

	rep.EmitStage("listing", 1, 1)
	rep.EmitStage("enrich", 1, 3)
	rep.EmitStage("enrich", 2, 3)
	rep.EmitStage("enrich", 3, 3)

	// A completed stage lands exactly on its End, the next stage's Start.
	records := decodeRecords(t, &buf)
	want := []int{30, 51, 73, 95}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i, rec := range records {
		if rec["status"] != "update" {
			t.Errorf("record %d status = %v, want update", i, rec["status"])
		}
		if int(rec["progress"].(float64)) != want[i] {
			t.Errorf("record %d progress = %v, want %d", i, rec["progress"], want[i])
		}
	}
}

func TestReporterProgressNeverDecreases(t *testing.T) {
	var buf bytes.Buffer
	rep := NewReporter(&buf, []Stage{
		{Name: "profile", Start: 0, End: 80},
		{Name: "listing", Start: 15, End: 35},
	})

	rep.EmitStage("profile", 1, 1) // 80
	rep.EmitStage("listing", 1, 1) // would be 35, clamped to 80

	records := decodeRecords(t, &buf)
	last := -1
	for _, rec := range records {
		p := int(rec["progress"].(float64))
		if p < last {
			t.Errorf("progress decreased: %d after %d", p, last)
		}
		last = p
	}
	if last != 80 {
		t.Errorf("final progress = %d, want clamped 80", last)
	}
}

func TestReporterUnknownStageIgnored(t *testing.T) {
	var buf bytes.Buffer
	rep := NewReporter(&buf, []Stage{{Name: "profile", Start: 0, End: 50}})

	rep.EmitStage("nonexistent", 1, 1)
	if buf.Len() != 0 {
		t.Errorf("unknown stage produced output: %s", buf.String())
	}
}

func TestReporterSingleTerminalRecord(t *testing.T) {
	var buf bytes.Buffer
	rep := NewReporter(&buf, []Stage{{Name: "profile", Start: 0, End: 100}})

	acct := &store.Account{
		Metrics: &store.Metrics{Followers: 10},
	}
	rep.Done(acct)
	rep.Done(acct)
	rep.EmitStage("profile", 1, 1)

	records := decodeRecords(t, &buf)
	if len(records) != 1 {
		t.Fatalf("got %d records after Done, want exactly 1", len(records))
	}
	if records[0]["status"] != "done" {
		t.Errorf("status = %v, want done", records[0]["status"])
	}
	if _, ok := records[0]["recentContent"].([]any); !ok {
		t.Errorf("recentContent should encode as an array, got %T", records[0]["recentContent"])
	}
}

func TestReporterNilWriter(t *testing.T) {
	rep := NewReporter(nil, nil)
	rep.EmitStage("anything", 1, 1)
	rep.Done(&store.Account{})
}

func TestPlatformStageTables(t *testing.T) {
	for platform, stages := range platformStages {
		if len(stages) == 0 {
			t.Errorf("%s has no stages", platform)
			continue
		}
		for _, s := range stages {
			if s.Start < 0 || s.End > 100 || s.Start >= s.End {
				t.Errorf("%s stage %s has bad range [%v, %v)", platform, s.Name, s.Start, s.End)
			}
		}
		final := stages[len(stages)-1]
		if final.Name != "finalize" || final.End != 100 {
			t.Errorf("%s must end with finalize reaching 100, got %+v", platform, final)
		}
	}
}
