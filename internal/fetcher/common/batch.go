// SPDX-License-Identifier: AGPL-3.0-only
package common

import (
	"context"
	"sync"
)

// RunBatches partitions items into contiguous groups of size and runs
// extract concurrently within each group, waiting for the whole group
// before starting the next. Grouping bounds simultaneous external-tool
// and network load, which is the point of batching at all.
//
// A failing extract leaves a nil slot and never fails the run. After each
// group, onBatchDone receives the group's result slice (nil slots
// included), the running completed count and the total, before the next
// group starts; this is where incremental aggregation and progress
// emission happen. An error from onBatchDone aborts the run.
func RunBatches[T, R any](
	ctx context.Context,
	items []T,
	size int,
	extract func(context.Context, T) (R, error),
	onBatchDone func(batch []*R, completed, total int) error,
) ([]*R, error) {
	if size < 1 {
		size = 1
	}

	total := len(items)
	results := make([]*R, total)

	for start := 0; start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				r, err := extract(ctx, items[idx])
				if err != nil {
					return
				}
				results[idx] = &r
			}(i)
		}
		wg.Wait()

		if onBatchDone != nil {
			if err := onBatchDone(results[start:end], end, total); err != nil {
				return results, err
			}
		}
	}

	return results, nil
}
