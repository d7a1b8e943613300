package redis

import (
	"sync"

	"batch-indicators/internal/model"
)

// pendingResults holds results that failed to publish. Only the newest
// result per latest-key is kept since older values are superseded anyway.
// When full, the oldest entries by insertion are dropped.
type pendingResults struct {
	mu    sync.Mutex
	max   int
	byKey map[string]model.IndicatorResult
	order []string // insertion order of keys in byKey
}

func newPendingResults(max int) *pendingResults {
	return &pendingResults{
		max:   max,
		byKey: make(map[string]model.IndicatorResult),
	}
}

// Drain removes every pending result and returns them merged with fresh.
// A fresh result replaces a pending one with the same key.
func (p *pendingResults) Drain(fresh []model.IndicatorResult) []model.IndicatorResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.byKey) == 0 {
		return fresh
	}

	freshKeys := make(map[string]struct{}, len(fresh))
	for i := range fresh {
		freshKeys[fresh[i].LatestKey()] = struct{}{}
	}

	out := make([]model.IndicatorResult, 0, len(p.byKey)+len(fresh))
	for _, k := range p.order {
		if _, ok := freshKeys[k]; ok {
			continue
		}
		if r, ok := p.byKey[k]; ok {
			out = append(out, r)
		}
	}
	out = append(out, fresh...)

	p.byKey = make(map[string]model.IndicatorResult)
	p.order = p.order[:0]
	return out
}

// Put stores results for a retry and returns how many older entries were
// dropped to stay within max.
func (p *pendingResults) Put(results []model.IndicatorResult) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, r := range results {
		k := r.LatestKey()
		if old, ok := p.byKey[k]; ok {
			if r.TS.Before(old.TS) {
				continue
			}
		} else {
			p.order = append(p.order, k)
		}
		p.byKey[k] = r
	}

	dropped := 0
	for len(p.byKey) > p.max {
		k := p.order[0]
		p.order = p.order[1:]
		delete(p.byKey, k)
		dropped++
	}
	return dropped
}

// Len returns the number of pending results.
func (p *pendingResults) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byKey)
}
