package service

import (
	"sort"
	"sync"
	"time"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
)

type QueueItem struct {
	CardID      string    `json:"card_id"`
	Priority    Tier      `json:"priority"`
	LastUpdated time.Time `json:"last_updated"` // zero when never priced
	EnqueuedAt  time.Time `json:"enqueued_at"`
	seq         uint64
}

// PriceQueue is the in-memory price refresh backlog. It is not persisted;
// a restart starts with an empty queue.
type PriceQueue struct {
	mu    sync.Mutex
	items []QueueItem
	seq   uint64
	now   func() time.Time
}

func NewPriceQueue() *PriceQueue {
	return &PriceQueue{now: time.Now}
}

// Push adds items, skipping cards already queued. A re-pushed card keeps the
// higher of the two priorities and the older timestamp. Returns the number
// of cards that were not queued before.
func (q *PriceQueue) Push(items ...QueueItem) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	added := 0
	for _, it := range items {
		if it.CardID == "" {
			continue
		}
		if i := q.indexOf(it.CardID); i >= 0 {
			cur := &q.items[i]
			if it.Priority.Weight() > cur.Priority.Weight() {
				cur.Priority = it.Priority
			}
			if it.LastUpdated.Before(cur.LastUpdated) {
				cur.LastUpdated = it.LastUpdated
			}
			continue
		}
		q.seq++
		it.seq = q.seq
		if it.EnqueuedAt.IsZero() {
			it.EnqueuedAt = q.now()
		}
		q.items = append(q.items, it)
		added++
	}
	return added
}

func (q *PriceQueue) indexOf(cardID string) int {
	for i := range q.items {
		if q.items[i].CardID == cardID {
			return i
		}
	}
	return -1
}

// Pop removes and returns up to n items: highest priority first, then the
// longest since last price update, then enqueue order.
func (q *PriceQueue) Pop(n int) []QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n <= 0 || len(q.items) == 0 {
		return nil
	}
	sort.SliceStable(q.items, func(i, j int) bool {
		a, b := q.items[i], q.items[j]
		if a.Priority.Weight() != b.Priority.Weight() {
			return a.Priority.Weight() > b.Priority.Weight()
		}
		if !a.LastUpdated.Equal(b.LastUpdated) {
			return a.LastUpdated.Before(b.LastUpdated)
		}
		return a.seq < b.seq
	})
	if n > len(q.items) {
		n = len(q.items)
	}
	out := make([]QueueItem, n)
	copy(out, q.items[:n])
	q.items = append(q.items[:0], q.items[n:]...)
	return out
}

func (q *PriceQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *PriceQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = nil
	return n
}

func (q *PriceQueue) Status() models.QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	st := models.QueueStatus{
		Total:  len(q.items),
		ByTier: map[string]int{string(TierHigh): 0, string(TierMedium): 0, string(TierLow): 0},
	}
	for _, it := range q.items {
		st.ByTier[string(it.Priority)]++
		if st.OldestAt == nil || it.EnqueuedAt.Before(*st.OldestAt) {
			at := it.EnqueuedAt
			st.OldestAt = &at
		}
	}
	return st
}
