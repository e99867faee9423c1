// Package history keeps the capped, newest-first ledger of completed swings
// and persists it.
package history

import (
	"sync"
	"time"

	"github.com/dylan/swingtempo/swing"
	"github.com/google/uuid"
)

// DefaultCapacity is the number of swings kept.
const DefaultCapacity = 10

// TimestampLayout is the human clock time shown next to each swing.
const TimestampLayout = "3:04:05 PM"

// Item is one recorded swing.
type Item struct {
	ID         string       `json:"id"`
	Result     swing.Result `json:"result"`
	Timestamp  string       `json:"timestamp"`
	RecordedAt time.Time    `json:"recorded_at"`
}

// NewItem stamps a result with a fresh ID and the recording time.
func NewItem(res swing.Result, at time.Time) Item {
	at = at.Truncate(time.Millisecond)
	return Item{
		ID:         uuid.NewString(),
		Result:     res,
		Timestamp:  at.Format(TimestampLayout),
		RecordedAt: at,
	}
}

// Ledger holds at most its capacity of items, newest first.
type Ledger struct {
	mu       sync.RWMutex
	capacity int
	items    []Item
}

// NewLedger returns an empty ledger. capacity <= 0 uses DefaultCapacity.
func NewLedger(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ledger{capacity: capacity}
}

// Record prepends item, dropping the oldest entry when full.
func (l *Ledger) Record(item Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := make([]Item, 0, min(len(l.items)+1, l.capacity))
	items = append(items, item)
	for _, it := range l.items {
		if len(items) == l.capacity {
			break
		}
		items = append(items, it)
	}
	l.items = items
}

// Replace swaps in items (newest first), truncated to capacity.
func (l *Ledger) Replace(items []Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(items) > l.capacity {
		items = items[:l.capacity]
	}
	l.items = append([]Item(nil), items...)
}

func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
}

// Items returns a copy of the ledger, newest first.
func (l *Ledger) Items() []Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Item(nil), l.items...)
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

func (l *Ledger) Capacity() int { return l.capacity }

// Latest returns the most recent item.
func (l *Ledger) Latest() (Item, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.items) == 0 {
		return Item{}, false
	}
	return l.items[0], true
}
