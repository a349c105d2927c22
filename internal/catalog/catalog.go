// Package catalog filters an owner's card list for the dashboard search box.
package catalog

import (
	"strings"
	"sync"

	"github.com/and161185/cardvault/internal/model"
)

// Filter keeps cards whose name, company or space-joined tags contain query,
// ignoring case. The input order is preserved; an empty query keeps everything.
func Filter(cards []model.Card, query string) []model.Card {
	q := strings.ToLower(query)
	if q == "" {
		return cards
	}
	out := make([]model.Card, 0, len(cards))
	for _, c := range cards {
		if matches(c, q) {
			out = append(out, c)
		}
	}
	return out
}

func matches(c model.Card, q string) bool {
	return strings.Contains(strings.ToLower(c.FullName), q) ||
		strings.Contains(strings.ToLower(c.Company), q) ||
		strings.Contains(strings.ToLower(strings.Join(c.Tags, " ")), q)
}

// Feed is a live source of card list snapshots.
type Feed interface {
	Updates() <-chan []model.Card
	Cancel()
}

// View publishes Filter(latest snapshot, query) whenever either input changes.
// Only the newest result is buffered.
type View struct {
	feed Feed

	mu     sync.Mutex
	cards  []model.Card
	ready  bool
	query  string
	closed bool
	out    chan []model.Card
	done   chan struct{}
}

// NewView starts consuming feed. The view owns the feed and cancels it on Close.
func NewView(feed Feed, query string) *View {
	v := &View{feed: feed, query: query, out: make(chan []model.Card, 1), done: make(chan struct{})}
	go v.run()
	return v
}

// Results delivers filtered lists. It is closed by Close or when the feed ends.
func (v *View) Results() <-chan []model.Card { return v.out }

// SetQuery replaces the search text and republishes.
func (v *View) SetQuery(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query = q
	v.publishLocked()
}

// Close stops the view; snapshots arriving afterwards are dropped.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()

	v.feed.Cancel()
	<-v.done
}

func (v *View) run() {
	defer close(v.done)
	defer v.finish()
	for list := range v.feed.Updates() {
		v.mu.Lock()
		if v.closed {
			v.mu.Unlock()
			return
		}
		v.cards, v.ready = list, true
		v.publishLocked()
		v.mu.Unlock()
	}
}

func (v *View) finish() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		select {
		case <-v.out:
		default:
		}
	}
	v.closed = true
	v.cards = nil
	close(v.out)
}

// publishLocked replaces any unread result. Callers hold v.mu, so the send never blocks.
func (v *View) publishLocked() {
	if v.closed || !v.ready {
		return
	}
	res := Filter(v.cards, v.query)
	select {
	case <-v.out:
	default:
	}
	v.out <- res
}
