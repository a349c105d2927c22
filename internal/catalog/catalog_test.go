package catalog

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/cardvault/internal/model"
)

func card(name, company string, tags ...string) model.Card {
	return model.Card{ShareID: name, CardFields: model.CardFields{FullName: name, Company: company, Tags: tags}}
}

func names(cards []model.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.FullName
	}
	return out
}

func TestFilter(t *testing.T) {
	t.Parallel()

	cards := []model.Card{
		card("Ada Lovelace", "Analytical Engines", "math", "history"),
		card("Grace Hopper", "US Navy", "compilers"),
		card("Alan Turing", "Bletchley", "Math", "crypto"),
	}

	assert.Equal(t, cards, Filter(cards, ""))
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, names(Filter(cards, "MATH")))
	assert.Equal(t, []string{"Grace Hopper"}, names(Filter(cards, "navy")))
	assert.Equal(t, []string{"Ada Lovelace"}, names(Filter(cards, "math history")), "tags are joined with a space")
	assert.Equal(t, []string{"Alan Turing"}, names(Filter(cards, "tur")))
	assert.Empty(t, Filter(cards, "nobody"))
	assert.Empty(t, Filter(nil, "x"))
}

func TestFilter_IsOrderPreservingSubsequence(t *testing.T) {
	t.Parallel()

	var cards []model.Card
	for i := 0; i < 50; i++ {
		cards = append(cards, card(fmt.Sprintf("person %02d", i), fmt.Sprintf("co%d", i%7), fmt.Sprintf("t%d", i%3)))
	}
	for _, q := range []string{"", "1", "co3", "t2", "person 4", "zzz"} {
		out := Filter(cards, q)
		j := 0
		for _, c := range out {
			for j < len(cards) && cards[j].ShareID != c.ShareID {
				j++
			}
			require.Less(t, j, len(cards), "query %q: result is not an ordered subsequence", q)
			j++
		}
	}
}

type fakeFeed struct {
	ch   chan []model.Card
	once sync.Once
}

func newFeed() *fakeFeed { return &fakeFeed{ch: make(chan []model.Card, 4)} }

func (f *fakeFeed) Updates() <-chan []model.Card { return f.ch }
func (f *fakeFeed) Cancel()                      { f.once.Do(func() { close(f.ch) }) }

func recv(t *testing.T, v *View) []model.Card {
	t.Helper()
	select {
	case r, ok := <-v.Results():
		require.True(t, ok, "results closed")
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no result")
		return nil
	}
}

func TestView_RecomputesOnSnapshotAndQuery(t *testing.T) {
	t.Parallel()
	feed := newFeed()
	v := NewView(feed, "math")
	defer v.Close()

	// no snapshot yet: query changes publish nothing
	v.SetQuery("MATH")
	select {
	case r := <-v.Results():
		t.Fatalf("unexpected result before first snapshot: %v", r)
	default:
	}

	feed.ch <- []model.Card{card("Ada", "", "math"), card("Grace", "Navy")}
	require.Equal(t, []string{"Ada"}, names(recv(t, v)))

	v.SetQuery("")
	require.Equal(t, []string{"Ada", "Grace"}, names(recv(t, v)))

	v.SetQuery("navy")
	require.Equal(t, []string{"Grace"}, names(recv(t, v)))

	feed.ch <- []model.Card{card("Grace", "Navy"), card("Hedy", "Navy")}
	require.Equal(t, []string{"Grace", "Hedy"}, names(recv(t, v)))
}

func TestView_LatestWins(t *testing.T) {
	t.Parallel()
	feed := newFeed()
	v := NewView(feed, "")
	defer v.Close()

	feed.ch <- []model.Card{card("A", "")}
	require.Equal(t, []string{"A"}, names(recv(t, v)))

	v.SetQuery("x")
	v.SetQuery("y")
	v.SetQuery("")
	require.Equal(t, []string{"A"}, names(recv(t, v)))
	select {
	case r := <-v.Results():
		t.Fatalf("stale result delivered: %v", r)
	default:
	}
}

func TestView_CloseDiscardsSnapshots(t *testing.T) {
	t.Parallel()
	feed := newFeed()
	v := NewView(feed, "")

	feed.ch <- []model.Card{card("A", "")}
	require.Equal(t, []string{"A"}, names(recv(t, v)))

	v.Close()
	v.Close()
	v.SetQuery("a")
	_, ok := <-v.Results()
	require.False(t, ok)
}
