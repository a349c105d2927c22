package httpapi

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/and161185/cardvault/internal/catalog"
	"github.com/and161185/cardvault/internal/convert"
)

// EventCards is the SSE event name carrying a filtered card list.
const EventCards = "cards"

// watchCards streams the owner's filtered card list as server-sent events,
// one "cards" event per change.
func (s *Server) watchCards(c *gin.Context) {
	ctx := c.Request.Context()
	sub, err := s.Cards.Subscribe(ctx, account(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	view := catalog.NewView(sub, c.Query("q"))
	defer view.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	tick := time.NewTicker(s.Heartbeat)
	defer tick.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case list, ok := <-view.Results():
			if !ok {
				return false
			}
			c.SSEvent(EventCards, convert.ToCards(list, s.Share.Link))
			return true
		case <-tick.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
