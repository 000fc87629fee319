package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"learn-activity/internal/app"
	"learn-activity/internal/domain"
)

// FeedHandler streams leaderboard snapshots over a websocket.
type FeedHandler struct {
	feed     *app.LeaderboardFeed
	upgrader websocket.Upgrader
}

func NewFeedHandler(feed *app.LeaderboardFeed) *FeedHandler {
	return &FeedHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type feedMessage struct {
	Type    string                    `json:"type"`
	Payload []domain.LeaderboardEntry `json:"payload"`
}

// ServeWS upgrades the request and pushes a snapshot whenever the standings
// change. The read loop exists only to detect the client closing.
func (h *FeedHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.feed.Subscribe(r.Context())
	if err != nil {
		log.Printf("ws subscribe failed: %v", err)
		return
	}
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case entries, ok := <-updates:
			if !ok {
				return
			}
			if entries == nil {
				entries = []domain.LeaderboardEntry{}
			}
			if err := conn.WriteJSON(feedMessage{Type: "leaderboard", Payload: entries}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}
