package http

import (
	"log"
	"net/http"
	"time"
)

const wsWriteWait = 10 * time.Second

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeLeaderboardWS upgrades to a websocket and streams leaderboard
// snapshots of one quiz until the client goes away. Inbound messages are
// read only to notice the close.
func (h *Handler) ServeLeaderboardWS(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if _, err := h.catalog.GetQuiz(r.Context(), quizID); err != nil {
		writeServiceError(w, err)
		return
	}

	updates, cancel, err := h.leaderboard.Subscribe(r.Context(), quizID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				msg := outboundMessage[leaderboardSnapshot]{Type: "leaderboard", Payload: newLeaderboardSnapshot(update)}
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-writerDone
}
